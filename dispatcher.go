package main

import (
	"runtime"
	"sync"
)

// Dispatcher defines the interface for running jobs with bounded concurrency
type Dispatcher interface {
	// Run executes every job to completion and returns one result per job,
	// in submission order. Job failures are isolated: a failing job is
	// recorded in its result and never affects sibling jobs.
	Run(jobs []Job, worker func(Job) Result) []Result
}

// dispatcher implements the Dispatcher interface
type dispatcher struct {
	limit int
}

// NewDispatcher creates a Dispatcher whose concurrency is clamped to at
// most a quarter of the available processing units, and never less than
// one. The pipeline is a background batch task and must not saturate the
// host.
func NewDispatcher(requested int) Dispatcher {
	return &dispatcher{limit: clampConcurrency(requested, runtime.NumCPU())}
}

func clampConcurrency(requested, numCPU int) int {
	limit := numCPU / 4
	if limit < 1 {
		limit = 1
	}
	if requested < limit {
		limit = requested
	}
	if limit < 1 {
		limit = 1
	}
	return limit
}

// Run executes every job to completion with at most limit jobs in flight
func (d *dispatcher) Run(jobs []Job, worker func(Job) Result) []Result {
	results := make([]Result, len(jobs))
	sem := make(chan struct{}, d.limit)
	var wg sync.WaitGroup

	for i := range jobs {
		// Blocks until a worker slot frees up once the limit is reached.
		sem <- struct{}{}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			// Each goroutine writes only its own slot, so no worker ever
			// shares mutable state with another.
			results[i] = worker(jobs[i])
		}(i)
	}

	wg.Wait()
	return results
}
