package main

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func makeJobs(n int) []Job {
	jobs := make([]Job, n)
	for i := range jobs {
		jobs[i] = Job{RelPath: fmt.Sprintf("job-%d.jpg", i)}
	}
	return jobs
}

func TestClampConcurrency(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		numCPU    int
		want      int
	}{
		{"quarter of the CPUs", 16, 16, 4},
		{"request below the clamp", 2, 16, 2},
		{"request far above available units", 100, 8, 2},
		{"few CPUs always leave one slot", 8, 2, 1},
		{"zero request still runs one worker", 0, 16, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clampConcurrency(tt.requested, tt.numCPU); got != tt.want {
				t.Errorf("clampConcurrency(%d, %d) = %d, want %d", tt.requested, tt.numCPU, got, tt.want)
			}
		})
	}
}

func TestDispatcher_ConcurrencyBound(t *testing.T) {
	const limit = 3
	d := &dispatcher{limit: limit}

	var active, peak int64
	results := d.Run(makeJobs(20), func(job Job) Result {
		cur := atomic.AddInt64(&active, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if cur <= p || atomic.CompareAndSwapInt64(&peak, p, cur) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt64(&active, -1)
		return Result{Status: StatusOK, RelPath: job.RelPath}
	})

	if len(results) != 20 {
		t.Fatalf("Expected 20 results, got %d", len(results))
	}
	if peak > limit {
		t.Errorf("Expected at most %d simultaneous workers, observed %d", limit, peak)
	}
}

func TestDispatcher_OneResultPerJobInSubmissionOrder(t *testing.T) {
	d := &dispatcher{limit: 4}
	jobs := makeJobs(10)

	results := d.Run(jobs, func(job Job) Result {
		return Result{Status: StatusOK, RelPath: job.RelPath}
	})

	if len(results) != len(jobs) {
		t.Fatalf("Expected %d results, got %d", len(jobs), len(results))
	}
	for i, res := range results {
		if res.RelPath != jobs[i].RelPath {
			t.Errorf("Result %d belongs to %s, expected %s", i, res.RelPath, jobs[i].RelPath)
		}
	}
}

func TestDispatcher_FailureIsolation(t *testing.T) {
	d := &dispatcher{limit: 2}
	jobs := makeJobs(8)

	results := d.Run(jobs, func(job Job) Result {
		if job.RelPath == "job-3.jpg" {
			return Result{Status: StatusFail, RelPath: job.RelPath, Err: errors.New("corrupt input")}
		}
		return Result{Status: StatusOK, RelPath: job.RelPath}
	})

	failed := 0
	for _, res := range results {
		if res.Status == StatusFail {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("Expected exactly 1 failed result, got %d", failed)
	}
}

func TestDispatcher_EmptyJobList(t *testing.T) {
	d := &dispatcher{limit: 2}
	results := d.Run(nil, func(job Job) Result {
		t.Error("Worker must not run for an empty job list")
		return Result{}
	})
	if len(results) != 0 {
		t.Errorf("Expected no results, got %d", len(results))
	}
}
