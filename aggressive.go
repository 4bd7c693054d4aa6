package main

import (
	"fmt"
)

const (
	aggressiveStartQuality = 95
	aggressiveQualityStep  = 5
)

// WebPEncoder is the encode capability the aggressive search needs
type WebPEncoder interface {
	EncodeWebP(input, output string, quality int) error
}

// AggressiveCompressor defines the interface for the size-driven iterative
// quality search applied to files that stay oversized after the normal pass
type AggressiveCompressor interface {
	// Compress re-encodes input as a WebP output at decreasing quality
	// until the output fits under the size threshold or quality reaches
	// the floor, whichever comes first. On success both the output and
	// the input carry the aggressive marker. Returns the quality actually
	// used.
	Compress(input, output string) (int, error)
}

// aggressiveCompressor implements the AggressiveCompressor interface
type aggressiveCompressor struct {
	encoder   WebPEncoder
	store     MetadataStore
	threshold int64
	floor     int
}

// NewAggressiveCompressor creates a new AggressiveCompressor instance
func NewAggressiveCompressor(encoder WebPEncoder, store MetadataStore, threshold int64, floor int) AggressiveCompressor {
	return &aggressiveCompressor{
		encoder:   encoder,
		store:     store,
		threshold: threshold,
		floor:     floor,
	}
}

// Compress runs a monotonic linear search over the quality range, stopping
// as soon as the output is small enough. The floor is a hard stop: the
// result is best-effort, not guaranteed below the threshold.
func (a *aggressiveCompressor) Compress(input, output string) (int, error) {
	quality := aggressiveStartQuality
	if err := a.encoder.EncodeWebP(input, output, quality); err != nil {
		return 0, fmt.Errorf("webp encode at quality %d: %w", quality, err)
	}
	size, err := fileSize(output)
	if err != nil {
		return 0, err
	}

	for size > a.threshold && quality > a.floor {
		quality -= aggressiveQualityStep
		if quality < a.floor {
			quality = a.floor
		}
		// Always re-encode from the original input, never the previous
		// lossy output, so quality loss does not compound across
		// iterations.
		if err := a.encoder.EncodeWebP(input, output, quality); err != nil {
			return 0, fmt.Errorf("webp encode at quality %d: %w", quality, err)
		}
		if size, err = fileSize(output); err != nil {
			return 0, err
		}
	}

	// Stamp the output and advance the input's tier: the input is what a
	// later run examines for eligibility, so without its stamp every run
	// would re-select the same files.
	if err := a.store.WriteTier(output, TierAggressive); err != nil {
		return 0, err
	}
	if err := a.store.WriteTier(input, TierAggressive); err != nil {
		return 0, err
	}
	return quality, nil
}
