package main

import (
	"fmt"

	"github.com/barasher/go-exiftool"
)

// FileMeta holds the per-file values pre-read in one batched tool call
// before the selection loop runs.
type FileMeta struct {
	Tier   Tier
	Width  int
	Height int
}

// MetadataStore defines the interface for reading and writing the
// idempotence marker embedded in image files
type MetadataStore interface {
	// ReadBatch reads marker and dimension metadata for all paths in a
	// single tool invocation. A file whose metadata cannot be read is
	// reported with TierNone rather than an error.
	ReadBatch(paths []string) (map[string]FileMeta, error)
	// WriteTier stamps the tier marker onto a single file
	WriteTier(path string, tier Tier) error
	// Close releases the underlying tool handle
	Close() error
}

// exiftoolStore implements the MetadataStore interface on top of a
// long-running exiftool process
type exiftoolStore struct {
	et *exiftool.Exiftool
}

// NewMetadataStore creates a new MetadataStore instance. It fails if the
// exiftool binary is not available, which is a fatal condition for the run.
func NewMetadataStore() (MetadataStore, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("failed to start exiftool: %w", err)
	}
	return &exiftoolStore{et: et}, nil
}

// ReadBatch reads marker and dimension metadata for all paths in a single
// tool invocation
func (s *exiftoolStore) ReadBatch(paths []string) (map[string]FileMeta, error) {
	metas := make(map[string]FileMeta, len(paths))
	if len(paths) == 0 {
		return metas, nil
	}

	for _, fm := range s.et.ExtractMetadata(paths...) {
		meta := FileMeta{}
		if fm.Err != nil {
			// Unreadable metadata degrades to "no marker": the file is
			// re-processed rather than the run aborted. The transform
			// itself will surface any real problem with the file.
			logger.Debug("Metadata read failed", "path", fm.File, "error", fm.Err)
			metas[fm.File] = meta
			continue
		}
		if comment, err := fm.GetString("Comment"); err == nil {
			meta.Tier = ParseTier(comment)
		}
		if w, err := fm.GetInt("ImageWidth"); err == nil {
			meta.Width = int(w)
		}
		if h, err := fm.GetInt("ImageHeight"); err == nil {
			meta.Height = int(h)
		}
		metas[fm.File] = meta
	}
	return metas, nil
}

// WriteTier stamps the tier marker onto a single file
func (s *exiftoolStore) WriteTier(path string, tier Tier) error {
	fm := exiftool.EmptyFileMetadata()
	fm.File = path
	fm.SetString("Comment", tier.Marker())

	fms := []exiftool.FileMetadata{fm}
	s.et.WriteMetadata(fms)
	if fms[0].Err != nil {
		return fmt.Errorf("failed to write %s marker to %s: %w", tier, path, fms[0].Err)
	}
	return nil
}

// Close releases the underlying exiftool process
func (s *exiftoolStore) Close() error {
	return s.et.Close()
}
