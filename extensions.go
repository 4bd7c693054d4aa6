package main

import (
	"path/filepath"
	"strings"
)

// Format identifies the image format of a work item, derived from its file
// extension.
type Format string

const (
	FormatJPEG    Format = "jpeg"
	FormatPNG     Format = "png"
	FormatGIF     Format = "gif"
	FormatWebP    Format = "webp"
	FormatUnknown Format = ""
)

// Extensions defines the interface for classifying files by extension
type Extensions interface {
	// IsImage reports whether the path has a supported image extension
	IsImage(path string) bool
	// Format returns the image format for the path, or FormatUnknown
	Format(path string) Format
}

// extensions implements the Extensions interface
type extensions struct {
	formats map[string]Format
}

// NewExtensions creates a new Extensions instance covering the supported
// image extension set
func NewExtensions() Extensions {
	return &extensions{
		formats: map[string]Format{
			".jpg":  FormatJPEG,
			".jpeg": FormatJPEG,
			".png":  FormatPNG,
			".gif":  FormatGIF,
			".webp": FormatWebP,
		},
	}
}

// IsImage reports whether the path has a supported image extension
func (e *extensions) IsImage(path string) bool {
	return e.Format(path) != FormatUnknown
}

// Format returns the image format for the path, or FormatUnknown
func (e *extensions) Format(path string) Format {
	return e.formats[strings.ToLower(filepath.Ext(path))]
}
