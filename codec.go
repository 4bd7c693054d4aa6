package main

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// toolNiceness is the priority applied to spawned codec tools so batch
// encodes do not starve interactive workloads on the host.
const toolNiceness = 10

// Codec defines the interface for transforming a single image file through
// the external encoder tools
type Codec interface {
	// Transform resizes and re-encodes a job's input into its output path.
	// On success the output carries the optimized marker; the marker is
	// never written on a failure path.
	Transform(job Job, opts Options) error
	// EncodeWebP re-encodes input as WebP at the given quality, without
	// resizing
	EncodeWebP(input, output string, quality int) error
	// CheckTools verifies that every external tool the run will need is
	// available. A missing tool is fatal before any processing begins.
	CheckTools(items []WorkItem, opts Options) error
}

// toolCodec implements the Codec interface
type toolCodec struct {
	store MetadataStore
}

// NewCodec creates a new Codec instance backed by the external encoder
// tools and the given metadata store
func NewCodec(store MetadataStore) Codec {
	return &toolCodec{store: store}
}

// Transform resizes and re-encodes a job's input into its output path
func (c *toolCodec) Transform(job Job, opts Options) error {
	var err error
	switch job.Format {
	case FormatJPEG:
		err = c.transformJPEG(job, opts)
	case FormatPNG:
		err = c.transformPNG(job, opts)
	case FormatGIF:
		err = c.transformGIF(job)
	case FormatWebP:
		err = c.transformWebP(job, opts)
	default:
		return fmt.Errorf("unsupported format for %s", job.AbsPath)
	}
	if err != nil {
		return err
	}

	if opts.WebPSiblings && job.Format != FormatWebP {
		if err := c.webpSibling(job, opts); err != nil {
			return fmt.Errorf("webp sibling: %w", err)
		}
	}

	// Stamping is the last step of a successful transform.
	return c.store.WriteTier(job.OutputPath, TierOptimized)
}

// transformJPEG re-encodes a JPEG: sRGB colorspace, shrink-only resize,
// quality re-encode, metadata strip, then a lossless recompression pass.
func (c *toolCodec) transformJPEG(job Job, opts Options) error {
	err := runTool("magick", job.AbsPath,
		"-colorspace", "sRGB",
		"-resize", shrinkOnlyGeometry(opts.MaxDimension),
		"-quality", strconv.Itoa(opts.JPEGQuality),
		"-strip",
		job.OutputPath)
	if err != nil {
		return fmt.Errorf("jpeg encode: %w", err)
	}
	if err := runTool("jpegoptim", "--strip-all", "--quiet", job.OutputPath); err != nil {
		return fmt.Errorf("jpeg lossless pass: %w", err)
	}
	return nil
}

// transformPNG re-encodes a PNG. Size optimization is lossless only: no
// palette or chroma quantization, preserving color fidelity.
func (c *toolCodec) transformPNG(job Job, opts Options) error {
	err := runTool("magick", job.AbsPath,
		"-colorspace", "sRGB",
		"-resize", shrinkOnlyGeometry(opts.MaxDimension),
		"-strip",
		job.OutputPath)
	if err != nil {
		return fmt.Errorf("png encode: %w", err)
	}
	if err := runTool("optipng", "-quiet", "-o2", job.OutputPath); err != nil {
		return fmt.Errorf("png lossless pass: %w", err)
	}
	return nil
}

// transformGIF applies a lossless frame and color-table optimization at the
// maximum optimization level
func (c *toolCodec) transformGIF(job Job) error {
	if err := runTool("gifsicle", "--optimize=3", job.AbsPath, "-o", job.OutputPath); err != nil {
		return fmt.Errorf("gif optimize: %w", err)
	}
	return nil
}

// transformWebP recompresses a WebP, resizing when the source exceeds the
// dimension limit. Some input combinations make the encoder reject the
// resize arguments; those fall back to a recompress without resize.
func (c *toolCodec) transformWebP(job Job, opts Options) error {
	w, h, resize := fitDimensions(job.Width, job.Height, opts.MaxDimension)
	if resize {
		err := runTool("cwebp", "-quiet",
			"-q", strconv.Itoa(opts.WebPQuality),
			"-resize", strconv.Itoa(w), strconv.Itoa(h),
			job.AbsPath, "-o", job.OutputPath)
		if err == nil {
			return nil
		}
		logger.Debug("WebP resize rejected, retrying without resize", "path", job.RelPath, "error", err)
	}
	if err := c.EncodeWebP(job.AbsPath, job.OutputPath, opts.WebPQuality); err != nil {
		return fmt.Errorf("webp encode: %w", err)
	}
	return nil
}

// EncodeWebP re-encodes input as WebP at the given quality
func (c *toolCodec) EncodeWebP(input, output string, quality int) error {
	return runTool("cwebp", "-quiet", "-q", strconv.Itoa(quality), input, "-o", output)
}

// webpSibling writes a WebP rendition next to the job's output. For GIFs
// the rendition is a static preview built from the first frame only, via a
// temporary frame whose lifetime is scoped to this call.
func (c *toolCodec) webpSibling(job Job, opts Options) error {
	src := job.OutputPath
	if job.Format == FormatGIF {
		tmp, err := os.CreateTemp("", "gifframe-*.png")
		if err != nil {
			return err
		}
		tmp.Close()
		defer os.Remove(tmp.Name())
		if err := runTool("magick", job.OutputPath+"[0]", tmp.Name()); err != nil {
			return fmt.Errorf("gif frame extract: %w", err)
		}
		src = tmp.Name()
	}
	return c.EncodeWebP(src, webpPath(job.OutputPath), opts.WebPQuality)
}

// CheckTools verifies that every external tool the run will need is on PATH
func (c *toolCodec) CheckTools(items []WorkItem, opts Options) error {
	required := make(map[string]bool)
	if opts.Aggressive {
		required["cwebp"] = true
	} else {
		for _, item := range items {
			switch item.Format {
			case FormatJPEG:
				required["magick"] = true
				required["jpegoptim"] = true
			case FormatPNG:
				required["magick"] = true
				required["optipng"] = true
			case FormatGIF:
				required["gifsicle"] = true
				if opts.WebPSiblings {
					required["magick"] = true
				}
			case FormatWebP:
				required["cwebp"] = true
			}
		}
		if opts.WebPSiblings {
			required["cwebp"] = true
		}
	}

	tools := make([]string, 0, len(required))
	for tool := range required {
		tools = append(tools, tool)
	}
	sort.Strings(tools)
	for _, tool := range tools {
		if _, err := exec.LookPath(tool); err != nil {
			return fmt.Errorf("required tool not found: %s", tool)
		}
	}
	return nil
}

// shrinkOnlyGeometry builds an ImageMagick geometry that downscales larger
// images but never upscales smaller ones.
func shrinkOnlyGeometry(maxDimension int) string {
	return fmt.Sprintf("%dx%d>", maxDimension, maxDimension)
}

// fitDimensions scales width and height to fit within maxDimension,
// preserving aspect ratio. The third return value reports whether resizing
// is needed at all; dimensions are never scaled up.
func fitDimensions(width, height, maxDimension int) (int, int, bool) {
	if width <= maxDimension && height <= maxDimension {
		return width, height, false
	}
	if width >= height {
		return maxDimension, height * maxDimension / width, true
	}
	return width * maxDimension / height, maxDimension, true
}

// runTool executes an external codec tool at lowered scheduling priority
func runTool(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := unix.Setpriority(unix.PRIO_PROCESS, cmd.Process.Pid, toolNiceness); err != nil {
		logger.Debug("Failed to lower tool priority", "tool", name, "error", err)
	}
	if err := cmd.Wait(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
