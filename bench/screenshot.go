// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package bench

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/gviegas/gfxbench/descriptor"
	"github.com/gviegas/gfxbench/driver"
	"github.com/gviegas/gfxbench/internal/logx"
	"github.com/gviegas/gfxbench/result"
)

// ScreenshotComponent captures the framebuffer at the
// descriptor's screenshot_frames, which are animation
// times in milliseconds.
// Each one is registered as a time event, so variable
// time stepping renders a frame at exactly that time.
// Capture failures are logged and do not fail the run.
type ScreenshotComponent struct {
	sh     driver.Screenshotter
	dir    string
	format string
	prefix string
	times  []int
	next   int
	files  []string
	failed int
}

// Name implements Component.
func (c *ScreenshotComponent) Name() string { return NameScreenshot }

// Init implements Component.
func (c *ScreenshotComponent) Init(r *Runner) error {
	d := r.Descriptor()
	*c = ScreenshotComponent{
		dir:    r.Options().ScreenshotDir,
		format: d.ScreenshotFormat,
		prefix: strings.Map(func(r rune) rune {
			if r == '/' || r == '\\' {
				return '_'
			}
			return r
		}, d.TestID),
	}
	if len(d.ScreenshotFrames) == 0 {
		return nil
	}
	if c.dir == "" {
		logx.L().Debug("screenshots disabled", "frames", len(d.ScreenshotFrames))
		return nil
	}
	sh, ok := r.Context().(driver.Screenshotter)
	if !ok {
		logx.L().Warn("screenshots not supported", "backend", r.Context().Backend())
		return nil
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	c.sh = sh
	c.times = slices.Compact(slices.Sorted(slices.Values(d.ScreenshotFrames)))
	for _, t := range c.times {
		r.Time().AddEvent(t)
	}
	return nil
}

// BeginFrame implements Component.
func (c *ScreenshotComponent) BeginFrame(*Runner) {}

// AfterRender implements Component.
// It captures the frame if its animation time reached
// the next screenshot time.
func (c *ScreenshotComponent) AfterRender(r *Runner) {
	t := r.AnimationTime()
	due := false
	for c.next < len(c.times) && c.times[c.next] <= t {
		due = true
		c.next++
	}
	if !due || c.sh == nil {
		return
	}
	name := filepath.Join(c.dir, c.FileName(t))
	if err := c.capture(r, name); err != nil {
		c.failed++
		logx.L().Warn("screenshot failed", "file", name, "err", err)
		return
	}
	c.files = append(c.files, name)
	logx.L().Debug("screenshot written", "file", name)
}

func (c *ScreenshotComponent) capture(r *Runner, name string) error {
	if err := r.Renderer().WaitFinish(); err != nil {
		return err
	}
	img, err := c.sh.ReadPixels()
	if err != nil {
		return err
	}
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err = EncodeImage(f, img, c.format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// FileName returns the name of the screenshot file of
// animation time t.
func (c *ScreenshotComponent) FileName(t int) string {
	return fmt.Sprintf("%s_%06d.%s", c.prefix, t, c.format)
}

// Files returns the screenshots written so far.
func (c *ScreenshotComponent) Files() []string { return slices.Clone(c.files) }

// Failed returns the number of failed captures.
func (c *ScreenshotComponent) Failed() int { return c.failed }

// EndFrame implements Component.
func (c *ScreenshotComponent) EndFrame(*Runner) {}

// CreateResult implements Component.
func (c *ScreenshotComponent) CreateResult(*Runner, *result.Group) {}

// Close implements Component.
func (c *ScreenshotComponent) Close() {}

// EncodeImage writes img to w in the given format (one
// of descriptor.FormatPNG, FormatBMP or FormatTIFF).
func EncodeImage(w io.Writer, img image.Image, format string) error {
	switch format {
	case descriptor.FormatPNG:
		return png.Encode(w, img)
	case descriptor.FormatBMP:
		return bmp.Encode(w, img)
	case descriptor.FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	}
	return fmt.Errorf("bench: unknown image format %q", format)
}
