// Package raster turns laid-out receipts into images. Two backends exist: a
// pure Go canvas and headless Chrome.
package raster

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"time"

	"hydrogen/pos-receipts/internal/config"
	"hydrogen/pos-receipts/internal/logging"
	"hydrogen/pos-receipts/internal/render"
)

// Errors returned by rasterizers.
var (
	ErrNotAttached   = errors.New("document is not attached")
	ErrLayoutTimeout = errors.New("document layout did not complete in time")
)

// Rasterizer draws a document at scale pixels per layout unit.
type Rasterizer interface {
	Rasterize(ctx context.Context, doc *render.Document, scale float64) (image.Image, error)
	Name() string
}

// New returns the backend selected by cfg. Callers must Close the result.
func New(cfg config.CaptureConfig, logger logging.Logger) (Rasterizer, error) {
	switch cfg.Backend {
	case config.BackendCanvas, "":
		canvas, err := NewCanvas(CanvasOptions{
			LogoPath:      cfg.LogoPath,
			SettleTimeout: cfg.SettleTimeout(),
		}, logger)
		if err != nil {
			return nil, err
		}
		return canvas, nil
	case config.BackendChrome:
		return NewChrome(ChromeOptions{
			ExecPath:      cfg.ChromePath,
			LogoPath:      cfg.LogoPath,
			SettleTimeout: cfg.SettleTimeout(),
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown capture backend %q", cfg.Backend)
	}
}

// Close releases backend resources when the rasterizer holds any.
func Close(r Rasterizer) error {
	if c, ok := r.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// waitLayout blocks until doc signals a complete layout, the timeout elapses
// or ctx ends.
func waitLayout(ctx context.Context, doc *render.Document, timeout time.Duration) error {
	if doc == nil {
		return ErrNotAttached
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-doc.Ready():
	case <-timer.C:
		return ErrLayoutTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
	if !doc.Attached() {
		return ErrNotAttached
	}
	return nil
}

// PixelSize returns the raster dimensions of doc at scale.
func PixelSize(doc *render.Document, scale float64) (int, int) {
	return int(doc.Width*scale + 0.5), int(doc.Height*scale + 0.5)
}

// Blank reports whether img has no area or every pixel has the same color.
func Blank(img image.Image) bool {
	if img == nil {
		return true
	}
	b := img.Bounds()
	if b.Empty() {
		return true
	}
	switch m := img.(type) {
	case *image.NRGBA:
		return uniformPix(m, m.Pix, m.PixOffset)
	case *image.RGBA:
		return uniformPix(m, m.Pix, m.PixOffset)
	}
	r0, g0, b0, a0 := img.At(b.Min.X, b.Min.Y).RGBA()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if !sameColor(img.At(x, y), r0, g0, b0, a0) {
				return false
			}
		}
	}
	return true
}

// uniformPix walks 4-byte pixels row by row. Byte mismatches are confirmed
// through At, since transparent NRGBA pixels may differ only in color bytes.
func uniformPix(img image.Image, pix []byte, offset func(x, y int) int) bool {
	b := img.Bounds()
	first := offset(b.Min.X, b.Min.Y)
	ref := pix[first : first+4]
	r0, g0, b0, a0 := img.At(b.Min.X, b.Min.Y).RGBA()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		start := offset(b.Min.X, y)
		row := pix[start : start+4*b.Dx()]
		for i := 0; i < len(row); i += 4 {
			if row[i] == ref[0] && row[i+1] == ref[1] && row[i+2] == ref[2] && row[i+3] == ref[3] {
				continue
			}
			if !sameColor(img.At(b.Min.X+i/4, y), r0, g0, b0, a0) {
				return false
			}
		}
	}
	return true
}

func sameColor(c color.Color, r0, g0, b0, a0 uint32) bool {
	r, g, b, a := c.RGBA()
	return r == r0 && g == g0 && b == b0 && a == a0
}
