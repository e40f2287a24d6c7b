// Package pdfexport captures laid-out receipts into single page PDFs on an
// 80x200 mm receipt form.
package pdfexport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"regexp"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"hydrogen/pos-receipts/internal/logging"
	"hydrogen/pos-receipts/internal/raster"
	"hydrogen/pos-receipts/internal/receipterror"
	"hydrogen/pos-receipts/internal/render"
)

// Page geometry in millimeters.
const (
	PageWidth    = 80.0
	PageHeight   = 200.0
	CaptureScale = 2.0

	// maxRowHeight stays strictly below PageHeight; a row that fills the
	// page exactly is pushed onto a second one.
	maxRowHeight = PageHeight - 0.01
)

// ErrEmptyCapture is returned when a rasterizer produces an image with no
// area or no content.
var ErrEmptyCapture = errors.New("capture produced an empty image")

// Artifact is one generated PDF.
type Artifact struct {
	Filename string
	Data     []byte
}

// Converter turns documents into PDFs with a rasterizer.
type Converter struct {
	rasterizer raster.Rasterizer
	scale      float64
	logger     logging.Logger
}

// NewConverter returns a converter rasterizing at the standard 2x scale.
// A scale of zero keeps the default.
func NewConverter(r raster.Rasterizer, scale float64, logger logging.Logger) *Converter {
	if scale <= 0 {
		scale = CaptureScale
	}
	return &Converter{rasterizer: r, scale: scale, logger: logger}
}

// Capture attaches doc if needed, rasterizes it and embeds the image into a
// single page PDF. Every failure is a *receipterror.CaptureError.
func (c *Converter) Capture(ctx context.Context, doc *render.Document, filename string) (Artifact, error) {
	if doc == nil {
		return Artifact{}, &receipterror.CaptureError{Filename: filename, Err: raster.ErrNotAttached}
	}
	fail := func(err error) (Artifact, error) {
		return Artifact{}, &receipterror.CaptureError{Index: doc.Index, Filename: filename, Err: err}
	}

	if err := doc.Attach(); err != nil {
		return fail(err)
	}
	if doc.Width <= 0 || doc.Height <= 0 {
		return fail(render.ErrZeroSize)
	}

	start := time.Now()
	img, err := c.rasterizer.Rasterize(ctx, doc, c.scale)
	if err != nil {
		return fail(err)
	}
	if raster.Blank(img) {
		return fail(ErrEmptyCapture)
	}

	var encoded bytes.Buffer
	if err := png.Encode(&encoded, img); err != nil {
		return fail(fmt.Errorf("failed to encode capture: %w", err))
	}

	bounds := img.Bounds()
	data, err := embed(encoded.Bytes(), bounds.Dx(), bounds.Dy())
	if err != nil {
		return fail(err)
	}

	c.logger.Debug("Captured receipt",
		logging.F(logging.FieldFilename, filename),
		logging.F(logging.FieldRow, doc.Index+1),
		logging.F(logging.FieldBackend, c.rasterizer.Name()),
		logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))

	return Artifact{Filename: filename, Data: data}, nil
}

// ImageHeight is the height at which a w x h raster fills pageWidth while
// keeping its aspect ratio.
func ImageHeight(w, h int, pageWidth float64) float64 {
	if w <= 0 {
		return 0
	}
	return float64(h) * pageWidth / float64(w)
}

func embed(pngData []byte, w, h int) ([]byte, error) {
	cfg := config.NewBuilder().
		WithDimensions(PageWidth, PageHeight).
		WithLeftMargin(0).
		WithTopMargin(0).
		WithRightMargin(0).
		WithBottomMargin(0).
		Build()

	m := maroto.New(cfg)

	height := ImageHeight(w, h, PageWidth)
	// Taller receipts are narrowed to keep their aspect ratio on one page.
	if height > maxRowHeight {
		height = maxRowHeight
	}
	m.AddRow(height, image.NewFromBytesCol(12, pngData, extension.Png, props.Rect{Percent: 100}))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// FileName names the PDF of the zero-based row index. With withRRN the
// record's RRN is appended; the index keeps names unique when RRNs repeat.
func FileName(index int, rrn string, withRRN bool) string {
	if withRRN {
		if clean := unsafeName.ReplaceAllString(rrn, ""); clean != "" {
			return fmt.Sprintf("receipt-%d-%s.pdf", index+1, clean)
		}
	}
	return fmt.Sprintf("receipt-%d.pdf", index+1)
}
