package raster

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"hydrogen/pos-receipts/internal/logging"
	"hydrogen/pos-receipts/internal/render"
)

var (
	ink   color.Color = color.Black
	muted color.Color = color.Gray{Y: 0x6b}
	paper color.Color = color.White
)

// CanvasOptions configures the canvas backend.
type CanvasOptions struct {
	// LogoPath is an optional image drawn in place of the text logo.
	LogoPath      string
	SettleTimeout time.Duration
}

// Canvas draws documents with the Go fonts. It holds no per-capture state and
// may be used concurrently.
type Canvas struct {
	regular *opentype.Font
	bold    *opentype.Font
	logo    image.Image
	settle  time.Duration
}

// NewCanvas parses the fonts and loads the logo. A logo that cannot be
// decoded is logged and replaced by the text mark.
func NewCanvas(opts CanvasOptions, logger logging.Logger) (*Canvas, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse regular font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bold font: %w", err)
	}

	c := &Canvas{regular: regular, bold: bold, settle: opts.SettleTimeout}
	if opts.LogoPath != "" {
		logo, err := imaging.Open(opts.LogoPath)
		if err != nil {
			logger.WithError(err).Warn("Logo could not be loaded, using text mark",
				logging.F(logging.FieldFile, opts.LogoPath))
		} else {
			c.logo = logo
		}
	}
	return c, nil
}

// Name identifies the backend in logs.
func (c *Canvas) Name() string { return "canvas" }

// Rasterize draws doc once its layout is complete.
func (c *Canvas) Rasterize(ctx context.Context, doc *render.Document, scale float64) (image.Image, error) {
	if err := waitLayout(ctx, doc, c.settle); err != nil {
		return nil, err
	}
	if scale <= 0 {
		scale = 1
	}

	w, h := PixelSize(doc, scale)
	if w <= 0 || h <= 0 {
		return image.NewNRGBA(image.Rect(0, 0, 0, 0)), nil
	}

	p := &painter{
		dst:   imaging.New(w, h, paper),
		scale: scale,
		faces: map[faceKey]font.Face{},
		c:     c,
	}
	defer p.close()

	y := render.Padding
	for _, b := range doc.Blocks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		y += b.Space
		if err := p.block(b, y, doc.Width); err != nil {
			return nil, err
		}
		y += b.Height()
	}
	return p.dst, nil
}

type faceKey struct {
	size float64
	bold bool
}

// painter holds the faces of one capture. opentype faces are not safe for
// concurrent use, so every capture opens its own.
type painter struct {
	dst   *image.NRGBA
	scale float64
	faces map[faceKey]font.Face
	c     *Canvas
}

func (p *painter) close() {
	for _, f := range p.faces {
		_ = f.Close()
	}
}

func (p *painter) face(size float64, bold bool) (font.Face, error) {
	key := faceKey{size, bold}
	if f, ok := p.faces[key]; ok {
		return f, nil
	}
	src := p.c.regular
	if bold {
		src = p.c.bold
	}
	f, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    size,
		DPI:     72 * p.scale,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open font face: %w", err)
	}
	p.faces[key] = f
	return f, nil
}

func (p *painter) px(v float64) int {
	return int(math.Round(v * p.scale))
}

func (p *painter) block(b render.Block, y, width float64) error {
	switch b.Kind {
	case render.KindLogo:
		return p.logo(b, y, width)
	case render.KindDivider:
		p.divider(y, width)
		return nil
	case render.KindRow:
		return p.row(b, y, width)
	default:
		col := ink
		if b.Muted {
			col = muted
		}
		for i, line := range b.Lines() {
			if err := p.text(line, b.Size, b.Bold, col, y+float64(i)*b.LineHeight(), width/2, alignCenter); err != nil {
				return err
			}
		}
		return nil
	}
}

func (p *painter) logo(b render.Block, y, width float64) error {
	if p.c.logo == nil {
		top := y + (render.LogoHeight-render.LargeText*1.6*render.LineSpacing)/2
		return p.text(b.Text, render.LargeText*1.6, true, ink, top, width/2, alignCenter)
	}
	fitted := imaging.Fit(p.c.logo, p.px(render.LogoWidth), p.px(render.LogoHeight), imaging.Lanczos)
	fb := fitted.Bounds()
	at := image.Pt((p.dst.Bounds().Dx()-fb.Dx())/2, p.px(y)+(p.px(render.LogoHeight)-fb.Dy())/2)
	p.dst = imaging.Overlay(p.dst, fitted, at, 1.0)
	return nil
}

func (p *painter) divider(y, width float64) {
	const dash, gap = 3.0, 2.0
	row := p.px(y)
	thickness := max(1, p.px(render.DividerSize))
	for x := render.Padding; x < width-render.Padding; x += dash + gap {
		r := image.Rect(p.px(x), row, p.px(math.Min(x+dash, width-render.Padding)), row+thickness)
		draw.Draw(p.dst, r, image.NewUniform(ink), image.Point{}, draw.Src)
	}
}

func (p *painter) row(b render.Block, y, width float64) error {
	if err := p.text(b.Label, b.Size, false, ink, y, render.Padding, alignLeft); err != nil {
		return err
	}
	for i, line := range b.ValueLines() {
		if err := p.text(line, b.Size, false, ink, y+float64(i)*b.LineHeight(), width-render.Padding, alignRight); err != nil {
			return err
		}
	}
	return nil
}

type align int

const (
	alignLeft align = iota
	alignCenter
	alignRight
)

// text draws s with its line box starting at top; x is the left edge, center
// or right edge depending on a.
func (p *painter) text(s string, size float64, bold bool, col color.Color, top, x float64, a align) error {
	if s == "" {
		return nil
	}
	face, err := p.face(size, bold)
	if err != nil {
		return err
	}

	d := &font.Drawer{Dst: p.dst, Src: image.NewUniform(col), Face: face}
	advance := d.MeasureString(s)

	left := fixed.I(p.px(x))
	switch a {
	case alignCenter:
		left -= advance / 2
	case alignRight:
		left -= advance
	}

	m := face.Metrics()
	lineBox := fixed.I(p.px(size * render.LineSpacing))
	baseline := fixed.I(p.px(top)) + (lineBox-(m.Ascent+m.Descent))/2 + m.Ascent
	d.Dot = fixed.Point26_6{X: left, Y: baseline}
	d.DrawString(s)
	return nil
}
