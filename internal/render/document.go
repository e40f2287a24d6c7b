// Package render lays out receipts. A Document is a device-independent list
// of blocks on a 230 unit wide surface; rasterizers draw it and the text
// view prints it.
package render

import (
	"errors"
	"math"
	"strings"
	"sync"
	"unicode/utf8"
)

// Surface geometry in layout units.
const (
	Width        = 230.0
	MinHeight    = 400.0
	Padding      = 5.0
	ContentWidth = Width - 2*Padding

	LogoWidth   = 72.0
	LogoHeight  = 45.0
	SmallText   = 8.0
	LargeText   = 10.0
	LineSpacing = 1.25
	RowGap      = 24.0 // between a row's label and value
	DividerSize = 1.0

	// glyphWidth approximates the advance of an average glyph relative to
	// the font size. Wrapping uses it so that every backend breaks lines
	// at the same place.
	glyphWidth = 0.55
)

// Kind identifies the type of a block.
type Kind int

// Block kinds.
const (
	KindLogo Kind = iota
	KindBanner
	KindText
	KindDivider
	KindRow
	KindFooter
)

func (k Kind) String() string {
	switch k {
	case KindLogo:
		return "logo"
	case KindBanner:
		return "banner"
	case KindText:
		return "text"
	case KindDivider:
		return "divider"
	case KindRow:
		return "row"
	case KindFooter:
		return "footer"
	default:
		return "unknown"
	}
}

// Block is one element of a receipt. Text blocks are centered; rows put the
// label on the left and the value right aligned.
type Block struct {
	Kind  Kind
	Text  string
	Label string
	Value string
	Size  float64
	Bold  bool
	Muted bool
	// Space is the vertical gap above the block.
	Space float64
}

// LineHeight is the height of one line of text in the block.
func (b Block) LineHeight() float64 {
	return b.Size * LineSpacing
}

// Lines returns the text lines of a centered block, wrapped to the content width.
func (b Block) Lines() []string {
	return Wrap(b.Text, ContentWidth, b.Size)
}

// ValueLines returns the wrapped value lines of a row.
func (b Block) ValueLines() []string {
	labelWidth := TextWidth(b.Label, b.Size)
	return Wrap(b.Value, math.Max(ContentWidth-labelWidth-RowGap, b.Size), b.Size)
}

// Height is the vertical extent of the block, excluding Space.
func (b Block) Height() float64 {
	switch b.Kind {
	case KindLogo:
		return LogoHeight
	case KindDivider:
		return DividerSize
	case KindRow:
		return float64(len(b.ValueLines())) * b.LineHeight()
	default:
		return float64(len(b.Lines())) * b.LineHeight()
	}
}

// TextWidth estimates the rendered width of s.
func TextWidth(s string, size float64) float64 {
	return float64(utf8.RuneCountInString(s)) * size * glyphWidth
}

// Wrap breaks s into lines no wider than width, splitting on spaces and
// hard-breaking words that do not fit on a line of their own. It always
// returns at least one line.
func Wrap(s string, width, size float64) []string {
	perLine := int(width/(size*glyphWidth) + 1e-9)
	if perLine < 1 {
		perLine = 1
	}

	var lines []string
	var current []rune
	for _, word := range strings.Fields(s) {
		w := []rune(word)
		for len(w) > perLine {
			if len(current) > 0 {
				lines = append(lines, string(current))
				current = nil
			}
			lines = append(lines, string(w[:perLine]))
			w = w[perLine:]
		}
		switch {
		case len(current) == 0:
			current = w
		case len(current)+1+len(w) <= perLine:
			current = append(append(current, ' '), w...)
		default:
			lines = append(lines, string(current))
			current = w
		}
	}
	if len(current) > 0 || len(lines) == 0 {
		lines = append(lines, string(current))
	}
	return lines
}

// ErrZeroSize is returned when a document without area is attached.
var ErrZeroSize = errors.New("document has zero size")

// Document is a laid-out receipt. It is created detached by Render; Attach
// measures it and signals Ready.
type Document struct {
	Index    int
	Filename string
	Logo     string
	Width    float64
	Height   float64
	Blocks   []Block

	mu       sync.Mutex
	attached bool
	ready    chan struct{}
}

// NewDocument returns a detached document of the standard width.
func NewDocument(blocks []Block) *Document {
	return &Document{
		Width:  Width,
		Blocks: blocks,
		ready:  make(chan struct{}),
	}
}

// Attach lays the document out: it measures the blocks, applies the minimum
// height and closes the Ready channel. Attaching twice is a no-op.
func (d *Document) Attach() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.attached {
		return nil
	}
	if d.Width <= 0 || len(d.Blocks) == 0 {
		return ErrZeroSize
	}

	d.Height = math.Max(MinHeight, d.Measure())
	d.attached = true
	if d.ready == nil {
		d.ready = make(chan struct{})
	}
	close(d.ready)
	return nil
}

// Measure returns the natural height of the blocks including padding.
func (d *Document) Measure() float64 {
	h := 2 * Padding
	for _, b := range d.Blocks {
		h += b.Space + b.Height()
	}
	return h
}

// Attached reports whether the document has been laid out.
func (d *Document) Attached() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.attached
}

// Ready is closed once the layout is complete.
func (d *Document) Ready() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ready == nil {
		d.ready = make(chan struct{})
	}
	return d.ready
}

// Detach releases the layout. A detached document must be attached again
// before it is captured.
func (d *Document) Detach() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.attached {
		d.attached = false
		d.ready = make(chan struct{})
	}
}

// Text renders the document as plain text, one block per line, for terminals.
func (d *Document) Text() string {
	const columns = 44

	var sb strings.Builder
	center := func(s string) {
		pad := (columns - utf8.RuneCountInString(s)) / 2
		if pad > 0 {
			sb.WriteString(strings.Repeat(" ", pad))
		}
		sb.WriteString(s)
		sb.WriteByte('\n')
	}

	for _, b := range d.Blocks {
		switch b.Kind {
		case KindLogo:
			center("[" + b.Text + "]")
		case KindDivider:
			sb.WriteString(strings.Repeat("-", columns))
			sb.WriteByte('\n')
		case KindRow:
			gap := columns - utf8.RuneCountInString(b.Label) - utf8.RuneCountInString(b.Value)
			if gap < 1 {
				gap = 1
			}
			sb.WriteString(b.Label)
			sb.WriteString(strings.Repeat(" ", gap))
			sb.WriteString(b.Value)
			sb.WriteByte('\n')
		default:
			center(b.Text)
		}
	}
	return sb.String()
}
