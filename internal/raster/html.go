package raster

import (
	"bytes"
	_ "embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"mime"
	"os"
	"path/filepath"

	"hydrogen/pos-receipts/internal/render"
)

//go:embed receipt.html.tmpl
var receiptHTML string

var receiptTemplate = template.Must(template.New("receipt").Parse(receiptHTML))

type htmlBlock struct {
	Kind  string
	Text  string
	Label string
	Value string
	Size  float64
	Bold  bool
	Muted bool
	Space float64
}

type htmlDocument struct {
	Width   float64
	Height  float64
	Padding float64
	Logo    template.URL
	Blocks  []htmlBlock
}

// HTML renders doc as a standalone page whose #receipt element has the
// document's layout size. logo, when set, is a data URL for the header image.
func HTML(doc *render.Document, logo string) ([]byte, error) {
	data := htmlDocument{
		Width:   doc.Width,
		Height:  doc.Height,
		Padding: render.Padding,
		// logo is produced by LogoDataURL, never from record values
		Logo: template.URL(logo),
	}
	for _, b := range doc.Blocks {
		data.Blocks = append(data.Blocks, htmlBlock{
			Kind:  b.Kind.String(),
			Text:  b.Text,
			Label: b.Label,
			Value: b.Value,
			Size:  b.Size,
			Bold:  b.Bold,
			Muted: b.Muted,
			Space: b.Space,
		})
	}

	var buf bytes.Buffer
	if err := receiptTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render receipt HTML: %w", err)
	}
	return buf.Bytes(), nil
}

// LogoDataURL inlines the image at path so the page has no external fetches.
func LogoDataURL(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	typ := mime.TypeByExtension(filepath.Ext(path))
	if typ == "" {
		typ = "application/octet-stream"
	}
	return "data:" + typ + ";base64," + base64.StdEncoding.EncodeToString(raw), nil
}

func dataURL(page []byte) string {
	return "data:text/html;charset=utf-8;base64," + base64.StdEncoding.EncodeToString(page)
}
