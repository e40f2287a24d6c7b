// Package templates holds the receipt template definitions. Templates are
// data: each one names its required columns, maps semantic receipt fields to
// column names and picks one of the layout variants the renderer knows how to
// draw. The built-in set is embedded; more can be loaded from YAML.
package templates

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var builtin []byte

// Variant selects a layout strategy in the renderer.
type Variant string

// Known layout variants.
const (
	VariantStandard  Variant = "standard"
	VariantAlternate Variant = "alternate"
)

// Valid reports whether the renderer has a layout for v.
func (v Variant) Valid() bool {
	return v == VariantStandard || v == VariantAlternate
}

// Field is a semantic receipt field, independent of the column it is read from.
type Field string

// Receipt fields.
const (
	FieldCustomer     Field = "customer"
	FieldAddress      Field = "address"
	FieldDate         Field = "date"
	FieldRRN          Field = "rrn"
	FieldAmount       Field = "amount"
	FieldTerminal     Field = "terminal"
	FieldPAN          Field = "pan"
	FieldCardType     Field = "card_type"
	FieldPaymentType  Field = "payment_type"
	FieldIssuerBank   Field = "issuer_bank"
	FieldSTAN         Field = "stan"
	FieldResponseCode Field = "response_code"
	FieldMessage      Field = "message"
	FieldMerchant     Field = "merchant"
	FieldExpiry       Field = "expiry"
	FieldPINVerified  Field = "pin_verified"
)

// Definition describes one receipt template. Its maps are shared between
// copies and must be treated as read-only.
type Definition struct {
	ID             string            `yaml:"id"`
	DisplayName    string            `yaml:"name"`
	Description    string            `yaml:"description"`
	Variant        Variant           `yaml:"variant"`
	Logo           string            `yaml:"logo"`
	RequiredFields []string          `yaml:"required_fields"`
	Columns        []string          `yaml:"columns"`
	Fields         map[Field]string  `yaml:"fields"`
	Defaults       map[Field]string  `yaml:"defaults"`
	Footer         []string          `yaml:"footer"`
	SampleRecord   map[string]string `yaml:"sample"`
}

// Column returns the column that holds f, or "" when the template does not
// carry the field.
func (d Definition) Column(f Field) string {
	return d.Fields[f]
}

// Default returns the display value used when f is blank.
func (d Definition) Default(f Field) string {
	return d.Defaults[f]
}

// Option is a template entry for listings.
type Option struct {
	Value       string
	Label       string
	Description string
}

type document struct {
	Default   string       `yaml:"default"`
	Templates []Definition `yaml:"templates"`
}

// Registry resolves template identifiers. Load must not be called
// concurrently with lookups.
type Registry struct {
	defs      map[string]Definition
	order     []string
	defaultID string
}

// NewRegistry returns a registry holding the built-in templates.
func NewRegistry() (*Registry, error) {
	r := &Registry{defs: make(map[string]Definition)}
	if err := r.Load(bytes.NewReader(builtin)); err != nil {
		return nil, fmt.Errorf("built-in templates: %w", err)
	}
	return r, nil
}

// Load decodes a YAML template document and merges it into the registry.
// Templates with an existing id replace the earlier definition. The document
// is validated as a whole; on error the registry is unchanged.
func (r *Registry) Load(in io.Reader) error {
	var doc document
	dec := yaml.NewDecoder(in)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return fmt.Errorf("empty template document")
		}
		return fmt.Errorf("failed to decode templates: %w", err)
	}

	seen := make(map[string]bool, len(doc.Templates))
	for i := range doc.Templates {
		def := &doc.Templates[i]
		if err := normalize(def); err != nil {
			return err
		}
		if seen[def.ID] {
			return fmt.Errorf("template %q defined twice", def.ID)
		}
		seen[def.ID] = true
	}

	defaultID := r.defaultID
	if doc.Default != "" {
		if _, ok := r.defs[doc.Default]; !ok && !seen[doc.Default] {
			return fmt.Errorf("default template %q is not defined", doc.Default)
		}
		defaultID = doc.Default
	}
	if defaultID == "" {
		if len(doc.Templates) == 0 {
			return fmt.Errorf("no templates defined")
		}
		defaultID = doc.Templates[0].ID
	}

	for _, def := range doc.Templates {
		if _, exists := r.defs[def.ID]; !exists {
			r.order = append(r.order, def.ID)
		}
		r.defs[def.ID] = def
	}
	r.defaultID = defaultID
	return nil
}

// LoadFile merges the templates in path into the registry.
func (r *Registry) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open template file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := r.Load(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func normalize(def *Definition) error {
	def.ID = strings.TrimSpace(def.ID)
	if def.ID == "" {
		return fmt.Errorf("template without id")
	}
	if def.Variant == "" {
		def.Variant = VariantStandard
	}
	if !def.Variant.Valid() {
		return fmt.Errorf("template %q: unknown variant %q", def.ID, def.Variant)
	}
	if def.DisplayName == "" {
		def.DisplayName = def.ID
	}
	if len(def.Columns) == 0 {
		def.Columns = append([]string(nil), def.RequiredFields...)
	}
	if def.Fields == nil {
		def.Fields = map[Field]string{}
	}
	if def.Defaults == nil {
		def.Defaults = map[Field]string{}
	}
	if def.SampleRecord == nil {
		def.SampleRecord = map[string]string{}
	}
	return nil
}

// Lookup returns the template registered under id, or the default template
// when id is blank or unknown.
func (r *Registry) Lookup(id string) Definition {
	if def, ok := r.Get(id); ok {
		return def
	}
	return r.Default()
}

// Get returns the template registered under id.
func (r *Registry) Get(id string) (Definition, bool) {
	def, ok := r.defs[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		def, ok = r.defs[strings.TrimSpace(id)]
	}
	return def, ok
}

// Default returns the fallback template.
func (r *Registry) Default() Definition {
	return r.defs[r.defaultID]
}

// Options lists the templates in registration order.
func (r *Registry) Options() []Option {
	options := make([]Option, 0, len(r.order))
	for _, id := range r.order {
		def := r.defs[id]
		options = append(options, Option{
			Value:       def.ID,
			Label:       def.DisplayName,
			Description: def.Description,
		})
	}
	return options
}
