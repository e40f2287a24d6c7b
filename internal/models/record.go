// Package models defines the transaction record that flows through the
// receipt pipeline and the display values resolved from it.
package models

import (
	"strings"

	"hydrogen/pos-receipts/internal/templates"
)

// Record is one uploaded row. Column values are fixed once ingested. Values
// the pipeline had to invent, such as a missing STAN, are drawn once at
// ingestion and stored alongside so every render of the record agrees.
type Record struct {
	Index     int
	values    map[string]string
	generated map[templates.Field]string
}

// Get returns the value of column, or "" when absent.
func (r Record) Get(column string) string {
	return r.values[column]
}

// Lookup returns the value of column and whether the column exists.
func (r Record) Lookup(column string) (string, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Has reports whether column exists and holds a non-blank value.
func (r Record) Has(column string) bool {
	return strings.TrimSpace(r.values[column]) != ""
}

// Generated returns the value invented for f at ingestion, if any.
func (r Record) Generated(f templates.Field) (string, bool) {
	v, ok := r.generated[f]
	return v, ok
}

// Value returns the record's value for f under def: the mapped column when it
// is non-blank, otherwise the generated value, otherwise "".
func (r Record) Value(def templates.Definition, f templates.Field) string {
	if column := def.Column(f); column != "" && r.Has(column) {
		return strings.TrimSpace(r.values[column])
	}
	return r.generated[f]
}
