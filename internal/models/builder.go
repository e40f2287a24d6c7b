package models

import (
	"errors"
	"strings"

	"hydrogen/pos-receipts/internal/templates"
)

// RecordBuilder provides a fluent API for constructing records
type RecordBuilder struct {
	rec Record
	err error
}

// NewRecordBuilder creates a new RecordBuilder for an empty record at index 0
func NewRecordBuilder() *RecordBuilder {
	return &RecordBuilder{
		rec: Record{
			values:    map[string]string{},
			generated: map[templates.Field]string{},
		},
	}
}

// WithIndex sets the zero-based row index
func (b *RecordBuilder) WithIndex(index int) *RecordBuilder {
	if b.err != nil {
		return b
	}
	if index < 0 {
		b.err = errors.New("row index cannot be negative")
		return b
	}
	b.rec.Index = index
	return b
}

// WithValue sets one column value
func (b *RecordBuilder) WithValue(column, value string) *RecordBuilder {
	if b.err != nil {
		return b
	}
	if strings.TrimSpace(column) == "" {
		b.err = errors.New("column name cannot be empty")
		return b
	}
	b.rec.values[column] = value
	return b
}

// WithValues copies every column of row into the record
func (b *RecordBuilder) WithValues(row map[string]string) *RecordBuilder {
	for column, value := range row {
		b.WithValue(column, value)
	}
	return b
}

// WithGenerated stores an invented value for f
func (b *RecordBuilder) WithGenerated(f templates.Field, value string) *RecordBuilder {
	if b.err != nil {
		return b
	}
	b.rec.generated[f] = value
	return b
}

// Build returns the record, or the first error recorded by a With call.
// The builder must not be reused after Build.
func (b *RecordBuilder) Build() (Record, error) {
	if b.err != nil {
		return Record{}, b.err
	}
	return b.rec, nil
}
