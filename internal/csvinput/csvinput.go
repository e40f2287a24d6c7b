// Package csvinput reads uploaded transaction exports into ordered rows and
// checks them against a template before any receipt is rendered.
package csvinput

import (
	"bufio"
	"encoding/csv"
	"errors"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"hydrogen/pos-receipts/internal/fileutils"
	"hydrogen/pos-receipts/internal/receipterror"
	"hydrogen/pos-receipts/internal/templates"
)

const bom = '\uFEFF'

// ErrNoData is the reason reported for a file without data rows.
const ErrNoData = "No data found in CSV"

// Options controls decoding.
type Options struct {
	// Delimiter defaults to ','.
	Delimiter rune
	// Source names the input in error messages.
	Source string
}

// Table is a decoded file: the header in file order and one column-keyed map
// per data row, in file order.
type Table struct {
	Headers []string
	Rows    []map[string]string
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// HasColumn reports whether the header contains name.
func (t *Table) HasColumn(name string) bool {
	for _, h := range t.Headers {
		if h == name {
			return true
		}
	}
	return false
}

// Parse decodes a delimited file with a header row. Blank lines and rows whose
// cells are all blank are skipped. Any malformed row fails the whole file with
// a *receipterror.ParseError; a file with no data rows fails with a
// *receipterror.ValidationError.
func Parse(r io.Reader, opts Options) (*Table, error) {
	br := bufio.NewReader(r)
	if first, _, err := br.ReadRune(); err == nil && first != bom {
		_ = br.UnreadRune()
	}

	reader := csv.NewReader(br)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.FieldsPerRecord = 0

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &receipterror.ValidationError{Reason: ErrNoData}
	}
	if err != nil {
		return nil, &receipterror.ParseError{Source: opts.Source, Err: err}
	}

	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = strings.TrimSpace(h)
	}

	table := &Table{Headers: headers}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &receipterror.ParseError{Source: opts.Source, Err: err}
		}
		if blank(record) {
			continue
		}

		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			row[h] = strings.TrimSpace(record[i])
		}
		table.Rows = append(table.Rows, row)
	}

	if len(table.Rows) == 0 {
		return nil, &receipterror.ValidationError{Reason: ErrNoData}
	}
	return table, nil
}

func blank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Validate checks that every required column of def is present. All missing
// columns are reported at once, in template order, and the whole table is
// rejected.
func Validate(t *Table, def templates.Definition) error {
	if t == nil || len(t.Rows) == 0 {
		return &receipterror.ValidationError{Template: def.ID, Reason: ErrNoData}
	}

	var missing []string
	for _, column := range def.RequiredFields {
		if !t.HasColumn(column) {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		return &receipterror.ValidationError{Template: def.ID, Missing: missing}
	}
	return nil
}

var acceptedTypes = map[string]bool{
	"text/csv":                 true,
	"application/vnd.ms-excel": true,
	"text/plain":               true,
}

// AcceptFile applies the upload filter: a CSV MIME type, or any file named *.csv.
func AcceptFile(name, mimeType string) error {
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		return nil
	}
	base, _, _ := strings.Cut(mimeType, ";")
	if acceptedTypes[strings.ToLower(strings.TrimSpace(base))] {
		return nil
	}
	return &receipterror.ValidationError{Reason: "Please upload a valid CSV file"}
}

// ReadFile opens, filters and parses path.
func ReadFile(path string, opts Options) (*Table, error) {
	if err := AcceptFile(path, mime.TypeByExtension(filepath.Ext(path))); err != nil {
		return nil, err
	}

	f, err := fileutils.OpenFile(path)
	if err != nil {
		return nil, &receipterror.ParseError{Source: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	if opts.Source == "" {
		opts.Source = filepath.Base(path)
	}
	return Parse(f, opts)
}
