package templates

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
)

// SampleCSV writes a header row with the template's columns followed by its
// sample record.
func SampleCSV(def Definition, w io.Writer, delimiter rune) error {
	cw := csv.NewWriter(w)
	if delimiter != 0 {
		cw.Comma = delimiter
	}
	out := gocsv.NewSafeCSVWriter(cw)

	if err := out.Write(def.Columns); err != nil {
		return fmt.Errorf("error writing sample header: %w", err)
	}

	row := make([]string, len(def.Columns))
	for i, column := range def.Columns {
		row[i] = def.SampleRecord[column]
	}
	if err := out.Write(row); err != nil {
		return fmt.Errorf("error writing sample row: %w", err)
	}

	out.Flush()
	if err := out.Error(); err != nil {
		return fmt.Errorf("error writing sample CSV: %w", err)
	}
	return nil
}
