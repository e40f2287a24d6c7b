// Package receipterror defines the error taxonomy of the receipt pipeline and
// the user-facing messages the command shell prints for each of them.
package receipterror

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoReceipts is returned when a batch finishes without a single artifact.
var ErrNoReceipts = errors.New("no receipts could be generated")

// ParseError represents a malformed input file
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("cannot process file: %v", e.Err)
	}
	return fmt.Sprintf("cannot process file '%s': %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError represents a well-formed file that cannot be used with the
// selected template. Missing lists the absent required columns in template order.
type ValidationError struct {
	Template string
	Missing  []string
	Reason   string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("Missing required fields: %s", strings.Join(e.Missing, ", "))
	}
	return e.Reason
}

// CaptureError represents a receipt that could not be rasterized or converted.
// Index is the zero-based row index, or -1 for a whole-batch failure.
type CaptureError struct {
	Index    int
	Filename string
	Err      error
}

func (e *CaptureError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("capture failed: %v", e.Err)
	}
	return fmt.Sprintf("capture failed for row %d (%s): %v", e.Index+1, e.Filename, e.Err)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}

// ArchiveError represents a failure while packaging captured receipts
type ArchiveError struct {
	Name string
	Err  error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("failed to build archive %s: %v", e.Name, e.Err)
}

func (e *ArchiveError) Unwrap() error {
	return e.Err
}

// UserMessage converts a pipeline error into the message shown to the user.
// Unknown errors are reported verbatim.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var parseErr *ParseError
	var validationErr *ValidationError
	var captureErr *CaptureError
	var archiveErr *ArchiveError

	switch {
	case errors.As(err, &parseErr):
		return "Cannot process file. Please check the CSV format."
	case errors.As(err, &validationErr):
		return validationErr.Error()
	case errors.As(err, &captureErr):
		if captureErr.Index < 0 {
			return "Failed to generate receipts: " + captureErr.Err.Error()
		}
		return "Failed to generate PDF. Please try again."
	case errors.As(err, &archiveErr):
		return "Failed to generate ZIP file. Please try again."
	default:
		return err.Error()
	}
}
