package receipterror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseError(t *testing.T) {
	tests := []struct {
		name     string
		err      *ParseError
		expected string
	}{
		{
			name:     "with source",
			err:      &ParseError{Source: "tx.csv", Err: errors.New("bare \" in non-quoted field")},
			expected: "cannot process file 'tx.csv': bare \" in non-quoted field",
		},
		{
			name:     "without source",
			err:      &ParseError{Err: errors.New("wrong number of fields")},
			expected: "cannot process file: wrong number of fields",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Template: "hydrogen", Missing: []string{"RRN", "Tid"}}
	assert.Equal(t, "Missing required fields: RRN, Tid", err.Error())

	err = &ValidationError{Reason: "No data found in CSV"}
	assert.Equal(t, "No data found in CSV", err.Error())
}

func TestCaptureError(t *testing.T) {
	cause := errors.New("empty raster")
	err := &CaptureError{Index: 2, Filename: "receipt-3.pdf", Err: cause}
	assert.Equal(t, "capture failed for row 3 (receipt-3.pdf): empty raster", err.Error())
	assert.True(t, errors.Is(err, cause))

	batchErr := &CaptureError{Index: -1, Err: ErrNoReceipts}
	assert.Equal(t, "capture failed: no receipts could be generated", batchErr.Error())
	assert.True(t, errors.Is(batchErr, ErrNoReceipts))
}

func TestArchiveError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := &ArchiveError{Name: "receipts.zip", Err: cause}
	assert.Equal(t, cause, err.Unwrap())
	assert.Contains(t, err.Error(), "receipts.zip")
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil", nil, ""},
		{"parse", &ParseError{Err: errors.New("x")}, "Cannot process file. Please check the CSV format."},
		{"wrapped validation", fmt.Errorf("load: %w", &ValidationError{Missing: []string{"Amount"}}), "Missing required fields: Amount"},
		{"single capture", &CaptureError{Index: 0, Err: errors.New("x")}, "Failed to generate PDF. Please try again."},
		{"batch capture", &CaptureError{Index: -1, Err: ErrNoReceipts}, "Failed to generate receipts: no receipts could be generated"},
		{"archive", &ArchiveError{Err: errors.New("x")}, "Failed to generate ZIP file. Please try again."},
		{"other", errors.New("boom"), "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, UserMessage(tt.err))
		})
	}
}
