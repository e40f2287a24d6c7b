package batch

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hydrogen/pos-receipts/internal/logging"
	"hydrogen/pos-receipts/internal/models"
	"hydrogen/pos-receipts/internal/pdfexport"
	"hydrogen/pos-receipts/internal/receipterror"
	"hydrogen/pos-receipts/internal/render"
	"hydrogen/pos-receipts/internal/templates"
)

// fakeCapturer returns a small payload per document and fails the indexes
// listed in fail.
type fakeCapturer struct {
	mu       sync.Mutex
	fail     map[int]bool
	captured []int
}

func (f *fakeCapturer) Capture(_ context.Context, doc *render.Document, filename string) (pdfexport.Artifact, error) {
	if err := doc.Attach(); err != nil {
		return pdfexport.Artifact{}, err
	}

	f.mu.Lock()
	f.captured = append(f.captured, doc.Index)
	f.mu.Unlock()

	if f.fail[doc.Index] {
		return pdfexport.Artifact{}, &receipterror.CaptureError{Index: doc.Index, Filename: filename, Err: render.ErrZeroSize}
	}
	return pdfexport.Artifact{Filename: filename, Data: []byte(fmt.Sprintf("%%PDF-%d", doc.Index))}, nil
}

func hydrogenRecords(t *testing.T, n int) ([]models.Record, templates.Definition) {
	t.Helper()
	registry, err := templates.NewRegistry()
	require.NoError(t, err)
	def := registry.Lookup("hydrogen")

	rows := make([]map[string]string, n)
	for i := range rows {
		row := make(map[string]string, len(def.SampleRecord))
		for k, v := range def.SampleRecord {
			row[k] = v
		}
		row[def.Column(templates.FieldRRN)] = fmt.Sprintf("00000000%04d", i)
		rows[i] = row
	}

	records, err := models.Ingest(rows, def, nil)
	require.NoError(t, err)
	return records, def
}

func zipEntries(t *testing.T, data []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func TestArchiver_Archive(t *testing.T) {
	records, def := hydrogenRecords(t, 5)
	archiver := NewArchiver(&fakeCapturer{}, Options{Workers: 3}, logging.NewMockLogger())

	result, err := archiver.Archive(context.Background(), records, def)
	require.NoError(t, err)

	want := []string{"receipt-1.pdf", "receipt-2.pdf", "receipt-3.pdf", "receipt-4.pdf", "receipt-5.pdf"}
	assert.Equal(t, want, result.Files)
	assert.Equal(t, want, zipEntries(t, result.Data))
	assert.Equal(t, DefaultArchiveName, result.ArchiveName)
	assert.NotEmpty(t, result.BatchID)
	assert.Empty(t, result.Failed)
	assert.Empty(t, result.Warnings)
}

func TestArchiver_IdempotentFilenames(t *testing.T) {
	records, def := hydrogenRecords(t, 8)
	archiver := NewArchiver(&fakeCapturer{}, Options{Workers: 4, NameWithRRN: true}, logging.NewMockLogger())

	first, err := archiver.Archive(context.Background(), records, def)
	require.NoError(t, err)
	second, err := archiver.Archive(context.Background(), records, def)
	require.NoError(t, err)

	assert.Equal(t, first.Files, second.Files)
	assert.Equal(t, "receipt-1-000000000000.pdf", first.Files[0])
	assert.NotEqual(t, first.BatchID, second.BatchID)
}

func TestArchiver_PartialFailure(t *testing.T) {
	records, def := hydrogenRecords(t, 4)
	logger := logging.NewMockLogger()
	archiver := NewArchiver(&fakeCapturer{fail: map[int]bool{2: true}}, Options{Workers: 2}, logger)

	result, err := archiver.Archive(context.Background(), records, def)
	require.NoError(t, err)

	assert.Equal(t, []string{"receipt-1.pdf", "receipt-2.pdf", "receipt-4.pdf"}, zipEntries(t, result.Data))
	require.Len(t, result.Failed, 1)
	assert.Equal(t, 2, result.Failed[0].Index)
	assert.Equal(t, "receipt-3.pdf", result.Failed[0].Filename)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "receipt-3.pdf")
	assert.True(t, logger.HasEntry("WARN", "Receipt capture failed"))
}

func TestArchiver_AllFail(t *testing.T) {
	records, def := hydrogenRecords(t, 3)
	archiver := NewArchiver(&fakeCapturer{fail: map[int]bool{0: true, 1: true, 2: true}}, Options{Workers: 2}, logging.NewMockLogger())

	result, err := archiver.Archive(context.Background(), records, def)
	require.Error(t, err)
	assert.Nil(t, result)

	var captureErr *receipterror.CaptureError
	require.True(t, errors.As(err, &captureErr))
	assert.Equal(t, -1, captureErr.Index)
	assert.ErrorIs(t, err, receipterror.ErrNoReceipts)
}

func TestArchiver_EmptyInput(t *testing.T) {
	_, def := hydrogenRecords(t, 1)
	archiver := NewArchiver(&fakeCapturer{}, Options{}, logging.NewMockLogger())

	_, err := archiver.Archive(context.Background(), nil, def)
	assert.ErrorIs(t, err, receipterror.ErrNoReceipts)
}

func TestArchiver_Cancelled(t *testing.T) {
	records, def := hydrogenRecords(t, 3)
	archiver := NewArchiver(&fakeCapturer{}, Options{Workers: 1}, logging.NewMockLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := archiver.Archive(ctx, records, def)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
}

func TestPack_DuplicateEntry(t *testing.T) {
	a := &pdfexport.Artifact{Filename: "receipt-1.pdf", Data: []byte("x")}
	_, _, err := pack([]*pdfexport.Artifact{a, nil, a})
	assert.Error(t, err)
}

func TestArena_Release(t *testing.T) {
	docs := newArena(2)
	first := render.NewDocument([]render.Block{{Kind: render.KindText, Text: "a", Size: render.SmallText}})
	require.NoError(t, first.Attach())
	docs.put(0, first)
	docs.put(1, render.NewDocument(nil))
	assert.Equal(t, 2, docs.len())

	docs.release()
	assert.Equal(t, 0, docs.len())
	assert.False(t, first.Attached())
}
