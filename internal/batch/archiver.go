// Package batch renders and captures whole record sets and packages the
// resulting PDFs into a single ZIP archive.
package batch

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"hydrogen/pos-receipts/internal/logging"
	"hydrogen/pos-receipts/internal/models"
	"hydrogen/pos-receipts/internal/pdfexport"
	"hydrogen/pos-receipts/internal/receipterror"
	"hydrogen/pos-receipts/internal/render"
	"hydrogen/pos-receipts/internal/templates"
)

// DefaultArchiveName is used when Options.ArchiveName is empty.
const DefaultArchiveName = "hydrogen-pos-receipts.zip"

// Capturer converts one laid-out document into a PDF artifact.
type Capturer interface {
	Capture(ctx context.Context, doc *render.Document, filename string) (pdfexport.Artifact, error)
}

// Options controls an Archiver.
type Options struct {
	Workers     int
	ArchiveName string
	NameWithRRN bool
}

// Result describes a finished batch. Files lists the archive entries in
// record order; Failed holds the per-record errors of a partial batch.
type Result struct {
	BatchID     string
	ArchiveName string
	Data        []byte
	Files       []string
	Failed      []*receipterror.CaptureError
	Warnings    []string
}

// Archiver runs render and capture across a record set.
type Archiver struct {
	capturer Capturer
	opts     Options
	logger   logging.Logger
}

// NewArchiver creates an Archiver. Workers below one means sequential.
func NewArchiver(capturer Capturer, opts Options, logger logging.Logger) *Archiver {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.ArchiveName == "" {
		opts.ArchiveName = DefaultArchiveName
	}
	return &Archiver{capturer: capturer, opts: opts, logger: logger}
}

// Filename returns the archive entry name of rec.
func (a *Archiver) Filename(rec models.Record, def templates.Definition) string {
	return pdfexport.FileName(rec.Index, rec.Value(def, templates.FieldRRN), a.opts.NameWithRRN)
}

// Archive renders and captures every record and zips the successes. A batch
// in which every record fails returns a CaptureError with Index -1 and no
// data. Cancelling ctx stops the batch and discards its artifacts.
func (a *Archiver) Archive(ctx context.Context, records []models.Record, def templates.Definition) (*Result, error) {
	batchID := uuid.NewString()
	logger := a.logger.WithFields(
		logging.F(logging.FieldBatch, batchID),
		logging.F(logging.FieldTemplate, def.ID),
	)

	if len(records) == 0 {
		return nil, &receipterror.CaptureError{Index: -1, Err: receipterror.ErrNoReceipts}
	}

	start := time.Now()
	logger.Info("Starting batch",
		logging.F(logging.FieldCount, len(records)),
		logging.F(logging.FieldWorkers, a.opts.Workers))

	docs := newArena(len(records))
	defer docs.release()

	artifacts := make([]*pdfexport.Artifact, len(records))
	failures := make([]*receipterror.CaptureError, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Workers)

	for i, rec := range records {
		filename := a.Filename(rec, def)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			doc := render.Render(rec, def)
			doc.Filename = filename
			docs.put(i, doc)

			artifact, err := a.capturer.Capture(gctx, doc, filename)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				failures[i] = asCaptureError(err, rec.Index, filename)
				logger.WithError(err).Warn("Receipt capture failed",
					logging.F(logging.FieldRow, rec.Index+1),
					logging.F(logging.FieldFilename, filename))
				return nil
			}
			artifacts[i] = &artifact
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.WithError(err).Warn("Batch cancelled")
		return nil, err
	}

	result := &Result{BatchID: batchID, ArchiveName: a.opts.ArchiveName}
	for i := range records {
		if failures[i] != nil {
			result.Failed = append(result.Failed, failures[i])
			result.Warnings = append(result.Warnings, failures[i].Error())
		}
	}

	if len(result.Failed) == len(records) {
		logger.Error("No receipt could be captured", logging.F(logging.FieldFailed, len(result.Failed)))
		return nil, &receipterror.CaptureError{
			Index: -1,
			Err:   fmt.Errorf("%w: all %d captures failed", receipterror.ErrNoReceipts, len(records)),
		}
	}

	data, files, err := pack(artifacts)
	if err != nil {
		logger.WithError(err).Error("Failed to package receipts")
		return nil, &receipterror.ArchiveError{Name: a.opts.ArchiveName, Err: err}
	}
	result.Data = data
	result.Files = files

	logger.Info("Batch completed",
		logging.F(logging.FieldCount, len(files)),
		logging.F(logging.FieldFailed, len(result.Failed)),
		logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))

	return result, nil
}

// asCaptureError keeps a CaptureError from the capturer or wraps any other
// error into one.
func asCaptureError(err error, index int, filename string) *receipterror.CaptureError {
	var captureErr *receipterror.CaptureError
	if errors.As(err, &captureErr) {
		return captureErr
	}
	return &receipterror.CaptureError{Index: index, Filename: filename, Err: err}
}

// pack writes the artifacts into an in-memory ZIP in slice order, skipping
// nil entries.
func pack(artifacts []*pdfexport.Artifact) ([]byte, []string, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	seen := make(map[string]bool, len(artifacts))
	files := make([]string, 0, len(artifacts))

	for _, artifact := range artifacts {
		if artifact == nil {
			continue
		}
		if seen[artifact.Filename] {
			return nil, nil, fmt.Errorf("duplicate archive entry %s", artifact.Filename)
		}
		seen[artifact.Filename] = true

		w, err := zw.Create(artifact.Filename)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to add %s: %w", artifact.Filename, err)
		}
		if _, err := w.Write(artifact.Data); err != nil {
			return nil, nil, fmt.Errorf("failed to write %s: %w", artifact.Filename, err)
		}
		files = append(files, artifact.Filename)
	}

	if err := zw.Close(); err != nil {
		return nil, nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buf.Bytes(), files, nil
}
