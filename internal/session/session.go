// Package session holds the record set the user is working on and guards
// deliveries against records that changed while a capture was in flight.
package session

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"

	"hydrogen/pos-receipts/internal/batch"
	"hydrogen/pos-receipts/internal/csvinput"
	"hydrogen/pos-receipts/internal/logging"
	"hydrogen/pos-receipts/internal/models"
	"hydrogen/pos-receipts/internal/pdfexport"
	"hydrogen/pos-receipts/internal/render"
	"hydrogen/pos-receipts/internal/templates"
)

// PageSize is the number of records per page.
const PageSize = 10

var (
	// ErrStale is returned when the record set or template changed while an
	// operation was running. Its output is discarded.
	ErrStale = errors.New("records changed while the receipt was being generated")
	// ErrNotReady is returned by downloads before a valid record set is loaded.
	ErrNotReady = errors.New("no receipts are ready for download")
	// ErrOutOfRange is returned for a record index outside the loaded set.
	ErrOutOfRange = errors.New("receipt index out of range")
)

// searchFields are matched by Filter.
var searchFields = []templates.Field{
	templates.FieldCustomer,
	templates.FieldRRN,
	templates.FieldTerminal,
	templates.FieldCardType,
	templates.FieldIssuerBank,
	templates.FieldAmount,
	templates.FieldDate,
	templates.FieldPAN,
}

// Session is safe for concurrent use.
type Session struct {
	registry *templates.Registry
	capturer batch.Capturer
	archiver *batch.Archiver
	logger   logging.Logger
	rng      *rand.Rand

	mu         sync.Mutex
	generation uint64
	table      *csvinput.Table
	def        templates.Definition
	records    []models.Record
}

// New creates an empty session. rng seeds generated fallback values; nil
// derives them from each row so reloading a file reproduces them.
func New(registry *templates.Registry, capturer batch.Capturer, archiver *batch.Archiver, rng *rand.Rand, logger logging.Logger) *Session {
	return &Session{
		registry: registry,
		capturer: capturer,
		archiver: archiver,
		logger:   logger,
		rng:      rng,
		def:      registry.Default(),
	}
}

// Load replaces the record set and validates it against the current
// template. On a validation error the session holds no records.
func (s *Session) Load(table *csvinput.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.table = table
	return s.resetLocked()
}

// SelectTemplate switches the template and revalidates the loaded table.
// An unknown id selects the default template.
func (s *Session) SelectTemplate(id string) (templates.Definition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.def = s.registry.Lookup(id)
	return s.def, s.resetLocked()
}

// resetLocked starts a new generation and rebuilds the records. Callers hold mu.
func (s *Session) resetLocked() error {
	s.generation++
	s.records = nil

	logger := s.logger.WithFields(
		logging.F(logging.FieldGeneration, s.generation),
		logging.F(logging.FieldTemplate, s.def.ID),
		logging.F(logging.FieldVariant, string(s.def.Variant)),
	)

	if s.table == nil {
		return nil
	}
	if err := csvinput.Validate(s.table, s.def); err != nil {
		logger.WithError(err).Warn("Record set rejected")
		return err
	}

	records, err := models.Ingest(s.table.Rows, s.def, s.rng)
	if err != nil {
		return err
	}
	s.records = records
	logger.Info("Records loaded", logging.F(logging.FieldCount, len(records)))
	return nil
}

// Ready reports whether downloads are enabled.
func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records) > 0
}

// Records returns the loaded records in file order.
func (s *Session) Records() []models.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Record(nil), s.records...)
}

// snapshot returns the state an operation works on.
func (s *Session) snapshot() (uint64, templates.Definition, []models.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation, s.def, s.records
}

func (s *Session) current(generation uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation == generation
}

// Filter returns the records whose customer, RRN, terminal, card type, bank,
// amount, date or PAN column contains query, ignoring case. A blank query
// returns every record.
func (s *Session) Filter(query string) []models.Record {
	_, def, records := s.snapshot()

	term := strings.ToLower(strings.TrimSpace(query))
	if term == "" {
		return append([]models.Record(nil), records...)
	}

	var out []models.Record
	for _, rec := range records {
		for _, f := range searchFields {
			column := def.Column(f)
			if column == "" {
				continue
			}
			if strings.Contains(strings.ToLower(rec.Get(column)), term) {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}

// Page returns the one-based page of records and the page count. Pages out
// of range are clamped.
func Page(records []models.Record, page int) ([]models.Record, int) {
	total := (len(records) + PageSize - 1) / PageSize
	if total == 0 {
		return nil, 0
	}
	if page < 1 {
		page = 1
	}
	if page > total {
		page = total
	}
	start := (page - 1) * PageSize
	end := min(start+PageSize, len(records))
	return records[start:end], total
}

// Render returns the laid-out document of the record at index.
func (s *Session) Render(index int) (*render.Document, error) {
	_, def, records := s.snapshot()
	if index < 0 || index >= len(records) {
		return nil, ErrOutOfRange
	}
	return render.Render(records[index], def), nil
}

// DownloadOne captures the record at index as a single PDF.
func (s *Session) DownloadOne(ctx context.Context, index int) (pdfexport.Artifact, error) {
	generation, def, records := s.snapshot()
	if len(records) == 0 {
		return pdfexport.Artifact{}, ErrNotReady
	}
	if index < 0 || index >= len(records) {
		return pdfexport.Artifact{}, ErrOutOfRange
	}

	rec := records[index]
	doc := render.Render(rec, def)
	defer doc.Detach()

	filename := s.archiver.Filename(rec, def)
	doc.Filename = filename

	artifact, err := s.capturer.Capture(ctx, doc, filename)
	if err != nil {
		return pdfexport.Artifact{}, err
	}
	if !s.current(generation) {
		s.logger.Warn("Discarding receipt from a previous record set",
			logging.F(logging.FieldFilename, filename),
			logging.F(logging.FieldGeneration, generation))
		return pdfexport.Artifact{}, ErrStale
	}
	return artifact, nil
}

// DownloadAll archives every loaded record.
func (s *Session) DownloadAll(ctx context.Context) (*batch.Result, error) {
	generation, def, records := s.snapshot()
	if len(records) == 0 {
		return nil, ErrNotReady
	}

	result, err := s.archiver.Archive(ctx, records, def)
	if err != nil {
		return nil, err
	}
	if !s.current(generation) {
		s.logger.Warn("Discarding archive from a previous record set",
			logging.F(logging.FieldBatch, result.BatchID),
			logging.F(logging.FieldGeneration, generation))
		return nil, ErrStale
	}
	return result, nil
}
