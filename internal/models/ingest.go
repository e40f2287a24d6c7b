package models

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"sort"
	"strconv"

	"hydrogen/pos-receipts/internal/derive"
	"hydrogen/pos-receipts/internal/templates"
)

// Ingest turns parsed rows into records for def, drawing a STAN for every
// row that lacks one. With a nil rng each row draws from a source seeded by
// the template, the row index and the row content, so the same file yields
// the same STANs on every run.
func Ingest(rows []map[string]string, def templates.Definition, rng *rand.Rand) ([]Record, error) {
	records := make([]Record, 0, len(rows))
	stanColumn := def.Column(templates.FieldSTAN)

	for i, row := range rows {
		b := NewRecordBuilder().WithIndex(i).WithValues(row)
		if stanColumn == "" || derive.Fallback(row[stanColumn], "") == "" {
			src := rng
			if src == nil {
				src = rowRand(def.ID, i, row)
			}
			b.WithGenerated(templates.FieldSTAN, derive.NewSTAN(src))
		}

		rec, err := b.Build()
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// rowRand returns a generator seeded from an FNV hash of the row.
func rowRand(templateID string, index int, row map[string]string) *rand.Rand {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := fnv.New64a()
	write := func(s string) {
		_, _ = h.Write([]byte(s))
		_, _ = h.Write([]byte{0x1f})
	}
	write(templateID)
	write(strconv.Itoa(index))
	for _, k := range keys {
		write(k)
		write(row[k])
	}
	seed := h.Sum64()
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
