package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hydrogen/pos-receipts/internal/batch"
	"hydrogen/pos-receipts/internal/csvinput"
	"hydrogen/pos-receipts/internal/logging"
	"hydrogen/pos-receipts/internal/pdfexport"
	"hydrogen/pos-receipts/internal/receipterror"
	"hydrogen/pos-receipts/internal/render"
	"hydrogen/pos-receipts/internal/templates"
)

const hydrogenCSV = `Customer name,Date of Transaction,RRN,Amount (in kobo),Tid,MASKEDPAN,Issuer Bank
John Doe,12/07/24 14:05,100000000001,10000,2044ZSRO,468219******5436,Zenith Bank
Ada Obi,13/07/24 09:30,100000000002,250000,2044ZSRP,539983******5910,
Musa Bello,14/07/24 18:45,100000000003,99,3011ABCD,516227******1111,UBA
`

// fakeCapturer records captures and runs hook, if set, during each one.
type fakeCapturer struct {
	hook func()
}

func (f *fakeCapturer) Capture(_ context.Context, doc *render.Document, filename string) (pdfexport.Artifact, error) {
	if err := doc.Attach(); err != nil {
		return pdfexport.Artifact{}, err
	}
	if f.hook != nil {
		f.hook()
	}
	return pdfexport.Artifact{Filename: filename, Data: []byte("%PDF-")}, nil
}

func newSession(t *testing.T, capturer *fakeCapturer) *Session {
	t.Helper()
	registry, err := templates.NewRegistry()
	require.NoError(t, err)
	logger := logging.NewMockLogger()
	archiver := batch.NewArchiver(capturer, batch.Options{Workers: 2}, logger)
	return New(registry, capturer, archiver, nil, logger)
}

func parse(t *testing.T, data string) *csvinput.Table {
	t.Helper()
	table, err := csvinput.Parse(strings.NewReader(data), csvinput.Options{})
	require.NoError(t, err)
	return table
}

func TestSession_LoadAndSelectTemplate(t *testing.T) {
	s := newSession(t, &fakeCapturer{})
	assert.False(t, s.Ready())

	require.NoError(t, s.Load(parse(t, hydrogenCSV)))
	assert.True(t, s.Ready())
	assert.Len(t, s.Records(), 3)

	_, err := s.SelectTemplate("medusa")
	require.Error(t, err)
	var validationErr *receipterror.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, []string{"Amount", "Date", "Terminal ID", "PAN"}, validationErr.Missing)
	assert.False(t, s.Ready(), "a rejected record set is not partially accepted")

	def, err := s.SelectTemplate("unknown")
	require.NoError(t, err)
	assert.Equal(t, "hydrogen", def.ID)
	assert.True(t, s.Ready())
}

func TestSession_GeneratedValuesStableWithinGeneration(t *testing.T) {
	s := newSession(t, &fakeCapturer{})
	require.NoError(t, s.Load(parse(t, hydrogenCSV)))

	first := s.Records()
	second := s.Records()
	for i := range first {
		a, ok := first[i].Generated(templates.FieldSTAN)
		require.True(t, ok)
		b, _ := second[i].Generated(templates.FieldSTAN)
		assert.Equal(t, a, b)
	}

	docA, err := s.Render(1)
	require.NoError(t, err)
	docB, err := s.Render(1)
	require.NoError(t, err)
	assert.Equal(t, docA.Text(), docB.Text())
}

func TestSession_Filter(t *testing.T) {
	s := newSession(t, &fakeCapturer{})
	require.NoError(t, s.Load(parse(t, hydrogenCSV)))

	tests := []struct {
		query string
		want  []int
	}{
		{"", []int{0, 1, 2}},
		{"  ", []int{0, 1, 2}},
		{"ada", []int{1}},
		{"100000000003", []int{2}},
		{"2044zsr", []int{0, 1}},
		{"zenith", []int{0}},
		{"5910", []int{1}},
		{"13/07", []int{1}},
		{"250000", []int{1}},
		{"nothing", nil},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("query %q", tt.query), func(t *testing.T) {
			var got []int
			for _, rec := range s.Filter(tt.query) {
				got = append(got, rec.Index)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPage(t *testing.T) {
	s := newSession(t, &fakeCapturer{})

	var sb strings.Builder
	sb.WriteString("Date of Transaction,RRN,Amount (in kobo),Tid,MASKEDPAN\n")
	for i := 0; i < 23; i++ {
		fmt.Fprintf(&sb, "12/07/24 14:05,%012d,100,T%d,468219******5436\n", i, i)
	}
	require.NoError(t, s.Load(parse(t, sb.String())))
	records := s.Records()

	page, total := Page(records, 1)
	assert.Equal(t, 3, total)
	assert.Len(t, page, 10)
	assert.Equal(t, 0, page[0].Index)

	page, _ = Page(records, 3)
	assert.Len(t, page, 3)
	assert.Equal(t, 20, page[0].Index)

	page, _ = Page(records, 9)
	assert.Equal(t, 20, page[0].Index, "pages past the end are clamped")

	page, total = Page(nil, 1)
	assert.Empty(t, page)
	assert.Zero(t, total)
}

func TestSession_DownloadOne(t *testing.T) {
	s := newSession(t, &fakeCapturer{})

	_, err := s.DownloadOne(context.Background(), 0)
	assert.ErrorIs(t, err, ErrNotReady)

	require.NoError(t, s.Load(parse(t, hydrogenCSV)))
	artifact, err := s.DownloadOne(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "receipt-2.pdf", artifact.Filename)

	_, err = s.DownloadOne(context.Background(), 3)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestSession_StaleDownloadsAreDiscarded(t *testing.T) {
	capturer := &fakeCapturer{}
	s := newSession(t, capturer)
	require.NoError(t, s.Load(parse(t, hydrogenCSV)))

	table := parse(t, hydrogenCSV)
	// a new upload lands while the capture is running
	reloadOnce := func() func() {
		var once sync.Once
		return func() {
			once.Do(func() { assert.NoError(t, s.Load(table)) })
		}
	}

	capturer.hook = reloadOnce()
	_, err := s.DownloadOne(context.Background(), 0)
	assert.ErrorIs(t, err, ErrStale)

	capturer.hook = reloadOnce()
	_, err = s.DownloadAll(context.Background())
	assert.ErrorIs(t, err, ErrStale)

	capturer.hook = nil
	result, err := s.DownloadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"receipt-1.pdf", "receipt-2.pdf", "receipt-3.pdf"}, result.Files)
}
