package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hydrogen/pos-receipts/internal/config"
	"hydrogen/pos-receipts/internal/container"
	"hydrogen/pos-receipts/internal/logging"
	"hydrogen/pos-receipts/internal/receipterror"
	"hydrogen/pos-receipts/internal/templates"
)

const medusaCSV = `Merchant,Amount,Date,Terminal ID,PAN,Customer name,RRN
ROLLOW STORE COMPANY,74000,01/05/24 17:23,2044Y5PE,539983******5910,Oluwabukunfunmi Josiah,167560769532
`

func newContainer(t *testing.T) *container.Container {
	t.Helper()
	c, err := container.NewContainerWithLogger(config.Default(), logging.NewMockLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func writeCSV(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transactions.csv")
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))
	return path
}

func TestLoadFile(t *testing.T) {
	c := newContainer(t)
	path := writeCSV(t, medusaCSV)

	sess, def, err := LoadFile(c, path, "medusa")
	require.NoError(t, err)
	assert.Equal(t, "medusa", def.ID)
	assert.True(t, sess.Ready())
	assert.Len(t, sess.Records(), 1)
}

func TestLoadFile_STANsRepeatAcrossRuns(t *testing.T) {
	path := writeCSV(t, medusaCSV+`ROLLOW STORE COMPANY,1500,02/05/24 09:10,2044Y5PE,539983******5910,Ada Obi,167560769533
`)

	stans := func() []string {
		sess, _, err := LoadFile(newContainer(t), path, "medusa")
		require.NoError(t, err)
		var out []string
		for _, rec := range sess.Records() {
			stan, ok := rec.Generated(templates.FieldSTAN)
			require.True(t, ok)
			out = append(out, stan)
		}
		return out
	}

	first := stans()
	require.Len(t, first, 2)
	assert.Equal(t, first, stans(), "a rerun over the same file keeps its STANs")
	assert.NotEqual(t, first[0], first[1])
}

func TestLoadFile_Errors(t *testing.T) {
	c := newContainer(t)

	_, _, err := LoadFile(c, "", "hydrogen")
	assert.ErrorIs(t, err, ErrNoInput)

	_, _, err = LoadFile(c, writeCSV(t, medusaCSV), "hydrogen")
	var validationErr *receipterror.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, []string{"Date of Transaction", "Amount (in kobo)", "Tid", "MASKEDPAN"}, validationErr.Missing)

	_, _, err = LoadFile(c, writeCSV(t, "a,b\n\"1,2\n"), "hydrogen")
	var parseErr *receipterror.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestOutputDir(t *testing.T) {
	c := newContainer(t)
	assert.Equal(t, ".", OutputDir(c, ""))
	assert.Equal(t, "out/receipts", OutputDir(c, "out/receipts/"))
}
