package ingest

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/askdb/internal/testutil"
	"github.com/leapstack-labs/askdb/pkg/tabular"
)

func loadCSV(t *testing.T, content string) *Result {
	t.Helper()
	res, err := New(testutil.NewTestLogger(t)).Load([]byte(content), "csv")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Remove(res.TempPath) })
	return res
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	_, err := New(nil).Load([]byte("a,b\n1,2\n"), "json")
	require.Error(t, err)

	var ufe *UnsupportedFormatError
	require.ErrorAs(t, err, &ufe)
	assert.Equal(t, "json", ufe.Extension)
}

func TestLoadReportsParseFailures(t *testing.T) {
	// Ragged CSV rows are a parse error, not a partial table.
	_, err := New(nil).Load([]byte("a,b\n1,2,3\n"), "csv")
	require.Error(t, err)

	var ie *IngestionError
	assert.ErrorAs(t, err, &ie)
}

func TestMissingTokensBecomeNull(t *testing.T) {
	res := loadCSV(t, "city,note\nNA,\"N/A\"\nmissing,na\n")

	tbl := res.Table
	assert.Nil(t, tbl.Rows[0][0])
	assert.Nil(t, tbl.Rows[0][1])
	assert.Nil(t, tbl.Rows[1][0])
	// Matching is case-sensitive: "na" is ordinary text.
	assert.Equal(t, "na", tbl.Rows[1][1])
}

func TestTextQuotesAreDoubled(t *testing.T) {
	res := loadCSV(t, "name\n\"Bob \"\"The Builder\"\"\"\n")

	assert.Equal(t, `Bob ""The Builder""`, res.Table.Rows[0][0])
}

func TestNumericInferenceAllOrNothing(t *testing.T) {
	res := loadCSV(t, "amount,code\n10,10\n2.5,2.5\nNA,abc\n")

	tbl := res.Table
	// Every non-null value parses, so amount converts.
	assert.Equal(t, tabular.TypeNumeric, tbl.Columns[0].Type)
	assert.Equal(t, float64(10), tbl.Rows[0][0])
	assert.Equal(t, 2.5, tbl.Rows[1][0])
	assert.Nil(t, tbl.Rows[2][0])

	// One unparseable value keeps the whole column textual and unchanged.
	assert.Equal(t, tabular.TypeText, tbl.Columns[1].Type)
	assert.Equal(t, "10", tbl.Rows[0][1])
	assert.Equal(t, "abc", tbl.Rows[2][1])
}

func TestAllNullColumnStaysText(t *testing.T) {
	res := loadCSV(t, "empty,v\nNA,1\nN/A,2\n")

	assert.Equal(t, tabular.TypeText, res.Table.Columns[0].Type)
}

func TestDateColumnsParsePerValue(t *testing.T) {
	res := loadCSV(t, "Sales_Date,amount\n2024-06-01,10\nnot-a-date,20\n2024-06-03 08:15:00,30\n")

	tbl := res.Table
	require.Equal(t, tabular.TypeTimestamp, tbl.Columns[0].Type)

	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), tbl.Rows[0][0])
	// Unparseable values become null, never an error.
	assert.Nil(t, tbl.Rows[1][0])
	assert.Equal(t, time.Date(2024, 6, 3, 8, 15, 0, 0, time.UTC), tbl.Rows[2][0])

	// The malformed date row keeps its amount.
	assert.Equal(t, float64(20), tbl.Rows[1][1])
}

func TestDateSubstringMatchIsCaseInsensitive(t *testing.T) {
	res := loadCSV(t, "UPDATED,n\n2024-01-01,1\n")

	assert.Equal(t, tabular.TypeTimestamp, res.Table.Columns[0].Type)
}

func TestTempCSVIsFullyQuoted(t *testing.T) {
	res := loadCSV(t, "region,sales_date,amount\nwest,2024-06-01,125\neast,bad,40.5\n")

	data, err := os.ReadFile(res.TempPath)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `"region","sales_date","amount"`, lines[0])
	assert.Equal(t, `"west","2024-06-01 00:00:00","125"`, lines[1])
	// Null date serializes as an empty quoted field; the amount survives.
	assert.Equal(t, `"east","","40.5"`, lines[2])
}

func TestLoadXLSX(t *testing.T) {
	res, err := New(testutil.NewTestLogger(t)).LoadFile(writeXLSXFixture(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Remove(res.TempPath) })

	tbl := res.Table
	require.Equal(t, []string{"region", "amount"}, res.Columns)
	require.Equal(t, 2, tbl.NumRows())
	assert.Equal(t, tabular.TypeNumeric, tbl.Columns[1].Type)
	assert.Equal(t, "west", tbl.Rows[0][0])
	assert.Equal(t, float64(10), tbl.Rows[0][1])
	assert.Nil(t, tbl.Rows[1][1])
}
