package commands

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/askdb/internal/output"
	"github.com/leapstack-labs/askdb/internal/session"
	"github.com/leapstack-labs/askdb/pkg/tabular"
)

func newBufferRenderer() (*output.Renderer, *bytes.Buffer) {
	var buf bytes.Buffer
	return output.NewRenderer(&buf, &buf, output.FormatTable), &buf
}

func TestPresentAnswerSuccess(t *testing.T) {
	r, buf := newBufferRenderer()

	result := tabular.New([]string{"region", "avg_amount"})
	result.Rows = [][]any{{"west", 100.0}}

	presentAnswer(r, &session.Answer{
		SQL:    "SELECT region, AVG(amount) FROM uploaded_data GROUP BY region",
		Result: result,
	}, nil)

	got := buf.String()
	// The executed SQL is echoed alongside the result.
	assert.Contains(t, got, "AVG(amount)")
	assert.Contains(t, got, "west")
	assert.Contains(t, got, "(1 rows)")
}

func TestPresentAnswerNoSQL(t *testing.T) {
	r, buf := newBufferRenderer()

	presentAnswer(r, &session.Answer{
		Raw:   "I can only answer questions about the data.",
		NoSQL: true,
	}, nil)

	got := buf.String()
	assert.Contains(t, got, "did not return a SQL query")
	assert.Contains(t, got, "I can only answer questions about the data.")
}

func TestPresentAnswerExecutionError(t *testing.T) {
	r, buf := newBufferRenderer()

	presentAnswer(r, &session.Answer{SQL: "SELECT nope"}, errors.New(`column "nope" not found`))

	got := buf.String()
	assert.Contains(t, got, "SELECT nope")
	assert.Contains(t, got, `column "nope" not found`)
}

func TestAskCommandArgValidation(t *testing.T) {
	cmd := NewAskCommand()
	cmd.SetArgs([]string{"only-a-file.csv"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	cmd := NewVersionCommand("1.2.3", "2026-01-01", "abc123")
	cmd.SetOut(&buf)

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "askdb 1.2.3")
	assert.Contains(t, buf.String(), "abc123")
}
