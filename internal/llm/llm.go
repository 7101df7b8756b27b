// Package llm turns natural-language questions into SQL via a hosted
// language model and extracts the statement from the model's free text.
package llm

import (
	"context"
	"fmt"
)

// Synthesizer is the capability the pipeline needs from a model provider:
// one question in, one free-text completion out. Implementations make
// exactly one network call per invocation and never retry.
type Synthesizer interface {
	Synthesize(ctx context.Context, question string) (string, error)
}

// ModelError reports a transport, authentication, or provider failure
// during synthesis.
type ModelError struct {
	Cause error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("failed to run model query: %v", e.Cause)
}

func (e *ModelError) Unwrap() error {
	return e.Cause
}

// BuildPrompt renders the fixed analyst prompt for a question against the
// named table. The model is told to return exactly one fenced SQL block.
func BuildPrompt(tableName, question string) string {
	return fmt.Sprintf(
		"You are a data analyst. Given the table `%s`, "+
			"generate a SQL query in DuckDB dialect to answer the following:\n\n"+
			"%s\n\n"+
			"Return only the SQL query inside triple backticks (```sql).",
		tableName, question)
}
