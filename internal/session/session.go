// Package session holds the per-session state of one interactive analysis:
// the loaded table, the backing store, and the configured model provider.
// All pipeline actions run strictly sequentially through a Session; nothing
// here is safe for concurrent use and nothing needs to be.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/leapstack-labs/askdb/internal/ingest"
	"github.com/leapstack-labs/askdb/internal/llm"
	"github.com/leapstack-labs/askdb/internal/store"
	"github.com/leapstack-labs/askdb/pkg/tabular"
)

// DefaultTableName is the fixed relation name every upload materializes
// under for the lifetime of the session.
const DefaultTableName = "uploaded_data"

// Config configures a Session.
type Config struct {
	// DatabasePath is the DuckDB path; empty means in-memory.
	DatabasePath string

	// TableName overrides DefaultTableName. Mostly for tests.
	TableName string

	// Logger is optional; nil discards.
	Logger *slog.Logger
}

// Answer is the outcome of one question: the raw model reply, the extracted
// SQL if any, and the query result when execution succeeded. NoSQL marks
// the defined "model returned no fenced sql block" outcome, in which case
// Raw is what the user should see.
type Answer struct {
	ID     string
	Raw    string
	SQL    string
	NoSQL  bool
	Result *tabular.Table
}

// Session owns one upload and answers questions against it.
type Session struct {
	store     *store.Store
	loader    *ingest.Loader
	synth     llm.Synthesizer
	logger    *slog.Logger
	tableName string

	current  *ingest.Result
	tempPath string
}

// New opens the backing store and returns an empty session: no table, no
// model provider.
func New(ctx context.Context, cfg Config) (*Session, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	tableName := cfg.TableName
	if tableName == "" {
		tableName = DefaultTableName
	}

	st, err := store.Open(ctx, cfg.DatabasePath, logger)
	if err != nil {
		return nil, err
	}

	return &Session{
		store:     st,
		loader:    ingest.New(logger),
		logger:    logger,
		tableName: tableName,
	}, nil
}

// Close releases the store and the intermediate CSV.
func (s *Session) Close() error {
	if s.tempPath != "" {
		_ = os.Remove(s.tempPath)
		s.tempPath = ""
	}
	return s.store.Close()
}

// SetSynthesizer installs the model provider. Until one is set, Ask is
// disabled.
func (s *Session) SetSynthesizer(synth llm.Synthesizer) {
	s.synth = synth
}

// HasSynthesizer reports whether a model provider is configured.
func (s *Session) HasSynthesizer() bool {
	return s.synth != nil
}

// TableName returns the fixed relation name for this session.
func (s *Session) TableName() string {
	return s.tableName
}

// Current returns the most recent load result, or nil before any upload.
func (s *Session) Current() *ingest.Result {
	return s.current
}

// LoadFile ingests the file and materializes it in the store, replacing any
// previously loaded table wholesale. On failure the previous table remains
// current.
func (s *Session) LoadFile(ctx context.Context, path string) (*ingest.Result, error) {
	res, err := s.loader.LoadFile(path)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateTableFromCSV(ctx, s.tableName, res.TempPath); err != nil {
		_ = os.Remove(res.TempPath)
		return nil, err
	}

	if s.tempPath != "" {
		_ = os.Remove(s.tempPath)
	}
	s.current = res
	s.tempPath = res.TempPath

	s.logger.Debug("table loaded",
		"table", s.tableName, "columns", len(res.Columns), "rows", res.Table.NumRows())
	return res, nil
}

// Ask runs the full question pipeline: synthesize, extract, execute. When
// the model reply contains no SQL the returned Answer has NoSQL set and no
// error. When execution fails, the returned error is the engine's and the
// Answer still carries the SQL that was attempted.
func (s *Session) Ask(ctx context.Context, question string) (*Answer, error) {
	if s.synth == nil {
		return nil, fmt.Errorf("no API key configured: set one before asking questions")
	}
	if s.current == nil {
		return nil, fmt.Errorf("no data loaded: upload a CSV or Excel file first")
	}
	if question == "" {
		return nil, fmt.Errorf("please enter a valid query")
	}

	ans := &Answer{ID: uuid.NewString()}
	s.logger.Debug("question submitted", "request_id", ans.ID)

	raw, err := s.synth.Synthesize(ctx, question)
	if err != nil {
		return nil, err
	}
	ans.Raw = raw

	sqlText, found := llm.ExtractSQL(raw)
	if !found {
		s.logger.Debug("no sql block in model reply", "request_id", ans.ID)
		ans.NoSQL = true
		return ans, nil
	}
	ans.SQL = sqlText

	result, err := s.store.Query(ctx, sqlText)
	if err != nil {
		return ans, err
	}
	ans.Result = result

	s.logger.Debug("question answered",
		"request_id", ans.ID, "rows", result.NumRows())
	return ans, nil
}

// RunSQL executes a statement the user typed directly, bypassing the model.
func (s *Session) RunSQL(ctx context.Context, sqlText string) (*tabular.Table, error) {
	return s.store.Query(ctx, sqlText)
}

// Metadata returns the store's schema for the current table.
func (s *Session) Metadata(ctx context.Context) ([]store.ColumnMetadata, error) {
	if s.current == nil {
		return nil, fmt.Errorf("no data loaded")
	}
	return s.store.TableMetadata(ctx, s.tableName)
}
