package ingest

import "fmt"

// UnsupportedFormatError reports a file extension the loader does not accept.
type UnsupportedFormatError struct {
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format %q: upload a CSV or Excel file", e.Extension)
}

// IngestionError reports a parse or encoding failure during load. No partial
// table is retained when it is returned.
type IngestionError struct {
	Cause error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("error processing file: %v", e.Cause)
}

func (e *IngestionError) Unwrap() error {
	return e.Cause
}
