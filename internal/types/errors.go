package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrNotFound      = errors.New("not found")
	ErrMalformedPage = errors.New("malformed page")
	ErrDuplicate     = errors.New("duplicate record")
	ErrInvalidURL    = errors.New("invalid URL")
	ErrStoreClosed   = errors.New("store is closed")
)

// FetchError wraps errors that occur during fetching. A non-2xx response is
// reported with its StatusCode set.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError wraps errors that occur during parsing.
type ParseError struct {
	URL     string
	Version string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Version != "" {
		return fmt.Sprintf("parse error for %s (version=%s): %v", e.URL, e.Version, e.Err)
	}
	return fmt.Sprintf("parse error for %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StorageError wraps errors that occur in a storage backend. Statement is
// the attempted operation, rendered for logs.
type StorageError struct {
	Backend   string
	Statement string
	Err       error
}

func (e *StorageError) Error() string {
	if e.Statement != "" {
		return fmt.Sprintf("storage error (%s) on %q: %v", e.Backend, e.Statement, e.Err)
	}
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// PipelineError wraps errors raised by a pipeline middleware.
type PipelineError struct {
	Stage  string
	Record *Record
	Err    error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline error at stage %s for %q: %v", e.Stage, e.Record.Name, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
