package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	// ErrTransport marks faults fatal to the current top-level operation:
	// network/HTTP failures, malformed envelopes, API error responses.
	ErrTransport = errors.New("transport fault")

	// ErrMissingPage marks recoverable per-page faults (pageid <= 0,
	// dangling category members, pages without content).
	ErrMissingPage = errors.New("missing page")

	// ErrParserIntegrity marks recoverable infobox parser faults.
	ErrParserIntegrity = errors.New("parser integrity fault")

	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
)

// Pipeline stage names reported by StageError.
const (
	StageCategoryWalk = "category walk"
	StageBatchFetch   = "batch fetch"
	StagePersist      = "persist"
)

// StageError names the pipeline stage a fatal fault aborted.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// APIError is an error envelope returned by the MediaWiki API
// ({"error": {"code": ..., "info": ...}}).
type APIError struct {
	Code string
	Info string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mediawiki api error %s: %s", e.Code, e.Info)
}

func (e *APIError) Unwrap() error { return ErrTransport }

// MissingPage is a recoverable warning about a page that could not be
// resolved to content.
type MissingPage struct {
	PageID int    `json:"pageid"`
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

func (m MissingPage) Error() string {
	return fmt.Sprintf("page %q (%d): %s", m.Title, m.PageID, m.Reason)
}

func (m MissingPage) Unwrap() error { return ErrMissingPage }
