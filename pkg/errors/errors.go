// Package errors defines the sentinel errors shared across the extraction
// pipeline. Call sites wrap them with fmt.Errorf("...: %w", err) and callers
// classify with errors.Is.
package errors

import "errors"

var (
	// ErrNotReplayable is returned when template collection is requested
	// from an input that cannot be read twice (stdin) without an explicit
	// template file.
	ErrNotReplayable = errors.New("input stream is not replayable")
	// ErrNoSiteInfo is returned when the dump ends before the siteinfo
	// header block closes.
	ErrNoSiteInfo = errors.New("siteinfo header not found")
	// ErrStoreFrozen is returned on any attempt to define a template after
	// extraction has started.
	ErrStoreFrozen = errors.New("template store is frozen")
	// ErrPipelineAborted is returned when a worker or the reducer failed
	// and the run was halted rather than silently dropping articles.
	ErrPipelineAborted = errors.New("extraction pipeline aborted")
)
