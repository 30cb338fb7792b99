// Package apperrors catalogues the harvester's error taxonomy (spec.md §7):
// typed errors distinguished with errors.As, the way the teacher classifies
// failures in internal/api/errors.go.
package apperrors

import (
	"errors"
	"fmt"
)

// PreconditionError means a pipeline cannot run this harvest. The registry
// treats these as "this pipeline will not run" and continues with others.
type PreconditionError struct {
	Pipeline string
	Reason   string // "disabled", "skipped-no-changes", or "invalid-pipeline-shape: <cause>"
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("pipeline %s: precondition not met: %s", e.Pipeline, e.Reason)
}

// NewPreconditionError constructs a PreconditionError for pipeline/reason.
func NewPreconditionError(pipeline, reason string) *PreconditionError {
	return &PreconditionError{Pipeline: pipeline, Reason: reason}
}

// IsPrecondition reports whether err is (or wraps) a PreconditionError.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}

// TransientSourceError means the extractor or its HTTP collaborator failed.
// The pipeline's health becomes harvest-failed and the harvest is
// considered ended, without retry.
type TransientSourceError struct {
	Pipeline string
	Err      error
}

func (e *TransientSourceError) Error() string {
	return fmt.Sprintf("pipeline %s: transient source error: %v", e.Pipeline, e.Err)
}

func (e *TransientSourceError) Unwrap() error { return e.Err }

// LoaderError means the loader failed to accept an element.
type LoaderError struct {
	Pipeline string
	Err      error
}

func (e *LoaderError) Error() string {
	return fmt.Sprintf("pipeline %s: loader error: %v", e.Pipeline, e.Err)
}

func (e *LoaderError) Unwrap() error { return e.Err }

// CancellationError means the pipeline's abort flag was observed during
// its element loop. No stable cache mutations are expected in this case.
type CancellationError struct {
	Pipeline string
}

func (e *CancellationError) Error() string {
	return fmt.Sprintf("pipeline %s: cancelled", e.Pipeline)
}

// IsCancellation reports whether err is (or wraps) a CancellationError.
func IsCancellation(err error) bool {
	var ce *CancellationError
	return errors.As(err, &ce)
}

// FatalInitError means service-level context construction failed; the
// global state moves to error and the only accepted operation is reset.
type FatalInitError struct {
	Err error
}

func (e *FatalInitError) Error() string {
	return fmt.Sprintf("fatal initialization error: %v", e.Err)
}

func (e *FatalInitError) Unwrap() error { return e.Err }

// DiskError wraps a cache-promotion or other disk-layer failure. Backup-
// swap semantics keep stable consistent; an incomplete promotion completes
// on the next applyChanges.
type DiskError struct {
	Op  string
	Err error
}

func (e *DiskError) Error() string {
	return fmt.Sprintf("disk error during %s: %v", e.Op, e.Err)
}

func (e *DiskError) Unwrap() error { return e.Err }

// ErrNoHarvesterCouldBeStarted is returned by the registry when every
// pipeline hit a precondition failure and none entered harvesting status.
var ErrNoHarvesterCouldBeStarted = errors.New("no harvester could be started")
