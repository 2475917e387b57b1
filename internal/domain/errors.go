package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrResultNotFound signals that no summary exists for an aggregation key.
	ErrResultNotFound = fmt.Errorf("aggregation result %w", ErrNotFound)
	// ErrUnknownDimension signals an unsupported grouping dimension.
	ErrUnknownDimension = errors.New("unknown dimension")
	// ErrStoreUnavailable signals that the document store cannot be reached.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrInterrupted signals that a run stopped before scheduling every key.
	ErrInterrupted = errors.New("run interrupted")
)

// DimensionAbortedError reports a dimension whose run stopped as a whole.
type DimensionAbortedError struct {
	Dimension string
	Err       error
}

func (e *DimensionAbortedError) Error() string {
	return fmt.Sprintf("dimension %s aborted: %v", e.Dimension, e.Err)
}

func (e *DimensionAbortedError) Unwrap() error { return e.Err }

// NewDimensionAborted wraps the cause of an aborted dimension run.
func NewDimensionAborted(dimension string, err error) error {
	return &DimensionAbortedError{Dimension: dimension, Err: err}
}
