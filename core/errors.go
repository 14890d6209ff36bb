package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidChunkSize is returned when a chunk size is not positive.
	ErrInvalidChunkSize = errors.New("chunk size must be positive")

	// ErrUnparsableValue marks a row whose value field is not a finite number.
	ErrUnparsableValue = errors.New("unparsable value")

	// ErrWorkerPanic wraps a panic recovered while processing a chunk.
	ErrWorkerPanic = errors.New("worker panic")

	// ErrInputUnavailable wraps failures opening or reading the input.
	ErrInputUnavailable = errors.New("input unavailable")
)

// RowError reports a fatal problem with a single input row.
type RowError struct {
	Offset int64  // byte offset of the row in the input
	Row    string // raw row text
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row at offset %d (%q): %v", e.Offset, e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
