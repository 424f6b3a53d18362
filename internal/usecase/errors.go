package usecase

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidVideoPath is returned for empty paths or paths containing "..".
	ErrInvalidVideoPath = errors.New("invalid video path")

	// ErrRangeNotSatisfiable is returned in strict range mode when the Range
	// header cannot be satisfied. Use errors.As with *RangeNotSatisfiableError
	// to recover the object size.
	ErrRangeNotSatisfiable = errors.New("range not satisfiable")
)

// RangeNotSatisfiableError carries the object size needed for the
// "Content-Range: bytes */size" response header.
type RangeNotSatisfiableError struct {
	Header string
	Size   uint64
}

func (e *RangeNotSatisfiableError) Error() string {
	return fmt.Sprintf("%s: %q for size %d", ErrRangeNotSatisfiable, e.Header, e.Size)
}

func (e *RangeNotSatisfiableError) Is(target error) bool {
	return target == ErrRangeNotSatisfiable
}

// ValidationError describes rejected client input. Its message is safe to
// return to the caller verbatim.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + " " + e.Reason
}
