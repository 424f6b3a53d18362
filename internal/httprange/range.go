// Package httprange parses single-range HTTP Range headers against a known
// object size.
//
// Only the "bytes=start-end" form is supported. Suffix-length ranges are not:
// a missing start is read as 0, so "bytes=-500" selects [0, 500] rather than
// the final 500 bytes. Multi-range headers are rejected as invalid, which
// callers treat the same as an absent header.
package httprange

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const unitPrefix = "bytes="

// ErrInvalidRange is returned when a header cannot be parsed or does not fit
// inside the object.
var ErrInvalidRange = errors.New("invalid range")

// Window is an inclusive byte window. Start <= End < size always holds for
// windows returned by this package.
type Window struct {
	Start uint64
	End   uint64
}

// Len returns the number of bytes in the window.
func (w Window) Len() uint64 {
	return w.End - w.Start + 1
}

// ContentRange formats the Content-Range header value for an object of size.
func (w Window) ContentRange(size uint64) string {
	return fmt.Sprintf("bytes %d-%d/%d", w.Start, w.End, size)
}

// Whole returns the window covering an entire object.
// ok is false for empty objects, which have no addressable bytes.
func Whole(size uint64) (w Window, ok bool) {
	if size == 0 {
		return Window{}, false
	}
	return Window{Start: 0, End: size - 1}, true
}

// Parse parses a Range header value against size.
// An empty header is not an error for callers, but Parse reports it as
// ErrInvalidRange; use Whole for the no-header case.
func Parse(header string, size uint64) (Window, error) {
	rng, ok := strings.CutPrefix(strings.TrimSpace(header), unitPrefix)
	if !ok {
		return Window{}, fmt.Errorf("%w: missing %q unit", ErrInvalidRange, unitPrefix)
	}
	if size == 0 {
		return Window{}, fmt.Errorf("%w: empty object", ErrInvalidRange)
	}

	startStr, endStr, ok := strings.Cut(rng, "-")
	if !ok {
		return Window{}, fmt.Errorf("%w: missing '-' in %q", ErrInvalidRange, rng)
	}

	start, err := parseBound(startStr, 0)
	if err != nil {
		return Window{}, err
	}
	end, err := parseBound(endStr, size-1)
	if err != nil {
		return Window{}, err
	}

	if start > end {
		return Window{}, fmt.Errorf("%w: start %d after end %d", ErrInvalidRange, start, end)
	}
	if end >= size {
		return Window{}, fmt.Errorf("%w: end %d beyond size %d", ErrInvalidRange, end, size)
	}

	return Window{Start: start, End: end}, nil
}

// parseBound parses one side of the range; empty means fallback.
// strconv.ParseUint already rejects signs, spaces and commas.
func parseBound(s string, fallback uint64) (uint64, error) {
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad bound %q", ErrInvalidRange, s)
	}
	return v, nil
}
