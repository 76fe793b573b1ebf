package stream

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidRange means the Range header is malformed or uses the
	// unsupported suffix form.
	ErrInvalidRange = errors.New("invalid range header")
	// ErrRangeNotSatisfiable means the requested start lies beyond the end
	// of the object. Maps to HTTP 416 at the boundary.
	ErrRangeNotSatisfiable = errors.New("range not satisfiable")
)

// RangeSpec is an inclusive byte interval [Start, End] within an object.
type RangeSpec struct {
	Start int64
	End   int64
}

// Length returns the number of bytes covered by the range.
func (r RangeSpec) Length() int64 {
	return r.End - r.Start + 1
}

// Clamp caps the range so that at most maxChunk bytes are covered. The start
// never moves; only the end is pulled in.
func (r RangeSpec) Clamp(maxChunk int64) RangeSpec {
	if maxChunk > 0 && r.Length() > maxChunk {
		r.End = r.Start + maxChunk - 1
	}
	return r
}

// ParseRange parses a client Range header of the form "bytes=<start>-[<end>]"
// against an object of the given size.
//
// Suffix ranges ("bytes=-500", last N bytes) are not supported and are
// rejected as ErrInvalidRange; no known client of this service issues them.
// Multi-range requests are likewise rejected.
func ParseRange(header string, size int64) (RangeSpec, error) {
	const prefix = "bytes="

	if !strings.HasPrefix(header, prefix) {
		return RangeSpec{}, fmt.Errorf("%w: %q", ErrInvalidRange, header)
	}

	spec := strings.TrimPrefix(header, prefix)
	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 || parts[0] == "" {
		return RangeSpec{}, fmt.Errorf("%w: %q", ErrInvalidRange, header)
	}

	start, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || start < 0 {
		return RangeSpec{}, fmt.Errorf("%w: %q", ErrInvalidRange, header)
	}
	if start >= size {
		return RangeSpec{}, fmt.Errorf("%w: start %d beyond size %d", ErrRangeNotSatisfiable, start, size)
	}

	end := size - 1
	if parts[1] != "" {
		end, err = strconv.ParseInt(parts[1], 10, 64)
		if err != nil || end < start {
			return RangeSpec{}, fmt.Errorf("%w: %q", ErrInvalidRange, header)
		}
		if end > size-1 {
			end = size - 1
		}
	}

	return RangeSpec{Start: start, End: end}, nil
}
