package metar

import (
	"errors"
	"fmt"
)

// Sentinel errors for each failure kind. A *ParseError unwraps to one of these.
var (
	ErrMismatch         = errors.New("token mismatch")
	ErrOutOfRange       = errors.New("value out of range")
	ErrMalformedMissing = errors.New("malformed missing-value placeholder")
	ErrTrailingInput    = errors.New("unconsumed trailing input")
)

// ParseError describes where and why a report failed to decode.
type ParseError struct {
	Field    string // field being decoded, e.g. "wind.velocity"
	Expected string // shape that was expected at Offset
	Found    string // text at Offset, truncated
	Offset   int    // byte offset into the report line
	Kind     error  // one of the sentinel errors above
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("decode %s at offset %d: %v: expected %s, found %q",
		e.Field, e.Offset, e.Kind, e.Expected, e.Found)
}

func (e *ParseError) Unwrap() error { return e.Kind }

// furthest picks the error that got further into the input. On a tie a
// specific failure in a (range, malformed placeholder) beats b; otherwise b
// wins, so a general expectation listed last is what the caller sees.
func furthest(a, b error) error {
	var pa, pb *ParseError
	if !errors.As(a, &pa) {
		return b
	}
	if !errors.As(b, &pb) {
		return a
	}
	if pa.Offset > pb.Offset {
		return a
	}
	if pa.Offset == pb.Offset && pa.Kind != ErrMismatch {
		return a
	}
	return b
}
