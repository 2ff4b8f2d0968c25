package metar

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// placeholder is the character a report uses to blank out a field it could not measure.
const placeholder = '/'

// Width fixes the number of characters a Field occupies on the wire.
type Width interface {
	width() int
}

// W2, W3 and W4 are the field widths used by the METAR grammar.
type (
	W2 struct{}
	W3 struct{}
	W4 struct{}
)

func (W2) width() int { return 2 }
func (W3) width() int { return 3 }
func (W4) width() int { return 4 }

// Field is a fixed-width report field that is either present or reported as
// missing with a run of W placeholder characters.
type Field[T comparable, W Width] struct {
	value   T
	present bool
}

// Present wraps a decoded value.
func Present[T comparable, W Width](v T) Field[T, W] {
	return Field[T, W]{value: v, present: true}
}

// Missing returns the placeholder form of a field.
func Missing[T comparable, W Width]() Field[T, W] {
	return Field[T, W]{}
}

// Value returns the decoded value and whether it was present.
func (f Field[T, W]) Value() (T, bool) { return f.value, f.present }

// Equal reports whether both fields are missing, or both hold the same value.
func (f Field[T, W]) Equal(o Field[T, W]) bool {
	return f.present == o.present && (!f.present || f.value == o.value)
}

// IsMissing reports whether the field was blanked out.
func (f Field[T, W]) IsMissing() bool { return !f.present }

// Width is the fixed wire width of the field.
func (f Field[T, W]) Width() int {
	var w W
	return w.width()
}

// String renders the field at its fixed width.
func (f Field[T, W]) String() string {
	n := f.Width()
	if !f.present {
		return strings.Repeat(string(placeholder), n)
	}
	switch v := any(f.value).(type) {
	case fmt.Stringer:
		return v.String()
	case int:
		return fmt.Sprintf("%0*d", n, v)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// MarshalJSON encodes a missing field as null.
func (f Field[T, W]) MarshalJSON() ([]byte, error) {
	if !f.present {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (f *Field[T, W]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = Missing[T, W]()
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Present[T, W](v)
	return nil
}

type decodeFunc[T any] func(*scanner) (T, error)

// optional builds a Field decoder: exactly W placeholders decode as missing,
// anything else is handed to inner. A short placeholder run that inner also
// rejects is reported as malformed rather than as a plain mismatch.
func optional[T comparable, W Width](field string, inner decodeFunc[T]) decodeFunc[Field[T, W]] {
	var w W
	n := w.width()
	blank := strings.Repeat(string(placeholder), n)
	return func(s *scanner) (Field[T, W], error) {
		if s.literal(blank) {
			return Missing[T, W](), nil
		}
		v, err := attempt(s, inner)
		if err != nil {
			if run := s.placeholderRun(); run > 0 && run < n {
				return Field[T, W]{}, s.fail(field, fmt.Sprintf("%d placeholder characters", n), ErrMalformedMissing, s.pos)
			}
			return Field[T, W]{}, err
		}
		return Present[T, W](v), nil
	}
}

func (s *scanner) placeholderRun() int {
	n := 0
	for s.pos+n < len(s.src) && s.src[s.pos+n] == placeholder {
		n++
	}
	return n
}
