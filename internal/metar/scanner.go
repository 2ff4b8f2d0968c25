package metar

import "strconv"

// scanner is a cursor over a single report line. Decoders advance pos on
// success and leave it untouched on failure so ordered alternatives can be
// tried from the same position.
type scanner struct {
	src string
	pos int
}

func newScanner(src string) *scanner {
	return &scanner{src: src}
}

func (s *scanner) rest() string { return s.src[s.pos:] }

func (s *scanner) done() bool { return s.pos >= len(s.src) }

// attempt runs fn and rewinds the cursor if it fails.
func attempt[T any](s *scanner, fn decodeFunc[T]) (T, error) {
	mark := s.pos
	v, err := fn(s)
	if err != nil {
		s.pos = mark
	}
	return v, err
}

// maybe runs fn and reports whether it matched. A failure rewinds and is not an error.
func maybe[T any](s *scanner, fn decodeFunc[T]) (T, bool) {
	v, err := attempt(s, fn)
	return v, err == nil
}

// literal consumes tok if the input starts with it.
func (s *scanner) literal(tok string) bool {
	if len(s.src)-s.pos < len(tok) || s.src[s.pos:s.pos+len(tok)] != tok {
		return false
	}
	s.pos += len(tok)
	return true
}

// expect consumes tok or fails with a mismatch for field.
func (s *scanner) expect(field, tok string) error {
	if !s.literal(tok) {
		return s.mismatch(field, strconv.Quote(tok))
	}
	return nil
}

// digits consumes exactly n ASCII digits.
func (s *scanner) digits(field string, n int) (int, error) {
	if len(s.src)-s.pos < n {
		return 0, s.mismatch(field, strconv.Itoa(n)+" digits")
	}
	v := 0
	for i := 0; i < n; i++ {
		c := s.src[s.pos+i]
		if c < '0' || c > '9' {
			return 0, s.mismatch(field, strconv.Itoa(n)+" digits")
		}
		v = v*10 + int(c-'0')
	}
	s.pos += n
	return v, nil
}

// digitRun consumes between lo and hi ASCII digits, greedily.
func (s *scanner) digitRun(field string, lo, hi int) (int, error) {
	n := 0
	for n < hi && s.pos+n < len(s.src) && isDigit(s.src[s.pos+n]) {
		n++
	}
	if n < lo {
		return 0, s.mismatch(field, "at least "+strconv.Itoa(lo)+" digits")
	}
	return s.digits(field, n)
}

// alnumRun consumes one or more ASCII letters or digits.
func (s *scanner) alnumRun(field string) (string, error) {
	start := s.pos
	end := start
	for end < len(s.src) && isAlnum(s.src[end]) {
		end++
	}
	if end == start {
		return "", s.mismatch(field, "alphanumeric characters")
	}
	s.pos = end
	return s.src[start:end], nil
}

// oneOf consumes the first token in toks that matches.
func (s *scanner) oneOf(field string, toks ...string) (string, error) {
	for _, tok := range toks {
		if s.literal(tok) {
			return tok, nil
		}
	}
	return "", s.mismatch(field, "one of "+quoteAll(toks))
}

func (s *scanner) mismatch(field, expected string) error {
	return s.fail(field, expected, ErrMismatch, s.pos)
}

func (s *scanner) fail(field, expected string, kind error, at int) error {
	found := s.src[at:]
	if len(found) > 12 {
		found = found[:12]
	}
	return &ParseError{Field: field, Expected: expected, Found: found, Offset: at, Kind: kind}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlnum(c byte) bool {
	return isDigit(c) || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func quoteAll(toks []string) string {
	out := ""
	for i, t := range toks {
		if i > 0 {
			out += ", "
		}
		out += strconv.Quote(t)
	}
	return out
}
