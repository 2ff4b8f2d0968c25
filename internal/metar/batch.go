package metar

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// MaxLineLength is the longest line Each accepts. Longer lines fail with a
// *LineError wrapping bufio.ErrTooLong.
const MaxLineLength = 1 << 20

// Result is one decoded line of a batch.
type Result struct {
	Line     int    `json:"line"`
	Report   Report `json:"report"`
	Leftover string `json:"leftover,omitempty"`
}

// LineError locates a decode failure inside a multi-line batch.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

func (e *LineError) Unwrap() error { return e.Err }

// DecodeAll decodes every non-empty line of r in order. It stops at the
// first line that does not decode; trailing text on a line that does decode
// is kept as that line's Leftover (or rejected, if the decoder is strict).
func (d *Decoder) DecodeAll(r io.Reader) ([]Result, error) {
	var results []Result
	err := d.Each(r, func(res Result) error {
		results = append(results, res)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Each decodes r line by line and hands each result to fn. An error from
// fn stops the scan and is returned unchanged.
func (d *Decoder) Each(r io.Reader, fn func(Result) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineLength+1)
	ref := d.Reference()
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		report, leftover, err := d.DecodeAt(line, ref)
		if err != nil {
			return &LineError{Line: n, Text: line, Err: err}
		}
		if err := fn(Result{Line: n, Report: report, Leftover: leftover}); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return &LineError{Line: n + 1, Err: fmt.Errorf("line longer than %d bytes: %w", MaxLineLength, err)}
		}
		return fmt.Errorf("read reports: %w", err)
	}
	return nil
}

// DecodeAll decodes a batch with the default decoder.
func DecodeAll(r io.Reader) ([]Result, error) {
	return defaultDecoder.DecodeAll(r)
}
