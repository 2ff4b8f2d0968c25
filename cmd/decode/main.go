// Command decode decodes METAR reports from files or stdin and prints the
// resulting observations. It runs the same decoder and enrichment as the
// pipeline, so its JSON output can be used as a test fixture.
//
// Usage:
//
//	go run ./cmd/decode -ref 2024-04-28T13:00:00Z data/mock/metars.txt
//	curl -s https://tgftp.nws.noaa.gov/data/observations/metar/stations/KJFK.TXT | tail -1 | go run ./cmd/decode -format text
//	go run ./cmd/decode -ref 2024-04-28T13:00:00Z -out data/mock/observations.json data/mock/metars.txt
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/couchcryptid/metar-etl/internal/domain"
	"github.com/couchcryptid/metar-etl/internal/metar"
	"github.com/jonboulle/clockwork"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

type options struct {
	ref    time.Time
	strict bool
	format string
	out    string
	files  []string
}

func parseFlags(args []string) (options, error) {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	ref := fs.String("ref", "", "reference instant (RFC 3339) for month and year; default is now plus the clock skew")
	skew := fs.Duration("skew", metar.DefaultClockSkew, "clock skew added to now when -ref is not set")
	strict := fs.Bool("strict", false, "reject reports with unrecognised trailing text")
	format := fs.String("format", "json", "output format: json or text")
	out := fs.String("out", "", "write all observations as one indented JSON array to this path")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	o := options{strict: *strict, format: *format, out: *out, files: fs.Args()}
	if o.format != "json" && o.format != "text" {
		return options{}, fmt.Errorf("invalid -format %q: must be json or text", o.format)
	}
	if *ref != "" {
		t, err := time.Parse(time.RFC3339, *ref)
		if err != nil {
			return options{}, fmt.Errorf("invalid -ref: %w", err)
		}
		o.ref = t.UTC()
	} else {
		o.ref = time.Now().UTC().Add(*skew)
	}
	return o, nil
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	o, err := parseFlags(args)
	if err != nil {
		return err
	}

	// Pin the enrichment clock to the reference so output is reproducible.
	domain.SetClock(clockwork.NewFakeClockAt(o.ref))
	defer domain.SetClock(nil)

	dec := metar.NewDecoder(metar.WithReferenceTime(o.ref), metar.WithStrict(o.strict))

	var all []domain.Observation
	emit := func(name string) func(metar.Result) error {
		return func(res metar.Result) error {
			obs := domain.EnrichObservation(domain.NewObservation(res.Report, res.Leftover))
			if o.out != "" {
				all = append(all, obs)
				return nil
			}
			return printObservation(stdout, o.format, name, res.Line, obs)
		}
	}

	if len(o.files) == 0 {
		if err := decodeInput(dec, stdin, "-", emit("-")); err != nil {
			return err
		}
	}
	for _, path := range o.files {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		err = decodeInput(dec, f, path, emit(path))
		_ = f.Close()
		if err != nil {
			return err
		}
	}

	if o.out == "" {
		return nil
	}
	if err := writeJSON(o.out, all); err != nil {
		return fmt.Errorf("writing observations: %w", err)
	}
	log.Printf("wrote %d observations to %s", len(all), o.out)
	printStats(os.Stderr, all)
	return nil
}

func decodeInput(dec *metar.Decoder, r io.Reader, name string, fn func(metar.Result) error) error {
	err := dec.Each(r, fn)
	var le *metar.LineError
	if errors.As(err, &le) {
		return fmt.Errorf("%s:%d: %w\n  %s\n  %s", name, le.Line, le.Err, le.Text, caret(le))
	}
	return err
}

// caret points at the offending byte of a failed line.
func caret(le *metar.LineError) string {
	var pe *metar.ParseError
	if !errors.As(le.Err, &pe) || pe.Offset > len(le.Text) {
		return ""
	}
	return strings.Repeat(" ", pe.Offset) + "^"
}

func printObservation(w io.Writer, format, name string, line int, obs domain.Observation) error {
	if format == "json" {
		data, err := json.Marshal(obs)
		if err != nil {
			return fmt.Errorf("marshal observation: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	}

	category := obs.FlightCategory
	if category == "" {
		category = "-"
	}
	_, err := fmt.Fprintf(w, "%s:%d\t%s\t%s\t%s\n",
		name, line, obs.ObservedAt.Format(time.RFC3339), category, obs.Report.String())
	if err == nil && obs.Leftover != "" {
		_, err = fmt.Fprintf(w, "\tleftover: %q\n", obs.Leftover)
	}
	return err
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(w io.Writer, all []domain.Observation) {
	categories := map[string]int{}
	leftovers := 0
	for _, obs := range all {
		c := obs.FlightCategory
		if c == "" {
			c = "unknown"
		}
		categories[c]++
		if obs.Leftover != "" {
			leftovers++
		}
	}

	keys := make([]string, 0, len(categories))
	for k := range categories {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintln(w, "flight categories:")
	for _, k := range keys {
		fmt.Fprintf(w, "  %-8s %d\n", k, categories[k])
	}
	fmt.Fprintf(w, "reports with leftover text: %d\n", leftovers)
}
