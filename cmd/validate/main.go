// Command validate checks the METAR fixtures used by the test suites: every
// report decodes, re-encodes to its original text, and (when given) the
// observations JSON written by cmd/decode still matches what the decoder
// and enrichment produce today.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -reports data/mock/metars.txt \
//	  -observations data/mock/observations.json \
//	  -ref 2024-04-28T13:00:00Z
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/metar-etl/internal/domain"
	"github.com/couchcryptid/metar-etl/internal/metar"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jonboulle/clockwork"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	reports := flag.String("reports", "data/mock/metars.txt", "newline-separated METAR fixture")
	observations := flag.String("observations", "", "observations JSON written by cmd/decode -out (optional)")
	ref := flag.String("ref", "2024-04-28T13:00:00Z", "reference instant the fixtures were decoded against")
	flag.Parse()

	refTime, err := time.Parse(time.RFC3339, *ref)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -ref: %v\n", err)
		os.Exit(1)
	}

	if code := run(*reports, *observations, refTime.UTC()); code != 0 {
		os.Exit(code)
	}
}

func run(reportsPath, observationsPath string, ref time.Time) int {
	// Fixed clock matching cmd/decode for reproducible ProcessedAt.
	domain.SetClock(clockwork.NewFakeClockAt(ref))
	defer domain.SetClock(nil)

	fmt.Println("=== METAR Fixture Validation ===")
	fmt.Println()

	lines, err := loadLines(reportsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load reports: %v\n", err)
		return 1
	}

	dec := metar.NewDecoder(metar.WithReferenceTime(ref))
	decoded := make([]domain.Observation, 0, len(lines))

	phases := []*phase{
		validateDecode(dec, lines, &decoded),
		validateRoundTrip(dec, decoded),
		validateDerivedFields(decoded),
	}

	if observationsPath != "" {
		var fixture []domain.Observation
		if err := loadJSON(observationsPath, &fixture); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load observations: %v\n", err)
			return 1
		}
		phases = append(phases, validateFixture(decoded, fixture))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Reports: %d lines, %d decoded\n", len(lines), len(decoded))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

func loadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("no reports in %s", path)
	}
	return lines, nil
}

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// ── Phase 1: Decode ──
// Every fixture line decodes completely, with nothing left over.

func validateDecode(dec *metar.Decoder, lines []string, out *[]domain.Observation) *phase {
	p := &phase{name: "Decode"}
	for i, line := range lines {
		report, leftover, err := dec.Decode(line)
		if err != nil {
			p.errorf("line %d: %v", i+1, err)
			continue
		}
		if leftover != "" {
			p.errorf("line %d: unexpected leftover %q", i+1, leftover)
		}
		*out = append(*out, domain.EnrichObservation(domain.NewObservation(report, leftover)))
	}
	return p
}

// ── Phase 2: Round trip ──
// Re-encoding reproduces the report text, and decoding the encoding yields
// the same report.

func validateRoundTrip(dec *metar.Decoder, decoded []domain.Observation) *phase {
	p := &phase{name: "Round trip"}
	for _, obs := range decoded {
		encoded := obs.Report.String()
		if encoded != obs.Report.Raw {
			p.errorf("%s: re-encoded as %q, want %q", obs.Station, encoded, obs.Report.Raw)
			continue
		}
		again, _, err := dec.Decode(encoded)
		if err != nil {
			p.errorf("%s: re-decoding failed: %v", obs.Station, err)
			continue
		}
		if diff := cmp.Diff(jsonOf(obs.Report), jsonOf(again)); diff != "" {
			p.errorf("%s: re-decoded report differs (-first +second):\n%s", obs.Station, diff)
		}
	}
	return p
}

func jsonOf(r metar.Report) map[string]any {
	data, _ := json.Marshal(r)
	var m map[string]any
	_ = json.Unmarshal(data, &m)
	return m
}

// ── Phase 3: Derived fields ──
// Summary fields are internally consistent.

var categoryRank = map[string]int{"LIFR": 0, "IFR": 1, "MVFR": 2, "VFR": 3}

func validateDerivedFields(decoded []domain.Observation) *phase {
	p := &phase{name: "Derived fields"}
	seen := make(map[string]string, len(decoded))
	for _, obs := range decoded {
		if prev, ok := seen[obs.ID]; ok {
			p.errorf("%s: id %s already used by %s", obs.Station, obs.ID, prev)
		}
		seen[obs.ID] = obs.Station

		if obs.TimeBucket.After(obs.ObservedAt) || obs.ObservedAt.Sub(obs.TimeBucket) >= time.Hour {
			p.errorf("%s: time bucket %s does not contain %s", obs.Station, obs.TimeBucket, obs.ObservedAt)
		}
		if _, ok := categoryRank[obs.FlightCategory]; !ok && obs.VisibilitySM != nil {
			p.errorf("%s: visibility known but flight category %q", obs.Station, obs.FlightCategory)
		}
		if obs.CeilingFeet != nil && *obs.CeilingFeet < 500 && obs.FlightCategory != "LIFR" {
			p.errorf("%s: ceiling %d ft should be LIFR, got %s", obs.Station, *obs.CeilingFeet, obs.FlightCategory)
		}
		if obs.Report.Obscuration.CAVOK && obs.FlightCategory != "VFR" {
			p.errorf("%s: CAVOK should be VFR, got %s", obs.Station, obs.FlightCategory)
		}
		if obs.MaxWind != nil && obs.WindUnit == "" {
			p.errorf("%s: max wind without unit", obs.Station)
		}
	}
	return p
}

// ── Phase 4: Fixture ──
// The committed observations JSON matches a fresh decode.

func validateFixture(decoded, fixture []domain.Observation) *phase {
	p := &phase{name: "Observations fixture"}
	if len(decoded) != len(fixture) {
		p.errorf("count: decoded %d, fixture %d", len(decoded), len(fixture))
	}

	byID := make(map[string]domain.Observation, len(fixture))
	for _, obs := range fixture {
		byID[obs.ID] = obs
	}

	ignore := cmpopts.IgnoreFields(domain.Observation{}, "Report", "RawPayload", "ProcessedAt")
	for _, want := range decoded {
		got, ok := byID[want.ID]
		if !ok {
			p.errorf("%s: id %s missing from fixture", want.Station, want.ID)
			continue
		}
		if diff := cmp.Diff(want, got, ignore); diff != "" {
			p.errorf("%s: fixture differs (-decoded +fixture):\n%s", want.Station, diff)
		}
		if want.Report.String() != got.Report.String() {
			p.errorf("%s: fixture report %q, decoded %q", want.Station, got.Report.String(), want.Report.String())
		}
	}
	return p
}
