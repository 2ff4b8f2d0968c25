package metar

import (
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// Report is one fully decoded METAR. A Report only exists if every
// mandatory group decoded; there are no partial reports.
type Report struct {
	Station     string      `json:"station"`
	Timestamp   Timestamp   `json:"timestamp"`
	Auto        bool        `json:"auto,omitempty"`
	Wind        Wind        `json:"wind"`
	Obscuration Obscuration `json:"obscuration"`
	Temperature Temperature `json:"temperature"`
	Pressure    Pressure    `json:"pressure"`
	NoSig       bool        `json:"nosig,omitempty"`
	Remarks     *string     `json:"remarks,omitempty"`
	Raw         string      `json:"raw"`
}

// String re-encodes the report in wire form. Month and year are not part of it.
func (r Report) String() string {
	var b strings.Builder
	b.WriteString(r.Station)
	b.WriteString(" " + r.Timestamp.String())
	if r.Auto {
		b.WriteString(" AUTO")
	}
	b.WriteString(" " + r.Wind.String())
	b.WriteString(" " + r.Obscuration.String())
	b.WriteString(" " + r.Temperature.String())
	b.WriteString(" " + r.Pressure.String())
	if r.NoSig {
		b.WriteString(" NOSIG")
	}
	if r.Remarks != nil {
		b.WriteString(" RMK " + *r.Remarks)
	}
	return b.String()
}

// DefaultClockSkew is added to the clock when no reference time is given, so
// a report stamped a little ahead of a slow local clock still lands in the
// current month.
const DefaultClockSkew = time.Hour

// Decoder turns report lines into Reports. The zero value is not usable; use NewDecoder.
type Decoder struct {
	clock  clockwork.Clock
	skew   time.Duration
	ref    time.Time
	strict bool
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithClock sets the time source used when no explicit reference is given.
func WithClock(c clockwork.Clock) Option {
	return func(d *Decoder) { d.clock = c }
}

// WithClockSkew overrides DefaultClockSkew.
func WithClockSkew(skew time.Duration) Option {
	return func(d *Decoder) { d.skew = skew }
}

// WithReferenceTime pins the reference instant, ignoring the clock.
func WithReferenceTime(ref time.Time) Option {
	return func(d *Decoder) { d.ref = ref }
}

// WithStrict makes unconsumed trailing text a decode error instead of a leftover.
func WithStrict(strict bool) Option {
	return func(d *Decoder) { d.strict = strict }
}

// NewDecoder returns a Decoder that, by default, resolves timestamps against
// the real clock in UTC plus DefaultClockSkew and tolerates trailing text.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{
		clock: clockwork.NewRealClock(),
		skew:  DefaultClockSkew,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Strict reports whether trailing text is rejected.
func (d *Decoder) Strict() bool { return d.strict }

// Reference returns the instant timestamps are resolved against right now.
func (d *Decoder) Reference() time.Time {
	if !d.ref.IsZero() {
		return d.ref
	}
	return d.clock.Now().UTC().Add(d.skew)
}

// ReferenceFor returns the reference instant for a report received at
// received: the pinned reference if there is one, otherwise received in UTC
// plus the clock skew. A zero received falls back to Reference.
func (d *Decoder) ReferenceFor(received time.Time) time.Time {
	if !d.ref.IsZero() {
		return d.ref
	}
	if received.IsZero() {
		return d.Reference()
	}
	return received.UTC().Add(d.skew)
}

// Decode decodes one report line. It returns the report and whatever text
// follows the last group it recognised.
func (d *Decoder) Decode(line string) (Report, string, error) {
	return d.DecodeAt(line, d.Reference())
}

// DecodeAt decodes one report line against an explicit reference instant.
func (d *Decoder) DecodeAt(line string, ref time.Time) (Report, string, error) {
	s := newScanner(line)
	r, err := decodeReport(s, ref)
	if err != nil {
		return Report{}, "", err
	}
	leftover := s.rest()
	if d.strict && leftover != "" {
		return Report{}, "", s.fail("report", "end of report", ErrTrailingInput, s.pos)
	}
	return r, leftover, nil
}

var defaultDecoder = NewDecoder()

// Decode decodes a line with the default decoder.
func Decode(line string) (Report, string, error) {
	return defaultDecoder.Decode(line)
}

// DecodeAt decodes a line against ref with the default decoder.
func DecodeAt(line string, ref time.Time) (Report, string, error) {
	return defaultDecoder.DecodeAt(line, ref)
}

func decodeStation(s *scanner) (string, error) {
	start := s.pos
	for i := 0; i < 4; i++ {
		if s.done() || !isAlnum(s.src[s.pos]) {
			s.pos = start
			return "", s.mismatch("station", "4-character station identifier")
		}
		s.pos++
	}
	return s.src[start:s.pos], nil
}

func decodeReport(s *scanner, ref time.Time) (Report, error) {
	r := Report{Raw: s.src}
	var err error

	if r.Station, err = decodeStation(s); err != nil {
		return Report{}, err
	}
	if err = s.expect("separator", " "); err != nil {
		return Report{}, err
	}
	if r.Timestamp, err = decodeTimestamp(ref)(s); err != nil {
		return Report{}, err
	}
	r.Auto = s.literal(" AUTO")
	if err = s.expect("separator", " "); err != nil {
		return Report{}, err
	}
	if r.Wind, err = decodeWind(s); err != nil {
		return Report{}, err
	}
	if err = s.expect("separator", " "); err != nil {
		return Report{}, err
	}
	if r.Obscuration, err = decodeObscuration(s); err != nil {
		return Report{}, err
	}
	if err = s.expect("separator", " "); err != nil {
		return Report{}, err
	}
	if r.Temperature, err = decodeTemperature(s); err != nil {
		return Report{}, err
	}
	if err = s.expect("separator", " "); err != nil {
		return Report{}, err
	}
	if r.Pressure, err = decodePressure(s); err != nil {
		return Report{}, err
	}
	r.NoSig = s.literal(" NOSIG")
	if s.literal(" RMK ") {
		rest := s.rest()
		if i := strings.IndexAny(rest, "\r\n"); i >= 0 {
			rest = rest[:i]
		}
		s.pos += len(rest)
		r.Remarks = &rest
	}
	return r, nil
}
