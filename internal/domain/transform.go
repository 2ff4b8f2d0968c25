package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/couchcryptid/metar-etl/internal/metar"
)

// ErrEmptyReport is returned for a message with no report text.
var ErrEmptyReport = errors.New("empty report")

// metersPerStatuteMile converts metric visibility for flight-category rules.
const metersPerStatuteMile = 1609.344

// ParseRawEvent decodes a RawEvent's value as one METAR line. The month and
// year of the observation come from the message timestamp, adjusted by the
// decoder's clock skew.
func ParseRawEvent(raw RawEvent, dec *metar.Decoder) (Observation, error) {
	line := strings.TrimSpace(string(raw.Value))
	if line == "" {
		return Observation{}, ErrEmptyReport
	}

	report, leftover, err := dec.DecodeAt(line, dec.ReferenceFor(raw.Timestamp))
	if err != nil {
		return Observation{}, fmt.Errorf("parse raw event: %w", err)
	}

	obs := NewObservation(report, leftover)
	obs.RawPayload = raw.Value
	return obs, nil
}

// NewObservation wraps an already decoded report. The ID is derived from the
// station, resolved time and report text.
func NewObservation(report metar.Report, leftover string) Observation {
	return Observation{
		ID:         generateID(report.Station, report.Timestamp.Time, report.Raw),
		Station:    report.Station,
		ObservedAt: report.Timestamp.UTC(),
		Report:     report,
		Leftover:   strings.TrimSpace(leftover),
	}
}

// generateID produces a deterministic ID from the station, the resolved
// observation time and the report text, so replaying a message yields the
// same ID and downstream inserts stay idempotent.
func generateID(station string, observed time.Time, line string) string {
	input := fmt.Sprintf("%s|%s|%s", station, observed.UTC().Format(time.RFC3339), line)
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:8])
	if station == "" {
		return short
	}
	return strings.ToLower(station) + "-" + short
}

// EnrichObservation derives the summary fields of an observation: hourly
// time bucket, ceiling, prevailing visibility, strongest wind and flight
// category.
func EnrichObservation(obs Observation) Observation {
	obs.TimeBucket = deriveTimeBucket(obs.ObservedAt)
	obs.CeilingFeet = deriveCeiling(obs.Report.Obscuration)
	obs.VisibilitySM = deriveVisibility(obs.Report.Obscuration)
	obs.MaxWind, obs.WindUnit = deriveMaxWind(obs.Report.Wind.Velocity)
	obs.FlightCategory = deriveFlightCategory(obs.CeilingFeet, obs.VisibilitySM, obs.Report.Obscuration.CAVOK)
	obs.ProcessedAt = clock.Now()
	return obs
}

// deriveTimeBucket truncates the observation time to the hour in UTC.
// Returns zero time if the input is zero.
func deriveTimeBucket(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return t.UTC().Truncate(time.Hour)
}

// deriveCeiling returns the height in feet of the lowest broken, overcast or
// vertical-visibility layer. Layers with a missing coverage or height are skipped.
func deriveCeiling(o metar.Obscuration) *int {
	var lowest *int
	for _, c := range o.Clouds {
		cov, ok := c.Coverage.Value()
		if !ok || !cov.IsCeiling() {
			continue
		}
		h, ok := c.Height.Value()
		if !ok {
			continue
		}
		ft := h.Feet()
		if lowest == nil || ft < *lowest {
			lowest = &ft
		}
	}
	return lowest
}

// deriveVisibility converts the prevailing visibility to statute miles.
// CAVOK counts as 10 miles; a bound such as P6SM or M1/4SM yields the bound.
func deriveVisibility(o metar.Obscuration) *float64 {
	if o.CAVOK {
		v := 10.0
		return &v
	}
	if o.Visibility == nil {
		return nil
	}
	if m := o.Visibility.Miles; m != nil {
		var v float64
		if m.Whole != nil {
			v = float64(*m.Whole)
		}
		if m.Fraction != nil && m.Fraction.Den != 0 {
			v += float64(m.Fraction.Num) / float64(m.Fraction.Den)
		}
		return &v
	}
	if o.Visibility.Meters != nil {
		meters, ok := o.Visibility.Meters.Value()
		if !ok {
			return nil
		}
		v := float64(meters) / metersPerStatuteMile
		return &v
	}
	return nil
}

// deriveMaxWind returns the gust, or the sustained speed without one, with its unit.
func deriveMaxWind(v metar.Velocity) (*int, string) {
	top, ok := v.MaxSpeed()
	if !ok {
		return nil, ""
	}
	return &top, v.Unit.String()
}

// deriveFlightCategory applies the FAA ceiling and visibility thresholds:
//   - LIFR: ceiling below 500 ft or visibility below 1 SM
//   - IFR: ceiling below 1000 ft or visibility below 3 SM
//   - MVFR: ceiling at most 3000 ft or visibility at most 5 SM
//   - VFR: otherwise
//
// Returns "" when visibility is unknown, since no category can be ruled out.
func deriveFlightCategory(ceiling *int, visibility *float64, cavok bool) string {
	if cavok {
		return "VFR"
	}
	if visibility == nil {
		return ""
	}
	ceil := -1
	if ceiling != nil {
		ceil = *ceiling
	}
	vis := *visibility

	switch {
	case (ceil >= 0 && ceil < 500) || vis < 1:
		return "LIFR"
	case (ceil >= 0 && ceil < 1000) || vis < 3:
		return "IFR"
	case (ceil >= 0 && ceil <= 3000) || vis <= 5:
		return "MVFR"
	default:
		return "VFR"
	}
}
