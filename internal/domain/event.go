package domain

import (
	"context"
	"time"

	"github.com/couchcryptid/metar-etl/internal/metar"
)

// RawEvent represents an unprocessed message from the source topic. Its
// Value is one METAR line as published by the collector.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// StationLocation is where a reporting station sits, as resolved by a StationLocator.
type StationLocation struct {
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Name       string  `json:"name,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Observation is a decoded METAR plus the fields derived from it.
type Observation struct {
	ID         string       `json:"id"`
	Station    string       `json:"station"`
	ObservedAt time.Time    `json:"observed_at"`
	Report     metar.Report `json:"report"`
	Leftover   string       `json:"leftover,omitempty"`

	TimeBucket     time.Time `json:"time_bucket"`
	CeilingFeet    *int      `json:"ceiling_ft,omitempty"`
	VisibilitySM   *float64  `json:"visibility_sm,omitempty"`
	MaxWind        *int      `json:"max_wind,omitempty"`
	WindUnit       string    `json:"wind_unit,omitempty"`
	FlightCategory string    `json:"flight_category,omitempty"` // "VFR", "MVFR", "IFR", "LIFR" or empty when unknown

	// Station enrichment fields.
	Location       *StationLocation `json:"location,omitempty"`
	LocationSource string           `json:"location_source,omitempty"` // "mapbox", "unknown", "failed"

	RawPayload  []byte    `json:"-"`
	ProcessedAt time.Time `json:"processed_at"`
}
