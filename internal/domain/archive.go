package domain

import (
	"context"
	"errors"
)

// ErrNotFound is returned by an ObservationArchive that holds nothing for a station.
var ErrNotFound = errors.New("observation not found")

// ObservationArchive serves previously loaded observations.
type ObservationArchive interface {
	Latest(ctx context.Context, station string) (Observation, error)
}
