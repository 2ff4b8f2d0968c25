package domain

import "context"

// StationLocator resolves an ICAO station identifier to a position.
type StationLocator interface {
	// LocateStation returns the station's position. A zero StationLocation
	// with a nil error means the provider had no match.
	LocateStation(ctx context.Context, icao string) (StationLocation, error)
}
