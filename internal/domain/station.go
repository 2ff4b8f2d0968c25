package domain

import (
	"context"
	"log/slog"
)

// EnrichWithStation attempts to attach the reporting station's position.
// If locator is nil nothing changes; a lookup failure is logged and recorded
// in LocationSource, and the observation is still returned (graceful degradation).
func EnrichWithStation(ctx context.Context, obs Observation, locator StationLocator, logger *slog.Logger) Observation {
	if locator == nil || obs.Station == "" {
		return obs
	}

	loc, err := locator.LocateStation(ctx, obs.Station)
	if err != nil {
		logger.Warn("station lookup failed",
			"observation_id", obs.ID,
			"station", obs.Station,
			"error", err,
		)
		obs.LocationSource = "failed"
		return obs
	}
	if loc.Lat == 0 && loc.Lon == 0 {
		obs.LocationSource = "unknown"
		return obs
	}

	obs.Location = &loc
	obs.LocationSource = "mapbox"
	return obs
}
