package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/couchcryptid/metar-etl/internal/domain"
	"github.com/couchcryptid/metar-etl/internal/metar"
	"github.com/couchcryptid/metar-etl/internal/observability"
)

// MetarTransformer implements Transformer: it decodes the message as a
// METAR, derives the summary fields and, when a locator is configured,
// attaches the station position.
type MetarTransformer struct {
	decoder *metar.Decoder
	locator domain.StationLocator
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewTransformer creates a MetarTransformer. Pass a nil locator to disable
// station enrichment.
func NewTransformer(decoder *metar.Decoder, locator domain.StationLocator, logger *slog.Logger, metrics *observability.Metrics) *MetarTransformer {
	return &MetarTransformer{
		decoder: decoder,
		locator: locator,
		logger:  logger,
		metrics: metrics,
	}
}

func (t *MetarTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.Observation, error) {
	obs, err := domain.ParseRawEvent(raw, t.decoder)
	if err != nil {
		t.metrics.DecodeErrors.WithLabelValues(errorKind(err)).Inc()
		return domain.Observation{}, err
	}
	if obs.Leftover != "" {
		t.metrics.LeftoverReports.Inc()
		t.logger.Debug("report has unrecognised trailing text",
			"station", obs.Station,
			"leftover", obs.Leftover,
		)
	}

	obs = domain.EnrichObservation(obs)
	obs = domain.EnrichWithStation(ctx, obs, t.locator, t.logger)

	category := obs.FlightCategory
	if category == "" {
		category = "unknown"
	}
	t.metrics.FlightCategory.WithLabelValues(category).Inc()

	return obs, nil
}

// errorKind maps a decode failure to its metric label.
func errorKind(err error) string {
	switch {
	case errors.Is(err, metar.ErrMismatch):
		return "mismatch"
	case errors.Is(err, metar.ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, metar.ErrMalformedMissing):
		return "malformed_missing"
	case errors.Is(err, metar.ErrTrailingInput):
		return "trailing_input"
	case errors.Is(err, domain.ErrEmptyReport):
		return "empty"
	default:
		return "other"
	}
}
