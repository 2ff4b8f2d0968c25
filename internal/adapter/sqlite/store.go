// Package sqlite archives decoded observations in a local SQLite database
// and serves the most recent observation per station.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/metar-etl/internal/domain"
	"github.com/couchcryptid/metar-etl/internal/metar"
	"github.com/couchcryptid/metar-etl/internal/observability"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS observations (
	id              TEXT PRIMARY KEY,
	station         TEXT NOT NULL,
	observed_at     TEXT NOT NULL,
	raw             TEXT NOT NULL,
	leftover        TEXT NOT NULL DEFAULT '',
	time_bucket     TEXT NOT NULL,
	ceiling_ft      INTEGER,
	visibility_sm   REAL,
	max_wind        INTEGER,
	wind_unit       TEXT NOT NULL DEFAULT '',
	flight_category TEXT NOT NULL DEFAULT '',
	lat             REAL,
	lon             REAL,
	location_name   TEXT NOT NULL DEFAULT '',
	location_source TEXT NOT NULL DEFAULT '',
	processed_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_observations_station_time ON observations (station, observed_at DESC);
`

// Store is a SQLite-backed observation archive.
// It implements pipeline.BatchLoader and domain.ObservationArchive.
type Store struct {
	db      *sql.DB
	logger  *slog.Logger
	metrics *observability.Metrics
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string, metrics *observability.Metrics, logger *slog.Logger) (*Store, error) {
	logger = logger.With("component", "sqlite", "path", path)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logger.Info("observation archive ready")
	return &Store{db: db, logger: logger, metrics: metrics}, nil
}

// LoadBatch inserts the observations in one transaction. Observations whose
// ID is already archived are skipped, so a redelivered batch is harmless.
func (s *Store) LoadBatch(ctx context.Context, observations []domain.Observation) error {
	if len(observations) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO observations (
			id, station, observed_at, raw, leftover, time_bucket,
			ceiling_ft, visibility_sm, max_wind, wind_unit, flight_category,
			lat, lon, location_name, location_source, processed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	var inserted, duplicates int
	for i := range observations {
		o := &observations[i]
		var lat, lon sql.NullFloat64
		var name string
		if o.Location != nil {
			lat = sql.NullFloat64{Float64: o.Location.Lat, Valid: true}
			lon = sql.NullFloat64{Float64: o.Location.Lon, Valid: true}
			name = o.Location.Name
		}
		res, err := stmt.ExecContext(ctx,
			o.ID,
			o.Station,
			o.ObservedAt.UTC().Format(time.RFC3339),
			o.Report.Raw,
			o.Leftover,
			o.TimeBucket.UTC().Format(time.RFC3339),
			nullInt(o.CeilingFeet),
			nullFloat(o.VisibilitySM),
			nullInt(o.MaxWind),
			o.WindUnit,
			o.FlightCategory,
			lat, lon, name,
			o.LocationSource,
			o.ProcessedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("failed to insert observation %s: %w", o.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			duplicates++
		} else {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit observations: %w", err)
	}

	s.metrics.ArchiveInserts.WithLabelValues("inserted").Add(float64(inserted))
	s.metrics.ArchiveInserts.WithLabelValues("duplicate").Add(float64(duplicates))
	s.logger.Debug("archived observations", "inserted", inserted, "duplicates", duplicates)
	return nil
}

// Latest returns the most recent observation archived for station, or
// domain.ErrNotFound. The
// report is re-decoded from the stored text against its own observation time.
func (s *Store) Latest(ctx context.Context, station string) (domain.Observation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, station, observed_at, raw, leftover, time_bucket,
		       ceiling_ft, visibility_sm, max_wind, wind_unit, flight_category,
		       lat, lon, location_name, location_source, processed_at
		FROM observations
		WHERE station = ?
		ORDER BY observed_at DESC
		LIMIT 1`, strings.ToUpper(station))

	var (
		o                          domain.Observation
		observedAt, bucket, procAt string
		ceiling, wind              sql.NullInt64
		vis, lat, lon              sql.NullFloat64
		name                       string
	)
	err := row.Scan(&o.ID, &o.Station, &observedAt, &o.RawPayload, &o.Leftover, &bucket,
		&ceiling, &vis, &wind, &o.WindUnit, &o.FlightCategory,
		&lat, &lon, &name, &o.LocationSource, &procAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Observation{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Observation{}, fmt.Errorf("failed to query latest observation: %w", err)
	}

	if o.ObservedAt, err = time.Parse(time.RFC3339, observedAt); err != nil {
		return domain.Observation{}, fmt.Errorf("failed to parse observed_at: %w", err)
	}
	o.TimeBucket, _ = time.Parse(time.RFC3339, bucket)
	o.ProcessedAt, _ = time.Parse(time.RFC3339Nano, procAt)

	// The report line is re-decoded with its own timestamp as the reference,
	// which resolves to the same month and year it was archived with.
	o.Report, _, err = metar.DecodeAt(string(o.RawPayload), o.ObservedAt)
	if err != nil {
		return domain.Observation{}, fmt.Errorf("failed to decode archived report %s: %w", o.ID, err)
	}

	if ceiling.Valid {
		v := int(ceiling.Int64)
		o.CeilingFeet = &v
	}
	if vis.Valid {
		o.VisibilitySM = &vis.Float64
	}
	if wind.Valid {
		v := int(wind.Int64)
		o.MaxWind = &v
	}
	if lat.Valid && lon.Valid {
		o.Location = &domain.StationLocation{Lat: lat.Float64, Lon: lon.Float64, Name: name}
	}
	return o, nil
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite not reachable: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
