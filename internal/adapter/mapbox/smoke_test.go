//go:build mapbox

package mapbox

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/couchcryptid/metar-etl/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the real Mapbox API and require a valid MAPBOX_TOKEN env var.
// Run with: go test -tags=mapbox ./internal/adapter/mapbox/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	token := os.Getenv("MAPBOX_TOKEN")
	if token == "" {
		t.Fatal("MAPBOX_TOKEN must be set to run smoke tests")
	}
	return NewClient(token, 10*time.Second, observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSmoke_LocateStation(t *testing.T) {
	c := smokeClient(t)

	loc, err := c.LocateStation(context.Background(), "KJFK")
	require.NoError(t, err)

	assert.InDelta(t, 40.64, loc.Lat, 0.2, "lat should be near JFK")
	assert.InDelta(t, -73.78, loc.Lon, 0.2, "lon should be near JFK")
	assert.NotEmpty(t, loc.Name)
}

func TestSmoke_LocateStation_Unknown(t *testing.T) {
	c := smokeClient(t)

	// Fuzzy matching may still return something; only the absence of an error is checked.
	_, err := c.LocateStation(context.Background(), "QQQQ")
	require.NoError(t, err)
}

func TestSmoke_CachedLocator(t *testing.T) {
	c := smokeClient(t)
	cached := NewCachedLocator(c, 10, observability.NewMetricsForTesting())

	l1, err := cached.LocateStation(context.Background(), "EGLL")
	require.NoError(t, err)

	l2, err := cached.LocateStation(context.Background(), "EGLL")
	require.NoError(t, err)
	assert.Equal(t, l1, l2)
}
