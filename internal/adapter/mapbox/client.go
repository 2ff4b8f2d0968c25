package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/metar-etl/internal/domain"
	"github.com/couchcryptid/metar-etl/internal/observability"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"

// Mapbox allows 600 geocoding requests per minute on the default plan.
const (
	requestsPerSecond = 10
	requestBurst      = 10
)

// Client implements domain.StationLocator using the Mapbox Geocoding API.
// A station is looked up as a point of interest named "<ICAO> airport".
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Mapbox station locator.
func NewClient(token string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: defaultBaseURL,
		limiter: rate.NewLimiter(requestsPerSecond, requestBurst),
		metrics: metrics,
		logger:  logger,
	}
}

// LocateStation resolves an ICAO identifier to coordinates. A station
// Mapbox does not know yields a zero StationLocation and no error.
func (c *Client) LocateStation(ctx context.Context, icao string) (domain.StationLocation, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			c.metrics.StationLookups.WithLabelValues("error").Inc()
			return domain.StationLocation{}, fmt.Errorf("wait for rate limiter: %w", err)
		}
	}

	query := strings.ToUpper(icao) + " airport"
	u := fmt.Sprintf("%s/%s.json", c.baseURL, url.PathEscape(query))
	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
		"types":        {"poi"},
	}

	start := time.Now()
	loc, err := c.doRequest(ctx, u+"?"+params.Encode())
	c.metrics.StationAPIDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		c.metrics.StationLookups.WithLabelValues("error").Inc()
	case loc.Lat == 0 && loc.Lon == 0:
		c.metrics.StationLookups.WithLabelValues("empty").Inc()
		c.logger.Debug("station not found", "station", icao)
	default:
		c.metrics.StationLookups.WithLabelValues("success").Inc()
	}
	return loc, err
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.StationLocation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.StationLocation{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.StationLocation{}, fmt.Errorf("station lookup request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.StationLocation{}, fmt.Errorf("mapbox API error: status %d: %s", resp.StatusCode, body)
	}

	var mapboxResp response
	if err := json.NewDecoder(resp.Body).Decode(&mapboxResp); err != nil {
		return domain.StationLocation{}, fmt.Errorf("decode response: %w", err)
	}

	if len(mapboxResp.Features) == 0 {
		return domain.StationLocation{}, nil
	}

	f := mapboxResp.Features[0]
	loc := domain.StationLocation{
		Name:       f.Text,
		Confidence: f.Relevance,
	}
	if len(f.Center) == 2 {
		loc.Lon = f.Center[0]
		loc.Lat = f.Center[1]
	}
	return loc, nil
}

// Mapbox API response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	Center    []float64 `json:"center"` // [lon, lat]
	PlaceName string    `json:"place_name"`
	Text      string    `json:"text"`
	Relevance float64   `json:"relevance"`
}
