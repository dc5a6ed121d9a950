package isochrone

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/config"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/logger"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/models"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/observability"
)

// Provider resolves the travel-time polygon around a point.
type Provider interface {
	Isochrone(ctx context.Context, origin models.Point, minutes int) (*models.Isochrone, error)
}

const defaultBaseURL = "https://api.mapbox.com/isochrone/v1/mapbox/driving"

// retryBaseDelay is doubled per attempt: 500ms, 1s, 2s.
const retryBaseDelay = 500 * time.Millisecond

// Client calls the Mapbox Isochrone API. Transient upstream failures (5xx and
// transport errors) are retried with exponential backoff up to the configured
// attempt cap; 4xx responses fail immediately since retrying cannot fix them.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	maxRetries int
	clock      clockwork.Clock
	metrics    *observability.Metrics
	log        *logger.Logger
}

// NewClient creates an isochrone client from the routing-service configuration.
func NewClient(cfg config.MapboxConfig, clock clockwork.Clock, metrics *observability.Metrics, log *logger.Logger) *Client {
	return &Client{
		token:      cfg.Token,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
		clock:      clock,
		metrics:    metrics,
		log:        log,
	}
}

// Isochrone fetches the driving-time polygon around origin for the given
// contour in minutes.
func (c *Client) Isochrone(ctx context.Context, origin models.Point, minutes int) (*models.Isochrone, error) {
	// Mapbox uses lon,lat order.
	u := fmt.Sprintf("%s/%.6f,%.6f", c.baseURL, origin.Lng, origin.Lat)
	params := url.Values{
		"contours_minutes": {fmt.Sprintf("%d", minutes)},
		"polygons":         {"true"},
		"access_token":     {c.token},
	}
	fullURL := u + "?" + params.Encode()

	started := c.clock.Now()
	body, err := c.fetchWithRetry(ctx, fullURL)
	c.metrics.IsochroneDuration.Observe(c.clock.Now().Sub(started).Seconds())
	if err != nil {
		c.metrics.IsochroneRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	c.metrics.IsochroneRequests.WithLabelValues("success").Inc()

	return parseIsochrone(body, minutes)
}

// fetchWithRetry performs the GET with bounded retries on transient failures.
func (c *Client) fetchWithRetry(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-c.clock.After(delay):
			}
		}

		body, retryable, err := c.fetchOnce(ctx, fullURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
		c.log.Warn("isochrone request failed, retrying", map[string]interface{}{
			"attempt": attempt + 1,
			"error":   err.Error(),
		})
	}
	return nil, fmt.Errorf("isochrone request failed after %d attempts: %w", c.maxRetries, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, fullURL string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("isochrone request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read isochrone response: %w", err)
	}

	if resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("routing service error: status %d: %s", resp.StatusCode, raw)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("routing service rejected request: status %d: %s", resp.StatusCode, raw)
	}
	return raw, false, nil
}

// parseIsochrone extracts the first contour polygon from the GeoJSON
// FeatureCollection and computes its area.
func parseIsochrone(body []byte, minutes int) (*models.Isochrone, error) {
	var fc struct {
		Features []struct {
			Geometry models.Polygon `json:"geometry"`
		} `json:"features"`
	}
	if err := json.Unmarshal(body, &fc); err != nil {
		return nil, fmt.Errorf("decode isochrone response: %w", err)
	}
	if len(fc.Features) == 0 {
		return nil, fmt.Errorf("isochrone response has no contours")
	}

	polygon := fc.Features[0].Geometry
	return &models.Isochrone{
		Polygon:      polygon,
		AreaSqKm:     polygon.AreaSqKm(),
		RangeMinutes: minutes,
	}, nil
}
