package places

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"snapspot/internal/geo"
	"snapspot/internal/logging"
	"snapspot/internal/metrics"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public Places API endpoint.
	DefaultBaseURL = "https://maps.googleapis.com/maps/api/place"

	DefaultRadiusMeters = 500
	DefaultMaxResults   = 10
	DefaultRateLimit    = 5.0

	maxResponseBytes = 4 << 20
)

// Query describes one nearby search.
type Query struct {
	Latitude     float64
	Longitude    float64
	RadiusMeters int
	Keyword      string
}

// Config configures a Client.
type Config struct {
	BaseURL      string
	APIKey       string
	RadiusMeters int
	Keyword      string
	MaxResults   int
	// RateLimit is requests per second; zero uses DefaultRateLimit and a
	// negative value disables throttling.
	RateLimit  float64
	HTTPClient *http.Client
}

// Client performs nearby searches.
type Client struct {
	baseURL    string
	apiKey     string
	radius     int
	keyword    string
	maxResults int
	limiter    *rate.Limiter
	client     *http.Client
}

// NewClient creates a client, filling defaults for zero fields.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RadiusMeters <= 0 {
		cfg.RadiusMeters = DefaultRadiusMeters
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}

	limit := rate.Inf
	burst := 0
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
		burst = int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		radius:     cfg.RadiusMeters,
		keyword:    cfg.Keyword,
		maxResults: cfg.MaxResults,
		limiter:    rate.NewLimiter(limit, burst),
		client:     cfg.HTTPClient,
	}
}

// Search returns places near q, ordered as the service ranked them. Zero
// fields in q fall back to the client's configured radius and keyword.
func (c *Client) Search(ctx context.Context, q Query) ([]geo.Place, error) {
	if q.RadiusMeters <= 0 {
		q.RadiusMeters = c.radius
	}
	if q.Keyword == "" {
		q.Keyword = c.keyword
	}

	if err := c.limiter.Wait(ctx); err != nil {
		metrics.PlaceSearchRequests.WithLabelValues("rate_limited").Inc()
		return nil, fmt.Errorf("place search throttled: %w", err)
	}

	start := time.Now()
	body, err := c.fetch(ctx, q)
	metrics.PlaceSearchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PlaceSearchRequests.WithLabelValues("error").Inc()
		return nil, err
	}

	places, err := c.parse(body, q)
	switch {
	case err != nil:
		metrics.PlaceSearchRequests.WithLabelValues("error").Inc()
	case len(places) == 0:
		metrics.PlaceSearchRequests.WithLabelValues("zero_results").Inc()
	default:
		metrics.PlaceSearchRequests.WithLabelValues("ok").Inc()
	}
	return places, err
}

func (c *Client) searchURL(q Query) string {
	params := url.Values{}
	params.Set("location", strconv.FormatFloat(q.Latitude, 'f', -1, 64)+","+strconv.FormatFloat(q.Longitude, 'f', -1, 64))
	params.Set("radius", strconv.Itoa(q.RadiusMeters))
	if q.Keyword != "" {
		params.Set("keyword", q.Keyword)
	}
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	return c.baseURL + "/nearbysearch/json?" + params.Encode()
}

func (c *Client) fetch(ctx context.Context, q Query) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL(q), nil)
	if err != nil {
		return nil, fmt.Errorf("build place search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", geo.ErrServiceUnavailable, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logging.Debug("Closing place search response: %v", cerr)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", geo.ErrServiceUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: HTTP %d", geo.ErrServiceUnavailable, resp.StatusCode)
	}
	return body, nil
}

func (c *Client) parse(body []byte, q Query) ([]geo.Place, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: malformed response", geo.ErrServiceUnavailable)
	}
	doc := gjson.ParseBytes(body)

	switch status := doc.Get("status").String(); status {
	case "OK":
	case "ZERO_RESULTS":
		return []geo.Place{}, nil
	default:
		msg := doc.Get("error_message").String()
		if msg == "" {
			msg = "no message"
		}
		return nil, fmt.Errorf("%w: status %q: %s", geo.ErrServiceUnavailable, status, msg)
	}

	results := doc.Get("results").Array()
	places := make([]geo.Place, 0, min(len(results), c.maxResults))
	for _, r := range results {
		if len(places) == c.maxResults {
			break
		}
		name := r.Get("name").String()
		if name == "" {
			continue
		}
		p := geo.Place{
			Name:      name,
			Address:   firstNonEmpty(r.Get("vicinity").String(), r.Get("formatted_address").String()),
			PlaceID:   r.Get("place_id").String(),
			Latitude:  r.Get("geometry.location.lat").Float(),
			Longitude: r.Get("geometry.location.lng").Float(),
		}
		if d := r.Get("distance"); d.Exists() {
			p.Distance = d.Float()
		} else {
			p.Distance = geo.Haversine(q.Latitude, q.Longitude, p.Latitude, p.Longitude)
		}
		places = append(places, p)
	}
	return places, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
