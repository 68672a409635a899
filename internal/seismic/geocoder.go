package seismic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/stwalsh4118/rackplan/internal/models"
	"golang.org/x/time/rate"
)

// ErrNoMatch is returned when the geocoder has no result for an address.
// It is not retried.
var ErrNoMatch = errors.New("address not found")

// Geocoder resolves a free-form address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*models.Coordinates, error)
}

// DefaultGeocoderURL is the public Nominatim search endpoint.
const DefaultGeocoderURL = "https://nominatim.openstreetmap.org/search"

// NominatimGeocoder wraps the OpenStreetMap Nominatim search API. Requests
// are rate limited to respect the public usage policy.
type NominatimGeocoder struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewNominatimGeocoder creates a geocoder. ratePerSec <= 0 disables limiting.
func NewNominatimGeocoder(baseURL, userAgent string, timeout time.Duration, ratePerSec float64) *NominatimGeocoder {
	if baseURL == "" {
		baseURL = DefaultGeocoderURL
	}
	limit := rate.Inf
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
	}
	return &NominatimGeocoder{
		baseURL:   baseURL,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(limit, 1),
	}
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode returns the best match for address.
func (g *NominatimGeocoder) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for geocoder rate limit: %w", err)
	}

	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "json")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned HTTP %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decoding geocoder response: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoMatch, address)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing latitude %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing longitude %q: %w", results[0].Lon, err)
	}

	return &models.Coordinates{
		Latitude:    lat,
		Longitude:   lon,
		DisplayName: results[0].DisplayName,
	}, nil
}
