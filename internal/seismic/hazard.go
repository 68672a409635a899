package seismic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stwalsh4118/rackplan/internal/models"
)

// HazardService returns design spectral parameters for a location.
type HazardService interface {
	Query(ctx context.Context, at models.Coordinates, rc models.RiskCategory, sc models.SiteClass) (*models.HazardValues, error)
}

// DefaultHazardURL is the USGS ASCE 7-22 design maps endpoint.
const DefaultHazardURL = "https://earthquake.usgs.gov/ws/designmaps/asce7-22.json"

// USGSClient wraps the USGS seismic design web service.
type USGSClient struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// NewUSGSClient creates a hazard-service client.
func NewUSGSClient(baseURL, userAgent string, timeout time.Duration) *USGSClient {
	if baseURL == "" {
		baseURL = DefaultHazardURL
	}
	return &USGSClient{
		baseURL:   baseURL,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type usgsResponse struct {
	Request struct {
		Status string `json:"status"`
	} `json:"request"`
	Response struct {
		Data struct {
			SS   *float64 `json:"ss"`
			S1   *float64 `json:"s1"`
			SDS  *float64 `json:"sds"`
			SD1  *float64 `json:"sd1"`
			SMS  *float64 `json:"sms"`
			SM1  *float64 `json:"sm1"`
			PGAM *float64 `json:"pgam"`
			SDC  string   `json:"sdc"`
		} `json:"data"`
	} `json:"response"`
}

// Query fetches SDS/SD1 and related values. Coordinates are rounded to four
// decimal places before the request.
func (c *USGSClient) Query(ctx context.Context, at models.Coordinates, rc models.RiskCategory, sc models.SiteClass) (*models.HazardValues, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", at.Latitude))
	q.Set("longitude", fmt.Sprintf("%.4f", at.Longitude))
	q.Set("riskCategory", string(rc))
	q.Set("siteClass", string(sc))
	q.Set("title", "rackplan")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hazard request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hazard service returned HTTP %d", resp.StatusCode)
	}

	var body usgsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding hazard response: %w", err)
	}
	if body.Request.Status != "success" {
		return nil, fmt.Errorf("hazard service status %q", body.Request.Status)
	}

	data := body.Response.Data
	if data.SDS == nil || data.SD1 == nil {
		return nil, fmt.Errorf("hazard response missing sds/sd1")
	}

	out := &models.HazardValues{
		SDS: *data.SDS,
		SD1: *data.SD1,
		SS:  deref(data.SS),
		S1:  deref(data.S1),
		SMS: deref(data.SMS),
		SM1: deref(data.SM1),
		PGA: deref(data.PGAM),
	}
	if data.SDC != "" {
		if sdc, err := models.ParseSDC(strings.TrimSpace(data.SDC)); err == nil {
			out.ReportedSDC = sdc
		}
	}
	return out, nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
