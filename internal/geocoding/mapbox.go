package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/UnknownOlympus/pinpoint/internal/models"
	"golang.org/x/time/rate"
)

// MapboxBaseURL -- Mapbox forward geocoding endpoint.
const MapboxBaseURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"

// MapboxProvider implements geocoding using the Mapbox Geocoding API.
type MapboxProvider struct {
	client  HTTPClient    // HTTP client for making requests
	baseURL string        // Base URL for the Mapbox API
	token   string        // Access token with geocoding scope
	region  Region        // Country filter and bias box
	log     *slog.Logger  // Logger for logging operations
	limiter *rate.Limiter // Rate limiter
}

// Common errors for Mapbox provider.
var (
	ErrMapboxEmptyResponse = errors.New("mapbox API returned empty response")
	ErrMapboxInvalidCoords = errors.New("mapbox API returned invalid coordinates")
)

type mapboxResponse struct {
	Features []mapboxFeature `json:"features"`
}

type mapboxFeature struct {
	ID         string    `json:"id"`
	PlaceType  []string  `json:"place_type"`
	Relevance  float64   `json:"relevance"`
	Center     []float64 `json:"center"` // [lon, lat]
	Properties struct {
		Accuracy string `json:"accuracy"` // rooftop, parcel, point, interpolated, street
	} `json:"properties"`
	Context []struct {
		ID        string `json:"id"`
		ShortCode string `json:"short_code"`
	} `json:"context"`
}

// NewMapboxProvider creates a new Mapbox geocoding provider.
func NewMapboxProvider(token string, rateLimit int, region Region, log *slog.Logger) *MapboxProvider {
	const timeout = 10

	return &MapboxProvider{
		client: &http.Client{
			Timeout: timeout * time.Second,
		},
		baseURL: MapboxBaseURL,
		token:   token,
		region:  region,
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(rateLimit), rateLimit),
	}
}

// NewMapboxProviderWithClient allows injecting custom HTTP client.
func NewMapboxProviderWithClient(
	client HTTPClient,
	token string,
	limiter *rate.Limiter,
	region Region,
	log *slog.Logger,
) *MapboxProvider {
	return &MapboxProvider{
		client:  client,
		baseURL: MapboxBaseURL,
		token:   token,
		region:  region,
		log:     log,
		limiter: limiter,
	}
}

// Query converts address into candidates using the Mapbox API.
func (mp *MapboxProvider) Query(
	ctx context.Context,
	addr models.NormalizedAddress,
	qc QueryContext,
) ([]models.Candidate, error) {
	const (
		coordsListLength = 2
		resultLimit      = "5"
	)

	// Rate limit
	if err := mp.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	mp.log.DebugContext(ctx, "Geocoding using Mapbox", "address", addr.Query, "job", qc.JobID)

	if addr.Empty() {
		return nil, ErrEmptyAddress
	}

	reqURL, err := url.Parse(mp.baseURL + "/" + url.PathEscape(addr.Query) + ".json")
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	query := reqURL.Query()
	query.Set("access_token", mp.token)
	query.Set("limit", resultLimit)
	query.Set("types", "address")
	if mp.region.Country != "" {
		query.Set("country", strings.ToLower(mp.region.Country))
	}
	if box := mp.region.BBox; box != nil {
		query.Set("bbox", box.String())
	}
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := mp.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute geocoding request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// continue
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("%w: mapbox returned status %d", ErrUnauthorized, resp.StatusCode)
	default:
		body, _ := io.ReadAll(resp.Body)
		mp.log.ErrorContext(ctx, "Mapbox API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("mapbox API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	mp.log.DebugContext(ctx, "Mapbox raw response", "body", string(body))

	var result mapboxResponse
	if err = json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode mapbox response: %w", err)
	}

	if len(result.Features) == 0 {
		return nil, ErrMapboxEmptyResponse
	}

	candidates := make([]models.Candidate, 0, len(result.Features))
	for _, f := range result.Features {
		if len(f.Center) != coordsListLength {
			mp.log.WarnContext(ctx, "Skipping Mapbox feature without valid center", "id", f.ID)
			continue
		}

		confidence, quality := mapboxConfidence(f, mp.region.Country)
		candidates = append(candidates, models.Candidate{
			Lat:        f.Center[1],
			Lng:        f.Center[0],
			Provider:   models.ProviderMapbox,
			Quality:    quality,
			Confidence: confidence,
			Precision:  strings.ToUpper(f.Properties.Accuracy),
			RawRef:     f.ID,
		})
	}

	if len(candidates) == 0 {
		return nil, ErrMapboxInvalidCoords
	}

	return candidates, nil
}
