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

// OpenCageBaseURL -- OpenCage geocoding endpoint.
const OpenCageBaseURL = "https://api.opencagedata.com/geocode/v1/json"

// OpenCageProvider implements geocoding using the OpenCage Geocoding API.
type OpenCageProvider struct {
	client  HTTPClient
	baseURL string
	apiKey  string
	region  Region
	log     *slog.Logger
	limiter *rate.Limiter
}

// ErrOpenCageEmptyResponse is returned when OpenCage finds nothing for the query.
var ErrOpenCageEmptyResponse = errors.New("opencage API returned empty response")

type openCageResponse struct {
	Results []openCageResult `json:"results"`
	Status  struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"status"`
}

type openCageResult struct {
	Geometry struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"geometry"`
	Confidence float64 `json:"confidence"` // 0-10, 0 when unknown
	Formatted  string  `json:"formatted"`
	Components struct {
		Type        string `json:"_type"`
		CountryCode string `json:"country_code"`
	} `json:"components"`
}

// NewOpenCageProvider creates a new OpenCage geocoding provider.
func NewOpenCageProvider(apiKey string, rateLimit int, region Region, log *slog.Logger) *OpenCageProvider {
	const timeout = 10

	return &OpenCageProvider{
		client:  &http.Client{Timeout: timeout * time.Second},
		baseURL: OpenCageBaseURL,
		apiKey:  apiKey,
		region:  region,
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(rateLimit), rateLimit),
	}
}

// NewOpenCageProviderWithClient allows injecting custom HTTP client.
func NewOpenCageProviderWithClient(
	client HTTPClient,
	apiKey string,
	limiter *rate.Limiter,
	region Region,
	log *slog.Logger,
) *OpenCageProvider {
	return &OpenCageProvider{
		client:  client,
		baseURL: OpenCageBaseURL,
		apiKey:  apiKey,
		region:  region,
		log:     log,
		limiter: limiter,
	}
}

// Query converts address into candidates using the OpenCage API.
// OpenCage answers 402 when the daily quota is spent, which is treated like a bad key.
func (op *OpenCageProvider) Query(
	ctx context.Context,
	addr models.NormalizedAddress,
	qc QueryContext,
) ([]models.Candidate, error) {
	if err := op.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	op.log.DebugContext(ctx, "Geocoding using OpenCage", "address", addr.Query, "job", qc.JobID)

	if addr.Empty() {
		return nil, ErrEmptyAddress
	}

	reqURL, err := url.Parse(op.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	query := reqURL.Query()
	query.Set("q", addr.Query)
	query.Set("key", op.apiKey)
	query.Set("limit", "5")
	query.Set("no_annotations", "1")
	if op.region.Country != "" {
		query.Set("countrycode", strings.ToLower(op.region.Country))
	}
	if box := op.region.BBox; box != nil {
		query.Set("bounds", box.String())
	}
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := op.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute geocoding request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		// continue
	case http.StatusUnauthorized, http.StatusPaymentRequired, http.StatusForbidden:
		return nil, fmt.Errorf("%w: opencage returned status %d", ErrUnauthorized, resp.StatusCode)
	default:
		op.log.ErrorContext(ctx, "OpenCage API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("opencage API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result openCageResponse
	if err = json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode opencage response: %w", err)
	}

	if len(result.Results) == 0 {
		return nil, ErrOpenCageEmptyResponse
	}

	candidates := make([]models.Candidate, 0, len(result.Results))
	for _, r := range result.Results {
		confidence, quality := openCageConfidence(r, op.region.Country)
		candidates = append(candidates, models.Candidate{
			Lat:        r.Geometry.Lat,
			Lng:        r.Geometry.Lng,
			Provider:   models.ProviderOpenCage,
			Quality:    quality,
			Confidence: confidence,
			RawRef:     r.Formatted,
		})
	}

	return candidates, nil
}
