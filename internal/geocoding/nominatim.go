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
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/pinpoint/internal/models"
	"golang.org/x/time/rate"
)

// NominatimBaseURL -- public OpenStreetMap Nominatim search endpoint.
const NominatimBaseURL = "https://nominatim.openstreetmap.org/search"

// DefaultNominatimUserAgent identifies the service to Nominatim, which requires it.
const DefaultNominatimUserAgent = "Pinpoint-Geocoder/1.0 (https://github.com/UnknownOlympus/pinpoint)"

// NominatimProvider implements the Provider interface using OpenStreetMap's Nominatim API.
// This is a free geocoding service with usage limits (1 request/second for fair use),
// so the resolver only asks it when no other provider produced a candidate.
type NominatimProvider struct {
	client  HTTPClient    // HTTP client for making requests
	baseURL string        // Base URL for the Nominatim API
	region  Region        // Country filter and view box
	log     *slog.Logger  // Logger for logging operations
	limiter *rate.Limiter // Fair-use limiter
	// userAgent is required by Nominatim usage policy
	userAgent string
}

// nominatimResponse represents one element of the JSON response from Nominatim API.
type nominatimResponse struct {
	Lat     string `json:"lat"`  // Latitude as string
	Lon     string `json:"lon"`  // Longitude as string
	Type    string `json:"type"` // house, building, residential, ...
	OSMType string `json:"osm_type"`
	OSMID   int64  `json:"osm_id"`
	Address struct {
		CountryCode string `json:"country_code"`
	} `json:"address"`
}

// Common errors for Nominatim provider.
var (
	ErrNominatimEmptyResponse = errors.New("nominatim API returned empty response")
	ErrNominatimInvalidCoords = errors.New("nominatim API returned invalid coordinates")
)

// NewNominatimProvider creates a new Nominatim geocoding provider.
// Uses the public Nominatim API endpoint by default.
func NewNominatimProvider(userAgent string, region Region, log *slog.Logger) *NominatimProvider {
	const timeout = 10
	return NewNominatimProviderWithClient(
		&http.Client{Timeout: timeout * time.Second},
		userAgent,
		rate.NewLimiter(rate.Every(time.Second), 1),
		region,
		log,
	)
}

// NewNominatimProviderWithClient creates a Nominatim provider with a custom HTTP client.
// Useful for testing with mocked HTTP clients.
func NewNominatimProviderWithClient(
	client HTTPClient,
	userAgent string,
	limiter *rate.Limiter,
	region Region,
	log *slog.Logger,
) *NominatimProvider {
	if userAgent == "" {
		userAgent = DefaultNominatimUserAgent
	}

	return &NominatimProvider{
		client:    client,
		baseURL:   NominatimBaseURL,
		region:    region,
		log:       log,
		limiter:   limiter,
		userAgent: userAgent,
	}
}

// Query converts an address to candidates using the Nominatim API.
// It respects Nominatim's usage policy by including a User-Agent header.
//
// Uses a fallback when the full address finds nothing:
// 1. Try the full query with house number
// 2. Try street and ZIP only, results are capped as partial matches
func (np *NominatimProvider) Query(
	ctx context.Context,
	addr models.NormalizedAddress,
	qc QueryContext,
) ([]models.Candidate, error) {
	np.log.DebugContext(ctx, "Geocoding using Nominatim", "address", addr.Query, "job", qc.JobID)

	if addr.Empty() {
		return nil, ErrEmptyAddress
	}

	addressVariations := np.generateAddressFallbacks(addr, zipFor(addr, qc))

	for idx, addrVariation := range addressVariations {
		results, err := np.querySingleAddress(ctx, addrVariation)
		if err == nil {
			if idx > 0 {
				np.log.InfoContext(ctx, "Geocoded using fallback address",
					"original", addr.Query,
					"fallback", addrVariation,
					"fallback_level", idx)
			}
			return np.toCandidates(ctx, results, idx > 0)
		}

		// If it's not an empty response error, return immediately (API error, invalid coords, etc.)
		if !errors.Is(err, ErrNominatimEmptyResponse) {
			return nil, err
		}

		np.log.DebugContext(ctx, "Address variation returned no results, trying fallback",
			"variation", addrVariation,
			"fallback_level", idx)
	}

	np.log.WarnContext(ctx, "All address fallbacks exhausted",
		"address", addr.Query,
		"variations_tried", len(addressVariations))

	return nil, ErrNominatimEmptyResponse
}

// generateAddressFallbacks creates a list of progressively simpler address variations.
func (np *NominatimProvider) generateAddressFallbacks(addr models.NormalizedAddress, zip string) []string {
	variations := []string{addr.Query}

	if addr.HouseNumber != "" && addr.Street != "" {
		fallback := strings.TrimSpace(addr.Street + " " + zip)
		if fallback != addr.Query {
			variations = append(variations, fallback)
		}
	}

	return variations
}

func (np *NominatimProvider) toCandidates(
	ctx context.Context,
	results []nominatimResponse,
	fallback bool,
) ([]models.Candidate, error) {
	candidates := make([]models.Candidate, 0, len(results))
	for _, r := range results {
		lat, err := strconv.ParseFloat(r.Lat, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid latitude: %s", ErrNominatimInvalidCoords, r.Lat)
		}
		lon, err := strconv.ParseFloat(r.Lon, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid longitude: %s", ErrNominatimInvalidCoords, r.Lon)
		}

		confidence, quality := nominatimConfidence(r, np.region.Country, fallback)
		candidates = append(candidates, models.Candidate{
			Lat:        lat,
			Lng:        lon,
			Provider:   models.ProviderNominatim,
			Quality:    quality,
			Confidence: confidence,
			RawRef:     fmt.Sprintf("%s/%d", r.OSMType, r.OSMID),
		})
	}

	np.log.DebugContext(ctx, "Nominatim found results", "count", len(candidates))

	return candidates, nil
}

// querySingleAddress performs a single geocoding request without fallback logic.
func (np *NominatimProvider) querySingleAddress(ctx context.Context, address string) ([]nominatimResponse, error) {
	if err := np.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	reqURL, err := url.Parse(np.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	query := reqURL.Query()
	query.Set("q", address)
	query.Set("format", "json")
	query.Set("limit", "5")
	query.Set("addressdetails", "1")
	if np.region.Country != "" {
		query.Set("countrycodes", strings.ToLower(np.region.Country))
	}
	if box := np.region.BBox; box != nil {
		query.Set("viewbox", box.String())
	}
	reqURL.RawQuery = query.Encode()

	np.log.DebugContext(ctx, "Nominatim request URL", "url", reqURL.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set required headers per Nominatim usage policy
	req.Header.Set("User-Agent", np.userAgent)
	req.Header.Set("Accept-Language", "en")

	resp, err := np.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		np.log.ErrorContext(ctx, "Nominatim API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("nominatim API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	np.log.DebugContext(ctx, "Nominatim raw response", "body", string(body))

	var results []nominatimResponse
	if err = json.Unmarshal(body, &results); err != nil {
		np.log.ErrorContext(ctx, "Failed to parse Nominatim response", "error", err, "body", string(body))
		return nil, fmt.Errorf("failed to decode nominatim response: %w", err)
	}

	if len(results) == 0 {
		return nil, ErrNominatimEmptyResponse
	}

	return results, nil
}
