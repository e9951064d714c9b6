package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/UnknownOlympus/pinpoint/internal/models"
	"googlemaps.github.io/maps"
)

// GoogleProvider is a struct that holds the client for Google Maps API
// and a logger for logging purposes. It is used to interact with the
// Google Maps geocoding services.
type GoogleProvider struct {
	client GoogleAPIClient // client is the Google Maps API client
	region Region          // region restricts results to the operating area
	log    *slog.Logger    // log is the logger for logging operations
}

type GoogleAPIClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// ErrGoogleEmptyResponse is returned when the Google Maps API responds with an empty result.
var ErrGoogleEmptyResponse = errors.New("get empty response from Google Maps API")

// NewGoogleProvider initializes a new GoogleProvider with the given API client, region and logger.
func NewGoogleProvider(client GoogleAPIClient, region Region, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{client: client, region: region, log: log}
}

// Query geocodes the normalized address with the Google Maps Geocoding API and returns
// every result as a candidate. The country and ZIP go into component filters, the
// region box (when set) biases the search.
func (gp *GoogleProvider) Query(
	ctx context.Context,
	addr models.NormalizedAddress,
	qc QueryContext,
) ([]models.Candidate, error) {
	if addr.Empty() {
		return nil, ErrEmptyAddress
	}

	gp.log.DebugContext(ctx, "Geocoding using Google Maps", "address", addr.Query, "job", qc.JobID)

	zip := zipFor(addr, qc)
	req := gp.buildRequest(addr.Query, zip)

	geocodeResponse, err := gp.client.Geocode(ctx, req)
	if err != nil {
		if strings.Contains(err.Error(), "REQUEST_DENIED") {
			return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
		}
		return nil, fmt.Errorf("failed to geocode address: %w", err)
	}

	if len(geocodeResponse) == 0 {
		return nil, ErrGoogleEmptyResponse
	}

	candidates := make([]models.Candidate, 0, len(geocodeResponse))
	for _, res := range geocodeResponse {
		confidence, quality := googleConfidence(res, zip, gp.region.Country)
		candidates = append(candidates, models.Candidate{
			Lat:        res.Geometry.Location.Lat,
			Lng:        res.Geometry.Location.Lng,
			Provider:   models.ProviderGoogle,
			Quality:    quality,
			Confidence: confidence,
			Precision:  strings.ToUpper(res.Geometry.LocationType),
			RawRef:     res.PlaceID,
		})
	}

	return candidates, nil
}

func (gp *GoogleProvider) buildRequest(query, zip string) *maps.GeocodingRequest {
	req := &maps.GeocodingRequest{Address: query}

	components := map[maps.Component]string{}
	if gp.region.Country != "" {
		components[maps.ComponentCountry] = gp.region.Country
	}
	if len(zip) >= 5 {
		components[maps.ComponentPostalCode] = zip[:5]
	}
	if len(components) > 0 {
		req.Components = components
	}

	if box := gp.region.BBox; box != nil {
		req.Bounds = &maps.LatLngBounds{
			NorthEast: maps.LatLng{Lat: box.North, Lng: box.East},
			SouthWest: maps.LatLng{Lat: box.South, Lng: box.West},
		}
	}

	return req
}
