package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Provider identifiers known to the resolver. The first four are live geocoding
// services; the remaining ones mark points that did not come from a provider.
const (
	ProviderGoogle    = "google"
	ProviderMapbox    = "mapbox"
	ProviderOpenCage  = "opencage"
	ProviderNominatim = "nominatim"
	ProviderOverride  = "override"
	ProviderKnown     = "known"
)

// Point is a resolved geographical coordinate together with where it came from.
type Point struct {
	Lat        float64 `json:"lat"`        // Latitude of the geographical point.
	Lng        float64 `json:"lng"`        // Longitude of the geographical point.
	Provider   string  `json:"provider"`   // Provider that produced the point.
	Quality    string  `json:"quality"`    // Common-vocabulary precision label.
	Confidence float64 `json:"confidence"` // Normalized confidence in [0,1].
}

// OverridePoint builds a manually corrected point.
func OverridePoint(lat, lng float64) Point {
	return Point{Lat: lat, Lng: lng, Provider: ProviderOverride, Quality: QualityRooftop, Confidence: 1.0}
}

// BBox is the rectangular operating region of the service.
type BBox struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

// ErrInvalidBBox is returned when a bounding box string cannot be parsed.
var ErrInvalidBBox = errors.New("invalid bounding box")

// ParseBBox parses a "west,south,east,north" string.
func ParseBBox(raw string) (BBox, error) {
	const parts = 4

	fields := strings.Split(raw, ",")
	if len(fields) != parts {
		return BBox{}, fmt.Errorf("%w: expected 4 comma-separated values, got %q", ErrInvalidBBox, raw)
	}

	values := make([]float64, parts)
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return BBox{}, fmt.Errorf("%w: %q: %w", ErrInvalidBBox, f, err)
		}
		values[i] = v
	}

	box := BBox{West: values[0], South: values[1], East: values[2], North: values[3]}
	if box.West > box.East || box.South > box.North {
		return BBox{}, fmt.Errorf("%w: west/south must not exceed east/north in %q", ErrInvalidBBox, raw)
	}

	return box, nil
}

// Contains reports whether the coordinate lies inside the box, edges included.
func (b BBox) Contains(lat, lng float64) bool {
	return lng >= b.West && lng <= b.East && lat >= b.South && lat <= b.North
}

// String renders the box in the same form ParseBBox accepts.
func (b BBox) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.West, b.South, b.East, b.North)
}
