package models

import "strings"

// Common precision vocabulary shared by every provider adapter.
const (
	QualityRooftop       = "rooftop"
	QualityAddress       = "address"
	QualityStreetAddress = "street_address"
	QualityHouse         = "house"
	QualityBuilding      = "building"
	QualityInterpolated  = "interpolated"
	QualityPartial       = "partial"
	QualityApproximate   = "approximate"
	QualityUnknown       = "unknown"
)

// PrecisionRooftop is the native precision tag that marks an exact building-level match.
const PrecisionRooftop = "ROOFTOP"

// Candidate is one provider's answer for one query.
type Candidate struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Provider    string  `json:"provider"`
	Quality     string  `json:"quality"`
	Confidence  float64 `json:"confidence"`
	Precision   string  `json:"precision,omitempty"` // native precision tag, e.g. Google location_type
	RawRef      string  `json:"rawRef,omitempty"`    // provider-side identifier of the result
	Adjusted    float64 `json:"adjusted"`
	OutOfBounds bool    `json:"outOfBounds"`
}

// Point drops the ranking annotations.
func (c Candidate) Point() Point {
	return Point{Lat: c.Lat, Lng: c.Lng, Provider: c.Provider, Quality: c.Quality, Confidence: c.Confidence}
}

// IsRooftop reports whether the provider's native precision is rooftop-equivalent.
func (c Candidate) IsRooftop() bool {
	return strings.EqualFold(c.Precision, PrecisionRooftop)
}
