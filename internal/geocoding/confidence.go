package geocoding

import (
	"math"
	"slices"
	"strings"

	"github.com/UnknownOlympus/pinpoint/internal/models"
	"googlemaps.github.io/maps"
)

// This file is the only place that knows how each provider expresses precision.
// Every function maps a native signal onto confidence in [0,1] and a quality label
// from the common vocabulary.

// foreignCountryCap is the highest confidence a result outside the target country may keep.
const foreignCountryCap = 0.2

// Google reports an enumerated location_type.
var googleLocationType = map[string]struct {
	confidence float64
	quality    string
}{
	"RANGE_INTERPOLATED": {0.8, models.QualityInterpolated},
	"GEOMETRIC_CENTER":   {0.7, models.QualityPartial},
	"APPROXIMATE":        {0.6, models.QualityApproximate},
}

const (
	googleRooftopConfidence = 0.95
	googleDefaultConfidence = 0.6
	googleStreetMatchBonus  = 0.05
	googlePostalMatchBonus  = 0.03
)

func googleConfidence(res maps.GeocodingResult, zip, country string) (float64, string) {
	locType := strings.ToUpper(res.Geometry.LocationType)
	rooftop := locType == models.PrecisionRooftop || slices.Contains(res.Types, "street_address")

	confidence, quality := googleDefaultConfidence, models.QualityUnknown
	switch {
	case rooftop:
		confidence, quality = googleRooftopConfidence, models.QualityRooftop
	case googleLocationType[locType].quality != "":
		confidence, quality = googleLocationType[locType].confidence, googleLocationType[locType].quality
	}

	var hasNumber, hasRoute bool
	var postal, resultCountry string
	for _, comp := range res.AddressComponents {
		switch {
		case slices.Contains(comp.Types, "street_number"):
			hasNumber = true
		case slices.Contains(comp.Types, "route"):
			hasRoute = true
		case slices.Contains(comp.Types, "postal_code"):
			postal = comp.LongName
		case slices.Contains(comp.Types, "country"):
			resultCountry = comp.ShortName
		}
	}

	if hasNumber && hasRoute {
		confidence += googleStreetMatchBonus
	}
	if postal != "" && zip != "" && strings.HasPrefix(zip, postal) {
		confidence += googlePostalMatchBonus
	}

	return capForeign(math.Min(1, confidence), resultCountry, country), quality
}

// mapboxConfidence uses relevance as is. Address features get no floor: relevance
// already reflects how much of the query matched.
func mapboxConfidence(f mapboxFeature, country string) (float64, string) {
	confidence := f.Relevance
	isAddress := slices.Contains(f.PlaceType, "address")

	quality := models.QualityUnknown
	switch {
	case isAddress:
		quality = models.QualityAddress
	case len(f.PlaceType) > 0:
		quality = f.PlaceType[0]
	}

	var resultCountry string
	for _, c := range f.Context {
		if strings.HasPrefix(c.ID, "country.") {
			resultCountry = c.ShortCode
		}
	}

	return capForeign(math.Min(1, confidence), resultCountry, country), quality
}

const (
	openCageScale             = 10.0
	openCageDefaultConfidence = 0.7
	openCageBuildingBonus     = 0.1
)

func openCageConfidence(r openCageResult, country string) (float64, string) {
	confidence := openCageDefaultConfidence
	if r.Confidence > 0 {
		confidence = math.Min(1, r.Confidence/openCageScale)
	}

	quality := strings.ToLower(r.Components.Type)
	if quality == models.QualityHouse || quality == models.QualityBuilding {
		confidence = math.Min(1, confidence+openCageBuildingBonus)
	}
	if quality == "" {
		quality = models.QualityUnknown
	}

	return capForeign(confidence, r.Components.CountryCode, country), quality
}

const (
	nominatimBuildingConfidence = 0.85
	nominatimDefaultConfidence  = 0.6
	nominatimFallbackCap        = 0.5
)

func nominatimConfidence(r nominatimResponse, country string, fallback bool) (float64, string) {
	quality := strings.ToLower(r.Type)
	confidence := nominatimDefaultConfidence
	if quality == models.QualityHouse || quality == models.QualityBuilding {
		confidence = nominatimBuildingConfidence
	}
	if quality == "" {
		quality = models.QualityUnknown
	}

	if fallback {
		confidence = math.Min(confidence, nominatimFallbackCap)
		quality = models.QualityPartial
	}

	return capForeign(confidence, r.Address.CountryCode, country), quality
}

// capForeign penalizes results the provider placed in another country.
// An unknown result country is not penalized.
func capForeign(confidence float64, resultCountry, target string) float64 {
	if resultCountry == "" || target == "" || strings.EqualFold(resultCountry, target) {
		return confidence
	}

	return math.Min(confidence, foreignCountryCap)
}
