package geocoding

import (
	"testing"

	"github.com/UnknownOlympus/pinpoint/internal/models"
	"github.com/stretchr/testify/assert"
	"googlemaps.github.io/maps"
)

func TestGoogleConfidence(t *testing.T) {
	tests := []struct {
		name        string
		res         maps.GeocodingResult
		zip         string
		wantConf    float64
		wantQuality string
	}{
		{
			name:        "rooftop",
			res:         maps.GeocodingResult{Geometry: maps.AddressGeometry{LocationType: "ROOFTOP"}},
			wantConf:    0.95,
			wantQuality: models.QualityRooftop,
		},
		{
			name:        "street address type counts as rooftop",
			res:         maps.GeocodingResult{Types: []string{"street_address"}},
			wantConf:    0.95,
			wantQuality: models.QualityRooftop,
		},
		{
			name:        "geometric center",
			res:         maps.GeocodingResult{Geometry: maps.AddressGeometry{LocationType: "GEOMETRIC_CENTER"}},
			wantConf:    0.7,
			wantQuality: models.QualityPartial,
		},
		{
			name: "street and postal bonuses",
			res: maps.GeocodingResult{
				Geometry: maps.AddressGeometry{LocationType: "RANGE_INTERPOLATED"},
				AddressComponents: []maps.AddressComponent{
					{Types: []string{"street_number"}},
					{Types: []string{"route"}},
					{LongName: "11221", Types: []string{"postal_code"}},
				},
			},
			zip:         "11221",
			wantConf:    0.88,
			wantQuality: models.QualityInterpolated,
		},
		{
			name: "postal mismatch gives no bonus",
			res: maps.GeocodingResult{
				Geometry:          maps.AddressGeometry{LocationType: "APPROXIMATE"},
				AddressComponents: []maps.AddressComponent{{LongName: "10001", Types: []string{"postal_code"}}},
			},
			zip:         "11221",
			wantConf:    0.6,
			wantQuality: models.QualityApproximate,
		},
		{
			name: "foreign country is capped",
			res: maps.GeocodingResult{
				Geometry:          maps.AddressGeometry{LocationType: "ROOFTOP"},
				AddressComponents: []maps.AddressComponent{{ShortName: "CA", Types: []string{"country"}}},
			},
			wantConf:    0.2,
			wantQuality: models.QualityRooftop,
		},
		{
			name:        "unknown location type",
			res:         maps.GeocodingResult{},
			wantConf:    0.6,
			wantQuality: models.QualityUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf, quality := googleConfidence(tt.res, tt.zip, "US")
			assert.InDelta(t, tt.wantConf, conf, 1e-9)
			assert.Equal(t, tt.wantQuality, quality)
		})
	}
}

func TestMapboxConfidence(t *testing.T) {
	f := mapboxFeature{PlaceType: []string{"poi"}, Relevance: 0.5}
	conf, quality := mapboxConfidence(f, "US")
	assert.InDelta(t, 0.5, conf, 1e-9)
	assert.Equal(t, "poi", quality)

	conf, quality = mapboxConfidence(mapboxFeature{PlaceType: []string{"address"}, Relevance: 0.85}, "US")
	assert.InDelta(t, 0.85, conf, 1e-9, "address features keep their relevance")
	assert.Equal(t, models.QualityAddress, quality)

	conf, quality = mapboxConfidence(mapboxFeature{}, "US")
	assert.InDelta(t, 0.0, conf, 1e-9)
	assert.Equal(t, models.QualityUnknown, quality)
}

func TestNominatimConfidence(t *testing.T) {
	r := nominatimResponse{Type: "building"}

	conf, quality := nominatimConfidence(r, "US", false)
	assert.InDelta(t, 0.85, conf, 1e-9)
	assert.Equal(t, models.QualityBuilding, quality)

	conf, quality = nominatimConfidence(r, "US", true)
	assert.InDelta(t, 0.5, conf, 1e-9)
	assert.Equal(t, models.QualityPartial, quality)
}

func TestCapForeign(t *testing.T) {
	assert.InDelta(t, 0.9, capForeign(0.9, "", "US"), 1e-9)
	assert.InDelta(t, 0.9, capForeign(0.9, "us", "US"), 1e-9)
	assert.InDelta(t, 0.9, capForeign(0.9, "ca", ""), 1e-9)
	assert.InDelta(t, 0.2, capForeign(0.9, "ca", "US"), 1e-9)
	assert.InDelta(t, 0.1, capForeign(0.1, "ca", "US"), 1e-9)
}
