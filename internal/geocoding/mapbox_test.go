package geocoding_test

import (
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/UnknownOlympus/pinpoint/internal/geocoding"
	"github.com/UnknownOlympus/pinpoint/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestMapbox(client geocoding.HTTPClient) *geocoding.MapboxProvider {
	return geocoding.NewMapboxProviderWithClient(
		client,
		"pk.test",
		rate.NewLimiter(rate.Inf, 0),
		geocoding.Region{Country: "US"},
		slog.Default(),
	)
}

func TestMapboxProvider_Query(t *testing.T) {
	ctx := context.Background()

	t.Run("successful geocoding", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				assert.Equal(t, http.MethodGet, req.Method)
				assert.Contains(t, req.URL.Path, "/geocoding/v5/mapbox.places/")
				assert.Contains(t, req.URL.Path, ".json")
				assert.Equal(t, "pk.test", req.URL.Query().Get("access_token"))
				assert.Equal(t, "address", req.URL.Query().Get("types"))
				assert.Equal(t, "us", req.URL.Query().Get("country"))

				return jsonResponse(http.StatusOK, `{"features":[
					{"id":"address.1","place_type":["address"],"relevance":0.95,"center":[-73.9418,40.6872],
					 "properties":{"accuracy":"rooftop"},"context":[{"id":"country.1","short_code":"us"}]},
					{"id":"street.2","place_type":["street"],"relevance":0.7,"center":[-73.94,40.68],
					 "properties":{"accuracy":"street"}}
				]}`), nil
			},
		}

		candidates, err := newTestMapbox(mockClient).Query(ctx, brooklyn, geocoding.QueryContext{})

		require.NoError(t, err)
		require.Len(t, candidates, 2)

		assert.Equal(t, models.ProviderMapbox, candidates[0].Provider)
		assert.Equal(t, models.QualityAddress, candidates[0].Quality)
		assert.Equal(t, "ROOFTOP", candidates[0].Precision)
		assert.True(t, candidates[0].IsRooftop())
		assert.Equal(t, "address.1", candidates[0].RawRef)
		assert.InEpsilon(t, 40.6872, candidates[0].Lat, 0.0001, "center is [lon, lat]")
		assert.InEpsilon(t, -73.9418, candidates[0].Lng, 0.0001)
		assert.InDelta(t, 0.95, candidates[0].Confidence, 1e-9)

		assert.Equal(t, "street", candidates[1].Quality)
		assert.InDelta(t, 0.7, candidates[1].Confidence, 1e-9)
	})

	t.Run("foreign country is capped", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, `{"features":[
					{"id":"address.9","place_type":["address"],"relevance":1,"center":[-73.5,45.5],
					 "context":[{"id":"country.2","short_code":"ca"}]}]}`), nil
			},
		}

		candidates, err := newTestMapbox(mockClient).Query(ctx, brooklyn, geocoding.QueryContext{})

		require.NoError(t, err)
		assert.InDelta(t, 0.2, candidates[0].Confidence, 1e-9)
	})

	t.Run("unauthorized token", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusUnauthorized, `{"message":"Not Authorized - Invalid Token"}`), nil
			},
		}

		_, err := newTestMapbox(mockClient).Query(ctx, brooklyn, geocoding.QueryContext{})

		require.ErrorIs(t, err, geocoding.ErrUnauthorized)
	})

	t.Run("server error", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusInternalServerError, `oops`), nil
			},
		}

		_, err := newTestMapbox(mockClient).Query(ctx, brooklyn, geocoding.QueryContext{})

		require.Error(t, err)
		require.NotErrorIs(t, err, geocoding.ErrUnauthorized)
		assert.Contains(t, err.Error(), "mapbox API returned status 500")
	})

	t.Run("empty response", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, `{"features":[]}`), nil
			},
		}

		_, err := newTestMapbox(mockClient).Query(ctx, brooklyn, geocoding.QueryContext{})

		require.ErrorIs(t, err, geocoding.ErrMapboxEmptyResponse)
	})

	t.Run("features without center", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, `{"features":[{"id":"x","center":[1]}]}`), nil
			},
		}

		_, err := newTestMapbox(mockClient).Query(ctx, brooklyn, geocoding.QueryContext{})

		require.ErrorIs(t, err, geocoding.ErrMapboxInvalidCoords)
	})

	t.Run("invalid JSON response", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, `{`), nil
			},
		}

		_, err := newTestMapbox(mockClient).Query(ctx, brooklyn, geocoding.QueryContext{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode mapbox response")
	})
}
