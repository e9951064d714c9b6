package geocoding_test

import (
	"log/slog"
	"testing"

	"github.com/UnknownOlympus/pinpoint/internal/geocoding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	logger := slog.Default()
	region := geocoding.Region{Country: "US"}

	t.Run("create Google provider successfully", func(t *testing.T) {
		config := geocoding.ProviderConfig{
			Type:      geocoding.ProviderTypeGoogle,
			APIKey:    "test-api-key",
			RateLimit: 10,
			Region:    region,
			Logger:    logger,
		}

		provider, err := geocoding.NewProvider(config)

		require.NoError(t, err)
		require.NotNil(t, provider)
		// Verify it's a GoogleProvider by type assertion
		_, ok := provider.(*geocoding.GoogleProvider)
		assert.True(t, ok, "expected provider to be *GoogleProvider")
	})

	t.Run("create Google provider without API key fails", func(t *testing.T) {
		config := geocoding.ProviderConfig{
			Type:      geocoding.ProviderTypeGoogle,
			APIKey:    "", // Empty API key
			RateLimit: 10,
			Logger:    logger,
		}

		provider, err := geocoding.NewProvider(config)

		require.Error(t, err)
		require.Nil(t, provider)
		require.ErrorIs(t, err, geocoding.ErrMissingCredential)
		assert.Contains(t, err.Error(), "API key is required for Google provider")
	})

	t.Run("create Google provider without rate limit", func(t *testing.T) {
		config := geocoding.ProviderConfig{
			Type:      geocoding.ProviderTypeGoogle,
			APIKey:    "test-api-key",
			RateLimit: 0, // No rate limit
			Logger:    logger,
		}

		provider, err := geocoding.NewProvider(config)

		require.NoError(t, err)
		require.NotNil(t, provider)
	})

	t.Run("create Mapbox provider successfully", func(t *testing.T) {
		provider, err := geocoding.NewProvider(geocoding.ProviderConfig{
			Type:   geocoding.ProviderTypeMapbox,
			APIKey: "pk.test",
			Logger: logger,
		})

		require.NoError(t, err)
		_, ok := provider.(*geocoding.MapboxProvider)
		assert.True(t, ok, "expected provider to be *MapboxProvider")
	})

	t.Run("create Mapbox provider without token fails", func(t *testing.T) {
		provider, err := geocoding.NewProvider(geocoding.ProviderConfig{
			Type:   geocoding.ProviderTypeMapbox,
			Logger: logger,
		})

		require.ErrorIs(t, err, geocoding.ErrMissingCredential)
		require.Nil(t, provider)
	})

	t.Run("create OpenCage provider successfully", func(t *testing.T) {
		provider, err := geocoding.NewProvider(geocoding.ProviderConfig{
			Type:      geocoding.ProviderTypeOpenCage,
			APIKey:    "oc-test",
			RateLimit: 1,
			Logger:    logger,
		})

		require.NoError(t, err)
		_, ok := provider.(*geocoding.OpenCageProvider)
		assert.True(t, ok, "expected provider to be *OpenCageProvider")
	})

	t.Run("create OpenCage provider without key fails", func(t *testing.T) {
		_, err := geocoding.NewProvider(geocoding.ProviderConfig{
			Type:   geocoding.ProviderTypeOpenCage,
			Logger: logger,
		})

		require.ErrorIs(t, err, geocoding.ErrMissingCredential)
	})

	t.Run("create Nominatim provider without API key", func(t *testing.T) {
		// Nominatim doesn't require an API key
		config := geocoding.ProviderConfig{
			Type:   geocoding.ProviderTypeNominatim,
			APIKey: "", // No API key needed
			Logger: logger,
		}

		provider, err := geocoding.NewProvider(config)

		require.NoError(t, err)
		require.NotNil(t, provider)
		_, ok := provider.(*geocoding.NominatimProvider)
		assert.True(t, ok, "expected provider to be *NominatimProvider")
	})

	t.Run("unsupported provider type", func(t *testing.T) {
		config := geocoding.ProviderConfig{
			Type:   geocoding.ProviderType("unsupported"),
			Logger: logger,
		}

		provider, err := geocoding.NewProvider(config)

		require.Error(t, err)
		require.Nil(t, provider)
		require.ErrorIs(t, err, geocoding.ErrUnknownProvider)
		assert.Contains(t, err.Error(), "unsupported provider type: unsupported")
	})

	t.Run("empty provider type", func(t *testing.T) {
		provider, err := geocoding.NewProvider(geocoding.ProviderConfig{Logger: logger})

		require.Error(t, err)
		require.Nil(t, provider)
		assert.Contains(t, err.Error(), "unsupported provider type")
	})
}

func TestNewRegistryFromConfig(t *testing.T) {
	logger := slog.Default()

	t.Run("providers without credentials are skipped", func(t *testing.T) {
		registry, err := geocoding.NewRegistryFromConfig([]geocoding.ProviderConfig{
			{Type: geocoding.ProviderTypeGoogle, APIKey: "key"},
			{Type: geocoding.ProviderTypeMapbox},
			{Type: geocoding.ProviderTypeOpenCage, APIKey: "key"},
			{Type: geocoding.ProviderTypeNominatim},
		}, logger)

		require.NoError(t, err)
		assert.Equal(t, []string{"google", "opencage", "nominatim"}, registry.Names())
		assert.False(t, registry.Enabled("mapbox"))
		assert.True(t, registry.LastResort("nominatim"))
		assert.False(t, registry.LastResort("google"))
	})

	t.Run("unknown provider type fails", func(t *testing.T) {
		_, err := geocoding.NewRegistryFromConfig([]geocoding.ProviderConfig{{Type: "bing"}}, logger)

		require.ErrorIs(t, err, geocoding.ErrUnknownProvider)
	})
}

func TestProviderType_Constants(t *testing.T) {
	// Verify that provider type constants are correctly defined
	assert.Equal(t, "google", string(geocoding.ProviderTypeGoogle))
	assert.Equal(t, "mapbox", string(geocoding.ProviderTypeMapbox))
	assert.Equal(t, "opencage", string(geocoding.ProviderTypeOpenCage))
	assert.Equal(t, "nominatim", string(geocoding.ProviderTypeNominatim))
}
