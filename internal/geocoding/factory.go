package geocoding

import (
	"errors"
	"fmt"
	"log/slog"

	"googlemaps.github.io/maps"
)

// ProviderType represents the type of geocoding provider.
type ProviderType string

const (
	// ProviderTypeGoogle represents Google Maps geocoding provider.
	ProviderTypeGoogle ProviderType = "google"
	// ProviderTypeMapbox represents Mapbox geocoding provider.
	ProviderTypeMapbox ProviderType = "mapbox"
	// ProviderTypeOpenCage represents OpenCage geocoding provider.
	ProviderTypeOpenCage ProviderType = "opencage"
	// ProviderTypeNominatim represents OpenStreetMap Nominatim geocoding provider.
	ProviderTypeNominatim ProviderType = "nominatim"
)

// ProviderConfig holds configuration for creating a geocoding provider.
type ProviderConfig struct {
	Type      ProviderType // Type of provider to create
	APIKey    string       // API key or access token (Google, Mapbox, OpenCage)
	UserAgent string       // User-Agent sent to Nominatim
	RateLimit int          // Rate limit for requests per second
	Region    Region       // Target country and bias box
	Logger    *slog.Logger // Logger for the provider
}

// NewProvider creates a geocoding provider based on the provided configuration.
// It applies the Factory pattern to decouple provider instantiation from business logic.
//
// Supported provider types:
// - "google": Google Maps Geocoding API (requires API key)
// - "mapbox": Mapbox Geocoding API (requires access token)
// - "opencage": OpenCage Geocoding API (requires API key)
// - "nominatim": OpenStreetMap Nominatim API (free, no API key required)
//
// Returns an error wrapping ErrMissingCredential when a keyed provider has no key.
func NewProvider(config ProviderConfig) (Provider, error) {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	switch config.Type {
	case ProviderTypeGoogle:
		return newGoogleProvider(config)
	case ProviderTypeMapbox:
		return newMapboxProvider(config)
	case ProviderTypeOpenCage:
		return newOpenCageProvider(config)
	case ProviderTypeNominatim:
		return newNominatimProvider(config)
	default:
		return nil, fmt.Errorf("%w: unsupported provider type: %s", ErrUnknownProvider, config.Type)
	}
}

// newGoogleProvider creates a Google Maps geocoding provider.
func newGoogleProvider(config ProviderConfig) (Provider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: API key is required for Google provider", ErrMissingCredential)
	}

	// Create Google Maps client with API key and rate limiting
	clientOpts := []maps.ClientOption{
		maps.WithAPIKey(config.APIKey),
	}

	// Apply rate limiting if specified
	if config.RateLimit > 0 {
		clientOpts = append(clientOpts, maps.WithRateLimit(config.RateLimit))
	}

	client, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return NewGoogleProvider(client, config.Region, config.Logger), nil
}

// newMapboxProvider creates a Mapbox geocoding provider.
func newMapboxProvider(config ProviderConfig) (Provider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: access token is required for Mapbox provider", ErrMissingCredential)
	}

	config.RateLimit = defaultRateLimit(config, "Mapbox")

	return NewMapboxProvider(config.APIKey, config.RateLimit, config.Region, config.Logger), nil
}

// newOpenCageProvider creates an OpenCage geocoding provider.
func newOpenCageProvider(config ProviderConfig) (Provider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: API key is required for OpenCage provider", ErrMissingCredential)
	}

	config.RateLimit = defaultRateLimit(config, "OpenCage")

	return NewOpenCageProvider(config.APIKey, config.RateLimit, config.Region, config.Logger), nil
}

// newNominatimProvider creates a Nominatim geocoding provider.
func newNominatimProvider(config ProviderConfig) (Provider, error) {
	// Nominatim is free and doesn't require an API key
	return NewNominatimProvider(config.UserAgent, config.Region, config.Logger), nil
}

func defaultRateLimit(config ProviderConfig, name string) int {
	const fallback = 5

	if config.RateLimit > 0 {
		return config.RateLimit
	}

	config.Logger.Warn("Rate limit for "+name+" API not set, set a default value", "value", fallback)

	return fallback
}

// NewRegistryFromConfig builds a registry holding every provider that could be created.
// A provider without a credential is skipped, not an error: absence of a key disables it.
// Nominatim is registered as a last resort.
func NewRegistryFromConfig(configs []ProviderConfig, log *slog.Logger) (*Registry, error) {
	registry := NewRegistry(log)

	for _, cfg := range configs {
		if cfg.Logger == nil {
			cfg.Logger = log
		}

		provider, err := NewProvider(cfg)
		if errors.Is(err, ErrMissingCredential) {
			log.Info("Geocoding provider disabled, no credential configured", "provider", cfg.Type)
			continue
		}
		if err != nil {
			return nil, err
		}

		registry.Register(string(cfg.Type), provider, cfg.Type == ProviderTypeNominatim)
	}

	return registry, nil
}
