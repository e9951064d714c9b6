package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/pinpoint/internal/models"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration settings for the pinpoint service.
//
// Fields:
// - Env: The current environment (local, development, production).
// - Port: The port of the operator HTTP server.
// - MetricsPort: The port of the health check and metrics server.
// - Workers: Default concurrency for batch resolution.
// - BBox: Service region; candidates outside it are penalized.
// - ConfidenceThreshold: Acceptance threshold for scans and re-geocoding.
// - Regeocode: Settings of the re-geocode maintenance run.
// - ResolveOrder: Provider order on the request path.
// - TargetCountry: Country code used to filter and penalize provider results.
// - Cache, ReportsDir, OverridesFile: Where state lives.
// - Database: Postgres settings, used by the postgres cache backend.
// - Providers: Credentials; a provider without one is disabled.
type Config struct {
	Env                 string
	Port                int
	MetricsPort         int
	Workers             int
	BBox                models.BBox
	ConfidenceThreshold float64
	Regeocode           RegeocodeConfig
	ResolveOrder        []string
	TargetCountry       string
	RateLimit           int
	Cache               CacheConfig
	ReportsDir          string
	OverridesFile       string
	Database            PostgresConfig
	Providers           ProviderKeys
}

// RegeocodeConfig configures the re-geocode maintenance run.
type RegeocodeConfig struct {
	Delay         time.Duration // pause between addresses
	AllowWrite    bool          // without it only dry runs are possible
	ProviderOrder []string
}

// CacheConfig selects the geocode cache backend.
type CacheConfig struct {
	Backend    string
	Dir        string
	Version    string
	SQLitePath string
	RedisURL   string
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string // Host is the database server address.
	Port     string // Port is the database server port.
	User     string // User is the database user.
	Password string // Password is the database user's password.
	Name     string // Name is the name of the database.
}

// ProviderKeys holds provider credentials.
type ProviderKeys struct {
	GoogleAPIKey       string
	MapboxToken        string
	OpenCageKey        string
	NominatimUserAgent string
	NominatimEnabled   bool
}

func defaults(v *viper.Viper) {
	v.SetDefault("PINPOINT_ENV", "production")
	v.SetDefault("PINPOINT_HTTP_PORT", "8080")
	v.SetDefault("PINPOINT_METRICS_PORT", "9090")
	v.SetDefault("PINPOINT_WORKERS", "8")
	v.SetDefault("PINPOINT_GEO_BBOX", "-74.5,40.2,-72.5,41.2")
	v.SetDefault("PINPOINT_CONFIDENCE_THRESHOLD", "0.8")
	v.SetDefault("PINPOINT_REGEOCODE_DELAY", "600ms")
	v.SetDefault("PINPOINT_REGEOCODE_ALLOW", "false")
	v.SetDefault("PINPOINT_PROVIDER_ORDER", "google,opencage,mapbox")
	v.SetDefault("PINPOINT_RESOLVE_ORDER", "google,mapbox,opencage,nominatim")
	v.SetDefault("PINPOINT_TARGET_COUNTRY", "US")
	v.SetDefault("PINPOINT_RATE_LIMIT", "5")
	v.SetDefault("PINPOINT_CACHE_BACKEND", "file")
	v.SetDefault("PINPOINT_CACHE_DIR", "cache")
	v.SetDefault("PINPOINT_CACHE_VERSION", "v2")
	v.SetDefault("PINPOINT_REPORTS_DIR", "reports")
	v.SetDefault("PINPOINT_OVERRIDES_FILE", "data/overrides.json")
	v.SetDefault("PINPOINT_SQLITE_PATH", "cache/geocode.db")
	v.SetDefault("PINPOINT_NOMINATIM_ENABLED", "true")
	v.SetDefault("DB_PORT", "5432")
}

// MustLoad reads .env (when present) and the environment, and returns a Config.
// It panics when a value cannot be parsed.
func MustLoad() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	defaults(v)

	port, err := strconv.Atoi(v.GetString("PINPOINT_HTTP_PORT"))
	if err != nil {
		panic("failed to parse port for http server from configuration")
	}

	metricsPort, err := strconv.Atoi(v.GetString("PINPOINT_METRICS_PORT"))
	if err != nil {
		panic("failed to parse port for monitoring server from configuration")
	}

	workers, err := strconv.Atoi(v.GetString("PINPOINT_WORKERS"))
	if err != nil || workers < 1 {
		panic("failed to parse workers from configuration, must be a positive integer")
	}

	bbox, err := models.ParseBBox(v.GetString("PINPOINT_GEO_BBOX"))
	if err != nil {
		panic("failed to parse bounding box from configuration, expected west,south,east,north")
	}

	threshold, err := strconv.ParseFloat(v.GetString("PINPOINT_CONFIDENCE_THRESHOLD"), 64)
	if err != nil || threshold < 0 || threshold > 1 {
		panic("failed to parse confidence threshold from configuration, must be between 0 and 1")
	}

	delay, err := time.ParseDuration(v.GetString("PINPOINT_REGEOCODE_DELAY"))
	if err != nil {
		panic("failed to parse regeocode delay from configuration")
	}

	allowWrite, err := strconv.ParseBool(v.GetString("PINPOINT_REGEOCODE_ALLOW"))
	if err != nil {
		panic("failed to parse regeocode write permission from configuration")
	}

	rateLimit, err := strconv.Atoi(v.GetString("PINPOINT_RATE_LIMIT"))
	if err != nil {
		panic("failed to parse provider rate limit from configuration")
	}

	nominatim, err := strconv.ParseBool(v.GetString("PINPOINT_NOMINATIM_ENABLED"))
	if err != nil {
		panic("failed to parse nominatim switch from configuration")
	}

	return &Config{
		Env:                 v.GetString("PINPOINT_ENV"),
		Port:                port,
		MetricsPort:         metricsPort,
		Workers:             workers,
		BBox:                bbox,
		ConfidenceThreshold: threshold,
		Regeocode: RegeocodeConfig{
			Delay:         delay,
			AllowWrite:    allowWrite,
			ProviderOrder: SplitList(v.GetString("PINPOINT_PROVIDER_ORDER")),
		},
		ResolveOrder:  SplitList(v.GetString("PINPOINT_RESOLVE_ORDER")),
		TargetCountry: strings.ToUpper(v.GetString("PINPOINT_TARGET_COUNTRY")),
		RateLimit:     rateLimit,
		Cache: CacheConfig{
			Backend:    strings.ToLower(v.GetString("PINPOINT_CACHE_BACKEND")),
			Dir:        v.GetString("PINPOINT_CACHE_DIR"),
			Version:    v.GetString("PINPOINT_CACHE_VERSION"),
			SQLitePath: v.GetString("PINPOINT_SQLITE_PATH"),
			RedisURL:   v.GetString("PINPOINT_REDIS_URL"),
		},
		ReportsDir:    v.GetString("PINPOINT_REPORTS_DIR"),
		OverridesFile: v.GetString("PINPOINT_OVERRIDES_FILE"),
		Database: PostgresConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USERNAME"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
		},
		Providers: ProviderKeys{
			GoogleAPIKey:       v.GetString("GOOGLE_MAPS_API_KEY"),
			MapboxToken:        v.GetString("MAPBOX_TOKEN"),
			OpenCageKey:        v.GetString("OPENCAGE_KEY"),
			NominatimUserAgent: v.GetString("NOMINATIM_USER_AGENT"),
			NominatimEnabled:   nominatim,
		},
	}
}

// SplitList parses a comma-separated list, dropping blanks and lowercasing names.
func SplitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.ToLower(strings.TrimSpace(item)); item != "" {
			items = append(items, item)
		}
	}

	return items
}
