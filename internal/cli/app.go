package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/UnknownOlympus/pinpoint/internal/config"
	"github.com/UnknownOlympus/pinpoint/internal/geocoding"
	"github.com/UnknownOlympus/pinpoint/internal/maintenance"
	"github.com/UnknownOlympus/pinpoint/internal/metrics"
	"github.com/UnknownOlympus/pinpoint/internal/ranking"
	"github.com/UnknownOlympus/pinpoint/internal/repository"
	"github.com/UnknownOlympus/pinpoint/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// app holds every component a command may need, built from one configuration.
type app struct {
	cfg        *config.Config
	log        *slog.Logger
	reg        *prometheus.Registry
	metrics    *metrics.Metrics
	registry   *geocoding.Registry
	store      repository.Store
	overrides  *repository.OverrideFile
	reports    *maintenance.ReportStore
	resolver   *service.Resolver
	scanner    *maintenance.Scanner
	regeocoder *maintenance.Regeocoder
	closeStore func()
}

func newApp(ctx context.Context, logOut io.Writer) (*app, error) {
	cfg := config.MustLoad()
	logger := setupLogger(cfg.Env, logOut)

	// Create a separate registry for metrics with exemplar
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	registry, err := geocoding.NewRegistryFromConfig(providerConfigs(cfg, logger), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create geocoding providers: %w", err)
	}
	logger.InfoContext(ctx, "Geocoding providers initialized", "providers", registry.Names())

	store, closeStore, err := repository.NewStore(ctx, repository.StoreConfig{
		Backend:    cfg.Cache.Backend,
		Dir:        cfg.Cache.Dir,
		Version:    cfg.Cache.Version,
		SQLitePath: cfg.Cache.SQLitePath,
		RedisURL:   cfg.Cache.RedisURL,
		Postgres: repository.PostgresConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			Name:     cfg.Database.Name,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open geocode cache: %w", err)
	}

	overrides := repository.NewOverrideFile(cfg.OverridesFile)
	reports := maintenance.NewReportStore(cfg.ReportsDir)
	policy := ranking.NewPolicy(cfg.BBox, cfg.ConfidenceThreshold)

	return &app{
		cfg:        cfg,
		log:        logger,
		reg:        reg,
		metrics:    appMetrics,
		registry:   registry,
		store:      store,
		overrides:  overrides,
		reports:    reports,
		resolver:   service.NewResolver(logger, registry, store, overrides, policy, cfg.ResolveOrder, appMetrics, cfg.Workers),
		scanner:    maintenance.NewScanner(logger, store, reports, cfg.BBox, cfg.ConfidenceThreshold),
		regeocoder: maintenance.NewRegeocoder(logger, store, registry, reports, policy, appMetrics),
		closeStore: closeStore,
	}, nil
}

func (a *app) close() {
	a.closeStore()
}

// providerConfigs lists every known provider; the registry skips the ones without credentials.
func providerConfigs(cfg *config.Config, logger *slog.Logger) []geocoding.ProviderConfig {
	region := geocoding.Region{Country: cfg.TargetCountry, BBox: &cfg.BBox}

	configs := []geocoding.ProviderConfig{
		{Type: geocoding.ProviderTypeGoogle, APIKey: cfg.Providers.GoogleAPIKey},
		{Type: geocoding.ProviderTypeMapbox, APIKey: cfg.Providers.MapboxToken},
		{Type: geocoding.ProviderTypeOpenCage, APIKey: cfg.Providers.OpenCageKey},
	}
	if cfg.Providers.NominatimEnabled {
		configs = append(configs, geocoding.ProviderConfig{
			Type:      geocoding.ProviderTypeNominatim,
			UserAgent: cfg.Providers.NominatimUserAgent,
		})
	}

	for i := range configs {
		configs[i].RateLimit = cfg.RateLimit
		configs[i].Region = region
		configs[i].Logger = logger
	}

	return configs
}
