package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Resolutions       *prometheus.CounterVec
	CacheLookups      *prometheus.CounterVec
	ProviderErrors    *prometheus.CounterVec
	RequestSeconds    *prometheus.HistogramVec
	ActiveWorkers     prometheus.Gauge
	RegeocodeOutcomes *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Resolutions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "pinpoint_resolutions_total",
			Help: "Total number of address resolutions by outcome.",
		}, []string{"outcome"}),
		CacheLookups: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "pinpoint_cache_lookups_total",
			Help: "Total number of geocode cache lookups by result.",
		}, []string{"result"}),
		ProviderErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "pinpoint_provider_errors_total",
			Help: "Total number of errors received from geocoding provider APIs.",
		}, []string{"provider"}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pinpoint_provider_request_duration_seconds",
			Help:    "Duration of requests to geocoding provider APIs.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		ActiveWorkers: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "pinpoint_active_workers",
			Help: "Current number of batch workers resolving addresses.",
		}),
		RegeocodeOutcomes: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "pinpoint_regeocode_items_total",
			Help: "Total number of re-geocoded addresses by status.",
		}, []string{"status"}),
	}
}
