// Package httpapi exposes resolution and cache maintenance over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/UnknownOlympus/pinpoint/internal/maintenance"
	"github.com/UnknownOlympus/pinpoint/internal/models"
	"github.com/UnknownOlympus/pinpoint/internal/repository"
	"github.com/UnknownOlympus/pinpoint/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// MaxBatchSize bounds the number of addresses accepted by one batch request.
const MaxBatchSize = 1000

// Resolver resolves addresses to points.
type Resolver interface {
	Resolve(ctx context.Context, raw string, rc service.ResolveContext) *models.Point
	ResolveBatch(ctx context.Context, addresses []string, concurrency int, force bool) []*models.Point
}

// Scanner audits the cache.
type Scanner interface {
	Run(ctx context.Context, opts maintenance.ScanOptions) (*models.ScanReport, string, error)
	Filter(opts maintenance.ScanOptions) repository.Filter
}

// Regeocoder repairs flagged cache entries.
type Regeocoder interface {
	Run(ctx context.Context, opts maintenance.RegeocodeOptions) (*models.RegeocodeSummary, string, error)
}

// Overrides stores manual corrections.
type Overrides interface {
	Set(kind, key string, point models.Point) error
}

// Blocklist is the set of provider credentials rejected during this process lifetime.
type Blocklist interface {
	List() []string
	Since(id string) (time.Time, bool)
	Clear(ids ...string)
}

// RegeocodeDefaults fills re-geocode requests that leave fields out.
type RegeocodeDefaults struct {
	ProviderOrder []string
	Delay         time.Duration
	AllowWrite    bool // writes happen only when both this and the request allow them
}

// Handler serves the operator API.
type Handler struct {
	log        *slog.Logger
	resolver   Resolver
	store      repository.Store
	overrides  Overrides
	scanner    Scanner
	regeocoder Regeocoder
	blocklist  Blocklist
	defaults   RegeocodeDefaults
}

// New creates a new Handler.
func New(
	log *slog.Logger,
	resolver Resolver,
	store repository.Store,
	overrides Overrides,
	scanner Scanner,
	regeocoder Regeocoder,
	blocklist Blocklist,
	defaults RegeocodeDefaults,
) *Handler {
	return &Handler{
		log:        log,
		resolver:   resolver,
		store:      store,
		overrides:  overrides,
		scanner:    scanner,
		regeocoder: regeocoder,
		blocklist:  blocklist,
		defaults:   defaults,
	}
}

// Register registers the API routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	api := chi.NewRouter()
	api.Use(middleware.RequestID)
	api.Use(middleware.Recoverer)
	api.Use(requestLogger(h.log))

	api.Get("/resolve", h.handleResolve)
	api.Post("/resolve/batch", h.handleResolveBatch)

	api.Post("/maintenance/scan", h.handleScan)
	api.Post("/maintenance/regeocode", h.handleRegeocode)

	api.Get("/cache", h.handleGetCache)
	api.Delete("/cache", h.handleDeleteCache)
	api.Get("/cache/list", h.handleListCache)

	api.Put("/overrides", h.handleSetOverride)

	api.Get("/credentials/blocked", h.handleListBlocked)
	api.Delete("/credentials/blocked", h.handleClearBlocked)

	r.Mount("/", api)
}

// Error codes of the JSON error envelope.
const (
	codeBadRequest   = "bad_request"
	codeNotFound     = "not_found"
	codeInvalidSetup = "invalid_configuration"
	codeInternal     = "internal_error"
)

type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

func (h *Handler) writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.ErrorContext(ctx, "failed to write reply", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, status int, code, description string) {
	h.writeJSON(ctx, w, status, errorResponse{Error: code, Description: description})
}

// decodeBody decodes an optional JSON body into dst. An empty body leaves dst untouched.
func decodeBody(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}

	return err
}

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.DebugContext(r.Context(), "Request served",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()))
		})
	}
}
