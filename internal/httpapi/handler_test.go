package httpapi_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/Flaque/filet"
	"github.com/UnknownOlympus/pinpoint/internal/geocoding"
	"github.com/UnknownOlympus/pinpoint/internal/httpapi"
	"github.com/UnknownOlympus/pinpoint/internal/httpapi/mocks"
	"github.com/UnknownOlympus/pinpoint/internal/maintenance"
	"github.com/UnknownOlympus/pinpoint/internal/models"
	"github.com/UnknownOlympus/pinpoint/internal/repository"
	"github.com/UnknownOlympus/pinpoint/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type HandlerSuite struct {
	suite.Suite

	router     http.Handler
	resolver   *mocks.Resolver
	scanner    *mocks.Scanner
	regeocoder *mocks.Regeocoder
	store      *repository.MemoryStore
	overrides  *repository.OverrideFile
	blocklist  *geocoding.Blocklist
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	t := s.T()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.resolver = mocks.NewResolver(t)
	s.scanner = mocks.NewScanner(t)
	s.regeocoder = mocks.NewRegeocoder(t)
	s.store = repository.NewMemoryStore(logger)
	s.overrides = repository.NewOverrideFile(filepath.Join(filet.TmpDir(t, ""), "data", "overrides.json"))
	s.blocklist = geocoding.NewBlocklist()

	h := httpapi.New(logger, s.resolver, s.store, s.overrides, s.scanner, s.regeocoder, s.blocklist,
		httpapi.RegeocodeDefaults{
			ProviderOrder: []string{"google", "opencage", "mapbox"},
			Delay:         600 * time.Millisecond,
			AllowWrite:    true,
		})
	r := chi.NewRouter()
	h.Register(r)
	s.router = r
}

func (s *HandlerSuite) TearDownTest() {
	filet.CleanUp(s.T())
}

func (s *HandlerSuite) do(method, target string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	return rec
}

func (s *HandlerSuite) decode(rec *httptest.ResponseRecorder, dst any) {
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), dst))
}

func (s *HandlerSuite) assertError(rec *httptest.ResponseRecorder, status int, code string) {
	s.Equal(status, rec.Code)

	var body map[string]string
	s.decode(rec, &body)
	s.Equal(code, body["error"])
	s.NotEmpty(body["error_description"])
}

func (s *HandlerSuite) TestResolve() {
	point := &models.Point{Lat: 40.7, Lng: -73.9, Provider: "google", Quality: models.QualityRooftop, Confidence: 0.95}
	s.resolver.On("Resolve", mock.Anything, "12 Oak St Apt 3", service.ResolveContext{
		JobID:        "J-7",
		Zip:          "11221",
		ForceRefresh: true,
	}).Return(point).Once()

	rec := s.do(http.MethodGet, "/resolve?address=12+Oak+St+Apt+3&job_id=J-7&zip=11221&force=true", nil)

	s.Equal(http.StatusOK, rec.Code)
	var resp struct {
		Address string        `json:"address"`
		Point   *models.Point `json:"point"`
	}
	s.decode(rec, &resp)
	s.Equal("12 Oak St Apt 3", resp.Address)
	s.Equal(point, resp.Point)
}

func (s *HandlerSuite) TestResolve_NotFoundIsNullPoint() {
	s.resolver.On("Resolve", mock.Anything, "nowhere", service.ResolveContext{}).Return(nil).Once()

	rec := s.do(http.MethodGet, "/resolve?address=nowhere", nil)

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"address":"nowhere","point":null}`, rec.Body.String())
}

func (s *HandlerSuite) TestResolve_BadRequests() {
	s.assertError(s.do(http.MethodGet, "/resolve", nil), http.StatusBadRequest, "bad_request")
	s.assertError(s.do(http.MethodGet, "/resolve?address=x&force=maybe", nil), http.StatusBadRequest, "bad_request")
}

func (s *HandlerSuite) TestResolveBatch() {
	addresses := []string{"1 A St", "2 B St", "3 C St"}
	points := []*models.Point{{Lat: 1, Lng: 1, Provider: "google"}, nil, {Lat: 3, Lng: 3, Provider: "mapbox"}}
	s.resolver.On("ResolveBatch", mock.Anything, addresses, 4, false).Return(points).Once()

	rec := s.do(http.MethodPost, "/resolve/batch", map[string]any{"addresses": addresses, "concurrency": 4})

	s.Equal(http.StatusOK, rec.Code)
	var resp struct {
		Results []struct {
			Address string        `json:"address"`
			Point   *models.Point `json:"point"`
		} `json:"results"`
	}
	s.decode(rec, &resp)
	s.Require().Len(resp.Results, 3)
	for i, result := range resp.Results {
		s.Equal(addresses[i], result.Address)
		s.Equal(points[i], result.Point)
	}

	s.assertError(s.do(http.MethodPost, "/resolve/batch", map[string]any{}), http.StatusBadRequest, "bad_request")
}

func (s *HandlerSuite) TestScan() {
	report := &models.ScanReport{RunID: "scan-1", ConfidenceThreshold: 0.9}
	s.scanner.On("Run", mock.Anything, mock.MatchedBy(func(opts maintenance.ScanOptions) bool {
		return opts.BBox != nil && opts.BBox.West == -75 && opts.ConfidenceThreshold == 0.9
	})).Return(report, "reports/geocode-scan-x.json", nil).Once()

	rec := s.do(http.MethodPost, "/maintenance/scan", map[string]any{
		"bbox":                "-75,40,-72,42",
		"confidenceThreshold": 0.9,
	})

	s.Equal(http.StatusOK, rec.Code)
	s.Equal("reports/geocode-scan-x.json", rec.Header().Get("X-Report-Path"))
	var got models.ScanReport
	s.decode(rec, &got)
	s.Equal("scan-1", got.RunID)

	s.assertError(s.do(http.MethodPost, "/maintenance/scan", map[string]any{"bbox": "1,2,3"}),
		http.StatusBadRequest, "bad_request")
}

func (s *HandlerSuite) TestScan_EmptyBodyUsesDefaults() {
	s.scanner.On("Run", mock.Anything, maintenance.ScanOptions{}).
		Return(&models.ScanReport{RunID: "scan-2"}, "p", nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/maintenance/scan", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusOK, rec.Code)
}

func (s *HandlerSuite) TestRegeocode() {
	summary := &models.RegeocodeSummary{RunID: "run-1", Total: 2, Updated: 1, Suggested: 1}
	s.regeocoder.On("Run", mock.Anything, maintenance.RegeocodeOptions{
		ReportName:    "geocode-scan-x.json",
		ProviderOrder: []string{"google", "opencage", "mapbox"},
		AllowWrite:    true,
		Delay:         50 * time.Millisecond,
	}).Return(summary, "reports/regeocode-summary-x.json", nil).Once()

	rec := s.do(http.MethodPost, "/maintenance/regeocode", map[string]any{
		"report":     "geocode-scan-x.json",
		"allowWrite": true,
		"delayMs":    50,
	})

	s.Equal(http.StatusOK, rec.Code)
	s.Equal("reports/regeocode-summary-x.json", rec.Header().Get("X-Report-Path"))
	var got models.RegeocodeSummary
	s.decode(rec, &got)
	s.Equal(1, got.Updated)
}

func (s *HandlerSuite) TestRegeocode_ConfigurationErrors() {
	s.regeocoder.On("Run", mock.Anything, mock.MatchedBy(func(opts maintenance.RegeocodeOptions) bool {
		return !opts.AllowWrite && !opts.DryRun
	})).Return(nil, "", maintenance.ErrWriteNotAllowed).Once()
	s.regeocoder.On("Run", mock.Anything, mock.MatchedBy(func(opts maintenance.RegeocodeOptions) bool {
		return len(opts.ProviderOrder) == 1 && opts.ProviderOrder[0] == "here"
	})).Return(nil, "", maintenance.ErrProviderNotConfigured).Once()

	s.assertError(s.do(http.MethodPost, "/maintenance/regeocode", map[string]any{}),
		http.StatusUnprocessableEntity, "invalid_configuration")
	s.assertError(s.do(http.MethodPost, "/maintenance/regeocode", map[string]any{
		"providerOrder": []string{"here"},
		"dryRun":        true,
	}), http.StatusUnprocessableEntity, "invalid_configuration")
	s.assertError(s.do(http.MethodPost, "/maintenance/regeocode", map[string]any{"delayMs": -1}),
		http.StatusBadRequest, "bad_request")
}

func (s *HandlerSuite) TestRegeocode_ReportMustBeAFileName() {
	for _, name := range []string{
		"../../etc/passwd",
		"/var/lib/pinpoint/reports/geocode-scan-x.json",
		"reports/geocode-scan-x.json",
		"regeocode-summary-x.json",
		"geocode-scan-x.txt",
	} {
		s.assertError(s.do(http.MethodPost, "/maintenance/regeocode", map[string]any{
			"report": name,
			"dryRun": true,
		}), http.StatusBadRequest, "bad_request")
	}
	s.regeocoder.AssertNotCalled(s.T(), "Run", mock.Anything, mock.Anything)
}

func (s *HandlerSuite) TestRegeocode_NoReport() {
	s.regeocoder.On("Run", mock.Anything, mock.Anything).Return(nil, "", maintenance.ErrNoReport).Once()

	s.assertError(s.do(http.MethodPost, "/maintenance/regeocode", map[string]any{"dryRun": true}),
		http.StatusNotFound, "not_found")
}

func (s *HandlerSuite) TestCache() {
	ctx := s.T().Context()
	key := repository.CacheKey("12 Oak St 11221")
	s.Require().NoError(s.store.Put(ctx, key, &models.GeocodeRecord{
		Query:  "12 Oak St 11221",
		Chosen: &models.Point{Lat: 40.7, Lng: -73.9, Provider: "google", Confidence: 0.9},
	}))

	rec := s.do(http.MethodGet, "/cache?address=12+Oak+St+Apt+4+11221", nil)
	s.Equal(http.StatusOK, rec.Code)
	var entry struct {
		Key    string               `json:"key"`
		Record models.GeocodeRecord `json:"record"`
	}
	s.decode(rec, &entry)
	s.Equal(key, entry.Key, "unit tokens are stripped before the lookup")
	s.Equal("google", entry.Record.Chosen.Provider)

	rec = s.do(http.MethodDelete, "/cache?address=12+Oak+St+11221", nil)
	s.Equal(http.StatusNoContent, rec.Code)

	s.assertError(s.do(http.MethodGet, "/cache?address=12+Oak+St+11221", nil), http.StatusNotFound, "not_found")
	s.assertError(s.do(http.MethodGet, "/cache", nil), http.StatusBadRequest, "bad_request")
}

func (s *HandlerSuite) TestCacheList() {
	ctx := s.T().Context()
	s.Require().NoError(s.store.Put(ctx, "good", &models.GeocodeRecord{
		Query: "good", Chosen: &models.Point{Confidence: 0.95},
	}))
	s.Require().NoError(s.store.Put(ctx, "weak", &models.GeocodeRecord{
		Query: "weak", Chosen: &models.Point{Confidence: 0.5},
	}))

	var all struct {
		Entries []struct {
			Key string `json:"key"`
		} `json:"entries"`
	}
	rec := s.do(http.MethodGet, "/cache/list", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.decode(rec, &all)
	s.Len(all.Entries, 2)

	s.scanner.On("Filter", maintenance.ScanOptions{ConfidenceThreshold: 0.7}).
		Return(repository.Filter(func(e repository.Entry) bool {
			return e.Record.Chosen.Confidence < 0.7
		})).Once()

	var flagged struct {
		Entries []struct {
			Key string `json:"key"`
		} `json:"entries"`
	}
	rec = s.do(http.MethodGet, "/cache/list?flagged=true&threshold=0.7", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.decode(rec, &flagged)
	s.Require().Len(flagged.Entries, 1)
	s.Equal("weak", flagged.Entries[0].Key)

	s.assertError(s.do(http.MethodGet, "/cache/list?flagged=true&threshold=2", nil),
		http.StatusBadRequest, "bad_request")
}

func (s *HandlerSuite) TestSetOverride() {
	rec := s.do(http.MethodPut, "/overrides", map[string]any{"address": "12 Oak St Unit 5 11221", "lat": 40.1, "lng": -73.1})
	s.Equal(http.StatusOK, rec.Code)

	point, err := s.overrides.ByAddress(repository.CacheKey("12 Oak St 11221"))
	s.Require().NoError(err)
	s.Require().NotNil(point)
	s.Equal(models.OverridePoint(40.1, -73.1), *point)

	rec = s.do(http.MethodPut, "/overrides", map[string]any{"jobId": "J-9", "lat": 40.2, "lng": -73.2})
	s.Equal(http.StatusOK, rec.Code)
	point, err = s.overrides.ByJob("J-9")
	s.Require().NoError(err)
	s.Require().NotNil(point)
	s.InDelta(40.2, point.Lat, 1e-9)

	s.assertError(s.do(http.MethodPut, "/overrides", map[string]any{"jobId": "J-9", "address": "x", "lat": 1, "lng": 1}),
		http.StatusBadRequest, "bad_request")
	s.assertError(s.do(http.MethodPut, "/overrides", map[string]any{"jobId": "J-9", "lat": 1}),
		http.StatusBadRequest, "bad_request")
	s.assertError(s.do(http.MethodPut, "/overrides", map[string]any{"address": "  ", "lat": 1, "lng": 1}),
		http.StatusBadRequest, "bad_request")
}

func (s *HandlerSuite) TestBlockedCredentials() {
	s.blocklist.Mark("google")
	s.blocklist.Mark("mapbox")

	rec := s.do(http.MethodGet, "/credentials/blocked", nil)
	s.Equal(http.StatusOK, rec.Code)
	var blocked []struct {
		Provider  string    `json:"provider"`
		BlockedAt time.Time `json:"blockedAt"`
	}
	s.decode(rec, &blocked)
	s.Require().Len(blocked, 2)
	s.Equal("google", blocked[0].Provider)
	s.False(blocked[0].BlockedAt.IsZero())

	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, "/credentials/blocked?provider=google", nil).Code)
	s.Equal([]string{"mapbox"}, s.blocklist.List())

	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, "/credentials/blocked", nil).Code)
	s.Empty(s.blocklist.List())
}
