package geocoding

import (
	"context"
	"errors"
	"net/http"

	"github.com/UnknownOlympus/pinpoint/internal/models"
)

// Provider is an interface that defines a method for querying one geocoding service.
// Query takes a normalized address and optional request context and returns every
// usable result the service produced, already mapped onto the common confidence scale.
// Implementations must not retry.
type Provider interface {
	Query(ctx context.Context, addr models.NormalizedAddress, qc QueryContext) ([]models.Candidate, error)
}

// QueryContext carries request details that narrow or annotate a provider query.
type QueryContext struct {
	Zip   string // ZIP extracted independently of the address, narrows the provider's region filter
	JobID string // external job identifier, for diagnostics only
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Region narrows provider searches to the service's operating area.
type Region struct {
	Country string       // ISO 3166-1 alpha-2 code of the target country
	BBox    *models.BBox // optional bias box
}

// Errors shared by all providers.
var (
	ErrEmptyAddress       = errors.New("provider got empty address")
	ErrUnauthorized       = errors.New("provider rejected the credential")
	ErrMissingCredential  = errors.New("provider credential is not configured")
	ErrCredentialBlocked  = errors.New("provider credential is blocked")
	ErrUnknownProvider    = errors.New("unknown provider")
	ErrProviderNotEnabled = errors.New("provider is not enabled")
)

// IsNoResult reports whether err means the provider answered but had nothing usable
// for the address, as opposed to a transport, quota or credential failure.
func IsNoResult(err error) bool {
	return errors.Is(err, ErrEmptyAddress) ||
		errors.Is(err, ErrGoogleEmptyResponse) ||
		errors.Is(err, ErrMapboxEmptyResponse) ||
		errors.Is(err, ErrMapboxInvalidCoords) ||
		errors.Is(err, ErrOpenCageEmptyResponse) ||
		errors.Is(err, ErrNominatimEmptyResponse) ||
		errors.Is(err, ErrNominatimInvalidCoords)
}

// zipFor prefers the ZIP passed in the request context over the one parsed from the address.
func zipFor(addr models.NormalizedAddress, qc QueryContext) string {
	if qc.Zip != "" {
		return qc.Zip
	}

	return addr.Zip
}
