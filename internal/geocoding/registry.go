package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/pinpoint/internal/models"
)

// Registry holds the enabled providers by name and the blocklist of rejected credentials.
// It is built once at startup and read concurrently afterwards.
type Registry struct {
	providers  map[string]Provider
	lastResort map[string]bool
	names      []string
	blocklist  *Blocklist
	log        *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		providers:  make(map[string]Provider),
		lastResort: make(map[string]bool),
		blocklist:  NewBlocklist(),
		log:        log,
	}
}

// Register adds a provider. A last-resort provider is only asked when nothing else
// produced a candidate.
func (r *Registry) Register(name string, provider Provider, lastResort bool) {
	if _, ok := r.providers[name]; !ok {
		r.names = append(r.names, name)
	}
	r.providers[name] = provider
	r.lastResort[name] = lastResort
}

// Enabled reports whether a provider with this name is registered.
func (r *Registry) Enabled(name string) bool {
	_, ok := r.providers[name]
	return ok
}

// LastResort reports whether the provider is only asked as a last resort.
func (r *Registry) LastResort(name string) bool {
	return r.lastResort[name]
}

// Names returns registered provider names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Ordered filters order down to enabled providers, keeping its sequence.
// An empty order means every registered provider.
func (r *Registry) Ordered(order []string) []string {
	if len(order) == 0 {
		return r.Names()
	}

	enabled := make([]string, 0, len(order))
	for _, name := range order {
		if r.Enabled(name) {
			enabled = append(enabled, name)
		}
	}

	return enabled
}

// Blocklist exposes the credential blocklist.
func (r *Registry) Blocklist() *Blocklist {
	return r.blocklist
}

// Query asks the named provider. A blocked credential is not called at all, and a
// provider that rejects its credential is blocked for subsequent calls.
func (r *Registry) Query(
	ctx context.Context,
	name string,
	addr models.NormalizedAddress,
	qc QueryContext,
) ([]models.Candidate, error) {
	provider, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotEnabled, name)
	}

	if r.blocklist.Blocked(name) {
		return nil, fmt.Errorf("%w: %s", ErrCredentialBlocked, name)
	}

	candidates, err := provider.Query(ctx, addr, qc)
	if errors.Is(err, ErrUnauthorized) {
		r.log.WarnContext(ctx, "Provider rejected its credential, blocking it", "provider", name, "error", err)
		r.blocklist.Mark(name)
	}

	return candidates, err
}
