package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/UnknownOlympus/pinpoint/internal/address"
	"github.com/UnknownOlympus/pinpoint/internal/maintenance"
	"github.com/UnknownOlympus/pinpoint/internal/models"
	"github.com/UnknownOlympus/pinpoint/internal/repository"
)

type cacheEntry struct {
	Key    string                `json:"key"`
	Record *models.GeocodeRecord `json:"record,omitempty"`
	Error  string                `json:"error,omitempty"`
}

type cacheListResponse struct {
	Entries []cacheEntry `json:"entries"`
}

type overrideRequest struct {
	Address string   `json:"address"`
	JobID   string   `json:"jobId"`
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
}

type blockedCredential struct {
	Provider  string    `json:"provider"`
	BlockedAt time.Time `json:"blockedAt"`
}

// addressKey returns the cache key of a raw address, or "" when nothing is left
// after normalization.
func addressKey(raw string) string {
	normalized := address.Normalize(raw)
	if normalized.Empty() {
		return ""
	}

	return repository.CacheKey(normalized.Query)
}

func (h *Handler) handleGetCache(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	key := addressKey(r.URL.Query().Get("address"))
	if key == "" {
		h.writeError(ctx, w, http.StatusBadRequest, codeBadRequest, "address is required")
		return
	}

	rec, err := h.store.Get(ctx, key)
	if err != nil {
		h.log.ErrorContext(ctx, "Failed to read geocode cache", "key", key, "error", err)
		h.writeError(ctx, w, http.StatusInternalServerError, codeInternal, "failed to read cache")
		return
	}
	if rec == nil {
		h.writeError(ctx, w, http.StatusNotFound, codeNotFound, "address is not cached")
		return
	}

	h.writeJSON(ctx, w, http.StatusOK, cacheEntry{Key: key, Record: rec})
}

func (h *Handler) handleDeleteCache(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	key := addressKey(r.URL.Query().Get("address"))
	if key == "" {
		h.writeError(ctx, w, http.StatusBadRequest, codeBadRequest, "address is required")
		return
	}

	if err := h.store.Delete(ctx, key); err != nil {
		h.log.ErrorContext(ctx, "Failed to delete geocode cache entry", "key", key, "error", err)
		h.writeError(ctx, w, http.StatusInternalServerError, codeInternal, "failed to delete cache entry")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListCache(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	flagged, err := parseBool(query.Get("flagged"))
	if err != nil {
		h.writeError(ctx, w, http.StatusBadRequest, codeBadRequest, "flagged must be a boolean")
		return
	}

	var filter repository.Filter
	if flagged {
		var opts maintenance.ScanOptions
		if raw := query.Get("threshold"); raw != "" {
			opts.ConfidenceThreshold, err = strconv.ParseFloat(raw, 64)
			if err != nil || opts.ConfidenceThreshold < 0 || opts.ConfidenceThreshold > 1 {
				h.writeError(ctx, w, http.StatusBadRequest, codeBadRequest, "threshold must be between 0 and 1")
				return
			}
		}
		filter = h.scanner.Filter(opts)
	}

	entries, err := h.store.List(ctx, filter)
	if err != nil {
		h.log.ErrorContext(ctx, "Failed to list geocode cache", "error", err)
		h.writeError(ctx, w, http.StatusInternalServerError, codeInternal, "failed to list cache")
		return
	}

	resp := cacheListResponse{Entries: make([]cacheEntry, 0, len(entries))}
	for _, entry := range entries {
		view := cacheEntry{Key: entry.Key, Record: entry.Record}
		if entry.Err != nil {
			view.Error = entry.Err.Error()
		}
		resp.Entries = append(resp.Entries, view)
	}

	h.writeJSON(ctx, w, http.StatusOK, resp)
}

func (h *Handler) handleSetOverride(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req overrideRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(ctx, w, http.StatusBadRequest, codeBadRequest, "invalid request body")
		return
	}

	if req.Lat == nil || req.Lng == nil {
		h.writeError(ctx, w, http.StatusBadRequest, codeBadRequest, "lat and lng are required")
		return
	}

	var kind, key string
	switch {
	case req.JobID != "" && req.Address != "":
		h.writeError(ctx, w, http.StatusBadRequest, codeBadRequest, "set either address or jobId, not both")
		return
	case req.JobID != "":
		kind, key = models.OverrideByJob, req.JobID
	default:
		kind, key = models.OverrideByAddress, addressKey(req.Address)
	}

	point := models.OverridePoint(*req.Lat, *req.Lng)
	err := h.overrides.Set(kind, key, point)
	if errors.Is(err, repository.ErrInvalidOverride) {
		h.log.WarnContext(ctx, "Override rejected", "kind", kind, "key", key, "error", err)
		h.writeError(ctx, w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	if err != nil {
		h.log.ErrorContext(ctx, "Failed to store override", "kind", kind, "key", key, "error", err)
		h.writeError(ctx, w, http.StatusInternalServerError, codeInternal, "failed to store override")
		return
	}

	h.log.InfoContext(ctx, "Override stored", "kind", kind, "key", key)
	h.writeJSON(ctx, w, http.StatusOK, models.Override{Kind: kind, Key: key, Point: point})
}

func (h *Handler) handleListBlocked(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ids := h.blocklist.List()
	blocked := make([]blockedCredential, 0, len(ids))
	for _, id := range ids {
		since, _ := h.blocklist.Since(id)
		blocked = append(blocked, blockedCredential{Provider: id, BlockedAt: since})
	}

	h.writeJSON(ctx, w, http.StatusOK, blocked)
}

// handleClearBlocked forgets rejected credentials, one provider when named, all otherwise.
func (h *Handler) handleClearBlocked(w http.ResponseWriter, r *http.Request) {
	if provider := r.URL.Query().Get("provider"); provider != "" {
		h.blocklist.Clear(provider)
	} else {
		h.blocklist.Clear()
	}

	h.log.InfoContext(r.Context(), "Credential blocklist cleared")
	w.WriteHeader(http.StatusNoContent)
}
