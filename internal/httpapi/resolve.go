package httpapi

import (
	"net/http"
	"strconv"

	"github.com/UnknownOlympus/pinpoint/internal/models"
	"github.com/UnknownOlympus/pinpoint/internal/service"
)

type resolveResponse struct {
	Address string        `json:"address"`
	Point   *models.Point `json:"point"`
}

type batchRequest struct {
	Addresses   []string `json:"addresses"`
	Concurrency int      `json:"concurrency"`
	Force       bool     `json:"force"`
}

type batchResponse struct {
	Results []resolveResponse `json:"results"`
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	raw := query.Get("address")
	if raw == "" {
		h.writeError(ctx, w, http.StatusBadRequest, codeBadRequest, "address is required")
		return
	}

	force, err := parseBool(query.Get("force"))
	if err != nil {
		h.writeError(ctx, w, http.StatusBadRequest, codeBadRequest, "force must be a boolean")
		return
	}

	point := h.resolver.Resolve(ctx, raw, service.ResolveContext{
		JobID:        query.Get("job_id"),
		Zip:          query.Get("zip"),
		ForceRefresh: force,
	})

	h.writeJSON(ctx, w, http.StatusOK, resolveResponse{Address: raw, Point: point})
}

func (h *Handler) handleResolveBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req batchRequest
	if err := decodeBody(r, &req); err != nil {
		h.log.WarnContext(ctx, "invalid batch request", "error", err)
		h.writeError(ctx, w, http.StatusBadRequest, codeBadRequest, "invalid request body")
		return
	}

	if len(req.Addresses) == 0 {
		h.writeError(ctx, w, http.StatusBadRequest, codeBadRequest, "addresses are required")
		return
	}
	if len(req.Addresses) > MaxBatchSize {
		h.writeError(ctx, w, http.StatusBadRequest, codeBadRequest,
			"too many addresses, the limit is "+strconv.Itoa(MaxBatchSize))
		return
	}

	points := h.resolver.ResolveBatch(ctx, req.Addresses, req.Concurrency, req.Force)

	resp := batchResponse{Results: make([]resolveResponse, len(req.Addresses))}
	for i, raw := range req.Addresses {
		resp.Results[i] = resolveResponse{Address: raw, Point: points[i]}
	}

	h.writeJSON(ctx, w, http.StatusOK, resp)
}

func parseBool(raw string) (bool, error) {
	if raw == "" {
		return false, nil
	}

	return strconv.ParseBool(raw)
}
