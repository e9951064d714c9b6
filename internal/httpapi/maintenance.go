package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/UnknownOlympus/pinpoint/internal/maintenance"
	"github.com/UnknownOlympus/pinpoint/internal/models"
)

// reportPathHeader carries the path of the written report or summary.
const reportPathHeader = "X-Report-Path"

type scanRequest struct {
	BBox                string  `json:"bbox"`
	ConfidenceThreshold float64 `json:"confidenceThreshold"`
}

type regeocodeRequest struct {
	Report        string   `json:"report"`
	ProviderOrder []string `json:"providerOrder"`
	AllowWrite    bool     `json:"allowWrite"`
	DryRun        bool     `json:"dryRun"`
	DelayMS       *int     `json:"delayMs"`
}

func (h *Handler) handleScan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req scanRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(ctx, w, http.StatusBadRequest, codeBadRequest, "invalid request body")
		return
	}

	opts, err := req.options()
	if err != nil {
		h.writeError(ctx, w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	report, path, err := h.scanner.Run(ctx, opts)
	if err != nil {
		h.log.ErrorContext(ctx, "Cache scan failed", "error", err)
		h.writeError(ctx, w, http.StatusInternalServerError, codeInternal, "cache scan failed")
		return
	}

	w.Header().Set(reportPathHeader, path)
	h.writeJSON(ctx, w, http.StatusOK, report)
}

func (req scanRequest) options() (maintenance.ScanOptions, error) {
	var opts maintenance.ScanOptions

	if req.BBox != "" {
		bbox, err := models.ParseBBox(req.BBox)
		if err != nil {
			return opts, err
		}
		opts.BBox = &bbox
	}

	if req.ConfidenceThreshold < 0 || req.ConfidenceThreshold > 1 {
		return opts, errors.New("confidenceThreshold must be between 0 and 1")
	}
	opts.ConfidenceThreshold = req.ConfidenceThreshold

	return opts, nil
}

func (h *Handler) handleRegeocode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req regeocodeRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(ctx, w, http.StatusBadRequest, codeBadRequest, "invalid request body")
		return
	}
	if req.DelayMS != nil && *req.DelayMS < 0 {
		h.writeError(ctx, w, http.StatusBadRequest, codeBadRequest, "delayMs must not be negative")
		return
	}
	if req.Report != "" {
		if err := maintenance.ValidReportName(req.Report); err != nil {
			h.writeError(ctx, w, http.StatusBadRequest, codeBadRequest, "report must be a scan report file name")
			return
		}
	}

	summary, path, err := h.regeocoder.Run(ctx, h.regeocodeOptions(req))
	switch {
	case errors.Is(err, maintenance.ErrWriteNotAllowed),
		errors.Is(err, maintenance.ErrEmptyProviderOrder),
		errors.Is(err, maintenance.ErrProviderNotConfigured):
		h.writeError(ctx, w, http.StatusUnprocessableEntity, codeInvalidSetup, err.Error())
		return
	case errors.Is(err, maintenance.ErrInvalidReportName):
		h.writeError(ctx, w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	case errors.Is(err, maintenance.ErrNoReport):
		h.writeError(ctx, w, http.StatusNotFound, codeNotFound, err.Error())
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.log.WarnContext(ctx, "Regeocode run interrupted", "error", err)
	case err != nil:
		h.log.ErrorContext(ctx, "Regeocode run failed", "error", err)
		h.writeError(ctx, w, http.StatusInternalServerError, codeInternal, "regeocode run failed")
		return
	}

	if summary == nil {
		h.writeError(ctx, w, http.StatusInternalServerError, codeInternal, "regeocode run failed")
		return
	}

	w.Header().Set(reportPathHeader, path)
	h.writeJSON(ctx, w, http.StatusOK, summary)
}

func (h *Handler) regeocodeOptions(req regeocodeRequest) maintenance.RegeocodeOptions {
	opts := maintenance.RegeocodeOptions{
		ReportName:    req.Report,
		ProviderOrder: req.ProviderOrder,
		AllowWrite:    req.AllowWrite && h.defaults.AllowWrite,
		DryRun:        req.DryRun,
		Delay:         h.defaults.Delay,
	}

	if len(opts.ProviderOrder) == 0 {
		opts.ProviderOrder = h.defaults.ProviderOrder
	}
	if req.DelayMS != nil {
		opts.Delay = time.Duration(*req.DelayMS) * time.Millisecond
	}

	return opts
}
