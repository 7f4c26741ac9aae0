package gstinfo

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	appgstinfo "3tcapital/gstlens/internal/application/gstinfo"
	"3tcapital/gstlens/internal/core/gstin"
	ctxutil "3tcapital/gstlens/internal/infrastructure/context"
	httperrors "3tcapital/gstlens/internal/infrastructure/http"
)

// Looker resolves a GSTIN to its registration details.
type Looker interface {
	Lookup(ctx context.Context, id string) (gstin.Info, error)
}

// Handler serves taxpayer lookups. No credit is charged.
type Handler struct {
	service Looker
	log     *slog.Logger
}

func NewHandler(service Looker, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// Lookup handles GET /gstinfo/{gstin}.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "gstin")

	info, err := h.service.Lookup(r.Context(), id)
	switch {
	case err == nil:
		httperrors.WriteSuccess(w, info, h.log)
	case errors.Is(err, appgstinfo.ErrInvalidGSTIN):
		httperrors.WriteError(w, http.StatusBadRequest, "Invalid GSTIN", []string{err.Error()}, h.log)
	case errors.Is(err, gstin.ErrNotFound):
		httperrors.WriteError(w, http.StatusNotFound, "GSTIN not found", nil, h.log)
	default:
		h.log.Error("gstinfo.lookup_failed",
			"error", err,
			"correlation_id", ctxutil.GetCorrelationID(r.Context()),
		)
		httperrors.WriteError(w, http.StatusInternalServerError, "Internal server error", nil, h.log)
	}
}
