package health

import (
	"log/slog"
	"net/http"

	apphealth "3tcapital/gstlens/internal/application/health"
	httperrors "3tcapital/gstlens/internal/infrastructure/http"
)

// RootMessage is returned by the liveness probe on /.
const RootMessage = "GST Invoice Processor Running"

// Handler bridges HTTP traffic with the health application service.
type Handler struct {
	service *apphealth.Service
	log     *slog.Logger
}

func NewHandler(service *apphealth.Service, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// Root answers GET / without touching any dependency.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	httperrors.WriteJSON(w, http.StatusOK, map[string]string{"message": RootMessage}, h.log)
}

// Status answers GET /health. A degraded dependency is reported in the body;
// the process itself is alive, so the code stays 200.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	httperrors.WriteJSON(w, http.StatusOK, h.service.Status(r.Context()), h.log)
}
