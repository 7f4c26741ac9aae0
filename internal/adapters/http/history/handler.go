package history

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"3tcapital/gstlens/internal/core/audit"
	ctxutil "3tcapital/gstlens/internal/infrastructure/context"
	httperrors "3tcapital/gstlens/internal/infrastructure/http"
)

// Lister is the history use case consumed by the handler.
type Lister interface {
	List(ctx context.Context, userID string, limit int) ([]audit.ExtractionAudit, error)
}

// Entry is one past extraction as returned by GET /history.
type Entry struct {
	ReservationID string    `json:"reservation_id"`
	Outcome       string    `json:"outcome"`
	Stage         string    `json:"stage"`
	MIMEType      string    `json:"mime_type"`
	SizeBytes     int64     `json:"size_bytes"`
	CreditDelta   int64     `json:"credit_delta"`
	Refunded      bool      `json:"refunded"`
	DurationMs    int64     `json:"duration_ms"`
	Error         string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type Handler struct {
	service Lister
	log     *slog.Logger
}

func NewHandler(service Lister, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// List handles GET /history?limit=N.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := ctxutil.GetUser(r.Context())
	if !ok {
		httperrors.WriteError(w, http.StatusUnauthorized, "Unauthorized", []string{"authentication required"}, h.log)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httperrors.WriteError(w, http.StatusBadRequest, "Invalid limit", []string{"limit must be an integer"}, h.log)
			return
		}
		limit = n
	}

	audits, err := h.service.List(r.Context(), user.ID, limit)
	if err != nil {
		h.log.Error("history.list_failed", "user_id", user.ID, "error", err)
		httperrors.WriteError(w, http.StatusServiceUnavailable, "History unavailable", nil, h.log)
		return
	}

	entries := make([]Entry, 0, len(audits))
	for _, a := range audits {
		entries = append(entries, Entry{
			ReservationID: a.ReservationID,
			Outcome:       a.Outcome,
			Stage:         a.Stage,
			MIMEType:      a.MIMEType,
			SizeBytes:     a.SizeBytes,
			CreditDelta:   a.CreditDelta,
			Refunded:      a.Refunded,
			DurationMs:    a.DurationMs,
			Error:         a.ErrorMessage,
			CreatedAt:     a.CreatedAt,
		})
	}
	httperrors.WriteSuccess(w, entries, h.log)
}
