package account

import (
	"context"
	"log/slog"
	"net/http"

	"3tcapital/gstlens/internal/core/credit"
	ctxutil "3tcapital/gstlens/internal/infrastructure/context"
	httperrors "3tcapital/gstlens/internal/infrastructure/http"
)

// Service is the account use case consumed by the handler.
type Service interface {
	Login(ctx context.Context, userID string) (credit.Account, error)
	Balance(ctx context.Context, userID string) (int64, error)
}

// LoginResponse is returned by POST /login.
type LoginResponse struct {
	Message string `json:"message"`
	Balance int64  `json:"balance"`
}

// CreditsResponse is returned by GET /credits.
type CreditsResponse struct {
	UserID  string `json:"user_id"`
	Balance int64  `json:"balance"`
}

type Handler struct {
	service Service
	log     *slog.Logger
}

func NewHandler(service Service, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// Login handles POST /login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	user, ok := ctxutil.GetUser(r.Context())
	if !ok {
		httperrors.WriteError(w, http.StatusUnauthorized, "Unauthorized", []string{"authentication required"}, h.log)
		return
	}

	acct, err := h.service.Login(r.Context(), user.ID)
	if err != nil {
		h.log.Error("account.login_failed", "user_id", user.ID, "error", err)
		httperrors.WriteError(w, http.StatusServiceUnavailable, "Credit service unavailable", nil, h.log)
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, LoginResponse{Message: "Logged in", Balance: acct.Balance}, h.log)
}

// Credits handles GET /credits.
func (h *Handler) Credits(w http.ResponseWriter, r *http.Request) {
	user, ok := ctxutil.GetUser(r.Context())
	if !ok {
		httperrors.WriteError(w, http.StatusUnauthorized, "Unauthorized", []string{"authentication required"}, h.log)
		return
	}

	balance, err := h.service.Balance(r.Context(), user.ID)
	if err != nil {
		h.log.Error("account.balance_failed", "user_id", user.ID, "error", err)
		httperrors.WriteError(w, http.StatusServiceUnavailable, "Credit service unavailable", nil, h.log)
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, CreditsResponse{UserID: user.ID, Balance: balance}, h.log)
}
