package history

import (
	"context"
	"errors"
	"fmt"

	"3tcapital/gstlens/internal/core/audit"
)

// Page size bounds for List.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ErrMissingUser is returned when no authenticated user id is supplied.
var ErrMissingUser = errors.New("user id is required")

// Service lists a caller's past extractions from the audit trail.
type Service struct {
	repo audit.Repository
}

func NewService(repo audit.Repository) *Service {
	return &Service{repo: repo}
}

// List returns up to limit audits of userID, newest first. Non-positive limits select
// DefaultLimit; larger ones are capped at MaxLimit.
func (s *Service) List(ctx context.Context, userID string, limit int) ([]audit.ExtractionAudit, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	entries, err := s.repo.FindByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("find audits: %w", err)
	}
	return entries, nil
}
