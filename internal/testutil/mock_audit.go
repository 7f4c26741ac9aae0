package testutil

import (
	"context"
	"sync"

	"3tcapital/gstlens/internal/core/audit"
)

// MemoryAuditRepository keeps audit entries in memory.
type MemoryAuditRepository struct {
	SaveErr error

	mu      sync.Mutex
	entries []audit.ExtractionAudit
	saved   chan struct{}
}

// NewMemoryAuditRepository creates an empty repository.
func NewMemoryAuditRepository() *MemoryAuditRepository {
	return &MemoryAuditRepository{saved: make(chan struct{}, 64)}
}

// Save stores entry unless SaveErr is set.
func (r *MemoryAuditRepository) Save(ctx context.Context, entry audit.ExtractionAudit) error {
	defer func() {
		select {
		case r.saved <- struct{}{}:
		default:
		}
	}()
	if r.SaveErr != nil {
		return r.SaveErr
	}
	r.mu.Lock()
	r.entries = append(r.entries, entry)
	r.mu.Unlock()
	return nil
}

// FindByUser returns the entries of userID, newest first.
func (r *MemoryAuditRepository) FindByUser(ctx context.Context, userID string, limit int) ([]audit.ExtractionAudit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []audit.ExtractionAudit
	for i := len(r.entries) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if r.entries[i].UserID == userID {
			out = append(out, r.entries[i])
		}
	}
	return out, nil
}

// Saved is signalled after every Save attempt.
func (r *MemoryAuditRepository) Saved() <-chan struct{} {
	return r.saved
}

// Entries returns a copy of all stored entries.
func (r *MemoryAuditRepository) Entries() []audit.ExtractionAudit {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audit.ExtractionAudit(nil), r.entries...)
}

var _ audit.Repository = (*MemoryAuditRepository)(nil)
