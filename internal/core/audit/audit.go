package audit

import (
	"context"
	"time"
)

// Outcome values recorded for an upload.
const (
	OutcomeSuccess = "success"
)

// ExtractionAudit is the audit record of one terminal /upload outcome.
// It never contains document bytes or raw oracle output.
type ExtractionAudit struct {
	ID            int64
	ReservationID string
	CorrelationID string
	UserID        string
	MIMEType      string
	SizeBytes     int64
	Outcome       string // OutcomeSuccess or an extraction failure kind
	Stage         string
	CreditDelta   int64
	Refunded      bool
	DurationMs    int64
	ErrorMessage  string
	CreatedAt     time.Time
}

// Repository defines the contract for persisting and retrieving extraction audits.
type Repository interface {
	// Save persists an audit entry.
	Save(ctx context.Context, entry ExtractionAudit) error

	// FindByUser lists the most recent audits of a user, newest first.
	FindByUser(ctx context.Context, userID string, limit int) ([]ExtractionAudit, error)
}
