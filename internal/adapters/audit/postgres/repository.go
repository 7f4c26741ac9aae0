package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"3tcapital/gstlens/internal/core/audit"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultListLimit caps FindByUser when no positive limit is given.
const DefaultListLimit = 50

// Repository implements the audit.Repository interface using PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewRepository creates a new PostgreSQL audit repository.
func NewRepository(pool *pgxpool.Pool, log *slog.Logger) *Repository {
	return &Repository{pool: pool, log: log}
}

// Save persists an extraction audit entry.
func (r *Repository) Save(ctx context.Context, entry audit.ExtractionAudit) error {
	const query = `
		INSERT INTO extraction_audit_log (
			reservation_id, correlation_id, user_id, mime_type, size_bytes,
			outcome, stage, credit_delta, refunded, duration_ms, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		entry.ReservationID,
		entry.CorrelationID,
		entry.UserID,
		entry.MIMEType,
		entry.SizeBytes,
		entry.Outcome,
		entry.Stage,
		entry.CreditDelta,
		entry.Refunded,
		entry.DurationMs,
		entry.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("insert extraction audit: %w", err)
	}

	if r.log != nil {
		r.log.Debug("audit.saved",
			"reservation_id", entry.ReservationID,
			"user_id", entry.UserID,
			"outcome", entry.Outcome,
		)
	}
	return nil
}

// FindByUser lists the most recent audits of userID, newest first.
func (r *Repository) FindByUser(ctx context.Context, userID string, limit int) ([]audit.ExtractionAudit, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	const query = `
		SELECT id, reservation_id, correlation_id, user_id, mime_type, size_bytes,
		       outcome, stage, credit_delta, refunded, duration_ms, error_message, created_at
		FROM extraction_audit_log
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query extraction audits: %w", err)
	}
	defer rows.Close()

	var entries []audit.ExtractionAudit
	for rows.Next() {
		var e audit.ExtractionAudit
		if err := rows.Scan(
			&e.ID,
			&e.ReservationID,
			&e.CorrelationID,
			&e.UserID,
			&e.MIMEType,
			&e.SizeBytes,
			&e.Outcome,
			&e.Stage,
			&e.CreditDelta,
			&e.Refunded,
			&e.DurationMs,
			&e.ErrorMessage,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan extraction audit: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return entries, nil
}

// Ping reports whether the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
