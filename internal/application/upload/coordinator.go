package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"3tcapital/gstlens/internal/core/audit"
	"3tcapital/gstlens/internal/core/credit"
	"3tcapital/gstlens/internal/core/extraction"
	"3tcapital/gstlens/internal/core/invoice"
	infractx "3tcapital/gstlens/internal/infrastructure/context"

	"github.com/google/uuid"
)

// DefaultCost is the credit price of one extraction.
const DefaultCost int64 = 1

// ErrLedgerUnavailable marks failures to talk to the credit ledger before anything was reserved.
var ErrLedgerUnavailable = errors.New("credit ledger unavailable")

// Extractor runs the extraction pipeline for one document.
type Extractor interface {
	Run(ctx context.Context, data []byte, mimeType string) (invoice.Record, error)
}

// Request is one admitted upload. Format and size checks have already passed.
type Request struct {
	UserID   string
	Data     []byte
	MIMEType string
}

// Result is a successful extraction.
type Result struct {
	Record        invoice.Record
	ReservationID string
}

// Options configures a Coordinator.
type Options struct {
	Cost          int64
	RefundTimeout time.Duration // Bounds reserve and refund calls, which ignore caller cancellation
	AuditTimeout  time.Duration
	Audit         audit.Repository // optional
}

// Coordinator reserves credit, runs the pipeline, and refunds on every failure path.
// The net credit delta of a request is -cost on success and 0 otherwise.
type Coordinator struct {
	ledger        credit.Ledger
	extractor     Extractor
	cost          int64
	refundTimeout time.Duration
	auditTimeout  time.Duration
	audit         audit.Repository
	log           *slog.Logger

	pending sync.WaitGroup
}

// NewCoordinator creates a new upload coordinator.
func NewCoordinator(ledger credit.Ledger, extractor Extractor, opts Options, log *slog.Logger) *Coordinator {
	if opts.Cost <= 0 {
		opts.Cost = DefaultCost
	}
	if opts.RefundTimeout <= 0 {
		opts.RefundTimeout = 10 * time.Second
	}
	if opts.AuditTimeout <= 0 {
		opts.AuditTimeout = 5 * time.Second
	}
	return &Coordinator{
		ledger:        ledger,
		extractor:     extractor,
		cost:          opts.Cost,
		refundTimeout: opts.RefundTimeout,
		auditTimeout:  opts.AuditTimeout,
		audit:         opts.Audit,
		log:           log,
	}
}

// Cost returns the credit price of one extraction.
func (c *Coordinator) Cost() int64 {
	return c.cost
}

// Handle processes one upload. Every error it returns is a *extraction.Failure.
func (c *Coordinator) Handle(ctx context.Context, req Request) (res Result, err error) {
	start := time.Now()
	res.ReservationID = uuid.NewString()
	ctx = infractx.WithReservationID(ctx, res.ReservationID)
	log := c.log.With(
		"reservation_id", res.ReservationID,
		"correlation_id", infractx.GetCorrelationID(ctx),
		"user_id", req.UserID,
	)

	ok, rerr := c.reserve(ctx, req.UserID)
	if rerr != nil {
		log.Error("credit.reserve_failed", "error", rerr)
		err = extraction.NewFailure(extraction.KindUnexpected, extraction.StagePending,
			"credit service unavailable", fmt.Errorf("%w: %w", ErrLedgerUnavailable, rerr))
		c.recordAudit(ctx, req, res.ReservationID, err, 0, false, start)
		return res, err
	}
	if !ok {
		log.Info("credit.insufficient", "cost", c.cost)
		err = extraction.NewFailure(extraction.KindInsufficientCredit, extraction.StagePending, "insufficient credits", nil)
		c.recordAudit(ctx, req, res.ReservationID, err, 0, false, start)
		return res, err
	}
	log.Debug("credit.reserved", "cost", c.cost)

	// Single settlement point: runs exactly once for every exit after a successful reservation,
	// including panics and cancellation.
	defer func() {
		if r := recover(); r != nil {
			log.Error("extraction.panic", "panic", r)
			err = extraction.NewFailure(extraction.KindUnexpected, extraction.StageFailed,
				"internal processing error", fmt.Errorf("panic: %v", r))
		}

		delta, refunded := -c.cost, false
		if err != nil {
			refunded = c.refund(ctx, log, req.UserID)
			if refunded {
				delta = 0
			}
		}
		c.recordAudit(ctx, req, res.ReservationID, err, delta, refunded, start)
	}()

	rec, perr := c.extractor.Run(ctx, req.Data, req.MIMEType)
	if perr != nil {
		return res, extraction.AsFailure(perr)
	}

	res.Record = rec
	log.Info("upload.completed", "invoice_type", rec.Type, "elapsed_ms", time.Since(start).Milliseconds())
	return res, nil
}

// reserve debits the credit on a context detached from the caller's cancellation.
// Once it returns true the deferred settle in Handle owns the credit.
func (c *Coordinator) reserve(ctx context.Context, userID string) (bool, error) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refundTimeout)
	defer cancel()
	return c.ledger.Reserve(rctx, userID, c.cost)
}

// refund returns the reserved credit on a context that outlives the request.
func (c *Coordinator) refund(ctx context.Context, log *slog.Logger, userID string) bool {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refundTimeout)
	defer cancel()

	if err := c.ledger.Refund(rctx, userID, c.cost); err != nil {
		// The credit is now lost to the user; this line is what reconciliation works from.
		log.Error("credit.refund_failed", "cost", c.cost, "error", err)
		return false
	}
	log.Info("credit.refunded", "cost", c.cost)
	return true
}

func (c *Coordinator) recordAudit(ctx context.Context, req Request, reservationID string, err error, delta int64, refunded bool, start time.Time) {
	if c.audit == nil {
		return
	}

	entry := audit.ExtractionAudit{
		ReservationID: reservationID,
		CorrelationID: infractx.GetCorrelationID(ctx),
		UserID:        req.UserID,
		MIMEType:      req.MIMEType,
		SizeBytes:     int64(len(req.Data)),
		Outcome:       audit.OutcomeSuccess,
		Stage:         string(extraction.StageNormalized),
		CreditDelta:   delta,
		Refunded:      refunded,
		DurationMs:    time.Since(start).Milliseconds(),
	}
	if err != nil {
		f := extraction.AsFailure(err)
		entry.Outcome = string(f.Kind)
		entry.Stage = string(f.Stage)
		entry.ErrorMessage = f.Message
	}

	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.auditTimeout)
		defer cancel()
		if err := c.audit.Save(actx, entry); err != nil {
			c.log.Warn("audit.save_failed", "reservation_id", reservationID, "error", err)
		}
	}()
}

// Wait blocks until pending audit writes have finished.
func (c *Coordinator) Wait() {
	c.pending.Wait()
}
