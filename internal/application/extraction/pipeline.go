package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	coreextraction "3tcapital/gstlens/internal/core/extraction"
	"3tcapital/gstlens/internal/core/invoice"
	infractx "3tcapital/gstlens/internal/infrastructure/context"
)

// Pipeline runs oracle, parse, schema validation and normalization for one document.
// It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	oracle     coreextraction.Oracle
	validator  *Validator
	normalizer *Normalizer
	log        *slog.Logger
}

// NewPipeline creates a new extraction pipeline.
func NewPipeline(oracle coreextraction.Oracle, validator *Validator, normalizer *Normalizer, log *slog.Logger) *Pipeline {
	return &Pipeline{
		oracle:     oracle,
		validator:  validator,
		normalizer: normalizer,
		log:        log,
	}
}

// Run extracts the invoice contained in data. Every error it returns is a *extraction.Failure.
func (p *Pipeline) Run(ctx context.Context, data []byte, mimeType string) (invoice.Record, error) {
	start := time.Now()
	log := p.log.With(
		"correlation_id", infractx.GetCorrelationID(ctx),
		"mime_type", mimeType,
		"size_bytes", len(data),
	)
	log.Info("extraction.start", "stage", coreextraction.StagePending)

	raw, err := p.oracle.Extract(ctx, data, mimeType)
	if err != nil {
		return invoice.Record{}, p.fail(log, start, coreextraction.NewFailure(
			coreextraction.KindOracle, coreextraction.StagePending, "extraction service failed", err))
	}
	log.Debug("extraction.oracle_called", "stage", coreextraction.StageOracleCalled, "raw_len", len(raw), "raw", raw)

	if err := ctx.Err(); err != nil {
		return invoice.Record{}, p.fail(log, start, coreextraction.NewFailure(
			coreextraction.KindUnexpected, coreextraction.StageOracleCalled, "request cancelled", err))
	}

	var doc any
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &doc); err != nil {
		return invoice.Record{}, p.fail(log, start, coreextraction.NewFailure(
			coreextraction.KindMalformedOutput, coreextraction.StageOracleCalled, "extraction service returned malformed output", err))
	}
	log.Debug("extraction.parsed", "stage", coreextraction.StageParsed)

	rec, err := p.validator.Validate(doc)
	if err != nil {
		f := coreextraction.NewFailure(coreextraction.KindSchema, coreextraction.StageParsed, "extracted invoice failed validation", err)
		var ve *ValidationError
		if errors.As(err, &ve) {
			f.Details = ve.Fields
		}
		return invoice.Record{}, p.fail(log, start, f)
	}
	log.Debug("extraction.schema_validated", "stage", coreextraction.StageSchemaValidated)

	out := p.normalizer.Normalize(rec)
	log.Info("extraction.ok",
		"stage", coreextraction.StageNormalized,
		"invoice_type", out.Type,
		"has_warning", out.Warning != nil,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func (p *Pipeline) fail(log *slog.Logger, start time.Time, f *coreextraction.Failure) error {
	log.Warn("extraction.failed",
		"stage", coreextraction.StageFailed,
		"from_stage", f.Stage,
		"kind", f.Kind,
		"details", len(f.Details),
		"error", f.Err,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return f
}

