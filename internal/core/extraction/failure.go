package extraction

import (
	"errors"
	"fmt"
)

// Kind classifies a failed extraction request.
type Kind string

const (
	KindOracle             Kind = "oracle_error"
	KindMalformedOutput    Kind = "malformed_output"
	KindSchema             Kind = "schema_error"
	KindInsufficientCredit Kind = "insufficient_credit"
	KindUnexpected         Kind = "unexpected_error"
)

// Stage is a state of the extraction pipeline.
type Stage string

const (
	StagePending         Stage = "pending"
	StageOracleCalled    Stage = "oracle_called"
	StageParsed          Stage = "parsed"
	StageSchemaValidated Stage = "schema_validated"
	StageNormalized      Stage = "normalized"
	StageFailed          Stage = "failed"
)

// FieldError describes one offending field of an oracle answer.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) String() string {
	return e.Field + ": " + e.Message
}

// Failure is the terminal error outcome of an extraction request.
// Message is safe to show to end users; Err keeps the internal cause for logs.
type Failure struct {
	Kind    Kind
	Stage   Stage
	Message string
	Details []FieldError
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// NewFailure builds a Failure of the given kind.
func NewFailure(kind Kind, stage Stage, message string, err error) *Failure {
	return &Failure{Kind: kind, Stage: stage, Message: message, Err: err}
}

// KindOf extracts the failure kind from err. Errors that are not a Failure are unexpected;
// a nil error has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindUnexpected
}

// AsFailure returns err as a Failure, wrapping foreign errors as unexpected.
func AsFailure(err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return NewFailure(KindUnexpected, StageFailed, "internal processing error", err)
}
