package extraction

import "context"

// Supported document MIME types accepted for extraction.
const (
	MIMETypePDF  = "application/pdf"
	MIMETypeJPEG = "image/jpeg"
	MIMETypePNG  = "image/png"
)

// Oracle defines the contract of the external structured-extraction service.
// Implementations send the document to the model under the invoice output schema and
// return whatever text the model produced. The text is best-effort JSON and may be malformed;
// parsing and validation are the caller's job. Network or service failures are returned as
// errors and are never retried by the implementation.
type Oracle interface {
	Extract(ctx context.Context, data []byte, mimeType string) (string, error)
}

// OracleFunc adapts an ordinary function to the Oracle interface.
type OracleFunc func(ctx context.Context, data []byte, mimeType string) (string, error)

// Extract calls f(ctx, data, mimeType).
func (f OracleFunc) Extract(ctx context.Context, data []byte, mimeType string) (string, error) {
	return f(ctx, data, mimeType)
}
