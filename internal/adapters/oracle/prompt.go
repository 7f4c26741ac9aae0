package oracle

import (
	"fmt"

	"3tcapital/gstlens/internal/core/extraction"
)

// SystemPrompt constrains the model to the invoice fields. Its invoice_type rule is advisory;
// the normalizer recomputes the type from the buyer GSTIN.
const SystemPrompt = `You are a GST invoice extraction system.

Rules:
- Extract ONLY the fields defined in the schema
- If a field is missing, return null (JSON null)
- Do NOT guess values
- Do NOT calculate anything
- Dates must be in DD.MM.YYYY format
- invoice_type:
    - B2B if buyer_gstin exists
    - B2C otherwise
- Output ONLY valid JSON`

// ErrUnsupportedMIMEType is returned by adapters that cannot submit a document type.
type ErrUnsupportedMIMEType struct {
	Provider string
	MIMEType string
}

func (e *ErrUnsupportedMIMEType) Error() string {
	return fmt.Sprintf("%s oracle does not accept %s documents", e.Provider, e.MIMEType)
}

// IsImage reports whether mimeType is one of the accepted raster formats.
func IsImage(mimeType string) bool {
	return mimeType == extraction.MIMETypeJPEG || mimeType == extraction.MIMETypePNG
}
