package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"3tcapital/gstlens/internal/adapters/oracle"
	"3tcapital/gstlens/internal/core/extraction"
	"3tcapital/gstlens/internal/core/invoice"

	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// generator is the subset of *genai.Models the client uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config holds the Gemini adapter settings.
type Config struct {
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

// Client implements extraction.Oracle with the Gemini API. It accepts PDF and image
// documents inline and asks for application/json under the invoice response schema.
type Client struct {
	models generator
	model  string
	config *genai.GenerateContentConfig
	log    *slog.Logger
}

// NewClient builds the shared Gemini client. It is constructed once at startup.
func NewClient(ctx context.Context, cfg Config, log *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return newClient(gc.Models, cfg.Model, log), nil
}

func newClient(models generator, model string, log *slog.Logger) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		models: models,
		model:  model,
		config: &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(oracle.SystemPrompt, genai.RoleUser),
			ResponseMIMEType:  "application/json",
			ResponseSchema:    ResponseSchema(),
			Temperature:       genai.Ptr[float32](0),
		},
		log: log,
	}
}

// Extract sends the document to Gemini and returns the raw response text.
func (c *Client) Extract(ctx context.Context, data []byte, mimeType string) (string, error) {
	start := time.Now()
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText("Extract the GST invoice fields from this document."),
			genai.NewPartFromBytes(data, mimeType),
		}, genai.RoleUser),
	}

	c.log.Debug("oracle.gemini.request", "model", c.model, "mime_type", mimeType, "size_bytes", len(data))

	resp, err := c.models.GenerateContent(ctx, c.model, contents, c.config)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		reason := "no candidates"
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			reason = "prompt blocked: " + string(resp.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("gemini returned %s", reason)
	}

	text := resp.Text()
	c.log.Debug("oracle.gemini.response",
		"model", c.model,
		"finish_reason", resp.Candidates[0].FinishReason,
		"text_len", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

// ResponseSchema renders the invoice output contract in Gemini's schema dialect.
func ResponseSchema() *genai.Schema {
	props := make(map[string]*genai.Schema, len(invoice.FieldOrder))
	for _, f := range invoice.StringFields {
		props[f] = &genai.Schema{Type: genai.TypeString, Nullable: genai.Ptr(true)}
	}
	for _, f := range invoice.NumberFields {
		props[f] = &genai.Schema{Type: genai.TypeNumber, Nullable: genai.Ptr(true)}
	}
	props[invoice.FieldInvoiceType] = &genai.Schema{
		Type:   genai.TypeString,
		Format: "enum",
		Enum:   []string{string(invoice.TypeB2B), string(invoice.TypeB2C)},
	}

	return &genai.Schema{
		Type:             genai.TypeObject,
		Properties:       props,
		PropertyOrdering: invoice.FieldOrder,
		Required:         []string{invoice.FieldInvoiceType},
	}
}

var _ extraction.Oracle = (*Client)(nil)
