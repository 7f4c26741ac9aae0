package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"3tcapital/gstlens/internal/adapters/oracle"
	"3tcapital/gstlens/internal/core/extraction"
	"3tcapital/gstlens/internal/core/invoice"

	"github.com/sashabaranov/go-openai"
)

// DefaultModel is the vision model used when none is configured.
const DefaultModel = "gpt-4o-mini"

const providerName = "openai"

// Config holds the OpenAI adapter settings.
type Config struct {
	APIKey     string
	BaseURL    string // OpenAI-compatible endpoint, e.g. https://api.openai.com/v1
	Model      string
	HTTPClient *http.Client
}

// Client implements extraction.Oracle with the chat completions API.
// Only image documents are accepted; PDFs must go through the Gemini adapter.
type Client struct {
	api    *openai.Client
	model  string
	schema json.RawMessage
	log    *slog.Logger
}

// NewClient creates a new OpenAI oracle.
func NewClient(cfg Config, log *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	}

	schema, err := json.Marshal(invoice.JSONSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal response schema: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Client{
		api:    openai.NewClientWithConfig(oc),
		model:  model,
		schema: schema,
		log:    log,
	}, nil
}

// Extract sends the image to the model and returns the raw message content.
func (c *Client) Extract(ctx context.Context, data []byte, mimeType string) (string, error) {
	if !oracle.IsImage(mimeType) {
		return "", &oracle.ErrUnsupportedMIMEType{Provider: providerName, MIMEType: mimeType}
	}

	start := time.Now()
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: oracle.SystemPrompt},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: "Extract the GST invoice fields from this document."},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
						URL:    dataURL(data, mimeType),
						Detail: openai.ImageURLDetailHigh,
					}},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "gst_invoice",
				Schema: c.schema,
				Strict: false,
			},
		},
	}

	c.log.Debug("oracle.openai.request", "model", c.model, "mime_type", mimeType, "size_bytes", len(data))

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}

	content := resp.Choices[0].Message.Content
	c.log.Debug("oracle.openai.response",
		"model", c.model,
		"finish_reason", resp.Choices[0].FinishReason,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}

func dataURL(data []byte, mimeType string) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

var _ extraction.Oracle = (*Client)(nil)
