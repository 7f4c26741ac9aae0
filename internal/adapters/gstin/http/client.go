package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"3tcapital/gstlens/internal/core/gstin"
)

// DefaultTimeout is the default timeout for registry requests.
const DefaultTimeout = 10 * time.Second

// maxBodyBytes caps how much of a registry response is read.
const maxBodyBytes = 1 << 20

// Client implements gstin.Registry against an HTTP taxpayer search API
// exposing GET {baseURL}/{gstin}.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     *slog.Logger
}

// NewClient creates a new registry HTTP client.
func NewClient(baseURL, apiKey string, httpClient *http.Client, log *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: DefaultTimeout,
		}
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  httpClient,
		log:     log,
	}
}

// registryResponse is the taxpayer payload; some deployments wrap it in "data".
type registryResponse struct {
	Data *registryTaxpayer `json:"data"`
	registryTaxpayer
}

type registryTaxpayer struct {
	GSTIN            string `json:"gstin"`
	LegalName        string `json:"legal_name"`
	TradeName        string `json:"trade_name"`
	Status           string `json:"status"`
	TaxpayerType     string `json:"taxpayer_type"`
	StateCode        string `json:"state_code"`
	State            string `json:"state"`
	RegistrationDate string `json:"registration_date"`
	Address          string `json:"address"`
}

// LookupGST retrieves taxpayer details for a GSTIN.
func (c *Client) LookupGST(ctx context.Context, id string) (*gstin.Info, error) {
	if id == "" {
		return nil, fmt.Errorf("gstin cannot be empty")
	}

	apiURL := c.baseURL + "/" + url.PathEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	c.log.Debug("Consulting GST registry", "gstin", id)

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn("Error consulting GST registry", "error", err, "gstin", id)
		return nil, fmt.Errorf("gst registry request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, gstin.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		c.log.Warn("GST registry returned non-200 status", "status", resp.StatusCode, "gstin", id)
		return nil, fmt.Errorf("gst registry returned status %d", resp.StatusCode)
	}

	var parsed registryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.log.Warn("Failed to parse GST registry response", "error", err, "gstin", id)
		return nil, fmt.Errorf("parse gst registry response: %w", err)
	}

	tp := parsed.registryTaxpayer
	if parsed.Data != nil {
		tp = *parsed.Data
	}
	if tp.GSTIN == "" && tp.LegalName == "" {
		return nil, gstin.ErrNotFound
	}
	if tp.GSTIN == "" {
		tp.GSTIN = id
	}

	info := &gstin.Info{
		GSTIN:            tp.GSTIN,
		LegalName:        tp.LegalName,
		TradeName:        tp.TradeName,
		Status:           tp.Status,
		TaxpayerType:     tp.TaxpayerType,
		StateCode:        tp.StateCode,
		State:            tp.State,
		RegistrationDate: tp.RegistrationDate,
		Address:          tp.Address,
	}

	c.log.Debug("Retrieved taxpayer from GST registry", "gstin", id, "legal_name", info.LegalName)
	return info, nil
}

var _ gstin.Registry = (*Client)(nil)
