// Package suggest calls the external stock-adjustment suggestion service.
// The service wraps a generative model; from here it is an opaque, slow
// and occasionally failing HTTP collaborator with no side effects.
package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pharmastock/pharmastock-backend/pkg/config"
	"github.com/pharmastock/pharmastock-backend/pkg/errors"
)

// Request describes the lot the caller wants advice about
type Request struct {
	DrugName     string `json:"drug_name" validate:"required"`
	CurrentStock int    `json:"current_stock" validate:"gte=0"`
	ExpiryDate   string `json:"expiry_date,omitempty"`
}

// Suggestion is the adjustment advice returned by the service
type Suggestion struct {
	AdjustmentSuggestion string `json:"adjustment_suggestion"`
	SuggestedQuantity    *int   `json:"suggested_quantity,omitempty"`
	Reason               string `json:"reason,omitempty"`
}

// Client is an HTTP client for the suggestion service
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a suggestion client from config
func NewClient(cfg *config.SuggestionConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second // generative inference can take a while
	}

	return &Client{
		baseURL: cfg.URL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Suggest requests a stock-adjustment suggestion. Any transport, status
// or decoding failure is surfaced as a RemoteService error; the call has
// no side effects so the caller may simply retry.
func (c *Client) Suggest(ctx context.Context, sr Request) (*Suggestion, error) {
	body, err := json.Marshal(sr)
	if err != nil {
		return nil, fmt.Errorf("suggest: encode request: %w", err)
	}

	url := c.baseURL + "/api/v1/suggest"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("suggest: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.RemoteService("suggestion", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.RemoteService("suggestion", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.RemoteService("suggestion",
			fmt.Errorf("suggestion service returned %d: %s", resp.StatusCode, string(respBody)))
	}

	var suggestion Suggestion
	if err := json.Unmarshal(respBody, &suggestion); err != nil {
		return nil, errors.RemoteService("suggestion", fmt.Errorf("parse response: %w", err))
	}

	if suggestion.AdjustmentSuggestion == "" {
		return nil, errors.RemoteService("suggestion", fmt.Errorf("empty suggestion in response"))
	}

	return &suggestion, nil
}
