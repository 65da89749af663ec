package tokenledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the token ledger service over HTTP.
type Client struct {
	BaseURL        string
	APIKey         string
	CustodyAccount string
	client         *http.Client
}

// NewClient creates a new token ledger client.
func NewClient(baseURL, apiKey, custodyAccount string) *Client {
	return &Client{
		BaseURL:        baseURL,
		APIKey:         apiKey,
		CustodyAccount: custodyAccount,
		client:         &http.Client{Timeout: 10 * time.Second},
	}
}

type transferRequest struct {
	Asset  string `json:"asset"`
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

type transferResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// TransferFrom debits payer in favour of the custody account.
func (c *Client) TransferFrom(ctx context.Context, asset, payer string, amount uint64) error {
	return c.post(ctx, transferRequest{Asset: asset, From: payer, To: c.CustodyAccount, Amount: amount})
}

// Transfer pays out from the custody account to recipient.
func (c *Client) Transfer(ctx context.Context, asset, recipient string, amount uint64) error {
	return c.post(ctx, transferRequest{Asset: asset, From: c.CustodyAccount, To: recipient, Amount: amount})
}

func (c *Client) post(ctx context.Context, body transferRequest) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode transfer request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/transfers", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build transfer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("token ledger request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read token ledger response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token ledger returned status %d: %s", resp.StatusCode, string(raw))
	}

	var result transferResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("failed to decode token ledger response: %w", err)
	}
	if result.Status != "SUCCESS" {
		return fmt.Errorf("transfer rejected by token ledger: %s", result.Error)
	}
	return nil
}
