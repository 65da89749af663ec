package randoracle

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the randomness oracle service over HTTP. Seed delivery
// arrives out of band on the callback endpoint this service exposes.
type Client struct {
	BaseURL     string
	APIKey      string
	CallbackURL string
	client      *http.Client
}

// NewClient creates a new oracle client.
func NewClient(baseURL, apiKey, callbackURL string) *Client {
	return &Client{
		BaseURL:     baseURL,
		APIKey:      apiKey,
		CallbackURL: callbackURL,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

type seedRequest struct {
	Salt        string `json:"salt"`
	CallbackURL string `json:"callbackUrl"`
}

type seedResponse struct {
	RequestID string `json:"requestId"`
	Error     string `json:"error,omitempty"`
}

type feeResponse struct {
	Fee uint64 `json:"fee"`
}

// RequestSeed submits a seed request and returns the oracle's correlation id.
func (c *Client) RequestSeed(ctx context.Context, salt [32]byte) (string, error) {
	payload, err := json.Marshal(seedRequest{
		Salt:        hex.EncodeToString(salt[:]),
		CallbackURL: c.CallbackURL,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode seed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/requests", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build seed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("oracle request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read oracle response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("oracle returned status %d: %s", resp.StatusCode, string(raw))
	}

	var result seedResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("failed to decode oracle response: %w", err)
	}
	if result.RequestID == "" {
		return "", fmt.Errorf("oracle rejected seed request: %s", result.Error)
	}
	return result.RequestID, nil
}

// RequestFee reports the oracle's current per-request fee.
func (c *Client) RequestFee(ctx context.Context) (uint64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/fees", nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build fee request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("oracle fee request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("oracle returned status %d", resp.StatusCode)
	}

	var result feeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("failed to decode oracle fee response: %w", err)
	}
	return result.Fee, nil
}
