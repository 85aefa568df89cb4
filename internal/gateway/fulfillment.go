package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// FulfillmentProvider executes orders. It is an untrusted, sometimes-failing
// dependency: callers treat any error as terminal for the current attempt.
type FulfillmentProvider interface {
	// SubmitOrder places an order with the provider and returns the
	// provider-side tracking id.
	SubmitOrder(ctx context.Context, providerServiceID string, quantity int, link string) (string, error)
}

// ErrProviderRejected is returned when the provider delivers a non-success
// response for a submission.
var ErrProviderRejected = errors.New("fulfillment provider rejected order")

// FulfillmentClient talks to the external fulfillment provider's order API.
type FulfillmentClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewFulfillmentClient(baseURL, apiKey string, timeout time.Duration) *FulfillmentClient {
	return &FulfillmentClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type submitOrderRequest struct {
	Service  string `json:"service"`
	Quantity int    `json:"quantity"`
	Link     string `json:"link"`
}

type submitOrderResponse struct {
	OrderID string `json:"order_id"`
	Error   string `json:"error"`
}

func (c *FulfillmentClient) SubmitOrder(ctx context.Context, providerServiceID string, quantity int, link string) (string, error) {
	body, err := json.Marshal(submitOrderRequest{
		Service:  providerServiceID,
		Quantity: quantity,
		Link:     link,
	})
	if err != nil {
		return "", fmt.Errorf("encode order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v2/order", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build order request: %w", err)
	}
	req.Header.Set("API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("provider call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d", ErrProviderRejected, resp.StatusCode)
	}

	var decoded submitOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode provider response: %w", err)
	}
	if decoded.OrderID == "" {
		if decoded.Error != "" {
			return "", fmt.Errorf("%w: %s", ErrProviderRejected, decoded.Error)
		}
		return "", fmt.Errorf("%w: missing order id", ErrProviderRejected)
	}
	return decoded.OrderID, nil
}
