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

// PaymentGateway initiates a hosted checkout for a deposit. Settlement is
// delivered later through the signed webhook.
type PaymentGateway interface {
	// InitializeCharge starts a charge for amount in minor units and returns
	// the URL the customer completes payment at.
	InitializeCharge(ctx context.Context, req ChargeRequest) (string, error)
}

// ErrGatewayRejected is returned when the gateway answers with a
// non-success status for an otherwise delivered request.
var ErrGatewayRejected = errors.New("payment gateway rejected charge")

type ChargeRequest struct {
	AmountMinor int64  `json:"amount"`
	Reference   string `json:"reference"`
	Customer    struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"customer"`
	RedirectURL string `json:"redirect_url"`
	Currency    string `json:"currency"`
}

// PaymentClient talks to the external payment gateway's initialize API.
type PaymentClient struct {
	baseURL string
	secret  string
	http    *http.Client
}

func NewPaymentClient(baseURL, secret string, timeout time.Duration) *PaymentClient {
	return &PaymentClient{
		baseURL: baseURL,
		secret:  secret,
		http:    &http.Client{Timeout: timeout},
	}
}

type initializeResponse struct {
	Status string `json:"status"`
	Data   struct {
		CheckoutURL string `json:"checkout_url"`
	} `json:"data"`
	Message string `json:"message"`
}

func (c *PaymentClient) InitializeCharge(ctx context.Context, req ChargeRequest) (string, error) {
	if req.Currency == "" {
		req.Currency = "NGN"
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode charge request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/merchant/initialize", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build charge request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secret)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("payment gateway call failed: %w", err)
	}
	defer resp.Body.Close()

	var decoded initializeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode gateway response: %w", err)
	}
	if resp.StatusCode >= 300 || decoded.Status != "success" {
		if decoded.Message != "" {
			return "", fmt.Errorf("%w: %s", ErrGatewayRejected, decoded.Message)
		}
		return "", ErrGatewayRejected
	}
	if decoded.Data.CheckoutURL == "" {
		return "", fmt.Errorf("gateway returned empty checkout url")
	}
	return decoded.Data.CheckoutURL, nil
}
