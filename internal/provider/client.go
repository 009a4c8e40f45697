package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"resultpay/internal/errors"
	"resultpay/internal/model"
)

// ChargeRequest captures what the provider needs to open a mobile-money charge.
type ChargeRequest struct {
	ExamID     string
	Phone      string
	Email      string
	Amount     decimal.Decimal
	Currency   string
	CallbackID string
}

// ChargeResponse is the provider's answer to an initiated charge.
type ChargeResponse struct {
	ChargeID       string
	CorrelationRef string
	RawPayload     json.RawMessage
}

// StatusResponse is the provider's current view of one charge.
type StatusResponse struct {
	Status        model.CanonicalStatus
	FailureReason string
	RawPayload    json.RawMessage
}

// Client abstracts outbound calls to the payment provider. A query issued
// immediately after initiation may legitimately still answer pending even
// when a webhook for the same charge is in flight.
type Client interface {
	InitiateCharge(ctx context.Context, req ChargeRequest) (*ChargeResponse, error)
	QueryStatus(ctx context.Context, chargeID string) (*StatusResponse, error)
}

type httpClient struct {
	baseURL   string
	secretKey string
	http      *http.Client
}

// NewHTTPClient creates a provider client with a bounded request timeout so
// a slow provider cannot stall a verification request indefinitely.
func NewHTTPClient(baseURL, secretKey string, timeout time.Duration) Client {
	return &httpClient{
		baseURL:   baseURL,
		secretKey: secretKey,
		http:      &http.Client{Timeout: timeout},
	}
}

type initiatePayload struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email,omitempty"`
	APIRef      string `json:"api_ref"`
}

type initiateResponse struct {
	Invoice struct {
		InvoiceID string `json:"invoice_id"`
		APIRef    string `json:"api_ref"`
		State     string `json:"state"`
	} `json:"invoice"`
}

type statusQueryPayload struct {
	InvoiceID string `json:"invoice_id"`
}

type statusQueryResponse struct {
	Invoice struct {
		InvoiceID    string `json:"invoice_id"`
		State        string `json:"state"`
		FailedReason string `json:"failed_reason"`
	} `json:"invoice"`
}

// InitiateCharge opens a charge and returns the provider's charge id paired
// with the correlation reference the rest of the system joins on.
func (c *httpClient) InitiateCharge(ctx context.Context, req ChargeRequest) (*ChargeResponse, error) {
	ref := req.CallbackID
	if ref == "" {
		ref = NewAPIRef(req.ExamID)
	}
	payload := initiatePayload{
		Amount:      req.Amount.StringFixed(2),
		Currency:    req.Currency,
		PhoneNumber: req.Phone,
		Email:       req.Email,
		APIRef:      ref,
	}

	raw, err := c.post(ctx, "/api/v1/payment/collection/", payload)
	if err != nil {
		return nil, err
	}

	var decoded initiateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrProviderMalformed, err)
	}
	if decoded.Invoice.InvoiceID == "" {
		return nil, fmt.Errorf("%w: missing invoice_id", errors.ErrProviderMalformed)
	}
	return &ChargeResponse{
		ChargeID:       decoded.Invoice.InvoiceID,
		CorrelationRef: ref,
		RawPayload:     raw,
	}, nil
}

// QueryStatus asks the provider for its current view of one charge.
func (c *httpClient) QueryStatus(ctx context.Context, chargeID string) (*StatusResponse, error) {
	raw, err := c.post(ctx, "/api/v1/payment/status/", statusQueryPayload{InvoiceID: chargeID})
	if err != nil {
		return nil, err
	}

	var decoded statusQueryResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrProviderMalformed, err)
	}
	if decoded.Invoice.State == "" {
		return nil, fmt.Errorf("%w: missing state", errors.ErrProviderMalformed)
	}
	return &StatusResponse{
		Status:        NormalizeStatus(decoded.Invoice.State),
		FailureReason: decoded.Invoice.FailedReason,
		RawPayload:    raw,
	}, nil
}

func (c *httpClient) post(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	var raw json.RawMessage
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.ErrProviderNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, errors.ErrUnauthorized
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: provider returned %d", errors.ErrProviderUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: provider returned %d", errors.ErrProviderMalformed, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrProviderMalformed, err)
	}
	return raw, nil
}
