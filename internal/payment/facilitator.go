package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aman-zulfiqar/a2a-swap/internal/constants"
)

// Facilitator verifies and settles payment credentials.
type Facilitator interface {
	Verify(ctx context.Context, p *PaymentPayload, req PaymentRequirements) (*VerifyResponse, error)
	Settle(ctx context.Context, p *PaymentPayload, req PaymentRequirements) (*SettleResponse, error)
}

// HTTPFacilitator talks to a facilitator's /verify and /settle endpoints.
// Deadlines come from the caller's context.
type HTTPFacilitator struct {
	BaseURL string
	HTTP    *http.Client
}

func NewHTTPFacilitator(baseURL string) *HTTPFacilitator {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "https://x402.org/facilitator"
	}
	return &HTTPFacilitator{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (f *HTTPFacilitator) Verify(ctx context.Context, p *PaymentPayload, req PaymentRequirements) (*VerifyResponse, error) {
	var out VerifyResponse
	if err := f.post(ctx, "/verify", p, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (f *HTTPFacilitator) Settle(ctx context.Context, p *PaymentPayload, req PaymentRequirements) (*SettleResponse, error) {
	var out SettleResponse
	if err := f.post(ctx, "/settle", p, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (f *HTTPFacilitator) post(ctx context.Context, path string, p *PaymentPayload, req PaymentRequirements, out any) error {
	body, err := json.Marshal(facilitatorRequest{
		X402Version:         constants.X402Version,
		PaymentPayload:      p,
		PaymentRequirements: req,
	})
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, f.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("accept", "application/json")

	res, err := f.HTTP.Do(httpReq)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &HTTPError{StatusCode: res.StatusCode, Body: respBody}
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode facilitator %s response: %w", path, err)
	}
	return nil
}
