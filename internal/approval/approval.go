package approval

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	ModeNone    = "none"
	ModeWebhook = "webhook"
)

var ErrRejected = errors.New("swap rejected by approver")

// Request describes the swap awaiting approval.
type Request struct {
	Agent          string  `json:"agent"`
	Pool           string  `json:"pool"`
	TokenIn        string  `json:"token_in"`
	TokenOut       string  `json:"token_out"`
	AmountIn       uint64  `json:"amount_in"`
	EstimatedOut   uint64  `json:"estimated_out"`
	MinAmountOut   uint64  `json:"min_amount_out"`
	PriceImpactPct float64 `json:"price_impact_pct"`
}

// Gate decides whether a planned swap may be sent.
type Gate interface {
	Approve(ctx context.Context, req Request) error
}

// Options configures the gate returned by New.
type Options struct {
	// WebhookURL is required for ModeWebhook.
	WebhookURL string
	Policy     PolicyConfig
	Usage      UsageStore // policy volume; nil keeps it in memory
	Logger     *logrus.Logger
}

// New returns the gate for mode.
func New(mode string, opts Options) (Gate, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeNone:
		return none{}, nil
	case ModeWebhook:
		if strings.TrimSpace(opts.WebhookURL) == "" {
			return nil, fmt.Errorf("webhook url is required when approval mode is %q", ModeWebhook)
		}
		return NewWebhook(opts.WebhookURL, opts.Logger), nil
	case ModePolicy:
		return NewPolicy(opts.Policy, opts.Usage), nil
	default:
		return nil, fmt.Errorf("unknown approval mode %q (valid: %s, %s, %s)", mode, ModeNone, ModeWebhook, ModePolicy)
	}
}

type none struct{}

func (none) Approve(context.Context, Request) error { return nil }

// Webhook POSTs the request and waits for {"approved": bool, "reason": ...}.
type Webhook struct {
	URL    string
	HTTP   *http.Client
	logger *logrus.Logger
}

func NewWebhook(url string, logger *logrus.Logger) *Webhook {
	if logger == nil {
		logger = logrus.New()
	}
	return &Webhook{
		URL:    strings.TrimSpace(url),
		HTTP:   &http.Client{Timeout: 2 * time.Minute},
		logger: logger,
	}
}

type webhookResponse struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason"`
}

func (w *Webhook) Approve(ctx context.Context, req Request) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	w.logger.WithFields(logrus.Fields{"url": w.URL, "pool": req.Pool, "amount_in": req.AmountIn}).Info("waiting for swap approval")
	res, err := w.HTTP.Do(httpReq)
	if err != nil {
		return fmt.Errorf("approval webhook: %w", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("approval webhook http %d: %s", res.StatusCode, strings.TrimSpace(string(respBody)))
	}
	var out webhookResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return fmt.Errorf("failed to decode approval response: %w", err)
	}
	if !out.Approved {
		if out.Reason != "" {
			return fmt.Errorf("%w: %s", ErrRejected, out.Reason)
		}
		return ErrRejected
	}
	return nil
}
