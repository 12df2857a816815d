package payment

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aman-zulfiqar/a2a-swap/internal/constants"
)

// Config prices one gated resource. Requirements are rebuilt from it on
// every request; the gate keeps nothing between a challenge and the retry.
type Config struct {
	Network           string
	Asset             string
	PayTo             string
	Amount            string
	MaxTimeoutSeconds int
	Description       string
	MimeType          string
	// FeePayer is the facilitator account that pays the network fee on
	// Solana exact payments. It is sent as extra.feePayer.
	FeePayer string
	// Extra holds further fields the payment scheme defines.
	Extra map[string]any
	// PublicURL overrides the scheme and host used in the resource URI,
	// for deployments behind a proxy.
	PublicURL string

	VerifyTimeout time.Duration
	SettleTimeout time.Duration
	RetryAfter    time.Duration
}

func (c Config) withDefaults() Config {
	if c.Network == "" {
		c.Network = "solana"
	}
	if c.Asset == "" {
		c.Asset = constants.USDCMint
	}
	if c.Amount == "" {
		c.Amount = "1000"
	}
	if c.MaxTimeoutSeconds <= 0 {
		c.MaxTimeoutSeconds = 60
	}
	if c.MimeType == "" {
		c.MimeType = "application/json"
	}
	if c.VerifyTimeout <= 0 {
		c.VerifyTimeout = constants.DefaultVerifyTimeout
	}
	if c.SettleTimeout <= 0 {
		c.SettleTimeout = constants.DefaultSettleTimeout
	}
	if c.RetryAfter <= 0 {
		c.RetryAfter = constants.DefaultSettleRetryHint
	}
	return c
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.PayTo) == "" {
		return fmt.Errorf("payment pay-to address is required")
	}
	return nil
}

// Requirements builds the terms for the resource r addresses.
func (c Config) Requirements(r *http.Request) PaymentRequirements {
	return PaymentRequirements{
		Scheme:            constants.PaymentScheme,
		Network:           c.Network,
		MaxAmountRequired: c.Amount,
		Resource:          c.resource(r),
		Description:       c.Description,
		MimeType:          c.MimeType,
		PayTo:             c.PayTo,
		MaxTimeoutSeconds: c.MaxTimeoutSeconds,
		Asset:             c.Asset,
		Extra:             c.extra(),
	}
}

func (c Config) extra() map[string]any {
	if len(c.Extra) == 0 && c.FeePayer == "" {
		return nil
	}
	out := make(map[string]any, len(c.Extra)+1)
	for k, v := range c.Extra {
		out[k] = v
	}
	if c.FeePayer != "" {
		out["feePayer"] = c.FeePayer
	}
	return out
}

func (c Config) resource(r *http.Request) string {
	base := strings.TrimRight(c.PublicURL, "/")
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return base + r.URL.Path
}
