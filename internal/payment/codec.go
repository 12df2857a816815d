package payment

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aman-zulfiqar/a2a-swap/internal/constants"
)

// DecodeHeader parses an X-PAYMENT header value: base64 of the JSON payload.
func DecodeHeader(header string) (*PaymentPayload, error) {
	header = strings.TrimSpace(header)
	raw, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		// some clients send unpadded or URL-safe base64
		raw, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(header, "="))
		if err != nil {
			return nil, fmt.Errorf("%w: not base64", ErrInvalidPayload)
		}
	}
	var p PaymentPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if len(p.Payload) == 0 || string(p.Payload) == "null" {
		return nil, fmt.Errorf("%w: missing payload", ErrInvalidPayload)
	}
	return &p, nil
}

// EncodeHeader is the inverse of DecodeHeader for any JSON value.
func EncodeHeader(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// Match checks the payload answers req.
func (p *PaymentPayload) Match(req PaymentRequirements) error {
	if p.X402Version != constants.X402Version {
		return fmt.Errorf("%w: unsupported x402Version %d", ErrInvalidPayload, p.X402Version)
	}
	if p.Scheme != req.Scheme {
		return fmt.Errorf("%w: scheme %q, want %q", ErrInvalidPayload, p.Scheme, req.Scheme)
	}
	if p.Network != req.Network {
		return fmt.Errorf("%w: network %q, want %q", ErrInvalidPayload, p.Network, req.Network)
	}
	return nil
}
