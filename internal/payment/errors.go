package payment

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidPayload     = errors.New("invalid payment payload")
	ErrVerificationFailed = errors.New("payment verification failed")
)

// HTTPError is a non-2xx facilitator response.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	b := strings.TrimSpace(string(e.Body))
	if b == "" {
		return fmt.Sprintf("facilitator http %d", e.StatusCode)
	}
	return fmt.Sprintf("facilitator http %d: %s", e.StatusCode, b)
}

// SettlementError means the credential was accepted but settlement did not
// confirm. The credential may already be spent, so callers retry the same
// request after RetryAfter instead of paying again.
type SettlementError struct {
	Reason     string
	RetryAfter time.Duration
	Err        error
}

func (e *SettlementError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payment settlement failed: %s: %v", e.Reason, e.Err)
	}
	return "payment settlement failed: " + e.Reason
}

func (e *SettlementError) Unwrap() error { return e.Err }
