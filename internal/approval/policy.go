package approval

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

const ModePolicy = "policy"

// DailyWindow is the rolling period the daily limit covers.
const DailyWindow = 24 * time.Hour

// PolicyConfig holds local risk limits. Zero values disable a check.
type PolicyConfig struct {
	// MaxAmountIn caps a single swap, in atomic units of the input token.
	MaxAmountIn uint64
	// DailyLimit caps the rolling 24h input volume per input token.
	DailyLimit uint64
	// MaxPriceImpactPct rejects swaps that move the pool more than this.
	MaxPriceImpactPct float64
	// AllowedTokens is a whitelist of token labels (symbols or mints).
	AllowedTokens []string
}

// UsageStore keeps approved input volume per token over a rolling window.
// cache.UsageStore shares it between processes through Redis.
type UsageStore interface {
	// Reserve records amount for token when the window total stays within
	// limit. It returns the total used before the call.
	Reserve(ctx context.Context, token string, amount, limit uint64, window time.Duration, now time.Time) (used uint64, ok bool, err error)
	Usage(ctx context.Context, token string, window time.Duration, now time.Time) (uint64, error)
}

// Policy approves swaps that stay within PolicyConfig. Approved volume
// counts towards the daily limit immediately.
type Policy struct {
	cfg     PolicyConfig
	allowed map[string]struct{}
	usage   UsageStore
	now     func() time.Time
}

// NewPolicy builds a policy gate. A nil usage store keeps volume in memory,
// which only limits swaps made through this Policy value.
func NewPolicy(cfg PolicyConfig, usage UsageStore) *Policy {
	if usage == nil {
		usage = NewMemoryUsage()
	}
	p := &Policy{
		cfg:   cfg,
		usage: usage,
		now:   time.Now,
	}
	if len(cfg.AllowedTokens) > 0 {
		p.allowed = make(map[string]struct{}, len(cfg.AllowedTokens))
		for _, t := range cfg.AllowedTokens {
			p.allowed[strings.ToUpper(strings.TrimSpace(t))] = struct{}{}
		}
	}
	return p
}

func (p *Policy) Approve(ctx context.Context, req Request) error {
	if p.allowed != nil {
		for _, tok := range []string{req.TokenIn, req.TokenOut} {
			if _, ok := p.allowed[strings.ToUpper(tok)]; !ok {
				return fmt.Errorf("%w: token %s is not whitelisted", ErrRejected, tok)
			}
		}
	}
	if p.cfg.MaxAmountIn > 0 && req.AmountIn > p.cfg.MaxAmountIn {
		return fmt.Errorf("%w: amount %d exceeds max %d per swap", ErrRejected, req.AmountIn, p.cfg.MaxAmountIn)
	}
	if p.cfg.MaxPriceImpactPct > 0 && req.PriceImpactPct > p.cfg.MaxPriceImpactPct {
		return fmt.Errorf("%w: price impact %.2f%% exceeds max %.2f%%", ErrRejected, req.PriceImpactPct, p.cfg.MaxPriceImpactPct)
	}
	if p.cfg.DailyLimit == 0 {
		return nil
	}

	used, ok, err := p.usage.Reserve(ctx, req.TokenIn, req.AmountIn, p.cfg.DailyLimit, DailyWindow, p.now())
	if err != nil {
		return fmt.Errorf("daily usage for %s: %w", req.TokenIn, err)
	}
	if !ok {
		return fmt.Errorf("%w: daily limit for %s exceeded: used %d + %d > %d", ErrRejected, req.TokenIn, used, req.AmountIn, p.cfg.DailyLimit)
	}
	return nil
}

// DailyUsage is the input volume approved for token in the last 24h.
func (p *Policy) DailyUsage(ctx context.Context, token string) (uint64, error) {
	return p.usage.Usage(ctx, token, DailyWindow, p.now())
}

// MemoryUsage is a process-local UsageStore.
type MemoryUsage struct {
	mu      sync.Mutex
	records map[string][]usageRecord
}

type usageRecord struct {
	at     time.Time
	amount uint64
}

func NewMemoryUsage() *MemoryUsage {
	return &MemoryUsage{records: make(map[string][]usageRecord)}
}

func (m *MemoryUsage) Reserve(_ context.Context, token string, amount, limit uint64, window time.Duration, now time.Time) (uint64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	used := m.prune(token, now.Add(-window))
	if used+amount > limit || used+amount < used {
		return used, false, nil
	}
	m.records[token] = append(m.records[token], usageRecord{at: now, amount: amount})
	return used, true, nil
}

func (m *MemoryUsage) Usage(_ context.Context, token string, window time.Duration, now time.Time) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prune(token, now.Add(-window)), nil
}

// prune drops records at or before cutoff and sums the rest. Callers hold mu.
func (m *MemoryUsage) prune(token string, cutoff time.Time) uint64 {
	kept := m.records[token][:0]
	var total uint64
	for _, r := range m.records[token] {
		if r.at.After(cutoff) {
			kept = append(kept, r)
			total += r.amount
		}
	}
	m.records[token] = kept
	return total
}
