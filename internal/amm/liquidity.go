package amm

import (
	"fmt"
	"math/big"

	"github.com/aman-zulfiqar/a2a-swap/internal/codec"
	"lukechampine.com/uint128"
)

// PendingFees returns lpShares * (global - checkpoint) >> 64. A global value
// behind the checkpoint is a stale read and yields zero.
func PendingFees(lpShares uint64, global, checkpoint uint128.Uint128) (uint64, error) {
	delta := subSaturating(global, checkpoint)
	if delta.IsZero() || lpShares == 0 {
		return 0, nil
	}
	prod, ok := mulChecked(uint128.From64(lpShares), delta)
	if !ok {
		return 0, fmt.Errorf("pending fees: %w", ErrMathOverflow)
	}
	// after >> 64 only the high word is left, which always fits u64
	return prod.Rsh(64).Lo, nil
}

// PendingFeesForPosition returns the fees accrued since the position's last
// on-chain sync, for both sides of the pool.
func PendingFeesForPosition(pos *codec.PositionState, pool *codec.PoolState) (uint64, uint64, error) {
	a, err := PendingFees(pos.LPShares, pool.FeeGrowthGlobalA, pos.FeeGrowthCheckpointA)
	if err != nil {
		return 0, 0, err
	}
	b, err := PendingFees(pos.LPShares, pool.FeeGrowthGlobalB, pos.FeeGrowthCheckpointB)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

// ProportionalAmount computes the other side of a deposit from live reserves:
// floor(amountGiven * otherReserve / givenReserve). An explicit amount is
// returned unchanged. A pool with no LP supply has no ratio yet, so the caller
// must supply both amounts.
func ProportionalAmount(amountGiven uint64, explicitOther *uint64, givenReserve, otherReserve, lpSupply uint64) (uint64, error) {
	if explicitOther != nil {
		return *explicitOther, nil
	}
	if lpSupply == 0 {
		return 0, ErrSecondAmountRequired
	}
	if givenReserve == 0 {
		return 0, ErrNoLiquidity
	}
	v, ok := narrow(mul64(amountGiven, otherReserve).Div64(givenReserve))
	if !ok {
		return 0, fmt.Errorf("proportional amount: %w", ErrMathOverflow)
	}
	if v == 0 {
		return 0, ErrDepositTooSmall
	}
	return v, nil
}

// ISqrt is floor(sqrt(n)).
func ISqrt(n uint128.Uint128) uint128.Uint128 {
	if n.IsZero() {
		return uint128.Zero
	}
	r := new(big.Int).Sqrt(n.Big())
	return uint128.FromBig(r)
}

// EstimateLPShares predicts the shares minted for a deposit of (amountA,
// amountB) in pool order. The first deposit mints isqrt(a*b); later ones mint
// the smaller of the two proportional claims.
func EstimateLPShares(amountA, amountB, reserveA, reserveB, lpSupply uint64) (uint64, error) {
	if amountA == 0 || amountB == 0 {
		return 0, ErrZeroAmount
	}
	if lpSupply == 0 {
		lp, ok := narrow(ISqrt(mul64(amountA, amountB)))
		if !ok {
			return 0, fmt.Errorf("initial lp: %w", ErrMathOverflow)
		}
		return lp, nil
	}
	if reserveA == 0 || reserveB == 0 {
		return 0, ErrNoLiquidity
	}
	lpA := mul64(amountA, lpSupply).Div64(reserveA)
	lpB := mul64(amountB, lpSupply).Div64(reserveB)
	lp := lpA
	if lpB.Cmp(lpA) < 0 {
		lp = lpB
	}
	out, ok := narrow(lp)
	if !ok {
		return 0, fmt.Errorf("lp shares: %w", ErrMathOverflow)
	}
	return out, nil
}

// RemoveLiquidityAmounts is the pro-rata withdrawal for lpShares.
func RemoveLiquidityAmounts(lpShares, reserveA, reserveB, lpSupply uint64) (uint64, uint64, error) {
	if lpShares == 0 {
		return 0, 0, ErrZeroAmount
	}
	if lpSupply == 0 {
		return 0, 0, ErrNoLiquidity
	}
	if lpShares > lpSupply {
		return 0, 0, fmt.Errorf("lp shares %d exceed supply %d", lpShares, lpSupply)
	}
	a := mul64(lpShares, reserveA).Div64(lpSupply)
	b := mul64(lpShares, reserveB).Div64(lpSupply)
	return a.Lo, b.Lo, nil
}

// ClaimPreview describes what claim-fees would do for a position.
type ClaimPreview struct {
	FeesA        uint64 `json:"fees_a"`
	FeesB        uint64 `json:"fees_b"`
	Compounds    bool   `json:"compounds"`
	NewLPShares  uint64 `json:"new_lp_shares,omitempty"`
	TotalClaimed uint64 `json:"total_claimed"`
}

// PreviewClaim totals owed plus pending fees. With auto-compound enabled and
// the total at or above the threshold, the fees are reinvested as LP shares
// instead of transferred.
func PreviewClaim(pos *codec.PositionState, pool *codec.PoolState, reserveA, reserveB uint64) (*ClaimPreview, error) {
	pendA, pendB, err := PendingFeesForPosition(pos, pool)
	if err != nil {
		return nil, err
	}
	p := &ClaimPreview{
		FeesA: saturatingAdd(pos.FeesOwedA, pendA),
		FeesB: saturatingAdd(pos.FeesOwedB, pendB),
	}
	p.TotalClaimed = saturatingAdd(p.FeesA, p.FeesB)

	if !pos.AutoCompound || p.TotalClaimed < pos.CompoundThreshold || pool.LPSupply == 0 {
		return p, nil
	}
	// a drained reserve contributes zero, which falls back to a transfer
	var lpA, lpB uint128.Uint128
	if reserveA > 0 {
		lpA = mul64(p.FeesA, pool.LPSupply).Div64(reserveA)
	}
	if reserveB > 0 {
		lpB = mul64(p.FeesB, pool.LPSupply).Div64(reserveB)
	}
	lp := lpA
	if lpB.Cmp(lpA) < 0 {
		lp = lpB
	}
	newLP, ok := narrow(lp)
	if !ok {
		return nil, fmt.Errorf("compound lp: %w", ErrMathOverflow)
	}
	if newLP > 0 {
		p.Compounds = true
		p.NewLPShares = newLP
	}
	return p, nil
}

func saturatingAdd(a, b uint64) uint64 {
	if s := a + b; s >= a {
		return s
	}
	return ^uint64(0)
}
