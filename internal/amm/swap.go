package amm

import (
	"errors"
	"fmt"

	"github.com/aman-zulfiqar/a2a-swap/internal/constants"
	"lukechampine.com/uint128"
)

var (
	ErrNoLiquidity          = errors.New("no liquidity")
	ErrZeroAmount           = errors.New("amount must be greater than zero")
	ErrMathOverflow         = errors.New("math overflow")
	ErrSecondAmountRequired = errors.New("second amount required: pool has no LP supply yet")
	ErrDepositTooSmall      = errors.New("computed deposit amount is zero")
	ErrSlippageExceeded     = errors.New("slippage exceeded")
)

// SimulateResult is the full breakdown of a hypothetical swap.
type SimulateResult struct {
	Pool           string  `json:"pool,omitempty"`
	AToB           bool    `json:"a_to_b"`
	AmountIn       uint64  `json:"amount_in"`
	ProtocolFee    uint64  `json:"protocol_fee"`
	NetPoolInput   uint64  `json:"net_pool_input"`
	LPFee          uint64  `json:"lp_fee"`
	AfterFees      uint64  `json:"after_fees"`
	EstimatedOut   uint64  `json:"estimated_out"`
	EffectiveRate  float64 `json:"effective_rate"`
	PriceImpactPct float64 `json:"price_impact_pct"`
	FeeRateBps     uint16  `json:"fee_rate_bps"`
	ReserveIn      uint64  `json:"reserve_in"`
	ReserveOut     uint64  `json:"reserve_out"`
}

// Simulate reproduces the program's swap arithmetic:
//
//	protocolFee  = amountIn * 20 / 100000
//	netPoolInput = amountIn - protocolFee
//	lpFee        = netPoolInput * feeRateBps / 10000
//	afterFees    = netPoolInput - lpFee
//	estimatedOut = reserveOut * afterFees / (reserveIn + afterFees)
//
// EffectiveRate and PriceImpactPct are for display only.
func Simulate(reserveIn, reserveOut, amountIn uint64, feeRateBps uint16) (*SimulateResult, error) {
	if reserveIn == 0 || reserveOut == 0 {
		return nil, ErrNoLiquidity
	}

	protocolFee := mul64(amountIn, constants.ProtocolFeeNumerator).Div64(constants.ProtocolFeeDenominator)
	netPoolInput := uint128.From64(amountIn).Sub(protocolFee)

	lpFee, ok := mulChecked(netPoolInput, uint128.From64(uint64(feeRateBps)))
	if !ok {
		return nil, fmt.Errorf("lp fee: %w", ErrMathOverflow)
	}
	lpFee = lpFee.Div64(constants.BpsDenominator)
	if lpFee.Cmp(netPoolInput) > 0 {
		// fee rate above 100%
		return nil, fmt.Errorf("lp fee exceeds input: %w", ErrMathOverflow)
	}
	afterFees := netPoolInput.Sub(lpFee)

	num, ok := mulChecked(uint128.From64(reserveOut), afterFees)
	if !ok {
		return nil, fmt.Errorf("output numerator: %w", ErrMathOverflow)
	}
	den, ok := addChecked(uint128.From64(reserveIn), afterFees)
	if !ok {
		return nil, fmt.Errorf("output denominator: %w", ErrMathOverflow)
	}
	out, ok := narrow(num.Div(den))
	if !ok {
		return nil, fmt.Errorf("output: %w", ErrMathOverflow)
	}

	res := &SimulateResult{
		AmountIn:     amountIn,
		ProtocolFee:  protocolFee.Lo,
		NetPoolInput: netPoolInput.Lo,
		LPFee:        lpFee.Lo,
		AfterFees:    afterFees.Lo,
		EstimatedOut: out,
		FeeRateBps:   feeRateBps,
		ReserveIn:    reserveIn,
		ReserveOut:   reserveOut,
	}
	if amountIn > 0 {
		res.EffectiveRate = float64(out) / float64(amountIn)
	}
	res.PriceImpactPct = float64(afterFees.Lo) / (float64(reserveIn) + float64(afterFees.Lo)) * 100
	return res, nil
}

// MinAmountOut applies the slippage guard. slippageBps == 0 disables the guard
// and returns 0.
func MinAmountOut(estimatedOut uint64, slippageBps uint16) uint64 {
	if slippageBps == 0 {
		return 0
	}
	if slippageBps >= constants.BpsDenominator {
		return 0
	}
	cut := mul64(estimatedOut, uint64(slippageBps)).Div64(constants.BpsDenominator)
	return estimatedOut - cut.Lo
}
