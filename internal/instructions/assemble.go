package instructions

import (
	"errors"
	"fmt"

	"github.com/aman-zulfiqar/a2a-swap/internal/constants"
	"github.com/gagliardetto/solana-go"
)

// SwapPlan is a swap plus the native-asset steps that must surround it in
// the same transaction.
type SwapPlan struct {
	Pre  []solana.Instruction
	Swap solana.Instruction
	Post []solana.Instruction
}

// Instructions returns Pre, Swap and Post flattened in execution order.
func (p *SwapPlan) Instructions() []solana.Instruction {
	out := make([]solana.Instruction, 0, len(p.Pre)+1+len(p.Post))
	out = append(out, p.Pre...)
	out = append(out, p.Swap)
	return append(out, p.Post...)
}

// AssembleSwap wraps swap with wSOL handling. An input of wrapped SOL is
// funded from the agent's native balance first; an output of wrapped SOL has
// its account created ahead of the swap and closed back to the agent after.
func AssembleSwap(swap solana.Instruction, accts SwapAccounts, mintIn, mintOut solana.PublicKey, amountIn uint64) *SwapPlan {
	plan := &SwapPlan{Swap: swap}
	if IsWrappedSOL(mintIn) {
		plan.Pre = append(plan.Pre, WrapNative(accts.Agent, accts.AgentTokenIn, amountIn)...)
	}
	if IsWrappedSOL(mintOut) {
		plan.Pre = append(plan.Pre, NewCreateATAIdempotent(accts.Agent, accts.AgentTokenOut, accts.Agent, mintOut))
		plan.Post = append(plan.Post, UnwrapNative(accts.Agent, accts.AgentTokenOut)...)
	}
	return plan
}

var ErrZeroAmountIn = errors.New("amount_in must be greater than zero")

// ValidateSwap checks swap parameters before they are sent. A zero input is
// rejected; suspicious but legal values come back as warnings for the caller
// to surface.
func ValidateSwap(amountIn, minAmountOut uint64, slippageBps uint16) ([]string, error) {
	if amountIn == 0 {
		return nil, ErrZeroAmountIn
	}
	var warnings []string
	if minAmountOut > amountIn {
		warnings = append(warnings, fmt.Sprintf(
			"min_amount_out %d exceeds amount_in %d; check token decimals", minAmountOut, amountIn))
	}
	switch {
	case slippageBps == 0:
		warnings = append(warnings, "slippage guard disabled (0 bps); output is unprotected")
	case slippageBps > constants.SlippageWarnBps:
		warnings = append(warnings, fmt.Sprintf(
			"slippage tolerance %d bps is above %d bps", slippageBps, constants.SlippageWarnBps))
	}
	return warnings, nil
}
