package client

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/a2a-swap/internal/amm"
	"github.com/aman-zulfiqar/a2a-swap/internal/instructions"
	"github.com/aman-zulfiqar/a2a-swap/internal/pda"
)

// SwapParams describes a swap from the agent's point of view.
type SwapParams struct {
	Agent    solana.PublicKey
	MintIn   solana.PublicKey
	MintOut  solana.PublicKey
	AmountIn uint64
	// MaxSlippageBps nil means the configured default; zero disables the
	// guard.
	MaxSlippageBps *uint16
}

func (c *Client) slippage(p *uint16) uint16 {
	if p == nil {
		return c.defaultSlippageBps
	}
	return *p
}

// SwapPlan is an unsigned swap ready to be signed by the agent.
type SwapPlan struct {
	Pool         solana.PublicKey
	AToB         bool
	MinAmountOut uint64
	SlippageBps  uint16
	Simulation   *amm.SimulateResult
	Accounts     instructions.SwapAccounts
	// Swap is the program instruction alone; Steps adds any wSOL handling
	// around it in execution order.
	Swap     solana.Instruction
	Steps    []solana.Instruction
	Warnings []string
}

// BuildSwap resolves the pool, simulates against live reserves, applies the
// slippage guard and assembles the instruction list. Nothing is sent.
func (c *Client) BuildSwap(ctx context.Context, p SwapParams) (*SwapPlan, error) {
	return c.buildSwap(ctx, p, nil)
}

func (c *Client) buildSwap(ctx context.Context, p SwapParams, approver *solana.PublicKey) (*SwapPlan, error) {
	if p.AmountIn == 0 {
		return nil, amm.ErrZeroAmount
	}
	if p.Agent.IsZero() {
		return nil, fmt.Errorf("agent public key is required")
	}

	q, err := c.quote(ctx, p.MintIn, p.MintOut, p.AmountIn)
	if err != nil {
		return nil, err
	}

	// the program rejects a swap that pays out nothing
	if q.sim.EstimatedOut == 0 {
		return nil, fmt.Errorf("%w: swap of %d yields no output", amm.ErrZeroAmount, p.AmountIn)
	}

	slippageBps := c.slippage(p.MaxSlippageBps)
	minOut := amm.MinAmountOut(q.sim.EstimatedOut, slippageBps)

	warnings, err := instructions.ValidateSwap(p.AmountIn, minOut, slippageBps)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		c.logger.WithField("pool", q.sim.Pool).Warn(w)
	}

	accts, err := c.swapAccounts(q.match, p.Agent, p.MintIn, p.MintOut)
	if err != nil {
		return nil, err
	}

	args := instructions.SwapArgs{AmountIn: p.AmountIn, MinAmountOut: minOut, AToB: q.match.AToB()}
	var ix solana.Instruction
	if approver != nil {
		ix, err = instructions.NewApproveAndExecute(c.programID, *accts, *approver, args)
	} else {
		ix, err = instructions.NewSwap(c.programID, *accts, args)
	}
	if err != nil {
		return nil, err
	}

	steps := instructions.AssembleSwap(ix, *accts, p.MintIn, p.MintOut, p.AmountIn)
	return &SwapPlan{
		Pool:         q.match.Address,
		AToB:         q.match.AToB(),
		MinAmountOut: minOut,
		SlippageBps:  slippageBps,
		Simulation:   q.sim,
		Accounts:     *accts,
		Swap:         ix,
		Steps:        steps.Instructions(),
		Warnings:     warnings,
	}, nil
}

// swapAccounts derives everything the swap touches. Agent and treasury
// token accounts follow the caller's mints; vaults stay in pool order.
func (c *Client) swapAccounts(match *pda.PoolMatch, agent, mintIn, mintOut solana.PublicKey) (*instructions.SwapAccounts, error) {
	auth, _, err := c.deriver.PoolAuthority(match.Address)
	if err != nil {
		return nil, err
	}
	treasury, _, err := c.deriver.Treasury()
	if err != nil {
		return nil, err
	}
	agentIn, err := pda.AssociatedTokenAddress(agent, mintIn)
	if err != nil {
		return nil, err
	}
	agentOut, err := pda.AssociatedTokenAddress(agent, mintOut)
	if err != nil {
		return nil, err
	}
	treasuryIn, err := pda.AssociatedTokenAddress(treasury, mintIn)
	if err != nil {
		return nil, err
	}
	return &instructions.SwapAccounts{
		Agent:           agent,
		Pool:            match.Address,
		PoolAuthority:   auth,
		VaultA:          match.State.VaultA,
		VaultB:          match.State.VaultB,
		AgentTokenIn:    agentIn,
		AgentTokenOut:   agentOut,
		Treasury:        treasury,
		TreasuryTokenIn: treasuryIn,
	}, nil
}

// SwapResult is the outcome of a submitted swap.
type SwapResult struct {
	Signature    string `json:"signature"`
	Pool         string `json:"pool"`
	AmountIn     uint64 `json:"amount_in"`
	EstimatedOut uint64 `json:"estimated_out"`
	MinAmountOut uint64 `json:"min_amount_out"`
	AToB         bool   `json:"a_to_b"`
}

// Convert plans and submits a swap signed by sender.
func (c *Client) Convert(ctx context.Context, sender Sender, p SwapParams) (*SwapResult, error) {
	p.Agent = sender.PublicKey()
	plan, err := c.BuildSwap(ctx, p)
	if err != nil {
		return nil, err
	}
	return c.SubmitSwap(ctx, sender, plan)
}

// ApproveAndExecute submits a swap that also requires approver's signature.
func (c *Client) ApproveAndExecute(ctx context.Context, sender Sender, approver solana.PrivateKey, p SwapParams) (*SwapResult, error) {
	p.Agent = sender.PublicKey()
	approverKey := approver.PublicKey()
	plan, err := c.buildSwap(ctx, p, &approverKey)
	if err != nil {
		return nil, err
	}
	return c.SubmitSwap(ctx, sender, plan, approver)
}

// SubmitSwap signs and sends a plan built earlier, e.g. after an approval
// step.
func (c *Client) SubmitSwap(ctx context.Context, sender Sender, plan *SwapPlan, extra ...solana.PrivateKey) (*SwapResult, error) {
	sig, err := sender.SignAndSend(ctx, plan.Steps, extra...)
	if err != nil {
		return nil, fmt.Errorf("submit swap: %w", err)
	}
	c.logger.WithFields(logrus.Fields{
		"signature":     sig,
		"pool":          plan.Pool.String(),
		"amount_in":     plan.Simulation.AmountIn,
		"estimated_out": plan.Simulation.EstimatedOut,
		"min_out":       plan.MinAmountOut,
	}).Info("swap submitted")
	return &SwapResult{
		Signature:    sig,
		Pool:         plan.Pool.String(),
		AmountIn:     plan.Simulation.AmountIn,
		EstimatedOut: plan.Simulation.EstimatedOut,
		MinAmountOut: plan.MinAmountOut,
		AToB:         plan.AToB,
	}, nil
}
