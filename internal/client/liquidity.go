package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/a2a-swap/internal/amm"
	"github.com/aman-zulfiqar/a2a-swap/internal/codec"
	"github.com/aman-zulfiqar/a2a-swap/internal/constants"
	"github.com/aman-zulfiqar/a2a-swap/internal/instructions"
	"github.com/aman-zulfiqar/a2a-swap/internal/pda"
	"github.com/aman-zulfiqar/a2a-swap/internal/rpc"
)

type CreatePoolResult struct {
	Signature     string `json:"signature"`
	Pool          string `json:"pool"`
	PoolAuthority string `json:"pool_authority"`
	VaultA        string `json:"vault_a"`
	VaultB        string `json:"vault_b"`
	MintA         string `json:"mint_a"`
	MintB         string `json:"mint_b"`
	FeeRateBps    uint16 `json:"fee_rate_bps"`
}

// CreatePool initialises a pool for (mintA, mintB) in that order. The vaults
// are fresh keypairs that co-sign the transaction.
func (c *Client) CreatePool(ctx context.Context, sender Sender, mintA, mintB solana.PublicKey, feeRateBps uint16) (*CreatePoolResult, error) {
	if feeRateBps < constants.MinFeeRateBps || feeRateBps > constants.MaxFeeRateBps {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidFeeRate, feeRateBps)
	}
	if mintA.Equals(mintB) {
		return nil, fmt.Errorf("%w: %s", ErrSameMint, mintA)
	}

	addrs, err := c.deriver.PoolAddresses(mintA, mintB)
	if err != nil {
		return nil, err
	}
	vaultA := solana.NewWallet().PrivateKey
	vaultB := solana.NewWallet().PrivateKey

	ix, err := instructions.NewInitializePool(c.programID, instructions.InitializePoolAccounts{
		Creator:       sender.PublicKey(),
		MintA:         mintA,
		MintB:         mintB,
		Pool:          addrs.Pool,
		PoolAuthority: addrs.PoolAuthority,
		VaultA:        vaultA.PublicKey(),
		VaultB:        vaultB.PublicKey(),
	}, instructions.InitializePoolArgs{FeeRateBps: feeRateBps})
	if err != nil {
		return nil, err
	}

	sig, err := sender.SignAndSend(ctx, []solana.Instruction{ix}, vaultA, vaultB)
	if err != nil {
		return nil, fmt.Errorf("submit initialize_pool: %w", err)
	}
	c.logger.WithFields(logrus.Fields{
		"signature": sig,
		"pool":      addrs.Pool.String(),
		"fee_bps":   feeRateBps,
	}).Info("pool created")

	return &CreatePoolResult{
		Signature:     sig,
		Pool:          addrs.Pool.String(),
		PoolAuthority: addrs.PoolAuthority.String(),
		VaultA:        vaultA.PublicKey().String(),
		VaultB:        vaultB.PublicKey().String(),
		MintA:         mintA.String(),
		MintB:         mintB.String(),
		FeeRateBps:    feeRateBps,
	}, nil
}

// ProvideParams names amounts in the caller's mint order. AmountB nil means
// "compute it from live reserves".
type ProvideParams struct {
	MintA             solana.PublicKey
	MintB             solana.PublicKey
	AmountA           uint64
	AmountB           *uint64
	MinLP             uint64
	AutoCompound      bool
	CompoundThreshold uint64
}

type ProvideResult struct {
	Signature string `json:"signature"`
	Pool      string `json:"pool"`
	Position  string `json:"position"`
	// AmountA and AmountB are in pool order.
	AmountA           uint64 `json:"amount_a"`
	AmountB           uint64 `json:"amount_b"`
	EstimatedLPShares uint64 `json:"estimated_lp_shares"`
}

// liquidityContext is what every liquidity operation needs about a pool and
// the caller's position in it.
type liquidityContext struct {
	match    *pda.PoolMatch
	accounts instructions.LiquidityAccounts
	reserveA uint64
	reserveB uint64
}

func (c *Client) liquidityContext(ctx context.Context, agent, mintA, mintB solana.PublicKey) (*liquidityContext, error) {
	match, err := c.findPool(ctx, mintA, mintB)
	if err != nil {
		return nil, err
	}
	reserveA, reserveB, err := c.reserves(ctx, match.State)
	if err != nil {
		return nil, err
	}
	auth, _, err := c.deriver.PoolAuthority(match.Address)
	if err != nil {
		return nil, err
	}
	position, _, err := c.deriver.Position(match.Address, agent)
	if err != nil {
		return nil, err
	}
	// token accounts in pool order, whatever order the caller used
	ataA, err := pda.AssociatedTokenAddress(agent, match.State.MintA)
	if err != nil {
		return nil, err
	}
	ataB, err := pda.AssociatedTokenAddress(agent, match.State.MintB)
	if err != nil {
		return nil, err
	}
	return &liquidityContext{
		match: match,
		accounts: instructions.LiquidityAccounts{
			Agent:         agent,
			Pool:          match.Address,
			PoolAuthority: auth,
			Position:      position,
			VaultA:        match.State.VaultA,
			VaultB:        match.State.VaultB,
			AgentTokenA:   ataA,
			AgentTokenB:   ataB,
		},
		reserveA: reserveA,
		reserveB: reserveB,
	}, nil
}

// ProvideLiquidity deposits into the pool for (MintA, MintB), found in either
// order. The caller's amounts are mapped onto the pool's token order.
func (c *Client) ProvideLiquidity(ctx context.Context, sender Sender, p ProvideParams) (*ProvideResult, error) {
	if p.AmountA == 0 {
		return nil, amm.ErrZeroAmount
	}
	lc, err := c.liquidityContext(ctx, sender.PublicKey(), p.MintA, p.MintB)
	if err != nil {
		return nil, err
	}
	pool := lc.match.State

	var amountPoolA, amountPoolB uint64
	if lc.match.AToB() {
		amountPoolA = p.AmountA
		amountPoolB, err = amm.ProportionalAmount(p.AmountA, p.AmountB, lc.reserveA, lc.reserveB, pool.LPSupply)
	} else {
		// the caller's first mint is the pool's token B
		amountPoolB = p.AmountA
		amountPoolA, err = amm.ProportionalAmount(p.AmountA, p.AmountB, lc.reserveB, lc.reserveA, pool.LPSupply)
	}
	if err != nil {
		return nil, err
	}

	estimated, err := amm.EstimateLPShares(amountPoolA, amountPoolB, lc.reserveA, lc.reserveB, pool.LPSupply)
	if err != nil {
		return nil, err
	}
	if p.MinLP > 0 && estimated < p.MinLP {
		c.logger.WithFields(logrus.Fields{
			"estimated_lp": estimated,
			"min_lp":       p.MinLP,
		}).Warn("estimated LP shares below min_lp; the program will reject this deposit at current reserves")
	}

	ix, err := instructions.NewProvideLiquidity(c.programID, lc.accounts, instructions.ProvideLiquidityArgs{
		AmountA:           amountPoolA,
		AmountB:           amountPoolB,
		MinLP:             p.MinLP,
		AutoCompound:      p.AutoCompound,
		CompoundThreshold: p.CompoundThreshold,
	})
	if err != nil {
		return nil, err
	}

	sig, err := sender.SignAndSend(ctx, []solana.Instruction{ix})
	if err != nil {
		return nil, fmt.Errorf("submit provide_liquidity: %w", err)
	}
	return &ProvideResult{
		Signature:         sig,
		Pool:              lc.match.Address.String(),
		Position:          lc.accounts.Position.String(),
		AmountA:           amountPoolA,
		AmountB:           amountPoolB,
		EstimatedLPShares: estimated,
	}, nil
}

type RemoveParams struct {
	MintA    solana.PublicKey
	MintB    solana.PublicKey
	LPShares uint64
	// MinA and MinB are in pool order.
	MinA uint64
	MinB uint64
}

type RemoveResult struct {
	Signature string `json:"signature"`
	Pool      string `json:"pool"`
	Position  string `json:"position"`
	LPShares  uint64 `json:"lp_shares"`
	ExpectedA uint64 `json:"expected_a"`
	ExpectedB uint64 `json:"expected_b"`
}

// RemoveLiquidity burns LP shares and withdraws both tokens pro rata.
func (c *Client) RemoveLiquidity(ctx context.Context, sender Sender, p RemoveParams) (*RemoveResult, error) {
	lc, err := c.liquidityContext(ctx, sender.PublicKey(), p.MintA, p.MintB)
	if err != nil {
		return nil, err
	}
	expectedA, expectedB, err := amm.RemoveLiquidityAmounts(p.LPShares, lc.reserveA, lc.reserveB, lc.match.State.LPSupply)
	if err != nil {
		return nil, err
	}

	ix, err := instructions.NewRemoveLiquidity(c.programID, lc.accounts, instructions.RemoveLiquidityArgs{
		LPShares: p.LPShares,
		MinA:     p.MinA,
		MinB:     p.MinB,
	})
	if err != nil {
		return nil, err
	}

	sig, err := sender.SignAndSend(ctx, []solana.Instruction{ix})
	if err != nil {
		return nil, fmt.Errorf("submit remove_liquidity: %w", err)
	}
	return &RemoveResult{
		Signature: sig,
		Pool:      lc.match.Address.String(),
		Position:  lc.accounts.Position.String(),
		LPShares:  p.LPShares,
		ExpectedA: expectedA,
		ExpectedB: expectedB,
	}, nil
}

type ClaimResult struct {
	Signature string            `json:"signature"`
	Pool      string            `json:"pool"`
	Position  string            `json:"position"`
	Preview   *amm.ClaimPreview `json:"preview"`
}

// ClaimFees claims accrued fees on the caller's position. The preview tells
// whether the program will transfer them or compound them into LP shares.
func (c *Client) ClaimFees(ctx context.Context, sender Sender, mintA, mintB solana.PublicKey) (*ClaimResult, error) {
	lc, err := c.liquidityContext(ctx, sender.PublicKey(), mintA, mintB)
	if err != nil {
		return nil, err
	}

	data, err := c.rpc.GetAccountData(ctx, lc.accounts.Position)
	if errors.Is(err, rpc.ErrAccountNotFound) {
		return nil, fmt.Errorf("no position for %s in pool %s: %w", sender.PublicKey(), lc.match.Address, err)
	}
	if err != nil {
		return nil, err
	}
	pos, err := codec.DecodePosition(data)
	if err != nil {
		return nil, fmt.Errorf("position %s: %w", lc.accounts.Position, err)
	}
	preview, err := amm.PreviewClaim(pos, lc.match.State, lc.reserveA, lc.reserveB)
	if err != nil {
		return nil, err
	}

	ix, err := instructions.NewClaimFees(c.programID, lc.accounts)
	if err != nil {
		return nil, err
	}
	sig, err := sender.SignAndSend(ctx, []solana.Instruction{ix})
	if err != nil {
		return nil, fmt.Errorf("submit claim_fees: %w", err)
	}
	c.logger.WithFields(logrus.Fields{
		"signature": sig,
		"position":  lc.accounts.Position.String(),
		"compounds": preview.Compounds,
		"total":     preview.TotalClaimed,
	}).Info("fees claimed")

	return &ClaimResult{
		Signature: sig,
		Pool:      lc.match.Address.String(),
		Position:  lc.accounts.Position.String(),
		Preview:   preview,
	}, nil
}
