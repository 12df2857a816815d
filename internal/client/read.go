package client

import (
	"context"
	"fmt"
	"sort"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/a2a-swap/internal/amm"
	"github.com/aman-zulfiqar/a2a-swap/internal/codec"
	"github.com/aman-zulfiqar/a2a-swap/internal/constants"
	"github.com/aman-zulfiqar/a2a-swap/internal/pda"
	"github.com/aman-zulfiqar/a2a-swap/internal/rpc"
)

// Simulate quotes a swap of amountIn of mintIn against live reserves.
func (c *Client) Simulate(ctx context.Context, mintIn, mintOut solana.PublicKey, amountIn uint64) (*amm.SimulateResult, error) {
	q, err := c.quote(ctx, mintIn, mintOut, amountIn)
	if err != nil {
		return nil, err
	}
	return q.sim, nil
}

type quote struct {
	match *pda.PoolMatch
	sim   *amm.SimulateResult
}

func (c *Client) quote(ctx context.Context, mintIn, mintOut solana.PublicKey, amountIn uint64) (q *quote, err error) {
	defer func() { c.metrics.Simulation(err) }()

	match, err := c.findPool(ctx, mintIn, mintOut)
	if err != nil {
		return nil, err
	}
	reserveA, reserveB, err := c.reserves(ctx, match.State)
	if err != nil {
		return nil, err
	}
	reserveIn, reserveOut := directional(match, reserveA, reserveB)

	sim, err := amm.Simulate(reserveIn, reserveOut, amountIn, match.State.FeeRateBps)
	if err != nil {
		return nil, err
	}
	sim.Pool = match.Address.String()
	sim.AToB = match.AToB()
	return &quote{match: match, sim: sim}, nil
}

// PoolInfo is a pool snapshot in the pool's own token order.
type PoolInfo struct {
	Pool          string  `json:"pool"`
	TokenAMint    string  `json:"token_a_mint"`
	TokenBMint    string  `json:"token_b_mint"`
	TokenAVault   string  `json:"token_a_vault"`
	TokenBVault   string  `json:"token_b_vault"`
	ReserveA      uint64  `json:"reserve_a"`
	ReserveB      uint64  `json:"reserve_b"`
	LPSupply      uint64  `json:"lp_supply"`
	FeeRateBps    uint16  `json:"fee_rate_bps"`
	SpotPriceAToB float64 `json:"spot_price_a_to_b"`
	SpotPriceBToA float64 `json:"spot_price_b_to_a"`
}

// PoolInfo reads a pool and its reserves. The two mints may be given in
// either order; the result is always in stored order.
func (c *Client) PoolInfo(ctx context.Context, mintA, mintB solana.PublicKey) (*PoolInfo, error) {
	match, err := c.findPool(ctx, mintA, mintB)
	if err != nil {
		return nil, err
	}
	reserveA, reserveB, err := c.reserves(ctx, match.State)
	if err != nil {
		return nil, err
	}

	info := &PoolInfo{
		Pool:        match.Address.String(),
		TokenAMint:  match.State.MintA.String(),
		TokenBMint:  match.State.MintB.String(),
		TokenAVault: match.State.VaultA.String(),
		TokenBVault: match.State.VaultB.String(),
		ReserveA:    reserveA,
		ReserveB:    reserveB,
		LPSupply:    match.State.LPSupply,
		FeeRateBps:  match.State.FeeRateBps,
	}
	if reserveA > 0 {
		info.SpotPriceAToB = float64(reserveB) / float64(reserveA)
	}
	if reserveB > 0 {
		info.SpotPriceBToA = float64(reserveA) / float64(reserveB)
	}
	return info, nil
}

// PositionInfo is one LP position with its fees brought up to date.
type PositionInfo struct {
	Position          string `json:"position"`
	Pool              string `json:"pool"`
	TokenAMint        string `json:"token_a_mint,omitempty"`
	TokenBMint        string `json:"token_b_mint,omitempty"`
	LPShares          uint64 `json:"lp_shares"`
	FeesOwedA         uint64 `json:"fees_owed_a"`
	FeesOwedB         uint64 `json:"fees_owed_b"`
	PendingFeesA      uint64 `json:"pending_fees_a"`
	PendingFeesB      uint64 `json:"pending_fees_b"`
	TotalFeesA        uint64 `json:"total_fees_a"`
	TotalFeesB        uint64 `json:"total_fees_b"`
	AutoCompound      bool   `json:"auto_compound"`
	CompoundThreshold uint64 `json:"compound_threshold"`
}

// MyPositions lists every position owned by owner. Pools are fetched in a
// single batch; a position whose pool is missing keeps its owed fees with no
// pending component.
func (c *Client) MyPositions(ctx context.Context, owner solana.PublicKey) ([]PositionInfo, error) {
	accounts, err := c.rpc.GetProgramAccounts(ctx, c.programID,
		rpc.DataSizeFilter(constants.PositionAccountSize),
		rpc.MemcmpBytesFilter(0, codec.PositionDiscriminator[:]),
		rpc.MemcmpBytesFilter(codec.PositionOwnerOffset, owner.Bytes()),
	)
	if err != nil {
		return nil, fmt.Errorf("scan positions: %w", err)
	}

	type keyed struct {
		key solana.PublicKey
		pos *codec.PositionState
	}
	positions := make([]keyed, 0, len(accounts))
	poolSet := make(map[solana.PublicKey]struct{})
	for _, acc := range accounts {
		pos, err := codec.DecodePosition(acc.Account.Data)
		if err != nil {
			c.logger.WithFields(logrus.Fields{
				"position": acc.Pubkey.String(),
				"error":    err,
			}).Warn("skipping malformed position account")
			continue
		}
		positions = append(positions, keyed{key: acc.Pubkey, pos: pos})
		poolSet[pos.Pool] = struct{}{}
	}

	pools, err := c.fetchPools(ctx, poolSet)
	if err != nil {
		return nil, err
	}

	out := make([]PositionInfo, 0, len(positions))
	for _, kp := range positions {
		info := PositionInfo{
			Position:          kp.key.String(),
			Pool:              kp.pos.Pool.String(),
			LPShares:          kp.pos.LPShares,
			FeesOwedA:         kp.pos.FeesOwedA,
			FeesOwedB:         kp.pos.FeesOwedB,
			AutoCompound:      kp.pos.AutoCompound,
			CompoundThreshold: kp.pos.CompoundThreshold,
		}
		if pool, ok := pools[kp.pos.Pool]; ok {
			info.TokenAMint = pool.MintA.String()
			info.TokenBMint = pool.MintB.String()
			pendA, pendB, err := amm.PendingFeesForPosition(kp.pos, pool)
			if err != nil {
				return nil, fmt.Errorf("position %s: %w", kp.key, err)
			}
			info.PendingFeesA = pendA
			info.PendingFeesB = pendB
		}
		info.TotalFeesA = saturatingAdd(info.FeesOwedA, info.PendingFeesA)
		info.TotalFeesB = saturatingAdd(info.FeesOwedB, info.PendingFeesB)
		out = append(out, info)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (c *Client) fetchPools(ctx context.Context, set map[solana.PublicKey]struct{}) (map[solana.PublicKey]*codec.PoolState, error) {
	keys := make([]solana.PublicKey, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	accounts, err := c.rpc.GetMultipleAccounts(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch pools: %w", err)
	}

	pools := make(map[solana.PublicKey]*codec.PoolState, len(keys))
	for i, acc := range accounts {
		if acc == nil {
			c.logger.WithField("pool", keys[i].String()).Warn("position references a missing pool")
			continue
		}
		pool, err := codec.DecodePool(acc.Data)
		if err != nil {
			c.logger.WithFields(logrus.Fields{
				"pool":  keys[i].String(),
				"error": err,
			}).Warn("skipping malformed pool account")
			continue
		}
		pools[keys[i]] = pool
	}
	return pools, nil
}

// FeeSummary aggregates claimable fees across an owner's positions.
type FeeSummary struct {
	Owner       string            `json:"owner"`
	Positions   []PositionInfo    `json:"fees"`
	TotalByMint map[string]uint64 `json:"total_by_mint"`
}

// MyFees returns owed-plus-pending fees for every position of owner, with a
// per-mint total.
func (c *Client) MyFees(ctx context.Context, owner solana.PublicKey) (*FeeSummary, error) {
	positions, err := c.MyPositions(ctx, owner)
	if err != nil {
		return nil, err
	}
	sum := &FeeSummary{
		Owner:       owner.String(),
		Positions:   positions,
		TotalByMint: make(map[string]uint64),
	}
	for _, p := range positions {
		if p.TokenAMint != "" {
			sum.TotalByMint[p.TokenAMint] = saturatingAdd(sum.TotalByMint[p.TokenAMint], p.TotalFeesA)
		}
		if p.TokenBMint != "" {
			sum.TotalByMint[p.TokenBMint] = saturatingAdd(sum.TotalByMint[p.TokenBMint], p.TotalFeesB)
		}
	}
	return sum, nil
}

func saturatingAdd(a, b uint64) uint64 {
	if s := a + b; s >= a {
		return s
	}
	return ^uint64(0)
}
