package client

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"github.com/aman-zulfiqar/a2a-swap/internal/amm"
	"github.com/aman-zulfiqar/a2a-swap/internal/codec"
	"github.com/aman-zulfiqar/a2a-swap/internal/constants"
	"github.com/aman-zulfiqar/a2a-swap/internal/instructions"
	"github.com/aman-zulfiqar/a2a-swap/internal/pda"
	"github.com/aman-zulfiqar/a2a-swap/internal/rpc"
)

type fakeRPC struct {
	mu       sync.Mutex
	accounts map[solana.PublicKey][]byte
	program  []rpc.KeyedAccount
	filters  []rpc.Filter
}

func newFakeRPC() *fakeRPC {
	return &fakeRPC{accounts: make(map[solana.PublicKey][]byte)}
}

func (f *fakeRPC) set(key solana.PublicKey, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[key] = data
}

func (f *fakeRPC) GetAccountData(_ context.Context, account solana.PublicKey) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.accounts[account]
	if !ok {
		return nil, rpc.ErrAccountNotFound
	}
	return data, nil
}

func (f *fakeRPC) GetMultipleAccounts(_ context.Context, keys []solana.PublicKey) ([]*rpc.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*rpc.Account, len(keys))
	for i, k := range keys {
		if data, ok := f.accounts[k]; ok {
			out[i] = &rpc.Account{Data: data}
		}
	}
	return out, nil
}

func (f *fakeRPC) GetProgramAccounts(_ context.Context, _ solana.PublicKey, filters ...rpc.Filter) ([]rpc.KeyedAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = filters
	return f.program, nil
}

type fakeSender struct {
	key   solana.PrivateKey
	sent  [][]solana.Instruction
	extra [][]solana.PrivateKey
	err   error
}

func newFakeSender() *fakeSender {
	return &fakeSender{key: solana.NewWallet().PrivateKey}
}

func (s *fakeSender) PublicKey() solana.PublicKey { return s.key.PublicKey() }

func (s *fakeSender) SignAndSend(_ context.Context, ixs []solana.Instruction, extra ...solana.PrivateKey) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.sent = append(s.sent, ixs)
	s.extra = append(s.extra, extra)
	return "5igNaTuRe", nil
}

type fixture struct {
	rpc    *fakeRPC
	client *Client
	pool   solana.PublicKey
	state  *codec.PoolState
	mintA  solana.PublicKey
	mintB  solana.PublicKey
	logs   *test.Hook
}

// newFixture seeds a pool (mintA, mintB) holding reserveA / reserveB.
func newFixture(t *testing.T, mintA, mintB solana.PublicKey, reserveA, reserveB, lpSupply uint64) *fixture {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	f := newFakeRPC()
	c := New(f, Config{DefaultSlippageBps: constants.DefaultSlippageBps, Logger: logger})

	addr, _, err := c.deriver.Pool(mintA, mintB)
	require.NoError(t, err)
	state := &codec.PoolState{
		MintA:      mintA,
		MintB:      mintB,
		VaultA:     solana.NewWallet().PublicKey(),
		VaultB:     solana.NewWallet().PublicKey(),
		LPSupply:   lpSupply,
		FeeRateBps: 30,
	}
	f.set(addr, codec.EncodePool(state))
	f.set(state.VaultA, codec.EncodeTokenAccount(mintA, addr, reserveA))
	f.set(state.VaultB, codec.EncodeTokenAccount(mintB, addr, reserveB))

	return &fixture{rpc: f, client: c, pool: addr, state: state, mintA: mintA, mintB: mintB, logs: hook}
}

func randomMint() solana.PublicKey { return solana.NewWallet().PublicKey() }

func TestSimulate_PoolOrder(t *testing.T) {
	fx := newFixture(t, randomMint(), randomMint(), 1_000_000_000, 150_000_000, 1_000)

	sim, err := fx.client.Simulate(context.Background(), fx.mintA, fx.mintB, 1_000_000_000)
	require.NoError(t, err)
	assert.True(t, sim.AToB)
	assert.Equal(t, fx.pool.String(), sim.Pool)
	assert.Equal(t, uint64(74_879_830), sim.EstimatedOut)
	assert.Equal(t, uint64(1_000_000_000), sim.ReserveIn)
}

func TestSimulate_ReversedOrder(t *testing.T) {
	fx := newFixture(t, randomMint(), randomMint(), 150_000_000, 1_000_000_000, 1_000)

	// input is the pool's token B, so reserves flip
	sim, err := fx.client.Simulate(context.Background(), fx.mintB, fx.mintA, 1_000_000_000)
	require.NoError(t, err)
	assert.False(t, sim.AToB)
	assert.Equal(t, uint64(1_000_000_000), sim.ReserveIn)
	assert.Equal(t, uint64(150_000_000), sim.ReserveOut)
	assert.Equal(t, uint64(74_879_830), sim.EstimatedOut)
}

func TestSimulate_Errors(t *testing.T) {
	fx := newFixture(t, randomMint(), randomMint(), 1_000, 1_000, 1_000)
	ctx := context.Background()

	_, err := fx.client.Simulate(ctx, fx.mintA, randomMint(), 10)
	assert.ErrorIs(t, err, pda.ErrPoolNotFound)
	assert.True(t, IsNotFound(err))

	_, err = fx.client.Simulate(ctx, fx.mintA, fx.mintA, 10)
	assert.ErrorIs(t, err, ErrSameMint)

	drained := newFixture(t, randomMint(), randomMint(), 0, 1_000, 0)
	_, err = drained.client.Simulate(ctx, drained.mintA, drained.mintB, 10)
	assert.ErrorIs(t, err, amm.ErrNoLiquidity)
}

func TestPoolInfo_CanonicalOrder(t *testing.T) {
	fx := newFixture(t, randomMint(), randomMint(), 2_000, 500, 1_000)

	info, err := fx.client.PoolInfo(context.Background(), fx.mintB, fx.mintA)
	require.NoError(t, err)
	assert.Equal(t, fx.mintA.String(), info.TokenAMint)
	assert.Equal(t, uint64(2_000), info.ReserveA)
	assert.Equal(t, uint64(500), info.ReserveB)
	assert.InDelta(t, 0.25, info.SpotPriceAToB, 1e-12)
	assert.InDelta(t, 4.0, info.SpotPriceBToA, 1e-12)
	assert.Equal(t, uint16(30), info.FeeRateBps)
}

func TestMyPositions_SkipsMalformedAndAddsPending(t *testing.T) {
	fx := newFixture(t, randomMint(), randomMint(), 10_000, 10_000, 1_000)
	owner := solana.NewWallet().PublicKey()

	// one whole token of fee growth per LP share on side A
	poolState := *fx.state
	poolState.FeeGrowthGlobalA = uint128.New(0, 1)
	fx.rpc.set(fx.pool, codec.EncodePool(&poolState))

	good := solana.NewWallet().PublicKey()
	fx.rpc.program = []rpc.KeyedAccount{
		{Pubkey: good, Account: &rpc.Account{Data: codec.EncodePosition(&codec.PositionState{
			Owner:     owner,
			Pool:      fx.pool,
			LPShares:  100,
			FeesOwedA: 5,
			FeesOwedB: 7,
		})}},
		{Pubkey: solana.NewWallet().PublicKey(), Account: &rpc.Account{Data: []byte{1, 2, 3}}},
	}

	positions, err := fx.client.MyPositions(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, positions, 1)

	p := positions[0]
	assert.Equal(t, good.String(), p.Position)
	assert.Equal(t, uint64(100), p.PendingFeesA)
	assert.Equal(t, uint64(0), p.PendingFeesB)
	assert.Equal(t, uint64(105), p.TotalFeesA)
	assert.Equal(t, uint64(7), p.TotalFeesB)

	require.Len(t, fx.rpc.filters, 3)
	require.NotNil(t, fx.rpc.filters[0].DataSize)
	assert.Equal(t, uint64(constants.PositionAccountSize), *fx.rpc.filters[0].DataSize)
	assert.Equal(t, uint64(codec.PositionOwnerOffset), fx.rpc.filters[2].Memcmp.Offset)
	assert.Equal(t, owner.String(), fx.rpc.filters[2].Memcmp.Bytes)

	var warned bool
	for _, e := range fx.logs.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Message == "skipping malformed position account" {
			warned = true
		}
	}
	assert.True(t, warned)

	fees, err := fx.client.MyFees(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, uint64(105), fees.TotalByMint[fx.mintA.String()])
	assert.Equal(t, uint64(7), fees.TotalByMint[fx.mintB.String()])
}

func TestMyPositions_MissingPool(t *testing.T) {
	fx := newFixture(t, randomMint(), randomMint(), 10, 10, 10)
	owner := solana.NewWallet().PublicKey()
	fx.rpc.program = []rpc.KeyedAccount{
		{Pubkey: solana.NewWallet().PublicKey(), Account: &rpc.Account{Data: codec.EncodePosition(&codec.PositionState{
			Owner:     owner,
			Pool:      solana.NewWallet().PublicKey(),
			LPShares:  10,
			FeesOwedA: 3,
		})}},
	}

	positions, err := fx.client.MyPositions(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Empty(t, positions[0].TokenAMint)
	assert.Equal(t, uint64(3), positions[0].TotalFeesA)
}

func TestBuildSwap_AccountsFollowCallerMints(t *testing.T) {
	fx := newFixture(t, randomMint(), randomMint(), 150_000_000, 1_000_000_000, 1_000)
	agent := solana.NewWallet().PublicKey()

	plan, err := fx.client.BuildSwap(context.Background(), SwapParams{
		Agent:    agent,
		MintIn:   fx.mintB,
		MintOut:  fx.mintA,
		AmountIn: 1_000_000_000,
	})
	require.NoError(t, err)
	assert.False(t, plan.AToB)
	assert.Equal(t, uint16(constants.DefaultSlippageBps), plan.SlippageBps)
	assert.Equal(t, uint64(74_505_431), plan.MinAmountOut)
	require.Len(t, plan.Steps, 1)

	wantIn, err := pda.AssociatedTokenAddress(agent, fx.mintB)
	require.NoError(t, err)
	wantOut, err := pda.AssociatedTokenAddress(agent, fx.mintA)
	require.NoError(t, err)
	assert.Equal(t, wantIn, plan.Accounts.AgentTokenIn)
	assert.Equal(t, wantOut, plan.Accounts.AgentTokenOut)
	assert.Equal(t, fx.state.VaultA, plan.Accounts.VaultA)
	assert.Equal(t, fx.state.VaultB, plan.Accounts.VaultB)

	data, err := plan.Swap.Data()
	require.NoError(t, err)
	require.Len(t, data, 25)
	assert.Equal(t, byte(0), data[24])
}

func TestBuildSwap_SlippageOverride(t *testing.T) {
	fx := newFixture(t, randomMint(), randomMint(), 1_000_000_000, 150_000_000, 1_000)
	zero := uint16(0)

	plan, err := fx.client.BuildSwap(context.Background(), SwapParams{
		Agent:          solana.NewWallet().PublicKey(),
		MintIn:         fx.mintA,
		MintOut:        fx.mintB,
		AmountIn:       1_000_000_000,
		MaxSlippageBps: &zero,
	})
	require.NoError(t, err)
	assert.Zero(t, plan.MinAmountOut)
	assert.NotEmpty(t, plan.Warnings)
}

func TestBuildSwap_ZeroConfigKeepsSlippageGuard(t *testing.T) {
	fx := newFixture(t, randomMint(), randomMint(), 1_000_000_000, 150_000_000, 1_000)
	c := New(fx.rpc, Config{})

	plan, err := c.BuildSwap(context.Background(), SwapParams{
		Agent:    solana.NewWallet().PublicKey(),
		MintIn:   fx.mintA,
		MintOut:  fx.mintB,
		AmountIn: 1_000_000_000,
	})
	require.NoError(t, err)
	assert.Equal(t, uint16(constants.DefaultSlippageBps), plan.SlippageBps)
	assert.Equal(t, uint64(74_879_830), plan.Simulation.EstimatedOut)
	assert.Equal(t, uint64(74_505_431), plan.MinAmountOut)
	assert.Empty(t, plan.Warnings)
}

func TestBuildSwap_WrappedSOLInput(t *testing.T) {
	sol := solana.MustPublicKeyFromBase58(constants.WrappedSOLMint)
	fx := newFixture(t, sol, randomMint(), 1_000_000, 1_000_000, 1_000)

	plan, err := fx.client.BuildSwap(context.Background(), SwapParams{
		Agent:    solana.NewWallet().PublicKey(),
		MintIn:   sol,
		MintOut:  fx.mintB,
		AmountIn: 1_000,
	})
	require.NoError(t, err)
	require.Len(t, plan.Steps, 4)
	assert.Equal(t, plan.Swap, plan.Steps[3])
}

func TestBuildSwap_Rejects(t *testing.T) {
	fx := newFixture(t, randomMint(), randomMint(), 1_000, 1_000, 1_000)
	ctx := context.Background()

	_, err := fx.client.BuildSwap(ctx, SwapParams{Agent: solana.NewWallet().PublicKey(), MintIn: fx.mintA, MintOut: fx.mintB})
	assert.ErrorIs(t, err, amm.ErrZeroAmount)

	_, err = fx.client.BuildSwap(ctx, SwapParams{MintIn: fx.mintA, MintOut: fx.mintB, AmountIn: 1})
	assert.Error(t, err)

	// 1 unit against 1_000/1_000 rounds the output down to zero
	_, err = fx.client.BuildSwap(ctx, SwapParams{Agent: solana.NewWallet().PublicKey(), MintIn: fx.mintA, MintOut: fx.mintB, AmountIn: 1})
	assert.ErrorIs(t, err, amm.ErrZeroAmount)
}

func TestConvert_SubmitsPlan(t *testing.T) {
	fx := newFixture(t, randomMint(), randomMint(), 1_000_000_000, 150_000_000, 1_000)
	sender := newFakeSender()

	res, err := fx.client.Convert(context.Background(), sender, SwapParams{
		MintIn:   fx.mintA,
		MintOut:  fx.mintB,
		AmountIn: 1_000_000_000,
	})
	require.NoError(t, err)
	assert.Equal(t, "5igNaTuRe", res.Signature)
	assert.Equal(t, uint64(74_879_830), res.EstimatedOut)
	require.Len(t, sender.sent, 1)
	require.Len(t, sender.sent[0], 1)

	metas := sender.sent[0][0].Accounts()
	require.Len(t, metas, 10)
	assert.Equal(t, sender.PublicKey(), metas[0].PublicKey)
	assert.True(t, metas[0].IsSigner)
}

func TestConvert_SendFailure(t *testing.T) {
	fx := newFixture(t, randomMint(), randomMint(), 1_000, 1_000, 1_000)
	sender := newFakeSender()
	sender.err = errors.New("blockhash not found")

	_, err := fx.client.Convert(context.Background(), sender, SwapParams{MintIn: fx.mintA, MintOut: fx.mintB, AmountIn: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blockhash not found")
}

func TestApproveAndExecute_AddsCoSigner(t *testing.T) {
	fx := newFixture(t, randomMint(), randomMint(), 1_000_000, 1_000_000, 1_000)
	sender := newFakeSender()
	approver := solana.NewWallet().PrivateKey

	_, err := fx.client.ApproveAndExecute(context.Background(), sender, approver, SwapParams{
		MintIn:   fx.mintA,
		MintOut:  fx.mintB,
		AmountIn: 1_000,
	})
	require.NoError(t, err)
	require.Len(t, sender.extra[0], 1)
	assert.Equal(t, approver.PublicKey(), sender.extra[0][0].PublicKey())

	metas := sender.sent[0][0].Accounts()
	require.Len(t, metas, 11)
	assert.Equal(t, approver.PublicKey(), metas[1].PublicKey)
	assert.True(t, metas[1].IsSigner)
	assert.False(t, metas[1].IsWritable)
}

func TestCreatePool(t *testing.T) {
	c := New(newFakeRPC(), Config{})
	sender := newFakeSender()
	mintA, mintB := randomMint(), randomMint()

	_, err := c.CreatePool(context.Background(), sender, mintA, mintB, 0)
	assert.ErrorIs(t, err, ErrInvalidFeeRate)
	_, err = c.CreatePool(context.Background(), sender, mintA, mintB, 101)
	assert.ErrorIs(t, err, ErrInvalidFeeRate)

	res, err := c.CreatePool(context.Background(), sender, mintA, mintB, 30)
	require.NoError(t, err)
	wantPool, _, err := c.deriver.Pool(mintA, mintB)
	require.NoError(t, err)
	assert.Equal(t, wantPool.String(), res.Pool)

	// both vault keypairs co-sign
	require.Len(t, sender.extra, 1)
	require.Len(t, sender.extra[0], 2)
	assert.Equal(t, res.VaultA, sender.extra[0][0].PublicKey().String())
	assert.Equal(t, res.VaultB, sender.extra[0][1].PublicKey().String())
}

func TestProvideLiquidity_MapsCallerOrder(t *testing.T) {
	fx := newFixture(t, randomMint(), randomMint(), 1_000, 4_000, 2_000)
	sender := newFakeSender()

	// caller names the pool's token B first
	res, err := fx.client.ProvideLiquidity(context.Background(), sender, ProvideParams{
		MintA:   fx.mintB,
		MintB:   fx.mintA,
		AmountA: 400,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(100), res.AmountA)
	assert.Equal(t, uint64(400), res.AmountB)
	assert.Equal(t, uint64(200), res.EstimatedLPShares)

	ix := sender.sent[0][0]
	data, err := ix.Data()
	require.NoError(t, err)
	disc := instructions.Discriminator(instructions.NameProvideLiquidity)
	assert.True(t, bytes.HasPrefix(data, disc[:]))
	assert.Equal(t, uint64(100), codec.ReadU64LE(data, 8))
	assert.Equal(t, uint64(400), codec.ReadU64LE(data, 16))

	metas := ix.Accounts()
	wantA, err := pda.AssociatedTokenAddress(sender.PublicKey(), fx.mintA)
	require.NoError(t, err)
	assert.Equal(t, wantA, metas[6].PublicKey)
}

func TestProvideLiquidity_EmptyPoolNeedsBothAmounts(t *testing.T) {
	fx := newFixture(t, randomMint(), randomMint(), 0, 0, 0)
	sender := newFakeSender()

	_, err := fx.client.ProvideLiquidity(context.Background(), sender, ProvideParams{MintA: fx.mintA, MintB: fx.mintB, AmountA: 10})
	assert.ErrorIs(t, err, amm.ErrSecondAmountRequired)
	assert.Empty(t, sender.sent)
}

func TestRemoveLiquidity_ExpectedAmounts(t *testing.T) {
	fx := newFixture(t, randomMint(), randomMint(), 1_000, 3_000, 500)
	sender := newFakeSender()

	res, err := fx.client.RemoveLiquidity(context.Background(), sender, RemoveParams{
		MintA:    fx.mintA,
		MintB:    fx.mintB,
		LPShares: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(100), res.ExpectedA)
	assert.Equal(t, uint64(300), res.ExpectedB)
}

func TestClaimFees(t *testing.T) {
	fx := newFixture(t, randomMint(), randomMint(), 1_000, 1_000, 100)
	sender := newFakeSender()

	_, err := fx.client.ClaimFees(context.Background(), sender, fx.mintA, fx.mintB)
	assert.ErrorIs(t, err, rpc.ErrAccountNotFound)

	position, _, err := fx.client.deriver.Position(fx.pool, sender.PublicKey())
	require.NoError(t, err)
	fx.rpc.set(position, codec.EncodePosition(&codec.PositionState{
		Owner:     sender.PublicKey(),
		Pool:      fx.pool,
		LPShares:  10,
		FeesOwedA: 4,
		FeesOwedB: 6,
	}))

	res, err := fx.client.ClaimFees(context.Background(), sender, fx.mintA, fx.mintB)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), res.Preview.TotalClaimed)
	assert.False(t, res.Preview.Compounds)
	assert.Equal(t, position.String(), res.Position)
}
