package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/aman-zulfiqar/a2a-swap/internal/codec"
	"github.com/aman-zulfiqar/a2a-swap/internal/constants"
	"github.com/aman-zulfiqar/a2a-swap/internal/metrics"
	"github.com/aman-zulfiqar/a2a-swap/internal/pda"
	"github.com/aman-zulfiqar/a2a-swap/internal/rpc"
)

var (
	ErrInvalidFeeRate = fmt.Errorf("fee rate must be between %d and %d bps", constants.MinFeeRateBps, constants.MaxFeeRateBps)
	ErrSameMint       = errors.New("input and output mint are the same")
)

// RPC is the subset of rpc.Client the facade reads through.
type RPC interface {
	GetAccountData(ctx context.Context, account solana.PublicKey) ([]byte, error)
	GetMultipleAccounts(ctx context.Context, accounts []solana.PublicKey) ([]*rpc.Account, error)
	GetProgramAccounts(ctx context.Context, program solana.PublicKey, filters ...rpc.Filter) ([]rpc.KeyedAccount, error)
}

// Sender signs and submits transactions for one keypair. wallet.Wallet
// implements it.
type Sender interface {
	PublicKey() solana.PublicKey
	SignAndSend(ctx context.Context, instructions []solana.Instruction, extra ...solana.PrivateKey) (string, error)
}

type Config struct {
	ProgramID solana.PublicKey
	// DefaultSlippageBps applies to swaps that set no MaxSlippageBps. Zero
	// means constants.DefaultSlippageBps; the guard is only disabled per call.
	DefaultSlippageBps uint16
	Logger             *logrus.Logger
	Metrics            *metrics.Metrics
}

// Client is the single entry point for pool reads, swap planning and
// signed write operations. It holds no per-request state.
type Client struct {
	rpc                RPC
	deriver            *pda.Deriver
	programID          solana.PublicKey
	defaultSlippageBps uint16
	logger             *logrus.Logger
	metrics            *metrics.Metrics
}

func New(r RPC, cfg Config) *Client {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.ProgramID.IsZero() {
		cfg.ProgramID = solana.MustPublicKeyFromBase58(constants.DefaultProgramID)
	}
	if cfg.DefaultSlippageBps == 0 {
		cfg.DefaultSlippageBps = constants.DefaultSlippageBps
	}
	return &Client{
		rpc:                r,
		deriver:            pda.NewDeriver(cfg.ProgramID),
		programID:          cfg.ProgramID,
		defaultSlippageBps: cfg.DefaultSlippageBps,
		logger:             cfg.Logger,
		metrics:            cfg.Metrics,
	}
}

func (c *Client) ProgramID() solana.PublicKey { return c.programID }

// FindPool resolves the pool for a mint pair without reading reserves.
func (c *Client) FindPool(ctx context.Context, mintIn, mintOut solana.PublicKey) (*pda.PoolMatch, error) {
	return c.findPool(ctx, mintIn, mintOut)
}

// findPool resolves the pool for a mint pair in either stored order.
func (c *Client) findPool(ctx context.Context, mintIn, mintOut solana.PublicKey) (*pda.PoolMatch, error) {
	if mintIn.Equals(mintOut) {
		return nil, fmt.Errorf("%w: %s", ErrSameMint, mintIn)
	}
	return c.deriver.FindPool(ctx, c.rpc, mintIn, mintOut)
}

// reserves reads both vault balances concurrently, in pool order.
func (c *Client) reserves(ctx context.Context, pool *codec.PoolState) (uint64, uint64, error) {
	var reserveA, reserveB uint64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		reserveA, err = c.vaultBalance(gctx, pool.VaultA)
		return err
	})
	g.Go(func() error {
		var err error
		reserveB, err = c.vaultBalance(gctx, pool.VaultB)
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, 0, err
	}
	return reserveA, reserveB, nil
}

func (c *Client) vaultBalance(ctx context.Context, vault solana.PublicKey) (uint64, error) {
	data, err := c.rpc.GetAccountData(ctx, vault)
	if err != nil {
		return 0, fmt.Errorf("vault %s: %w", vault, err)
	}
	amount, err := codec.DecodeTokenAmount(data)
	if err != nil {
		return 0, fmt.Errorf("vault %s: %w", vault, err)
	}
	return amount, nil
}

// directional maps pool-order reserves onto the caller's swap direction.
func directional(m *pda.PoolMatch, reserveA, reserveB uint64) (uint64, uint64) {
	if m.AToB() {
		return reserveA, reserveB
	}
	return reserveB, reserveA
}

// IsNotFound reports whether err means a pool, account or token is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, pda.ErrPoolNotFound) || errors.Is(err, rpc.ErrAccountNotFound)
}
