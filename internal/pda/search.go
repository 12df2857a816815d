package pda

import (
	"context"
	"errors"
	"fmt"

	"github.com/aman-zulfiqar/a2a-swap/internal/codec"
	"github.com/aman-zulfiqar/a2a-swap/internal/rpc"
	"github.com/gagliardetto/solana-go"
)

var ErrPoolNotFound = errors.New("pool not found for mint pair")

// AccountFetcher is the single RPC capability the pool search needs. A
// missing account must be reported as rpc.ErrAccountNotFound.
type AccountFetcher interface {
	GetAccountData(ctx context.Context, account solana.PublicKey) ([]byte, error)
}

// Ordering records how the caller's input mint maps onto the pool's stored
// token A / token B.
type Ordering uint8

const (
	MintInIsTokenA Ordering = iota + 1
	MintInIsTokenB
)

func (o Ordering) String() string {
	switch o {
	case MintInIsTokenA:
		return "a_to_b"
	case MintInIsTokenB:
		return "b_to_a"
	default:
		return "unknown"
	}
}

// PoolMatch is a resolved pool together with the ordering that found it.
type PoolMatch struct {
	Address  solana.PublicKey
	State    *codec.PoolState
	Ordering Ordering
}

// AToB reports whether a swap of mintIn flows from the pool's token A to
// token B.
func (m *PoolMatch) AToB() bool { return m.Ordering == MintInIsTokenA }

// InputMint is the pool-side mint matching the caller's input.
func (m *PoolMatch) InputMint() solana.PublicKey {
	if m.AToB() {
		return m.State.MintA
	}
	return m.State.MintB
}

// OutputMint is the pool-side mint matching the caller's output.
func (m *PoolMatch) OutputMint() solana.PublicKey {
	if m.AToB() {
		return m.State.MintB
	}
	return m.State.MintA
}

// InputVault and OutputVault follow the same mapping as the mints.
func (m *PoolMatch) InputVault() solana.PublicKey {
	if m.AToB() {
		return m.State.VaultA
	}
	return m.State.VaultB
}

func (m *PoolMatch) OutputVault() solana.PublicKey {
	if m.AToB() {
		return m.State.VaultB
	}
	return m.State.VaultA
}

// FindPool looks the pool up under (mintIn, mintOut) and then under
// (mintOut, mintIn). ErrPoolNotFound is returned only when both derived
// addresses are missing; any other fetch or decode failure aborts the search.
func (d *Deriver) FindPool(ctx context.Context, fetcher AccountFetcher, mintIn, mintOut solana.PublicKey) (*PoolMatch, error) {
	steps := []struct {
		a, b     solana.PublicKey
		ordering Ordering
	}{
		{mintIn, mintOut, MintInIsTokenA},
		{mintOut, mintIn, MintInIsTokenB},
	}

	for _, step := range steps {
		match, err := d.tryPool(ctx, fetcher, step.a, step.b, step.ordering)
		if err == nil {
			return match, nil
		}
		if !errors.Is(err, rpc.ErrAccountNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %s / %s", ErrPoolNotFound, mintIn, mintOut)
}

func (d *Deriver) tryPool(ctx context.Context, fetcher AccountFetcher, mintA, mintB solana.PublicKey, ordering Ordering) (*PoolMatch, error) {
	addr, _, err := d.Pool(mintA, mintB)
	if err != nil {
		return nil, err
	}
	data, err := fetcher.GetAccountData(ctx, addr)
	if err != nil {
		return nil, err
	}
	state, err := codec.DecodePool(data)
	if err != nil {
		return nil, fmt.Errorf("decode pool %s: %w", addr, err)
	}
	return &PoolMatch{Address: addr, State: state, Ordering: ordering}, nil
}
