package pda

import (
	"fmt"

	"github.com/aman-zulfiqar/a2a-swap/internal/constants"
	"github.com/gagliardetto/solana-go"
)

var (
	tokenProgramID = solana.MustPublicKeyFromBase58(constants.TokenProgramID)
	ataProgramID   = solana.MustPublicKeyFromBase58(constants.AssociatedTokenProgID)
)

// Deriver derives the program's PDAs. The zero value is not usable; build it
// with NewDeriver so the program id comes from configuration.
type Deriver struct {
	ProgramID solana.PublicKey
}

func NewDeriver(programID solana.PublicKey) *Deriver {
	return &Deriver{ProgramID: programID}
}

// Pool derives the pool address for an ordered mint pair. Swapping the mints
// yields a different address.
func (d *Deriver) Pool(mintA, mintB solana.PublicKey) (solana.PublicKey, uint8, error) {
	return d.find("pool",
		[]byte(constants.SeedPool),
		mintA.Bytes(),
		mintB.Bytes(),
	)
}

// PoolAuthority derives the signer PDA that owns both vaults of pool.
func (d *Deriver) PoolAuthority(pool solana.PublicKey) (solana.PublicKey, uint8, error) {
	return d.find("pool authority",
		[]byte(constants.SeedPoolAuthority),
		pool.Bytes(),
	)
}

// Position derives an owner's LP position in pool.
func (d *Deriver) Position(pool, owner solana.PublicKey) (solana.PublicKey, uint8, error) {
	return d.find("position",
		[]byte(constants.SeedPosition),
		pool.Bytes(),
		owner.Bytes(),
	)
}

// Treasury derives the protocol fee treasury.
func (d *Deriver) Treasury() (solana.PublicKey, uint8, error) {
	return d.find("treasury", []byte(constants.SeedTreasury))
}

func (d *Deriver) find(what string, seeds ...[]byte) (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress(seeds, d.ProgramID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("derive %s: %w", what, err)
	}
	return addr, bump, nil
}

// AssociatedTokenAddress derives the ATA PDA for (owner, mint).
func AssociatedTokenAddress(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	// Seeds: [owner, token_program, mint]
	ata, _, err := solana.FindProgramAddress(
		[][]byte{
			owner.Bytes(),
			tokenProgramID.Bytes(),
			mint.Bytes(),
		},
		ataProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive associated token account: %w", err)
	}
	return ata, nil
}

// Addresses is the full set of program accounts touched by a swap or
// liquidity operation on one pool.
type Addresses struct {
	Pool          solana.PublicKey
	PoolAuthority solana.PublicKey
	Treasury      solana.PublicKey
}

// PoolAddresses derives the pool, its authority and the treasury together.
func (d *Deriver) PoolAddresses(mintA, mintB solana.PublicKey) (*Addresses, error) {
	pool, _, err := d.Pool(mintA, mintB)
	if err != nil {
		return nil, err
	}
	auth, _, err := d.PoolAuthority(pool)
	if err != nil {
		return nil, err
	}
	treasury, _, err := d.Treasury()
	if err != nil {
		return nil, err
	}
	return &Addresses{Pool: pool, PoolAuthority: auth, Treasury: treasury}, nil
}
