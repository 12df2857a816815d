package codec

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/aman-zulfiqar/a2a-swap/internal/constants"
	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"
)

var ErrShortBuffer = errors.New("account data too short")

// LengthError reports which record failed to decode and by how much.
type LengthError struct {
	Record string
	Need   int
	Got    int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("%s: need %d bytes, got %d", e.Record, e.Need, e.Got)
}

func (e *LengthError) Unwrap() error { return ErrShortBuffer }

// Pool account offsets. 8-byte discriminator, then
// authority(32) authority_bump(1) mint_a mint_b vault_a vault_b lp_supply(8)
// fee_rate_bps(2) fee_growth_global_a(16) fee_growth_global_b(16) bump(1).
const (
	poolAuthorityOffset     = 8
	poolAuthorityBumpOffset = 40
	poolMintAOffset         = 41
	poolMintBOffset         = 73
	poolVaultAOffset        = 105
	poolVaultBOffset        = 137
	poolLPSupplyOffset      = 169
	poolFeeRateOffset       = 177
	poolFeeGrowthAOffset    = 179
	poolFeeGrowthBOffset    = 195
	poolBumpOffset          = 211
)

// Position account offsets.
const (
	positionOwnerOffset       = 8
	positionPoolOffset        = 40
	positionLPSharesOffset    = 72
	positionCheckpointAOffset = 80
	positionCheckpointBOffset = 96
	positionFeesOwedAOffset   = 112
	positionFeesOwedBOffset   = 120
	positionAutoCompoundOff   = 128
	positionThresholdOffset   = 129
	positionBumpOffset        = 137
)

// PositionOwnerOffset is the memcmp offset used to scan positions by owner.
const PositionOwnerOffset = positionOwnerOffset

const tokenAmountOffset = 64

// PoolState is the decoded pool account. Reserves live in the vaults and are
// never part of it.
type PoolState struct {
	Authority        solana.PublicKey `json:"authority"`
	AuthorityBump    uint8            `json:"authority_bump"`
	MintA            solana.PublicKey `json:"token_a_mint"`
	MintB            solana.PublicKey `json:"token_b_mint"`
	VaultA           solana.PublicKey `json:"token_a_vault"`
	VaultB           solana.PublicKey `json:"token_b_vault"`
	LPSupply         uint64           `json:"lp_supply"`
	FeeRateBps       uint16           `json:"fee_rate_bps"`
	FeeGrowthGlobalA uint128.Uint128  `json:"-"`
	FeeGrowthGlobalB uint128.Uint128  `json:"-"`
	Bump             uint8            `json:"bump"`
}

// PositionState is one owner's stake in one pool.
type PositionState struct {
	Owner                solana.PublicKey `json:"owner"`
	Pool                 solana.PublicKey `json:"pool"`
	LPShares             uint64           `json:"lp_shares"`
	FeeGrowthCheckpointA uint128.Uint128  `json:"-"`
	FeeGrowthCheckpointB uint128.Uint128  `json:"-"`
	FeesOwedA            uint64           `json:"fees_owed_a"`
	FeesOwedB            uint64           `json:"fees_owed_b"`
	AutoCompound         bool             `json:"auto_compound"`
	CompoundThreshold    uint64           `json:"compound_threshold"`
	Bump                 uint8            `json:"bump"`
}

// DecodePool decodes a pool account. The whole layout is length-checked
// before any field is read.
func DecodePool(data []byte) (*PoolState, error) {
	if len(data) < constants.PoolAccountSize {
		return nil, &LengthError{Record: "pool", Need: constants.PoolAccountSize, Got: len(data)}
	}
	return &PoolState{
		Authority:        readPubkey(data, poolAuthorityOffset),
		AuthorityBump:    data[poolAuthorityBumpOffset],
		MintA:            readPubkey(data, poolMintAOffset),
		MintB:            readPubkey(data, poolMintBOffset),
		VaultA:           readPubkey(data, poolVaultAOffset),
		VaultB:           readPubkey(data, poolVaultBOffset),
		LPSupply:         ReadU64LE(data, poolLPSupplyOffset),
		FeeRateBps:       binary.LittleEndian.Uint16(data[poolFeeRateOffset:]),
		FeeGrowthGlobalA: ReadU128LE(data, poolFeeGrowthAOffset),
		FeeGrowthGlobalB: ReadU128LE(data, poolFeeGrowthBOffset),
		Bump:             data[poolBumpOffset],
	}, nil
}

// DecodePosition decodes a position account.
func DecodePosition(data []byte) (*PositionState, error) {
	if len(data) < constants.PositionAccountSize {
		return nil, &LengthError{Record: "position", Need: constants.PositionAccountSize, Got: len(data)}
	}
	return &PositionState{
		Owner:                readPubkey(data, positionOwnerOffset),
		Pool:                 readPubkey(data, positionPoolOffset),
		LPShares:             ReadU64LE(data, positionLPSharesOffset),
		FeeGrowthCheckpointA: ReadU128LE(data, positionCheckpointAOffset),
		FeeGrowthCheckpointB: ReadU128LE(data, positionCheckpointBOffset),
		FeesOwedA:            ReadU64LE(data, positionFeesOwedAOffset),
		FeesOwedB:            ReadU64LE(data, positionFeesOwedBOffset),
		AutoCompound:         data[positionAutoCompoundOff] != 0,
		CompoundThreshold:    ReadU64LE(data, positionThresholdOffset),
		Bump:                 data[positionBumpOffset],
	}, nil
}

// DecodeTokenAmount reads the amount of an SPL token account
// (mint(32) owner(32) amount(8) ...).
func DecodeTokenAmount(data []byte) (uint64, error) {
	if len(data) < constants.TokenAccountMinSize {
		return 0, &LengthError{Record: "token account", Need: constants.TokenAccountMinSize, Got: len(data)}
	}
	return ReadU64LE(data, tokenAmountOffset), nil
}

// ReadU64LE reads a little-endian u64. The caller guarantees the bounds.
func ReadU64LE(data []byte, offset int) uint64 {
	return binary.LittleEndian.Uint64(data[offset : offset+8])
}

func PutU64LE(dst []byte, offset int, v uint64) {
	binary.LittleEndian.PutUint64(dst[offset:offset+8], v)
}

// ReadU128LE reads two little-endian u64 words, low word first.
func ReadU128LE(data []byte, offset int) uint128.Uint128 {
	return uint128.FromBytes(data[offset : offset+16])
}

func PutU128LE(dst []byte, offset int, v uint128.Uint128) {
	v.PutBytes(dst[offset : offset+16])
}

func readPubkey(data []byte, offset int) solana.PublicKey {
	return solana.PublicKeyFromBytes(data[offset : offset+32])
}

// AccountDiscriminator is the Anchor account tag: sha256("account:<Name>")[:8].
func AccountDiscriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var out [8]byte
	copy(out[:], sum[:8])
	return out
}

var (
	PoolDiscriminator     = AccountDiscriminator("Pool")
	PositionDiscriminator = AccountDiscriminator("Position")
)

// EncodePool writes p in the on-chain layout, tagged with PoolDiscriminator.
func EncodePool(p *PoolState) []byte {
	data := make([]byte, constants.PoolAccountSize)
	copy(data, PoolDiscriminator[:])
	copy(data[poolAuthorityOffset:], p.Authority[:])
	data[poolAuthorityBumpOffset] = p.AuthorityBump
	copy(data[poolMintAOffset:], p.MintA[:])
	copy(data[poolMintBOffset:], p.MintB[:])
	copy(data[poolVaultAOffset:], p.VaultA[:])
	copy(data[poolVaultBOffset:], p.VaultB[:])
	PutU64LE(data, poolLPSupplyOffset, p.LPSupply)
	binary.LittleEndian.PutUint16(data[poolFeeRateOffset:], p.FeeRateBps)
	PutU128LE(data, poolFeeGrowthAOffset, p.FeeGrowthGlobalA)
	PutU128LE(data, poolFeeGrowthBOffset, p.FeeGrowthGlobalB)
	data[poolBumpOffset] = p.Bump
	return data
}

// EncodePosition writes p in the on-chain layout, tagged with PositionDiscriminator.
func EncodePosition(p *PositionState) []byte {
	data := make([]byte, constants.PositionAccountSize)
	copy(data, PositionDiscriminator[:])
	copy(data[positionOwnerOffset:], p.Owner[:])
	copy(data[positionPoolOffset:], p.Pool[:])
	PutU64LE(data, positionLPSharesOffset, p.LPShares)
	PutU128LE(data, positionCheckpointAOffset, p.FeeGrowthCheckpointA)
	PutU128LE(data, positionCheckpointBOffset, p.FeeGrowthCheckpointB)
	PutU64LE(data, positionFeesOwedAOffset, p.FeesOwedA)
	PutU64LE(data, positionFeesOwedBOffset, p.FeesOwedB)
	if p.AutoCompound {
		data[positionAutoCompoundOff] = 1
	}
	PutU64LE(data, positionThresholdOffset, p.CompoundThreshold)
	data[positionBumpOffset] = p.Bump
	return data
}

// EncodeTokenAccount builds a minimal 165-byte SPL token account.
func EncodeTokenAccount(mint, owner solana.PublicKey, amount uint64) []byte {
	data := make([]byte, 165)
	copy(data[0:], mint[:])
	copy(data[32:], owner[:])
	PutU64LE(data, tokenAmountOffset, amount)
	return data
}
