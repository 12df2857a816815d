package constants

import "time"

// Program addresses
const (
	DefaultProgramID      = "8XJfG4mHqRZjByAd7HxHdEALfB8jVtJVQsdhGEmysTFq"
	TokenProgramID        = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	AssociatedTokenProgID = "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"
	SystemProgramID       = "11111111111111111111111111111111"
	RentSysvarID          = "SysvarRent111111111111111111111111111111111"
)

// Well-known mints
const (
	WrappedSOLMint = "So11111111111111111111111111111111111111112"
	USDCMint       = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	USDTMint       = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
)

// PDA seeds
const (
	SeedPool          = "pool"
	SeedPoolAuthority = "pool_authority"
	SeedPosition      = "position"
	SeedTreasury      = "treasury"
)

// Fee math. Protocol fee is 0.020% of amount_in, taken before the LP fee.
const (
	ProtocolFeeNumerator   = 20
	ProtocolFeeDenominator = 100_000
	BpsDenominator         = 10_000

	DefaultFeeRateBps = 30
	MinFeeRateBps     = 1
	MaxFeeRateBps     = 100

	DefaultSlippageBps = 50
	// Slippage above this is almost always a caller mistake.
	SlippageWarnBps = 3_000
)

// Account sizes (including the 8-byte Anchor discriminator)
const (
	PoolAccountSize     = 212
	PositionAccountSize = 138
	TokenAccountMinSize = 72
)

// Payment gate
const (
	X402Version            = 1
	PaymentHeader          = "X-PAYMENT"
	PaymentResponseHeader  = "X-PAYMENT-RESPONSE"
	PaymentScheme          = "exact"
	DefaultSettleTimeout   = 7 * time.Second
	DefaultVerifyTimeout   = 5 * time.Second
	DefaultSettleRetryHint = 5 * time.Second
)

// Redis keys
const (
	RedisKeyReceiptPrefix = "x402:receipt:"
	RedisKeyUsagePrefix   = "approval:usage:"
)

// KnownTokens maps upper-case symbols to mint addresses. Callers copy it into a
// tokens.Registry; it is never mutated.
var KnownTokens = map[string]string{
	"SOL":  WrappedSOLMint,
	"WSOL": WrappedSOLMint,
	"USDC": USDCMint,
	"USDT": USDTMint,
}
