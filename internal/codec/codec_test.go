package codec

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"
)

func TestBase58_RoundTripEdgeCases(t *testing.T) {
	zeros := make([]byte, 32)
	ones := bytes.Repeat([]byte{0xff}, 32)

	cases := map[string][]byte{
		"all zero":     zeros,
		"all 0xff":     ones,
		"leading zero": append([]byte{0, 0, 0}, ones[:29]...),
		"single byte":  {0x39},
		"empty":        {},
	}

	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			enc := EncodeBase58(in)
			assert.Equal(t, base58.Encode(in), enc)

			dec, err := DecodeBase58(enc)
			require.NoError(t, err)
			assert.Equal(t, in, dec)
		})
	}

	assert.Equal(t, "11111111111111111111111111111111", EncodeBase58(zeros))
}

func TestBase58_MatchesReferenceOnRandomKeys(t *testing.T) {
	buf := make([]byte, 32)
	for i := 0; i < 200; i++ {
		_, err := rand.Read(buf)
		require.NoError(t, err)
		if i%10 == 0 {
			buf[0] = 0
		}

		enc := EncodeBase58(buf)
		require.Equal(t, base58.Encode(buf), enc)

		dec, err := DecodeBase58(enc)
		require.NoError(t, err)
		require.Equal(t, buf, dec)
	}
}

func TestBase58_KnownAddresses(t *testing.T) {
	for _, addr := range []string{
		"8XJfG4mHqRZjByAd7HxHdEALfB8jVtJVQsdhGEmysTFq",
		"So11111111111111111111111111111111111111112",
		"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		"11111111111111111111111111111111",
	} {
		pk, err := DecodeAddress(addr)
		require.NoError(t, err)
		assert.Equal(t, solana.MustPublicKeyFromBase58(addr), pk)
		assert.Equal(t, addr, EncodeBase58(pk[:]))
	}
}

func TestBase58_RejectsInvalidInput(t *testing.T) {
	for _, s := range []string{"0abc", "Il", "abc+", "ä"} {
		_, err := DecodeBase58(s)
		assert.ErrorIs(t, err, ErrInvalidBase58, s)
	}

	_, err := DecodeAddress("abc")
	assert.ErrorIs(t, err, ErrInvalidBase58)
}

func TestDecodePool(t *testing.T) {
	want := &PoolState{
		Authority:        solana.NewWallet().PublicKey(),
		AuthorityBump:    254,
		MintA:            solana.NewWallet().PublicKey(),
		MintB:            solana.NewWallet().PublicKey(),
		VaultA:           solana.NewWallet().PublicKey(),
		VaultB:           solana.NewWallet().PublicKey(),
		LPSupply:         123_456_789,
		FeeRateBps:       30,
		FeeGrowthGlobalA: uint128.New(7, 3),
		FeeGrowthGlobalB: uint128.New(0, 1),
		Bump:             253,
	}

	data := EncodePool(want)
	require.Len(t, data, 212)

	got, err := DecodePool(data)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// spot-check raw offsets
	assert.Equal(t, want.MintA[:], data[41:73])
	assert.Equal(t, want.VaultB[:], data[137:169])
	assert.Equal(t, uint64(123_456_789), ReadU64LE(data, 169))
	assert.Equal(t, uint64(7), ReadU64LE(data, 179))
	assert.Equal(t, uint64(3), ReadU64LE(data, 187))
}

func TestDecodePosition(t *testing.T) {
	want := &PositionState{
		Owner:                solana.NewWallet().PublicKey(),
		Pool:                 solana.NewWallet().PublicKey(),
		LPShares:             1_000,
		FeeGrowthCheckpointA: uint128.From64(99),
		FeeGrowthCheckpointB: uint128.New(1, 2),
		FeesOwedA:            11,
		FeesOwedB:            22,
		AutoCompound:         true,
		CompoundThreshold:    5_000,
		Bump:                 250,
	}

	data := EncodePosition(want)
	require.Len(t, data, 138)

	got, err := DecodePosition(data)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, byte(1), data[128])
	assert.Equal(t, uint64(5_000), ReadU64LE(data, 129))
}

func TestDecode_ShortBuffers(t *testing.T) {
	_, err := DecodePool(make([]byte, 211))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShortBuffer))

	var lerr *LengthError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, 212, lerr.Need)
	assert.Equal(t, 211, lerr.Got)

	_, err = DecodePosition(make([]byte, 137))
	assert.ErrorIs(t, err, ErrShortBuffer)

	_, err = DecodeTokenAmount(make([]byte, 71))
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestDecodeTokenAmount(t *testing.T) {
	data := EncodeTokenAccount(solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), 42_000)
	amount, err := DecodeTokenAmount(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(42_000), amount)

	amount, err = DecodeTokenAmount(data[:72])
	require.NoError(t, err)
	assert.Equal(t, uint64(42_000), amount)
}

func TestReadU128LE_LowWordFirst(t *testing.T) {
	buf := make([]byte, 16)
	PutU64LE(buf, 0, 5)
	PutU64LE(buf, 8, 9)

	v := ReadU128LE(buf, 0)
	assert.Equal(t, uint64(5), v.Lo)
	assert.Equal(t, uint64(9), v.Hi)
}

func TestAccountDiscriminator_Stable(t *testing.T) {
	assert.Equal(t, AccountDiscriminator("Pool"), PoolDiscriminator)
	assert.NotEqual(t, PoolDiscriminator, PositionDiscriminator)
}
