package tokens

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aman-zulfiqar/a2a-swap/internal/constants"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(constants.KnownTokens)
	require.NoError(t, err)
	return r
}

func TestParse(t *testing.T) {
	ref, err := Parse("usdc")
	require.NoError(t, err)
	assert.Equal(t, KindSymbol, ref.Kind)
	assert.Equal(t, "USDC", ref.Symbol)

	ref, err = Parse(constants.USDCMint)
	require.NoError(t, err)
	assert.Equal(t, KindAddress, ref.Kind)
	assert.Equal(t, solana.MustPublicKeyFromBase58(constants.USDCMint), ref.Address)

	_, err = Parse("  ")
	assert.ErrorIs(t, err, ErrUnknownToken)
}

func TestRegistry_Resolve(t *testing.T) {
	r := defaultRegistry(t)

	sol, err := r.ResolveString("sol")
	require.NoError(t, err)
	assert.Equal(t, solana.MustPublicKeyFromBase58(constants.WrappedSOLMint), sol)

	raw := solana.NewWallet().PublicKey()
	got, err := r.ResolveString(raw.String())
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	_, err = r.ResolveString("DOGE")
	assert.ErrorIs(t, err, ErrUnknownToken)
	assert.Contains(t, err.Error(), "USDC")
}

func TestRegistry_Label(t *testing.T) {
	r := defaultRegistry(t)

	assert.Equal(t, "USDC", r.Label(solana.MustPublicKeyFromBase58(constants.USDCMint)))
	// SOL sorts before WSOL, so it wins the reverse lookup
	assert.Equal(t, "SOL", r.Label(solana.MustPublicKeyFromBase58(constants.WrappedSOLMint)))

	unknown := solana.NewWallet().PublicKey()
	label := r.Label(unknown)
	s := unknown.String()
	assert.Equal(t, s[:4]+"…"+s[len(s)-4:], label)
}

func TestRegistry_LoadFile(t *testing.T) {
	r := defaultRegistry(t)
	mint := solana.NewWallet().PublicKey()

	path := filepath.Join(t.TempDir(), "tokens.yaml")
	content := "tokens:\n  bonk: " + mint.String() + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	require.NoError(t, r.LoadFile(path))
	got, err := r.ResolveString("BONK")
	require.NoError(t, err)
	assert.Equal(t, mint, got)
	assert.Contains(t, r.Symbols(), "BONK")
}

func TestRegistry_LoadFileRejectsBadMint(t *testing.T) {
	r := defaultRegistry(t)

	path := filepath.Join(t.TempDir(), "tokens.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tokens:\n  bad: not-a-mint\n"), 0o600))
	assert.Error(t, r.LoadFile(path))

	assert.Error(t, r.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")))
}
