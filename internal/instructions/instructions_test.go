package instructions

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"testing"

	"github.com/aman-zulfiqar/a2a-swap/internal/constants"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var programID = solana.MustPublicKeyFromBase58(constants.DefaultProgramID)

func newKey() solana.PublicKey { return solana.NewWallet().PublicKey() }

func swapAccounts() SwapAccounts {
	return SwapAccounts{
		Agent:           newKey(),
		Pool:            newKey(),
		PoolAuthority:   newKey(),
		VaultA:          newKey(),
		VaultB:          newKey(),
		AgentTokenIn:    newKey(),
		AgentTokenOut:   newKey(),
		Treasury:        newKey(),
		TreasuryTokenIn: newKey(),
	}
}

func TestDiscriminator_PureFunctionOfName(t *testing.T) {
	sum := sha256.Sum256([]byte("global:swap"))
	want := [8]byte{}
	copy(want[:], sum[:8])

	assert.Equal(t, want, Discriminator("swap"))
	assert.Equal(t, Discriminator("swap"), Discriminator(NameSwap))
	assert.NotEqual(t, Discriminator(NameSwap), Discriminator(NameApproveAndExecute))
}

func TestNewSwap_Payload(t *testing.T) {
	ix, err := NewSwap(programID, swapAccounts(), SwapArgs{AmountIn: 5, MinAmountOut: 3, AToB: true})
	require.NoError(t, err)

	data, err := ix.Data()
	require.NoError(t, err)
	require.Len(t, data, 25)

	tag := Discriminator("swap")
	assert.Equal(t, tag[:], data[:8])
	assert.Equal(t, uint64(5), binary.LittleEndian.Uint64(data[8:16]))
	assert.Equal(t, uint64(3), binary.LittleEndian.Uint64(data[16:24]))
	assert.Equal(t, byte(1), data[24])

	again, err := NewSwap(programID, swapAccounts(), SwapArgs{AmountIn: 5, MinAmountOut: 3, AToB: true})
	require.NoError(t, err)
	againData, err := again.Data()
	require.NoError(t, err)
	assert.Equal(t, data, againData)

	flipped, err := NewSwap(programID, swapAccounts(), SwapArgs{AmountIn: 5, MinAmountOut: 3})
	require.NoError(t, err)
	flippedData, err := flipped.Data()
	require.NoError(t, err)
	assert.Equal(t, byte(0), flippedData[24])
}

func TestNewSwap_AccountOrder(t *testing.T) {
	accts := swapAccounts()
	ix, err := NewSwap(programID, accts, SwapArgs{AmountIn: 1})
	require.NoError(t, err)
	assert.Equal(t, programID, ix.ProgramID())

	metas := ix.Accounts()
	require.Len(t, metas, 10)

	want := []struct {
		key              solana.PublicKey
		signer, writable bool
	}{
		{accts.Agent, true, true},
		{accts.Pool, false, true},
		{accts.PoolAuthority, false, false},
		{accts.VaultA, false, true},
		{accts.VaultB, false, true},
		{accts.AgentTokenIn, false, true},
		{accts.AgentTokenOut, false, true},
		{accts.Treasury, false, false},
		{accts.TreasuryTokenIn, false, true},
		{tokenProgramID, false, false},
	}
	for i, w := range want {
		assert.Equal(t, w.key, metas[i].PublicKey, "account %d", i)
		assert.Equal(t, w.signer, metas[i].IsSigner, "account %d signer", i)
		assert.Equal(t, w.writable, metas[i].IsWritable, "account %d writable", i)
	}
}

func TestNewApproveAndExecute_InsertsApprover(t *testing.T) {
	accts := swapAccounts()
	approver := newKey()
	ix, err := NewApproveAndExecute(programID, accts, approver, SwapArgs{AmountIn: 5, MinAmountOut: 3, AToB: true})
	require.NoError(t, err)

	metas := ix.Accounts()
	require.Len(t, metas, 11)
	assert.Equal(t, accts.Agent, metas[0].PublicKey)
	assert.Equal(t, approver, metas[1].PublicKey)
	assert.True(t, metas[1].IsSigner)
	assert.False(t, metas[1].IsWritable)
	assert.Equal(t, accts.Pool, metas[2].PublicKey)

	data, err := ix.Data()
	require.NoError(t, err)
	require.Len(t, data, 25)
	tag := Discriminator(NameApproveAndExecute)
	assert.Equal(t, tag[:], data[:8])
}

func TestNewInitializePool(t *testing.T) {
	accts := InitializePoolAccounts{
		Creator: newKey(), MintA: newKey(), MintB: newKey(),
		Pool: newKey(), PoolAuthority: newKey(), VaultA: newKey(), VaultB: newKey(),
	}
	ix, err := NewInitializePool(programID, accts, InitializePoolArgs{FeeRateBps: 30})
	require.NoError(t, err)

	data, err := ix.Data()
	require.NoError(t, err)
	require.Len(t, data, 10)
	assert.Equal(t, uint16(30), binary.LittleEndian.Uint16(data[8:]))

	metas := ix.Accounts()
	require.Len(t, metas, 10)
	assert.True(t, metas[5].IsSigner)
	assert.True(t, metas[6].IsSigner)
	assert.Equal(t, rentSysvarID, metas[9].PublicKey)

	for _, fee := range []uint16{0, 101} {
		_, err := NewInitializePool(programID, accts, InitializePoolArgs{FeeRateBps: fee})
		assert.Error(t, err, "fee %d", fee)
	}
}

func liquidityAccounts() LiquidityAccounts {
	return LiquidityAccounts{
		Agent: newKey(), Pool: newKey(), PoolAuthority: newKey(), Position: newKey(),
		VaultA: newKey(), VaultB: newKey(), AgentTokenA: newKey(), AgentTokenB: newKey(),
	}
}

func TestLiquidityInstructions(t *testing.T) {
	accts := liquidityAccounts()

	provide, err := NewProvideLiquidity(programID, accts, ProvideLiquidityArgs{
		AmountA: 1, AmountB: 2, MinLP: 3, AutoCompound: true, CompoundThreshold: 4,
	})
	require.NoError(t, err)
	data, err := provide.Data()
	require.NoError(t, err)
	require.Len(t, data, 8+8+8+8+1+8)
	assert.Equal(t, uint64(3), binary.LittleEndian.Uint64(data[24:32]))
	assert.Equal(t, byte(1), data[32])
	assert.Equal(t, uint64(4), binary.LittleEndian.Uint64(data[33:41]))
	assert.Len(t, provide.Accounts(), 11)
	assert.Equal(t, accts.Position, provide.Accounts()[3].PublicKey)

	remove, err := NewRemoveLiquidity(programID, accts, RemoveLiquidityArgs{LPShares: 9, MinA: 8, MinB: 7})
	require.NoError(t, err)
	data, err = remove.Data()
	require.NoError(t, err)
	require.Len(t, data, 32)
	assert.Equal(t, uint64(7), binary.LittleEndian.Uint64(data[24:32]))
	assert.Len(t, remove.Accounts(), 9)

	claim, err := NewClaimFees(programID, accts)
	require.NoError(t, err)
	data, err = claim.Data()
	require.NoError(t, err)
	tag := Discriminator(NameClaimFees)
	assert.Equal(t, tag[:], data)
	assert.Len(t, claim.Accounts(), 9)
}

func TestAssembleSwap_WrapsInputSOL(t *testing.T) {
	accts := swapAccounts()
	swap, err := NewSwap(programID, accts, SwapArgs{AmountIn: 1_000})
	require.NoError(t, err)

	usdc := solana.MustPublicKeyFromBase58(constants.USDCMint)
	plan := AssembleSwap(swap, accts, wrappedSOLMint, usdc, 1_000)
	ixs := plan.Instructions()
	require.Len(t, ixs, 4)

	assert.Equal(t, ataProgramID, ixs[0].ProgramID())
	createData, _ := ixs[0].Data()
	assert.Equal(t, []byte{1}, createData)

	assert.Equal(t, systemProgramID, ixs[1].ProgramID())
	transferData, _ := ixs[1].Data()
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(transferData[:4]))
	assert.Equal(t, uint64(1_000), binary.LittleEndian.Uint64(transferData[4:]))
	assert.Equal(t, accts.AgentTokenIn, ixs[1].Accounts()[1].PublicKey)

	syncData, _ := ixs[2].Data()
	assert.Equal(t, []byte{17}, syncData)
	assert.Same(t, swap, ixs[3])
}

func TestAssembleSwap_UnwrapsOutputSOL(t *testing.T) {
	accts := swapAccounts()
	swap, err := NewSwap(programID, accts, SwapArgs{AmountIn: 1_000})
	require.NoError(t, err)

	usdc := solana.MustPublicKeyFromBase58(constants.USDCMint)
	plan := AssembleSwap(swap, accts, usdc, wrappedSOLMint, 1_000)
	ixs := plan.Instructions()
	require.Len(t, ixs, 3)

	assert.Same(t, swap, ixs[1])
	closeData, _ := ixs[2].Data()
	assert.Equal(t, []byte{9}, closeData)
	assert.Equal(t, accts.AgentTokenOut, ixs[2].Accounts()[0].PublicKey)
	assert.Equal(t, accts.Agent, ixs[2].Accounts()[1].PublicKey)
}

func TestAssembleSwap_NoNativeLeg(t *testing.T) {
	accts := swapAccounts()
	swap, err := NewSwap(programID, accts, SwapArgs{AmountIn: 1})
	require.NoError(t, err)

	plan := AssembleSwap(swap, accts, newKey(), newKey(), 1)
	assert.Len(t, plan.Instructions(), 1)
}

func TestValidateSwap(t *testing.T) {
	_, err := ValidateSwap(0, 0, 50)
	assert.ErrorIs(t, err, ErrZeroAmountIn)

	warnings, err := ValidateSwap(100, 50, 50)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	warnings, err = ValidateSwap(100, 200, 50)
	require.NoError(t, err)
	assert.Len(t, warnings, 1)

	warnings, err = ValidateSwap(100, 0, 0)
	require.NoError(t, err)
	assert.Len(t, warnings, 1)

	warnings, err = ValidateSwap(100, 0, 3_001)
	require.NoError(t, err)
	assert.Len(t, warnings, 1)

	warnings, err = ValidateSwap(100, 0, 3_000)
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestToJSON(t *testing.T) {
	accts := swapAccounts()
	ix, err := NewSwap(programID, accts, SwapArgs{AmountIn: 5, MinAmountOut: 3, AToB: true})
	require.NoError(t, err)

	view, err := ToJSON(ix)
	require.NoError(t, err)
	assert.Equal(t, constants.DefaultProgramID, view.ProgramID)
	require.Len(t, view.Accounts, 10)
	assert.Equal(t, accts.Agent.String(), view.Accounts[0].Pubkey)
	assert.True(t, view.Accounts[0].IsSigner)

	raw, err := base64.StdEncoding.DecodeString(view.Data)
	require.NoError(t, err)
	assert.Len(t, raw, 25)
}
