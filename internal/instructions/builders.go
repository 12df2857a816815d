package instructions

import (
	"fmt"

	"github.com/aman-zulfiqar/a2a-swap/internal/constants"
	"github.com/gagliardetto/solana-go"
)

var (
	tokenProgramID  = solana.MustPublicKeyFromBase58(constants.TokenProgramID)
	systemProgramID = solana.MustPublicKeyFromBase58(constants.SystemProgramID)
	rentSysvarID    = solana.MustPublicKeyFromBase58(constants.RentSysvarID)
)

// SwapAccounts lists the accounts of a swap. Vaults are always given in pool
// order; the token accounts follow the caller's input/output direction.
type SwapAccounts struct {
	Agent           solana.PublicKey
	Pool            solana.PublicKey
	PoolAuthority   solana.PublicKey
	VaultA          solana.PublicKey
	VaultB          solana.PublicKey
	AgentTokenIn    solana.PublicKey
	AgentTokenOut   solana.PublicKey
	Treasury        solana.PublicKey
	TreasuryTokenIn solana.PublicKey
}

func (a *SwapAccounts) metas(approver *solana.PublicKey) []*solana.AccountMeta {
	metas := []*solana.AccountMeta{
		{PublicKey: a.Agent, IsSigner: true, IsWritable: true},
	}
	if approver != nil {
		metas = append(metas, &solana.AccountMeta{PublicKey: *approver, IsSigner: true, IsWritable: false})
	}
	return append(metas,
		&solana.AccountMeta{PublicKey: a.Pool, IsWritable: true},
		&solana.AccountMeta{PublicKey: a.PoolAuthority},
		&solana.AccountMeta{PublicKey: a.VaultA, IsWritable: true},
		&solana.AccountMeta{PublicKey: a.VaultB, IsWritable: true},
		&solana.AccountMeta{PublicKey: a.AgentTokenIn, IsWritable: true},
		&solana.AccountMeta{PublicKey: a.AgentTokenOut, IsWritable: true},
		&solana.AccountMeta{PublicKey: a.Treasury},
		&solana.AccountMeta{PublicKey: a.TreasuryTokenIn, IsWritable: true},
		&solana.AccountMeta{PublicKey: tokenProgramID},
	)
}

// NewSwap builds the swap instruction.
// Data: tag | amount_in u64 | min_amount_out u64 | a_to_b u8 (25 bytes).
func NewSwap(programID solana.PublicKey, accts SwapAccounts, args SwapArgs) (solana.Instruction, error) {
	data, err := encodeData(NameSwap, args)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(programID, accts.metas(nil), data), nil
}

// NewApproveAndExecute builds a swap co-signed by approver. The approver is
// inserted directly after the agent.
func NewApproveAndExecute(programID solana.PublicKey, accts SwapAccounts, approver solana.PublicKey, args SwapArgs) (solana.Instruction, error) {
	data, err := encodeData(NameApproveAndExecute, args)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(programID, accts.metas(&approver), data), nil
}

type InitializePoolAccounts struct {
	Creator       solana.PublicKey
	MintA         solana.PublicKey
	MintB         solana.PublicKey
	Pool          solana.PublicKey
	PoolAuthority solana.PublicKey
	// VaultA and VaultB are fresh keypairs and must sign the transaction.
	VaultA solana.PublicKey
	VaultB solana.PublicKey
}

// NewInitializePool builds initialize_pool. The fee rate must be within
// [MinFeeRateBps, MaxFeeRateBps].
func NewInitializePool(programID solana.PublicKey, accts InitializePoolAccounts, args InitializePoolArgs) (solana.Instruction, error) {
	if args.FeeRateBps < constants.MinFeeRateBps || args.FeeRateBps > constants.MaxFeeRateBps {
		return nil, fmt.Errorf("fee rate %d bps outside [%d, %d]",
			args.FeeRateBps, constants.MinFeeRateBps, constants.MaxFeeRateBps)
	}
	data, err := encodeData(NameInitializePool, args)
	if err != nil {
		return nil, err
	}
	metas := []*solana.AccountMeta{
		{PublicKey: accts.Creator, IsSigner: true, IsWritable: true},
		{PublicKey: accts.MintA},
		{PublicKey: accts.MintB},
		{PublicKey: accts.Pool, IsWritable: true},
		{PublicKey: accts.PoolAuthority},
		{PublicKey: accts.VaultA, IsSigner: true, IsWritable: true},
		{PublicKey: accts.VaultB, IsSigner: true, IsWritable: true},
		{PublicKey: tokenProgramID},
		{PublicKey: systemProgramID},
		{PublicKey: rentSysvarID},
	}
	return solana.NewInstruction(programID, metas, data), nil
}

// LiquidityAccounts is shared by provide_liquidity, remove_liquidity and
// claim_fees. Token accounts are in pool order.
type LiquidityAccounts struct {
	Agent         solana.PublicKey
	Pool          solana.PublicKey
	PoolAuthority solana.PublicKey
	Position      solana.PublicKey
	VaultA        solana.PublicKey
	VaultB        solana.PublicKey
	AgentTokenA   solana.PublicKey
	AgentTokenB   solana.PublicKey
}

func (a *LiquidityAccounts) metas() []*solana.AccountMeta {
	return []*solana.AccountMeta{
		{PublicKey: a.Agent, IsSigner: true, IsWritable: true},
		{PublicKey: a.Pool, IsWritable: true},
		{PublicKey: a.PoolAuthority},
		{PublicKey: a.Position, IsWritable: true},
		{PublicKey: a.VaultA, IsWritable: true},
		{PublicKey: a.VaultB, IsWritable: true},
		{PublicKey: a.AgentTokenA, IsWritable: true},
		{PublicKey: a.AgentTokenB, IsWritable: true},
		{PublicKey: tokenProgramID},
	}
}

// NewProvideLiquidity builds provide_liquidity. The position account is
// created on first deposit, hence the system program and rent sysvar.
func NewProvideLiquidity(programID solana.PublicKey, accts LiquidityAccounts, args ProvideLiquidityArgs) (solana.Instruction, error) {
	data, err := encodeData(NameProvideLiquidity, args)
	if err != nil {
		return nil, err
	}
	metas := append(accts.metas(),
		&solana.AccountMeta{PublicKey: systemProgramID},
		&solana.AccountMeta{PublicKey: rentSysvarID},
	)
	return solana.NewInstruction(programID, metas, data), nil
}

func NewRemoveLiquidity(programID solana.PublicKey, accts LiquidityAccounts, args RemoveLiquidityArgs) (solana.Instruction, error) {
	data, err := encodeData(NameRemoveLiquidity, args)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(programID, accts.metas(), data), nil
}

// NewClaimFees builds claim_fees. It carries no arguments.
func NewClaimFees(programID solana.PublicKey, accts LiquidityAccounts) (solana.Instruction, error) {
	data, err := encodeData(NameClaimFees, nil)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(programID, accts.metas(), data), nil
}
