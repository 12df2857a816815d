package instructions

import (
	"encoding/binary"

	"github.com/aman-zulfiqar/a2a-swap/internal/constants"
	"github.com/gagliardetto/solana-go"
)

var (
	ataProgramID   = solana.MustPublicKeyFromBase58(constants.AssociatedTokenProgID)
	wrappedSOLMint = solana.MustPublicKeyFromBase58(constants.WrappedSOLMint)
)

// IsWrappedSOL reports whether mint is the native wrapped-SOL mint.
func IsWrappedSOL(mint solana.PublicKey) bool {
	return mint.Equals(wrappedSOLMint)
}

// NewCreateATAIdempotent builds an ATA create that succeeds when the account
// already exists.
// Account order (ATA program):
// 0. payer (signer, writable)
// 1. ata (writable)
// 2. owner
// 3. mint
// 4. system_program
// 5. token_program
func NewCreateATAIdempotent(payer, ata, owner, mint solana.PublicKey) solana.Instruction {
	accounts := []*solana.AccountMeta{
		{PublicKey: payer, IsSigner: true, IsWritable: true},
		{PublicKey: ata, IsWritable: true},
		{PublicKey: owner},
		{PublicKey: mint},
		{PublicKey: systemProgramID},
		{PublicKey: tokenProgramID},
	}
	// 1 = CreateIdempotent
	return solana.NewInstruction(ataProgramID, accounts, []byte{1})
}

// NewSystemTransfer builds a SystemProgram transfer.
func NewSystemTransfer(from, to solana.PublicKey, lamports uint64) solana.Instruction {
	// u32 instruction index (2 = Transfer) | u64 lamports
	data := make([]byte, 4+8)
	binary.LittleEndian.PutUint32(data[0:4], 2)
	binary.LittleEndian.PutUint64(data[4:12], lamports)

	accounts := []*solana.AccountMeta{
		{PublicKey: from, IsSigner: true, IsWritable: true},
		{PublicKey: to, IsWritable: true},
	}
	return solana.NewInstruction(systemProgramID, accounts, data)
}

// NewSyncNative builds an SPL Token SyncNative (index 17).
func NewSyncNative(nativeAccount solana.PublicKey) solana.Instruction {
	accounts := []*solana.AccountMeta{
		{PublicKey: nativeAccount, IsWritable: true},
	}
	return solana.NewInstruction(tokenProgramID, accounts, []byte{17})
}

// NewCloseAccount builds an SPL Token CloseAccount (index 9).
func NewCloseAccount(account, destination, owner solana.PublicKey) solana.Instruction {
	accounts := []*solana.AccountMeta{
		{PublicKey: account, IsWritable: true},
		{PublicKey: destination, IsWritable: true},
		{PublicKey: owner, IsSigner: true},
	}
	return solana.NewInstruction(tokenProgramID, accounts, []byte{9})
}

// WrapNative funds owner's wSOL account with lamports: create (idempotent),
// transfer, sync. The order is significant.
func WrapNative(owner, ata solana.PublicKey, lamports uint64) []solana.Instruction {
	return []solana.Instruction{
		NewCreateATAIdempotent(owner, ata, owner, wrappedSOLMint),
		NewSystemTransfer(owner, ata, lamports),
		NewSyncNative(ata),
	}
}

// UnwrapNative closes owner's wSOL account, returning its lamports.
func UnwrapNative(owner, ata solana.PublicKey) []solana.Instruction {
	return []solana.Instruction{NewCloseAccount(ata, owner, owner)}
}
