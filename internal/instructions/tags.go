package instructions

import (
	"crypto/sha256"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

// Discriminator is the Anchor instruction tag: sha256("global:<name>")[:8].
func Discriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("global:" + name))
	var tag [8]byte
	copy(tag[:], sum[:8])
	return tag
}

// Instruction names as declared by the program.
const (
	NameInitializePool    = "initialize_pool"
	NameProvideLiquidity  = "provide_liquidity"
	NameRemoveLiquidity   = "remove_liquidity"
	NameClaimFees         = "claim_fees"
	NameSwap              = "swap"
	NameApproveAndExecute = "approve_and_execute"
)

// encodeData prefixes the Borsh encoding of args with the instruction tag.
// A nil args yields the bare tag.
func encodeData(name string, args any) ([]byte, error) {
	tag := Discriminator(name)
	data := make([]byte, 0, 8+32)
	data = append(data, tag[:]...)
	if args == nil {
		return data, nil
	}
	body, err := bin.MarshalBorsh(args)
	if err != nil {
		return nil, fmt.Errorf("encode %s args: %w", name, err)
	}
	return append(data, body...), nil
}
