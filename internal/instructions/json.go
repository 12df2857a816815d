package instructions

import (
	"encoding/base64"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// AccountJSON and InstructionJSON are the wire view handed to callers that
// sign elsewhere.
type AccountJSON struct {
	Pubkey     string `json:"pubkey"`
	IsSigner   bool   `json:"isSigner"`
	IsWritable bool   `json:"isWritable"`
}

type InstructionJSON struct {
	ProgramID string        `json:"programId"`
	Accounts  []AccountJSON `json:"accounts"`
	Data      string        `json:"data"`
}

func ToJSON(ix solana.Instruction) (*InstructionJSON, error) {
	data, err := ix.Data()
	if err != nil {
		return nil, fmt.Errorf("instruction data: %w", err)
	}
	metas := ix.Accounts()
	out := &InstructionJSON{
		ProgramID: ix.ProgramID().String(),
		Accounts:  make([]AccountJSON, 0, len(metas)),
		Data:      base64.StdEncoding.EncodeToString(data),
	}
	for _, m := range metas {
		out.Accounts = append(out.Accounts, AccountJSON{
			Pubkey:     m.PublicKey.String(),
			IsSigner:   m.IsSigner,
			IsWritable: m.IsWritable,
		})
	}
	return out, nil
}

// ToJSONList converts every instruction in order.
func ToJSONList(ixs []solana.Instruction) ([]*InstructionJSON, error) {
	out := make([]*InstructionJSON, 0, len(ixs))
	for _, ix := range ixs {
		j, err := ToJSON(ix)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, nil
}
