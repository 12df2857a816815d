package rpc

import (
	"errors"
	"fmt"

	"github.com/aman-zulfiqar/a2a-swap/internal/codec"
	"github.com/gagliardetto/solana-go"
)

// ErrAccountNotFound is returned when the node reports a null account.
var ErrAccountNotFound = errors.New("account not found")

// RPCError represents a JSON-RPC error response
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// HTTPError is a non-200 reply from the node.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if len(e.Body) > 200 {
		return fmt.Sprintf("rpc http %d: %s...", e.StatusCode, e.Body[:200])
	}
	return fmt.Sprintf("rpc http %d: %s", e.StatusCode, e.Body)
}

// Account is a decoded getAccountInfo value.
type Account struct {
	Lamports   uint64
	Owner      solana.PublicKey
	Executable bool
	Data       []byte
}

// KeyedAccount is one entry of a getProgramAccounts reply.
type KeyedAccount struct {
	Pubkey  solana.PublicKey
	Account *Account
}

// Filter is a getProgramAccounts filter. Set exactly one of DataSize or
// Memcmp.
type Filter struct {
	DataSize *uint64       `json:"dataSize,omitempty"`
	Memcmp   *MemcmpFilter `json:"memcmp,omitempty"`
}

type MemcmpFilter struct {
	Offset uint64 `json:"offset"`
	// Bytes is base58, as the node expects by default.
	Bytes string `json:"bytes"`
}

// DataSizeFilter matches accounts of exactly size bytes.
func DataSizeFilter(size uint64) Filter {
	return Filter{DataSize: &size}
}

// MemcmpBytesFilter matches accounts whose data at offset equals b.
func MemcmpBytesFilter(offset uint64, b []byte) Filter {
	return Filter{Memcmp: &MemcmpFilter{Offset: offset, Bytes: codec.EncodeBase58(b)}}
}

// SignatureStatus is one entry of getSignatureStatuses.
type SignatureStatus struct {
	Slot               uint64      `json:"slot"`
	Confirmations      *uint64     `json:"confirmations"`
	Err                interface{} `json:"err"`
	ConfirmationStatus string      `json:"confirmationStatus"`
}

// SendOptions configures sendTransaction.
type SendOptions struct {
	SkipPreflight       bool
	PreflightCommitment string
	MaxRetries          *uint
}

// wire shapes

type accountValue struct {
	Lamports   uint64    `json:"lamports"`
	Owner      string    `json:"owner"`
	Executable bool      `json:"executable"`
	Data       [2]string `json:"data"`
}

type contextValue[T any] struct {
	Value T `json:"value"`
}

type programAccount struct {
	Pubkey  string       `json:"pubkey"`
	Account accountValue `json:"account"`
}

type blockhashValue struct {
	Blockhash            string `json:"blockhash"`
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
}
