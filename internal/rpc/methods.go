package rpc

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

func (c *Client) readOpts() map[string]interface{} {
	return map[string]interface{}{
		"encoding":   "base64",
		"commitment": c.commitment,
	}
}

func (v *accountValue) decode() (*Account, error) {
	if v.Data[1] != "" && v.Data[1] != "base64" {
		return nil, fmt.Errorf("unexpected account encoding %q", v.Data[1])
	}
	data, err := base64.StdEncoding.DecodeString(v.Data[0])
	if err != nil {
		return nil, fmt.Errorf("failed to decode account data: %w", err)
	}
	owner, err := solana.PublicKeyFromBase58(v.Owner)
	if err != nil {
		return nil, fmt.Errorf("invalid account owner: %w", err)
	}
	return &Account{
		Lamports:   v.Lamports,
		Owner:      owner,
		Executable: v.Executable,
		Data:       data,
	}, nil
}

// GetAccountInfo fetches one account. A missing account yields
// ErrAccountNotFound.
func (c *Client) GetAccountInfo(ctx context.Context, account solana.PublicKey) (*Account, error) {
	var res contextValue[*accountValue]
	params := []interface{}{account.String(), c.readOpts()}
	if err := c.Call(ctx, "getAccountInfo", params, &res); err != nil {
		return nil, err
	}
	if res.Value == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, account)
	}
	acc, err := res.Value.decode()
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", account, err)
	}
	return acc, nil
}

// GetAccountData returns only the data bytes of an account.
func (c *Client) GetAccountData(ctx context.Context, account solana.PublicKey) ([]byte, error) {
	acc, err := c.GetAccountInfo(ctx, account)
	if err != nil {
		return nil, err
	}
	return acc.Data, nil
}

// GetMultipleAccounts fetches accounts in one round trip. The result is
// index-aligned with accounts; missing accounts are nil.
func (c *Client) GetMultipleAccounts(ctx context.Context, accounts []solana.PublicKey) ([]*Account, error) {
	if len(accounts) == 0 {
		return nil, nil
	}
	keys := make([]string, len(accounts))
	for i, a := range accounts {
		keys[i] = a.String()
	}

	var res contextValue[[]*accountValue]
	if err := c.Call(ctx, "getMultipleAccounts", []interface{}{keys, c.readOpts()}, &res); err != nil {
		return nil, err
	}
	if len(res.Value) != len(accounts) {
		return nil, fmt.Errorf("getMultipleAccounts: asked for %d accounts, got %d", len(accounts), len(res.Value))
	}

	out := make([]*Account, len(accounts))
	for i, v := range res.Value {
		if v == nil {
			continue
		}
		acc, err := v.decode()
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", accounts[i], err)
		}
		out[i] = acc
	}
	return out, nil
}

// GetProgramAccounts scans accounts owned by program that match every filter.
func (c *Client) GetProgramAccounts(ctx context.Context, program solana.PublicKey, filters ...Filter) ([]KeyedAccount, error) {
	opts := c.readOpts()
	if len(filters) > 0 {
		opts["filters"] = filters
	}

	var res []programAccount
	if err := c.Call(ctx, "getProgramAccounts", []interface{}{program.String(), opts}, &res); err != nil {
		return nil, err
	}

	out := make([]KeyedAccount, 0, len(res))
	for _, pa := range res {
		key, err := solana.PublicKeyFromBase58(pa.Pubkey)
		if err != nil {
			return nil, fmt.Errorf("invalid program account key %q: %w", pa.Pubkey, err)
		}
		acc, err := pa.Account.decode()
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", key, err)
		}
		out = append(out, KeyedAccount{Pubkey: key, Account: acc})
	}
	return out, nil
}

// GetLatestBlockhash returns the latest blockhash and the last block height
// at which it is valid.
func (c *Client) GetLatestBlockhash(ctx context.Context) (solana.Hash, uint64, error) {
	var res contextValue[blockhashValue]
	params := []interface{}{map[string]interface{}{"commitment": c.commitment}}
	if err := c.Call(ctx, "getLatestBlockhash", params, &res); err != nil {
		return solana.Hash{}, 0, err
	}
	hash, err := solana.HashFromBase58(res.Value.Blockhash)
	if err != nil {
		return solana.Hash{}, 0, fmt.Errorf("invalid blockhash format: %w", err)
	}
	return hash, res.Value.LastValidBlockHeight, nil
}

// SendTransaction submits a signed transaction and returns its signature.
func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction, opts SendOptions) (string, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("failed to serialize transaction: %w", err)
	}

	if opts.PreflightCommitment == "" {
		opts.PreflightCommitment = "processed"
	}
	cfg := map[string]interface{}{
		"encoding":            "base64",
		"skipPreflight":       opts.SkipPreflight,
		"preflightCommitment": opts.PreflightCommitment,
	}
	if opts.MaxRetries != nil {
		cfg["maxRetries"] = *opts.MaxRetries
	}

	var sig string
	params := []interface{}{base64.StdEncoding.EncodeToString(raw), cfg}
	if err := c.Call(ctx, "sendTransaction", params, &sig); err != nil {
		return "", err
	}
	return sig, nil
}

// GetSignatureStatuses looks up the status of each signature. Unknown
// signatures are nil.
func (c *Client) GetSignatureStatuses(ctx context.Context, signatures ...string) ([]*SignatureStatus, error) {
	var res contextValue[[]*SignatureStatus]
	params := []interface{}{
		signatures,
		map[string]interface{}{"searchTransactionHistory": true},
	}
	if err := c.Call(ctx, "getSignatureStatuses", params, &res); err != nil {
		return nil, err
	}
	return res.Value, nil
}
