package wallet

import (
	"context"
	"fmt"
	"time"

	projectrpc "github.com/aman-zulfiqar/a2a-swap/internal/rpc"
	"github.com/gagliardetto/solana-go"
)

// SignTx signs tx with the wallet key and any extra signers, such as fresh
// vault keypairs on pool creation.
func (w *Wallet) SignTx(tx *solana.Transaction, extra ...solana.PrivateKey) error {
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(w.pub) {
			return &w.priv
		}
		for i := range extra {
			if key.Equals(extra[i].PublicKey()) {
				return &extra[i]
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}
	return nil
}

// BuildTransaction creates a new transaction paid by the wallet, with a
// fresh blockhash.
func (w *Wallet) BuildTransaction(ctx context.Context, instructions []solana.Instruction) (*solana.Transaction, error) {
	recentBlockhash, _, err := w.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		instructions,
		recentBlockhash,
		solana.TransactionPayer(w.pub),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return tx, nil
}

// SendTx sends a signed transaction.
func (w *Wallet) SendTx(ctx context.Context, tx *solana.Transaction) (string, error) {
	sig, err := w.rpc.SendTransaction(ctx, tx, projectrpc.SendOptions{
		SkipPreflight:       w.cfg.SkipPreflight,
		PreflightCommitment: w.cfg.PreflightCommitment,
	})
	if err != nil {
		return "", fmt.Errorf("sendTransaction failed: %w", err)
	}
	return sig, nil
}

// ConfirmTransaction polls for transaction confirmation
func (w *Wallet) ConfirmTransaction(ctx context.Context, signature string) error {
	deadline := time.Now().Add(w.cfg.ConfirmTimeout)
	backoff := 500 * time.Millisecond
	maxBackoff := 4 * time.Second

	for time.Now().Before(deadline) {
		confirmed, err := w.checkSignatureStatus(ctx, signature)
		if err != nil {
			return fmt.Errorf("failed to check signature: %w", err)
		}
		if confirmed {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}

	return fmt.Errorf("transaction confirmation timeout after %v", w.cfg.ConfirmTimeout)
}

func (w *Wallet) checkSignatureStatus(ctx context.Context, signature string) (bool, error) {
	statuses, err := w.rpc.GetSignatureStatuses(ctx, signature)
	if err != nil {
		return false, err
	}
	if len(statuses) == 0 || statuses[0] == nil || statuses[0].ConfirmationStatus == "" {
		return false, nil // not yet processed
	}

	status := statuses[0]
	if status.Err != nil {
		return false, fmt.Errorf("transaction failed: %v", status.Err)
	}
	return commitmentReached(w.cfg.Commitment, status.ConfirmationStatus), nil
}

func commitmentReached(want, got string) bool {
	switch want {
	case "processed":
		return got != ""
	case "confirmed":
		return got == "confirmed" || got == "finalized"
	case "finalized":
		return got == "finalized"
	default:
		return got != ""
	}
}

// SignAndSend builds, signs, sends and confirms a transaction.
func (w *Wallet) SignAndSend(ctx context.Context, instructions []solana.Instruction, extra ...solana.PrivateKey) (string, error) {
	tx, err := w.BuildTransaction(ctx, instructions)
	if err != nil {
		return "", err
	}
	if err := w.SignTx(tx, extra...); err != nil {
		return "", err
	}
	sig, err := w.SendTx(ctx, tx)
	if err != nil {
		return "", err
	}
	if err := w.ConfirmTransaction(ctx, sig); err != nil {
		return sig, err
	}
	return sig, nil
}
