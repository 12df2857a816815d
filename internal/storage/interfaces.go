package storage

import (
	"context"
	"errors"
	"io"

	"github.com/aman-zulfiqar/a2a-swap/internal/models"
)

var ErrReceiptNotFound = errors.New("receipt not found")

// ReceiptStore persists settlement receipts so a settled payment can be
// looked up by its transaction later.
type ReceiptStore interface {
	// SaveReceipt stores r unless a receipt for the same transaction exists.
	// It reports whether r was newly stored.
	SaveReceipt(ctx context.Context, r *models.SettlementReceipt) (bool, error)

	// GetReceipt returns ErrReceiptNotFound for an unknown transaction.
	GetReceipt(ctx context.Context, txHash string) (*models.SettlementReceipt, error)

	Ping(ctx context.Context) error

	io.Closer
}

// AuditSink records paid conversions for offline analysis.
type AuditSink interface {
	InsertConversion(ctx context.Context, a *models.ConversionAudit) error

	Ping(ctx context.Context) error

	io.Closer
}
