package models

import "time"

// SettlementReceipt records one settled payment. TxHash is the settlement
// transaction and is unique per receipt.
type SettlementReceipt struct {
	TxHash    string    `json:"transaction"`
	Network   string    `json:"network"`
	Payer     string    `json:"payer,omitempty"`
	PayTo     string    `json:"pay_to"`
	Asset     string    `json:"asset"`
	Amount    string    `json:"amount"`
	Resource  string    `json:"resource"`
	SettledAt time.Time `json:"settled_at"`
}

// ConversionAudit is one paid /convert call.
type ConversionAudit struct {
	RequestID    string    `json:"request_id"`
	Timestamp    time.Time `json:"timestamp"`
	Agent        string    `json:"agent"`
	Pool         string    `json:"pool"`
	MintIn       string    `json:"mint_in"`
	MintOut      string    `json:"mint_out"`
	AmountIn     uint64    `json:"amount_in"`
	EstimatedOut uint64    `json:"estimated_out"`
	MinAmountOut uint64    `json:"min_amount_out"`
	AToB         bool      `json:"a_to_b"`
	PaymentTx    string    `json:"payment_tx,omitempty"`
}
