package server

import (
	"github.com/aman-zulfiqar/a2a-swap/internal/amm"
	"github.com/aman-zulfiqar/a2a-swap/internal/instructions"
)

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Details any    `json:"details,omitempty"` // dev mode only
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
	Program string `json:"program"`
	Network string `json:"network"`
}

type RootResponse struct {
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	URL       string            `json:"url,omitempty"`
	Program   string            `json:"program"`
	Network   string            `json:"network"`
	Endpoints map[string]string `json:"endpoints"`
}

// SimulateRequest names tokens by symbol or base58 mint.
type SimulateRequest struct {
	In     string `json:"in"`
	Out    string `json:"out"`
	Amount uint64 `json:"amount"`
}

type ConvertRequest struct {
	In     string `json:"in"`
	Out    string `json:"out"`
	Amount uint64 `json:"amount"`
	Agent  string `json:"agent"`
	// Nil means the server default; zero disables the slippage guard.
	MaxSlippageBps *uint16 `json:"max_slippage_bps,omitempty"`
}

// ConvertResponse is an unsigned swap for the agent to sign and submit.
// Instruction is the program call alone; Instructions is the full ordered
// list including any wSOL steps.
type ConvertResponse struct {
	Instruction  *instructions.InstructionJSON   `json:"instruction"`
	Instructions []*instructions.InstructionJSON `json:"instructions"`
	MinAmountOut uint64                          `json:"min_amount_out"`
	SlippageBps  uint16                          `json:"slippage_bps"`
	Simulation   *amm.SimulateResult             `json:"simulation"`
	Warnings     []string                        `json:"warnings,omitempty"`
	PaymentTx    string                          `json:"payment_tx,omitempty"`
}
