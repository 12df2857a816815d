package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/a2a-swap/internal/cache"
	"github.com/aman-zulfiqar/a2a-swap/internal/client"
	"github.com/aman-zulfiqar/a2a-swap/internal/codec"
	"github.com/aman-zulfiqar/a2a-swap/internal/instructions"
	"github.com/aman-zulfiqar/a2a-swap/internal/metrics"
	"github.com/aman-zulfiqar/a2a-swap/internal/models"
	"github.com/aman-zulfiqar/a2a-swap/internal/payment"
	"github.com/aman-zulfiqar/a2a-swap/internal/storage"
	"github.com/aman-zulfiqar/a2a-swap/internal/tokens"
)

const serviceName = "a2a-swap-api"

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Client   *client.Client
	Tokens   *tokens.Registry
	Receipts storage.ReceiptStore // optional
	Audit    storage.AuditSink    // optional
	Metrics  *metrics.Metrics
	DevMode  bool
	Logger   *logrus.Logger

	Version   string
	PublicURL string
	Network   string
	// RPCTimeout bounds the chain reads of one request.
	RPCTimeout time.Duration
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// fail maps a facade error to its status. Server-side failures keep their
// detail out of the message unless in dev mode.
func (h *Handlers) fail(c echo.Context, op string, err error) error {
	code := statusFor(err)
	msg := err.Error()
	if code >= http.StatusInternalServerError {
		h.Logger.WithFields(logrus.Fields{"op": op, "error": err}).Error("request failed")
		msg = op + " failed"
		return h.err(c, code, msg, map[string]any{"err": err.Error()})
	}
	return h.err(c, code, msg, nil)
}

func (h *Handlers) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	d := h.RPCTimeout
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

func (h *Handlers) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, RootResponse{
		Service: serviceName,
		Version: h.Version,
		URL:     h.PublicURL,
		Program: h.Client.ProgramID().String(),
		Network: h.Network,
		Endpoints: map[string]string{
			"GET  /":             "this response",
			"GET  /health":       "liveness check",
			"POST /simulate":     "estimate swap output and fees  {in, out, amount}",
			"POST /convert":      "build swap instruction (paid)  {in, out, amount, agent, max_slippage_bps?}",
			"GET  /pool-info":    "pool reserves and spot price  ?pair=SOL-USDC",
			"GET  /my-positions": "LP positions for a wallet  ?pubkey=BASE58",
			"GET  /my-fees":      "claimable fees for a wallet  ?pubkey=BASE58",
			"GET  /payments/:tx": "settlement receipt for a paid request",
			"GET  /metrics":      "prometheus metrics",
		},
	})
}

func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Service: serviceName,
		Version: h.Version,
		Program: h.Client.ProgramID().String(),
		Network: h.Network,
	})
}

// resolvePair maps both tokens to mints. On false the error response has
// already been written.
func (h *Handlers) resolvePair(c echo.Context, in, out string) (solana.PublicKey, solana.PublicKey, bool) {
	mintIn, err := h.Tokens.ResolveString(in)
	if err != nil {
		_ = h.fail(c, "resolve token", err)
		return solana.PublicKey{}, solana.PublicKey{}, false
	}
	mintOut, err := h.Tokens.ResolveString(out)
	if err != nil {
		_ = h.fail(c, "resolve token", err)
		return solana.PublicKey{}, solana.PublicKey{}, false
	}
	return mintIn, mintOut, true
}

// Simulate quotes a swap against live reserves.
func (h *Handlers) Simulate(c echo.Context) error {
	var req SimulateRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid JSON body", nil)
	}
	if strings.TrimSpace(req.In) == "" || strings.TrimSpace(req.Out) == "" || req.Amount == 0 {
		return h.err(c, http.StatusBadRequest, `required fields: "in", "out", "amount"`, nil)
	}
	mintIn, mintOut, ok := h.resolvePair(c, req.In, req.Out)
	if !ok {
		return nil
	}

	ctx, cancel := h.withTimeout(c.Request().Context())
	defer cancel()

	sim, err := h.Client.Simulate(ctx, mintIn, mintOut, req.Amount)
	if err != nil {
		return h.fail(c, "simulate", err)
	}
	return c.JSON(http.StatusOK, sim)
}

const convertInputKey = "convert_input"

// convertInput is a /convert body that passed checkConvert.
type convertInput struct {
	req     ConvertRequest
	agent   solana.PublicKey
	mintIn  solana.PublicKey
	mintOut solana.PublicKey
}

// checkConvert validates the body, resolves both tokens and confirms the
// pool exists. On false the error response has already been written.
func (h *Handlers) checkConvert(c echo.Context) (*convertInput, bool) {
	var req ConvertRequest
	if err := c.Bind(&req); err != nil {
		_ = h.err(c, http.StatusBadRequest, "invalid JSON body", nil)
		return nil, false
	}
	if strings.TrimSpace(req.In) == "" || strings.TrimSpace(req.Out) == "" || req.Amount == 0 || strings.TrimSpace(req.Agent) == "" {
		_ = h.err(c, http.StatusBadRequest, `required fields: "in", "out", "amount", "agent"`, nil)
		return nil, false
	}
	agent, err := codec.DecodeAddress(strings.TrimSpace(req.Agent))
	if err != nil {
		_ = h.err(c, http.StatusBadRequest, "invalid agent public key", nil)
		return nil, false
	}
	mintIn, mintOut, ok := h.resolvePair(c, req.In, req.Out)
	if !ok {
		return nil, false
	}

	ctx, cancel := h.withTimeout(c.Request().Context())
	defer cancel()
	if _, err := h.Client.FindPool(ctx, mintIn, mintOut); err != nil {
		_ = h.fail(c, "convert", err)
		return nil, false
	}
	return &convertInput{req: req, agent: agent, mintIn: mintIn, mintOut: mintOut}, true
}

// ConvertPrecheck runs checkConvert ahead of the payment gate so a request
// that cannot be served is rejected before it is charged.
func (h *Handlers) ConvertPrecheck(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		in, ok := h.checkConvert(c)
		if !ok {
			return nil
		}
		c.Set(convertInputKey, in)
		return next(c)
	}
}

// Convert builds an unsigned swap for the agent. On the paid route it only
// runs after settlement.
func (h *Handlers) Convert(c echo.Context) error {
	in, _ := c.Get(convertInputKey).(*convertInput)
	if in == nil {
		var ok bool
		if in, ok = h.checkConvert(c); !ok {
			return nil
		}
	}
	agent, mintIn, mintOut := in.agent, in.mintIn, in.mintOut

	ctx, cancel := h.withTimeout(c.Request().Context())
	defer cancel()

	plan, err := h.Client.BuildSwap(ctx, client.SwapParams{
		Agent:          agent,
		MintIn:         mintIn,
		MintOut:        mintOut,
		AmountIn:       in.req.Amount,
		MaxSlippageBps: in.req.MaxSlippageBps,
	})
	if err != nil {
		return h.fail(c, "convert", err)
	}

	swapJSON, err := instructions.ToJSON(plan.Swap)
	if err != nil {
		return h.fail(c, "convert", err)
	}
	allJSON, err := instructions.ToJSONList(plan.Steps)
	if err != nil {
		return h.fail(c, "convert", err)
	}

	resp := ConvertResponse{
		Instruction:  swapJSON,
		Instructions: allJSON,
		MinAmountOut: plan.MinAmountOut,
		SlippageBps:  plan.SlippageBps,
		Simulation:   plan.Simulation,
		Warnings:     plan.Warnings,
	}
	if receipt := payment.ReceiptFromContext(c); receipt != nil {
		resp.PaymentTx = receipt.TxHash
	}
	h.audit(c, plan, agent, mintIn, mintOut, resp.PaymentTx)

	return c.JSON(http.StatusOK, resp)
}

func (h *Handlers) audit(c echo.Context, plan *client.SwapPlan, agent, mintIn, mintOut solana.PublicKey, paymentTx string) {
	if h.Audit == nil {
		return
	}
	row := &models.ConversionAudit{
		RequestID:    c.Response().Header().Get(echo.HeaderXRequestID),
		Timestamp:    time.Now().UTC(),
		Agent:        agent.String(),
		Pool:         plan.Pool.String(),
		MintIn:       mintIn.String(),
		MintOut:      mintOut.String(),
		AmountIn:     plan.Simulation.AmountIn,
		EstimatedOut: plan.Simulation.EstimatedOut,
		MinAmountOut: plan.MinAmountOut,
		AToB:         plan.AToB,
		PaymentTx:    paymentTx,
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request().Context()), 2*time.Second)
	defer cancel()
	if err := h.Audit.InsertConversion(ctx, row); err != nil {
		h.Logger.WithError(err).Warn("failed to record conversion audit")
	}
}

// PoolInfo handles ?pair=A-B; either token order finds the pool.
func (h *Handlers) PoolInfo(c echo.Context) error {
	pair := strings.TrimSpace(c.QueryParam("pair"))
	if pair == "" {
		return h.err(c, http.StatusBadRequest, "missing query param: pair (e.g. ?pair=SOL-USDC)", nil)
	}
	parts := strings.SplitN(pair, "-", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return h.err(c, http.StatusBadRequest, `pair must be two tokens separated by "-" (e.g. SOL-USDC)`, nil)
	}
	mintA, mintB, ok := h.resolvePair(c, parts[0], parts[1])
	if !ok {
		return nil
	}

	ctx, cancel := h.withTimeout(c.Request().Context())
	defer cancel()

	info, err := h.Client.PoolInfo(ctx, mintA, mintB)
	if err != nil {
		return h.fail(c, "pool-info", err)
	}
	return c.JSON(http.StatusOK, info)
}

// owner reads ?pubkey. On false the error response has already been written.
func (h *Handlers) owner(c echo.Context) (solana.PublicKey, bool) {
	raw := strings.TrimSpace(c.QueryParam("pubkey"))
	if raw == "" {
		_ = h.err(c, http.StatusBadRequest, "missing query param: pubkey", nil)
		return solana.PublicKey{}, false
	}
	owner, err := codec.DecodeAddress(raw)
	if err != nil {
		_ = h.err(c, http.StatusBadRequest, "invalid pubkey", nil)
		return solana.PublicKey{}, false
	}
	return owner, true
}

func (h *Handlers) MyPositions(c echo.Context) error {
	owner, ok := h.owner(c)
	if !ok {
		return nil
	}

	ctx, cancel := h.withTimeout(c.Request().Context())
	defer cancel()

	positions, err := h.Client.MyPositions(ctx, owner)
	if err != nil {
		return h.fail(c, "my-positions", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"positions": positions})
}

func (h *Handlers) MyFees(c echo.Context) error {
	owner, ok := h.owner(c)
	if !ok {
		return nil
	}

	ctx, cancel := h.withTimeout(c.Request().Context())
	defer cancel()

	fees, err := h.Client.MyFees(ctx, owner)
	if err != nil {
		return h.fail(c, "my-fees", err)
	}
	return c.JSON(http.StatusOK, fees)
}

// Payment looks up a stored settlement receipt.
func (h *Handlers) Payment(c echo.Context) error {
	if h.Receipts == nil {
		return h.err(c, http.StatusNotFound, "receipt store is not configured", nil)
	}
	tx := c.Param("tx")
	if err := cache.ValidateTxHash(tx); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid transaction hash", nil)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	r, err := h.Receipts.GetReceipt(ctx, tx)
	if err != nil {
		return h.fail(c, "payments", err)
	}
	return c.JSON(http.StatusOK, r)
}
