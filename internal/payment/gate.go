package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/a2a-swap/internal/constants"
	"github.com/aman-zulfiqar/a2a-swap/internal/metrics"
	"github.com/aman-zulfiqar/a2a-swap/internal/models"
	"github.com/aman-zulfiqar/a2a-swap/internal/storage"
)

const receiptContextKey = "x402.receipt"

// GateDeps wires a Gate. Receipts, Logger and Metrics are optional.
type GateDeps struct {
	Config      Config
	Facilitator Facilitator
	Receipts    storage.ReceiptStore
	Logger      *logrus.Logger
	Metrics     *metrics.Metrics
}

// Gate admits a request only once its payment has been verified and
// settled. Settlement always completes before the wrapped handler runs.
type Gate struct {
	cfg         Config
	facilitator Facilitator
	receipts    storage.ReceiptStore
	logger      *logrus.Logger
	metrics     *metrics.Metrics
}

func NewGate(deps GateDeps) (*Gate, error) {
	if deps.Facilitator == nil {
		return nil, fmt.Errorf("facilitator is nil")
	}
	cfg := deps.Config.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Logger == nil {
		deps.Logger = logrus.New()
	}
	return &Gate{
		cfg:         cfg,
		facilitator: deps.Facilitator,
		receipts:    deps.Receipts,
		logger:      deps.Logger,
		metrics:     deps.Metrics,
	}, nil
}

// Middleware returns the echo middleware guarding a route.
func (g *Gate) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			receipt, err := g.admit(c)
			if err != nil || receipt == nil {
				// response already written
				return err
			}
			c.Set(receiptContextKey, receipt)
			return next(c)
		}
	}
}

// ReceiptFromContext returns the settlement receipt of an admitted request.
func ReceiptFromContext(c echo.Context) *models.SettlementReceipt {
	r, _ := c.Get(receiptContextKey).(*models.SettlementReceipt)
	return r
}

// admit runs the gate. A nil receipt with a nil error means a rejection
// has been written.
func (g *Gate) admit(c echo.Context) (*models.SettlementReceipt, error) {
	req := g.cfg.Requirements(c.Request())
	route := c.Path()
	log := g.logger.WithFields(logrus.Fields{"route": route, "resource": req.Resource})

	header := c.Request().Header.Get(constants.PaymentHeader)
	if header == "" {
		g.metrics.GateOutcome(route, metrics.OutcomeChallenged)
		return nil, g.challenge(c, req, "")
	}

	payload, err := DecodeHeader(header)
	if err == nil {
		err = payload.Match(req)
	}
	if err != nil {
		g.metrics.GateOutcome(route, metrics.OutcomeInvalid)
		log.WithError(err).Info("rejected payment credential")
		return nil, g.challenge(c, req, err.Error())
	}

	if err := g.verify(c.Request().Context(), payload, req); err != nil {
		g.metrics.GateOutcome(route, metrics.OutcomeVerifyFailed)
		log.WithError(err).Info("payment verification failed")
		return nil, g.challenge(c, req, err.Error())
	}

	settled, err := g.settle(c.Request().Context(), payload, req)
	if err != nil {
		g.metrics.GateOutcome(route, metrics.OutcomeSettleFailed)
		var serr *SettlementError
		if !errors.As(err, &serr) {
			serr = &SettlementError{Reason: err.Error(), RetryAfter: g.cfg.RetryAfter}
		}
		log.WithError(err).Warn("payment settlement failed")
		return nil, g.settlementFailed(c, serr)
	}
	g.metrics.GateOutcome(route, metrics.OutcomeSettled)

	if hdr, err := EncodeHeader(settled); err == nil {
		c.Response().Header().Set(constants.PaymentResponseHeader, hdr)
	}

	receipt := &models.SettlementReceipt{
		TxHash:    settled.Transaction,
		Network:   settled.Network,
		Payer:     settled.Payer,
		PayTo:     req.PayTo,
		Asset:     req.Asset,
		Amount:    req.MaxAmountRequired,
		Resource:  req.Resource,
		SettledAt: time.Now().UTC(),
	}
	if receipt.Network == "" {
		receipt.Network = req.Network
	}
	g.persist(c.Request().Context(), receipt, log)

	log.WithFields(logrus.Fields{"tx": receipt.TxHash, "payer": receipt.Payer}).Info("payment settled")
	return receipt, nil
}

func (g *Gate) verify(ctx context.Context, p *PaymentPayload, req PaymentRequirements) error {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.VerifyTimeout)
	defer cancel()

	start := time.Now()
	res, err := g.facilitator.Verify(ctx, p, req)
	g.metrics.ObserveVerify(time.Since(start))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	if !res.IsValid {
		reason := res.InvalidReason
		if reason == "" {
			reason = "invalid payment"
		}
		return fmt.Errorf("%w: %s", ErrVerificationFailed, reason)
	}
	return nil
}

// settle ignores request cancellation and is bounded by SettleTimeout only.
func (g *Gate) settle(reqCtx context.Context, p *PaymentPayload, req PaymentRequirements) (*SettleResponse, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(reqCtx), g.cfg.SettleTimeout)
	defer cancel()

	start := time.Now()
	res, err := g.facilitator.Settle(ctx, p, req)
	g.metrics.ObserveSettle(time.Since(start))
	switch {
	case errors.Is(err, context.DeadlineExceeded) || (err != nil && ctx.Err() != nil):
		return nil, &SettlementError{
			Reason:     fmt.Sprintf("settlement timed out after %s", g.cfg.SettleTimeout),
			RetryAfter: g.cfg.RetryAfter,
			Err:        err,
		}
	case err != nil:
		return nil, &SettlementError{Reason: "facilitator unavailable", RetryAfter: g.cfg.RetryAfter, Err: err}
	case !res.Success:
		reason := res.ErrorReason
		if reason == "" {
			reason = "settlement rejected"
		}
		return nil, &SettlementError{Reason: reason, RetryAfter: g.cfg.RetryAfter}
	}
	return res, nil
}

func (g *Gate) persist(ctx context.Context, r *models.SettlementReceipt, log *logrus.Entry) {
	if g.receipts == nil || r.TxHash == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	created, err := g.receipts.SaveReceipt(ctx, r)
	if err != nil {
		log.WithError(err).Warn("failed to persist settlement receipt")
		return
	}
	if !created {
		log.WithField("tx", r.TxHash).Warn("settlement transaction already has a receipt")
	}
}

func (g *Gate) challenge(c echo.Context, req PaymentRequirements, reason string) error {
	body := Challenge{
		X402Version: constants.X402Version,
		Accepts:     []PaymentRequirements{req},
	}
	if reason != "" {
		body.Error = &reason
	}
	return c.JSON(http.StatusPaymentRequired, body)
}

func (g *Gate) settlementFailed(c echo.Context, serr *SettlementError) error {
	secs := int(math.Ceil(serr.RetryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
	return c.JSON(http.StatusServiceUnavailable, SettlementFailure{
		Error:             "payment settlement failed",
		Reason:            serr.Reason,
		RetryAfterSeconds: secs,
	})
}
