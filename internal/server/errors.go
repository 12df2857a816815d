package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aman-zulfiqar/a2a-swap/internal/amm"
	"github.com/aman-zulfiqar/a2a-swap/internal/client"
	"github.com/aman-zulfiqar/a2a-swap/internal/codec"
	"github.com/aman-zulfiqar/a2a-swap/internal/instructions"
	"github.com/aman-zulfiqar/a2a-swap/internal/rpc"
	"github.com/aman-zulfiqar/a2a-swap/internal/storage"
	"github.com/aman-zulfiqar/a2a-swap/internal/tokens"
)

// NotFoundJSON returns a custom HTTP error handler that returns JSON responses
// This ensures all errors (including 404s) have consistent JSON format
func NotFoundJSON() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			msg := http.StatusText(he.Code)
			if s, ok := he.Message.(string); ok && s != "" {
				msg = s
			}
			_ = c.JSON(he.Code, ErrorResponse{Error: msg, Code: he.Code})
			return
		}

		_ = c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  http.StatusInternalServerError,
		})
	}
}

// statusFor maps a facade error onto an HTTP status by class.
func statusFor(err error) int {
	var rpcErr *rpc.RPCError
	var httpErr *rpc.HTTPError
	switch {
	case client.IsNotFound(err),
		errors.Is(err, tokens.ErrUnknownToken),
		errors.Is(err, storage.ErrReceiptNotFound):
		return http.StatusNotFound
	case errors.Is(err, codec.ErrShortBuffer):
		// the chain returned something we cannot read
		return http.StatusBadGateway
	case errors.Is(err, amm.ErrNoLiquidity),
		errors.Is(err, amm.ErrZeroAmount),
		errors.Is(err, amm.ErrSecondAmountRequired),
		errors.Is(err, amm.ErrDepositTooSmall),
		errors.Is(err, amm.ErrMathOverflow),
		errors.Is(err, amm.ErrSlippageExceeded),
		errors.Is(err, client.ErrInvalidFeeRate),
		errors.Is(err, client.ErrSameMint),
		errors.Is(err, instructions.ErrZeroAmountIn):
		return http.StatusBadRequest
	case errors.As(err, &rpcErr), errors.As(err, &httpErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
