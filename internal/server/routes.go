package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/aman-zulfiqar/a2a-swap/internal/payment"
)

// RegisterRoutes configures all API routes, middleware, and error handlers
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg ServerConfig, gate *payment.Gate) {
	e.HTTPErrorHandler = NotFoundJSON()

	e.Use(SetJSONContentType)
	e.Use(SetNoCacheHeaders)

	// Optional API key authentication; liveness and metrics stay open
	if cfg.APIKey != "" {
		e.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:X-API-Key",
			Skipper: func(c echo.Context) bool {
				switch c.Path() {
				case "/", "/health", "/metrics":
					return true
				}
				return false
			},
			Validator: func(key string, c echo.Context) (bool, error) {
				return key == cfg.APIKey, nil
			},
		}))
	}

	e.GET("/", h.Root)
	e.GET("/health", h.Health)
	e.GET("/metrics", echo.WrapHandler(h.Metrics.Handler()))

	e.POST("/simulate", h.Simulate)
	e.GET("/pool-info", h.PoolInfo)
	e.GET("/my-positions", h.MyPositions)
	e.GET("/my-fees", h.MyFees)
	e.GET("/payments/:tx", h.Payment)

	// rate limiting and request checks run before the payment gate
	convertMW := []echo.MiddlewareFunc{
		middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(2),
			Burst:     5,
			ExpiresIn: 2 * time.Minute,
		})),
		h.ConvertPrecheck,
	}
	if gate != nil {
		convertMW = append(convertMW, gate.Middleware())
	}
	e.POST("/convert", h.Convert, convertMW...)

	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "route not found: " + c.Request().URL.Path,
			Code:  http.StatusNotFound,
		})
	})
}
