package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	projectrpc "github.com/aman-zulfiqar/a2a-swap/internal/rpc"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRPC("getAccountInfo", nil, time.Millisecond)
		m.GateOutcome("/convert", OutcomeSettled)
		m.ObserveVerify(time.Millisecond)
		m.ObserveSettle(time.Millisecond)
		m.Simulation(nil)
	})
}

func TestRPCResult(t *testing.T) {
	assert.Equal(t, "ok", rpcResult(nil))
	assert.Equal(t, "not_found", rpcResult(projectrpc.ErrAccountNotFound))
	assert.Equal(t, "rpc_error", rpcResult(&projectrpc.RPCError{Code: 1}))
	assert.Equal(t, "http_error", rpcResult(&projectrpc.HTTPError{StatusCode: 502}))
	assert.Equal(t, "transport_error", rpcResult(errors.New("dial tcp")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveRPC("getAccountInfo", nil, 10*time.Millisecond)
	m.GateOutcome("/convert", OutcomeSettleFailed)
	m.Simulation(errors.New("no liquidity"))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, `a2a_rpc_calls_total{method="getAccountInfo",result="ok"} 1`)
	assert.Contains(t, text, `a2a_payment_gate_outcomes_total{outcome="settle_failed",route="/convert"} 1`)
	assert.Contains(t, text, `a2a_amm_simulations_total{result="error"} 1`)
}
