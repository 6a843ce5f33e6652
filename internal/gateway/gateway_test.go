package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	tomb "gopkg.in/tomb.v2"

	"fenrir/internal/engine"
)

// testClient wraps a websocket connection to one gateway endpoint for
// send/receive convenience in tests.
type testClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func dial(t *testing.T, url string) *testClient {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(url, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &testClient{t: t, conn: conn}
}

func (c *testClient) send(typ string, data any) {
	c.t.Helper()
	raw, err := encodeEvent(typ, data)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.WriteMessage(websocket.TextMessage, raw))
}

func (c *testClient) recv() envelope {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := c.conn.ReadMessage()
	require.NoError(c.t, err)
	var env envelope
	require.NoError(c.t, json.Unmarshal(raw, &env))
	return env
}

// newTestServer wires a Gateway's handlers onto a loopback httptest.Server
// instead of going through Gateway.Run, and starts its worker pool under a
// tomb scoped to the test's lifetime.
func newTestServer(t *testing.T, eng *engine.Engine) (*httptest.Server, *Gateway) {
	t.Helper()
	gw := New("unused", 2, eng)

	tb, _ := tomb.WithContext(context.Background())
	tb.Go(func() error {
		gw.pool.Run(tb, gw.handleTask)
		return nil
	})

	srv := httptest.NewServer(http.HandlerFunc(gw.handleUpgrade))
	t.Cleanup(func() {
		tb.Kill(nil)
		srv.Close()
	})
	return srv, gw
}

func TestGateway_NewOrderMatchesAndNotifiesBothSides(t *testing.T) {
	eng := engine.New("BTC/USDT")
	srv, _ := newTestServer(t, eng)

	maker := dial(t, srv.URL)
	makerID := uuid.New().String()
	maker.send("new_order", map[string]any{
		"userId":    makerID,
		"pair":      "BTC/USDT",
		"type":      "sell",
		"orderType": "limit",
		"amount":    1.0,
		"price":     100.0,
	})

	taker := dial(t, srv.URL)
	takerID := uuid.New().String()
	taker.send("new_order", map[string]any{
		"userId":    takerID,
		"pair":      "BTC/USDT",
		"type":      "buy",
		"orderType": "limit",
		"amount":    1.0,
		"price":     100.0,
	})

	takerFill := taker.recv()
	require.Equal(t, "order_filled", takerFill.Type)

	makerFill := maker.recv()
	require.Equal(t, "order_filled", makerFill.Type)
}

func TestGateway_GetOrderbookUnknownPair(t *testing.T) {
	eng := engine.New()
	srv, _ := newTestServer(t, eng)

	c := dial(t, srv.URL)
	c.send("get_orderbook", map[string]any{"pair": "NOPE/USDT"})

	resp := c.recv()
	require.Equal(t, "error", resp.Type)
}

func TestGateway_CancelOrderNotFound(t *testing.T) {
	eng := engine.New("BTC/USDT")
	srv, _ := newTestServer(t, eng)

	c := dial(t, srv.URL)
	c.send("cancel_order", map[string]any{
		"orderId": uuid.New().String(),
		"pair":    "BTC/USDT",
	})

	resp := c.recv()
	require.Equal(t, "error", resp.Type)
}

func TestGateway_UnknownMessageType(t *testing.T) {
	eng := engine.New("BTC/USDT")
	srv, _ := newTestServer(t, eng)

	c := dial(t, srv.URL)
	c.send("not_a_real_type", map[string]any{})

	resp := c.recv()
	require.Equal(t, "error", resp.Type)
}
