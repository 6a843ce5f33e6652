// Package gateway translates external WebSocket/JSON wire messages into
// engine operations and engine responses into wire events (spec.md §6).
// It is an external collaborator by spec.md §1: the engine has no
// knowledge of it. Connection handling is adapted from
// fenrir/internal/net/server.go's tomb.v2-supervised accept loop and
// worker pool, generalised from a raw binary TCP protocol to
// WebSocket/JSON per SPEC_FULL.md §6.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"fenrir/internal/engine"
	"fenrir/internal/money"
	"fenrir/internal/order"
	"fenrir/internal/wpool"
)

const defaultShutdownGrace = 5 * time.Second

// Gateway is the WebSocket/JSON adapter in front of an *engine.Engine.
type Gateway struct {
	addr     string
	engine   *engine.Engine
	upgrader websocket.Upgrader
	pool     *wpool.Pool
	srv      *http.Server

	mu      sync.Mutex
	clients map[uuid.UUID]*session
}

// session tracks one live WebSocket connection and the user id it has
// identified itself as (lazily learned from its first new_order), so
// trade fan-out can reach both the taker and a resting maker. Mirrors
// fenrir/internal/net/server.go's clientSessions map, keyed by user id
// instead of TCP address since many logical requests share one
// connection under WebSocket.
type session struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	mu      sync.Mutex
	userID  uuid.UUID
	hasUser bool
}

func (s *session) write(data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *session) identify(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = id
	s.hasUser = true
}

func (s *session) identity() (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID, s.hasUser
}

// New constructs a Gateway listening on addr, backed by a worker pool of
// the given size, dispatching to eng.
func New(addr string, workers int, eng *engine.Engine) *Gateway {
	return &Gateway{
		addr:     addr,
		engine:   eng,
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		pool:     wpool.New(workers),
		clients:  make(map[uuid.UUID]*session),
	}
}

// Run binds the listen address and serves until ctx is cancelled. It
// returns a bind error immediately (non-zero exit, per spec.md §6); a
// clean shutdown after ctx cancellation returns nil.
func (g *Gateway) Run(ctx context.Context) error {
	t, ctx := tomb.WithContext(ctx)

	ln, err := net.Listen("tcp", g.addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", g.handleUpgrade)
	g.srv = &http.Server{Handler: mux}

	t.Go(func() error {
		g.pool.Run(t, g.handleTask)
		return nil
	})

	t.Go(func() error {
		err := g.srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	log.Info().Str("addr", g.addr).Msg("gateway listening")

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownGrace)
	defer cancel()
	if err := g.srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("gateway shutdown error")
	}
	return t.Wait()
}

func (g *Gateway) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	sess := &session{conn: conn}
	g.pool.Submit(sess)
}

// handleTask reads exactly one message off sess's connection, handles it,
// and resubmits sess for its next message — mirroring
// fenrir/internal/net/server.go's handleConnection, which reads one
// message then "push[es] the client connection back to handle the next
// message." This keeps a connection's messages strictly serialised
// (gorilla/websocket requires a single reader/writer goroutine). The read
// has no deadline, so a worker stays blocked on a connection until that
// connection's next message arrives or it closes; at most pool-size
// connections are being read at once, and further queued connections
// wait until a worker is released.
func (g *Gateway) handleTask(t *tomb.Tomb, task any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			// An invariant violation means the matching engine reached a
			// state that should be impossible — a bug, not a user error.
			// spec.md §7 requires the whole process to abort, not just
			// this connection, so this does not return an error to the
			// worker pool; it terminates immediately.
			log.Error().Interface("panic", r).Msg("invariant violation, aborting process")
			os.Exit(2)
		}
	}()

	sess, ok := task.(*session)
	if !ok {
		return nil
	}

	select {
	case <-t.Dying():
		return nil
	default:
	}

	_, data, err := sess.conn.ReadMessage()
	if err != nil {
		g.dropSession(sess)
		_ = sess.conn.Close()
		return nil
	}

	if err := g.handleMessage(sess, data); err != nil {
		log.Error().Err(err).Msg("error handling message")
	}

	g.pool.Submit(sess)
	return nil
}

func (g *Gateway) registerSession(id uuid.UUID, sess *session) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clients[id] = sess
}

func (g *Gateway) dropSession(sess *session) {
	id, ok := sess.identity()
	if !ok {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.clients[id] == sess {
		delete(g.clients, id)
	}
}

func (g *Gateway) lookupSession(id uuid.UUID) (*session, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	sess, ok := g.clients[id]
	return sess, ok
}

func (g *Gateway) handleMessage(sess *session, raw []byte) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return g.sendError(sess, "malformed message: "+err.Error())
	}

	switch env.Type {
	case "new_order":
		return g.handleNewOrder(sess, env.Data)
	case "cancel_order":
		return g.handleCancelOrder(sess, env.Data)
	case "get_orderbook":
		return g.handleGetOrderbook(sess, env.Data)
	default:
		return g.sendError(sess, "unknown message type: "+env.Type)
	}
}

func (g *Gateway) handleNewOrder(sess *session, raw json.RawMessage) error {
	var data newOrderData
	if err := json.Unmarshal(raw, &data); err != nil {
		return g.sendError(sess, "malformed new_order: "+err.Error())
	}

	userID, err := uuid.Parse(data.UserID)
	if err != nil {
		return g.sendError(sess, "invalid userId")
	}
	sess.identify(userID)
	g.registerSession(userID, sess)

	var side order.Side
	switch data.Side {
	case "buy":
		side = order.Buy
	case "sell":
		side = order.Sell
	default:
		return g.sendError(sess, "invalid order side: "+data.Side)
	}

	var kind order.Kind
	switch data.OrderType {
	case "limit":
		kind = order.Limit
	case "market":
		kind = order.Market
	default:
		return g.sendError(sess, "invalid order type: "+data.OrderType)
	}

	amount, err := money.NewFromFloat64(data.Amount)
	if err != nil {
		return g.sendError(sess, "invalid amount: "+err.Error())
	}

	o := order.Order{
		UserID: userID,
		Pair:   data.Pair,
		Side:   side,
		Kind:   kind,
		Amount: amount,
	}

	if data.ID != nil && *data.ID != "" {
		id, err := uuid.Parse(*data.ID)
		if err != nil {
			return g.sendError(sess, "invalid id")
		}
		o.ID = id
	}

	if data.Price != nil {
		price, err := money.NewFromFloat64(*data.Price)
		if err != nil {
			return g.sendError(sess, "invalid price: "+err.Error())
		}
		o.Price = price
		o.HasPrice = true
	}

	resp, err := g.engine.AddOrder(o)
	if err != nil {
		return g.sendError(sess, err.Error())
	}

	var tradedThisCall money.Money
	for _, tr := range resp.Trades {
		tradedThisCall = tradedThisCall.Add(tr.Amount)
		fill := orderFilledData{
			ExecutedPrice: tr.Price.InexactFloat64(),
			FilledAmount:  tr.Amount.InexactFloat64(),
		}
		if buyer, ok := g.lookupSession(tr.BuyerID); ok {
			fill.OrderID = tr.BuyOrderID.String()
			if err := g.send(buyer, "order_filled", fill); err != nil {
				log.Error().Err(err).Msg("failed to notify buyer")
			}
		}
		if seller, ok := g.lookupSession(tr.SellerID); ok {
			fill.OrderID = tr.SellOrderID.String()
			if err := g.send(seller, "order_filled", fill); err != nil {
				log.Error().Err(err).Msg("failed to notify seller")
			}
		}
	}

	if resp.UpdatedOrder.Status == order.Partial {
		partial := orderPartialData{
			OrderID:         resp.UpdatedOrder.ID.String(),
			PartialFill:     tradedThisCall.InexactFloat64(),
			RemainingAmount: resp.UpdatedOrder.Remaining().InexactFloat64(),
		}
		return g.send(sess, "order_partial", partial)
	}
	return nil
}

func (g *Gateway) handleCancelOrder(sess *session, raw json.RawMessage) error {
	var data cancelOrderData
	if err := json.Unmarshal(raw, &data); err != nil {
		return g.sendError(sess, "malformed cancel_order: "+err.Error())
	}

	id, err := uuid.Parse(data.OrderID)
	if err != nil {
		return g.sendError(sess, "invalid orderId")
	}

	_, found, err := g.engine.CancelOrder(data.Pair, id)
	if err != nil {
		return g.sendError(sess, err.Error())
	}
	if !found {
		return g.sendError(sess, "order not found")
	}

	return g.send(sess, "order_cancelled", orderCancelledData{
		OrderID: data.OrderID,
		Reason:  "user requested",
	})
}

func (g *Gateway) handleGetOrderbook(sess *session, raw json.RawMessage) error {
	var data getOrderbookData
	if err := json.Unmarshal(raw, &data); err != nil {
		return g.sendError(sess, "malformed get_orderbook: "+err.Error())
	}

	snap, ok := g.engine.Snapshot(data.Pair)
	if !ok {
		return g.sendError(sess, "order book not found for pair: "+data.Pair)
	}

	out := orderbookSnapshotData{Pair: snap.Pair}
	for _, lvl := range snap.Bids {
		out.Bids = append(out.Bids, priceLevelPair{lvl.Price.InexactFloat64(), lvl.Amount.InexactFloat64()})
	}
	for _, lvl := range snap.Asks {
		out.Asks = append(out.Asks, priceLevelPair{lvl.Price.InexactFloat64(), lvl.Amount.InexactFloat64()})
	}
	if snap.BestBid != nil {
		v := snap.BestBid.InexactFloat64()
		out.BestBid = &v
	}
	if snap.BestAsk != nil {
		v := snap.BestAsk.InexactFloat64()
		out.BestAsk = &v
	}
	if snap.Spread != nil {
		v := snap.Spread.InexactFloat64()
		out.Spread = &v
	}

	return g.send(sess, "orderbook_snapshot", out)
}

func (g *Gateway) send(sess *session, typ string, data any) error {
	msg, err := encodeEvent(typ, data)
	if err != nil {
		return err
	}
	return sess.write(msg)
}

func (g *Gateway) sendError(sess *session, message string) error {
	msg, err := encodeError(message)
	if err != nil {
		return err
	}
	return sess.write(msg)
}
