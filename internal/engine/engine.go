// Package engine is the registry of order books keyed by pair. It routes
// incoming operations to the correct book, enforces the per-pair
// serialisation described in spec.md §5, and exposes snapshot queries.
// Shape follows fenrir/internal/engine's original Engine (a
// map[AssetType]OrderBook constructed with New(supportedAssets...)),
// generalised from a fixed AssetType enum to an arbitrary string pair.
package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"fenrir/internal/book"
	"fenrir/internal/money"
	"fenrir/internal/order"
	"fenrir/internal/trade"
)

// Response is what AddOrder returns: the trades produced and the
// post-match state of the incoming order.
type Response struct {
	Trades       []trade.Trade
	UpdatedOrder order.Order
}

// Engine is a process-wide shared singleton with lifetime equal to the
// hosting process (spec.md §5). It is safe for concurrent use from many
// goroutines.
type Engine struct {
	registry *registry
}

// New constructs an Engine. pairs are pre-seeded with empty books as a
// startup convenience (spec.md §4.1's resolution of the pre-seeding Open
// Question: decorative, not required) — lazy creation on first add_order
// remains the only required path.
func New(pairs ...string) *Engine {
	e := &Engine{registry: newRegistry()}
	for _, p := range pairs {
		e.registry.getOrCreate(p)
	}
	log.Info().Strs("pairs", pairs).Msg("engine initialized")
	return e
}

// AddOrder validates and submits a new order, creating its book on first
// use. No failure is reported for an unknown pair — spec.md §4.2 is
// explicit that a pair is implicitly created.
func (e *Engine) AddOrder(o order.Order) (Response, error) {
	if err := validate(o); err != nil {
		return Response{}, err
	}

	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	o.CreatedAt = time.Now()
	o.Status = order.Pending
	o.Filled = money.Zero

	b := e.registry.getOrCreate(o.Pair)
	trades := b.Submit(&o)

	log.Info().
		Str("pair", o.Pair).
		Str("orderId", o.ID.String()).
		Int("trades", len(trades)).
		Str("status", o.Status.String()).
		Msg("order processed")

	return Response{Trades: trades, UpdatedOrder: o}, nil
}

// CancelOrder cancels a resting order by id. It fails with ErrUnknownPair
// if the pair was never created; it returns (nil, false, nil) — a
// successful call, not an error — if the pair exists but holds no such
// id (spec.md §7's NotFound case).
func (e *Engine) CancelOrder(pair string, id uuid.UUID) (*order.Order, bool, error) {
	b, ok := e.registry.get(pair)
	if !ok {
		return nil, false, ErrUnknownPair
	}

	cancelled, found := b.Cancel(id)
	if !found {
		log.Warn().Str("pair", pair).Str("orderId", id.String()).Msg("cancel: order not found")
		return nil, false, nil
	}

	log.Info().Str("pair", pair).Str("orderId", id.String()).Msg("order cancelled")
	return cancelled, true, nil
}

// Snapshot returns the aggregated book state for pair, or false if the
// pair is unknown.
func (e *Engine) Snapshot(pair string) (book.Snapshot, bool) {
	b, ok := e.registry.get(pair)
	if !ok {
		return book.Snapshot{}, false
	}
	return b.Snapshot(), true
}

// Pairs returns every pair the engine currently has a book for. Pairs,
// once created, are never destroyed for the lifetime of the engine
// (spec.md §3).
func (e *Engine) Pairs() []string {
	return e.registry.pairs()
}

// validate enforces spec.md §7's InvalidOrder rules at the engine
// boundary: negative/zero amount, non-positive price, missing price on a
// limit order. Unknown side/kind strings are already rejected by the
// gateway's decode step before an order.Order is ever constructed.
func validate(o order.Order) error {
	if o.Pair == "" {
		return invalidOrder("missing pair")
	}
	if !o.Amount.IsPositive() {
		return invalidOrder("amount must be strictly positive")
	}
	if o.Kind == order.Limit {
		if !o.HasPrice {
			return invalidOrder("limit order missing price")
		}
		if !o.Price.IsPositive() {
			return invalidOrder("limit order price must be positive")
		}
	}
	return nil
}
