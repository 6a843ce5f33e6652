// Package book implements the per-pair order book: the two-sided priority
// structure, the matching algorithm, cancellation, and snapshot
// aggregation. Price levels are kept in a github.com/tidwall/btree.BTreeG,
// directly grounded on fenrir/internal/engine/orderbook.go, which already
// used btree.BTreeG[*PriceLevel] for exactly this purpose.
package book

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"fenrir/internal/money"
	"fenrir/internal/order"
	"fenrir/internal/trade"

	"github.com/tidwall/btree"
)

// PriceLevel is a single price point on one side of the book: a FIFO queue
// of resting orders. Levels are never left empty between operations (book
// invariant 3); a drained level is removed from its side's tree.
type PriceLevel struct {
	Price  money.Money
	Orders []*order.Order
}

type priceLevels = btree.BTreeG[*PriceLevel]

// locator is the secondary index entry for O(level-size) cancel-by-id,
// per the "FIFO with efficient cancel-by-id" design note: it tells Cancel
// which side and price level to search without scanning every level.
type locator struct {
	side  order.Side
	price money.Money
}

// OrderBook is the two-sided book for one trading pair. All operations
// (Submit, Cancel, Snapshot) acquire the book's mutex for their full
// duration — this is the single synchronisation primitive described in
// spec.md §5.
type OrderBook struct {
	Pair string

	mu    sync.Mutex
	bids  *priceLevels // ordered highest price first
	asks  *priceLevels // ordered lowest price first
	index map[uuid.UUID]locator
	seq   uint64
}

// New constructs an empty order book for pair.
func New(pair string) *OrderBook {
	bids := btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.Price.GreaterThan(b.Price)
	})
	asks := btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.Price.LessThan(b.Price)
	})
	return &OrderBook{
		Pair:  pair,
		bids:  bids,
		asks:  asks,
		index: make(map[uuid.UUID]locator),
	}
}

// Submit runs the matching loop for an incoming order and rests any
// limit residual. The caller (internal/engine) is responsible for
// validating the order before calling Submit; once an order reaches here
// it cannot fail (spec.md §7).
func (b *OrderBook) Submit(o *order.Order) []trade.Trade {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	o.Sequence = b.seq

	var trades []trade.Trade
	if o.Side == order.Buy {
		trades = b.matchBuy(o)
	} else {
		trades = b.matchSell(o)
	}

	if o.Remaining().IsZero() {
		return trades
	}

	if o.Kind == order.Market {
		// Market residual is dropped, never rested (spec.md §4.1).
		if len(trades) > 0 {
			o.Status = order.Partial
		} else {
			o.Status = order.Cancelled
		}
		return trades
	}

	// Limit residual rests at the tail of its price level.
	if o.Filled.IsPositive() {
		o.Status = order.Partial
	}
	b.rest(o)
	b.checkUncrossed()
	return trades
}

// rest appends a limit order to the tail of its price level, creating the
// level if absent, and records it in the cancel index.
func (b *OrderBook) rest(o *order.Order) {
	invariant(!o.Remaining().IsNegative(), "order %s rests with negative remaining", o.ID)

	levels := b.levelsFor(o.Side)
	pivot := &PriceLevel{Price: o.Price}
	if lvl, ok := levels.GetMut(pivot); ok {
		lvl.Orders = append(lvl.Orders, o)
	} else {
		levels.Set(&PriceLevel{Price: o.Price, Orders: []*order.Order{o}})
	}
	b.index[o.ID] = locator{side: o.Side, price: o.Price}
}

// checkUncrossed verifies the book's two-sided invariant: the best bid
// must never be at or above the best ask once matching has run to
// completion for a Submit call. A crossed book means liquidity that
// should have matched was left resting instead.
func (b *OrderBook) checkUncrossed() {
	bid, bidOk := b.bestBidLocked()
	ask, askOk := b.bestAskLocked()
	if !bidOk || !askOk {
		return
	}
	invariant(bid.LessThan(ask), "book for %s crossed: best bid %s >= best ask %s", b.Pair, bid, ask)
}

func (b *OrderBook) levelsFor(side order.Side) *priceLevels {
	if side == order.Buy {
		return b.bids
	}
	return b.asks
}

func (b *OrderBook) oppositeLevelsFor(side order.Side) *priceLevels {
	if side == order.Buy {
		return b.asks
	}
	return b.bids
}

// matchBuy matches an incoming buy order against resting asks,
// lowest-price-first, then time priority within a level. Mirrors
// matchSell.
func (b *OrderBook) matchBuy(incoming *order.Order) []trade.Trade {
	var trades []trade.Trade
	for !incoming.Remaining().IsZero() {
		level, ok := b.asks.MinMut()
		if !ok {
			break
		}
		if incoming.Kind == order.Limit && incoming.Price.LessThan(level.Price) {
			break
		}

		t, drained := b.matchAgainstLevel(incoming, level, level.Price)
		trades = append(trades, t...)
		if drained {
			b.asks.Delete(level)
		}
	}
	return trades
}

// matchSell matches an incoming sell order against resting bids,
// highest-price-first, then time priority within a level. Mirrors
// matchBuy.
func (b *OrderBook) matchSell(incoming *order.Order) []trade.Trade {
	var trades []trade.Trade
	for !incoming.Remaining().IsZero() {
		level, ok := b.bids.MinMut()
		if !ok {
			break
		}
		if incoming.Kind == order.Limit && incoming.Price.GreaterThan(level.Price) {
			break
		}

		t, drained := b.matchAgainstLevel(incoming, level, level.Price)
		trades = append(trades, t...)
		if drained {
			b.bids.Delete(level)
		}
	}
	return trades
}

// matchAgainstLevel consumes resting orders from the front of level's
// FIFO until either incoming is exhausted or the level is drained.
// Trades always execute at level.Price — the resting order's price, per
// spec.md's trade price rule — never the incoming order's price.
// Returns the trades produced and whether the level was fully drained.
func (b *OrderBook) matchAgainstLevel(incoming *order.Order, level *PriceLevel, price money.Money) ([]trade.Trade, bool) {
	var trades []trade.Trade

	for len(level.Orders) > 0 {
		if incoming.Remaining().IsZero() {
			return trades, false
		}

		resting := level.Orders[0]
		amt := incoming.Remaining().Min(resting.Remaining())

		// Timestamp is when this trade is produced, not the resting
		// order's original submission time — within one Submit call
		// trades must carry non-decreasing timestamps even when a
		// later, better-priced order rests ahead of an earlier one
		// (spec.md §5 / SPEC_FULL.md §5).
		tr := trade.Trade{
			ID:        uuid.New(),
			Pair:      b.Pair,
			Amount:    amt,
			Price:     price,
			Timestamp: time.Now(),
		}
		if incoming.Side == order.Buy {
			tr.BuyOrderID, tr.BuyerID = incoming.ID, incoming.UserID
			tr.SellOrderID, tr.SellerID = resting.ID, resting.UserID
		} else {
			tr.BuyOrderID, tr.BuyerID = resting.ID, resting.UserID
			tr.SellOrderID, tr.SellerID = incoming.ID, incoming.UserID
		}
		trades = append(trades, tr)

		incoming.Fill(amt)
		resting.Fill(amt)

		if !resting.Remaining().IsZero() {
			// Resting order only partially filled: it keeps its place at
			// the front of the queue and the incoming order must be
			// exhausted (spec.md step 5).
			return trades, false
		}

		// Resting order fully consumed: drop it from the front and from
		// the cancel index.
		level.Orders = level.Orders[1:]
		delete(b.index, resting.ID)
	}
	return trades, true
}

// Cancel removes the resting order with id from whichever side holds it,
// marks it Cancelled, and returns it. Returns (nil, false) if id is not
// currently resting — idempotent with a prior Cancel of the same id.
func (b *OrderBook) Cancel(id uuid.UUID) (*order.Order, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	loc, ok := b.index[id]
	if !ok {
		return nil, false
	}

	levels := b.levelsFor(loc.side)
	pivot := &PriceLevel{Price: loc.price}
	level, ok := levels.GetMut(pivot)
	if !ok {
		delete(b.index, id)
		return nil, false
	}

	for i, o := range level.Orders {
		if o.ID != id {
			continue
		}
		level.Orders = append(level.Orders[:i], level.Orders[i+1:]...)
		o.Cancel()
		delete(b.index, id)
		if len(level.Orders) == 0 {
			levels.Delete(level)
		}
		return o, true
	}

	delete(b.index, id)
	return nil, false
}

// BestBid returns the highest resting bid price, if any.
func (b *OrderBook) BestBid() (money.Money, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bestBidLocked()
}

func (b *OrderBook) bestBidLocked() (money.Money, bool) {
	lvl, ok := b.bids.MinMut()
	if !ok {
		return money.Money{}, false
	}
	return lvl.Price, true
}

// BestAsk returns the lowest resting ask price, if any.
func (b *OrderBook) BestAsk() (money.Money, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bestAskLocked()
}

func (b *OrderBook) bestAskLocked() (money.Money, bool) {
	lvl, ok := b.asks.MinMut()
	if !ok {
		return money.Money{}, false
	}
	return lvl.Price, true
}

// Spread returns best ask minus best bid, if both sides are non-empty.
func (b *OrderBook) Spread() (money.Money, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bid, bidOk := b.bestBidLocked()
	ask, askOk := b.bestAskLocked()
	if !bidOk || !askOk {
		return money.Money{}, false
	}
	return ask.Sub(bid), true
}

// Level is one aggregated price/quantity pair in a Snapshot.
type Level struct {
	Price  money.Money
	Amount money.Money
}

// Snapshot is the aggregated, point-in-time state of both sides of the
// book: bids descending by price, asks ascending, plus best bid/ask/spread.
type Snapshot struct {
	Pair    string
	Bids    []Level
	Asks    []Level
	BestBid *money.Money
	BestAsk *money.Money
	Spread  *money.Money
}

// Snapshot aggregates remaining quantity at each price level. Bids are
// returned highest-price-first, asks lowest-price-first — the book's
// internal ordering already matches the required wire order.
func (b *OrderBook) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := Snapshot{Pair: b.Pair}
	for _, lvl := range b.bids.Items() {
		snap.Bids = append(snap.Bids, aggregate(lvl))
	}
	for _, lvl := range b.asks.Items() {
		snap.Asks = append(snap.Asks, aggregate(lvl))
	}

	if bid, ok := b.bestBidLocked(); ok {
		v := bid
		snap.BestBid = &v
	}
	if ask, ok := b.bestAskLocked(); ok {
		v := ask
		snap.BestAsk = &v
	}
	if snap.BestBid != nil && snap.BestAsk != nil {
		v := snap.BestAsk.Sub(*snap.BestBid)
		snap.Spread = &v
	}
	return snap
}

func aggregate(lvl *PriceLevel) Level {
	total := money.Zero
	for _, o := range lvl.Orders {
		total = total.Add(o.Remaining())
	}
	return Level{Price: lvl.Price, Amount: total}
}
