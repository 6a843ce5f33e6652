// Package order holds the record of a single resting or incoming order and
// its lifecycle. Field layout follows fenrir/internal/engine's original
// Order/AssetType/Side split, generalised from a single hard-coded
// Equities asset to an arbitrary trading pair.
package order

import (
	"time"

	"github.com/google/uuid"

	"fenrir/internal/money"
)

// Side is the direction of an order.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Sell {
		return "sell"
	}
	return "buy"
}

// Kind distinguishes limit orders, which may rest on the book, from market
// orders, which never do.
type Kind int

const (
	// Limit orders may rest on the book until filled or cancelled.
	Limit Kind = iota
	// Market orders execute immediately against available liquidity; any
	// residual is discarded rather than rested.
	Market
)

func (k Kind) String() string {
	if k == Market {
		return "market"
	}
	return "limit"
}

// Status is the lifecycle state of an order.
type Status int

const (
	Pending Status = iota
	Partial
	Filled
	Cancelled
)

func (s Status) String() string {
	switch s {
	case Partial:
		return "partial"
	case Filled:
		return "filled"
	case Cancelled:
		return "cancelled"
	default:
		return "pending"
	}
}

// Order is a single buy or sell request, live (resting/matching) or
// terminal (filled/cancelled).
type Order struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Pair   string
	Side   Side
	Kind   Kind

	Amount money.Money
	Price  money.Money // zero value ignored when Kind == Market
	Filled money.Money

	Status Status

	// Sequence is the order's arrival position within its book: a
	// per-book monotonic counter, not a cross-engine one (see
	// SPEC_FULL.md's resolution of the created_at Open Question),
	// assigned by the book, never the client, on intake. FIFO priority
	// itself is enforced structurally — by appending to the tail of a
	// price level's queue under the book's exclusive section — so
	// Sequence is not compared directly in the matching loop; it is
	// recorded for diagnostics and for verifying FIFO order externally.
	Sequence uint64
	// CreatedAt is wall-clock, carried only for logging and wire display.
	// It never participates in priority comparisons.
	CreatedAt time.Time

	// HasPrice distinguishes "limit order priced at zero" (rejected at
	// intake) from "market order, no price" without relying on the zero
	// value of Price.
	HasPrice bool
}

// Remaining returns Amount - Filled.
func (o *Order) Remaining() money.Money {
	return o.Amount.Sub(o.Filled)
}

// Fill increments Filled by amt and recomputes Status. amt must be > 0 and
// Filled+amt must not exceed Amount; callers (the matching loop) already
// enforce this.
func (o *Order) Fill(amt money.Money) {
	o.Filled = o.Filled.Add(amt)
	if o.Remaining().IsZero() {
		o.Status = Filled
	} else {
		o.Status = Partial
	}
}

// Cancel marks the order terminally cancelled.
func (o *Order) Cancel() {
	o.Status = Cancelled
}

// IsBuy reports whether the order is a buy.
func (o *Order) IsBuy() bool { return o.Side == Buy }

// IsSell reports whether the order is a sell.
func (o *Order) IsSell() bool { return o.Side == Sell }

// IsLimit reports whether the order is a limit order.
func (o *Order) IsLimit() bool { return o.Kind == Limit }

// IsMarket reports whether the order is a market order.
func (o *Order) IsMarket() bool { return o.Kind == Market }

// Resting reports whether the order currently belongs on a price level:
// live status and positive remaining quantity. Market orders are never
// resting, per spec.md's "the engine does not rest market orders."
func (o *Order) Resting() bool {
	if o.Kind == Market {
		return false
	}
	return (o.Status == Pending || o.Status == Partial) && !o.Remaining().IsZero()
}
