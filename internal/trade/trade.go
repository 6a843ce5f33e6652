// Package trade holds the immutable record produced by a match between two
// orders. Field shape mirrors fenrir/internal/common.Trade, generalised to
// Money and carrying both sides' user ids so the gateway can fan out
// per-participant events without looking the orders back up.
package trade

import (
	"time"

	"github.com/google/uuid"

	"fenrir/internal/money"
)

// Trade is one execution. Amount and Price are always > 0.
type Trade struct {
	ID          uuid.UUID
	BuyOrderID  uuid.UUID
	SellOrderID uuid.UUID
	BuyerID     uuid.UUID
	SellerID    uuid.UUID
	Pair        string
	Amount      money.Money
	Price       money.Money
	Timestamp   time.Time
}
