package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fenrir/internal/money"
	"fenrir/internal/order"
)

func newLimit(side order.Side, pair, price, amount string) order.Order {
	p, _ := money.NewFromString(price)
	a, _ := money.NewFromString(amount)
	return order.Order{
		UserID:   uuid.New(),
		Pair:     pair,
		Side:     side,
		Kind:     order.Limit,
		Amount:   a,
		Price:    p,
		HasPrice: true,
	}
}

func TestNew_PreSeedsPairs(t *testing.T) {
	e := New("BTC/USDT", "ETH/USDT")
	assert.ElementsMatch(t, []string{"BTC/USDT", "ETH/USDT"}, e.Pairs())
}

func TestAddOrder_CreatesPairLazily(t *testing.T) {
	e := New()
	_, err := e.AddOrder(newLimit(order.Buy, "SOL/USDT", "20", "1"))
	require.NoError(t, err)
	assert.Contains(t, e.Pairs(), "SOL/USDT")
}

func TestAddOrder_AssignsIDAndMatches(t *testing.T) {
	e := New()

	ask := newLimit(order.Sell, "BTC/USDT", "100", "1")
	respAsk, err := e.AddOrder(ask)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, respAsk.UpdatedOrder.ID)
	assert.Empty(t, respAsk.Trades)

	bid := newLimit(order.Buy, "BTC/USDT", "100", "1")
	respBid, err := e.AddOrder(bid)
	require.NoError(t, err)
	require.Len(t, respBid.Trades, 1)
	assert.Equal(t, order.Filled, respBid.UpdatedOrder.Status)
}

func TestAddOrder_RejectsNonPositiveAmount(t *testing.T) {
	e := New()
	zero := newLimit(order.Buy, "BTC/USDT", "100", "1")
	zero.Amount = money.Zero
	_, err := e.AddOrder(zero)
	require.Error(t, err)
	var invalid *ErrInvalidOrder
	assert.ErrorAs(t, err, &invalid)
}

func TestAddOrder_RejectsLimitWithoutPrice(t *testing.T) {
	e := New()
	o := newLimit(order.Buy, "BTC/USDT", "100", "1")
	o.HasPrice = false
	_, err := e.AddOrder(o)
	require.Error(t, err)
}

func TestAddOrder_RejectsMissingPair(t *testing.T) {
	e := New()
	o := newLimit(order.Buy, "", "100", "1")
	_, err := e.AddOrder(o)
	require.Error(t, err)
}

func TestCancelOrder_UnknownPair(t *testing.T) {
	e := New()
	_, found, err := e.CancelOrder("NOPE/USDT", uuid.New())
	assert.ErrorIs(t, err, ErrUnknownPair)
	assert.False(t, found)
}

func TestCancelOrder_NotFoundIsNotAnError(t *testing.T) {
	e := New("BTC/USDT")
	_, found, err := e.CancelOrder("BTC/USDT", uuid.New())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCancelOrder_RestingOrder(t *testing.T) {
	e := New()
	resp, err := e.AddOrder(newLimit(order.Buy, "BTC/USDT", "90", "1"))
	require.NoError(t, err)

	cancelled, found, err := e.CancelOrder("BTC/USDT", resp.UpdatedOrder.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, order.Cancelled, cancelled.Status)
}

func TestSnapshot_UnknownPair(t *testing.T) {
	e := New()
	_, ok := e.Snapshot("NOPE/USDT")
	assert.False(t, ok)
}
