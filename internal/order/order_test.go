package order

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fenrir/internal/money"
)

func mustMoney(t *testing.T, s string) money.Money {
	t.Helper()
	m, err := money.NewFromString(s)
	assert.NoError(t, err)
	return m
}

func TestFill_PartialThenFull(t *testing.T) {
	o := &Order{Amount: mustMoney(t, "10"), Filled: money.Zero, Status: Pending}

	o.Fill(mustMoney(t, "4"))
	assert.Equal(t, Partial, o.Status)
	assert.True(t, o.Remaining().Equal(mustMoney(t, "6")))

	o.Fill(mustMoney(t, "6"))
	assert.Equal(t, Filled, o.Status)
	assert.True(t, o.Remaining().IsZero())
}

func TestResting_MarketNeverRests(t *testing.T) {
	o := &Order{Kind: Market, Amount: mustMoney(t, "1"), Filled: money.Zero, Status: Pending}
	assert.False(t, o.Resting())
}

func TestResting_LimitRestsWhileLiveWithRemaining(t *testing.T) {
	o := &Order{Kind: Limit, Amount: mustMoney(t, "1"), Filled: money.Zero, Status: Pending}
	assert.True(t, o.Resting())

	o.Cancel()
	assert.False(t, o.Resting())
}

func TestSideAndKindHelpers(t *testing.T) {
	buy := &Order{Side: Buy, Kind: Limit}
	assert.True(t, buy.IsBuy())
	assert.False(t, buy.IsSell())
	assert.True(t, buy.IsLimit())
	assert.False(t, buy.IsMarket())
	assert.Equal(t, "buy", buy.Side.String())
	assert.Equal(t, "limit", buy.Kind.String())
}
