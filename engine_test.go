package match

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equitix/matching-engine/protocol"
)

const testInstrument = "NIFTY-24DEC-FUT"

func startTestEngine(t *testing.T) (*MatchingEngine, *MemoryEventPublisher) {
	t.Helper()

	var seq atomic.Int64
	publisher := NewMemoryEventPublisher()
	engine := NewMatchingEngine(testInstrument, publisher,
		WithOrderIDFunc(func() string {
			return fmt.Sprintf("ord-%d", seq.Add(1))
		}))

	go func() {
		_ = engine.Start()
	}()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = engine.Shutdown(ctx)
	})

	return engine, publisher
}

func limitRequest(side Side, price, total, disclosed string) *protocol.NewOrderRequest {
	return &protocol.NewOrderRequest{
		OrderKind:         protocol.OrderKindLimit,
		Side:              side,
		Price:             price,
		TotalQuantity:     total,
		DisclosedQuantity: disclosed,
	}
}

func cancelRequest(orderID string, side Side) *protocol.CancelOrderRequest {
	return &protocol.CancelOrderRequest{OrderID: orderID, Side: side}
}

func marketRequest(side Side, total string) *protocol.NewOrderRequest {
	return &protocol.NewOrderRequest{
		OrderKind:         protocol.OrderKindMarket,
		Side:              side,
		TotalQuantity:     total,
		DisclosedQuantity: total,
	}
}

func matchEvents(publisher *MemoryEventPublisher) []*BookEvent {
	matches := make([]*BookEvent, 0)
	for _, event := range publisher.Events() {
		if event.Type == EventMatch {
			matches = append(matches, event)
		}
	}
	return matches
}

// assertLevelInvariants checks that every level's combined quantity equals
// the sum of display quantities over its orders, and that no filled order is
// still linked in.
func assertLevelInvariants(t *testing.T, book *OrderBook) {
	t.Helper()

	for _, page := range []*orderPage{book.bids, book.asks} {
		for el := page.levels.Front(); el != nil; el = el.Next() {
			level, _ := el.Value.(*orderLevel)
			require.False(t, level.isEmpty(), "empty level must have been removed")

			sum := decimal.Zero
			var count int64
			for order := level.head; order != nil; order = order.next {
				require.False(t, order.IsFilled(), "filled order still resting")
				sum = sum.Add(order.DisplayQuantity)
				count++
			}
			require.True(t, level.combinedQuantity.Equal(sum),
				"combined %s != display sum %s at price %s", level.combinedQuantity, sum, level.price)
			require.Equal(t, count, level.count)
		}
	}
}

// assertNoCross checks the steady-state invariant: after matching settles,
// either one side is empty or best bid < best ask.
func assertNoCross(t *testing.T, book *OrderBook) {
	t.Helper()

	bid, bidOK := book.best(Buy)
	ask, askOK := book.best(Sell)
	if bidOK && askOK {
		require.True(t, bid.Price.LessThan(ask.Price),
			"book still crossed: bid %s >= ask %s", bid.Price, ask.Price)
	}
}

func TestEngine_LimitOrderRests(t *testing.T) {
	engine, publisher := startTestEngine(t)
	ctx := context.Background()

	ack, err := engine.PlaceOrder(ctx, limitRequest(Buy, "100", "10", "10"))
	require.NoError(t, err)
	assert.Equal(t, "ord-1", ack.OrderID)
	assert.True(t, ack.Resting)
	assert.True(t, ack.FilledQuantity.IsZero())

	quote, err := engine.BestQuote(ctx, Buy)
	require.NoError(t, err)
	require.NotNil(t, quote)
	assert.Equal(t, "100", quote.Price.String())
	assert.Equal(t, "10", quote.Quantity.String())

	// exactly one open event for the resting order
	require.Equal(t, 1, publisher.Count())
	event := publisher.Get(0)
	assert.Equal(t, EventOpen, event.Type)
	assert.Equal(t, "ord-1", event.RestingOrderID)
	assert.Equal(t, "10", event.Quantity.String())
	assert.Equal(t, testInstrument, event.Instrument)
}

// Scenario: a sell priced through the best bid trades at the resting bid's
// price and the remainder of the bid stays on the book.
func TestEngine_LimitCrossPartialFill(t *testing.T) {
	engine, publisher := startTestEngine(t)
	ctx := context.Background()

	_, err := engine.PlaceOrder(ctx, limitRequest(Buy, "100", "10", "10"))
	require.NoError(t, err)

	ack, err := engine.PlaceOrder(ctx, limitRequest(Sell, "99", "5", "5"))
	require.NoError(t, err)
	assert.Equal(t, "5", ack.FilledQuantity.String())
	assert.False(t, ack.Resting)

	matches := matchEvents(publisher)
	require.Len(t, matches, 1)
	assert.Equal(t, "5", matches[0].Quantity.String())
	assert.Equal(t, "100", matches[0].Price.String())
	assert.Equal(t, "ord-1", matches[0].RestingOrderID)
	assert.Equal(t, "ord-2", matches[0].IncomingOrderID)
	assert.Equal(t, Buy, matches[0].Side)
	assert.Equal(t, uint64(1), matches[0].TradeID)

	// ask level at 99 is gone, bid at 100 keeps 5 visible
	askQuote, err := engine.BestQuote(ctx, Sell)
	require.NoError(t, err)
	assert.Nil(t, askQuote)

	bidQuote, err := engine.BestQuote(ctx, Buy)
	require.NoError(t, err)
	require.NotNil(t, bidQuote)
	assert.Equal(t, "5", bidQuote.Quantity.String())

	resting := engine.book.bids.order("ord-1")
	require.NotNil(t, resting)
	assert.Equal(t, "5", resting.FilledQuantity.String())
	assert.Equal(t, "5", resting.DisplayQuantity.String())

	assertLevelInvariants(t, engine.book)
	assertNoCross(t, engine.book)
}

// Scenario: the resting iceberg fills a whole slice and replenishes without
// losing its identity.
func TestEngine_RestingIcebergReplenishes(t *testing.T) {
	engine, publisher := startTestEngine(t)
	ctx := context.Background()

	_, err := engine.PlaceOrder(ctx, limitRequest(Buy, "100", "100", "20"))
	require.NoError(t, err)

	ack, err := engine.PlaceOrder(ctx, limitRequest(Sell, "100", "20", "20"))
	require.NoError(t, err)
	assert.Equal(t, "20", ack.FilledQuantity.String())
	assert.False(t, ack.Resting)

	buyer := engine.book.bids.order("ord-1")
	require.NotNil(t, buyer)
	assert.Equal(t, "20", buyer.FilledQuantity.String())
	assert.Equal(t, "20", buyer.DisplayQuantity.String())
	assert.Equal(t, "80", buyer.RemainingQuantity().String())

	// one match, then the replenished slice announced as open
	matches := matchEvents(publisher)
	require.Len(t, matches, 1)
	assert.Equal(t, "20", matches[0].Quantity.String())

	replenishFound := false
	for _, event := range publisher.Events() {
		if event.Type == EventOpen && event.RestingOrderID == "ord-1" && event.SequenceID > matches[0].SequenceID {
			replenishFound = true
			assert.Equal(t, "20", event.Quantity.String())
		}
	}
	assert.True(t, replenishFound, "replenishment open event not found")

	assertLevelInvariants(t, engine.book)
}

// Scenario: a market sell sweeps the bid side across two price levels.
func TestEngine_MarketSweepAcrossLevels(t *testing.T) {
	engine, publisher := startTestEngine(t)
	ctx := context.Background()

	_, err := engine.PlaceOrder(ctx, limitRequest(Buy, "100", "10", "10"))
	require.NoError(t, err)
	_, err = engine.PlaceOrder(ctx, limitRequest(Buy, "99", "10", "10"))
	require.NoError(t, err)

	ack, err := engine.PlaceOrder(ctx, marketRequest(Sell, "15"))
	require.NoError(t, err)
	assert.Equal(t, "15", ack.FilledQuantity.String())
	assert.False(t, ack.Resting)

	matches := matchEvents(publisher)
	require.Len(t, matches, 2)
	assert.Equal(t, "10", matches[0].Quantity.String())
	assert.Equal(t, "100", matches[0].Price.String())
	assert.Equal(t, "ord-1", matches[0].RestingOrderID)
	assert.Equal(t, "5", matches[1].Quantity.String())
	assert.Equal(t, "99", matches[1].Price.String())
	assert.Equal(t, "ord-2", matches[1].RestingOrderID)

	// 100 level emptied and removed, 99 level keeps 5
	quote, err := engine.BestQuote(ctx, Buy)
	require.NoError(t, err)
	require.NotNil(t, quote)
	assert.Equal(t, "99", quote.Price.String())
	assert.Equal(t, "5", quote.Quantity.String())

	stats, err := engine.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.BidDepthCount)

	assertLevelInvariants(t, engine.book)
}

// Scenario: a market order larger than all opposite liquidity fails with
// InsufficientLiquidity, reporting the matched quantity; partial fills stand.
func TestEngine_MarketSweepInsufficientLiquidity(t *testing.T) {
	engine, publisher := startTestEngine(t)
	ctx := context.Background()

	_, err := engine.PlaceOrder(ctx, limitRequest(Buy, "100", "10", "10"))
	require.NoError(t, err)
	_, err = engine.PlaceOrder(ctx, limitRequest(Buy, "99", "20", "20"))
	require.NoError(t, err)

	ack, err := engine.PlaceOrder(ctx, marketRequest(Sell, "50"))
	require.Error(t, err)
	assert.Nil(t, ack)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)

	var liqErr *InsufficientLiquidityError
	require.ErrorAs(t, err, &liqErr)
	assert.Equal(t, "30", liqErr.Matched.String())

	// the 30 matched are final, the bid side is now empty
	matches := matchEvents(publisher)
	require.Len(t, matches, 2)

	quote, err := engine.BestQuote(ctx, Buy)
	require.NoError(t, err)
	assert.Nil(t, quote)

	stats, err := engine.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.BidOrderCount)
	assert.Equal(t, int64(0), stats.BidDepthCount)
}

// Scenario: cancelling an order id that was never submitted reports
// NotFound and leaves the book unchanged.
func TestEngine_CancelUnknownOrder(t *testing.T) {
	engine, _ := startTestEngine(t)
	ctx := context.Background()

	_, err := engine.PlaceOrder(ctx, limitRequest(Buy, "100", "10", "10"))
	require.NoError(t, err)

	err = engine.CancelOrder(ctx, &protocol.CancelOrderRequest{OrderID: "never-submitted", Side: Buy})
	assert.ErrorIs(t, err, ErrNotFound)

	stats, err := engine.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.BidOrderCount)
	assert.Equal(t, int64(1), stats.BidDepthCount)
}

func TestEngine_CancelRoundTrip(t *testing.T) {
	engine, publisher := startTestEngine(t)
	ctx := context.Background()

	_, err := engine.PlaceOrder(ctx, limitRequest(Buy, "100", "10", "10"))
	require.NoError(t, err)
	_, err = engine.PlaceOrder(ctx, limitRequest(Buy, "100", "5", "5"))
	require.NoError(t, err)

	// cancelling the later order restores the level to its prior state
	err = engine.CancelOrder(ctx, &protocol.CancelOrderRequest{OrderID: "ord-2", Side: Buy})
	require.NoError(t, err)

	quote, err := engine.BestQuote(ctx, Buy)
	require.NoError(t, err)
	require.NotNil(t, quote)
	assert.Equal(t, "10", quote.Quantity.String())
	assert.Equal(t, int64(1), quote.Orders)

	cancelSeen := false
	for _, event := range publisher.Events() {
		if event.Type == EventCancel {
			cancelSeen = true
			assert.Equal(t, "ord-2", event.RestingOrderID)
			assert.Equal(t, "5", event.Quantity.String())
		}
	}
	assert.True(t, cancelSeen, "cancel event not published")

	// cancelling the only remaining order removes the level entirely
	err = engine.CancelOrder(ctx, &protocol.CancelOrderRequest{OrderID: "ord-1", Side: Buy})
	require.NoError(t, err)

	quote, err = engine.BestQuote(ctx, Buy)
	require.NoError(t, err)
	assert.Nil(t, quote)

	stats, err := engine.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.BidDepthCount)
}

// A single aggressive limit order may cross several price levels; the
// cross-resolution loop has to keep matching until the book uncrosses.
func TestEngine_CrossResolutionSpansLevels(t *testing.T) {
	engine, publisher := startTestEngine(t)
	ctx := context.Background()

	_, err := engine.PlaceOrder(ctx, limitRequest(Sell, "100", "10", "10"))
	require.NoError(t, err)
	_, err = engine.PlaceOrder(ctx, limitRequest(Sell, "101", "10", "10"))
	require.NoError(t, err)

	ack, err := engine.PlaceOrder(ctx, limitRequest(Buy, "101", "15", "15"))
	require.NoError(t, err)
	assert.Equal(t, "15", ack.FilledQuantity.String())
	assert.False(t, ack.Resting)

	matches := matchEvents(publisher)
	require.Len(t, matches, 2)
	assert.Equal(t, "10", matches[0].Quantity.String())
	assert.Equal(t, "100", matches[0].Price.String())
	assert.Equal(t, "5", matches[1].Quantity.String())
	assert.Equal(t, "101", matches[1].Price.String())

	quote, err := engine.BestQuote(ctx, Sell)
	require.NoError(t, err)
	require.NotNil(t, quote)
	assert.Equal(t, "101", quote.Price.String())
	assert.Equal(t, "5", quote.Quantity.String())

	assertNoCross(t, engine.book)
}

func TestEngine_AggressiveLimitRestsRemainder(t *testing.T) {
	engine, publisher := startTestEngine(t)
	ctx := context.Background()

	_, err := engine.PlaceOrder(ctx, limitRequest(Sell, "100", "10", "10"))
	require.NoError(t, err)
	_, err = engine.PlaceOrder(ctx, limitRequest(Sell, "101", "10", "10"))
	require.NoError(t, err)

	ack, err := engine.PlaceOrder(ctx, limitRequest(Buy, "102", "25", "25"))
	require.NoError(t, err)
	assert.Equal(t, "20", ack.FilledQuantity.String())
	assert.True(t, ack.Resting)

	quote, err := engine.BestQuote(ctx, Buy)
	require.NoError(t, err)
	require.NotNil(t, quote)
	assert.Equal(t, "102", quote.Price.String())
	assert.Equal(t, "5", quote.Quantity.String())

	// the remainder is announced once, after the matches
	var openSeq, lastMatchSeq uint64
	for _, event := range publisher.Events() {
		if event.Type == EventOpen && event.RestingOrderID == ack.OrderID {
			openSeq = event.SequenceID
		}
		if event.Type == EventMatch {
			lastMatchSeq = event.SequenceID
		}
	}
	require.NotZero(t, openSeq)
	assert.Greater(t, openSeq, lastMatchSeq)

	assertLevelInvariants(t, engine.book)
	assertNoCross(t, engine.book)
}

// An iceberg on the resting side keeps the book crossed through several
// replenish cycles; the loop must resolve all of them.
func TestEngine_IcebergKeepsCrossAlive(t *testing.T) {
	engine, publisher := startTestEngine(t)
	ctx := context.Background()

	_, err := engine.PlaceOrder(ctx, limitRequest(Sell, "100", "30", "10"))
	require.NoError(t, err)

	ack, err := engine.PlaceOrder(ctx, limitRequest(Buy, "100", "25", "25"))
	require.NoError(t, err)
	assert.Equal(t, "25", ack.FilledQuantity.String())
	assert.False(t, ack.Resting)

	matches := matchEvents(publisher)
	require.Len(t, matches, 3)
	assert.Equal(t, "10", matches[0].Quantity.String())
	assert.Equal(t, "10", matches[1].Quantity.String())
	assert.Equal(t, "5", matches[2].Quantity.String())

	iceberg := engine.book.asks.order("ord-1")
	require.NotNil(t, iceberg)
	assert.Equal(t, "25", iceberg.FilledQuantity.String())
	assert.Equal(t, "5", iceberg.DisplayQuantity.String())

	assertLevelInvariants(t, engine.book)
	assertNoCross(t, engine.book)
}

func TestEngine_FIFOWithinLevel(t *testing.T) {
	engine, publisher := startTestEngine(t)
	ctx := context.Background()

	_, err := engine.PlaceOrder(ctx, limitRequest(Sell, "100", "5", "5"))
	require.NoError(t, err)
	_, err = engine.PlaceOrder(ctx, limitRequest(Sell, "100", "5", "5"))
	require.NoError(t, err)

	_, err = engine.PlaceOrder(ctx, limitRequest(Buy, "100", "6", "6"))
	require.NoError(t, err)

	matches := matchEvents(publisher)
	require.Len(t, matches, 2)
	assert.Equal(t, "ord-1", matches[0].RestingOrderID)
	assert.Equal(t, "5", matches[0].Quantity.String())
	assert.Equal(t, "ord-2", matches[1].RestingOrderID)
	assert.Equal(t, "1", matches[1].Quantity.String())

	quote, err := engine.BestQuote(ctx, Sell)
	require.NoError(t, err)
	require.NotNil(t, quote)
	assert.Equal(t, "4", quote.Quantity.String())
}

func TestEngine_ValidationRejectsBeforeBook(t *testing.T) {
	engine, publisher := startTestEngine(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   *protocol.NewOrderRequest
		field string
	}{
		{
			name:  "unknown order kind",
			req:   &protocol.NewOrderRequest{OrderKind: "stop", Side: Buy, Price: "100", TotalQuantity: "10", DisclosedQuantity: "10"},
			field: "order_kind",
		},
		{
			name:  "unknown side",
			req:   &protocol.NewOrderRequest{OrderKind: protocol.OrderKindLimit, Side: 9, Price: "100", TotalQuantity: "10", DisclosedQuantity: "10"},
			field: "side",
		},
		{
			name:  "limit without price",
			req:   &protocol.NewOrderRequest{OrderKind: protocol.OrderKindLimit, Side: Buy, TotalQuantity: "10", DisclosedQuantity: "10"},
			field: "price",
		},
		{
			name:  "zero total quantity",
			req:   limitRequest(Buy, "100", "0", "0"),
			field: "total_quantity",
		},
		{
			name:  "negative price",
			req:   limitRequest(Buy, "-1", "10", "10"),
			field: "price",
		},
		{
			name:  "disclosed exceeds total",
			req:   limitRequest(Buy, "100", "10", "11"),
			field: "disclosed_quantity",
		},
		{
			name:  "zero disclosed quantity",
			req:   limitRequest(Buy, "100", "10", "0"),
			field: "disclosed_quantity",
		},
		{
			name:  "garbage decimal",
			req:   limitRequest(Buy, "100", "ten", "10"),
			field: "total_quantity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack, err := engine.PlaceOrder(ctx, tt.req)
			assert.Nil(t, ack)

			var valErr *protocol.ValidationError
			require.ErrorAs(t, err, &valErr)
			assert.Equal(t, tt.field, valErr.Field)
		})
	}

	// none of the rejected requests touched the book
	assert.Equal(t, 0, publisher.Count())
	stats, err := engine.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.BidOrderCount)
	assert.Equal(t, int64(0), stats.AskOrderCount)
}

func TestEngine_ShutdownRejectsNewOrders(t *testing.T) {
	publisher := NewMemoryEventPublisher()
	engine := NewMatchingEngine(testInstrument, publisher)
	go func() {
		_ = engine.Start()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, engine.Shutdown(ctx))

	_, err := engine.PlaceOrder(context.Background(), limitRequest(Buy, "100", "10", "10"))
	assert.ErrorIs(t, err, ErrShutdown)

	err = engine.CancelOrder(context.Background(), &protocol.CancelOrderRequest{OrderID: "x", Side: Buy})
	assert.ErrorIs(t, err, ErrShutdown)
}

func TestEngine_DepthQuery(t *testing.T) {
	engine, _ := startTestEngine(t)
	ctx := context.Background()

	_, err := engine.PlaceOrder(ctx, limitRequest(Buy, "100", "10", "10"))
	require.NoError(t, err)
	_, err = engine.PlaceOrder(ctx, limitRequest(Buy, "99", "5", "5"))
	require.NoError(t, err)
	_, err = engine.PlaceOrder(ctx, limitRequest(Sell, "101", "7", "7"))
	require.NoError(t, err)

	depth, err := engine.Depth(ctx, 10)
	require.NoError(t, err)
	require.Len(t, depth.Bids, 2)
	require.Len(t, depth.Asks, 1)
	assert.Equal(t, "100", depth.Bids[0].Price.String())
	assert.Equal(t, "101", depth.Asks[0].Price.String())
	assert.NotZero(t, depth.UpdateID)

	_, err = engine.Depth(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidParam)
}

func TestEngine_SnapshotRestoreRoundTrip(t *testing.T) {
	engine, _ := startTestEngine(t)
	ctx := context.Background()

	_, err := engine.PlaceOrder(ctx, limitRequest(Buy, "100", "10", "10"))
	require.NoError(t, err)
	_, err = engine.PlaceOrder(ctx, limitRequest(Buy, "100", "5", "5"))
	require.NoError(t, err)
	_, err = engine.PlaceOrder(ctx, limitRequest(Sell, "105", "20", "8"))
	require.NoError(t, err)

	snap, err := engine.TakeSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, SnapshotSchemaVersion, snap.SchemaVersion)
	assert.Equal(t, testInstrument, snap.Instrument)
	require.Len(t, snap.Bids, 2)
	require.Len(t, snap.Asks, 1)

	restored := NewMatchingEngine(testInstrument, NewDiscardEventPublisher())
	restored.Restore(snap)
	go func() {
		_ = restored.Start()
	}()
	t.Cleanup(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = restored.Shutdown(shutdownCtx)
	})

	bid, err := restored.BestQuote(ctx, Buy)
	require.NoError(t, err)
	require.NotNil(t, bid)
	assert.Equal(t, "100", bid.Price.String())
	assert.Equal(t, "15", bid.Quantity.String())
	assert.Equal(t, int64(2), bid.Orders)

	ask, err := restored.BestQuote(ctx, Sell)
	require.NoError(t, err)
	require.NotNil(t, ask)
	assert.Equal(t, "8", ask.Quantity.String())

	// priority survived the round trip: the first bid still fills first
	err = restored.CancelOrder(ctx, &protocol.CancelOrderRequest{OrderID: "ord-1", Side: Buy})
	require.NoError(t, err)

	bid, err = restored.BestQuote(ctx, Buy)
	require.NoError(t, err)
	require.NotNil(t, bid)
	assert.Equal(t, "5", bid.Quantity.String())
}

func TestEngine_NilAndInvalidParams(t *testing.T) {
	engine, _ := startTestEngine(t)
	ctx := context.Background()

	_, err := engine.PlaceOrder(ctx, nil)
	assert.ErrorIs(t, err, ErrInvalidParam)

	err = engine.CancelOrder(ctx, nil)
	assert.ErrorIs(t, err, ErrInvalidParam)

	_, err = engine.BestQuote(ctx, 7)
	assert.ErrorIs(t, err, ErrInvalidParam)

	var valErr *protocol.ValidationError
	err = engine.CancelOrder(ctx, &protocol.CancelOrderRequest{Side: Buy})
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "order_id", valErr.Field)
}

func TestEngine_SequenceIDsStrictlyIncrease(t *testing.T) {
	engine, publisher := startTestEngine(t)
	ctx := context.Background()

	_, err := engine.PlaceOrder(ctx, limitRequest(Buy, "100", "10", "10"))
	require.NoError(t, err)
	_, err = engine.PlaceOrder(ctx, limitRequest(Sell, "100", "4", "4"))
	require.NoError(t, err)
	err = engine.CancelOrder(ctx, &protocol.CancelOrderRequest{OrderID: "ord-1", Side: Buy})
	require.NoError(t, err)

	events := publisher.Events()
	require.NotEmpty(t, events)
	var last uint64
	for _, event := range events {
		assert.Equal(t, last+1, event.SequenceID)
		last = event.SequenceID
	}
}
