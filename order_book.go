package match

import "github.com/shopspring/decimal"

// OrderBook composes the two pages of one instrument and routes operations
// by side. It holds no synchronization of its own: the MatchingEngine that
// owns it is the only mutator.
type OrderBook struct {
	instrument string
	bids       *orderPage
	asks       *orderPage
}

// NewOrderBook creates an empty book for one instrument.
func NewOrderBook(instrument string) *OrderBook {
	return &OrderBook{
		instrument: instrument,
		bids:       newBidPage(),
		asks:       newAskPage(),
	}
}

func (b *OrderBook) page(side Side) *orderPage {
	if side == Buy {
		return b.bids
	}
	return b.asks
}

// submit rests a new limit order on the side's page. Market orders never
// enter the book.
func (b *OrderBook) submit(order *Order) {
	b.page(order.Side).insertNew(order)
}

// cancel removes the resting order with the given ID from the side's page,
// returning the removed order. The order's recorded price locates its level.
func (b *OrderBook) cancel(side Side, orderID string) (*Order, error) {
	page := b.page(side)
	order := page.order(orderID)
	if order == nil {
		return nil, ErrNotFound
	}
	if err := page.cancel(orderID, order.Price); err != nil {
		return nil, err
	}
	return order, nil
}

// best returns the named side's top of book.
func (b *OrderBook) best(side Side) (Quote, bool) {
	return b.page(side).best()
}

// applyFill delegates a fill to the named side's best level.
func (b *OrderBook) applyFill(side Side, quantity decimal.Decimal) ([]fillShare, []*Order, error) {
	return b.page(side).applyFill(quantity)
}

func (b *OrderBook) depth(limit uint32) *Depth {
	return &Depth{
		Bids: b.bids.depth(limit),
		Asks: b.asks.depth(limit),
	}
}

func (b *OrderBook) stats() *BookStats {
	return &BookStats{
		BidDepthCount: b.bids.depthCount(),
		BidOrderCount: b.bids.orderCount(),
		AskDepthCount: b.asks.depthCount(),
		AskOrderCount: b.asks.orderCount(),
	}
}
