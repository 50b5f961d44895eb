package match

import (
	"fmt"

	"github.com/huandu/skiplist"
	"github.com/shopspring/decimal"
)

// orderPage is one side of the book: price levels held in a skip list whose
// comparator puts the best price at the front (highest first for bids,
// lowest first for asks), plus an index of resting orders by ID.
type orderPage struct {
	side   Side
	levels *skiplist.SkipList
	orders map[string]*Order
}

// newBidPage creates the buy side. Levels are sorted by price in descending
// order (highest price first).
func newBidPage() *orderPage {
	return &orderPage{
		side: Buy,
		levels: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			d1, _ := lhs.(decimal.Decimal)
			d2, _ := rhs.(decimal.Decimal)
			return d2.Cmp(d1)
		})),
		orders: make(map[string]*Order),
	}
}

// newAskPage creates the sell side. Levels are sorted by price in ascending
// order (lowest price first).
func newAskPage() *orderPage {
	return &orderPage{
		side: Sell,
		levels: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			d1, _ := lhs.(decimal.Decimal)
			d2, _ := rhs.(decimal.Decimal)
			return d1.Cmp(d2)
		})),
		orders: make(map[string]*Order),
	}
}

// order finds a resting order by its ID.
func (p *orderPage) order(id string) *Order {
	return p.orders[id]
}

// insertNew rests a new order on the page, creating the price level on first
// use.
func (p *orderPage) insertNew(order *Order) {
	var level *orderLevel
	if el := p.levels.Get(order.Price); el != nil {
		level, _ = el.Value.(*orderLevel)
	} else {
		level = newOrderLevel(order.Price)
		p.levels.Set(order.Price, level)
	}
	level.add(order)
	p.orders[order.ID] = order
}

// cancel removes the order with the given ID from the level at price.
// Returns ErrNotFound if the level is absent or the order is not in it.
// An emptied level is removed immediately.
func (p *orderPage) cancel(orderID string, price decimal.Decimal) error {
	el := p.levels.Get(price)
	if el == nil {
		return ErrNotFound
	}
	level, _ := el.Value.(*orderLevel)
	if !level.remove(orderID) {
		return ErrNotFound
	}
	delete(p.orders, orderID)
	if level.isEmpty() {
		p.levels.RemoveElement(el)
	}
	return nil
}

// best returns the page's best level, or ok=false when the page is empty.
func (p *orderPage) best() (Quote, bool) {
	el := p.levels.Front()
	if el == nil {
		return Quote{}, false
	}
	level, _ := el.Value.(*orderLevel)
	return Quote{Price: level.price, Quantity: level.combinedQuantity, Orders: level.count}, true
}

// applyFill delegates the quantity to the best level and removes the level
// if it empties. Fully filled orders drop out of the ID index.
func (p *orderPage) applyFill(quantity decimal.Decimal) ([]fillShare, []*Order, error) {
	el := p.levels.Front()
	if el == nil {
		return nil, nil, fmt.Errorf("%w: fill of %s on empty %s page", ErrInternal, quantity, p.side)
	}
	level, _ := el.Value.(*orderLevel)
	shares, replenished, err := level.fill(quantity)
	if err != nil {
		return nil, nil, err
	}
	for _, share := range shares {
		if share.order.IsFilled() {
			delete(p.orders, share.order.ID)
		}
	}
	if level.isEmpty() {
		p.levels.RemoveElement(el)
	}
	return shares, replenished, nil
}

// orderCount returns the total number of resting orders on the page.
func (p *orderPage) orderCount() int64 {
	return int64(len(p.orders))
}

// depthCount returns the number of price levels on the page.
func (p *orderPage) depthCount() int64 {
	return int64(p.levels.Len())
}

// depth returns up to limit levels, best first.
func (p *orderPage) depth(limit uint32) []*DepthItem {
	result := make([]*DepthItem, 0, limit)

	el := p.levels.Front()
	var i uint32
	for i < limit && el != nil {
		level, _ := el.Value.(*orderLevel)
		result = append(result, &DepthItem{
			Price:    level.price,
			Quantity: level.combinedQuantity,
			Orders:   level.count,
		})
		el = el.Next()
		i++
	}

	return result
}

// toSnapshot serializes the page into a slice of Order values, iterating
// levels best-price first and orders in arrival order to preserve priority.
func (p *orderPage) toSnapshot() []Order {
	snapshots := make([]Order, 0, len(p.orders))

	el := p.levels.Front()
	for el != nil {
		level, _ := el.Value.(*orderLevel)
		for order := level.head; order != nil; order = order.next {
			cpy := *order
			cpy.next = nil
			cpy.prev = nil
			snapshots = append(snapshots, cpy)
		}
		el = el.Next()
	}

	return snapshots
}
