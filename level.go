package match

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// fillShare is one quantity allocation produced by orderLevel.fill.
type fillShare struct {
	order    *Order
	quantity decimal.Decimal
}

// orderLevel holds the resting orders at one price on one side, in arrival
// order. combinedQuantity is always the sum of DisplayQuantity over the
// orders currently linked into the level.
type orderLevel struct {
	price            decimal.Decimal
	combinedQuantity decimal.Decimal
	head             *Order
	tail             *Order
	count            int64
}

func newOrderLevel(price decimal.Decimal) *orderLevel {
	return &orderLevel{price: price}
}

// add appends the order to the tail of the level.
func (l *orderLevel) add(order *Order) {
	order.prev = l.tail
	order.next = nil
	if l.tail != nil {
		l.tail.next = order
	} else {
		l.head = order
	}
	l.tail = order
	l.count++
	l.combinedQuantity = l.combinedQuantity.Add(order.DisplayQuantity)
}

// unlink detaches the order from the level's FIFO without touching
// quantity bookkeeping.
func (l *orderLevel) unlink(order *Order) {
	if order.prev != nil {
		order.prev.next = order.next
	} else {
		l.head = order.next
	}
	if order.next != nil {
		order.next.prev = order.prev
	} else {
		l.tail = order.prev
	}
	order.next = nil
	order.prev = nil
	l.count--
}

// remove scans from the head for the order with the given ID, detaches it and
// deducts its display quantity. Returns false if the ID is not present.
func (l *orderLevel) remove(orderID string) bool {
	for order := l.head; order != nil; order = order.next {
		if order.ID == orderID {
			l.combinedQuantity = l.combinedQuantity.Sub(order.DisplayQuantity)
			l.unlink(order)
			return true
		}
	}
	return false
}

// fill distributes quantityToMatch over the level's orders starting from the
// head, then runs a cleanup pass: fully filled orders are removed, and
// iceberg orders whose visible slice is exhausted are replenished and moved
// to the tail, losing queue priority. It returns the per-order allocations
// and the orders that were replenished.
//
// Asking for more than combinedQuantity is a caller defect and fails with
// ErrInternal; the level is never left short.
func (l *orderLevel) fill(quantityToMatch decimal.Decimal) ([]fillShare, []*Order, error) {
	if quantityToMatch.GreaterThan(l.combinedQuantity) {
		return nil, nil, fmt.Errorf("%w: fill of %s exceeds combined quantity %s at price %s",
			ErrInternal, quantityToMatch, l.combinedQuantity, l.price)
	}

	shares := make([]fillShare, 0, 4)
	remaining := quantityToMatch
	for order := l.head; order != nil && remaining.IsPositive(); order = order.next {
		take := decimal.Min(remaining, order.DisplayQuantity)
		order.recordFill(take)
		l.combinedQuantity = l.combinedQuantity.Sub(take)
		remaining = remaining.Sub(take)
		shares = append(shares, fillShare{order: order, quantity: take})
	}

	var replenished []*Order
	order := l.head
	for order != nil {
		next := order.next
		switch {
		case order.IsFilled():
			l.unlink(order)
		case order.needsReplenish():
			l.unlink(order)
			order.replenish()
			l.add(order)
			replenished = append(replenished, order)
		}
		order = next
	}

	return shares, replenished, nil
}

func (l *orderLevel) isEmpty() bool {
	return l.head == nil
}
