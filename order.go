package match

import (
	"github.com/equitix/matching-engine/protocol"
	"github.com/shopspring/decimal"
)

type Side = protocol.Side

const (
	Buy  Side = protocol.SideBuy
	Sell Side = protocol.SideSell
)

type OrderKind = protocol.OrderKind

const (
	Limit  OrderKind = protocol.OrderKindLimit
	Market OrderKind = protocol.OrderKindMarket
)

// Order is the engine-side state of one accepted order.
// TotalQuantity is the full client intention, DisclosedQuantity the iceberg
// slice size (equal to TotalQuantity for plain orders), and DisplayQuantity
// the currently visible, matchable remainder of the active slice.
type Order struct {
	ID                string          `json:"id"`
	ClientID          int64           `json:"client_id,omitempty"`
	CustomID          string          `json:"custom_id,omitempty"`
	Side              Side            `json:"side"`
	Kind              OrderKind       `json:"kind"`
	Price             decimal.Decimal `json:"price"`
	TotalQuantity     decimal.Decimal `json:"total_quantity"`
	DisclosedQuantity decimal.Decimal `json:"disclosed_quantity"`
	FilledQuantity    decimal.Decimal `json:"filled_quantity"`
	DisplayQuantity   decimal.Decimal `json:"display_quantity"`
	ArrivalTime       int64           `json:"arrival_time"` // Unix nano, assigned at acceptance

	// Intrusive FIFO links, owned by the order's level (ignored by JSON)
	next *Order
	prev *Order
}

// IsFilled reports whether the order has traded its full quantity.
func (o *Order) IsFilled() bool {
	return o.FilledQuantity.Equal(o.TotalQuantity)
}

// RemainingQuantity returns the unfilled part of the total quantity,
// including any hidden iceberg remainder.
func (o *Order) RemainingQuantity() decimal.Decimal {
	return o.TotalQuantity.Sub(o.FilledQuantity)
}

// recordFill books a traded quantity against the visible slice.
func (o *Order) recordFill(quantity decimal.Decimal) {
	o.FilledQuantity = o.FilledQuantity.Add(quantity)
	o.DisplayQuantity = o.DisplayQuantity.Sub(quantity)
}

// needsReplenish reports whether the visible slice is exhausted while
// hidden quantity remains.
func (o *Order) needsReplenish() bool {
	return o.DisplayQuantity.IsZero() && !o.IsFilled()
}

// replenish releases the next visible slice of an iceberg order.
// Identity and arrival time are preserved; only the display quantity and
// queue position change.
func (o *Order) replenish() {
	o.DisplayQuantity = decimal.Min(o.RemainingQuantity(), o.DisclosedQuantity)
}
