package match

import "github.com/shopspring/decimal"

// Quote is the top of book on one side: the best price and the aggregate
// display quantity resting at that price.
type Quote struct {
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
	Orders   int64           `json:"orders"`
}

// DepthItem is one price level in a depth snapshot.
type DepthItem struct {
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
	Orders   int64           `json:"orders"`
}

// Depth is a bounded view of both sides of the book, best levels first.
type Depth struct {
	UpdateID uint64       `json:"update_id"`
	Bids     []*DepthItem `json:"bids"`
	Asks     []*DepthItem `json:"asks"`
}

// BookStats contains usage statistics for the order book.
type BookStats struct {
	BidDepthCount int64 `json:"bid_depth_count"`
	BidOrderCount int64 `json:"bid_order_count"`
	AskDepthCount int64 `json:"ask_depth_count"`
	AskOrderCount int64 `json:"ask_order_count"`
}

// DepthChange represents a change in the order book depth.
type DepthChange struct {
	Side     Side
	Price    decimal.Decimal
	SizeDiff decimal.Decimal
}

// OrderAck is the synchronous result of placing an order.
type OrderAck struct {
	OrderID        string          `json:"order_id"`
	FilledQuantity decimal.Decimal `json:"filled_quantity"`
	Resting        bool            `json:"resting"`
}
