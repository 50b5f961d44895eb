package match

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// EventType represents the type of a book event.
type EventType string

const (
	EventOpen   EventType = "open"   // quantity became visible on the book (new order or iceberg replenishment)
	EventMatch  EventType = "match"  // a trade: one quantity allocation against a resting order
	EventCancel EventType = "cancel" // a resting order left the book by explicit cancel
)

// BookEvent is one event in the outbound book stream. SequenceID is a
// strictly increasing ID for every event, used for ordering, deduplication
// and rebuild synchronization in downstream systems.
//
// For EventMatch, Side/Price/RestingOrderID describe the resting order,
// IncomingOrderID the aggressor, and TradeID is the sequential trade number.
// For EventOpen and EventCancel, IncomingOrderID and TradeID are unset.
type BookEvent struct {
	SequenceID      uint64          `json:"seq_id"`
	TradeID         uint64          `json:"trade_id,omitempty"`
	Type            EventType       `json:"type"`
	Instrument      string          `json:"instrument"`
	Side            Side            `json:"side"`
	Price           decimal.Decimal `json:"price"`
	Quantity        decimal.Decimal `json:"quantity"`
	RestingOrderID  string          `json:"resting_order_id"`
	RestingClientID int64           `json:"resting_client_id,omitempty"`
	IncomingOrderID string          `json:"incoming_order_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

var bookEventPool = sync.Pool{
	New: func() any {
		return new(BookEvent)
	},
}

func acquireBookEvent() *BookEvent {
	return bookEventPool.Get().(*BookEvent)
}

func releaseBookEvent(event *BookEvent) {
	// Reset structure to zero values.
	// For decimal.Decimal, the zero value (nil internal pointer) represents 0, which is valid.
	*event = BookEvent{}
	bookEventPool.Put(event)
}

// newOpenEvent records a visible quantity entering the book: the display
// slice of a newly resting order, or a replenished iceberg slice.
func newOpenEvent(seqID uint64, instrument string, order *Order) *BookEvent {
	event := acquireBookEvent()
	event.SequenceID = seqID
	event.Type = EventOpen
	event.Instrument = instrument
	event.Side = order.Side
	event.Price = order.Price
	event.Quantity = order.DisplayQuantity
	event.RestingOrderID = order.ID
	event.RestingClientID = order.ClientID
	event.CreatedAt = time.Now().UTC()
	return event
}

// newMatchEvent records one quantity allocation against a resting order.
func newMatchEvent(seqID uint64, tradeID uint64, instrument string, resting *Order, incomingOrderID string, price decimal.Decimal, quantity decimal.Decimal) *BookEvent {
	event := acquireBookEvent()
	event.SequenceID = seqID
	event.TradeID = tradeID
	event.Type = EventMatch
	event.Instrument = instrument
	event.Side = resting.Side
	event.Price = price
	event.Quantity = quantity
	event.RestingOrderID = resting.ID
	event.RestingClientID = resting.ClientID
	event.IncomingOrderID = incomingOrderID
	event.CreatedAt = time.Now().UTC()
	return event
}

// newCancelEvent records a resting order leaving the book by cancel.
func newCancelEvent(seqID uint64, instrument string, order *Order) *BookEvent {
	event := acquireBookEvent()
	event.SequenceID = seqID
	event.Type = EventCancel
	event.Instrument = instrument
	event.Side = order.Side
	event.Price = order.Price
	event.Quantity = order.DisplayQuantity
	event.RestingOrderID = order.ID
	event.RestingClientID = order.ClientID
	event.CreatedAt = time.Now().UTC()
	return event
}
