package match

import (
	"sync/atomic"

	"github.com/igrmk/treemap/v2"
	"github.com/shopspring/decimal"
)

// AggregatedBook maintains a simplified view of the order book, tracking
// only price levels and their aggregated display sizes. It is designed for
// downstream services that rebuild book state from the BookEvent stream:
// restore from a snapshot, then replay events in sequence order.
//
// Apply is not safe for concurrent use; one consumer owns the view.
type AggregatedBook struct {
	seqID atomic.Uint64 // last applied SequenceID, for gap detection and deduplication
	bid   *treemap.TreeMap[decimal.Decimal, decimal.Decimal]
	ask   *treemap.TreeMap[decimal.Decimal, decimal.Decimal]
}

// NewAggregatedBook creates an AggregatedBook with empty bid and ask sides.
func NewAggregatedBook() *AggregatedBook {
	return &AggregatedBook{
		bid: treemap.NewWithKeyCompare[decimal.Decimal, decimal.Decimal](func(a, b decimal.Decimal) bool {
			return a.LessThan(b)
		}),
		ask: treemap.NewWithKeyCompare[decimal.Decimal, decimal.Decimal](func(a, b decimal.Decimal) bool {
			return a.LessThan(b)
		}),
	}
}

// SequenceID returns the last applied sequence ID.
func (ab *AggregatedBook) SequenceID() uint64 {
	return ab.seqID.Load()
}

func (ab *AggregatedBook) tree(side Side) *treemap.TreeMap[decimal.Decimal, decimal.Decimal] {
	if side == Buy {
		return ab.bid
	}
	return ab.ask
}

// Apply replays one book event. Duplicates (sequence at or below the last
// applied one) are ignored; a gap in the sequence returns ErrSequenceGap and
// leaves the view untouched, signalling that a rebuild from snapshot is
// needed.
func (ab *AggregatedBook) Apply(event *BookEvent) error {
	last := ab.seqID.Load()
	if event.SequenceID <= last {
		return nil
	}
	if last != 0 && event.SequenceID != last+1 {
		return ErrSequenceGap
	}

	change := CalculateDepthChange(event)
	if !change.SizeDiff.IsZero() {
		tree := ab.tree(change.Side)
		current, _ := tree.Get(change.Price)
		next := current.Add(change.SizeDiff)
		if next.IsPositive() {
			tree.Set(change.Price, next)
		} else {
			tree.Del(change.Price)
		}
	}

	ab.seqID.Store(event.SequenceID)
	return nil
}

// Rebuild resets the view from a book snapshot. Events already covered by
// the snapshot's sequence ID will be skipped by Apply as duplicates.
func (ab *AggregatedBook) Rebuild(snap *BookSnapshot) {
	ab.bid.Clear()
	ab.ask.Clear()

	load := func(tree *treemap.TreeMap[decimal.Decimal, decimal.Decimal], orders []Order) {
		for i := range orders {
			order := &orders[i]
			current, _ := tree.Get(order.Price)
			tree.Set(order.Price, current.Add(order.DisplayQuantity))
		}
	}

	load(ab.bid, snap.Bids)
	load(ab.ask, snap.Asks)
	ab.seqID.Store(snap.SeqID)
}

// Size returns the aggregated display size at a price level, or zero if the
// level does not exist.
func (ab *AggregatedBook) Size(side Side, price decimal.Decimal) decimal.Decimal {
	size, ok := ab.tree(side).Get(price)
	if !ok {
		return decimal.Zero
	}
	return size
}

// Levels returns up to limit levels for one side, best price first.
func (ab *AggregatedBook) Levels(side Side, limit int) []*DepthItem {
	result := make([]*DepthItem, 0, limit)

	if side == Buy {
		for it := ab.bid.Reverse(); it.Valid() && len(result) < limit; it.Next() {
			result = append(result, &DepthItem{Price: it.Key(), Quantity: it.Value()})
		}
		return result
	}

	for it := ab.ask.Iterator(); it.Valid() && len(result) < limit; it.Next() {
		result = append(result, &DepthItem{Price: it.Key(), Quantity: it.Value()})
	}
	return result
}
