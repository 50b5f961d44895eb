package match

// BookSnapshot contains the full state of one instrument's book: both sides
// ordered best price first, orders in arrival order within each level.
type BookSnapshot struct {
	SchemaVersion int     `json:"schema_version"`
	Instrument    string  `json:"instrument"`
	SeqID         uint64  `json:"seq_id"`
	TradeID       uint64  `json:"trade_id"`
	Bids          []Order `json:"bids"`
	Asks          []Order `json:"asks"`
}

// createSnapshot captures the book state. Called from the engine loop, so it
// is consistent with respect to order processing.
func (engine *MatchingEngine) createSnapshot() *BookSnapshot {
	return &BookSnapshot{
		SchemaVersion: SnapshotSchemaVersion,
		Instrument:    engine.instrument,
		SeqID:         engine.seqID.Load(),
		TradeID:       engine.tradeID.Load(),
		Bids:          engine.book.bids.toSnapshot(),
		Asks:          engine.book.asks.toSnapshot(),
	}
}

// Restore rebuilds the engine state from a snapshot. It must be called
// before Start; the orders are inserted directly, bypassing matching, in
// snapshot order so that priority is preserved.
func (engine *MatchingEngine) Restore(snap *BookSnapshot) {
	engine.seqID.Store(snap.SeqID)
	engine.tradeID.Store(snap.TradeID)
	engine.book = NewOrderBook(engine.instrument)

	restoreOrders := func(orders []Order) {
		for i := range orders {
			order := orders[i]
			engine.book.submit(&order)
		}
	}

	restoreOrders(snap.Bids)
	restoreOrders(snap.Asks)
}
