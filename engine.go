package match

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/equitix/matching-engine/protocol"
	"github.com/rs/xid"
	"github.com/shopspring/decimal"
)

type commandType int

const (
	cmdPlaceOrder commandType = iota
	cmdCancelOrder
	cmdBestQuote
	cmdDepth
	cmdStats
	cmdSnapshot
)

type cmdResult struct {
	data any
	err  error
}

// command is the unified carrier for everything entering the engine loop.
// Using a single channel keeps command ordering deterministic.
type command struct {
	typ     commandType
	payload any
	resp    chan cmdResult
}

// MatchingEngine is the sole mutator of one instrument's OrderBook. One
// goroutine (Start) owns the book and processes each incoming order to
// completion, including the full cross-resolution loop or market sweep,
// before taking the next; producers serialize through the command channel.
type MatchingEngine struct {
	instrument       string
	seqID            atomic.Uint64 // increasing sequence ID for every published BookEvent
	tradeID          atomic.Uint64 // sequential trade ID, incremented per match
	isShutdown       atomic.Bool
	book             *OrderBook
	cmdChan          chan command
	done             chan struct{}
	shutdownComplete chan struct{}
	publisher        EventPublisher
	newOrderID       func() string
}

// EngineOption configures a MatchingEngine.
type EngineOption func(*MatchingEngine)

// WithCommandBuffer sets the capacity of the engine's command channel.
func WithCommandBuffer(size int) EngineOption {
	return func(engine *MatchingEngine) {
		engine.cmdChan = make(chan command, size)
	}
}

// WithOrderIDFunc overrides order ID generation, mainly for deterministic
// tests.
func WithOrderIDFunc(fn func() string) EngineOption {
	return func(engine *MatchingEngine) {
		engine.newOrderID = fn
	}
}

// NewMatchingEngine creates an engine for one instrument. Call Start in its
// own goroutine before placing orders.
func NewMatchingEngine(instrument string, publisher EventPublisher, opts ...EngineOption) *MatchingEngine {
	engine := &MatchingEngine{
		instrument:       instrument,
		book:             NewOrderBook(instrument),
		cmdChan:          make(chan command, 32768),
		done:             make(chan struct{}),
		shutdownComplete: make(chan struct{}),
		publisher:        publisher,
		newOrderID:       func() string { return xid.New().String() },
	}

	for _, opt := range opts {
		opt(engine)
	}

	return engine
}

// PlaceOrder validates and submits one new order, blocking until the engine
// has processed it. Limit orders rest and cross; market orders sweep the
// opposite side and never enter the book. Validation failures reject the
// request before it reaches the engine loop, leaving the book untouched.
func (engine *MatchingEngine) PlaceOrder(ctx context.Context, req *protocol.NewOrderRequest) (*OrderAck, error) {
	if engine.isShutdown.Load() {
		return nil, ErrShutdown
	}
	if req == nil {
		return nil, ErrInvalidParam
	}

	order, err := orderFromRequest(req)
	if err != nil {
		return nil, err
	}

	res, err := engine.roundTrip(ctx, command{typ: cmdPlaceOrder, payload: order, resp: make(chan cmdResult, 1)})
	if err != nil {
		return nil, err
	}
	ack, _ := res.data.(*OrderAck)
	return ack, res.err
}

// CancelOrder removes a resting order, blocking until the engine has
// processed it. Returns ErrNotFound if no resting order matches the request.
func (engine *MatchingEngine) CancelOrder(ctx context.Context, req *protocol.CancelOrderRequest) error {
	if engine.isShutdown.Load() {
		return ErrShutdown
	}
	if req == nil {
		return ErrInvalidParam
	}
	if err := req.Validate(); err != nil {
		return err
	}

	res, err := engine.roundTrip(ctx, command{typ: cmdCancelOrder, payload: req, resp: make(chan cmdResult, 1)})
	if err != nil {
		return err
	}
	return res.err
}

// BestQuote returns the top of book for one side, or nil when the side is
// empty.
func (engine *MatchingEngine) BestQuote(ctx context.Context, side Side) (*Quote, error) {
	if !side.Valid() {
		return nil, ErrInvalidParam
	}

	res, err := engine.roundTrip(ctx, command{typ: cmdBestQuote, payload: side, resp: make(chan cmdResult, 1)})
	if err != nil {
		return nil, err
	}
	quote, _ := res.data.(*Quote)
	return quote, res.err
}

// Depth returns the current depth of the order book up to the specified
// limit.
func (engine *MatchingEngine) Depth(ctx context.Context, limit uint32) (*Depth, error) {
	if limit == 0 {
		return nil, ErrInvalidParam
	}

	res, err := engine.roundTrip(ctx, command{typ: cmdDepth, payload: limit, resp: make(chan cmdResult, 1)})
	if err != nil {
		return nil, err
	}
	depth, _ := res.data.(*Depth)
	return depth, res.err
}

// Stats returns usage statistics for the order book.
func (engine *MatchingEngine) Stats(ctx context.Context) (*BookStats, error) {
	res, err := engine.roundTrip(ctx, command{typ: cmdStats, resp: make(chan cmdResult, 1)})
	if err != nil {
		return nil, err
	}
	stats, _ := res.data.(*BookStats)
	return stats, res.err
}

// TakeSnapshot captures the current book state through the engine loop, so
// the result is consistent with respect to order processing.
func (engine *MatchingEngine) TakeSnapshot(ctx context.Context) (*BookSnapshot, error) {
	res, err := engine.roundTrip(ctx, command{typ: cmdSnapshot, resp: make(chan cmdResult, 1)})
	if err != nil {
		return nil, err
	}
	snap, _ := res.data.(*BookSnapshot)
	return snap, res.err
}

// roundTrip submits a command to the engine loop and waits for its result.
func (engine *MatchingEngine) roundTrip(ctx context.Context, cmd command) (cmdResult, error) {
	select {
	case engine.cmdChan <- cmd:
	case <-ctx.Done():
		return cmdResult{}, ErrTimeout
	}

	select {
	case res := <-cmd.resp:
		return res, nil
	case <-ctx.Done():
		return cmdResult{}, ErrTimeout
	}
}

// Start runs the engine loop. It returns nil after Shutdown has been called
// and all pending commands are drained.
func (engine *MatchingEngine) Start() error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for {
		select {
		case <-engine.done:
			return engine.drain()
		case cmd := <-engine.cmdChan:
			engine.handle(cmd)
		}
	}
}

// Shutdown signals the engine to stop accepting new orders and waits for all
// pending commands to be processed, or for the context to expire.
func (engine *MatchingEngine) Shutdown(ctx context.Context) error {
	if engine.isShutdown.CompareAndSwap(false, true) {
		close(engine.done)
	}

	select {
	case <-engine.shutdownComplete:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// drain processes all remaining commands before returning. Mutating commands
// complete normally; waiting callers always receive a response.
func (engine *MatchingEngine) drain() error {
	defer close(engine.shutdownComplete)

	for {
		select {
		case cmd := <-engine.cmdChan:
			engine.handle(cmd)
		default:
			return nil
		}
	}
}

func (engine *MatchingEngine) handle(cmd command) {
	var res cmdResult

	switch cmd.typ {
	case cmdPlaceOrder:
		if order, ok := cmd.payload.(*Order); ok {
			res.data, res.err = engine.acceptOrder(order)
		} else {
			res.err = ErrInvalidParam
		}
	case cmdCancelOrder:
		if req, ok := cmd.payload.(*protocol.CancelOrderRequest); ok {
			res.err = engine.acceptCancel(req)
		} else {
			res.err = ErrInvalidParam
		}
	case cmdBestQuote:
		if side, ok := cmd.payload.(Side); ok {
			if quote, found := engine.book.best(side); found {
				res.data = &quote
			}
		} else {
			res.err = ErrInvalidParam
		}
	case cmdDepth:
		if limit, ok := cmd.payload.(uint32); ok {
			depth := engine.book.depth(limit)
			depth.UpdateID = engine.seqID.Load()
			res.data = depth
		} else {
			res.err = ErrInvalidParam
		}
	case cmdStats:
		res.data = engine.book.stats()
	case cmdSnapshot:
		res.data = engine.createSnapshot()
	}

	if cmd.resp != nil {
		cmd.resp <- res
	}
}

// acceptOrder is the single entry point for one new order: market orders
// sweep the opposite side, limit orders rest and then resolve any cross.
func (engine *MatchingEngine) acceptOrder(order *Order) (*OrderAck, error) {
	order.ID = engine.newOrderID()
	order.ArrivalTime = time.Now().UnixNano()

	if order.Kind == Market {
		return engine.sweep(order)
	}
	return engine.placeLimit(order)
}

// placeLimit rests the order and runs the cross-resolution loop. If a visible
// remainder still rests afterwards, a single open event announces it.
func (engine *MatchingEngine) placeLimit(order *Order) (*OrderAck, error) {
	engine.book.submit(order)

	events := make([]*BookEvent, 0, 8)
	events, err := engine.resolveCross(order, events)
	if err != nil {
		engine.publish(events)
		logger.Error("cross resolution failed", "instrument", engine.instrument, "order_id", order.ID, "error", err)
		return nil, err
	}

	if !order.IsFilled() {
		events = append(events, newOpenEvent(engine.seqID.Add(1), engine.instrument, order))
	}
	engine.publish(events)

	return &OrderAck{
		OrderID:        order.ID,
		FilledQuantity: order.FilledQuantity,
		Resting:        !order.IsFilled(),
	}, nil
}

// resolveCross repeatedly matches the two best levels while the book is
// crossed. A single new order, or a replenished iceberg slice, may cause
// several consecutive crosses across levels, so the loop runs until one side
// empties or best bid < best ask.
//
// The maker side is the side opposite the incoming order; matches trade at
// the maker level's price. One match event is emitted per maker allocation.
// Replenishment of the incoming order itself is not announced here: its
// final visible remainder is covered by the open event placeLimit emits.
func (engine *MatchingEngine) resolveCross(incoming *Order, events []*BookEvent) ([]*BookEvent, error) {
	makerSide := incoming.Side.Opposite()

	for {
		bid, bidOK := engine.book.best(Buy)
		ask, askOK := engine.book.best(Sell)
		if !bidOK || !askOK || bid.Price.LessThan(ask.Price) {
			return events, nil
		}

		matched := decimal.Min(bid.Quantity, ask.Quantity)
		makerQuote := ask
		if makerSide == Buy {
			makerQuote = bid
		}

		shares, replenished, err := engine.book.applyFill(makerSide, matched)
		if err != nil {
			return events, err
		}
		if _, _, err = engine.book.applyFill(incoming.Side, matched); err != nil {
			return events, err
		}

		for _, share := range shares {
			events = append(events, newMatchEvent(engine.seqID.Add(1), engine.tradeID.Add(1),
				engine.instrument, share.order, incoming.ID, makerQuote.Price, share.quantity))
		}
		for _, order := range replenished {
			events = append(events, newOpenEvent(engine.seqID.Add(1), engine.instrument, order))
		}
	}
}

// sweep consumes liquidity on the opposite side until the market order is
// fully filled. Iceberg semantics do not apply to market orders: the full
// remaining size is eligible at once. If the opposite side empties first the
// sweep fails with InsufficientLiquidityError reporting the matched
// quantity; fills already applied stand.
func (engine *MatchingEngine) sweep(order *Order) (*OrderAck, error) {
	makerSide := order.Side.Opposite()

	events := make([]*BookEvent, 0, 8)
	remaining := order.TotalQuantity
	matched := decimal.Zero

	for remaining.IsPositive() {
		quote, ok := engine.book.best(makerSide)
		if !ok {
			engine.publish(events)
			return nil, &InsufficientLiquidityError{OrderID: order.ID, Matched: matched}
		}

		take := decimal.Min(quote.Quantity, remaining)
		shares, replenished, err := engine.book.applyFill(makerSide, take)
		if err != nil {
			engine.publish(events)
			logger.Error("market sweep failed", "instrument", engine.instrument, "order_id", order.ID, "error", err)
			return nil, err
		}

		for _, share := range shares {
			events = append(events, newMatchEvent(engine.seqID.Add(1), engine.tradeID.Add(1),
				engine.instrument, share.order, order.ID, quote.Price, share.quantity))
		}
		for _, replenishedOrder := range replenished {
			events = append(events, newOpenEvent(engine.seqID.Add(1), engine.instrument, replenishedOrder))
		}

		remaining = remaining.Sub(take)
		matched = matched.Add(take)
		order.FilledQuantity = order.FilledQuantity.Add(take)
	}

	engine.publish(events)
	return &OrderAck{OrderID: order.ID, FilledQuantity: matched}, nil
}

// acceptCancel removes a still-resting order. A cancel can never unwind a
// fill already applied; an unknown order ID is reported, not ignored.
func (engine *MatchingEngine) acceptCancel(req *protocol.CancelOrderRequest) error {
	order, err := engine.book.cancel(req.Side, req.OrderID)
	if err != nil {
		return err
	}

	event := newCancelEvent(engine.seqID.Add(1), engine.instrument, order)
	engine.publish([]*BookEvent{event})
	return nil
}

// publish hands the events to the publisher and recycles them.
func (engine *MatchingEngine) publish(events []*BookEvent) {
	if len(events) == 0 {
		return
	}
	engine.publisher.Publish(events...)
	for _, event := range events {
		releaseBookEvent(event)
	}
}

// orderFromRequest validates the request field by field and converts it into
// an engine-side Order. The order ID and arrival time are assigned later, at
// acceptance inside the engine loop.
func orderFromRequest(req *protocol.NewOrderRequest) (*Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	total, err := decimal.NewFromString(req.TotalQuantity)
	if err != nil {
		return nil, &protocol.ValidationError{Field: "total_quantity", Reason: "not a valid decimal"}
	}
	if !total.IsPositive() {
		return nil, &protocol.ValidationError{Field: "total_quantity", Reason: "must be greater than zero"}
	}

	disclosed, err := decimal.NewFromString(req.DisclosedQuantity)
	if err != nil {
		return nil, &protocol.ValidationError{Field: "disclosed_quantity", Reason: "not a valid decimal"}
	}
	if !disclosed.IsPositive() {
		return nil, &protocol.ValidationError{Field: "disclosed_quantity", Reason: "must be greater than zero"}
	}
	if disclosed.GreaterThan(total) {
		return nil, &protocol.ValidationError{Field: "disclosed_quantity", Reason: "must not exceed total_quantity"}
	}

	order := &Order{
		ClientID:          req.ClientID,
		CustomID:          req.CustomID,
		Side:              req.Side,
		Kind:              req.OrderKind,
		TotalQuantity:     total,
		DisclosedQuantity: disclosed,
		DisplayQuantity:   disclosed,
	}

	if req.OrderKind == protocol.OrderKindLimit {
		price, err := decimal.NewFromString(req.Price)
		if err != nil {
			return nil, &protocol.ValidationError{Field: "price", Reason: "not a valid decimal"}
		}
		if !price.IsPositive() {
			return nil, &protocol.ValidationError{Field: "price", Reason: "must be greater than zero"}
		}
		order.Price = price
	}

	return order, nil
}
