package match

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientLiquidity = errors.New("there is not enough depth to fill the order")
	ErrInvalidParam          = errors.New("the param is invalid")
	ErrInternal              = errors.New("internal invariant violated")
	ErrTimeout               = errors.New("timeout")
	ErrShutdown              = errors.New("matching engine is shutting down")
	ErrNotFound              = errors.New("not found")
	ErrSequenceGap           = errors.New("event sequence gap detected")
)

// InsufficientLiquidityError is returned when a market order exhausts the
// opposite side of the book before being fully filled. Matched reports the
// quantity that did trade; those fills stand and are not rolled back.
type InsufficientLiquidityError struct {
	OrderID string
	Matched decimal.Decimal
}

func (e *InsufficientLiquidityError) Error() string {
	return fmt.Sprintf("%s: order %s matched %s", ErrInsufficientLiquidity.Error(), e.OrderID, e.Matched)
}

func (e *InsufficientLiquidityError) Unwrap() error {
	return ErrInsufficientLiquidity
}
