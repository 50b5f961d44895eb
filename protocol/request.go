package protocol

// NewOrderRequest is the payload for placing a new order.
// Numeric fields use strings to prevent precision loss in JSON.
type NewOrderRequest struct {
	OrderKind         OrderKind `json:"order_kind"`
	Side              Side      `json:"side"`
	Price             string    `json:"price,omitempty"` // required for limit orders, ignored for market orders
	TotalQuantity     string    `json:"total_quantity"`
	DisclosedQuantity string    `json:"disclosed_quantity"`
	ClientID          int64     `json:"client_id,omitempty"`
	CustomID          string    `json:"custom_id,omitempty"`
}

// Validate checks the structural fields of the request. Numeric range checks
// happen when the engine parses the decimal fields.
func (r *NewOrderRequest) Validate() error {
	if !r.OrderKind.Valid() {
		return &ValidationError{Field: "order_kind", Reason: "must be limit or market"}
	}
	if !r.Side.Valid() {
		return &ValidationError{Field: "side", Reason: "must be buy or sell"}
	}
	if r.OrderKind == OrderKindLimit && r.Price == "" {
		return &ValidationError{Field: "price", Reason: "required for limit orders"}
	}
	if r.TotalQuantity == "" {
		return &ValidationError{Field: "total_quantity", Reason: "is required"}
	}
	if r.DisclosedQuantity == "" {
		return &ValidationError{Field: "disclosed_quantity", Reason: "is required"}
	}
	return nil
}

// CancelOrderRequest is the payload for cancelling a resting order.
type CancelOrderRequest struct {
	OrderID  string `json:"order_id"`
	Side     Side   `json:"side"`
	ClientID int64  `json:"client_id,omitempty"`
	CustomID string `json:"custom_id,omitempty"`
}

// Validate checks the structural fields of the request.
func (r *CancelOrderRequest) Validate() error {
	if r.OrderID == "" {
		return &ValidationError{Field: "order_id", Reason: "is required"}
	}
	if !r.Side.Valid() {
		return &ValidationError{Field: "side", Reason: "must be buy or sell"}
	}
	return nil
}
