package match

// CalculateDepthChange calculates the depth change implied by a book event.
// It returns a DepthChange indicating which side and price level should be
// updated. BookEvent.Side is always the side of the resting order, so no
// side flip is needed for matches: a match removes liquidity from the
// resting side at the traded price.
func CalculateDepthChange(event *BookEvent) DepthChange {
	switch event.Type {
	case EventOpen:
		return DepthChange{
			Side:     event.Side,
			Price:    event.Price,
			SizeDiff: event.Quantity,
		}
	case EventCancel:
		return DepthChange{
			Side:     event.Side,
			Price:    event.Price,
			SizeDiff: event.Quantity.Neg(),
		}
	case EventMatch:
		return DepthChange{
			Side:     event.Side,
			Price:    event.Price,
			SizeDiff: event.Quantity.Neg(),
		}
	}

	return DepthChange{}
}
