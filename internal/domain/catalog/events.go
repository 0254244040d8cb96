package catalog

import "time"

// StockChangedEvent is emitted after any committed change to a product's stock.
type StockChangedEvent struct {
	ProductID int64
	SKU       string
	Stock     int
	Delta     int
	Reason    string
	// Version is the product version the event was committed at.
	Version    int64
	OccurredAt time.Time
}

const (
	StockReasonCreated  = "created"
	StockReasonUpdated  = "updated"
	StockReasonAdjusted = "adjusted"
	StockReasonReserved = "reserved"
	StockReasonReleased = "released"
	StockReasonDeleted  = "deleted"
)

func (StockChangedEvent) EventName() string { return "catalog.stock_changed" }

func NewStockChangedEvent(p *Product, delta int, reason string) StockChangedEvent {
	return StockChangedEvent{
		ProductID:  p.ID,
		SKU:        p.SKU,
		Stock:      p.Stock,
		Delta:      delta,
		Reason:     reason,
		Version:    p.Version,
		OccurredAt: time.Now().UTC(),
	}
}
