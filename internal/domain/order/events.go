package order

import "time"

// OrderPlacedEvent is emitted once an order and its stock reservation commit.
type OrderPlacedEvent struct {
	OrderID    int64
	ProductID  int64
	Quantity   int
	OccurredAt time.Time
}

func (OrderPlacedEvent) EventName() string { return "order.placed" }

func NewOrderPlacedEvent(o *Order) OrderPlacedEvent {
	return OrderPlacedEvent{
		OrderID:    o.ID,
		ProductID:  o.ProductID,
		Quantity:   o.Quantity,
		OccurredAt: time.Now().UTC(),
	}
}

// OrderStatusChangedEvent is emitted for every committed lifecycle move,
// including cancellation.
type OrderStatusChangedEvent struct {
	OrderID    int64
	ProductID  int64
	From       Status
	To         Status
	Source     string
	OccurredAt time.Time
}

const (
	SourcePlace   = "place"
	SourceManual  = "manual"
	SourceCancel  = "cancel"
	SourceWebhook = "webhook"
)

func (OrderStatusChangedEvent) EventName() string { return "order.status_changed" }

func NewOrderStatusChangedEvent(o *Order, from Status, source string) OrderStatusChangedEvent {
	return OrderStatusChangedEvent{
		OrderID:    o.ID,
		ProductID:  o.ProductID,
		From:       from,
		To:         o.Status,
		Source:     source,
		OccurredAt: time.Now().UTC(),
	}
}
