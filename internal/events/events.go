package events

import (
	"context"

	"laundryops/internal/domain"
)

const (
	OrdersExchange        = "laundry.orders"
	RoutingOrderProcessed = "order.processed"
)

// Publisher announces order lifecycle changes to downstream consumers.
type Publisher interface {
	PublishOrderProcessed(ctx context.Context, event domain.OrderProcessedEvent) error
}

type NoopPublisher struct{}

func (NoopPublisher) PublishOrderProcessed(context.Context, domain.OrderProcessedEvent) error {
	return nil
}
