package events

import (
	"context"

	"github.com/medflow/stockcheck-backend/internal/stockcheck/domain"
	"github.com/medflow/stockcheck-backend/pkg/actor"
	"github.com/medflow/stockcheck-backend/pkg/logger"
	"github.com/medflow/stockcheck-backend/pkg/messaging"
)

// Source is the event source name of this service
const Source = "stockcheck-service"

// EventPublisher is the transport the stock check events go out on.
// *messaging.Publisher satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// StockCheckEventPublisher publishes stock check events.
// A nil publisher is valid and drops every event.
type StockCheckEventPublisher struct {
	publisher EventPublisher
	logger    *logger.Logger
}

// NewStockCheckEventPublisher creates a publisher on the stock check exchange
func NewStockCheckEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*StockCheckEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeStockCheckEvents, Source, log)
	if err != nil {
		return nil, err
	}
	return NewWithPublisher(publisher, log), nil
}

// NewWithPublisher wraps an existing transport
func NewWithPublisher(publisher EventPublisher, log *logger.Logger) *StockCheckEventPublisher {
	return &StockCheckEventPublisher{
		publisher: publisher,
		logger:    log.WithComponent("events"),
	}
}

// OrderStatusChanged publishes a check order status changed event
func (p *StockCheckEventPublisher) OrderStatusChanged(ctx context.Context, orderID string, oldStatus, newStatus domain.Status) error {
	if p == nil {
		return nil
	}

	data := messaging.CheckOrderStatusChangedEvent{
		OrderID:   orderID,
		OldStatus: oldStatus.String(),
		NewStatus: newStatus.String(),
	}
	if who := actor.FromContext(ctx); !who.IsSystem() {
		data.ChangedBy = who.ID
	}

	if err := p.publisher.Publish(ctx, messaging.EventCheckOrderStatusChanged, data); err != nil {
		p.logger.Error().Err(err).Str("order_id", orderID).Msg("failed to publish order status changed event")
		return err
	}
	return nil
}

// OrderReconciled publishes a check order reconciled event
func (p *StockCheckEventPublisher) OrderReconciled(ctx context.Context, summary *domain.ReconcileSummary) error {
	if p == nil || summary == nil {
		return nil
	}

	data := messaging.CheckOrderReconciledEvent{
		OrderID:          summary.OrderID,
		ItemsChecked:     summary.ItemsChecked,
		PackagesChanged:  summary.PackagesChanged,
		LocationsChanged: summary.LocationsChanged,
		LocationsFreed:   summary.LocationsFreed,
	}

	if err := p.publisher.Publish(ctx, messaging.EventCheckOrderReconciled, data); err != nil {
		p.logger.Error().Err(err).Str("order_id", summary.OrderID).Msg("failed to publish order reconciled event")
		return err
	}
	return nil
}
