package application

import (
	"context"
	"fmt"

	"github.com/wms-platform/stock-ledger-service/internal/domain"
	"github.com/wms-platform/stock-ledger-service/pkg/cloudevents"
	"github.com/wms-platform/stock-ledger-service/pkg/outbox"
)

// Aggregate types stamped on outbox rows
const (
	aggregateStock     = "stock"
	aggregateBatch     = "batch"
	aggregateTransfer  = "transfer"
	aggregateStocktake = "stocktake"
)

// EventRecorder turns domain events into CloudEvents and writes them to the
// outbox in the caller's transaction
type EventRecorder struct {
	outbox      OutboxWriter
	factory     *cloudevents.EventFactory
	eventsTopic string
	alertsTopic string
}

// NewEventRecorder creates an EventRecorder
func NewEventRecorder(w OutboxWriter, factory *cloudevents.EventFactory, eventsTopic, alertsTopic string) *EventRecorder {
	return &EventRecorder{
		outbox:      w,
		factory:     factory,
		eventsTopic: eventsTopic,
		alertsTopic: alertsTopic,
	}
}

// Flush records the events buffered on src and empties the buffer, so a
// second save of the same aggregate does not publish them twice
func (r *EventRecorder) Flush(ctx context.Context, aggregateType, aggregateID, warehouseID string, src domain.EventSource) error {
	if err := r.Record(ctx, aggregateType, aggregateID, warehouseID, src.GetDomainEvents()...); err != nil {
		return err
	}
	src.ClearDomainEvents()
	return nil
}

// Record stores events raised by one aggregate
func (r *EventRecorder) Record(ctx context.Context, aggregateType, aggregateID, warehouseID string, events ...domain.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	rows := make([]*outbox.OutboxEvent, 0, len(events))
	for _, e := range events {
		ce := r.factory.CreateEvent(ctx, e.EventType(), aggregateType+"/"+aggregateID, e).WithWarehouse(warehouseID)
		ce.Time = e.OccurredAt()

		topic := r.eventsTopic
		if e.EventType() == cloudevents.LowStock {
			topic = r.alertsTopic
		}

		row, err := outbox.NewOutboxEventFromCloudEvent(aggregateID, aggregateType, topic, ce)
		if err != nil {
			return fmt.Errorf("failed to build outbox event %s: %w", e.EventType(), err)
		}
		rows = append(rows, row)
	}

	if err := r.outbox.SaveAll(ctx, rows); err != nil {
		return fmt.Errorf("failed to save outbox events: %w", err)
	}
	return nil
}
