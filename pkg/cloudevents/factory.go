package cloudevents

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wms-platform/stock-ledger-service/pkg/logging"
)

// EventFactory stamps ledger events with a source, a fresh ID and the
// request metadata found on the context.
type EventFactory struct {
	source string
	now    func() time.Time
}

func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source, now: time.Now}
}

// WithClock replaces the event timestamp source
func (f *EventFactory) WithClock(now func() time.Time) *EventFactory {
	f.now = now
	return f
}

// CreateEvent wraps data as a JSON CloudEvent about subject. Subject is the
// ordering key downstream, so callers pass the balance or document path.
func (f *EventFactory) CreateEvent(ctx context.Context, eventType, subject string, data any) *WMSCloudEvent {
	return &WMSCloudEvent{
		SpecVersion:     SpecVersion,
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            f.now().UTC(),
		DataContentType: "application/json",
		Data:            data,
		CorrelationID:   logging.CorrelationIDFromContext(ctx),
		Actor:           logging.ActorFromContext(ctx),
	}
}

func (e *WMSCloudEvent) WithWarehouse(warehouseID string) *WMSCloudEvent {
	e.WarehouseID = warehouseID
	return e
}
