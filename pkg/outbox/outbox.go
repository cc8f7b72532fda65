package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/wms-platform/stock-ledger-service/pkg/cloudevents"
)

// DefaultMaxRetries bounds publishing attempts before an event is parked
const DefaultMaxRetries = 10

// OutboxEvent is a CloudEvent waiting to be relayed. Rows are written in the
// same transaction as the ledger change that produced them, so an event
// exists if and only if the change committed.
//
// AggregateID is the ordering key: the publisher never sends an event while
// an older event of the same aggregate is still undelivered in the same poll.
type OutboxEvent struct {
	ID            string          `bson:"_id" json:"id"`
	AggregateID   string          `bson:"aggregateId" json:"aggregateId"`
	AggregateType string          `bson:"aggregateType" json:"aggregateType"`
	EventType     string          `bson:"eventType" json:"eventType"`
	Topic         string          `bson:"topic" json:"topic"`
	Payload       json.RawMessage `bson:"payload" json:"payload"`
	CreatedAt     time.Time       `bson:"createdAt" json:"createdAt"`
	PublishedAt   *time.Time      `bson:"publishedAt,omitempty" json:"publishedAt,omitempty"`
	RetryCount    int             `bson:"retryCount" json:"retryCount"`
	LastError     string          `bson:"lastError,omitempty" json:"lastError,omitempty"`
	MaxRetries    int             `bson:"maxRetries" json:"maxRetries"`
}

// NewOutboxEventFromCloudEvent serializes ce for later delivery to topic
func NewOutboxEventFromCloudEvent(aggregateID, aggregateType, topic string, ce *cloudevents.WMSCloudEvent) (*OutboxEvent, error) {
	payload, err := json.Marshal(ce)
	if err != nil {
		return nil, err
	}

	return &OutboxEvent{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     ce.Type,
		Topic:         topic,
		Payload:       payload,
		CreatedAt:     ce.Time,
		MaxRetries:    DefaultMaxRetries,
	}, nil
}

func (e *OutboxEvent) IsPublished() bool {
	return e.PublishedAt != nil
}

// Parked events have used every retry and wait for an operator
func (e *OutboxEvent) Parked() bool {
	return !e.IsPublished() && e.RetryCount >= e.MaxRetries
}

func (e *OutboxEvent) ToCloudEvent() (*cloudevents.WMSCloudEvent, error) {
	var ce cloudevents.WMSCloudEvent
	if err := json.Unmarshal(e.Payload, &ce); err != nil {
		return nil, err
	}
	return &ce, nil
}
