package kafka

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/wms-platform/stock-ledger-service/pkg/cloudevents"
	"github.com/wms-platform/stock-ledger-service/pkg/logging"
	"github.com/wms-platform/stock-ledger-service/pkg/metrics"
	"github.com/wms-platform/stock-ledger-service/pkg/resilience"
)

// EventWriter is the publishing surface shared by Producer and its decorators
type EventWriter interface {
	PublishEvent(ctx context.Context, topic string, event *cloudevents.WMSCloudEvent) error
	Close() error
}

// CircuitBreakerProducer guards an EventWriter with a circuit breaker and records publish metrics
type CircuitBreakerProducer struct {
	producer       EventWriter
	circuitBreaker *resilience.CircuitBreaker
	metrics        *metrics.Metrics
	logger         *logging.Logger
}

// NewCircuitBreakerProducer creates a circuit breaker protected producer
func NewCircuitBreakerProducer(producer EventWriter, m *metrics.Metrics, logger *logging.Logger) *CircuitBreakerProducer {
	config := &resilience.CircuitBreakerConfig{
		Name:                  "kafka-producer",
		MaxRequests:           5,
		Interval:              time.Minute,
		Timeout:               30 * time.Second,
		FailureThreshold:      5,
		FailureRatioThreshold: 0.5,
		MinRequestsToTrip:     10,
	}

	onChange := func(name string, _, to gobreaker.State) {
		if m == nil {
			return
		}
		m.SetCircuitBreakerState(name, int(to))
		if to == gobreaker.StateOpen {
			m.RecordCircuitBreakerTrip(name)
		}
	}

	return &CircuitBreakerProducer{
		producer:       producer,
		circuitBreaker: resilience.NewCircuitBreaker(config, logger.Logger, onChange),
		metrics:        m,
		logger:         logger,
	}
}

// PublishEvent publishes a CloudEvent through the breaker
func (p *CircuitBreakerProducer) PublishEvent(ctx context.Context, topic string, event *cloudevents.WMSCloudEvent) error {
	start := time.Now()
	_, err := p.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return nil, p.producer.PublishEvent(ctx, topic, event)
	})
	duration := time.Since(start)

	if p.metrics != nil {
		p.metrics.RecordKafkaPublish(topic, event.Type, err == nil, duration)
	}
	p.logger.KafkaPublish(ctx, topic, event.Type, err == nil, duration)

	return err
}

// State returns the breaker state
func (p *CircuitBreakerProducer) State() gobreaker.State {
	return p.circuitBreaker.State()
}

// Close closes the underlying producer
func (p *CircuitBreakerProducer) Close() error {
	return p.producer.Close()
}

// NewProductionProducer creates a Kafka producer wrapped with metrics and a circuit breaker
func NewProductionProducer(config *Config, m *metrics.Metrics, logger *logging.Logger) *CircuitBreakerProducer {
	return NewCircuitBreakerProducer(NewProducer(config), m, logger)
}
