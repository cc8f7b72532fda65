package outbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wms-platform/stock-ledger-service/pkg/cloudevents"
	"github.com/wms-platform/stock-ledger-service/pkg/logging"
	"github.com/wms-platform/stock-ledger-service/pkg/metrics"
)

// EventPublisher delivers one CloudEvent to a topic
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event *cloudevents.WMSCloudEvent) error
}

// Publisher polls the outbox and relays events to Kafka. Delivery is at
// least once.
type Publisher struct {
	repo         Repository
	producer     EventPublisher
	logger       *logging.Logger
	metrics      *metrics.Metrics
	interval     time.Duration
	batchSize    int
	mu           sync.Mutex
	running      bool
	stopCh       chan struct{}
	stoppedCh    chan struct{}
	publishedCnt int
	failedCnt    int
}

// PublisherConfig holds configuration for the outbox publisher
type PublisherConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

// DefaultPublisherConfig returns default configuration
func DefaultPublisherConfig() *PublisherConfig {
	return &PublisherConfig{
		PollInterval: time.Second,
		BatchSize:    100,
	}
}

// NewPublisher creates a new outbox publisher
func NewPublisher(
	repo Repository,
	producer EventPublisher,
	logger *logging.Logger,
	m *metrics.Metrics,
	config *PublisherConfig,
) *Publisher {
	if config == nil {
		config = DefaultPublisherConfig()
	}

	return &Publisher{
		repo:      repo,
		producer:  producer,
		logger:    logger.WithComponent("outbox-publisher"),
		metrics:   m,
		interval:  config.PollInterval,
		batchSize: config.BatchSize,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Start starts the publishing loop in the background
func (p *Publisher) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("publisher already running")
	}
	p.running = true
	p.mu.Unlock()

	p.logger.Info("Starting outbox publisher", "interval", p.interval, "batchSize", p.batchSize)

	go p.run(ctx)
	return nil
}

// Stop stops the publishing loop and waits for the current poll to finish
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return fmt.Errorf("publisher not running")
	}
	p.mu.Unlock()

	close(p.stopCh)
	<-p.stoppedCh

	p.mu.Lock()
	p.running = false
	published, failed := p.publishedCnt, p.failedCnt
	p.mu.Unlock()

	p.logger.Info("Outbox publisher stopped", "published", published, "failed", failed)
	return nil
}

func (p *Publisher) run(ctx context.Context) {
	defer close(p.stoppedCh)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.ProcessOnce(ctx)
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// ProcessOnce relays one batch of pending events and returns how many were
// delivered. After a failure the remaining events of that aggregate are held
// back until the next poll so consumers see each balance's events in order.
func (p *Publisher) ProcessOnce(ctx context.Context) int {
	events, err := p.repo.FindUnpublished(ctx, p.batchSize)
	if err != nil {
		p.logger.WithError(err).Error("Failed to find unpublished events")
		return 0
	}

	delivered := 0
	blocked := make(map[string]bool)
	for _, event := range events {
		if blocked[event.AggregateID] {
			continue
		}

		if err := p.publishEvent(ctx, event); err != nil {
			blocked[event.AggregateID] = true
			p.recordFailure(ctx, event, err)
			continue
		}

		p.mu.Lock()
		p.publishedCnt++
		p.mu.Unlock()
		delivered++

		if err := p.repo.MarkPublished(ctx, event.ID); err != nil {
			// the event goes out again next poll; consumers dedupe on the CloudEvent id
			p.logger.WithError(err).Error("Failed to mark event as published", "eventId", event.ID)
		}
	}

	p.reportBacklog(ctx)
	return delivered
}

func (p *Publisher) recordFailure(ctx context.Context, event *OutboxEvent, cause error) {
	p.mu.Lock()
	p.failedCnt++
	p.mu.Unlock()

	if err := p.repo.IncrementRetry(ctx, event.ID, cause.Error()); err != nil {
		p.logger.WithError(err).Error("Failed to increment retry count", "eventId", event.ID)
		return
	}

	event.RetryCount++
	log := p.logger.WithError(cause)
	if event.Parked() {
		log.Error("Outbox event parked after final attempt",
			"eventId", event.ID,
			"eventType", event.EventType,
			"aggregateId", event.AggregateID,
			"attempts", event.RetryCount,
		)
		return
	}
	log.Warn("Failed to publish event",
		"eventId", event.ID,
		"eventType", event.EventType,
		"aggregateId", event.AggregateID,
		"attempt", event.RetryCount,
	)
}

func (p *Publisher) reportBacklog(ctx context.Context) {
	if p.metrics == nil {
		return
	}
	pending, err := p.repo.CountPending(ctx)
	if err != nil {
		p.logger.WithError(err).Warn("Failed to count pending events")
		return
	}
	p.metrics.SetOutboxBacklog(int(pending))
}

func (p *Publisher) publishEvent(ctx context.Context, event *OutboxEvent) error {
	cloudEvent, err := event.ToCloudEvent()
	if err != nil {
		return fmt.Errorf("failed to convert to CloudEvent: %w", err)
	}

	if err := p.producer.PublishEvent(ctx, event.Topic, cloudEvent); err != nil {
		return fmt.Errorf("failed to publish to Kafka: %w", err)
	}
	return nil
}

// IsRunning returns whether the publisher is running
func (p *Publisher) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Stats returns publisher statistics
func (p *Publisher) Stats() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return map[string]int{
		"published": p.publishedCnt,
		"failed":    p.failedCnt,
	}
}
