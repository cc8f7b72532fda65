package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/stock-ledger-service/pkg/metrics"
	"github.com/wms-platform/stock-ledger-service/pkg/outbox"
)

const CollectionName = "outbox_events"

// publishedRetention is how long delivered events stay queryable
const publishedRetention = 7 * 24 * time.Hour

var unpublished = bson.M{"publishedAt": bson.M{"$exists": false}}

type OutboxRepository struct {
	collection *mongo.Collection
	metrics    *metrics.Metrics
}

var _ outbox.Repository = (*OutboxRepository)(nil)

// NewOutboxRepository returns the store; m may be nil
func NewOutboxRepository(db *mongo.Database, m *metrics.Metrics) *OutboxRepository {
	return &OutboxRepository{
		collection: db.Collection(CollectionName),
		metrics:    m,
	}
}

// SaveAll inserts the rows with the session carried on ctx, so they commit
// or abort with the ledger write that produced them.
func (r *OutboxRepository) SaveAll(ctx context.Context, events []*outbox.OutboxEvent) error {
	if len(events) == 0 {
		return nil
	}
	start := time.Now()

	docs := make([]interface{}, len(events))
	for i, event := range events {
		docs[i] = event
	}

	_, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	r.observe("save_all", start, err)
	if err != nil {
		return fmt.Errorf("failed to save outbox events: %w", err)
	}
	return nil
}

func (r *OutboxRepository) FindUnpublished(ctx context.Context, limit int) ([]*outbox.OutboxEvent, error) {
	start := time.Now()
	filter := bson.M{
		"publishedAt": bson.M{"$exists": false},
		"$expr":       bson.M{"$lt": bson.A{"$retryCount", "$maxRetries"}},
	}
	// _id breaks ties between rows written by one transaction
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		r.observe("find_unpublished", start, err)
		return nil, fmt.Errorf("failed to find unpublished events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*outbox.OutboxEvent
	err = cursor.All(ctx, &events)
	r.observe("find_unpublished", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to decode outbox events: %w", err)
	}
	return events, nil
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, eventID string) error {
	return r.updateOne(ctx, "mark_published", eventID, bson.M{"$set": bson.M{"publishedAt": time.Now().UTC()}})
}

func (r *OutboxRepository) IncrementRetry(ctx context.Context, eventID string, errorMsg string) error {
	return r.updateOne(ctx, "increment_retry", eventID, bson.M{
		"$inc": bson.M{"retryCount": 1},
		"$set": bson.M{"lastError": errorMsg},
	})
}

func (r *OutboxRepository) CountPending(ctx context.Context) (int64, error) {
	start := time.Now()
	n, err := r.collection.CountDocuments(ctx, unpublished)
	r.observe("count_pending", start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending events: %w", err)
	}
	return n, nil
}

func (r *OutboxRepository) updateOne(ctx context.Context, op, eventID string, update bson.M) error {
	start := time.Now()
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": eventID}, update)
	r.observe(op, start, err)
	if err != nil {
		return fmt.Errorf("failed to %s outbox event %s: %w", op, eventID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("outbox event not found: %s", eventID)
	}
	return nil
}

// EnsureIndexes creates the relay and retention indexes
func (r *OutboxRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "publishedAt", Value: 1}, {Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("relay_order"),
		},
		{
			Keys:    bson.D{{Key: "aggregateId", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index().SetName("by_aggregate"),
		},
		{
			// TTL only removes documents whose publishedAt is set
			Keys: bson.D{{Key: "publishedAt", Value: 1}},
			Options: options.Index().
				SetName("published_ttl").
				SetExpireAfterSeconds(int32(publishedRetention.Seconds())),
		},
	}

	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create outbox indexes: %w", err)
	}
	return nil
}

func (r *OutboxRepository) observe(op string, start time.Time, err error) {
	if r.metrics != nil {
		r.metrics.RecordMongoDBOperation(CollectionName, op, err == nil, time.Since(start))
	}
}
