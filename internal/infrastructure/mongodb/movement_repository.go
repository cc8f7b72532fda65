package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/stock-ledger-service/internal/domain"
	"github.com/wms-platform/stock-ledger-service/pkg/metrics"
	mongoutil "github.com/wms-platform/stock-ledger-service/pkg/mongodb"
)

const movementsCollection = "inventory_logs"

// MovementRepository appends to the movement log. It exposes no update or delete.
type MovementRepository struct {
	collection *mongo.Collection
	metrics    *metrics.Metrics
}

func NewMovementRepository(db *mongo.Database, m *metrics.Metrics) *MovementRepository {
	return &MovementRepository{
		collection: db.Collection(movementsCollection),
		metrics:    m,
	}
}

func (r *MovementRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "movementId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{
			{Key: "warehouseId", Value: 1},
			{Key: "productId", Value: 1},
			{Key: "variantId", Value: 1},
			{Key: "stockVersion", Value: 1},
		}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "batchId", Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: "referenceId", Value: 1}}, Options: options.Index().SetSparse(true)},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *MovementRepository) Insert(ctx context.Context, movement *domain.Movement) error {
	start := time.Now()
	_, err := r.collection.InsertOne(ctx, movement)
	if r.metrics != nil {
		r.metrics.RecordMongoDBOperation(movementsCollection, "insert", err == nil, time.Since(start))
	}
	if err != nil {
		return fmt.Errorf("failed to insert movement %s: %w", movement.MovementID, err)
	}
	return nil
}

// Find returns matching movements newest first
func (r *MovementRepository) Find(ctx context.Context, f domain.MovementFilter) ([]*domain.Movement, error) {
	filter := bson.M{}
	if f.WarehouseID != "" {
		filter["warehouseId"] = f.WarehouseID
	}
	if f.ProductID != "" {
		filter["productId"] = f.ProductID
	}
	if f.VariantID != nil {
		filter["variantId"] = *f.VariantID
	}
	if f.MovementType != "" {
		filter["movementType"] = f.MovementType
	}
	if f.BatchID != "" {
		filter["batchId"] = f.BatchID
	}
	if f.ReferenceID != "" {
		filter["referenceId"] = f.ReferenceID
	}
	if f.From != nil || f.To != nil {
		window := bson.M{}
		if f.From != nil {
			window["$gte"] = *f.From
		}
		if f.To != nil {
			window["$lte"] = *f.To
		}
		filter["createdAt"] = window
	}

	opts := options.Find().SetSort(mongoutil.SortDescending("createdAt"))
	mongoutil.Pagination{Limit: f.Limit, Offset: f.Offset}.Apply(opts)

	return r.find(ctx, filter, opts)
}

func (r *MovementRepository) FindByKey(ctx context.Context, key domain.StockKey) ([]*domain.Movement, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "stockVersion", Value: 1},
		{Key: "createdAt", Value: 1},
	})
	return r.find(ctx, keyFilter(key), opts)
}

func (r *MovementRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Movement, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find movements: %w", err)
	}
	defer cursor.Close(ctx)

	var movements []*domain.Movement
	if err := cursor.All(ctx, &movements); err != nil {
		return nil, fmt.Errorf("failed to decode movements: %w", err)
	}
	return movements, nil
}
