package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/stock-ledger-service/internal/domain"
	mongoutil "github.com/wms-platform/stock-ledger-service/pkg/mongodb"
)

type BatchRepository struct {
	collection *mongo.Collection
}

func NewBatchRepository(db *mongo.Database) *BatchRepository {
	return &BatchRepository{collection: db.Collection("inbound_batches")}
}

func (r *BatchRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "batchId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "batchCode", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "warehouseId", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "supplierId", Value: 1}}},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *BatchRepository) Save(ctx context.Context, batch *domain.InboundBatch) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"batchId": batch.BatchID}, batch, opts); err != nil {
		return fmt.Errorf("failed to save batch %s: %w", batch.BatchID, err)
	}
	return nil
}

func (r *BatchRepository) FindByID(ctx context.Context, batchID string) (*domain.InboundBatch, error) {
	var batch domain.InboundBatch
	err := r.collection.FindOne(ctx, bson.M{"batchId": batchID}).Decode(&batch)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find batch %s: %w", batchID, err)
	}
	return &batch, nil
}

func (r *BatchRepository) Find(ctx context.Context, f domain.BatchFilter) ([]*domain.InboundBatch, error) {
	filter := bson.M{}
	if f.WarehouseID != "" {
		filter["warehouseId"] = f.WarehouseID
	}
	if f.SupplierID != "" {
		filter["supplierId"] = f.SupplierID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}

	opts := options.Find().SetSort(mongoutil.SortDescending("createdAt"))
	mongoutil.Pagination{Limit: f.Limit, Offset: f.Offset}.Apply(opts)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find batches: %w", err)
	}
	defer cursor.Close(ctx)

	var batches []*domain.InboundBatch
	if err := cursor.All(ctx, &batches); err != nil {
		return nil, fmt.Errorf("failed to decode batches: %w", err)
	}
	return batches, nil
}
