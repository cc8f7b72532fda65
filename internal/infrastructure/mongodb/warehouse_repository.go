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

type WarehouseRepository struct {
	collection *mongo.Collection
}

func NewWarehouseRepository(db *mongo.Database) *WarehouseRepository {
	return &WarehouseRepository{collection: db.Collection("warehouses")}
}

func (r *WarehouseRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "warehouseId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *WarehouseRepository) Save(ctx context.Context, warehouse *domain.Warehouse) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"warehouseId": warehouse.WarehouseID}, warehouse, opts)
	if err != nil {
		if mongoutil.IsDuplicateKey(err) {
			return domain.ErrWarehouseCodeTaken
		}
		return fmt.Errorf("failed to save warehouse %s: %w", warehouse.Code, err)
	}
	return nil
}

func (r *WarehouseRepository) FindByID(ctx context.Context, warehouseID string) (*domain.Warehouse, error) {
	var warehouse domain.Warehouse
	err := r.collection.FindOne(ctx, bson.M{"warehouseId": warehouseID}).Decode(&warehouse)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find warehouse %s: %w", warehouseID, err)
	}
	return &warehouse, nil
}

func (r *WarehouseRepository) FindAll(ctx context.Context, activeOnly bool) ([]*domain.Warehouse, error) {
	filter := bson.M{}
	if activeOnly {
		filter["active"] = true
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(mongoutil.SortAscending("code")))
	if err != nil {
		return nil, fmt.Errorf("failed to find warehouses: %w", err)
	}
	defer cursor.Close(ctx)

	var warehouses []*domain.Warehouse
	if err := cursor.All(ctx, &warehouses); err != nil {
		return nil, fmt.Errorf("failed to decode warehouses: %w", err)
	}
	return warehouses, nil
}

func (r *WarehouseRepository) Delete(ctx context.Context, warehouseID string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"warehouseId": warehouseID}); err != nil {
		return fmt.Errorf("failed to delete warehouse %s: %w", warehouseID, err)
	}
	return nil
}
