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

// StocktakeRepository persists stocktakes. A partial unique index on lockScope
// keeps two locked stocktakes from claiming the same scope.
type StocktakeRepository struct {
	collection *mongo.Collection
}

func NewStocktakeRepository(db *mongo.Database) *StocktakeRepository {
	return &StocktakeRepository{collection: db.Collection("stocktakes")}
}

func (r *StocktakeRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "stocktakeId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "stocktakeCode", Value: 1}}, Options: options.Index().SetUnique(true)},
		{
			Keys: bson.D{{Key: "lockScope", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("one_lock_per_scope").
				SetPartialFilterExpression(bson.M{"isLocked": true}),
		},
		{Keys: bson.D{{Key: "warehouseId", Value: 1}, {Key: "status", Value: 1}}},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *StocktakeRepository) Save(ctx context.Context, stocktake *domain.Stocktake) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"stocktakeId": stocktake.StocktakeID}, stocktake, opts)
	if err != nil {
		if mongoutil.IsDuplicateKey(err) && stocktake.IsLocked {
			return domain.ErrStocktakeInProgress
		}
		return fmt.Errorf("failed to save stocktake %s: %w", stocktake.StocktakeID, err)
	}
	return nil
}

func (r *StocktakeRepository) FindByID(ctx context.Context, stocktakeID string) (*domain.Stocktake, error) {
	var stocktake domain.Stocktake
	err := r.collection.FindOne(ctx, bson.M{"stocktakeId": stocktakeID}).Decode(&stocktake)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find stocktake %s: %w", stocktakeID, err)
	}
	return &stocktake, nil
}

func (r *StocktakeRepository) FindLocked(ctx context.Context) ([]*domain.Stocktake, error) {
	return r.find(ctx, bson.M{"isLocked": true}, options.Find())
}

func (r *StocktakeRepository) Find(ctx context.Context, warehouseID string, status domain.StocktakeStatus, limit, offset int64) ([]*domain.Stocktake, error) {
	filter := bson.M{}
	if warehouseID != "" {
		filter["warehouseId"] = warehouseID
	}
	if status != "" {
		filter["status"] = status
	}

	opts := options.Find().SetSort(mongoutil.SortDescending("createdAt"))
	mongoutil.Pagination{Limit: limit, Offset: offset}.Apply(opts)
	return r.find(ctx, filter, opts)
}

func (r *StocktakeRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Stocktake, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find stocktakes: %w", err)
	}
	defer cursor.Close(ctx)

	var stocktakes []*domain.Stocktake
	if err := cursor.All(ctx, &stocktakes); err != nil {
		return nil, fmt.Errorf("failed to decode stocktakes: %w", err)
	}
	return stocktakes, nil
}
