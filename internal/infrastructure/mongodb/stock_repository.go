package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/stock-ledger-service/internal/domain"
	"github.com/wms-platform/stock-ledger-service/pkg/metrics"
	mongoutil "github.com/wms-platform/stock-ledger-service/pkg/mongodb"
)

const stocksCollection = "stocks"

// StockRepository stores one balance document per (warehouse, product, variant)
type StockRepository struct {
	collection *mongo.Collection
	metrics    *metrics.Metrics
}

func NewStockRepository(db *mongo.Database, m *metrics.Metrics) *StockRepository {
	return &StockRepository{
		collection: db.Collection(stocksCollection),
		metrics:    m,
	}
}

func (r *StockRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "warehouseId", Value: 1},
				{Key: "productId", Value: 1},
				{Key: "variantId", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("stock_key"),
		},
		{Keys: bson.D{{Key: "stockId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "productId", Value: 1}, {Key: "variantId", Value: 1}}},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func keyFilter(key domain.StockKey) bson.M {
	return bson.M{
		"warehouseId": key.WarehouseID,
		"productId":   key.ProductID,
		"variantId":   key.VariantID,
	}
}

// Ensure inserts an empty row when none exists. Two concurrent upserts on a
// missing key can both miss; the loser sees a duplicate key and reads the winner.
func (r *StockRepository) Ensure(ctx context.Context, key domain.StockKey) (*domain.Stock, error) {
	start := time.Now()
	fresh := domain.NewStock(key)
	update := bson.M{"$setOnInsert": bson.M{
		"stockId":           fresh.StockID,
		"quantity":          int64(0),
		"availableQuantity": int64(0),
		"version":           int64(0),
		"createdAt":         fresh.CreatedAt,
		"updatedAt":         fresh.UpdatedAt,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stock domain.Stock
	err := r.collection.FindOneAndUpdate(ctx, keyFilter(key), update, opts).Decode(&stock)
	if mongoutil.IsDuplicateKey(err) {
		err = r.collection.FindOne(ctx, keyFilter(key)).Decode(&stock)
	}
	r.observe("ensure", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure stock %s: %w", key, err)
	}
	return &stock, nil
}

// Lock bumps the version so concurrent transactions touching the same row
// conflict on write; the driver retries the loser against the new state.
func (r *StockRepository) Lock(ctx context.Context, key domain.StockKey) (*domain.Stock, error) {
	start := time.Now()
	update := bson.M{"$inc": bson.M{"version": 1}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var stock domain.Stock
	err := r.collection.FindOneAndUpdate(ctx, keyFilter(key), update, opts).Decode(&stock)
	if errors.Is(err, mongo.ErrNoDocuments) {
		r.observe("lock", start, nil)
		return nil, domain.ErrStockNotFound
	}
	r.observe("lock", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to lock stock %s: %w", key, err)
	}
	return &stock, nil
}

// Update writes balances of a row previously returned by Lock
func (r *StockRepository) Update(ctx context.Context, stock *domain.Stock) error {
	start := time.Now()
	set := bson.M{
		"quantity":          stock.Quantity,
		"availableQuantity": stock.AvailableQuantity,
		"version":           stock.Version,
		"updatedAt":         stock.UpdatedAt,
	}
	if stock.LastBatchID != "" {
		set["lastBatchId"] = stock.LastBatchID
	}
	if stock.LastQCID != "" {
		set["lastQcId"] = stock.LastQCID
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"stockId": stock.StockID}, bson.M{"$set": set})
	r.observe("update", start, err)
	if err != nil {
		return fmt.Errorf("failed to update stock %s: %w", stock.Key(), err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrStockNotFound
	}
	return nil
}

func (r *StockRepository) FindByKey(ctx context.Context, key domain.StockKey) (*domain.Stock, error) {
	var stock domain.Stock
	err := r.collection.FindOne(ctx, keyFilter(key)).Decode(&stock)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find stock %s: %w", key, err)
	}
	return &stock, nil
}

func (r *StockRepository) Find(ctx context.Context, f domain.StockFilter) ([]*domain.Stock, error) {
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

	opts := options.Find().SetSort(bson.D{
		{Key: "warehouseId", Value: 1},
		{Key: "productId", Value: 1},
		{Key: "variantId", Value: 1},
	})
	mongoutil.Pagination{Limit: f.Limit, Offset: f.Offset}.Apply(opts)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find stock: %w", err)
	}
	defer cursor.Close(ctx)

	var stocks []*domain.Stock
	if err := cursor.All(ctx, &stocks); err != nil {
		return nil, fmt.Errorf("failed to decode stock: %w", err)
	}
	return stocks, nil
}

func (r *StockRepository) CountByWarehouse(ctx context.Context, warehouseID string) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"warehouseId": warehouseID})
	if err != nil {
		return 0, fmt.Errorf("failed to count stock in warehouse %s: %w", warehouseID, err)
	}
	return n, nil
}

func (r *StockRepository) observe(op string, start time.Time, err error) {
	if r.metrics != nil {
		r.metrics.RecordMongoDBOperation(stocksCollection, op, err == nil, time.Since(start))
	}
}
