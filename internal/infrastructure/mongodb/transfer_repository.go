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

type TransferRepository struct {
	collection *mongo.Collection
}

func NewTransferRepository(db *mongo.Database) *TransferRepository {
	return &TransferRepository{collection: db.Collection("internal_transfers")}
}

func (r *TransferRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "transferId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "transferCode", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "fromWarehouseId", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "toWarehouseId", Value: 1}, {Key: "status", Value: 1}}},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *TransferRepository) Save(ctx context.Context, transfer *domain.InternalTransfer) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"transferId": transfer.TransferID}, transfer, opts); err != nil {
		return fmt.Errorf("failed to save transfer %s: %w", transfer.TransferID, err)
	}
	return nil
}

func (r *TransferRepository) FindByID(ctx context.Context, transferID string) (*domain.InternalTransfer, error) {
	var transfer domain.InternalTransfer
	err := r.collection.FindOne(ctx, bson.M{"transferId": transferID}).Decode(&transfer)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find transfer %s: %w", transferID, err)
	}
	return &transfer, nil
}

func (r *TransferRepository) Find(ctx context.Context, f domain.TransferFilter) ([]*domain.InternalTransfer, error) {
	filter := bson.M{}
	if f.WarehouseID != "" {
		filter["$or"] = bson.A{
			bson.M{"fromWarehouseId": f.WarehouseID},
			bson.M{"toWarehouseId": f.WarehouseID},
		}
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}

	opts := options.Find().SetSort(mongoutil.SortDescending("createdAt"))
	mongoutil.Pagination{Limit: f.Limit, Offset: f.Offset}.Apply(opts)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find transfers: %w", err)
	}
	defer cursor.Close(ctx)

	var transfers []*domain.InternalTransfer
	if err := cursor.All(ctx, &transfers); err != nil {
		return nil, fmt.Errorf("failed to decode transfers: %w", err)
	}
	return transfers, nil
}
