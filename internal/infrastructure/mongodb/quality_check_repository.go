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

// QualityCheckRepository keeps one official check per batch plus any number of rollback rows
type QualityCheckRepository struct {
	collection *mongo.Collection
}

func NewQualityCheckRepository(db *mongo.Database) *QualityCheckRepository {
	return &QualityCheckRepository{collection: db.Collection("quality_checks")}
}

func (r *QualityCheckRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "qcId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{
			Keys: bson.D{{Key: "batchId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("official_qc_per_batch").
				SetPartialFilterExpression(bson.M{"isRollback": false}),
		},
		{Keys: bson.D{{Key: "batchId", Value: 1}, {Key: "createdAt", Value: 1}}},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *QualityCheckRepository) Insert(ctx context.Context, qc *domain.QualityCheck) error {
	if _, err := r.collection.InsertOne(ctx, qc); err != nil {
		if mongoutil.IsDuplicateKey(err) && !qc.IsRollback {
			return domain.ErrDuplicateQC
		}
		return fmt.Errorf("failed to insert quality check %s: %w", qc.QCID, err)
	}
	return nil
}

func (r *QualityCheckRepository) FindOfficial(ctx context.Context, batchID string) (*domain.QualityCheck, error) {
	var qc domain.QualityCheck
	err := r.collection.FindOne(ctx, bson.M{"batchId": batchID, "isRollback": false}).Decode(&qc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find quality check for batch %s: %w", batchID, err)
	}
	return &qc, nil
}

// FindByBatch returns the official row and its rollbacks oldest first
func (r *QualityCheckRepository) FindByBatch(ctx context.Context, batchID string) ([]*domain.QualityCheck, error) {
	opts := options.Find().SetSort(mongoutil.SortAscending("createdAt"))
	cursor, err := r.collection.Find(ctx, bson.M{"batchId": batchID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find quality checks for batch %s: %w", batchID, err)
	}
	defer cursor.Close(ctx)

	var checks []*domain.QualityCheck
	if err := cursor.All(ctx, &checks); err != nil {
		return nil, fmt.Errorf("failed to decode quality checks: %w", err)
	}
	return checks, nil
}
