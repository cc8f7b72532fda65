package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/wms-platform/stock-ledger-service/pkg/metrics"
	outboxMongo "github.com/wms-platform/stock-ledger-service/pkg/outbox/mongodb"
)

// Repositories bundles every collection the ledger writes to
type Repositories struct {
	Stocks        *StockRepository
	Movements     *MovementRepository
	Batches       *BatchRepository
	QualityChecks *QualityCheckRepository
	Transfers     *TransferRepository
	Stocktakes    *StocktakeRepository
	Warehouses    *WarehouseRepository
	Outbox        *outboxMongo.OutboxRepository
}

func NewRepositories(db *mongo.Database, m *metrics.Metrics) *Repositories {
	return &Repositories{
		Stocks:        NewStockRepository(db, m),
		Movements:     NewMovementRepository(db, m),
		Batches:       NewBatchRepository(db),
		QualityChecks: NewQualityCheckRepository(db),
		Transfers:     NewTransferRepository(db),
		Stocktakes:    NewStocktakeRepository(db),
		Warehouses:    NewWarehouseRepository(db),
		Outbox:        outboxMongo.NewOutboxRepository(db, m),
	}
}

// EnsureIndexes creates every index the repositories rely on, including the
// unique ones that back ErrDuplicateQC and ErrStocktakeInProgress
func (r *Repositories) EnsureIndexes(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"stocks", r.Stocks.EnsureIndexes},
		{"movements", r.Movements.EnsureIndexes},
		{"batches", r.Batches.EnsureIndexes},
		{"quality checks", r.QualityChecks.EnsureIndexes},
		{"transfers", r.Transfers.EnsureIndexes},
		{"stocktakes", r.Stocktakes.EnsureIndexes},
		{"warehouses", r.Warehouses.EnsureIndexes},
		{"outbox", r.Outbox.EnsureIndexes},
	}
	for _, s := range steps {
		if err := s.fn(ctx); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", s.name, err)
		}
	}
	return nil
}
