package domain

import (
	"context"
	"time"
)

// Finders return (nil, nil) when nothing matches, except where noted.

// StockFilter narrows balance queries. A nil VariantID matches every variant.
type StockFilter struct {
	WarehouseID string
	ProductID   string
	VariantID   *string
	Limit       int64
	Offset      int64
}

// StockRepository persists balance rows. Writes happen only through the ledger store.
type StockRepository interface {
	// Ensure upserts an empty row for key and returns the stored row
	Ensure(ctx context.Context, key StockKey) (*Stock, error)
	// Lock bumps the row version inside the caller's transaction and returns
	// the locked row; ErrStockNotFound when the row does not exist
	Lock(ctx context.Context, key StockKey) (*Stock, error)
	Update(ctx context.Context, stock *Stock) error
	FindByKey(ctx context.Context, key StockKey) (*Stock, error)
	Find(ctx context.Context, filter StockFilter) ([]*Stock, error)
	CountByWarehouse(ctx context.Context, warehouseID string) (int64, error)
}

// MovementFilter narrows movement log queries
type MovementFilter struct {
	WarehouseID  string
	ProductID    string
	VariantID    *string
	MovementType MovementType
	BatchID      string
	ReferenceID  string
	From         *time.Time
	To           *time.Time
	Limit        int64
	Offset       int64
}

// MovementRepository is insert-only
type MovementRepository interface {
	Insert(ctx context.Context, movement *Movement) error
	Find(ctx context.Context, filter MovementFilter) ([]*Movement, error)
	// FindByKey returns every movement of one row in stock version order
	FindByKey(ctx context.Context, key StockKey) ([]*Movement, error)
}

// BatchFilter narrows batch queries
type BatchFilter struct {
	WarehouseID string
	SupplierID  string
	Status      BatchStatus
	Limit       int64
	Offset      int64
}

// BatchRepository persists inbound batches
type BatchRepository interface {
	Save(ctx context.Context, batch *InboundBatch) error
	FindByID(ctx context.Context, batchID string) (*InboundBatch, error)
	Find(ctx context.Context, filter BatchFilter) ([]*InboundBatch, error)
}

// QualityCheckRepository persists quality checks. Insert returns
// ErrDuplicateQC when a second official row is written for a batch.
type QualityCheckRepository interface {
	Insert(ctx context.Context, qc *QualityCheck) error
	FindOfficial(ctx context.Context, batchID string) (*QualityCheck, error)
	FindByBatch(ctx context.Context, batchID string) ([]*QualityCheck, error)
}

// TransferFilter narrows transfer queries
type TransferFilter struct {
	WarehouseID string // matches either end
	Status      TransferStatus
	Limit       int64
	Offset      int64
}

// TransferRepository persists internal transfers
type TransferRepository interface {
	Save(ctx context.Context, transfer *InternalTransfer) error
	FindByID(ctx context.Context, transferID string) (*InternalTransfer, error)
	Find(ctx context.Context, filter TransferFilter) ([]*InternalTransfer, error)
}

// StocktakeRepository persists stocktakes. Save returns
// ErrStocktakeInProgress when a second stocktake locks the same scope.
type StocktakeRepository interface {
	Save(ctx context.Context, stocktake *Stocktake) error
	FindByID(ctx context.Context, stocktakeID string) (*Stocktake, error)
	FindLocked(ctx context.Context) ([]*Stocktake, error)
	Find(ctx context.Context, warehouseID string, status StocktakeStatus, limit, offset int64) ([]*Stocktake, error)
}

// WarehouseRepository persists warehouses
type WarehouseRepository interface {
	Save(ctx context.Context, warehouse *Warehouse) error
	FindByID(ctx context.Context, warehouseID string) (*Warehouse, error)
	FindAll(ctx context.Context, activeOnly bool) ([]*Warehouse, error)
	Delete(ctx context.Context, warehouseID string) error
}
