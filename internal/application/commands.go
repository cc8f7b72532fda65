package application

import (
	"time"

	"github.com/wms-platform/stock-ledger-service/internal/domain"
)

// CreateWarehouseCommand represents the command to register a warehouse
type CreateWarehouseCommand struct {
	Code string
	Name string
}

// CreateBatchCommand represents the command to register a supplier delivery
type CreateBatchCommand struct {
	WarehouseID string
	SupplierID  string
	Items       []domain.BatchItemSpec
	Notes       string
	CreatedBy   string
}

// ReceiveBatchCommand represents the command to record what arrived
type ReceiveBatchCommand struct {
	BatchID      string
	ReceivedDate time.Time
	ItemReceipts []domain.ItemReceipt
	Actor        string
}

// CancelBatchCommand represents the command to abandon a batch
type CancelBatchCommand struct {
	BatchID string
	Reason  string
	Actor   string
}

// CreateQualityCheckCommand represents the official inspection decision for a batch
type CreateQualityCheckCommand struct {
	BatchID        string
	Inspector      string
	CheckDate      time.Time
	Status         domain.QCStatus
	Score          int
	QuantityPassed int64
	QuantityFailed int64
	Issues         []string
	Items          []domain.QCItemResult
}

// RollbackQualityCheckCommand represents a correction of an official decision
type RollbackQualityCheckCommand struct {
	BatchID     string
	Inspector   string
	Reason      string
	Corrections []domain.RollbackCorrection
}

// OutboundCommand represents the command to consume available stock
type OutboundCommand struct {
	WarehouseID   string
	ProductID     string
	VariantID     string
	Quantity      int64
	ReferenceType string
	ReferenceID   string
	Actor         string
}

func (c OutboundCommand) key() domain.StockKey {
	return domain.StockKey{WarehouseID: c.WarehouseID, ProductID: c.ProductID, VariantID: c.VariantID}
}

// AdjustCommand represents the command to set absolute balances.
// CreateIfMissing lets reconciliation book found stock on a new row.
type AdjustCommand struct {
	WarehouseID     string
	ProductID       string
	VariantID       string
	NewQuantity     int64
	NewAvailable    int64
	Reason          string
	Actor           string
	ReferenceType   string
	ReferenceID     string
	CreateIfMissing bool
}

func (c AdjustCommand) key() domain.StockKey {
	return domain.StockKey{WarehouseID: c.WarehouseID, ProductID: c.ProductID, VariantID: c.VariantID}
}

// RestockCommand represents the command to credit returned goods
type RestockCommand struct {
	WarehouseID string
	ProductID   string
	VariantID   string
	Quantity    int64
	ReferenceID string
	Reason      string
	Actor       string
}

func (c RestockCommand) key() domain.StockKey {
	return domain.StockKey{WarehouseID: c.WarehouseID, ProductID: c.ProductID, VariantID: c.VariantID}
}

// AvailabilityQuery asks whether quantity units can be promised. Empty
// WarehouseID sums every warehouse; nil VariantID sums every variant.
type AvailabilityQuery struct {
	WarehouseID string
	ProductID   string
	VariantID   *string
	Quantity    int64
}

// CreateTransferCommand represents the command to draft an inter-warehouse transfer
type CreateTransferCommand struct {
	FromWarehouseID string
	ToWarehouseID   string
	Items           []domain.TransferItemSpec
	Notes           string
	CreatedBy       string
}

// ReceiveTransferCommand represents the destination count of a transfer
type ReceiveTransferCommand struct {
	TransferID string
	Receipts   []domain.TransferReceipt
	Actor      string
}

// CancelTransferCommand represents the command to abandon a transfer
type CancelTransferCommand struct {
	TransferID string
	Reason     string
	Actor      string
}

// CreateStocktakeCommand represents the command to snapshot balances for counting
type CreateStocktakeCommand struct {
	WarehouseID string
	CreatedBy   string
}

// UpdateStocktakeItemsCommand represents counted quantities
type UpdateStocktakeItemsCommand struct {
	StocktakeID string
	Counts      []domain.StocktakeCount
}

// ApproveStocktakeCommand represents the command to book counted variances
type ApproveStocktakeCommand struct {
	StocktakeID string
	Approver    string
}

// CancelStocktakeCommand represents the command to abandon a stocktake
type CancelStocktakeCommand struct {
	StocktakeID string
	Reason      string
}
