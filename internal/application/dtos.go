package application

import "time"

// WarehouseDTO represents a warehouse in responses
type WarehouseDTO struct {
	WarehouseID string    `json:"warehouseId"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// StockDTO represents a balance row in responses
type StockDTO struct {
	StockID           string    `json:"stockId"`
	WarehouseID       string    `json:"warehouseId"`
	ProductID         string    `json:"productId"`
	VariantID         string    `json:"variantId,omitempty"`
	Quantity          int64     `json:"quantity"`
	AvailableQuantity int64     `json:"availableQuantity"`
	ReservedQuantity  int64     `json:"reservedQuantity"`
	LastBatchID       string    `json:"lastBatchId,omitempty"`
	LastQCID          string    `json:"lastQcId,omitempty"`
	Version           int64     `json:"version"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// MovementDTO represents a movement log entry in responses
type MovementDTO struct {
	MovementID      string    `json:"movementId"`
	WarehouseID     string    `json:"warehouseId"`
	ProductID       string    `json:"productId"`
	VariantID       string    `json:"variantId,omitempty"`
	MovementType    string    `json:"movementType"`
	Quantity        int64     `json:"quantity"`
	QuantityBefore  int64     `json:"quantityBefore"`
	QuantityAfter   int64     `json:"quantityAfter"`
	AvailableBefore int64     `json:"availableBefore"`
	AvailableAfter  int64     `json:"availableAfter"`
	BatchID         string    `json:"batchId,omitempty"`
	QCID            string    `json:"qcId,omitempty"`
	ReferenceType   string    `json:"referenceType,omitempty"`
	ReferenceID     string    `json:"referenceId,omitempty"`
	Actor           string    `json:"actor,omitempty"`
	Reason          string    `json:"reason,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// MovementResultDTO is the outcome of a single-row mutation
type MovementResultDTO struct {
	Stock    *StockDTO    `json:"stock"`
	Movement *MovementDTO `json:"movement"`
}

// AvailabilityDTO answers an availability query
type AvailabilityDTO struct {
	Sufficient bool  `json:"sufficient"`
	Available  int64 `json:"available"`
	Requested  int64 `json:"requested"`
}

// LowStockDTO is one entry of the reorder feed
type LowStockDTO struct {
	WarehouseID  string `json:"warehouseId"`
	ProductID    string `json:"productId"`
	VariantID    string `json:"variantId,omitempty"`
	Available    int64  `json:"available"`
	MinThreshold int64  `json:"minThreshold"`
}

// BatchItemDTO represents a batch line in responses
type BatchItemDTO struct {
	ItemID           string `json:"itemId"`
	ProductID        string `json:"productId"`
	VariantID        string `json:"variantId,omitempty"`
	QuantityExpected int64  `json:"quantityExpected"`
	QuantityReceived int64  `json:"quantityReceived"`
}

// BatchDTO represents an inbound batch in responses
type BatchDTO struct {
	BatchID      string         `json:"batchId"`
	BatchCode    string         `json:"batchCode"`
	WarehouseID  string         `json:"warehouseId"`
	SupplierID   string         `json:"supplierId"`
	Status       string         `json:"status"`
	ReceivedDate *time.Time     `json:"receivedDate,omitempty"`
	CreatedBy    string         `json:"createdBy"`
	Notes        string         `json:"notes,omitempty"`
	Items        []BatchItemDTO `json:"items"`
	CancelReason string         `json:"cancelReason,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// QCItemDTO represents a per-line split in responses
type QCItemDTO struct {
	ItemID         string `json:"itemId"`
	ProductID      string `json:"productId"`
	VariantID      string `json:"variantId,omitempty"`
	QuantityPassed int64  `json:"quantityPassed"`
	QuantityFailed int64  `json:"quantityFailed"`
}

// QualityCheckDTO represents a quality check row in responses
type QualityCheckDTO struct {
	QCID           string      `json:"qcId"`
	BatchID        string      `json:"batchId"`
	Inspector      string      `json:"inspector"`
	CheckDate      time.Time   `json:"checkDate"`
	Status         string      `json:"status"`
	Score          int         `json:"score"`
	QuantityPassed int64       `json:"quantityPassed"`
	QuantityFailed int64       `json:"quantityFailed"`
	Issues         []string    `json:"issues,omitempty"`
	Items          []QCItemDTO `json:"items"`
	IsRollback     bool        `json:"isRollback"`
	RollbackOf     string      `json:"rollbackOf,omitempty"`
	Reason         string      `json:"reason,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// QualityHistoryDTO is the official decision of a batch with its rollbacks
type QualityHistoryDTO struct {
	Official  *QualityCheckDTO   `json:"official"`
	Rollbacks []*QualityCheckDTO `json:"rollbacks"`
}

// TransferItemDTO represents a transfer line in responses
type TransferItemDTO struct {
	ProductID         string `json:"productId"`
	VariantID         string `json:"variantId,omitempty"`
	QuantityRequested int64  `json:"quantityRequested"`
	QuantityShipped   int64  `json:"quantityShipped"`
	QuantityReceived  int64  `json:"quantityReceived"`
	Shrinkage         int64  `json:"shrinkage"`
}

// TransferDTO represents an internal transfer in responses
type TransferDTO struct {
	TransferID      string            `json:"transferId"`
	TransferCode    string            `json:"transferCode"`
	FromWarehouseID string            `json:"fromWarehouseId"`
	ToWarehouseID   string            `json:"toWarehouseId"`
	Status          string            `json:"status"`
	Items           []TransferItemDTO `json:"items"`
	Notes           string            `json:"notes,omitempty"`
	CreatedBy       string            `json:"createdBy"`
	ShippedAt       *time.Time        `json:"shippedAt,omitempty"`
	ReceivedAt      *time.Time        `json:"receivedAt,omitempty"`
	CancelledAt     *time.Time        `json:"cancelledAt,omitempty"`
	CancelReason    string            `json:"cancelReason,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// StocktakeItemDTO represents a counted row in responses
type StocktakeItemDTO struct {
	WarehouseID    string `json:"warehouseId"`
	ProductID      string `json:"productId"`
	VariantID      string `json:"variantId,omitempty"`
	BatchID        string `json:"batchId,omitempty"`
	SystemQuantity int64  `json:"systemQuantity"`
	ActualQuantity *int64 `json:"actualQuantity"`
	Difference     int64  `json:"difference"`
	Reason         string `json:"reason,omitempty"`
}

// StocktakeDTO represents a stocktake in responses
type StocktakeDTO struct {
	StocktakeID   string             `json:"stocktakeId"`
	StocktakeCode string             `json:"stocktakeCode"`
	WarehouseID   string             `json:"warehouseId,omitempty"`
	Status        string             `json:"status"`
	IsLocked      bool               `json:"isLocked"`
	Items         []StocktakeItemDTO `json:"items"`
	CreatedBy     string             `json:"createdBy"`
	StartedAt     *time.Time         `json:"startedAt,omitempty"`
	CompletedAt   *time.Time         `json:"completedAt,omitempty"`
	ApprovedAt    *time.Time         `json:"approvedAt,omitempty"`
	ApprovedBy    string             `json:"approvedBy,omitempty"`
	CancelReason  string             `json:"cancelReason,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// LedgerDriftDTO reports a balance row that its movement log does not reproduce
type LedgerDriftDTO struct {
	WarehouseID       string `json:"warehouseId"`
	ProductID         string `json:"productId"`
	VariantID         string `json:"variantId,omitempty"`
	Quantity          int64  `json:"quantity"`
	Available         int64  `json:"available"`
	ReplayedQuantity  int64  `json:"replayedQuantity"`
	ReplayedAvailable int64  `json:"replayedAvailable"`
	Entries           int    `json:"entries"`
	Breaks            int    `json:"breaks"`
}
