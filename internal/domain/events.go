package domain

import "time"

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// EventSource is an aggregate that buffers the events it raises until they
// are written out
type EventSource interface {
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

var (
	_ EventSource = (*InboundBatch)(nil)
	_ EventSource = (*InternalTransfer)(nil)
	_ EventSource = (*Stocktake)(nil)
)

// StockMovedEvent is published for every committed movement
type StockMovedEvent struct {
	MovementID     string       `json:"movementId"`
	WarehouseID    string       `json:"warehouseId"`
	ProductID      string       `json:"productId"`
	VariantID      string       `json:"variantId,omitempty"`
	MovementType   MovementType `json:"movementType"`
	Quantity       int64        `json:"quantity"`
	QuantityAfter  int64        `json:"quantityAfter"`
	AvailableAfter int64        `json:"availableAfter"`
	ReferenceType  string       `json:"referenceType,omitempty"`
	ReferenceID    string       `json:"referenceId,omitempty"`
	MovedAt        time.Time    `json:"movedAt"`
}

func (e *StockMovedEvent) EventType() string     { return "wms.ledger.stock-moved" }
func (e *StockMovedEvent) OccurredAt() time.Time { return e.MovedAt }

// NewStockMovedEvent builds the event for a committed movement
func NewStockMovedEvent(m *Movement) *StockMovedEvent {
	return &StockMovedEvent{
		MovementID:     m.MovementID,
		WarehouseID:    m.WarehouseID,
		ProductID:      m.ProductID,
		VariantID:      m.VariantID,
		MovementType:   m.MovementType,
		Quantity:       m.Quantity,
		QuantityAfter:  m.QuantityAfter,
		AvailableAfter: m.AvailableAfter,
		ReferenceType:  m.ReferenceType,
		ReferenceID:    m.ReferenceID,
		MovedAt:        m.CreatedAt,
	}
}

// LowStockEvent is published when a movement takes available stock to or below its threshold
type LowStockEvent struct {
	WarehouseID  string    `json:"warehouseId"`
	ProductID    string    `json:"productId"`
	VariantID    string    `json:"variantId,omitempty"`
	Available    int64     `json:"available"`
	MinThreshold int64     `json:"minThreshold"`
	DetectedAt   time.Time `json:"detectedAt"`
}

func (e *LowStockEvent) EventType() string     { return "wms.ledger.low-stock" }
func (e *LowStockEvent) OccurredAt() time.Time { return e.DetectedAt }

// BatchCreatedEvent is published when an inbound batch is registered
type BatchCreatedEvent struct {
	BatchID     string    `json:"batchId"`
	BatchCode   string    `json:"batchCode"`
	WarehouseID string    `json:"warehouseId"`
	SupplierID  string    `json:"supplierId"`
	ItemCount   int       `json:"itemCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (e *BatchCreatedEvent) EventType() string     { return "wms.ledger.batch-created" }
func (e *BatchCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// BatchReceivedEvent is published when receipt quantities are recorded
type BatchReceivedEvent struct {
	BatchID       string    `json:"batchId"`
	BatchCode     string    `json:"batchCode"`
	WarehouseID   string    `json:"warehouseId"`
	TotalReceived int64     `json:"totalReceived"`
	ReceivedAt    time.Time `json:"receivedAt"`
}

func (e *BatchReceivedEvent) EventType() string     { return "wms.ledger.batch-received" }
func (e *BatchReceivedEvent) OccurredAt() time.Time { return e.ReceivedAt }

// QualityCheckRecordedEvent is published when the official decision for a batch is made
type QualityCheckRecordedEvent struct {
	QCID           string    `json:"qcId"`
	BatchID        string    `json:"batchId"`
	BatchCode      string    `json:"batchCode"`
	WarehouseID    string    `json:"warehouseId"`
	Status         QCStatus  `json:"status"`
	QuantityPassed int64     `json:"quantityPassed"`
	QuantityFailed int64     `json:"quantityFailed"`
	CheckedAt      time.Time `json:"checkedAt"`
}

func (e *QualityCheckRecordedEvent) EventType() string     { return "wms.ledger.quality-check-recorded" }
func (e *QualityCheckRecordedEvent) OccurredAt() time.Time { return e.CheckedAt }

// QualityCheckRolledBackEvent is published when a rollback record is appended
type QualityCheckRolledBackEvent struct {
	QCID            string    `json:"qcId"`
	RollbackOf      string    `json:"rollbackOf"`
	BatchID         string    `json:"batchId"`
	WarehouseID     string    `json:"warehouseId"`
	QuantityRevoked int64     `json:"quantityRevoked"`
	Reason          string    `json:"reason"`
	RolledBackAt    time.Time `json:"rolledBackAt"`
}

func (e *QualityCheckRolledBackEvent) EventType() string     { return "wms.ledger.quality-check-rolled-back" }
func (e *QualityCheckRolledBackEvent) OccurredAt() time.Time { return e.RolledBackAt }

// TransferShippedEvent is published when goods leave the source warehouse
type TransferShippedEvent struct {
	TransferID      string    `json:"transferId"`
	TransferCode    string    `json:"transferCode"`
	FromWarehouseID string    `json:"fromWarehouseId"`
	ToWarehouseID   string    `json:"toWarehouseId"`
	TotalShipped    int64     `json:"totalShipped"`
	ShippedAt       time.Time `json:"shippedAt"`
}

func (e *TransferShippedEvent) EventType() string     { return "wms.ledger.transfer-shipped" }
func (e *TransferShippedEvent) OccurredAt() time.Time { return e.ShippedAt }

// TransferReceivedEvent is published when the destination books the goods
type TransferReceivedEvent struct {
	TransferID      string    `json:"transferId"`
	TransferCode    string    `json:"transferCode"`
	FromWarehouseID string    `json:"fromWarehouseId"`
	ToWarehouseID   string    `json:"toWarehouseId"`
	TotalReceived   int64     `json:"totalReceived"`
	ReceivedAt      time.Time `json:"receivedAt"`
}

func (e *TransferReceivedEvent) EventType() string     { return "wms.ledger.transfer-received" }
func (e *TransferReceivedEvent) OccurredAt() time.Time { return e.ReceivedAt }

// ShrinkageLine is one item that arrived short
type ShrinkageLine struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId,omitempty"`
	Shipped   int64  `json:"shipped"`
	Received  int64  `json:"received"`
	Lost      int64  `json:"lost"`
}

// TransferShrinkageEvent is published when a transfer is received short
type TransferShrinkageEvent struct {
	TransferID   string          `json:"transferId"`
	TransferCode string          `json:"transferCode"`
	Lines        []ShrinkageLine `json:"lines"`
	DetectedAt   time.Time       `json:"detectedAt"`
}

func (e *TransferShrinkageEvent) EventType() string     { return "wms.ledger.transfer-shrinkage" }
func (e *TransferShrinkageEvent) OccurredAt() time.Time { return e.DetectedAt }

// TransferCancelledEvent is published when a transfer is cancelled
type TransferCancelledEvent struct {
	TransferID   string    `json:"transferId"`
	TransferCode string    `json:"transferCode"`
	WasInTransit bool      `json:"wasInTransit"`
	Reason       string    `json:"reason"`
	CancelledAt  time.Time `json:"cancelledAt"`
}

func (e *TransferCancelledEvent) EventType() string     { return "wms.ledger.transfer-cancelled" }
func (e *TransferCancelledEvent) OccurredAt() time.Time { return e.CancelledAt }

// StocktakeApprovedEvent is published when counted variances are booked
type StocktakeApprovedEvent struct {
	StocktakeID   string    `json:"stocktakeId"`
	StocktakeCode string    `json:"stocktakeCode"`
	WarehouseID   string    `json:"warehouseId,omitempty"`
	Adjustments   int       `json:"adjustments"`
	NetDifference int64     `json:"netDifference"`
	ApprovedBy    string    `json:"approvedBy"`
	ApprovedAt    time.Time `json:"approvedAt"`
}

func (e *StocktakeApprovedEvent) EventType() string     { return "wms.ledger.stocktake-approved" }
func (e *StocktakeApprovedEvent) OccurredAt() time.Time { return e.ApprovedAt }
