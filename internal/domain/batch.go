package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// BatchStatus represents the status of an inbound batch
type BatchStatus string

const (
	BatchStatusPending      BatchStatus = "pending"
	BatchStatusReceived     BatchStatus = "received"
	BatchStatusQCInProgress BatchStatus = "qc_in_progress"
	BatchStatusQCCompleted  BatchStatus = "qc_completed"
	BatchStatusCompleted    BatchStatus = "completed"
	BatchStatusCancelled    BatchStatus = "cancelled"
)

// IsValid checks if the status is valid
func (s BatchStatus) IsValid() bool {
	switch s {
	case BatchStatusPending, BatchStatusReceived, BatchStatusQCInProgress,
		BatchStatusQCCompleted, BatchStatusCompleted, BatchStatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks if the status can transition to another status
func (s BatchStatus) CanTransitionTo(target BatchStatus) bool {
	validTransitions := map[BatchStatus][]BatchStatus{
		BatchStatusPending:      {BatchStatusReceived, BatchStatusCancelled},
		BatchStatusReceived:     {BatchStatusReceived, BatchStatusQCInProgress, BatchStatusCancelled},
		BatchStatusQCInProgress: {BatchStatusQCCompleted, BatchStatusCancelled},
		BatchStatusQCCompleted:  {BatchStatusCompleted},
		BatchStatusCompleted:    {},
		BatchStatusCancelled:    {},
	}

	allowedTargets, exists := validTransitions[s]
	if !exists {
		return false
	}

	for _, allowed := range allowedTargets {
		if target == allowed {
			return true
		}
	}
	return false
}

// InboundBatchItem is one product line of a supplier delivery
type InboundBatchItem struct {
	ItemID           string `bson:"itemId" json:"itemId"`
	ProductID        string `bson:"productId" json:"productId"`
	VariantID        string `bson:"variantId" json:"variantId"`
	QuantityExpected int64  `bson:"quantityExpected" json:"quantityExpected"`
	QuantityReceived int64  `bson:"quantityReceived" json:"quantityReceived"`
}

// Matches reports whether the line refers to productID/variantID
func (i *InboundBatchItem) Matches(productID, variantID string) bool {
	return i.ProductID == productID && i.VariantID == variantID
}

// BatchItemSpec is the caller-supplied shape of a new batch line
type BatchItemSpec struct {
	ProductID        string
	VariantID        string
	QuantityExpected int64
}

// ItemReceipt records what physically arrived for one line. ItemID wins over
// ProductID/VariantID when both are given.
type ItemReceipt struct {
	ItemID           string
	ProductID        string
	VariantID        string
	QuantityReceived int64
}

// InboundBatch is one recorded supplier delivery, the unit of quality inspection
type InboundBatch struct {
	BatchID      string             `bson:"batchId" json:"batchId"`
	BatchCode    string             `bson:"batchCode" json:"batchCode"`
	WarehouseID  string             `bson:"warehouseId" json:"warehouseId"`
	SupplierID   string             `bson:"supplierId" json:"supplierId"`
	Status       BatchStatus        `bson:"status" json:"status"`
	ReceivedDate *time.Time         `bson:"receivedDate,omitempty" json:"receivedDate,omitempty"`
	CreatedBy    string             `bson:"createdBy" json:"createdBy"`
	Notes        string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Items        []InboundBatchItem `bson:"items" json:"items"`
	CancelReason string             `bson:"cancelReason,omitempty" json:"cancelReason,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
	DomainEvents []DomainEvent      `bson:"-" json:"-"`
}

// NewInboundBatch creates a pending batch with a fresh batch code
func NewInboundBatch(warehouseID, supplierID, createdBy, notes string, specs []BatchItemSpec) (*InboundBatch, error) {
	if len(specs) == 0 {
		return nil, ErrNoItems
	}

	items := make([]InboundBatchItem, 0, len(specs))
	for _, spec := range specs {
		if strings.TrimSpace(spec.ProductID) == "" {
			return nil, ErrProductRequired
		}
		if spec.QuantityExpected <= 0 {
			return nil, ErrNonPositiveQuantity
		}
		for _, existing := range items {
			if existing.Matches(spec.ProductID, spec.VariantID) {
				return nil, ErrDuplicateItem
			}
		}
		items = append(items, InboundBatchItem{
			ItemID:           uuid.New().String(),
			ProductID:        spec.ProductID,
			VariantID:        spec.VariantID,
			QuantityExpected: spec.QuantityExpected,
		})
	}

	now := time.Now().UTC()
	batch := &InboundBatch{
		BatchID:     uuid.New().String(),
		BatchCode:   NewDocumentCode(BatchCodePrefix, now),
		WarehouseID: warehouseID,
		SupplierID:  supplierID,
		Status:      BatchStatusPending,
		CreatedBy:   createdBy,
		Notes:       notes,
		Items:       items,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	batch.AddDomainEvent(&BatchCreatedEvent{
		BatchID:     batch.BatchID,
		BatchCode:   batch.BatchCode,
		WarehouseID: warehouseID,
		SupplierID:  supplierID,
		ItemCount:   len(items),
		CreatedAt:   now,
	})

	return batch, nil
}

// Receive records received quantities. It is refused with ErrBatchLocked once
// any quality check exists for the batch. Lines without a receipt default to
// their expected quantity on the first receipt and keep their value afterwards.
func (b *InboundBatch) Receive(receivedDate time.Time, receipts []ItemReceipt, qcExists bool) error {
	if qcExists || b.isLockedByQC() {
		return ErrBatchLocked
	}
	if !b.Status.CanTransitionTo(BatchStatusReceived) {
		return b.transitionError(BatchStatusReceived)
	}

	received := make(map[int]int64, len(receipts))
	for _, r := range receipts {
		if r.QuantityReceived < 0 {
			return ErrNegativeQuantity
		}
		idx := b.itemIndex(r)
		if idx < 0 {
			return ErrUnknownItem
		}
		received[idx] = r.QuantityReceived
	}

	firstReceipt := b.Status == BatchStatusPending
	for i := range b.Items {
		if q, ok := received[i]; ok {
			b.Items[i].QuantityReceived = q
		} else if firstReceipt {
			b.Items[i].QuantityReceived = b.Items[i].QuantityExpected
		}
	}

	now := time.Now().UTC()
	date := receivedDate.UTC()
	if receivedDate.IsZero() {
		date = now
	}
	b.Status = BatchStatusReceived
	b.ReceivedDate = &date
	b.UpdatedAt = now

	b.AddDomainEvent(&BatchReceivedEvent{
		BatchID:       b.BatchID,
		BatchCode:     b.BatchCode,
		WarehouseID:   b.WarehouseID,
		TotalReceived: b.TotalReceived(),
		ReceivedAt:    date,
	})

	return nil
}

// StartQualityCheck moves a received batch into inspection
func (b *InboundBatch) StartQualityCheck() error {
	if b.Status != BatchStatusReceived {
		return b.transitionError(BatchStatusQCInProgress)
	}
	b.Status = BatchStatusQCInProgress
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// CompleteQualityCheck closes inspection
func (b *InboundBatch) CompleteQualityCheck() error {
	if !b.Status.CanTransitionTo(BatchStatusQCCompleted) {
		return b.transitionError(BatchStatusQCCompleted)
	}
	b.Status = BatchStatusQCCompleted
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// Complete closes the batch after inspection
func (b *InboundBatch) Complete() error {
	if !b.Status.CanTransitionTo(BatchStatusCompleted) {
		return b.transitionError(BatchStatusCompleted)
	}
	b.Status = BatchStatusCompleted
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// Cancel abandons the batch. Refused once a quality check exists.
func (b *InboundBatch) Cancel(reason string, qcExists bool) error {
	if qcExists || b.isLockedByQC() {
		return ErrBatchLocked
	}
	if !b.Status.CanTransitionTo(BatchStatusCancelled) {
		return b.transitionError(BatchStatusCancelled)
	}
	b.Status = BatchStatusCancelled
	b.CancelReason = reason
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// TotalReceived sums received quantities over all lines
func (b *InboundBatch) TotalReceived() int64 {
	var total int64
	for _, item := range b.Items {
		total += item.QuantityReceived
	}
	return total
}

// FindItem returns the line matching the receipt or nil
func (b *InboundBatch) FindItem(itemID, productID, variantID string) *InboundBatchItem {
	idx := b.itemIndex(ItemReceipt{ItemID: itemID, ProductID: productID, VariantID: variantID})
	if idx < 0 {
		return nil
	}
	return &b.Items[idx]
}

func (b *InboundBatch) itemIndex(r ItemReceipt) int {
	for i := range b.Items {
		if r.ItemID != "" {
			if b.Items[i].ItemID == r.ItemID {
				return i
			}
			continue
		}
		if b.Items[i].Matches(r.ProductID, r.VariantID) {
			return i
		}
	}
	return -1
}

func (b *InboundBatch) isLockedByQC() bool {
	switch b.Status {
	case BatchStatusQCInProgress, BatchStatusQCCompleted, BatchStatusCompleted:
		return true
	}
	return false
}

func (b *InboundBatch) transitionError(to BatchStatus) error {
	return &TransitionError{Entity: "batch " + b.BatchCode, From: string(b.Status), To: string(to)}
}

// AddDomainEvent adds a domain event
func (b *InboundBatch) AddDomainEvent(event DomainEvent) {
	b.DomainEvents = append(b.DomainEvents, event)
}

// GetDomainEvents returns all domain events
func (b *InboundBatch) GetDomainEvents() []DomainEvent {
	return b.DomainEvents
}

// ClearDomainEvents clears all domain events
func (b *InboundBatch) ClearDomainEvents() {
	b.DomainEvents = make([]DomainEvent, 0)
}
