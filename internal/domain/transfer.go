package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TransferStatus represents the status of an internal transfer
type TransferStatus string

const (
	TransferStatusDraft     TransferStatus = "draft"
	TransferStatusPending   TransferStatus = "pending"
	TransferStatusInTransit TransferStatus = "in_transit"
	TransferStatusReceived  TransferStatus = "received"
	TransferStatusCancelled TransferStatus = "cancelled"
)

// IsValid checks if the status is valid
func (s TransferStatus) IsValid() bool {
	switch s {
	case TransferStatusDraft, TransferStatusPending, TransferStatusInTransit,
		TransferStatusReceived, TransferStatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks if the status can transition to another status
func (s TransferStatus) CanTransitionTo(target TransferStatus) bool {
	validTransitions := map[TransferStatus][]TransferStatus{
		TransferStatusDraft:     {TransferStatusPending, TransferStatusInTransit, TransferStatusCancelled},
		TransferStatusPending:   {TransferStatusInTransit, TransferStatusCancelled},
		TransferStatusInTransit: {TransferStatusReceived, TransferStatusCancelled},
		TransferStatusReceived:  {},
		TransferStatusCancelled: {},
	}

	for _, allowed := range validTransitions[s] {
		if target == allowed {
			return true
		}
	}
	return false
}

// InternalTransferItem is one product line moved between warehouses
type InternalTransferItem struct {
	ProductID         string `bson:"productId" json:"productId"`
	VariantID         string `bson:"variantId" json:"variantId"`
	QuantityRequested int64  `bson:"quantityRequested" json:"quantityRequested"`
	QuantityShipped   int64  `bson:"quantityShipped" json:"quantityShipped"`
	QuantityReceived  int64  `bson:"quantityReceived" json:"quantityReceived"`
}

// Shrinkage is the shipped quantity that never arrived
func (i *InternalTransferItem) Shrinkage() int64 {
	return i.QuantityShipped - i.QuantityReceived
}

// TransferItemSpec is the caller-supplied shape of a transfer line
type TransferItemSpec struct {
	ProductID string
	VariantID string
	Quantity  int64
}

// TransferReceipt is the destination count of one line
type TransferReceipt struct {
	ProductID        string
	VariantID        string
	QuantityReceived int64
}

// InternalTransfer moves stock from one warehouse to another through an in-transit state
type InternalTransfer struct {
	TransferID      string                 `bson:"transferId" json:"transferId"`
	TransferCode    string                 `bson:"transferCode" json:"transferCode"`
	FromWarehouseID string                 `bson:"fromWarehouseId" json:"fromWarehouseId"`
	ToWarehouseID   string                 `bson:"toWarehouseId" json:"toWarehouseId"`
	Status          TransferStatus         `bson:"status" json:"status"`
	Items           []InternalTransferItem `bson:"items" json:"items"`
	Notes           string                 `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedBy       string                 `bson:"createdBy" json:"createdBy"`
	ShippedAt       *time.Time             `bson:"shippedAt,omitempty" json:"shippedAt,omitempty"`
	ReceivedAt      *time.Time             `bson:"receivedAt,omitempty" json:"receivedAt,omitempty"`
	CancelledAt     *time.Time             `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	CancelReason    string                 `bson:"cancelReason,omitempty" json:"cancelReason,omitempty"`
	CreatedAt       time.Time              `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time              `bson:"updatedAt" json:"updatedAt"`
	DomainEvents    []DomainEvent          `bson:"-" json:"-"`
}

// NewInternalTransfer creates a draft transfer
func NewInternalTransfer(fromWarehouseID, toWarehouseID, createdBy, notes string, specs []TransferItemSpec) (*InternalTransfer, error) {
	if fromWarehouseID == toWarehouseID {
		return nil, ErrSameWarehouse
	}
	if len(specs) == 0 {
		return nil, ErrNoItems
	}

	items := make([]InternalTransferItem, 0, len(specs))
	for _, spec := range specs {
		if strings.TrimSpace(spec.ProductID) == "" {
			return nil, ErrProductRequired
		}
		if spec.Quantity <= 0 {
			return nil, ErrNonPositiveQuantity
		}
		for _, existing := range items {
			if existing.ProductID == spec.ProductID && existing.VariantID == spec.VariantID {
				return nil, ErrDuplicateItem
			}
		}
		items = append(items, InternalTransferItem{
			ProductID:         spec.ProductID,
			VariantID:         spec.VariantID,
			QuantityRequested: spec.Quantity,
		})
	}

	now := time.Now().UTC()
	return &InternalTransfer{
		TransferID:      uuid.New().String(),
		TransferCode:    NewDocumentCode(TransferCodePrefix, now),
		FromWarehouseID: fromWarehouseID,
		ToWarehouseID:   toWarehouseID,
		Status:          TransferStatusDraft,
		Items:           items,
		Notes:           notes,
		CreatedBy:       createdBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// SourceKey is the balance row a line is shipped from
func (t *InternalTransfer) SourceKey(item InternalTransferItem) StockKey {
	return StockKey{WarehouseID: t.FromWarehouseID, ProductID: item.ProductID, VariantID: item.VariantID}
}

// DestinationKey is the balance row a line is received into
func (t *InternalTransfer) DestinationKey(item InternalTransferItem) StockKey {
	return StockKey{WarehouseID: t.ToWarehouseID, ProductID: item.ProductID, VariantID: item.VariantID}
}

// Submit moves a draft into pending
func (t *InternalTransfer) Submit() error {
	if t.Status != TransferStatusDraft {
		return t.transitionError(TransferStatusPending)
	}
	t.Status = TransferStatusPending
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// CanShip reports whether the transfer may leave the source
func (t *InternalTransfer) CanShip() error {
	if !t.Status.CanTransitionTo(TransferStatusInTransit) {
		return t.transitionError(TransferStatusInTransit)
	}
	return nil
}

// MarkShipped records the full requested quantity as shipped
func (t *InternalTransfer) MarkShipped() error {
	if err := t.CanShip(); err != nil {
		return err
	}

	now := time.Now().UTC()
	var total int64
	for i := range t.Items {
		t.Items[i].QuantityShipped = t.Items[i].QuantityRequested
		total += t.Items[i].QuantityShipped
	}
	t.Status = TransferStatusInTransit
	t.ShippedAt = &now
	t.UpdatedAt = now

	t.AddDomainEvent(&TransferShippedEvent{
		TransferID:      t.TransferID,
		TransferCode:    t.TransferCode,
		FromWarehouseID: t.FromWarehouseID,
		ToWarehouseID:   t.ToWarehouseID,
		TotalShipped:    total,
		ShippedAt:       now,
	})
	return nil
}

// Receive records destination counts. Lines without a receipt are taken as
// fully received; a count above the shipped quantity is refused.
func (t *InternalTransfer) Receive(receipts []TransferReceipt) error {
	if t.Status != TransferStatusInTransit {
		return t.transitionError(TransferStatusReceived)
	}

	counts := make(map[int]int64, len(receipts))
	for _, r := range receipts {
		idx := t.itemIndex(r.ProductID, r.VariantID)
		if idx < 0 {
			return ErrUnknownItem
		}
		if _, dup := counts[idx]; dup {
			return ErrDuplicateItem
		}
		if r.QuantityReceived < 0 {
			return ErrNegativeQuantity
		}
		if r.QuantityReceived > t.Items[idx].QuantityShipped {
			return ErrOverReceipt
		}
		counts[idx] = r.QuantityReceived
	}

	now := time.Now().UTC()
	var total int64
	var shrinkage []ShrinkageLine
	for i := range t.Items {
		item := &t.Items[i]
		item.QuantityReceived = item.QuantityShipped
		if q, ok := counts[i]; ok {
			item.QuantityReceived = q
		}
		total += item.QuantityReceived
		if lost := item.Shrinkage(); lost > 0 {
			shrinkage = append(shrinkage, ShrinkageLine{
				ProductID: item.ProductID,
				VariantID: item.VariantID,
				Shipped:   item.QuantityShipped,
				Received:  item.QuantityReceived,
				Lost:      lost,
			})
		}
	}
	t.Status = TransferStatusReceived
	t.ReceivedAt = &now
	t.UpdatedAt = now

	t.AddDomainEvent(&TransferReceivedEvent{
		TransferID:      t.TransferID,
		TransferCode:    t.TransferCode,
		FromWarehouseID: t.FromWarehouseID,
		ToWarehouseID:   t.ToWarehouseID,
		TotalReceived:   total,
		ReceivedAt:      now,
	})
	if len(shrinkage) > 0 {
		t.AddDomainEvent(&TransferShrinkageEvent{
			TransferID:   t.TransferID,
			TransferCode: t.TransferCode,
			Lines:        shrinkage,
			DetectedAt:   now,
		})
	}
	return nil
}

// Cancel abandons the transfer. It reports whether goods were in transit, in
// which case the caller must re-credit the source.
func (t *InternalTransfer) Cancel(reason string) (bool, error) {
	if !t.Status.CanTransitionTo(TransferStatusCancelled) {
		return false, t.transitionError(TransferStatusCancelled)
	}

	wasInTransit := t.Status == TransferStatusInTransit
	now := time.Now().UTC()
	t.Status = TransferStatusCancelled
	t.CancelledAt = &now
	t.CancelReason = reason
	t.UpdatedAt = now

	t.AddDomainEvent(&TransferCancelledEvent{
		TransferID:   t.TransferID,
		TransferCode: t.TransferCode,
		WasInTransit: wasInTransit,
		Reason:       reason,
		CancelledAt:  now,
	})
	return wasInTransit, nil
}

func (t *InternalTransfer) itemIndex(productID, variantID string) int {
	for i := range t.Items {
		if t.Items[i].ProductID == productID && t.Items[i].VariantID == variantID {
			return i
		}
	}
	return -1
}

func (t *InternalTransfer) transitionError(to TransferStatus) error {
	return &TransitionError{Entity: "transfer " + t.TransferCode, From: string(t.Status), To: string(to)}
}

// AddDomainEvent adds a domain event
func (t *InternalTransfer) AddDomainEvent(event DomainEvent) {
	t.DomainEvents = append(t.DomainEvents, event)
}

// GetDomainEvents returns all domain events
func (t *InternalTransfer) GetDomainEvents() []DomainEvent {
	return t.DomainEvents
}

// ClearDomainEvents clears all domain events
func (t *InternalTransfer) ClearDomainEvents() {
	t.DomainEvents = make([]DomainEvent, 0)
}
