package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StockKey identifies one balance row
type StockKey struct {
	WarehouseID string `bson:"warehouseId" json:"warehouseId"`
	ProductID   string `bson:"productId" json:"productId"`
	VariantID   string `bson:"variantId" json:"variantId"` // empty for the base product
}

func (k StockKey) String() string {
	if k.VariantID == "" {
		return fmt.Sprintf("%s/%s", k.WarehouseID, k.ProductID)
	}
	return fmt.Sprintf("%s/%s/%s", k.WarehouseID, k.ProductID, k.VariantID)
}

// Stock is the balance of one product variant in one warehouse.
// Invariant: 0 <= AvailableQuantity <= Quantity.
type Stock struct {
	StockID           string    `bson:"stockId" json:"stockId"`
	WarehouseID       string    `bson:"warehouseId" json:"warehouseId"`
	ProductID         string    `bson:"productId" json:"productId"`
	VariantID         string    `bson:"variantId" json:"variantId"`
	Quantity          int64     `bson:"quantity" json:"quantity"`
	AvailableQuantity int64     `bson:"availableQuantity" json:"availableQuantity"`
	LastBatchID       string    `bson:"lastBatchId,omitempty" json:"lastBatchId,omitempty"`
	LastQCID          string    `bson:"lastQcId,omitempty" json:"lastQcId,omitempty"`
	Version           int64     `bson:"version" json:"version"`
	CreatedAt         time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time `bson:"updatedAt" json:"updatedAt"`
}

// NewStock creates an empty balance row
func NewStock(key StockKey) *Stock {
	now := time.Now().UTC()
	return &Stock{
		StockID:     uuid.New().String(),
		WarehouseID: key.WarehouseID,
		ProductID:   key.ProductID,
		VariantID:   key.VariantID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Key returns the balance key of the row
func (s *Stock) Key() StockKey {
	return StockKey{WarehouseID: s.WarehouseID, ProductID: s.ProductID, VariantID: s.VariantID}
}

// Reserved is stock owned but not promise-able
func (s *Stock) Reserved() int64 {
	return s.Quantity - s.AvailableQuantity
}

// Apply computes the post-state of req against the row, checks the balance
// invariant and, only if it holds, mutates the row and returns the log entry.
// The row is untouched on error.
func (s *Stock) Apply(req MovementRequest) (*Movement, error) {
	if !req.Type.IsValid() {
		return nil, fmt.Errorf("unknown movement type %q", req.Type)
	}
	if req.RequireAvailable > 0 && s.AvailableQuantity < req.RequireAvailable {
		return nil, &InsufficientStockError{Key: s.Key(), Requested: req.RequireAvailable, Available: s.AvailableQuantity}
	}

	newQty := s.Quantity + req.DeltaQuantity
	newAvail := s.AvailableQuantity + req.DeltaAvailable
	if req.SetQuantity != nil {
		newQty = *req.SetQuantity
	}
	if req.SetAvailable != nil {
		newAvail = *req.SetAvailable
	}

	if newQty < 0 || newAvail < 0 || newAvail > newQty {
		return nil, fmt.Errorf("%w: %s quantity %d->%d available %d->%d",
			ErrInsufficientBalance, s.Key(), s.Quantity, newQty, s.AvailableQuantity, newAvail)
	}

	now := time.Now().UTC()
	m := &Movement{
		MovementID:      uuid.New().String(),
		WarehouseID:     s.WarehouseID,
		ProductID:       s.ProductID,
		VariantID:       s.VariantID,
		MovementType:    req.Type,
		Quantity:        abs(newQty - s.Quantity),
		QuantityBefore:  s.Quantity,
		QuantityAfter:   newQty,
		AvailableBefore: s.AvailableQuantity,
		AvailableAfter:  newAvail,
		StockVersion:    s.Version,
		BatchID:         req.BatchID,
		QCID:            req.QCID,
		ReferenceType:   req.ReferenceType,
		ReferenceID:     req.ReferenceID,
		Actor:           req.Actor,
		Reason:          req.Reason,
		CreatedAt:       now,
	}

	s.Quantity = newQty
	s.AvailableQuantity = newAvail
	if req.BatchID != "" {
		s.LastBatchID = req.BatchID
	}
	if req.QCID != "" {
		s.LastQCID = req.QCID
	}
	s.UpdatedAt = now

	return m, nil
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
