package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Warehouse is a physical site owning stock balances
type Warehouse struct {
	WarehouseID string    `bson:"warehouseId" json:"warehouseId"`
	Code        string    `bson:"code" json:"code"`
	Name        string    `bson:"name" json:"name"`
	Active      bool      `bson:"active" json:"active"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// NewWarehouse creates an active warehouse
func NewWarehouse(code, name string) (*Warehouse, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || strings.TrimSpace(name) == "" {
		return nil, ErrWarehouseIdentity
	}

	now := time.Now().UTC()
	return &Warehouse{
		WarehouseID: uuid.New().String(),
		Code:        code,
		Name:        strings.TrimSpace(name),
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Deactivate stops the warehouse from accepting new documents
func (w *Warehouse) Deactivate() {
	w.Active = false
	w.UpdatedAt = time.Now().UTC()
}

// Activate re-opens the warehouse
func (w *Warehouse) Activate() {
	w.Active = true
	w.UpdatedAt = time.Now().UTC()
}
