package domain

import (
	"time"

	"github.com/google/uuid"
)

// StocktakeStatus represents the status of a stocktake
type StocktakeStatus string

const (
	StocktakeStatusDraft           StocktakeStatus = "draft"
	StocktakeStatusInProgress      StocktakeStatus = "in_progress"
	StocktakeStatusPendingApproval StocktakeStatus = "pending_approval"
	StocktakeStatusApproved        StocktakeStatus = "approved"
	StocktakeStatusCancelled       StocktakeStatus = "cancelled"
)

// AllWarehousesScope is the lock scope of a stocktake spanning every warehouse
const AllWarehousesScope = "*"

// CanTransitionTo checks if the status can transition to another status
func (s StocktakeStatus) CanTransitionTo(target StocktakeStatus) bool {
	validTransitions := map[StocktakeStatus][]StocktakeStatus{
		StocktakeStatusDraft:           {StocktakeStatusInProgress, StocktakeStatusCancelled},
		StocktakeStatusInProgress:      {StocktakeStatusPendingApproval, StocktakeStatusCancelled},
		StocktakeStatusPendingApproval: {StocktakeStatusApproved, StocktakeStatusCancelled},
		StocktakeStatusApproved:        {},
		StocktakeStatusCancelled:       {},
	}

	for _, allowed := range validTransitions[s] {
		if target == allowed {
			return true
		}
	}
	return false
}

// StocktakeItem is one counted balance row
type StocktakeItem struct {
	WarehouseID    string `bson:"warehouseId" json:"warehouseId"`
	ProductID      string `bson:"productId" json:"productId"`
	VariantID      string `bson:"variantId" json:"variantId"`
	BatchID        string `bson:"batchId,omitempty" json:"batchId,omitempty"`
	SystemQuantity int64  `bson:"systemQuantity" json:"systemQuantity"`
	ActualQuantity *int64 `bson:"actualQuantity" json:"actualQuantity"`
	Difference     int64  `bson:"difference" json:"difference"`
	Reason         string `bson:"reason,omitempty" json:"reason,omitempty"`
}

// Key returns the balance key of the item
func (i *StocktakeItem) Key() StockKey {
	return StockKey{WarehouseID: i.WarehouseID, ProductID: i.ProductID, VariantID: i.VariantID}
}

// IsCounted reports whether an actual quantity was entered
func (i *StocktakeItem) IsCounted() bool {
	return i.ActualQuantity != nil
}

// StocktakeCount is a counter's entry for one balance row
type StocktakeCount struct {
	WarehouseID    string
	ProductID      string
	VariantID      string
	BatchID        string
	ActualQuantity int64
	Reason         string
}

// Stocktake reconciles counted stock with the ledger
type Stocktake struct {
	StocktakeID   string          `bson:"stocktakeId" json:"stocktakeId"`
	StocktakeCode string          `bson:"stocktakeCode" json:"stocktakeCode"`
	WarehouseID   string          `bson:"warehouseId,omitempty" json:"warehouseId,omitempty"`
	Status        StocktakeStatus `bson:"status" json:"status"`
	IsLocked      bool            `bson:"isLocked" json:"isLocked"`
	LockScope     string          `bson:"lockScope,omitempty" json:"-"`
	Items         []StocktakeItem `bson:"items" json:"items"`
	CreatedBy     string          `bson:"createdBy" json:"createdBy"`
	StartedAt     *time.Time      `bson:"startedAt,omitempty" json:"startedAt,omitempty"`
	CompletedAt   *time.Time      `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	ApprovedAt    *time.Time      `bson:"approvedAt,omitempty" json:"approvedAt,omitempty"`
	ApprovedBy    string          `bson:"approvedBy,omitempty" json:"approvedBy,omitempty"`
	CancelReason  string          `bson:"cancelReason,omitempty" json:"cancelReason,omitempty"`
	CreatedAt     time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time       `bson:"updatedAt" json:"updatedAt"`
	DomainEvents  []DomainEvent   `bson:"-" json:"-"`
}

// NewStocktake snapshots the given balance rows. An empty warehouseID covers every warehouse.
func NewStocktake(warehouseID, createdBy string, snapshot []*Stock) *Stocktake {
	items := make([]StocktakeItem, 0, len(snapshot))
	for _, s := range snapshot {
		items = append(items, StocktakeItem{
			WarehouseID:    s.WarehouseID,
			ProductID:      s.ProductID,
			VariantID:      s.VariantID,
			BatchID:        s.LastBatchID,
			SystemQuantity: s.Quantity,
		})
	}

	now := time.Now().UTC()
	return &Stocktake{
		StocktakeID:   uuid.New().String(),
		StocktakeCode: NewDocumentCode(StocktakeCodePrefix, now),
		WarehouseID:   warehouseID,
		Status:        StocktakeStatusDraft,
		Items:         items,
		CreatedBy:     createdBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Scope returns the lock scope: the warehouse ID or AllWarehousesScope
func (s *Stocktake) Scope() string {
	if s.WarehouseID == "" {
		return AllWarehousesScope
	}
	return s.WarehouseID
}

// Overlaps reports whether two stocktake scopes cover a common warehouse
func (s *Stocktake) Overlaps(other *Stocktake) bool {
	return s.Scope() == AllWarehousesScope || other.Scope() == AllWarehousesScope || s.Scope() == other.Scope()
}

// Covers reports whether the stocktake may book adjustments into warehouseID
func (s *Stocktake) Covers(warehouseID string) bool {
	if s.Scope() == warehouseID {
		return true
	}
	for i := range s.Items {
		if s.Items[i].WarehouseID == warehouseID {
			return true
		}
	}
	return false
}

// Start begins counting and takes the scope lock
func (s *Stocktake) Start() error {
	if s.Status != StocktakeStatusDraft {
		return s.transitionError(StocktakeStatusInProgress)
	}
	now := time.Now().UTC()
	s.Status = StocktakeStatusInProgress
	s.IsLocked = true
	s.LockScope = s.Scope()
	s.StartedAt = &now
	s.UpdatedAt = now
	return nil
}

// UpdateItems records counted quantities. Rows missing from the snapshot are
// added as found stock with a system quantity of zero.
func (s *Stocktake) UpdateItems(counts []StocktakeCount) error {
	if s.Status != StocktakeStatusInProgress {
		return s.transitionError(StocktakeStatusInProgress)
	}

	for _, c := range counts {
		if c.ActualQuantity < 0 {
			return ErrNegativeQuantity
		}
		if c.ProductID == "" {
			return ErrProductRequired
		}
		warehouseID := c.WarehouseID
		if warehouseID == "" {
			warehouseID = s.WarehouseID
		}
		if warehouseID == "" || (s.WarehouseID != "" && warehouseID != s.WarehouseID) {
			return ErrUnknownItem
		}

		key := StockKey{WarehouseID: warehouseID, ProductID: c.ProductID, VariantID: c.VariantID}
		item := s.findItem(key)
		if item == nil {
			s.Items = append(s.Items, StocktakeItem{
				WarehouseID: key.WarehouseID,
				ProductID:   key.ProductID,
				VariantID:   key.VariantID,
				BatchID:     c.BatchID,
			})
			item = &s.Items[len(s.Items)-1]
		}

		actual := c.ActualQuantity
		item.ActualQuantity = &actual
		item.Difference = actual - item.SystemQuantity
		if c.Reason != "" {
			item.Reason = c.Reason
		}
	}

	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Complete closes counting; every item must carry an actual quantity
func (s *Stocktake) Complete() error {
	if s.Status != StocktakeStatusInProgress {
		return s.transitionError(StocktakeStatusPendingApproval)
	}

	var uncounted []StockKey
	for i := range s.Items {
		if !s.Items[i].IsCounted() {
			uncounted = append(uncounted, s.Items[i].Key())
		}
	}
	if len(uncounted) > 0 {
		return &UncountedItemsError{Items: uncounted}
	}

	now := time.Now().UTC()
	s.Status = StocktakeStatusPendingApproval
	s.CompletedAt = &now
	s.UpdatedAt = now
	return nil
}

// Variances returns the items whose count differs from the snapshot
func (s *Stocktake) Variances() []StocktakeItem {
	var out []StocktakeItem
	for _, item := range s.Items {
		if item.IsCounted() && item.Difference != 0 {
			out = append(out, item)
		}
	}
	return out
}

// Approve marks the variances as booked and releases the lock
func (s *Stocktake) Approve(approver string) error {
	if s.Status != StocktakeStatusPendingApproval {
		return s.transitionError(StocktakeStatusApproved)
	}

	now := time.Now().UTC()
	var net int64
	variances := s.Variances()
	for _, v := range variances {
		net += v.Difference
	}

	s.Status = StocktakeStatusApproved
	s.ApprovedAt = &now
	s.ApprovedBy = approver
	s.unlock(now)

	s.AddDomainEvent(&StocktakeApprovedEvent{
		StocktakeID:   s.StocktakeID,
		StocktakeCode: s.StocktakeCode,
		WarehouseID:   s.WarehouseID,
		Adjustments:   len(variances),
		NetDifference: net,
		ApprovedBy:    approver,
		ApprovedAt:    now,
	})
	return nil
}

// Cancel abandons the stocktake and releases the lock
func (s *Stocktake) Cancel(reason string) error {
	if !s.Status.CanTransitionTo(StocktakeStatusCancelled) {
		return s.transitionError(StocktakeStatusCancelled)
	}
	now := time.Now().UTC()
	s.Status = StocktakeStatusCancelled
	s.CancelReason = reason
	s.unlock(now)
	return nil
}

func (s *Stocktake) unlock(now time.Time) {
	s.IsLocked = false
	s.LockScope = ""
	s.UpdatedAt = now
}

func (s *Stocktake) findItem(key StockKey) *StocktakeItem {
	for i := range s.Items {
		if s.Items[i].Key() == key {
			return &s.Items[i]
		}
	}
	return nil
}

func (s *Stocktake) transitionError(to StocktakeStatus) error {
	return &TransitionError{Entity: "stocktake " + s.StocktakeCode, From: string(s.Status), To: string(to)}
}

// AddDomainEvent adds a domain event
func (s *Stocktake) AddDomainEvent(event DomainEvent) {
	s.DomainEvents = append(s.DomainEvents, event)
}

// GetDomainEvents returns all domain events
func (s *Stocktake) GetDomainEvents() []DomainEvent {
	return s.DomainEvents
}

// ClearDomainEvents clears all domain events
func (s *Stocktake) ClearDomainEvents() {
	s.DomainEvents = make([]DomainEvent, 0)
}
