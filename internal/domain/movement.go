package domain

import (
	"sort"
	"time"
)

// MovementType classifies an entry of the movement log
type MovementType string

const (
	MovementQCPass      MovementType = "qc_pass"
	MovementQCFail      MovementType = "qc_fail"
	MovementOutbound    MovementType = "outbound"
	MovementAdjust      MovementType = "adjust"
	MovementReturn      MovementType = "return"
	MovementTransferIn  MovementType = "transfer_in"
	MovementTransferOut MovementType = "transfer_out"
)

// IsValid checks if the movement type is known
func (t MovementType) IsValid() bool {
	switch t {
	case MovementQCPass, MovementQCFail, MovementOutbound, MovementAdjust,
		MovementReturn, MovementTransferIn, MovementTransferOut:
		return true
	default:
		return false
	}
}

// Reference document types carried on movements
const (
	ReferenceBatch     = "batch"
	ReferenceQC        = "quality_check"
	ReferenceTransfer  = "transfer"
	ReferenceStocktake = "stocktake"
	ReferenceOrder     = "order"
	ReferenceReturn    = "return"
	ReferenceManual    = "manual"
)

// Movement is one append-only entry of the movement log. Rows are never
// updated or deleted; replaying them in StockVersion order from (0,0)
// reproduces the balance row.
type Movement struct {
	MovementID      string       `bson:"movementId" json:"movementId"`
	WarehouseID     string       `bson:"warehouseId" json:"warehouseId"`
	ProductID       string       `bson:"productId" json:"productId"`
	VariantID       string       `bson:"variantId" json:"variantId"`
	MovementType    MovementType `bson:"movementType" json:"movementType"`
	Quantity        int64        `bson:"quantity" json:"quantity"`
	QuantityBefore  int64        `bson:"quantityBefore" json:"quantityBefore"`
	QuantityAfter   int64        `bson:"quantityAfter" json:"quantityAfter"`
	AvailableBefore int64        `bson:"availableBefore" json:"availableBefore"`
	AvailableAfter  int64        `bson:"availableAfter" json:"availableAfter"`
	StockVersion    int64        `bson:"stockVersion" json:"stockVersion"`
	BatchID         string       `bson:"batchId,omitempty" json:"batchId,omitempty"`
	QCID            string       `bson:"qcId,omitempty" json:"qcId,omitempty"`
	ReferenceType   string       `bson:"referenceType,omitempty" json:"referenceType,omitempty"`
	ReferenceID     string       `bson:"referenceId,omitempty" json:"referenceId,omitempty"`
	Actor           string       `bson:"actor,omitempty" json:"actor,omitempty"`
	Reason          string       `bson:"reason,omitempty" json:"reason,omitempty"`
	CreatedAt       time.Time    `bson:"createdAt" json:"createdAt"`
}

// Key returns the balance key the movement was posted against
func (m *Movement) Key() StockKey {
	return StockKey{WarehouseID: m.WarehouseID, ProductID: m.ProductID, VariantID: m.VariantID}
}

// MovementRequest describes a change to one balance row. Deltas apply to the
// locked row; SetQuantity/SetAvailable, when present, replace the deltas with
// absolute targets. A positive RequireAvailable refuses the movement with
// *InsufficientStockError when the locked row has fewer available units.
type MovementRequest struct {
	Type             MovementType
	DeltaQuantity    int64
	DeltaAvailable   int64
	SetQuantity      *int64
	SetAvailable     *int64
	RequireAvailable int64
	BatchID          string
	QCID             string
	ReferenceType    string
	ReferenceID      string
	Actor            string
	Reason           string
}

// ReplayResult is the balance rebuilt from the movement log
type ReplayResult struct {
	Quantity  int64
	Available int64
	Entries   int
	// Breaks lists entries whose before-values disagree with the running balance
	Breaks []*Movement
}

// Replay folds movements of a single balance row from (0,0)
func Replay(movements []*Movement) ReplayResult {
	ordered := make([]*Movement, len(movements))
	copy(ordered, movements)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StockVersion < ordered[j].StockVersion
	})

	var r ReplayResult
	for _, m := range ordered {
		if m.QuantityBefore != r.Quantity || m.AvailableBefore != r.Available {
			r.Breaks = append(r.Breaks, m)
		}
		r.Quantity = m.QuantityAfter
		r.Available = m.AvailableAfter
		r.Entries++
	}
	return r
}

// Matches reports whether the replayed balance equals the row and the chain is unbroken
func (r ReplayResult) Matches(s *Stock) bool {
	return len(r.Breaks) == 0 && r.Quantity == s.Quantity && r.Available == s.AvailableQuantity
}
