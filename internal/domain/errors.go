package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Ledger domain errors
var (
	// ErrInsufficientBalance is returned when a movement would leave a balance outside 0 <= available <= quantity
	ErrInsufficientBalance = errors.New("movement would violate balance invariant")

	// ErrInsufficientStock is returned when a caller asks for more than is available
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrStockNotFound is returned when a balance row is required to pre-exist
	ErrStockNotFound = errors.New("stock balance not found")

	ErrBatchLocked             = errors.New("batch is locked by a quality check")
	ErrDuplicateQC             = errors.New("batch already has an official quality check")
	ErrNoOfficialQC            = errors.New("batch has no official quality check")
	ErrUncountedItems          = errors.New("stocktake has uncounted items")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrWarehouseInUse          = errors.New("warehouse is still referenced")
	ErrWarehouseNotFound       = errors.New("warehouse is not registered")
	ErrWarehouseInactive       = errors.New("warehouse is inactive")
	ErrStocktakeInProgress     = errors.New("a stocktake already holds the lock for this scope")
	ErrWarehouseCodeTaken      = errors.New("warehouse code already exists")

	// Validation errors
	ErrNoItems             = errors.New("at least one item is required")
	ErrNonPositiveQuantity = errors.New("quantity must be positive")
	ErrNegativeQuantity    = errors.New("quantity cannot be negative")
	ErrReasonRequired      = errors.New("reason is required")
	ErrSameWarehouse       = errors.New("source and destination warehouse must differ")
	ErrOverReceipt         = errors.New("received quantity exceeds shipped quantity")
	ErrUnknownItem         = errors.New("item is not part of this document")
	ErrInvalidQCStatus     = errors.New("invalid quality check status")
	ErrInvalidScore        = errors.New("score must be between 0 and 100")
	ErrQCQuantityMismatch  = errors.New("passed and failed quantities do not match received quantity")
	ErrDuplicateItem       = errors.New("item is listed more than once")
	ErrProductRequired     = errors.New("product id is required")
	ErrWarehouseIdentity   = errors.New("warehouse code and name are required")
	ErrAvailableExceedsQty = errors.New("available quantity cannot exceed quantity")
)

// InsufficientStockError describes a refused request against one balance row
type InsufficientStockError struct {
	Key       StockKey
	Requested int64
	Available int64
}

// Shortfall is the number of units missing to satisfy the request
func (e *InsufficientStockError) Shortfall() int64 {
	return e.Requested - e.Available
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("requested %d, only %d available for %s", e.Requested, e.Available, e.Key)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// TransferShortageError lists every transfer item the source cannot cover
type TransferShortageError struct {
	Shortages []*InsufficientStockError
}

func (e *TransferShortageError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, s.Error())
	}
	return "transfer cannot ship: " + strings.Join(parts, "; ")
}

func (e *TransferShortageError) Unwrap() error {
	return ErrInsufficientStock
}

// UncountedItemsError lists stocktake items still missing an actual quantity
type UncountedItemsError struct {
	Items []StockKey
}

func (e *UncountedItemsError) Error() string {
	keys := make([]string, 0, len(e.Items))
	for _, k := range e.Items {
		keys = append(keys, k.String())
	}
	return fmt.Sprintf("%d items not counted: %s", len(e.Items), strings.Join(keys, ", "))
}

func (e *UncountedItemsError) Unwrap() error {
	return ErrUncountedItems
}

// TransitionError reports a refused state machine move
type TransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s cannot move from %s to %s", e.Entity, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidStatusTransition
}
