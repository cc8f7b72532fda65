package application

import (
	"context"

	"github.com/wms-platform/stock-ledger-service/internal/domain"
	"github.com/wms-platform/stock-ledger-service/pkg/outbox"
)

// Transactor runs fn as one atomic unit. Calls made with a ctx that already
// carries a transaction join it.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ThresholdProvider returns the externally owned minimum available quantity for a row
type ThresholdProvider interface {
	MinThreshold(key domain.StockKey) (int64, bool)
}

// OutboxWriter stores events for later relay, inside the caller's transaction
type OutboxWriter interface {
	SaveAll(ctx context.Context, events []*outbox.OutboxEvent) error
}

// StockLedger is the only writer of balance rows and movement log entries
type StockLedger interface {
	GetOrCreateBalance(ctx context.Context, key domain.StockKey) (*domain.Stock, error)
	ApplyMovement(ctx context.Context, key domain.StockKey, req domain.MovementRequest) (*domain.Stock, *domain.Movement, error)
	FindBalance(ctx context.Context, key domain.StockKey) (*domain.Stock, error)
}
