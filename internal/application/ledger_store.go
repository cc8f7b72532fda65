package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wms-platform/stock-ledger-service/internal/domain"
	"github.com/wms-platform/stock-ledger-service/pkg/logging"
	"github.com/wms-platform/stock-ledger-service/pkg/metrics"
	"github.com/wms-platform/stock-ledger-service/pkg/tracing"
)

// LedgerStore owns every balance row and movement log entry. Each movement
// locks its row, re-checks the balance invariant, and commits the row, the
// log entry and the outbox events together.
type LedgerStore struct {
	tx         Transactor
	stocks     domain.StockRepository
	movements  domain.MovementRepository
	warehouses domain.WarehouseRepository
	events     *EventRecorder
	thresholds ThresholdProvider
	metrics    *metrics.Metrics
	logger     *logging.Logger
}

var _ StockLedger = (*LedgerStore)(nil)

// NewLedgerStore creates a LedgerStore
func NewLedgerStore(
	tx Transactor,
	stocks domain.StockRepository,
	movements domain.MovementRepository,
	warehouses domain.WarehouseRepository,
	events *EventRecorder,
	thresholds ThresholdProvider,
	m *metrics.Metrics,
	logger *logging.Logger,
) *LedgerStore {
	return &LedgerStore{
		tx:         tx,
		stocks:     stocks,
		movements:  movements,
		warehouses: warehouses,
		events:     events,
		thresholds: thresholds,
		metrics:    m,
		logger:     logger.WithComponent("ledger-store"),
	}
}

// GetOrCreateBalance returns the row for key, creating it with zero balances.
// Rows are only created under a registered warehouse; otherwise the result is
// ErrWarehouseNotFound.
func (l *LedgerStore) GetOrCreateBalance(ctx context.Context, key domain.StockKey) (*domain.Stock, error) {
	warehouse, err := l.warehouses.FindByID(ctx, key.WarehouseID)
	if err != nil {
		return nil, fmt.Errorf("failed to find warehouse %s: %w", key.WarehouseID, err)
	}
	if warehouse == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrWarehouseNotFound, key.WarehouseID)
	}

	stock, err := l.stocks.Ensure(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure stock %s: %w", key, err)
	}
	return stock, nil
}

// FindBalance returns the row for key or ErrStockNotFound
func (l *LedgerStore) FindBalance(ctx context.Context, key domain.StockKey) (*domain.Stock, error) {
	stock, err := l.stocks.FindByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to find stock %s: %w", key, err)
	}
	if stock == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrStockNotFound, key)
	}
	return stock, nil
}

// ApplyMovement changes one existing row as a single atomic unit
func (l *LedgerStore) ApplyMovement(ctx context.Context, key domain.StockKey, req domain.MovementRequest) (_ *domain.Stock, _ *domain.Movement, err error) {
	ctx, span := tracing.StartSpan(ctx, "ledger.ApplyMovement",
		append(tracing.StockAttributes(key.WarehouseID, key.ProductID, key.VariantID),
			tracing.AttrMovementType.String(string(req.Type)),
			tracing.AttrDocumentID.String(req.ReferenceID),
		)...,
	)
	defer func() { tracing.End(span, err) }()

	var stock *domain.Stock
	var movement *domain.Movement

	err = l.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		locked, err := l.stocks.Lock(ctx, key)
		if err != nil {
			return err
		}

		availableBefore := locked.AvailableQuantity
		m, err := locked.Apply(req)
		if err != nil {
			if errors.Is(err, domain.ErrInsufficientBalance) {
				l.logger.WithContext(ctx).Error("Movement refused by balance invariant",
					"stock", key.String(),
					"movementType", string(req.Type),
					"quantity", locked.Quantity,
					"available", locked.AvailableQuantity,
					"error", err,
				)
			}
			return err
		}

		if err := l.stocks.Update(ctx, locked); err != nil {
			return fmt.Errorf("failed to update stock %s: %w", key, err)
		}
		if err := l.movements.Insert(ctx, m); err != nil {
			return fmt.Errorf("failed to insert movement: %w", err)
		}

		events := []domain.DomainEvent{domain.NewStockMovedEvent(m)}
		if low := l.crossedThreshold(locked, availableBefore); low != nil {
			events = append(events, low)
		}
		if err := l.events.Record(ctx, aggregateStock, locked.StockID, locked.WarehouseID, events...); err != nil {
			return err
		}

		stock, movement = locked, m
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	l.metrics.RecordMovement(string(movement.MovementType), movement.Quantity)
	return stock, movement, nil
}

// PostAudit records a movement that does not change any balance, such as a
// rejected QC line. Without an existing row the entry is written against an
// empty balance and no row is created.
func (l *LedgerStore) PostAudit(ctx context.Context, key domain.StockKey, req domain.MovementRequest) (*domain.Movement, error) {
	req.DeltaQuantity, req.DeltaAvailable = 0, 0
	req.SetQuantity, req.SetAvailable = nil, nil

	existing, err := l.stocks.FindByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to find stock %s: %w", key, err)
	}
	if existing != nil {
		_, m, err := l.ApplyMovement(ctx, key, req)
		return m, err
	}

	m, err := domain.NewStock(key).Apply(req)
	if err != nil {
		return nil, err
	}
	if err := l.movements.Insert(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to insert movement: %w", err)
	}
	l.metrics.RecordMovement(string(m.MovementType), 0)
	return m, nil
}

func (l *LedgerStore) crossedThreshold(stock *domain.Stock, availableBefore int64) *domain.LowStockEvent {
	if l.thresholds == nil {
		return nil
	}
	threshold, ok := l.thresholds.MinThreshold(stock.Key())
	if !ok {
		return nil
	}
	if availableBefore <= threshold || stock.AvailableQuantity > threshold {
		return nil
	}

	l.metrics.RecordLowStockAlert()
	return &domain.LowStockEvent{
		WarehouseID:  stock.WarehouseID,
		ProductID:    stock.ProductID,
		VariantID:    stock.VariantID,
		Available:    stock.AvailableQuantity,
		MinThreshold: threshold,
		DetectedAt:   time.Now().UTC(),
	}
}
