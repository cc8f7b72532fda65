package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/wms-platform/stock-ledger-service/internal/domain"
	"github.com/wms-platform/stock-ledger-service/pkg/errors"
	"github.com/wms-platform/stock-ledger-service/pkg/logging"
	"github.com/wms-platform/stock-ledger-service/pkg/metrics"
)

// StockService exposes the single-row mutators and the balance read models
type StockService struct {
	errorMapper
	ledger     *LedgerStore
	stocks     domain.StockRepository
	movements  domain.MovementRepository
	thresholds ThresholdProvider
	logger     *logging.Logger
}

// NewStockService creates a new StockService
func NewStockService(
	ledger *LedgerStore,
	stocks domain.StockRepository,
	movements domain.MovementRepository,
	thresholds ThresholdProvider,
	m *metrics.Metrics,
	logger *logging.Logger,
) *StockService {
	return &StockService{
		errorMapper: errorMapper{logger: logger, metrics: m},
		ledger:      ledger,
		stocks:      stocks,
		movements:   movements,
		thresholds:  thresholds,
		logger:      logger,
	}
}

// Outbound consumes available stock. The availability check runs against the
// locked row, so two racing requests can never both take the last units.
func (s *StockService) Outbound(ctx context.Context, cmd OutboundCommand) (*MovementResultDTO, error) {
	if strings.TrimSpace(cmd.ProductID) == "" {
		return nil, s.mapError(ctx, "outbound", domain.ErrProductRequired)
	}
	if cmd.Quantity <= 0 {
		return nil, s.mapError(ctx, "outbound", domain.ErrNonPositiveQuantity)
	}

	referenceType := cmd.ReferenceType
	if referenceType == "" {
		referenceType = domain.ReferenceOrder
	}

	stock, movement, err := s.ledger.ApplyMovement(ctx, cmd.key(), domain.MovementRequest{
		Type:             domain.MovementOutbound,
		DeltaQuantity:    -cmd.Quantity,
		DeltaAvailable:   -cmd.Quantity,
		RequireAvailable: cmd.Quantity,
		ReferenceType:    referenceType,
		ReferenceID:      cmd.ReferenceID,
		Actor:            cmd.Actor,
	})
	if err != nil {
		return nil, s.mapError(ctx, "outbound", err)
	}

	s.logMovement(ctx, movement)
	return &MovementResultDTO{Stock: ToStockDTO(stock), Movement: ToMovementDTO(movement)}, nil
}

// Adjust sets absolute balances on an existing row
func (s *StockService) Adjust(ctx context.Context, cmd AdjustCommand) (*MovementResultDTO, error) {
	stock, movement, err := s.adjust(ctx, cmd)
	if err != nil {
		return nil, s.mapError(ctx, "adjust", err)
	}

	s.logger.Audit(ctx, "adjust", "stock", stock.StockID, cmd.Actor, map[string]any{
		"quantityBefore":  movement.QuantityBefore,
		"quantityAfter":   movement.QuantityAfter,
		"availableBefore": movement.AvailableBefore,
		"availableAfter":  movement.AvailableAfter,
		"reason":          cmd.Reason,
	})
	s.logMovement(ctx, movement)
	return &MovementResultDTO{Stock: ToStockDTO(stock), Movement: ToMovementDTO(movement)}, nil
}

// adjust validates before touching any state and returns raw errors so it
// can run inside a caller's transaction
func (s *StockService) adjust(ctx context.Context, cmd AdjustCommand) (*domain.Stock, *domain.Movement, error) {
	if strings.TrimSpace(cmd.Reason) == "" {
		return nil, nil, domain.ErrReasonRequired
	}
	if strings.TrimSpace(cmd.ProductID) == "" {
		return nil, nil, domain.ErrProductRequired
	}
	if cmd.NewQuantity < 0 || cmd.NewAvailable < 0 {
		return nil, nil, domain.ErrNegativeQuantity
	}
	if cmd.NewAvailable > cmd.NewQuantity {
		return nil, nil, domain.ErrAvailableExceedsQty
	}

	if cmd.CreateIfMissing {
		if _, err := s.ledger.GetOrCreateBalance(ctx, cmd.key()); err != nil {
			return nil, nil, err
		}
	}

	referenceType := cmd.ReferenceType
	if referenceType == "" {
		referenceType = domain.ReferenceManual
	}

	newQuantity, newAvailable := cmd.NewQuantity, cmd.NewAvailable
	return s.ledger.ApplyMovement(ctx, cmd.key(), domain.MovementRequest{
		Type:          domain.MovementAdjust,
		SetQuantity:   &newQuantity,
		SetAvailable:  &newAvailable,
		ReferenceType: referenceType,
		ReferenceID:   cmd.ReferenceID,
		Actor:         cmd.Actor,
		Reason:        cmd.Reason,
	})
}

// Restock credits returned goods to an existing row
func (s *StockService) Restock(ctx context.Context, cmd RestockCommand) (*MovementResultDTO, error) {
	if strings.TrimSpace(cmd.ProductID) == "" {
		return nil, s.mapError(ctx, "restock", domain.ErrProductRequired)
	}
	if cmd.Quantity <= 0 {
		return nil, s.mapError(ctx, "restock", domain.ErrNonPositiveQuantity)
	}

	stock, movement, err := s.ledger.ApplyMovement(ctx, cmd.key(), domain.MovementRequest{
		Type:           domain.MovementReturn,
		DeltaQuantity:  cmd.Quantity,
		DeltaAvailable: cmd.Quantity,
		ReferenceType:  domain.ReferenceReturn,
		ReferenceID:    cmd.ReferenceID,
		Actor:          cmd.Actor,
		Reason:         cmd.Reason,
	})
	if err != nil {
		return nil, s.mapError(ctx, "restock", err)
	}

	s.logMovement(ctx, movement)
	return &MovementResultDTO{Stock: ToStockDTO(stock), Movement: ToMovementDTO(movement)}, nil
}

// CheckAvailability sums available units over the matching rows
func (s *StockService) CheckAvailability(ctx context.Context, q AvailabilityQuery) (*AvailabilityDTO, error) {
	if strings.TrimSpace(q.ProductID) == "" {
		return nil, s.mapError(ctx, "check availability", domain.ErrProductRequired)
	}
	if q.Quantity < 0 {
		return nil, s.mapError(ctx, "check availability", domain.ErrNegativeQuantity)
	}

	rows, err := s.stocks.Find(ctx, domain.StockFilter{
		WarehouseID: q.WarehouseID,
		ProductID:   q.ProductID,
		VariantID:   q.VariantID,
	})
	if err != nil {
		return nil, s.mapError(ctx, "check availability", err)
	}

	var available int64
	for _, row := range rows {
		available += row.AvailableQuantity
	}
	return &AvailabilityDTO{Sufficient: available >= q.Quantity, Available: available, Requested: q.Quantity}, nil
}

// LowStock lists rows at or below their minimum threshold. Rows without a
// threshold are never reported.
func (s *StockService) LowStock(ctx context.Context, warehouseID string) ([]*LowStockDTO, error) {
	out := make([]*LowStockDTO, 0)
	if s.thresholds == nil {
		return out, nil
	}

	rows, err := s.stocks.Find(ctx, domain.StockFilter{WarehouseID: warehouseID})
	if err != nil {
		return nil, s.mapError(ctx, "low stock", err)
	}

	for _, row := range rows {
		threshold, ok := s.thresholds.MinThreshold(row.Key())
		if !ok || row.AvailableQuantity > threshold {
			continue
		}
		out = append(out, &LowStockDTO{
			WarehouseID:  row.WarehouseID,
			ProductID:    row.ProductID,
			VariantID:    row.VariantID,
			Available:    row.AvailableQuantity,
			MinThreshold: threshold,
		})
	}
	return out, nil
}

// GetStock returns one balance row
func (s *StockService) GetStock(ctx context.Context, key domain.StockKey) (*StockDTO, error) {
	stock, err := s.stocks.FindByKey(ctx, key)
	if err != nil {
		return nil, s.mapError(ctx, "get stock", err)
	}
	if stock == nil {
		return nil, errors.ErrNotFoundWithID("stock", key.String())
	}
	return ToStockDTO(stock), nil
}

// ListStock returns balance rows matching filter
func (s *StockService) ListStock(ctx context.Context, filter domain.StockFilter) ([]*StockDTO, error) {
	rows, err := s.stocks.Find(ctx, filter)
	if err != nil {
		return nil, s.mapError(ctx, "list stock", err)
	}
	return ToStockDTOs(rows), nil
}

// ListMovements returns movement log entries matching filter, newest first
func (s *StockService) ListMovements(ctx context.Context, filter domain.MovementFilter) ([]*MovementDTO, error) {
	movements, err := s.movements.Find(ctx, filter)
	if err != nil {
		return nil, s.mapError(ctx, "list movements", err)
	}
	return ToMovementDTOs(movements), nil
}

// AuditLedger replays the movement log of every matching row and reports
// rows whose replayed balance differs from the stored one
func (s *StockService) AuditLedger(ctx context.Context, filter domain.StockFilter) ([]*LedgerDriftDTO, error) {
	rows, err := s.stocks.Find(ctx, filter)
	if err != nil {
		return nil, s.mapError(ctx, "audit ledger", err)
	}

	drift := make([]*LedgerDriftDTO, 0)
	for _, row := range rows {
		movements, err := s.movements.FindByKey(ctx, row.Key())
		if err != nil {
			return nil, s.mapError(ctx, "audit ledger", fmt.Errorf("failed to load movements of %s: %w", row.Key(), err))
		}

		replayed := domain.Replay(movements)
		if replayed.Matches(row) {
			continue
		}

		s.logger.WithContext(ctx).Error("Ledger drift detected",
			"stock", row.Key().String(),
			"quantity", row.Quantity,
			"available", row.AvailableQuantity,
			"replayedQuantity", replayed.Quantity,
			"replayedAvailable", replayed.Available,
			"breaks", len(replayed.Breaks),
		)
		drift = append(drift, &LedgerDriftDTO{
			WarehouseID:       row.WarehouseID,
			ProductID:         row.ProductID,
			VariantID:         row.VariantID,
			Quantity:          row.Quantity,
			Available:         row.AvailableQuantity,
			ReplayedQuantity:  replayed.Quantity,
			ReplayedAvailable: replayed.Available,
			Entries:           replayed.Entries,
			Breaks:            len(replayed.Breaks),
		})
	}
	return drift, nil
}

func (s *StockService) logMovement(ctx context.Context, m *domain.Movement) {
	s.logger.LogMovement(ctx, logging.MovementEntry{
		Stock:           m.Key().String(),
		MovementID:      m.MovementID,
		MovementType:    string(m.MovementType),
		Quantity:        m.Quantity,
		QuantityBefore:  m.QuantityBefore,
		QuantityAfter:   m.QuantityAfter,
		AvailableBefore: m.AvailableBefore,
		AvailableAfter:  m.AvailableAfter,
		StockVersion:    m.StockVersion,
		ReferenceType:   m.ReferenceType,
		ReferenceID:     m.ReferenceID,
	})
}
