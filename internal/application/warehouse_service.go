package application

import (
	"context"
	"fmt"

	"github.com/wms-platform/stock-ledger-service/internal/domain"
	"github.com/wms-platform/stock-ledger-service/pkg/errors"
	"github.com/wms-platform/stock-ledger-service/pkg/logging"
	"github.com/wms-platform/stock-ledger-service/pkg/metrics"
)

// WarehouseService manages the warehouse registry
type WarehouseService struct {
	errorMapper
	tx         Transactor
	warehouses domain.WarehouseRepository
	stocks     domain.StockRepository
	batches    domain.BatchRepository
	transfers  domain.TransferRepository
	stocktakes domain.StocktakeRepository
	logger     *logging.Logger
}

// Documents in these states may still post stock into their warehouse
var (
	openBatchStatuses = []domain.BatchStatus{
		domain.BatchStatusPending,
		domain.BatchStatusReceived,
		domain.BatchStatusQCInProgress,
	}
	openTransferStatuses = []domain.TransferStatus{
		domain.TransferStatusDraft,
		domain.TransferStatusPending,
		domain.TransferStatusInTransit,
	}
)

// NewWarehouseService creates a new WarehouseService
func NewWarehouseService(
	tx Transactor,
	warehouses domain.WarehouseRepository,
	stocks domain.StockRepository,
	batches domain.BatchRepository,
	transfers domain.TransferRepository,
	stocktakes domain.StocktakeRepository,
	m *metrics.Metrics,
	logger *logging.Logger,
) *WarehouseService {
	return &WarehouseService{
		errorMapper: errorMapper{logger: logger, metrics: m},
		tx:          tx,
		warehouses:  warehouses,
		stocks:      stocks,
		batches:     batches,
		transfers:   transfers,
		stocktakes:  stocktakes,
		logger:      logger,
	}
}

// Create registers a new active warehouse
func (s *WarehouseService) Create(ctx context.Context, cmd CreateWarehouseCommand) (*WarehouseDTO, error) {
	warehouse, err := domain.NewWarehouse(cmd.Code, cmd.Name)
	if err != nil {
		return nil, s.mapError(ctx, "create warehouse", err)
	}

	if err := s.warehouses.Save(ctx, warehouse); err != nil {
		return nil, s.mapError(ctx, "create warehouse", err)
	}

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "warehouse.created",
		EntityType: "warehouse",
		EntityID:   warehouse.WarehouseID,
		Action:     "created",
		RelatedIDs: map[string]string{"code": warehouse.Code},
	})
	return ToWarehouseDTO(warehouse), nil
}

// Get returns one warehouse
func (s *WarehouseService) Get(ctx context.Context, warehouseID string) (*WarehouseDTO, error) {
	warehouse, err := s.warehouses.FindByID(ctx, warehouseID)
	if err != nil {
		return nil, s.mapError(ctx, "get warehouse", err)
	}
	if warehouse == nil {
		return nil, errors.ErrNotFoundWithID("warehouse", warehouseID)
	}
	return ToWarehouseDTO(warehouse), nil
}

// List returns registered warehouses
func (s *WarehouseService) List(ctx context.Context, activeOnly bool) ([]*WarehouseDTO, error) {
	warehouses, err := s.warehouses.FindAll(ctx, activeOnly)
	if err != nil {
		return nil, s.mapError(ctx, "list warehouses", err)
	}

	out := make([]*WarehouseDTO, 0, len(warehouses))
	for _, w := range warehouses {
		out = append(out, ToWarehouseDTO(w))
	}
	return out, nil
}

// Deactivate stops a warehouse from accepting new batches and transfers.
// Existing balances stay untouched.
func (s *WarehouseService) Deactivate(ctx context.Context, warehouseID string) (*WarehouseDTO, error) {
	warehouse, err := s.warehouses.FindByID(ctx, warehouseID)
	if err != nil {
		return nil, s.mapError(ctx, "deactivate warehouse", err)
	}
	if warehouse == nil {
		return nil, errors.ErrNotFoundWithID("warehouse", warehouseID)
	}

	warehouse.Deactivate()
	if err := s.warehouses.Save(ctx, warehouse); err != nil {
		return nil, s.mapError(ctx, "deactivate warehouse", err)
	}

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "warehouse.deactivated",
		EntityType: "warehouse",
		EntityID:   warehouse.WarehouseID,
		Action:     "deactivated",
	})
	return ToWarehouseDTO(warehouse), nil
}

// Delete removes a warehouse that no balance row references and no open
// batch, transfer or locked stocktake could still post into
func (s *WarehouseService) Delete(ctx context.Context, warehouseID string) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		warehouse, err := s.warehouses.FindByID(ctx, warehouseID)
		if err != nil {
			return err
		}
		if warehouse == nil {
			return errors.ErrNotFoundWithID("warehouse", warehouseID)
		}

		rows, err := s.stocks.CountByWarehouse(ctx, warehouseID)
		if err != nil {
			return fmt.Errorf("failed to count stock rows: %w", err)
		}
		if rows > 0 {
			return fmt.Errorf("%w: %d stock rows reference %s", domain.ErrWarehouseInUse, rows, warehouse.Code)
		}

		open, err := s.openDocument(ctx, warehouseID)
		if err != nil {
			return err
		}
		if open != "" {
			return fmt.Errorf("%w: %s is still open for %s", domain.ErrWarehouseInUse, open, warehouse.Code)
		}
		return s.warehouses.Delete(ctx, warehouseID)
	})
	if err != nil {
		return s.mapError(ctx, "delete warehouse", err)
	}

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "warehouse.deleted",
		EntityType: "warehouse",
		EntityID:   warehouseID,
		Action:     "deleted",
	})
	return nil
}

// openDocument names the first document that can still create or credit a
// row in warehouseID, or returns ""
func (s *WarehouseService) openDocument(ctx context.Context, warehouseID string) (string, error) {
	for _, status := range openBatchStatuses {
		batches, err := s.batches.Find(ctx, domain.BatchFilter{WarehouseID: warehouseID, Status: status, Limit: 1})
		if err != nil {
			return "", fmt.Errorf("failed to find batches: %w", err)
		}
		if len(batches) > 0 {
			return "batch " + batches[0].BatchCode, nil
		}
	}

	for _, status := range openTransferStatuses {
		transfers, err := s.transfers.Find(ctx, domain.TransferFilter{WarehouseID: warehouseID, Status: status, Limit: 1})
		if err != nil {
			return "", fmt.Errorf("failed to find transfers: %w", err)
		}
		if len(transfers) > 0 {
			return "transfer " + transfers[0].TransferCode, nil
		}
	}

	locked, err := s.stocktakes.FindLocked(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find locked stocktakes: %w", err)
	}
	for _, st := range locked {
		if st.Covers(warehouseID) {
			return "stocktake " + st.StocktakeCode, nil
		}
	}
	return "", nil
}

// requireActiveWarehouse returns a not-found AppError or ErrWarehouseInactive
func requireActiveWarehouse(ctx context.Context, warehouses domain.WarehouseRepository, warehouseID string) (*domain.Warehouse, error) {
	warehouse, err := warehouses.FindByID(ctx, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("failed to find warehouse: %w", err)
	}
	if warehouse == nil {
		return nil, errors.ErrNotFoundWithID("warehouse", warehouseID)
	}
	if !warehouse.Active {
		return nil, fmt.Errorf("%w: %s", domain.ErrWarehouseInactive, warehouse.Code)
	}
	return warehouse, nil
}
