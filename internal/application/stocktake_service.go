package application

import (
	"context"
	"fmt"

	"github.com/wms-platform/stock-ledger-service/internal/domain"
	"github.com/wms-platform/stock-ledger-service/pkg/errors"
	"github.com/wms-platform/stock-ledger-service/pkg/logging"
	"github.com/wms-platform/stock-ledger-service/pkg/metrics"
)

// StocktakeService reconciles physical counts with the ledger
type StocktakeService struct {
	errorMapper
	tx         Transactor
	stocktakes domain.StocktakeRepository
	stocks     domain.StockRepository
	warehouses domain.WarehouseRepository
	adjuster   *StockService
	events     *EventRecorder
	logger     *logging.Logger
}

// NewStocktakeService creates a new StocktakeService
func NewStocktakeService(
	tx Transactor,
	stocktakes domain.StocktakeRepository,
	stocks domain.StockRepository,
	warehouses domain.WarehouseRepository,
	adjuster *StockService,
	events *EventRecorder,
	m *metrics.Metrics,
	logger *logging.Logger,
) *StocktakeService {
	return &StocktakeService{
		errorMapper: errorMapper{logger: logger, metrics: m},
		tx:          tx,
		stocktakes:  stocktakes,
		stocks:      stocks,
		warehouses:  warehouses,
		adjuster:    adjuster,
		events:      events,
		logger:      logger,
	}
}

// Create snapshots every balance row in scope. An empty warehouse ID covers
// all warehouses.
func (s *StocktakeService) Create(ctx context.Context, cmd CreateStocktakeCommand) (*StocktakeDTO, error) {
	if cmd.WarehouseID != "" {
		warehouse, err := s.warehouses.FindByID(ctx, cmd.WarehouseID)
		if err != nil {
			return nil, s.mapError(ctx, "create stocktake", err)
		}
		if warehouse == nil {
			return nil, errors.ErrNotFoundWithID("warehouse", cmd.WarehouseID)
		}
	}

	snapshot, err := s.stocks.Find(ctx, domain.StockFilter{WarehouseID: cmd.WarehouseID})
	if err != nil {
		return nil, s.mapError(ctx, "create stocktake", err)
	}

	stocktake := domain.NewStocktake(cmd.WarehouseID, cmd.CreatedBy, snapshot)
	if err := s.stocktakes.Save(ctx, stocktake); err != nil {
		return nil, s.mapError(ctx, "create stocktake", err)
	}

	s.logTransition(ctx, stocktake, "created", cmd.CreatedBy)
	return ToStocktakeDTO(stocktake), nil
}

// Start begins counting. Only one stocktake may hold the lock for a
// warehouse at a time; an all-warehouse stocktake overlaps every other.
func (s *StocktakeService) Start(ctx context.Context, stocktakeID string) (*StocktakeDTO, error) {
	stocktake, err := s.transition(ctx, "start stocktake", stocktakeID, func(ctx context.Context, st *domain.Stocktake) error {
		locked, err := s.stocktakes.FindLocked(ctx)
		if err != nil {
			return fmt.Errorf("failed to find locked stocktakes: %w", err)
		}
		for _, other := range locked {
			if other.StocktakeID != st.StocktakeID && st.Overlaps(other) {
				return fmt.Errorf("%w: %s holds %s", domain.ErrStocktakeInProgress, other.StocktakeCode, other.Scope())
			}
		}
		return st.Start()
	})
	if err != nil {
		return nil, err
	}

	s.logTransition(ctx, stocktake, "started", stocktake.CreatedBy)
	return ToStocktakeDTO(stocktake), nil
}

// UpdateItems records counted quantities
func (s *StocktakeService) UpdateItems(ctx context.Context, cmd UpdateStocktakeItemsCommand) (*StocktakeDTO, error) {
	stocktake, err := s.transition(ctx, "update stocktake items", cmd.StocktakeID, func(ctx context.Context, st *domain.Stocktake) error {
		if st.Scope() == domain.AllWarehousesScope {
			if err := s.requireRegistered(ctx, cmd.Counts); err != nil {
				return err
			}
		}
		return st.UpdateItems(cmd.Counts)
	})
	if err != nil {
		return nil, err
	}

	s.logTransition(ctx, stocktake, "counted", stocktake.CreatedBy)
	return ToStocktakeDTO(stocktake), nil
}

// requireRegistered refuses counts naming a warehouse outside the registry,
// since approval would create balance rows under it
func (s *StocktakeService) requireRegistered(ctx context.Context, counts []domain.StocktakeCount) error {
	seen := make(map[string]bool, len(counts))
	for _, c := range counts {
		if c.WarehouseID == "" || seen[c.WarehouseID] {
			continue
		}
		seen[c.WarehouseID] = true

		warehouse, err := s.warehouses.FindByID(ctx, c.WarehouseID)
		if err != nil {
			return fmt.Errorf("failed to find warehouse: %w", err)
		}
		if warehouse == nil {
			return fmt.Errorf("%w: %s", domain.ErrWarehouseNotFound, c.WarehouseID)
		}
	}
	return nil
}

// Complete closes counting and submits the variances for approval
func (s *StocktakeService) Complete(ctx context.Context, stocktakeID string) (*StocktakeDTO, error) {
	stocktake, err := s.transition(ctx, "complete stocktake", stocktakeID, func(_ context.Context, st *domain.Stocktake) error {
		return st.Complete()
	})
	if err != nil {
		return nil, err
	}

	s.logTransition(ctx, stocktake, "completed", stocktake.CreatedBy)
	return ToStocktakeDTO(stocktake), nil
}

// Approve books every variance as an adjustment to the counted quantity and
// releases the lock, all in one transaction
func (s *StocktakeService) Approve(ctx context.Context, cmd ApproveStocktakeCommand) (*StocktakeDTO, error) {
	stocktake, err := s.transition(ctx, "approve stocktake", cmd.StocktakeID, func(ctx context.Context, st *domain.Stocktake) error {
		if st.Status != domain.StocktakeStatusPendingApproval {
			return st.Approve(cmd.Approver)
		}

		for _, item := range st.Variances() {
			reason := st.StocktakeCode
			if item.Reason != "" {
				reason = fmt.Sprintf("%s: %s", st.StocktakeCode, item.Reason)
			}
			_, _, err := s.adjuster.adjust(ctx, AdjustCommand{
				WarehouseID:     item.WarehouseID,
				ProductID:       item.ProductID,
				VariantID:       item.VariantID,
				NewQuantity:     *item.ActualQuantity,
				NewAvailable:    *item.ActualQuantity,
				Reason:          reason,
				Actor:           cmd.Approver,
				ReferenceType:   domain.ReferenceStocktake,
				ReferenceID:     st.StocktakeID,
				CreateIfMissing: true,
			})
			if err != nil {
				return err
			}
		}
		return st.Approve(cmd.Approver)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Audit(ctx, "stocktake_approved", "stocktake", stocktake.StocktakeID, cmd.Approver, map[string]any{
		"stocktakeCode": stocktake.StocktakeCode,
		"adjustments":   len(stocktake.Variances()),
	})
	return ToStocktakeDTO(stocktake), nil
}

// Cancel abandons a stocktake that was not approved
func (s *StocktakeService) Cancel(ctx context.Context, cmd CancelStocktakeCommand) (*StocktakeDTO, error) {
	stocktake, err := s.transition(ctx, "cancel stocktake", cmd.StocktakeID, func(_ context.Context, st *domain.Stocktake) error {
		return st.Cancel(cmd.Reason)
	})
	if err != nil {
		return nil, err
	}

	s.logTransition(ctx, stocktake, "cancelled", stocktake.CreatedBy)
	return ToStocktakeDTO(stocktake), nil
}

// Get returns one stocktake
func (s *StocktakeService) Get(ctx context.Context, stocktakeID string) (*StocktakeDTO, error) {
	stocktake, err := s.load(ctx, stocktakeID)
	if err != nil {
		return nil, s.mapError(ctx, "get stocktake", err)
	}
	return ToStocktakeDTO(stocktake), nil
}

// List returns stocktakes, optionally narrowed by warehouse and status
func (s *StocktakeService) List(ctx context.Context, warehouseID string, status domain.StocktakeStatus, limit, offset int64) ([]*StocktakeDTO, error) {
	stocktakes, err := s.stocktakes.Find(ctx, warehouseID, status, limit, offset)
	if err != nil {
		return nil, s.mapError(ctx, "list stocktakes", err)
	}

	out := make([]*StocktakeDTO, 0, len(stocktakes))
	for _, st := range stocktakes {
		out = append(out, ToStocktakeDTO(st))
	}
	return out, nil
}

func (s *StocktakeService) transition(
	ctx context.Context,
	op string,
	stocktakeID string,
	fn func(ctx context.Context, st *domain.Stocktake) error,
) (*domain.Stocktake, error) {
	var stocktake *domain.Stocktake
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		st, err := s.load(ctx, stocktakeID)
		if err != nil {
			return err
		}
		if err := fn(ctx, st); err != nil {
			return err
		}
		if err := s.stocktakes.Save(ctx, st); err != nil {
			return err
		}
		if err := s.events.Flush(ctx, aggregateStocktake, st.StocktakeID, st.WarehouseID, st); err != nil {
			return err
		}
		stocktake = st
		return nil
	})
	if err != nil {
		return nil, s.mapError(ctx, op, err)
	}
	return stocktake, nil
}

func (s *StocktakeService) load(ctx context.Context, stocktakeID string) (*domain.Stocktake, error) {
	stocktake, err := s.stocktakes.FindByID(ctx, stocktakeID)
	if err != nil {
		return nil, fmt.Errorf("failed to find stocktake: %w", err)
	}
	if stocktake == nil {
		return nil, errors.ErrNotFoundWithID("stocktake", stocktakeID)
	}
	return stocktake, nil
}

func (s *StocktakeService) logTransition(ctx context.Context, st *domain.Stocktake, action, actor string) {
	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "stocktake." + action,
		EntityType: "stocktake",
		EntityID:   st.StocktakeID,
		Action:     action,
		RelatedIDs: map[string]string{
			"stocktakeCode": st.StocktakeCode,
			"scope":         st.Scope(),
			"actor":         actor,
		},
	})
}
