package application

import (
	"context"
	"fmt"

	"github.com/wms-platform/stock-ledger-service/internal/domain"
	"github.com/wms-platform/stock-ledger-service/pkg/errors"
	"github.com/wms-platform/stock-ledger-service/pkg/logging"
	"github.com/wms-platform/stock-ledger-service/pkg/metrics"
)

// BatchService registers supplier deliveries and records what arrived.
// None of its operations touch stock.
type BatchService struct {
	errorMapper
	tx         Transactor
	batches    domain.BatchRepository
	checks     domain.QualityCheckRepository
	warehouses domain.WarehouseRepository
	events     *EventRecorder
	logger     *logging.Logger
}

// NewBatchService creates a new BatchService
func NewBatchService(
	tx Transactor,
	batches domain.BatchRepository,
	checks domain.QualityCheckRepository,
	warehouses domain.WarehouseRepository,
	events *EventRecorder,
	m *metrics.Metrics,
	logger *logging.Logger,
) *BatchService {
	return &BatchService{
		errorMapper: errorMapper{logger: logger, metrics: m},
		tx:          tx,
		batches:     batches,
		checks:      checks,
		warehouses:  warehouses,
		events:      events,
		logger:      logger,
	}
}

// Create registers a pending batch
func (s *BatchService) Create(ctx context.Context, cmd CreateBatchCommand) (*BatchDTO, error) {
	batch, err := domain.NewInboundBatch(cmd.WarehouseID, cmd.SupplierID, cmd.CreatedBy, cmd.Notes, cmd.Items)
	if err != nil {
		return nil, s.mapError(ctx, "create batch", err)
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := requireActiveWarehouse(ctx, s.warehouses, cmd.WarehouseID); err != nil {
			return err
		}
		return s.save(ctx, batch)
	})
	if err != nil {
		return nil, s.mapError(ctx, "create batch", err)
	}

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "batch.created",
		EntityType: "batch",
		EntityID:   batch.BatchID,
		Action:     "created",
		RelatedIDs: map[string]string{
			"batchCode":   batch.BatchCode,
			"warehouseId": batch.WarehouseID,
			"supplierId":  batch.SupplierID,
		},
	})
	return ToBatchDTO(batch), nil
}

// Receive records received quantities while no quality check exists
func (s *BatchService) Receive(ctx context.Context, cmd ReceiveBatchCommand) (*BatchDTO, error) {
	var batch *domain.InboundBatch
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		batch, err = s.load(ctx, cmd.BatchID)
		if err != nil {
			return err
		}

		official, err := s.checks.FindOfficial(ctx, batch.BatchID)
		if err != nil {
			return fmt.Errorf("failed to find quality check: %w", err)
		}
		if err := batch.Receive(cmd.ReceivedDate, cmd.ItemReceipts, official != nil); err != nil {
			return err
		}
		return s.save(ctx, batch)
	})
	if err != nil {
		return nil, s.mapError(ctx, "receive batch", err)
	}

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "batch.received",
		EntityType: "batch",
		EntityID:   batch.BatchID,
		Action:     "received",
		RelatedIDs: map[string]string{"batchCode": batch.BatchCode, "actor": cmd.Actor},
	})
	return ToBatchDTO(batch), nil
}

// Complete closes an inspected batch
func (s *BatchService) Complete(ctx context.Context, batchID string) (*BatchDTO, error) {
	var batch *domain.InboundBatch
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		batch, err = s.load(ctx, batchID)
		if err != nil {
			return err
		}
		if err := batch.Complete(); err != nil {
			return err
		}
		return s.save(ctx, batch)
	})
	if err != nil {
		return nil, s.mapError(ctx, "complete batch", err)
	}

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "batch.completed",
		EntityType: "batch",
		EntityID:   batch.BatchID,
		Action:     "completed",
	})
	return ToBatchDTO(batch), nil
}

// Cancel abandons a batch before inspection
func (s *BatchService) Cancel(ctx context.Context, cmd CancelBatchCommand) (*BatchDTO, error) {
	var batch *domain.InboundBatch
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		batch, err = s.load(ctx, cmd.BatchID)
		if err != nil {
			return err
		}

		official, err := s.checks.FindOfficial(ctx, batch.BatchID)
		if err != nil {
			return fmt.Errorf("failed to find quality check: %w", err)
		}
		if err := batch.Cancel(cmd.Reason, official != nil); err != nil {
			return err
		}
		return s.save(ctx, batch)
	})
	if err != nil {
		return nil, s.mapError(ctx, "cancel batch", err)
	}

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "batch.cancelled",
		EntityType: "batch",
		EntityID:   batch.BatchID,
		Action:     "cancelled",
		RelatedIDs: map[string]string{"reason": cmd.Reason, "actor": cmd.Actor},
	})
	return ToBatchDTO(batch), nil
}

// Get returns one batch
func (s *BatchService) Get(ctx context.Context, batchID string) (*BatchDTO, error) {
	batch, err := s.load(ctx, batchID)
	if err != nil {
		return nil, s.mapError(ctx, "get batch", err)
	}
	return ToBatchDTO(batch), nil
}

// List returns batches matching filter
func (s *BatchService) List(ctx context.Context, filter domain.BatchFilter) ([]*BatchDTO, error) {
	batches, err := s.batches.Find(ctx, filter)
	if err != nil {
		return nil, s.mapError(ctx, "list batches", err)
	}

	out := make([]*BatchDTO, 0, len(batches))
	for _, b := range batches {
		out = append(out, ToBatchDTO(b))
	}
	return out, nil
}

func (s *BatchService) load(ctx context.Context, batchID string) (*domain.InboundBatch, error) {
	batch, err := s.batches.FindByID(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to find batch: %w", err)
	}
	if batch == nil {
		return nil, errors.ErrNotFoundWithID("batch", batchID)
	}
	return batch, nil
}

// save persists the batch and its pending events together
func (s *BatchService) save(ctx context.Context, batch *domain.InboundBatch) error {
	if err := s.batches.Save(ctx, batch); err != nil {
		return fmt.Errorf("failed to save batch: %w", err)
	}
	return s.events.Flush(ctx, aggregateBatch, batch.BatchID, batch.WarehouseID, batch)
}
