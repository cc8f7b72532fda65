package application

import (
	"context"
	"fmt"

	"github.com/wms-platform/stock-ledger-service/internal/domain"
	"github.com/wms-platform/stock-ledger-service/pkg/errors"
	"github.com/wms-platform/stock-ledger-service/pkg/logging"
	"github.com/wms-platform/stock-ledger-service/pkg/metrics"
)

// QualityService is the quality gate: the only path by which received units
// become stock
type QualityService struct {
	errorMapper
	tx      Transactor
	batches domain.BatchRepository
	checks  domain.QualityCheckRepository
	ledger  *LedgerStore
	events  *EventRecorder
	logger  *logging.Logger
}

// NewQualityService creates a new QualityService
func NewQualityService(
	tx Transactor,
	batches domain.BatchRepository,
	checks domain.QualityCheckRepository,
	ledger *LedgerStore,
	events *EventRecorder,
	m *metrics.Metrics,
	logger *logging.Logger,
) *QualityService {
	return &QualityService{
		errorMapper: errorMapper{logger: logger, metrics: m},
		tx:          tx,
		batches:     batches,
		checks:      checks,
		ledger:      ledger,
		events:      events,
		logger:      logger,
	}
}

// Create records the official decision for a received batch and admits the
// passed units to stock. The whole fan-out commits or nothing does.
func (s *QualityService) Create(ctx context.Context, cmd CreateQualityCheckCommand) (*QualityCheckDTO, error) {
	var qc *domain.QualityCheck
	var batch *domain.InboundBatch

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		batch, err = s.loadBatch(ctx, cmd.BatchID)
		if err != nil {
			return err
		}

		existing, err := s.checks.FindOfficial(ctx, batch.BatchID)
		if err != nil {
			return fmt.Errorf("failed to find quality check: %w", err)
		}
		if existing != nil {
			return domain.ErrDuplicateQC
		}

		if err := batch.StartQualityCheck(); err != nil {
			return err
		}

		qc, err = domain.NewQualityCheck(batch, domain.QCDecision{
			Inspector:      cmd.Inspector,
			CheckDate:      cmd.CheckDate,
			Status:         cmd.Status,
			Score:          cmd.Score,
			QuantityPassed: cmd.QuantityPassed,
			QuantityFailed: cmd.QuantityFailed,
			Issues:         cmd.Issues,
			Items:          cmd.Items,
		})
		if err != nil {
			return err
		}
		if err := s.checks.Insert(ctx, qc); err != nil {
			return err
		}

		for _, item := range qc.Items {
			if err := s.postItem(ctx, batch, qc, item); err != nil {
				return err
			}
		}

		if err := batch.CompleteQualityCheck(); err != nil {
			return err
		}
		batch.AddDomainEvent(&domain.QualityCheckRecordedEvent{
			QCID:           qc.QCID,
			BatchID:        batch.BatchID,
			BatchCode:      batch.BatchCode,
			WarehouseID:    batch.WarehouseID,
			Status:         qc.Status,
			QuantityPassed: qc.QuantityPassed,
			QuantityFailed: qc.QuantityFailed,
			CheckedAt:      qc.CheckDate,
		})

		if err := s.batches.Save(ctx, batch); err != nil {
			return fmt.Errorf("failed to save batch: %w", err)
		}
		return s.events.Flush(ctx, aggregateBatch, batch.BatchID, batch.WarehouseID, batch)
	})
	if err != nil {
		return nil, s.mapError(ctx, "create quality check", err)
	}

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "quality_check.recorded",
		EntityType: "batch",
		EntityID:   batch.BatchID,
		Action:     string(qc.Status),
		RelatedIDs: map[string]string{
			"qcId":      qc.QCID,
			"batchCode": batch.BatchCode,
			"inspector": qc.Inspector,
		},
	})
	return ToQualityCheckDTO(qc), nil
}

// postItem admits the passed units of one line and records its rejected units
func (s *QualityService) postItem(ctx context.Context, batch *domain.InboundBatch, qc *domain.QualityCheck, item domain.QCItemResult) error {
	key := domain.StockKey{WarehouseID: batch.WarehouseID, ProductID: item.ProductID, VariantID: item.VariantID}

	if item.QuantityPassed > 0 {
		if _, err := s.ledger.GetOrCreateBalance(ctx, key); err != nil {
			return err
		}
		_, _, err := s.ledger.ApplyMovement(ctx, key, domain.MovementRequest{
			Type:           domain.MovementQCPass,
			DeltaQuantity:  item.QuantityPassed,
			DeltaAvailable: item.QuantityPassed,
			BatchID:        batch.BatchID,
			QCID:           qc.QCID,
			ReferenceType:  domain.ReferenceQC,
			ReferenceID:    qc.QCID,
			Actor:          qc.Inspector,
			Reason:         fmt.Sprintf("QC %s passed %d units", batch.BatchCode, item.QuantityPassed),
		})
		if err != nil {
			return err
		}
	}

	if item.QuantityFailed > 0 || qc.Status == domain.QCStatusFail {
		_, err := s.ledger.PostAudit(ctx, key, domain.MovementRequest{
			Type:          domain.MovementQCFail,
			BatchID:       batch.BatchID,
			QCID:          qc.QCID,
			ReferenceType: domain.ReferenceQC,
			ReferenceID:   qc.QCID,
			Actor:         qc.Inspector,
			Reason:        fmt.Sprintf("QC %s rejected %d units", batch.BatchCode, item.QuantityFailed),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Rollback appends a correction to the official decision and removes the
// revoked units from stock. The official row and its log entries stay as
// they were.
func (s *QualityService) Rollback(ctx context.Context, cmd RollbackQualityCheckCommand) (*QualityCheckDTO, error) {
	var rollback *domain.QualityCheck
	var batch *domain.InboundBatch

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		batch, err = s.loadBatch(ctx, cmd.BatchID)
		if err != nil {
			return err
		}

		official, err := s.checks.FindOfficial(ctx, batch.BatchID)
		if err != nil {
			return fmt.Errorf("failed to find quality check: %w", err)
		}
		if official == nil {
			return domain.ErrNoOfficialQC
		}
		history, err := s.checks.FindByBatch(ctx, batch.BatchID)
		if err != nil {
			return fmt.Errorf("failed to load quality check history: %w", err)
		}

		rollback, err = domain.NewRollbackCheck(batch, official, history, cmd.Inspector, cmd.Reason, cmd.Corrections)
		if err != nil {
			return err
		}
		if err := s.checks.Insert(ctx, rollback); err != nil {
			return err
		}

		reason := fmt.Sprintf("QC rollback %s: %s", batch.BatchCode, cmd.Reason)
		for _, item := range rollback.Items {
			if item.QuantityFailed == 0 {
				continue
			}
			key := domain.StockKey{WarehouseID: batch.WarehouseID, ProductID: item.ProductID, VariantID: item.VariantID}
			_, _, err := s.ledger.ApplyMovement(ctx, key, domain.MovementRequest{
				Type:             domain.MovementAdjust,
				DeltaQuantity:    -item.QuantityFailed,
				DeltaAvailable:   -item.QuantityFailed,
				RequireAvailable: item.QuantityFailed,
				BatchID:          batch.BatchID,
				QCID:             rollback.QCID,
				ReferenceType:    domain.ReferenceQC,
				ReferenceID:      rollback.QCID,
				Actor:            cmd.Inspector,
				Reason:           reason,
			})
			if err != nil {
				return err
			}
		}

		return s.events.Record(ctx, aggregateBatch, batch.BatchID, batch.WarehouseID, &domain.QualityCheckRolledBackEvent{
			QCID:            rollback.QCID,
			RollbackOf:      official.QCID,
			BatchID:         batch.BatchID,
			WarehouseID:     batch.WarehouseID,
			QuantityRevoked: rollback.QuantityRevoked(),
			Reason:          cmd.Reason,
			RolledBackAt:    rollback.CreatedAt,
		})
	})
	if err != nil {
		return nil, s.mapError(ctx, "rollback quality check", err)
	}

	s.logger.Audit(ctx, "qc_rollback", "batch", batch.BatchID, cmd.Inspector, map[string]any{
		"qcId":            rollback.QCID,
		"rollbackOf":      rollback.RollbackOf,
		"quantityRevoked": rollback.QuantityRevoked(),
		"reason":          cmd.Reason,
	})
	return ToQualityCheckDTO(rollback), nil
}

// Get returns the official decision of a batch with every rollback appended to it
func (s *QualityService) Get(ctx context.Context, batchID string) (*QualityHistoryDTO, error) {
	history, err := s.checks.FindByBatch(ctx, batchID)
	if err != nil {
		return nil, s.mapError(ctx, "get quality check", err)
	}

	result := &QualityHistoryDTO{Rollbacks: make([]*QualityCheckDTO, 0)}
	for _, qc := range history {
		if qc.IsRollback {
			result.Rollbacks = append(result.Rollbacks, ToQualityCheckDTO(qc))
			continue
		}
		result.Official = ToQualityCheckDTO(qc)
	}
	if result.Official == nil {
		return nil, errors.ErrNotFoundWithID("quality check", batchID)
	}
	return result, nil
}

func (s *QualityService) loadBatch(ctx context.Context, batchID string) (*domain.InboundBatch, error) {
	batch, err := s.batches.FindByID(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to find batch: %w", err)
	}
	if batch == nil {
		return nil, errors.ErrNotFoundWithID("batch", batchID)
	}
	return batch, nil
}
