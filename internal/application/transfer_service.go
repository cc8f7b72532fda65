package application

import (
	"context"
	"fmt"

	"github.com/wms-platform/stock-ledger-service/internal/domain"
	"github.com/wms-platform/stock-ledger-service/pkg/errors"
	"github.com/wms-platform/stock-ledger-service/pkg/logging"
	"github.com/wms-platform/stock-ledger-service/pkg/metrics"
)

// TransferService moves stock between warehouses through an in-transit state
type TransferService struct {
	errorMapper
	tx         Transactor
	transfers  domain.TransferRepository
	warehouses domain.WarehouseRepository
	ledger     StockLedger
	events     *EventRecorder
	logger     *logging.Logger
}

// NewTransferService creates a new TransferService
func NewTransferService(
	tx Transactor,
	transfers domain.TransferRepository,
	warehouses domain.WarehouseRepository,
	ledger StockLedger,
	events *EventRecorder,
	m *metrics.Metrics,
	logger *logging.Logger,
) *TransferService {
	return &TransferService{
		errorMapper: errorMapper{logger: logger, metrics: m},
		tx:          tx,
		transfers:   transfers,
		warehouses:  warehouses,
		ledger:      ledger,
		events:      events,
		logger:      logger,
	}
}

// Create drafts a transfer between two active warehouses
func (s *TransferService) Create(ctx context.Context, cmd CreateTransferCommand) (*TransferDTO, error) {
	transfer, err := domain.NewInternalTransfer(cmd.FromWarehouseID, cmd.ToWarehouseID, cmd.CreatedBy, cmd.Notes, cmd.Items)
	if err != nil {
		return nil, s.mapError(ctx, "create transfer", err)
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := requireActiveWarehouse(ctx, s.warehouses, cmd.FromWarehouseID); err != nil {
			return err
		}
		if _, err := requireActiveWarehouse(ctx, s.warehouses, cmd.ToWarehouseID); err != nil {
			return err
		}
		return s.save(ctx, transfer)
	})
	if err != nil {
		return nil, s.mapError(ctx, "create transfer", err)
	}

	s.logTransition(ctx, transfer, "created", cmd.CreatedBy)
	return ToTransferDTO(transfer), nil
}

// Submit moves a draft into pending
func (s *TransferService) Submit(ctx context.Context, transferID, actor string) (*TransferDTO, error) {
	transfer, err := s.transition(ctx, "submit transfer", transferID, func(ctx context.Context, t *domain.InternalTransfer) error {
		return t.Submit()
	})
	if err != nil {
		return nil, err
	}

	s.logTransition(ctx, transfer, "submitted", actor)
	return ToTransferDTO(transfer), nil
}

// Ship debits the source for every line. Every short line is reported
// together and nothing is debited unless all lines are covered.
func (s *TransferService) Ship(ctx context.Context, transferID, actor string) (*TransferDTO, error) {
	transfer, err := s.transition(ctx, "ship transfer", transferID, func(ctx context.Context, t *domain.InternalTransfer) error {
		if err := t.CanShip(); err != nil {
			return err
		}

		var shortages []*domain.InsufficientStockError
		for _, item := range t.Items {
			stock, err := s.ledger.FindBalance(ctx, t.SourceKey(item))
			if err != nil {
				return err
			}
			if stock.AvailableQuantity < item.QuantityRequested {
				shortages = append(shortages, &domain.InsufficientStockError{
					Key:       stock.Key(),
					Requested: item.QuantityRequested,
					Available: stock.AvailableQuantity,
				})
			}
		}
		if len(shortages) > 0 {
			return &domain.TransferShortageError{Shortages: shortages}
		}

		for _, item := range t.Items {
			_, _, err := s.ledger.ApplyMovement(ctx, t.SourceKey(item), domain.MovementRequest{
				Type:             domain.MovementTransferOut,
				DeltaQuantity:    -item.QuantityRequested,
				DeltaAvailable:   -item.QuantityRequested,
				RequireAvailable: item.QuantityRequested,
				ReferenceType:    domain.ReferenceTransfer,
				ReferenceID:      t.TransferID,
				Actor:            actor,
				Reason:           "transfer " + t.TransferCode,
			})
			if err != nil {
				return err
			}
		}
		return t.MarkShipped()
	})
	if err != nil {
		return nil, err
	}

	s.logTransition(ctx, transfer, "shipped", actor)
	return ToTransferDTO(transfer), nil
}

// Receive credits the destination with the counted quantities. Units that
// never arrived stay recorded on the transfer as shrinkage.
func (s *TransferService) Receive(ctx context.Context, cmd ReceiveTransferCommand) (*TransferDTO, error) {
	transfer, err := s.transition(ctx, "receive transfer", cmd.TransferID, func(ctx context.Context, t *domain.InternalTransfer) error {
		if err := t.Receive(cmd.Receipts); err != nil {
			return err
		}

		for _, item := range t.Items {
			if item.QuantityReceived == 0 {
				continue
			}
			key := t.DestinationKey(item)
			if _, err := s.ledger.GetOrCreateBalance(ctx, key); err != nil {
				return err
			}
			_, _, err := s.ledger.ApplyMovement(ctx, key, domain.MovementRequest{
				Type:           domain.MovementTransferIn,
				DeltaQuantity:  item.QuantityReceived,
				DeltaAvailable: item.QuantityReceived,
				ReferenceType:  domain.ReferenceTransfer,
				ReferenceID:    t.TransferID,
				Actor:          cmd.Actor,
				Reason:         "transfer " + t.TransferCode,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, item := range transfer.Items {
		if lost := item.Shrinkage(); lost > 0 {
			s.logger.WithContext(ctx).Warn("Transfer received short",
				"transferCode", transfer.TransferCode,
				"productId", item.ProductID,
				"variantId", item.VariantID,
				"shipped", item.QuantityShipped,
				"received", item.QuantityReceived,
			)
		}
	}
	s.logTransition(ctx, transfer, "received", cmd.Actor)
	return ToTransferDTO(transfer), nil
}

// Cancel abandons a transfer. Goods already in transit go back to the source.
func (s *TransferService) Cancel(ctx context.Context, cmd CancelTransferCommand) (*TransferDTO, error) {
	transfer, err := s.transition(ctx, "cancel transfer", cmd.TransferID, func(ctx context.Context, t *domain.InternalTransfer) error {
		wasInTransit, err := t.Cancel(cmd.Reason)
		if err != nil || !wasInTransit {
			return err
		}

		for _, item := range t.Items {
			if item.QuantityShipped == 0 {
				continue
			}
			_, _, err := s.ledger.ApplyMovement(ctx, t.SourceKey(item), domain.MovementRequest{
				Type:           domain.MovementTransferIn,
				DeltaQuantity:  item.QuantityShipped,
				DeltaAvailable: item.QuantityShipped,
				ReferenceType:  domain.ReferenceTransfer,
				ReferenceID:    t.TransferID,
				Actor:          cmd.Actor,
				Reason:         fmt.Sprintf("transfer %s cancelled", t.TransferCode),
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logTransition(ctx, transfer, "cancelled", cmd.Actor)
	return ToTransferDTO(transfer), nil
}

// Get returns one transfer
func (s *TransferService) Get(ctx context.Context, transferID string) (*TransferDTO, error) {
	transfer, err := s.load(ctx, transferID)
	if err != nil {
		return nil, s.mapError(ctx, "get transfer", err)
	}
	return ToTransferDTO(transfer), nil
}

// List returns transfers matching filter
func (s *TransferService) List(ctx context.Context, filter domain.TransferFilter) ([]*TransferDTO, error) {
	transfers, err := s.transfers.Find(ctx, filter)
	if err != nil {
		return nil, s.mapError(ctx, "list transfers", err)
	}

	out := make([]*TransferDTO, 0, len(transfers))
	for _, t := range transfers {
		out = append(out, ToTransferDTO(t))
	}
	return out, nil
}

// transition loads the transfer, runs fn and saves the result in one transaction
func (s *TransferService) transition(
	ctx context.Context,
	op string,
	transferID string,
	fn func(ctx context.Context, t *domain.InternalTransfer) error,
) (*domain.InternalTransfer, error) {
	var transfer *domain.InternalTransfer
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		t, err := s.load(ctx, transferID)
		if err != nil {
			return err
		}
		if err := fn(ctx, t); err != nil {
			return err
		}
		if err := s.save(ctx, t); err != nil {
			return err
		}
		transfer = t
		return nil
	})
	if err != nil {
		return nil, s.mapError(ctx, op, err)
	}
	return transfer, nil
}

func (s *TransferService) load(ctx context.Context, transferID string) (*domain.InternalTransfer, error) {
	transfer, err := s.transfers.FindByID(ctx, transferID)
	if err != nil {
		return nil, fmt.Errorf("failed to find transfer: %w", err)
	}
	if transfer == nil {
		return nil, errors.ErrNotFoundWithID("transfer", transferID)
	}
	return transfer, nil
}

func (s *TransferService) save(ctx context.Context, transfer *domain.InternalTransfer) error {
	if err := s.transfers.Save(ctx, transfer); err != nil {
		return fmt.Errorf("failed to save transfer: %w", err)
	}
	return s.events.Flush(ctx, aggregateTransfer, transfer.TransferID, transfer.FromWarehouseID, transfer)
}

func (s *TransferService) logTransition(ctx context.Context, t *domain.InternalTransfer, action, actor string) {
	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "transfer." + action,
		EntityType: "transfer",
		EntityID:   t.TransferID,
		Action:     action,
		RelatedIDs: map[string]string{
			"transferCode":    t.TransferCode,
			"fromWarehouseId": t.FromWarehouseID,
			"toWarehouseId":   t.ToWarehouseID,
			"actor":           actor,
		},
	})
}
