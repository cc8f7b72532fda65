package application

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/wms-platform/stock-ledger-service/internal/domain"
	"github.com/wms-platform/stock-ledger-service/pkg/errors"
	"github.com/wms-platform/stock-ledger-service/pkg/logging"
	"github.com/wms-platform/stock-ledger-service/pkg/metrics"
	"github.com/wms-platform/stock-ledger-service/pkg/mongodb"
)

var validationErrors = []error{
	domain.ErrNoItems,
	domain.ErrNonPositiveQuantity,
	domain.ErrNegativeQuantity,
	domain.ErrReasonRequired,
	domain.ErrSameWarehouse,
	domain.ErrOverReceipt,
	domain.ErrUnknownItem,
	domain.ErrInvalidQCStatus,
	domain.ErrInvalidScore,
	domain.ErrQCQuantityMismatch,
	domain.ErrDuplicateItem,
	domain.ErrProductRequired,
	domain.ErrWarehouseIdentity,
	domain.ErrAvailableExceedsQty,
}

const (
	reasonInsufficientStock = "insufficient_stock"
	reasonUncountedItems    = "uncounted_items"
)

var businessRuleErrors = map[error]string{
	domain.ErrBatchLocked:             "batch_locked",
	domain.ErrDuplicateQC:             "duplicate_qc",
	domain.ErrNoOfficialQC:            "no_official_qc",
	domain.ErrInvalidStatusTransition: "invalid_status_transition",
	domain.ErrWarehouseInactive:       "warehouse_inactive",
}

var conflictErrors = map[error]string{
	domain.ErrWarehouseInUse:      "warehouse_in_use",
	domain.ErrStocktakeInProgress: "stocktake_in_progress",
	domain.ErrWarehouseCodeTaken:  "warehouse_code_taken",
}

// errorMapper converts domain and storage failures into AppErrors
type errorMapper struct {
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// mapError classifies err. Business and conflict outcomes are counted as
// rejections; invariant breaches and unknown failures are logged at error.
func (m errorMapper) mapError(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr
	}

	var shortage *domain.TransferShortageError
	var insufficient *domain.InsufficientStockError
	var uncounted *domain.UncountedItemsError

	switch {
	case stderrors.As(err, &shortage):
		m.metrics.RecordRejection(reasonInsufficientStock)
		details := make(map[string]string, len(shortage.Shortages))
		for _, s := range shortage.Shortages {
			details["shortfall."+s.Key.String()] = strconv.FormatInt(s.Shortfall(), 10)
		}
		return errors.ErrBusinessRule(reasonInsufficientStock, shortage.Error()).WithDetails(details).Wrap(err)

	case stderrors.As(err, &insufficient):
		m.metrics.RecordRejection(reasonInsufficientStock)
		return errors.ErrBusinessRule(reasonInsufficientStock, insufficient.Error()).WithDetails(map[string]string{
			"stock":     insufficient.Key.String(),
			"requested": strconv.FormatInt(insufficient.Requested, 10),
			"available": strconv.FormatInt(insufficient.Available, 10),
			"shortfall": strconv.FormatInt(insufficient.Shortfall(), 10),
		}).Wrap(err)

	case stderrors.As(err, &uncounted):
		m.metrics.RecordRejection(reasonUncountedItems)
		keys := make([]string, 0, len(uncounted.Items))
		for _, k := range uncounted.Items {
			keys = append(keys, k.String())
		}
		return errors.ErrBusinessRule(reasonUncountedItems, uncounted.Error()).WithDetails(map[string]string{
			"uncounted": strconv.Itoa(len(uncounted.Items)),
			"items":     strings.Join(keys, ","),
		}).Wrap(err)

	case stderrors.Is(err, domain.ErrStockNotFound):
		return errors.ErrNotFound("stock").WithDetail("reason", err.Error()).Wrap(err)

	case stderrors.Is(err, domain.ErrWarehouseNotFound):
		return errors.ErrNotFound("warehouse").WithDetail("reason", err.Error()).Wrap(err)

	case stderrors.Is(err, domain.ErrInsufficientBalance):
		m.metrics.RecordInvariantViolation()
		m.logger.WithContext(ctx).WithError(err).Error("Balance invariant refused a movement", "operation", op)
		return errors.ErrInternal("internal error").Wrap(err)

	case mongodb.IsTransient(err):
		m.logger.WithContext(ctx).WithError(err).Warn("Transient storage failure", "operation", op)
		return errors.ErrServiceUnavailable("stock ledger store").Wrap(err)
	}

	for _, target := range validationErrors {
		if stderrors.Is(err, target) {
			return errors.ErrValidation(err.Error()).Wrap(err)
		}
	}
	for target, reason := range businessRuleErrors {
		if stderrors.Is(err, target) {
			m.metrics.RecordRejection(reason)
			return errors.ErrBusinessRule(reason, err.Error()).Wrap(err)
		}
	}
	for target, reason := range conflictErrors {
		if stderrors.Is(err, target) {
			m.metrics.RecordRejection(reason)
			return errors.ErrConflict(reason, err.Error()).Wrap(err)
		}
	}

	m.logger.WithContext(ctx).WithError(err).Error("Operation failed", "operation", op)
	return errors.ErrInternal(fmt.Sprintf("%s failed", op)).Wrap(err)
}
