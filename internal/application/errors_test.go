package application

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wms-platform/stock-ledger-service/internal/domain"
	"github.com/wms-platform/stock-ledger-service/pkg/errors"
	"github.com/wms-platform/stock-ledger-service/pkg/logging"
	"github.com/wms-platform/stock-ledger-service/pkg/metrics"
)

func TestMapError(t *testing.T) {
	m := errorMapper{logger: logging.NewNop(), metrics: metrics.New(metrics.DefaultConfig("test"))}
	key := domain.StockKey{WarehouseID: "w1", ProductID: "p1"}

	tests := []struct {
		name      string
		err       error
		status    int
		retryable bool
	}{
		{"validation", fmt.Errorf("bad input: %w", domain.ErrReasonRequired), http.StatusBadRequest, false},
		{"missing row", fmt.Errorf("%w: %s", domain.ErrStockNotFound, key), http.StatusNotFound, false},
		{"insufficient stock", &domain.InsufficientStockError{Key: key, Requested: 5, Available: 2}, http.StatusUnprocessableEntity, false},
		{"wrong state", &domain.TransitionError{Entity: "batch", From: "pending", To: "completed"}, http.StatusUnprocessableEntity, false},
		{"stocktake lock", domain.ErrStocktakeInProgress, http.StatusConflict, false},
		{"invariant backstop", fmt.Errorf("%w: w1/p1", domain.ErrInsufficientBalance), http.StatusInternalServerError, false},
		{"timeout", fmt.Errorf("find: %w", context.DeadlineExceeded), http.StatusServiceUnavailable, true},
		{"unknown", stderrors.New("boom"), http.StatusInternalServerError, false},
		{"already mapped", errors.ErrNotFoundWithID("batch", "b1"), http.StatusNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := m.mapError(context.Background(), "test", tt.err)
			appErr, ok := errors.AsAppError(mapped)
			if !assert.True(t, ok) {
				return
			}
			assert.Equal(t, tt.status, appErr.HTTPStatus)
			assert.Equal(t, tt.retryable, appErr.Retryable)
		})
	}
}

func TestMapErrorKeepsInsufficientStockDetails(t *testing.T) {
	m := errorMapper{logger: logging.NewNop(), metrics: metrics.New(metrics.DefaultConfig("test"))}
	err := &domain.InsufficientStockError{
		Key:       domain.StockKey{WarehouseID: "w1", ProductID: "p1"},
		Requested: 50,
		Available: 12,
	}

	appErr, ok := errors.AsAppError(m.mapError(context.Background(), "outbound", err))
	assert.True(t, ok)
	assert.Contains(t, appErr.Message, "requested 50, only 12 available")
	assert.Equal(t, "38", appErr.Details["shortfall"])
	assert.Equal(t, "insufficient_stock", appErr.Reason)
	assert.True(t, stderrors.Is(appErr, domain.ErrInsufficientStock))
}
