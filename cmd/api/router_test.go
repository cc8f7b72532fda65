package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/stock-ledger-service/internal/application"
	"github.com/wms-platform/stock-ledger-service/internal/domain"
	"github.com/wms-platform/stock-ledger-service/pkg/logging"
	"github.com/wms-platform/stock-ledger-service/pkg/metrics"
	"github.com/wms-platform/stock-ledger-service/pkg/middleware"
)

type passthroughTx struct{}

func (passthroughTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memWarehouses struct {
	mu   sync.Mutex
	byID map[string]*domain.Warehouse
}

func (r *memWarehouses) Save(_ context.Context, w *domain.Warehouse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, other := range r.byID {
		if id != w.WarehouseID && other.Code == w.Code {
			return domain.ErrWarehouseCodeTaken
		}
	}
	cp := *w
	r.byID[w.WarehouseID] = &cp
	return nil
}

func (r *memWarehouses) FindByID(_ context.Context, id string) (*domain.Warehouse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.byID[id]; ok {
		cp := *w
		return &cp, nil
	}
	return nil, nil
}

func (r *memWarehouses) FindAll(_ context.Context, activeOnly bool) ([]*domain.Warehouse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Warehouse
	for _, w := range r.byID {
		if !activeOnly || w.Active {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memWarehouses) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	return nil
}

// stockCounts only answers CountByWarehouse; other methods are never reached here
type stockCounts struct {
	domain.StockRepository
	rows map[string]int64
}

func (s stockCounts) CountByWarehouse(_ context.Context, warehouseID string) (int64, error) {
	return s.rows[warehouseID], nil
}

// The registry tests below never leave a document open
type noBatches struct{ domain.BatchRepository }

func (noBatches) Find(context.Context, domain.BatchFilter) ([]*domain.InboundBatch, error) {
	return nil, nil
}

type noTransfers struct{ domain.TransferRepository }

func (noTransfers) Find(context.Context, domain.TransferFilter) ([]*domain.InternalTransfer, error) {
	return nil, nil
}

type noStocktakes struct{ domain.StocktakeRepository }

func (noStocktakes) FindLocked(context.Context) ([]*domain.Stocktake, error) {
	return nil, nil
}

func newTestRouter(t *testing.T, ready func(context.Context) error) (*gin.Engine, stockCounts) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logging.NewNop()
	m := metrics.New(metrics.DefaultConfig("stock-ledger-api-test"))
	tx := passthroughTx{}
	counts := stockCounts{rows: map[string]int64{}}

	ledger := application.NewLedgerStore(tx, nil, nil, nil, nil, nil, m, logger)
	stock := application.NewStockService(ledger, nil, nil, nil, m, logger)
	svc := &services{
		warehouses: application.NewWarehouseService(tx, &memWarehouses{byID: map[string]*domain.Warehouse{}}, counts, noBatches{}, noTransfers{}, noStocktakes{}, m, logger),
		batches:    application.NewBatchService(tx, nil, nil, nil, nil, m, logger),
		quality:    application.NewQualityService(tx, nil, nil, ledger, nil, m, logger),
		stock:      stock,
		transfers:  application.NewTransferService(tx, nil, nil, ledger, nil, m, logger),
		stocktakes: application.NewStocktakeService(tx, nil, nil, nil, stock, nil, m, logger),
	}
	if ready == nil {
		ready = func(context.Context) error { return nil }
	}
	return newRouter(svc, m, logger, "test", middleware.ReadyCheck{Name: "mongodb", Check: ready}), counts
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(middleware.HeaderActor, "clerk-7")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) middleware.APIErrorResponse {
	t.Helper()
	var resp middleware.APIErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestProbes(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	assert.Equal(t, http.StatusOK, doJSON(router, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, doJSON(router, http.MethodGet, "/ready", "").Code)
	assert.Equal(t, http.StatusOK, doJSON(router, http.MethodGet, "/metrics", "").Code)

	down, _ := newTestRouter(t, func(context.Context) error { return errors.New("no primary") })
	w := doJSON(down, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body struct {
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "no primary", body.Checks["mongodb"])
}

func TestUnknownRoute(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w := doJSON(router, http.MethodGet, "/api/v1/nothing-here", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ROUTE_NOT_FOUND", decodeError(t, w).Code)
}

func TestRequestValidation(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		field  string
	}{
		{"outbound without product", http.MethodPost, "/api/v1/stock/outbound", `{"warehouseId":"wh-1","quantity":3}`, "productId"},
		{"outbound of zero units", http.MethodPost, "/api/v1/stock/outbound", `{"warehouseId":"wh-1","productId":"sku-1","quantity":0}`, "quantity"},
		{"outbound of negative units", http.MethodPost, "/api/v1/stock/outbound", `{"warehouseId":"wh-1","productId":"sku-1","quantity":-4}`, "quantity"},
		{"adjust without reason", http.MethodPost, "/api/v1/stock/adjust", `{"warehouseId":"wh-1","productId":"sku-1","newQuantity":5,"newAvailable":5}`, "reason"},
		{"adjust with blank reason", http.MethodPost, "/api/v1/stock/adjust", `{"warehouseId":"wh-1","productId":"sku-1","newQuantity":5,"newAvailable":5,"reason":"  "}`, "reason"},
		{"transfer to same warehouse", http.MethodPost, "/api/v1/transfers", `{"fromWarehouseId":"wh-1","toWarehouseId":"wh-1","items":[{"productId":"sku-1","quantity":2}]}`, "toWarehouseId"},
		{"transfer without items", http.MethodPost, "/api/v1/transfers", `{"fromWarehouseId":"wh-1","toWarehouseId":"wh-2","items":[]}`, "items"},
		{"unknown qc status", http.MethodPost, "/api/v1/batches/b-1/quality-check", `{"inspector":"ann","status":"maybe"}`, "status"},
		{"cancel without reason", http.MethodPost, "/api/v1/transfers/t-1/cancel", `{}`, "reason"},
		{"count without quantity", http.MethodPost, "/api/v1/stocktakes/s-1/items", `{"items":[{"productId":"sku-1"}]}`, "actualQuantity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(router, tt.method, tt.path, tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

			resp := decodeError(t, w)
			assert.Equal(t, "VALIDATION_ERROR", resp.Code)
			assert.Contains(t, resp.Details, tt.field)
		})
	}
}

func TestAvailabilityQueryValidation(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w := doJSON(router, http.MethodGet, "/api/v1/stock/availability?productId=sku-1&quantity=0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodGet, "/api/v1/movements?movementType=teleport", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRejectsNonJSONBody(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stock/outbound", strings.NewReader("sku-1 x3"))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestWarehouseLifecycle(t *testing.T) {
	router, counts := newTestRouter(t, nil)

	w := doJSON(router, http.MethodPost, "/api/v1/warehouses", `{"code":"north","name":"North DC"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created application.WarehouseDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "NORTH", created.Code)
	assert.True(t, created.Active)

	w = doJSON(router, http.MethodPost, "/api/v1/warehouses", `{"code":"NORTH","name":"Duplicate"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "warehouse_code_taken", decodeError(t, w).Reason)

	w = doJSON(router, http.MethodGet, "/api/v1/warehouses/"+created.WarehouseID, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/api/v1/warehouses/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "RESOURCE_NOT_FOUND", decodeError(t, w).Code)

	w = doJSON(router, http.MethodPost, "/api/v1/warehouses/"+created.WarehouseID+"/deactivate", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/api/v1/warehouses?activeOnly=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	var active []application.WarehouseDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &active))
	assert.Empty(t, active)

	counts.rows[created.WarehouseID] = 2
	w = doJSON(router, http.MethodDelete, "/api/v1/warehouses/"+created.WarehouseID, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "warehouse_in_use", decodeError(t, w).Reason)

	delete(counts.rows, created.WarehouseID)
	w = doJSON(router, http.MethodDelete, "/api/v1/warehouses/"+created.WarehouseID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}
