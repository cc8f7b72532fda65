package application

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/wms-platform/stock-ledger-service/internal/domain"
	"github.com/wms-platform/stock-ledger-service/pkg/cloudevents"
	"github.com/wms-platform/stock-ledger-service/pkg/logging"
	"github.com/wms-platform/stock-ledger-service/pkg/metrics"
	"github.com/wms-platform/stock-ledger-service/pkg/outbox"
)

// memStore holds every collection. Readers get copies so that services only
// change state through the repositories, the way they would against MongoDB.
type memStore struct {
	mu         sync.Mutex
	stocks     map[domain.StockKey]*domain.Stock
	movements  []*domain.Movement
	batches    map[string]*domain.InboundBatch
	checks     []*domain.QualityCheck
	transfers  map[string]*domain.InternalTransfer
	stocktakes map[string]*domain.Stocktake
	warehouses map[string]*domain.Warehouse
	outbox     []*outbox.OutboxEvent

	outboxErr error
}

func newMemStore() *memStore {
	return &memStore{
		stocks:     make(map[domain.StockKey]*domain.Stock),
		batches:    make(map[string]*domain.InboundBatch),
		transfers:  make(map[string]*domain.InternalTransfer),
		stocktakes: make(map[string]*domain.Stocktake),
		warehouses: make(map[string]*domain.Warehouse),
	}
}

func (m *memStore) snapshot() *memStore {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := newMemStore()
	for k, v := range m.stocks {
		snap.stocks[k] = cloneStock(v)
	}
	snap.movements = append(snap.movements, m.movements...)
	for k, v := range m.batches {
		snap.batches[k] = cloneBatch(v)
	}
	snap.checks = append(snap.checks, m.checks...)
	for k, v := range m.transfers {
		snap.transfers[k] = cloneTransfer(v)
	}
	for k, v := range m.stocktakes {
		snap.stocktakes[k] = cloneStocktake(v)
	}
	for k, v := range m.warehouses {
		w := *v
		snap.warehouses[k] = &w
	}
	snap.outbox = append(snap.outbox, m.outbox...)
	return snap
}

func (m *memStore) restore(snap *memStore) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stocks = snap.stocks
	m.movements = snap.movements
	m.batches = snap.batches
	m.checks = snap.checks
	m.transfers = snap.transfers
	m.stocktakes = snap.stocktakes
	m.warehouses = snap.warehouses
	m.outbox = snap.outbox
}

func cloneStock(s *domain.Stock) *domain.Stock {
	c := *s
	return &c
}

func cloneBatch(b *domain.InboundBatch) *domain.InboundBatch {
	c := *b
	c.Items = append([]domain.InboundBatchItem(nil), b.Items...)
	c.DomainEvents = nil
	return &c
}

func cloneTransfer(t *domain.InternalTransfer) *domain.InternalTransfer {
	c := *t
	c.Items = append([]domain.InternalTransferItem(nil), t.Items...)
	c.DomainEvents = nil
	return &c
}

func cloneStocktake(s *domain.Stocktake) *domain.Stocktake {
	c := *s
	c.Items = make([]domain.StocktakeItem, len(s.Items))
	for i, item := range s.Items {
		c.Items[i] = item
		if item.ActualQuantity != nil {
			actual := *item.ActualQuantity
			c.Items[i].ActualQuantity = &actual
		}
	}
	c.DomainEvents = nil
	return &c
}

type txKey struct{}

// fakeTransactor serializes transactions and rolls the store back when fn fails
type fakeTransactor struct {
	mu    sync.Mutex
	store *memStore
}

func (t *fakeTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	snap := t.store.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

type fakeStockRepo struct{ store *memStore }

func (r *fakeStockRepo) Ensure(ctx context.Context, key domain.StockKey) (*domain.Stock, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	row, ok := r.store.stocks[key]
	if !ok {
		row = domain.NewStock(key)
		r.store.stocks[key] = row
	}
	return cloneStock(row), nil
}

func (r *fakeStockRepo) Lock(ctx context.Context, key domain.StockKey) (*domain.Stock, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	row, ok := r.store.stocks[key]
	if !ok {
		return nil, domain.ErrStockNotFound
	}
	row.Version++
	return cloneStock(row), nil
}

func (r *fakeStockRepo) Update(ctx context.Context, stock *domain.Stock) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.stocks[stock.Key()] = cloneStock(stock)
	return nil
}

func (r *fakeStockRepo) FindByKey(ctx context.Context, key domain.StockKey) (*domain.Stock, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	row, ok := r.store.stocks[key]
	if !ok {
		return nil, nil
	}
	return cloneStock(row), nil
}

func (r *fakeStockRepo) Find(ctx context.Context, filter domain.StockFilter) ([]*domain.Stock, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]*domain.Stock, 0)
	for _, row := range r.store.stocks {
		if filter.WarehouseID != "" && row.WarehouseID != filter.WarehouseID {
			continue
		}
		if filter.ProductID != "" && row.ProductID != filter.ProductID {
			continue
		}
		if filter.VariantID != nil && row.VariantID != *filter.VariantID {
			continue
		}
		out = append(out, cloneStock(row))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key().String() < out[j].Key().String() })
	return out, nil
}

func (r *fakeStockRepo) CountByWarehouse(ctx context.Context, warehouseID string) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var n int64
	for _, row := range r.store.stocks {
		if row.WarehouseID == warehouseID {
			n++
		}
	}
	return n, nil
}

type fakeMovementRepo struct{ store *memStore }

func (r *fakeMovementRepo) Insert(ctx context.Context, m *domain.Movement) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c := *m
	r.store.movements = append(r.store.movements, &c)
	return nil
}

func (r *fakeMovementRepo) Find(ctx context.Context, filter domain.MovementFilter) ([]*domain.Movement, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]*domain.Movement, 0)
	for i := len(r.store.movements) - 1; i >= 0; i-- {
		m := r.store.movements[i]
		if filter.WarehouseID != "" && m.WarehouseID != filter.WarehouseID {
			continue
		}
		if filter.ProductID != "" && m.ProductID != filter.ProductID {
			continue
		}
		if filter.MovementType != "" && m.MovementType != filter.MovementType {
			continue
		}
		if filter.BatchID != "" && m.BatchID != filter.BatchID {
			continue
		}
		if filter.ReferenceID != "" && m.ReferenceID != filter.ReferenceID {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *fakeMovementRepo) FindByKey(ctx context.Context, key domain.StockKey) ([]*domain.Movement, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]*domain.Movement, 0)
	for _, m := range r.store.movements {
		if m.Key() == key {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StockVersion < out[j].StockVersion })
	return out, nil
}

type fakeBatchRepo struct{ store *memStore }

func (r *fakeBatchRepo) Save(ctx context.Context, b *domain.InboundBatch) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.batches[b.BatchID] = cloneBatch(b)
	return nil
}

func (r *fakeBatchRepo) FindByID(ctx context.Context, batchID string) (*domain.InboundBatch, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	b, ok := r.store.batches[batchID]
	if !ok {
		return nil, nil
	}
	return cloneBatch(b), nil
}

func (r *fakeBatchRepo) Find(ctx context.Context, filter domain.BatchFilter) ([]*domain.InboundBatch, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]*domain.InboundBatch, 0)
	for _, b := range r.store.batches {
		if filter.WarehouseID != "" && b.WarehouseID != filter.WarehouseID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		out = append(out, cloneBatch(b))
	}
	return out, nil
}

type fakeQualityCheckRepo struct{ store *memStore }

func (r *fakeQualityCheckRepo) Insert(ctx context.Context, qc *domain.QualityCheck) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if !qc.IsRollback {
		for _, existing := range r.store.checks {
			if existing.BatchID == qc.BatchID && !existing.IsRollback {
				return domain.ErrDuplicateQC
			}
		}
	}
	c := *qc
	r.store.checks = append(r.store.checks, &c)
	return nil
}

func (r *fakeQualityCheckRepo) FindOfficial(ctx context.Context, batchID string) (*domain.QualityCheck, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, qc := range r.store.checks {
		if qc.BatchID == batchID && !qc.IsRollback {
			c := *qc
			return &c, nil
		}
	}
	return nil, nil
}

func (r *fakeQualityCheckRepo) FindByBatch(ctx context.Context, batchID string) ([]*domain.QualityCheck, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]*domain.QualityCheck, 0)
	for _, qc := range r.store.checks {
		if qc.BatchID == batchID {
			c := *qc
			out = append(out, &c)
		}
	}
	return out, nil
}

type fakeTransferRepo struct{ store *memStore }

func (r *fakeTransferRepo) Save(ctx context.Context, t *domain.InternalTransfer) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.transfers[t.TransferID] = cloneTransfer(t)
	return nil
}

func (r *fakeTransferRepo) FindByID(ctx context.Context, transferID string) (*domain.InternalTransfer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	t, ok := r.store.transfers[transferID]
	if !ok {
		return nil, nil
	}
	return cloneTransfer(t), nil
}

func (r *fakeTransferRepo) Find(ctx context.Context, filter domain.TransferFilter) ([]*domain.InternalTransfer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]*domain.InternalTransfer, 0)
	for _, t := range r.store.transfers {
		if filter.WarehouseID != "" && t.FromWarehouseID != filter.WarehouseID && t.ToWarehouseID != filter.WarehouseID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		out = append(out, cloneTransfer(t))
	}
	return out, nil
}

type fakeStocktakeRepo struct{ store *memStore }

func (r *fakeStocktakeRepo) Save(ctx context.Context, st *domain.Stocktake) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if st.IsLocked {
		for id, other := range r.store.stocktakes {
			if id != st.StocktakeID && other.IsLocked && other.LockScope == st.LockScope {
				return domain.ErrStocktakeInProgress
			}
		}
	}
	r.store.stocktakes[st.StocktakeID] = cloneStocktake(st)
	return nil
}

func (r *fakeStocktakeRepo) FindByID(ctx context.Context, stocktakeID string) (*domain.Stocktake, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	st, ok := r.store.stocktakes[stocktakeID]
	if !ok {
		return nil, nil
	}
	return cloneStocktake(st), nil
}

func (r *fakeStocktakeRepo) FindLocked(ctx context.Context) ([]*domain.Stocktake, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]*domain.Stocktake, 0)
	for _, st := range r.store.stocktakes {
		if st.IsLocked {
			out = append(out, cloneStocktake(st))
		}
	}
	return out, nil
}

func (r *fakeStocktakeRepo) Find(ctx context.Context, warehouseID string, status domain.StocktakeStatus, limit, offset int64) ([]*domain.Stocktake, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]*domain.Stocktake, 0)
	for _, st := range r.store.stocktakes {
		if warehouseID != "" && st.WarehouseID != warehouseID {
			continue
		}
		if status != "" && st.Status != status {
			continue
		}
		out = append(out, cloneStocktake(st))
	}
	return out, nil
}

type fakeWarehouseRepo struct{ store *memStore }

func (r *fakeWarehouseRepo) Save(ctx context.Context, w *domain.Warehouse) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, other := range r.store.warehouses {
		if id != w.WarehouseID && other.Code == w.Code {
			return domain.ErrWarehouseCodeTaken
		}
	}
	c := *w
	r.store.warehouses[w.WarehouseID] = &c
	return nil
}

func (r *fakeWarehouseRepo) FindByID(ctx context.Context, warehouseID string) (*domain.Warehouse, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	w, ok := r.store.warehouses[warehouseID]
	if !ok {
		return nil, nil
	}
	c := *w
	return &c, nil
}

func (r *fakeWarehouseRepo) FindAll(ctx context.Context, activeOnly bool) ([]*domain.Warehouse, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]*domain.Warehouse, 0)
	for _, w := range r.store.warehouses {
		if activeOnly && !w.Active {
			continue
		}
		c := *w
		out = append(out, &c)
	}
	return out, nil
}

func (r *fakeWarehouseRepo) Delete(ctx context.Context, warehouseID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.warehouses, warehouseID)
	return nil
}

type fakeOutbox struct{ store *memStore }

func (o *fakeOutbox) SaveAll(ctx context.Context, events []*outbox.OutboxEvent) error {
	o.store.mu.Lock()
	defer o.store.mu.Unlock()
	if o.store.outboxErr != nil {
		return o.store.outboxErr
	}
	o.store.outbox = append(o.store.outbox, events...)
	return nil
}

type fakeThresholds map[domain.StockKey]int64

func (f fakeThresholds) MinThreshold(key domain.StockKey) (int64, bool) {
	v, ok := f[key]
	return v, ok
}

// harness wires every service against one memStore
type harness struct {
	store      *memStore
	thresholds fakeThresholds
	ledger     *LedgerStore
	warehouses *WarehouseService
	batches    *BatchService
	quality    *QualityService
	stock      *StockService
	transfers  *TransferService
	stocktakes *StocktakeService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := newMemStore()
	tx := &fakeTransactor{store: store}
	logger := logging.NewNop()
	m := metrics.New(metrics.DefaultConfig("stock-ledger-test"))
	thresholds := fakeThresholds{}

	stocks := &fakeStockRepo{store: store}
	movements := &fakeMovementRepo{store: store}
	batches := &fakeBatchRepo{store: store}
	checks := &fakeQualityCheckRepo{store: store}
	transfers := &fakeTransferRepo{store: store}
	stocktakes := &fakeStocktakeRepo{store: store}
	warehouses := &fakeWarehouseRepo{store: store}

	recorder := NewEventRecorder(&fakeOutbox{store: store}, cloudevents.NewEventFactory(cloudevents.SourceStockLedger), "events", "alerts")
	ledger := NewLedgerStore(tx, stocks, movements, warehouses, recorder, thresholds, m, logger)
	stock := NewStockService(ledger, stocks, movements, thresholds, m, logger)

	return &harness{
		store:      store,
		thresholds: thresholds,
		ledger:     ledger,
		warehouses: NewWarehouseService(tx, warehouses, stocks, batches, transfers, stocktakes, m, logger),
		batches:    NewBatchService(tx, batches, checks, warehouses, recorder, m, logger),
		quality:    NewQualityService(tx, batches, checks, ledger, recorder, m, logger),
		stock:      stock,
		transfers:  NewTransferService(tx, transfers, warehouses, ledger, recorder, m, logger),
		stocktakes: NewStocktakeService(tx, stocktakes, stocks, warehouses, stock, recorder, m, logger),
	}
}

func (h *harness) warehouse(t *testing.T, code string) string {
	t.Helper()
	w, err := h.warehouses.Create(context.Background(), CreateWarehouseCommand{Code: code, Name: "Warehouse " + code})
	if err != nil {
		t.Fatalf("create warehouse %s: %v", code, err)
	}
	return w.WarehouseID
}

// seed puts qty units of product on the shelf through a passed quality check
func (h *harness) seed(t *testing.T, warehouseID, productID string, qty int64) {
	t.Helper()
	ctx := context.Background()

	batch, err := h.batches.Create(ctx, CreateBatchCommand{
		WarehouseID: warehouseID,
		SupplierID:  "supplier-1",
		Items:       []domain.BatchItemSpec{{ProductID: productID, QuantityExpected: qty}},
		CreatedBy:   "clerk",
	})
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}
	if _, err := h.batches.Receive(ctx, ReceiveBatchCommand{BatchID: batch.BatchID, ReceivedDate: time.Now()}); err != nil {
		t.Fatalf("receive batch: %v", err)
	}
	if _, err := h.quality.Create(ctx, CreateQualityCheckCommand{BatchID: batch.BatchID, Inspector: "qa", Status: domain.QCStatusPass, Score: 100}); err != nil {
		t.Fatalf("quality check: %v", err)
	}
}

func (h *harness) balance(warehouseID, productID string) *domain.Stock {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	row := h.store.stocks[domain.StockKey{WarehouseID: warehouseID, ProductID: productID}]
	if row == nil {
		return nil
	}
	return cloneStock(row)
}

func (h *harness) movementsOf(warehouseID, productID string) []*domain.Movement {
	out, _ := (&fakeMovementRepo{store: h.store}).FindByKey(context.Background(), domain.StockKey{WarehouseID: warehouseID, ProductID: productID})
	return out
}

func (h *harness) outboxTypes() []string {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	out := make([]string, 0, len(h.store.outbox))
	for _, e := range h.store.outbox {
		out = append(out, e.EventType)
	}
	return out
}
