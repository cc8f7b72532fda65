package mongodb

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/wms-platform/stock-ledger-service/internal/application"
	"github.com/wms-platform/stock-ledger-service/internal/domain"
	"github.com/wms-platform/stock-ledger-service/pkg/cloudevents"
	"github.com/wms-platform/stock-ledger-service/pkg/logging"
	"github.com/wms-platform/stock-ledger-service/pkg/metrics"
	mongoutil "github.com/wms-platform/stock-ledger-service/pkg/mongodb"
	wmstesting "github.com/wms-platform/stock-ledger-service/pkg/testing"
)

type RepositoriesIntegrationTestSuite struct {
	suite.Suite
	container *wmstesting.MongoDBContainer
	client    *mongo.Client
	db        *mongo.Database
	repos     *Repositories
	ledger    *application.LedgerStore
	ctx       context.Context
}

func (s *RepositoriesIntegrationTestSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := wmstesting.NewMongoDBContainer(s.ctx)
	s.Require().NoError(err)
	s.container = container

	client, err := container.GetClient(s.ctx)
	s.Require().NoError(err)
	s.client = client
	s.db = client.Database("stock_ledger_test")

	m := metrics.New(metrics.DefaultConfig("stock-ledger-it"))
	s.repos = NewRepositories(s.db, m)

	tx := mongoutil.Wrap(client, "stock_ledger_test")
	recorder := application.NewEventRecorder(
		s.repos.Outbox,
		cloudevents.NewEventFactory(cloudevents.SourceStockLedger),
		"wms.ledger.events",
		"wms.ledger.alerts",
	)
	s.ledger = application.NewLedgerStore(tx, s.repos.Stocks, s.repos.Movements, s.repos.Warehouses, recorder, nil, m, logging.NewNop())
}

func (s *RepositoriesIntegrationTestSuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Disconnect(s.ctx)
	}
	if s.container != nil {
		s.Require().NoError(s.container.Close(s.ctx))
	}
}

func (s *RepositoriesIntegrationTestSuite) SetupTest() {
	s.Require().NoError(s.repos.EnsureIndexes(s.ctx))
}

func (s *RepositoriesIntegrationTestSuite) TearDownTest() {
	s.Require().NoError(s.db.Drop(s.ctx))
}

func TestRepositoriesIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	suite.Run(t, new(RepositoriesIntegrationTestSuite))
}

func (s *RepositoriesIntegrationTestSuite) TestStockRepository_EnsureIsIdempotent() {
	key := domain.StockKey{WarehouseID: "wh-1", ProductID: "sku-1"}

	first, err := s.repos.Stocks.Ensure(s.ctx, key)
	s.Require().NoError(err)
	second, err := s.repos.Stocks.Ensure(s.ctx, key)
	s.Require().NoError(err)

	s.Equal(first.StockID, second.StockID)
	s.Zero(second.Quantity)
	s.Zero(second.AvailableQuantity)

	n, err := s.repos.Stocks.CountByWarehouse(s.ctx, "wh-1")
	s.Require().NoError(err)
	s.EqualValues(1, n)
}

func (s *RepositoriesIntegrationTestSuite) TestStockRepository_LockBumpsVersion() {
	key := domain.StockKey{WarehouseID: "wh-1", ProductID: "sku-1", VariantID: "red"}

	_, err := s.repos.Stocks.Lock(s.ctx, key)
	s.ErrorIs(err, domain.ErrStockNotFound)

	_, err = s.repos.Stocks.Ensure(s.ctx, key)
	s.Require().NoError(err)

	locked, err := s.repos.Stocks.Lock(s.ctx, key)
	s.Require().NoError(err)
	s.EqualValues(1, locked.Version)

	locked.Quantity, locked.AvailableQuantity = 5, 3
	s.Require().NoError(s.repos.Stocks.Update(s.ctx, locked))

	found, err := s.repos.Stocks.FindByKey(s.ctx, key)
	s.Require().NoError(err)
	s.EqualValues(5, found.Quantity)
	s.EqualValues(3, found.AvailableQuantity)

	missing, err := s.repos.Stocks.FindByKey(s.ctx, domain.StockKey{WarehouseID: "wh-1", ProductID: "sku-1"})
	s.Require().NoError(err)
	s.Nil(missing)
}

func (s *RepositoriesIntegrationTestSuite) TestStockRepository_FindFiltersVariants() {
	for _, v := range []string{"", "red", "blue"} {
		_, err := s.repos.Stocks.Ensure(s.ctx, domain.StockKey{WarehouseID: "wh-1", ProductID: "sku-1", VariantID: v})
		s.Require().NoError(err)
	}

	all, err := s.repos.Stocks.Find(s.ctx, domain.StockFilter{ProductID: "sku-1"})
	s.Require().NoError(err)
	s.Len(all, 3)

	base := ""
	only, err := s.repos.Stocks.Find(s.ctx, domain.StockFilter{ProductID: "sku-1", VariantID: &base})
	s.Require().NoError(err)
	s.Require().Len(only, 1)
	s.Empty(only[0].VariantID)

	page, err := s.repos.Stocks.Find(s.ctx, domain.StockFilter{ProductID: "sku-1", Limit: 2, Offset: 2})
	s.Require().NoError(err)
	s.Len(page, 1)
}

func (s *RepositoriesIntegrationTestSuite) TestQualityCheckRepository_OneOfficialPerBatch() {
	official := &domain.QualityCheck{QCID: "qc-1", BatchID: "batch-1", Status: domain.QCStatusPass, CreatedAt: time.Now().UTC()}
	s.Require().NoError(s.repos.QualityChecks.Insert(s.ctx, official))

	second := &domain.QualityCheck{QCID: "qc-2", BatchID: "batch-1", Status: domain.QCStatusFail, CreatedAt: time.Now().UTC()}
	s.ErrorIs(s.repos.QualityChecks.Insert(s.ctx, second), domain.ErrDuplicateQC)

	for _, id := range []string{"rb-1", "rb-2"} {
		rollback := &domain.QualityCheck{QCID: id, BatchID: "batch-1", IsRollback: true, RollbackOf: "qc-1", CreatedAt: time.Now().UTC()}
		s.Require().NoError(s.repos.QualityChecks.Insert(s.ctx, rollback))
	}

	found, err := s.repos.QualityChecks.FindOfficial(s.ctx, "batch-1")
	s.Require().NoError(err)
	s.Equal("qc-1", found.QCID)

	history, err := s.repos.QualityChecks.FindByBatch(s.ctx, "batch-1")
	s.Require().NoError(err)
	s.Len(history, 3)
}

func (s *RepositoriesIntegrationTestSuite) TestStocktakeRepository_OneLockPerScope() {
	now := time.Now().UTC()
	first := &domain.Stocktake{StocktakeID: "st-1", StocktakeCode: "ST-1", WarehouseID: "wh-1",
		Status: domain.StocktakeStatusInProgress, IsLocked: true, LockScope: "wh-1", CreatedAt: now, UpdatedAt: now}
	s.Require().NoError(s.repos.Stocktakes.Save(s.ctx, first))

	second := &domain.Stocktake{StocktakeID: "st-2", StocktakeCode: "ST-2", WarehouseID: "wh-1",
		Status: domain.StocktakeStatusInProgress, IsLocked: true, LockScope: "wh-1", CreatedAt: now, UpdatedAt: now}
	s.ErrorIs(s.repos.Stocktakes.Save(s.ctx, second), domain.ErrStocktakeInProgress)

	first.IsLocked, first.LockScope = false, ""
	s.Require().NoError(s.repos.Stocktakes.Save(s.ctx, first))
	s.Require().NoError(s.repos.Stocktakes.Save(s.ctx, second))

	locked, err := s.repos.Stocktakes.FindLocked(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(locked, 1)
	s.Equal("st-2", locked[0].StocktakeID)
}

func (s *RepositoriesIntegrationTestSuite) TestWarehouseRepository_UniqueCode() {
	first, err := domain.NewWarehouse("east", "East")
	s.Require().NoError(err)
	s.Require().NoError(s.repos.Warehouses.Save(s.ctx, first))

	dup, err := domain.NewWarehouse("EAST", "East again")
	s.Require().NoError(err)
	s.ErrorIs(s.repos.Warehouses.Save(s.ctx, dup), domain.ErrWarehouseCodeTaken)

	first.Deactivate()
	s.Require().NoError(s.repos.Warehouses.Save(s.ctx, first))

	active, err := s.repos.Warehouses.FindAll(s.ctx, true)
	s.Require().NoError(err)
	s.Empty(active)

	s.Require().NoError(s.repos.Warehouses.Delete(s.ctx, first.WarehouseID))
	gone, err := s.repos.Warehouses.FindByID(s.ctx, first.WarehouseID)
	s.Require().NoError(err)
	s.Nil(gone)
}

func (s *RepositoriesIntegrationTestSuite) TestLedgerStore_ConcurrentOutboundNeverOverdraws() {
	warehouse, err := domain.NewWarehouse("WC", "Concurrency")
	s.Require().NoError(err)
	s.Require().NoError(s.repos.Warehouses.Save(s.ctx, warehouse))

	key := domain.StockKey{WarehouseID: warehouse.WarehouseID, ProductID: "sku-1"}
	_, err = s.ledger.GetOrCreateBalance(s.ctx, key)
	s.Require().NoError(err)
	_, _, err = s.ledger.ApplyMovement(s.ctx, key, domain.MovementRequest{
		Type: domain.MovementQCPass, DeltaQuantity: 10, DeltaAvailable: 10,
	})
	s.Require().NoError(err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		refused   int
	)
	for i := 0; i < 15; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := s.ledger.ApplyMovement(s.ctx, key, domain.MovementRequest{
				Type: domain.MovementOutbound, DeltaQuantity: -1, DeltaAvailable: -1, RequireAvailable: 1,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrInsufficientStock):
				refused++
			default:
				s.Failf("unexpected error", "%v", err)
			}
		}()
	}
	wg.Wait()

	s.Equal(10, succeeded)
	s.Equal(5, refused)

	stock, err := s.repos.Stocks.FindByKey(s.ctx, key)
	s.Require().NoError(err)
	s.Zero(stock.Quantity)
	s.Zero(stock.AvailableQuantity)

	movements, err := s.repos.Movements.FindByKey(s.ctx, key)
	s.Require().NoError(err)
	replay := domain.Replay(movements)
	s.Empty(replay.Breaks)
	s.Zero(replay.Quantity)
	s.Equal(11, replay.Entries)

	pending, err := s.repos.Outbox.CountPending(s.ctx)
	s.Require().NoError(err)
	s.EqualValues(11, pending)
}

func (s *RepositoriesIntegrationTestSuite) TestMovementRepository_FindNewestFirst() {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	for i, typ := range []domain.MovementType{domain.MovementQCPass, domain.MovementOutbound, domain.MovementAdjust} {
		m := &domain.Movement{
			MovementID:   string(typ),
			WarehouseID:  "wh-1",
			ProductID:    "sku-1",
			MovementType: typ,
			StockVersion: int64(i + 1),
			CreatedAt:    base.Add(time.Duration(i) * time.Hour),
		}
		s.Require().NoError(s.repos.Movements.Insert(s.ctx, m))
	}

	found, err := s.repos.Movements.Find(s.ctx, domain.MovementFilter{WarehouseID: "wh-1"})
	s.Require().NoError(err)
	s.Require().Len(found, 3)
	s.Equal(domain.MovementAdjust, found[0].MovementType)

	from := base.Add(30 * time.Minute)
	windowed, err := s.repos.Movements.Find(s.ctx, domain.MovementFilter{From: &from, MovementType: domain.MovementOutbound})
	s.Require().NoError(err)
	s.Len(windowed, 1)
}
