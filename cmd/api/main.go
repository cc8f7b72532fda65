package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wms-platform/stock-ledger-service/internal/application"
	"github.com/wms-platform/stock-ledger-service/internal/config"
	mongoRepo "github.com/wms-platform/stock-ledger-service/internal/infrastructure/mongodb"
	"github.com/wms-platform/stock-ledger-service/internal/infrastructure/thresholds"
	"github.com/wms-platform/stock-ledger-service/pkg/cloudevents"
	"github.com/wms-platform/stock-ledger-service/pkg/kafka"
	"github.com/wms-platform/stock-ledger-service/pkg/logging"
	"github.com/wms-platform/stock-ledger-service/pkg/metrics"
	"github.com/wms-platform/stock-ledger-service/pkg/middleware"
	"github.com/wms-platform/stock-ledger-service/pkg/mongodb"
	"github.com/wms-platform/stock-ledger-service/pkg/outbox"
	"github.com/wms-platform/stock-ledger-service/pkg/tracing"
)

const serviceName = "stock-ledger-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New(logging.DefaultConfig(serviceName)).WithError(err).Error("Invalid configuration")
		os.Exit(1)
	}

	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.ParseLevel(cfg.LogLevel)
	logConfig.Environment = cfg.Environment
	logConfig.Version = cfg.Version
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting stock-ledger-service API")
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.ServiceVersion = cfg.Version
	tracingConfig.Environment = cfg.Environment
	tracingConfig.OTLPEndpoint = cfg.Tracing.OTLPEndpoint
	tracingConfig.SampleRate = cfg.Tracing.SampleRate
	tracingConfig.Enabled = cfg.Tracing.Enabled

	tracerProvider, err := tracing.Initialize(ctx, tracingConfig)
	if err != nil {
		// Continue without tracing
		logger.WithError(err).Error("Failed to initialize tracing")
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "enabled", tracerProvider.Enabled(), "endpoint", tracingConfig.OTLPEndpoint)
	}

	m := metrics.New(metrics.DefaultConfig(serviceName))

	mongoConfig := mongodb.DefaultConfig()
	mongoConfig.URI = cfg.MongoDB.URI
	mongoConfig.Database = cfg.MongoDB.Database
	mongoConfig.ConnectTimeout = cfg.MongoDB.ConnectTimeout
	mongoConfig.MaxPoolSize = cfg.MongoDB.MaxPoolSize

	mongoClient, err := mongodb.NewClient(ctx, mongoConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	mongoClient.WithMetrics(m)
	defer mongoClient.Close(context.Background())
	logger.Info("Connected to MongoDB", "database", cfg.MongoDB.Database)

	repos := mongoRepo.NewRepositories(mongoClient.Database(), m)
	if err := repos.EnsureIndexes(ctx); err != nil {
		logger.WithError(err).Error("Failed to create indexes")
		os.Exit(1)
	}

	limits, err := thresholds.Load(cfg.ThresholdsFile)
	if err != nil {
		logger.WithError(err).Error("Failed to load stock thresholds", "path", cfg.ThresholdsFile)
		os.Exit(1)
	}

	kafkaConfig := kafka.DefaultConfig()
	kafkaConfig.Brokers = cfg.Kafka.Brokers
	kafkaConfig.ClientID = cfg.Kafka.ClientID
	producer := kafka.NewProductionProducer(kafkaConfig, m, logger)
	defer producer.Close()
	logger.Info("Kafka producer initialized", "brokers", cfg.Kafka.Brokers)

	publisher := outbox.NewPublisher(repos.Outbox, producer, logger, m, &outbox.PublisherConfig{
		PollInterval: cfg.Outbox.PollInterval,
		BatchSize:    cfg.Outbox.BatchSize,
	})
	if err := publisher.Start(ctx); err != nil {
		logger.WithError(err).Error("Failed to start outbox publisher")
		os.Exit(1)
	}
	defer publisher.Stop()

	svc := newServices(mongoClient, repos, limits, cfg, m, logger)

	router := newRouter(svc, m, logger, cfg.Version,
		middleware.ReadyCheck{Name: "mongodb", Check: mongoClient.HealthCheck},
		middleware.ReadyCheck{Name: "outbox", Check: func(context.Context) error {
			if !publisher.IsRunning() {
				return errors.New("publisher stopped")
			}
			return nil
		}},
	)

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
		}
	}()
	logger.Info("Server started", "addr", cfg.ServerAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server stopped")
}

// newServices wires the ledger store and every application service over one transactor
func newServices(
	tx application.Transactor,
	repos *mongoRepo.Repositories,
	limits application.ThresholdProvider,
	cfg *config.Config,
	m *metrics.Metrics,
	logger *logging.Logger,
) *services {
	recorder := application.NewEventRecorder(
		repos.Outbox,
		cloudevents.NewEventFactory(cloudevents.SourceStockLedger),
		cfg.Kafka.EventsTopic,
		cfg.Kafka.AlertsTopic,
	)
	ledger := application.NewLedgerStore(tx, repos.Stocks, repos.Movements, repos.Warehouses, recorder, limits, m, logger)
	stock := application.NewStockService(ledger, repos.Stocks, repos.Movements, limits, m, logger)

	return &services{
		warehouses: application.NewWarehouseService(tx, repos.Warehouses, repos.Stocks, repos.Batches, repos.Transfers, repos.Stocktakes, m, logger),
		batches:    application.NewBatchService(tx, repos.Batches, repos.QualityChecks, repos.Warehouses, recorder, m, logger),
		quality:    application.NewQualityService(tx, repos.Batches, repos.QualityChecks, ledger, recorder, m, logger),
		stock:      stock,
		transfers:  application.NewTransferService(tx, repos.Transfers, repos.Warehouses, ledger, recorder, m, logger),
		stocktakes: application.NewStocktakeService(tx, repos.Stocktakes, repos.Stocks, repos.Warehouses, stock, recorder, m, logger),
	}
}
