package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/wms-platform/stock-ledger-service/internal/config"
	mongoRepo "github.com/wms-platform/stock-ledger-service/internal/infrastructure/mongodb"
	"github.com/wms-platform/stock-ledger-service/pkg/logging"
	"github.com/wms-platform/stock-ledger-service/pkg/mongodb"
)

// Creates every collection index the ledger relies on. Safe to run repeatedly;
// existing indexes with the same definition are left alone.

var timeout = flag.Duration("timeout", 2*time.Minute, "Overall deadline for index creation")

func main() {
	flag.Parse()

	logger := logging.New(logging.DefaultConfig("stock-ledger-migrate"))

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Error("Invalid configuration")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	mongoConfig := mongodb.DefaultConfig()
	mongoConfig.URI = cfg.MongoDB.URI
	mongoConfig.Database = cfg.MongoDB.Database
	mongoConfig.ConnectTimeout = cfg.MongoDB.ConnectTimeout

	client, err := mongodb.NewClient(ctx, mongoConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer client.Close(context.Background())

	logger.Info("Creating indexes", "database", cfg.MongoDB.Database)
	if err := mongoRepo.NewRepositories(client.Database(), nil).EnsureIndexes(ctx); err != nil {
		logger.WithError(err).Error("Index creation failed")
		os.Exit(1)
	}
	logger.Info("Indexes created")
}
