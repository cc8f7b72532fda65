package main

import (
	"github.com/gin-gonic/gin"

	"github.com/wms-platform/stock-ledger-service/internal/application"
	"github.com/wms-platform/stock-ledger-service/pkg/logging"
	"github.com/wms-platform/stock-ledger-service/pkg/metrics"
	"github.com/wms-platform/stock-ledger-service/pkg/middleware"
)

type services struct {
	warehouses *application.WarehouseService
	batches    *application.BatchService
	quality    *application.QualityService
	stock      *application.StockService
	transfers  *application.TransferService
	stocktakes *application.StocktakeService
}

func newRouter(svc *services, m *metrics.Metrics, logger *logging.Logger, version string, checks ...middleware.ReadyCheck) *gin.Engine {
	router := gin.New()

	middleware.Setup(router, middleware.DefaultConfig(serviceName, logger.Logger))
	router.Use(middleware.MetricsMiddleware(m))
	router.Use(middleware.TracingMiddleware(serviceName))

	router.GET("/health", middleware.HealthCheck(serviceName, version))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, checks...))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	api := router.Group("/api/v1")

	warehouses := api.Group("/warehouses")
	{
		warehouses.POST("", createWarehouseHandler(svc.warehouses, logger))
		warehouses.GET("", listWarehousesHandler(svc.warehouses, logger))
		warehouses.GET("/:id", getWarehouseHandler(svc.warehouses, logger))
		warehouses.POST("/:id/deactivate", deactivateWarehouseHandler(svc.warehouses, logger))
		warehouses.DELETE("/:id", deleteWarehouseHandler(svc.warehouses, logger))
	}

	batches := api.Group("/batches")
	{
		batches.POST("", createBatchHandler(svc.batches, logger))
		batches.GET("", listBatchesHandler(svc.batches, logger))
		batches.GET("/:id", getBatchHandler(svc.batches, logger))
		batches.POST("/:id/receive", receiveBatchHandler(svc.batches, logger))
		batches.POST("/:id/complete", completeBatchHandler(svc.batches, logger))
		batches.POST("/:id/cancel", cancelBatchHandler(svc.batches, logger))

		batches.POST("/:id/quality-check", createQualityCheckHandler(svc.quality, logger))
		batches.GET("/:id/quality-check", getQualityCheckHandler(svc.quality, logger))
		batches.POST("/:id/quality-check/rollback", rollbackQualityCheckHandler(svc.quality, logger))
	}

	stock := api.Group("/stock")
	{
		stock.GET("", listStockHandler(svc.stock, logger))
		stock.GET("/availability", availabilityHandler(svc.stock, logger))
		stock.GET("/low", lowStockHandler(svc.stock, logger))
		stock.POST("/outbound", outboundHandler(svc.stock, logger))
		stock.POST("/adjust", adjustHandler(svc.stock, logger))
		stock.POST("/restock", restockHandler(svc.stock, logger))
	}
	api.GET("/movements", listMovementsHandler(svc.stock, logger))

	transfers := api.Group("/transfers")
	{
		transfers.POST("", createTransferHandler(svc.transfers, logger))
		transfers.GET("", listTransfersHandler(svc.transfers, logger))
		transfers.GET("/:id", getTransferHandler(svc.transfers, logger))
		transfers.POST("/:id/submit", submitTransferHandler(svc.transfers, logger))
		transfers.POST("/:id/ship", shipTransferHandler(svc.transfers, logger))
		transfers.POST("/:id/receive", receiveTransferHandler(svc.transfers, logger))
		transfers.POST("/:id/cancel", cancelTransferHandler(svc.transfers, logger))
	}

	stocktakes := api.Group("/stocktakes")
	{
		stocktakes.POST("", createStocktakeHandler(svc.stocktakes, logger))
		stocktakes.GET("", listStocktakesHandler(svc.stocktakes, logger))
		stocktakes.GET("/:id", getStocktakeHandler(svc.stocktakes, logger))
		stocktakes.POST("/:id/start", startStocktakeHandler(svc.stocktakes, logger))
		stocktakes.POST("/:id/items", updateStocktakeItemsHandler(svc.stocktakes, logger))
		stocktakes.POST("/:id/complete", completeStocktakeHandler(svc.stocktakes, logger))
		stocktakes.POST("/:id/approve", approveStocktakeHandler(svc.stocktakes, logger))
		stocktakes.POST("/:id/cancel", cancelStocktakeHandler(svc.stocktakes, logger))
	}

	return router
}
