package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/stock-ledger-service/internal/application"
	"github.com/wms-platform/stock-ledger-service/internal/domain"
	"github.com/wms-platform/stock-ledger-service/pkg/logging"
	"github.com/wms-platform/stock-ledger-service/pkg/middleware"
)

func listStockHandler(service *application.StockService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q struct {
			pageQuery
			WarehouseID string `form:"warehouseId"`
			ProductID   string `form:"productId"`
		}
		if appErr := middleware.BindQuery(c, &q); appErr != nil {
			respondAppError(c, logger, appErr)
			return
		}

		stock, err := service.ListStock(c.Request.Context(), domain.StockFilter{
			WarehouseID: q.WarehouseID,
			ProductID:   q.ProductID,
			VariantID:   variantQuery(c),
			Limit:       q.Limit,
			Offset:      q.Offset,
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, stock)
	}
}

func availabilityHandler(service *application.StockService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q struct {
			WarehouseID string `form:"warehouseId"`
			ProductID   string `form:"productId" binding:"required"`
			Quantity    int64  `form:"quantity" binding:"required,gt=0"`
		}
		if appErr := middleware.BindQuery(c, &q); appErr != nil {
			respondAppError(c, logger, appErr)
			return
		}

		result, err := service.CheckAvailability(c.Request.Context(), application.AvailabilityQuery{
			WarehouseID: q.WarehouseID,
			ProductID:   q.ProductID,
			VariantID:   variantQuery(c),
			Quantity:    q.Quantity,
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func lowStockHandler(service *application.StockService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := service.LowStock(c.Request.Context(), c.Query("warehouseId"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

func outboundHandler(service *application.StockService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			WarehouseID   string `json:"warehouseId" binding:"required"`
			ProductID     string `json:"productId" binding:"required"`
			VariantID     string `json:"variantId"`
			Quantity      int64  `json:"quantity" binding:"required,gt=0"`
			ReferenceType string `json:"referenceType"`
			ReferenceID   string `json:"referenceId"`
			Actor         string `json:"actor"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			respondAppError(c, logger, appErr)
			return
		}

		result, err := service.Outbound(c.Request.Context(), application.OutboundCommand{
			WarehouseID:   req.WarehouseID,
			ProductID:     req.ProductID,
			VariantID:     req.VariantID,
			Quantity:      req.Quantity,
			ReferenceType: req.ReferenceType,
			ReferenceID:   req.ReferenceID,
			Actor:         actorOf(c, req.Actor),
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func adjustHandler(service *application.StockService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			WarehouseID  string `json:"warehouseId" binding:"required"`
			ProductID    string `json:"productId" binding:"required"`
			VariantID    string `json:"variantId"`
			NewQuantity  *int64 `json:"newQuantity" binding:"required,gte=0"`
			NewAvailable *int64 `json:"newAvailable" binding:"required,gte=0"`
			Reason       string `json:"reason" binding:"required,not_blank"`
			ReferenceID  string `json:"referenceId"`
			Actor        string `json:"actor"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			respondAppError(c, logger, appErr)
			return
		}

		result, err := service.Adjust(c.Request.Context(), application.AdjustCommand{
			WarehouseID:  req.WarehouseID,
			ProductID:    req.ProductID,
			VariantID:    req.VariantID,
			NewQuantity:  *req.NewQuantity,
			NewAvailable: *req.NewAvailable,
			Reason:       req.Reason,
			ReferenceID:  req.ReferenceID,
			Actor:        actorOf(c, req.Actor),
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func restockHandler(service *application.StockService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			WarehouseID string `json:"warehouseId" binding:"required"`
			ProductID   string `json:"productId" binding:"required"`
			VariantID   string `json:"variantId"`
			Quantity    int64  `json:"quantity" binding:"required,gt=0"`
			ReferenceID string `json:"referenceId"`
			Reason      string `json:"reason"`
			Actor       string `json:"actor"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			respondAppError(c, logger, appErr)
			return
		}

		result, err := service.Restock(c.Request.Context(), application.RestockCommand{
			WarehouseID: req.WarehouseID,
			ProductID:   req.ProductID,
			VariantID:   req.VariantID,
			Quantity:    req.Quantity,
			ReferenceID: req.ReferenceID,
			Reason:      req.Reason,
			Actor:       actorOf(c, req.Actor),
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func listMovementsHandler(service *application.StockService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q struct {
			pageQuery
			WarehouseID  string     `form:"warehouseId"`
			ProductID    string     `form:"productId"`
			MovementType string     `form:"movementType" binding:"omitempty,movement_type"`
			BatchID      string     `form:"batchId"`
			ReferenceID  string     `form:"referenceId"`
			From         *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
			To           *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
		}
		if appErr := middleware.BindQuery(c, &q); appErr != nil {
			respondAppError(c, logger, appErr)
			return
		}

		movements, err := service.ListMovements(c.Request.Context(), domain.MovementFilter{
			WarehouseID:  q.WarehouseID,
			ProductID:    q.ProductID,
			VariantID:    variantQuery(c),
			MovementType: domain.MovementType(q.MovementType),
			BatchID:      q.BatchID,
			ReferenceID:  q.ReferenceID,
			From:         q.From,
			To:           q.To,
			Limit:        q.Limit,
			Offset:       q.Offset,
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, movements)
	}
}
