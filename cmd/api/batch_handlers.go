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

func createBatchHandler(service *application.BatchService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			WarehouseID string `json:"warehouseId" binding:"required"`
			SupplierID  string `json:"supplierId" binding:"required"`
			Items       []struct {
				ProductID        string `json:"productId" binding:"required"`
				VariantID        string `json:"variantId"`
				QuantityExpected int64  `json:"quantityExpected" binding:"gt=0"`
			} `json:"items" binding:"required,min=1,dive"`
			Notes     string `json:"notes"`
			CreatedBy string `json:"createdBy"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			respondAppError(c, logger, appErr)
			return
		}

		items := make([]domain.BatchItemSpec, 0, len(req.Items))
		for _, it := range req.Items {
			items = append(items, domain.BatchItemSpec{
				ProductID:        it.ProductID,
				VariantID:        it.VariantID,
				QuantityExpected: it.QuantityExpected,
			})
		}

		batch, err := service.Create(c.Request.Context(), application.CreateBatchCommand{
			WarehouseID: req.WarehouseID,
			SupplierID:  req.SupplierID,
			Items:       items,
			Notes:       req.Notes,
			CreatedBy:   actorOf(c, req.CreatedBy),
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, batch)
	}
}

func listBatchesHandler(service *application.BatchService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q struct {
			pageQuery
			WarehouseID string `form:"warehouseId"`
			SupplierID  string `form:"supplierId"`
			Status      string `form:"status"`
		}
		if appErr := middleware.BindQuery(c, &q); appErr != nil {
			respondAppError(c, logger, appErr)
			return
		}

		batches, err := service.List(c.Request.Context(), domain.BatchFilter{
			WarehouseID: q.WarehouseID,
			SupplierID:  q.SupplierID,
			Status:      domain.BatchStatus(q.Status),
			Limit:       q.Limit,
			Offset:      q.Offset,
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, batches)
	}
}

func getBatchHandler(service *application.BatchService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		batch, err := service.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, batch)
	}
}

func receiveBatchHandler(service *application.BatchService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ReceivedDate *time.Time `json:"receivedDate"`
			Items        []struct {
				ItemID           string `json:"itemId"`
				ProductID        string `json:"productId"`
				VariantID        string `json:"variantId"`
				QuantityReceived int64  `json:"quantityReceived" binding:"gte=0"`
			} `json:"items" binding:"dive"`
			Actor string `json:"actor"`
		}
		if appErr := bindOptional(c, &req); appErr != nil {
			respondAppError(c, logger, appErr)
			return
		}

		receipts := make([]domain.ItemReceipt, 0, len(req.Items))
		for _, it := range req.Items {
			receipts = append(receipts, domain.ItemReceipt{
				ItemID:           it.ItemID,
				ProductID:        it.ProductID,
				VariantID:        it.VariantID,
				QuantityReceived: it.QuantityReceived,
			})
		}
		cmd := application.ReceiveBatchCommand{
			BatchID:      c.Param("id"),
			ItemReceipts: receipts,
			Actor:        actorOf(c, req.Actor),
		}
		if req.ReceivedDate != nil {
			cmd.ReceivedDate = *req.ReceivedDate
		}

		batch, err := service.Receive(c.Request.Context(), cmd)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, batch)
	}
}

func completeBatchHandler(service *application.BatchService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		batch, err := service.Complete(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, batch)
	}
}

func cancelBatchHandler(service *application.BatchService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reasonBody
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			respondAppError(c, logger, appErr)
			return
		}

		batch, err := service.Cancel(c.Request.Context(), application.CancelBatchCommand{
			BatchID: c.Param("id"),
			Reason:  req.Reason,
			Actor:   actorOf(c, req.Actor),
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, batch)
	}
}

func createQualityCheckHandler(service *application.QualityService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Inspector      string     `json:"inspector" binding:"required,not_blank"`
			CheckDate      *time.Time `json:"checkDate"`
			Status         string     `json:"status" binding:"required,qc_status"`
			Score          int        `json:"score" binding:"gte=0,lte=100"`
			QuantityPassed int64      `json:"quantityPassed" binding:"gte=0"`
			QuantityFailed int64      `json:"quantityFailed" binding:"gte=0"`
			Issues         []string   `json:"issues"`
			Items          []struct {
				ItemID         string `json:"itemId"`
				ProductID      string `json:"productId"`
				VariantID      string `json:"variantId"`
				QuantityPassed int64  `json:"quantityPassed" binding:"gte=0"`
				QuantityFailed int64  `json:"quantityFailed" binding:"gte=0"`
			} `json:"items" binding:"dive"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			respondAppError(c, logger, appErr)
			return
		}

		items := make([]domain.QCItemResult, 0, len(req.Items))
		for _, it := range req.Items {
			items = append(items, domain.QCItemResult{
				ItemID:         it.ItemID,
				ProductID:      it.ProductID,
				VariantID:      it.VariantID,
				QuantityPassed: it.QuantityPassed,
				QuantityFailed: it.QuantityFailed,
			})
		}
		cmd := application.CreateQualityCheckCommand{
			BatchID:        c.Param("id"),
			Inspector:      req.Inspector,
			Status:         domain.QCStatus(req.Status),
			Score:          req.Score,
			QuantityPassed: req.QuantityPassed,
			QuantityFailed: req.QuantityFailed,
			Issues:         req.Issues,
			Items:          items,
		}
		if req.CheckDate != nil {
			cmd.CheckDate = *req.CheckDate
		}

		qc, err := service.Create(c.Request.Context(), cmd)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, qc)
	}
}

func getQualityCheckHandler(service *application.QualityService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		history, err := service.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, history)
	}
}

func rollbackQualityCheckHandler(service *application.QualityService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Inspector   string `json:"inspector"`
			Reason      string `json:"reason" binding:"required,not_blank"`
			Corrections []struct {
				ItemID          string `json:"itemId"`
				ProductID       string `json:"productId"`
				VariantID       string `json:"variantId"`
				QuantityRevoked int64  `json:"quantityRevoked" binding:"gt=0"`
			} `json:"corrections" binding:"required,min=1,dive"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			respondAppError(c, logger, appErr)
			return
		}

		corrections := make([]domain.RollbackCorrection, 0, len(req.Corrections))
		for _, it := range req.Corrections {
			corrections = append(corrections, domain.RollbackCorrection{
				ItemID:          it.ItemID,
				ProductID:       it.ProductID,
				VariantID:       it.VariantID,
				QuantityRevoked: it.QuantityRevoked,
			})
		}

		qc, err := service.Rollback(c.Request.Context(), application.RollbackQualityCheckCommand{
			BatchID:     c.Param("id"),
			Inspector:   actorOf(c, req.Inspector),
			Reason:      req.Reason,
			Corrections: corrections,
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, qc)
	}
}
