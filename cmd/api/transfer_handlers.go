package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/stock-ledger-service/internal/application"
	"github.com/wms-platform/stock-ledger-service/internal/domain"
	"github.com/wms-platform/stock-ledger-service/pkg/logging"
	"github.com/wms-platform/stock-ledger-service/pkg/middleware"
)

func createTransferHandler(service *application.TransferService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			FromWarehouseID string `json:"fromWarehouseId" binding:"required"`
			ToWarehouseID   string `json:"toWarehouseId" binding:"required,nefield=FromWarehouseID"`
			Items           []struct {
				ProductID string `json:"productId" binding:"required"`
				VariantID string `json:"variantId"`
				Quantity  int64  `json:"quantity" binding:"gt=0"`
			} `json:"items" binding:"required,min=1,dive"`
			Notes     string `json:"notes"`
			CreatedBy string `json:"createdBy"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			respondAppError(c, logger, appErr)
			return
		}

		items := make([]domain.TransferItemSpec, 0, len(req.Items))
		for _, it := range req.Items {
			items = append(items, domain.TransferItemSpec{ProductID: it.ProductID, VariantID: it.VariantID, Quantity: it.Quantity})
		}

		transfer, err := service.Create(c.Request.Context(), application.CreateTransferCommand{
			FromWarehouseID: req.FromWarehouseID,
			ToWarehouseID:   req.ToWarehouseID,
			Items:           items,
			Notes:           req.Notes,
			CreatedBy:       actorOf(c, req.CreatedBy),
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, transfer)
	}
}

func listTransfersHandler(service *application.TransferService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q struct {
			pageQuery
			WarehouseID string `form:"warehouseId"`
			Status      string `form:"status"`
		}
		if appErr := middleware.BindQuery(c, &q); appErr != nil {
			respondAppError(c, logger, appErr)
			return
		}

		transfers, err := service.List(c.Request.Context(), domain.TransferFilter{
			WarehouseID: q.WarehouseID,
			Status:      domain.TransferStatus(q.Status),
			Limit:       q.Limit,
			Offset:      q.Offset,
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, transfers)
	}
}

func getTransferHandler(service *application.TransferService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		transfer, err := service.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, transfer)
	}
}

func submitTransferHandler(service *application.TransferService, logger *logging.Logger) gin.HandlerFunc {
	return transferStepHandler(service.Submit, logger)
}

func shipTransferHandler(service *application.TransferService, logger *logging.Logger) gin.HandlerFunc {
	return transferStepHandler(service.Ship, logger)
}

func transferStepHandler(step func(ctx context.Context, transferID, actor string) (*application.TransferDTO, error), logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req actorBody
		if appErr := bindOptional(c, &req); appErr != nil {
			respondAppError(c, logger, appErr)
			return
		}

		transfer, err := step(c.Request.Context(), c.Param("id"), actorOf(c, req.Actor))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, transfer)
	}
}

func receiveTransferHandler(service *application.TransferService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Items []struct {
				ProductID        string `json:"productId" binding:"required"`
				VariantID        string `json:"variantId"`
				QuantityReceived int64  `json:"quantityReceived" binding:"gte=0"`
			} `json:"items" binding:"dive"`
			Actor string `json:"actor"`
		}
		if appErr := bindOptional(c, &req); appErr != nil {
			respondAppError(c, logger, appErr)
			return
		}

		receipts := make([]domain.TransferReceipt, 0, len(req.Items))
		for _, it := range req.Items {
			receipts = append(receipts, domain.TransferReceipt{
				ProductID:        it.ProductID,
				VariantID:        it.VariantID,
				QuantityReceived: it.QuantityReceived,
			})
		}

		transfer, err := service.Receive(c.Request.Context(), application.ReceiveTransferCommand{
			TransferID: c.Param("id"),
			Receipts:   receipts,
			Actor:      actorOf(c, req.Actor),
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, transfer)
	}
}

func cancelTransferHandler(service *application.TransferService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reasonBody
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			respondAppError(c, logger, appErr)
			return
		}

		transfer, err := service.Cancel(c.Request.Context(), application.CancelTransferCommand{
			TransferID: c.Param("id"),
			Reason:     req.Reason,
			Actor:      actorOf(c, req.Actor),
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, transfer)
	}
}
