package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/stock-ledger-service/internal/application"
	"github.com/wms-platform/stock-ledger-service/internal/domain"
	"github.com/wms-platform/stock-ledger-service/pkg/logging"
	"github.com/wms-platform/stock-ledger-service/pkg/middleware"
)

func createStocktakeHandler(service *application.StocktakeService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			WarehouseID string `json:"warehouseId"`
			CreatedBy   string `json:"createdBy"`
		}
		if appErr := bindOptional(c, &req); appErr != nil {
			respondAppError(c, logger, appErr)
			return
		}

		st, err := service.Create(c.Request.Context(), application.CreateStocktakeCommand{
			WarehouseID: req.WarehouseID,
			CreatedBy:   actorOf(c, req.CreatedBy),
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, st)
	}
}

func listStocktakesHandler(service *application.StocktakeService, logger *logging.Logger) gin.HandlerFunc {
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

		list, err := service.List(c.Request.Context(), q.WarehouseID, domain.StocktakeStatus(q.Status), q.Limit, q.Offset)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

func getStocktakeHandler(service *application.StocktakeService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := service.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, st)
	}
}

func startStocktakeHandler(service *application.StocktakeService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := service.Start(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, st)
	}
}

func updateStocktakeItemsHandler(service *application.StocktakeService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Items []struct {
				WarehouseID    string `json:"warehouseId"`
				ProductID      string `json:"productId" binding:"required"`
				VariantID      string `json:"variantId"`
				BatchID        string `json:"batchId"`
				ActualQuantity *int64 `json:"actualQuantity" binding:"required,gte=0"`
				Reason         string `json:"reason"`
			} `json:"items" binding:"required,min=1,dive"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			respondAppError(c, logger, appErr)
			return
		}

		counts := make([]domain.StocktakeCount, 0, len(req.Items))
		for _, it := range req.Items {
			counts = append(counts, domain.StocktakeCount{
				WarehouseID:    it.WarehouseID,
				ProductID:      it.ProductID,
				VariantID:      it.VariantID,
				BatchID:        it.BatchID,
				ActualQuantity: *it.ActualQuantity,
				Reason:         it.Reason,
			})
		}

		st, err := service.UpdateItems(c.Request.Context(), application.UpdateStocktakeItemsCommand{
			StocktakeID: c.Param("id"),
			Counts:      counts,
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, st)
	}
}

func completeStocktakeHandler(service *application.StocktakeService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := service.Complete(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, st)
	}
}

func approveStocktakeHandler(service *application.StocktakeService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Approver string `json:"approver"`
		}
		if appErr := bindOptional(c, &req); appErr != nil {
			respondAppError(c, logger, appErr)
			return
		}

		st, err := service.Approve(c.Request.Context(), application.ApproveStocktakeCommand{
			StocktakeID: c.Param("id"),
			Approver:    actorOf(c, req.Approver),
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, st)
	}
}

func cancelStocktakeHandler(service *application.StocktakeService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reasonBody
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			respondAppError(c, logger, appErr)
			return
		}

		st, err := service.Cancel(c.Request.Context(), application.CancelStocktakeCommand{
			StocktakeID: c.Param("id"),
			Reason:      req.Reason,
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, st)
	}
}
