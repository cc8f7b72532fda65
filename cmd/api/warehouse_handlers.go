package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/stock-ledger-service/internal/application"
	"github.com/wms-platform/stock-ledger-service/pkg/logging"
	"github.com/wms-platform/stock-ledger-service/pkg/middleware"
)

func createWarehouseHandler(service *application.WarehouseService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Code string `json:"code" binding:"required,not_blank"`
			Name string `json:"name" binding:"required,not_blank"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			respondAppError(c, logger, appErr)
			return
		}

		warehouse, err := service.Create(c.Request.Context(), application.CreateWarehouseCommand{Code: req.Code, Name: req.Name})
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, warehouse)
	}
}

func listWarehousesHandler(service *application.WarehouseService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q struct {
			ActiveOnly bool `form:"activeOnly"`
		}
		if appErr := middleware.BindQuery(c, &q); appErr != nil {
			respondAppError(c, logger, appErr)
			return
		}

		warehouses, err := service.List(c.Request.Context(), q.ActiveOnly)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, warehouses)
	}
}

func getWarehouseHandler(service *application.WarehouseService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		warehouse, err := service.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, warehouse)
	}
}

func deactivateWarehouseHandler(service *application.WarehouseService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		warehouse, err := service.Deactivate(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, warehouse)
	}
}

func deleteWarehouseHandler(service *application.WarehouseService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := service.Delete(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, logger, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
