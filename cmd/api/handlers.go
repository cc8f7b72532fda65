package main

import (
	"github.com/gin-gonic/gin"

	"github.com/wms-platform/stock-ledger-service/pkg/errors"
	"github.com/wms-platform/stock-ledger-service/pkg/logging"
	"github.com/wms-platform/stock-ledger-service/pkg/middleware"
)

type pageQuery struct {
	Limit  int64 `form:"limit" binding:"gte=0,lte=500"`
	Offset int64 `form:"offset" binding:"gte=0"`
}

// actorBody is accepted by transitions that take nothing but who performed them
type actorBody struct {
	Actor string `json:"actor"`
}

type reasonBody struct {
	Reason string `json:"reason" binding:"required,not_blank"`
	Actor  string `json:"actor"`
}

func respondError(c *gin.Context, logger *logging.Logger, err error) {
	middleware.NewErrorResponder(c, logger.Logger).RespondWithError(err)
}

func respondAppError(c *gin.Context, logger *logging.Logger, appErr *errors.AppError) {
	middleware.NewErrorResponder(c, logger.Logger).RespondWithAppError(appErr)
}

// bindOptional binds a JSON body when one was sent
func bindOptional(c *gin.Context, obj interface{}) *errors.AppError {
	if c.Request.ContentLength == 0 {
		return nil
	}
	return middleware.BindAndValidate(c, obj)
}

// variantQuery distinguishes an absent variantId (every variant) from an empty one (base product)
func variantQuery(c *gin.Context) *string {
	if v, ok := c.GetQuery("variantId"); ok {
		return &v
	}
	return nil
}

// actorOf prefers the actor named in the body over the X-Actor-ID header
func actorOf(c *gin.Context, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	return middleware.GetActor(c, "")
}
