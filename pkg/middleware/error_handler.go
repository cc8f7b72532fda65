package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/stock-ledger-service/pkg/errors"
)

// APIErrorResponse is the body of every non-2xx response
type APIErrorResponse struct {
	Code      string            `json:"code"`
	Reason    string            `json:"reason,omitempty"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	Retryable bool              `json:"retryable,omitempty"`
	RequestID string            `json:"requestId,omitempty"`
	Timestamp string            `json:"timestamp"`
	Path      string            `json:"path"`
}

func newAPIErrorResponse(c *gin.Context, appErr *errors.AppError) APIErrorResponse {
	c.Set(ContextKeyErrorCode, appErr.Code)
	return APIErrorResponse{
		Code:      appErr.Code,
		Reason:    appErr.Reason,
		Message:   appErr.Message,
		Details:   appErr.Details,
		Retryable: appErr.Retryable,
		RequestID: GetRequestID(c),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      c.Request.URL.Path,
	}
}

// ErrorResponder renders errors for one request and logs them
type ErrorResponder struct {
	ctx    *gin.Context
	logger *slog.Logger
}

func NewErrorResponder(ctx *gin.Context, logger *slog.Logger) *ErrorResponder {
	return &ErrorResponder{ctx: ctx, logger: logger}
}

// RespondWithError renders err; anything that is not an AppError becomes a 500
func (r *ErrorResponder) RespondWithError(err error) {
	r.RespondWithAppError(errors.FromError(err))
}

func (r *ErrorResponder) RespondWithAppError(appErr *errors.AppError) {
	r.log(appErr)
	r.ctx.JSON(appErr.HTTPStatus, newAPIErrorResponse(r.ctx, appErr))
}

// Refusals such as a rejected outbound log at info; server faults at error.
func logLevel(appErr *errors.AppError) slog.Level {
	switch {
	case appErr.HTTPStatus >= http.StatusInternalServerError:
		return slog.LevelError
	case appErr.Code == errors.CodeBusinessRule || appErr.Code == errors.CodeConflict:
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}

func (r *ErrorResponder) log(appErr *errors.AppError) {
	c := r.ctx
	attrs := []any{
		"code", appErr.Code,
		"status", appErr.HTTPStatus,
		"message", appErr.Message,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"requestId", GetRequestID(c),
	}
	if appErr.Reason != "" {
		attrs = append(attrs, "reason", appErr.Reason)
	}
	if len(appErr.Details) > 0 {
		attrs = append(attrs, "details", appErr.Details)
	}
	if appErr.Err != nil {
		attrs = append(attrs, "error", appErr.Err.Error())
	}

	r.logger.Log(c.Request.Context(), logLevel(appErr), "Request rejected", attrs...)
}

// AbortWithAppError stops the chain and renders appErr without logging it
func AbortWithAppError(c *gin.Context, appErr *errors.AppError) {
	c.AbortWithStatusJSON(appErr.HTTPStatus, newAPIErrorResponse(c, appErr))
}
