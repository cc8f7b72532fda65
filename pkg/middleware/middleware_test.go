package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/wms-platform/stock-ledger-service/pkg/errors"
	"github.com/wms-platform/stock-ledger-service/pkg/logging"
	"github.com/wms-platform/stock-ledger-service/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestEngine(m *metrics.Metrics) *gin.Engine {
	router := gin.New()
	Setup(router, DefaultConfig("ledger-test", slog.New(slog.NewTextHandler(io.Discard, nil))))
	if m != nil {
		router.Use(MetricsMiddleware(m))
	}
	return router
}

func TestReadinessCheckReportsEachDependency(t *testing.T) {
	router := newTestEngine(nil)
	router.GET("/ready", ReadinessCheck("ledger-test",
		ReadyCheck{Name: "mongodb", Check: func(context.Context) error { return nil }},
		ReadyCheck{Name: "outbox", Check: func(context.Context) error { return errors.New("publisher stopped") }},
	))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body.Status)
	assert.Equal(t, map[string]string{"mongodb": "ok", "outbox": "publisher stopped"}, body.Checks)
}

func TestActorAndCorrelationReachRequestContext(t *testing.T) {
	router := newTestEngine(nil)
	var actor, correlation string
	router.GET("/probe", func(c *gin.Context) {
		actor = GetActor(c, "system")
		correlation = logging.CorrelationIDFromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set(HeaderActor, "clerk-7")
	req.Header.Set(HeaderCorrelationID, "corr-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "clerk-7", actor)
	assert.Equal(t, "corr-42", correlation)
	assert.Equal(t, "corr-42", w.Header().Get(HeaderCorrelationID))
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
}

func TestActorFallsBackWithoutHeader(t *testing.T) {
	router := newTestEngine(nil)
	var actor string
	router.GET("/probe", func(c *gin.Context) {
		actor = GetActor(c, "system")
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/probe", nil))
	assert.Equal(t, "system", actor)
}

func TestErrorResponsesCountedByCode(t *testing.T) {
	m := metrics.New(metrics.DefaultConfig("ledger-test"))
	router := newTestEngine(m)
	router.POST("/stock/outbound", func(c *gin.Context) {
		AbortWithAppError(c, apperrors.ErrBusinessRule("insufficient_stock", "not enough available stock"))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/stock/outbound", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body APIErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "insufficient_stock", body.Reason)

	counter := m.APIErrors.WithLabelValues("ledger-test", "/stock/outbound", apperrors.CodeBusinessRule)
	assert.Equal(t, float64(1), testutil.ToFloat64(counter))
}

func TestUnknownRouteUsesErrorBody(t *testing.T) {
	router := newTestEngine(nil)
	router.GET("/stock", func(c *gin.Context) {})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/stock", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	var body APIErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ROUTE_NOT_FOUND", body.Code)
}

func TestLogLevelByErrorKind(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, logLevel(apperrors.ErrBusinessRule("batch_locked", "batch is locked")))
	assert.Equal(t, slog.LevelInfo, logLevel(apperrors.ErrConflict("warehouse_in_use", "warehouse holds stock")))
	assert.Equal(t, slog.LevelWarn, logLevel(apperrors.ErrValidation("quantity must be positive")))
	assert.Equal(t, slog.LevelError, logLevel(apperrors.ErrServiceUnavailable("mongodb")))
	assert.Equal(t, slog.LevelError, logLevel(apperrors.ErrInternal("")))
}
