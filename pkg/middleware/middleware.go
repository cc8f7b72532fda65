package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Config struct {
	Logger         *slog.Logger
	ServiceName    string
	EnableCORS     bool
	TrustedProxies []string
}

func DefaultConfig(serviceName string, logger *slog.Logger) *Config {
	return &Config{
		Logger:      logger,
		ServiceName: serviceName,
		EnableCORS:  true,
	}
}

// Setup installs the ledger's middleware chain. Order matters: recovery
// wraps everything and IDs must exist before the request logger runs.
func Setup(router *gin.Engine, config *Config) {
	InitValidator()

	if len(config.TrustedProxies) > 0 {
		_ = router.SetTrustedProxies(config.TrustedProxies)
	}

	router.Use(
		Recovery(config.Logger),
		RequestID(),
		CorrelationID(),
		Actor(),
		Logger(config.Logger),
	)
	if config.EnableCORS {
		router.Use(CORS())
	}
	router.Use(ContentType())

	router.HandleMethodNotAllowed = true
	router.NoRoute(routeError(http.StatusNotFound, "ROUTE_NOT_FOUND", "The requested resource was not found"))
	router.NoMethod(routeError(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "The request method is not supported for this resource"))
}

func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, "+HeaderRequestID+", "+HeaderCorrelationID+", "+HeaderActor)
		h.Set("Access-Control-Expose-Headers", HeaderRequestID+", "+HeaderCorrelationID)
		h.Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// ReadyCheck is one dependency probed by /ready
type ReadyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthCheck answers liveness; it never touches dependencies
func HealthCheck(serviceName, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": serviceName,
			"version": version,
		})
	}
}

// ReadinessCheck runs every check with a short deadline and reports each
// one. Any failure makes the whole probe 503.
func ReadinessCheck(serviceName string, checks ...ReadyCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for _, rc := range checks {
			if err := rc.Check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[rc.Name] = err.Error()
				continue
			}
			results[rc.Name] = "ok"
		}

		state := "ready"
		if status != http.StatusOK {
			state = "not ready"
		}
		c.JSON(status, gin.H{
			"status":  state,
			"service": serviceName,
			"checks":  results,
		})
	}
}

func routeError(status int, code, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(status, APIErrorResponse{
			Code:      code,
			Message:   message,
			RequestID: GetRequestID(c),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Path:      c.Request.URL.Path,
		})
	}
}
