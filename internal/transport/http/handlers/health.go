package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/benshawuk/react-api-starter-kit/internal/infra/redis"
)

// HealthHandler reports process liveness and dependency readiness.
type HealthHandler struct {
	pool      *pgxpool.Pool
	redis     *redis.Client
	logger    *zap.Logger
	startedAt time.Time
}

func NewHealthHandler(pool *pgxpool.Pool, redisClient *redis.Client, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		pool:      pool,
		redis:     redisClient,
		logger:    logger,
		startedAt: time.Now().UTC(),
	}
}

// Status handles GET /healthz.
func (h *HealthHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		StartedAt: h.startedAt,
	})
}

// Ready handles GET /readyz. It fails when postgres or redis is unreachable
// so the service is pulled from rotation before requests start erroring.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{"postgres": "ok", "redis": "ok"}
	healthy := true

	if h.pool != nil {
		if err := h.pool.Ping(ctx); err != nil {
			h.logger.Warn("postgres readiness check failed", zap.Error(err))
			checks["postgres"] = "unavailable"
			healthy = false
		}
	}
	if h.redis != nil {
		if err := h.redis.HealthCheck(ctx); err != nil {
			h.logger.Warn("redis readiness check failed", zap.Error(err))
			checks["redis"] = "unavailable"
			healthy = false
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": checks})
}
