// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bookforge-api/internal/infrastructure/persistence/postgres"
	"bookforge-api/internal/infrastructure/persistence/redis"
)

const readyCheckTimeout = 2 * time.Second

// HealthHandler 健康检查处理器
type HealthHandler struct {
	checks []dependencyCheck
}

type dependencyCheck struct {
	name  string
	check func(context.Context) error
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(pg *postgres.Client, redisClient *redis.Client) *HealthHandler {
	h := &HealthHandler{}
	if pg != nil {
		h.checks = append(h.checks, dependencyCheck{name: "postgres", check: pg.HealthCheck})
	}
	if redisClient != nil {
		h.checks = append(h.checks, dependencyCheck{name: "redis", check: redisClient.HealthCheck})
	}
	return h
}

type checkResult struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

// Health 健康检查接口
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Live 存活检查接口
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready 就绪检查接口，所有依赖可用才接收流量
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyCheckTimeout)
	defer cancel()

	results := make(map[string]*checkResult, len(h.checks))
	ready := len(h.checks) > 0

	for _, dep := range h.checks {
		start := time.Now()
		err := dep.check(ctx)

		result := &checkResult{
			Status:    "ok",
			LatencyMs: time.Since(start).Milliseconds(),
		}
		if err != nil {
			result.Status = "error"
			result.Error = err.Error()
			ready = false
		}
		results[dep.name] = result
	}

	status := "ok"
	code := http.StatusOK
	if !ready {
		status = "not_ready"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "checks": results})
}
