package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck проверяет одну внешнюю зависимость
type HealthCheck func(ctx context.Context) error

// HealthHandler отвечает на /health
type HealthHandler struct {
	checks map[string]HealthCheck
}

// NewHealthHandler создает обработчик; checks - имя зависимости и ее проверка
func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Health возвращает 200, если все проверки прошли, иначе 503
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	details := make(gin.H, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			details[name] = err.Error()
			continue
		}
		details[name] = "ok"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{"status": state, "checks": details})
}
