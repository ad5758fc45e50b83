package handlers

import (
	"unem-umt/internal/config"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	ping func() error
}

// NewHealthHandler creates a new health handler. ping checks the database.
func NewHealthHandler(ping func() error) *HealthHandler {
	return &HealthHandler{ping: ping}
}

// Root handles root endpoint
// @Summary Root endpoint
// @Description Returns API status
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	mode := ""
	if config.AppConfig != nil {
		mode = config.AppConfig.AppMode
	}
	return c.JSON(fiber.Map{
		"status":  "running",
		"message": "🚀 UNEM/UMT API v1.0 is running",
		"mode":    mode,
		"docs":    "/swagger/index.html",
	})
}

// HealthCheck handles health check
// @Summary Health check
// @Description Check API and database health
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	dbStatus := "healthy"
	status := fiber.StatusOK
	if h.ping != nil {
		if err := h.ping(); err != nil {
			dbStatus = "unhealthy"
			status = fiber.StatusServiceUnavailable
		}
	}

	return c.Status(status).JSON(fiber.Map{
		"status": "ok",
		"checks": fiber.Map{
			"api":      "healthy",
			"database": dbStatus,
		},
	})
}

// APIInfo handles API v1 info
// @Summary API v1 Info
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1 [get]
func (h *HealthHandler) APIInfo(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "UNEM/UMT API v1.0",
		"version": "1.0.0",
	})
}
