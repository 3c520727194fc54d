package handler

import (
	"cbt-question-gen/internal/dto"

	"github.com/gofiber/fiber/v2"
)

// Health godoc
// @Summary Health check
// @Description Liveness probe for uptime monitors
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router /health [get]
func Health(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(dto.HealthResponse{
		Status:  "ok",
		Message: "Server is alive and well!",
	})
}
