package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/finsight/analytics-engine/buildinfo"
	"github.com/finsight/analytics-engine/database"
	"github.com/finsight/analytics-engine/domain"
)

const healthCheckTimeout = 3 * time.Second

// HealthCheck handles the /health endpoint
// @Summary Health check endpoint
// @Description Check the health status of the service and its dependencies
// @Tags Health
// @Produce json
// @Success 200 {object} domain.HealthResponse "Service is healthy"
// @Success 503 {object} domain.HealthResponse "Service is unhealthy"
// @Router /health [get]
func HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()

	response := domain.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		BuildInfo: buildinfo.GetInfo(),
	}

	response.Services.ClickHouse = checkDependency(ctx, database.ClickHouseHealthCheck)
	response.Services.Redis = checkDependency(ctx, database.RedisHealthCheck)

	if response.Services.ClickHouse.Status != "healthy" || response.Services.Redis.Status != "healthy" {
		response.Status = "unhealthy"
		return c.Status(fiber.StatusServiceUnavailable).JSON(response)
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

func checkDependency(ctx context.Context, ping func(context.Context) error) domain.ServiceStatus {
	started := time.Now()
	if err := ping(ctx); err != nil {
		return domain.ServiceStatus{
			Status:  "unhealthy",
			Message: err.Error(),
		}
	}
	return domain.ServiceStatus{
		Status:  "healthy",
		Latency: time.Since(started).String(),
	}
}
