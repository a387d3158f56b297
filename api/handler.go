package api

import (
	"github.com/gofiber/fiber/v2"
)

// AnalyticsHandler is the HTTP surface of the analytics engine.
type AnalyticsHandler interface {
	GetDashboardData(ctx *fiber.Ctx) error
	GenerateReport(ctx *fiber.Ctx) error
	ExportReport(ctx *fiber.Ctx) error
	PostEvent(ctx *fiber.Ctx) error
}
