package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/finsight/analytics-engine/domain"
	"github.com/finsight/analytics-engine/export"
	"github.com/finsight/analytics-engine/services"
)

var _ AnalyticsHandler = (*analyticsHandler)(nil)

type analyticsHandler struct {
	service   domain.AnalyticsService
	ingestion *services.IngestionService
}

// NewAnalyticsHandler builds the HTTP handler over the engine services.
func NewAnalyticsHandler(service domain.AnalyticsService, ingestion *services.IngestionService) AnalyticsHandler {
	return &analyticsHandler{service: service, ingestion: ingestion}
}

// GetDashboardData serves cached dashboard analytics
// @Summary Dashboard analytics
// @Description Serve a dashboard analytics request through the query cache
// @Tags Analytics
// @Accept json
// @Produce json
// @Param request body domain.AnalyticsRequest true "Analytics request"
// @Success 200 {object} domain.AnalyticsResponse "Analytics response"
// @Failure 400 {object} domain.ErrorResponse "Invalid request"
// @Failure 503 {object} domain.ErrorResponse "Store unavailable"
// @Router /analytics/dashboard [post]
func (h *analyticsHandler) GetDashboardData(ctx *fiber.Ctx) error {
	var request domain.AnalyticsRequest
	if err := ctx.BodyParser(&request); err != nil {
		return badRequest(ctx, "invalid request body: "+err.Error())
	}

	response, err := h.service.GetDashboardData(ctx.Context(), &request)
	if err != nil {
		return mapServiceError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(response)
}

// GenerateReport generates a full analytics report
// @Summary Generate report
// @Description Run the uncached report path with audit write-back
// @Tags Analytics
// @Accept json
// @Produce json
// @Param request body domain.AnalyticsRequest true "Analytics request"
// @Success 200 {object} domain.AnalyticsResponse "Analytics response"
// @Failure 400 {object} domain.ErrorResponse "Invalid request"
// @Failure 503 {object} domain.ErrorResponse "Store unavailable"
// @Router /analytics/reports [post]
func (h *analyticsHandler) GenerateReport(ctx *fiber.Ctx) error {
	var request domain.AnalyticsRequest
	if err := ctx.BodyParser(&request); err != nil {
		return badRequest(ctx, "invalid request body: "+err.Error())
	}

	response, err := h.service.GenerateReport(ctx.Context(), &request)
	if err != nil {
		return mapServiceError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(response)
}

// ExportReport generates a report and returns it as a workbook
// @Summary Export report
// @Description Generate a report and download it as an xlsx workbook
// @Tags Analytics
// @Accept json
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param request body domain.AnalyticsRequest true "Analytics request"
// @Success 200 {file} file "Workbook"
// @Failure 400 {object} domain.ErrorResponse "Invalid request"
// @Router /analytics/reports/export [post]
func (h *analyticsHandler) ExportReport(ctx *fiber.Ctx) error {
	var request domain.AnalyticsRequest
	if err := ctx.BodyParser(&request); err != nil {
		return badRequest(ctx, "invalid request body: "+err.Error())
	}

	response, err := h.service.GenerateReport(ctx.Context(), &request)
	if err != nil {
		return mapServiceError(ctx, err)
	}

	workbook, err := export.WriteXLSX(response)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(domain.ErrorResponse{
			Status:  domain.StatusFailed,
			Message: "failed to render workbook: " + err.Error(),
		})
	}

	ctx.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set(fiber.HeaderContentDisposition, `attachment; filename="`+response.ReportID+`.xlsx"`)
	return ctx.Send(workbook)
}

// PostEvent ingests a single raw event
// @Summary Ingest event
// @Description Submit a raw analytics event through the buffered ingestion path
// @Tags Events
// @Accept json
// @Produce json
// @Param event body object true "Raw event payload"
// @Success 202 {object} domain.IngestResponse "Event accepted"
// @Failure 400 {object} domain.IngestResponse "Invalid request body"
// @Failure 503 {object} domain.IngestResponse "Buffer full"
// @Router /events [post]
func (h *analyticsHandler) PostEvent(ctx *fiber.Ctx) error {
	var raw map[string]any
	if err := ctx.BodyParser(&raw); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(domain.IngestResponse{
			Success: false,
			Message: "Invalid request body: " + err.Error(),
		})
	}

	accepted, err := h.ingestion.Ingest(ctx.Context(), raw, "api")
	if err != nil {
		if errors.Is(err, services.ErrBufferFull) || errors.Is(err, services.ErrStopped) {
			return ctx.Status(fiber.StatusServiceUnavailable).JSON(domain.IngestResponse{
				Success: false,
				Message: "Service temporarily unavailable, please try again later",
			})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(domain.IngestResponse{
			Success: false,
			Message: "Internal server error: " + err.Error(),
		})
	}
	if !accepted {
		// Unusable payloads are skipped, not failed.
		return ctx.Status(fiber.StatusAccepted).JSON(domain.IngestResponse{
			Success: true,
			Message: "Event skipped: no usable identity fields",
		})
	}

	return ctx.Status(fiber.StatusAccepted).JSON(domain.IngestResponse{
		Success: true,
		Message: "Event accepted",
	})
}

func badRequest(ctx *fiber.Ctx, message string) error {
	return ctx.Status(fiber.StatusBadRequest).JSON(domain.ErrorResponse{
		Status:  domain.StatusFailed,
		Message: message,
	})
}

// mapServiceError translates the engine's error taxonomy onto HTTP statuses.
func mapServiceError(ctx *fiber.Ctx, err error) error {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return badRequest(ctx, validationErr.Error())
	}

	var storeErr *domain.StoreError
	if errors.As(err, &storeErr) {
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(domain.ErrorResponse{
			Status:  domain.StatusFailed,
			Message: err.Error(),
		})
	}

	return ctx.Status(fiber.StatusInternalServerError).JSON(domain.ErrorResponse{
		Status:  domain.StatusFailed,
		Message: err.Error(),
	})
}
