package domain

import (
	"time"

	"github.com/finsight/analytics-engine/buildinfo"
)

// Response status values. The engine never returns partial success.
const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// Report id prefixes identify the calling context.
const (
	ReportIDPrefixDashboard = "DASH-"
	ReportIDPrefixReport    = "RPT-"
)

// AnalyticsResponse is the output of both the dashboard and report paths.
type AnalyticsResponse struct {
	ReportID    string         `json:"report_id" example:"DASH-7f9c24e8"`
	Status      string         `json:"status" example:"SUCCESS"`
	GeneratedAt time.Time      `json:"generated_at" example:"2025-11-22T10:00:00Z"`
	Data        map[string]any `json:"data" swaggertype:"object"`
}

// IngestResponse is returned after posting an event to the ingestion endpoint.
type IngestResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"Event accepted"`
}

// ErrorResponse is the envelope for request failures on the query API.
type ErrorResponse struct {
	Status  string `json:"status" example:"FAILED"`
	Message string `json:"message" example:"metric type is required"`
}

// HealthResponse represents the health status of the service.
type HealthResponse struct {
	Status    string              `json:"status" example:"healthy"`
	Timestamp time.Time           `json:"timestamp" example:"2025-11-22T10:00:00Z"`
	BuildInfo buildinfo.Info      `json:"buildInfo"`
	Services  ServiceHealthStatus `json:"services"`
}

// ServiceHealthStatus represents the health status of dependent services.
type ServiceHealthStatus struct {
	ClickHouse ServiceStatus `json:"clickhouse"`
	Redis      ServiceStatus `json:"redis"`
}

// ServiceStatus represents the status of a single service.
type ServiceStatus struct {
	Status  string `json:"status" example:"healthy"`
	Latency string `json:"latency,omitempty" example:"1.2ms"`
	Message string `json:"message,omitempty" example:""`
}
