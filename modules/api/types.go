package api

import "github.com/example/task-store/domain/task"

// ErrorResponse is the generic error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ValidationErrorResponse carries field-level validation detail.
type ValidationErrorResponse struct {
	Error   string            `json:"error"`
	Details []task.FieldError `json:"details"`
}

// EndpointInfo describes one route in the service listing.
type EndpointInfo struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

// RootResponse is the service listing served at /.
type RootResponse struct {
	Message   string                  `json:"message"`
	Endpoints map[string]EndpointInfo `json:"endpoints"`
}

// HealthResponse reports the aggregated module health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
