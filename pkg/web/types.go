// Package web provides the HTTP request and response types of the dashboard API.
package web

import (
	"time"

	"github.com/moogar0880/problems"
)

// SuccessResponse wraps every successful payload.
type SuccessResponse struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorDetail is an RFC 7807 problem extended with the dashboard error code.
// Details is only filled outside production.
type ErrorDetail struct {
	*problems.Problem

	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ErrorResponse represents a standardized API error response.
type ErrorResponse struct {
	Success   bool        `json:"success"`
	Error     ErrorDetail `json:"error"`
	Timestamp time.Time   `json:"timestamp"`
}

// ListExecutionsRequest holds the query parameters of GET /api/executions.
type ListExecutionsRequest struct {
	WorkflowID string `validate:"omitempty,max=256"`
	Limit      int    `validate:"gte=1"`
}

// MessageResponse is the payload of actions without a resource to return.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func success(data any) SuccessResponse {
	return SuccessResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}
