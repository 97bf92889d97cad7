package web

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/n8n-dashboard/pkg/n8n"
	"github.com/dukex/n8n-dashboard/pkg/services"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

// Error codes carried in ErrorDetail.Code.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeNotFound           = "NOT_FOUND"
	CodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"
	CodeUpstream           = "UPSTREAM_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeInternal           = "INTERNAL_ERROR"
)

const (
	messageAPIKeyRequired  = "API key required"
	messageTooManyRequests = "Too many requests, please try again later"
	messageUnexpected      = "An unexpected error occurred"
)

type statusCode struct {
	status int
	code   string
}

var kindStatus = map[n8n.Kind]statusCode{
	n8n.KindUnauthorized:    {fiber.StatusUnauthorized, CodeUnauthorized},
	n8n.KindNotFound:        {fiber.StatusNotFound, CodeNotFound},
	n8n.KindRateLimited:     {fiber.StatusTooManyRequests, CodeRateLimitExceeded},
	n8n.KindUpstreamFailure: {fiber.StatusBadGateway, CodeUpstream},
	n8n.KindUnavailable:     {fiber.StatusServiceUnavailable, CodeServiceUnavailable},
	n8n.KindUnknown:         {fiber.StatusInternalServerError, CodeInternal},
}

func writeError(c fiber.Ctx, status int, code, message string, cause error, exposeDetails bool) error {
	problem := problems.NewStatusProblem(status).
		WithInstance(c.Path()).
		WithType(strings.ToLower(code)).
		WithDetail(message)

	detail := ErrorDetail{
		Problem: problem,
		Code:    code,
		Message: message,
	}

	if exposeDetails && cause != nil {
		detail.Details = cause.Error()
	}

	return c.Status(status).JSON(ErrorResponse{
		Success:   false,
		Error:     detail,
		Timestamp: time.Now().UTC(),
	})
}

func badRequest(c fiber.Ctx, message string, cause error, exposeDetails bool) error {
	return writeError(c, fiber.StatusBadRequest, CodeValidation, message, cause, exposeDetails)
}

// handleServiceError maps service and upstream errors onto the error envelope.
func handleServiceError(c fiber.Ctx, logger *slog.Logger, err error, exposeDetails bool) error {
	if services.IsValidationError(err) {
		message := err.Error()

		var serviceErr *services.ServiceError
		if errors.As(err, &serviceErr) && serviceErr.Message != "" {
			message = serviceErr.Message
		}

		return badRequest(c, message, err, exposeDetails)
	}

	kind := n8n.KindOf(err)
	mapping := kindStatus[kind]

	message := n8n.MessageOf(err)
	if kind == n8n.KindUnknown {
		logger.ErrorContext(c.Context(), "Unexpected error", "path", c.Path(), "error", err)

		var classified *n8n.Error
		if !errors.As(err, &classified) {
			message = messageUnexpected
		}
	}

	return writeError(c, mapping.status, mapping.code, message, err, exposeDetails)
}

// ErrorHandler renders errors that escape the handlers, such as unknown routes.
func ErrorHandler(logger *slog.Logger, exposeDetails bool) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if !errors.As(err, &fiberErr) {
			return handleServiceError(c, logger, err, exposeDetails)
		}

		code := CodeInternal

		switch fiberErr.Code {
		case fiber.StatusBadRequest:
			code = CodeValidation
		case fiber.StatusUnauthorized:
			code = CodeUnauthorized
		case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
			code = CodeNotFound
		case fiber.StatusTooManyRequests:
			code = CodeRateLimitExceeded
		}

		return writeError(c, fiberErr.Code, code, fiberErr.Message, nil, exposeDetails)
	}
}

// RateLimitReached answers requests rejected by the limiter middleware.
func RateLimitReached(c fiber.Ctx) error {
	return writeError(c, fiber.StatusTooManyRequests, CodeRateLimitExceeded, messageTooManyRequests, nil, false)
}
