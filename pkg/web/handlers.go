// Package web provides HTTP handlers and REST API endpoints for the n8n dashboard.
package web

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/dukex/n8n-dashboard/pkg/models"
	"github.com/dukex/n8n-dashboard/pkg/n8n"
	"github.com/dukex/n8n-dashboard/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// MaxExecutionLimit caps the number of executions a single request may ask for.
const MaxExecutionLimit = n8n.DefaultExecutionLimit

// Dashboard is the query surface the handlers serve. *services.Dashboard implements it.
type Dashboard interface {
	ListWorkflows(ctx context.Context) ([]models.Workflow, error)
	GetWorkflow(ctx context.Context, id string) (models.Workflow, error)
	ListExecutions(ctx context.Context, filters n8n.ExecutionFilters) ([]models.Execution, error)
	GetExecutionDetail(ctx context.Context, id string) (services.ExecutionDetail, error)
	ClearCache()
}

var _ Dashboard = (*services.Dashboard)(nil)

type APIHandlers struct {
	dashboard     Dashboard
	validator     *validator.Validate
	logger        *slog.Logger
	exposeDetails bool
}

func NewAPIHandlers(
	dashboard Dashboard,
	validator *validator.Validate,
	logger *slog.Logger,
	exposeDetails bool,
) *APIHandlers {
	return &APIHandlers{
		dashboard:     dashboard,
		validator:     validator,
		logger:        logger,
		exposeDetails: exposeDetails,
	}
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.dashboard.ListWorkflows(c.Context())
	if err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(success(workflows))
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	workflow, err := h.dashboard.GetWorkflow(c.Context(), c.Params("workflowId"))
	if err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(success(workflow))
}

func (h *APIHandlers) GetExecutions(c fiber.Ctx) error {
	req, err := h.parseListExecutionsRequest(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error(), err, h.exposeDetails)
	}

	executions, err := h.dashboard.ListExecutions(c.Context(), n8n.ExecutionFilters{
		WorkflowID: req.WorkflowID,
		Limit:      req.Limit,
	})
	if err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(success(executions))
}

// parseListExecutionsRequest reads workflowId and limit. A missing limit
// means the default; anything above MaxExecutionLimit is clamped.
func (h *APIHandlers) parseListExecutionsRequest(c fiber.Ctx) (*ListExecutionsRequest, error) {
	req := &ListExecutionsRequest{
		WorkflowID: c.Query("workflowId"),
		Limit:      MaxExecutionLimit,
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, err
		}

		req.Limit = min(limit, MaxExecutionLimit)
	}

	if err := h.validator.Struct(req); err != nil {
		return nil, err
	}

	return req, nil
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	detail, err := h.dashboard.GetExecutionDetail(c.Context(), c.Params("executionId"))
	if err != nil {
		return h.handleError(c, err)
	}

	return c.JSON(success(detail))
}

func (h *APIHandlers) ClearCache(c fiber.Ctx) error {
	h.dashboard.ClearCache()

	h.logger.InfoContext(c.Context(), "Upstream cache cleared")

	return c.JSON(success(MessageResponse{Message: "Cache cleared"}))
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
	})
}

func (h *APIHandlers) handleError(c fiber.Ctx, err error) error {
	return handleServiceError(c, h.logger, err, h.exposeDetails)
}
