package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dukex/n8n-dashboard/pkg/models"
	"github.com/dukex/n8n-dashboard/pkg/n8n"
	"github.com/dukex/n8n-dashboard/pkg/otelhelper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/dukex/n8n-dashboard/pkg/services"

// Upstream is the read-only n8n API the dashboard aggregates. *n8n.Client implements it.
type Upstream interface {
	FetchWorkflows(ctx context.Context) ([]byte, error)
	FetchWorkflow(ctx context.Context, id string) ([]byte, error)
	FetchExecutions(ctx context.Context, filters n8n.ExecutionFilters) ([]byte, error)
	FetchExecution(ctx context.Context, id string) ([]byte, error)
	ClearCache()
}

var _ Upstream = (*n8n.Client)(nil)

// ExecutionDetail is an execution together with the per-node results of its run.
type ExecutionDetail struct {
	models.Execution
	Nodes []models.Node `json:"nodes"`
}

// listEnvelope is the n8n list response shape.
type listEnvelope[T any] struct {
	Data []T `json:"data"`
}

// Dashboard answers dashboard queries from upstream data.
//
// It never retries and never rewrites upstream errors: every failure reaches
// the caller with its n8n classification intact. Records that fail model
// validation are still returned.
type Dashboard struct {
	upstream Upstream
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewDashboard creates a dashboard service on top of upstream.
func NewDashboard(upstream Upstream, logger *slog.Logger) *Dashboard {
	if logger == nil {
		logger = slog.Default()
	}

	return &Dashboard{
		upstream: upstream,
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
	}
}

// ListWorkflows returns every workflow in upstream order.
func (d *Dashboard) ListWorkflows(ctx context.Context) ([]models.Workflow, error) {
	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "dashboard.ListWorkflows")
	defer span.End()

	payload, err := d.upstream.FetchWorkflows(ctx)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	var list listEnvelope[models.RawWorkflow]
	if err := n8n.Decode("ListWorkflows", payload, &list); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	workflows := make([]models.Workflow, 0, len(list.Data))
	for _, raw := range list.Data {
		workflows = append(workflows, d.workflow(ctx, raw))
	}

	span.SetAttributes(attribute.Int(otelhelper.ResultCountKey, len(workflows)))

	return workflows, nil
}

// GetWorkflow returns one workflow. A missing workflow yields an error matching n8n.ErrNotFound.
func (d *Dashboard) GetWorkflow(ctx context.Context, id string) (models.Workflow, error) {
	if strings.TrimSpace(id) == "" {
		return models.Workflow{}, NewValidationError("GetWorkflow", "workflow id is required", ErrEmptyID)
	}

	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "dashboard.GetWorkflow",
		attribute.String(otelhelper.WorkflowIDKey, id))
	defer span.End()

	payload, err := d.upstream.FetchWorkflow(ctx, id)
	if err != nil {
		otelhelper.SetError(span, err)

		return models.Workflow{}, err
	}

	var raw models.RawWorkflow
	if err := n8n.Decode("GetWorkflow", payload, &raw); err != nil {
		otelhelper.SetError(span, err)

		return models.Workflow{}, err
	}

	return d.workflow(ctx, raw), nil
}

// ListExecutions returns executions matching filters; filters reach the client unchanged.
func (d *Dashboard) ListExecutions(ctx context.Context, filters n8n.ExecutionFilters) ([]models.Execution, error) {
	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "dashboard.ListExecutions",
		attribute.String(otelhelper.WorkflowIDKey, filters.WorkflowID))
	defer span.End()

	payload, err := d.upstream.FetchExecutions(ctx, filters)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	var list listEnvelope[models.RawExecution]
	if err := n8n.Decode("ListExecutions", payload, &list); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	executions := make([]models.Execution, 0, len(list.Data))
	for _, raw := range list.Data {
		executions = append(executions, d.execution(ctx, raw))
	}

	span.SetAttributes(attribute.Int(otelhelper.ResultCountKey, len(executions)))

	return executions, nil
}

// GetExecutionDetail returns one execution with the results of its nodes.
// A missing execution yields an error matching n8n.ErrNotFound.
func (d *Dashboard) GetExecutionDetail(ctx context.Context, id string) (ExecutionDetail, error) {
	if strings.TrimSpace(id) == "" {
		return ExecutionDetail{}, NewValidationError("GetExecutionDetail", "execution id is required", ErrEmptyID)
	}

	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "dashboard.GetExecutionDetail",
		attribute.String(otelhelper.ExecutionIDKey, id))
	defer span.End()

	payload, err := d.upstream.FetchExecution(ctx, id)
	if err != nil {
		otelhelper.SetError(span, err)

		return ExecutionDetail{}, err
	}

	var raw models.RawExecution
	if err := n8n.Decode("GetExecutionDetail", payload, &raw); err != nil {
		otelhelper.SetError(span, err)

		return ExecutionDetail{}, err
	}

	nodes := nodesFromRunData(payload)
	for _, node := range nodes {
		if violations := node.Validate(); len(violations) > 0 {
			d.logger.DebugContext(ctx, "node result failed validation",
				"execution_id", id, "node", node.Name, "violations", violations)
		}
	}

	span.SetAttributes(attribute.Int(otelhelper.ResultCountKey, len(nodes)))

	return ExecutionDetail{
		Execution: d.execution(ctx, raw),
		Nodes:     nodes,
	}, nil
}

// ClearCache drops every cached upstream response.
func (d *Dashboard) ClearCache() {
	d.upstream.ClearCache()
}

func (d *Dashboard) workflow(ctx context.Context, raw models.RawWorkflow) models.Workflow {
	w := models.NewWorkflow(raw)
	if violations := w.Validate(); len(violations) > 0 {
		d.logger.DebugContext(ctx, "workflow failed validation", "workflow_id", w.ID, "violations", violations)
	}

	return w
}

func (d *Dashboard) execution(ctx context.Context, raw models.RawExecution) models.Execution {
	e := models.NewExecution(raw)
	if violations := e.Validate(); len(violations) > 0 {
		d.logger.DebugContext(ctx, "execution failed validation", "execution_id", e.ID, "violations", violations)
	}

	return e
}
