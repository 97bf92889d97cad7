// Package models defines the dashboard entities derived from n8n API payloads.
package models

// WorkflowStatus is the dashboard-level state of a workflow.
type WorkflowStatus string

const (
	WorkflowStatusIdle     WorkflowStatus = "idle"
	WorkflowStatusRunning  WorkflowStatus = "running"
	WorkflowStatusError    WorkflowStatus = "error"
	WorkflowStatusDisabled WorkflowStatus = "disabled"
)

// RawWorkflow is a workflow record as returned by the n8n API.
// Every field is optional; defaults are applied by NewWorkflow.
type RawWorkflow struct {
	ID                   ID              `json:"id"`
	Name                 string          `json:"name"`
	Active               *bool           `json:"active"`
	Status               *WorkflowStatus `json:"status"`
	LastExecutionTime    *Timestamp      `json:"lastExecutionTime"`
	LastExecutionStatus  *string         `json:"lastExecutionStatus"`
	ExecutionCount       *int            `json:"executionCount"`
	ErrorCount           *int            `json:"errorCount"`
	AverageExecutionTime *float64        `json:"averageExecutionTime"`
}

// Workflow is the dashboard view of an n8n workflow.
//
// The execution statistics are not correlated with execution history; unless
// upstream supplies them they stay at their defaults.
type Workflow struct {
	ID                   ID             `json:"id"                   validate:"required"`
	Name                 string         `json:"name"                 validate:"min=1,max=100"`
	Active               *bool          `json:"active"               validate:"required"`
	Status               WorkflowStatus `json:"status"               validate:"oneof=idle running error disabled"`
	LastExecutionTime    *Timestamp     `json:"lastExecutionTime"`
	LastExecutionStatus  *string        `json:"lastExecutionStatus"  validate:"omitempty,oneof=success error cancelled running"`
	ExecutionCount       int            `json:"executionCount"       validate:"min=0"`
	ErrorCount           int            `json:"errorCount"           validate:"min=0"`
	AverageExecutionTime *float64       `json:"averageExecutionTime" validate:"omitempty,gt=0"`
}

var workflowRules = []rule{
	{field: "id", message: "id must be a non-empty string"},
	{field: "name", message: "name must be between 1 and 100 characters"},
	{field: "active", message: "active must be a boolean"},
	{field: "status", message: "status must be one of: idle, running, error, disabled"},
	{field: "lastExecutionStatus", message: "lastExecutionStatus must be one of: success, error, cancelled, running"},
	{field: "executionCount", message: "executionCount and errorCount must be non-negative"},
	{field: "errorCount", message: "executionCount and errorCount must be non-negative"},
	{field: "averageExecutionTime", message: "averageExecutionTime must be positive or null"},
}

// NewWorkflow builds a Workflow from an upstream record, applying defaults.
func NewWorkflow(raw RawWorkflow) Workflow {
	w := Workflow{
		ID:                   raw.ID,
		Name:                 raw.Name,
		Active:               raw.Active,
		Status:               WorkflowStatusIdle,
		LastExecutionTime:    present(raw.LastExecutionTime),
		LastExecutionStatus:  stringOrNil(raw.LastExecutionStatus),
		AverageExecutionTime: positiveOrNil(raw.AverageExecutionTime),
	}

	if raw.Status != nil && *raw.Status != "" {
		w.Status = *raw.Status
	}

	if raw.ExecutionCount != nil {
		w.ExecutionCount = *raw.ExecutionCount
	}

	if raw.ErrorCount != nil {
		w.ErrorCount = *raw.ErrorCount
	}

	return w
}

// Validate returns the description of every violated rule; empty means valid.
func (w Workflow) Validate() []string {
	return violations(w, workflowRules)
}

// IsValid reports whether Validate finds no violations.
func (w Workflow) IsValid() bool {
	return len(w.Validate()) == 0
}
