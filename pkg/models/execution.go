package models

// ExecutionStatus is the upstream-reported state of a workflow run.
type ExecutionStatus string

const (
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusSuccess   ExecutionStatus = "success"
	ExecutionStatusError     ExecutionStatus = "error"
	ExecutionStatusCancelled ExecutionStatus = "cancelled"
)

// DefaultExecutionMode is used when upstream does not report how a run was started.
const DefaultExecutionMode = "manual"

// RawExecution is an execution record as returned by the n8n API.
type RawExecution struct {
	ID           ID              `json:"id"`
	WorkflowID   ID              `json:"workflowId"`
	Status       ExecutionStatus `json:"status"`
	StartTime    *Timestamp      `json:"startTime"`
	EndTime      *Timestamp      `json:"endTime"`
	Duration     *float64        `json:"duration"`
	Mode         *string         `json:"mode"`
	RetryOf      *ID             `json:"retryOf"`
	ErrorMessage *string         `json:"errorMessage"`
}

// Execution is an immutable snapshot of one workflow run at fetch time.
// WorkflowID references a Workflow; it does not own it.
type Execution struct {
	ID           ID              `json:"id"           validate:"required"`
	WorkflowID   ID              `json:"workflowId"   validate:"required"`
	Status       ExecutionStatus `json:"status"       validate:"oneof=running success error cancelled"`
	StartTime    *Timestamp      `json:"startTime"`
	EndTime      *Timestamp      `json:"endTime"`
	Duration     *float64        `json:"duration"     validate:"omitempty,gt=0"`
	Mode         string          `json:"mode"`
	RetryOf      *ID             `json:"retryOf"`
	ErrorMessage *string         `json:"errorMessage"`
}

var executionRules = []rule{
	{field: "id", message: "id must be a non-empty string"},
	{field: "workflowId", message: "workflowId must be a non-empty string"},
	{field: "status", message: "status must be one of: running, success, error, cancelled"},
	{field: "startTime", message: "startTime is required"},
	{field: "endTime", message: "endTime must be after startTime"},
	{field: "duration", message: "duration must be positive if execution completed"},
}

// NewExecution builds an Execution from an upstream record, applying defaults.
func NewExecution(raw RawExecution) Execution {
	e := Execution{
		ID:           raw.ID,
		WorkflowID:   raw.WorkflowID,
		Status:       raw.Status,
		StartTime:    present(raw.StartTime),
		EndTime:      present(raw.EndTime),
		Duration:     positiveOrNil(raw.Duration),
		Mode:         DefaultExecutionMode,
		ErrorMessage: stringOrNil(raw.ErrorMessage),
	}

	if m := stringOrNil(raw.Mode); m != nil {
		e.Mode = *m
	}

	if raw.RetryOf != nil && *raw.RetryOf != "" {
		e.RetryOf = raw.RetryOf
	}

	return e
}

// Validate returns the description of every violated rule; empty means valid.
func (e Execution) Validate() []string {
	return violations(e, executionRules)
}

// IsValid reports whether Validate finds no violations.
func (e Execution) IsValid() bool {
	return len(e.Validate()) == 0
}
