package models

import "encoding/json"

// NodeStatus is the outcome of one step inside an execution.
type NodeStatus string

const (
	NodeStatusSuccess NodeStatus = "success"
	NodeStatusError   NodeStatus = "error"
	NodeStatusSkipped NodeStatus = "skipped"
	NodeStatusRunning NodeStatus = "running"
)

// UnknownNodeType is reported when run data carries no source type for a node.
const UnknownNodeType = "unknown"

// NodeInput holds the values a Node is built from.
type NodeInput struct {
	Name            string
	Type            string
	ExecutionStatus NodeStatus
	StartTime       *Timestamp
	EndTime         *Timestamp
	ExecutionTime   *float64
	InputData       json.RawMessage
	OutputData      json.RawMessage
	ErrorDetails    *string
}

// Node is the result of one step within a single execution's run data.
// It has no identity outside the execution detail it was derived for.
type Node struct {
	Name            string          `json:"name"            validate:"required"`
	Type            string          `json:"type"            validate:"required"`
	ExecutionStatus NodeStatus      `json:"executionStatus" validate:"oneof=success error skipped running"`
	StartTime       *Timestamp      `json:"startTime"`
	EndTime         *Timestamp      `json:"endTime"`
	ExecutionTime   *float64        `json:"executionTime"   validate:"omitempty,gt=0"`
	InputData       json.RawMessage `json:"inputData"`
	OutputData      json.RawMessage `json:"outputData"`
	ErrorDetails    *string         `json:"errorDetails"`
}

var nodeRules = []rule{
	{field: "name", message: "name must be a non-empty string"},
	{field: "type", message: "type must be a non-empty string"},
	{field: "executionStatus", message: "executionStatus must be one of: success, error, skipped, running"},
	{field: "endTime", message: "endTime must be after startTime"},
	{field: "executionTime", message: "executionTime must be positive if node completed"},
}

// NewNode builds a Node, mapping unset optional values to null.
func NewNode(in NodeInput) Node {
	return Node{
		Name:            in.Name,
		Type:            in.Type,
		ExecutionStatus: in.ExecutionStatus,
		StartTime:       present(in.StartTime),
		EndTime:         present(in.EndTime),
		ExecutionTime:   positiveOrNil(in.ExecutionTime),
		InputData:       opaqueOrNil(in.InputData),
		OutputData:      opaqueOrNil(in.OutputData),
		ErrorDetails:    stringOrNil(in.ErrorDetails),
	}
}

// Validate returns the description of every violated rule; empty means valid.
func (n Node) Validate() []string {
	return violations(n, nodeRules)
}

// IsValid reports whether Validate finds no violations.
func (n Node) IsValid() bool {
	return len(n.Validate()) == 0
}

func opaqueOrNil(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	return raw
}
