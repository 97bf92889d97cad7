// Package testutil provides n8n API payload builders for tests.
package testutil

import (
	"bytes"
	"encoding/json"

	"github.com/google/uuid"
)

// Payload is one n8n API object, built with defaults that can be overridden.
type Payload map[string]any

// JSON encodes the payload. It panics on values encoding/json rejects.
func (p Payload) JSON() []byte {
	data, err := json.Marshal(p)
	if err != nil {
		panic(err)
	}

	return data
}

// List wraps items in the n8n list envelope.
func List(items ...Payload) []byte {
	if items == nil {
		items = []Payload{}
	}

	data, err := json.Marshal(map[string]any{"data": items, "nextCursor": nil})
	if err != nil {
		panic(err)
	}

	return data
}

// CreateTestWorkflow creates an active workflow with a random id.
func CreateTestWorkflow(overrides ...func(Payload)) Payload {
	workflow := Payload{
		"id":        uuid.NewString(),
		"name":      "Test Workflow",
		"active":    true,
		"createdAt": "2024-05-01T09:00:00.000Z",
		"updatedAt": "2024-05-01T09:30:00.000Z",
	}

	for _, override := range overrides {
		override(workflow)
	}

	return workflow
}

// CreateTestExecution creates a finished, successful execution of workflowID.
func CreateTestExecution(workflowID string, overrides ...func(Payload)) Payload {
	execution := Payload{
		"id":         uuid.NewString(),
		"workflowId": workflowID,
		"status":     "success",
		"mode":       "manual",
		"startTime":  "2024-05-01T10:00:00.000Z",
		"endTime":    "2024-05-01T10:00:02.000Z",
		"duration":   2000,
	}

	for _, override := range overrides {
		override(execution)
	}

	return execution
}

// With sets a single field; a nil value is encoded as an explicit null.
func With(key string, value any) func(Payload) {
	return func(p Payload) {
		p[key] = value
	}
}

// Without removes a field.
func Without(key string) func(Payload) {
	return func(p Payload) {
		delete(p, key)
	}
}

// NodeRun is the run data of one node: its name and its attempts.
type NodeRun struct {
	Name     string
	Attempts []Payload
}

// CreateTestNodeRun creates a node with a single successful attempt.
func CreateTestNodeRun(name string, overrides ...func(Payload)) NodeRun {
	attempt := Payload{
		"startTime":     1000,
		"executionTime": 50,
	}

	for _, override := range overrides {
		override(attempt)
	}

	return NodeRun{Name: name, Attempts: []Payload{attempt}}
}

// WithSourceType records the node type the attempt was reached from.
func WithSourceType(nodeType string) func(Payload) {
	return With("source", []map[string]any{{"type": nodeType}})
}

// WithNodeError marks the attempt as failed with message.
func WithNodeError(message string) func(Payload) {
	return With("error", map[string]any{"message": message})
}

// WithRunData sets data.resultData.runData, keeping the nodes in the given order.
func WithRunData(runs ...NodeRun) func(Payload) {
	return func(p Payload) {
		var buf bytes.Buffer

		buf.WriteByte('{')

		for i, run := range runs {
			if i > 0 {
				buf.WriteByte(',')
			}

			name, err := json.Marshal(run.Name)
			if err != nil {
				panic(err)
			}

			attempts := run.Attempts
			if attempts == nil {
				attempts = []Payload{}
			}

			encoded, err := json.Marshal(attempts)
			if err != nil {
				panic(err)
			}

			buf.Write(name)
			buf.WriteByte(':')
			buf.Write(encoded)
		}

		buf.WriteByte('}')

		p["data"] = map[string]any{
			"resultData": map[string]any{
				"runData": json.RawMessage(buf.Bytes()),
			},
		}
	}
}
