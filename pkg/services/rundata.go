package services

import (
	"encoding/json"

	"github.com/dukex/n8n-dashboard/pkg/models"
	"github.com/tidwall/gjson"
)

const runDataPath = "data.resultData.runData"

// nodesFromRunData derives one Node per entry of an execution's run data,
// in document order. Only the first attempt of each node is reported.
// Missing pieces fall back to defaults; nothing in here fails.
func nodesFromRunData(payload []byte) []models.Node {
	nodes := []models.Node{}

	runData := gjson.GetBytes(payload, runDataPath)
	if !runData.IsObject() {
		return nodes
	}

	runData.ForEach(func(name, attempts gjson.Result) bool {
		nodes = append(nodes, nodeFromAttempt(name.String(), attempts.Get("0")))

		return true
	})

	return nodes
}

func nodeFromAttempt(name string, attempt gjson.Result) models.Node {
	in := models.NodeInput{
		Name:            name,
		Type:            models.UnknownNodeType,
		ExecutionStatus: models.NodeStatusSuccess,
		StartTime:       timestamp(attempt.Get("startTime")),
		InputData:       raw(attempt.Get("inputOverride")),
		OutputData:      raw(attempt.Get("data")),
	}

	if t := attempt.Get("source.0.type"); t.Type == gjson.String && t.Str != "" {
		in.Type = t.Str
	}

	if errObj := attempt.Get("error"); errObj.IsObject() {
		in.ExecutionStatus = models.NodeStatusError

		if msg := errObj.Get("message"); msg.Type == gjson.String {
			message := msg.Str
			in.ErrorDetails = &message
		}
	}

	if et := attempt.Get("executionTime"); et.Type == gjson.Number && et.Num > 0 {
		executionTime := et.Num
		in.ExecutionTime = &executionTime

		if in.StartTime != nil && in.StartTime.Valid() {
			end := in.StartTime.Add(executionTime)
			in.EndTime = &end
		}
	}

	return models.NewNode(in)
}

func timestamp(value gjson.Result) *models.Timestamp {
	if !value.Exists() || value.Type == gjson.Null {
		return nil
	}

	var ts models.Timestamp
	if err := json.Unmarshal([]byte(value.Raw), &ts); err != nil {
		return nil
	}

	return &ts
}

func raw(value gjson.Result) json.RawMessage {
	if !value.Exists() || value.Type == gjson.Null {
		return nil
	}

	return json.RawMessage(value.Raw)
}
