package services_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/dukex/n8n-dashboard/pkg/mocks"
	"github.com/dukex/n8n-dashboard/pkg/models"
	"github.com/dukex/n8n-dashboard/pkg/n8n"
	"github.com/dukex/n8n-dashboard/pkg/services"
	"github.com/dukex/n8n-dashboard/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupDashboard(t *testing.T) (*services.Dashboard, *mocks.MockUpstream) {
	t.Helper()

	upstream := &mocks.MockUpstream{}
	t.Cleanup(func() { upstream.AssertExpectations(t) })

	return services.NewDashboard(upstream, nil), upstream
}

func TestDashboard_ListWorkflows(t *testing.T) {
	t.Parallel()

	dashboard, upstream := setupDashboard(t)
	upstream.On("FetchWorkflows", mock.Anything).Return(`{"data":[
		{"id":"wf-2","name":"Second","active":false,"updatedAt":"2024-05-01T10:00:00.000Z"},
		{"id":"wf-1","name":"Test","active":true}
	],"nextCursor":null}`, nil)

	workflows, err := dashboard.ListWorkflows(t.Context())
	require.NoError(t, err)
	require.Len(t, workflows, 2)

	assert.Equal(t, models.ID("wf-2"), workflows[0].ID)
	assert.Equal(t, models.ID("wf-1"), workflows[1].ID)

	for _, w := range workflows {
		assert.Equal(t, models.WorkflowStatusIdle, w.Status)
		assert.Nil(t, w.LastExecutionStatus)
		assert.Zero(t, w.ExecutionCount)
		assert.True(t, w.IsValid())
	}
}

func TestDashboard_ListWorkflows_EmptyListSerializesAsArray(t *testing.T) {
	t.Parallel()

	dashboard, upstream := setupDashboard(t)
	upstream.On("FetchWorkflows", mock.Anything).Return(`{"data":[]}`, nil)

	workflows, err := dashboard.ListWorkflows(t.Context())
	require.NoError(t, err)

	body, err := json.Marshal(workflows)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(body))
}

func TestDashboard_ListWorkflows_ReturnsInvalidRecords(t *testing.T) {
	t.Parallel()

	dashboard, upstream := setupDashboard(t)
	upstream.On("FetchWorkflows", mock.Anything).Return(`{"data":[{"id":"","name":""}]}`, nil)

	workflows, err := dashboard.ListWorkflows(t.Context())
	require.NoError(t, err)
	require.Len(t, workflows, 1)
	assert.False(t, workflows[0].IsValid())
}

func TestDashboard_ListWorkflows_MalformedEnvelope(t *testing.T) {
	t.Parallel()

	dashboard, upstream := setupDashboard(t)
	upstream.On("FetchWorkflows", mock.Anything).Return(`{"data":{"id":"wf-1"}}`, nil)

	_, err := dashboard.ListWorkflows(t.Context())
	require.Error(t, err)
	assert.Equal(t, n8n.KindUpstreamFailure, n8n.KindOf(err))
}

func TestDashboard_GetWorkflow(t *testing.T) {
	t.Parallel()

	dashboard, upstream := setupDashboard(t)
	upstream.On("FetchWorkflow", mock.Anything, "wf-1").Return(`{"id":"wf-1","name":"Test","active":true}`, nil)

	workflow, err := dashboard.GetWorkflow(t.Context(), "wf-1")
	require.NoError(t, err)

	body, err := json.Marshal(workflow)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "wf-1",
		"name": "Test",
		"active": true,
		"status": "idle",
		"lastExecutionTime": null,
		"lastExecutionStatus": null,
		"executionCount": 0,
		"errorCount": 0,
		"averageExecutionTime": null
	}`, string(body))
}

func TestDashboard_PropagatesUpstreamErrors(t *testing.T) {
	t.Parallel()

	notFound := &n8n.Error{Kind: n8n.KindNotFound, Op: "GET /workflows/missing", StatusCode: 404, Message: n8n.MessageNotFound}
	unavailable := &n8n.Error{Kind: n8n.KindUnavailable, Op: "GET /executions", Message: n8n.MessageUnavailable}

	dashboard, upstream := setupDashboard(t)
	upstream.On("FetchWorkflow", mock.Anything, "missing").Return(nil, notFound)
	upstream.On("FetchExecution", mock.Anything, "missing").Return(nil, notFound)
	upstream.On("FetchExecutions", mock.Anything, n8n.ExecutionFilters{}).Return(nil, unavailable)

	_, err := dashboard.GetWorkflow(t.Context(), "missing")
	assert.Same(t, notFound, err)
	assert.True(t, n8n.IsNotFound(err))

	_, err = dashboard.GetExecutionDetail(t.Context(), "missing")
	assert.Same(t, notFound, err)

	_, err = dashboard.ListExecutions(t.Context(), n8n.ExecutionFilters{})
	assert.Same(t, unavailable, err)
}

func TestDashboard_EmptyIDIsValidationError(t *testing.T) {
	t.Parallel()

	dashboard, _ := setupDashboard(t)

	_, err := dashboard.GetWorkflow(t.Context(), " ")
	assert.True(t, services.IsValidationError(err))

	_, err = dashboard.GetExecutionDetail(t.Context(), "")
	assert.True(t, services.IsValidationError(err))
}

func TestDashboard_ListExecutions_PassesFiltersThrough(t *testing.T) {
	t.Parallel()

	filters := n8n.ExecutionFilters{WorkflowID: "wf-1", Limit: 3}

	dashboard, upstream := setupDashboard(t)
	upstream.On("FetchExecutions", mock.Anything, filters).Return(`{"data":[
		{"id":"exec-1","workflowId":"wf-1","status":"success","startTime":"2024-05-01T10:00:00.000Z","endTime":"2024-05-01T10:00:02.000Z","duration":2000},
		{"id":"exec-2","workflowId":"wf-1","status":"error","startTime":"2024-05-01T09:00:00.000Z","mode":"trigger","errorMessage":"boom","retryOf":"exec-0"}
	]}`, nil)

	executions, err := dashboard.ListExecutions(t.Context(), filters)
	require.NoError(t, err)
	require.Len(t, executions, 2)

	assert.Equal(t, "manual", executions[0].Mode)
	assert.True(t, executions[0].IsValid())
	assert.Equal(t, "trigger", executions[1].Mode)
	require.NotNil(t, executions[1].RetryOf)
	assert.Equal(t, models.ID("exec-0"), *executions[1].RetryOf)
	require.NotNil(t, executions[1].ErrorMessage)
	assert.Equal(t, "boom", *executions[1].ErrorMessage)
}

func TestDashboard_GetExecutionDetail_Scenario(t *testing.T) {
	t.Parallel()

	dashboard, upstream := setupDashboard(t)
	upstream.On("FetchExecution", mock.Anything, "exec-1").Return(`{
		"id": "exec-1",
		"workflowId": "wf-1",
		"status": "success",
		"startTime": "2024-05-01T10:00:00.000Z",
		"data": {"resultData": {"runData": {"Start": [{"startTime": 1000, "executionTime": 50}]}}}
	}`, nil)

	detail, err := dashboard.GetExecutionDetail(t.Context(), "exec-1")
	require.NoError(t, err)
	require.Len(t, detail.Nodes, 1)

	body, err := json.Marshal(detail.Nodes[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"name": "Start",
		"type": "unknown",
		"executionStatus": "success",
		"startTime": 1000,
		"endTime": 1050,
		"executionTime": 50,
		"inputData": null,
		"outputData": null,
		"errorDetails": null
	}`, string(body))
}

func TestDashboard_GetExecutionDetail_NodeDerivation(t *testing.T) {
	t.Parallel()

	dashboard, upstream := setupDashboard(t)
	upstream.On("FetchExecution", mock.Anything, "exec-2").Return(`{
		"id": "exec-2",
		"workflowId": "wf-1",
		"status": "error",
		"startTime": "2024-05-01T10:00:00.000Z",
		"data": {"resultData": {"runData": {
			"Webhook": [{"startTime": 1714557600000, "executionTime": 3, "source": [], "data": {"main": [[{"json": {"ok": true}}]]}}],
			"HTTP Request": [
				{"startTime": 1714557600010, "executionTime": 120, "source": [{"type": "n8n-nodes-base.httpRequest", "previousNode": "Webhook"}],
				 "error": {"message": "connect ECONNREFUSED", "name": "NodeApiError"}},
				{"startTime": 1714557600500, "executionTime": 80}
			],
			"Set": [{"source": [null], "error": {}}],
			"Empty": []
		}}}
	}`, nil)

	detail, err := dashboard.GetExecutionDetail(t.Context(), "exec-2")
	require.NoError(t, err)
	require.Len(t, detail.Nodes, 4)

	names := make([]string, 0, len(detail.Nodes))
	for _, n := range detail.Nodes {
		names = append(names, n.Name)
	}

	assert.Equal(t, []string{"Webhook", "HTTP Request", "Set", "Empty"}, names)

	webhook := detail.Nodes[0]
	assert.Equal(t, models.NodeStatusSuccess, webhook.ExecutionStatus)
	assert.Equal(t, models.UnknownNodeType, webhook.Type)
	assert.Nil(t, webhook.ErrorDetails)
	assert.JSONEq(t, `{"main": [[{"json": {"ok": true}}]]}`, string(webhook.OutputData))

	httpNode := detail.Nodes[1]
	assert.Equal(t, models.NodeStatusError, httpNode.ExecutionStatus)
	assert.Equal(t, "n8n-nodes-base.httpRequest", httpNode.Type)
	require.NotNil(t, httpNode.ErrorDetails)
	assert.Equal(t, "connect ECONNREFUSED", *httpNode.ErrorDetails)
	require.NotNil(t, httpNode.ExecutionTime)
	assert.InDelta(t, 120, *httpNode.ExecutionTime, 0)
	require.NotNil(t, httpNode.EndTime)
	assert.Equal(t, int64(1714557600130), httpNode.EndTime.Time().UnixMilli())

	set := detail.Nodes[2]
	assert.Equal(t, models.NodeStatusError, set.ExecutionStatus)
	assert.Equal(t, models.UnknownNodeType, set.Type)
	assert.Nil(t, set.ErrorDetails)
	assert.Nil(t, set.StartTime)
	assert.Nil(t, set.EndTime)
	assert.Nil(t, set.ExecutionTime)

	empty := detail.Nodes[3]
	assert.Equal(t, models.NodeStatusSuccess, empty.ExecutionStatus)
	assert.Nil(t, empty.EndTime)

	body, err := json.Marshal(detail)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "exec-2", decoded["id"])
	assert.Equal(t, "manual", decoded["mode"])
	assert.Len(t, decoded["nodes"], 4)
}

func TestDashboard_GetExecutionDetail_WithoutRunData(t *testing.T) {
	t.Parallel()

	dashboard, upstream := setupDashboard(t)
	upstream.On("FetchExecution", mock.Anything, "exec-3").Return(`{"id":"exec-3","workflowId":"wf-1","status":"running","startTime":"2024-05-01T10:00:00.000Z"}`, nil)

	detail, err := dashboard.GetExecutionDetail(t.Context(), "exec-3")
	require.NoError(t, err)
	assert.NotNil(t, detail.Nodes)
	assert.Empty(t, detail.Nodes)

	body, err := json.Marshal(detail)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"nodes":[]`)
}

func TestDashboard_ClearCache(t *testing.T) {
	t.Parallel()

	dashboard, upstream := setupDashboard(t)
	upstream.On("ClearCache").Return()

	dashboard.ClearCache()
}

func TestDashboard_NodesFollowRunDataOrder(t *testing.T) {
	t.Parallel()

	execution := testutil.CreateTestExecution("wf-1", testutil.WithRunData(
		testutil.CreateTestNodeRun("Zeta"),
		testutil.CreateTestNodeRun("Alpha", testutil.WithSourceType("n8n-nodes-base.set")),
		testutil.CreateTestNodeRun("Mid", testutil.WithNodeError("bad input")),
	))
	id := execution["id"].(string)

	dashboard, upstream := setupDashboard(t)
	upstream.On("FetchExecution", mock.Anything, id).Return(execution.JSON(), nil)

	detail, err := dashboard.GetExecutionDetail(t.Context(), id)
	require.NoError(t, err)
	require.Len(t, detail.Nodes, 3)

	assert.Equal(t, "Zeta", detail.Nodes[0].Name)
	assert.Equal(t, "Alpha", detail.Nodes[1].Name)
	assert.Equal(t, "n8n-nodes-base.set", detail.Nodes[1].Type)
	assert.Equal(t, "Mid", detail.Nodes[2].Name)
	assert.Equal(t, models.NodeStatusError, detail.Nodes[2].ExecutionStatus)
	assert.True(t, detail.IsValid())
}

func TestDashboard_ExplicitNullsFromUpstream(t *testing.T) {
	t.Parallel()

	workflow := testutil.CreateTestWorkflow(
		testutil.With("active", nil),
		testutil.With("lastExecutionTime", nil),
		testutil.Without("updatedAt"),
	)
	execution := testutil.CreateTestExecution(workflow["id"].(string),
		testutil.With("mode", nil),
		testutil.With("duration", 0),
		testutil.With("endTime", nil),
	)

	dashboard, upstream := setupDashboard(t)
	upstream.On("FetchWorkflows", mock.Anything).Return(testutil.List(workflow), nil)
	upstream.On("FetchExecutions", mock.Anything, n8n.ExecutionFilters{}).Return(testutil.List(execution), nil)

	workflows, err := dashboard.ListWorkflows(t.Context())
	require.NoError(t, err)
	require.Len(t, workflows, 1)
	assert.Nil(t, workflows[0].Active)
	assert.Nil(t, workflows[0].LastExecutionTime)

	executions, err := dashboard.ListExecutions(t.Context(), n8n.ExecutionFilters{})
	require.NoError(t, err)
	require.Len(t, executions, 1)
	assert.Equal(t, models.DefaultExecutionMode, executions[0].Mode)
	assert.Nil(t, executions[0].Duration)
	assert.Nil(t, executions[0].EndTime)
}

// The properties below run against the real client and a fake n8n server.

func TestDashboard_RepeatedQueryHitsUpstreamOnce(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"wf-1","name":"Test","active":true}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := n8n.New(server.URL, "key")
	require.NoError(t, err)

	dashboard := services.NewDashboard(client, nil)

	for range 2 {
		_, err := dashboard.ListWorkflows(t.Context())
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), hits.Load())
}

func TestDashboard_ListExecutionsHonoursLimit(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)

			return
		}

		items := make([]string, 0, limit)
		for i := range limit {
			items = append(items, fmt.Sprintf(`{"id":"exec-%d","workflowId":"wf-1","status":"success","startTime":1714557600000}`, i))
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"data":[%s]}`, strings.Join(items, ","))
	}))
	t.Cleanup(server.Close)

	client, err := n8n.New(server.URL, "key")
	require.NoError(t, err)

	dashboard := services.NewDashboard(client, nil)

	executions, err := dashboard.ListExecutions(t.Context(), n8n.ExecutionFilters{Limit: 5})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(executions), 5)

	executions, err = dashboard.ListExecutions(t.Context(), n8n.ExecutionFilters{})
	require.NoError(t, err)
	assert.Len(t, executions, n8n.DefaultExecutionLimit)
}
