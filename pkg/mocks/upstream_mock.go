package mocks

import (
	"context"

	"github.com/dukex/n8n-dashboard/pkg/n8n"
	"github.com/stretchr/testify/mock"
)

// MockUpstream is a mock implementation of services.Upstream.
type MockUpstream struct {
	mock.Mock
}

func (m *MockUpstream) FetchWorkflows(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)

	return payload(args.Get(0)), args.Error(1)
}

func (m *MockUpstream) FetchWorkflow(ctx context.Context, id string) ([]byte, error) {
	args := m.Called(ctx, id)

	return payload(args.Get(0)), args.Error(1)
}

func (m *MockUpstream) FetchExecutions(ctx context.Context, filters n8n.ExecutionFilters) ([]byte, error) {
	args := m.Called(ctx, filters)

	return payload(args.Get(0)), args.Error(1)
}

func (m *MockUpstream) FetchExecution(ctx context.Context, id string) ([]byte, error) {
	args := m.Called(ctx, id)

	return payload(args.Get(0)), args.Error(1)
}

func (m *MockUpstream) ClearCache() {
	m.Called()
}

// payload accepts either a string or a byte slice as the mocked response body.
func payload(v any) []byte {
	switch p := v.(type) {
	case nil:
		return nil
	case string:
		return []byte(p)
	case []byte:
		return p
	default:
		panic("mocks: upstream payload must be string or []byte")
	}
}
