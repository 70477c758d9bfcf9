package tool

import (
	"context"
	"sync"
)

// MockNode is a test double for dag.Node, returning Responses in order
// (repeating the last one) or Err if configured.
type MockNode struct {
	Responses []map[string]interface{}
	Err       error

	mu        sync.Mutex
	Calls     []map[string]interface{}
	callIndex int
}

func (m *MockNode) Execute(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, input)

	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Responses) == 0 {
		return map[string]interface{}{}, nil
	}
	idx := m.callIndex
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	} else {
		m.callIndex++
	}
	return m.Responses[idx], nil
}

// CallCount reports how many times Execute has been invoked.
func (m *MockNode) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
