package llm

import (
	"context"
	"sync"
)

// MockChatModel returns Responses in order, one per Chat call, for
// deterministic tests of the agent controller and chat node without a
// live provider.
type MockChatModel struct {
	Responses []ChatOut
	Err       error

	mu         sync.Mutex
	callIndex  int
	Calls      []Message
}

func (m *MockChatModel) Chat(_ context.Context, messages []Message, _ []ToolSpec) (ChatOut, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(messages) > 0 {
		m.Calls = append(m.Calls, messages[len(messages)-1])
	}

	idx := m.callIndex
	m.callIndex++
	if m.Err != nil {
		return ChatOut{}, m.Err
	}
	if idx >= len(m.Responses) {
		return ChatOut{}, nil
	}
	return m.Responses[idx], nil
}

// CallCount reports how many times Chat has been invoked.
func (m *MockChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callIndex
}
