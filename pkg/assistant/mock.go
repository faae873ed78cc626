package assistant

import (
	"context"
	"sync"
)

// MockAssistant is a scriptable Assistant for tests.
type MockAssistant struct {
	mu sync.Mutex

	// ProcessFunc overrides the scripted replies when set.
	ProcessFunc func(ctx context.Context, text string) (string, error)

	// Replies is consumed one per Process call; the last reply repeats.
	Replies []string

	// Err is returned from every Process call when set.
	Err error

	// Received records every utterance handed to Process.
	Received []string

	resets int
}

// Name returns "mock".
func (m *MockAssistant) Name() string {
	return "mock"
}

// Process records the utterance and returns the next scripted reply.
func (m *MockAssistant) Process(ctx context.Context, text string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Received = append(m.Received, text)

	if m.ProcessFunc != nil {
		return m.ProcessFunc(ctx, text)
	}
	if m.Err != nil {
		return "", m.Err
	}

	if len(m.Replies) == 0 {
		return "ok", nil
	}
	idx := len(m.Received) - 1
	if idx >= len(m.Replies) {
		idx = len(m.Replies) - 1
	}
	return m.Replies[idx], nil
}

// Reset counts the call.
func (m *MockAssistant) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++
}

// Utterances returns the received texts.
func (m *MockAssistant) Utterances() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Received))
	copy(out, m.Received)
	return out
}

// Resets returns how many times Reset was called.
func (m *MockAssistant) Resets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resets
}

var _ Assistant = (*MockAssistant)(nil)
