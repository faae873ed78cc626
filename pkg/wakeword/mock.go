package wakeword

import (
	"github.com/glasskit/glasskit/pkg/audio"
)

// MockStrategy is a scriptable Strategy for tests.
type MockStrategy struct {
	// DetectFunc overrides the scripted answers when set.
	DetectFunc func(frame audio.Frame) (bool, error)

	// Answers is consumed one per Detect call; the last answer repeats.
	Answers []bool

	// Calls counts Detect invocations.
	Calls int

	// ClosedCount counts Close invocations.
	ClosedCount int
}

// Name returns "mock".
func (m *MockStrategy) Name() string {
	return "mock"
}

// Detect returns the next scripted answer.
func (m *MockStrategy) Detect(frame audio.Frame) (bool, error) {
	idx := m.Calls
	m.Calls++

	if m.DetectFunc != nil {
		return m.DetectFunc(frame)
	}
	if len(m.Answers) == 0 {
		return false, nil
	}
	if idx >= len(m.Answers) {
		idx = len(m.Answers) - 1
	}
	return m.Answers[idx], nil
}

// FrameSize accepts any frame length.
func (m *MockStrategy) FrameSize() int {
	return 0
}

// Close counts the call.
func (m *MockStrategy) Close() error {
	m.ClosedCount++
	return nil
}

var _ Strategy = (*MockStrategy)(nil)
