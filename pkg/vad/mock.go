package vad

import "sync"

// MockDetector is a scriptable Detector for tests.
type MockDetector struct {
	// IsSpeechFunc is called when IsSpeech is invoked.
	// If nil, returns false (no speech).
	IsSpeechFunc func(pcm []int16) bool

	// Calls counts IsSpeech invocations.
	Calls int

	// ResetCalled tracks if Reset was called.
	ResetCalled bool

	// DestroyCalled tracks if Destroy was called.
	DestroyCalled bool

	mu sync.Mutex
}

// NewMockDetector creates a MockDetector with default behavior.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// NewMockDetectorWithSequence creates a MockDetector that returns the given
// answers in order, repeating the last one once exhausted.
func NewMockDetectorWithSequence(answers []bool) *MockDetector {
	idx := 0
	return &MockDetector{
		IsSpeechFunc: func(pcm []int16) bool {
			if len(answers) == 0 {
				return false
			}
			a := answers[idx]
			if idx < len(answers)-1 {
				idx++
			}
			return a
		},
	}
}

// IsSpeech implements Detector.
func (m *MockDetector) IsSpeech(pcm []int16) bool {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()

	if m.IsSpeechFunc != nil {
		return m.IsSpeechFunc(pcm)
	}
	return false
}

// Reset implements Detector.
func (m *MockDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResetCalled = true
}

// Destroy implements Detector.
func (m *MockDetector) Destroy() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DestroyCalled = true
	return nil
}

var _ Detector = (*MockDetector)(nil)
