package tts

import (
	"context"
	"sync"
)

// MockProvider is a scriptable Provider for tests. It returns PCM sized
// from PCMBytesPerCall so playback tests can control session length.
type MockProvider struct {
	mu sync.Mutex

	// SynthesizeFunc overrides the default behavior when set.
	SynthesizeFunc func(ctx context.Context, req *SynthesizeRequest) (*SynthesizeResponse, error)

	// PCMBytesPerCall sizes the zero-filled PCM returned per call.
	// Defaults to one 20ms chunk at 16kHz.
	PCMBytesPerCall int

	// Err is returned from every Synthesize call when set.
	Err error

	// Requests records every request received.
	Requests []*SynthesizeRequest
}

// Name returns the provider name.
func (m *MockProvider) Name() string {
	return "mock"
}

// Synthesize records the request and returns scripted PCM.
func (m *MockProvider) Synthesize(ctx context.Context, req *SynthesizeRequest) (*SynthesizeResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, req)

	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, req)
	}
	if m.Err != nil {
		return nil, m.Err
	}

	size := m.PCMBytesPerCall
	if size == 0 {
		size = 16000 * 2 / 50 // one 20ms chunk
	}
	return &SynthesizeResponse{
		PCM:        make([]byte, size),
		SampleRate: 16000,
	}, nil
}

// Texts returns the text of every request received so far.
func (m *MockProvider) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	texts := make([]string, len(m.Requests))
	for i, r := range m.Requests {
		texts[i] = r.Text
	}
	return texts
}

// SampleRate returns the mock output rate.
func (m *MockProvider) SampleRate() int {
	return 16000
}

// SupportedVoices returns a single mock voice.
func (m *MockProvider) SupportedVoices() []string {
	return []string{"mock"}
}

// DefaultVoice returns the mock voice.
func (m *MockProvider) DefaultVoice() string {
	return "mock"
}

// ValidateConfig always succeeds.
func (m *MockProvider) ValidateConfig() error {
	return nil
}

var _ Provider = (*MockProvider)(nil)
