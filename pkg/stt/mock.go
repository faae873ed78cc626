package stt

import (
	"context"
	"sync"
	"time"
)

// MockRecognizer is a scriptable Recognizer for tests.
type MockRecognizer struct {
	mu sync.Mutex

	// RecognizeFunc overrides the default scripted behavior when set.
	RecognizeFunc func(ctx context.Context, pcm []byte) (*Result, error)

	// Transcripts is consumed one per Recognize call. When exhausted the
	// last entry repeats.
	Transcripts []string

	// Err is returned from every Recognize call when set.
	Err error

	// Calls counts Recognize invocations.
	Calls int

	closed bool
}

// Name returns the provider name.
func (m *MockRecognizer) Name() string {
	return "mock"
}

// Recognize returns the next scripted transcript.
func (m *MockRecognizer) Recognize(ctx context.Context, pcm []byte) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.Calls
	m.Calls++

	if m.RecognizeFunc != nil {
		return m.RecognizeFunc(ctx, pcm)
	}
	if m.Err != nil {
		return nil, m.Err
	}

	text := ""
	if len(m.Transcripts) > 0 {
		if idx >= len(m.Transcripts) {
			idx = len(m.Transcripts) - 1
		}
		text = m.Transcripts[idx]
	}

	return &Result{
		Text:       text,
		IsFinal:    true,
		Confidence: 1,
		Timestamp:  time.Now(),
	}, nil
}

// Close marks the recognizer closed.
func (m *MockRecognizer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockRecognizer) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

var _ Recognizer = (*MockRecognizer)(nil)

// MockStream is a scriptable TranscriptStream for tests.
type MockStream struct {
	mu      sync.Mutex
	results chan *Result
	sent    [][]byte
	closed  bool
}

// NewMockStream creates a stream with room for buffered results.
func NewMockStream() *MockStream {
	return &MockStream{
		results: make(chan *Result, 16),
	}
}

// Emit queues a transcript on the results channel.
func (m *MockStream) Emit(text string, isFinal bool) {
	m.results <- &Result{
		Text:      text,
		IsFinal:   isFinal,
		Timestamp: time.Now(),
	}
}

// SendAudio records the audio it was given.
func (m *MockStream) SendAudio(ctx context.Context, pcm []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := make([]byte, len(pcm))
	copy(buf, pcm)
	m.sent = append(m.sent, buf)
	return nil
}

// Sent returns the audio chunks pushed so far.
func (m *MockStream) Sent() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent
}

// Results returns the transcript channel.
func (m *MockStream) Results() <-chan *Result {
	return m.results
}

// Close closes the results channel.
func (m *MockStream) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.results)
	}
	return nil
}

var _ TranscriptStream = (*MockStream)(nil)
