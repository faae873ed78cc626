package audio

import (
	"context"
	"sync"
	"time"
)

// MockInput is a scriptable Input for tests. Frames are served in
// order; when the script is exhausted ReadFrame returns silence frames
// or blocks, depending on BlockWhenEmpty.
type MockInput struct {
	mu sync.Mutex

	// Frames is the scripted sequence.
	Frames []Frame

	// Err is returned from every ReadFrame call when set.
	Err error

	// BlockWhenEmpty makes ReadFrame wait on ctx once the script runs
	// out instead of returning silence.
	BlockWhenEmpty bool

	// Rate reported by SampleRate. Defaults to 16000.
	Rate int

	// FrameSamples sizes the silence frames served after the script.
	// Defaults to 512.
	FrameSamples int

	next   int
	closed bool
}

// ReadFrame serves the next scripted frame. Like the real device, an
// expired context yields ErrReadTimeout so bounded listens terminate.
func (m *MockInput) ReadFrame(ctx context.Context) (Frame, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return Frame{}, ErrDeviceClosed
	}
	if m.Err != nil {
		err := m.Err
		m.mu.Unlock()
		return Frame{}, err
	}
	if err := ctx.Err(); err != nil {
		m.mu.Unlock()
		return Frame{}, ErrReadTimeout
	}
	if m.next < len(m.Frames) {
		f := m.Frames[m.next]
		m.next++
		m.mu.Unlock()
		return f, nil
	}
	block := m.BlockWhenEmpty
	samples := m.FrameSamples
	if samples == 0 {
		samples = 512
	}
	rate := m.Rate
	if rate == 0 {
		rate = 16000
	}
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return Frame{}, ctx.Err()
	}

	// Synthetic silence is paced at the real frame cadence so
	// deadline-bounded listen loops behave as they would on a device.
	cadence := time.Duration(samples) * time.Second / time.Duration(rate)
	select {
	case <-ctx.Done():
		return Frame{}, ErrReadTimeout
	case <-time.After(cadence):
	}
	return Frame{
		Data:       make([]byte, samples*BytesPerSample),
		SampleRate: rate,
		Timestamp:  time.Now(),
	}, nil
}

// SampleRate returns the configured rate.
func (m *MockInput) SampleRate() int {
	if m.Rate == 0 {
		return 16000
	}
	return m.Rate
}

// Close marks the input closed; further reads fail.
func (m *MockInput) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Served returns how many scripted frames have been consumed.
func (m *MockInput) Served() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.next
}

var _ Input = (*MockInput)(nil)

// MockOutput records played chunks for tests.
type MockOutput struct {
	mu sync.Mutex

	// PlayErr is returned from PlayChunk when set.
	PlayErr error

	chunks    [][]byte
	cancels   int
	closed    bool
	playDelay time.Duration
}

// NewMockOutput creates an output that records chunks.
func NewMockOutput() *MockOutput {
	return &MockOutput{}
}

// SetPlayDelay makes each PlayChunk call take the given duration, to
// simulate real-time rendering.
func (m *MockOutput) SetPlayDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playDelay = d
}

// PlayChunk records the chunk.
func (m *MockOutput) PlayChunk(pcm []byte) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrDeviceClosed
	}
	if m.PlayErr != nil {
		err := m.PlayErr
		m.mu.Unlock()
		return err
	}
	buf := make([]byte, len(pcm))
	copy(buf, pcm)
	m.chunks = append(m.chunks, buf)
	delay := m.playDelay
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	return nil
}

// Cancel counts the call.
func (m *MockOutput) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancels++
}

// Drain returns immediately.
func (m *MockOutput) Drain(ctx context.Context) error {
	return nil
}

// Close marks the output closed.
func (m *MockOutput) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Chunks returns the recorded chunks.
func (m *MockOutput) Chunks() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.chunks))
	copy(out, m.chunks)
	return out
}

// Cancels returns how many times Cancel was called.
func (m *MockOutput) Cancels() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancels
}

var _ Output = (*MockOutput)(nil)
