package audio

import "sync"

const (
	// BytesPerSample for 16-bit PCM.
	BytesPerSample = 2
	// ChunkDurationMs is the playback chunk length. Chunk boundaries are the
	// cancellation checkpoints for the playback worker.
	ChunkDurationMs = 20
)

// Pacer buffers synthesized PCM and hands it out in fixed-duration chunks.
//
// The playback worker pulls one chunk at a time and checks for cancellation
// between chunks, so a cancel request never leaves more than one chunk of
// residual audio. On cancellation the remaining buffer can be discarded with
// a short linear fade-out to avoid an audible click.
type Pacer struct {
	mu            sync.Mutex
	buffer        []byte
	sampleRate    int
	bytesPerChunk int
}

// NewPacer creates a pacer for 16-bit mono PCM at the given sample rate.
func NewPacer(sampleRate int) *Pacer {
	samplesPerChunk := sampleRate * ChunkDurationMs / 1000
	return &Pacer{
		sampleRate:    sampleRate,
		bytesPerChunk: samplesPerChunk * BytesPerSample,
	}
}

// Write appends PCM data to the buffer.
func (p *Pacer) Write(data []byte) {
	if len(data) == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buffer = append(p.buffer, data...)
}

// NextChunk removes and returns the next chunk. The final chunk may be
// shorter than ChunkDurationMs. Returns nil when the buffer is drained.
func (p *Pacer) NextChunk() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.buffer) == 0 {
		return nil
	}

	n := p.bytesPerChunk
	if n > len(p.buffer) {
		n = len(p.buffer)
	}
	chunk := make([]byte, n)
	copy(chunk, p.buffer[:n])
	p.buffer = p.buffer[n:]
	return chunk
}

// Buffered returns the number of bytes not yet handed out.
func (p *Pacer) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buffer)
}

// Discard drops all buffered audio immediately.
func (p *Pacer) Discard() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buffer = p.buffer[:0]
}

// DiscardWithFadeOut keeps only fadeMs of audio with a linear fade applied
// and drops the rest. The faded tail is what the playback worker emits as
// its final chunk after a cancellation.
func (p *Pacer) DiscardWithFadeOut(fadeMs int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if fadeMs <= 0 || len(p.buffer) == 0 {
		p.buffer = p.buffer[:0]
		return
	}

	fadeBytes := p.sampleRate * fadeMs / 1000 * BytesPerSample
	if fadeBytes > len(p.buffer) {
		fadeBytes = len(p.buffer)
	}

	samples := fadeBytes / BytesPerSample
	for i := 0; i < samples; i++ {
		factor := float32(samples-i) / float32(samples)
		idx := i * BytesPerSample
		s := int16(p.buffer[idx]) | int16(p.buffer[idx+1])<<8
		s = int16(float32(s) * factor)
		p.buffer[idx] = byte(s)
		p.buffer[idx+1] = byte(s >> 8)
	}

	p.buffer = p.buffer[:fadeBytes]
}
