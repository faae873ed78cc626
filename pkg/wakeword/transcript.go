package wakeword

import (
	"context"
	"strings"
	"sync/atomic"
	"unicode"

	"github.com/glasskit/glasskit/pkg/audio"
	"github.com/glasskit/glasskit/pkg/stt"
)

// TranscriptStrategy feeds audio continuously to a streaming
// speech-to-text service and matches the keyword against every
// transcript fragment. Higher latency than the spotting model, but
// works for arbitrary phrases.
type TranscriptStrategy struct {
	keyword string
	stream  stt.TranscriptStream
	cancel  context.CancelFunc
	matched atomic.Bool
	ctx     context.Context
}

// NewTranscriptStrategy opens a transcription stream and starts
// scanning its output for the keyword.
func NewTranscriptStrategy(keyword string, provider stt.StreamingProvider) (*TranscriptStrategy, error) {
	ctx, cancel := context.WithCancel(context.Background())

	stream, err := provider.OpenStream(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	s := &TranscriptStrategy{
		keyword: normalizePhrase(keyword),
		stream:  stream,
		cancel:  cancel,
		ctx:     ctx,
	}
	go s.scan()
	return s, nil
}

// Name returns the strategy's method name.
func (s *TranscriptStrategy) Name() string {
	return MethodStreaming
}

// Detect forwards the frame to the stream and reports whether a
// transcript containing the keyword has arrived since the last call.
func (s *TranscriptStrategy) Detect(frame audio.Frame) (bool, error) {
	if err := s.stream.SendAudio(s.ctx, frame.Data); err != nil {
		return false, err
	}
	return s.matched.Swap(false), nil
}

// FrameSize accepts any frame length.
func (s *TranscriptStrategy) FrameSize() int {
	return 0
}

// Close tears down the stream.
func (s *TranscriptStrategy) Close() error {
	s.cancel()
	return s.stream.Close()
}

func (s *TranscriptStrategy) scan() {
	for result := range s.stream.Results() {
		if strings.Contains(normalizePhrase(result.Text), s.keyword) {
			s.matched.Store(true)
		}
	}
}

// normalizePhrase lowercases and strips punctuation so "Hey, glasses!"
// matches "hey glasses".
func normalizePhrase(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	lastSpace := false
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace && b.Len() > 0 {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

var _ Strategy = (*TranscriptStrategy)(nil)
