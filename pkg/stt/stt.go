// Package stt provides a unified interface for speech-to-text systems.
// It abstracts batch recognizers (OpenAI Whisper, Azure Speech) and
// streaming transcribers behind small interfaces so the engine can swap
// providers without caring which service is behind them.
package stt

import (
	"context"
	"time"
)

// Result represents the output of a recognition pass.
type Result struct {
	// Text is the recognized text.
	Text string

	// IsFinal indicates if this is a final result (true) or partial/interim (false).
	IsFinal bool

	// Confidence score (0.0-1.0) if available, otherwise -1.
	Confidence float32

	// Language detected or used for recognition.
	Language string

	// Duration of the audio segment that was recognized.
	Duration time.Duration

	// Timestamp when recognition completed.
	Timestamp time.Time
}

// AudioConfig specifies the audio format handed to a recognizer.
type AudioConfig struct {
	// SampleRate in Hz (e.g., 16000).
	SampleRate int

	// Channels (1 for mono, 2 for stereo).
	Channels int

	// BitsPerSample (16 for the capture path).
	BitsPerSample int
}

// DefaultAudioConfig returns the format the capture pipeline produces.
func DefaultAudioConfig(sampleRate int) AudioConfig {
	return AudioConfig{
		SampleRate:    sampleRate,
		Channels:      1,
		BitsPerSample: 16,
	}
}

// Recognizer performs speech recognition on a complete, already buffered
// utterance. Implementations must be safe for use from a single goroutine;
// the engine never runs two recognitions concurrently.
type Recognizer interface {
	// Name returns the provider name (e.g., "openai-whisper", "azure").
	Name() string

	// Recognize transcribes a complete PCM segment. The audio must match
	// the AudioConfig the recognizer was created with.
	Recognize(ctx context.Context, pcm []byte) (*Result, error)

	// Close releases any resources held by the recognizer.
	Close() error
}

// TranscriptStream receives audio continuously and emits transcript
// fragments as they become available. It backs the streaming wake-word
// strategy, which scans partials for the keyword.
type TranscriptStream interface {
	// SendAudio pushes raw PCM into the stream.
	SendAudio(ctx context.Context, pcm []byte) error

	// Results returns a channel of partial and final results. The channel
	// is closed when the stream is closed or the connection drops.
	Results() <-chan *Result

	// Close tears down the stream and releases the connection.
	Close() error
}

// StreamingProvider is implemented by recognizers that can open a
// TranscriptStream in addition to batch recognition.
type StreamingProvider interface {
	Recognizer

	// OpenStream starts a continuous transcription session.
	OpenStream(ctx context.Context) (TranscriptStream, error)
}

// Error wraps provider failures with a stable code the engine can branch on.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

type ErrorCode int

const (
	ErrCodeUnknown ErrorCode = iota
	ErrCodeInvalidConfig
	ErrCodeInvalidAudio
	ErrCodeAuthenticationFailed
	ErrCodeNetworkError
	ErrCodeProviderError
)
