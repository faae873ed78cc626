// Package tts abstracts text-to-speech providers behind a small interface.
// Providers synthesize a complete utterance into 16-bit mono PCM; the
// playback controller handles chunking and interruption.
package tts

import (
	"context"
)

// SynthesizeRequest represents a request to synthesize speech.
type SynthesizeRequest struct {
	// Text to synthesize.
	Text string

	// Voice ID or name. Empty selects the provider default.
	Voice string

	// Speed multiplier. Zero selects the provider default.
	Speed float64
}

// SynthesizeResponse carries the synthesized audio.
type SynthesizeResponse struct {
	// PCM is raw little-endian 16-bit mono audio.
	PCM []byte

	// SampleRate of the PCM data in Hz.
	SampleRate int
}

// Provider defines the interface that all TTS services implement.
type Provider interface {
	// Name returns the provider name (e.g., "openai", "elevenlabs").
	Name() string

	// Synthesize converts text to speech.
	Synthesize(ctx context.Context, req *SynthesizeRequest) (*SynthesizeResponse, error)

	// SampleRate returns the rate the provider emits PCM at.
	SampleRate() int

	// SupportedVoices returns voice IDs accepted in SynthesizeRequest.
	SupportedVoices() []string

	// DefaultVoice returns the voice used when none is requested.
	DefaultVoice() string

	// ValidateConfig returns an error if credentials or required
	// settings are missing.
	ValidateConfig() error
}
