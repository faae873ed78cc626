package stt

import (
	"bytes"
	"context"
	"os"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/glasskit/glasskit/pkg/audio"
)

// WhisperRecognizer implements Recognizer using OpenAI's Whisper API.
type WhisperRecognizer struct {
	client      *openai.Client
	audioConfig AudioConfig
	model       string
	language    string
}

// WhisperOption customizes a WhisperRecognizer.
type WhisperOption func(*WhisperRecognizer)

// WithWhisperModel overrides the default whisper-1 model.
func WithWhisperModel(model string) WhisperOption {
	return func(w *WhisperRecognizer) { w.model = model }
}

// WithWhisperLanguage pins the recognition language instead of auto-detect.
func WithWhisperLanguage(lang string) WhisperOption {
	return func(w *WhisperRecognizer) { w.language = lang }
}

// NewWhisperRecognizer creates a Whisper-backed recognizer.
// apiKey is the OpenAI API key. OPENAI_BASE_URL overrides the endpoint
// for proxies and compatible servers.
func NewWhisperRecognizer(apiKey string, audioConfig AudioConfig, opts ...WhisperOption) (*WhisperRecognizer, error) {
	if apiKey == "" {
		return nil, &Error{
			Code:    ErrCodeInvalidConfig,
			Message: "OpenAI API key is required",
		}
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		clientConfig.BaseURL = baseURL
	}

	w := &WhisperRecognizer{
		client:      openai.NewClientWithConfig(clientConfig),
		audioConfig: audioConfig,
		model:       openai.Whisper1,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Name returns the provider name.
func (w *WhisperRecognizer) Name() string {
	return "openai-whisper"
}

// Recognize transcribes a complete PCM segment via the transcription API.
func (w *WhisperRecognizer) Recognize(ctx context.Context, pcm []byte) (*Result, error) {
	if len(pcm) == 0 {
		return nil, &Error{
			Code:    ErrCodeInvalidAudio,
			Message: "audio data is empty",
		}
	}

	// Whisper wants a container, not raw samples.
	wav := audio.EncodeWAV(pcm, w.audioConfig.SampleRate, w.audioConfig.Channels)

	req := openai.AudioRequest{
		Model:    w.model,
		FilePath: "audio.wav", // filename hint for the API
		Reader:   bytes.NewReader(wav),
		Language: w.language,
	}

	start := time.Now()
	resp, err := w.client.CreateTranscription(ctx, req)
	if err != nil {
		return nil, &Error{
			Code:    ErrCodeProviderError,
			Message: "Whisper API request failed",
			Err:     err,
		}
	}

	return &Result{
		Text:       resp.Text,
		IsFinal:    true,
		Confidence: -1, // Whisper does not report confidence
		Language:   w.language,
		Duration:   time.Since(start),
		Timestamp:  time.Now(),
	}, nil
}

// Close releases any resources held by the recognizer.
func (w *WhisperRecognizer) Close() error {
	return nil
}

var _ Recognizer = (*WhisperRecognizer)(nil)
