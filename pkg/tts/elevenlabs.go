// ElevenLabs HTTP TTS provider. Outputs 16kHz mono PCM, which matches the
// capture sample rate so a single output device can serve both providers
// only when configured for it.
//
// Reference: https://elevenlabs.io/docs/api-reference/text-to-speech

package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

const (
	elevenLabsEndpoint        = "https://api.elevenlabs.io/v1/text-to-speech"
	elevenLabsDefaultModel    = "eleven_multilingual_v2"
	elevenLabsOutputFormat    = "pcm_16000"
	elevenLabsSampleRate      = 16000
	elevenLabsLatencyOptimize = 3
)

// Partial list; use the API to enumerate the full set.
var elevenLabsVoices = []string{
	"21m00Tcm4TlvDq8ikWAM", // Rachel
	"EXAVITQu4vr4xnSDxMaL", // Bella
	"ErXwobaYiN019PkySvjV", // Antoni
	"TxGEqnHWrfWFTfGW9XjX", // Josh
	"pNInz6obpgDQGcFmaJgB", // Adam
}

// ElevenLabsConfig holds the configuration for the ElevenLabs provider.
type ElevenLabsConfig struct {
	APIKey          string  // required
	VoiceID         string  // required
	Model           string  // default eleven_multilingual_v2
	Stability       float64 // 0-1, default 0.5
	SimilarityBoost float64 // 0-1, default 0.75
}

// ElevenLabsProvider implements Provider using the ElevenLabs HTTP API.
type ElevenLabsProvider struct {
	apiKey          string
	voiceID         string
	model           string
	stability       float64
	similarityBoost float64
	httpClient      *http.Client
}

// NewElevenLabsProvider creates an ElevenLabs TTS provider.
func NewElevenLabsProvider(config ElevenLabsConfig) (*ElevenLabsProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("ElevenLabs API key is required")
	}
	if config.VoiceID == "" {
		return nil, fmt.Errorf("ElevenLabs voice ID is required")
	}

	model := config.Model
	if model == "" {
		model = elevenLabsDefaultModel
	}
	stability := config.Stability
	if stability == 0 {
		stability = 0.5
	}
	similarityBoost := config.SimilarityBoost
	if similarityBoost == 0 {
		similarityBoost = 0.75
	}

	return &ElevenLabsProvider{
		apiKey:          config.APIKey,
		voiceID:         config.VoiceID,
		model:           model,
		stability:       stability,
		similarityBoost: similarityBoost,
		httpClient:      &http.Client{},
	}, nil
}

// Name returns the provider name.
func (p *ElevenLabsProvider) Name() string {
	return "elevenlabs"
}

type elevenLabsRequest struct {
	Text          string                 `json:"text"`
	ModelID       string                 `json:"model_id"`
	VoiceSettings map[string]interface{} `json:"voice_settings,omitempty"`
}

// Synthesize converts text to speech.
func (p *ElevenLabsProvider) Synthesize(ctx context.Context, req *SynthesizeRequest) (*SynthesizeResponse, error) {
	voiceID := req.Voice
	if voiceID == "" {
		voiceID = p.voiceID
	}

	voiceSettings := map[string]interface{}{
		"stability":        p.stability,
		"similarity_boost": p.similarityBoost,
	}
	if req.Speed != 0 {
		voiceSettings["speed"] = req.Speed
	}

	payload := elevenLabsRequest{
		Text:          req.Text,
		ModelID:       p.model,
		VoiceSettings: voiceSettings,
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	params := url.Values{}
	params.Set("output_format", elevenLabsOutputFormat)
	params.Set("optimize_streaming_latency", strconv.Itoa(elevenLabsLatencyOptimize))
	endpoint := fmt.Sprintf("%s/%s?%s", elevenLabsEndpoint, voiceID, params.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("xi-api-key", p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	pcm, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &SynthesizeResponse{
		PCM:        pcm,
		SampleRate: elevenLabsSampleRate,
	}, nil
}

// SampleRate returns the rate the provider emits PCM at.
func (p *ElevenLabsProvider) SampleRate() int {
	return elevenLabsSampleRate
}

// SupportedVoices returns the known voice IDs.
func (p *ElevenLabsProvider) SupportedVoices() []string {
	voices := make([]string, len(elevenLabsVoices))
	copy(voices, elevenLabsVoices)
	return voices
}

// DefaultVoice returns the configured voice ID.
func (p *ElevenLabsProvider) DefaultVoice() string {
	return p.voiceID
}

// ValidateConfig checks required settings.
func (p *ElevenLabsProvider) ValidateConfig() error {
	if p.apiKey == "" {
		return fmt.Errorf("ElevenLabs API key is required")
	}
	if p.voiceID == "" {
		return fmt.Errorf("ElevenLabs voice ID is required")
	}
	return nil
}

var _ Provider = (*ElevenLabsProvider)(nil)
