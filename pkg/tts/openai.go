package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
)

const (
	openAIEndpoint         = "https://api.openai.com/v1/audio/speech"
	openAIDefaultModel     = "tts-1"
	openAIDefaultVoice     = "alloy"
	openAIResponseFormat   = "pcm" // raw 16-bit PCM, no container
	openAIOutputSampleRate = 24000
)

var openAIVoices = []string{
	"alloy",   // neutral and balanced
	"echo",    // more expressive
	"fable",   // British accent
	"onyx",    // deep and authoritative
	"nova",    // energetic and lively
	"shimmer", // soft and gentle
}

// OpenAIProvider implements Provider using OpenAI's speech API.
// Output is always 24kHz mono PCM.
type OpenAIProvider struct {
	apiKey     string
	model      string // "tts-1" or "tts-1-hd"
	httpClient *http.Client
}

type openAIRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format,omitempty"`
	Speed          float64 `json:"speed,omitempty"` // 0.25 to 4.0
}

// NewOpenAIProvider creates an OpenAI TTS provider. An empty apiKey falls
// back to OPENAI_API_KEY.
func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	return &OpenAIProvider{
		apiKey:     apiKey,
		model:      openAIDefaultModel,
		httpClient: &http.Client{},
	}
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// SetModel switches between "tts-1" and "tts-1-hd".
func (p *OpenAIProvider) SetModel(model string) {
	p.model = model
}

// Synthesize converts text to speech.
func (p *OpenAIProvider) Synthesize(ctx context.Context, req *SynthesizeRequest) (*SynthesizeResponse, error) {
	if err := p.ValidateConfig(); err != nil {
		return nil, err
	}

	voice := req.Voice
	if voice == "" {
		voice = openAIDefaultVoice
	}
	speed := req.Speed
	if speed == 0 {
		speed = 1.0
	}

	payload := openAIRequest{
		Model:          p.model,
		Input:          req.Text,
		Voice:          voice,
		ResponseFormat: openAIResponseFormat,
		Speed:          speed,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", openAIEndpoint, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

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
		SampleRate: openAIOutputSampleRate,
	}, nil
}

// SampleRate returns the rate the provider emits PCM at.
func (p *OpenAIProvider) SampleRate() int {
	return openAIOutputSampleRate
}

// SupportedVoices returns voice IDs accepted in SynthesizeRequest.
func (p *OpenAIProvider) SupportedVoices() []string {
	voices := make([]string, len(openAIVoices))
	copy(voices, openAIVoices)
	return voices
}

// DefaultVoice returns the voice used when none is requested.
func (p *OpenAIProvider) DefaultVoice() string {
	return openAIDefaultVoice
}

// ValidateConfig checks that an API key is present.
func (p *OpenAIProvider) ValidateConfig() error {
	if p.apiKey == "" {
		return fmt.Errorf("OpenAI API key is required")
	}
	return nil
}

var _ Provider = (*OpenAIProvider)(nil)
