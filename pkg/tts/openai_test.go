package tts

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
)

func TestOpenAIProvider_Name(t *testing.T) {
	provider := NewOpenAIProvider("test-key")
	if provider.Name() != "openai" {
		t.Errorf("Expected name 'openai', got '%s'", provider.Name())
	}
}

func TestOpenAIProvider_DefaultVoice(t *testing.T) {
	provider := NewOpenAIProvider("test-key")
	if provider.DefaultVoice() != "alloy" {
		t.Errorf("Expected default voice 'alloy', got '%s'", provider.DefaultVoice())
	}
}

func TestOpenAIProvider_SupportedVoices(t *testing.T) {
	provider := NewOpenAIProvider("test-key")
	voices := provider.SupportedVoices()
	if len(voices) != 6 {
		t.Errorf("Expected 6 voices, got %d", len(voices))
	}

	found := false
	for _, v := range voices {
		if v == "nova" {
			found = true
		}
	}
	if !found {
		t.Error("Expected voice 'nova' not found")
	}
}

func TestOpenAIProvider_ValidateConfig(t *testing.T) {
	originalKey := os.Getenv("OPENAI_API_KEY")
	os.Unsetenv("OPENAI_API_KEY")
	defer func() {
		if originalKey != "" {
			os.Setenv("OPENAI_API_KEY", originalKey)
		}
	}()

	provider := NewOpenAIProvider("sk-test-key")
	if err := provider.ValidateConfig(); err != nil {
		t.Errorf("Expected valid config, got error: %v", err)
	}

	provider = NewOpenAIProvider("")
	if err := provider.ValidateConfig(); err == nil {
		t.Error("Expected error for empty API key, got nil")
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestOpenAIProvider_Synthesize(t *testing.T) {
	pcm := make([]byte, 960)

	provider := NewOpenAIProvider("test-key")
	provider.httpClient = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			if req.Header.Get("Authorization") != "Bearer test-key" {
				t.Errorf("Unexpected Authorization header: %s", req.Header.Get("Authorization"))
			}
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(bytes.NewReader(pcm)),
				Request:    req,
			}, nil
		}),
	}

	resp, err := provider.Synthesize(context.Background(), &SynthesizeRequest{Text: "hello"})
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if len(resp.PCM) != len(pcm) {
		t.Errorf("Expected %d PCM bytes, got %d", len(pcm), len(resp.PCM))
	}
	if resp.SampleRate != 24000 {
		t.Errorf("Expected 24000Hz output, got %d", resp.SampleRate)
	}
}

func TestOpenAIProvider_SynthesizeAPIError(t *testing.T) {
	provider := NewOpenAIProvider("test-key")
	provider.httpClient = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusUnauthorized,
				Body:       io.NopCloser(strings.NewReader(`{"error":"invalid key"}`)),
				Request:    req,
			}, nil
		}),
	}

	_, err := provider.Synthesize(context.Background(), &SynthesizeRequest{Text: "hello"})
	if err == nil {
		t.Fatal("Expected error for 401 response, got nil")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("Expected status code in error, got: %v", err)
	}
}

func TestElevenLabsProvider_Config(t *testing.T) {
	_, err := NewElevenLabsProvider(ElevenLabsConfig{VoiceID: "v"})
	if err == nil {
		t.Error("Expected error for missing API key")
	}

	_, err = NewElevenLabsProvider(ElevenLabsConfig{APIKey: "k"})
	if err == nil {
		t.Error("Expected error for missing voice ID")
	}

	p, err := NewElevenLabsProvider(ElevenLabsConfig{APIKey: "k", VoiceID: "v"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if p.Name() != "elevenlabs" {
		t.Errorf("Expected name 'elevenlabs', got '%s'", p.Name())
	}
	if p.SampleRate() != 16000 {
		t.Errorf("Expected 16000Hz output, got %d", p.SampleRate())
	}
	if p.model != elevenLabsDefaultModel {
		t.Errorf("Expected default model, got '%s'", p.model)
	}
}

func TestMockProvider(t *testing.T) {
	m := &MockProvider{PCMBytesPerCall: 1280}

	resp, err := m.Synthesize(context.Background(), &SynthesizeRequest{Text: "hi there"})
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if len(resp.PCM) != 1280 {
		t.Errorf("Expected 1280 PCM bytes, got %d", len(resp.PCM))
	}
	if got := m.Texts(); len(got) != 1 || got[0] != "hi there" {
		t.Errorf("Unexpected recorded texts: %v", got)
	}
}
