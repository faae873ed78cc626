package assistant

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"
)

const geminiDefaultModel = "gemini-2.0-flash"

// GeminiAssistant implements Assistant with the Google Gemini API.
type GeminiAssistant struct {
	client       *genai.Client
	model        string
	systemPrompt string

	mu      sync.Mutex
	history []*genai.Content
}

// NewGeminiAssistant creates a Gemini-backed assistant.
func NewGeminiAssistant(ctx context.Context, apiKey, model, systemPrompt string) (*GeminiAssistant, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		model = geminiDefaultModel
	}
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGoogleAI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	return &GeminiAssistant{
		client:       client,
		model:        model,
		systemPrompt: systemPrompt,
	}, nil
}

// Name returns the backend name.
func (a *GeminiAssistant) Name() string {
	return "gemini"
}

// Process sends the utterance with the recent history and returns the
// reply text.
func (a *GeminiAssistant) Process(ctx context.Context, text string) (string, error) {
	userTurn := &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: text}},
	}

	a.mu.Lock()
	contents := make([]*genai.Content, 0, len(a.history)+1)
	contents = append(contents, a.history...)
	contents = append(contents, userTurn)
	a.mu.Unlock()

	resp, err := a.client.Models.GenerateContent(ctx, a.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: a.systemPrompt}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	reply := collectText(resp)
	if reply == "" {
		return "", fmt.Errorf("no response from Gemini")
	}

	a.mu.Lock()
	a.history = append(a.history, userTurn, &genai.Content{
		Role:  "model",
		Parts: []*genai.Part{{Text: reply}},
	})
	if len(a.history) > historyWindow*2 {
		a.history = a.history[len(a.history)-historyWindow*2:]
	}
	a.mu.Unlock()

	return reply, nil
}

// Reset drops the conversation history.
func (a *GeminiAssistant) Reset() {
	a.mu.Lock()
	a.history = nil
	a.mu.Unlock()
}

func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var builder strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.Text != "" {
				builder.WriteString(part.Text)
			}
		}
	}
	return strings.TrimSpace(builder.String())
}

var _ Assistant = (*GeminiAssistant)(nil)
