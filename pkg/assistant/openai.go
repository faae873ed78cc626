package assistant

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/sashabaranov/go-openai"
)

const openAIDefaultModel = openai.GPT4oMini

// historyWindow bounds how many past exchanges are sent with each turn.
const historyWindow = 10

// OpenAIAssistant implements Assistant with the OpenAI chat API. It
// keeps a sliding window of conversation history.
type OpenAIAssistant struct {
	client       *openai.Client
	model        string
	systemPrompt string

	mu      sync.Mutex
	history []openai.ChatCompletionMessage
}

// NewOpenAIAssistant creates an OpenAI-backed assistant. An empty model
// selects gpt-4o-mini; OPENAI_BASE_URL overrides the endpoint.
func NewOpenAIAssistant(apiKey, model, systemPrompt string) (*OpenAIAssistant, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if model == "" {
		model = openAIDefaultModel
	}
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		clientConfig.BaseURL = baseURL
	}

	return &OpenAIAssistant{
		client:       openai.NewClientWithConfig(clientConfig),
		model:        model,
		systemPrompt: systemPrompt,
	}, nil
}

// Name returns the backend name.
func (a *OpenAIAssistant) Name() string {
	return "openai"
}

// Process sends the utterance with the recent history and returns the
// reply text.
func (a *OpenAIAssistant) Process(ctx context.Context, text string) (string, error) {
	a.mu.Lock()
	messages := make([]openai.ChatCompletionMessage, 0, len(a.history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: a.systemPrompt,
	})
	messages = append(messages, a.history...)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: text,
	})
	a.mu.Unlock()

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    a.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}
	reply := resp.Choices[0].Message.Content

	a.mu.Lock()
	a.history = append(a.history,
		openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: text},
		openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: reply},
	)
	if len(a.history) > historyWindow*2 {
		a.history = a.history[len(a.history)-historyWindow*2:]
	}
	a.mu.Unlock()

	return reply, nil
}

// Reset drops the conversation history.
func (a *OpenAIAssistant) Reset() {
	a.mu.Lock()
	a.history = nil
	a.mu.Unlock()
}

var _ Assistant = (*OpenAIAssistant)(nil)
