package narration

import (
	"context"
	"fmt"
	"os"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const githubModelsURL = "https://models.inference.ai.azure.com"

// LangChainProvider drives any langchaingo model.
type LangChainProvider struct {
	model       llms.Model
	name        string
	temperature float64
	maxTokens   int
}

// NewLangChainProvider wraps an existing model.
func NewLangChainProvider(model llms.Model, name string) *LangChainProvider {
	return &LangChainProvider{
		model:       model,
		name:        name,
		temperature: 0.7,
		maxTokens:   120,
	}
}

// NewOpenAI creates a provider for the OpenAI API. OPENAI_API_KEY must be set.
func NewOpenAI(model string) (*LangChainProvider, error) {
	token := os.Getenv("OPENAI_API_KEY")
	if token == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI")
	}
	llm, err := openai.New(openai.WithToken(token), openai.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}
	return NewLangChainProvider(llm, model), nil
}

// NewGitHubModels creates a provider for GitHub Models, which speaks the
// OpenAI protocol. GITHUB_TOKEN must be set.
func NewGitHubModels(model string) (*LangChainProvider, error) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("GITHUB_TOKEN environment variable is required for GitHub Models")
	}
	llm, err := openai.New(
		openai.WithToken(token),
		openai.WithModel(model),
		openai.WithBaseURL(githubModelsURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub Models client: %w", err)
	}
	return NewLangChainProvider(llm, model), nil
}

// Complete implements Provider.
func (p *LangChainProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	content := make([]llms.MessageContent, len(messages))
	for i, msg := range messages {
		var msgType llms.ChatMessageType
		switch msg.Role {
		case "system":
			msgType = llms.ChatMessageTypeSystem
		case "assistant":
			msgType = llms.ChatMessageTypeAI
		default:
			msgType = llms.ChatMessageTypeHuman
		}
		content[i] = llms.TextParts(msgType, msg.Content)
	}

	resp, err := p.model.GenerateContent(ctx, content,
		llms.WithMaxTokens(p.maxTokens),
		llms.WithTemperature(p.temperature),
	)
	if err != nil {
		return "", fmt.Errorf("%s completion failed: %w", p.name, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from %s", p.name)
	}
	return resp.Choices[0].Content, nil
}

// SetTemperature sets the temperature for completions
func (p *LangChainProvider) SetTemperature(temp float64) {
	p.temperature = temp
}

// SetMaxTokens sets the max tokens for completions
func (p *LangChainProvider) SetMaxTokens(tokens int) {
	p.maxTokens = tokens
}
