// Package narration asks a language model for a one or two sentence
// description of a recommendation. It is optional: the recommender works
// without it and treats narration failures as non-fatal.
package narration

import "context"

// Message represents a chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider is a chat completion backend.
type Provider interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Provider names accepted by New.
const (
	ProviderOpenAI       = "openai"
	ProviderGitHubModels = "github_models"
	ProviderAzureOpenAI  = "azure_openai"
)
