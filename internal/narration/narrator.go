package narration

import (
	"context"
	"fmt"
	"strings"

	"fuzzymenu/internal/cascade"
	"fuzzymenu/internal/config"
	"fuzzymenu/internal/models"
)

const systemPrompt = "You are a friendly waiter. In at most two short sentences, tell the guest " +
	"why the suggested dish suits them. Do not suggest a different dish."

// Narrator turns a recommendation into a sentence for the guest.
type Narrator struct {
	provider Provider
}

// NewNarrator wraps a provider.
func NewNarrator(p Provider) *Narrator {
	return &Narrator{provider: p}
}

// New builds the narrator selected by cfg. It returns nil and no error when
// narration is disabled.
func New(cfg config.LLMConfig) (*Narrator, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	var (
		p   Provider
		err error
	)
	switch cfg.Provider {
	case ProviderOpenAI, "", ProviderGitHubModels:
		var lc *LangChainProvider
		if cfg.Provider == ProviderGitHubModels {
			lc, err = NewGitHubModels(cfg.Model)
		} else {
			lc, err = NewOpenAI(cfg.Model)
		}
		if err != nil {
			return nil, err
		}
		tune(lc, cfg)
		p = lc
	case ProviderAzureOpenAI:
		p, err = NewAzureOpenAIProvider()
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return NewNarrator(p), nil
}

// tune applies the optional sampling settings; zero keeps the provider default.
func tune(p *LangChainProvider, cfg config.LLMConfig) {
	if cfg.Temperature > 0 {
		p.SetTemperature(cfg.Temperature)
	}
	if cfg.MaxTokens > 0 {
		p.SetMaxTokens(cfg.MaxTokens)
	}
}

// Describe asks the provider to explain res to the guest who gave r.
func (n *Narrator) Describe(ctx context.Context, r models.Ratings, res cascade.Result) (string, error) {
	text, err := n.provider.Complete(ctx, []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: Prompt(r, res)},
	})
	if err != nil {
		return "", fmt.Errorf("narration failed: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("narration failed: empty text")
	}
	return text, nil
}

// Prompt renders the user message for one recommendation.
func Prompt(r models.Ratings, res cascade.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Guest ratings on a 0-10 scale: sweetness %g, saltiness %g, budget %g, hunger %g.\n",
		r.Sweetness, r.Saltiness, r.Budget, r.Hunger)
	fmt.Fprintf(&b, "Desired taste %.1f (0 salty, 5 sweet and sour, 10 sweet), dish intensity %.1f (0 light, 10 strong).\n",
		res.DesiredTaste, res.DishIntensity)
	fmt.Fprintf(&b, "Suggested dish: %s.", res.DishName)
	return b.String()
}
