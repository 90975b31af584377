package llm

import (
	"context"
	"fmt"

	"github.com/Somers1/logsheet/internal/core/apperrors"
	"github.com/Somers1/logsheet/internal/core/config"
)

// Provider is the interface for LLM backends
type Provider interface {
	// GenerateText generates text from a prompt
	GenerateText(ctx context.Context, prompt string) (string, error)

	// Name returns the provider name (e.g., "bedrock", "openai", "ollama")
	Name() string
}

// NewProvider builds the backend named by cfg.Provider. It is called once per
// run and the result passed down to whatever needs it.
func NewProvider(ctx context.Context, cfg config.SummarizerConfig) (Provider, error) {
	switch cfg.Provider {
	case "", "bedrock":
		return NewBedrockProvider(ctx, BedrockConfig{
			Region:          cfg.Region,
			ModelID:         cfg.Model,
			Profile:         cfg.Profile,
			AccessKeyID:     cfg.AccessKey,
			SecretAccessKey: cfg.SecretKey,
			MaxTokens:       cfg.MaxTokens,
			Temperature:     cfg.Temperature,
		})
	case "openai":
		return NewOpenAIProvider(cfg)
	case "ollama":
		return NewOllamaProvider(cfg)
	default:
		return nil, apperrors.Misconfigured("unknown summarizer provider %q", cfg.Provider)
	}
}

// generationOptions mirrors the knobs every backend accepts
type generationOptions struct {
	maxTokens   int
	temperature float64
}

func newGenerationOptions(maxTokens int, temperature float64) generationOptions {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return generationOptions{maxTokens: maxTokens, temperature: temperature}
}

func (o generationOptions) String() string {
	return fmt.Sprintf("max_tokens=%d temperature=%.2f", o.maxTokens, o.temperature)
}
