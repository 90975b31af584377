package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/Somers1/logsheet/internal/core/config"
)

// ModelProvider adapts any langchaingo model to Provider
type ModelProvider struct {
	name  string
	model llms.Model
	opts  generationOptions
}

// NewModelProvider wraps an already constructed langchaingo model
func NewModelProvider(name string, model llms.Model, maxTokens int, temperature float64) *ModelProvider {
	return &ModelProvider{name: name, model: model, opts: newGenerationOptions(maxTokens, temperature)}
}

// NewOpenAIProvider talks to OpenAI, or any compatible endpoint when base_url is set
func NewOpenAIProvider(cfg config.SummarizerConfig) (*ModelProvider, error) {
	model := cfg.Model
	if model == "" || model == config.Default().Summarizer.Model {
		model = "gpt-4o-mini"
	}
	opts := []openai.Option{openai.WithModel(model)}
	if cfg.APIKey != "" {
		opts = append(opts, openai.WithToken(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI LLM: %w", err)
	}
	return NewModelProvider("openai", llm, cfg.MaxTokens, cfg.Temperature), nil
}

// NewOllamaProvider talks to a local ollama server
func NewOllamaProvider(cfg config.SummarizerConfig) (*ModelProvider, error) {
	model := cfg.Model
	if model == "" || model == config.Default().Summarizer.Model {
		model = "llama3.1"
	}
	opts := []ollama.Option{ollama.WithModel(model)}
	if cfg.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama LLM: %w", err)
	}
	return NewModelProvider("ollama", llm, cfg.MaxTokens, cfg.Temperature), nil
}

// GenerateText implements Provider
func (p *ModelProvider) GenerateText(ctx context.Context, prompt string) (string, error) {
	return generate(ctx, p.model, prompt, p.opts)
}

// Name implements Provider
func (p *ModelProvider) Name() string {
	return p.name
}
