package llm

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/bedrock"
)

// BedrockProvider implements Provider using AWS Bedrock
type BedrockProvider struct {
	llm     *bedrock.LLM
	modelID string
	opts    generationOptions
}

// BedrockConfig holds configuration for Bedrock provider
type BedrockConfig struct {
	Region          string // AWS region, defaults to us-east-1
	ModelID         string // Model ID, defaults to anthropic.claude-3-haiku-20240307-v1:0
	Profile         string // AWS profile name (optional)
	AccessKeyID     string // AWS access key ID (optional, for explicit creds)
	SecretAccessKey string // AWS secret access key (optional, for explicit creds)
	MaxTokens       int
	Temperature     float64
}

// NewBedrockProvider creates a new Bedrock provider
func NewBedrockProvider(ctx context.Context, cfg BedrockConfig) (*BedrockProvider, error) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.ModelID == "" {
		cfg.ModelID = "anthropic.claude-3-haiku-20240307-v1:0"
	}

	var opts []func(*config.LoadOptions) error
	opts = append(opts, config.WithRegion(cfg.Region), config.WithRetryMode(aws.RetryModeAdaptive))
	if cfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := bedrockruntime.NewFromConfig(awsCfg)

	llm, err := bedrock.New(
		bedrock.WithModel(cfg.ModelID),
		bedrock.WithClient(client),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bedrock LLM: %w", err)
	}

	return &BedrockProvider{
		llm:     llm,
		modelID: cfg.ModelID,
		opts:    newGenerationOptions(cfg.MaxTokens, cfg.Temperature),
	}, nil
}

// GenerateText implements Provider
func (p *BedrockProvider) GenerateText(ctx context.Context, prompt string) (string, error) {
	return generate(ctx, p.llm, prompt, p.opts)
}

// Name implements Provider
func (p *BedrockProvider) Name() string {
	return "bedrock"
}

func generate(ctx context.Context, model llms.Model, prompt string, opts generationOptions) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, model, prompt,
		llms.WithMaxTokens(opts.maxTokens),
		llms.WithTemperature(opts.temperature),
	)
}
