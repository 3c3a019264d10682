package modelclient

import (
	"context"
	"fmt"

	"github.com/teilomillet/gollm"
)

// GollmProvider is the generic multi-provider path: it wraps a gollm.LLM
// instance, which covers any backend gollm supports without a dedicated
// adapter here.
type GollmProvider struct {
	provider string
	llm      gollm.LLM
}

// GollmOption configures a GollmProvider.
type GollmOption func(*gollmConfig)

type gollmConfig struct {
	maxTokens   int
	temperature float64
	extraOpts   []gollm.ConfigOption
}

// WithMaxTokens sets the completion token limit.
func WithMaxTokens(n int) GollmOption {
	return func(c *gollmConfig) { c.maxTokens = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) GollmOption {
	return func(c *gollmConfig) { c.temperature = t }
}

// WithGollmOptions appends raw gollm configuration options.
func WithGollmOptions(opts ...gollm.ConfigOption) GollmOption {
	return func(c *gollmConfig) { c.extraOpts = append(c.extraOpts, opts...) }
}

// NewGollmProvider creates a gollm-backed provider. If apiKey is empty,
// gollm reads it from the provider's environment variable.
func NewGollmProvider(provider, model, apiKey string, opts ...GollmOption) (*GollmProvider, error) {
	cfg := &gollmConfig{
		maxTokens:   4096,
		temperature: 0.7,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	gollmOpts := []gollm.ConfigOption{
		gollm.SetProvider(provider),
		gollm.SetModel(model),
		gollm.SetMaxTokens(cfg.maxTokens),
		gollm.SetTemperature(cfg.temperature),
		gollm.SetMaxRetries(0), // the Client handles retries
		gollm.SetLogLevel(gollm.LogLevelWarn),
	}
	if apiKey != "" {
		gollmOpts = append(gollmOpts, gollm.SetAPIKey(apiKey))
	}
	gollmOpts = append(gollmOpts, cfg.extraOpts...)

	llm, err := gollm.NewLLM(gollmOpts...)
	if err != nil {
		return nil, &ConfigurationError{ClientError: ClientError{
			Message: fmt.Sprintf("failed to create gollm LLM for provider %s", provider),
			Cause:   err,
		}}
	}

	return &GollmProvider{provider: provider, llm: llm}, nil
}

// NewGollmProviderFromLLM wraps an existing gollm.LLM instance.
func NewGollmProviderFromLLM(provider string, llm gollm.LLM) *GollmProvider {
	return &GollmProvider{provider: provider, llm: llm}
}

func (p *GollmProvider) Name() string { return p.provider }

func (p *GollmProvider) Generate(ctx context.Context, prompt string) (string, error) {
	text, err := p.llm.Generate(ctx, gollm.NewPrompt(prompt))
	if err != nil {
		return "", Classify(p.provider, err)
	}
	return text, nil
}
