package modelclient

import (
	"context"
	"fmt"
	"strings"
)

// New constructs a Provider for a supported backend. An empty model selects
// the catalog default; an empty apiKey falls back to the backend's
// environment variable. Unsupported names are a configuration error.
//
// Google Gemini's SDK dials during construction, so New takes a context for
// that path; the other backends construct lazily.
func New(ctx context.Context, provider, model, apiKey string) (Provider, error) {
	name := strings.ToLower(provider)
	info, ok := Lookup(name)
	if !ok {
		return nil, &ConfigurationError{ClientError: ClientError{
			Message: fmt.Sprintf("unsupported provider %q; supported: %s", provider, strings.Join(Supported(), ", ")),
		}}
	}

	if model == "" {
		model = info.DefaultModel
	}

	key, err := resolveAPIKey(info, apiKey)
	if err != nil {
		return nil, err
	}

	switch name {
	case "openai":
		return NewOpenAIProvider(model, key), nil
	case "groq":
		return NewGroqProvider(model, key), nil
	case "anthropic":
		return NewAnthropicProvider(model, key), nil
	case "google":
		return NewGeminiProvider(ctx, model, key)
	case "ollama":
		return NewOllamaProvider(model)
	default:
		// Unreachable: Lookup already filtered the name.
		return nil, &ConfigurationError{ClientError: ClientError{
			Message: fmt.Sprintf("unsupported provider %q", provider),
		}}
	}
}
