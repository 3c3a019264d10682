package modelclient

import "context"

// Provider is the adapter contract one backend implements: a synchronous
// prompt-in/text-out call. Implementations translate backend-specific
// failures into this package's error types via Classify.
type Provider interface {
	// Name returns the provider identifier (e.g. "openai", "anthropic").
	Name() string

	// Generate sends the prompt and returns the model's full text reply.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Closer is optionally implemented by providers holding resources.
type Closer interface {
	Close() error
}
