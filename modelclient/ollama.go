package modelclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"
)

// OllamaProvider serves local models through an Ollama daemon.
type OllamaProvider struct {
	client *ollama.Client
	model  string
}

// NewOllamaProvider creates a provider for a local Ollama daemon. The host
// comes from OLLAMA_HOST, defaulting to http://localhost:11434.
func NewOllamaProvider(model string) (*OllamaProvider, error) {
	host := os.Getenv("OLLAMA_HOST")
	if host == "" {
		host = "http://localhost:11434"
	}

	u, err := url.Parse(host)
	if err != nil {
		return nil, &ConfigurationError{ClientError: ClientError{
			Message: fmt.Sprintf("invalid OLLAMA_HOST %q", host),
			Cause:   err,
		}}
	}

	httpClient := &http.Client{
		Timeout: 60 * time.Second,
	}
	return &OllamaProvider{
		client: ollama.NewClient(u, httpClient),
		model:  model,
	}, nil
}

func (p *OllamaProvider) Name() string { return "ollama" }

func (p *OllamaProvider) Generate(ctx context.Context, prompt string) (string, error) {
	var text strings.Builder
	req := &ollama.GenerateRequest{
		Model:  p.model,
		Prompt: prompt,
	}
	if err := p.client.Generate(ctx, req, func(gr ollama.GenerateResponse) error {
		if gr.Response != "" {
			text.WriteString(gr.Response)
		}
		return nil
	}); err != nil {
		return "", Classify("ollama", err)
	}
	return text.String(), nil
}
