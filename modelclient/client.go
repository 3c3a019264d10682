package modelclient

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Client routes Generate calls to a registered provider and applies the
// retry policy and per-call timeout. It satisfies the agentloop.Model
// interface.
type Client struct {
	providers       map[string]Provider
	defaultProvider string
	retryPolicy     RetryPolicy
	timeout         time.Duration
	mu              sync.RWMutex
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithProvider registers a provider under its own name. The first provider
// registered becomes the default.
func WithProvider(p Provider) ClientOption {
	return func(c *Client) {
		c.providers[p.Name()] = p
		if c.defaultProvider == "" {
			c.defaultProvider = p.Name()
		}
	}
}

// WithDefaultProvider sets the default provider name.
func WithDefaultProvider(name string) ClientOption {
	return func(c *Client) {
		c.defaultProvider = name
	}
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(policy RetryPolicy) ClientOption {
	return func(c *Client) {
		c.retryPolicy = policy
	}
}

// WithTimeout bounds each Generate call. 0 disables the bound.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// NewClient creates a Client with the given options.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		providers:   make(map[string]Provider),
		retryPolicy: DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RegisterProvider adds a provider after construction.
func (c *Client) RegisterProvider(p Provider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.providers[p.Name()] = p
	if c.defaultProvider == "" {
		c.defaultProvider = p.Name()
	}
}

// Generate sends the prompt to the default provider.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.GenerateWith(ctx, "", prompt)
}

// GenerateWith sends the prompt to a named provider. An empty name selects
// the default.
func (c *Client) GenerateWith(ctx context.Context, provider, prompt string) (string, error) {
	p, err := c.resolve(provider)
	if err != nil {
		return "", err
	}

	c.mu.RLock()
	policy := c.retryPolicy
	timeout := c.timeout
	c.mu.RUnlock()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	return retry(ctx, policy, func(ctx context.Context) (string, error) {
		return p.Generate(ctx, prompt)
	})
}

func (c *Client) resolve(name string) (Provider, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if name == "" {
		name = c.defaultProvider
	}
	if name == "" {
		return nil, &ConfigurationError{ClientError: ClientError{
			Message: "no provider specified and no default provider configured",
		}}
	}
	p, ok := c.providers[name]
	if !ok {
		return nil, &ConfigurationError{ClientError: ClientError{
			Message: fmt.Sprintf("provider %q is not registered", name),
		}}
	}
	return p, nil
}

// Close releases resources held by all registered providers.
func (c *Client) Close() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var firstErr error
	for _, p := range c.providers {
		if closer, ok := p.(Closer); ok {
			if err := closer.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
