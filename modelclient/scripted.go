package modelclient

import (
	"context"
	"sync"
)

// ScriptedProvider replays a fixed sequence of replies. It is useful for
// offline demos and for exercising the agent loop without API calls; once
// the script is exhausted it keeps returning the final reply.
type ScriptedProvider struct {
	replies []string
	mu      sync.Mutex
	next    int
}

// NewScriptedProvider creates a provider that replays the given replies in
// order.
func NewScriptedProvider(replies ...string) *ScriptedProvider {
	return &ScriptedProvider{replies: replies}
}

func (p *ScriptedProvider) Name() string { return "scripted" }

func (p *ScriptedProvider) Generate(_ context.Context, _ string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.replies) == 0 {
		return "", &ProviderError{
			ClientError: ClientError{Message: "scripted provider has no replies"},
			Provider:    "scripted",
		}
	}
	reply := p.replies[p.next]
	if p.next < len(p.replies)-1 {
		p.next++
	}
	return reply, nil
}

// Calls returns how many replies have been consumed so far.
func (p *ScriptedProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.next
}
