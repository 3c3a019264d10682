// Package modelclient provides the model collaborator behind the agent
// loop: one blocking Generate(ctx, prompt) call, served by interchangeable
// provider adapters.
//
// # Architecture
//
//   - Provider: the adapter interface, one implementation per backend
//     (OpenAI, Groq, Anthropic, Google Gemini, Ollama, and a generic
//     gollm-backed path).
//   - Client: routes requests to a registered provider and applies the
//     retry policy and per-call timeout.
//   - Errors: a small typed hierarchy classifying provider failures by
//     retryability.
//
// # Quick Start
//
//	provider, err := modelclient.New(ctx, "anthropic", "", "") // key from env
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := modelclient.NewClient(modelclient.WithProvider(provider))
//
//	text, err := client.Generate(ctx, "Hello")
//
// Client satisfies the agentloop.Model interface directly.
package modelclient
