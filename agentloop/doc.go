// Package agentloop implements a schema-driven tool-calling agent loop.
//
// It constrains a free-text language model to a machine-checkable response
// protocol: each turn the model answers with a single fenced JSON block, the
// loop interprets that block against the active ResponseSchema, and either
// executes the named tool or finishes with the model's answer.
//
// The package is organized around these core concepts:
//
//   - Agent: The loop orchestrator. Compiles the prompt, calls the model,
//     interprets replies, dispatches tools, and enforces the turn budget.
//   - AgentConfig: An immutable agent personality pairing a prompt template
//     with a ResponseSchema. Built-in personalities mirror common dialects
//     (toolcall, action, react, function, cot).
//   - ResponseSchema: Maps the loop's role vocabulary (tool, parameters,
//     answer, reasoning) onto the literal field names of a prompt dialect,
//     so one engine supports arbitrarily many dialects without branching.
//   - ToolRegistry: Ordered registration and lookup of tool descriptors.
//     Registration order is observable in the compiled prompt.
//   - EventEmitter: Typed event stream for host application integration.
//
// # Quick Start
//
//	agent, err := agentloop.New(agentloop.MustConfig("toolcall"),
//	    agentloop.WithModel(client))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	agent.RegisterTool("calculator", "Evaluates arithmetic expressions", calc)
//
//	result, err := agent.Invoke(ctx, "what is 456*789")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Answer)
//
// The model collaborator is any implementation of the Model interface; the
// modelclient package provides clients for OpenAI, Anthropic, Groq, Google
// Gemini, Ollama, and a generic gollm-backed path.
package agentloop
