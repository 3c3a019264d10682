package agentloop

import "strings"

// CompilePrompt merges a config's template with the live tool list. The
// {tool_list} placeholder is replaced by a deterministic newline-joined
// rendering of "- <name>: <description>" in registration order;
// {user_input} is left intact for per-request binding. Special
// instructions and examples follow the substituted body, in that order.
//
// Compilation is deterministic: the same config and registry contents
// always produce byte-identical text.
func CompilePrompt(config AgentConfig, registry *ToolRegistry) string {
	descs := registry.Descriptors()
	lines := make([]string, len(descs))
	for i, desc := range descs {
		lines[i] = "- " + desc.Name + ": " + desc.Description
	}

	compiled := strings.Replace(config.PromptTemplate, toolListPlaceholder, strings.Join(lines, "\n"), 1)

	if config.SpecialInstructions != "" {
		compiled += "\n\n" + config.SpecialInstructions
	}
	if len(config.Examples) > 0 {
		compiled += "\n\nExamples:\n" + strings.Join(config.Examples, "\n")
	}
	return compiled
}

// compiledPrompt returns the cached compiled prompt, recompiling lazily on
// first use after any registry mutation.
func (a *Agent) compiledPrompt() string {
	rev := a.registry.Revision()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.compiled == "" || a.compiledRev != rev {
		a.compiled = CompilePrompt(a.config, a.registry)
		a.compiledRev = rev
	}
	return a.compiled
}
