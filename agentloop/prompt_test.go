package agentloop

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompilePromptSubstitutesToolList(t *testing.T) {
	r := NewToolRegistry()
	require.NoError(t, r.Register(ToolDescriptor{Name: "calculator", Description: "does math", Invoke: noopTool}))
	require.NoError(t, r.Register(ToolDescriptor{Name: "time", Description: "tells time", Invoke: noopTool}))

	compiled := CompilePrompt(MustConfig("toolcall"), r)

	assert.NotContains(t, compiled, toolListPlaceholder)
	assert.Contains(t, compiled, "- calculator: does math\n- time: tells time")
	// The user input placeholder survives compilation for per-request binding.
	assert.Contains(t, compiled, userInputPlaceholder)
}

func TestCompilePromptIsDeterministic(t *testing.T) {
	r := NewToolRegistry()
	require.NoError(t, r.Register(ToolDescriptor{Name: "calculator", Description: "does math", Invoke: noopTool}))

	cfg := MustConfig("toolcall")
	first := CompilePrompt(cfg, r)
	second := CompilePrompt(cfg, r)
	assert.Equal(t, first, second)
}

func TestCompilePromptAppendsInstructionsThenExamples(t *testing.T) {
	r := NewToolRegistry()
	require.NoError(t, r.Register(ToolDescriptor{Name: "calculator", Description: "does math", Invoke: noopTool}))

	cfg := MustConfig("toolcall")
	cfg.SpecialInstructions = "Always answer in French."
	cfg.Examples = []string{"Q: 2+2 A: 4", "Q: 3*3 A: 9"}

	compiled := CompilePrompt(cfg, r)

	instrIdx := strings.Index(compiled, "Always answer in French.")
	exampleIdx := strings.Index(compiled, "Examples:\nQ: 2+2 A: 4\nQ: 3*3 A: 9")
	require.GreaterOrEqual(t, instrIdx, 0)
	require.GreaterOrEqual(t, exampleIdx, 0)
	assert.Less(t, instrIdx, exampleIdx)
}

func TestCompiledPromptCacheInvalidatesOnRegistryMutation(t *testing.T) {
	agent, err := New(MustConfig("toolcall"))
	require.NoError(t, err)
	defer agent.Close()

	require.NoError(t, agent.RegisterTool("calculator", "does math", noopTool))
	first := agent.compiledPrompt()
	assert.Contains(t, first, "- calculator: does math")

	// Unchanged registry reuses the cached compilation.
	assert.Equal(t, first, agent.compiledPrompt())

	require.NoError(t, agent.RegisterTool("time", "tells time", noopTool))
	second := agent.compiledPrompt()
	assert.NotEqual(t, first, second)
	assert.Contains(t, second, "- time: tells time")
}
