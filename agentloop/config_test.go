package agentloop

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinConfigsAreInternallyConsistent(t *testing.T) {
	for _, name := range ConfigNames() {
		t.Run(name, func(t *testing.T) {
			cfg, err := Config(name)
			require.NoError(t, err)
			assert.NoError(t, cfg.check())
			assert.Contains(t, cfg.PromptTemplate, toolListPlaceholder)
			assert.Contains(t, cfg.PromptTemplate, userInputPlaceholder)
			assert.GreaterOrEqual(t, cfg.maxIterations(), 1)
		})
	}
}

func TestConfigNames(t *testing.T) {
	names := ConfigNames()
	assert.Equal(t, []string{"action", "cot", "function", "react", "toolcall"}, names)
}

func TestConfigUnknownName(t *testing.T) {
	_, err := Config("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown agent config")
	assert.Contains(t, err.Error(), "toolcall")
}

func TestMustConfigPanicsOnUnknownName(t *testing.T) {
	assert.Panics(t, func() { MustConfig("nope") })
	assert.NotPanics(t, func() { MustConfig("react") })
}

func TestConfigMaxIterationsFallback(t *testing.T) {
	cfg := AgentConfig{MaxIterations: 0}
	assert.Equal(t, DefaultMaxIterations, cfg.maxIterations())

	cfg.MaxIterations = -5
	assert.Equal(t, DefaultMaxIterations, cfg.maxIterations())

	cfg.MaxIterations = 3
	assert.Equal(t, 3, cfg.maxIterations())
}

func TestConfigCheckRejectsBadTemplates(t *testing.T) {
	cfg := MustConfig("toolcall")

	cfg.PromptTemplate = "   "
	assert.Error(t, cfg.check())

	cfg.PromptTemplate = "no placeholder here {user_input}"
	err := cfg.check()
	require.Error(t, err)
	assert.Contains(t, err.Error(), toolListPlaceholder)
}

func TestNewCustomConfig(t *testing.T) {
	template := "Respond in JSON.\nTools:\n{tool_list}\n\nquery: {user_input}"
	cfg := NewCustomConfig("pirate", template,
		[]string{"tool", "params", "reply"},
		map[Role]string{
			RoleTool:       "tool",
			RoleParameters: "params",
			RoleAnswer:     "reply",
		})

	require.NoError(t, cfg.check())
	assert.Equal(t, "pirate", cfg.Name)
	assert.Equal(t, DefaultMaxIterations, cfg.MaxIterations)
}

func TestBuiltinConfigSharingIsSafe(t *testing.T) {
	// Config returns a value copy; mutating it must not leak into the
	// built-in table.
	cfg := MustConfig("toolcall")
	cfg.MaxIterations = 1
	cfg.SpecialInstructions = "mutated"

	fresh := MustConfig("toolcall")
	assert.Equal(t, DefaultMaxIterations, fresh.MaxIterations)
	assert.Empty(t, fresh.SpecialInstructions)
}

func TestBuiltinTemplatesNameTheirFields(t *testing.T) {
	// Each template must instruct the model about every required field.
	for _, name := range ConfigNames() {
		cfg := MustConfig(name)
		for _, field := range cfg.Schema.RequiredFields {
			assert.True(t, strings.Contains(cfg.PromptTemplate, field),
				"config %s template does not mention field %q", name, field)
		}
	}
}
