package agentloop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopTool(CallArgs) (string, error) { return "ok", nil }

func TestRegistryRegisterAndResolve(t *testing.T) {
	r := NewToolRegistry()
	require.NoError(t, r.Register(ToolDescriptor{Name: "calculator", Description: "does math", Invoke: noopTool}))

	desc, ok := r.Resolve("calculator")
	require.True(t, ok)
	assert.Equal(t, "calculator", desc.Name)
	assert.Equal(t, "does math", desc.Description)
	assert.Equal(t, 1, r.Count())
}

func TestRegistryRejectsDuplicate(t *testing.T) {
	r := NewToolRegistry()
	require.NoError(t, r.Register(ToolDescriptor{Name: "calculator", Invoke: noopTool}))

	err := r.Register(ToolDescriptor{Name: "calculator", Invoke: noopTool})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
	assert.Equal(t, 1, r.Count())
}

func TestRegistryRejectsInvalidDescriptors(t *testing.T) {
	r := NewToolRegistry()
	assert.Error(t, r.Register(ToolDescriptor{Name: "", Invoke: noopTool}))
	assert.Error(t, r.Register(ToolDescriptor{Name: "broken"}))
}

func TestRegistryUnregister(t *testing.T) {
	r := NewToolRegistry()
	require.NoError(t, r.Register(ToolDescriptor{Name: "calculator", Invoke: noopTool}))

	assert.True(t, r.Unregister("calculator"))
	assert.False(t, r.Unregister("calculator"))

	_, ok := r.Resolve("calculator")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Count())
}

func TestRegistryPreservesRegistrationOrder(t *testing.T) {
	r := NewToolRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, r.Register(ToolDescriptor{Name: name, Invoke: noopTool}))
	}

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, r.Names())

	require.True(t, r.Unregister("alpha"))
	assert.Equal(t, []string{"zeta", "mid"}, r.Names())
}

func TestRegistryRevisionAdvancesOnMutation(t *testing.T) {
	r := NewToolRegistry()
	rev := r.Revision()

	require.NoError(t, r.Register(ToolDescriptor{Name: "calculator", Invoke: noopTool}))
	assert.Greater(t, r.Revision(), rev)

	rev = r.Revision()
	require.True(t, r.Unregister("calculator"))
	assert.Greater(t, r.Revision(), rev)
}
