package agentloop

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpretToolCallReply(t *testing.T) {
	raw := "Sure, let me calculate that.\n```json\n" +
		`{"Tool call": "calculator", "Tool Parameters": {"expression": "2+2"}, "Final Response": "None"}` +
		"\n```"

	turn, err := Interpret(raw, toolcallSchema())
	require.NoError(t, err)

	assert.Equal(t, "calculator", turn.Tool)
	assert.JSONEq(t, `{"expression": "2+2"}`, string(turn.Parameters))
	assert.False(t, turn.HasAnswer())
}

func TestInterpretFinalAnswerReply(t *testing.T) {
	raw := "```json\n" +
		`{"Tool call": "None", "Tool Parameters": "None", "Final Response": "The answer is 4."}` +
		"\n```"

	turn, err := Interpret(raw, toolcallSchema())
	require.NoError(t, err)

	assert.False(t, turn.HasTool())
	assert.Nil(t, turn.Parameters)
	assert.Equal(t, "The answer is 4.", turn.Answer)
}

func TestInterpretSingleQuoteFence(t *testing.T) {
	raw := "'''json\n" +
		`{"Tool call": "time", "Tool Parameters": "None", "Final Response": "None"}` +
		"\n'''"

	turn, err := Interpret(raw, toolcallSchema())
	require.NoError(t, err)
	assert.Equal(t, "time", turn.Tool)
}

func TestInterpretNoStructuredBlock(t *testing.T) {
	_, err := Interpret("I think the answer is 4.", toolcallSchema())

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, ParseNoStructuredBlock, parseErr.Kind)
}

func TestInterpretMalformedBlock(t *testing.T) {
	raw := "```json\n{not valid json}\n```"

	_, err := Interpret(raw, toolcallSchema())

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, ParseMalformed, parseErr.Kind)
}

func TestInterpretMissingFields(t *testing.T) {
	raw := "```json\n" + `{"Tool call": "calculator"}` + "\n```"

	schema := ResponseSchema{
		RequiredFields: []string{"Tool call", "Tool Parameters", "Final Response"},
		RoleFields: map[Role]string{
			RoleTool:       "Tool call",
			RoleParameters: "Tool Parameters",
			RoleAnswer:     "Final Response",
		},
	}
	_, err := Interpret(raw, schema)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, ParseMissingFields, parseErr.Kind)
	assert.Equal(t, []string{"Tool Parameters", "Final Response"}, parseErr.Missing)
}

func TestInterpretDefaultsFillOptionalFields(t *testing.T) {
	// An optional defaulted field may be omitted without failing validation.
	schema := ResponseSchema{
		RequiredFields: []string{"tool"},
		RoleFields: map[Role]string{
			RoleTool:   "tool",
			RoleAnswer: "answer",
		},
		Defaults: map[string]any{"answer": "None"},
	}

	raw := "```json\n" + `{"tool": "time"}` + "\n```"
	turn, err := Interpret(raw, schema)
	require.NoError(t, err)
	assert.Equal(t, "time", turn.Tool)
	assert.False(t, turn.HasAnswer())
}

func TestInterpretActionDialectSentinels(t *testing.T) {
	schema := MustConfig("action").Schema

	raw := "```json\n" + `{"action": "search", "input": "golang", "output": "pending"}` + "\n```"
	turn, err := Interpret(raw, schema)
	require.NoError(t, err)
	assert.Equal(t, "search", turn.Tool)
	assert.False(t, turn.HasAnswer(), "pending must read as no answer yet")

	raw = "```json\n" + `{"action": "respond", "input": "None", "output": "Here you go."}` + "\n```"
	turn, err = Interpret(raw, schema)
	require.NoError(t, err)
	assert.False(t, turn.HasTool(), "respond must read as no tool call")
	assert.Equal(t, "Here you go.", turn.Answer)
}

func TestInterpretFunctionDialectNulls(t *testing.T) {
	schema := MustConfig("function").Schema

	raw := "```json\n" + `{"function": null, "args": null, "result": "done"}` + "\n```"
	turn, err := Interpret(raw, schema)
	require.NoError(t, err)
	assert.False(t, turn.HasTool())
	assert.Nil(t, turn.Parameters)
	assert.Equal(t, "done", turn.Answer)
}

func TestInterpretReasoningListJoined(t *testing.T) {
	schema := MustConfig("cot").Schema

	raw := "```json\n" +
		`{"reasoning_steps": ["read the question", "pick a tool"], "tool_needed": "calculator", "tool_args": "2+2", "final_answer": "None"}` +
		"\n```"
	turn, err := Interpret(raw, schema)
	require.NoError(t, err)
	assert.Equal(t, "read the question; pick a tool", turn.Reasoning)
	assert.Equal(t, "calculator", turn.Tool)
	assert.Equal(t, json.RawMessage(`"2+2"`), turn.Parameters)
}

func TestInterpretSentinelParametersErased(t *testing.T) {
	raw := "```json\n" +
		`{"Tool call": "time", "Tool Parameters": "None", "Final Response": "None"}` +
		"\n```"

	turn, err := Interpret(raw, toolcallSchema())
	require.NoError(t, err)
	assert.Nil(t, turn.Parameters)
}
