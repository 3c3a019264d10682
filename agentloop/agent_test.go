package agentloop

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedModel replays canned replies; the last reply repeats once the
// script runs out.
type scriptedModel struct {
	replies []string
	calls   int
	err     error
}

func (m *scriptedModel) Generate(_ context.Context, _ string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	i := m.calls - 1
	if i >= len(m.replies) {
		i = len(m.replies) - 1
	}
	return m.replies[i], nil
}

func toolCallReply(tool, params, answer string) string {
	return fmt.Sprintf("```json\n{\"Tool call\": %s, \"Tool Parameters\": %s, \"Final Response\": %s}\n```",
		tool, params, answer)
}

func newTestAgent(t *testing.T, model Model, opts ...Option) *Agent {
	t.Helper()
	agent, err := New(MustConfig("toolcall"), append([]Option{WithModel(model)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(agent.Close)

	require.NoError(t, agent.RegisterTool("calculator", "evaluates arithmetic", func(args CallArgs) (string, error) {
		expr, ok := args.String("expression")
		if !ok {
			expr = args.Arg(0)
		}
		if expr == "2+2" {
			return "4", nil
		}
		return "", fmt.Errorf("cannot evaluate %q", expr)
	}, "expression"))
	return agent
}

func TestInvokeDirectAnswer(t *testing.T) {
	model := &scriptedModel{replies: []string{
		toolCallReply(`"None"`, `"None"`, `"Paris is the capital of France."`),
	}}
	agent := newTestAgent(t, model)

	result, err := agent.Invoke(context.Background(), "What is the capital of France?")
	require.NoError(t, err)

	assert.Equal(t, OutcomeAnswered, result.Outcome)
	assert.Equal(t, "Paris is the capital of France.", result.Answer)
	assert.Equal(t, 1, result.Iterations)
	assert.Empty(t, result.ToolCalls)
	assert.Empty(t, result.Transcript)
	assert.NotEmpty(t, result.RunID)
}

func TestInvokeToolThenAnswer(t *testing.T) {
	model := &scriptedModel{replies: []string{
		toolCallReply(`"calculator"`, `{"expression": "2+2"}`, `"None"`),
		toolCallReply(`"None"`, `"None"`, `"The result is 4."`),
	}}
	agent := newTestAgent(t, model)

	result, err := agent.Invoke(context.Background(), "What is 2+2?")
	require.NoError(t, err)

	assert.Equal(t, OutcomeAnswered, result.Outcome)
	assert.Equal(t, "The result is 4.", result.Answer)
	assert.Equal(t, 2, result.Iterations)
	require.Len(t, result.ToolCalls, 1)
	assert.Equal(t, "calculator", result.ToolCalls[0].Tool)
	assert.Equal(t, []string{"4"}, result.ToolResults)
	require.Len(t, result.Transcript, 1)
	assert.Equal(t, TranscriptEntry{Tool: "calculator", Result: "4"}, result.Transcript[0])
}

func TestInvokeAnswerWinsOverTool(t *testing.T) {
	// A reply naming both a tool and an answer terminates without calling
	// the tool.
	model := &scriptedModel{replies: []string{
		toolCallReply(`"calculator"`, `{"expression": "2+2"}`, `"It is 4."`),
	}}
	agent := newTestAgent(t, model)

	result, err := agent.Invoke(context.Background(), "What is 2+2?")
	require.NoError(t, err)

	assert.Equal(t, OutcomeAnswered, result.Outcome)
	assert.Equal(t, "It is 4.", result.Answer)
	assert.Empty(t, result.ToolCalls)
}

func TestInvokeBudgetExhausted(t *testing.T) {
	// The model never answers; the loop must stop at the budget and report
	// exactly that many completed iterations and transcript entries.
	model := &scriptedModel{replies: []string{
		toolCallReply(`"calculator"`, `{"expression": "2+2"}`, `"None"`),
	}}

	cfg := MustConfig("toolcall")
	cfg.MaxIterations = 3
	agent, err := New(cfg, WithModel(model))
	require.NoError(t, err)
	t.Cleanup(agent.Close)
	require.NoError(t, agent.RegisterTool("calculator", "evaluates arithmetic", func(CallArgs) (string, error) {
		return "4", nil
	}))

	result, err := agent.Invoke(context.Background(), "loop forever")
	require.NoError(t, err, "budget exhaustion is a normal outcome, not an error")

	assert.Equal(t, OutcomeBudgetExhausted, result.Outcome)
	assert.Equal(t, 3, result.Iterations)
	assert.Len(t, result.Transcript, 3)
	assert.Len(t, result.ToolCalls, 3)
	assert.Equal(t, 3, model.calls, "the budget check precedes the model call")
	assert.Empty(t, result.Answer)
}

func TestInvokeToolErrorAbsorbedIntoTranscript(t *testing.T) {
	model := &scriptedModel{replies: []string{
		toolCallReply(`"calculator"`, `{"expression": "nonsense"}`, `"None"`),
		toolCallReply(`"None"`, `"None"`, `"I could not compute that."`),
	}}
	agent := newTestAgent(t, model)

	result, err := agent.Invoke(context.Background(), "What is nonsense?")
	require.NoError(t, err, "tool failures never abort the loop")

	assert.Equal(t, OutcomeAnswered, result.Outcome)
	require.Len(t, result.Transcript, 1)
	assert.Contains(t, result.Transcript[0].Result, `error executing tool "calculator"`)
	assert.Contains(t, result.ToolResults[0], "cannot evaluate")
}

func TestInvokeUnregisteredToolAborts(t *testing.T) {
	model := &scriptedModel{replies: []string{
		toolCallReply(`"telescope"`, `"None"`, `"None"`),
	}}
	agent := newTestAgent(t, model)

	result, err := agent.Invoke(context.Background(), "look at the stars")

	var uErr *UnresolvableTurnError
	require.ErrorAs(t, err, &uErr)
	assert.Equal(t, "telescope", uErr.Tool)
	assert.Equal(t, OutcomeAborted, result.Outcome)
	assert.Empty(t, result.ToolCalls, "no tool may run for an unknown name")
}

func TestInvokeNeitherToolNorAnswerAborts(t *testing.T) {
	model := &scriptedModel{replies: []string{
		toolCallReply(`"None"`, `"None"`, `"None"`),
	}}
	agent := newTestAgent(t, model)

	_, err := agent.Invoke(context.Background(), "say nothing")

	var uErr *UnresolvableTurnError
	require.ErrorAs(t, err, &uErr)
	assert.Empty(t, uErr.Tool)
}

func TestInvokeParseFailureAborts(t *testing.T) {
	model := &scriptedModel{replies: []string{"I refuse to use JSON."}}
	agent := newTestAgent(t, model)

	result, err := agent.Invoke(context.Background(), "hello")

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, ParseNoStructuredBlock, parseErr.Kind)
	assert.Equal(t, OutcomeAborted, result.Outcome)
	assert.Empty(t, result.Transcript)
}

func TestInvokeModelFailureAborts(t *testing.T) {
	model := &scriptedModel{err: errors.New("connection refused")}
	agent := newTestAgent(t, model)

	_, err := agent.Invoke(context.Background(), "hello")

	var mcErr *ModelCallError
	require.ErrorAs(t, err, &mcErr)
	assert.ErrorContains(t, err, "connection refused")
}

func TestInvokeEmptyModelTextAborts(t *testing.T) {
	model := &scriptedModel{replies: []string{"   \n  "}}
	agent := newTestAgent(t, model)

	_, err := agent.Invoke(context.Background(), "hello")

	var mcErr *ModelCallError
	require.ErrorAs(t, err, &mcErr)
	assert.ErrorContains(t, err, "empty")
}

func TestInvokeRequiresModelAndTools(t *testing.T) {
	agent, err := New(MustConfig("toolcall"))
	require.NoError(t, err)
	t.Cleanup(agent.Close)

	_, err = agent.Invoke(context.Background(), "hello")
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.ErrorContains(t, err, "no model")

	agent2, err := New(MustConfig("toolcall"), WithModel(&scriptedModel{replies: []string{"x"}}))
	require.NoError(t, err)
	t.Cleanup(agent2.Close)

	_, err = agent2.Invoke(context.Background(), "hello")
	require.ErrorAs(t, err, &cfgErr)
	assert.ErrorContains(t, err, "no tools")
}

func TestInvokeCancelledContext(t *testing.T) {
	model := &scriptedModel{replies: []string{
		toolCallReply(`"None"`, `"None"`, `"never reached"`),
	}}
	agent := newTestAgent(t, model)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := agent.Invoke(ctx, "hello")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, OutcomeAborted, result.Outcome)
	assert.Zero(t, model.calls)
}

func TestInvokeTranscriptReplayedIntoPrompt(t *testing.T) {
	var secondPrompt string
	model := &promptRecordingModel{replies: []string{
		toolCallReply(`"calculator"`, `{"expression": "2+2"}`, `"None"`),
		toolCallReply(`"None"`, `"None"`, `"4"`),
	}, record: &secondPrompt}
	agent := newTestAgent(t, model)

	_, err := agent.Invoke(context.Background(), "What is 2+2?")
	require.NoError(t, err)

	assert.Contains(t, secondPrompt, "--- Tool Execution ---")
	assert.Contains(t, secondPrompt, "Tool: calculator")
	assert.Contains(t, secondPrompt, "Result: 4")
	assert.Contains(t, secondPrompt, "Provide the final response based on this result.")
}

func TestInvokeBindsUserInput(t *testing.T) {
	var firstPrompt string
	model := &promptRecordingModel{replies: []string{
		toolCallReply(`"None"`, `"None"`, `"done"`),
	}, record: &firstPrompt}
	agent := newTestAgent(t, model)

	_, err := agent.Invoke(context.Background(), "what is the airspeed velocity of an unladen swallow")
	require.NoError(t, err)

	assert.Contains(t, firstPrompt, "what is the airspeed velocity of an unladen swallow")
	assert.NotContains(t, firstPrompt, userInputPlaceholder)
	assert.Contains(t, firstPrompt, "- calculator: evaluates arithmetic")
}

// promptRecordingModel keeps the last prompt it saw.
type promptRecordingModel struct {
	replies []string
	calls   int
	record  *string
}

func (m *promptRecordingModel) Generate(_ context.Context, prompt string) (string, error) {
	*m.record = prompt
	m.calls++
	i := m.calls - 1
	if i >= len(m.replies) {
		i = len(m.replies) - 1
	}
	return m.replies[i], nil
}

func TestInvokeReactDialectCarriesReasoning(t *testing.T) {
	model := &scriptedModel{replies: []string{
		"```json\n" + `{"thought": "simple lookup, no tool needed", "action": "None", "action_input": "None", "answer": "It is blue."}` + "\n```",
	}}
	agent, err := New(MustConfig("react"), WithModel(model))
	require.NoError(t, err)
	t.Cleanup(agent.Close)
	require.NoError(t, agent.RegisterTool("search", "looks things up", noopTool))

	result, err := agent.Invoke(context.Background(), "what color is the sky")
	require.NoError(t, err)
	assert.Equal(t, "It is blue.", result.Answer)
	assert.Equal(t, "simple lookup, no tool needed", result.Reasoning)
}

func TestInvokeEmitsLifecycleEvents(t *testing.T) {
	model := &scriptedModel{replies: []string{
		toolCallReply(`"calculator"`, `{"expression": "2+2"}`, `"None"`),
		toolCallReply(`"None"`, `"None"`, `"4"`),
	}}
	agent := newTestAgent(t, model)

	_, err := agent.Invoke(context.Background(), "What is 2+2?")
	require.NoError(t, err)
	agent.Close()

	var kinds []EventKind
	for ev := range agent.Events() {
		kinds = append(kinds, ev.Kind)
	}

	assert.Equal(t, []EventKind{
		EventRunStart,
		EventIteration,
		EventModelReply,
		EventToolCallStart,
		EventToolCallEnd,
		EventIteration,
		EventModelReply,
		EventFinalAnswer,
		EventRunEnd,
	}, kinds)
}
