package agentloop

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Model is the collaborator contract the loop depends on: one blocking
// text-in/text-out call. The modelclient package provides implementations;
// any error is treated uniformly as "model call failed, abort the turn".
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// LoopState names the phases of one invoke call. The loop moves
// Start -> Compiling -> AwaitingModel -> Interpreting, then either to
// ExecutingTool (and back to AwaitingModel), or to a terminal state.
type LoopState string

const (
	StateStart         LoopState = "start"
	StateCompiling     LoopState = "compiling"
	StateAwaitingModel LoopState = "awaiting_model"
	StateInterpreting  LoopState = "interpreting"
	StateExecutingTool LoopState = "executing_tool"
	StateFinished      LoopState = "finished"
	StateAborted       LoopState = "aborted"
)

// Outcome tags how an invoke call ended when no error occurred.
type Outcome string

const (
	// OutcomeAnswered means the model produced a final answer.
	OutcomeAnswered Outcome = "answered"
	// OutcomeBudgetExhausted means the turn budget ran out. This is a
	// normal terminal outcome, not an error; the Result still carries
	// every tool call and result accumulated.
	OutcomeBudgetExhausted Outcome = "budget_exhausted"
	// OutcomeAborted accompanies a non-nil error from Invoke.
	OutcomeAborted Outcome = "aborted"
)

// ToolCallRecord is one entry in the audit trail of tool invocations.
type ToolCallRecord struct {
	Tool   string `json:"tool"`
	Params string `json:"params"`
}

// TranscriptEntry is one tool name/result pair replayed into the prompt on
// subsequent iterations.
type TranscriptEntry struct {
	Tool   string `json:"tool"`
	Result string `json:"result"`
}

// ExecutionState is the short-lived per-invoke state: created at the start
// of one user request, discarded at the end, never persisted across
// requests. The transcript is append-only within one invoke call.
type ExecutionState struct {
	RunID       string
	Iteration   int
	Transcript  []TranscriptEntry
	ToolCalls   []ToolCallRecord
	ToolResults []string
}

func newExecutionState() *ExecutionState {
	return &ExecutionState{
		RunID: uuid.New().String(),
	}
}

// Result is the terminal report of one invoke call.
type Result struct {
	RunID       string
	Outcome     Outcome
	Answer      string
	Reasoning   string // side channel; populated when the dialect carries it
	Iterations  int
	Transcript  []TranscriptEntry
	ToolCalls   []ToolCallRecord
	ToolResults []string
}

// Default timeouts enforced on collaborator calls. The loop never hangs
// silently on a stuck model or tool; set a timeout to 0 to disable it.
const (
	DefaultModelTimeout = 120 * time.Second
	DefaultToolTimeout  = 60 * time.Second
)

// Agent drives the loop for one personality. The registry and compiled
// prompt are read-mostly; mutating the tool set while an invoke call is in
// progress is undefined and callers must not do it.
type Agent struct {
	config       AgentConfig
	model        Model
	registry     *ToolRegistry
	emitter      *EventEmitter
	modelTimeout time.Duration
	toolTimeout  time.Duration

	mu          sync.Mutex
	compiled    string
	compiledRev uint64
}

// Option configures an Agent at construction time.
type Option func(*Agent)

// WithModel binds the model collaborator.
func WithModel(m Model) Option {
	return func(a *Agent) { a.model = m }
}

// WithModelTimeout bounds each model call. 0 disables the bound.
func WithModelTimeout(d time.Duration) Option {
	return func(a *Agent) { a.modelTimeout = d }
}

// WithToolTimeout bounds each tool invocation. 0 disables the bound.
func WithToolTimeout(d time.Duration) Option {
	return func(a *Agent) { a.toolTimeout = d }
}

// WithEventBuffer sizes the event channel.
func WithEventBuffer(n int) Option {
	return func(a *Agent) { a.emitter = NewEventEmitter(n) }
}

// New creates an Agent bound to a personality. The config is validated
// here so schema/dialect mismatches fail fast instead of mid-loop.
func New(config AgentConfig, opts ...Option) (*Agent, error) {
	if err := config.check(); err != nil {
		return nil, &ConfigurationError{Message: err.Error()}
	}
	a := &Agent{
		config:       config,
		registry:     NewToolRegistry(),
		emitter:      NewEventEmitter(0),
		modelTimeout: DefaultModelTimeout,
		toolTimeout:  DefaultToolTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Config returns the agent's personality.
func (a *Agent) Config() AgentConfig { return a.config }

// Registry returns the agent's tool registry. The registry is owned by
// this agent; do not share it across agents.
func (a *Agent) Registry() *ToolRegistry { return a.registry }

// Events returns the event channel for host application integration.
func (a *Agent) Events() <-chan Event { return a.emitter.Events() }

// Close releases the event channel.
func (a *Agent) Close() { a.emitter.Close() }

// RegisterTool adds a tool the agent can use. The optional contract names
// the parameters the tool requires on named calls.
func (a *Agent) RegisterTool(name, description string, fn ToolFunc, contract ...string) error {
	return a.registry.Register(ToolDescriptor{
		Name:        name,
		Description: description,
		Invoke:      fn,
		Contract:    contract,
	})
}

// UnregisterTool removes a tool, reporting whether it was present.
func (a *Agent) UnregisterTool(name string) bool {
	return a.registry.Unregister(name)
}

// Invoke runs the loop for one user request. It is strictly sequential and
// synchronous: the call owns its ExecutionState exclusively and runs to
// completion before returning.
//
// The returned Result is always non-nil and carries the audit trail
// accumulated so far, including on abort. A non-nil error is one of the
// taxonomy types (*ConfigurationError, *ModelCallError, *ParseError,
// *UnresolvableTurnError) or the context's error on cancellation; tool
// failures never surface here, they are absorbed into the transcript.
func (a *Agent) Invoke(ctx context.Context, query string) (*Result, error) {
	// Start: validate before any network call.
	if a.model == nil {
		return abortedResult(nil), &ConfigurationError{Message: "no model bound; use WithModel"}
	}
	if a.registry.Count() == 0 {
		return abortedResult(nil), &ConfigurationError{Message: "no tools registered; register at least one tool"}
	}
	if err := a.config.check(); err != nil {
		return abortedResult(nil), &ConfigurationError{Message: err.Error()}
	}

	// Compiling: produce or reuse the compiled prompt and bind the request.
	bound := strings.ReplaceAll(a.compiledPrompt(), userInputPlaceholder, query)
	state := newExecutionState()
	maxIterations := a.config.maxIterations()

	a.emitter.Emit(state.RunID, EventRunStart, map[string]any{
		"config": a.config.Name,
		"query":  query,
	})

	var reasoning string

	for {
		select {
		case <-ctx.Done():
			a.emitter.Emit(state.RunID, EventError, map[string]any{"error": ctx.Err().Error()})
			return abortedResult(state), ctx.Err()
		default:
		}

		// AwaitingModel: spend one unit of the turn budget.
		state.Iteration++
		if state.Iteration > maxIterations {
			state.Iteration-- // report completed iterations, not the aborted attempt
			a.emitter.Emit(state.RunID, EventBudgetExhausted, map[string]any{
				"max_iterations": maxIterations,
			})
			a.emitter.Emit(state.RunID, EventRunEnd, map[string]any{"outcome": string(OutcomeBudgetExhausted)})
			return terminalResult(state, OutcomeBudgetExhausted, "", reasoning), nil
		}
		a.emitter.Emit(state.RunID, EventIteration, map[string]any{"iteration": state.Iteration})

		raw, err := a.callModel(ctx, bound+renderTranscript(state.Transcript))
		if err != nil {
			mcErr := &ModelCallError{Message: "model collaborator failed", Cause: err}
			a.emitter.Emit(state.RunID, EventError, map[string]any{"error": mcErr.Error()})
			return abortedResult(state), mcErr
		}
		if strings.TrimSpace(raw) == "" {
			mcErr := &ModelCallError{Message: "model returned empty text"}
			a.emitter.Emit(state.RunID, EventError, map[string]any{"error": mcErr.Error()})
			return abortedResult(state), mcErr
		}
		a.emitter.Emit(state.RunID, EventModelReply, map[string]any{"text": raw})

		// Interpreting: a parse failure ends the loop; no silent retry.
		turn, err := Interpret(raw, a.config.Schema)
		if err != nil {
			a.emitter.Emit(state.RunID, EventError, map[string]any{"error": err.Error()})
			return abortedResult(state), err
		}
		if turn.Reasoning != "" {
			reasoning = turn.Reasoning
		}

		// An answer always ends the loop, even if a tool was also named.
		if turn.HasAnswer() {
			a.emitter.Emit(state.RunID, EventFinalAnswer, map[string]any{"answer": turn.Answer})
			a.emitter.Emit(state.RunID, EventRunEnd, map[string]any{"outcome": string(OutcomeAnswered)})
			return terminalResult(state, OutcomeAnswered, turn.Answer, reasoning), nil
		}

		if !turn.HasTool() {
			uErr := &UnresolvableTurnError{}
			a.emitter.Emit(state.RunID, EventError, map[string]any{"error": uErr.Error()})
			return abortedResult(state), uErr
		}

		desc, ok := a.registry.Resolve(turn.Tool)
		if !ok {
			uErr := &UnresolvableTurnError{Tool: turn.Tool}
			a.emitter.Emit(state.RunID, EventError, map[string]any{"error": uErr.Error()})
			return abortedResult(state), uErr
		}

		// ExecutingTool: tool faults become transcript text, not aborts,
		// so the model can react on the next turn.
		paramsText := strings.TrimSpace(string(turn.Parameters))
		a.emitter.Emit(state.RunID, EventToolCallStart, map[string]any{
			"tool":   desc.Name,
			"params": paramsText,
		})

		resultText, toolErr := BindAndCall(desc, turn.Parameters, a.config.Schema, a.toolTimeout)
		if toolErr != nil {
			resultText = toolErr.Error()
		}

		a.emitter.Emit(state.RunID, EventToolCallEnd, map[string]any{
			"tool":     desc.Name,
			"result":   resultText,
			"is_error": toolErr != nil,
		})

		state.ToolCalls = append(state.ToolCalls, ToolCallRecord{Tool: desc.Name, Params: paramsText})
		state.ToolResults = append(state.ToolResults, resultText)
		state.Transcript = append(state.Transcript, TranscriptEntry{Tool: desc.Name, Result: resultText})
	}
}

// callModel invokes the collaborator under the configured deadline.
func (a *Agent) callModel(ctx context.Context, prompt string) (string, error) {
	if a.modelTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.modelTimeout)
		defer cancel()
	}
	return a.model.Generate(ctx, prompt)
}

// renderTranscript replays accumulated tool results into prompt text.
func renderTranscript(entries []TranscriptEntry) string {
	if len(entries) == 0 {
		return ""
	}
	var b strings.Builder
	for _, entry := range entries {
		fmt.Fprintf(&b, "\n\n--- Tool Execution ---\nTool: %s\nResult: %s", entry.Tool, entry.Result)
	}
	b.WriteString("\n\nProvide the final response based on this result.")
	return b.String()
}

func terminalResult(state *ExecutionState, outcome Outcome, answer, reasoning string) *Result {
	return &Result{
		RunID:       state.RunID,
		Outcome:     outcome,
		Answer:      answer,
		Reasoning:   reasoning,
		Iterations:  state.Iteration,
		Transcript:  state.Transcript,
		ToolCalls:   state.ToolCalls,
		ToolResults: state.ToolResults,
	}
}

func abortedResult(state *ExecutionState) *Result {
	if state == nil {
		return &Result{Outcome: OutcomeAborted}
	}
	return terminalResult(state, OutcomeAborted, "", "")
}
