package agentloop

import (
	"fmt"
	"sort"
	"strings"
)

// Placeholders recognized in prompt templates.
const (
	toolListPlaceholder  = "{tool_list}"
	userInputPlaceholder = "{user_input}"
)

// AgentConfig is the immutable definition of an agent personality: a prompt
// dialect plus the ResponseSchema that decodes it. Multiple agents may share
// one AgentConfig value; it is never mutated after an agent binds to it.
type AgentConfig struct {
	Name        string
	Description string

	// PromptTemplate must contain the {tool_list} placeholder and should
	// contain {user_input}; the tool list is substituted at compile time,
	// the user input at invoke time.
	PromptTemplate string

	Schema ResponseSchema

	// MaxIterations is the turn budget per invoke call. Values below 1 fall
	// back to DefaultMaxIterations.
	MaxIterations int

	// SpecialInstructions and Examples are appended after the substituted
	// template body, in that order.
	SpecialInstructions string
	Examples            []string
}

// DefaultMaxIterations is the turn budget used when a config declares none.
const DefaultMaxIterations = 10

// maxIterations returns the effective turn budget.
func (c AgentConfig) maxIterations() int {
	if c.MaxIterations < 1 {
		return DefaultMaxIterations
	}
	return c.MaxIterations
}

// check validates the config at agent construction time so that dialect
// mismatches surface as configuration errors, never mid-loop.
func (c AgentConfig) check() error {
	if strings.TrimSpace(c.PromptTemplate) == "" {
		return fmt.Errorf("config %q has an empty prompt template", c.Name)
	}
	if !strings.Contains(c.PromptTemplate, toolListPlaceholder) {
		return fmt.Errorf("config %q prompt template is missing the %s placeholder", c.Name, toolListPlaceholder)
	}
	if err := c.Schema.Check(); err != nil {
		return fmt.Errorf("config %q: %w", c.Name, err)
	}
	return nil
}

const toolcallTemplate = `You are an intelligent tool-calling assistant.
Always respond with a single JSON object wrapped in a ` + "```json" + ` fenced block, containing exactly these three keys:
    "Tool call" — the tool to invoke to complete the user request.
        You have access to the following tools:
{tool_list}
        Use "None" if no tool is needed.

    "Tool Parameters" — a dictionary of parameters required by the tool.
        Provide the parameters as key-value pairs based on the tool's requirements.
        Use "None" if no tool is being called.

    "Final Response" — the final message delivered to the user in natural language.
        Use "None" if you need to call a tool first and wait for its result.
        Only provide a Final Response when you have enough information to answer the user.
        If a tool was called and you received its result, use that information to provide a helpful Final Response.

query: {user_input}`

const actionTemplate = `You are an action-oriented assistant.
Respond with a single JSON object in a ` + "```json" + ` fenced block with these keys:
    "action" — the action to perform (tool name or "respond")
    "input" — the input for the action
    "output" — your response to the user (or "pending" if an action is needed)

Available actions:
{tool_list}

query: {user_input}`

const reactTemplate = `You are a reasoning agent that thinks before acting.
Respond with a single JSON object in a ` + "```json" + ` fenced block with these keys:
    "thought" — your reasoning about what to do
    "action" — the tool to use (or "None")
    "action_input" — parameters for the tool
    "answer" — final answer (or "None" if an action is needed)

Available tools:
{tool_list}

query: {user_input}`

const functionTemplate = `You are a function-calling assistant.
Respond with a single JSON object in a ` + "```json" + ` fenced block:
    "function" — function name or null
    "args" — function arguments or null
    "result" — your response or null

Functions available:
{tool_list}

query: {user_input}`

const cotTemplate = `You are a step-by-step reasoning assistant.
Respond with a single JSON object in a ` + "```json" + ` fenced block:
    "reasoning_steps" — list of your thinking steps
    "tool_needed" — tool name or "None"
    "tool_args" — tool arguments or "None"
    "final_answer" — your answer or "None"

Tools:
{tool_list}

query: {user_input}`

// builtinConfigs holds the predefined personalities, keyed by short name.
var builtinConfigs = map[string]AgentConfig{
	"toolcall": {
		Name:           "ToolCallAgent",
		Description:    "Tool-calling agent using the Tool call / Tool Parameters / Final Response dialect",
		PromptTemplate: toolcallTemplate,
		Schema: ResponseSchema{
			RequiredFields: []string{"Tool call", "Tool Parameters", "Final Response"},
			RoleFields: map[Role]string{
				RoleTool:       "Tool call",
				RoleParameters: "Tool Parameters",
				RoleAnswer:     "Final Response",
			},
			Defaults: map[string]any{
				"Tool call":       "None",
				"Tool Parameters": "None",
				"Final Response":  "None",
			},
		},
		MaxIterations: DefaultMaxIterations,
	},
	"action": {
		Name:           "ActionAgent",
		Description:    "Action-oriented agent with the action / input / output dialect",
		PromptTemplate: actionTemplate,
		Schema: ResponseSchema{
			RequiredFields: []string{"action", "input", "output"},
			RoleFields: map[Role]string{
				RoleTool:       "action",
				RoleParameters: "input",
				RoleAnswer:     "output",
			},
			Defaults: map[string]any{
				"action": "respond",
				"input":  "None",
				"output": "",
			},
			// "respond" marks the no-tool turn, "pending" the no-answer turn.
			Sentinels: []string{"None", "respond", "pending"},
		},
		MaxIterations: DefaultMaxIterations,
	},
	"react": {
		Name:           "ReActAgent",
		Description:    "Reason-then-act agent with a thought trace",
		PromptTemplate: reactTemplate,
		Schema: ResponseSchema{
			RequiredFields: []string{"thought", "action", "action_input", "answer"},
			RoleFields: map[Role]string{
				RoleTool:       "action",
				RoleParameters: "action_input",
				RoleAnswer:     "answer",
				RoleReasoning:  "thought",
			},
			Defaults: map[string]any{
				"thought":      "",
				"action":       "None",
				"action_input": "None",
				"answer":       "None",
			},
		},
		MaxIterations: DefaultMaxIterations,
	},
	"function": {
		Name:           "FunctionAgent",
		Description:    "Minimalist function-call dialect with null sentinels",
		PromptTemplate: functionTemplate,
		Schema: ResponseSchema{
			RequiredFields: []string{"function", "args", "result"},
			RoleFields: map[Role]string{
				RoleTool:       "function",
				RoleParameters: "args",
				RoleAnswer:     "result",
			},
			Defaults: map[string]any{
				"function": nil,
				"args":     nil,
				"result":   nil,
			},
		},
		MaxIterations: DefaultMaxIterations,
	},
	"cot": {
		Name:           "ChainOfThoughtAgent",
		Description:    "Chain-of-thought agent that reports its reasoning steps",
		PromptTemplate: cotTemplate,
		Schema: ResponseSchema{
			RequiredFields: []string{"reasoning_steps", "tool_needed", "tool_args", "final_answer"},
			RoleFields: map[Role]string{
				RoleTool:       "tool_needed",
				RoleParameters: "tool_args",
				RoleAnswer:     "final_answer",
				RoleReasoning:  "reasoning_steps",
			},
			Defaults: map[string]any{
				"reasoning_steps": []string{},
				"tool_needed":     "None",
				"tool_args":       "None",
				"final_answer":    "None",
			},
		},
		MaxIterations: DefaultMaxIterations,
	},
}

// Config returns a built-in personality by short name.
func Config(name string) (AgentConfig, error) {
	cfg, ok := builtinConfigs[name]
	if !ok {
		return AgentConfig{}, fmt.Errorf("unknown agent config %q; available: %s", name, strings.Join(ConfigNames(), ", "))
	}
	return cfg, nil
}

// MustConfig is like Config but panics on an unknown name. Intended for
// program initialization with literal names.
func MustConfig(name string) AgentConfig {
	cfg, err := Config(name)
	if err != nil {
		panic(err)
	}
	return cfg
}

// ConfigNames returns the short names of all built-in personalities, sorted.
func ConfigNames() []string {
	names := make([]string, 0, len(builtinConfigs))
	for name := range builtinConfigs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewCustomConfig assembles a fully custom personality from a template, its
// required field vocabulary, and the role mapping onto that vocabulary.
func NewCustomConfig(name, promptTemplate string, requiredFields []string, roleFields map[Role]string) AgentConfig {
	return AgentConfig{
		Name:           name,
		Description:    "Custom " + name,
		PromptTemplate: promptTemplate,
		Schema: ResponseSchema{
			RequiredFields: requiredFields,
			RoleFields:     roleFields,
		},
		MaxIterations: DefaultMaxIterations,
	}
}
