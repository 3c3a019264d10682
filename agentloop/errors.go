package agentloop

import (
	"fmt"
	"strings"
)

// ConfigurationError indicates the agent is not runnable: missing model
// binding, empty tool registry, empty prompt template, or a schema whose
// loop-critical roles cannot be resolved. It is surfaced before any model
// call is made.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return "agent configuration: " + e.Message
}

// ModelCallError indicates the model collaborator failed or returned empty
// text. It aborts the current invoke call.
type ModelCallError struct {
	Message string
	Cause   error
}

func (e *ModelCallError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("model call: %s: %v", e.Message, e.Cause)
	}
	return "model call: " + e.Message
}

func (e *ModelCallError) Unwrap() error {
	return e.Cause
}

// ParseErrorKind discriminates interpreter failures.
type ParseErrorKind string

const (
	ParseNoStructuredBlock ParseErrorKind = "no_structured_block"
	ParseMalformed         ParseErrorKind = "malformed"
	ParseMissingFields     ParseErrorKind = "missing_fields"
)

// ParseError indicates the model's reply could not be interpreted against
// the active ResponseSchema. The interpreter never guesses or repairs; the
// error aborts the current invoke call.
type ParseError struct {
	Kind    ParseErrorKind
	Missing []string // populated for ParseMissingFields
	Detail  string
	Cause   error
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case ParseNoStructuredBlock:
		if e.Detail != "" {
			return "parse: no structured block found in response: " + e.Detail
		}
		return "parse: no structured block found in response"
	case ParseMissingFields:
		return "parse: response missing required fields: " + strings.Join(e.Missing, ", ")
	default:
		if e.Cause != nil {
			return fmt.Sprintf("parse: malformed structured block: %v", e.Cause)
		}
		return "parse: malformed structured block: " + e.Detail
	}
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ToolError wraps a failure inside a tool invocation: a returned error, a
// panic, an empty result, or a timeout. It is absorbed at the binder
// boundary and injected into the transcript so the model can react on the
// next turn; it never terminates the loop.
type ToolError struct {
	Tool    string
	Message string
	Cause   error
}

func (e *ToolError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("error executing tool %q: %v", e.Tool, e.Cause)
	}
	return fmt.Sprintf("error executing tool %q: %s", e.Tool, e.Message)
}

func (e *ToolError) Unwrap() error {
	return e.Cause
}

// UnresolvableTurnError indicates a reply that neither answered nor named a
// registered tool. Tool carries the offending name when one was given.
type UnresolvableTurnError struct {
	Tool string
}

func (e *UnresolvableTurnError) Error() string {
	if e.Tool != "" {
		return fmt.Sprintf("unresolvable turn: tool %q is not registered", e.Tool)
	}
	return "unresolvable turn: reply named no tool and carried no answer"
}
