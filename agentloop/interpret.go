package agentloop

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// The model is instructed to wrap its structured reply in exactly one
// fenced block. Both backtick and single-quote fences are accepted.
var fencePatterns = []*regexp.Regexp{
	regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```"),
	regexp.MustCompile("(?s)'''json\\s*(\\{.*?\\})\\s*'''"),
}

// Interpret extracts the structured block from a raw model reply, validates
// it against the schema, and projects it into the role vocabulary. It is
// pure and side-effect-free: any failure is reported as a *ParseError for
// the loop to act on, never repaired.
func Interpret(raw string, schema ResponseSchema) (ParsedTurn, error) {
	block, ok := locateBlock(raw)
	if !ok {
		return ParsedTurn{}, &ParseError{
			Kind:   ParseNoStructuredBlock,
			Detail: snippet(raw, 200),
		}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(block), &fields); err != nil {
		return ParsedTurn{}, &ParseError{Kind: ParseMalformed, Cause: err}
	}

	if missing := schema.Validate(fields); len(missing) > 0 {
		return ParsedTurn{}, &ParseError{Kind: ParseMissingFields, Missing: missing}
	}

	projected := schema.Project(fields)

	turn := ParsedTurn{
		Tool:      projectedString(projected, RoleTool, schema),
		Answer:    projectedString(projected, RoleAnswer, schema),
		Reasoning: projectedString(projected, RoleReasoning, schema),
	}

	if raw, ok := projected[RoleParameters]; ok && !rawIsSentinel(raw, schema) {
		turn.Parameters = raw
	}

	return turn, nil
}

// locateBlock finds the single delimited structured block in the reply.
func locateBlock(raw string) (string, bool) {
	for _, pattern := range fencePatterns {
		if m := pattern.FindStringSubmatch(raw); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// projectedString stringifies a projected role value and erases sentinels.
func projectedString(projected map[Role]json.RawMessage, role Role, schema ResponseSchema) string {
	raw, ok := projected[role]
	if !ok {
		return ""
	}
	s := stringifyValue(raw)
	if schema.IsSentinel(s) {
		return ""
	}
	return s
}

// rawIsSentinel reports whether a raw parameters value is the schema's
// "no value" marker (JSON null or a sentinel string).
func rawIsSentinel(raw json.RawMessage, schema ResponseSchema) bool {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return schema.IsSentinel(s)
	}
	return false
}

// stringifyValue renders a decoded JSON value as display text. Strings are
// unquoted, lists are joined (reasoning traces often arrive as step lists),
// and anything else keeps its compact JSON form.
func stringifyValue(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return strings.TrimSpace(string(raw))
	}
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
				continue
			}
			parts = append(parts, fmt.Sprintf("%v", item))
		}
		return strings.Join(parts, "; ")
	case float64, bool:
		return fmt.Sprintf("%v", val)
	default:
		compact, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(compact)
	}
}

// snippet truncates text for inclusion in error messages.
func snippet(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
