package agentloop

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role is one of the generic meanings the loop reasons in. Every
// ResponseSchema maps roles onto its own literal field names, so the loop
// never branches on a prompt dialect's wire vocabulary.
type Role string

const (
	RoleTool       Role = "tool"
	RoleParameters Role = "parameters"
	RoleAnswer     Role = "answer"
	RoleReasoning  Role = "reasoning"
)

// ResponseSchema declares which named fields a structured reply must contain
// and how the generic roles map onto them.
type ResponseSchema struct {
	// RequiredFields lists the field names every reply must carry, in the
	// order they appear in the prompt dialect. Names must be unique.
	RequiredFields []string

	// RoleFields maps a role to the field name carrying it. The mapping is
	// partial; roles a dialect does not express are simply absent.
	RoleFields map[Role]string

	// Defaults supplies a value for a field the model omitted.
	Defaults map[string]any

	// Sentinels are the literal values meaning "this role is not populated
	// this turn". Comparison is case-insensitive. Empty means the default
	// set: {"None"}.
	Sentinels []string
}

// defaultSentinels is used when a schema declares none of its own.
var defaultSentinels = []string{"None"}

// Field returns the field name a role resolves to.
func (s ResponseSchema) Field(role Role) (string, bool) {
	name, ok := s.RoleFields[role]
	return name, ok
}

// IsSentinel reports whether a projected value means "not populated".
func (s ResponseSchema) IsSentinel(value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || trimmed == "null" {
		return true
	}
	sentinels := s.Sentinels
	if len(sentinels) == 0 {
		sentinels = defaultSentinels
	}
	for _, sentinel := range sentinels {
		if strings.EqualFold(trimmed, sentinel) {
			return true
		}
	}
	return false
}

// Validate checks that every required field is present in the decoded
// reply. It returns the missing field names, in declaration order.
func (s ResponseSchema) Validate(fields map[string]json.RawMessage) []string {
	var missing []string
	for _, name := range s.RequiredFields {
		if _, ok := fields[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Project applies the role mapping to a decoded reply, falling back to
// Defaults for absent fields. Roles whose field is neither present nor
// defaulted are omitted from the result. Project is a pure function.
func (s ResponseSchema) Project(fields map[string]json.RawMessage) map[Role]json.RawMessage {
	projected := make(map[Role]json.RawMessage, len(s.RoleFields))
	for role, name := range s.RoleFields {
		if raw, ok := fields[name]; ok {
			projected[role] = raw
			continue
		}
		if def, ok := s.Defaults[name]; ok {
			if raw, err := json.Marshal(def); err == nil {
				projected[role] = raw
			}
		}
	}
	return projected
}

// Check verifies the schema is internally consistent: required field names
// are unique, and the roles the loop depends on (tool, answer) resolve to a
// field that is either required or defaulted. A schema that omits the
// parameters role is legal; tool calls are then zero-argument.
func (s ResponseSchema) Check() error {
	seen := make(map[string]bool, len(s.RequiredFields))
	for _, name := range s.RequiredFields {
		if name == "" {
			return fmt.Errorf("schema declares an empty required field name")
		}
		if seen[name] {
			return fmt.Errorf("schema declares duplicate required field %q", name)
		}
		seen[name] = true
	}

	for _, role := range []Role{RoleTool, RoleAnswer} {
		name, ok := s.RoleFields[role]
		if !ok {
			return fmt.Errorf("schema does not map the %s role to any field", role)
		}
		if _, defaulted := s.Defaults[name]; !seen[name] && !defaulted {
			return fmt.Errorf("schema maps the %s role to field %q which is neither required nor defaulted", role, name)
		}
	}
	return nil
}

// ParsedTurn is the role-normalized form of one model reply, produced by
// the interpreter after validation and projection. Sentinel values have
// already been erased: an empty Tool or Answer means the role is not
// populated this turn.
type ParsedTurn struct {
	Tool       string
	Parameters json.RawMessage // nil when absent or sentinel
	Answer     string
	Reasoning  string
}

// HasTool reports whether the reply named a tool.
func (t ParsedTurn) HasTool() bool { return t.Tool != "" }

// HasAnswer reports whether the reply carried a final answer.
func (t ParsedTurn) HasAnswer() bool { return t.Answer != "" }
