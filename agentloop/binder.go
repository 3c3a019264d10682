package agentloop

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// CallStyle discriminates how the binder decided to call a tool.
type CallStyle int

const (
	// CallZero means the tool is called with no arguments.
	CallZero CallStyle = iota
	// CallNamed means arguments are passed by parameter name.
	CallNamed
	// CallPositional means arguments are passed in order.
	CallPositional
)

// CallArgs carries the bound arguments for one tool invocation. Exactly one
// shape is populated, selected by Style.
type CallArgs struct {
	Style      CallStyle
	Named      map[string]string
	NamedOrder []string
	Positional []string
}

// String returns the named argument for key.
func (a CallArgs) String(key string) (string, bool) {
	v, ok := a.Named[key]
	return v, ok
}

// Arg returns the i'th positional argument, or "" when out of range.
func (a CallArgs) Arg(i int) string {
	if i < 0 || i >= len(a.Positional) {
		return ""
	}
	return a.Positional[i]
}

// Len returns the number of bound arguments.
func (a CallArgs) Len() int {
	if a.Style == CallNamed {
		return len(a.Named)
	}
	return len(a.Positional)
}

// ToolFunc is the signature every registered tool implements. The binder
// drives it with whichever argument shape the model expressed; the returned
// string is what the model sees on the next turn. Returning an empty string
// with a nil error is treated as a failure, not an empty success.
type ToolFunc func(args CallArgs) (string, error)

// ParamKind enumerates the closed set of parameter shapes the binder
// accepts from a projected reply.
type ParamKind int

const (
	ParamAbsent ParamKind = iota
	ParamScalar
	ParamMapping
	ParamSequence
)

// ParamValue is the tagged variant the raw parameters value decodes into.
// Mapping keys keep the order the model wrote them in.
type ParamValue struct {
	Kind   ParamKind
	Scalar string
	Keys   []string
	Values map[string]string
	Seq    []string
}

// DecodeParams normalizes a raw parameters value into a ParamValue. A string
// that itself decodes as a JSON object or array is unwrapped one level,
// since models routinely double-encode structured parameters.
func DecodeParams(raw json.RawMessage, schema ResponseSchema) ParamValue {
	if rawIsSentinel(raw, schema) {
		return ParamValue{Kind: ParamAbsent}
	}

	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return ParamValue{Kind: ParamAbsent}
	}

	switch trimmed[0] {
	case '{':
		om := orderedmap.New[string, any]()
		if err := json.Unmarshal([]byte(trimmed), om); err != nil {
			return ParamValue{Kind: ParamScalar, Scalar: trimmed}
		}
		if om.Len() == 0 {
			return ParamValue{Kind: ParamAbsent}
		}
		pv := ParamValue{
			Kind:   ParamMapping,
			Keys:   make([]string, 0, om.Len()),
			Values: make(map[string]string, om.Len()),
		}
		for pair := om.Oldest(); pair != nil; pair = pair.Next() {
			pv.Keys = append(pv.Keys, pair.Key)
			pv.Values[pair.Key] = stringifyAny(pair.Value)
		}
		return pv
	case '[':
		var items []any
		if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
			return ParamValue{Kind: ParamScalar, Scalar: trimmed}
		}
		if len(items) == 0 {
			return ParamValue{Kind: ParamAbsent}
		}
		seq := make([]string, len(items))
		for i, item := range items {
			seq[i] = stringifyAny(item)
		}
		return ParamValue{Kind: ParamSequence, Seq: seq}
	case '"':
		var s string
		if err := json.Unmarshal([]byte(trimmed), &s); err != nil {
			return ParamValue{Kind: ParamScalar, Scalar: trimmed}
		}
		inner := strings.TrimSpace(s)
		if inner == "" || schema.IsSentinel(inner) {
			return ParamValue{Kind: ParamAbsent}
		}
		// Unwrap a double-encoded object or array.
		if strings.HasPrefix(inner, "{") || strings.HasPrefix(inner, "[") {
			if json.Valid([]byte(inner)) {
				return DecodeParams(json.RawMessage(inner), schema)
			}
		}
		return ParamValue{Kind: ParamScalar, Scalar: inner}
	default:
		return ParamValue{Kind: ParamScalar, Scalar: trimmed}
	}
}

// bind converts a ParamValue into CallArgs, applying the disambiguation
// policy in priority order:
//
//  1. absent or empty: zero-argument call
//  2. mapping whose first key contains a letter: named call, keys verbatim
//  3. mapping whose first key does not look like a name: the associated
//     value (or the key itself, if the value is empty) is a comma-delimited
//     positional list
//  4. sequence: positional call, one argument per element
//  5. scalar: positional call with a single argument
//
// The heuristic exists because different response schemas legally express
// "no parameters", "named parameters", or "one free-form string"; the
// binder is the single place that absorbs the ambiguity.
func (v ParamValue) bind() CallArgs {
	switch v.Kind {
	case ParamAbsent:
		return CallArgs{Style: CallZero}
	case ParamMapping:
		first := v.Keys[0]
		if keyLooksNamed(first) {
			named := make(map[string]string, len(v.Values))
			for k, val := range v.Values {
				named[k] = val
			}
			order := make([]string, len(v.Keys))
			copy(order, v.Keys)
			return CallArgs{Style: CallNamed, Named: named, NamedOrder: order}
		}
		delimited := v.Values[first]
		if strings.TrimSpace(delimited) == "" {
			delimited = first
		}
		return CallArgs{Style: CallPositional, Positional: splitDelimited(delimited)}
	case ParamSequence:
		positional := make([]string, len(v.Seq))
		copy(positional, v.Seq)
		return CallArgs{Style: CallPositional, Positional: positional}
	default:
		return CallArgs{Style: CallPositional, Positional: []string{v.Scalar}}
	}
}

// keyLooksNamed reports whether a mapping key plausibly names a parameter:
// it contains at least one alphabetic character.
func keyLooksNamed(key string) bool {
	for _, r := range key {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// splitDelimited splits a comma-delimited argument string, trimming each
// segment.
func splitDelimited(s string) []string {
	segments := strings.Split(s, ",")
	for i, seg := range segments {
		segments[i] = strings.TrimSpace(seg)
	}
	return segments
}

// BindAndCall decodes the raw parameters value, binds it per the policy
// above, and invokes the tool. Every failure mode is converted into a
// *ToolError carrying the tool name: a returned error, a panic, a missing
// contract parameter, an empty result, or a timeout (0 disables the
// timeout). Errors never propagate as raw faults to the loop's caller.
func BindAndCall(desc ToolDescriptor, raw json.RawMessage, schema ResponseSchema, timeout time.Duration) (string, *ToolError) {
	args := DecodeParams(raw, schema).bind()

	if args.Style == CallNamed && len(desc.Contract) > 0 {
		for _, name := range desc.Contract {
			if _, ok := args.Named[name]; !ok {
				return "", &ToolError{
					Tool:    desc.Name,
					Message: fmt.Sprintf("missing required parameter %q", name),
				}
			}
		}
	}

	result, err := invokeGuarded(desc, args, timeout)
	if err != nil {
		return "", &ToolError{Tool: desc.Name, Message: err.Error(), Cause: err}
	}
	if strings.TrimSpace(result) == "" {
		return "", &ToolError{Tool: desc.Name, Message: "tool returned no output"}
	}
	return result, nil
}

// invokeGuarded runs the tool function with panic recovery and an optional
// deadline. A late result from a timed-out tool is discarded.
func invokeGuarded(desc ToolDescriptor, args CallArgs, timeout time.Duration) (string, error) {
	type outcome struct {
		result string
		err    error
	}

	run := func() (out outcome) {
		defer func() {
			if r := recover(); r != nil {
				out = outcome{err: fmt.Errorf("tool panicked: %v", r)}
			}
		}()
		result, err := desc.Invoke(args)
		return outcome{result: result, err: err}
	}

	if timeout <= 0 {
		out := run()
		return out.result, out.err
	}

	done := make(chan outcome, 1)
	go func() {
		done <- run()
	}()

	select {
	case out := <-done:
		return out.result, out.err
	case <-time.After(timeout):
		return "", fmt.Errorf("timed out after %s", timeout)
	}
}

// stringifyAny renders a decoded JSON value as argument text.
func stringifyAny(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64, bool:
		return fmt.Sprintf("%v", val)
	case *orderedmap.OrderedMap[string, any]:
		compact, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(compact)
	default:
		compact, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(compact)
	}
}
