// This file serializes documents back to YAML text.
//
// # Field Ordering
//
// Go maps iterate in random order, so marshaling a map[string]any produces a
// different file on every run. goccy/go-yaml's yaml.MapSlice keeps insertion
// order instead. Marshal converts every mapping Node to a MapSlice in the
// Node's own entry order, which means:
//
//   - Documents built by the renderer come out in the conventional GitHub
//     Actions order (name, on, permissions, jobs), because the renderer builds
//     them with OrderMapFields.
//   - Documents parsed from user text keep the author's order.
//
// # Post-processing
//
// Two textual fixups run after marshaling:
//
//   - UnquoteYAMLKey strips quotes the marshaler may add around the "on" key.
//     Workflows always spell it bare.
//   - CleanYAMLNullValues turns "workflow_dispatch: null" into
//     "workflow_dispatch:".
//
// Both only touch lines that hold a real mapping key, found by walking the
// syntax tree. Lines inside block scalars (run scripts, heredocs) are never
// rewritten.
//
// GitHub Actions workflow syntax:
// https://docs.github.com/en/actions/using-workflows/workflow-syntax-for-github-actions

package document

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/token"

	"github.com/scanwf/scanwf/pkg/logger"
)

var yamlLog = logger.New("document:yaml")

// DefaultMarshalOptions are the goccy/go-yaml options every serialized
// workflow uses: two-space indentation, indented sequences, and literal
// block scalars for multi-line strings such as run scripts.
var DefaultMarshalOptions = []yaml.EncodeOption{
	yaml.Indent(2),
	yaml.IndentSequence(true),
	yaml.UseLiteralStyleIfMultiline(true),
}

// Marshal serializes n to YAML text. The result always ends in a newline.
func Marshal(n *Node) (string, error) {
	out, err := yaml.MarshalWithOptions(n.ToValue(), DefaultMarshalOptions...)
	if err != nil {
		return "", fmt.Errorf("failed to marshal workflow: %w", err)
	}
	text := CleanYAMLNullValues(UnquoteYAMLKey(string(out), "on"))
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	yamlLog.Printf("Marshaled %d top-level keys into %d bytes", n.Len(), len(text))
	return text, nil
}

// ToValue converts n into values goccy/go-yaml marshals deterministically:
// yaml.MapSlice for mappings, []any for sequences.
func (n *Node) ToValue() any {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case MappingKind:
		out := make(yaml.MapSlice, 0, len(n.Entries))
		for _, e := range n.Entries {
			out = append(out, yaml.MapItem{Key: e.Key, Value: e.Value.ToValue()})
		}
		return out
	case SequenceKind:
		out := make([]any, len(n.Items))
		for i, item := range n.Items {
			out[i] = item.ToValue()
		}
		return out
	default:
		return n.Value
	}
}

// ToJSONValue converts n into encoding/json friendly values
// (map[string]any and []any) for schema validation.
func (n *Node) ToJSONValue() any {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case MappingKind:
		out := make(map[string]any, len(n.Entries))
		for _, e := range n.Entries {
			out[e.Key] = e.Value.ToJSONValue()
		}
		return out
	case SequenceKind:
		out := make([]any, len(n.Items))
		for i, item := range n.Items {
			out[i] = item.ToJSONValue()
		}
		return out
	default:
		return n.Value
	}
}

// OrderMapFields converts a map to a mapping Node with fields in a specific order.
//
// Priority fields come first, in the order given; the remaining keys follow
// alphabetically. Values are converted with FromValue, so nested maps are
// sorted alphabetically unless they are already Nodes or yaml.MapSlices.
//
//	step := map[string]any{"run": "make", "name": "Build", "env": env}
//	OrderMapFields(step, constants.PriorityStepFields) // name, run, env
func OrderMapFields(data map[string]any, priorityFields []string) *Node {
	out := Mapping()
	for _, field := range priorityFields {
		if value, ok := data[field]; ok {
			out.Set(field, FromValue(value))
		}
	}

	var remaining []string
	for key := range data {
		if !slices.Contains(priorityFields, key) {
			remaining = append(remaining, key)
		}
	}
	sort.Strings(remaining)
	for _, key := range remaining {
		out.Set(key, FromValue(data[key]))
	}
	return out
}

// UnquoteYAMLKey removes double or single quotes around key where it is a
// mapping key opening a line (after optional indentation or a sequence dash).
// Values and block scalar content that merely contain the quoted word are
// left alone, and text that does not parse is returned unchanged:
//
//	UnquoteYAMLKey("\"on\":\n  push:", "on") // "on:\n  push:"
func UnquoteYAMLKey(yamlStr string, key string) string {
	lines := keyLines(yamlStr, func(keyTok *token.Token, _ ast.Node) bool {
		return keyTok.Value == key
	})
	if len(lines) == 0 {
		return yamlStr
	}
	quoted := regexp.QuoteMeta(key)
	re := regexp.MustCompile(`^([ \t]*(?:- )?)(?:"` + quoted + `"|'` + quoted + `'):`)
	return rewriteLines(yamlStr, lines, func(line string) string {
		return re.ReplaceAllString(line, "${1}"+key+":")
	})
}

var nullValuePattern = regexp.MustCompile(`:[ \t]*null[ \t]*$`)

// CleanYAMLNullValues replaces a trailing ": null" with ":" on lines whose
// mapping value is null. Quoted "null" strings and block scalar content are
// not affected.
func CleanYAMLNullValues(yamlStr string) string {
	lines := keyLines(yamlStr, func(_ *token.Token, value ast.Node) bool {
		_, isNull := unwrap(value).(*ast.NullNode)
		return isNull
	})
	if len(lines) == 0 {
		return yamlStr
	}
	return rewriteLines(yamlStr, lines, func(line string) string {
		return nullValuePattern.ReplaceAllString(line, ":")
	})
}

// rewriteLines applies fn to the 1-based lines in targets, keeping line endings.
func rewriteLines(text string, targets map[int]bool, fn func(string) string) string {
	lines := strings.SplitAfter(text, "\n")
	for i, line := range lines {
		if !targets[i+1] {
			continue
		}
		body := strings.TrimSuffix(line, "\n")
		lines[i] = fn(body) + line[len(body):]
	}
	return strings.Join(lines, "")
}
