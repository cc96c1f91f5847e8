package document

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/scanwf/scanwf/pkg/logger"
)

var parseLog = logger.New("document:parse")

// ParseError reports text that is not well-formed YAML. Line and Column are
// 1-based and zero when the parser did not report a position.
type ParseError struct {
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("yaml parse error at line %d, column %d: %s", e.Line, e.Column, e.Message)
	}
	return "yaml parse error: " + e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// goccy/go-yaml prefixes its messages with "[line:column]".
var errorPositionPattern = regexp.MustCompile(`^\[(\d+):(\d+)\]\s*`)

// Parse reads the first YAML document in text. Blank text yields an empty
// mapping. Anchors and aliases are expanded.
func Parse(text string) (*Node, error) {
	if strings.TrimSpace(text) == "" {
		return Mapping(), nil
	}

	var raw any
	if err := yaml.UnmarshalWithOptions([]byte(text), &raw, yaml.UseOrderedMap()); err != nil {
		perr := newParseError(err)
		parseLog.Printf("Parse failed: %v", perr)
		return nil, perr
	}
	return FromValue(raw), nil
}

// ParseMapping is Parse restricted to documents whose root is a mapping.
func ParseMapping(text string) (*Node, error) {
	n, err := Parse(text)
	if err != nil {
		return nil, err
	}
	if n.IsNull() {
		return Mapping(), nil
	}
	if !n.IsMapping() {
		return nil, &ParseError{Line: 1, Column: 1, Message: fmt.Sprintf("document root is a %s, expected a mapping", n.Kind)}
	}
	return n, nil
}

func newParseError(err error) *ParseError {
	first, _, _ := strings.Cut(err.Error(), "\n")
	perr := &ParseError{Message: strings.TrimSpace(first), Err: err}
	if m := errorPositionPattern.FindStringSubmatch(first); m != nil {
		perr.Line, _ = strconv.Atoi(m[1])
		perr.Column, _ = strconv.Atoi(m[2])
		perr.Message = strings.TrimSpace(first[len(m[0]):])
	}
	return perr
}

// AsParseError unwraps err to a *ParseError.
func AsParseError(err error) (*ParseError, bool) {
	var perr *ParseError
	ok := errors.As(err, &perr)
	return perr, ok
}

// FromValue converts decoded YAML or plain Go values into a Node.
// yaml.MapSlice keeps its order; Go maps are sorted by key.
func FromValue(v any) *Node {
	switch t := v.(type) {
	case *Node:
		return t.Clone()
	case yaml.MapSlice:
		m := Mapping()
		for _, item := range t {
			m.Set(keyString(item.Key), FromValue(item.Value))
		}
		return m
	case map[string]any:
		m := Mapping()
		for _, k := range sortedKeys(t) {
			m.Set(k, FromValue(t[k]))
		}
		return m
	case map[string]string:
		m := Mapping()
		for _, k := range sortedKeys(t) {
			m.Set(k, Scalar(t[k]))
		}
		return m
	case map[any]any:
		keys := make([]string, 0, len(t))
		byKey := make(map[string]any, len(t))
		for k, val := range t {
			ks := keyString(k)
			keys = append(keys, ks)
			byKey[ks] = val
		}
		sort.Strings(keys)
		m := Mapping()
		for _, k := range keys {
			m.Set(k, FromValue(byKey[k]))
		}
		return m
	case []any:
		items := make([]*Node, len(t))
		for i, item := range t {
			items[i] = FromValue(item)
		}
		return Sequence(items...)
	case []string:
		return Strings(t...)
	case nil:
		return Null()
	case string, bool, int, int32, int64, uint, uint64, float32, float64:
		return Scalar(t)
	default:
		return Scalar(fmt.Sprint(t))
	}
}

func keyString(k any) string {
	if k == nil {
		return "null"
	}
	if s, ok := k.(string); ok {
		return s
	}
	return fmt.Sprint(k)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
