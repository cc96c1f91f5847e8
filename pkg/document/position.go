package document

import (
	"strconv"
	"strings"

	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"
	"github.com/goccy/go-yaml/token"
)

// Position is a 1-based line and column in the source text.
type Position struct {
	Line   int
	Column int
}

// PositionIndex maps JSON pointers ("/jobs/scan/steps/0") to the position of
// the node in the source. For mapping entries the position is that of the key.
type PositionIndex map[string]Position

// IndexPositions walks the YAML syntax tree of text and records where each
// node starts. Text that does not parse yields an empty index.
func IndexPositions(text string) PositionIndex {
	idx := PositionIndex{}
	file, err := parser.ParseBytes([]byte(text), 0)
	if err != nil || file == nil || len(file.Docs) == 0 || file.Docs[0] == nil {
		return idx
	}
	body := file.Docs[0].Body
	if body != nil {
		idx.record("", body)
		idx.walk(nil, body)
	}
	return idx
}

// Lookup returns the position recorded for pointer, falling back to the
// nearest ancestor that has one.
func (idx PositionIndex) Lookup(pointer string) (Position, bool) {
	for {
		if pos, ok := idx[pointer]; ok {
			return pos, true
		}
		if pointer == "" {
			return Position{}, false
		}
		i := strings.LastIndex(pointer, "/")
		if i < 0 {
			return Position{}, false
		}
		pointer = pointer[:i]
	}
}

// Line is Lookup reduced to the line number, 0 when unknown.
func (idx PositionIndex) Line(pointer string) int {
	pos, _ := idx.Lookup(pointer)
	return pos.Line
}

func (idx PositionIndex) walk(path []string, n ast.Node) {
	switch t := unwrap(n).(type) {
	case *ast.MappingNode:
		for _, mv := range t.Values {
			idx.walkPair(path, mv)
		}
	case *ast.MappingValueNode:
		idx.walkPair(path, t)
	case *ast.SequenceNode:
		for i, item := range t.Values {
			itemPath := append(append([]string{}, path...), strconv.Itoa(i))
			idx.record(Pointer(itemPath...), item)
			idx.walk(itemPath, item)
		}
	}
}

func (idx PositionIndex) walkPair(path []string, mv *ast.MappingValueNode) {
	if mv == nil || mv.Key == nil {
		return
	}
	keyTok := mv.Key.GetToken()
	if keyTok == nil {
		return
	}
	childPath := append(append([]string{}, path...), keyTok.Value)
	if keyTok.Position != nil {
		idx[Pointer(childPath...)] = Position{Line: keyTok.Position.Line, Column: keyTok.Position.Column}
	}
	if mv.Value != nil {
		idx.walk(childPath, mv.Value)
	}
}

func (idx PositionIndex) record(pointer string, n ast.Node) {
	if _, exists := idx[pointer]; exists {
		return
	}
	if pos, ok := nodePosition(n); ok {
		idx[pointer] = pos
	}
}

// nodePosition reports where n starts. A block mapping starts at its first key.
func nodePosition(n ast.Node) (Position, bool) {
	n = unwrap(n)
	switch t := n.(type) {
	case *ast.MappingNode:
		if len(t.Values) > 0 && t.Values[0].Key != nil {
			n = t.Values[0].Key
		}
	case *ast.MappingValueNode:
		if t.Key != nil {
			n = t.Key
		}
	}
	if n == nil {
		return Position{}, false
	}
	tok := n.GetToken()
	if tok == nil || tok.Position == nil {
		return Position{}, false
	}
	return Position{Line: tok.Position.Line, Column: tok.Position.Column}, true
}

// keyLines returns the 1-based lines of the mapping keys in text for which
// match reports true. Text that does not parse yields nil.
func keyLines(text string, match func(keyTok *token.Token, value ast.Node) bool) map[int]bool {
	file, err := parser.ParseBytes([]byte(text), 0)
	if err != nil || file == nil {
		return nil
	}
	lines := map[int]bool{}
	var visit func(n ast.Node)
	visitPair := func(mv *ast.MappingValueNode) {
		if mv == nil || mv.Key == nil {
			return
		}
		if keyTok := mv.Key.GetToken(); keyTok != nil && keyTok.Position != nil && match(keyTok, mv.Value) {
			lines[keyTok.Position.Line] = true
		}
		if mv.Value != nil {
			visit(mv.Value)
		}
	}
	visit = func(n ast.Node) {
		switch t := unwrap(n).(type) {
		case *ast.MappingNode:
			for _, mv := range t.Values {
				visitPair(mv)
			}
		case *ast.MappingValueNode:
			visitPair(t)
		case *ast.SequenceNode:
			for _, item := range t.Values {
				visit(item)
			}
		}
	}
	for _, doc := range file.Docs {
		if doc != nil && doc.Body != nil {
			visit(doc.Body)
		}
	}
	return lines
}

func unwrap(n ast.Node) ast.Node {
	for {
		switch t := n.(type) {
		case *ast.TagNode:
			n = t.Value
		case *ast.AnchorNode:
			n = t.Value
		default:
			return n
		}
	}
}
