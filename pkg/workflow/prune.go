package workflow

import (
	"strconv"
	"strings"

	"github.com/scanwf/scanwf/pkg/constants"
	"github.com/scanwf/scanwf/pkg/document"
	"github.com/scanwf/scanwf/pkg/logger"
)

var pruneLog = logger.New("workflow:prune")

// DroppedElement replaces the index segment of a removal path when the
// sequence element holding the field was dropped entirely.
const DroppedElement = "-"

// RemovedField records one field the pruner deleted. Path leads to the
// mapping that held Key, using indices of the pruned output for sequences.
type RemovedField struct {
	Path  []string `json:"path"`
	Key   string   `json:"key"`
	Value any      `json:"value"`
}

// ParentPath joins Path with dots, the grouping key used by the annotator.
func (r RemovedField) ParentPath() string {
	return strings.Join(r.Path, ".")
}

// RemovalLog lists removed fields in traversal order.
type RemovalLog []RemovedField

// Group returns the removals bucketed by ParentPath, keeping first-seen order.
func (l RemovalLog) Group() ([]string, map[string][]RemovedField) {
	var order []string
	groups := make(map[string][]RemovedField)
	for _, r := range l {
		key := r.ParentPath()
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], r)
	}
	return order, groups
}

// Prune removes disabled fields from doc and returns the result with a log
// of every meaningful removal. Rules, per mapping key in document order:
//
//   - false or "failure" values are removed and logged
//   - empty mappings (except workflow_dispatch) and empty sequences are removed silently
//   - the credential field is removed and logged unless requiresCredential
//   - mappings and sequences are pruned recursively; collections left empty
//     by that are removed silently
//
// Sequence elements left empty are dropped. doc is not modified. Pruning
// the output again yields the same document and an empty log.
func Prune(doc *document.Node, requiresCredential bool) (*document.Node, RemovalLog) {
	p := &pruner{requiresCredential: requiresCredential}
	out := p.node(nil, doc)
	if len(p.log) > 0 {
		pruneLog.Printf("Pruned %d fields (credential required: %v)", len(p.log), requiresCredential)
	}
	return out, p.log
}

type pruner struct {
	requiresCredential bool
	log                RemovalLog
}

func (p *pruner) node(path []string, n *document.Node) *document.Node {
	switch n.Kind {
	case document.MappingKind:
		return p.mapping(path, n)
	case document.SequenceKind:
		return p.sequence(path, n)
	default:
		return n.Clone()
	}
}

func (p *pruner) mapping(path []string, m *document.Node) *document.Node {
	out := document.Mapping()
	for _, e := range m.Entries {
		v := e.Value
		switch {
		case isDisabledValue(v):
			p.record(path, e.Key, v.Value)
			continue
		case v.IsMapping() && v.Len() == 0 && e.Key != constants.WorkflowDispatchKey:
			continue
		case v.IsSequence() && v.Len() == 0:
			continue
		case e.Key == constants.CredentialField && !p.requiresCredential:
			p.record(path, e.Key, v.Value)
			continue
		}

		pruned := p.node(appendPath(path, e.Key), v)
		if pruned.IsEmptyCollection() && !(pruned.IsMapping() && e.Key == constants.WorkflowDispatchKey) {
			continue
		}
		out.Set(e.Key, pruned)
	}
	return out
}

func (p *pruner) sequence(path []string, s *document.Node) *document.Node {
	out := document.Sequence()
	for _, item := range s.Items {
		if !item.IsMapping() && !item.IsSequence() {
			out.Items = append(out.Items, item.Clone())
			continue
		}

		mark := len(p.log)
		idx := strconv.Itoa(len(out.Items))
		pruned := p.node(appendPath(path, idx), item)
		if pruned.IsEmptyCollection() {
			p.markDropped(mark, len(path))
			continue
		}
		out.Items = append(out.Items, pruned)
	}
	return out
}

// markDropped rewrites the index segment at depth of every removal recorded
// since mark, because the element they belonged to no longer exists.
func (p *pruner) markDropped(mark, depth int) {
	for i := mark; i < len(p.log); i++ {
		if depth < len(p.log[i].Path) {
			p.log[i].Path[depth] = DroppedElement
		}
	}
}

func (p *pruner) record(path []string, key string, value any) {
	p.log = append(p.log, RemovedField{Path: append([]string{}, path...), Key: key, Value: value})
}

func isDisabledValue(n *document.Node) bool {
	if !n.IsScalar() {
		return false
	}
	switch v := n.Value.(type) {
	case bool:
		return !v
	case string:
		return v == constants.BreakBuildDefault
	default:
		return false
	}
}

func appendPath(path []string, seg string) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = seg
	return out
}
