// Package document holds the in-memory tree used for workflow documents.
//
// A Node is one of three kinds: a Scalar (string, bool, number or null), a
// Sequence of nodes, or a Mapping of string keys to nodes. Mappings keep
// insertion order so that a parse followed by a serialize leaves unrelated
// content where the author put it.
//
// Nodes are plain values. Every operation that returns a modified tree
// (Clone, DeepMerge, the pruner and the merge engine built on top of this
// package) copies what it changes and never aliases the caller's input.
package document

import (
	"fmt"
	"strconv"
)

// Kind discriminates the three node variants.
type Kind int

const (
	ScalarKind Kind = iota
	SequenceKind
	MappingKind
)

func (k Kind) String() string {
	switch k {
	case ScalarKind:
		return "scalar"
	case SequenceKind:
		return "sequence"
	case MappingKind:
		return "mapping"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Node is a single value in a workflow document.
type Node struct {
	Kind Kind

	// Value is set for scalars: nil, bool, string, int64, uint64 or float64.
	Value any

	// Items is set for sequences.
	Items []*Node

	// Entries is set for mappings, in document order. Keys are unique.
	Entries []Entry
}

// Entry is one key/value pair of a mapping.
type Entry struct {
	Key   string
	Value *Node
}

// Scalar returns a scalar node. Integer types are normalized to int64.
func Scalar(v any) *Node {
	switch n := v.(type) {
	case int:
		v = int64(n)
	case int32:
		v = int64(n)
	case uint:
		v = uint64(n)
	case float32:
		v = float64(n)
	}
	return &Node{Kind: ScalarKind, Value: v}
}

// Null returns a null scalar.
func Null() *Node {
	return &Node{Kind: ScalarKind}
}

// Sequence returns a sequence node holding items.
func Sequence(items ...*Node) *Node {
	if items == nil {
		items = []*Node{}
	}
	return &Node{Kind: SequenceKind, Items: items}
}

// Mapping returns a mapping node holding entries. Later duplicates of a key replace earlier ones.
func Mapping(entries ...Entry) *Node {
	m := &Node{Kind: MappingKind, Entries: make([]Entry, 0, len(entries))}
	for _, e := range entries {
		m.Set(e.Key, e.Value)
	}
	return m
}

// E is shorthand for building mapping entries in code and tests.
func E(key string, value *Node) Entry {
	return Entry{Key: key, Value: value}
}

// Strings returns a sequence of string scalars.
func Strings(values ...string) *Node {
	items := make([]*Node, len(values))
	for i, v := range values {
		items[i] = Scalar(v)
	}
	return Sequence(items...)
}

func (n *Node) IsScalar() bool   { return n != nil && n.Kind == ScalarKind }
func (n *Node) IsSequence() bool { return n != nil && n.Kind == SequenceKind }
func (n *Node) IsMapping() bool  { return n != nil && n.Kind == MappingKind }

// IsNull reports whether n is a null scalar.
func (n *Node) IsNull() bool {
	return n.IsScalar() && n.Value == nil
}

// Len returns the number of entries or items. Scalars have length 0.
func (n *Node) Len() int {
	switch {
	case n.IsMapping():
		return len(n.Entries)
	case n.IsSequence():
		return len(n.Items)
	default:
		return 0
	}
}

// IsEmptyCollection reports whether n is a mapping or sequence with no children.
func (n *Node) IsEmptyCollection() bool {
	return (n.IsMapping() || n.IsSequence()) && n.Len() == 0
}

// Get returns the value stored under key in a mapping.
func (n *Node) Get(key string) (*Node, bool) {
	if !n.IsMapping() {
		return nil, false
	}
	for _, e := range n.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Has reports whether a mapping contains key.
func (n *Node) Has(key string) bool {
	_, ok := n.Get(key)
	return ok
}

// Set stores value under key, replacing in place if the key exists and
// appending otherwise. It panics on non-mapping nodes.
func (n *Node) Set(key string, value *Node) {
	if !n.IsMapping() {
		panic(fmt.Sprintf("document: Set on %s node", n.kindName()))
	}
	for i := range n.Entries {
		if n.Entries[i].Key == key {
			n.Entries[i].Value = value
			return
		}
	}
	n.Entries = append(n.Entries, Entry{Key: key, Value: value})
}

// Delete removes key from a mapping and reports whether it was present.
func (n *Node) Delete(key string) bool {
	if !n.IsMapping() {
		return false
	}
	for i, e := range n.Entries {
		if e.Key == key {
			n.Entries = append(n.Entries[:i:i], n.Entries[i+1:]...)
			return true
		}
	}
	return false
}

// Keys returns the mapping keys in document order.
func (n *Node) Keys() []string {
	if !n.IsMapping() {
		return nil
	}
	keys := make([]string, len(n.Entries))
	for i, e := range n.Entries {
		keys[i] = e.Key
	}
	return keys
}

// Lookup follows path through mappings (by key) and sequences (by decimal index).
func (n *Node) Lookup(path ...string) (*Node, bool) {
	cur := n
	for _, seg := range path {
		switch {
		case cur.IsMapping():
			next, ok := cur.Get(seg)
			if !ok {
				return nil, false
			}
			cur = next
		case cur.IsSequence():
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(cur.Items) {
				return nil, false
			}
			cur = cur.Items[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// AsString returns the scalar value as a string. ok is false for non-string scalars and collections.
func (n *Node) AsString() (string, bool) {
	if !n.IsScalar() {
		return "", false
	}
	s, ok := n.Value.(string)
	return s, ok
}

// Text renders a scalar for display; collections render as their kind.
func (n *Node) Text() string {
	switch {
	case n == nil:
		return ""
	case n.IsNull():
		return "null"
	case n.IsScalar():
		return fmt.Sprint(n.Value)
	default:
		return n.Kind.String()
	}
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case SequenceKind:
		items := make([]*Node, len(n.Items))
		for i, item := range n.Items {
			items[i] = item.Clone()
		}
		return &Node{Kind: SequenceKind, Items: items}
	case MappingKind:
		entries := make([]Entry, len(n.Entries))
		for i, e := range n.Entries {
			entries[i] = Entry{Key: e.Key, Value: e.Value.Clone()}
		}
		return &Node{Kind: MappingKind, Entries: entries}
	default:
		return &Node{Kind: ScalarKind, Value: n.Value}
	}
}

// Equal reports structural equality. Mapping comparison is order-insensitive.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.Kind != other.Kind {
		return false
	}
	switch n.Kind {
	case SequenceKind:
		if len(n.Items) != len(other.Items) {
			return false
		}
		for i := range n.Items {
			if !n.Items[i].Equal(other.Items[i]) {
				return false
			}
		}
		return true
	case MappingKind:
		if len(n.Entries) != len(other.Entries) {
			return false
		}
		for _, e := range n.Entries {
			ov, ok := other.Get(e.Key)
			if !ok || !e.Value.Equal(ov) {
				return false
			}
		}
		return true
	default:
		return scalarEqual(n.Value, other.Value)
	}
}

func scalarEqual(a, b any) bool {
	if a == b {
		return true
	}
	af, aok := numeric(a)
	bf, bok := numeric(b)
	return aok && bok && af == bf
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// DeepMerge returns a copy of base with overlay applied: mappings merge
// recursively, any other overlay value replaces the base value. Keys new to
// base are appended in overlay order.
func DeepMerge(base, overlay *Node) *Node {
	if !base.IsMapping() || !overlay.IsMapping() {
		return overlay.Clone()
	}
	out := base.Clone()
	for _, e := range overlay.Entries {
		if existing, ok := out.Get(e.Key); ok && existing.IsMapping() && e.Value.IsMapping() {
			out.Set(e.Key, DeepMerge(existing, e.Value))
			continue
		}
		out.Set(e.Key, e.Value.Clone())
	}
	return out
}

func (n *Node) kindName() string {
	if n == nil {
		return "nil"
	}
	return n.Kind.String()
}
