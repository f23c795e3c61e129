package tree

import (
	"github.com/aretw0/vizkit/pkg/value"
)

// Node is one field, element or scalar of a tree.
type Node struct {
	key      string
	kind     value.Kind
	typeName string
	// value holds the displayed (possibly pending) value of a scalar, and the last
	// merged sample of a composite.
	value value.Value
	// fresh means value of a composite matches what its subtree displays.
	fresh    bool
	dirty    bool
	orphaned bool
	parent   *Node
	children []*Node

	// Expanded is owned by the UI. Sync never changes it.
	Expanded bool
}

func (n *Node) Key() string        { return n.key }
func (n *Node) Kind() value.Kind   { return n.kind }
func (n *Node) TypeName() string   { return n.typeName }
func (n *Node) Dirty() bool        { return n.dirty }
func (n *Node) Parent() *Node      { return n.parent }
func (n *Node) IsLeaf() bool       { return n.kind == value.KindScalar }
func (n *Node) NumChildren() int   { return len(n.children) }
func (n *Node) ChildAt(i int) *Node { return n.children[i] }

// Orphaned reports whether the node is absent from the latest sample and only
// kept because it holds an unresolved edit.
func (n *Node) Orphaned() bool { return n.orphaned }

// Children returns the children in display order.
func (n *Node) Children() []*Node {
	return append([]*Node(nil), n.children...)
}

// Child returns the direct child with the given key.
func (n *Node) Child(key string) (*Node, bool) {
	for _, c := range n.children {
		if c.key == key {
			return c, true
		}
	}
	return nil, false
}

// Path returns the key path from the root.
func (n *Node) Path() value.Path {
	depth := 0
	for p := n; p.parent != nil; p = p.parent {
		depth++
	}
	path := make(value.Path, depth)
	for p := n; p.parent != nil; p = p.parent {
		depth--
		path[depth] = p.key
	}
	return path
}

// Value returns what the node displays: the pending value of an edited scalar,
// or for a composite, the value assembled from its children.
func (n *Node) Value() value.Value {
	switch n.kind {
	case value.KindRecord:
		fields := make([]value.Field, len(n.children))
		for i, c := range n.children {
			fields[i] = value.F(c.key, c.Value())
		}
		return value.Record(n.typeName, fields...)
	case value.KindArray:
		elems := make([]value.Value, len(n.children))
		for i, c := range n.children {
			elems[i] = c.Value()
		}
		return value.Array(n.typeName, elems...)
	default:
		return n.value
	}
}

func (n *Node) subtreeDirty() bool {
	if n.dirty {
		return true
	}
	for _, c := range n.children {
		if c.subtreeDirty() {
			return true
		}
	}
	return false
}

// invalidate drops the merge snapshot of n and its ancestors so the next Sync
// descends into them.
func (n *Node) invalidate() {
	for p := n; p != nil; p = p.parent {
		p.fresh = false
	}
}

func (n *Node) walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.walk(fn)
	}
}
