package tree

import (
	"fmt"

	"github.com/aretw0/vizkit/pkg/domain"
	"github.com/aretw0/vizkit/pkg/value"
)

// Model is a tree of nodes built from samples. It is not safe for concurrent
// use: only Sync and the edit methods mutate it, one phase at a time.
type Model struct {
	root *Node
}

// New returns an empty model.
func New() *Model {
	return &Model{}
}

// Root returns the root node, or nil before the first Sync.
func (m *Model) Root() *Node { return m.root }

// Reset tears the tree down.
func (m *Model) Reset() { m.root = nil }

// Find returns the node at path.
func (m *Model) Find(path value.Path) (*Node, bool) {
	if m.root == nil {
		return nil, false
	}
	n := m.root
	for _, key := range path {
		c, ok := n.Child(key)
		if !ok {
			return nil, false
		}
		n = c
	}
	return n, true
}

// Walk visits nodes in tree order. Returning false from fn skips the children.
func (m *Model) Walk(fn func(*Node) bool) {
	if m.root != nil {
		m.root.walk(fn)
	}
}

// Len returns the number of nodes.
func (m *Model) Len() int {
	count := 0
	m.Walk(func(*Node) bool {
		count++
		return true
	})
	return count
}

// Edit sets a pending value on a scalar node and marks it dirty.
func (m *Model) Edit(n *Node, v value.Value) error {
	if !n.IsLeaf() {
		return fmt.Errorf("edit %s: %w: %s is a %s", n.Path(), domain.ErrNotEditable, n.typeName, n.kind)
	}
	if !v.IsScalar() || v.TypeName() != n.typeName {
		return fmt.Errorf("edit %s: %w: want scalar %s, got %s %s", n.Path(), domain.ErrShapeMismatch, n.typeName, v.Kind(), v.TypeName())
	}
	n.value = v
	n.dirty = true
	n.invalidate()
	return nil
}

// MarkDirty protects n and its subtree from merges.
func (m *Model) MarkDirty(n *Node) {
	n.dirty = true
	n.invalidate()
}

// ClearDirty resolves n. Its pending value is replaced on the next Sync.
func (m *Model) ClearDirty(n *Node) {
	n.dirty = false
	n.invalidate()
}

// ClearAll clears every dirty flag.
func (m *Model) ClearAll() {
	m.Walk(func(n *Node) bool {
		if n.dirty {
			m.ClearDirty(n)
		}
		return true
	})
}

// SetExpanded records the UI expansion state of n.
func (m *Model) SetExpanded(n *Node, expanded bool) {
	n.Expanded = expanded
}

// HasDirty reports whether any node is dirty.
func (m *Model) HasDirty() bool {
	return m.root != nil && m.root.subtreeDirty()
}

// DirtyNodes returns the dirty nodes in tree order.
func (m *Model) DirtyNodes() []*Node {
	var out []*Node
	m.Walk(func(n *Node) bool {
		if n.dirty {
			out = append(out, n)
		}
		return true
	})
	return out
}

// PendingLeaves returns the scalar nodes to commit: dirty leaves and the leaves
// of dirty composites, in tree order, each once.
func (m *Model) PendingLeaves() []*Node {
	var out []*Node
	var visit func(n *Node, underDirty bool)
	visit = func(n *Node, underDirty bool) {
		pending := underDirty || n.dirty
		if n.IsLeaf() {
			if pending {
				out = append(out, n)
			}
			return
		}
		for _, c := range n.children {
			visit(c, pending)
		}
	}
	if m.root != nil {
		visit(m.root, false)
	}
	return out
}

// Resolve clears the dirty flag of committed leaves, and of every dirty composite
// whose leaves were all committed.
func (m *Model) Resolve(committed []*Node) {
	done := make(map[*Node]bool, len(committed))
	for _, leaf := range committed {
		done[leaf] = true
		m.ClearDirty(leaf)
	}
	for _, n := range m.DirtyNodes() {
		if !n.IsLeaf() && n.leavesIn(done) {
			m.ClearDirty(n)
		}
	}
}

func (n *Node) leavesIn(done map[*Node]bool) bool {
	if n.IsLeaf() {
		return done[n]
	}
	for _, c := range n.children {
		if !c.leavesIn(done) {
			return false
		}
	}
	return true
}
