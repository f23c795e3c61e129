package tree

import (
	"fmt"

	"github.com/aretw0/vizkit/pkg/domain"
	"github.com/aretw0/vizkit/pkg/value"
)

// ShapeError reports a sample whose kind disagrees with an existing node of the
// same type name. It means the producer broke its type contract.
type ShapeError struct {
	Path     value.Path
	TypeName string
	Have     value.Kind
	Got      value.Kind
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s at %q: type %s was a %s, sample is a %s", domain.ErrShapeMismatch, e.Path.String(), e.TypeName, e.Have, e.Got)
}

func (e *ShapeError) Unwrap() error { return domain.ErrShapeMismatch }

// Changes lists what a Sync did.
type Changes struct {
	// Added are new nodes; only the top of each new subtree is listed.
	Added []*Node
	// Updated are scalar nodes whose value changed.
	Updated []*Node
	// Removed are detached nodes; only the top of each removed subtree is listed.
	Removed []*Node
	// Retained are nodes absent from the sample but kept because of pending edits.
	Retained []*Node
}

// IsEmpty reports whether the merge changed nothing.
func (c *Changes) IsEmpty() bool {
	return len(c.Added) == 0 && len(c.Updated) == 0 && len(c.Removed) == 0 && len(c.Retained) == 0
}

// Sync merges v into the model.
//
// Nodes are matched by key, array elements by index. A node whose sample is
// structurally equal to the last merged one is skipped with its subtree. Dirty
// nodes and their subtrees keep their values. Children missing from v are removed
// unless they hold edits; those stay, flagged Orphaned, until the first merge
// after the edit is resolved. A node whose type name changed is replaced.
//
// A sample that breaks the shape of an existing node is rejected as a whole:
// the model is left exactly as it was.
func (m *Model) Sync(v value.Value) (*Changes, error) {
	ch := &Changes{}
	if !v.IsValid() {
		return ch, fmt.Errorf("sync: %w: invalid sample", domain.ErrShapeMismatch)
	}
	if m.root == nil {
		m.root = build(nil, "", v)
		ch.Added = append(ch.Added, m.root)
		return ch, nil
	}
	if err := check(m.root, v); err != nil {
		return ch, err
	}
	m.root = merge(m.root, v, ch)
	return ch, nil
}

// check walks the nodes merge would descend into and reports the first kind
// mismatch, without touching the model.
func check(n *Node, v value.Value) error {
	if n.dirty || n.typeName != v.TypeName() {
		return nil
	}
	if n.kind != v.Kind() {
		return &ShapeError{Path: n.Path(), TypeName: n.typeName, Have: n.kind, Got: v.Kind()}
	}
	if n.IsLeaf() || (n.fresh && n.value.Equal(v)) {
		return nil
	}
	keys, vals := v.Children()
	for i, k := range keys {
		c, ok := n.Child(k)
		if !ok {
			continue
		}
		if err := check(c, vals[i]); err != nil {
			return err
		}
	}
	return nil
}

func build(parent *Node, key string, v value.Value) *Node {
	n := &Node{
		key:      key,
		kind:     v.Kind(),
		typeName: v.TypeName(),
		value:    v,
		parent:   parent,
		fresh:    true,
	}
	keys, vals := v.Children()
	if len(keys) > 0 {
		n.children = make([]*Node, len(keys))
		for i, k := range keys {
			n.children[i] = build(n, k, vals[i])
		}
	}
	return n
}

// merge assumes check accepted v.
func merge(n *Node, v value.Value, ch *Changes) *Node {
	if n.dirty {
		return n
	}
	if n.typeName != v.TypeName() {
		if n.subtreeDirty() {
			return n
		}
		repl := build(n.parent, n.key, v)
		repl.Expanded = n.Expanded
		ch.Removed = append(ch.Removed, n)
		ch.Added = append(ch.Added, repl)
		n.parent = nil
		return repl
	}

	if n.IsLeaf() {
		if !n.value.Equal(v) {
			n.value = v
			ch.Updated = append(ch.Updated, n)
		}
		return n
	}

	if n.fresh && n.value.Equal(v) {
		return n
	}

	existing := make(map[string]*Node, len(n.children))
	for _, c := range n.children {
		existing[c.key] = c
	}
	keys, vals := v.Children()
	children := make([]*Node, 0, len(keys))
	for i, k := range keys {
		c, ok := existing[k]
		if !ok {
			c = build(n, k, vals[i])
			ch.Added = append(ch.Added, c)
			children = append(children, c)
			continue
		}
		delete(existing, k)
		merged := merge(c, vals[i], ch)
		merged.orphaned = false
		children = append(children, merged)
	}
	for _, c := range n.children {
		if _, missing := existing[c.key]; !missing {
			continue
		}
		if c.subtreeDirty() {
			if !c.orphaned {
				c.orphaned = true
				ch.Retained = append(ch.Retained, c)
			}
			children = append(children, c)
			continue
		}
		c.parent = nil
		ch.Removed = append(ch.Removed, c)
	}

	n.children = children
	n.value = v
	n.fresh = true
	for _, c := range children {
		if c.orphaned || c.subtreeDirty() || !c.settled() {
			n.fresh = false
			break
		}
	}
	return n
}

// settled reports whether a composite child has a valid merge snapshot.
func (n *Node) settled() bool {
	return n.IsLeaf() || n.fresh
}
