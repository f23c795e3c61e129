package tree

import "github.com/aretw0/vizkit/pkg/value"

// NodeView is a read-only, JSON friendly snapshot of a node and its subtree.
type NodeView struct {
	Key      string     `json:"key"`
	Path     string     `json:"path"`
	Kind     string     `json:"kind"`
	Type     string     `json:"type"`
	Value    any        `json:"value,omitempty"`
	Text     string     `json:"text,omitempty"`
	Dirty    bool       `json:"dirty,omitempty"`
	Orphaned bool       `json:"orphaned,omitempty"`
	Expanded bool       `json:"expanded,omitempty"`
	Children []NodeView `json:"children,omitempty"`
}

// View snapshots n. Scalars carry their primitive and its display text.
func View(n *Node) NodeView {
	v := NodeView{
		Key:      n.key,
		Path:     n.Path().String(),
		Kind:     n.kind.String(),
		Type:     n.typeName,
		Dirty:    n.dirty,
		Orphaned: n.orphaned,
		Expanded: n.Expanded,
	}
	if n.IsLeaf() {
		v.Value = n.value.Interface()
		v.Text = value.FormatScalar(n.value.Interface())
		return v
	}
	v.Children = make([]NodeView, len(n.children))
	for i, c := range n.children {
		v.Children[i] = View(c)
	}
	return v
}

// View snapshots the whole model. It reports false before the first Sync.
func (m *Model) View() (NodeView, bool) {
	if m.root == nil {
		return NodeView{}, false
	}
	return View(m.root), true
}
