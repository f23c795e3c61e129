package tree_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/vizkit/pkg/domain"
	"github.com/aretw0/vizkit/pkg/tree"
	"github.com/aretw0/vizkit/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModel_Edit(t *testing.T) {
	m := tree.New()
	_, err := m.Sync(sample(1, 10))
	require.NoError(t, err)

	assert.ErrorIs(t, m.Edit(find(t, m, "b"), i32(1)), domain.ErrNotEditable)
	assert.ErrorIs(t, m.Edit(find(t, m, "a"), value.Scalar("string", "x")), domain.ErrShapeMismatch)
	assert.False(t, m.HasDirty())

	require.NoError(t, m.Edit(find(t, m, "b[0]"), i32(11)))
	assert.Equal(t, sample(1, 11).String(), m.Root().Value().String())
}

func TestModel_DirtyNodesInTreeOrder(t *testing.T) {
	m := tree.New()
	_, err := m.Sync(sample(1, 10, 20))
	require.NoError(t, err)

	b1 := find(t, m, "b[1]")
	a := find(t, m, "a")
	require.NoError(t, m.Edit(b1, i32(21)))
	require.NoError(t, m.Edit(a, i32(2)))

	assert.Equal(t, []*tree.Node{a, b1}, m.DirtyNodes())
}

func TestModel_PendingLeavesOfDirtyComposite(t *testing.T) {
	m := tree.New()
	_, err := m.Sync(sample(1, 10, 20))
	require.NoError(t, err)

	b := find(t, m, "b")
	b0 := find(t, m, "b[0]")
	b1 := find(t, m, "b[1]")
	require.NoError(t, m.Edit(b0, i32(11)))
	m.MarkDirty(b)

	assert.Equal(t, []*tree.Node{b0, b1}, m.PendingLeaves(), "each leaf is listed once")

	m.Resolve([]*tree.Node{b0})
	assert.False(t, b0.Dirty())
	assert.True(t, b.Dirty(), "the composite waits for all its leaves")

	m.Resolve([]*tree.Node{b1})
	assert.False(t, b.Dirty())
	assert.Empty(t, m.PendingLeaves())
}

func TestModel_ResetAndFind(t *testing.T) {
	m := tree.New()
	_, ok := m.Find(nil)
	assert.False(t, ok)
	_, ok = m.View()
	assert.False(t, ok)

	_, err := m.Sync(sample(1, 10))
	require.NoError(t, err)
	root, ok := m.Find(nil)
	require.True(t, ok)
	assert.Same(t, m.Root(), root)
	_, ok = m.Find(value.Path{"nope"})
	assert.False(t, ok)

	m.Reset()
	assert.Nil(t, m.Root())
	assert.Equal(t, 0, m.Len())
}

func TestModel_View(t *testing.T) {
	m := tree.New()
	_, err := m.Sync(sample(1, 10))
	require.NoError(t, err)
	require.NoError(t, m.Edit(find(t, m, "a"), i32(4)))

	view, ok := m.View()
	require.True(t, ok)
	data, err := json.Marshal(view)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "record", decoded["kind"])
	assert.Equal(t, "/Sample", decoded["type"])

	children := decoded["children"].([]any)
	a := children[0].(map[string]any)
	assert.Equal(t, "a", a["path"])
	assert.Equal(t, "4", a["text"])
	assert.Equal(t, true, a["dirty"])

	b0 := children[1].(map[string]any)["children"].([]any)[0].(map[string]any)
	assert.Equal(t, "b[0]", b0["path"])
}
