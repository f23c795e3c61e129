package tree_test

import (
	"errors"
	"testing"

	"github.com/aretw0/vizkit/pkg/domain"
	"github.com/aretw0/vizkit/pkg/tree"
	"github.com/aretw0/vizkit/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func i32(n int) value.Value { return value.Scalar("int32", n) }

func ints(ns ...int) value.Value {
	elems := make([]value.Value, len(ns))
	for i, n := range ns {
		elems[i] = i32(n)
	}
	return value.Array("[int32]", elems...)
}

func sample(a int, b ...int) value.Value {
	return value.Record("/Sample", value.F("a", i32(a)), value.F("b", ints(b...)))
}

func find(t *testing.T, m *tree.Model, path string) *tree.Node {
	t.Helper()
	p, err := value.ParsePath(path)
	require.NoError(t, err)
	n, ok := m.Find(p)
	require.True(t, ok, "no node at %q", path)
	return n
}

func identities(m *tree.Model) map[string]*tree.Node {
	out := make(map[string]*tree.Node)
	m.Walk(func(n *tree.Node) bool {
		out[n.Path().String()] = n
		return true
	})
	return out
}

func TestSync_KeyPathsMatchValue(t *testing.T) {
	v := value.Record("/Pose",
		value.F("position", value.Record("/Vec", value.F("x", value.Scalar("double", 1.0)), value.F("y", value.Scalar("double", 2.0)))),
		value.F("joints", ints(1, 2, 3)),
		value.F("name", value.Scalar("string", "arm")),
	)
	m := tree.New()
	ch, err := m.Sync(v)
	require.NoError(t, err)
	assert.Len(t, ch.Added, 1)

	want := map[string]string{}
	v.Walk(func(p value.Path, sub value.Value) bool {
		want[p.String()] = sub.TypeName()
		return true
	})
	got := map[string]string{}
	m.Walk(func(n *tree.Node) bool {
		got[n.Path().String()] = n.TypeName()
		return true
	})
	assert.Equal(t, want, got)
	assert.Equal(t, len(want), m.Len())

	keys := []string{}
	for _, c := range m.Root().Children() {
		keys = append(keys, c.Key())
	}
	assert.Equal(t, []string{"position", "joints", "name"}, keys)
}

func TestSync_IdempotentRemerge(t *testing.T) {
	m := tree.New()
	_, err := m.Sync(sample(1, 10, 20))
	require.NoError(t, err)
	before := identities(m)

	ch, err := m.Sync(sample(1, 10, 20))
	require.NoError(t, err)
	assert.True(t, ch.IsEmpty())
	assert.Equal(t, before, identities(m))
	assert.False(t, m.HasDirty())
}

func TestSync_ArrayGrowthKeepsIdentities(t *testing.T) {
	m := tree.New()
	_, err := m.Sync(sample(1, 10, 20))
	require.NoError(t, err)

	a := find(t, m, "a")
	b := find(t, m, "b")
	b0 := find(t, m, "b[0]")
	b1 := find(t, m, "b[1]")
	assert.Equal(t, int64(1), a.Value().Interface())
	assert.Equal(t, value.KindArray, b.Kind())
	assert.Equal(t, 2, b.NumChildren())
	assert.Equal(t, int64(10), b0.Value().Interface())
	assert.Equal(t, int64(20), b1.Value().Interface())

	ch, err := m.Sync(sample(1, 10, 20, 30))
	require.NoError(t, err)
	require.Len(t, ch.Added, 1)
	assert.Equal(t, "b[2]", ch.Added[0].Path().String())
	assert.Equal(t, int64(30), ch.Added[0].Value().Interface())
	assert.Empty(t, ch.Updated)
	assert.Empty(t, ch.Removed)

	assert.Same(t, a, find(t, m, "a"))
	assert.Same(t, b, find(t, m, "b"))
	assert.Same(t, b0, find(t, m, "b[0]"))
	assert.Same(t, b1, find(t, m, "b[1]"))
}

func TestSync_ScalarUpdateInPlace(t *testing.T) {
	m := tree.New()
	_, err := m.Sync(sample(1, 10))
	require.NoError(t, err)
	a := find(t, m, "a")
	m.SetExpanded(m.Root(), true)

	ch, err := m.Sync(sample(2, 10))
	require.NoError(t, err)
	assert.Equal(t, []*tree.Node{a}, ch.Updated)
	assert.Equal(t, int64(2), a.Value().Interface())
	assert.True(t, m.Root().Expanded, "expansion state survives refresh")
}

func TestSync_ArrayReorderIsMutation(t *testing.T) {
	m := tree.New()
	_, err := m.Sync(sample(1, 10, 20))
	require.NoError(t, err)
	b0 := find(t, m, "b[0]")

	ch, err := m.Sync(sample(1, 20, 10))
	require.NoError(t, err)
	assert.Len(t, ch.Updated, 2)
	assert.Empty(t, ch.Added)
	assert.Same(t, b0, find(t, m, "b[0]"))
	assert.Equal(t, int64(20), b0.Value().Interface())
}

func TestSync_DirtyNodeIsNeverOverwritten(t *testing.T) {
	m := tree.New()
	_, err := m.Sync(sample(1, 10, 20))
	require.NoError(t, err)

	a := find(t, m, "a")
	require.NoError(t, m.Edit(a, i32(99)))
	assert.True(t, a.Dirty())

	for _, next := range []value.Value{sample(2, 10, 20), sample(3, 11, 21), sample(1, 10, 20)} {
		_, err := m.Sync(next)
		require.NoError(t, err)
		assert.Equal(t, int64(99), a.Value().Interface())
		assert.True(t, a.Dirty())
	}
	assert.Equal(t, int64(10), find(t, m, "b[0]").Value().Interface(), "clean siblings keep refreshing")
}

func TestSync_DirtyCompositeProtectsSubtree(t *testing.T) {
	m := tree.New()
	_, err := m.Sync(sample(1, 10, 20))
	require.NoError(t, err)

	b := find(t, m, "b")
	m.MarkDirty(b)
	_, err = m.Sync(sample(1, 11, 21, 31))
	require.NoError(t, err)
	assert.Equal(t, 2, b.NumChildren())
	assert.Equal(t, int64(10), find(t, m, "b[0]").Value().Interface())
}

func TestSync_CancelRestoresLiveValue(t *testing.T) {
	m := tree.New()
	_, err := m.Sync(sample(1, 10))
	require.NoError(t, err)
	a := find(t, m, "a")
	require.NoError(t, m.Edit(a, i32(5)))

	m.ClearAll()
	assert.False(t, m.HasDirty())
	assert.Equal(t, int64(5), a.Value().Interface(), "cancel does not touch values")

	ch, err := m.Sync(sample(1, 10))
	require.NoError(t, err)
	assert.Equal(t, []*tree.Node{a}, ch.Updated)
	assert.Equal(t, int64(1), a.Value().Interface())
}

func TestSync_ArrayShrinkRemovesMissingIndices(t *testing.T) {
	m := tree.New()
	_, err := m.Sync(sample(1, 10, 20, 30))
	require.NoError(t, err)
	b0 := find(t, m, "b[0]")

	ch, err := m.Sync(sample(1, 10))
	require.NoError(t, err)
	require.Len(t, ch.Removed, 2)
	assert.Equal(t, "1", ch.Removed[0].Key())
	assert.Equal(t, "2", ch.Removed[1].Key())
	assert.Equal(t, 1, find(t, m, "b").NumChildren())
	assert.Same(t, b0, find(t, m, "b[0]"))
}

func TestSync_DirtyOrphanSurvivesUntilResolved(t *testing.T) {
	m := tree.New()
	_, err := m.Sync(sample(1, 10, 20, 30))
	require.NoError(t, err)
	b2 := find(t, m, "b[2]")
	require.NoError(t, m.Edit(b2, i32(33)))

	ch, err := m.Sync(sample(1, 10))
	require.NoError(t, err)
	require.Len(t, ch.Removed, 1)
	assert.Equal(t, "1", ch.Removed[0].Key())
	assert.Equal(t, []*tree.Node{b2}, ch.Retained)
	assert.Same(t, b2, find(t, m, "b[2]"))
	assert.True(t, b2.Orphaned())
	assert.Equal(t, int64(33), b2.Value().Interface())

	ch, err = m.Sync(sample(1, 10))
	require.NoError(t, err)
	assert.True(t, ch.IsEmpty(), "a retained orphan is reported once")
	assert.Same(t, b2, find(t, m, "b[2]"))

	m.ClearDirty(b2)
	ch, err = m.Sync(sample(1, 10))
	require.NoError(t, err)
	assert.Equal(t, []*tree.Node{b2}, ch.Removed)
	_, ok := m.Find(value.Path{"b", "2"})
	assert.False(t, ok)
}

func TestSync_OrphanReturning(t *testing.T) {
	m := tree.New()
	_, err := m.Sync(sample(1, 10, 20))
	require.NoError(t, err)
	b1 := find(t, m, "b[1]")
	require.NoError(t, m.Edit(b1, i32(7)))

	_, err = m.Sync(sample(1, 10))
	require.NoError(t, err)
	require.True(t, b1.Orphaned())

	_, err = m.Sync(sample(1, 10, 25))
	require.NoError(t, err)
	assert.False(t, b1.Orphaned())
	assert.Same(t, b1, find(t, m, "b[1]"))
	assert.Equal(t, int64(7), b1.Value().Interface())
}

func TestSync_TypeChangeReplacesNode(t *testing.T) {
	m := tree.New()
	_, err := m.Sync(value.Record("/R", value.F("x", i32(1))))
	require.NoError(t, err)
	x := find(t, m, "x")

	ch, err := m.Sync(value.Record("/R", value.F("x", value.Scalar("string", "one"))))
	require.NoError(t, err)
	assert.Equal(t, []*tree.Node{x}, ch.Removed)
	require.Len(t, ch.Added, 1)
	assert.NotSame(t, x, find(t, m, "x"))
	assert.Equal(t, "string", find(t, m, "x").TypeName())
}

func TestSync_ShapeMismatch(t *testing.T) {
	m := tree.New()
	_, err := m.Sync(value.Record("/R", value.F("x", value.Record("/Odd", value.F("y", i32(1))))))
	require.NoError(t, err)

	_, err = m.Sync(value.Record("/R", value.F("x", value.Scalar("/Odd", 1))))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrShapeMismatch)

	var shape *tree.ShapeError
	require.True(t, errors.As(err, &shape))
	assert.Equal(t, value.Path{"x"}, shape.Path)
	assert.Equal(t, value.KindRecord, shape.Have)
	assert.Equal(t, value.KindScalar, shape.Got)

	_, err = m.Sync(value.Value{})
	assert.ErrorIs(t, err, domain.ErrShapeMismatch)
}

func TestSync_RejectedSampleLeavesTreeUntouched(t *testing.T) {
	m := tree.New()
	first := value.Record("/R",
		value.F("a", i32(1)),
		value.F("x", i32(7)),
		value.F("y", value.Record("/Y", value.F("z", i32(3)))),
	)
	_, err := m.Sync(first)
	require.NoError(t, err)
	x := find(t, m, "x")

	ch, err := m.Sync(value.Record("/R",
		value.F("a", i32(2)),
		value.F("x", value.Scalar("double", 1.5)),
		value.F("y", value.Scalar("/Y", 4)),
	))
	assert.ErrorIs(t, err, domain.ErrShapeMismatch)
	assert.True(t, ch.IsEmpty())

	assert.True(t, first.Equal(m.Root().Value()), "no partial merge")
	assert.Same(t, x, find(t, m, "x"))
	assert.Equal(t, "int32", x.TypeName())
	assert.Equal(t, value.Path{"x"}, x.Path())
	assert.Same(t, m.Root(), x.Parent())

	_, err = m.Sync(value.Record("/R",
		value.F("a", i32(2)),
		value.F("x", i32(7)),
		value.F("y", value.Record("/Y", value.F("z", i32(3)))),
	))
	require.NoError(t, err)
	assert.Equal(t, int64(2), find(t, m, "a").Value().Interface())
}
