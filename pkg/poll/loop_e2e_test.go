package poll_test

import (
	"testing"
	"time"

	"github.com/aretw0/vizkit/pkg/adapters/memory"
	"github.com/aretw0/vizkit/pkg/codec"
	"github.com/aretw0/vizkit/pkg/domain"
	"github.com/aretw0/vizkit/pkg/poll"
	"github.com/aretw0/vizkit/pkg/proxy"
	"github.com/aretw0/vizkit/pkg/registry"
	"github.com/aretw0/vizkit/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCodec(t *testing.T) *codec.Codec {
	t.Helper()
	kit := codec.NewTypekit()
	require.NoError(t, kit.Register(codec.TypeDef{
		Name: "/Sample",
		Kind: codec.KindRecord,
		Fields: []codec.FieldDef{
			{Name: "a", Type: "int32"},
			{Name: "b", Type: "[int32]"},
		},
	}))
	return codec.New(kit)
}

func TestE2E_TimePortEditAndApply(t *testing.T) {
	c := codec.New(nil)
	reg := registry.New()
	task := proxy.NewTask("T", reg, proxy.WithCodec(c))
	r := task.Port("p").Reader()
	w := task.Port("p").Writer()

	assert.False(t, task.Reachable())
	assert.False(t, r.Valid())

	l := poll.New()
	registration, err := l.Register("T.p", poll.NewPortSource(r, w))
	require.NoError(t, err)

	rep, err := l.Tick(t0)
	require.NoError(t, err)
	assert.Equal(t, []string{"T.p"}, rep.Missed)

	live := memory.NewTask("T")
	p := live.AddPort("p", "/base/Time", domain.DirectionInput)
	reg.Use(live)
	require.True(t, task.Reachable())
	require.True(t, r.Valid())

	at := time.UnixMicro(1_767_225_600_000_000)
	raw, err := c.Encode(value.Scalar("/base/Time", at))
	require.NoError(t, err)
	p.Emit(raw)

	rep, err = l.Tick(t0.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, []string{"T.p"}, rep.Sampled)

	m := registration.Model()
	require.Equal(t, 1, m.Len())
	leaf := m.Root()
	require.True(t, leaf.IsLeaf())
	assert.True(t, at.Equal(leaf.Value().Interface().(time.Time)))

	edited := at.Add(90 * time.Minute)
	require.NoError(t, m.Edit(leaf, value.Scalar("/base/Time", edited)))

	commit := l.OnApply()
	require.True(t, commit.OK())
	assert.Equal(t, 1, commit.Written)

	writes := p.Writes()
	require.Len(t, writes, 1, "exactly one write through the writer binding")
	written, err := c.Decode(writes[0], "/base/Time")
	require.NoError(t, err)
	assert.True(t, edited.Equal(written.Interface().(time.Time)))
	assert.False(t, leaf.Dirty())

	_, err = l.Tick(t0.Add(2 * time.Second))
	require.NoError(t, err)
	assert.Same(t, leaf, m.Root())
	assert.True(t, edited.Equal(leaf.Value().Interface().(time.Time)), "read-back shows the written value")
}

func TestE2E_ReaderSurvivesTaskRestart(t *testing.T) {
	c := codec.New(nil)
	reg := registry.New()
	r := proxy.NewTask("T", reg, proxy.WithCodec(c)).Port("p").Reader()
	l := poll.New()
	_, err := l.Register("T.p", poll.NewPortSource(r, nil))
	require.NoError(t, err)

	emit := func(task *memory.Task, n int) {
		raw, err := c.Encode(value.Scalar("int32", n))
		require.NoError(t, err)
		port, _ := task.LocalPort("p")
		port.Emit(raw)
	}

	first := memory.NewTask("T")
	first.AddPort("p", "int32", domain.DirectionOutput)
	reg.Use(first)
	require.True(t, r.Valid())
	emit(first, 1)
	rep, _ := l.Tick(t0)
	assert.Equal(t, []string{"T.p"}, rep.Sampled)

	reg.Remove("T")
	rep, _ = l.Tick(t0.Add(time.Second))
	assert.Equal(t, []string{"T.p"}, rep.Missed)
	assert.Equal(t, domain.BindingInvalid, r.State())

	second := memory.NewTask("T")
	second.AddPort("p", "int32", domain.DirectionOutput)
	reg.Use(second)
	require.True(t, r.Valid())
	emit(second, 2)
	rep, _ = l.Tick(t0.Add(2 * time.Second))
	assert.Equal(t, []string{"T.p"}, rep.Sampled)

	reg0, _ := l.Registration("T.p")
	assert.Equal(t, int64(2), reg0.Model().Root().Value().Interface())
}

func TestE2E_RecordArrayGrowth(t *testing.T) {
	c := sampleCodec(t)
	reg := registry.New()
	live := memory.NewTask("T")
	p := live.AddPort("s", "/Sample", domain.DirectionOutput)
	reg.Use(live)

	r := proxy.NewTask("T", reg, proxy.WithCodec(c)).Port("s").Reader()
	l := poll.New()
	registration, err := l.Register("T.s", poll.NewPortSource(r, nil))
	require.NoError(t, err)
	require.True(t, r.Valid())

	emit := func(v value.Value) {
		raw, err := c.Encode(v)
		require.NoError(t, err)
		p.Emit(raw)
	}

	emit(sample(1, 10, 20))
	_, err = l.Tick(t0)
	require.NoError(t, err)

	m := registration.Model()
	a, b, b0, b1 := node(t, m, "a"), node(t, m, "b"), node(t, m, "b[0]"), node(t, m, "b[1]")
	assert.Equal(t, int64(1), a.Value().Interface())
	assert.Equal(t, 2, b.NumChildren())
	assert.Equal(t, int64(10), b0.Value().Interface())
	assert.Equal(t, int64(20), b1.Value().Interface())

	emit(sample(1, 10, 20, 30))
	rep, err := l.Tick(t0.Add(time.Second))
	require.NoError(t, err)

	changes := rep.Changes["T.s"]
	require.Len(t, changes.Added, 1)
	assert.Equal(t, "b[2]", changes.Added[0].Path().String())
	assert.Equal(t, int64(30), changes.Added[0].Value().Interface())
	assert.Empty(t, changes.Updated)
	assert.Empty(t, changes.Removed)

	assert.Same(t, a, node(t, m, "a"))
	assert.Same(t, b, node(t, m, "b"))
	assert.Same(t, b0, node(t, m, "b[0]"))
	assert.Same(t, b1, node(t, m, "b[1]"))
}

func TestE2E_EditedLeavesComposeIntoOneSample(t *testing.T) {
	c := sampleCodec(t)
	reg := registry.New()
	live := memory.NewTask("T")
	p := live.AddPort("s", "/Sample", domain.DirectionInput)
	reg.Use(live)

	port := proxy.NewTask("T", reg, proxy.WithCodec(c)).Port("s")
	r := port.Reader()
	l := poll.New()
	registration, _ := l.Register("T.s", poll.NewPortSource(r, port.Writer()))
	require.True(t, r.Valid())

	raw, err := c.Encode(sample(1, 10, 20))
	require.NoError(t, err)
	p.Emit(raw)
	_, err = l.Tick(t0)
	require.NoError(t, err)

	m := registration.Model()
	require.NoError(t, m.Edit(node(t, m, "a"), i32(2)))
	require.NoError(t, m.Edit(node(t, m, "b[1]"), i32(21)))

	rep := l.OnApply()
	require.True(t, rep.OK())
	assert.Equal(t, 2, rep.Written)

	writes := p.Writes()
	require.Len(t, writes, 2)
	last, err := c.Decode(writes[1], "/Sample")
	require.NoError(t, err)
	assert.True(t, sample(2, 10, 21).Equal(last), "got %s", last)
}

func TestE2E_TaskInspector(t *testing.T) {
	c := codec.New(nil)
	reg := registry.New()
	live := memory.NewTask("arm")
	live.AddPort("joint", "int32", domain.DirectionOutput)
	gainRaw, err := c.Encode(value.Scalar("double", 0.5))
	require.NoError(t, err)
	gain := live.AddProperty("gain", "double", gainRaw)
	reg.Use(live)

	l := poll.New()
	registration, _ := l.Register("arm", poll.NewTaskSource(proxy.NewTask("arm", reg, proxy.WithCodec(c))))
	_, err = l.Tick(t0)
	require.NoError(t, err)

	m := registration.Model()
	assert.Equal(t, "RUNNING", node(t, m, "state").Value().Interface())
	assert.Equal(t, "int32", node(t, m, "ports.joint").Value().Interface())
	assert.Equal(t, 0.5, node(t, m, "properties.gain").Value().Interface())

	require.NoError(t, m.Edit(node(t, m, "properties.gain"), value.Scalar("double", 0.75)))
	require.NoError(t, m.Edit(node(t, m, "state"), value.Scalar("string", "STOPPED")))

	rep := l.OnApply()
	assert.Equal(t, 1, rep.Written)
	require.Len(t, rep.Failed, 1)
	assert.ErrorIs(t, rep.Failed[0], domain.ErrNotEditable)
	assert.Equal(t, 1, gain.Writes())

	l.OnCancel()
	_, err = l.Tick(t0.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 0.75, node(t, m, "properties.gain").Value().Interface())
	assert.Equal(t, "RUNNING", node(t, m, "state").Value().Interface())

	reg.Remove("arm")
	rep2, err := l.Tick(t0.Add(2 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, []string{"arm"}, rep2.Missed)
}
