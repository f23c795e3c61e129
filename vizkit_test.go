package vizkit_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/vizkit"
	"github.com/aretw0/vizkit/pkg/adapters/memory"
	"github.com/aretw0/vizkit/pkg/codec"
	"github.com/aretw0/vizkit/pkg/domain"
	"github.com/aretw0/vizkit/pkg/observability"
	"github.com/aretw0/vizkit/pkg/registry"
	"github.com/aretw0/vizkit/pkg/value"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*vizkit.Inspector, *memory.Task, *codec.Codec) {
	t.Helper()
	c := codec.New(nil)
	reg := registry.New()
	arm := memory.NewTask("arm")
	arm.AddPort("speed", "double", domain.DirectionInput)
	gain, err := c.Encode(value.Scalar("double", 0.5))
	require.NoError(t, err)
	arm.AddProperty("gain", "double", gain)
	reg.Use(arm)
	return vizkit.New(reg, vizkit.WithCodec(c)), arm, c
}

func emit(t *testing.T, c *codec.Codec, task *memory.Task, port string, v value.Value) {
	t.Helper()
	raw, err := c.Encode(v)
	require.NoError(t, err)
	p, ok := task.LocalPort(port)
	require.True(t, ok)
	p.Emit(raw)
}

// sampleAfterBind ticks once so the speed reader binds, emits v and ticks again.
func sampleAfterBind(t *testing.T, insp *vizkit.Inspector, c *codec.Codec, arm *memory.Task, v value.Value) {
	t.Helper()
	now := time.Now()
	_, err := insp.Tick(now)
	require.NoError(t, err)
	emit(t, c, arm, "speed", v)
	_, err = insp.Tick(now.Add(time.Second))
	require.NoError(t, err)
}

func TestInspector_WatchEditApply(t *testing.T) {
	insp, arm, c := setup(t)
	require.NoError(t, insp.Watch(vizkit.Watch{Task: "arm", Port: "speed"}))
	assert.Error(t, insp.Watch(vizkit.Watch{Task: "arm", Port: "speed"}), "duplicate names are refused")
	assert.Error(t, insp.Watch(vizkit.Watch{Task: "arm"}))

	_, err := insp.Tree("arm.speed")
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	_, err = insp.Tree("nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	sampleAfterBind(t, insp, c, arm, value.Scalar("double", 1.0))

	view, err := insp.Tree("arm.speed")
	require.NoError(t, err)
	assert.Equal(t, 1.0, view.Value)

	require.NoError(t, insp.Edit("arm.speed", nil, "2.5"))
	assert.True(t, insp.PendingEdits())
	assert.ErrorIs(t, insp.Edit("arm.speed", value.Path{"x"}, "1"), domain.ErrNotFound)

	rep := insp.Apply()
	require.True(t, rep.OK())
	assert.Equal(t, 1, rep.Written)
	assert.False(t, insp.PendingEdits())

	port, _ := arm.LocalPort("speed")
	require.Len(t, port.Writes(), 1)
	got, err := c.Decode(port.Writes()[0], "double")
	require.NoError(t, err)
	assert.Equal(t, 2.5, got.Interface())
}

func TestInspector_WatchTaskAndCancel(t *testing.T) {
	insp, _, _ := setup(t)
	require.NoError(t, insp.WatchTask("", "arm", time.Millisecond))

	_, err := insp.Tick(time.Now())
	require.NoError(t, err)
	path, _ := value.ParsePath("properties.gain")
	require.NoError(t, insp.Edit("arm", path, 0.9))
	require.NoError(t, insp.SetExpanded("arm", path, true))

	trees := insp.Trees()
	require.Len(t, trees, 1)
	assert.Equal(t, "arm", trees[0].Name)
	assert.Equal(t, "task", trees[0].Kind)
	assert.Equal(t, 1, trees[0].Dirty)

	insp.Cancel()
	_, err = insp.Tick(time.Now().Add(time.Second))
	require.NoError(t, err)
	view, err := insp.Tree("arm")
	require.NoError(t, err)
	props := view.Children[1]
	assert.Equal(t, "properties", props.Key)
	assert.Equal(t, 0.5, props.Children[0].Value)
	assert.True(t, props.Children[0].Expanded)

	assert.True(t, insp.Unwatch("arm"))
	assert.Empty(t, insp.Trees())
}

func TestInspector_RunAndMetrics(t *testing.T) {
	c := codec.New(nil)
	reg := registry.New()
	metrics, err := observability.NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	insp := vizkit.New(reg, vizkit.WithCodec(c), vizkit.WithMetrics(metrics), vizkit.WithInterval(time.Millisecond))
	require.NoError(t, insp.Watch(vizkit.Watch{Name: "ghost", Task: "ghost", Port: "p", ReadOnly: true}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = insp.Run(ctx, 5*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.GreaterOrEqual(t, testutil.ToFloat64(metrics.Misses.WithLabelValues("ghost")), 2.0)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(metrics.TickDuration), 1)
}

func TestInspector_EditSanitizesText(t *testing.T) {
	insp, arm, c := setup(t)
	require.NoError(t, insp.Watch(vizkit.Watch{Task: "arm", Port: "speed"}))
	sampleAfterBind(t, insp, c, arm, value.Scalar("double", 1.0))

	assert.ErrorIs(t, insp.Edit("arm.speed", nil, strings.Repeat("1", value.DefaultMaxInputSize+1)), value.ErrInputTooLarge)
	assert.False(t, insp.PendingEdits())

	require.NoError(t, insp.Edit("arm.speed", nil, "3\x00.5"))
	view, err := insp.Tree("arm.speed")
	require.NoError(t, err)
	assert.Equal(t, 3.5, view.Value)
	assert.True(t, view.Dirty)
}

func TestInspector_EditRejectsOutOfRange(t *testing.T) {
	c := codec.New(nil)
	reg := registry.New()
	servo := memory.NewTask("servo")
	servo.AddPort("trim", "int8", domain.DirectionInput)
	reg.Use(servo)
	insp := vizkit.New(reg, vizkit.WithCodec(c))
	require.NoError(t, insp.Watch(vizkit.Watch{Task: "servo", Port: "trim"}))

	now := time.Now()
	_, err := insp.Tick(now)
	require.NoError(t, err)
	emit(t, c, servo, "trim", value.Scalar("int8", int8(3)))
	_, err = insp.Tick(now.Add(time.Second))
	require.NoError(t, err)

	for _, input := range []any{"1000", float64(-129), 1e30, "99999999999999999999"} {
		assert.ErrorIs(t, insp.Edit("servo.trim", nil, input), value.ErrOutOfRange, "%v", input)
	}
	assert.False(t, insp.PendingEdits())

	require.NoError(t, insp.Edit("servo.trim", nil, "-128"))
	view, err := insp.Tree("servo.trim")
	require.NoError(t, err)
	assert.Equal(t, int64(-128), view.Value)
}
