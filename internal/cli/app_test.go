package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/vizkit/internal/config"
	"github.com/aretw0/vizkit/pkg/adapters/redis"
	"github.com/aretw0/vizkit/pkg/domain"
	"github.com/aretw0/vizkit/pkg/proxy"
	"github.com/aretw0/vizkit/pkg/value"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vizkit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestNewApp_Demo(t *testing.T) {
	t.Setenv(config.EnvPath, "")
	app, err := NewApp(Options{Demo: true})
	require.NoError(t, err)
	defer app.Close()

	names := []string{}
	for _, s := range app.Inspector.Trees() {
		names = append(names, s.Name)
	}
	assert.ElementsMatch(t, []string{"demo", "demo.pose", "demo.status", "demo.setpoint"}, names)

	require.NoError(t, app.Snapshot(time.Now()))
	view, err := app.Inspector.Tree("demo.status")
	require.NoError(t, err)
	assert.Equal(t, "/demo/Status", view.Type)

	view, err = app.Inspector.Tree("demo.setpoint")
	require.NoError(t, err)
	assert.Equal(t, 1.0, view.Value)
}

func TestNewApp_DemoSetpointEdit(t *testing.T) {
	t.Setenv(config.EnvPath, "")
	app, err := NewApp(Options{Demo: true})
	require.NoError(t, err)
	now := time.Now()
	require.NoError(t, app.Snapshot(now))

	require.NoError(t, app.Inspector.Edit("demo.setpoint", nil, "0"))
	rep := app.Inspector.Apply()
	require.True(t, rep.OK())

	require.NoError(t, app.demo.Step(now.Add(time.Second)))
	_, err = app.Inspector.Tick(now.Add(2 * app.Config.Interval))
	require.NoError(t, err)

	view, err := app.Inspector.Tree("demo.status")
	require.NoError(t, err)
	mode := view.Children[0]
	assert.Equal(t, "mode", mode.Key)
	assert.Equal(t, "idle", mode.Value)
}

func TestNewApp_PortProxy(t *testing.T) {
	t.Setenv(config.EnvPath, "")
	app, err := NewApp(Options{Demo: true, ConfigPath: writeConfig(t, "port_proxy: bridge\n")})
	require.NoError(t, err)
	defer app.Close()

	require.NotNil(t, app.Bridge)
	bound, ok := app.Policy.Get(proxy.RolePortProxy)
	require.True(t, ok)
	assert.Equal(t, "bridge", bound.Name())

	require.NoError(t, app.Snapshot(time.Now()))
	_, ok = app.Bridge.Port("demo.pose")
	assert.True(t, ok, "demo readers attach through the bridge")
	assert.Equal(t, 3, app.Bridge.Upstreams(), "one upstream reader per demo port")

	view, err := app.Inspector.Tree("demo.setpoint")
	require.NoError(t, err)
	assert.Equal(t, 1.0, view.Value)
}

func TestNewApp_ConfigErrors(t *testing.T) {
	_, err := NewApp(Options{ConfigPath: writeConfig(t, "log_level: loud\n")})
	assert.Error(t, err)

	_, err = NewApp(Options{ConfigPath: writeConfig(t, "types: /does/not/exist.yaml\n")})
	assert.Error(t, err)

	_, err = NewApp(Options{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}

func TestNewApp_Redis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	path := writeConfig(t, fmt.Sprintf(`
interval: 100ms
metrics: true
redis:
  addr: %s
watch:
  - task: arm
    port: speed
  - task: arm
`, mr.Addr()))
	app, err := NewApp(Options{ConfigPath: path})
	require.NoError(t, err)
	defer app.Close()
	require.NotNil(t, app.Remote)
	require.NotNil(t, app.Gatherer)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	pub := redis.NewPublisher(client)
	ctx := context.Background()
	_, err = pub.Announce(ctx, redis.TaskDescriptor{
		Name:  "arm",
		Ports: []redis.PortDescriptor{{Name: "speed", TypeName: "double", Direction: domain.DirectionOutput}},
	})
	require.NoError(t, err)

	now := time.Now()
	_, err = app.Inspector.Tick(now)
	require.NoError(t, err)
	raw, err := app.Codec.Encode(value.Scalar("double", 3.5))
	require.NoError(t, err)
	require.NoError(t, pub.PublishSample(ctx, "arm", "speed", raw))
	_, err = app.Inspector.Tick(now.Add(time.Second))
	require.NoError(t, err)

	view, err := app.Inspector.Tree("arm.speed")
	require.NoError(t, err)
	assert.Equal(t, 3.5, view.Value)

	view, err = app.Inspector.Tree("arm")
	require.NoError(t, err)
	assert.Equal(t, "/vizkit/Task", view.Type)

	families, err := app.Gatherer.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestInspect_Once(t *testing.T) {
	t.Setenv(config.EnvPath, "")
	app, err := NewApp(Options{Demo: true})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Inspect(context.Background(), app, &buf, InspectOptions{Once: true, All: true, Trees: []string{"demo.status"}}))
	out := buf.String()
	assert.Contains(t, out, "demo.status /demo/Status")
	assert.Contains(t, out, "mode: moving")
	assert.NotContains(t, out, "demo.pose")
}

func TestInspect_Cancelled(t *testing.T) {
	t.Setenv(config.EnvPath, "")
	app, err := NewApp(Options{Demo: true})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	require.NoError(t, Inspect(ctx, app, &buf, InspectOptions{}))
	assert.Contains(t, buf.String(), "demo.pose")
}
