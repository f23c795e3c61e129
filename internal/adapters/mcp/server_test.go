package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/vizkit"
	"github.com/aretw0/vizkit/pkg/adapters/memory"
	"github.com/aretw0/vizkit/pkg/codec"
	"github.com/aretw0/vizkit/pkg/domain"
	"github.com/aretw0/vizkit/pkg/registry"
	"github.com/aretw0/vizkit/pkg/tree"
	"github.com/aretw0/vizkit/pkg/value"
)

func newTestServer(t *testing.T) (*Server, *memory.Port) {
	t.Helper()
	c := codec.New(nil)
	arm := memory.NewTask("arm")
	speed := arm.AddPort("speed", "double", domain.DirectionInput)
	reg := registry.New()
	reg.Use(arm)

	insp := vizkit.New(reg, vizkit.WithCodec(c))
	require.NoError(t, insp.Watch(vizkit.Watch{Task: "arm", Port: "speed"}))
	now := time.Now()
	_, err := insp.Tick(now)
	require.NoError(t, err)
	raw, err := c.Encode(value.Scalar("double", 1.0))
	require.NoError(t, err)
	speed.Emit(raw)
	_, err = insp.Tick(now.Add(time.Second))
	require.NoError(t, err)

	return NewServer(insp, nil), speed
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestListTrees(t *testing.T) {
	s, _ := newTestServer(t)
	out, err := s.handleListTrees(context.Background(), callRequest(nil), nil)
	require.NoError(t, err)
	require.Len(t, out.Trees, 1)
	assert.Equal(t, "arm.speed", out.Trees[0].Name)
	assert.False(t, out.Pending)
}

func TestGetTree(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleGetTree(ctx, callRequest(map[string]any{"tree": "arm.speed"}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	var view tree.NodeView
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &view))
	assert.Equal(t, 1.0, view.Value)

	res, err = s.handleGetTree(ctx, callRequest(map[string]any{"tree": "arm.speed", "format": "markdown"}))
	require.NoError(t, err)
	assert.Contains(t, text(t, res), "## arm.speed")

	res, err = s.handleGetTree(ctx, callRequest(map[string]any{"tree": "nope"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestEditApplyCancel(t *testing.T) {
	s, speed := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleEditNode(ctx, callRequest(nil), EditArgs{Tree: "arm.speed", Value: "fast"})
	assert.Error(t, err)
	_, err = s.handleEditNode(ctx, callRequest(nil), EditArgs{Tree: "arm.speed", Path: "a[", Value: "1"})
	assert.Error(t, err)

	out, err := s.handleEditNode(ctx, callRequest(nil), EditArgs{Tree: "arm.speed", Value: "4"})
	require.NoError(t, err)
	assert.True(t, out.Pending)

	cancelled, err := s.handleCancel(ctx, callRequest(nil), nil)
	require.NoError(t, err)
	assert.False(t, cancelled.Pending)
	assert.Empty(t, speed.Writes())

	_, err = s.handleEditNode(ctx, callRequest(nil), EditArgs{Tree: "arm.speed", Value: "4"})
	require.NoError(t, err)
	applied, err := s.handleApply(ctx, callRequest(nil), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, applied.Written)
	assert.Empty(t, applied.Failed)
	assert.Len(t, speed.Writes(), 1)
}

func TestEditNode_ThroughToolHandler(t *testing.T) {
	s, _ := newTestServer(t)
	handler := mcp.NewStructuredToolHandler(s.handleEditNode)

	res, err := handler(context.Background(), callRequest(map[string]any{"tree": "arm.speed", "path": "", "value": "2"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	res, err = handler(context.Background(), callRequest(map[string]any{"tree": "missing", "path": "", "value": "2"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
