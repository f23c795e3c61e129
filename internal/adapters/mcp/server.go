// Package mcp exposes an Inspector to agents as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/vizkit"
	"github.com/aretw0/vizkit/internal/logging"
	"github.com/aretw0/vizkit/internal/presentation/treeview"
	"github.com/aretw0/vizkit/pkg/poll"
	"github.com/aretw0/vizkit/pkg/tree"
	"github.com/aretw0/vizkit/pkg/value"
)

// Inspector is the subset of vizkit.Inspector offered as tools.
type Inspector interface {
	Trees() []vizkit.TreeSummary
	Tree(name string) (tree.NodeView, error)
	Edit(name string, path value.Path, input any) error
	Apply() poll.CommitReport
	Cancel()
	PendingEdits() bool
}

// TreeList is the output of list_trees.
type TreeList struct {
	Trees   []vizkit.TreeSummary `json:"trees" jsonschema_description:"Watched trees"`
	Pending bool                 `json:"pending" jsonschema_description:"Whether uncommitted edits exist"`
}

// EditArgs are the arguments of edit_node.
type EditArgs struct {
	Tree  string `json:"tree"`
	Path  string `json:"path"`
	Value string `json:"value"`
}

// EditResult is the output of edit_node and cancel_edits.
type EditResult struct {
	Pending bool `json:"pending" jsonschema_description:"Whether uncommitted edits remain"`
}

// CommitResult is the output of apply_edits.
type CommitResult struct {
	Written int      `json:"written" jsonschema_description:"Leaves written"`
	Failed  []string `json:"failed" jsonschema_description:"Leaves that stay pending, with the reason"`
}

// Server wraps an Inspector as an MCP server.
type Server struct {
	inspector Inspector
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(inspector Inspector, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		inspector: inspector,
		mcpServer: server.NewMCPServer("vizkit-mcp", strings.TrimSpace(vizkit.Version)),
		logger:    logger,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://localhost" + addr
	if !strings.HasPrefix(addr, ":") {
		baseURL = "http://" + addr
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_trees",
		mcp.WithDescription("List the watched trees with their size and dirty node count."),
		mcp.WithOutputSchema[TreeList](),
	), mcp.NewStructuredToolHandler(s.handleListTrees))

	s.mcpServer.AddTool(mcp.NewTool("get_tree",
		mcp.WithDescription("Get the current contents of a tree. Dirty nodes hold pending edits."),
		mcp.WithString("tree", mcp.Required(), mcp.Description("Tree name from list_trees")),
		mcp.WithString("format", mcp.Description("'json' (default) or 'markdown'")),
	), s.handleGetTree)

	s.mcpServer.AddTool(mcp.NewTool("edit_node",
		mcp.WithDescription("Stage a new value for a scalar node. Nothing is written until apply_edits."),
		mcp.WithString("tree", mcp.Required(), mcp.Description("Tree name")),
		mcp.WithString("path", mcp.Required(), mcp.Description("Node path such as pose.x or items[2].name; empty for the root")),
		mcp.WithString("value", mcp.Required(), mcp.Description("New value, parsed against the node's type")),
		mcp.WithOutputSchema[EditResult](),
	), mcp.NewStructuredToolHandler(s.handleEditNode))

	s.mcpServer.AddTool(mcp.NewTool("apply_edits",
		mcp.WithDescription("Write every staged edit to its task."),
		mcp.WithOutputSchema[CommitResult](),
	), mcp.NewStructuredToolHandler(s.handleApply))

	s.mcpServer.AddTool(mcp.NewTool("cancel_edits",
		mcp.WithDescription("Drop every staged edit. Trees show live values again on the next poll."),
		mcp.WithOutputSchema[EditResult](),
	), mcp.NewStructuredToolHandler(s.handleCancel))
}

func (s *Server) handleListTrees(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (TreeList, error) {
	return TreeList{Trees: s.inspector.Trees(), Pending: s.inspector.PendingEdits()}, nil
}

func (s *Server) handleGetTree(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.GetString("tree", "")
	view, err := s.inspector.Tree(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if request.GetString("format", "json") == "markdown" {
		return mcp.NewToolResultText(treeview.Markdown(name, view)), nil
	}
	jsonBytes, err := json.Marshal(view)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleEditNode(ctx context.Context, request mcp.CallToolRequest, args EditArgs) (EditResult, error) {
	if args.Tree == "" {
		return EditResult{}, errors.New("tree is required")
	}
	path, err := value.ParsePath(args.Path)
	if err != nil {
		return EditResult{}, err
	}
	if err := s.inspector.Edit(args.Tree, path, args.Value); err != nil {
		s.logger.Warn("MCP edit rejected", "tree", args.Tree, "path", args.Path, "err", err)
		return EditResult{}, fmt.Errorf("edit failed: %w", err)
	}
	return EditResult{Pending: true}, nil
}

func (s *Server) handleApply(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (CommitResult, error) {
	rep := s.inspector.Apply()
	out := CommitResult{Written: rep.Written, Failed: []string{}}
	for _, f := range rep.Failed {
		out.Failed = append(out.Failed, fmt.Sprintf("%s/%s: %v", f.Registration, f.Path.String(), f.Err))
	}
	return out, nil
}

func (s *Server) handleCancel(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (EditResult, error) {
	s.inspector.Cancel()
	return EditResult{Pending: s.inspector.PendingEdits()}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("vizkit://trees", "Watched Trees",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.inspector.Trees())
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "vizkit://trees",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
