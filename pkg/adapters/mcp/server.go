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

	"github.com/aretw0/storyboard"
	"github.com/aretw0/storyboard/internal/logging"
	"github.com/aretw0/storyboard/internal/presentation/graph"
	"github.com/aretw0/storyboard/internal/runtime"
	"github.com/aretw0/storyboard/pkg/domain"
	"github.com/aretw0/storyboard/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// PlayResponse is the structured result of every play tool.
type PlayResponse struct {
	Snapshot domain.Snapshot `json:"snapshot" jsonschema_description:"The view of the current node"`
	Rejected string          `json:"rejected,omitempty" jsonschema_description:"Why the operation was rejected; state is unchanged"`
}

// Server exposes storyboard play sessions as MCP tools.
type Server struct {
	player    *storyboard.Player
	sessions  *session.Manager
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithSessionManager sets the manager serialising mutations per act.
func WithSessionManager(m *session.Manager) Option {
	return func(s *Server) {
		s.sessions = m
	}
}

// NewServer creates a new MCP Server instance. Scenarios are loaded on every
// call so edits to the documents are picked up without a restart.
func NewServer(player *storyboard.Player, opts ...Option) *Server {
	s := &Server{
		player:    player,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("storyboard-mcp", strings.TrimSpace(storyboard.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sessions == nil {
		s.sessions = session.NewManager(session.WithLogger(s.logger))
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is canceled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
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

func scenarioParams() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("scenario", mcp.Required(), mcp.Description("Scenario id")),
		mcp.WithString("act", mcp.Description("Act id; the entry act when omitted")),
		mcp.WithOutputSchema[PlayResponse](),
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_scenarios",
		mcp.WithDescription("List the scenarios available to play."),
	), s.handleListScenarios)

	s.mcpServer.AddTool(mcp.NewTool("snapshot",
		append([]mcp.ToolOption{mcp.WithDescription("Show the current node of a scenario act, resuming saved progress.")}, scenarioParams()...)...,
	), mcp.NewStructuredToolHandler(s.handleSnapshot))

	s.mcpServer.AddTool(mcp.NewTool("advance",
		append([]mcp.ToolOption{mcp.WithDescription("Move past the current line or goto node.")}, scenarioParams()...)...,
	), mcp.NewStructuredToolHandler(s.handleAdvance))

	s.mcpServer.AddTool(mcp.NewTool("choose",
		append([]mcp.ToolOption{
			mcp.WithDescription("Pick an option of the current choice node."),
			mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero-based choice index")),
		}, scenarioParams()...)...,
	), mcp.NewStructuredToolHandler(s.handleChoose))

	s.mcpServer.AddTool(mcp.NewTool("goto",
		append([]mcp.ToolOption{
			mcp.WithDescription("Jump to any node of the scenario."),
			mcp.WithString("node_id", mcp.Required(), mcp.Description("Target node id")),
		}, scenarioParams()...)...,
	), mcp.NewStructuredToolHandler(s.handleGoto))

	s.mcpServer.AddTool(mcp.NewTool("reset_act",
		append([]mcp.ToolOption{mcp.WithDescription("Restart the act from its first node with the meters it started with.")}, scenarioParams()...)...,
	), mcp.NewStructuredToolHandler(s.handleResetAct))

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the compiled graph of a scenario for introspection."),
		mcp.WithString("scenario", mcp.Required(), mcp.Description("Scenario id")),
		mcp.WithString("format", mcp.Description("json (default) or mermaid")),
	), s.handleGetGraph)
}

func (s *Server) handleListScenarios(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	refs, err := s.player.Index(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("index failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(refs)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleGetGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := request.GetString("scenario", "")
	sc, err := s.player.Load(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if request.GetString("format", "json") == "mermaid" {
		return mcp.NewToolResultText(graph.GenerateMermaid(sc.Graph, nil)), nil
	}
	jsonBytes, _ := json.Marshal(map[string]any{"graph": sc.Graph, "warnings": sc.Warnings})
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

type playOp func(ctx context.Context, sess *storyboard.Session) (domain.Snapshot, error)

// play loads the scenario, opens a session on the requested act under the
// scenario lock and applies op. Rejected operations are reported in the response
// rather than as tool errors.
func (s *Server) play(ctx context.Context, args map[string]interface{}, op playOp) (PlayResponse, error) {
	id, _ := args["scenario"].(string)
	act, _ := args["act"].(string)
	if id == "" {
		return PlayResponse{}, errors.New("scenario is required")
	}

	sc, err := s.player.Load(ctx, id)
	if err != nil {
		return PlayResponse{}, err
	}

	var resp PlayResponse
	err = s.sessions.WithScenario(ctx, sc.ID, func(ctx context.Context) error {
		sess, err := s.player.Play(ctx, sc, act)
		if err != nil {
			return err
		}
		snap, opErr := op(ctx, sess)
		resp.Snapshot = snap

		var invalid *runtime.InvalidOperationError
		if errors.As(opErr, &invalid) {
			resp.Rejected = invalid.Error()
			return nil
		}
		return opErr
	})
	return resp, err
}

func (s *Server) handleSnapshot(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (PlayResponse, error) {
	return s.play(ctx, args, func(ctx context.Context, sess *storyboard.Session) (domain.Snapshot, error) {
		return sess.Snapshot(ctx), nil
	})
}

func (s *Server) handleAdvance(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (PlayResponse, error) {
	return s.play(ctx, args, func(ctx context.Context, sess *storyboard.Session) (domain.Snapshot, error) {
		return sess.Advance(ctx)
	})
}

func (s *Server) handleChoose(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (PlayResponse, error) {
	index, ok := args["index"].(float64)
	if !ok {
		return PlayResponse{}, errors.New("index must be a number")
	}
	return s.play(ctx, args, func(ctx context.Context, sess *storyboard.Session) (domain.Snapshot, error) {
		return sess.Choose(ctx, int(index))
	})
}

func (s *Server) handleGoto(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (PlayResponse, error) {
	nodeID, _ := args["node_id"].(string)
	return s.play(ctx, args, func(ctx context.Context, sess *storyboard.Session) (domain.Snapshot, error) {
		return sess.Goto(ctx, nodeID)
	})
}

func (s *Server) handleResetAct(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (PlayResponse, error) {
	return s.play(ctx, args, func(ctx context.Context, sess *storyboard.Session) (domain.Snapshot, error) {
		return sess.ResetAct(ctx), nil
	})
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("storyboard://scenarios", "Available Scenarios",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		refs, err := s.player.Index(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to index scenarios: %w", err)
		}
		jsonBytes, _ := json.Marshal(refs)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "storyboard://scenarios",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
