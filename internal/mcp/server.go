// Package mcp serves the tool registry over the Model Context Protocol.
//
// Protocol handling (JSON-RPC framing, version negotiation, the stdio
// transport) comes from mcp-go; this package binds each registry tool to
// it and shapes results. Logs must never go to the output stream.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/reyhansunduk/efatura-mcp-server/internal/tools"
)

// Server answers MCP requests against a tool registry
type Server struct {
	registry *tools.Registry
	name     string
	version  string
	log      *zap.Logger

	mcp *server.MCPServer
}

// Option configures the server
type Option func(*Server)

// WithLogger sets the logger. It must not write to the protocol output.
func WithLogger(log *zap.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// WithServerInfo sets the name and version reported by initialize
func WithServerInfo(name, version string) Option {
	return func(s *Server) {
		s.name = name
		s.version = version
	}
}

// NewServer creates a server exposing every tool of registry
func NewServer(registry *tools.Registry, opts ...Option) (*Server, error) {
	s := &Server{
		registry: registry,
		name:     "efatura-mcp-server",
		version:  "dev",
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = server.NewMCPServer(s.name, s.version,
		server.WithToolCapabilities(false),
		server.WithInstructions(instructions(string(registry.Mode()))),
		server.WithHooks(s.hooks()),
		server.WithRecovery(),
	)

	for _, tool := range registry.Tools() {
		schema, err := json.Marshal(tool.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s input schema: %w", tool.Name, err)
		}
		s.mcp.AddTool(mcp.NewToolWithRawSchema(tool.Name, tool.Description, schema), s.callTool(tool.Name))
	}
	return s, nil
}

func (s *Server) hooks() *server.Hooks {
	hooks := &server.Hooks{}
	hooks.AddAfterInitialize(func(ctx context.Context, id any, req *mcp.InitializeRequest, res *mcp.InitializeResult) {
		s.log.Info("MCP client connected",
			zap.String("client", req.Params.ClientInfo.Name),
			zap.String("client_version", req.Params.ClientInfo.Version),
			zap.String("protocol_version", res.ProtocolVersion),
		)
	})
	hooks.AddOnError(func(ctx context.Context, id any, method mcp.MCPMethod, message any, err error) {
		s.log.Debug("MCP request rejected", zap.String("method", string(method)), zap.Error(err))
	})
	return hooks
}

// Serve speaks MCP over newline-delimited JSON on in and out until EOF or
// ctx is done. Cancellation is a clean shutdown. Tool calls run one at a
// time in arrival order; other requests are answered as they are read.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(zap.NewStdLog(s.log))
	// One worker keeps tool calls in arrival order.
	server.WithWorkerPoolSize(1)(stdio)

	s.log.Info("MCP stdio server ready", zap.String("mode", string(s.registry.Mode())))
	err := stdio.Listen(ctx, in, out)
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("mcp stdio: %w", err)
	}
	s.log.Info("MCP stdio input closed")
	return nil
}

// Handle processes one raw message and returns the encoded response,
// or nil when the message gets none.
func (s *Server) Handle(ctx context.Context, raw []byte) []byte {
	resp := s.mcp.HandleMessage(ctx, raw)
	if resp == nil {
		return nil
	}
	data, err := json.Marshal(resp)
	if err != nil {
		s.log.Error("failed to encode MCP response", zap.Error(err))
		return nil
	}
	return data
}

func instructions(mode string) string {
	if mode == "demo" {
		return "Turkish e-Fatura tools running in demo mode against 5 sample invoices. " +
			"Configure GIB_USERNAME and GIB_PASSWORD to reach the GİB e-Arşiv service."
	}
	return "Turkish e-Fatura tools connected to the GİB e-Arşiv " + mode + " environment."
}

// callTool adapts a registry tool. Tool failures are results with IsError
// set, never protocol errors.
func (s *Server) callTool(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args json.RawMessage
		if raw := req.GetRawArguments(); raw != nil {
			encoded, err := json.Marshal(raw)
			if err != nil {
				return nil, fmt.Errorf("failed to re-encode %s arguments: %w", name, err)
			}
			args = encoded
		}

		res, err := s.registry.Call(ctx, name, args)
		if err != nil {
			return nil, err
		}

		return &mcp.CallToolResult{
			Content:           []mcp.Content{mcp.NewTextContent(res.Text)},
			StructuredContent: res.Data,
			IsError:           res.IsError(),
		}, nil
	}
}
