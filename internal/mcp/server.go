// Package mcp exposes the extracted model over the Model Context Protocol so
// agents can query types and functions without reading the sources.
package mcp

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/typelink/internal/errors"
	"github.com/mvp-joe/typelink/internal/logger"
)

// Server serves the typelink tools on stdio.
type Server struct {
	state *State
	mcp   *server.MCPServer
}

// NewServer creates a server answering from state.
func NewServer(state *State, version string) *Server {
	mcpServer := server.NewMCPServer(
		"typelink",
		version,
		server.WithToolCapabilities(true),
	)

	AddLookupTool(mcpServer, state)
	AddListTool(mcpServer, state)
	AddCheckTool(mcpServer, state)

	return &Server{state: state, mcp: mcpServer}
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// Serve starts the MCP server on stdio and blocks until shutdown.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		logger.Logger.Info("Starting MCP server on stdio")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- errors.Wrap(err, "MCP server error")
		}
	}()

	select {
	case <-sigCh:
		logger.Logger.Info("Received shutdown signal, stopping gracefully")
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
