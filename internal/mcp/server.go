// Package mcp exposes the assembly engine as an MCP tool over stdio.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/mvp-joe/ctxpack/internal/config"
	"github.com/mvp-joe/ctxpack/internal/engine"
	"github.com/mvp-joe/ctxpack/internal/git"
	"github.com/mvp-joe/ctxpack/internal/source"
)

// ErrInvalidRequest is returned when tool overrides produce an invalid configuration.
var ErrInvalidRequest = errors.New("invalid request")

// Runner runs the engine for tool calls, one at a time.
type Runner struct {
	root   string
	cfg    *config.Config
	git    git.Operations
	reader source.Reader
	mu     sync.Mutex
}

// NewRunner creates a runner for root. reader is shared across calls so
// unchanged files are served from cache.
func NewRunner(root string, cfg *config.Config, gitOps git.Operations, reader source.Reader) *Runner {
	return &Runner{
		root:   root,
		cfg:    cfg,
		git:    gitOps,
		reader: reader,
	}
}

// Run applies req to the base configuration and runs the engine.
func (r *Runner) Run(ctx context.Context, req AssembleRequest) (*engine.Result, error) {
	cfg := req.apply(r.cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return engine.New(cfg, r.git, r.reader).Run(ctx, r.root)
}

// MCPServer manages the MCP server lifecycle.
type MCPServer struct {
	runner *Runner
	mcp    *server.MCPServer
}

// NewMCPServer creates an MCP server exposing ctxpack_assemble.
func NewMCPServer(runner *Runner, version string) *MCPServer {
	mcpServer := server.NewMCPServer(
		"ctxpack",
		version,
		server.WithToolCapabilities(true),
	)

	AddAssembleTool(mcpServer, runner)

	return &MCPServer{
		runner: runner,
		mcp:    mcpServer,
	}
}

// Serve starts the MCP server on stdio and blocks until shutdown.
func (s *MCPServer) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting MCP server on stdio for %s...", s.runner.root)
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-sigCh:
		log.Printf("Received shutdown signal, stopping gracefully...")
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
