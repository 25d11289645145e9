package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/personaforge/internal/api"
	"github.com/kalambet/personaforge/internal/config"
	"github.com/kalambet/personaforge/internal/gemini"
	"github.com/kalambet/personaforge/internal/generator"
	"github.com/kalambet/personaforge/internal/session"
)

const sweepInterval = 5 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the personaforge server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "personaforge version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize structured logging.
	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Build the generation pipeline.
	llm, err := gemini.NewClient(ctx, cfg.Gemini)
	if err != nil {
		return fmt.Errorf("creating Gemini client: %w", err)
	}
	gen := generator.New(llm, cfg.Generator.MinPersonas, cfg.Generator.MaxPersonas)
	sessions := session.NewManager()

	handler := api.NewHandler(api.Deps{Sessions: sessions, Generator: gen})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// MCP server on stdio alongside HTTP.
	mcpSrv := api.NewMCPServer(api.MCPDeps{Generator: gen})
	stdioSrv := server.NewStdioServer(mcpSrv)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		fmt.Fprintf(os.Stderr, "personaforge listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := stdioSrv.Listen(gctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("MCP stdio server error", "error", err)
		}
		return nil
	})
	slog.Info("MCP server started (stdio transport)")

	g.Go(func() error {
		sessions.Sweep(gctx, sweepInterval, cfg.Generator.SessionTTL)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		fmt.Fprintln(os.Stderr, "shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
