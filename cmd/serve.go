package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/callhubmcp/callhubmcp/internal/config"
	"github.com/callhubmcp/callhubmcp/internal/container"
	"github.com/callhubmcp/callhubmcp/internal/tools"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdio",
	RunE:  runServe,
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	setupLogging(cfg.LogLevel)

	c, err := container.New(cfg)
	if err != nil {
		return fmt.Errorf("wire services: %w", err)
	}
	defer c.Close()

	if len(c.Resolver().List()) == 0 {
		fmt.Fprintln(os.Stderr, "warning: no CallHub credentials found in the environment")
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "callhub-mcp",
		Version: version,
	}, nil)
	tools.Register(server, c.Tools())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(gctx, &mcp.StdioTransport{}) })
	g.Go(func() error { return c.Scheduler().Start(gctx) })
	if addr := cfg.Activation.ProgressAddr; addr != "" {
		g.Go(func() error { return c.Broadcaster().Serve(gctx, addr) })
	}

	slog.Info("callhub-mcp serving on stdio", "accounts", len(c.Resolver().List()))

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
