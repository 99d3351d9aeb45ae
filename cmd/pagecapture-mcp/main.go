// Package main serves the pagecapture tools to MCP clients over stdio.
//
// Stdout carries the protocol, so all diagnostics go to the session log
// file (or stderr when no log directory is available).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/entrhq/pagecapture/pkg/app"
	appconfig "github.com/entrhq/pagecapture/pkg/config"
	"github.com/entrhq/pagecapture/pkg/logging"
	"github.com/entrhq/pagecapture/pkg/mcpserver"
)

const (
	version = "0.1.0"

	// How often idle Playwright sessions are reaped
	janitorInterval = time.Minute
)

func main() {
	configFile := flag.String("config", "", "Path to the JSON settings file (default ~/.pagecapture/config.json)")
	engine := flag.String("engine", "", "Browser engine: playwright or rod")
	workspace := flag.String("workspace", "", "Confine destinations to this directory")
	controlURL := flag.String("control-url", "", "DevTools URL of a running Chrome to attach to (rod engine)")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("pagecapture-mcp v%s\n", version)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger, _ := logging.NewLogger("mcp")
	defer logger.Close()
	logger.Infof("pagecapture-mcp v%s session %s (log: %s)", version, logger.SessionID(), logger.LogPath())

	if err := run(ctx, logger, *configFile, *engine, *workspace, *controlURL); err != nil {
		logger.Errorf("server error: %v", err)
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *logging.Logger, configFile, engine, workspace, controlURL string) error {
	if err := appconfig.Initialize(configFile); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	opts := app.OptionsFromConfig()
	if engine != "" {
		opts.Browser.Engine = engine
	}
	if workspace != "" {
		opts.WorkspaceDir = workspace
	}
	opts.ControlURL = controlURL

	a, err := app.New(ctx, opts, logger)
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warnf("failed to close browser: %v", err)
		}
	}()

	a.StartJanitor(ctx, janitorInterval)

	s, err := mcpserver.New(a.Registry, version, logger.With("mcp-tools"))
	if err != nil {
		return err
	}

	logger.Infof("serving %d tools over stdio", len(a.Registry.List()))

	errCh := make(chan error, 1)
	go func() { errCh <- server.ServeStdio(s) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}
}
