// Copyright 2026 © The HRBot Authors
// SPDX-License-Identifier: Apache-2.0

// Command hrbot runs the HR assistant: an HTTP chat endpoint backed by
// an LLM agent over the employee database.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/seritra/hrbot/pkg/agent"
	"github.com/seritra/hrbot/pkg/chat"
	"github.com/seritra/hrbot/pkg/config"
	"github.com/seritra/hrbot/pkg/llm"
	hrbotmcp "github.com/seritra/hrbot/pkg/mcp"
	"github.com/seritra/hrbot/pkg/resilience"
	"github.com/seritra/hrbot/pkg/store"
	"github.com/seritra/hrbot/pkg/telemetry"
	"github.com/seritra/hrbot/providers/gemini"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx, os.Args[2:])
	case "mcp":
		err = runMCP(ctx, os.Args[2:])
	case "seed":
		err = runSeed(ctx, os.Args[2:])
	case "version":
		fmt.Println("hrbot", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(2)
	}
	if err != nil {
		fatal(err)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: hrbot <command> [flags]

Commands:
  serve     Run the HTTP chat server
  mcp       Expose HR operations over MCP stdio for one employee
  seed      Load a YAML fixture into the database
  version   Print the version

Run 'hrbot <command> -h' for command flags.`)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "hrbot:", err)
	os.Exit(1)
}

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := telemetry.ConfigureSlog(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	shutdown, err := telemetry.InitWithConfig("hrbot", version, telemetry.Config{
		Exporter:     cfg.Telemetry.Exporter,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure: cfg.Telemetry.OTLPInsecure,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown", "error", err)
		}
	}()

	st, closeDB, err := openStore(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer closeDB()

	provider, closeProvider, err := newProvider(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeProvider()

	metrics, err := telemetry.NewExchangeMetrics()
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	registry := agent.NewRegistry()
	executor := agent.NewExecutor(st)
	assistant := agent.New(provider, registry, executor,
		agent.WithModel(cfg.LLM.Model),
		agent.WithTemperature(cfg.Agent.Temperature),
		agent.WithRetry(resilience.DefaultRetryConfig().WithMaxAttempts(cfg.Agent.MaxAttempts)),
		agent.WithTimeout(cfg.Agent.RoundTimeout),
		agent.WithMetrics(metrics),
		agent.WithLogger(logger),
	)
	sessions := agent.NewSessionCache(cfg.Agent.SessionTTL)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           chat.NewServer(st, assistant, sessions, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("chat server listening", "addr", cfg.Server.Addr, "provider", cfg.LLM.Provider)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func runMCP(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config file")
	employeeID := fs.Int64("employee", 0, "employee id to act as (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *employeeID == 0 {
		return errors.New("the -employee flag is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	// MCP speaks on stdout; keep logs on stderr.
	slog.SetDefault(telemetry.ConfigureSlog(os.Stderr, cfg.Log.Level, cfg.Log.Format))

	st, closeDB, err := openStore(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer closeDB()

	emp, err := st.GetEmployee(ctx, *employeeID)
	if err != nil {
		return fmt.Errorf("load employee %d: %w", *employeeID, err)
	}

	srv, err := hrbotmcp.NewServer("hrbot", version, agent.NewRegistry(), agent.NewExecutor(st), emp)
	if err != nil {
		return err
	}
	return srv.ServeStdio()
}

func runSeed(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config file")
	fixturePath := fs.String("fixture", "", "path to YAML fixture file (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *fixturePath == "" {
		return errors.New("the -fixture flag is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, closeDB, err := openStore(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer closeDB()

	fixture, err := store.LoadFixture(*fixturePath)
	if err != nil {
		return err
	}
	if err := st.Seed(ctx, fixture); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	fmt.Printf("seeded %d departments and %d employees into %s\n",
		len(fixture.Departments), len(fixture.Employees), cfg.DB.Path)
	return nil
}

func openStore(path string) (*store.Store, func(), error) {
	db, err := store.Open(path)
	if err != nil {
		return nil, nil, err
	}
	st, err := store.New(db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("init store: %w", err)
	}
	return st, func() { db.Close() }, nil
}

func newProvider(ctx context.Context, cfg *config.Config) (llm.Provider, func(), error) {
	switch cfg.LLM.Provider {
	case "gemini":
		var (
			p   *gemini.Provider
			err error
		)
		if cfg.LLM.APIKey != "" {
			p, err = gemini.NewWithAPIKey(ctx, cfg.LLM.APIKey, gemini.WithModel(cfg.LLM.Model))
		} else {
			p, err = gemini.New(ctx, gemini.WithModel(cfg.LLM.Model))
		}
		if err != nil {
			return nil, nil, fmt.Errorf("init gemini provider: %w", err)
		}
		return p, func() { p.Close() }, nil
	case "mock":
		return &llm.MockProvider{Response: "mock provider is configured; no model is attached"}, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown llm provider: %q", cfg.LLM.Provider)
	}
}
