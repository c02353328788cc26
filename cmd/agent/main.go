package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/petasbytes/coder-agent/agent"
	"github.com/petasbytes/coder-agent/internal/config"
	"github.com/petasbytes/coder-agent/internal/httpserver"
	"github.com/petasbytes/coder-agent/internal/logging"
	"github.com/petasbytes/coder-agent/internal/provider"
	"github.com/petasbytes/coder-agent/internal/telemetry"
	"github.com/spf13/pflag"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	log, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(2)
	}

	// Basic env check (SDK also reads API key)
	if cfg.Provider.Name == provider.NameAnthropic && os.Getenv("ANTHROPIC_API_KEY") == "" {
		fmt.Println("Missing ANTHROPIC_API_KEY; export it before running.")
		os.Exit(1)
	}

	telemetry.Configure(telemetry.Config{Observe: cfg.Telemetry.ObserveJSON, Dir: cfg.Telemetry.Dir})

	gen, err := provider.New(provider.Config{
		Name:      cfg.Provider.Name,
		Model:     cfg.Provider.Model,
		MaxTokens: cfg.Provider.MaxTokens,
		BaseURL:   cfg.Provider.BaseURL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("provider")
	}

	// The REPL gets its own conversation unless one is pinned, so separate
	// processes never share the "default" history.
	historyID := cfg.Agent.HistoryID
	if historyID == "" {
		historyID = uuid.NewString()
	}

	opts := []agent.Option{agent.WithLogger(log), agent.WithDefaultHistoryID(historyID)}
	if cfg.Agent.SystemInstruction != "" {
		opts = append(opts, agent.WithSystemInstruction(cfg.Agent.SystemInstruction))
	}
	if cfg.Agent.LenientRoles {
		opts = append(opts, agent.WithLenientRoles())
	}
	mgr := agent.New(cfg.Agent.Name, gen, opts...)

	// Set up graceful shutdown on Ctrl-C (SIGINT) / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.HTTP.Addr != "" {
		srv, err := httpserver.New(httpserver.Config{
			Logger: log,
			Addr:   cfg.HTTP.Addr,
			Mode:   cfg.HTTP.Mode,
			Turns:  mgr,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("http server")
		}
		if err := srv.Run(ctx); err != nil {
			log.Fatal().Err(err).Msg("http server")
		}
		return
	}

	r := &repl{mgr: mgr, historyID: historyID, in: os.Stdin, out: os.Stdout, errOut: os.Stderr}
	if err := r.run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "warning: stdin read error: %v\n", err)
	}
	if cfg.Agent.Transcript != "" {
		if err := r.export(context.Background(), cfg.Agent.Transcript); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to save transcript: %v\n", err)
		}
	}
}
