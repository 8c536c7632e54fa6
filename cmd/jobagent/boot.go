package main

import (
	"context"
	"fmt"
	"log/slog"

	"jobagent/internal/config"
	"jobagent/internal/db"
	"jobagent/internal/history"
	"jobagent/internal/jobsearch"
	"jobagent/internal/trace"
)

// app is a bootstrapped assistant plus the resources it holds.
type app struct {
	cfg       *config.Config
	assistant *jobsearch.Assistant
	history   *history.Store
	closers   []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// boot loads the config, opens history (when a db path is set) and
// bootstraps the assistant. channel tags new sessions.
func boot(ctx context.Context, channel string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	// Fail on a missing credential before touching the database or network.
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}

	shutdown, err := trace.Init(ctx, trace.Config{
		Endpoint: cfg.Trace.Endpoint,
		URLPath:  cfg.Trace.URLPath,
		APIKey:   cfg.Trace.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("initialising tracing: %w", err)
	}
	a.closers = append(a.closers, func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Warn("trace shutdown", "error", err)
		}
	})

	opts := []jobsearch.Option{jobsearch.WithVersion(version)}
	if cfg.DB.Path != "" {
		database, err := db.Open(ctx, cfg.DB.Path)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("opening database: %w", err)
		}
		a.closers = append(a.closers, func() { database.Close() })

		if err := database.Migrate(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("migrating database: %w", err)
		}
		a.history = history.NewStore(database, channel)
		opts = append(opts, jobsearch.WithHistory(a.history))
	}

	assistant, err := jobsearch.Bootstrap(ctx, cfg, opts...)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.assistant = assistant
	a.closers = append(a.closers, func() {
		if err := assistant.Close(); err != nil {
			slog.Warn("closing assistant", "error", err)
		}
	})
	return a, nil
}
