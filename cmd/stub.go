package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/seatx/internal/server"
	"github.com/urfave/cli/v3"
)

// Stub runs the local seat-lookup backend until the context is cancelled.
func (r *Runner) Stub(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Stub
	cache := r.config.Cache

	if cmd.IsSet("roster") {
		cfg.RosterPath = cmd.String("roster")
	}
	if cmd.IsSet("immediate") {
		cfg.Immediate = cmd.Bool("immediate")
	}
	if cmd.IsSet("redis") {
		cache.RedisAddr = cmd.String("redis")
	}

	opts := server.StubOpts{
		ProgressDuration: cfg.Progress(),
		RegisterDelay:    cfg.RegisterDelay(),
		Immediate:        cfg.Immediate,
		Logger:           r.logger,
	}
	if cmd.IsSet("progress") {
		opts.ProgressDuration = cmd.Duration("progress")
	}
	if cmd.IsSet("register-delay") {
		opts.RegisterDelay = cmd.Duration("register-delay")
	}

	roster, err := server.LoadRoster(cfg.RosterPath)
	if err != nil {
		return err
	}

	store := server.NewSessionStore(ctx, cache, r.logger)
	stub := server.NewStub(store, roster, opts)

	addr := r.config.Server.Addr()
	if cmd.IsSet("addr") {
		addr = cmd.String("addr")
	}

	r.writePlain("Stub backend listening on http://%s (%s sessions, %d roster entries)\n", addr, store.Kind(), len(roster.Seats))
	if err := stub.ListenAndServe(ctx, addr); err != nil {
		return fmt.Errorf("stub server failed: %w", err)
	}
	r.logger.Info("stub backend stopped")
	return nil
}
