package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/seatx/internal/shared"
	"github.com/urfave/cli/v3"
)

// SessionExtend asks the backend to keep a session alive.
func (r *Runner) SessionExtend(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("session-id")
	if id == "" {
		return fmt.Errorf("%w: session ID is required", shared.ErrMissingArgument)
	}

	resp, err := r.seats.ExtendSession(ctx, id)
	if err != nil {
		return err
	}

	r.logger.Info("session extended", "session", id)
	return r.writePlain("✓ %s\n", firstNonEmpty(resp.Message, "Session extended"))
}

// SessionClear drops every backend session.
func (r *Runner) SessionClear(ctx context.Context, cmd *cli.Command) error {
	resp, err := r.seats.ClearSessions(ctx)
	if err != nil {
		return err
	}
	return r.writePlain("✓ %s\n", firstNonEmpty(resp.Message, "Sessions cleared"))
}

// Health reports backend status and the number of active sessions.
func (r *Runner) Health(ctx context.Context, cmd *cli.Command) error {
	status, err := r.seats.Health(ctx)
	if status == nil {
		return err
	}

	if cmd.Bool("json") {
		if werr := r.writeJSON(status, true); werr != nil {
			return werr
		}
		return err
	}

	mark := "✓"
	if !status.Healthy() {
		mark = "✗"
	}

	r.writePlain("%s %s (%s)\n", mark, status.Status, r.api.BaseURL())
	if status.Version != "" {
		r.writePlain("Version: %s\n", status.Version)
	}
	if status.Message != "" {
		r.writePlain("Message: %s\n", status.Message)
	}
	if status.Error != "" {
		r.writePlain("Error: %s\n", status.Error)
	}
	r.writePlain("Active sessions: %d (%s)\n", status.Sessions.Active, firstNonEmpty(status.Sessions.Storage, "unknown"))
	return err
}
