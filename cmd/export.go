package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/desertthunder/seatx/internal/formatter"
	"github.com/desertthunder/seatx/internal/models"
	"github.com/desertthunder/seatx/internal/shared"
	"github.com/urfave/cli/v3"
)

// ExportOptions lists the export formats the backend offers for a session.
func (r *Runner) ExportOptions(ctx context.Context, cmd *cli.Command) error {
	id, err := sessionID(cmd)
	if err != nil {
		return err
	}

	formats, err := r.seats.ExportOptions(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(formats, true)
	}

	r.writePlainHeader(fmt.Sprintf("Export options for %s", id))
	for _, f := range formats {
		kind := "download"
		if f.External {
			kind = "link"
		}
		r.writePlain("%s %-10s %s (%s)\n    %s\n", f.Icon, f.Type, f.Name, kind, f.URL)
	}
	return nil
}

// ExportPDF downloads the backend's PDF document for a session.
func (r *Runner) ExportPDF(ctx context.Context, cmd *cli.Command) error {
	id, err := sessionID(cmd)
	if err != nil {
		return err
	}

	format, err := r.exportFormat(ctx, id, "pdf")
	if err != nil {
		return err
	}

	path := cmd.String("output")
	if path == "" {
		results, _ := r.sessionResults(ctx, id)
		path = formatter.ExportFilename(results, "pdf", time.Now())
	}

	n, err := formatter.SaveDownload(path, func(w io.Writer) (int64, error) {
		return r.seats.DownloadExport(ctx, format.URL, w)
	})
	if err != nil {
		return err
	}

	r.logger.Info("pdf saved", "path", path, "bytes", n)
	return r.writePlain("✓ Saved %s (%d bytes)\n", path, n)
}

// ExportShare opens the WhatsApp share link for a session, or prints it with --print.
//
// The backend's link is used when offered; otherwise one is built from the session's results.
func (r *Runner) ExportShare(ctx context.Context, cmd *cli.Command) error {
	id, err := sessionID(cmd)
	if err != nil {
		return err
	}

	results, resultsErr := r.sessionResults(ctx, id)

	link := ""
	if format, err := r.exportFormat(ctx, id, "whatsapp"); err == nil {
		link = format.URL
	} else if resultsErr == nil {
		r.logger.Debug("building share link locally", "err", err)
		link = formatter.ShareURL(results)
	} else {
		return resultsErr
	}

	if cmd.Bool("print") {
		if resultsErr == nil {
			r.writePlain("%s\n", formatter.WhatsAppMessage(results))
		}
		return r.writePlain("%s\n", link)
	}

	if err := shared.OpenURL(link); err != nil {
		return fmt.Errorf("failed to open share link: %w", err)
	}
	return r.writePlain("✓ Opened share link in your browser\n")
}

// ExportFile renders a session's results to a local file.
func (r *Runner) ExportFile(ctx context.Context, cmd *cli.Command) error {
	id, err := sessionID(cmd)
	if err != nil {
		return err
	}

	results, err := r.sessionResults(ctx, id)
	if err != nil {
		return err
	}

	path, err := formatter.WriteExport(results, cmd.String("format"), cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Info("results exported", "path", path, "format", cmd.String("format"))
	return r.writePlain("✓ Saved %s\n", path)
}

// exportFormat finds the backend export format of the given type.
func (r *Runner) exportFormat(ctx context.Context, id, kind string) (models.ExportFormat, error) {
	formats, err := r.seats.ExportOptions(ctx, id)
	if err != nil {
		return models.ExportFormat{}, err
	}
	for _, f := range formats {
		if f.Type == kind {
			return f, nil
		}
	}
	return models.ExportFormat{}, fmt.Errorf("%w: backend offers no %s export", shared.ErrExportUnavailable, kind)
}

// sessionResults returns the seats of a completed session. Sessions the backend has forgotten
// are looked up in the search history.
func (r *Runner) sessionResults(ctx context.Context, id string) ([]models.SeatResult, error) {
	resp, err := r.seats.Progress(ctx, id)
	switch {
	case err == nil:
		if resp.Status == models.RemoteCompleted && len(resp.Results) > 0 {
			return resp.Results, nil
		}
		return nil, fmt.Errorf("%w: session %s is %s", shared.ErrExportUnavailable, id, resp.Status)

	case errors.Is(err, shared.ErrSessionNotFound):
		repo, herr := r.openHistory()
		if herr != nil {
			return nil, err
		}
		rec, herr := repo.GetBySessionID(id)
		if herr != nil {
			return nil, err
		}
		if rec.Status() != models.StatusCompleted || len(rec.Results()) == 0 {
			return nil, fmt.Errorf("%w: recorded search %s is %s", shared.ErrExportUnavailable, rec.ID(), rec.Status())
		}
		r.logger.Debug("using recorded results", "session", id, "record", rec.ID())
		return rec.Results(), nil

	default:
		return nil, err
	}
}

func sessionID(cmd *cli.Command) (string, error) {
	id := cmd.StringArg("session-id")
	if id == "" {
		return "", fmt.Errorf("%w: session ID is required", shared.ErrMissingArgument)
	}
	return id, nil
}
