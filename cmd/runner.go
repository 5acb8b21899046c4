package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/seatx/internal/repositories"
	"github.com/desertthunder/seatx/internal/services"
	"github.com/desertthunder/seatx/internal/shared"
	"github.com/desertthunder/seatx/internal/tasks"
	"github.com/urfave/cli/v3"
)

const defaultConfigPath = "config.toml"

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	api        *services.APIService
	seats      services.SeatFinder
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	db      *sql.DB
	history *repositories.SearchRepository
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	API        *services.APIService
	Seats      services.SeatFinder
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.API.Timeout()}
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		api:        opts.API,
		seats:      opts.Seats,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
	r.connect()
	return r
}

// connect builds the backend clients that were not injected.
func (r *Runner) connect() {
	if r.api == nil {
		r.api = services.NewAPIService(r.config.API.BaseURL, r.httpClient)
		if ua := r.config.API.UserAgent; ua != "" {
			r.api.WithUserAgent(ua)
		}
	}
	if r.seats == nil {
		r.seats = services.NewSeatService(r.api, r.logger)
	}
}

// SetLogger replaces the logger and rebuilds clients that captured the old one.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
	if _, ok := r.seats.(*services.SeatService); ok {
		r.seats = services.NewSeatService(r.api, l)
	}
}

// register returns the full command tree.
func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		searchCommand, watchCommand, progressCommand, sessionCommand, exportCommand,
		healthCommand, historyCommand, batchCommand, tuiCommand, stubCommand, setupCommand, apiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// app returns the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "seatx",
		Usage:   "Find SRM exam seat assignments from the terminal",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   defaultConfigPath,
			},
			&cli.StringFlag{
				Name:  "api-url",
				Usage: "Backend base URL (overrides config and SEATX_API_URL)",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Only log errors",
			},
		},
		Before:   r.configure,
		Commands: r.register(),
	}
}

// configure loads the config file named by --config, applies environment overrides and sets the log level.
//
// A missing config file leaves the defaults in place.
func (r *Runner) configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	switch {
	case cmd.Bool("verbose"):
		shared.SetLogLevel(r.logger, log.DebugLevel)
	case cmd.Bool("quiet"):
		shared.SetLogLevel(r.logger, log.ErrorLevel)
	}

	path := cmd.String("config")
	if _, err := os.Stat(path); err == nil {
		config, err := shared.LoadConfig(path)
		if err != nil {
			return ctx, err
		}
		r.config = config
		r.configPath = path
		r.api, r.seats = nil, nil
		r.logger.Debug("loaded config", "path", path)
	} else if cmd.IsSet("config") {
		r.configPath = path
		r.logger.Warn("config file not found, using defaults", "path", path)
	}

	if err := r.config.ApplyEnv(); err != nil {
		return ctx, err
	}
	if url := cmd.String("api-url"); url != "" {
		r.config.API.BaseURL = url
		r.api, r.seats = nil, nil
	}
	if r.api == nil {
		r.httpClient.Timeout = r.config.API.Timeout()
	}

	r.connect()
	return ctx, nil
}

// openHistory opens the search history database, running pending migrations.
func (r *Runner) openHistory() (*repositories.SearchRepository, error) {
	if r.history != nil {
		return r.history, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	r.db = db
	r.history = repositories.NewSearchRepository(db)
	return r.history, nil
}

// Close releases the history database when it was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db, r.history = nil, nil
	return err
}

// newFinder builds a [tasks.Finder] from the poller config. History is recorded when record is set;
// a database that cannot be opened only disables recording.
func (r *Runner) newFinder(record bool) *tasks.Finder {
	opts := tasks.FinderOpts{
		Poller: tasks.PollerOpts{
			Interval:       r.config.Poller.Interval(),
			MaxErrors:      r.config.Poller.MaxErrors,
			RequestTimeout: r.config.Poller.RequestTimeout(),
		},
		Logger: r.logger,
	}

	if record {
		if repo, err := r.openHistory(); err != nil {
			r.logger.Warn("search history disabled", "err", err)
		} else {
			opts.History = repositories.NewHistoryAdapter(repo)
		}
	}
	return tasks.NewFinder(r.seats, opts)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
