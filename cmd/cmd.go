// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}
}

func outputFlag(usage string) cli.Flag {
	return &cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: usage}
}

func sessionArg() []cli.Argument {
	return []cli.Argument{&cli.StringArg{Name: "session-id"}}
}

// searchCommand submits a search and follows it to the end
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Aliases:   []string{"find"},
		Usage:     "Find exam seats for a roll number and date",
		ArgsUsage: "[roll-number] [date]",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "roll"},
			&cli.StringArg{Name: "date"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "roll",
				Aliases: []string{"r"},
				Usage:   "Student roll number",
			},
			&cli.StringFlag{
				Name:    "date",
				Aliases: []string{"d"},
				Usage:   "Exam date (YYYY-MM-DD or DD/MM/YYYY)",
			},
			&cli.BoolFlag{
				Name:  "keep-sessions",
				Usage: "Do not clear previous backend sessions before submitting",
			},
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Do not record the search in the history database",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Also save results as csv, markdown, txt or json",
			},
			outputFlag("Path for --format output"),
			jsonFlag(),
		},
		Action: r.Search,
	}
}

// watchCommand follows an existing session
func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Poll an existing session until it finishes",
		ArgsUsage: "<session-id>",
		Arguments: sessionArg(),
		Flags:     []cli.Flag{jsonFlag()},
		Action:    r.Watch,
	}
}

// progressCommand performs a single progress request
func progressCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "progress",
		Usage:     "Fetch the current progress of a session once",
		ArgsUsage: "<session-id>",
		Arguments: sessionArg(),
		Flags:     []cli.Flag{jsonFlag()},
		Action:    r.Progress,
	}
}

// sessionCommand handles backend session housekeeping
func sessionCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "Manage backend search sessions",
		Commands: []*cli.Command{
			{
				Name:      "extend",
				Usage:     "Extend a session's lifetime",
				ArgsUsage: "<session-id>",
				Arguments: sessionArg(),
				Action:    r.SessionExtend,
			},
			{
				Name:   "clear",
				Usage:  "Drop every session held by the backend",
				Action: r.SessionClear,
			},
		},
	}
}

// exportCommand handles result exports
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the results of a completed session",
		Commands: []*cli.Command{
			{
				Name:      "options",
				Usage:     "List the export formats offered by the backend",
				ArgsUsage: "<session-id>",
				Arguments: sessionArg(),
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.ExportOptions,
			},
			{
				Name:      "pdf",
				Usage:     "Download the PDF document for a session",
				ArgsUsage: "<session-id>",
				Arguments: sessionArg(),
				Flags:     []cli.Flag{outputFlag("Output file path (default: exam_document_*.pdf)")},
				Action:    r.ExportPDF,
			},
			{
				Name:      "share",
				Usage:     "Open a WhatsApp share link for a session's results",
				ArgsUsage: "<session-id>",
				Arguments: sessionArg(),
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "print",
						Usage: "Print the link and message instead of opening a browser",
					},
				},
				Action: r.ExportShare,
			},
			{
				Name:      "file",
				Usage:     "Save a session's results to a local file",
				ArgsUsage: "<session-id>",
				Arguments: sessionArg(),
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "csv, markdown, txt or json",
						Value:   "csv",
					},
					outputFlag("Output file path (default: {registration}_seats.{ext})"),
				},
				Action: r.ExportFile,
			},
		},
	}
}

// healthCommand checks the backend
func healthCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "health",
		Usage:  "Check backend health and active sessions",
		Flags:  []cli.Flag{jsonFlag()},
		Action: r.Health,
	}
}

// historyCommand handles the local search history
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Browse recorded searches",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recorded searches, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "roll", Usage: "Filter by roll number"},
					&cli.StringFlag{Name: "date", Usage: "Filter by exam date"},
					&cli.StringFlag{Name: "status", Usage: "Filter by status (searching, completed, errored)"},
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of searches to show", Value: 20},
					jsonFlag(),
				},
				Action: r.HistoryList,
			},
			{
				Name:      "show",
				Usage:     "Show one recorded search",
				ArgsUsage: "<id>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.HistoryShow,
			},
			{
				Name:      "delete",
				Usage:     "Delete a recorded search",
				ArgsUsage: "<id>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.HistoryDelete,
			},
		},
	}
}

// batchCommand looks up many students at once
func batchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "batch",
		Usage:     "Look up seats for every roll,date row of a CSV file",
		ArgsUsage: "<file.csv>",
		Arguments: []cli.Argument{&cli.StringArg{Name: "file"}},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Concurrent sessions (max 10; default from config)",
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Searches submitted per second (default from config)",
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Write a CSV summary to this path",
			},
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Do not record searches in the history database",
			},
			jsonFlag(),
		},
		Action: r.Batch,
	}
}

// tuiCommand returns the top-level TUI command for interactive lookups.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive seat finder",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "roll", Aliases: []string{"r"}, Usage: "Prefill the roll number"},
			&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "Prefill the exam date"},
			&cli.StringFlag{Name: "output-dir", Usage: "Directory for exported files", Value: "."},
			&cli.StringFlag{Name: "log-file", Usage: "Log file used while the TUI owns the terminal", Value: "./tmp/seatx-tui.log"},
		},
		Action: r.TUI,
	}
}

// stubCommand runs the local backend
func stubCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "stub",
		Usage: "Run a local seat-lookup backend for development",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "Listen address (default from [server] config)"},
			&cli.StringFlag{Name: "roster", Usage: "TOML roster of seat assignments"},
			&cli.DurationFlag{Name: "progress", Usage: "Time for a search to complete"},
			&cli.DurationFlag{Name: "register-delay", Usage: "Time a new session answers 404 on progress"},
			&cli.BoolFlag{Name: "immediate", Usage: "Answer searches with results directly"},
			&cli.StringFlag{Name: "redis", Usage: "Redis address for sessions (empty keeps them in memory)"},
		},
		Action: r.Stub,
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write config.toml from the built-in template",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "status",
				Usage:  "Show applied database migrations",
				Action: r.SetupStatus,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// apiCommand handles direct backend calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the seat-lookup backend",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Direct GET, prints the response",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
			{
				Name:      "post",
				Usage:     "Direct POST with JSON body",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "data",
						Aliases: []string{"d"},
						Usage:   "JSON body to send",
						Value:   "{}",
					},
				},
				Action: r.APIPost,
			},
		},
	}
}
