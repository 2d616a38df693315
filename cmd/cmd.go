// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// userFlag selects the ListenBrainz account, defaulting to the configured one.
func userFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "user",
		Aliases: []string{"u"},
		Usage:   "ListenBrainz username (defaults to configured username)",
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Create a config.toml from the embedded template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// syncCommand runs the coordinated listens and likes sync.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Sync listen history and likes from ListenBrainz",
		Flags: []cli.Flag{
			userFlag(),
			&cli.IntFlag{
				Name:  "max-listens",
				Usage: "Stop after committing this many listens (0 = use configured cap)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the run summary as JSON",
			},
		},
		Action: r.Sync,
	}
}

// likesCommand refreshes only the liked-recordings snapshot.
func likesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "likes",
		Usage: "Liked recordings operations",
		Commands: []*cli.Command{
			{
				Name:  "sync",
				Usage: "Replace the local likes snapshot with a fresh full copy",
				Flags: []cli.Flag{
					userFlag(),
				},
				Action: r.LikesSync,
			},
			{
				Name:  "list",
				Usage: "Print the liked recording MBIDs in the local snapshot",
				Flags: []cli.Flag{
					userFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.LikesList,
			},
		},
	}
}

// archiveCommand inspects and exports the local archive.
func archiveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "archive",
		Usage: "Local archive operations",
		Commands: []*cli.Command{
			{
				Name:  "status",
				Usage: "Show archive size, checkpoint, and staging state",
				Flags: []cli.Flag{
					userFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.ArchiveStatus,
			},
			{
				Name:  "listens",
				Usage: "Print the most recent archived listens",
				Flags: []cli.Flag{
					userFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of listens to print",
						Value: 25,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.ArchiveListens,
			},
			{
				Name:  "export",
				Usage: "Export the archive to CSV, Markdown, or plain text",
				Flags: []cli.Flag{
					userFlag(),
					&cli.StringFlag{
						Name:  "format",
						Usage: "Export format: csv, markdown, or text",
						Value: "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (defaults derive from the username)",
					},
				},
				Action: r.ArchiveExport,
			},
		},
	}
}

// usersCommand manages known ListenBrainz accounts.
func usersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "Manage known ListenBrainz accounts",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List registered users and their archive stats",
				Action: r.UsersList,
			},
			{
				Name:  "add",
				Usage: "Register a user and optional API token",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "username"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "token",
						Usage: "ListenBrainz API token for this user",
					},
				},
				Action: r.UsersAdd,
			},
			{
				Name:  "remove",
				Usage: "Remove a registered user (the archive stays on disk)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "username"},
				},
				Action: r.UsersRemove,
			},
		},
	}
}

// runsCommand lists recorded sync runs.
func runsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "Sync run history",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recorded sync runs, newest first",
				Flags: []cli.Flag{
					userFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to list",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.RunsList,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive syncing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for archive syncing",
		Action:  r.TUI,
	}
}
