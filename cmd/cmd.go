// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
			Sources: cli.EnvVars("FOXHOLE_CONFIG"),
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable debug logging",
		},
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file, storage directory and database",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "rollback",
				Usage: "Revert the most recent database migration",
			},
		},
		Action: r.Setup,
	}
}

// authCommand handles YouTube credentials
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage YouTube API credentials",
		Commands: []*cli.Command{
			{
				Name:  "set-credentials",
				Usage: "Store a Google OAuth client secrets file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the client secrets JSON downloaded from the Google Cloud console",
						Required: true,
					},
				},
				Action: r.AuthSetCredentials,
			},
			{
				Name:   "login",
				Usage:  "Authorize foxhole to manage your YouTube playlists",
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show which credentials are configured",
				Action: r.AuthStatus,
			},
		},
	}
}

func updateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "update",
		Usage: "Append newly published videos to existing playlists",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "days",
				Usage: "Only check channels with a video published in the last N days (default from config)",
			},
			&cli.StringSliceFlag{
				Name:  "channel-ids",
				Usage: "Check exactly these channels, ignoring the recency window",
			},
		},
		Action: r.Update,
	}
}

func createCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create playlists for channels that do not have one yet",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "channel-ids",
				Usage:    "Channels to create playlists for",
				Required: true,
			},
		},
		Action: r.Create,
	}
}

func discoverCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "discover",
		Usage: "Search for channels posting reaction videos",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "max-results",
				Usage: "Maximum number of new channels to find (default from config)",
			},
			&cli.StringSliceFlag{
				Name:  "additional-query",
				Usage: "Extra search terms appended to the configured query",
			},
			&cli.BoolFlag{
				Name:  "create",
				Usage: "Create playlists for the channels found",
			},
		},
		Action: r.Discover,
	}
}

func channelsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "channels",
		Usage: "List cached channels and their playlists",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, csv, markdown or json",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to a file instead of stdout",
			},
		},
		Action: r.Channels,
	}
}

func rejectCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "reject",
		Usage: "Exclude a video from every playlist",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "video-id",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "reason",
				Usage: "Why the video is rejected",
			},
			&cli.BoolFlag{
				Name:  "list",
				Usage: "List rejected videos",
			},
			&cli.BoolFlag{
				Name:  "remove",
				Usage: "Remove the video from the rejected list",
			},
		},
		Action: r.Reject,
	}
}

func runsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "Show recent update and create runs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Number of runs to show",
				Value: 10,
			},
			&cli.StringFlag{
				Name:  "id",
				Usage: "Show a single run",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output JSON",
			},
		},
		Action: r.Runs,
	}
}
