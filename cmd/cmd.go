// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func sessionFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "session",
		Aliases: []string{"s"},
		Usage:   "Session whose tokens and transfer status are used",
		Value:   DefaultSession,
	}
}

// setupCommand handles setup operations for the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
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

// serveCommand starts the HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the MelodyMind HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Interface to bind (overrides server.host)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on (overrides server.port)",
			},
		},
		Action: r.Serve,
	}
}

// ingestCommand fetches, chunks and embeds the lyrics of one song.
func ingestCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "ingest",
		Usage: "Add a song's lyrics to the lyric store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "artist",
				Aliases:  []string{"a"},
				Usage:    "Artist name",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "title",
				Aliases:  []string{"t"},
				Usage:    "Song title",
				Required: true,
			},
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "Fetch and embed again, replacing stored chunks",
			},
		},
		Action: r.Ingest,
	}
}

// quizCommand prepares a trivia quiz for a playlist.
func quizCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "quiz",
		Usage: "Generate a lyrics trivia quiz from a Spotify playlist",
		Flags: []cli.Flag{
			sessionFlag(),
			&cli.StringFlag{
				Name:     "playlist",
				Aliases:  []string{"p"},
				Usage:    "Spotify playlist ID",
				Required: true,
			},
			&cli.IntFlag{
				Name:    "questions",
				Aliases: []string{"n"},
				Usage:   "Number of questions (overrides quiz.questions)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: json, csv, markdown, txt",
				Value:   "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path, or directory for markdown with cover art",
			},
			&cli.BoolFlag{
				Name:  "print",
				Usage: "Write the quiz to stdout instead of a file",
			},
		},
		Action: r.Quiz,
	}
}

// transferCommand handles playlist transfer operations
func transferCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "transfer",
		Usage: "Transfer playlists from Spotify to YouTube Music",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Copy a Spotify playlist into a new YouTube Music playlist",
				Flags: []cli.Flag{
					sessionFlag(),
					&cli.StringFlag{
						Name:     "playlist",
						Aliases:  []string{"p"},
						Usage:    "Spotify playlist ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Title of the new YouTube Music playlist",
						Required: true,
					},
				},
				Action: r.TransferRun,
			},
			{
				Name:  "status",
				Usage: "Show the transfer status of a session",
				Flags: []cli.Flag{
					sessionFlag(),
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.TransferStatus,
			},
			{
				Name:  "history",
				Usage: "List recorded transfers",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "session",
						Usage: "Only show transfers of this session",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of transfers to list",
						Value: 20,
					},
				},
				Action: r.TransferHistory,
			},
		},
	}
}

// authCommand handles OAuth logins
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:   "google",
				Usage:  "Authorize YouTube Music through Google OAuth",
				Flags:  []cli.Flag{sessionFlag()},
				Action: r.AuthGoogle,
			},
			{
				Name:   "spotify",
				Usage:  "Authorize Spotify",
				Flags:  []cli.Flag{sessionFlag()},
				Action: r.AuthSpotify,
			},
		},
	}
}
