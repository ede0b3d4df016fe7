// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// serveCommand runs the web service
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web service and browser client",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the browser client once the server is listening",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand initializes local state
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and database",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write an example configuration file",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "keys",
						Usage: "Print freshly generated session cookie keys",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Create the SQLite database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Flags:  []cli.Flag{configFlag()},
				Action: r.RollbackDatabase,
			},
		},
	}
}

// analyzeCommand runs image analysis from the terminal
func analyzeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Analyze an image and optionally suggest songs",
		ArgsUsage: "<image>",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "image",
			},
		},
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:    "recommend",
				Aliases: []string{"r"},
				Usage:   "Ask the language model for song recommendations",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the report to a file (.md, .csv, .json or .txt)",
			},
		},
		Action: r.Analyze,
	}
}

// colorCommand names a color
func colorCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "color",
		Usage:     "Name a color given as <r> <g> <b> or #rrggbb",
		ArgsUsage: "<r> <g> <b> | <#rrggbb>",
		Action:    r.Color,
	}
}

// sessionsCommand manages stored sessions
func sessionsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "Manage sessions in the SQLite store",
		Commands: []*cli.Command{
			{
				Name:  "prune",
				Usage: "Delete sessions not updated within the given age",
				Flags: []cli.Flag{
					configFlag(),
					&cli.DurationFlag{
						Name:  "older-than",
						Usage: "Minimum age of deleted sessions",
						Value: 30 * 24 * time.Hour,
					},
				},
				Action: r.PruneSessions,
			},
		},
	}
}
