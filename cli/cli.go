package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/clbarnes/ome-zarr-conformance/exitcodes"
)

const AppName = "ome-zarr-conformance"

// Published corpus versions tested when no --ome-zarr-version is given.
var defaultVersions = []string{"0.4", "0.5"}

type App struct {
	logger zerolog.Logger
	cli    *cli.App
}

func New() *App {

	// Set default log level to info
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger :=
		log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339Nano,
		})

	app := &App{
		logger: logger,
	}
	app.cli = &cli.App{
		Name:      AppName,
		Usage:     "Run an OME-Zarr metadata validator against the ngff conformance corpus",
		ArgsUsage: "<command>",
		Description: `Exercises an external OME-Zarr metadata validator against the versioned
ngff test corpus and reports pass/fail/error per test case.

The single positional argument is the full command line of the program
under test (quote it if it carries flags); it is split by POSIX shell-word
rules and invoked once per test case with the case's JSON payload appended
as the final argument. The program must print exactly one JSON object to
stdout: {"valid": <bool>, "message": <string-or-null>}.

One tab-separated line per test case is written to stdout:
<test_id>	<pass|fail|error>. Diagnostics go to stderr. The exit code is
0 when no error verdicts occurred (fail verdicts are the expected output
of a non-conformant implementation), 2 when any did.`,
		Authors: []*cli.Author{
			{Name: "Chris Barnes"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose (debug) logging",
			},
			&cli.StringSliceFlag{
				Name:    "ome-zarr-version",
				Aliases: []string{"o"},
				Usage:   "OME-Zarr version(s) to test; repeatable or comma-separated (default: all supported)",
			},
			&cli.GenericFlag{
				Name:    "include-pattern",
				Aliases: []string{"p"},
				Usage:   "Regular expression for test IDs to include; repeatable (default: include all)",
				Value:   &regexpList{},
			},
			&cli.GenericFlag{
				Name:    "exclude-pattern",
				Aliases: []string{"P"},
				Usage:   "Regular expression for test IDs to exclude; repeatable, applied after includes",
				Value:   &regexpList{},
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Aliases: []string{"t"},
				Usage:   "Per-case wall-clock limit for the program under test (0 disables)",
				Value:   30 * time.Second,
			},
			&cli.DurationFlag{
				Name:  "fetch-timeout",
				Usage: "Upper bound for one corpus download",
				Value: 60 * time.Second,
			},
			&cli.IntFlag{
				Name:    "parallel",
				Aliases: []string{"j"},
				Usage:   "Number of cases to run concurrently; output order is canonical regardless",
				Value:   1,
			},
			&cli.BoolFlag{
				Name:  "refresh",
				Usage: "Re-download the corpus even when a cached copy exists",
			},
			&cli.StringFlag{
				Name:  "cache-dir",
				Usage: "Override the corpus cache directory",
			},
			&cli.BoolFlag{
				Name:    "no-exit-code",
				Aliases: []string{"X"},
				Usage:   "Exit 0 even when error verdicts occurred (tooling failures still exit non-zero)",
			},
			&cli.BoolFlag{
				Name:  "summary",
				Usage: "Render a per-version summary table to stderr after the report",
			},
		},
		Before: func(ctx *cli.Context) error {
			if ctx.Bool("verbose") {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			return nil
		},
		Action: app.run,
	}
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:  "corpus",
		Usage: "Manage the local corpus cache",
		Subcommands: []*cli.Command{
			{
				Name:   "fetch",
				Usage:  "Download corpus archives into the cache without running tests",
				Action: app.corpusFetch,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "ome-zarr-version",
						Aliases: []string{"o"},
						Usage:   "OME-Zarr version(s) to fetch; repeatable or comma-separated",
					},
					&cli.DurationFlag{
						Name:  "fetch-timeout",
						Usage: "Upper bound for one corpus download",
						Value: 60 * time.Second,
					},
					&cli.BoolFlag{
						Name:  "refresh",
						Usage: "Re-download even when a cached copy exists",
					},
					&cli.StringFlag{
						Name:  "cache-dir",
						Usage: "Override the corpus cache directory",
					},
				},
			},
			{
				Name:   "list",
				Usage:  "List cached corpus archives",
				Action: app.corpusList,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "cache-dir",
						Usage: "Override the corpus cache directory",
					},
				},
			},
			{
				Name:   "path",
				Usage:  "Print the corpus cache directory",
				Action: app.corpusPath,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "cache-dir",
						Usage: "Override the corpus cache directory",
					},
				},
			},
		},
	})
	app.cli.ExitErrHandler = func(ctx *cli.Context, err error) {
		// Usage errors produced by urfave itself should exit with the
		// tooling failure code rather than the library default
		if err == nil {
			return
		}
		if _, ok := err.(cli.ExitCoder); !ok {
			err = cli.Exit(err.Error(), exitcodes.RuntimeErr)
		}
		cli.HandleExitCoder(err)
	}
	return app
}

func (a *App) Run(args []string) error {
	return a.cli.Run(args)
}

// SetVersion sets the version information for the CLI application
func (a *App) SetVersion(version, commit, date string) {
	a.cli.Version = version
	if commit != "none" && commit != "" {
		a.cli.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit[:8], date)
	}
}
