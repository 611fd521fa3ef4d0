package cli

// This file contains the root action: fetch the corpus, run the program
// under test over every selected case, and report verdicts.

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/clbarnes/ome-zarr-conformance/corpus"
	"github.com/clbarnes/ome-zarr-conformance/exitcodes"
	"github.com/clbarnes/ome-zarr-conformance/harness"
	"github.com/clbarnes/ome-zarr-conformance/report"
)

func (a *App) run(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.Exit("expected exactly one argument: the command under test (quote it if it carries flags)", exitcodes.RuntimeErr)
	}

	inv, err := harness.ParseInvocation(ctx.Args().First())
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid invocation spec: %v", err), exitcodes.RuntimeErr)
	}

	versions := cleanVersions(ctx.StringSlice("ome-zarr-version"))
	if len(versions) == 0 {
		versions = defaultVersions
	}
	includes := patternsFromFlag(ctx, "include-pattern")
	excludes := patternsFromFlag(ctx, "exclude-pattern")

	runCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache, err := corpus.New(a.logger, corpus.Config{
		Dir:          ctx.String("cache-dir"),
		FetchTimeout: ctx.Duration("fetch-timeout"),
		Refresh:      ctx.Bool("refresh"),
	})
	if err != nil {
		return cli.Exit(err.Error(), exitcodes.RuntimeErr)
	}

	manifest, err := cache.Fetch(runCtx, versions)
	if err != nil {
		if runCtx.Err() != nil {
			return cli.Exit("interrupted", exitcodes.Interrupted)
		}
		return cli.Exit(fmt.Sprintf("corpus fetch failed: %v", err), exitcodes.RuntimeErr)
	}

	cases := harness.Filter(manifest.Cases, includes, excludes)
	if len(cases) == 0 {
		a.logger.Warn().
			Strs("versions", versions).
			Msg("No test cases matched the version and pattern filters")
	}

	a.logger.Info().
		Int("cases", len(cases)).
		Str("command", inv.String()).
		Msg("Running conformance tests")

	evaluator, err := harness.NewEvaluator()
	if err != nil {
		return cli.Exit(fmt.Sprintf("compile verdict protocol: %v", err), exitcodes.RuntimeErr)
	}
	runner := harness.NewRunner(a.logger, ctx.Duration("timeout"))
	reporter := report.New(a.logger, ctx.App.Writer)
	h := harness.New(a.logger, inv, runner, evaluator, reporter, ctx.Int("parallel"))

	tally, err := h.Run(runCtx, cases)
	if errors.Is(err, harness.ErrInterrupted) {
		a.logger.Error().
			Int("completed", tally.Total()).
			Int("remaining", len(cases)-tally.Total()).
			Msg("Run interrupted before all cases completed")
		return cli.Exit("interrupted", exitcodes.Interrupted)
	}
	if err != nil {
		return cli.Exit(err.Error(), exitcodes.RuntimeErr)
	}

	reporter.LogSummary()
	if ctx.Bool("summary") {
		reporter.RenderSummary(ctx.App.ErrWriter)
	}

	if tally.Error > 0 && !ctx.Bool("no-exit-code") {
		return cli.Exit("", exitcodes.CaseErrors)
	}
	return nil
}

// cleanVersions trims whitespace and drops empty tokens from the version
// flag values. Comma splitting is already done by the flag parser.
func cleanVersions(values []string) []string {
	var versions []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			versions = append(versions, v)
		}
	}
	return versions
}

func patternsFromFlag(ctx *cli.Context, name string) []*regexp.Regexp {
	if l, ok := ctx.Generic(name).(*regexpList); ok {
		return l.Patterns()
	}
	return nil
}
