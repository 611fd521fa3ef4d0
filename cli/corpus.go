package cli

// This file contains the corpus subcommands for maintaining the local
// cache of corpus archives.

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/urfave/cli/v2"

	"github.com/clbarnes/ome-zarr-conformance/corpus"
	"github.com/clbarnes/ome-zarr-conformance/exitcodes"
)

func (a *App) corpusFetch(ctx *cli.Context) error {
	versions := cleanVersions(ctx.StringSlice("ome-zarr-version"))
	if len(versions) == 0 {
		versions = defaultVersions
	}

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

	a.logger.Info().
		Strs("versions", manifest.Versions).
		Int("tests", len(manifest.Cases)).
		Msg("Corpus cached")
	return nil
}

func (a *App) corpusList(ctx *cli.Context) error {
	cache, err := corpus.New(a.logger, corpus.Config{Dir: ctx.String("cache-dir")})
	if err != nil {
		return cli.Exit(err.Error(), exitcodes.RuntimeErr)
	}

	entries, err := cache.Entries()
	if err != nil {
		return cli.Exit(err.Error(), exitcodes.RuntimeErr)
	}
	if len(entries) == 0 {
		a.logger.Info().Str("dir", cache.Dir()).Msg("Corpus cache is empty")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(ctx.App.Writer)
	t.AppendHeader(table.Row{"Version", "File", "Size", "Fetched", "SHA256"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Size", Align: text.AlignRight},
	})
	for _, e := range entries {
		t.AppendRow(table.Row{
			e.Version,
			e.File,
			fmt.Sprintf("%.1f KB", float64(e.Size)/1024),
			e.RetrievedAt.Local().Format("2006-01-02 15:04:05"),
			shortDigest(e.SHA256),
		})
	}
	t.Render()
	return nil
}

func (a *App) corpusPath(ctx *cli.Context) error {
	cache, err := corpus.New(a.logger, corpus.Config{Dir: ctx.String("cache-dir")})
	if err != nil {
		return cli.Exit(err.Error(), exitcodes.RuntimeErr)
	}
	fmt.Fprintln(ctx.App.Writer, cache.Dir())
	return nil
}

func shortDigest(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}
