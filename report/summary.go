package report

import (
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/mod/semver"
)

// RenderSummary writes a per-version results table to w (intended for the
// secondary stream, never the TSV stream).
func (r *Reporter) RenderSummary(w io.Writer) {
	versions := make([]string, 0, len(r.perVersion))
	for v := range r.perVersion {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool {
		return semver.Compare("v"+versions[i], "v"+versions[j]) < 0
	})

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Conformance results")
	t.AppendHeader(table.Row{"Version", "Pass", "Fail", "Error", "Total"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Pass", Align: text.AlignRight},
		{Name: "Fail", Align: text.AlignRight},
		{Name: "Error", Align: text.AlignRight},
		{Name: "Total", Align: text.AlignRight},
	})

	for _, v := range versions {
		tally := r.perVersion[v]
		t.AppendRow(table.Row{v, tally.Pass, tally.Fail, tally.Error, tally.Total()})
	}
	t.AppendFooter(table.Row{"all", r.total.Pass, r.total.Fail, r.total.Error, r.total.Total()})

	t.Render()
}
