package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clbarnes/ome-zarr-conformance/model"
)

func sampleResults() []model.Result {
	return []model.Result{
		{
			Case:   model.TestCase{Version: "0.4", SuiteFile: "image_suite.json", Index: 0, Formerly: "examples/multiscales.json"},
			Status: model.StatusPass,
		},
		{
			Case:    model.TestCase{Version: "0.4", SuiteFile: "image_suite.json", Index: 1, Valid: true},
			Status:  model.StatusFail,
			Message: "bad axis order",
			Stderr:  "\x1b[31mvalidation trace\x1b[0m\n",
		},
		{
			Case:     model.TestCase{Version: "0.5", SuiteFile: "ome_suite.json", Index: 0},
			Status:   model.StatusError,
			Message:  "timed out after 30s",
			ExitCode: -1,
			Duration: 30 * time.Second,
		},
	}
}

// failingWriter errors on every write, like a closed stdout pipe.
type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestReportTSV(t *testing.T) {
	var out bytes.Buffer
	r := New(zerolog.Nop(), &out)

	for _, res := range sampleResults() {
		require.NoError(t, r.Report(res))
	}

	want := "v0_4:image:0:multiscales\tpass\n" +
		"v0_4:image:1\tfail\n" +
		"v0_5:ome:0\terror\n"
	require.Equal(t, want, out.String())

	tally := r.Tally()
	assert.Equal(t, model.Tally{Pass: 1, Fail: 1, Error: 1}, tally)
}

func TestReportDiagnosticsStayOffPrimaryStream(t *testing.T) {
	var out, diag bytes.Buffer
	logger := zerolog.New(&diag)
	r := New(logger, &out)

	for _, res := range sampleResults() {
		require.NoError(t, r.Report(res))
	}

	// Primary stream holds nothing but TSV lines
	for _, line := range strings.Split(strings.TrimRight(out.String(), "\n"), "\n") {
		require.Len(t, strings.Split(line, "\t"), 2)
	}

	diags := diag.String()
	assert.Contains(t, diags, "v0_4:image:1")
	assert.Contains(t, diags, "bad axis order")
	assert.Contains(t, diags, "v0_5:ome:0")
	assert.Contains(t, diags, "timed out after 30s")
	// ANSI escapes are scrubbed from captured stderr
	assert.Contains(t, diags, "validation trace")
	assert.NotContains(t, diags, "\\u001b[31m")
	// The passing case produces no diagnostic block
	assert.NotContains(t, diags, "multiscales")
}

func TestReportWriteFailureSurfaces(t *testing.T) {
	r := New(zerolog.Nop(), failingWriter{})

	err := r.Report(sampleResults()[0])
	require.Error(t, err)
	require.Contains(t, err.Error(), "broken pipe")
	require.Contains(t, err.Error(), "v0_4:image:0:multiscales")
	// Nothing gets tallied for a line that never reached the stream
	tally := r.Tally()
	require.Equal(t, 0, tally.Total())
}

func TestScrubStderrTruncates(t *testing.T) {
	long := strings.Repeat("x", maxStderrBytes+100)
	got := scrubStderr(long)
	require.Len(t, got, maxStderrBytes+len("...(truncated)"))
	require.True(t, strings.HasSuffix(got, "...(truncated)"))

	require.Equal(t, "", scrubStderr("  \n"))
	require.Equal(t, "plain", scrubStderr("plain"))
}

// Truncation must not split a multi-byte rune at the cut point.
func TestScrubStderrTruncatesOnRuneBoundary(t *testing.T) {
	// Place a two-byte rune straddling the truncation offset
	long := strings.Repeat("x", maxStderrBytes-1) + strings.Repeat("é", 60)
	got := scrubStderr(long)
	require.True(t, utf8.ValidString(got), "truncated stderr must stay valid UTF-8")
	require.True(t, strings.HasSuffix(got, "...(truncated)"))
	trimmed := strings.TrimSuffix(got, "...(truncated)")
	require.True(t, strings.HasSuffix(trimmed, "x"), "the straddling rune must be dropped, not split")
	require.Len(t, trimmed, maxStderrBytes-1)
}

func TestRenderSummary(t *testing.T) {
	var out bytes.Buffer
	r := New(zerolog.Nop(), &out)
	for _, res := range sampleResults() {
		require.NoError(t, r.Report(res))
	}

	var summary bytes.Buffer
	r.RenderSummary(&summary)

	s := summary.String()
	assert.Contains(t, s, "0.4")
	assert.Contains(t, s, "0.5")
	assert.Contains(t, s, "Conformance results")
	// The summary never touches the TSV stream
	assert.NotContains(t, out.String(), "Conformance results")

	// Versions appear in semver order
	require.Less(t, strings.Index(s, "0.4"), strings.Index(s, "0.5"))
}
