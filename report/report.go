// Package report emits the TSV conformance report on the primary output
// stream and diagnostic detail for non-pass verdicts on the secondary one.
package report

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/acarl005/stripansi"
	"github.com/rs/zerolog"

	"github.com/clbarnes/ome-zarr-conformance/model"
)

// Captured validator stderr is scrubbed of ANSI escapes and truncated at
// this many bytes before appearing in a diagnostic block.
const maxStderrBytes = 8 << 10

// Reporter writes one TSV line per result to out and diagnostics through
// the logger. It is not safe for concurrent use; the harness serializes
// Report calls in canonical order.
type Reporter struct {
	logger     zerolog.Logger
	out        io.Writer
	total      model.Tally
	perVersion map[string]model.Tally
}

// New creates a reporter writing TSV lines to out.
func New(logger zerolog.Logger, out io.Writer) *Reporter {
	return &Reporter{
		logger:     logger,
		out:        out,
		perVersion: make(map[string]model.Tally),
	}
}

// Report emits the TSV line for one result and, for fail or error
// verdicts, a diagnostic block on the secondary stream. A write failure on
// the primary stream is returned so the run aborts instead of silently
// dropping report lines.
func (r *Reporter) Report(res model.Result) error {
	id := res.Case.ID()
	if _, err := fmt.Fprintf(r.out, "%s\t%s\n", id, res.Status); err != nil {
		return fmt.Errorf("write report line for %s: %w", id, err)
	}

	r.total.Add(res)
	tally := r.perVersion[res.Case.Version]
	tally.Add(res)
	r.perVersion[res.Case.Version] = tally

	switch res.Status {
	case model.StatusFail:
		ev := r.logger.Warn().
			Str("test", id).
			Bool("expected_valid", res.Case.Valid)
		if res.Message != "" {
			ev = ev.Str("message", res.Message)
		}
		if s := scrubStderr(res.Stderr); s != "" {
			ev = ev.Str("stderr", s)
		}
		ev.Msg("Test failed")
	case model.StatusError:
		ev := r.logger.Error().
			Str("test", id).
			Int("exit_code", res.ExitCode)
		if res.Message != "" {
			ev = ev.Str("reason", res.Message)
		}
		if s := scrubStderr(res.Stderr); s != "" {
			ev = ev.Str("stderr", s)
		}
		ev.Msg("Test errored")
	}
	return nil
}

// Tally returns the aggregate counts of everything reported so far.
func (r *Reporter) Tally() model.Tally {
	return r.total
}

// LogSummary logs the aggregate counts at info level.
func (r *Reporter) LogSummary() {
	r.logger.Info().
		Int("passes", r.total.Pass).
		Int("failures", r.total.Fail).
		Int("errors", r.total.Error).
		Msg("Run complete")
}

// scrubStderr strips ANSI escapes and bounds the size of captured stderr
// for diagnostic display. The cut backs up to a rune start so truncation
// never produces invalid UTF-8.
func scrubStderr(stderr string) string {
	s := strings.TrimSpace(stripansi.Strip(stderr))
	if len(s) > maxStderrBytes {
		cut := maxStderrBytes
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "...(truncated)"
	}
	return s
}
