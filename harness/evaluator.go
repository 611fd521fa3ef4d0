package harness

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/clbarnes/ome-zarr-conformance/model"
	"github.com/clbarnes/ome-zarr-conformance/protocol"
)

// stdout longer than this is elided in error messages; the full stream was
// the program's to keep well-formed.
const maxStdoutInMessage = 512

// Evaluator classifies outcomes against expected validity.
type Evaluator struct {
	parser *protocol.Parser
}

// NewEvaluator compiles the verdict protocol parser.
func NewEvaluator() (*Evaluator, error) {
	parser, err := protocol.NewParser()
	if err != nil {
		return nil, err
	}
	return &Evaluator{parser: parser}, nil
}

// Evaluate turns one execution outcome into a result:
//
//   - launch failure or timeout -> error
//   - stdout that is not a single well-formed verdict object -> error
//   - verdict agrees with expected validity -> pass, else fail
//
// Exit code alone never forces an error; implementations may exit non-zero
// while still reporting a verdict. Captured stderr is attached regardless
// of status.
func (e *Evaluator) Evaluate(c model.TestCase, out Outcome) model.Result {
	res := model.Result{
		Case:     c,
		Stderr:   string(out.Stderr),
		ExitCode: out.ExitCode,
		Duration: out.Duration,
	}

	switch {
	case out.LaunchErr != nil:
		res.Status = model.StatusError
		res.Message = fmt.Sprintf("failed to launch: %v", out.LaunchErr)
	case out.TimedOut:
		res.Status = model.StatusError
		res.Message = fmt.Sprintf("timed out after %s", out.Duration.Round(time.Millisecond))
	default:
		verdict, err := e.parser.Parse(out.Stdout)
		if err != nil {
			res.Status = model.StatusError
			res.Message = fmt.Sprintf("no verdict on stdout: %v (stdout: %s)", err, elide(out.Stdout))
			return res
		}
		if verdict.Valid == c.Valid {
			res.Status = model.StatusPass
			res.Message = verdict.Text()
		} else {
			res.Status = model.StatusFail
			res.Message = verdict.Text()
			if res.Message == "" {
				res.Message = fmt.Sprintf("expected valid=%t, got valid=%t", c.Valid, verdict.Valid)
			}
		}
	}

	return res
}

func elide(stdout []byte) string {
	s := strings.TrimSpace(string(stdout))
	if s == "" {
		return "<empty>"
	}
	if len(s) > maxStdoutInMessage {
		cut := maxStdoutInMessage
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "...(truncated)"
	}
	return fmt.Sprintf("%q", s)
}
