package harness

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/clbarnes/ome-zarr-conformance/model"
)

func newEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	e, err := NewEvaluator()
	require.NoError(t, err)
	return e
}

func TestEvaluate(t *testing.T) {
	expectValid := model.TestCase{Version: "0.4", SuiteFile: "image_suite.json", Valid: true}
	expectInvalid := model.TestCase{Version: "0.4", SuiteFile: "image_suite.json", Valid: false}

	tests := []struct {
		name        string
		c           model.TestCase
		out         Outcome
		wantStatus  model.Status
		wantMessage string
	}{
		{
			name:       "agreeing verdict passes",
			c:          expectValid,
			out:        Outcome{Stdout: []byte(`{"valid": true}`)},
			wantStatus: model.StatusPass,
		},
		{
			name:        "disagreeing verdict fails with program message",
			c:           expectValid,
			out:         Outcome{Stdout: []byte(`{"valid": false, "message": "bad axis order"}`)},
			wantStatus:  model.StatusFail,
			wantMessage: "bad axis order",
		},
		{
			name:        "disagreeing verdict without message gets default",
			c:           expectInvalid,
			out:         Outcome{Stdout: []byte(`{"valid": true}`)},
			wantStatus:  model.StatusFail,
			wantMessage: "expected valid=false, got valid=true",
		},
		{
			name:       "non-JSON stdout errors",
			c:          expectValid,
			out:        Outcome{Stdout: []byte("not json")},
			wantStatus: model.StatusError,
		},
		{
			name:       "timeout errors",
			c:          expectValid,
			out:        Outcome{TimedOut: true, Duration: 30 * time.Second},
			wantStatus: model.StatusError,
		},
		{
			name:       "launch failure errors",
			c:          expectValid,
			out:        Outcome{LaunchErr: errors.New("no such file or directory")},
			wantStatus: model.StatusError,
		},
		{
			// Exit code alone never forces an error
			name:       "non-zero exit with agreeing verdict still passes",
			c:          expectInvalid,
			out:        Outcome{Stdout: []byte(`{"valid": false}`), ExitCode: 1},
			wantStatus: model.StatusPass,
		},
	}

	e := newEvaluator(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.Evaluate(tt.c, tt.out)
			require.Equal(t, tt.wantStatus, res.Status)
			if tt.wantMessage != "" {
				require.Equal(t, tt.wantMessage, res.Message)
			}
			if tt.wantStatus == model.StatusError {
				require.NotEmpty(t, res.Message)
			}
		})
	}
}

func TestEvaluateAttachesDiagnostics(t *testing.T) {
	e := newEvaluator(t)
	c := model.TestCase{Version: "0.4", SuiteFile: "image_suite.json", Valid: true}

	res := e.Evaluate(c, Outcome{
		Stdout:   []byte(`{"valid": true}`),
		Stderr:   []byte("warning: deprecated field\n"),
		ExitCode: 0,
		Duration: 42 * time.Millisecond,
	})
	require.Equal(t, model.StatusPass, res.Status)
	// Stderr rides along regardless of status
	require.Equal(t, "warning: deprecated field\n", res.Stderr)
	require.Equal(t, 42*time.Millisecond, res.Duration)
}

func TestEvaluateErrorMessageIncludesStdout(t *testing.T) {
	e := newEvaluator(t)
	c := model.TestCase{Version: "0.4", SuiteFile: "image_suite.json", Valid: true}

	res := e.Evaluate(c, Outcome{Stdout: []byte("oops, stack trace follows")})
	require.Equal(t, model.StatusError, res.Status)
	require.Contains(t, res.Message, "oops, stack trace follows")
}
