package harness

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/rs/zerolog"
)

// Outcome is the raw result of one execution of the program under test.
// It carries no interpretation of stdout; that is the evaluator's job.
type Outcome struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
	// TimedOut is set when the per-case timeout killed the process
	TimedOut bool
	// LaunchErr is set when the process could not be started at all
	// (missing executable, permission denied)
	LaunchErr error
}

// How long Wait may keep draining the stdout/stderr pipes after the child
// exits or is killed. Without this, a grandchild that inherited the pipes
// would hold Run hostage past the timeout.
const pipeWaitDelay = time.Second

// Runner executes the program under test: no shell indirection, no stdin,
// stdout and stderr captured separately, a wall-clock timeout enforced by
// killing the process.
type Runner struct {
	logger  zerolog.Logger
	timeout time.Duration
}

// NewRunner creates a runner with the given per-case timeout; zero disables
// the timeout.
func NewRunner(logger zerolog.Logger, timeout time.Duration) *Runner {
	return &Runner{logger: logger, timeout: timeout}
}

// Run executes argv and captures its outcome. Cancelling ctx kills the
// child process; the returned outcome is then meaningless and the caller is
// expected to discard it.
func (r *Runner) Run(ctx context.Context, argv []string) Outcome {
	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.WaitDelay = pipeWaitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()

	out := Outcome{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case runCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil:
			// The per-case deadline fired, not a run-level cancellation
			out.TimedOut = true
			r.logger.Debug().
				Str("program", argv[0]).
				Dur("timeout", r.timeout).
				Msg("Process killed after timeout")
		case errors.As(err, &exitErr):
			out.ExitCode = exitErr.ExitCode()
		case errors.Is(err, exec.ErrWaitDelay):
			// The child exited but something it spawned still held the
			// pipes; whatever output was copied before they were abandoned
			// is all there is to evaluate
			out.ExitCode = cmd.ProcessState.ExitCode()
			r.logger.Debug().
				Str("program", argv[0]).
				Msg("Abandoned output pipes held open past process exit")
		default:
			out.LaunchErr = err
		}
	}

	return out
}
