package harness

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/clbarnes/ome-zarr-conformance/model"
)

// ErrInterrupted is returned by Run when the context was cancelled before
// every case completed.
var ErrInterrupted = errors.New("run interrupted")

// Executor runs one argument vector. *Runner is the real implementation;
// tests substitute fakes.
type Executor interface {
	Run(ctx context.Context, argv []string) Outcome
}

// Sink receives results in canonical corpus order, one call per test case.
// Run never calls it concurrently. A sink error (such as a failed write to
// the report stream) aborts the run.
type Sink interface {
	Report(res model.Result) error
}

// Harness drives build-run-evaluate-report over a list of test cases.
type Harness struct {
	logger     zerolog.Logger
	invocation *Invocation
	executor   Executor
	evaluator  *Evaluator
	sink       Sink
	workers    int
}

// New creates a harness. workers <= 1 means strictly sequential execution;
// larger values dispatch cases to a bounded pool, but results always reach
// the sink in case order.
func New(logger zerolog.Logger, inv *Invocation, executor Executor, evaluator *Evaluator, sink Sink, workers int) *Harness {
	if workers < 1 {
		workers = 1
	}
	return &Harness{
		logger:     logger,
		invocation: inv,
		executor:   executor,
		evaluator:  evaluator,
		sink:       sink,
		workers:    workers,
	}
}

// Run executes every case and reports each result. The returned tally
// counts the results that reached the sink. On cancellation any in-flight
// child process is killed and ErrInterrupted is returned.
func (h *Harness) Run(ctx context.Context, cases []model.TestCase) (model.Tally, error) {
	if h.workers > 1 {
		return h.runParallel(ctx, cases)
	}
	return h.runSequential(ctx, cases)
}

func (h *Harness) runSequential(ctx context.Context, cases []model.TestCase) (model.Tally, error) {
	var tally model.Tally
	for i := range cases {
		if ctx.Err() != nil {
			return tally, ErrInterrupted
		}
		res := h.runCase(ctx, cases[i])
		if ctx.Err() != nil {
			// The child was killed by cancellation; its outcome is noise
			return tally, ErrInterrupted
		}
		tally.Add(res)
		if err := h.sink.Report(res); err != nil {
			return tally, err
		}
	}
	return tally, nil
}

// runParallel dispatches case indices to a worker pool and replays results
// in case order, so concurrency is never visible in the output.
func (h *Harness) runParallel(parent context.Context, cases []model.TestCase) (model.Tally, error) {
	// Internal cancellation stops dispatch and in-flight children when the
	// collector bails out early (sink error)
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	jobs := make(chan int)
	results := make([]model.Result, len(cases))
	ready := make([]chan struct{}, len(cases))
	for i := range ready {
		ready[i] = make(chan struct{})
	}

	var wg sync.WaitGroup
	for w := 0; w < h.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = h.runCase(ctx, cases[i])
				close(ready[i])
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range cases {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	var tally model.Tally
	for i := range cases {
		select {
		case <-ready[i]:
			if parent.Err() != nil {
				wg.Wait()
				return tally, ErrInterrupted
			}
			tally.Add(results[i])
			if err := h.sink.Report(results[i]); err != nil {
				cancel()
				wg.Wait()
				return tally, err
			}
		case <-ctx.Done():
			wg.Wait()
			return tally, ErrInterrupted
		}
	}

	wg.Wait()
	return tally, nil
}

func (h *Harness) runCase(ctx context.Context, c model.TestCase) model.Result {
	h.logger.Debug().Str("test", c.ID()).Msg("Running test case")
	out := h.executor.Run(ctx, h.invocation.Argv(c.Payload))
	return h.evaluator.Evaluate(c, out)
}
