package parallel

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/agbru/primecount/internal/errors"
	"github.com/agbru/primecount/internal/logging"
	"github.com/agbru/primecount/internal/partition"
	"github.com/agbru/primecount/internal/primes"
	"github.com/agbru/primecount/internal/progress"
)

var tracer = otel.Tracer("github.com/agbru/primecount/internal/parallel")

// Options configures a parallel count. The zero value counts with
// primes.TrialDivision under FailFast, with no timeout, no progress and no
// logging.
type Options struct {
	// Counter counts a single part. Nil selects primes.TrialDivision.
	Counter primes.Counter
	// Policy decides how worker failures are handled.
	Policy Policy
	// Timeout bounds the whole count, join included. Zero disables it.
	Timeout time.Duration
	// Progress receives the ratio of completed parts after each part.
	Progress progress.ProgressCallback
	// Logger receives debug traces of the dispatch. Nil discards them.
	Logger logging.Logger
}

func (o Options) counter() primes.Counter {
	if o.Counter == nil {
		return primes.TrialDivision{}
	}
	return o.Counter
}

func (o Options) logger() logging.Logger {
	if o.Logger == nil {
		return logging.Nop()
	}
	return o.Logger
}

// PartResult is the slot owned by one worker.
type PartResult struct {
	Part     partition.Part
	Count    uint64
	Duration time.Duration
	Err      error
}

// Outcome is the reduced result of Aggregate.
type Outcome struct {
	// Total is the sum of the successful parts. Under FailFast it is only
	// meaningful when Aggregate returns a nil error. Under BestEffort an
	// interrupted count reports the parts finished before the interruption.
	Total uint64
	// Parts holds one slot per plan part, in plan order. Empty parts have a
	// zero count and no error.
	Parts []PartResult
}

// CountInRangeParallel counts the primes in [low, high] using jobs workers.
//
// The arguments are validated before any goroutine starts: jobs < 1 fails with
// apperrors.ErrInvalidArgument and low > high with apperrors.ErrInvalidRange.
// Under BestEffort a failed count returns the partial sum of the successful
// parts together with an *apperrors.AggregateError; under FailFast the count
// is zero.
//
// Parameters:
//   - ctx: Cancels the workers when done.
//   - low, high: Inclusive bounds of the range.
//   - jobs: Number of sub-ranges, at least 1.
//   - opts: Counter, policy, timeout, progress and logging settings.
//
// Returns:
//   - uint64: The number of primes in [low, high].
//   - error: A validation, context or aggregate worker error.
func CountInRangeParallel(ctx context.Context, low, high uint64, jobs int, opts Options) (uint64, error) {
	plan, err := partition.Divide(low, high, jobs)
	if err != nil {
		return 0, err
	}
	outcome, err := Aggregate(ctx, plan, opts)
	if err != nil && opts.Policy != BestEffort {
		return 0, err
	}
	return outcome.Total, err
}

// Aggregate runs one worker per non-empty part of plan and reduces the
// per-part counts once all workers have joined.
//
// When ctx is canceled or opts.Timeout elapses, Aggregate returns the context
// error without waiting for workers that are still running; they observe the
// same context and stop on their own.
func Aggregate(ctx context.Context, plan partition.Plan, opts Options) (Outcome, error) {
	counter := opts.counter()
	log := opts.logger()
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	parts := plan.NonEmpty()
	ctx, span := tracer.Start(ctx, "parallel.Aggregate", trace.WithAttributes(
		attribute.String("primecount.range", plan.Bounds.String()),
		attribute.String("primecount.counter", counter.Name()),
		attribute.String("primecount.policy", opts.Policy.String()),
		attribute.Int("primecount.parts", len(parts)),
	))
	defer span.End()

	var g *errgroup.Group
	workerCtx := ctx
	if opts.Policy == FailFast {
		g, workerCtx = errgroup.WithContext(ctx)
	} else {
		g = new(errgroup.Group)
	}

	results := make([]PartResult, len(plan.Parts))
	for i, part := range plan.Parts {
		results[i].Part = part
	}

	var (
		finished  atomic.Int64
		running   atomic.Uint64
		collector ErrorCollector
	)
	report := &gatedProgress{fn: opts.Progress}
	start := time.Now()
	log.Debug("dispatching workers",
		logging.String("range", plan.Bounds.String()),
		logging.Int("parts", len(parts)),
		logging.String("counter", counter.Name()),
		logging.String("policy", opts.Policy.String()),
	)

	for _, part := range parts {
		g.Go(func() (err error) {
			slot := &results[part.Index]
			began := time.Now()
			defer func() {
				if r := recover(); r != nil {
					err = apperrors.WorkerError{
						Index: part.Index, Low: part.Range.Low, High: part.Range.High,
						Cause: apperrors.PanicError{Value: r, Stack: debug.Stack()},
					}
				}
				slot.Duration = time.Since(began)
				if err != nil {
					slot.Err = err
					collector.Record(err)
				}
			}()

			n, cerr := counter.CountRange(workerCtx, part.Range)
			if cerr != nil {
				return apperrors.WorkerError{Index: part.Index, Low: part.Range.Low, High: part.Range.High, Cause: cerr}
			}
			slot.Count = n
			running.Add(n)
			done := finished.Add(1)
			report.send(float64(done) / float64(len(parts)))
			return nil
		})
	}

	joined := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(joined)
	}()

	select {
	case <-joined:
	case <-ctx.Done():
		report.close()
		err := ctx.Err()
		partial := running.Load()
		log.Debug("count interrupted", logging.Err(err), logging.Uint64("running_total", partial))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if opts.Policy == BestEffort {
			return Outcome{Total: partial}, err
		}
		return Outcome{}, err
	}

	outcome := Outcome{Parts: results}
	var failures []apperrors.WorkerError
	for _, res := range results {
		if res.Err == nil {
			outcome.Total += res.Count
			continue
		}
		var we apperrors.WorkerError
		if !errors.As(res.Err, &we) {
			we = apperrors.WorkerError{Index: res.Part.Index, Low: res.Part.Range.Low, High: res.Part.Range.High, Cause: res.Err}
		}
		failures = append(failures, we)
	}

	if len(failures) == 0 {
		log.Debug("count finished",
			logging.Uint64("total", outcome.Total),
			logging.String("elapsed", time.Since(start).String()),
		)
		span.SetAttributes(attribute.Int64("primecount.total", int64(min(outcome.Total, 1<<63-1))))
		return outcome, nil
	}

	// The join may have been released by the deadline firing after the last
	// worker gave up.
	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if opts.Policy == BestEffort {
			return outcome, err
		}
		return Outcome{}, err
	}

	if opts.Policy == FailFast {
		failures = primaryFailures(failures)
		outcome.Total = 0
	}
	if first, ok := collector.First(); ok {
		failures = moveToFront(failures, first.Index)
	}
	aggErr := &apperrors.AggregateError{Failures: failures, Partial: outcome.Total}
	log.Error("workers failed", aggErr,
		logging.Int("failed", len(failures)),
		logging.Uint64("partial", outcome.Total),
	)
	span.RecordError(aggErr)
	span.SetStatus(codes.Error, aggErr.Error())
	return outcome, aggErr
}

// primaryFailures drops the failures caused only by the fail-fast
// cancellation of sibling workers.
func primaryFailures(failures []apperrors.WorkerError) []apperrors.WorkerError {
	primary := make([]apperrors.WorkerError, 0, len(failures))
	for _, f := range failures {
		if !errors.Is(f.Cause, context.Canceled) {
			primary = append(primary, f)
		}
	}
	if len(primary) == 0 {
		return failures
	}
	return primary
}

// moveToFront puts the failure of part index first and keeps the others in
// plan order.
func moveToFront(failures []apperrors.WorkerError, index int) []apperrors.WorkerError {
	for i, f := range failures {
		if f.Index == index {
			copy(failures[1:i+1], failures[:i])
			failures[0] = f
			break
		}
	}
	return failures
}

// gatedProgress forwards progress until closed. Aggregate closes it before
// returning early so that straggling workers never report to a consumer
// that has moved on.
type gatedProgress struct {
	mu     sync.Mutex
	closed bool
	fn     func(float64)
}

func (g *gatedProgress) send(p float64) {
	if g.fn == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.closed {
		g.fn(p)
	}
}

func (g *gatedProgress) close() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
}
