// Package loadtest drives concurrent writers through the sync orchestrator.
//
// Each writer creates, toggles and deletes tasks and todos while recording
// per-operation latency. After all writers finish, the mirror is checked
// against the store: a run passes only when every table converged, by count
// and (when the orchestrator verifies content) by digest.
package loadtest

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"sort"
	stdsync "sync"
	"time"

	"github.com/Jana-haikel/Task-manager/internal/store"
	"github.com/Jana-haikel/Task-manager/internal/store/schema"
	"github.com/Jana-haikel/Task-manager/internal/store/sync"
)

// Options controls a load test run.
type Options struct {
	Writers      int   // concurrent writers (default 10)
	OpsPerWriter int   // create operations per writer (default 20)
	DeleteEvery  int   // delete every Nth created record, 0 never (default 3)
	Seed         int64 // base seed for each writer's op mix
}

// DefaultOptions returns the options used by the CLI when no flags are given.
func DefaultOptions() Options {
	return Options{Writers: 10, OpsPerWriter: 20, DeleteEvery: 3, Seed: 42}
}

// LatencyStats captures performance metrics from load tests.
type LatencyStats struct {
	Min          time.Duration
	Max          time.Duration
	Mean         time.Duration
	P50          time.Duration // Median
	P95          time.Duration
	P99          time.Duration
	TotalQueries int
	Errors       int
	Durations    []time.Duration
}

// Result is the outcome of Run.
type Result struct {
	Stats    *LatencyStats
	Created  int
	Deleted  int
	Partial  int // operations whose store write committed but mirror refresh failed
	Duration time.Duration

	Report    *sync.DriftReport
	Converged bool
}

type writerResult struct {
	durations []time.Duration
	created   int
	deleted   int
	partial   int
	errs      []error
}

// Run starts opts.Writers goroutines that mutate the store through orch,
// then checks that the mirror converged.
func Run(ctx context.Context, orch sync.Orchestrator, opts Options) (*Result, error) {
	opts = withDefaults(opts)

	start := time.Now()
	results := make(chan writerResult, opts.Writers)

	var wg stdsync.WaitGroup
	for i := 0; i < opts.Writers; i++ {
		wg.Add(1)
		go func(writerID int) {
			defer wg.Done()
			results <- runWriter(ctx, orch, writerID, opts)
		}(i)
	}

	wg.Wait()
	close(results)

	var all []time.Duration
	res := &Result{}
	var errorCount int
	var firstErr error
	for r := range results {
		all = append(all, r.durations...)
		res.Created += r.created
		res.Deleted += r.deleted
		res.Partial += r.partial
		errorCount += len(r.errs)
		if firstErr == nil && len(r.errs) > 0 {
			firstErr = r.errs[0]
		}
	}
	res.Duration = time.Since(start)

	if len(all) == 0 {
		if firstErr != nil {
			return nil, fmt.Errorf("no successful operations completed: %w", firstErr)
		}
		return nil, fmt.Errorf("no successful operations completed")
	}

	res.Stats = computeLatencyStats(all)
	res.Stats.Errors = errorCount

	report, err := orch.CheckDrift(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to verify convergence: %w", err)
	}
	res.Report = report
	res.Converged = report.InSync && (report.ContentInSync == nil || *report.ContentInSync)

	return res, nil
}

func withDefaults(opts Options) Options {
	def := DefaultOptions()
	if opts.Writers <= 0 {
		opts.Writers = def.Writers
	}
	if opts.OpsPerWriter <= 0 {
		opts.OpsPerWriter = def.OpsPerWriter
	}
	if opts.DeleteEvery < 0 {
		opts.DeleteEvery = 0
	}
	return opts
}

// runWriter performs one writer's share of the workload. Tasks and todos
// alternate by a seeded coin flip so writers contend on both tables.
func runWriter(ctx context.Context, orch sync.Orchestrator, writerID int, opts Options) writerResult {
	rng := rand.New(rand.NewSource(opts.Seed + int64(writerID)))
	r := writerResult{durations: make([]time.Duration, 0, opts.OpsPerWriter*3)}

	// timed runs one operation and classifies its error. Partial success
	// still counts as a completed operation.
	timed := func(op string, fn func() error) bool {
		start := time.Now()
		err := fn()
		r.durations = append(r.durations, time.Since(start))
		switch {
		case err == nil:
			return true
		case store.IsPartial(err):
			r.partial++
			return true
		default:
			r.errs = append(r.errs, fmt.Errorf("writer %d %s failed: %w", writerID, op, err))
			return false
		}
	}

	for j := 0; j < opts.OpsPerWriter; j++ {
		if ctx.Err() != nil {
			r.errs = append(r.errs, ctx.Err())
			return r
		}
		del := opts.DeleteEvery > 0 && (j+1)%opts.DeleteEvery == 0

		if rng.Intn(2) == 0 {
			var id string
			desc := fmt.Sprintf("load test record (writer %d)", writerID)
			ok := timed("create task", func() (err error) {
				id, err = orch.CreateTask(ctx, schema.TaskInput{
					Title:       fmt.Sprintf("Writer %d task %d", writerID, j),
					Description: &desc,
				})
				return err
			})
			if !ok {
				continue
			}
			r.created++
			timed("toggle task", func() error { return orch.ToggleTask(ctx, id) })
			if del && timed("delete task", func() error { return orch.DeleteTask(ctx, id) }) {
				r.deleted++
			}
			continue
		}

		var id int64
		ok := timed("create todo", func() (err error) {
			id, err = orch.CreateTodo(ctx, schema.TodoInput{Text: fmt.Sprintf("Writer %d todo %d", writerID, j)})
			return err
		})
		if !ok {
			continue
		}
		r.created++
		timed("toggle todo", func() error { return orch.ToggleTodo(ctx, id) })
		if del && timed("delete todo", func() error { return orch.DeleteTodo(ctx, id) }) {
			r.deleted++
		}
	}

	return r
}

// computeLatencyStats calculates statistics from a slice of durations.
func computeLatencyStats(durations []time.Duration) *LatencyStats {
	if len(durations) == 0 {
		return &LatencyStats{}
	}

	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return &LatencyStats{
		Min:          sorted[0],
		Max:          sorted[len(sorted)-1],
		Mean:         sum / time.Duration(len(durations)),
		P50:          sorted[len(sorted)*50/100],
		P95:          sorted[len(sorted)*95/100],
		P99:          sorted[len(sorted)*99/100],
		TotalQueries: len(durations),
		Durations:    sorted,
	}
}

// PrintStats formats latency statistics to w.
func (s *LatencyStats) PrintStats(w io.Writer) {
	fmt.Fprintf(w, "Latency Statistics:\n")
	fmt.Fprintf(w, "  Total Operations: %d\n", s.TotalQueries)
	fmt.Fprintf(w, "  Errors:           %d\n", s.Errors)
	fmt.Fprintf(w, "  Min:              %v\n", s.Min)
	fmt.Fprintf(w, "  P50 (Median):     %v\n", s.P50)
	fmt.Fprintf(w, "  Mean:             %v\n", s.Mean)
	fmt.Fprintf(w, "  P95:              %v\n", s.P95)
	fmt.Fprintf(w, "  P99:              %v\n", s.P99)
	fmt.Fprintf(w, "  Max:              %v\n", s.Max)
}

// Throughput returns completed operations per second.
func (r *Result) Throughput() float64 {
	if r.Stats == nil || r.Duration <= 0 {
		return 0
	}
	return float64(r.Stats.TotalQueries) / r.Duration.Seconds()
}
