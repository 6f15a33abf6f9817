package bench

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/cyborgbench/internal/evaluator"
)

// Measurer times one query against every backend.
type Measurer interface {
	Measure(ctx context.Context, query string) (map[evaluator.Backend]time.Duration, error)
}

// Result holds the raw samples of one benchmark run.
type Result struct {
	Started  time.Time
	Elapsed  time.Duration
	Queries  int
	Failures int
	Samples  map[evaluator.Backend][]float64
}

// Summaries returns the latency summary of every measured backend.
func (r *Result) Summaries() map[evaluator.Backend]Summary {
	out := make(map[evaluator.Backend]Summary, len(r.Samples))
	for b, s := range r.Samples {
		out[b] = Summarize(s)
	}
	return out
}

// Runner runs queries sequentially through a Measurer.
type Runner struct {
	measurer Measurer
	logger   *zap.Logger
	progress int
}

// NewRunner creates a runner. Progress is logged every 100 queries.
func NewRunner(m Measurer, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{measurer: m, logger: logger, progress: 100}
}

// Run measures every query in order. A failing query is counted and skipped;
// the run fails only when no query succeeds or ctx is cancelled.
func (r *Runner) Run(ctx context.Context, queries []string) (*Result, error) {
	res := &Result{Started: time.Now(), Samples: make(map[evaluator.Backend][]float64)}
	for i, q := range queries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lat, err := r.measurer.Measure(ctx, q)
		if err != nil {
			res.Failures++
			r.logger.Warn("benchmark query failed", zap.Int("query", i), zap.Error(err))
			continue
		}
		for b, d := range lat {
			res.Samples[b] = append(res.Samples[b], d.Seconds())
		}
		res.Queries++
		if r.progress > 0 && (i+1)%r.progress == 0 {
			r.logger.Info("benchmark progress", zap.Int("done", i+1), zap.Int("total", len(queries)))
		}
	}
	res.Elapsed = time.Since(res.Started)
	if res.Queries == 0 {
		return nil, fmt.Errorf("benchmark: all %d queries failed", len(queries))
	}
	return res, nil
}
