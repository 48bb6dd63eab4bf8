// Package worker implements parallel per-file processing for the gain
// normalizer: an errgroup-based pool bounded to a configurable thread
// count, a process-wide rewrite gate serializing the rewrite+commit
// critical section, and a per-task delayed console buffer that replays
// output in emission order without interleaving across tasks.
package worker

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/opustools/zoog"
)

// NumThreads resolves a configured thread count to a usable worker count:
// 0 means "use CPU count" (at least 1), a positive count is clamped to
// ncores, and a negative count is ErrInvalidThreadCount.
func NumThreads(requested int) (int, error) {
	if requested == 0 {
		return max(1, runtime.NumCPU()), nil // builtin max (Go 1.21+)
	}
	if requested < 0 {
		return 0, &zoog.Error{Kind: zoog.Semantics, Op: "NumThreads", Err: zoog.ErrInvalidThreadCount}
	}
	n := requested
	if cores := runtime.NumCPU(); n > cores {
		n = cores
	}
	return n, nil
}

// RewriteGate serializes the rewrite-and-commit critical section across
// workers, capping temp-file disk usage and avoiding many partial
// temporaries outstanding on error.
type RewriteGate struct {
	mu sync.Mutex
}

// Do runs fn while holding the gate.
func (g *RewriteGate) Do(fn func() error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn()
}

// Pool runs one task per item in items, bounded to numThreads concurrent
// goroutines, collecting results in input order regardless of completion
// order.
func Pool[T, R any](numThreads int, items []T, task func(ctx context.Context, item T, index int) (R, error)) ([]R, error) {
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(numThreads)

	results := make([]R, len(items))
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			r, err := task(ctx, item, i)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
