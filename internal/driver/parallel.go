package driver

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"hydra/internal/trace"
	"hydra/internal/treeio"
)

// AnalyzeUnits checks independent units in parallel. Results keep the input
// order. A cancelled context stops scheduling new units and is returned
// together with the results gathered so far.
func AnalyzeUnits(ctx context.Context, units []Unit, opts Options) ([]*UnitResult, error) {
	results := make([]*UnitResult, len(units))
	err := forEach(ctx, len(units), opts.Jobs, func(ctx context.Context, i int) {
		results[i] = AnalyzeUnit(ctx, units[i], opts)
	})
	return results, err
}

// AnalyzeFiles decodes every treeio document in paths and checks it. A file
// that cannot be read or decoded yields a result with an I/O diagnostic
// rather than an error.
func AnalyzeFiles(ctx context.Context, paths []string, opts Options) ([]*UnitResult, error) {
	results := make([]*UnitResult, len(paths))
	err := forEach(ctx, len(paths), opts.Jobs, func(ctx context.Context, i int) {
		doc, err := treeio.ReadFile(paths[i])
		if err != nil {
			results[i] = loadFailure(paths[i], err)
			return
		}
		b, file, err := doc.Builder()
		if err != nil {
			results[i] = loadFailure(paths[i], err)
			return
		}
		results[i] = AnalyzeUnit(ctx, Unit{Name: doc.Unit, Builder: b, File: file}, opts)
	})
	return results, err
}

// forEach runs fn for 0..n-1 on at most jobs goroutines. Every index owns its
// slot in the caller's result slice, so no locking is needed.
func forEach(ctx context.Context, n, jobs int, fn func(ctx context.Context, i int)) error {
	if n == 0 {
		return ctx.Err()
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	span, ctx := trace.Start(ctx, trace.ScopeDriver, "analyze")
	defer span.End("")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, n))
	for i := range n {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			fn(gctx, i)
			return nil
		})
	}
	return g.Wait()
}
