package worker

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/refscout/refscout/internal/model"
)

// Resolver turns a raw reference into a finished output row. It must not
// fail: unresolvable references come back as degraded rows with notes.
type Resolver interface {
	Resolve(ctx context.Context, ref model.RawReference) model.OutputRow
}

// ResolveJob resolves a single reference. The reference index travels
// with the job so results can be reassembled in input order.
type ResolveJob struct {
	Ref      model.RawReference
	Resolver Resolver
	Verbose  bool
}

// ResolveResult is the result of resolving one reference
type ResolveResult struct {
	Index    int
	Row      model.OutputRow
	Duration time.Duration
}

// GetError implements the Result interface
func (r *ResolveResult) GetError() error {
	return nil
}

// Execute implements the Job interface
func (j *ResolveJob) Execute(ctx context.Context) Result {
	start := time.Now()

	if j.Verbose {
		fmt.Fprintf(os.Stderr, "Resolving reference %d...\n", j.Ref.Index+1)
	}

	row := j.Resolver.Resolve(ctx, j.Ref)

	return &ResolveResult{
		Index:    j.Ref.Index,
		Row:      row,
		Duration: time.Since(start),
	}
}

// BatchProcessor resolves references concurrently through a worker pool
type BatchProcessor struct {
	resolver Resolver
	workers  int
	verbose  bool
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(resolver Resolver, workers int, verbose bool) *BatchProcessor {
	if workers <= 0 {
		workers = 1
	}

	return &BatchProcessor{
		resolver: resolver,
		workers:  workers,
		verbose:  verbose,
	}
}

// ProcessReferences resolves all references and returns one row per
// reference, in the same order as the input.
func (b *BatchProcessor) ProcessReferences(ctx context.Context, refs []model.RawReference) []model.OutputRow {
	if len(refs) == 0 {
		return nil
	}

	pool := NewPool(b.workers)
	pool.Start()
	defer pool.Shutdown()

	// Submit from a separate goroutine while draining results below, so
	// the bounded queues never deadlock on long reference lists.
	go func() {
		for _, ref := range refs {
			pool.Submit(&ResolveJob{
				Ref:      ref,
				Resolver: b.resolver,
				Verbose:  b.verbose,
			})
		}
	}()

	resolved := make([]*ResolveResult, 0, len(refs))
drain:
	for range refs {
		select {
		case <-ctx.Done():
			break drain
		case result, ok := <-pool.Results():
			if !ok {
				break drain
			}
			if rr, ok := result.(*ResolveResult); ok {
				resolved = append(resolved, rr)
			}
		}
	}

	sort.Slice(resolved, func(i, j int) bool {
		return resolved[i].Index < resolved[j].Index
	})

	rows := make([]model.OutputRow, 0, len(resolved))
	for _, rr := range resolved {
		rows = append(rows, rr.Row)
	}

	return rows
}
