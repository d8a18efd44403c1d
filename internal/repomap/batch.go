package repomap

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/codeintel/internal/extractor"
	"github.com/standardbeagle/codeintel/internal/parserpool"
)

// maxTrackedFailures bounds the "first N failures" list spec.md §4.A and
// §4.D require to prevent log flooding on pathological trees.
const maxTrackedFailures = 50

// FailureStats accumulates per-file parse/extract failures without ever
// aborting batch processing (spec.md §4.A, §7).
type FailureStats struct {
	mu       sync.Mutex
	count    int
	failures []FileFailure
}

// FileFailure is one recorded per-file failure.
type FileFailure struct {
	Path string
	Err  error
}

func (f *FailureStats) record(path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count++
	if len(f.failures) < maxTrackedFailures {
		f.failures = append(f.failures, FileFailure{Path: path, Err: err})
	}
}

// Count returns the total number of recorded failures, including those
// dropped from the bounded list.
func (f *FailureStats) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

// First returns up to maxTrackedFailures recorded failures.
func (f *FailureStats) First() []FileFailure {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FileFailure, len(f.failures))
	copy(out, f.failures)
	return out
}

// processBatches runs extraction over fileBatches one batch after another,
// with the files of each batch processed in parallel (spec.md §4.D step
// 3-4): each worker builds a fresh Context
// Extractor per file and merges its output into central under a write
// lock. A per-file failure is recorded in failures and the worker moves on
// — it never aborts the batch (spec.md §4.A's failure semantics), so the
// errgroup here never propagates a file-level error.
func processBatches(ctx context.Context, pool *parserpool.Pool, central *extractor.Extractor, fileBatches [][]walkFile, failures *FailureStats) error {
	for _, batch := range fileBatches {
		g, _ := errgroup.WithContext(ctx)
		for _, f := range batch {
			f := f
			g.Go(func() error {
				scratch := extractor.New(pool)
				if err := scratch.ExtractSymbolsFromFileIncremental(f.absPath, f.relPath, f.lang); err != nil {
					failures.record(f.relPath, err)
					return nil
				}
				central.Merge(scratch)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}
