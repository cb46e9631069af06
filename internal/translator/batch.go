package translator

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/pofactory/po-translator/internal/merge"
	"github.com/pofactory/po-translator/pkg/log"
)

// BatchResult summarizes one TranslateBatch run. Total always equals
// the number of entries handed in; entries the run never reached
// because the context ended count as skipped.
type BatchResult struct {
	Total      int
	Translated int
	Skipped    int
	Failed     int
}

// BatchOption adjusts a single TranslateBatch call.
type BatchOption func(*batchOptions)

type batchOptions struct {
	progress func(done, total int)
}

// WithProgress registers a callback invoked after every processed
// entry. Callbacks run on worker goroutines and must be fast.
func WithProgress(fn func(done, total int)) BatchOption {
	return func(o *batchOptions) { o.progress = fn }
}

// TranslateBatch translates entries concurrently on the configured
// worker pool, mutating them in place. Cancelling the context stops
// dispatch and lets in-flight entries wind down as skips; no entry is
// ever left half-written.
func (o *Orchestrator) TranslateBatch(ctx context.Context, entries []*merge.Entry, module string, force bool, opts ...BatchOption) BatchResult {
	var options batchOptions
	for _, opt := range opts {
		opt(&options)
	}

	result := BatchResult{Total: len(entries)}
	if len(entries) == 0 {
		return result
	}

	workers := o.snapshot().Workers
	if workers > len(entries) {
		workers = len(entries)
	}
	run := uuid.NewString()[:8]
	log.Info("translator: batch %s: %d entries on %d workers", run, len(entries), workers)

	var translated, failed, done atomic.Int64
	jobs := make(chan *merge.Entry)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range jobs {
				switch o.translateEntry(ctx, entry, module, force) {
				case outcomeTranslated:
					translated.Add(1)
				case outcomeFailed:
					failed.Add(1)
				}
				n := int(done.Add(1))
				if options.progress != nil {
					options.progress(n, result.Total)
				}
			}
		}()
	}

dispatch:
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- entry:
		}
	}
	close(jobs)
	wg.Wait()

	result.Translated = int(translated.Load())
	result.Failed = int(failed.Load())
	result.Skipped = result.Total - result.Translated - result.Failed
	if err := ctx.Err(); err != nil {
		log.Warn("translator: batch %s interrupted: %v", run, err)
	}
	log.Info("translator: batch %s done: %d translated, %d skipped, %d failed",
		run, result.Translated, result.Skipped, result.Failed)
	return result
}
