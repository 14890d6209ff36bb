package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"onebrc/core"
	"onebrc/distributed/communication"
	"onebrc/distributed/monitoring"
	"onebrc/distributed/worker"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// Options configures a Coordinator
type Options struct {
	// ChunkSize is the target chunk size in bytes.
	ChunkSize int
	// MaxWorkers bounds concurrently running workers; 0 runs one goroutine
	// per chunk with no bound.
	MaxWorkers int
	// Aggregate overrides the per-chunk aggregation, core.AggregateChunk when nil.
	Aggregate core.AggregateFunc
	// Metrics receives run metrics; a fresh registry is used when nil.
	Metrics *monitoring.MetricsRegistry
}

// RunResult is the outcome of a successful run
type RunResult struct {
	Results []core.KeyStatistics
	Summary core.MergeSummary
	Stats   communication.RunStats
}

// SkippedRows returns the input offsets of every skipped row.
func (r *RunResult) SkippedRows() *roaring64.Bitmap {
	return r.Summary.Skipped
}

// Coordinator splits an input buffer into chunks and fans them out to workers
type Coordinator struct {
	opts    Options
	metrics *monitoring.MetricsRegistry
}

// New creates a coordinator. ChunkSize is validated when Run splits the input.
func New(opts Options) *Coordinator {
	metrics := opts.Metrics
	if metrics == nil {
		metrics = monitoring.NewMetricsRegistry()
	}
	return &Coordinator{opts: opts, metrics: metrics}
}

// Metrics returns the registry the coordinator's workers report into
func (c *Coordinator) Metrics() *monitoring.MetricsRegistry {
	return c.metrics
}

// Run aggregates content. Every chunk is handed to its own worker; the first
// worker failure cancels the remaining ones and Run returns that error once
// all workers have returned, discarding any partial results.
func (c *Coordinator) Run(ctx context.Context, content []byte) (*RunResult, error) {
	startTime := time.Now()
	tracer := core.GetTracer()

	chunks, err := core.SplitChunks(content, c.opts.ChunkSize)
	if err != nil {
		return nil, fmt.Errorf("failed to split input: %w", err)
	}
	chunkingTime := time.Since(startTime)

	workersUsed := len(chunks)
	if c.opts.MaxWorkers > 0 {
		workersUsed = min(workersUsed, c.opts.MaxWorkers)
	}

	tracer.Info(core.TraceComponentCoordinator, "Dispatching chunks", core.TraceContext(
		"input_bytes", len(content),
		"chunks", len(chunks),
		"max_workers", c.opts.MaxWorkers,
		"chunking_ms", chunkingTime.Milliseconds(),
	))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	merger := core.NewResultMerger()

	type fragmentResult struct {
		result *communication.FragmentResult
		err    error
	}
	resultChan := make(chan fragmentResult, len(chunks))

	var sem chan struct{}
	if c.opts.MaxWorkers > 0 {
		sem = make(chan struct{}, c.opts.MaxWorkers)
	}

	var wg sync.WaitGroup
	for _, chunk := range chunks {
		fragment := &communication.ChunkFragment{
			ID:    fmt.Sprintf("chunk-%d", chunk.Index),
			Chunk: chunk,
		}
		w := worker.NewWorker(fmt.Sprintf("worker-%d", chunk.Index), merger, c.metrics, c.opts.Aggregate)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if sem != nil {
				select {
				case sem <- struct{}{}:
					defer func() { <-sem }()
				case <-runCtx.Done():
					resultChan <- fragmentResult{err: runCtx.Err()}
					return
				}
			}
			result, err := w.ExecuteFragment(runCtx, fragment)
			if err != nil {
				cancel()
			}
			resultChan <- fragmentResult{result: result, err: err}
		}()
	}

	wg.Wait()
	close(resultChan)

	stats := communication.RunStats{
		TotalFragments: len(chunks),
		WorkersUsed:    workersUsed,
		FragmentStats:  make(map[string]communication.ExecutionStats, len(chunks)),
		ChunkingTime:   chunkingTime,
	}

	var firstErr error
	for fr := range resultChan {
		if fr.err != nil {
			// prefer the root cause over cancellations it triggered
			if firstErr == nil || isCancellation(firstErr) && !isCancellation(fr.err) {
				firstErr = fr.err
			}
			continue
		}
		stats.FragmentStats[fr.result.FragmentID] = fr.result.Stats
		stats.BytesRead += fr.result.Stats.BytesRead
		stats.RowsProcessed += fr.result.Stats.RowsProcessed
		stats.RowsSkipped += fr.result.Stats.RowsSkipped
	}
	if firstErr != nil {
		tracer.Error(core.TraceComponentCoordinator, "Run aborted", core.TraceContext(
			"error", firstErr.Error(),
			"elapsed_ms", time.Since(startTime).Milliseconds(),
		))
		return nil, firstErr
	}

	stats.TotalTime = time.Since(startTime)
	summary := merger.Summary()

	tracer.Info(core.TraceComponentCoordinator, "Run completed", core.TraceContext(
		"chunks", summary.Chunks,
		"keys", summary.Keys,
		"rows", summary.Rows,
		"skipped_rows", summary.Skipped.GetCardinality(),
		"total_ms", stats.TotalTime.Milliseconds(),
	))

	return &RunResult{
		Results: merger.Results(),
		Summary: summary,
		Stats:   stats,
	}, nil
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
