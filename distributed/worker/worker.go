package worker

import (
	"context"
	"fmt"
	"time"

	"onebrc/core"
	"onebrc/distributed/communication"
	"onebrc/distributed/monitoring"
)

// Worker aggregates a chunk fragment and merges the partial result into
// the shared merger.
type Worker struct {
	id        string
	merger    *core.ResultMerger
	metrics   *monitoring.MetricsRegistry
	aggregate core.AggregateFunc
}

// NewWorker creates a worker that merges into merger. A nil aggregate uses
// core.AggregateChunk; a nil registry gets a private one.
func NewWorker(id string, merger *core.ResultMerger, metrics *monitoring.MetricsRegistry, aggregate core.AggregateFunc) *Worker {
	if aggregate == nil {
		aggregate = core.AggregateChunk
	}
	if metrics == nil {
		metrics = monitoring.NewMetricsRegistry()
	}
	return &Worker{
		id:        id,
		merger:    merger,
		metrics:   metrics,
		aggregate: aggregate,
	}
}

// ID returns the worker identifier
func (w *Worker) ID() string {
	return w.id
}

// ExecuteFragment parses the fragment with no lock held, then merges it.
// A panic during aggregation is returned as an error wrapping
// core.ErrWorkerPanic.
func (w *Worker) ExecuteFragment(ctx context.Context, fragment *communication.ChunkFragment) (result *communication.FragmentResult, err error) {
	startTime := time.Now()
	tracer := core.GetTracer()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	active := w.metrics.Gauge(monitoring.MetricActiveWorkers)
	w.metrics.Gauge(monitoring.MetricPeakWorkers).SetMax(active.Add(1))
	defer active.Add(-1)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: fragment %s: %v", core.ErrWorkerPanic, fragment.ID, r)
		}
		if err != nil {
			w.metrics.Counter(monitoring.MetricChunksFailed).Inc()
			tracer.Error(core.TraceComponentWorker, "Fragment execution failed", core.TraceContext(
				"workerID", w.id,
				"fragmentID", fragment.ID,
				"error", err.Error(),
				"duration", time.Since(startTime),
			))
		}
	}()

	tracer.Debug(core.TraceComponentWorker, "Executing chunk fragment", core.TraceContext(
		"workerID", w.id,
		"fragmentID", fragment.ID,
		"offset", fragment.Chunk.Offset,
		"bytes", len(fragment.Chunk.Data),
	))

	partial, err := w.aggregate(fragment.Chunk)
	if err != nil {
		return nil, fmt.Errorf("fragment %s: %w", fragment.ID, err)
	}

	mergeStart := time.Now()
	w.merger.Merge(partial)
	mergeWait := time.Since(mergeStart)

	stats := communication.ExecutionStats{
		Duration:      time.Since(startTime),
		MergeWait:     mergeWait,
		RowsProcessed: partial.Rows,
		RowsSkipped:   partial.Malformed + partial.EmptyKeys,
		BytesRead:     int64(len(fragment.Chunk.Data)),
	}

	w.metrics.Counter(monitoring.MetricChunksProcessed).Inc()
	w.metrics.Counter(monitoring.MetricRowsProcessed).Add(int64(stats.RowsProcessed))
	w.metrics.Counter(monitoring.MetricRowsSkipped).Add(int64(stats.RowsSkipped))
	w.metrics.Counter(monitoring.MetricBytesRead).Add(stats.BytesRead)
	w.metrics.Histogram(monitoring.MetricChunkDuration, monitoring.DurationBuckets).ObserveDuration(stats.Duration)
	w.metrics.Histogram(monitoring.MetricMergeWait, monitoring.DurationBuckets).ObserveDuration(mergeWait)

	tracer.Debug(core.TraceComponentWorker, "Fragment execution completed", core.TraceContext(
		"workerID", w.id,
		"fragmentID", fragment.ID,
		"duration", stats.Duration,
		"mergeWait", mergeWait,
		"rows", stats.RowsProcessed,
		"keys", len(partial.Stats),
	))

	return &communication.FragmentResult{
		FragmentID: fragment.ID,
		WorkerID:   w.id,
		Keys:       len(partial.Stats),
		Stats:      stats,
	}, nil
}
