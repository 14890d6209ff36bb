package worker

import (
	"context"
	"errors"
	"testing"

	"onebrc/core"
	"onebrc/distributed/communication"
	"onebrc/distributed/monitoring"
)

func fragmentOf(id, data string) *communication.ChunkFragment {
	return &communication.ChunkFragment{ID: id, Chunk: core.Chunk{Data: []byte(data)}}
}

func TestWorkerExecuteFragment(t *testing.T) {
	merger := core.NewResultMerger()
	metrics := monitoring.NewMetricsRegistry()
	w := NewWorker("worker-1", merger, metrics, nil)

	result, err := w.ExecuteFragment(context.Background(), fragmentOf("chunk-0", "A;10.0\nB;5.0\nbad\nA;20.0\n"))
	if err != nil {
		t.Fatalf("ExecuteFragment failed: %v", err)
	}

	if result.FragmentID != "chunk-0" || result.WorkerID != "worker-1" {
		t.Errorf("Unexpected result identity: %+v", result)
	}
	if result.Keys != 2 || result.Stats.RowsProcessed != 3 || result.Stats.RowsSkipped != 1 {
		t.Errorf("Unexpected result stats: %+v", result)
	}

	if got := core.FormatResults(merger.Results()); got != "{A=10.0/15.0/20.0, B=5.0/5.0/5.0}" {
		t.Errorf("Unexpected merged results: %s", got)
	}

	if got := metrics.Counter(monitoring.MetricChunksProcessed).Get(); got != 1 {
		t.Errorf("Expected 1 processed chunk, got %d", got)
	}
	if got := metrics.Counter(monitoring.MetricRowsProcessed).Get(); got != 3 {
		t.Errorf("Expected 3 processed rows, got %d", got)
	}
	if got := metrics.Gauge(monitoring.MetricActiveWorkers).Get(); got != 0 {
		t.Errorf("Expected no active workers after completion, got %v", got)
	}
	if got := metrics.Gauge(monitoring.MetricPeakWorkers).Get(); got != 1 {
		t.Errorf("Expected peak of 1 worker, got %v", got)
	}
}

func TestWorkerFailures(t *testing.T) {
	t.Run("unparsable value", func(t *testing.T) {
		merger := core.NewResultMerger()
		metrics := monitoring.NewMetricsRegistry()
		w := NewWorker("worker-1", merger, metrics, nil)

		_, err := w.ExecuteFragment(context.Background(), fragmentOf("chunk-0", "A;1.0\nA;oops\n"))
		if !errors.Is(err, core.ErrUnparsableValue) {
			t.Fatalf("Expected ErrUnparsableValue, got %v", err)
		}
		if len(merger.Results()) != 0 {
			t.Error("Failed fragment must not reach the merger")
		}
		if got := metrics.Counter(monitoring.MetricChunksFailed).Get(); got != 1 {
			t.Errorf("Expected 1 failed chunk, got %d", got)
		}
	})

	t.Run("panic is recovered", func(t *testing.T) {
		panicking := func(core.Chunk) (*core.PartialResult, error) {
			panic("boom")
		}
		w := NewWorker("worker-2", core.NewResultMerger(), nil, panicking)

		_, err := w.ExecuteFragment(context.Background(), fragmentOf("chunk-3", "A;1\n"))
		if !errors.Is(err, core.ErrWorkerPanic) {
			t.Fatalf("Expected ErrWorkerPanic, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		merger := core.NewResultMerger()
		w := NewWorker("worker-3", merger, nil, nil)

		_, err := w.ExecuteFragment(ctx, fragmentOf("chunk-0", "A;1\n"))
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Expected context.Canceled, got %v", err)
		}
		if len(merger.Results()) != 0 {
			t.Error("Cancelled fragment must not reach the merger")
		}
	})
}
