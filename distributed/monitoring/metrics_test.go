package monitoring

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestHistogramMetric(t *testing.T) {
	h := NewHistogramMetric([]float64{10, 1, 5})
	for _, v := range []float64{0.5, 1, 3, 7, 12, 40} {
		h.Observe(v)
	}

	stats := h.GetStats()
	if stats.Count != 6 {
		t.Errorf("Expected count 6, got %d", stats.Count)
	}
	if stats.Sum != 63.5 {
		t.Errorf("Expected sum 63.5, got %v", stats.Sum)
	}

	want := map[string]int64{"1": 2, "5": 1, "10": 1, "+Inf": 2}
	for bucket, count := range want {
		if stats.Buckets[bucket] != count {
			t.Errorf("Bucket %s: expected %d, got %d", bucket, count, stats.Buckets[bucket])
		}
	}

	h.ObserveDuration(2500 * time.Microsecond)
	if got := h.GetStats().Buckets["5"]; got != 2 {
		t.Errorf("Expected 2.5ms to land in the 5ms bucket, got %d", got)
	}
}

func TestGaugeMetric(t *testing.T) {
	var g GaugeMetric
	if got := g.Add(3); got != 3 {
		t.Errorf("Expected 3 after Add, got %v", got)
	}
	g.SetMax(2)
	if g.Get() != 3 {
		t.Errorf("SetMax must not lower the gauge, got %v", g.Get())
	}
	g.SetMax(7)
	if g.Get() != 7 {
		t.Errorf("Expected 7 after SetMax, got %v", g.Get())
	}
	g.Set(1)
	if g.Get() != 1 {
		t.Errorf("Expected 1 after Set, got %v", g.Get())
	}
}

func TestMetricsRegistry(t *testing.T) {
	registry := NewMetricsRegistry()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				registry.Counter(MetricRowsProcessed).Inc()
			}
		}()
	}
	wg.Wait()

	if got := registry.Counter(MetricRowsProcessed).Get(); got != 800 {
		t.Errorf("Expected 800, got %d", got)
	}
	if registry.Histogram(MetricChunkDuration, DurationBuckets) != registry.Histogram(MetricChunkDuration, nil) {
		t.Error("Expected the same histogram for the same name")
	}

	registry.Gauge(MetricPeakWorkers).Set(4)
	registry.Histogram(MetricChunkDuration, nil).Observe(2)

	metrics := registry.GetAllMetrics()
	if len(metrics) != 3 {
		t.Fatalf("Expected 3 metrics, got %d", len(metrics))
	}
	for i := 1; i < len(metrics); i++ {
		if metrics[i-1].Name > metrics[i].Name {
			t.Errorf("Metrics not sorted: %s before %s", metrics[i-1].Name, metrics[i].Name)
		}
	}

	var buf bytes.Buffer
	if err := registry.WriteReport(&buf); err != nil {
		t.Fatalf("WriteReport failed: %v", err)
	}
	want := []string{
		"chunk_duration_ms: count=1 mean=2.000 sum=2.000",
		"peak_workers: 4",
		"rows_processed: 800",
	}
	got := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Unexpected report:\n%s", buf.String())
	}
}

func TestMetricsExport(t *testing.T) {
	registry := NewMetricsRegistry()
	registry.Counter(MetricChunksProcessed).Add(3)
	h := registry.Histogram(MetricMergeWait, []float64{1, 10})
	h.Observe(0.5)
	h.Observe(4)
	h.Observe(50)

	var prom bytes.Buffer
	if err := registry.Export(&prom, FormatPrometheus); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	for _, want := range []string{
		"# TYPE onebrc_chunks_processed counter\n",
		"onebrc_chunks_processed 3 ",
		"# TYPE onebrc_merge_wait_ms histogram\n",
		`onebrc_merge_wait_ms_bucket{le="1"} 1 `,
		`onebrc_merge_wait_ms_bucket{le="10"} 2 `,
		`onebrc_merge_wait_ms_bucket{le="+Inf"} 3 `,
		"onebrc_merge_wait_ms_count 3 ",
	} {
		if !strings.Contains(prom.String(), want) {
			t.Errorf("Expected %q in:\n%s", want, prom.String())
		}
	}

	var js bytes.Buffer
	if err := registry.Export(&js, FormatJSON); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	var decoded []Metric
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Fatalf("Invalid JSON export: %v", err)
	}
	if len(decoded) != 2 || decoded[0].Name != MetricChunksProcessed {
		t.Errorf("Unexpected JSON metrics: %+v", decoded)
	}

	if err := registry.Export(&js, "xml"); err == nil {
		t.Error("Expected an error for an unknown format")
	}
}
