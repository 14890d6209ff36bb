package monitoring

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"
	"time"
)

// MetricType represents different types of metrics
type MetricType string

const (
	MetricTypeCounter   MetricType = "counter"
	MetricTypeGauge     MetricType = "gauge"
	MetricTypeHistogram MetricType = "histogram"
)

// Metric names recorded during a run
const (
	MetricChunksProcessed = "chunks_processed"
	MetricChunksFailed    = "chunks_failed"
	MetricRowsProcessed   = "rows_processed"
	MetricRowsSkipped     = "rows_skipped"
	MetricBytesRead       = "bytes_read"
	MetricActiveWorkers   = "active_workers"
	MetricPeakWorkers     = "peak_workers"
	MetricChunkDuration   = "chunk_duration_ms"
	MetricMergeWait       = "merge_wait_ms"
)

// DurationBuckets are histogram bounds, in milliseconds, for chunk timings
var DurationBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

// Metric is a point-in-time reading of one registered metric
type Metric struct {
	Name      string      `json:"name"`
	Type      MetricType  `json:"type"`
	Value     interface{} `json:"value"`
	Timestamp time.Time   `json:"timestamp"`
	Unit      string      `json:"unit"`
}

// CounterMetric tracks incremental values
type CounterMetric struct {
	mu    sync.RWMutex
	value int64
}

func (c *CounterMetric) Inc() {
	c.Add(1)
}

func (c *CounterMetric) Add(delta int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value += delta
}

func (c *CounterMetric) Get() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// GaugeMetric tracks point-in-time values
type GaugeMetric struct {
	mu    sync.RWMutex
	value float64
}

func (g *GaugeMetric) Set(value float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.value = value
}

// Add shifts the gauge by delta and returns the new value.
func (g *GaugeMetric) Add(delta float64) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.value += delta
	return g.value
}

// SetMax raises the gauge to value if value is larger.
func (g *GaugeMetric) SetMax(value float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.value = max(g.value, value)
}

func (g *GaugeMetric) Get() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.value
}

// HistogramMetric tracks distribution of values
type HistogramMetric struct {
	mu      sync.RWMutex
	buckets []float64
	counts  []int64
	sum     float64
	count   int64
}

func NewHistogramMetric(buckets []float64) *HistogramMetric {
	sorted := append([]float64(nil), buckets...)
	sort.Float64s(sorted)
	return &HistogramMetric{
		buckets: sorted,
		counts:  make([]int64, len(sorted)+1), // +1 for +Inf bucket
	}
}

func (h *HistogramMetric) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sum += value
	h.count++

	for i, bucket := range h.buckets {
		if value <= bucket {
			h.counts[i]++
			return
		}
	}
	h.counts[len(h.buckets)]++
}

// ObserveDuration records d in milliseconds.
func (h *HistogramMetric) ObserveDuration(d time.Duration) {
	h.Observe(float64(d) / float64(time.Millisecond))
}

// HistogramStats summarizes a histogram
type HistogramStats struct {
	Count   int64            `json:"count"`
	Sum     float64          `json:"sum"`
	Mean    float64          `json:"mean"`
	Buckets map[string]int64 `json:"buckets"`
}

func (h *HistogramMetric) GetStats() HistogramStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := HistogramStats{
		Count:   h.count,
		Sum:     h.sum,
		Buckets: make(map[string]int64),
	}
	if h.count > 0 {
		stats.Mean = h.sum / float64(h.count)
	}
	for i, bucket := range h.buckets {
		stats.Buckets[strconv.FormatFloat(bucket, 'f', -1, 64)] = h.counts[i]
	}
	stats.Buckets["+Inf"] = h.counts[len(h.buckets)]

	return stats
}

// MetricsRegistry holds the metrics of one run
type MetricsRegistry struct {
	mu         sync.RWMutex
	counters   map[string]*CounterMetric
	gauges     map[string]*GaugeMetric
	histograms map[string]*HistogramMetric
}

func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		counters:   make(map[string]*CounterMetric),
		gauges:     make(map[string]*GaugeMetric),
		histograms: make(map[string]*HistogramMetric),
	}
}

func (r *MetricsRegistry) Counter(name string) *CounterMetric {
	r.mu.Lock()
	defer r.mu.Unlock()

	if counter, exists := r.counters[name]; exists {
		return counter
	}
	counter := &CounterMetric{}
	r.counters[name] = counter
	return counter
}

func (r *MetricsRegistry) Gauge(name string) *GaugeMetric {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gauge, exists := r.gauges[name]; exists {
		return gauge
	}
	gauge := &GaugeMetric{}
	r.gauges[name] = gauge
	return gauge
}

// Histogram returns the named histogram, creating it with buckets on first use.
func (r *MetricsRegistry) Histogram(name string, buckets []float64) *HistogramMetric {
	r.mu.Lock()
	defer r.mu.Unlock()

	if histogram, exists := r.histograms[name]; exists {
		return histogram
	}
	histogram := NewHistogramMetric(buckets)
	r.histograms[name] = histogram
	return histogram
}

// GetAllMetrics returns every metric sorted by name.
func (r *MetricsRegistry) GetAllMetrics() []Metric {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var metrics []Metric
	now := time.Now()

	for name, counter := range r.counters {
		metrics = append(metrics, Metric{
			Name:      name,
			Type:      MetricTypeCounter,
			Value:     counter.Get(),
			Timestamp: now,
			Unit:      "count",
		})
	}
	for name, gauge := range r.gauges {
		metrics = append(metrics, Metric{
			Name:      name,
			Type:      MetricTypeGauge,
			Value:     gauge.Get(),
			Timestamp: now,
			Unit:      "value",
		})
	}
	for name, histogram := range r.histograms {
		metrics = append(metrics, Metric{
			Name:      name,
			Type:      MetricTypeHistogram,
			Value:     histogram.GetStats(),
			Timestamp: now,
			Unit:      "milliseconds",
		})
	}

	sort.Slice(metrics, func(i, j int) bool {
		return metrics[i].Name < metrics[j].Name
	})
	return metrics
}

// WriteReport prints one line per metric to w.
func (r *MetricsRegistry) WriteReport(w io.Writer) error {
	for _, m := range r.GetAllMetrics() {
		var err error
		switch v := m.Value.(type) {
		case HistogramStats:
			_, err = fmt.Fprintf(w, "%s: count=%d mean=%.3f sum=%.3f\n", m.Name, v.Count, v.Mean, v.Sum)
		default:
			_, err = fmt.Fprintf(w, "%s: %v\n", m.Name, v)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
