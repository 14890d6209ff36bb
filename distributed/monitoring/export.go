package monitoring

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Report formats accepted by Export
const (
	FormatText       = "text"
	FormatJSON       = "json"
	FormatPrometheus = "prometheus"
)

// Export writes the registry to w in the named format.
func (r *MetricsRegistry) Export(w io.Writer, format string) error {
	switch strings.ToLower(format) {
	case "", FormatText:
		return r.WriteReport(w)
	case FormatJSON:
		return r.WriteJSON(w)
	case FormatPrometheus:
		return r.WritePrometheus(w)
	}
	return fmt.Errorf("unknown metrics format %q", format)
}

// WriteJSON writes every metric as an indented JSON array.
func (r *MetricsRegistry) WriteJSON(w io.Writer) error {
	data, err := json.MarshalIndent(r.GetAllMetrics(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metrics: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// WritePrometheus writes metrics in the Prometheus text exposition format.
// Metric names get an onebrc_ prefix and histogram buckets are cumulative.
func (r *MetricsRegistry) WritePrometheus(w io.Writer) error {
	var b strings.Builder
	for _, metric := range r.GetAllMetrics() {
		name := "onebrc_" + metric.Name
		ts := metric.Timestamp.UnixMilli()

		switch metric.Type {
		case MetricTypeCounter, MetricTypeGauge:
			fmt.Fprintf(&b, "# TYPE %s %s\n", name, metric.Type)
			fmt.Fprintf(&b, "%s %v %d\n", name, metric.Value, ts)
		case MetricTypeHistogram:
			stats, ok := metric.Value.(HistogramStats)
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "# TYPE %s histogram\n", name)
			var cumulative int64
			for _, bound := range sortedBounds(stats.Buckets) {
				cumulative += stats.Buckets[bound]
				fmt.Fprintf(&b, "%s_bucket{le=\"%s\"} %d %d\n", name, bound, cumulative, ts)
			}
			fmt.Fprintf(&b, "%s_sum %f %d\n", name, stats.Sum, ts)
			fmt.Fprintf(&b, "%s_count %d %d\n", name, stats.Count, ts)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func sortedBounds(buckets map[string]int64) []string {
	bounds := make([]string, 0, len(buckets))
	for bound := range buckets {
		bounds = append(bounds, bound)
	}
	value := func(s string) float64 {
		if s == "+Inf" {
			return math.Inf(1)
		}
		v, _ := strconv.ParseFloat(s, 64)
		return v
	}
	sort.Slice(bounds, func(i, j int) bool {
		return value(bounds[i]) < value(bounds[j])
	})
	return bounds
}
