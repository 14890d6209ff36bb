package core

import (
	"strconv"
	"strings"
)

// FormatResults renders sorted results as {key=min/mean/max, ...} with one
// fractional digit per number.
func FormatResults(results []KeyStatistics) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, r := range results {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(r.Key)
		b.WriteByte('=')
		b.WriteString(formatValue(r.Stats.Min))
		b.WriteByte('/')
		b.WriteString(formatValue(r.Stats.Mean))
		b.WriteByte('/')
		b.WriteString(formatValue(r.Stats.Max))
	}
	b.WriteByte('}')
	return b.String()
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
