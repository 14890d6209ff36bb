package core

import (
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// MergeStatistics folds partial into global key by key. Keys new to global
// are inserted as is; existing keys are replaced by the merged summary.
func MergeStatistics(global, partial map[string]Statistics) {
	for key, stats := range partial {
		if existing, ok := global[key]; ok {
			global[key] = existing.Merge(stats)
		} else {
			global[key] = stats
		}
	}
}

// ResultMerger owns the global mapping and serializes merges into it.
type ResultMerger struct {
	mu        sync.Mutex
	global    map[string]Statistics
	skipped   *roaring64.Bitmap
	rows      uint64
	malformed uint64
	emptyKeys uint64
	merged    int
}

// NewResultMerger creates an empty merger
func NewResultMerger() *ResultMerger {
	return &ResultMerger{
		global:  make(map[string]Statistics),
		skipped: roaring64.New(),
	}
}

// Merge folds one chunk's partial result into the global mapping. The lock
// is held only for the duration of the fold.
func (m *ResultMerger) Merge(partial *PartialResult) {
	if partial == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	MergeStatistics(m.global, partial.Stats)
	if partial.Skipped != nil {
		m.skipped.Or(partial.Skipped)
	}
	m.rows += partial.Rows
	m.malformed += partial.Malformed
	m.emptyKeys += partial.EmptyKeys
	m.merged++

	GetTracer().Verbose(TraceComponentMerge, "Partial result merged", TraceContext(
		"chunk", partial.ChunkIndex,
		"partial_keys", len(partial.Stats),
		"global_keys", len(m.global),
		"merged_chunks", m.merged,
	))
}

// Results returns the global mapping as a slice sorted by key.
func (m *ResultMerger) Results() []KeyStatistics {
	m.mu.Lock()
	defer m.mu.Unlock()

	results := make([]KeyStatistics, 0, len(m.global))
	for key, stats := range m.global {
		results = append(results, KeyStatistics{Key: key, Stats: stats})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Key < results[j].Key
	})
	return results
}

// MergeSummary describes the bookkeeping accumulated alongside the mapping.
type MergeSummary struct {
	Chunks    int
	Keys      int
	Rows      uint64
	Malformed uint64
	EmptyKeys uint64
	Skipped   *roaring64.Bitmap
}

// Summary returns a snapshot of the merger's counters. The bitmap is a copy.
func (m *ResultMerger) Summary() MergeSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	return MergeSummary{
		Chunks:    m.merged,
		Keys:      len(m.global),
		Rows:      m.rows,
		Malformed: m.malformed,
		EmptyKeys: m.emptyKeys,
		Skipped:   m.skipped.Clone(),
	}
}
