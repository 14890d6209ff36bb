package communication

import (
	"time"

	"onebrc/core"
)

// ChunkFragment is one chunk of input dispatched to a worker
type ChunkFragment struct {
	ID    string     `json:"id"`
	Chunk core.Chunk `json:"-"`
}

// FragmentResult describes a fragment after its partial result was merged
type FragmentResult struct {
	FragmentID string         `json:"fragment_id"`
	WorkerID   string         `json:"worker_id"`
	Keys       int            `json:"keys"`
	Stats      ExecutionStats `json:"stats"`
}

// ExecutionStats provides per-fragment execution statistics
type ExecutionStats struct {
	Duration      time.Duration `json:"duration"`
	MergeWait     time.Duration `json:"merge_wait"`
	RowsProcessed uint64        `json:"rows_processed"`
	RowsSkipped   uint64        `json:"rows_skipped"`
	BytesRead     int64         `json:"bytes_read"`
}

// RunStats provides run-wide execution statistics
type RunStats struct {
	TotalFragments int                       `json:"total_fragments"`
	WorkersUsed    int                       `json:"workers_used"`
	BytesRead      int64                     `json:"bytes_read"`
	RowsProcessed  uint64                    `json:"rows_processed"`
	RowsSkipped    uint64                    `json:"rows_skipped"`
	FragmentStats  map[string]ExecutionStats `json:"fragment_stats"`
	ChunkingTime   time.Duration             `json:"chunking_time"`
	TotalTime      time.Duration             `json:"total_time"`
}
