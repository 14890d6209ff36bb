package core

import (
	"bytes"
)

// Chunk is a row-aligned slice of the input handed to one worker.
// Data aliases the input buffer and must not be modified.
type Chunk struct {
	Index  int
	Offset int64 // position of Data[0] in the input
	Data   []byte
}

// SplitChunks walks content in windows of targetSize bytes and cuts each
// pending region (carried leftover plus the current window) at its last
// newline. The cut point is included in the emitted chunk; what follows is
// carried into the next window with leading newlines dropped. The final
// window emits everything still pending, so an unterminated last row stays
// attached to the last chunk.
//
// A pending region without any newline is carried forward whole until a
// newline or the end of input shows up, which keeps every row inside a
// single chunk even when targetSize is smaller than a row.
func SplitChunks(content []byte, targetSize int) ([]Chunk, error) {
	if targetSize <= 0 {
		return nil, ErrInvalidChunkSize
	}

	tracer := GetTracer()
	chunks := make([]Chunk, 0, len(content)/targetSize+1)

	emit := func(start, end int) {
		chunks = append(chunks, Chunk{
			Index:  len(chunks),
			Offset: int64(start),
			Data:   content[start:end:end],
		})
	}

	start := 0
	carried := 0 // newlines dropped at chunk starts
	for end := 0; end < len(content); {
		end = min(end+targetSize, len(content))

		if start > 0 {
			for start < end && content[start] == '\n' {
				start++
				carried++
			}
		}
		if start == end {
			continue
		}

		if end == len(content) {
			emit(start, end)
			break
		}

		nl := bytes.LastIndexByte(content[start:end], '\n')
		if nl < 0 {
			tracer.Verbose(TraceComponentChunker, "No row boundary in window, carrying forward", TraceContext(
				"offset", start,
				"pending_bytes", end-start,
			))
			continue
		}
		emit(start, start+nl+1)
		start += nl + 1
	}

	tracer.Debug(TraceComponentChunker, "Input split into chunks", TraceContext(
		"input_bytes", len(content),
		"target_size", targetSize,
		"chunks", len(chunks),
		"dropped_newlines", carried,
	))

	return chunks, nil
}
