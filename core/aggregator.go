package core

import (
	"bytes"
	"math"
	"strconv"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// PartialResult is the local aggregation of one chunk.
type PartialResult struct {
	ChunkIndex int
	Stats      map[string]Statistics
	Rows       uint64 // rows that contributed a value
	Malformed  uint64 // rows without exactly one ';'
	EmptyKeys  uint64 // rows with an empty key
	Skipped    *roaring64.Bitmap
}

// AggregateFunc computes the partial result of one chunk.
type AggregateFunc func(chunk Chunk) (*PartialResult, error)

const fieldDelimiter = ';'

// AggregateChunk parses every row of chunk and summarizes values per key.
//
// Rows that do not split into exactly two fields are skipped silently and
// rows with an empty key are skipped with a warning; both have their input
// offset recorded in Skipped. Blank rows are ignored. A value that does not
// parse as a finite float aborts the chunk with a *RowError.
func AggregateChunk(chunk Chunk) (*PartialResult, error) {
	tracer := GetTracer()
	accs := make(map[string]*accumulator)
	result := &PartialResult{
		ChunkIndex: chunk.Index,
		Skipped:    roaring64.New(),
	}

	data := chunk.Data
	pos := chunk.Offset
	for len(data) > 0 {
		var row []byte
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			row, data = data[:i], data[i+1:]
		} else {
			row, data = data, nil
		}
		rowOffset := pos
		pos += int64(len(row)) + 1

		if len(row) == 0 {
			continue
		}

		sep := bytes.IndexByte(row, fieldDelimiter)
		if sep < 0 || bytes.IndexByte(row[sep+1:], fieldDelimiter) >= 0 {
			result.Malformed++
			result.Skipped.Add(uint64(rowOffset))
			continue
		}

		key, field := row[:sep], row[sep+1:]
		if len(key) == 0 {
			result.EmptyKeys++
			result.Skipped.Add(uint64(rowOffset))
			tracer.Warn(TraceComponentAggregate, "Skipping row with empty key", TraceContext(
				"chunk", chunk.Index,
				"offset", rowOffset,
			))
			continue
		}

		value, err := parseValue(field)
		if err != nil {
			return nil, &RowError{Offset: rowOffset, Row: string(row), Err: err}
		}

		acc, ok := accs[string(key)]
		if !ok {
			acc = &accumulator{}
			accs[string(key)] = acc
		}
		acc.add(value)
		result.Rows++
	}

	result.Stats = make(map[string]Statistics, len(accs))
	for key, acc := range accs {
		result.Stats[key] = acc.statistics()
	}

	tracer.Verbose(TraceComponentAggregate, "Chunk aggregated", TraceContext(
		"chunk", chunk.Index,
		"bytes", len(chunk.Data),
		"keys", len(result.Stats),
		"rows", result.Rows,
		"malformed", result.Malformed,
		"empty_keys", result.EmptyKeys,
	))

	return result, nil
}

// parseValue accepts an optional sign, decimal digits and an optional
// fractional part. Exponents, hex, underscores and NaN/Inf are rejected.
func parseValue(field []byte) (float64, error) {
	if !isDecimal(field) {
		return 0, ErrUnparsableValue
	}
	value, err := strconv.ParseFloat(string(field), 64)
	if err != nil {
		return 0, ErrUnparsableValue
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, ErrUnparsableValue
	}
	return value, nil
}

func isDecimal(field []byte) bool {
	if len(field) > 0 && (field[0] == '-' || field[0] == '+') {
		field = field[1:]
	}
	digits, dot := 0, false
	for _, c := range field {
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == '.' && !dot:
			dot = true
		default:
			return false
		}
	}
	return digits > 0
}
