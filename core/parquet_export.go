package core

import (
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"
)

// StationRow is the Parquet layout of one result entry
type StationRow struct {
	Station string  `parquet:"station"`
	Min     float64 `parquet:"min"`
	Mean    float64 `parquet:"mean"`
	Max     float64 `parquet:"max"`
	Count   int64   `parquet:"count"`
}

// WriteParquet writes results, in the given order, as Parquet rows to w.
func WriteParquet(w io.Writer, results []KeyStatistics) error {
	rows := make([]StationRow, len(results))
	for i, r := range results {
		rows[i] = StationRow{
			Station: r.Key,
			Min:     r.Stats.Min,
			Mean:    r.Stats.Mean,
			Max:     r.Stats.Max,
			Count:   int64(r.Stats.Count),
		}
	}

	writer := parquet.NewGenericWriter[StationRow](w)
	if _, err := writer.Write(rows); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ExportParquetFile creates path and writes results into it.
func ExportParquetFile(path string, results []KeyStatistics) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}

	if err := WriteParquet(file, results); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close parquet file: %w", err)
	}

	GetTracer().Info(TraceComponentExport, "Results exported", TraceContext(
		"path", path,
		"rows", len(results),
	))
	return nil
}
