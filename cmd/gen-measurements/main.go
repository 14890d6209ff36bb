package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"onebrc/core"
)

func main() {
	var (
		rows   = flag.Int("rows", 1_000_000, "Number of rows to generate")
		seed   = flag.Int64("seed", time.Now().UnixNano(), "Random seed")
		out    = flag.String("out", "measurements.txt", "Output file path")
		stddev = flag.Float64("stddev", 10, "Standard deviation around each station mean")
	)
	flag.Parse()

	file, err := os.Create(*out)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}

	opts := core.GeneratorOptions{Rows: *rows, Seed: *seed, StdDev: *stddev}
	if err := core.GenerateMeasurements(file, opts); err != nil {
		file.Close()
		log.Fatalf("Failed to generate measurements: %v", err)
	}
	if err := file.Close(); err != nil {
		log.Fatalf("Failed to close output file: %v", err)
	}

	fmt.Printf("Wrote %d measurements to %s (seed %d)\n", *rows, *out, *seed)
}
