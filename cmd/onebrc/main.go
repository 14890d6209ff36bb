package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"onebrc/config"
	"onebrc/core"
	"onebrc/distributed/coordinator"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one aggregation and returns the process exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := loadConfig(args, stderr)
	if err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	content, err := core.LoadInput(cfg.Input)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	coord := coordinator.New(coordinator.Options{
		ChunkSize:  cfg.ChunkSize,
		MaxWorkers: cfg.MaxWorkers,
	})
	result, err := coord.Run(ctx, content)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	if cfg.ParquetOut != "" {
		if err := core.ExportParquetFile(cfg.ParquetOut, result.Results); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
	}

	fmt.Fprintln(stdout, core.FormatResults(result.Results))

	if cfg.ShowStats {
		fmt.Fprintf(stderr, "chunks: %d, workers: %d, rows: %d, skipped: %d, total: %s\n",
			result.Stats.TotalFragments, result.Stats.WorkersUsed,
			result.Stats.RowsProcessed, result.Stats.RowsSkipped, result.Stats.TotalTime)
		if err := coord.Metrics().Export(stderr, cfg.StatsFormat); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
	}
	return 0
}

// loadConfig layers defaults, the optional JSON file, the environment and
// explicitly set flags, in that order.
func loadConfig(args []string, stderr io.Writer) (*config.Config, error) {
	fs := flag.NewFlagSet("onebrc", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configPath      = fs.String("config", "", "Path to a JSON config file")
		input           = fs.String("input", "", "Input file path or http(s) URL")
		chunkSize       = fs.String("chunk-size", "", "Target chunk size, e.g. 32MiB")
		maxWorkers      = fs.Int("max-workers", 0, "Maximum concurrent workers (0 = one per chunk)")
		parquetOut      = fs.String("parquet-out", "", "Also write results to this Parquet file")
		traceLevel      = fs.String("trace-level", "", "Trace level: OFF, ERROR, WARN, INFO, DEBUG, VERBOSE")
		traceComponents = fs.String("trace-components", "", "Comma-separated trace components or ALL")
		showStats       = fs.Bool("stats", false, "Print run statistics to stderr")
		statsFormat     = fs.String("stats-format", "", "Metrics format for -stats: text, json or prometheus")
	)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: onebrc [flags] [input]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := config.Default()
	if *configPath != "" {
		if err := cfg.LoadFile(*configPath); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.Input = *input
		case "chunk-size":
			size, err := config.ParseSize(*chunkSize)
			if err != nil && flagErr == nil {
				flagErr = fmt.Errorf("-chunk-size: %w", err)
			}
			cfg.ChunkSize = size
		case "max-workers":
			cfg.MaxWorkers = *maxWorkers
		case "parquet-out":
			cfg.ParquetOut = *parquetOut
		case "trace-level":
			cfg.TraceLevel = *traceLevel
		case "trace-components":
			cfg.TraceComponents = *traceComponents
		case "stats":
			cfg.ShowStats = *showStats
		case "stats-format":
			cfg.StatsFormat = *statsFormat
		}
	})
	if flagErr != nil {
		return nil, flagErr
	}
	if fs.NArg() > 1 {
		return nil, fmt.Errorf("expected at most one input argument, got %d", fs.NArg())
	}
	if fs.NArg() == 1 {
		cfg.Input = fs.Arg(0)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.ApplyTracing(); err != nil {
		return nil, err
	}
	return cfg, nil
}
