package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"onebrc/core"
	"onebrc/distributed/monitoring"
)

// DefaultChunkSize is the target chunk size used when none is configured.
const DefaultChunkSize = 32 * 1024 * 1024

// Config holds the settings of one onebrc run
type Config struct {
	Input           string `json:"input"`
	ChunkSize       int    `json:"chunk_size"`
	MaxWorkers      int    `json:"max_workers"`
	ParquetOut      string `json:"parquet_out"`
	TraceLevel      string `json:"trace_level"`
	TraceComponents string `json:"trace_components"`
	ShowStats       bool   `json:"show_stats"`
	StatsFormat     string `json:"stats_format"`
}

// fileConfig mirrors Config but lets chunk_size be a number or a size string
type fileConfig struct {
	Input           *string          `json:"input"`
	ChunkSize       *json.RawMessage `json:"chunk_size"`
	MaxWorkers      *int             `json:"max_workers"`
	ParquetOut      *string          `json:"parquet_out"`
	TraceLevel      *string          `json:"trace_level"`
	TraceComponents *string          `json:"trace_components"`
	ShowStats       *bool            `json:"show_stats"`
	StatsFormat     *string          `json:"stats_format"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Input:       "measurements.txt",
		ChunkSize:   DefaultChunkSize,
		MaxWorkers:  0,
		TraceLevel:  "WARN",
		StatsFormat: monitoring.FormatText,
	}
}

// LoadFile overlays the JSON file at path onto c. Keys absent from the
// file leave c untouched.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if fc.Input != nil {
		c.Input = *fc.Input
	}
	if fc.ChunkSize != nil {
		size, err := parseRawSize(*fc.ChunkSize)
		if err != nil {
			return fmt.Errorf("config file %s: chunk_size: %w", path, err)
		}
		c.ChunkSize = size
	}
	if fc.MaxWorkers != nil {
		c.MaxWorkers = *fc.MaxWorkers
	}
	if fc.ParquetOut != nil {
		c.ParquetOut = *fc.ParquetOut
	}
	if fc.TraceLevel != nil {
		c.TraceLevel = *fc.TraceLevel
	}
	if fc.TraceComponents != nil {
		c.TraceComponents = *fc.TraceComponents
	}
	if fc.ShowStats != nil {
		c.ShowStats = *fc.ShowStats
	}
	if fc.StatsFormat != nil {
		c.StatsFormat = *fc.StatsFormat
	}

	core.GetTracer().Debug(core.TraceComponentConfig, "Loaded config file", core.TraceContext("path", path))
	return nil
}

func parseRawSize(raw json.RawMessage) (int, error) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("expected a number or size string, got %s", string(raw))
	}
	return ParseSize(s)
}

// ApplyEnv overlays ONEBRC_INPUT, ONEBRC_CHUNK_SIZE, ONEBRC_MAX_WORKERS,
// ONEBRC_PARQUET_OUT, ONEBRC_TRACE_LEVEL and ONEBRC_TRACE_COMPONENTS.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("ONEBRC_INPUT"); ok && v != "" {
		c.Input = v
	}
	if v, ok := lookup("ONEBRC_CHUNK_SIZE"); ok && v != "" {
		size, err := ParseSize(v)
		if err != nil {
			return fmt.Errorf("ONEBRC_CHUNK_SIZE: %w", err)
		}
		c.ChunkSize = size
	}
	if v, ok := lookup("ONEBRC_MAX_WORKERS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ONEBRC_MAX_WORKERS: %w", err)
		}
		c.MaxWorkers = n
	}
	if v, ok := lookup("ONEBRC_PARQUET_OUT"); ok && v != "" {
		c.ParquetOut = v
	}
	if v, ok := lookup("ONEBRC_TRACE_LEVEL"); ok && v != "" {
		c.TraceLevel = v
	}
	if v, ok := lookup("ONEBRC_TRACE_COMPONENTS"); ok && v != "" {
		c.TraceComponents = v
	}
	return nil
}

// Validate checks the configuration for values the pipeline rejects.
func (c *Config) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("input path must not be empty")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: %d", core.ErrInvalidChunkSize, c.ChunkSize)
	}
	if c.MaxWorkers < 0 {
		return fmt.Errorf("max workers must not be negative: %d", c.MaxWorkers)
	}
	if c.TraceLevel != "" {
		if _, err := core.ParseTraceLevel(c.TraceLevel); err != nil {
			return err
		}
	}
	switch strings.ToLower(c.StatsFormat) {
	case "", monitoring.FormatText, monitoring.FormatJSON, monitoring.FormatPrometheus:
	default:
		return fmt.Errorf("unknown stats format %q", c.StatsFormat)
	}
	return nil
}

// ApplyTracing pushes the trace settings to the global tracer.
func (c *Config) ApplyTracing() error {
	tracer := core.GetTracer()
	if c.TraceLevel != "" {
		level, err := core.ParseTraceLevel(c.TraceLevel)
		if err != nil {
			return err
		}
		tracer.SetLevel(level)
	}
	if c.TraceComponents != "" {
		tracer.SetComponents(c.TraceComponents)
	}
	return nil
}

// ParseSize parses a byte count with an optional binary suffix:
// K/KB/KiB, M/MB/MiB or G/GB/GiB (all powers of 1024).
func ParseSize(s string) (int, error) {
	str := strings.ToUpper(strings.TrimSpace(s))
	multiplier := 1
	for _, suffix := range []struct {
		names []string
		mult  int
	}{
		{[]string{"GIB", "GB", "G"}, 1 << 30},
		{[]string{"MIB", "MB", "M"}, 1 << 20},
		{[]string{"KIB", "KB", "K"}, 1 << 10},
		{[]string{"B"}, 1},
	} {
		matched := false
		for _, name := range suffix.names {
			if strings.HasSuffix(str, name) {
				str = strings.TrimSpace(strings.TrimSuffix(str, name))
				multiplier = suffix.mult
				matched = true
				break
			}
		}
		if matched {
			break
		}
	}

	n, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid size %q: negative", s)
	}
	if n > math.MaxInt/multiplier {
		return 0, fmt.Errorf("invalid size %q: too large", s)
	}
	return n * multiplier, nil
}
