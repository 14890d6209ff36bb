package core

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"howett.net/ranger"
)

// IsHTTPURL reports whether path names an http or https resource
func IsHTTPURL(path string) bool {
	u, err := url.Parse(path)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// LoadInput reads the whole input into memory, fetching http(s) URLs with
// range requests and decoding .gz, .sz and .zst payloads by suffix.
func LoadInput(path string) ([]byte, error) {
	tracer := GetTracer()
	startTime := time.Now()

	var (
		raw []byte
		err error
	)
	if IsHTTPURL(path) {
		raw, err = loadHTTPInput(path)
	} else {
		raw, err = loadLocalInput(path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputUnavailable, err)
	}

	ct := DetectCompression(path)
	decompressor, err := NewDecompressor(ct)
	if err != nil {
		return nil, err
	}
	content, err := decompressor.Decompress(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s input: %v", ErrInputUnavailable, ct, err)
	}

	tracer.Info(TraceComponentInput, "Input loaded", TraceContext(
		"path", path,
		"compression", ct.String(),
		"raw_bytes", len(raw),
		"bytes", len(content),
		"elapsed_ms", time.Since(startTime).Milliseconds(),
	))

	return content, nil
}

func loadLocalInput(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

func loadHTTPInput(urlStr string) ([]byte, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	httpRanger := &ranger.HTTPRanger{URL: parsedURL}
	reader, err := ranger.NewReader(httpRanger)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP reader: %w", err)
	}

	length, err := reader.Length()
	if err != nil {
		return nil, fmt.Errorf("failed to get HTTP content length: %w", err)
	}

	GetTracer().Debug(TraceComponentInput, "Fetching remote input", TraceContext(
		"url", urlStr,
		"length", length,
	))

	data, err := io.ReadAll(io.NewSectionReader(reader, 0, length))
	if err != nil {
		return nil, fmt.Errorf("failed to read remote input: %w", err)
	}
	return data, nil
}
