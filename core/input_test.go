package core

import (
	"bytes"
	"compress/gzip"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
)

const sampleInput = "A;10.0\nB;5.0\nA;20.0\n"

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("gzip write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("gzip close failed: %v", err)
	}
	return buf.Bytes()
}

func snappyBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := snappy.NewBufferedWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("snappy write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("snappy close failed: %v", err)
	}
	return buf.Bytes()
}

func zstdBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("zstd encoder failed: %v", err)
	}
	defer encoder.Close()
	return encoder.EncodeAll(data, nil)
}

func TestLoadInputLocal(t *testing.T) {
	dir := t.TempDir()
	payload := []byte(sampleInput)

	tests := []struct {
		name string
		file string
		data []byte
	}{
		{name: "plain", file: "measurements.txt", data: payload},
		{name: "gzip", file: "measurements.txt.gz", data: gzipBytes(t, payload)},
		{name: "snappy", file: "measurements.txt.sz", data: snappyBytes(t, payload)},
		{name: "zstd", file: "measurements.txt.zst", data: zstdBytes(t, payload)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.file, tt.data)
			got, err := LoadInput(path)
			if err != nil {
				t.Fatalf("LoadInput failed: %v", err)
			}
			if string(got) != sampleInput {
				t.Errorf("Expected %q, got %q", sampleInput, got)
			}
		})
	}
}

func TestLoadInputErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadInput(filepath.Join(dir, "missing.txt"))
		if !errors.Is(err, ErrInputUnavailable) {
			t.Errorf("Expected ErrInputUnavailable, got %v", err)
		}
	})

	t.Run("corrupt compressed file", func(t *testing.T) {
		path := writeFile(t, dir, "broken.txt.gz", []byte("not gzip at all"))
		_, err := LoadInput(path)
		if !errors.Is(err, ErrInputUnavailable) {
			t.Errorf("Expected ErrInputUnavailable, got %v", err)
		}
	})
}

func TestLoadInputHTTP(t *testing.T) {
	payload := []byte(strings.Repeat(sampleInput, 200))
	var rangeRequests atomic.Int64
	// ranger needs Last-Modified as a validator; the zero Unix time suppresses it
	modTime := time.Unix(1700000000, 0)

	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Range") != "" {
			rangeRequests.Add(1)
		}
		http.ServeContent(w, r, "measurements.txt", modTime, bytes.NewReader(payload))
	}))
	defer testServer.Close()

	t.Run("URL detection", func(t *testing.T) {
		if !IsHTTPURL("http://example.com/measurements.txt") {
			t.Error("Expected http:// URL to be detected as HTTP")
		}
		if !IsHTTPURL("https://example.com/measurements.txt") {
			t.Error("Expected https:// URL to be detected as HTTP")
		}
		if IsHTTPURL("/local/path/measurements.txt") {
			t.Error("Expected local path to not be detected as HTTP")
		}
		if IsHTTPURL("measurements.txt") {
			t.Error("Expected relative path to not be detected as HTTP")
		}
	})

	t.Run("range reads", func(t *testing.T) {
		got, err := LoadInput(testServer.URL + "/measurements.txt")
		if err != nil {
			t.Fatalf("LoadInput failed: %v", err)
		}
		if !bytes.Equal(got, payload) {
			t.Errorf("Expected %d bytes from server, got %d", len(payload), len(got))
		}
		if rangeRequests.Load() == 0 {
			t.Error("Expected the remote input to be fetched with range requests")
		}
	})
}

func TestDetectCompression(t *testing.T) {
	tests := map[string]CompressionType{
		"measurements.txt":                       CompressionNone,
		"measurements.txt.gz":                    CompressionGzip,
		"measurements.txt.sz":                    CompressionSnappy,
		"measurements.txt.zst":                   CompressionZstd,
		"https://host/data/measurements.zst?x=1": CompressionZstd,
	}
	for path, want := range tests {
		if got := DetectCompression(path); got != want {
			t.Errorf("%s: expected %s, got %s", path, want, got)
		}
	}
}
