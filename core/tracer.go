package core

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// TraceLevel represents different levels of tracing
type TraceLevel int

const (
	TraceLevelOff TraceLevel = iota
	TraceLevelError
	TraceLevelWarn
	TraceLevelInfo
	TraceLevelDebug
	TraceLevelVerbose
)

// String returns the string representation of TraceLevel
func (tl TraceLevel) String() string {
	switch tl {
	case TraceLevelOff:
		return "OFF"
	case TraceLevelError:
		return "ERROR"
	case TraceLevelWarn:
		return "WARN"
	case TraceLevelInfo:
		return "INFO"
	case TraceLevelDebug:
		return "DEBUG"
	case TraceLevelVerbose:
		return "VERBOSE"
	default:
		return "UNKNOWN"
	}
}

// ParseTraceLevel maps a level name (case-insensitive) to a TraceLevel.
func ParseTraceLevel(s string) (TraceLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "OFF":
		return TraceLevelOff, nil
	case "ERROR":
		return TraceLevelError, nil
	case "WARN":
		return TraceLevelWarn, nil
	case "INFO":
		return TraceLevelInfo, nil
	case "DEBUG":
		return TraceLevelDebug, nil
	case "VERBOSE":
		return TraceLevelVerbose, nil
	}
	return TraceLevelOff, fmt.Errorf("unknown trace level %q", s)
}

// TraceComponent represents different components that can be traced
type TraceComponent string

const (
	TraceComponentChunker     TraceComponent = "CHUNKER"
	TraceComponentAggregate   TraceComponent = "AGGREGATE"
	TraceComponentMerge       TraceComponent = "MERGE"
	TraceComponentCoordinator TraceComponent = "COORDINATOR"
	TraceComponentWorker      TraceComponent = "WORKER"
	TraceComponentInput       TraceComponent = "INPUT"
	TraceComponentExport      TraceComponent = "EXPORT"
	TraceComponentConfig      TraceComponent = "CONFIG"
	TraceComponentMonitoring  TraceComponent = "MONITORING"
)

// AllTraceComponents lists every component known to the tracer.
var AllTraceComponents = []TraceComponent{
	TraceComponentChunker, TraceComponentAggregate, TraceComponentMerge,
	TraceComponentCoordinator, TraceComponentWorker, TraceComponentInput,
	TraceComponentExport, TraceComponentConfig, TraceComponentMonitoring,
}

// TraceEntry represents a single trace entry
type TraceEntry struct {
	Timestamp time.Time
	Level     TraceLevel
	Component TraceComponent
	Message   string
	Context   map[string]interface{}
}

// Tracer is the leveled, component-scoped logger used across onebrc.
// Entries go to the configured writer (stderr by default) so that stdout
// carries nothing but the result line.
type Tracer struct {
	level             TraceLevel
	enabledComponents map[TraceComponent]bool
	mutex             sync.RWMutex
	entries           []TraceEntry
	maxEntries        int
	out               io.Writer
}

var globalTracer *Tracer
var tracerOnce sync.Once

// GetTracer returns the global tracer instance
func GetTracer() *Tracer {
	tracerOnce.Do(func() {
		globalTracer = NewTracer()
	})
	return globalTracer
}

// NewTracer creates a tracer at WARN with every component enabled, then
// applies ONEBRC_TRACE_LEVEL and ONEBRC_TRACE_COMPONENTS.
func NewTracer() *Tracer {
	tracer := &Tracer{
		level:             TraceLevelWarn,
		enabledComponents: make(map[TraceComponent]bool),
		entries:           make([]TraceEntry, 0),
		maxEntries:        1000,
		out:               os.Stderr,
	}
	for _, comp := range AllTraceComponents {
		tracer.enabledComponents[comp] = true
	}

	tracer.configureFromEnv()
	return tracer
}

func (t *Tracer) configureFromEnv() {
	if levelStr := os.Getenv("ONEBRC_TRACE_LEVEL"); levelStr != "" {
		if level, err := ParseTraceLevel(levelStr); err == nil {
			t.level = level
		}
	}
	if componentsStr := os.Getenv("ONEBRC_TRACE_COMPONENTS"); componentsStr != "" {
		t.setComponents(componentsStr)
	}
}

// SetComponents replaces the enabled component set from a comma-separated
// list; "ALL" enables everything.
func (t *Tracer) SetComponents(list string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.setComponents(list)
}

func (t *Tracer) setComponents(list string) {
	t.enabledComponents = make(map[TraceComponent]bool)
	if strings.ToUpper(strings.TrimSpace(list)) == "ALL" {
		for _, comp := range AllTraceComponents {
			t.enabledComponents[comp] = true
		}
		return
	}
	for _, comp := range strings.Split(list, ",") {
		name := strings.TrimSpace(strings.ToUpper(comp))
		if name != "" {
			t.enabledComponents[TraceComponent(name)] = true
		}
	}
}

// SetLevel sets the trace level
func (t *Tracer) SetLevel(level TraceLevel) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.level = level
}

// SetOutput redirects printed entries. A nil writer keeps entries in memory only.
func (t *Tracer) SetOutput(w io.Writer) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.out = w
}

// EnableComponent enables tracing for a specific component
func (t *Tracer) EnableComponent(component TraceComponent) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.enabledComponents[component] = true
}

// DisableComponent disables tracing for a specific component
func (t *Tracer) DisableComponent(component TraceComponent) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.enabledComponents[component] = false
}

// IsEnabled checks if tracing is enabled for a given level and component
func (t *Tracer) IsEnabled(level TraceLevel, component TraceComponent) bool {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	return t.level >= level && t.enabledComponents[component]
}

func (t *Tracer) trace(level TraceLevel, component TraceComponent, message string, context map[string]interface{}) {
	if !t.IsEnabled(level, component) {
		return
	}

	entry := TraceEntry{
		Timestamp: time.Now(),
		Level:     level,
		Component: component,
		Message:   message,
		Context:   context,
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.entries = append(t.entries, entry)
	if len(t.entries) > t.maxEntries {
		t.entries = t.entries[len(t.entries)-t.maxEntries:]
	}

	if t.out != nil {
		t.printEntry(entry)
	}
}

// printEntry writes one line; context keys are sorted so output is stable.
func (t *Tracer) printEntry(entry TraceEntry) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s/%s: %s", entry.Timestamp.Format("15:04:05.000"), entry.Level, entry.Component, entry.Message)

	if len(entry.Context) > 0 {
		keys := make([]string, 0, len(entry.Context))
		for k := range entry.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" |")
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, entry.Context[k])
		}
	}
	b.WriteByte('\n')
	io.WriteString(t.out, b.String())
}

func firstContext(context []map[string]interface{}) map[string]interface{} {
	if len(context) > 0 && context[0] != nil {
		return context[0]
	}
	return make(map[string]interface{})
}

// Error logs an error-level trace
func (t *Tracer) Error(component TraceComponent, message string, context ...map[string]interface{}) {
	t.trace(TraceLevelError, component, message, firstContext(context))
}

// Warn logs a warning-level trace
func (t *Tracer) Warn(component TraceComponent, message string, context ...map[string]interface{}) {
	t.trace(TraceLevelWarn, component, message, firstContext(context))
}

// Info logs an info-level trace
func (t *Tracer) Info(component TraceComponent, message string, context ...map[string]interface{}) {
	t.trace(TraceLevelInfo, component, message, firstContext(context))
}

// Debug logs a debug-level trace
func (t *Tracer) Debug(component TraceComponent, message string, context ...map[string]interface{}) {
	t.trace(TraceLevelDebug, component, message, firstContext(context))
}

// Verbose logs a verbose-level trace
func (t *Tracer) Verbose(component TraceComponent, message string, context ...map[string]interface{}) {
	t.trace(TraceLevelVerbose, component, message, firstContext(context))
}

// GetEntries returns a copy of the buffered trace entries
func (t *Tracer) GetEntries() []TraceEntry {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	entries := make([]TraceEntry, len(t.entries))
	copy(entries, t.entries)
	return entries
}

// Clear clears all trace entries
func (t *Tracer) Clear() {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.entries = make([]TraceEntry, 0)
}

// GetStatus returns the current tracer status
func (t *Tracer) GetStatus() map[string]interface{} {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	return map[string]interface{}{
		"level":      t.level.String(),
		"components": t.enabledComponents,
		"entries":    len(t.entries),
		"maxEntries": t.maxEntries,
	}
}

// TraceContext creates a context map for tracing
func TraceContext(pairs ...interface{}) map[string]interface{} {
	context := make(map[string]interface{})
	for i := 0; i < len(pairs)-1; i += 2 {
		if key, ok := pairs[i].(string); ok {
			context[key] = pairs[i+1]
		}
	}
	return context
}
