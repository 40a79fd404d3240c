package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"salesreport/internal/config"
)

// contextKey is a type for context keys
type contextKey string

// TraceIDContextKey is the key for storing the run's trace ID in context
const TraceIDContextKey contextKey = "trace_id"

// process-wide logger state. A report run is one process, so one logger
// and at most one open log file.
var (
	logMu     sync.Mutex
	logOnce   sync.Once
	logger    *slog.Logger
	logFile   *os.File
	stdoutDst io.Writer = os.Stdout
)

// InitializeLogger builds the run logger from cfg and installs it as the
// slog default. Later calls return the first logger unchanged.
func InitializeLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	var err error
	logOnce.Do(func() {
		var w io.Writer
		if w, err = openOutput(cfg); err != nil {
			return
		}
		l := NewLogger(cfg, w)
		logMu.Lock()
		logger = l
		logMu.Unlock()
		slog.SetDefault(l)
	})
	return GetLogger(), err
}

// GetLogger returns the run logger, or the slog default before
// InitializeLogger succeeded.
func GetLogger() *slog.Logger {
	logMu.Lock()
	defer logMu.Unlock()
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// NewLogger builds a JSON logger writing to w without touching global
// state. Records carry the run id and, inside a recorded span, the
// OpenTelemetry trace id.
func NewLogger(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: true,
		Level:     parseLogLevel(cfg.Level),
	})
	return slog.New(&traceHandler{Handler: handler})
}

// openOutput resolves the console/file/both destination. The log file, if
// any, is kept for CloseLogFile.
func openOutput(cfg config.LoggingConfig) (io.Writer, error) {
	mode := strings.ToLower(cfg.Output)
	if mode != "file" && mode != "both" {
		return stdoutDst, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory for %s: %w", cfg.FilePath, err)
	}
	f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", cfg.FilePath, err)
	}

	logMu.Lock()
	logFile = f
	logMu.Unlock()

	if mode == "file" {
		return f, nil
	}
	return io.MultiWriter(stdoutDst, f), nil
}

// traceHandler adds trace_id (the run id) and otel_trace_id to records
type traceHandler struct {
	slog.Handler
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if runID := GetTraceID(ctx); runID != "" {
		r.AddAttrs(slog.String("trace_id", runID))
	}
	if spanTrace := TraceIDFromContext(ctx); spanTrace != "" {
		r.AddAttrs(slog.String("otel_trace_id", spanTrace))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithGroup(name)}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithTraceID stores the run id in ctx
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDContextKey, traceID)
}

// GetTraceID returns the run id stored in ctx, or ""
func GetTraceID(ctx context.Context) string {
	id, _ := ctx.Value(TraceIDContextKey).(string)
	return id
}

// CloseLogFile closes the log file opened by InitializeLogger, if any
func CloseLogFile() error {
	logMu.Lock()
	defer logMu.Unlock()

	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// ResetLoggerForTesting forgets the run logger so a test can initialize
// a new one.
func ResetLoggerForTesting() {
	_ = CloseLogFile()
	logMu.Lock()
	logger = nil
	logMu.Unlock()
	logOnce = sync.Once{}
}
