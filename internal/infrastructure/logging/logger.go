package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"
	"time"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// RequestIDKey is the context key for request IDs
	RequestIDKey contextKey = "request_id"
	// OperatorIDKey is the context key for the authenticated operator
	OperatorIDKey contextKey = "operator_id"
	// TrainingRunKey is the context key for the current training run
	TrainingRunKey contextKey = "training_run"
)

// contextKeys are copied from the context onto every record, in this order.
var contextKeys = []contextKey{RequestIDKey, OperatorIDKey, TrainingRunKey}

// Config holds logger configuration
type Config struct {
	Level       string // debug, info, warn, error
	Format      string // json, text
	Output      io.Writer
	AddSource   bool
	ServiceName string
	Environment string
}

// DefaultConfig returns a default logger configuration
func DefaultConfig() Config {
	return Config{
		Level:       "info",
		Format:      "json",
		Output:      os.Stdout,
		ServiceName: "service-desk-insights",
		Environment: "development",
	}
}

// ParseLevel maps a configured level name to a slog level. ok is false for
// unknown names, which map to info.
func ParseLevel(name string) (level slog.Level, ok bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// NewLogger creates a new structured logger with the given configuration
func NewLogger(cfg Config) *slog.Logger {
	level, _ := ParseLevel(cfg.Level)

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.String(a.Key, a.Value.Time().UTC().Format(time.RFC3339Nano))
			}
			return a
		},
	}

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(output, opts)
	} else {
		handler = slog.NewJSONHandler(output, opts)
	}

	var static []slog.Attr
	if cfg.ServiceName != "" {
		static = append(static, slog.String("service", cfg.ServiceName))
	}
	if cfg.Environment != "" {
		static = append(static, slog.String("environment", cfg.Environment))
	}

	return slog.New(&contextHandler{handler: handler, static: static})
}

// Component scopes a logger to one named component of the engine.
func Component(logger *slog.Logger, name string) *slog.Logger {
	return logger.With("component", name)
}

// contextHandler adds service metadata and the ids carried by the context
// to every record.
type contextHandler struct {
	handler slog.Handler
	static  []slog.Attr
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(h.static...)

	for _, key := range contextKeys {
		if value, ok := ctx.Value(key).(string); ok && value != "" {
			r.AddAttrs(slog.String(string(key), value))
		}
	}

	return h.handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{handler: h.handler.WithAttrs(attrs), static: h.static}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{handler: h.handler.WithGroup(name), static: h.static}
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithOperatorID adds the operator ID to the context
func WithOperatorID(ctx context.Context, operatorID string) context.Context {
	return context.WithValue(ctx, OperatorIDKey, operatorID)
}

// WithTrainingRun tags every log line of one training run.
func WithTrainingRun(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, TrainingRunKey, runID)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	requestID, _ := ctx.Value(RequestIDKey).(string)
	return requestID
}

// LogPanic logs a recovered panic with its stack trace.
func LogPanic(ctx context.Context, logger *slog.Logger, panicValue any) {
	logger.ErrorContext(ctx, "panic recovered",
		"panic", panicValue,
		"stack_trace", string(debug.Stack()),
	)
}
