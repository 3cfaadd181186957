package log

import (
	"context"
	"log/slog"
	"net/http"
)

type ContextKey string

const LoggerContextKey ContextKey = "logger"

// NewContext returns a copy of ctx carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext returns the request logger, or the slog default tagged "unknown"
// when none was attached.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{Logger: slog.Default(), component: "unknown"}
}

// enrich derives the request logger through derive and hands the request on.
func enrich(derive func(*http.Request, *Logger) *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := derive(r, FromContext(r.Context()))
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), logger)))
		})
	}
}

// Middleware attaches logger to every request context.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return enrich(func(*http.Request, *Logger) *Logger { return logger })
}

func ComponentMiddleware(component string) func(http.Handler) http.Handler {
	return enrich(func(_ *http.Request, l *Logger) *Logger { return l.WithComponent(component) })
}

// RequestIDMiddleware tags the request logger with the id returned by extract.
func RequestIDMiddleware(extract func(*http.Request) string) func(http.Handler) http.Handler {
	return enrich(func(r *http.Request, l *Logger) *Logger { return l.With(FieldRequestID, extract(r)) })
}

// StructuredLogger writes the fixed-shape entries shared by the server and the
// worker: request start and end, applied ledger commands, failures.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent(), r.Referer()).
		WithClientIP(clientIP)
	sl.logger.DebugContext(ctx, "HTTP request started", fields.ToSlice()...)
}

// LogHTTPEnd logs at WARN for 4xx and ERROR for 5xx.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "").
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithClientIP(clientIP)
	sl.logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

func (sl *StructuredLogger) LogLedgerCommand(ctx context.Context, operation string, customerID int64, revision uint64, recordIDs ...int64) {
	fields := NewFields().
		WithOperation(operation).
		WithCustomer(customerID).
		WithRevision(revision)
	if len(recordIDs) > 0 {
		fields.WithRecords(recordIDs...)
	}
	sl.logger.InfoContext(ctx, "Ledger command applied", fields.ToSlice()...)
}

// LogError logs err for operation. A nil fields is allowed.
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	fields.WithError(err).WithOperation(operation).WithComponent(component)
	sl.logger.ErrorContext(ctx, msg, fields.ToSlice()...)
}
