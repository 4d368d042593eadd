package log

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// NewContext returns a copy of ctx carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext extracts a logger from the context
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(contextKey{}).(*Logger); ok {
		return logger
	}
	// Return default logger if not found
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// StructuredLogger provides ledger-specific logging helpers
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{
		logger: logger,
	}
}

// LogRecordCreated logs a successful insert into one of the ledger collections
func (sl *StructuredLogger) LogRecordCreated(ctx context.Context, collection string, id int64, category, amount string) {
	fields := NewFields().
		WithRecord(collection, id).
		WithCategory(category).
		WithAmount(amount).
		WithOperation(OpCreate)

	sl.logger.InfoContext(ctx, "Record created", fields.ToSlice()...)
}

// LogRowsAffected logs an update or delete and how many rows it touched
func (sl *StructuredLogger) LogRowsAffected(ctx context.Context, collection, operation string, rows int64) {
	fields := NewFields().
		WithCollection(collection).
		WithOperation(operation).
		WithRows(rows)

	sl.logger.InfoContext(ctx, "Records changed", fields.ToSlice()...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, errorType string, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	allFields := fields.
		WithError(err).
		WithErrorType(errorType).
		WithOperation(operation)

	sl.logger.ErrorContext(ctx, msg, allFields.ToSlice()...)
}
