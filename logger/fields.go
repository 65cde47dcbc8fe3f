package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for structured logging across the generator.
const (
	// Run identity
	FieldRunID = "run_id"
	FieldStage = "stage"

	// Components
	FieldComponent = "component"

	// Discovery
	FieldPackage    = "package"
	FieldModule     = "module"
	FieldClass      = "class"
	FieldRoot       = "root"
	FieldSource     = "source"
	FieldConstraint = "constraint"

	// Output
	FieldFile      = "file"
	FieldPath      = "path"
	FieldNamespace = "namespace"

	// Errors
	FieldError = "error"

	// Counts
	FieldCount     = "count"
	FieldGenerated = "generated"
	FieldErrors    = "errors"

	// Timing
	FieldDurationMS = "duration_ms"
)

type contextKey string

const (
	runIDKey     contextKey = "logger_run_id"
	componentKey contextKey = "logger_component"
)

// WithRunID adds a generation run ID to the context for logging
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// WithComponent adds a component name to the context for logging
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// RunIDFromContext returns the run ID stored by WithRunID, if any
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

// FieldsFromContext extracts logging fields from context.
// Returns key-value pairs suitable for use with Infow/Errorw/etc.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}

	if runID, ok := ctx.Value(runIDKey).(string); ok && runID != "" {
		fields = append(fields, FieldRunID, runID)
	}
	if component, ok := ctx.Value(componentKey).(string); ok && component != "" {
		fields = append(fields, FieldComponent, component)
	}

	return fields
}

// FromContext returns base decorated with the fields carried by ctx
func FromContext(ctx context.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	if base == nil {
		base = Logger
	}
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

// ComponentLogger returns a named logger for a specific component.
//
// Example:
//
//	d := discovery.New(cfg, logger.ComponentLogger("typegen.discovery"))
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}
