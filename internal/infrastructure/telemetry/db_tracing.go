// Package telemetry provides OpenTelemetry integration for distributed tracing.
package telemetry

import (
	"context"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig controls database span creation.
type DBTracingConfig struct {
	Enabled bool
	// LogFullSQL includes the full SQL text in spans. Leave off outside
	// development, ledger quantities and cost figures end up in statements.
	LogFullSQL bool
	// SlowQueryThresh marks queries above this latency (default 200ms).
	SlowQueryThresh time.Duration
	// DBSystem names the backend, "postgresql" by default.
	DBSystem string
	// WithoutVariables strips bind parameters from recorded SQL.
	WithoutVariables bool
}

// DefaultDBTracingConfig returns the secure defaults: tracing off, SQL text
// and bind parameters withheld.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		Enabled:          false,
		LogFullSQL:       false,
		SlowQueryThresh:  200 * time.Millisecond,
		DBSystem:         "postgresql",
		WithoutVariables: true,
	}
}

// DBTracingPlugin wires otelgorm onto a GORM DB and layers slow query
// detection and error marking on top of the spans otelgorm opens.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a database tracing plugin.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	return &DBTracingPlugin{
		config: cfg,
		logger: logger,
	}
}

// RegisterOtelGorm installs otelgorm plus the timing callbacks. A no-op when
// tracing is disabled.
func (p *DBTracingPlugin) RegisterOtelGorm(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{
		otelgorm.WithDBName(p.config.DBSystem),
	}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}

	plugin := otelgorm.NewPlugin(opts...)
	if err := db.Use(plugin); err != nil {
		return err
	}

	before := func(db *gorm.DB) {
		if db.Statement.Context != nil {
			db.Statement.Context = context.WithValue(db.Statement.Context, queryStartTimeKey, time.Now())
		}
	}
	if err := registerGormCallbacks(db, "otel_timing:before", true, before); err != nil {
		return err
	}
	if err := registerGormCallbacks(db, "otel_slow_query", false, p.slowQueryCallback); err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
		zap.String("db_system", p.config.DBSystem),
	)

	return nil
}

// slowQueryCallback annotates the current span after each statement.
func (p *DBTracingPlugin) slowQueryCallback(db *gorm.DB) {
	annotateQuerySpan(db, p.config.SlowQueryThresh)
}

// registerGormCallbacks hooks fn around every statement type. With before set
// the callback runs ahead of the builtin gorm callback, otherwise after it.
func registerGormCallbacks(db *gorm.DB, namePrefix string, before bool, fn func(*gorm.DB)) error {
	type hook struct {
		anchor   string
		register func(name string) error
	}

	hooks := []hook{
		{"create", func(name string) error {
			if before {
				return db.Callback().Create().Before("gorm:create").Register(name, fn)
			}
			return db.Callback().Create().After("gorm:create").Register(name, fn)
		}},
		{"query", func(name string) error {
			if before {
				return db.Callback().Query().Before("gorm:query").Register(name, fn)
			}
			return db.Callback().Query().After("gorm:query").Register(name, fn)
		}},
		{"update", func(name string) error {
			if before {
				return db.Callback().Update().Before("gorm:update").Register(name, fn)
			}
			return db.Callback().Update().After("gorm:update").Register(name, fn)
		}},
		{"delete", func(name string) error {
			if before {
				return db.Callback().Delete().Before("gorm:delete").Register(name, fn)
			}
			return db.Callback().Delete().After("gorm:delete").Register(name, fn)
		}},
		{"row", func(name string) error {
			if before {
				return db.Callback().Row().Before("gorm:row").Register(name, fn)
			}
			return db.Callback().Row().After("gorm:row").Register(name, fn)
		}},
		{"raw", func(name string) error {
			if before {
				return db.Callback().Raw().Before("gorm:raw").Register(name, fn)
			}
			return db.Callback().Raw().After("gorm:raw").Register(name, fn)
		}},
	}

	for _, h := range hooks {
		if err := h.register(namePrefix + ":" + h.anchor); err != nil {
			return err
		}
	}
	return nil
}

// annotateQuerySpan records rows affected, table, errors, and slow query
// markers on the span in the statement context.
func annotateQuerySpan(db *gorm.DB, slowQueryThresh time.Duration) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}

	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}

	// ErrRecordNotFound is a normal lookup miss, not a span failure.
	if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	if startTime, ok := ctx.Value(queryStartTimeKey).(time.Time); ok {
		elapsed := time.Since(startTime)
		if elapsed > slowQueryThresh {
			span.SetAttributes(attribute.Bool("db.slow_query", true))
			span.SetAttributes(attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()))
			span.AddEvent("slow_query_warning", trace.WithAttributes(
				attribute.Int64("duration_ms", elapsed.Milliseconds()),
				attribute.Int64("threshold_ms", slowQueryThresh.Milliseconds()),
			))
		}
	}
}

type contextKey string

const queryStartTimeKey contextKey = "otel_query_start_time"

// WithQueryStartTime stamps the query start time into the context for the
// slow query check.
func WithQueryStartTime(ctx context.Context) context.Context {
	return context.WithValue(ctx, queryStartTimeKey, time.Now())
}

// DBTracingCallback is the standalone callback pair for setups that want the
// timing annotations without the full otelgorm plugin.
type DBTracingCallback struct {
	slowQueryThresh time.Duration
}

// NewDBTracingCallback creates a callback pair with the given threshold.
func NewDBTracingCallback(slowQueryThresh time.Duration) *DBTracingCallback {
	return &DBTracingCallback{
		slowQueryThresh: slowQueryThresh,
	}
}

// BeforeCallback stamps the query start time.
func (c *DBTracingCallback) BeforeCallback(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartTimeKey, time.Now())
	}
}

// AfterCallback annotates the span for the finished statement.
func (c *DBTracingCallback) AfterCallback(db *gorm.DB) {
	annotateQuerySpan(db, c.slowQueryThresh)
}

// RegisterCallbacks hooks the pair around every statement type.
func (c *DBTracingCallback) RegisterCallbacks(db *gorm.DB) error {
	if err := registerGormCallbacks(db, "otel_timing:before", true, c.BeforeCallback); err != nil {
		return err
	}
	return registerGormCallbacks(db, "otel_timing:after", false, c.AfterCallback)
}
