package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool          // include bound variables in spans; development only
	SlowQueryThresh time.Duration // default: 200ms
	DBName          string
}

// DBTracingPlugin wraps otelgorm with slow query marking.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a new database tracing plugin.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if cfg.SlowQueryThresh == 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.DBName == "" {
		cfg.DBName = "invoicer"
	}
	return &DBTracingPlugin{config: cfg, logger: logger}
}

type queryStartKey struct{}

// Register installs otelgorm and the slow query callbacks on db.
func (p *DBTracingPlugin) Register(db *gorm.DB) error {
	if !p.config.Enabled {
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBName)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	before := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartKey{}, time.Now())
		}
	}
	cb := db.Callback()
	steps := []struct {
		name     string
		register func(string, string) error
	}{
		{"create", func(b, a string) error {
			if err := cb.Create().Before("gorm:create").Register(b, before); err != nil {
				return err
			}
			return cb.Create().After("gorm:create").Register(a, p.afterQuery)
		}},
		{"query", func(b, a string) error {
			if err := cb.Query().Before("gorm:query").Register(b, before); err != nil {
				return err
			}
			return cb.Query().After("gorm:query").Register(a, p.afterQuery)
		}},
		{"update", func(b, a string) error {
			if err := cb.Update().Before("gorm:update").Register(b, before); err != nil {
				return err
			}
			return cb.Update().After("gorm:update").Register(a, p.afterQuery)
		}},
		{"delete", func(b, a string) error {
			if err := cb.Delete().Before("gorm:delete").Register(b, before); err != nil {
				return err
			}
			return cb.Delete().After("gorm:delete").Register(a, p.afterQuery)
		}},
		{"raw", func(b, a string) error {
			if err := cb.Raw().Before("gorm:raw").Register(b, before); err != nil {
				return err
			}
			return cb.Raw().After("gorm:raw").Register(a, p.afterQuery)
		}},
	}
	for _, s := range steps {
		if err := s.register("otel_timing:before_"+s.name, "otel_slow_query:"+s.name); err != nil {
			return err
		}
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
	)
	return nil
}

func (p *DBTracingPlugin) afterQuery(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		RecordError(span, db.Error)
	}

	if start, ok := ctx.Value(queryStartKey{}).(time.Time); ok {
		if elapsed := time.Since(start); elapsed > p.config.SlowQueryThresh {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
		}
	}
}
