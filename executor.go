package gopa

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mickamy/gopa/internal/query"
)

// Executor runs rendered SQL. *sql.DB, *sql.Tx and *sql.Conn satisfy it.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// loggingExecutor logs every statement before handing it to the wrapped executor.
type loggingExecutor struct {
	Executor
	logger  *zap.Logger
	showSQL bool
}

func newLoggingExecutor(exec Executor, logger *zap.Logger, showSQL bool) *loggingExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &loggingExecutor{Executor: exec, logger: logger, showSQL: showSQL}
}

func (l *loggingExecutor) ExecContext(ctx context.Context, q string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := l.Executor.ExecContext(ctx, q, args...)
	l.log(ctx, q, start, err)
	return res, err
}

func (l *loggingExecutor) QueryContext(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := l.Executor.QueryContext(ctx, q, args...)
	l.log(ctx, q, start, err)
	return rows, err
}

func (l *loggingExecutor) QueryRowContext(ctx context.Context, q string, args ...any) *sql.Row {
	start := time.Now()
	row := l.Executor.QueryRowContext(ctx, q, args...)
	l.log(ctx, q, start, row.Err())
	return row
}

func (l *loggingExecutor) log(ctx context.Context, q string, start time.Time, err error) {
	lvl := zapcore.DebugLevel
	if l.showSQL {
		lvl = zapcore.InfoLevel
	}
	if err != nil {
		lvl = zapcore.ErrorLevel
	}
	ce := l.logger.Check(lvl, "sql")
	if ce == nil {
		return
	}

	fields := make([]zap.Field, 0, 7)
	if stmt, ok := query.Parse(q); ok {
		fields = append(fields, zap.String("op", stmt.Op), zap.String("table", stmt.Table))
		if stmt.HasReturning {
			fields = append(fields, zap.Bool("returning", true))
		}
	}
	fields = append(fields, zap.String("sql", q), zap.Duration("elapsed", time.Since(start)))
	if m := extractMeta(ctx); m.traceID != "" {
		fields = append(fields, zap.String("trace_id", m.traceID))
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	ce.Write(fields...)
}
