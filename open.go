package gopa

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// driverNames maps dialect names to the database/sql driver registered for them.
var driverNames = map[string]string{
	"mysql":    "mysql",
	"postgres": "pgx",
	"sqlite":   "sqlite",
}

// Open connects to cfg.DSN with the driver of cfg.Dialect and wraps the connection.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	f, err := New(cfg)
	if err != nil {
		return nil, err
	}
	driver, ok := driverNames[f.dialect.Name()]
	if !ok {
		return nil, fmt.Errorf("gopa: no driver for dialect %q", f.dialect.Name())
	}
	if f.cfg.DSN == "" {
		return nil, fmt.Errorf("gopa: empty dsn for dialect %q", f.dialect.Name())
	}

	db, err := sql.Open(driver, f.cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("gopa: failed to open %s connection: %w", driver, err)
	}
	if f.cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(f.cfg.MaxOpenConns)
	}
	if f.cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(f.cfg.MaxIdleConns)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("gopa: failed to ping %s: %w", driver, err)
	}

	f.logger.Debug("opened database", zap.String("driver", driver))
	return f.WrapDB(db), nil
}
