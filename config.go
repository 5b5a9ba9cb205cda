package gopa

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix is the prefix of environment variables read by LoadConfig.
const EnvPrefix = "GOPA_"

const (
	DefaultDialect      = "mysql"
	DefaultLogLevel     = "info"
	DefaultMaxIdleConns = 2
)

// Config defines the main configuration options for gopa.
type Config struct {
	Dialect      string `koanf:"dialect"`        // registered dialect name (default: mysql)
	DSN          string `koanf:"dsn"`            // driver data source name, used by Open
	ShowSQL      bool   `koanf:"show_sql"`       // log statements at info instead of debug
	LogLevel     string `koanf:"log_level"`      // used by BuildLogger
	MaxOpenConns int    `koanf:"max_open_conns"` // 0 leaves the database/sql default
	MaxIdleConns int    `koanf:"max_idle_conns"`

	Logger *zap.Logger `koanf:"-"` // optional; nop when nil
}

func (c *Config) applyDefaults() {
	if c.Dialect == "" {
		c.Dialect = DefaultDialect
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// LoadConfig layers defaults, the yaml file at path (skipped when empty) and GOPA_* environment
// variables, in that order of precedence.
func LoadConfig(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]any{
		"dialect":        DefaultDialect,
		"show_sql":       false,
		"log_level":      DefaultLogLevel,
		"max_open_conns": 0,
		"max_idle_conns": DefaultMaxIdleConns,
	}, "."), nil); err != nil {
		return Config{}, fmt.Errorf("gopa: failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("gopa: error reading config file %s: %w", path, err)
		}
	}

	// GOPA_SHOW_SQL -> show_sql
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return Config{}, fmt.Errorf("gopa: failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("gopa: unable to decode config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// BuildLogger builds a production zap logger at c.LogLevel. Unknown levels fall back to info.
func (c Config) BuildLogger() (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if err := lvl.UnmarshalText([]byte(strings.ToLower(c.LogLevel))); err != nil {
		lvl = zapcore.InfoLevel
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("gopa: failed to build logger: %w", err)
	}
	return logger, nil
}
