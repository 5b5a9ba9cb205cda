package gopa_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/mickamy/gopa"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := gopa.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, gopa.DefaultDialect, cfg.Dialect)
	assert.Equal(t, gopa.DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, gopa.DefaultMaxIdleConns, cfg.MaxIdleConns)
	assert.False(t, cfg.ShowSQL)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gopa.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
dialect: postgres
dsn: postgres://localhost/app
show_sql: true
max_open_conns: 8
`), 0o600))
	t.Setenv("GOPA_DIALECT", "sqlite")
	t.Setenv("GOPA_LOG_LEVEL", "debug")

	cfg, err := gopa.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Dialect, "environment wins over the file")
	assert.Equal(t, "postgres://localhost/app", cfg.DSN)
	assert.True(t, cfg.ShowSQL)
	assert.Equal(t, 8, cfg.MaxOpenConns)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := gopa.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConfig_BuildLogger(t *testing.T) {
	logger, err := gopa.Config{LogLevel: "warn"}.BuildLogger()
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	logger, err = gopa.Config{LogLevel: "nonsense"}.BuildLogger()
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel), "unknown levels fall back to info")
}
