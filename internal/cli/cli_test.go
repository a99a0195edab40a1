package cli

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"account-ledger/internal/config"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := NewRootCommand()

	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	assert.NotNil(t, serve.Flags().Lookup("migrate"))

	migrate, _, err := root.Find([]string{"migrate"})
	require.NoError(t, err)
	assert.Equal(t, "migrate", migrate.Name())

	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestMigrateRejectsMemoryStorage(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LEDGER_STORAGE_DRIVER", "memory")

	root := NewRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"migrate"})

	err := root.Execute()
	assert.ErrorContains(t, err, "storage_driver")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := newLogger(&config.Config{LogFormat: "text", LogLevel: "warn"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "key=value")

	buf.Reset()
	logger = newLogger(&config.Config{LogFormat: "json"}, &buf)
	logger.Info("json line")
	assert.Contains(t, buf.String(), `"msg":"json line"`)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
}
