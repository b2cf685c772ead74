package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("defaults apply without a file", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Server.Addr)
		assert.Equal(t, []string{"ai", "io"}, cfg.Enumerator.TLDs)
		assert.Equal(t, 2*time.Second, cfg.Enumerator.CheckInterval())
		assert.Equal(t, 100, cfg.Enumerator.FlushEvery)
		assert.Equal(t, 6*time.Hour, cfg.Enumerator.RecheckInterval())
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, "json", cfg.Log.Format)
	})

	t.Run("yaml values load", func(t *testing.T) {
		path := writeConfig(t, `
server:
  addr: ":9090"
postgres:
  url: postgres://localhost/scout
enumerator:
  tlds: [AI, ai, com]
  check_interval_seconds: 5
log:
  level: debug
  format: text
`)
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, ":9090", cfg.Server.Addr)
		assert.Equal(t, "postgres://localhost/scout", cfg.Postgres.URL)
		assert.Equal(t, []string{"ai", "com"}, cfg.Enumerator.TLDs,
			"tlds are normalized and deduplicated")
		assert.Equal(t, 5*time.Second, cfg.Enumerator.CheckInterval())
		assert.Equal(t, "debug", cfg.Log.Level)
	})

	t.Run("env overrides yaml", func(t *testing.T) {
		path := writeConfig(t, "server:\n  addr: \":9090\"\n")
		t.Setenv("DOMAINSCOUT_ADDR", ":7070")
		t.Setenv("ENUM_TLDS", " io , net ")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, ":7070", cfg.Server.Addr)
		assert.Equal(t, []string{"io", "net"}, cfg.Enumerator.TLDs)
	})

	t.Run("rejects invalid log settings", func(t *testing.T) {
		path := writeConfig(t, "log:\n  level: loud\n")
		_, err := Load(path)
		assert.Error(t, err)

		path = writeConfig(t, "log:\n  format: xml\n")
		_, err = Load(path)
		assert.Error(t, err)
	})

	t.Run("rejects malformed yaml", func(t *testing.T) {
		path := writeConfig(t, "server: [not a map")
		_, err := Load(path)
		assert.Error(t, err)
	})
}
