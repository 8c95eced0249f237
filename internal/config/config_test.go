package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"FAKEDB_BACKENDS", "FAKEDB_SQLITE_PATH", "FAKEDB_LOG_LEVEL"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestNew_Defaults(t *testing.T) {
	c := New()
	assert.Equal(t, []string{"memory"}, c.Backends)
	assert.Equal(t, ":memory:", c.SQLitePath)
	assert.Equal(t, "info", c.LogLevel)
	assert.Empty(t, c.GoldenDir)
	assert.NoError(t, c.Validate())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fakedb.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
backends = ["memory", "sqlite"]
log_level = "debug"
`), 0o644))

	c := New()
	require.NoError(t, c.Load(path))
	assert.Equal(t, []string{"memory", "sqlite"}, c.Backends)
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, ":memory:", c.SQLitePath)
}

func TestLoad_UnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fakedb.toml")
	require.NoError(t, os.WriteFile(path, []byte("backend = \"memory\"\n"), 0o644))

	err := New().Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown keys")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"no backends", func(c *Config) { c.Backends = nil }, "at least one backend"},
		{"bad backend", func(c *Config) { c.Backends = []string{"postgres"} }, "unknown backend"},
		{"bad level", func(c *Config) { c.LogLevel = "chatty" }, "invalid log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSlogLevel(t *testing.T) {
	c := New()
	c.LogLevel = "warn"
	level, err := c.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)
}

func TestResolve_Precedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.WriteFile(DefaultFile, []byte(`
backends = ["sqlite"]
sqlite_path = "dbs"
log_level = "error"
`), 0o644))
	require.NoError(t, os.WriteFile(".env", []byte("FAKEDB_SQLITE_PATH=from-dotenv\n"), 0o644))
	t.Setenv("FAKEDB_BACKENDS", "memory, sqlite")

	c, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, []string{"memory", "sqlite"}, c.Backends)
	assert.Equal(t, "from-dotenv", c.SQLitePath)
	assert.Equal(t, "error", c.LogLevel)
	assert.True(t, c.HasBackend("sqlite"))
}

func TestResolve_ExplicitPathMustExist(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	_, err := Resolve("missing.toml")
	assert.Error(t, err)
}

func TestResolve_NoFiles(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	c, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, New(), c)
}
