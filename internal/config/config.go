// Package config handles loading the runner configuration from fakedb.toml,
// an optional .env file and FAKEDB_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "fakedb.toml"

// Backend names accepted in Backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Config holds the scenario runner settings.
type Config struct {
	Backends   []string `toml:"backends"`    // Stores every scenario runs against
	SQLitePath string   `toml:"sqlite_path"` // ":memory:" or a directory for per-scenario database files
	LogLevel   string   `toml:"log_level"`   // debug, info, warn or error
	GoldenDir  string   `toml:"golden_dir"`  // Snapshot golden files; empty means <scenarios-dir>/golden
}

// New returns a Config with default values.
func New() *Config {
	return &Config{
		Backends:   []string{BackendMemory},
		SQLitePath: ":memory:",
		LogLevel:   "info",
	}
}

// Load reads a TOML file into c. Keys missing from the file keep their
// current values.
func (c *Config) Load(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load config %s: unknown keys %v", path, undecoded)
	}
	return nil
}

// ApplyEnv overrides fields from FAKEDB_BACKENDS (comma separated),
// FAKEDB_SQLITE_PATH and FAKEDB_LOG_LEVEL.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("FAKEDB_BACKENDS"); v != "" {
		var backends []string
		for b := range strings.SplitSeq(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				backends = append(backends, b)
			}
		}
		c.Backends = backends
	}
	if v := os.Getenv("FAKEDB_SQLITE_PATH"); v != "" {
		c.SQLitePath = v
	}
	if v := os.Getenv("FAKEDB_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Validate checks backend names and the log level.
func (c *Config) Validate() error {
	if len(c.Backends) == 0 {
		return errors.New("config: at least one backend is required")
	}
	for _, b := range c.Backends {
		if b != BackendMemory && b != BackendSQLite {
			return fmt.Errorf("config: unknown backend %q (want %s or %s)", b, BackendMemory, BackendSQLite)
		}
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: invalid log_level %q", c.LogLevel)
	}
	return level, nil
}

// HasBackend reports whether name is configured.
func (c *Config) HasBackend(name string) bool {
	return slices.Contains(c.Backends, name)
}

// Resolve builds the effective configuration.
//
// Precedence, lowest first: defaults, the config file, .env, the process
// environment. An explicit path must exist; otherwise DefaultFile is read
// when present. Variables already set in the environment win over .env.
func Resolve(path string) (*Config, error) {
	c := New()

	switch {
	case path != "":
		if err := c.Load(path); err != nil {
			return nil, err
		}
	default:
		if _, err := os.Stat(DefaultFile); err == nil {
			if err := c.Load(DefaultFile); err != nil {
				return nil, err
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	c.ApplyEnv()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
