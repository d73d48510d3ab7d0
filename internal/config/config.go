// Package config resolves where the databases live and which app/user scope
// the tools default to.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"

	"github.com/chronos-agent/agent-memory/internal/logging"
)

// Environment variables read by ApplyEnv.
const (
	EnvMemoryDB  = "AGENT_MEMORY_DB"
	EnvSessionDB = "AGENT_SESSIONS_DB"
	EnvAppName   = "AGENT_APP_NAME"
	EnvUserID    = "AGENT_USER_ID"
	EnvLogLevel  = "AGENT_LOG_LEVEL"
)

// Config holds runtime settings.
type Config struct {
	MemoryDB  string `yaml:"memory_db"`
	SessionDB string `yaml:"sessions_db"`
	AppName   string `yaml:"app_name"`
	UserID    string `yaml:"user_id"`
	LogLevel  string `yaml:"log_level"`
}

// Dir returns the directory holding the default databases and config file.
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".agent-memory")
}

// DefaultFile is the config file read when no path is given.
func DefaultFile() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		MemoryDB:  filepath.Join(Dir(), "memory.db"),
		SessionDB: filepath.Join(Dir(), "sessions.db"),
		AppName:   "my_agent",
		UserID:    "user",
		LogLevel:  "info",
	}
}

// Load builds a Config from defaults, then the YAML file at path, then the
// environment. An empty path reads DefaultFile when it exists; an explicit
// path must exist.
func Load(path string) (*Config, error) {
	c := Default()

	required := path != ""
	if path == "" {
		path = DefaultFile()
	}
	if err := c.loadFile(path, required); err != nil {
		return nil, err
	}
	c.ApplyEnv()
	return c, nil
}

func (c *Config) loadFile(path string, required bool) error {
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !required {
		return nil
	}
	if err != nil {
		return goerr.Wrap(err, "failed to read config file", goerr.V("file", path))
	}

	// Keys absent from the file keep their current value.
	if err := yaml.Unmarshal(content, c); err != nil {
		return goerr.Wrap(err, "failed to parse YAML config", goerr.V("file", path))
	}
	return nil
}

// ApplyEnv overrides fields from non-empty environment variables.
func (c *Config) ApplyEnv() {
	applyStringEnv(EnvMemoryDB, &c.MemoryDB)
	applyStringEnv(EnvSessionDB, &c.SessionDB)
	applyStringEnv(EnvAppName, &c.AppName)
	applyStringEnv(EnvUserID, &c.UserID)
	applyStringEnv(EnvLogLevel, &c.LogLevel)
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	for _, f := range []struct{ name, value string }{
		{"memory_db", c.MemoryDB},
		{"sessions_db", c.SessionDB},
		{"app_name", c.AppName},
		{"user_id", c.UserID},
	} {
		if strings.TrimSpace(f.value) == "" {
			return goerr.New("config value is required", goerr.V("key", f.name))
		}
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return goerr.Wrap(err, "invalid log level", goerr.V("log_level", c.LogLevel))
	}
	return nil
}

func applyStringEnv(key string, dest *string) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return
	}
	*dest = raw
}
