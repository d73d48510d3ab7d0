package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvMemoryDB, EnvSessionDB, EnvAppName, EnvUserID, EnvLogLevel} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, "my_agent", c.AppName)
	assert.Equal(t, "user", c.UserID)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, "memory.db", filepath.Base(c.MemoryDB))
	assert.Equal(t, "sessions.db", filepath.Base(c.SessionDB))
	assert.NoError(t, c.Validate())
}

func TestLoadLayers(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "memory_db: /data/memory.db\napp_name: time_agent\n")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/memory.db", c.MemoryDB)
	assert.Equal(t, "time_agent", c.AppName)
	assert.Equal(t, "user", c.UserID, "keys missing from the file keep defaults")

	t.Setenv(EnvAppName, "env_agent")
	t.Setenv(EnvUserID, "alice")
	c, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env_agent", c.AppName)
	assert.Equal(t, "alice", c.UserID)
	assert.Equal(t, "/data/memory.db", c.MemoryDB)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeFile(t, "memory_db: [unterminated\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	c := Default()
	c.UserID = "  "
	assert.Error(t, c.Validate())

	c = Default()
	c.LogLevel = "chatty"
	assert.Error(t, c.Validate())

	c = Default()
	c.LogLevel = "DEBUG"
	assert.NoError(t, c.Validate())
}
