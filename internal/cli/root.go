// Package cli implements the agent-memory CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chronos-agent/agent-memory/internal/config"
	"github.com/chronos-agent/agent-memory/internal/history"
	"github.com/chronos-agent/agent-memory/internal/logging"
	"github.com/chronos-agent/agent-memory/internal/store"
	"github.com/chronos-agent/agent-memory/internal/tools"
)

// Version is reported by the MCP server. Set with -ldflags at build time.
var Version = "dev"

var (
	configPath string
	flagValues config.Config

	cfg *config.Config
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "agent-memory",
	Short: "Persistent memory and session history for a conversational agent",
	Long: "Keyword memory and session history for a time-lookup agent, backed by SQLite.\n" +
		"Inspect both stores from the shell, or serve the agent's tools over MCP.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	f := RootCmd.PersistentFlags()
	f.StringVarP(&configPath, "config", "c", "", "Config file (default: ~/.agent-memory/config.yaml if present)")
	f.StringVarP(&flagValues.MemoryDB, "db", "d", "", "Memory database path (default: $AGENT_MEMORY_DB or ~/.agent-memory/memory.db)")
	f.StringVar(&flagValues.SessionDB, "sessions-db", "", "Session database path (default: $AGENT_SESSIONS_DB or ~/.agent-memory/sessions.db)")
	f.StringVar(&flagValues.AppName, "app", "", "App name scope (default: $AGENT_APP_NAME or my_agent)")
	f.StringVarP(&flagValues.UserID, "user", "u", "", "User id scope (default: $AGENT_USER_ID or user)")
	f.StringVar(&flagValues.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	for name, dst := range map[string]*string{
		"db":          &c.MemoryDB,
		"sessions-db": &c.SessionDB,
		"app":         &c.AppName,
		"user":        &c.UserID,
		"log-level":   &c.LogLevel,
	} {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}

	if err := c.Validate(); err != nil {
		return err
	}
	if err := logging.Setup(c.LogLevel, nil); err != nil {
		return err
	}
	cfg = c
	return nil
}

func openStore() (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(cfg.MemoryDB)
}

func openQuerier() (*history.Querier, error) {
	if _, err := os.Stat(cfg.SessionDB); err != nil {
		return nil, err
	}
	return history.NewQuerier(cfg.SessionDB), nil
}

func newRegistry() (*tools.Registry, error) {
	q, err := openQuerier()
	if err != nil {
		return nil, err
	}
	s, err := openStore()
	if err != nil {
		return nil, err
	}
	return tools.NewDefault(tools.Deps{
		History: q,
		Memory:  s,
		AppName: cfg.AppName,
		UserID:  cfg.UserID,
	}), nil
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
