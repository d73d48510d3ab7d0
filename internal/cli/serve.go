package cli

import (
	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/chronos-agent/agent-memory/internal/tools"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the memory tools over MCP on stdio",
		Run:   runServe,
	}

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	reg, err := newRegistry()
	if err != nil {
		exitErr("open tools", err)
	}

	server := tools.NewMCPServer(reg, Version)
	log.Info("serving tools over stdio", "tools", reg.Names(), "app", cfg.AppName, "user", cfg.UserID)
	if err := server.Run(cmd.Context(), &mcp.StdioTransport{}); err != nil {
		exitErr("serve", err)
	}
}
