package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ingest [session-id...]",
		Short: "Copy finished sessions into memory",
		Long:  "Load sessions from the session database and store their text parts as memories, as the agent runtime does when a session ends.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runIngest,
	}

	memoryCmd.AddCommand(cmd)
}

func runIngest(cmd *cobra.Command, args []string) {
	q, err := openQuerier()
	if err != nil {
		exitErr("open sessions", err)
	}
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}

	for _, id := range args {
		session, err := q.LoadSession(cmd.Context(), id, cfg.UserID, cfg.AppName)
		if err != nil {
			exitErr("load session", err)
		}
		if err := s.AddSessionToMemory(cmd.Context(), session); err != nil {
			exitErr("ingest", err)
		}
	}

	b, _ := json.Marshal(args)
	fmt.Printf(`{"ok":true,"ingested":%s}`+"\n", b)
}
