package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Search and manage remembered conversation text",
}

func init() {
	search := &cobra.Command{
		Use:   "search [query]",
		Short: "Search memories by keyword",
		Long:  "Case-insensitive substring search over memories of the configured app and user. Returns up to 10, newest first.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runMemorySearch,
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every memory of every app and user",
		Run:   runMemoryClear,
	}
	clearCmd.Flags().Bool("yes", false, "Confirm deletion")

	memoryCmd.AddCommand(search, clearCmd)
	RootCmd.AddCommand(memoryCmd)
}

func runMemorySearch(cmd *cobra.Command, args []string) {
	query := strings.Join(args, " ")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}

	resp, err := s.SearchMemory(cmd.Context(), cfg.AppName, cfg.UserID, query)
	if err != nil {
		exitErr("search", err)
	}

	printJSON(resp)
}

func runMemoryClear(cmd *cobra.Command, args []string) {
	yes, _ := cmd.Flags().GetBool("yes")
	if !yes {
		exitErr("clear", fmt.Errorf("refusing to delete all memories without --yes"))
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}

	n, err := s.ClearAll(cmd.Context())
	if err != nil {
		exitErr("clear", err)
	}

	fmt.Printf(`{"ok":true,"deleted":%d}`+"\n", n)
}
