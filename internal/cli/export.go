package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export memories as JSON",
		Long:  "Export the stored memory records of the configured app and user, oldest first. Use --all for every scope.",
		Run:   runExport,
	}

	cmd.Flags().Bool("all", false, "Export every app and user")

	memoryCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	all, _ := cmd.Flags().GetBool("all")
	appName, userID := cfg.AppName, cfg.UserID
	if all {
		appName, userID = "", ""
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}

	records, err := s.ExportAll(cmd.Context(), appName, userID)
	if err != nil {
		exitErr("export", err)
	}

	printJSON(records)
}
