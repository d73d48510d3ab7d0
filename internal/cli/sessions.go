package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/chronos-agent/agent-memory/internal/history"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Browse past sessions",
}

func init() {
	list := &cobra.Command{
		Use:   "list",
		Short: "List recent sessions",
		Run:   runSessionsList,
	}
	list.Flags().IntP("limit", "l", history.DefaultSessionLimit, "Max sessions")

	show := &cobra.Command{
		Use:   "show [session-id]",
		Short: "Show a session transcript",
		Args:  cobra.ExactArgs(1),
		Run:   runSessionsShow,
	}

	search := &cobra.Command{
		Use:   "search [term]",
		Short: "Search user messages (case-sensitive)",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSessionsSearch,
	}
	search.Flags().IntP("limit", "l", history.DefaultSearchLimit, "Max matches")

	sessionsCmd.AddCommand(list, show, search)
	RootCmd.AddCommand(sessionsCmd)
}

func runSessionsList(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	q, err := openQuerier()
	if err != nil {
		exitErr("open sessions", err)
	}

	sessions, err := q.ListRecentSessions(cmd.Context(), cfg.UserID, cfg.AppName, limit)
	if err != nil {
		exitErr("list", err)
	}

	printJSON(sessions)
}

func runSessionsShow(cmd *cobra.Command, args []string) {
	q, err := openQuerier()
	if err != nil {
		exitErr("open sessions", err)
	}

	t, err := q.GetSessionTranscript(cmd.Context(), args[0], cfg.UserID, cfg.AppName)
	if err != nil {
		exitErr("show", err)
	}

	printJSON(t)
}

func runSessionsSearch(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	term := strings.Join(args, " ")

	q, err := openQuerier()
	if err != nil {
		exitErr("open sessions", err)
	}

	hits, err := q.SearchSessionsByContent(cmd.Context(), term, cfg.UserID, cfg.AppName, limit)
	if err != nil {
		exitErr("search", err)
	}

	printJSON(hits)
}
