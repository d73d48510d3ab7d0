package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/cobra"
	"google.golang.org/genai"

	"github.com/chronos-agent/agent-memory/internal/history"
	"github.com/chronos-agent/agent-memory/internal/model"
)

// recordInput is the JSON read by "sessions record".
type recordInput struct {
	SessionID string        `json:"session_id,omitempty"`
	Events    []recordEvent `json:"events"`
}

type recordEvent struct {
	Author    string          `json:"author"`
	Text      string          `json:"text,omitempty"`
	Content   *genai.Content  `json:"content,omitempty"`
	Actions   json.RawMessage `json:"actions,omitempty"`
	Timestamp time.Time       `json:"timestamp,omitempty"`
}

func init() {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a session from JSON",
		Long: "Read a session from stdin and write it to the session database.\n" +
			`Input: {"session_id":"optional","events":[{"author":"user","text":"..."}]}`,
		Run: runRecord,
	}

	cmd.Flags().Bool("ingest", false, "Also store the session's text in memory")

	sessionsCmd.AddCommand(cmd)
}

func runRecord(cmd *cobra.Command, args []string) {
	ingest, _ := cmd.Flags().GetBool("ingest")

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		exitErr("read stdin", err)
	}
	in, err := parseRecordInput(data)
	if err != nil {
		exitErr("parse json", err)
	}

	r, err := history.NewRecorder(cfg.SessionDB)
	if err != nil {
		exitErr("open sessions", err)
	}

	session, err := r.CreateSession(cmd.Context(), history.SessionParams{
		ID:      in.SessionID,
		AppName: cfg.AppName,
		UserID:  cfg.UserID,
	})
	if err != nil {
		exitErr("create session", err)
	}
	for _, ev := range in.Events {
		if _, err := r.AppendEvent(cmd.Context(), session, ev.toEvent()); err != nil {
			exitErr("append event", err)
		}
	}

	if ingest {
		s, err := openStore()
		if err != nil {
			exitErr("open store", err)
		}
		if err := s.AddSessionToMemory(cmd.Context(), session); err != nil {
			exitErr("ingest", err)
		}
	}

	fmt.Printf(`{"ok":true,"session_id":%q,"events":%d}`+"\n", session.ID, len(session.Events))
}

func parseRecordInput(data []byte) (*recordInput, error) {
	var in recordInput
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, goerr.Wrap(err, "invalid session JSON")
	}
	for i, ev := range in.Events {
		if ev.Author == "" {
			return nil, goerr.New("event author is required", goerr.V("index", i))
		}
		if ev.Text == "" && ev.Content == nil {
			return nil, goerr.New("event needs text or content", goerr.V("index", i))
		}
	}
	return &in, nil
}

func (e recordEvent) toEvent() model.Event {
	content := e.Content
	if content == nil {
		var role genai.Role = genai.RoleModel
		if e.Author == model.AuthorUser {
			role = genai.RoleUser
		}
		content = genai.NewContentFromText(e.Text, role)
	}
	return model.Event{
		Author:    e.Author,
		Timestamp: e.Timestamp,
		Content:   content,
		Actions:   e.Actions,
	}
}
