package history

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/chronos-agent/agent-memory/internal/model"
)

var t0 = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) (*Recorder, *Querier) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sessions.db")
	r, err := NewRecorder(path)
	require.NoError(t, err)
	return r, NewQuerier(path)
}

func mustSession(t *testing.T, r *Recorder, id, userID string, at time.Time) *model.Session {
	t.Helper()
	s, err := r.CreateSession(context.Background(), SessionParams{ID: id, AppName: "my_agent", UserID: userID, CreateTime: at})
	require.NoError(t, err)
	return s
}

func say(t *testing.T, r *Recorder, s *model.Session, author, text string, at time.Time) *model.Event {
	t.Helper()
	ev, err := r.AppendEvent(context.Background(), s, model.Event{
		Author:    author,
		Timestamp: at,
		Content:   genai.NewContentFromText(text, genai.RoleUser),
	})
	require.NoError(t, err)
	return ev
}

func appendPart(t *testing.T, r *Recorder, s *model.Session, author string, part *genai.Part, at time.Time) *model.Event {
	t.Helper()
	ev, err := r.AppendEvent(context.Background(), s, model.Event{
		Author:    author,
		Timestamp: at,
		Content:   &genai.Content{Role: "model", Parts: []*genai.Part{part}},
	})
	require.NoError(t, err)
	return ev
}

// insertRawEvent writes an event row verbatim, bypassing content encoding.
func insertRawEvent(t *testing.T, r *Recorder, s *model.Session, id, author string, content, actions any, at time.Time) {
	t.Helper()
	err := r.exec(context.Background(), func(db *sql.DB) error {
		_, err := db.Exec(
			`INSERT INTO events (id, app_name, user_id, session_id, author, content, actions, timestamp)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, s.AppName, s.UserID, s.ID, author, content, actions, model.FormatTime(at))
		return err
	})
	require.NoError(t, err)
}

func str(s string) *string { return &s }
