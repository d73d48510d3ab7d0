// Package history provides read-only queries over the session and event
// tables written by the agent runtime's session service.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"github.com/chronos-agent/agent-memory/internal/model"
)

// Default result sizes used when a caller passes a non-positive limit.
const (
	DefaultSessionLimit = 10
	DefaultSearchLimit  = 5
)

// SessionSummary is one row of ListRecentSessions.
type SessionSummary struct {
	SessionID    string    `json:"session_id"`
	CreateTime   time.Time `json:"create_time"`
	UpdateTime   time.Time `json:"update_time"`
	EventCount   int       `json:"event_count"`
	FirstMessage *string   `json:"first_message"`
	LastMessage  *string   `json:"last_message"`
}

// Transcript is a whole session with its events in timestamp order.
type Transcript struct {
	SessionID  string            `json:"session_id"`
	CreateTime time.Time         `json:"create_time"`
	UpdateTime time.Time         `json:"update_time"`
	Events     []TranscriptEvent `json:"events"`
}

// TranscriptEvent is one normalized event of a transcript.
type TranscriptEvent struct {
	EventID   string
	Author    string
	Timestamp time.Time
	Payload   Payload
	Actions   any
}

// MarshalJSON flattens the payload into exactly one of the text,
// function_call, function_response or content fields.
func (e TranscriptEvent) MarshalJSON() ([]byte, error) {
	out := struct {
		EventID          string          `json:"event_id"`
		Author           string          `json:"author"`
		Timestamp        time.Time       `json:"timestamp"`
		Text             *string         `json:"text,omitempty"`
		FunctionCall     json.RawMessage `json:"function_call,omitempty"`
		FunctionResponse json.RawMessage `json:"function_response,omitempty"`
		Content          *string         `json:"content,omitempty"`
		Actions          any             `json:"actions,omitempty"`
	}{
		EventID:   e.EventID,
		Author:    e.Author,
		Timestamp: e.Timestamp,
		Actions:   e.Actions,
	}
	switch p := e.Payload.(type) {
	case TextPayload:
		out.Text = &p.Text
	case FunctionCallPayload:
		out.FunctionCall = p.Call
	case FunctionResponsePayload:
		out.FunctionResponse = p.Response
	case RawPayload:
		out.Content = &p.Raw
	}
	return json.Marshal(out)
}

// SearchHit is one user message matched by SearchSessionsByContent.
type SearchHit struct {
	SessionID       string    `json:"session_id"`
	CreateTime      time.Time `json:"create_time"`
	MatchingMessage *string   `json:"matching_message"`
	Timestamp       time.Time `json:"timestamp"`
}

// Querier answers read-only questions about past sessions.
//
// Each operation opens the database read-only, runs inside one transaction,
// and closes it again. A missing database file is an error and is not created.
type Querier struct {
	path string
}

// NewQuerier returns a Querier over the session database at dbPath.
func NewQuerier(dbPath string) *Querier {
	return &Querier{path: dbPath}
}

// Path returns the database file location.
func (q *Querier) Path() string {
	return q.path
}

func (q *Querier) read(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if _, err := os.Stat(q.path); err != nil {
		return err
	}
	db, err := sql.Open("sqlite", "file:"+q.path+"?mode=ro&_pragma=busy_timeout(5000)&_pragma=query_only(1)")
	if err != nil {
		return err
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	return fn(tx)
}

// messageAt returns the text of the earliest (asc) or latest user message of a session.
func messageAt(ctx context.Context, tx *sql.Tx, sessionID, userID, appName string, asc bool) (*string, error) {
	order := "DESC"
	if asc {
		order = "ASC"
	}
	var content sql.NullString
	err := tx.QueryRowContext(ctx,
		`SELECT content FROM events
		 WHERE session_id = ? AND user_id = ? AND app_name = ? AND author = ?
		 ORDER BY timestamp `+order+` LIMIT 1`,
		sessionID, userID, appName, model.AuthorUser).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return MessageText(DecodeContent(content.String)), nil
}
