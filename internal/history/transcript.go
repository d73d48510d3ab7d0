package history

import (
	"context"
	"database/sql"
	"errors"

	"github.com/charmbracelet/log"

	"github.com/chronos-agent/agent-memory/internal/model"
)

// GetSessionTranscript returns a session with all of its events in ascending
// timestamp order. It fails with a *NotFoundError when no session matches.
func (q *Querier) GetSessionTranscript(ctx context.Context, sessionID, userID, appName string) (*Transcript, error) {
	var t *Transcript
	err := q.read(ctx, func(tx *sql.Tx) error {
		head, err := sessionHead(ctx, tx, sessionID, userID, appName)
		if err != nil {
			return err
		}
		t = &Transcript{
			SessionID:  head.ID,
			CreateTime: head.CreateTime,
			UpdateTime: head.UpdateTime,
			Events:     []TranscriptEvent{},
		}

		return eachEvent(ctx, tx, sessionID, userID, appName, func(r eventRow) {
			ev := TranscriptEvent{
				EventID:   r.id,
				Author:    r.author,
				Timestamp: r.timestamp.Time,
				Payload:   DecodeContent(r.content.String),
				Actions:   decodeActions(r.actions.String),
			}
			if _, raw := ev.Payload.(RawPayload); raw {
				log.Debug("event content undecodable, returning raw", "event", r.id)
			}
			t.Events = append(t.Events, ev)
		})
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func sessionHead(ctx context.Context, tx *sql.Tx, sessionID, userID, appName string) (*model.Session, error) {
	s := model.Session{AppName: appName, UserID: userID}
	var created, updated model.DBTime
	err := tx.QueryRowContext(ctx,
		`SELECT id, create_time, update_time FROM sessions
		 WHERE id = ? AND user_id = ? AND app_name = ?`,
		sessionID, userID, appName).Scan(&s.ID, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{SessionID: sessionID, UserID: userID, AppName: appName}
	}
	if err != nil {
		return nil, err
	}
	s.CreateTime, s.UpdateTime = created.Time, updated.Time
	return &s, nil
}

type eventRow struct {
	id        string
	author    string
	content   sql.NullString
	actions   sql.NullString
	timestamp model.DBTime
}

func eachEvent(ctx context.Context, tx *sql.Tx, sessionID, userID, appName string, fn func(eventRow)) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, author, content, actions, timestamp FROM events
		 WHERE session_id = ? AND user_id = ? AND app_name = ?
		 ORDER BY timestamp ASC`,
		sessionID, userID, appName)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var r eventRow
		if err := rows.Scan(&r.id, &r.author, &r.content, &r.actions, &r.timestamp); err != nil {
			return err
		}
		fn(r)
	}
	return rows.Err()
}
