package history

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/charmbracelet/log"

	"github.com/chronos-agent/agent-memory/internal/model"
)

// LoadSession reads a whole session with fully decoded event content, in the
// form expected by a memory service. Events whose content cannot be decoded
// keep a nil Content.
func (q *Querier) LoadSession(ctx context.Context, sessionID, userID, appName string) (*model.Session, error) {
	var s *model.Session
	err := q.read(ctx, func(tx *sql.Tx) error {
		var err error
		if s, err = sessionHead(ctx, tx, sessionID, userID, appName); err != nil {
			return err
		}
		return eachEvent(ctx, tx, sessionID, userID, appName, func(r eventRow) {
			ev := model.Event{ID: r.id, Author: r.author, Timestamp: r.timestamp.Time}
			content, ok := decodeGenaiContent(r.content.String)
			if !ok {
				log.Debug("event content undecodable, skipping", "event", r.id)
			}
			ev.Content = content
			if r.actions.Valid && json.Valid([]byte(r.actions.String)) {
				ev.Actions = json.RawMessage(r.actions.String)
			}
			s.Events = append(s.Events, ev)
		})
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}
