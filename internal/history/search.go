package history

import (
	"context"
	"database/sql"

	"github.com/chronos-agent/agent-memory/internal/model"
)

// SearchSessionsByContent finds user messages whose raw stored content
// contains term as a literal, case-sensitive substring. Hits are returned
// newest first, at most limit of them.
func (q *Querier) SearchSessionsByContent(ctx context.Context, term, userID, appName string, limit int) ([]SearchHit, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	hits := []SearchHit{}
	err := q.read(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT DISTINCT e.session_id, s.create_time, e.content, e.timestamp
			FROM events e
			JOIN sessions s
			  ON e.session_id = s.id AND e.user_id = s.user_id AND e.app_name = s.app_name
			WHERE e.author = ?
			  AND e.user_id = ?
			  AND e.app_name = ?
			  AND instr(e.content, ?) > 0
			ORDER BY e.timestamp DESC
			LIMIT ?`, model.AuthorUser, userID, appName, term, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				h       SearchHit
				created model.DBTime
				ts      model.DBTime
				content sql.NullString
			)
			if err := rows.Scan(&h.SessionID, &created, &content, &ts); err != nil {
				return err
			}
			h.CreateTime, h.Timestamp = created.Time, ts.Time
			h.MatchingMessage = MessageText(DecodeContent(content.String))
			hits = append(hits, h)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return hits, nil
}
