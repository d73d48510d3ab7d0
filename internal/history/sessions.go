package history

import (
	"context"
	"database/sql"

	"github.com/chronos-agent/agent-memory/internal/model"
)

// ListRecentSessions returns up to limit sessions of a user, most recently
// updated first, each with its event count and first/last user message.
func (q *Querier) ListRecentSessions(ctx context.Context, userID, appName string, limit int) ([]SessionSummary, error) {
	if limit <= 0 {
		limit = DefaultSessionLimit
	}

	var result []SessionSummary
	err := q.read(ctx, func(tx *sql.Tx) error {
		var err error
		if result, err = recentSessions(ctx, tx, userID, appName, limit); err != nil {
			return err
		}
		// The session rows are fully read before the per-session lookups run
		// on the same connection.
		for i := range result {
			id := result[i].SessionID
			if result[i].FirstMessage, err = messageAt(ctx, tx, id, userID, appName, true); err != nil {
				return err
			}
			if result[i].LastMessage, err = messageAt(ctx, tx, id, userID, appName, false); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func recentSessions(ctx context.Context, tx *sql.Tx, userID, appName string, limit int) ([]SessionSummary, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT s.id, s.create_time, s.update_time, COUNT(e.id) AS event_count
		FROM sessions s
		LEFT JOIN events e
		  ON s.id = e.session_id AND s.user_id = e.user_id AND s.app_name = e.app_name
		WHERE s.user_id = ? AND s.app_name = ?
		GROUP BY s.id, s.create_time, s.update_time
		ORDER BY s.update_time DESC, s.id DESC
		LIMIT ?`, userID, appName, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []SessionSummary{}
	for rows.Next() {
		var (
			sum     SessionSummary
			created model.DBTime
			updated model.DBTime
		)
		if err := rows.Scan(&sum.SessionID, &created, &updated, &sum.EventCount); err != nil {
			return nil, err
		}
		sum.CreateTime, sum.UpdateTime = created.Time, updated.Time
		sessions = append(sessions, sum)
	}
	return sessions, rows.Err()
}
