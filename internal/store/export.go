package store

import (
	"context"
	"strings"

	"github.com/chronos-agent/agent-memory/internal/model"
)

// ExportAll returns stored records in insertion order, optionally filtered by
// app and user. Empty filters match everything.
func (s *SQLiteStore) ExportAll(ctx context.Context, appName, userID string) ([]model.MemoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	where := []string{"1 = 1"}
	args := []interface{}{}

	if appName != "" {
		where = append(where, "app_name = ?")
		args = append(args, appName)
	}
	if userID != "" {
		where = append(where, "user_id = ?")
		args = append(args, userID)
	}

	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	query := `SELECT id, app_name, user_id, session_id, content, metadata, created_at
	          FROM memories WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []model.MemoryRecord{}
	for rows.Next() {
		m, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, m)
	}
	return records, rows.Err()
}
