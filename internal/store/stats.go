package store

import (
	"context"
	"os"
)

// Stats holds memory database statistics.
type Stats struct {
	DBPath        string       `json:"db_path"`
	DBSizeBytes   int64        `json:"db_size_bytes"`
	TotalMemories int          `json:"total_memories"`
	Scopes        []ScopeStats `json:"scopes"`
}

// ScopeStats holds per app/user counts.
type ScopeStats struct {
	AppName  string `json:"app_name"`
	UserID   string `json:"user_id"`
	Memories int    `json:"memories"`
	Sessions int    `json:"sessions"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &Stats{DBPath: s.path, Scopes: []ScopeStats{}}

	if info, err := os.Stat(s.path); err == nil {
		st.DBSizeBytes = info.Size()
	}

	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories`).Scan(&st.TotalMemories); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT app_name, user_id, COUNT(*) AS cnt, COUNT(DISTINCT session_id)
		FROM memories
		GROUP BY app_name, user_id ORDER BY cnt DESC, app_name, user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var sc ScopeStats
		if err := rows.Scan(&sc.AppName, &sc.UserID, &sc.Memories, &sc.Sessions); err != nil {
			return nil, err
		}
		st.Scopes = append(st.Scopes, sc)
	}
	return st, rows.Err()
}
