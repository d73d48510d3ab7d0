package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"google.golang.org/genai"
	"modernc.org/sqlite"

	"github.com/chronos-agent/agent-memory/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS memories (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	app_name   TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	session_id TEXT NOT NULL,
	content    TEXT NOT NULL,
	metadata   TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_memories_scope ON memories(app_name, user_id);
CREATE INDEX IF NOT EXISTS idx_memories_content ON memories(content);
`

// foldFunc lowercases text with Unicode rules. SQLite's LOWER only folds ASCII.
const foldFunc = "fold_lower"

var registerFold = sync.OnceValue(func() error {
	return sqlite.RegisterDeterministicScalarFunction(foldFunc, 1, foldLower)
})

func foldLower(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// SQLiteStore implements MemoryService on a SQLite file.
//
// The database is opened and closed around every operation, and mu serializes
// all operations of one store.
type SQLiteStore struct {
	path string
	mu   sync.Mutex
}

var _ MemoryService = (*SQLiteStore)(nil)

// NewSQLiteStore creates the store and its schema at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	s := &SQLiteStore{path: dbPath}
	if err := s.Init(context.Background()); err != nil {
		return nil, fmt.Errorf("init memory store: %w", err)
	}
	return s, nil
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) open() (*sql.DB, error) {
	if err := registerFold(); err != nil {
		return nil, fmt.Errorf("register %s: %w", foldFunc, err)
	}
	db, err := sql.Open("sqlite", s.path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// Init creates the memories table and its indexes if they are missing.
func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}
	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, schema)
	return err
}

// AddSessionToMemory inserts one record per text part of every event of the
// session, in event order, inside a single transaction.
func (s *SQLiteStore) AddSessionToMemory(ctx context.Context, session *model.Session) error {
	if session == nil {
		return errors.New("nil session")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO memories (app_name, user_id, session_id, content, metadata)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	saved := 0
	for _, ev := range session.Events {
		texts := ev.Texts()
		if len(texts) == 0 {
			continue
		}
		meta, err := encodeMetadata(ev)
		if err != nil {
			return err
		}
		for _, text := range texts {
			if _, err := stmt.ExecContext(ctx, session.AppName, session.UserID, session.ID, text, meta); err != nil {
				return err
			}
			saved++
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	log.Info("saved session to memory", "session", session.ID, "records", saved)
	return nil
}

// SearchMemory matches query as a case-insensitive substring of stored content
// within one app/user and returns at most SearchLimit entries, newest first.
func (s *SQLiteStore) SearchMemory(ctx context.Context, appName, userID, query string) (*SearchMemoryResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx,
		`SELECT id, content, metadata, created_at
		 FROM memories
		 WHERE app_name = ? AND user_id = ? AND `+foldFunc+`(content) LIKE ? ESCAPE '\'
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		appName, userID, likePattern(strings.ToLower(query)), SearchLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	resp := &SearchMemoryResponse{Memories: []model.MemoryEntry{}}
	for rows.Next() {
		var (
			id        int64
			content   string
			meta      sql.NullString
			createdAt model.DBTime
		)
		if err := rows.Scan(&id, &content, &meta, &createdAt); err != nil {
			return nil, err
		}

		md, ok := decodeMetadata(meta)
		if !ok {
			log.Debug("memory metadata undecodable, using defaults", "id", id)
		}
		role := md.Author
		if role == "" {
			role = model.DefaultRole
		}
		resp.Memories = append(resp.Memories, model.MemoryEntry{
			Content: &genai.Content{
				Role:  role,
				Parts: []*genai.Part{{Text: content}},
			},
			Author:    md.Author,
			Timestamp: createdAt.Time,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	log.Debug("searched memory", "app", appName, "user", userID, "query", query, "found", len(resp.Memories))
	return resp, nil
}

// ClearAll deletes every memory of every app and user. It returns the number
// of records removed.
func (s *SQLiteStore) ClearAll(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.open()
	if err != nil {
		return 0, err
	}
	defer db.Close()

	res, err := db.ExecContext(ctx, `DELETE FROM memories`)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()

	log.Info("cleared memories", "records", n)
	return n, nil
}

func encodeMetadata(ev model.Event) (string, error) {
	md := model.MemoryMetadata{Author: ev.Author}
	if ev.ID != "" {
		id := ev.ID
		md.EventID = &id
	}
	b, err := json.Marshal(md)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	return string(b), nil
}

// decodeMetadata never fails: absent or malformed metadata yields the zero
// value, and ok reports whether the stored text was usable.
func decodeMetadata(raw sql.NullString) (md model.MemoryMetadata, ok bool) {
	if !raw.Valid || strings.TrimSpace(raw.String) == "" {
		return model.MemoryMetadata{}, true
	}
	if err := json.Unmarshal([]byte(raw.String), &md); err != nil {
		return model.MemoryMetadata{}, false
	}
	return md, true
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern wraps q for a LIKE substring match with wildcards escaped.
func likePattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (model.MemoryRecord, error) {
	var m model.MemoryRecord
	var meta sql.NullString
	var createdAt model.DBTime

	err := row.Scan(&m.ID, &m.AppName, &m.UserID, &m.SessionID, &m.Content, &meta, &createdAt)
	if err != nil {
		return m, err
	}
	if meta.Valid {
		m.Metadata = meta.String
	}
	m.CreatedAt = createdAt.Time
	return m, nil
}
