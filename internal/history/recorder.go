package history

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/chronos-agent/agent-memory/internal/model"
)

const sessionSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id          TEXT NOT NULL,
	app_name    TEXT NOT NULL,
	user_id     TEXT NOT NULL,
	state       TEXT,
	create_time TIMESTAMP NOT NULL,
	update_time TIMESTAMP NOT NULL,
	PRIMARY KEY (app_name, user_id, id)
);
CREATE TABLE IF NOT EXISTS events (
	id         TEXT NOT NULL,
	app_name   TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	session_id TEXT NOT NULL,
	author     TEXT NOT NULL,
	content    TEXT,
	actions    TEXT,
	timestamp  TIMESTAMP NOT NULL,
	PRIMARY KEY (id, app_name, user_id, session_id)
);
CREATE INDEX IF NOT EXISTS idx_events_session ON events(app_name, user_id, session_id, timestamp);
`

// SessionParams holds parameters for creating a session.
type SessionParams struct {
	ID         string // generated when empty
	AppName    string
	UserID     string
	CreateTime time.Time // now when zero
}

// Recorder writes sessions and events in the layout read by Querier. It plays
// the part of the runtime's session service for local use and tests.
type Recorder struct {
	path    string
	mu      sync.Mutex
	entropy *rand.Rand
}

// NewRecorder opens or creates the session database at dbPath.
func NewRecorder(dbPath string) (*Recorder, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	r := &Recorder{
		path:    dbPath,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if err := r.exec(context.Background(), func(db *sql.DB) error {
		_, err := db.Exec(sessionSchema)
		return err
	}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

// Path returns the database file location.
func (r *Recorder) Path() string {
	return r.path
}

func (r *Recorder) exec(ctx context.Context, fn func(db *sql.DB) error) error {
	db, err := sql.Open("sqlite", r.path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)")
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)
	return fn(db)
}

func (r *Recorder) newSessionID(at time.Time) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(at), r.entropy).String()
}

// CreateSession inserts a new, empty session.
func (r *Recorder) CreateSession(ctx context.Context, p SessionParams) (*model.Session, error) {
	at := p.CreateTime
	if at.IsZero() {
		at = time.Now()
	}
	at = at.UTC()
	id := p.ID
	if id == "" {
		id = r.newSessionID(at)
	}

	err := r.exec(ctx, func(db *sql.DB) error {
		_, err := db.ExecContext(ctx,
			`INSERT INTO sessions (id, app_name, user_id, state, create_time, update_time)
			 VALUES (?, ?, ?, '{}', ?, ?)`,
			id, p.AppName, p.UserID, model.FormatTime(at), model.FormatTime(at))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	return &model.Session{
		ID:         id,
		AppName:    p.AppName,
		UserID:     p.UserID,
		CreateTime: at,
		UpdateTime: at,
	}, nil
}

// AppendEvent stores ev under session s and advances the session's update
// time. Missing event ids and timestamps are filled in. The stored event is
// appended to s.Events and returned. It fails with a *NotFoundError when s
// was never created.
func (r *Recorder) AppendEvent(ctx context.Context, s *model.Session, ev model.Event) (*model.Event, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	ev.Timestamp = ev.Timestamp.UTC()

	content, err := encodeContent(ev.Content)
	if err != nil {
		return nil, fmt.Errorf("encode content: %w", err)
	}
	var actions *string
	if len(ev.Actions) > 0 {
		a := string(ev.Actions)
		actions = &a
	}
	ts := model.FormatTime(ev.Timestamp)

	err = r.exec(ctx, func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		_, err = tx.ExecContext(ctx,
			`INSERT INTO events (id, app_name, user_id, session_id, author, content, actions, timestamp)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			ev.ID, s.AppName, s.UserID, s.ID, ev.Author, content, actions, ts)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE sessions SET update_time = max(update_time, ?)
			 WHERE id = ? AND app_name = ? AND user_id = ?`,
			ts, s.ID, s.AppName, s.UserID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return &NotFoundError{SessionID: s.ID, UserID: s.UserID, AppName: s.AppName}
		}
		return tx.Commit()
	})
	if err != nil {
		return nil, fmt.Errorf("append event: %w", err)
	}

	if ev.Timestamp.After(s.UpdateTime) {
		s.UpdateTime = ev.Timestamp
	}
	s.Events = append(s.Events, ev)
	return &ev, nil
}
