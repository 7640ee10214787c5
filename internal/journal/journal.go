package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Session is one recorded online period.
type Session struct {
	ID             int64
	Channel        string
	RoomID         int64
	StartedAt      time.Time
	EndedAt        time.Time // zero while the session is still live
	TranscriptPath string
	Sentences      int64
}

// Active reports whether the session has not been finished yet.
func (s Session) Active() bool {
	return s.EndedAt.IsZero()
}

// Store manages session persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    channel TEXT NOT NULL,
    room_id INTEGER NOT NULL,
    started_at TEXT NOT NULL,
    ended_at TEXT,
    transcript_path TEXT NOT NULL,
    sentences INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_sessions_room ON sessions(room_id, started_at);
`

// Open initializes or connects to the journal database.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure journal dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply journal schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// StartSession records a new live session and returns its id.
func (s *Store) StartSession(ctx context.Context, channel string, roomID int64, startedAt time.Time, transcriptPath string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (channel, room_id, started_at, transcript_path) VALUES (?, ?, ?, ?)`,
		channel, roomID, startedAt.UTC().Format(time.RFC3339Nano), transcriptPath,
	)
	if err != nil {
		return 0, fmt.Errorf("insert session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// FinishSession marks a session as ended with its final sentence count.
func (s *Store) FinishSession(ctx context.Context, id int64, endedAt time.Time, sentences int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ?, sentences = ? WHERE id = ?`,
		endedAt.UTC().Format(time.RFC3339Nano), sentences, id,
	)
	if err != nil {
		return fmt.Errorf("finish session %d: %w", id, err)
	}
	return nil
}

// SetSentences updates the running sentence count for a live session.
func (s *Store) SetSentences(ctx context.Context, id int64, sentences int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET sentences = ? WHERE id = ?`, sentences, id)
	if err != nil {
		return fmt.Errorf("update session %d sentences: %w", id, err)
	}
	return nil
}

// GetByID fetches one session.
func (s *Store) GetByID(ctx context.Context, id int64) (*Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, channel, room_id, started_at, ended_at, transcript_path, sentences
		 FROM sessions WHERE id = ?`, id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %d not found", id)
	}
	return session, err
}

// List returns sessions newest first.
func (s *Store) List(ctx context.Context) ([]*Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, channel, room_id, started_at, ended_at, transcript_path, sentences
		 FROM sessions ORDER BY started_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	var (
		session   Session
		startedAt string
		endedAt   sql.NullString
	)
	if err := row.Scan(&session.ID, &session.Channel, &session.RoomID, &startedAt, &endedAt, &session.TranscriptPath, &session.Sentences); err != nil {
		return nil, err
	}

	parsed, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse started_at %q: %w", startedAt, err)
	}
	session.StartedAt = parsed

	if endedAt.Valid && endedAt.String != "" {
		parsed, err := time.Parse(time.RFC3339Nano, endedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse ended_at %q: %w", endedAt.String, err)
		}
		session.EndedAt = parsed
	}
	return &session, nil
}
