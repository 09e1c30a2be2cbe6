package norah

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const sqliteTimeLayout = "2006-01-02 15:04:05"

// Store wraps a SQLite connection holding agent profiles and clues.
// Implements DataStore; the current user is read from the context (WithUser).
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database and runs migrations.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("norah: mkdir %s: %w", filepath.Dir(path), err)
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("norah: open db: %w", err)
	}

	// Single connection avoids write contention for our scale
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("norah: migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return err
	}

	var version int
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version); err != nil {
		return err
	}

	if version < 1 {
		if _, err := s.db.Exec(`
			CREATE TABLE IF NOT EXISTS profiles (
				user_id    TEXT PRIMARY KEY,
				agent_code TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE TABLE IF NOT EXISTS clues (
				id          TEXT PRIMARY KEY,
				user_id     TEXT NOT NULL,
				title       TEXT NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				created_at  TEXT NOT NULL DEFAULT (datetime('now'))
			);
			CREATE INDEX IF NOT EXISTS idx_clues_user    ON clues(user_id);
			CREATE INDEX IF NOT EXISTS idx_clues_created ON clues(created_at);
		`); err != nil {
			return err
		}
		if _, err := s.db.Exec(`INSERT INTO schema_version (version) VALUES (1)`); err != nil {
			return err
		}
	}

	if version < 2 {
		// RecentClues filters by user and sorts by time in one index walk.
		s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_clues_user_created ON clues(user_id, created_at)`)
		s.db.Exec(`INSERT INTO schema_version (version) VALUES (2)`)
	}

	return nil
}

// --- DataStore ---

// CurrentUser returns the user id carried by ctx, or "" when anonymous.
func (s *Store) CurrentUser(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return UserFromContext(ctx), nil
}

// AgentCode returns the profile's agent code, or "" if none is stored.
func (s *Store) AgentCode(ctx context.Context, userID string) (string, error) {
	var code string
	err := s.db.QueryRowContext(ctx,
		`SELECT agent_code FROM profiles WHERE user_id = ?`, userID,
	).Scan(&code)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return code, err
}

// RecentClues returns the user's newest clues first, at most limit.
func (s *Store) RecentClues(ctx context.Context, userID string, limit int) ([]Clue, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, created_at
		FROM clues
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Clue
	for rows.Next() {
		var c Clue
		var created string
		if err := rows.Scan(&c.ID, &c.Title, &c.Text, &created); err != nil {
			return nil, err
		}
		c.CreatedAt, _ = time.Parse(sqliteTimeLayout, created)
		results = append(results, c)
	}
	return results, rows.Err()
}

// --- Seeding ---

// UpsertProfile stores or replaces the agent code for a user.
func (s *Store) UpsertProfile(ctx context.Context, userID, agentCode string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, agent_code) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET agent_code = excluded.agent_code`,
		userID, agentCode,
	)
	return err
}

// InsertClue stores a clue for a user and returns its id. A zero
// CreatedAt means now; an empty ID gets a fresh UUID.
func (s *Store) InsertClue(ctx context.Context, userID string, c Clue) (string, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clues (id, user_id, title, description, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, userID, c.Title, c.Text, c.CreatedAt.UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		return "", err
	}
	return c.ID, nil
}

// CountClues returns how many clues a user has in total.
func (s *Store) CountClues(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clues WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}

// Close shuts down the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
