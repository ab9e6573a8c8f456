// Package history keeps executed SQL statements in a local SQLite
// database, newest first, capped to a configurable limit.
package history

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/unkn0wn-root/esterm/internal/errdef"
)

const defaultLimit = 200

type Item struct {
	ID        string
	Title     string
	SQL       string
	CreatedAt time.Time
}

type Store struct {
	db    *sql.DB
	limit int
	now   func() time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS sql_history (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	statement  TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sql_history_created ON sql_history (created_at DESC);
`

func Open(path string, limit int) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errdef.Wrap(errdef.CodeFilesystem, err, "create history dir")
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeHistory, err, "open history db")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errdef.Wrap(errdef.CodeHistory, err, "create history schema")
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	return &Store{db: db, limit: limit, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Append records an executed statement and trims the table back to the
// cap, dropping the oldest rows.
func (s *Store) Append(title, statement string) (Item, error) {
	item := Item{
		ID:        uuid.NewString(),
		Title:     title,
		SQL:       statement,
		CreatedAt: s.now().UTC(),
	}
	_, err := s.db.Exec(
		"INSERT INTO sql_history (id, title, statement, created_at) VALUES (?, ?, ?, ?)",
		item.ID, item.Title, item.SQL, item.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return Item{}, errdef.Wrap(errdef.CodeHistory, err, "append history")
	}
	_, err = s.db.Exec(
		`DELETE FROM sql_history WHERE id NOT IN (
			SELECT id FROM sql_history ORDER BY created_at DESC, id DESC LIMIT ?
		)`, s.limit,
	)
	if err != nil {
		return Item{}, errdef.Wrap(errdef.CodeHistory, err, "trim history")
	}
	return item, nil
}

// Recent returns up to n items, newest first. n <= 0 means the cap.
func (s *Store) Recent(n int) ([]Item, error) {
	if n <= 0 || n > s.limit {
		n = s.limit
	}
	rows, err := s.db.Query(
		"SELECT id, title, statement, created_at FROM sql_history ORDER BY created_at DESC, id DESC LIMIT ?", n,
	)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeHistory, err, "query history")
	}
	defer rows.Close()
	return scanItems(rows)
}

// Search matches term against titles and statement text, newest first.
func (s *Store) Search(term string) ([]Item, error) {
	pattern := "%" + term + "%"
	rows, err := s.db.Query(
		`SELECT id, title, statement, created_at FROM sql_history
		 WHERE title LIKE ? OR statement LIKE ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`,
		pattern, pattern, s.limit,
	)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeHistory, err, "search history")
	}
	defer rows.Close()
	return scanItems(rows)
}

func (s *Store) Delete(id string) (bool, error) {
	res, err := s.db.Exec("DELETE FROM sql_history WHERE id = ?", id)
	if err != nil {
		return false, errdef.Wrap(errdef.CodeHistory, err, "delete history item")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errdef.Wrap(errdef.CodeHistory, err, "delete history item")
	}
	return n > 0, nil
}

func scanItems(rows *sql.Rows) ([]Item, error) {
	var items []Item
	for rows.Next() {
		var (
			item Item
			ms   int64
		)
		if err := rows.Scan(&item.ID, &item.Title, &item.SQL, &ms); err != nil {
			return nil, errdef.Wrap(errdef.CodeHistory, err, "scan history row")
		}
		item.CreatedAt = time.UnixMilli(ms).UTC()
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, errdef.Wrap(errdef.CodeHistory, err, "read history rows")
	}
	return items, nil
}
