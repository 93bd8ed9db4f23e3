package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"habitualize/backend/mirror"
)

// Book is a mirror.RevisionBook stored in the table_revisions table.
type Book struct {
	db  *Database
	now func() time.Time
}

// NewBook creates a book over db.
func NewBook(db *Database) *Book {
	return &Book{db: db, now: time.Now}
}

// OpenBook opens the database at path and returns a book over it.
func OpenBook(path string) (*Book, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return NewBook(db), nil
}

// Close closes the underlying database.
func (b *Book) Close() error {
	return b.db.Close()
}

func (b *Book) Revision(tableID string) (string, bool, error) {
	var revision string
	err := b.db.QueryRow("SELECT revision FROM table_revisions WHERE table_id = ?", tableID).Scan(&revision)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read revision of %s: %w", tableID, err)
	}
	return revision, revision != "", nil
}

func (b *Book) SetRevision(tableID, revision string) error {
	_, err := b.db.Exec(`
		INSERT INTO table_revisions (table_id, revision, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(table_id) DO UPDATE SET revision = excluded.revision, updated_at = excluded.updated_at`,
		tableID, revision, b.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store revision of %s: %w", tableID, err)
	}
	return nil
}

func (b *Book) RecordSync(tableID string, direction mirror.Direction, syncErr error) error {
	now := b.now().Unix()

	var query string
	var args []interface{}
	switch {
	case syncErr != nil:
		query = `
			INSERT INTO table_revisions (table_id, last_error, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(table_id) DO UPDATE SET last_error = excluded.last_error, updated_at = excluded.updated_at`
		args = []interface{}{tableID, syncErr.Error(), now}
	case direction == mirror.DirectionPull:
		query = `
			INSERT INTO table_revisions (table_id, last_pull_at, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(table_id) DO UPDATE SET last_pull_at = excluded.last_pull_at, last_error = '', updated_at = excluded.updated_at`
		args = []interface{}{tableID, now, now}
	default:
		query = `
			INSERT INTO table_revisions (table_id, last_push_at, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(table_id) DO UPDATE SET last_push_at = excluded.last_push_at, last_error = '', updated_at = excluded.updated_at`
		args = []interface{}{tableID, now, now}
	}

	if _, err := b.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to record %s of %s: %w", direction, tableID, err)
	}
	return nil
}

func (b *Book) Status() ([]mirror.TableStatus, error) {
	rows, err := b.db.Query(`
		SELECT table_id, revision, last_pull_at, last_push_at, last_error
		FROM table_revisions ORDER BY table_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync status: %w", err)
	}
	defer rows.Close()

	var out []mirror.TableStatus
	for rows.Next() {
		var st mirror.TableStatus
		var pull, push sql.NullInt64
		if err := rows.Scan(&st.Table, &st.Revision, &pull, &push, &st.LastError); err != nil {
			return nil, fmt.Errorf("failed to scan sync status: %w", err)
		}
		if pull.Valid {
			st.LastPull = time.Unix(pull.Int64, 0)
		}
		if push.Valid {
			st.LastPush = time.Unix(push.Int64, 0)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
