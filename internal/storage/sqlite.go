package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/claude/perfutils/internal/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

func sqlitePlaceholder(int) string { return "?" }

// SQLiteStore is a file-backed log store for single-user and CLI use.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the SQLite log database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening log db: %w", err)
	}
	// A single connection serialises writers; SQLite would otherwise report
	// "database is locked" under concurrent requests.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS logs (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);
		CREATE TABLE IF NOT EXISTS log_items (
			log_id      TEXT NOT NULL,
			item_id     INTEGER NOT NULL,
			parent_id   INTEGER,
			item_type   TEXT NOT NULL,
			datetime    TIMESTAMP,
			duration    REAL,
			reps        INTEGER,
			load_kg     REAL,
			one_rep_max REAL,
			PRIMARY KEY (log_id, item_id)
		);`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating log tables: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateLog inserts a new, empty log.
func (s *SQLiteStore) CreateLog(ctx context.Context, name string) (*models.Log, error) {
	l := &models.Log{ID: uuid.New(), Name: name, CreatedAt: time.Now().UTC()}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO logs (id, name, created_at) VALUES (?, ?, ?)`,
		l.ID, l.Name, l.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting log: %w", err)
	}
	return l, nil
}

// GetLog returns a log by ID.
func (s *SQLiteStore) GetLog(ctx context.Context, id uuid.UUID) (*models.Log, error) {
	var l models.Log
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM logs WHERE id = ?`, id,
	).Scan(&l.ID, &l.Name, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("log %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying log: %w", err)
	}
	return &l, nil
}

// ListLogs returns all logs, newest first.
func (s *SQLiteStore) ListLogs(ctx context.Context) ([]models.Log, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at FROM logs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying logs: %w", err)
	}
	defer rows.Close()

	var result []models.Log
	for rows.Next() {
		var l models.Log
		if err := rows.Scan(&l.ID, &l.Name, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning log: %w", err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}

// DeleteLog removes a log and all of its items.
func (s *SQLiteStore) DeleteLog(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM log_items WHERE log_id = ?`, id); err != nil {
		return fmt.Errorf("deleting log items: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM logs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting log: %w", err)
	}
	if err := expectRow(res, fmt.Sprintf("log %s", id)); err != nil {
		return err
	}
	return tx.Commit()
}

// ListItems returns a log's items ordered by item ID.
func (s *SQLiteStore) ListItems(ctx context.Context, logID uuid.UUID) ([]models.LogItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM log_items WHERE log_id = ? ORDER BY item_id`, logID)
	if err != nil {
		return nil, fmt.Errorf("querying log items: %w", err)
	}
	defer rows.Close()

	var result []models.LogItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning log item: %w", err)
		}
		result = append(result, it)
	}
	return result, rows.Err()
}

// GetItem returns a single log item.
func (s *SQLiteStore) GetItem(ctx context.Context, logID uuid.UUID, itemID int64) (*models.LogItem, error) {
	it, err := scanItem(s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM log_items WHERE log_id = ? AND item_id = ?`, logID, itemID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %d: %w", itemID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying log item: %w", err)
	}
	return &it, nil
}

// InsertItem inserts one log item.
func (s *SQLiteStore) InsertItem(ctx context.Context, item models.LogItem) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO log_items (`+itemColumns+`) VALUES (?,?,?,?,?,?,?,?,?)`,
		itemArgs(item)...)
	if err != nil {
		return fmt.Errorf("inserting log item: %w", err)
	}
	return nil
}

// InsertItems inserts log items in one transaction, skipping duplicates.
// Returns count inserted.
func (s *SQLiteStore) InsertItems(ctx context.Context, items []models.LogItem) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO log_items (`+itemColumns+`) VALUES (?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, it := range items {
		res, err := stmt.ExecContext(ctx, itemArgs(it)...)
		if err != nil {
			return 0, fmt.Errorf("inserting log item %d: %w", it.ItemID, err)
		}
		n, _ := res.RowsAffected()
		inserted += n
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing log items: %w", err)
	}
	return inserted, nil
}

// UpdateItem changes the non-nil fields of upd on one item.
func (s *SQLiteStore) UpdateItem(ctx context.Context, logID uuid.UUID, itemID int64, upd models.LogItemUpdate) error {
	if upd.Empty() {
		return nil
	}
	set, args := updateSet(upd, sqlitePlaceholder)
	args = append(args, logID, itemID)
	res, err := s.db.ExecContext(ctx,
		`UPDATE log_items SET `+set+` WHERE log_id = ? AND item_id = ?`, args...)
	if err != nil {
		return fmt.Errorf("updating log item %d: %w", itemID, err)
	}
	return expectRow(res, fmt.Sprintf("item %d", itemID))
}

// DeleteItem removes one log item.
func (s *SQLiteStore) DeleteItem(ctx context.Context, logID uuid.UUID, itemID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM log_items WHERE log_id = ? AND item_id = ?`, logID, itemID)
	if err != nil {
		return fmt.Errorf("deleting log item %d: %w", itemID, err)
	}
	return expectRow(res, fmt.Sprintf("item %d", itemID))
}

// SetOneRepMax stores an estimated one-rep max on an item.
func (s *SQLiteStore) SetOneRepMax(ctx context.Context, logID uuid.UUID, itemID int64, value float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE log_items SET one_rep_max = ? WHERE log_id = ? AND item_id = ?`,
		value, logID, itemID)
	if err != nil {
		return fmt.Errorf("setting one-rep max on item %d: %w", itemID, err)
	}
	return expectRow(res, fmt.Sprintf("item %d", itemID))
}

func expectRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
