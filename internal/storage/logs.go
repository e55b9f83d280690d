package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/claude/perfutils/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func pgPlaceholder(n int) string { return fmt.Sprintf("$%d", n) }

// CreateLog inserts a new, empty log.
func (db *DB) CreateLog(ctx context.Context, name string) (*models.Log, error) {
	l := &models.Log{ID: uuid.New(), Name: name, CreatedAt: time.Now().UTC()}
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO logs (id, name, created_at) VALUES ($1, $2, $3)`,
		l.ID, l.Name, l.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting log: %w", err)
	}
	return l, nil
}

// GetLog returns a log by ID.
func (db *DB) GetLog(ctx context.Context, id uuid.UUID) (*models.Log, error) {
	var l models.Log
	err := db.Pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM logs WHERE id = $1`, id,
	).Scan(&l.ID, &l.Name, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("log %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying log: %w", err)
	}
	return &l, nil
}

// ListLogs returns all logs, newest first.
func (db *DB) ListLogs(ctx context.Context) ([]models.Log, error) {
	rows, err := db.Pool.Query(ctx, `SELECT id, name, created_at FROM logs ORDER BY created_at DESC`)
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
func (db *DB) DeleteLog(ctx context.Context, id uuid.UUID) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM log_items WHERE log_id = $1`, id); err != nil {
		return fmt.Errorf("deleting log items: %w", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM logs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("log %s: %w", id, ErrNotFound)
	}
	return tx.Commit(ctx)
}

// ListItems returns a log's items ordered by item ID.
func (db *DB) ListItems(ctx context.Context, logID uuid.UUID) ([]models.LogItem, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+itemColumns+` FROM log_items WHERE log_id = $1 ORDER BY item_id`, logID)
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
func (db *DB) GetItem(ctx context.Context, logID uuid.UUID, itemID int64) (*models.LogItem, error) {
	it, err := scanItem(db.Pool.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM log_items WHERE log_id = $1 AND item_id = $2`, logID, itemID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("item %d: %w", itemID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying log item: %w", err)
	}
	return &it, nil
}

// InsertItem inserts one log item.
func (db *DB) InsertItem(ctx context.Context, item models.LogItem) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO log_items (`+itemColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		itemArgs(item)...)
	if err != nil {
		return fmt.Errorf("inserting log item: %w", err)
	}
	return nil
}

// InsertItems batch-inserts log items, skipping duplicates. Returns count inserted.
func (db *DB) InsertItems(ctx context.Context, items []models.LogItem) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}

	query := `INSERT INTO log_items (` + itemColumns + `) VALUES `
	args := make([]any, 0, len(items)*9)
	valueStrings := make([]string, 0, len(items))

	for i, it := range items {
		base := i * 9
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9,
		))
		args = append(args, itemArgs(it)...)
	}

	query += strings.Join(valueStrings, ",") + " ON CONFLICT DO NOTHING"

	tag, err := db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting log items: %w", err)
	}
	return tag.RowsAffected(), nil
}

// UpdateItem changes the non-nil fields of upd on one item.
func (db *DB) UpdateItem(ctx context.Context, logID uuid.UUID, itemID int64, upd models.LogItemUpdate) error {
	if upd.Empty() {
		return nil
	}
	set, args := updateSet(upd, pgPlaceholder)
	n := len(args)
	args = append(args, logID, itemID)
	tag, err := db.Pool.Exec(ctx,
		fmt.Sprintf(`UPDATE log_items SET %s WHERE log_id = $%d AND item_id = $%d`, set, n+1, n+2),
		args...)
	if err != nil {
		return fmt.Errorf("updating log item %d: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("item %d: %w", itemID, ErrNotFound)
	}
	return nil
}

// DeleteItem removes one log item.
func (db *DB) DeleteItem(ctx context.Context, logID uuid.UUID, itemID int64) error {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM log_items WHERE log_id = $1 AND item_id = $2`, logID, itemID)
	if err != nil {
		return fmt.Errorf("deleting log item %d: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("item %d: %w", itemID, ErrNotFound)
	}
	return nil
}

// SetOneRepMax stores an estimated one-rep max on an item.
func (db *DB) SetOneRepMax(ctx context.Context, logID uuid.UUID, itemID int64, value float64) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE log_items SET one_rep_max = $3 WHERE log_id = $1 AND item_id = $2`,
		logID, itemID, value)
	if err != nil {
		return fmt.Errorf("setting one-rep max on item %d: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("item %d: %w", itemID, ErrNotFound)
	}
	return nil
}
