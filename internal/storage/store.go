package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/claude/perfutils/internal/models"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a log or log item does not exist.
var ErrNotFound = errors.New("not found")

// LogStore persists training logs. *DB (Postgres) and *SQLiteStore both
// satisfy it.
type LogStore interface {
	CreateLog(ctx context.Context, name string) (*models.Log, error)
	GetLog(ctx context.Context, id uuid.UUID) (*models.Log, error)
	ListLogs(ctx context.Context) ([]models.Log, error)
	DeleteLog(ctx context.Context, id uuid.UUID) error

	ListItems(ctx context.Context, logID uuid.UUID) ([]models.LogItem, error)
	GetItem(ctx context.Context, logID uuid.UUID, itemID int64) (*models.LogItem, error)
	InsertItem(ctx context.Context, item models.LogItem) error
	InsertItems(ctx context.Context, items []models.LogItem) (int64, error)
	UpdateItem(ctx context.Context, logID uuid.UUID, itemID int64, upd models.LogItemUpdate) error
	DeleteItem(ctx context.Context, logID uuid.UUID, itemID int64) error
	SetOneRepMax(ctx context.Context, logID uuid.UUID, itemID int64, value float64) error
}

// Compile-time checks.
var (
	_ LogStore = (*DB)(nil)
	_ LogStore = (*SQLiteStore)(nil)
)

const itemColumns = `log_id, item_id, parent_id, item_type, datetime, duration, reps, load_kg, one_rep_max`

// scanner is satisfied by pgx.Row(s) and *sql.Row(s).
type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (models.LogItem, error) {
	var it models.LogItem
	err := s.Scan(&it.LogID, &it.ItemID, &it.ParentID, &it.ItemType,
		&it.Datetime, &it.Duration, &it.Reps, &it.LoadKg, &it.OneRepMax)
	return it, err
}

func itemArgs(it models.LogItem) []any {
	return []any{it.LogID, it.ItemID, it.ParentID, it.ItemType,
		it.Datetime, it.Duration, it.Reps, it.LoadKg, it.OneRepMax}
}

// updateSet builds the SET clause of an item update. placeholder renders
// the n-th (1-based) bind parameter for the target driver.
func updateSet(upd models.LogItemUpdate, placeholder func(n int) string) (string, []any) {
	var clauses []string
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		clauses = append(clauses, fmt.Sprintf("%s = %s", col, placeholder(len(args))))
	}
	if upd.NewItemID != nil {
		add("item_id", *upd.NewItemID)
	}
	if upd.ParentID != nil {
		add("parent_id", *upd.ParentID)
	}
	if upd.ItemType != nil {
		add("item_type", *upd.ItemType)
	}
	if upd.Datetime != nil {
		add("datetime", *upd.Datetime)
	}
	if upd.Duration != nil {
		add("duration", *upd.Duration)
	}
	if upd.Reps != nil {
		add("reps", *upd.Reps)
	}
	if upd.LoadKg != nil {
		add("load_kg", *upd.LoadKg)
	}
	return strings.Join(clauses, ", "), args
}
