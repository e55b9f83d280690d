package alpha

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/claude/perfutils/internal/models"
	"github.com/claude/perfutils/internal/storage"
	"github.com/google/uuid"
)

// ErrParse marks exports that could not be read.
var ErrParse = errors.New("alpha: malformed export")

// Result summarizes one Alpha Progression import.
type Result struct {
	SessionsReceived  int   `json:"sessions_received"`
	ExercisesReceived int   `json:"exercises_received"`
	SetsReceived      int   `json:"sets_received"`
	WarmupsSkipped    int   `json:"warmups_skipped"`
	ItemsInserted     int64 `json:"items_inserted"`
	ItemsSkipped      int64 `json:"items_skipped"`
}

// Provider stores Alpha Progression exports as log item trees.
type Provider struct {
	store storage.LogStore
	log   *slog.Logger
}

// NewProvider creates a new Alpha Progression provider.
func NewProvider(store storage.LogStore, log *slog.Logger) *Provider {
	return &Provider{store: store, log: log}
}

// Ingest parses r and appends its sessions to logID. Item IDs continue
// after the log's highest ID.
func (p *Provider) Ingest(ctx context.Context, logID uuid.UUID, r io.Reader) (*Result, error) {
	sessions, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	res := &Result{SessionsReceived: len(sessions)}
	for _, s := range sessions {
		res.ExercisesReceived += len(s.Exercises)
		for _, e := range s.Exercises {
			for _, set := range e.Sets {
				if set.Warmup {
					res.WarmupsSkipped++
				} else {
					res.SetsReceived++
				}
			}
		}
	}
	if len(sessions) == 0 {
		return res, nil
	}

	existing, err := p.store.ListItems(ctx, logID)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	var next int64 = 1
	for _, it := range existing {
		if it.ItemID >= next {
			next = it.ItemID + 1
		}
	}

	items := Items(logID, sessions, next)
	inserted, err := p.store.InsertItems(ctx, items)
	if err != nil {
		return nil, fmt.Errorf("inserting items: %w", err)
	}
	res.ItemsInserted = inserted
	res.ItemsSkipped = int64(len(items)) - inserted

	p.log.Info("alpha import complete",
		"log_id", logID,
		"sessions", res.SessionsReceived,
		"sets", res.SetsReceived,
		"inserted", inserted,
	)
	return res, nil
}

// Items flattens sessions into session, exercise and set items numbered
// from firstID. Warmups are dropped and bodyweight-plus sets carry reps only.
func Items(logID uuid.UUID, sessions []Session, firstID int64) []models.LogItem {
	var items []models.LogItem
	id := firstID
	for _, s := range sessions {
		sessionID := id
		date := s.Date
		item := models.LogItem{LogID: logID, ItemID: sessionID, ItemType: models.ItemSession, Datetime: &date}
		if min, ok := parseDuration(s.Duration); ok {
			item.Duration = &min
		}
		items = append(items, item)
		id++

		for _, e := range s.Exercises {
			exerciseID := id
			items = append(items, models.LogItem{LogID: logID, ItemID: exerciseID, ParentID: &sessionID, ItemType: models.ItemExercise})
			id++

			for _, set := range e.Sets {
				if set.Warmup {
					continue
				}
				reps := set.Reps
				it := models.LogItem{LogID: logID, ItemID: id, ParentID: &exerciseID, ItemType: models.ItemSet, Reps: &reps}
				if !set.BodyweightPlus {
					load := set.LoadKg
					it.LoadKg = &load
				}
				items = append(items, it)
				id++
			}
		}
	}
	return items
}
