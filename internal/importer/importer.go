package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/claude/perfutils/internal/formula"
	"github.com/claude/perfutils/internal/models"
	"github.com/claude/perfutils/internal/storage"
	"github.com/claude/perfutils/internal/traininglog"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// Stats tracks import and estimation progress.
type Stats struct {
	LiftsFound      int   `json:"lifts_found"`
	ItemsInserted   int64 `json:"items_inserted"`
	ItemsDuplicated int64 `json:"items_duplicated"`

	Estimated int `json:"estimated"`
	Skipped   int `json:"skipped"`

	// Problems lists non-fatal per-item failures, e.g. reps outside a
	// formula's domain.
	Problems []string `json:"problems,omitempty"`
}

func (s *Stats) addProblems(err error) {
	for _, e := range multierr.Errors(err) {
		s.Problems = append(s.Problems, e.Error())
	}
}

// Importer moves lifts from JSON training logs into a log store and writes
// one-rep max estimates back.
type Importer struct {
	store  storage.LogStore
	log    *slog.Logger
	dryRun bool
}

// New creates a new Importer.
func New(store storage.LogStore, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{store: store, log: log, dryRun: dryRun}
}

// ImportLifts stores every (reps, load) pair found in a parsed training log
// as a set item of logID. Item IDs continue after the log's highest ID.
func (imp *Importer) ImportLifts(ctx context.Context, logID uuid.UUID, root *traininglog.Node) (*Stats, error) {
	stats := &Stats{}
	lifts := traininglog.Lifts(root)
	stats.LiftsFound = len(lifts)
	if len(lifts) == 0 {
		return stats, nil
	}

	existing, err := imp.store.ListItems(ctx, logID)
	if err != nil {
		return stats, fmt.Errorf("listing items: %w", err)
	}
	var next int64 = 1
	for _, it := range existing {
		if it.ItemID >= next {
			next = it.ItemID + 1
		}
	}

	items := make([]models.LogItem, 0, len(lifts))
	for _, l := range lifts {
		reps, load := l.Reps, l.Load
		items = append(items, models.LogItem{
			LogID:    logID,
			ItemID:   next,
			ItemType: models.ItemSet,
			Reps:     &reps,
			LoadKg:   &load,
		})
		next++
	}

	if imp.dryRun {
		stats.ItemsInserted = int64(len(items))
		return stats, nil
	}

	inserted, err := imp.store.InsertItems(ctx, items)
	if err != nil {
		return stats, fmt.Errorf("inserting lifts: %w", err)
	}
	stats.ItemsInserted = inserted
	stats.ItemsDuplicated = int64(len(items)) - inserted
	imp.log.Info("imported lifts", "log_id", logID, "found", len(lifts), "inserted", inserted)
	return stats, nil
}

// EstimateLog computes the one-rep max of every item carrying reps and load
// and stores it on the item. Items outside the formula's domain are skipped
// and reported in Stats.Problems.
func (imp *Importer) EstimateLog(ctx context.Context, logID uuid.UUID, f formula.Formula) (*Stats, error) {
	stats := &Stats{}
	items, err := imp.store.ListItems(ctx, logID)
	if err != nil {
		return stats, fmt.Errorf("listing items: %w", err)
	}

	var problems error
	for _, it := range items {
		if !it.HasLift() {
			continue
		}
		stats.LiftsFound++

		orm, err := f.OneRepMax(*it.Reps, *it.LoadKg)
		if err != nil {
			if !errors.Is(err, formula.ErrDomain) {
				return stats, err
			}
			stats.Skipped++
			problems = multierr.Append(problems, fmt.Errorf("item %d: %w", it.ItemID, err))
			continue
		}

		if !imp.dryRun {
			if err := imp.store.SetOneRepMax(ctx, logID, it.ItemID, orm); err != nil {
				return stats, err
			}
		}
		stats.Estimated++
	}

	stats.addProblems(problems)
	if problems != nil {
		imp.log.Warn("some items were not estimated", "log_id", logID, "formula", f.Name(), "error", problems)
	}
	return stats, nil
}
