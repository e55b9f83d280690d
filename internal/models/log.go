package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Canonical log item types.
const (
	ItemSession  = "session"
	ItemExercise = "exercise"
	ItemSet      = "set"
)

// itemTypeMap maps lowercased item type spellings seen in exported logs to
// their canonical names.
var itemTypeMap = map[string]string{
	"session":  ItemSession,
	"workout":  ItemSession,
	"training": ItemSession,
	"day":      ItemSession,

	"exercise": ItemExercise,
	"movement": ItemExercise,
	"lift":     ItemExercise,

	"set":     ItemSet,
	"sets":    ItemSet,
	"series":  ItemSet,
	"working": ItemSet,
}

// NormalizeItemType maps an item type to its canonical name. Returns the
// canonical name and true if recognized, or the original string and false.
func NormalizeItemType(raw string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := itemTypeMap[lower]; ok {
		return canonical, true
	}
	return raw, false
}

// Log is a named training log.
type Log struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// LogItem is one entry of a training log. Items form a tree through ParentID:
// sessions contain exercises, exercises contain sets.
type LogItem struct {
	LogID     uuid.UUID  `json:"log_id"`
	ItemID    int64      `json:"item_id"`
	ParentID  *int64     `json:"parent_id,omitempty"`
	ItemType  string     `json:"item_type"`
	Datetime  *time.Time `json:"datetime,omitempty"`
	Duration  *float64   `json:"duration,omitempty"`
	Reps      *int       `json:"reps,omitempty"`
	LoadKg    *float64   `json:"load_kg,omitempty"`
	OneRepMax *float64   `json:"one_rep_max,omitempty"`
}

// HasLift reports whether the item carries a (reps, load) pair.
func (it LogItem) HasLift() bool {
	return it.Reps != nil && it.LoadKg != nil
}

// LogItemUpdate lists the fields to change on a log item. Nil fields are left
// untouched. NewItemID renumbers the item.
type LogItemUpdate struct {
	NewItemID *int64     `json:"item_id,omitempty"`
	ParentID  *int64     `json:"parent_id,omitempty"`
	ItemType  *string    `json:"item_type,omitempty"`
	Datetime  *time.Time `json:"datetime,omitempty"`
	Duration  *float64   `json:"duration,omitempty"`
	Reps      *int       `json:"reps,omitempty"`
	LoadKg    *float64   `json:"load_kg,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u LogItemUpdate) Empty() bool {
	return u.NewItemID == nil && u.ParentID == nil && u.ItemType == nil &&
		u.Datetime == nil && u.Duration == nil && u.Reps == nil && u.LoadKg == nil
}
