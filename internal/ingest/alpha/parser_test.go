package alpha

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/claude/perfutils/internal/models"
	"github.com/claude/perfutils/internal/storage"
	"github.com/google/uuid"
)

const sampleCSV = `"Legs · Day 2";"2026-02-19 4:54 h";"1:02 hr"
"1. Hack Squats · Machine · 8 reps";"WU1 · 37,5 kg · 9 reps<br>WU2 · 70 kg · 5 reps"
#;KG;REPS;RIR
1;115;8;1
2;117,5;7;0,5

"2. Dips · Bodyweight · 10 reps"
#;KG;REPS;RIR
1;+35;10;2

"Push · Day 1";"2026-02-21 18:05 h";"0:48 hr"
"1. Bench Press · Barbell · 5 reps"
#;KG;REPS;RIR
1;100;5;1
`

// TestParseSample verifies sessions, exercises and sets are read from an
// export, including warmups and European decimals.
func TestParseSample(t *testing.T) {
	sessions, err := Parse(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}

	legs := sessions[0]
	if legs.Name != "Legs · Day 2" {
		t.Errorf("Name = %q", legs.Name)
	}
	wantDate := time.Date(2026, 2, 19, 4, 54, 0, 0, time.UTC)
	if !legs.Date.Equal(wantDate) {
		t.Errorf("Date = %v, want %v", legs.Date, wantDate)
	}
	if len(legs.Exercises) != 2 {
		t.Fatalf("got %d exercises, want 2", len(legs.Exercises))
	}

	hack := legs.Exercises[0]
	if hack.Name != "Hack Squats" || hack.Equipment != "Machine" || hack.TargetReps != 8 {
		t.Errorf("exercise = %+v", hack)
	}
	if len(hack.Sets) != 4 {
		t.Fatalf("got %d sets, want 4", len(hack.Sets))
	}
	if !hack.Sets[0].Warmup || hack.Sets[0].LoadKg != 37.5 || hack.Sets[0].Reps != 9 {
		t.Errorf("warmup = %+v", hack.Sets[0])
	}
	if s := hack.Sets[3]; s.LoadKg != 117.5 || s.Reps != 7 || s.RIR != 0.5 || s.Warmup {
		t.Errorf("working set = %+v", s)
	}

	dips := legs.Exercises[1].Sets[0]
	if !dips.BodyweightPlus || dips.LoadKg != 35 {
		t.Errorf("dips = %+v", dips)
	}

	if sessions[1].Date.Hour() != 18 {
		t.Errorf("second session hour = %d", sessions[1].Date.Hour())
	}
}

// TestParseOrphanSet verifies a set line before any exercise is an error.
func TestParseOrphanSet(t *testing.T) {
	_, err := Parse(strings.NewReader("1;100;5;1\n"))
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1:02 hr", 62, true},
		{"0:48 hr", 48, true},
		{"soon", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseDuration(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseDuration(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

// TestItemsTree verifies the item tree layout: warmups dropped, parents
// linked, bodyweight-plus sets without load.
func TestItemsTree(t *testing.T) {
	sessions, err := Parse(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatal(err)
	}
	id := uuid.New()
	items := Items(id, sessions, 10)

	// 2 sessions, 3 exercises, 4 working sets.
	if len(items) != 9 {
		t.Fatalf("got %d items, want 9", len(items))
	}
	first := items[0]
	if first.ItemID != 10 || first.ItemType != models.ItemSession || first.Duration == nil || *first.Duration != 62 {
		t.Errorf("session item = %+v", first)
	}
	if ex := items[1]; ex.ItemType != models.ItemExercise || *ex.ParentID != 10 {
		t.Errorf("exercise item = %+v", ex)
	}
	if set := items[2]; set.ItemType != models.ItemSet || *set.ParentID != 11 || *set.LoadKg != 115 || *set.Reps != 8 {
		t.Errorf("set item = %+v", set)
	}
	dips := items[5]
	if dips.ItemType != models.ItemSet || dips.LoadKg != nil || *dips.Reps != 10 {
		t.Errorf("dips item = %+v", dips)
	}
}

// TestProviderIngest verifies an export lands in a store and re-imports
// are reported as skipped duplicates.
func TestProviderIngest(t *testing.T) {
	store, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "alpha.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()
	l, err := store.CreateLog(ctx, "alpha")
	if err != nil {
		t.Fatal(err)
	}

	p := NewProvider(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	res, err := p.Ingest(ctx, l.ID, strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.SessionsReceived != 2 || res.ExercisesReceived != 3 || res.SetsReceived != 4 || res.WarmupsSkipped != 2 {
		t.Errorf("result = %+v", res)
	}
	if res.ItemsInserted != 9 {
		t.Errorf("ItemsInserted = %d, want 9", res.ItemsInserted)
	}

	items, err := store.ListItems(ctx, l.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 9 {
		t.Errorf("stored %d items, want 9", len(items))
	}
}
