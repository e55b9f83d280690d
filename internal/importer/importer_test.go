package importer

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/claude/perfutils/internal/formula"
	"github.com/claude/perfutils/internal/models"
	"github.com/claude/perfutils/internal/spreadsheet/excel"
	"github.com/claude/perfutils/internal/storage"
	"github.com/claude/perfutils/internal/traininglog"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memSheet is an in-memory worksheet keyed by "row,col".
type memSheet struct {
	cells   map[[2]int]string
	updates int
}

func newMemSheet(rows ...[]string) *memSheet {
	s := &memSheet{cells: map[[2]int]string{}}
	for r, row := range rows {
		for c, v := range row {
			if v != "" {
				s.cells[[2]int{r + 1, c + 1}] = v
			}
		}
	}
	return s
}

func (s *memSheet) Name() string                      { return "mem" }
func (s *memSheet) Read(row, col int) (string, error) { return s.cells[[2]int{row, col}], nil }
func (s *memSheet) Delete() error                     { return nil }
func (s *memSheet) Update(row, col int, data string) error {
	s.cells[[2]int{row, col}] = data
	s.updates++
	return nil
}

// TestAnnotateSheet verifies estimates land in a new column after the header.
func TestAnnotateSheet(t *testing.T) {
	ws := newMemSheet(
		[]string{"Date", "Reps", "Weight"},
		[]string{"mon", "5", "100"},
		[]string{"wed", "1", "140"},
	)

	stats, err := AnnotateSheet(ws, formula.Brzycki)
	if err != nil {
		t.Fatalf("AnnotateSheet: %v", err)
	}
	if stats.Column != 4 {
		t.Errorf("Column = %d, want 4", stats.Column)
	}
	if got := ws.cells[[2]int{1, 4}]; got != "e1rm_brzycki" {
		t.Errorf("header = %q, want e1rm_brzycki", got)
	}
	if got := ws.cells[[2]int{2, 4}]; got != "112.50" {
		t.Errorf("row 2 = %q, want 112.50", got)
	}
	if got := ws.cells[[2]int{3, 4}]; got != "140.00" {
		t.Errorf("row 3 = %q, want 140.00", got)
	}
	if stats.RowsRead != 2 || stats.RowsAnnotated != 2 || stats.CellsChanged != 3 {
		t.Errorf("stats = %+v", stats)
	}
}

// TestAnnotateSheetIdempotent verifies a second run changes nothing and
// reuses the existing output column.
func TestAnnotateSheetIdempotent(t *testing.T) {
	ws := newMemSheet(
		[]string{"reps", "load"},
		[]string{"5", "100"},
	)
	if _, err := AnnotateSheet(ws, formula.Epley); err != nil {
		t.Fatalf("first run: %v", err)
	}
	before := ws.updates

	stats, err := AnnotateSheet(ws, formula.Epley)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if stats.CellsChanged != 0 || ws.updates != before {
		t.Errorf("second run changed %d cells, want 0", stats.CellsChanged)
	}
	if stats.Column != 3 {
		t.Errorf("Column = %d, want 3", stats.Column)
	}
	if got := ws.cells[[2]int{2, 3}]; got != "116.67" {
		t.Errorf("estimate = %q, want 116.67", got)
	}
}

// TestAnnotateWorkbookIdempotent verifies a saved and reopened xlsx sheet
// needs no changes on a second run, including whole-number estimates.
func TestAnnotateWorkbookIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.xlsx")
	wb, err := excel.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	ws, err := wb.Sheet("Log")
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range []struct {
		row, col int
		v        string
	}{{1, 1, "reps"}, {1, 2, "load"}, {2, 1, "1"}, {2, 2, "200"}, {3, 1, "5"}, {3, 2, "100"}} {
		if err := ws.Update(c.row, c.col, c.v); err != nil {
			t.Fatal(err)
		}
	}

	first, err := AnnotateSheet(ws, formula.Brzycki)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.CellsChanged != 3 {
		t.Errorf("first run changed %d cells, want 3", first.CellsChanged)
	}
	if err := wb.Save(); err != nil {
		t.Fatal(err)
	}
	wb.Close()

	wb, err = excel.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer wb.Close()
	ws, err = wb.Sheet("Log")
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := ws.Read(2, 3); got != "200.00" {
		t.Errorf("row 2 estimate = %q, want 200.00", got)
	}
	second, err := AnnotateSheet(ws, formula.Brzycki)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.CellsChanged != 0 {
		t.Errorf("second run changed %d cells, want 0", second.CellsChanged)
	}
}

// TestSameValue verifies numeric cells equal at two decimals are unchanged.
func TestSameValue(t *testing.T) {
	tests := []struct {
		current, value string
		want           bool
	}{
		{"200.00", "200.00", true},
		{"200", "200.00", true},
		{"116.6667", "116.67", true},
		{"116.6", "116.67", false},
		{"", "116.67", false},
		{"e1rm", "e1rm_epley", false},
	}
	for _, tt := range tests {
		if got := sameValue(tt.current, tt.value); got != tt.want {
			t.Errorf("sameValue(%q, %q) = %v, want %v", tt.current, tt.value, got, tt.want)
		}
	}
}

// TestAnnotateSheetSkipsBadRows verifies unparseable and out-of-domain rows
// are reported without aborting the sheet.
func TestAnnotateSheetSkipsBadRows(t *testing.T) {
	ws := newMemSheet(
		[]string{"reps", "kg"},
		[]string{"five", "100"},
		[]string{"40", "50"},
		[]string{"3", "100"},
	)
	stats, err := AnnotateSheet(ws, formula.Brzycki)
	if err != nil {
		t.Fatalf("AnnotateSheet: %v", err)
	}
	if stats.RowsRead != 3 || stats.RowsSkipped != 2 || stats.RowsAnnotated != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if len(stats.Problems) != 2 {
		t.Fatalf("Problems = %v, want 2 entries", stats.Problems)
	}
	if !strings.HasPrefix(stats.Problems[0], "row 2:") || !strings.HasPrefix(stats.Problems[1], "row 3:") {
		t.Errorf("Problems = %v", stats.Problems)
	}
	if got := ws.cells[[2]int{3, 3}]; got != "" {
		t.Errorf("out-of-domain row written: %q", got)
	}
}

// TestAnnotateSheetMissingColumns verifies sheets without reps or load fail.
func TestAnnotateSheetMissingColumns(t *testing.T) {
	tests := []struct {
		name string
		ws   *memSheet
	}{
		{"empty", newMemSheet()},
		{"no reps", newMemSheet([]string{"date", "load"})},
		{"no load", newMemSheet([]string{"date", "reps"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := AnnotateSheet(tt.ws, formula.Epley); err == nil {
				t.Error("expected error")
			}
		})
	}
}

// TestOutputHeader verifies formula names are folded into column headers.
func TestOutputHeader(t *testing.T) {
	if got := OutputHeader(formula.OConner); got != "e1rm_oconner" {
		t.Errorf("OutputHeader(OConner) = %q", got)
	}
	if got := OutputHeader(formula.McGlothin); got != "e1rm_mcglothin" {
		t.Errorf("OutputHeader(McGlothin) = %q", got)
	}
}

func openStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	s, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "logs.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

const sessionJSON = `{
	"session": {
		"date": "2024-03-01",
		"exercises": [
			{"name": "squat", "sets": [{"reps": 5, "load": 100}, {"reps": 40, "load": 20}]},
			{"name": "bench", "sets": [{"reps": 3, "weight": 80}]}
		]
	}
}`

// TestImportAndEstimate verifies lifts are stored and estimated, with
// out-of-domain sets skipped.
func TestImportAndEstimate(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	lg, err := store.CreateLog(ctx, "block")
	if err != nil {
		t.Fatalf("CreateLog: %v", err)
	}
	root, err := traininglog.Parse([]byte(sessionJSON))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	imp := New(store, quietLogger(), false)
	stats, err := imp.ImportLifts(ctx, lg.ID, root)
	if err != nil {
		t.Fatalf("ImportLifts: %v", err)
	}
	if stats.LiftsFound != 3 || stats.ItemsInserted != 3 {
		t.Errorf("import stats = %+v", stats)
	}

	est, err := imp.EstimateLog(ctx, lg.ID, formula.Brzycki)
	if err != nil {
		t.Fatalf("EstimateLog: %v", err)
	}
	if est.Estimated != 2 || est.Skipped != 1 || len(est.Problems) != 1 {
		t.Errorf("estimate stats = %+v", est)
	}

	item, err := store.GetItem(ctx, lg.ID, 1)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if item.OneRepMax == nil || *item.OneRepMax != 112.5 {
		t.Errorf("OneRepMax = %v, want 112.5", item.OneRepMax)
	}
	if item.ItemType != models.ItemSet {
		t.Errorf("ItemType = %q, want %q", item.ItemType, models.ItemSet)
	}

	// A second import appends after the existing IDs.
	again, err := imp.ImportLifts(ctx, lg.ID, root)
	if err != nil {
		t.Fatalf("second ImportLifts: %v", err)
	}
	if again.ItemsInserted != 3 {
		t.Errorf("second import inserted %d, want 3", again.ItemsInserted)
	}
	items, _ := store.ListItems(ctx, lg.ID)
	if len(items) != 6 {
		t.Errorf("items = %d, want 6", len(items))
	}
}

// TestImportDryRun verifies dry runs leave the store untouched.
func TestImportDryRun(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	lg, _ := store.CreateLog(ctx, "dry")
	root, _ := traininglog.Parse([]byte(sessionJSON))

	stats, err := New(store, quietLogger(), true).ImportLifts(ctx, lg.ID, root)
	if err != nil {
		t.Fatalf("ImportLifts: %v", err)
	}
	if stats.ItemsInserted != 3 {
		t.Errorf("ItemsInserted = %d, want 3", stats.ItemsInserted)
	}
	items, _ := store.ListItems(ctx, lg.ID)
	if len(items) != 0 {
		t.Errorf("dry run stored %d items", len(items))
	}
}

// TestWatch verifies the callback runs after the watched file is written.
func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lifts.xlsx")
	if err := os.WriteFile(path, []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, quietLogger(), func() error {
			calls.Add(1)
			return nil
		})
	}()

	deadline := time.Now().Add(10 * time.Second)
	for calls.Load() == 0 && time.Now().Before(deadline) {
		os.WriteFile(path, []byte(time.Now().String()), 0o644)
		// Unrelated files in the directory are ignored.
		os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644)
		time.Sleep(time.Second)
	}
	if calls.Load() == 0 {
		t.Fatal("callback never ran")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not stop after cancel")
	}
}
