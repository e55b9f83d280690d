package importer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/claude/perfutils/internal/formula"
	"github.com/claude/perfutils/internal/spreadsheet"
	"go.uber.org/multierr"
)

// Header spellings recognised in the first sheet row.
var (
	repsHeaders = []string{"reps", "rep", "repetitions"}
	loadHeaders = []string{"load", "weight", "kg", "load_kg", "weight_kg"}
)

// maxHeaderColumns bounds the header scan of sheets without a blank column.
const maxHeaderColumns = 256

// SheetStats reports what AnnotateSheet did.
type SheetStats struct {
	RowsRead      int      `json:"rows_read"`
	RowsAnnotated int      `json:"rows_annotated"`
	RowsSkipped   int      `json:"rows_skipped"`
	CellsChanged  int      `json:"cells_changed"`
	Column        int      `json:"column"`
	Problems      []string `json:"problems,omitempty"`
}

// OutputHeader is the header of the estimate column written for f.
func OutputHeader(f formula.Formula) string {
	return "e1rm_" + strings.ToLower(strings.ReplaceAll(f.Name(), "'", ""))
}

// AnnotateSheet reads (reps, load) rows below a header row and writes the
// estimated one-rep max of each row into an "e1rm_<formula>" column. The
// column is reused when present and appended otherwise. Reading stops at
// the first row with neither reps nor load. Cells already holding the
// computed value are left alone, so CellsChanged is 0 on a second run.
func AnnotateSheet(ws spreadsheet.Worksheet, f formula.Formula) (*SheetStats, error) {
	headers, err := readHeaders(ws)
	if err != nil {
		return nil, err
	}
	cols := buildColumnMap(headers)

	repsCol, ok := findColumn(cols, repsHeaders)
	if !ok {
		return nil, fmt.Errorf("sheet %q: no reps column in header %v", ws.Name(), headers)
	}
	loadCol, ok := findColumn(cols, loadHeaders)
	if !ok {
		return nil, fmt.Errorf("sheet %q: no load column in header %v", ws.Name(), headers)
	}

	stats := &SheetStats{}
	header := OutputHeader(f)
	outCol, ok := cols[header]
	if !ok {
		outCol = len(headers) + 1
	}
	stats.Column = outCol
	if err := updateIfChanged(ws, 1, outCol, header, stats); err != nil {
		return nil, err
	}

	var problems error
	for row := 2; ; row++ {
		repsText, err := ws.Read(row, repsCol)
		if err != nil {
			return nil, err
		}
		loadText, err := ws.Read(row, loadCol)
		if err != nil {
			return nil, err
		}
		repsText, loadText = strings.TrimSpace(repsText), strings.TrimSpace(loadText)
		if repsText == "" && loadText == "" {
			break
		}
		stats.RowsRead++

		value, err := estimateRow(f, repsText, loadText)
		if err != nil {
			stats.RowsSkipped++
			problems = multierr.Append(problems, fmt.Errorf("row %d: %w", row, err))
			continue
		}
		if err := updateIfChanged(ws, row, outCol, value, stats); err != nil {
			return nil, err
		}
		stats.RowsAnnotated++
	}

	for _, e := range multierr.Errors(problems) {
		stats.Problems = append(stats.Problems, e.Error())
	}
	return stats, nil
}

func estimateRow(f formula.Formula, repsText, loadText string) (string, error) {
	reps, err := strconv.Atoi(repsText)
	if err != nil {
		return "", fmt.Errorf("reps %q is not a whole number", repsText)
	}
	load, err := strconv.ParseFloat(strings.ReplaceAll(loadText, ",", "."), 64)
	if err != nil {
		return "", fmt.Errorf("load %q is not a number", loadText)
	}
	orm, err := f.OneRepMax(reps, load)
	if err != nil {
		return "", err
	}
	return strconv.FormatFloat(orm, 'f', 2, 64), nil
}

func updateIfChanged(ws spreadsheet.Worksheet, row, col int, value string, stats *SheetStats) error {
	current, err := ws.Read(row, col)
	if err != nil {
		return err
	}
	if sameValue(current, value) {
		return nil
	}
	if err := ws.Update(row, col, value); err != nil {
		return err
	}
	stats.CellsChanged++
	return nil
}

// sameValue compares cell text, treating numbers that are equal at the
// written precision as the same so sheets saved by Excel stay unchanged.
func sameValue(current, value string) bool {
	if current == value {
		return true
	}
	a, errA := strconv.ParseFloat(strings.TrimSpace(current), 64)
	b, errB := strconv.ParseFloat(value, 64)
	if errA != nil || errB != nil {
		return false
	}
	return strconv.FormatFloat(a, 'f', 2, 64) == strconv.FormatFloat(b, 'f', 2, 64)
}

func readHeaders(ws spreadsheet.Worksheet) ([]string, error) {
	var headers []string
	for col := 1; col <= maxHeaderColumns; col++ {
		v, err := ws.Read(1, col)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(v) == "" {
			break
		}
		headers = append(headers, v)
	}
	if len(headers) == 0 {
		return nil, errors.New("sheet has no header row")
	}
	return headers, nil
}

// buildColumnMap maps normalised header names to 1-based column numbers.
func buildColumnMap(headers []string) map[string]int {
	cols := make(map[string]int, len(headers))
	for i, h := range headers {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := cols[key]; !dup {
			cols[key] = i + 1
		}
	}
	return cols
}

func findColumn(cols map[string]int, names []string) (int, bool) {
	for _, n := range names {
		if c, ok := cols[n]; ok {
			return c, true
		}
	}
	return 0, false
}
