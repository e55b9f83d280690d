package formula

import (
	"fmt"

	"github.com/claude/perfutils/internal/models"
)

// Estimate is one formula's one-rep max estimate. Error is set instead of
// OneRepMax when the input is outside that formula's domain.
type Estimate struct {
	Formula   string      `json:"formula"`
	OneRepMax models.Load `json:"one_rep_max,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// EstimateAll runs every formula on the same (reps, load) pair.
func EstimateAll(reps models.Quantity, load models.Load) []Estimate {
	out := make([]Estimate, 0, len(all))
	for _, f := range all {
		e := Estimate{Formula: f.Name()}
		v, err := f.OneRepMax(reps, load)
		if err != nil {
			e.Error = err.Error()
		} else {
			e.OneRepMax = v
		}
		out = append(out, e)
	}
	return out
}

// TableRow is the estimated maximal load for a repetition count.
type TableRow struct {
	Reps    models.Quantity `json:"reps"`
	Load    models.Load     `json:"load"`
	Percent float64         `json:"percent"`
}

// Table lists the rep maxes for 1..maxReps repetitions derived from oneRepMax.
// It stops at the first repetition count outside the formula's domain.
func Table(f Formula, oneRepMax models.Load, maxReps models.Quantity) ([]TableRow, error) {
	if maxReps < 1 {
		return nil, fmt.Errorf("max reps must be at least 1, got %d", maxReps)
	}
	rows := make([]TableRow, 0, maxReps)
	for r := 1; r <= maxReps; r++ {
		load, err := f.RepMax(r, oneRepMax)
		if err != nil {
			if len(rows) == 0 {
				return nil, err
			}
			break
		}
		row := TableRow{Reps: r, Load: load}
		if oneRepMax != 0 {
			row.Percent = load / oneRepMax * 100
		}
		rows = append(rows, row)
	}
	return rows, nil
}
