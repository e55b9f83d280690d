package training

import (
	"fmt"

	"github.com/claude/perfutils/internal/models"
)

// Set is one working set within a microcycle. MaxReps of 0 means "derive
// from intensity".
type Set struct {
	Intensity models.Intensity `json:"intensity"`
	Reps      models.Quantity  `json:"reps"`
	MaxReps   models.Quantity  `json:"max_reps,omitempty"`
}

// MicrocycleSummary aggregates the fatigue metrics of a microcycle.
type MicrocycleSummary struct {
	Sets       int         `json:"sets"`
	TotalReps  int         `json:"total_reps"`
	TotalINOL  models.INOL `json:"total_inol"`
	AverageREQ models.REQ  `json:"average_req"`
	FVP        models.FVP  `json:"fvp"`
}

// Microcycle sums INOL over every set, averages REQ, and combines them into
// the Fatigue-Variability Product. capped selects CappedINOL.
func Microcycle(sets []Set, capped bool) (*MicrocycleSummary, error) {
	if len(sets) == 0 {
		return nil, fmt.Errorf("microcycle has no sets")
	}

	inolFn := INOL
	if capped {
		inolFn = CappedINOL
	}

	s := &MicrocycleSummary{Sets: len(sets)}
	var reqSum float64
	for i, set := range sets {
		inol, err := inolFn(set.Intensity, set.Reps)
		if err != nil {
			return nil, fmt.Errorf("set %d: %w", i+1, err)
		}

		var req models.REQ
		if set.MaxReps > 0 {
			req, err = REQ(set.Reps, set.MaxReps)
		} else {
			req, err = REQAtIntensity(set.Intensity, set.Reps)
		}
		if err != nil {
			return nil, fmt.Errorf("set %d: %w", i+1, err)
		}

		s.TotalReps += set.Reps
		s.TotalINOL += inol
		reqSum += req
	}

	s.AverageREQ = reqSum / float64(len(sets))
	s.FVP = FVP(s.TotalINOL, s.AverageREQ)
	return s, nil
}
