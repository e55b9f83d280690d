package training

import (
	"errors"
	"fmt"
	"math"

	"github.com/claude/perfutils/internal/formula"
	"github.com/claude/perfutils/internal/models"
)

// INOLIntensityCap is the intensity CappedINOL clamps to, keeping heavy
// singles from dividing by (almost) zero.
const INOLIntensityCap = 0.96

func domainErr(op, reason string) error {
	return fmt.Errorf("%s: %s: %w", op, reason, formula.ErrDomain)
}

// FVP calculates the Fatigue-Variability Product from a microcycle's total
// INOL and average REQ.
func FVP(inol models.INOL, req models.REQ) models.FVP {
	return inol * req
}

// INOL calculates Intensity * Number Of Lifts the way Hristov uses it:
// reps / ((1 - intensity) * 100).
func INOL(intensity models.Intensity, reps models.Quantity) (models.INOL, error) {
	d := (1 - intensity) * 100
	if d == 0 {
		return 0, domainErr("inol", "division by zero at intensity 1.0")
	}
	return float64(reps) / d, nil
}

// CappedINOL is INOL with intensity clamped to INOLIntensityCap.
func CappedINOL(intensity models.Intensity, reps models.Quantity) (models.INOL, error) {
	return INOL(math.Min(intensity, INOLIntensityCap), reps)
}

// REQ calculates the Repetition-Endurance Quotient. maxReps is the number of
// repetitions that could have been performed: a lifter who did 6 but had two
// more in reserve has maxReps 8.
func REQ(reps, maxReps models.Quantity) (models.REQ, error) {
	if maxReps == 0 {
		return 0, domainErr("req", "division by zero: max reps is 0")
	}
	return float64(reps) / float64(maxReps), nil
}

// VFI calculates the Volume-Fatigue Index from relative volume and INOL.
func VFI(volume models.RelativeVolume, inol models.INOL) (models.VFI, error) {
	if inol == 0 {
		return 0, domainErr("vfi", "division by zero: inol is 0")
	}
	return volume / inol, nil
}

// MaxReps estimates the whole number of repetitions performable at an
// intensity using the Brzycki model.
func MaxReps(intensity models.Intensity) (models.Quantity, error) {
	reps, err := formula.Brzycki.Reps(intensity)
	if err != nil {
		return 0, err
	}
	return int(math.Floor(reps)), nil
}

// REQAtIntensity calculates REQ for a set of reps at an intensity, taking
// the Brzycki max reps at that intensity as the denominator.
func REQAtIntensity(intensity models.Intensity, reps models.Quantity) (models.REQ, error) {
	maxReps, err := MaxReps(intensity)
	if err != nil {
		return 0, err
	}
	return REQ(reps, maxReps)
}

// IsDomainError reports whether err came from an input outside a metric's
// or formula's domain.
func IsDomainError(err error) bool {
	return errors.Is(err, formula.ErrDomain)
}
