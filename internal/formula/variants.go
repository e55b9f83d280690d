package formula

import (
	"fmt"
	"math"

	"github.com/claude/perfutils/internal/models"
)

// brzycki: https://en.wikipedia.org/wiki/One-repetition_maximum#Brzycki
type brzycki struct{}

func (brzycki) Name() string { return "Brzycki" }

// domain: 37 - reps divides the one-rep max estimate.
func (f brzycki) domain(op string, reps models.Quantity) error {
	if err := checkReps(f.Name(), op, reps); err != nil {
		return err
	}
	if reps >= 37 {
		return &DomainError{Formula: f.Name(), Op: op, Reason: fmt.Sprintf("division by zero or negative denominator: 37 - %d", reps)}
	}
	return nil
}

func (f brzycki) OneRepMax(reps models.Quantity, repMax models.Load) (models.Load, error) {
	if err := f.domain("one_rep_max", reps); err != nil {
		return 0, err
	}
	return repMax * 36 / float64(37-reps), nil
}

func (f brzycki) RepMax(reps models.Quantity, oneRepMax models.Load) (models.Load, error) {
	if err := f.domain("rep_max", reps); err != nil {
		return 0, err
	}
	return oneRepMax * float64(37-reps) / 36, nil
}

func (f brzycki) Reps(intensity models.Intensity) (models.PartialQuantity, error) {
	if err := checkIntensity(f.Name(), intensity); err != nil {
		return 0, err
	}
	return 37 - intensity*36, nil
}

// epley: https://en.wikipedia.org/wiki/One-repetition_maximum#Epley_formula
type epley struct{}

func (epley) Name() string { return "Epley" }

func (f epley) OneRepMax(reps models.Quantity, repMax models.Load) (models.Load, error) {
	if err := checkReps(f.Name(), "one_rep_max", reps); err != nil {
		return 0, err
	}
	return repMax * (1 + float64(reps)/30), nil
}

func (f epley) RepMax(reps models.Quantity, oneRepMax models.Load) (models.Load, error) {
	if err := checkReps(f.Name(), "rep_max", reps); err != nil {
		return 0, err
	}
	return oneRepMax / (1 + float64(reps)/30), nil
}

func (f epley) Reps(intensity models.Intensity) (models.PartialQuantity, error) {
	if err := checkIntensity(f.Name(), intensity); err != nil {
		return 0, err
	}
	return 30 * (1/intensity - 1), nil
}

// mcGlothin: https://en.wikipedia.org/wiki/One-repetition_maximum#McGlothin
type mcGlothin struct{}

func (mcGlothin) Name() string { return "McGlothin" }

func (f mcGlothin) denominator(op string, reps models.Quantity) (float64, error) {
	if err := checkReps(f.Name(), op, reps); err != nil {
		return 0, err
	}
	d := 101.3 - 2.67123*float64(reps)
	if d <= 0 {
		return 0, &DomainError{Formula: f.Name(), Op: op, Reason: fmt.Sprintf("non-positive denominator 101.3 - 2.67123*%d", reps)}
	}
	return d, nil
}

func (f mcGlothin) OneRepMax(reps models.Quantity, repMax models.Load) (models.Load, error) {
	d, err := f.denominator("one_rep_max", reps)
	if err != nil {
		return 0, err
	}
	return 100 * repMax / d, nil
}

func (f mcGlothin) RepMax(reps models.Quantity, oneRepMax models.Load) (models.Load, error) {
	d, err := f.denominator("rep_max", reps)
	if err != nil {
		return 0, err
	}
	return oneRepMax * d / 100, nil
}

func (f mcGlothin) Reps(intensity models.Intensity) (models.PartialQuantity, error) {
	if err := checkIntensity(f.Name(), intensity); err != nil {
		return 0, err
	}
	return (101.3 - 100*intensity) / 2.67123, nil
}

// lombardi: https://en.wikipedia.org/wiki/One-repetition_maximum#Lombardi
type lombardi struct{}

func (lombardi) Name() string { return "Lombardi" }

func (f lombardi) OneRepMax(reps models.Quantity, repMax models.Load) (models.Load, error) {
	if err := checkReps(f.Name(), "one_rep_max", reps); err != nil {
		return 0, err
	}
	return math.Pow(float64(reps), 0.1) * repMax, nil
}

func (f lombardi) RepMax(reps models.Quantity, oneRepMax models.Load) (models.Load, error) {
	if err := checkReps(f.Name(), "rep_max", reps); err != nil {
		return 0, err
	}
	return oneRepMax / math.Pow(float64(reps), 0.1), nil
}

func (f lombardi) Reps(intensity models.Intensity) (models.PartialQuantity, error) {
	if err := checkIntensity(f.Name(), intensity); err != nil {
		return 0, err
	}
	return math.Pow(intensity, -10), nil
}

// mayhew: https://en.wikipedia.org/wiki/One-repetition_maximum#Mayhew_et_al.
type mayhew struct{}

func (mayhew) Name() string { return "Mayhew" }

func (mayhew) percent(reps models.Quantity) float64 {
	return 52.2 + 41.9*math.Exp(-0.055*float64(reps))
}

func (f mayhew) OneRepMax(reps models.Quantity, repMax models.Load) (models.Load, error) {
	if err := checkReps(f.Name(), "one_rep_max", reps); err != nil {
		return 0, err
	}
	return 100 * repMax / f.percent(reps), nil
}

func (f mayhew) RepMax(reps models.Quantity, oneRepMax models.Load) (models.Load, error) {
	if err := checkReps(f.Name(), "rep_max", reps); err != nil {
		return 0, err
	}
	return oneRepMax * f.percent(reps) / 100, nil
}

func (f mayhew) Reps(intensity models.Intensity) (models.PartialQuantity, error) {
	if err := checkIntensity(f.Name(), intensity); err != nil {
		return 0, err
	}
	arg := 500*intensity - 261
	if arg <= 0 {
		return 0, &DomainError{Formula: f.Name(), Op: "reps", Reason: fmt.Sprintf("logarithm undefined: 500*%g - 261 <= 0", intensity)}
	}
	return 200.0 / 11 * math.Log(419/(2*arg)), nil
}

// oConner: https://en.wikipedia.org/wiki/One-repetition_maximum#O'Conner_et_al.
type oConner struct{}

func (oConner) Name() string { return "O'Conner" }

func (f oConner) OneRepMax(reps models.Quantity, repMax models.Load) (models.Load, error) {
	if err := checkReps(f.Name(), "one_rep_max", reps); err != nil {
		return 0, err
	}
	return repMax * (1 + float64(reps)/40), nil
}

func (f oConner) RepMax(reps models.Quantity, oneRepMax models.Load) (models.Load, error) {
	if err := checkReps(f.Name(), "rep_max", reps); err != nil {
		return 0, err
	}
	return oneRepMax / (1 + float64(reps)/40), nil
}

func (f oConner) Reps(intensity models.Intensity) (models.PartialQuantity, error) {
	if err := checkIntensity(f.Name(), intensity); err != nil {
		return 0, err
	}
	return 40 * (1/intensity - 1), nil
}

// wathan: https://en.wikipedia.org/wiki/One-repetition_maximum#Wathan
type wathan struct{}

func (wathan) Name() string { return "Wathan" }

func (wathan) percent(reps models.Quantity) float64 {
	return 48.8 + 53.8*math.Exp(-0.075*float64(reps))
}

func (f wathan) OneRepMax(reps models.Quantity, repMax models.Load) (models.Load, error) {
	if err := checkReps(f.Name(), "one_rep_max", reps); err != nil {
		return 0, err
	}
	return 100 * repMax / f.percent(reps), nil
}

func (f wathan) RepMax(reps models.Quantity, oneRepMax models.Load) (models.Load, error) {
	if err := checkReps(f.Name(), "rep_max", reps); err != nil {
		return 0, err
	}
	return oneRepMax * f.percent(reps) / 100, nil
}

func (f wathan) Reps(intensity models.Intensity) (models.PartialQuantity, error) {
	if err := checkIntensity(f.Name(), intensity); err != nil {
		return 0, err
	}
	arg := 500*intensity - 244
	if arg <= 0 {
		return 0, &DomainError{Formula: f.Name(), Op: "reps", Reason: fmt.Sprintf("logarithm undefined: 500*%g - 244 <= 0", intensity)}
	}
	return 40.0 / 3 * math.Log(269/arg), nil
}
