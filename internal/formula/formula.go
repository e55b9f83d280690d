// Package formula estimates one-repetition maximums with published
// closed-form strength models.
package formula

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/claude/perfutils/internal/models"
)

// ErrDomain is returned (wrapped in a *DomainError) when an input falls
// outside the region where a formula is defined.
var ErrDomain = errors.New("outside formula domain")

// DomainError describes which formula operation rejected its input.
type DomainError struct {
	Formula string
	Op      string
	Reason  string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Formula, e.Op, e.Reason)
}

func (e *DomainError) Unwrap() error { return ErrDomain }

// Formula is a one-repetition maximal load estimator. OneRepMax and RepMax
// are exact inverses of each other; Reps is an independent model of how many
// repetitions can be performed at a given intensity.
type Formula interface {
	// Name returns the display name of the model, e.g. "Epley".
	Name() string
	// OneRepMax estimates the one-rep max from a load lifted for reps repetitions.
	OneRepMax(reps models.Quantity, repMax models.Load) (models.Load, error)
	// RepMax estimates the maximal load liftable for reps repetitions.
	RepMax(reps models.Quantity, oneRepMax models.Load) (models.Load, error)
	// Reps estimates the (fractional) repetitions performable at intensity.
	Reps(intensity models.Intensity) (models.PartialQuantity, error)
}

// The fixed set of estimators.
var (
	Brzycki   Formula = finite{brzycki{}}
	Epley     Formula = finite{epley{}}
	McGlothin Formula = finite{mcGlothin{}}
	Lombardi  Formula = finite{lombardi{}}
	Mayhew    Formula = finite{mayhew{}}
	OConner   Formula = finite{oConner{}}
	Wathan    Formula = finite{wathan{}}
)

// finite rejects results that overflow or are not numbers, e.g. Lombardi
// reps at intensity 1e-40 or a load of +Inf.
type finite struct {
	Formula
}

func (f finite) check(op string, v float64, err error) (float64, error) {
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &DomainError{Formula: f.Name(), Op: op, Reason: fmt.Sprintf("result is not a finite number: %g", v)}
	}
	return v, nil
}

func (f finite) OneRepMax(reps models.Quantity, repMax models.Load) (models.Load, error) {
	v, err := f.Formula.OneRepMax(reps, repMax)
	return f.check("one_rep_max", v, err)
}

func (f finite) RepMax(reps models.Quantity, oneRepMax models.Load) (models.Load, error) {
	v, err := f.Formula.RepMax(reps, oneRepMax)
	return f.check("rep_max", v, err)
}

func (f finite) Reps(intensity models.Intensity) (models.PartialQuantity, error) {
	v, err := f.Formula.Reps(intensity)
	return f.check("reps", v, err)
}

var all = []Formula{Brzycki, Epley, McGlothin, Lombardi, Mayhew, OConner, Wathan}

// byKey indexes formulas by their lookup key.
var byKey = func() map[string]Formula {
	m := make(map[string]Formula, len(all))
	for _, f := range all {
		m[key(f.Name())] = f
	}
	return m
}()

// All returns every formula in a stable order.
func All() []Formula {
	out := make([]Formula, len(all))
	copy(out, all)
	return out
}

// Names returns the display names of all formulas.
func Names() []string {
	names := make([]string, len(all))
	for i, f := range all {
		names[i] = f.Name()
	}
	return names
}

// Lookup finds a formula by name. Matching ignores case, spaces and
// punctuation, so "oconner" and "O'Conner" both resolve.
func Lookup(name string) (Formula, error) {
	if f, ok := byKey[key(name)]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("unknown formula %q (want one of %s)", name, strings.Join(Names(), ", "))
}

func key(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// checkReps rejects repetition counts below one.
func checkReps(name, op string, reps models.Quantity) error {
	if reps < 1 {
		return &DomainError{Formula: name, Op: op, Reason: fmt.Sprintf("reps must be at least 1, got %d", reps)}
	}
	return nil
}

// checkIntensity rejects intensities outside (0, 1].
func checkIntensity(name string, intensity models.Intensity) error {
	if math.IsNaN(intensity) || intensity <= 0 || intensity > 1 {
		return &DomainError{Formula: name, Op: "reps", Reason: fmt.Sprintf("intensity must be in (0, 1], got %g", intensity)}
	}
	return nil
}
