package formula

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRoundTrip verifies RepMax inverts OneRepMax for every formula across
// the usual training rep range.
func TestRoundTrip(t *testing.T) {
	loads := []float64{20, 62.5, 100, 187.5, 315}
	for _, f := range All() {
		for reps := 1; reps <= 30; reps++ {
			for _, load := range loads {
				orm, err := f.OneRepMax(reps, load)
				require.NoError(t, err, "%s OneRepMax(%d, %g)", f.Name(), reps, load)
				back, err := f.RepMax(reps, orm)
				require.NoError(t, err)
				assert.InEpsilon(t, load, back, 1e-9, "%s round trip reps=%d load=%g", f.Name(), reps, load)
			}
		}
	}
}

// TestSingleRepIsMax verifies that one repetition at a load is already the
// one-rep max for the formulas anchored at reps=1.
func TestSingleRepIsMax(t *testing.T) {
	for _, f := range []Formula{Brzycki, Lombardi} {
		got, err := f.OneRepMax(1, 140)
		require.NoError(t, err)
		assert.InDelta(t, 140.0, got, 1e-9, f.Name())
	}
}

// TestEpleyScenario checks the worked example: 200 for 5 reps.
func TestEpleyScenario(t *testing.T) {
	orm, err := Epley.OneRepMax(5, 200)
	require.NoError(t, err)
	assert.InDelta(t, 200*(1+5.0/30), orm, 1e-9)
	assert.InDelta(t, 233.3333333, orm, 1e-6)

	back, err := Epley.RepMax(5, orm)
	require.NoError(t, err)
	assert.InDelta(t, 200.0, back, 1e-9)
}

// TestKnownValues pins each closed form against hand-computed results.
func TestKnownValues(t *testing.T) {
	cases := []struct {
		f    Formula
		reps int
		load float64
		want float64
	}{
		{Brzycki, 10, 100, 100 * 36 / 27.0},
		{Epley, 10, 100, 100 * (1 + 10/30.0)},
		{McGlothin, 10, 100, 100 * 100 / (101.3 - 26.7123)},
		{OConner, 10, 100, 100 * 1.25},
		{Lombardi, 1024, 1, 2}, // 1024^0.1 == 2
		{Brzycki, 5, 100, 112.5},
		{Epley, 5, 200, 233.333333},
		{McGlothin, 10, 100, 134.070363},
		{Lombardi, 10, 100, 125.892541},
		// 100 / (52.2 + 41.9 * e^-0.55)
		{Mayhew, 10, 100, 130.934273},
		// 100 / (48.8 + 53.8 * e^-0.75)
		{Wathan, 10, 100, 134.746699},
		{OConner, 4, 100, 110},
	}
	for _, tc := range cases {
		got, err := tc.f.OneRepMax(tc.reps, tc.load)
		require.NoError(t, err)
		assert.InDelta(t, tc.want, got, 1e-6, "%s OneRepMax(%d, %g)", tc.f.Name(), tc.reps, tc.load)
	}
}

// TestKnownReps pins every Reps model at 80% and 90% of the one-rep max.
func TestKnownReps(t *testing.T) {
	cases := []struct {
		f         Formula
		intensity float64
		want      float64
	}{
		{Brzycki, 0.8, 8.2},
		{Brzycki, 0.9, 4.6},
		{Epley, 0.8, 7.5},
		{Epley, 0.9, 3.333333},
		{McGlothin, 0.8, 7.973855},
		{McGlothin, 0.9, 4.230261},
		{Lombardi, 0.8, 9.313226},
		{Lombardi, 0.9, 2.867972},
		{Mayhew, 0.8, 7.459087},
		{Mayhew, 0.9, 1.872304},
		{Wathan, 0.8, 7.264738},
		{Wathan, 0.9, 3.557803},
		{OConner, 0.8, 10},
		{OConner, 0.9, 4.444444},
	}
	for _, tc := range cases {
		got, err := tc.f.Reps(tc.intensity)
		require.NoError(t, err)
		assert.InDelta(t, tc.want, got, 1e-6, "%s Reps(%g)", tc.f.Name(), tc.intensity)
	}
}

// TestNonFiniteResults verifies overflowing results are domain errors.
func TestNonFiniteResults(t *testing.T) {
	_, err := Lombardi.Reps(1e-40)
	assert.ErrorIs(t, err, ErrDomain)

	_, err = Epley.OneRepMax(5, math.Inf(1))
	assert.ErrorIs(t, err, ErrDomain)

	_, err = Epley.RepMax(5, math.NaN())
	assert.ErrorIs(t, err, ErrDomain)

	for _, e := range EstimateAll(5, math.MaxFloat64) {
		assert.NotEmpty(t, e.Error, e.Formula)
	}
}

// TestBrzyckiBoundary verifies 37 reps is a division-by-zero domain error
// while 36 reps is still defined.
func TestBrzyckiBoundary(t *testing.T) {
	_, err := Brzycki.OneRepMax(37, 100)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDomain))

	var de *DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "Brzycki", de.Formula)
	assert.Equal(t, "one_rep_max", de.Op)

	got, err := Brzycki.OneRepMax(36, 100)
	require.NoError(t, err)
	assert.InDelta(t, 3600.0, got, 1e-9)
}

// TestZeroRepsRejected verifies every formula rejects a zero rep count.
func TestZeroRepsRejected(t *testing.T) {
	for _, f := range All() {
		_, err := f.OneRepMax(0, 100)
		assert.ErrorIs(t, err, ErrDomain, f.Name())
		_, err = f.RepMax(0, 100)
		assert.ErrorIs(t, err, ErrDomain, f.Name())
	}
}

// TestRepsDecreasing verifies predicted reps fall strictly as intensity rises.
func TestRepsDecreasing(t *testing.T) {
	for _, f := range All() {
		prev, err := f.Reps(0.55)
		require.NoError(t, err, f.Name())
		for i := 56; i <= 100; i++ {
			intensity := float64(i) / 100
			got, err := f.Reps(intensity)
			require.NoError(t, err, "%s Reps(%g)", f.Name(), intensity)
			assert.Less(t, got, prev, "%s Reps(%g)", f.Name(), intensity)
			prev = got
		}
	}
}

// TestRepsAtFullIntensity pins the linear and hyperbolic models at 100%.
func TestRepsAtFullIntensity(t *testing.T) {
	cases := map[Formula]float64{
		Brzycki:  1,
		Epley:    0,
		OConner:  0,
		Lombardi: 1,
	}
	for f, want := range cases {
		got, err := f.Reps(1)
		require.NoError(t, err)
		assert.InDelta(t, want, got, 1e-12, f.Name())
	}
}

// TestRepsIntensityDomain verifies intensities outside (0, 1] and outside the
// logarithmic models' domain are rejected.
func TestRepsIntensityDomain(t *testing.T) {
	for _, f := range All() {
		for _, bad := range []float64{0, -0.5, 1.01} {
			_, err := f.Reps(bad)
			assert.ErrorIs(t, err, ErrDomain, "%s Reps(%g)", f.Name(), bad)
		}
	}

	_, err := Mayhew.Reps(0.522)
	assert.ErrorIs(t, err, ErrDomain)
	_, err = Mayhew.Reps(0.53)
	assert.NoError(t, err)

	_, err = Wathan.Reps(0.488)
	assert.ErrorIs(t, err, ErrDomain)
	_, err = Wathan.Reps(0.5)
	assert.NoError(t, err)
}

// TestLookup verifies name matching ignores case and punctuation.
func TestLookup(t *testing.T) {
	for _, name := range []string{"epley", "EPLEY", "O'Conner", "oconner", "mc glothin", "Wathan"} {
		f, err := Lookup(name)
		require.NoError(t, err, name)
		assert.NotNil(t, f)
	}
	f, err := Lookup("o'conner")
	require.NoError(t, err)
	assert.Equal(t, OConner, f)

	_, err = Lookup("bogus")
	assert.Error(t, err)
}

// TestNames verifies the fixed catalog order.
func TestNames(t *testing.T) {
	assert.Equal(t, []string{"Brzycki", "Epley", "McGlothin", "Lombardi", "Mayhew", "O'Conner", "Wathan"}, Names())
}

// TestAllReturnsCopy verifies callers cannot reorder the package catalog.
func TestAllReturnsCopy(t *testing.T) {
	a := All()
	a[0] = nil
	assert.NotNil(t, All()[0])
}

// TestEstimateAll verifies per-formula estimates and error reporting.
func TestEstimateAll(t *testing.T) {
	ests := EstimateAll(37, 100)
	require.Len(t, ests, 7)
	for _, e := range ests {
		switch e.Formula {
		case "Brzycki":
			assert.NotEmpty(t, e.Error)
			assert.Zero(t, e.OneRepMax)
		default:
			assert.Empty(t, e.Error, e.Formula)
			assert.Greater(t, e.OneRepMax, 100.0, e.Formula)
		}
	}
}

// TestTable verifies the rep-max table starts near the one-rep max and
// decreases with reps.
func TestTable(t *testing.T) {
	rows, err := Table(Brzycki, 200, 10)
	require.NoError(t, err)
	require.Len(t, rows, 10)
	assert.InDelta(t, 200.0, rows[0].Load, 1e-9)
	assert.InDelta(t, 100.0, rows[0].Percent, 1e-9)
	for i := 1; i < len(rows); i++ {
		assert.Less(t, rows[i].Load, rows[i-1].Load, fmt.Sprintf("reps=%d", rows[i].Reps))
	}
}

// TestTableStopsAtDomainEdge verifies the table is truncated where the
// formula stops being defined.
func TestTableStopsAtDomainEdge(t *testing.T) {
	rows, err := Table(Brzycki, 200, 40)
	require.NoError(t, err)
	assert.Len(t, rows, 36)

	_, err = Table(Epley, 200, 0)
	assert.Error(t, err)
}
