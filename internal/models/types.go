package models

// Numeric aliases shared by the calculators. They document intent at call
// sites and carry no behavior of their own.
type (
	// Load is a mass lifted, in whatever unit the caller uses.
	Load = float64
	// Quantity is a whole repetition count.
	Quantity = int
	// Intensity is a load expressed as a fraction of the one-rep max, in (0, 1].
	Intensity = float64
	// PartialQuantity is a fractional repetition estimate.
	PartialQuantity = float64
	// RelativeVolume is volume expressed relative to the one-rep max.
	RelativeVolume = float64

	// FVP is the Fatigue-Variability Product.
	FVP = float64
	// INOL is Intensity * Number Of Lifts.
	INOL = float64
	// REQ is the Repetition-Endurance Quotient.
	REQ = float64
	// VFI is the Volume-Fatigue Index.
	VFI = float64
)
