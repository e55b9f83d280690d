package traininglog

import "math"

// Names that mark a load field in hand-written logs.
var loadNames = []string{"load", "weight", "kg", "load_kg", "weight_kg"}

// maxLiftReps bounds the rep counts Lifts accepts.
const maxLiftReps = 10000

// Lift is a (reps, load) pair found in a log.
type Lift struct {
	Path Path    `json:"path"`
	Reps int     `json:"reps"`
	Load float64 `json:"load"`
}

// Lifts collects every object that carries a whole "reps" count and a
// numeric load field, in document order. Fractional, negative or huge rep
// counts are skipped.
func Lifts(root *Node) []Lift {
	var out []Lift
	walk(root, func(n *Node, p Path) {
		if n.Kind != KindObject {
			return
		}
		repsNode, ok := n.Child("reps")
		if !ok {
			return
		}
		reps, ok := repsNode.Float()
		if !ok || reps != math.Trunc(reps) || reps < 0 || reps > maxLiftReps {
			return
		}
		for _, name := range loadNames {
			loadNode, ok := n.Child(name)
			if !ok {
				continue
			}
			if load, ok := loadNode.Float(); ok && !math.IsInf(load, 0) && !math.IsNaN(load) {
				out = append(out, Lift{Path: append(Path(nil), p...), Reps: int(reps), Load: load})
				return
			}
		}
	})
	return out
}
