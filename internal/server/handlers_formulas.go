package server

import (
	"fmt"
	"net/http"

	"github.com/claude/perfutils/internal/formula"
)

const maxTableReps = 100

func (s *Server) handleListFormulas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"formulas": formula.Names(),
		"default":  s.formula.Name(),
	})
}

func (s *Server) handleOneRepMax(w http.ResponseWriter, r *http.Request) {
	f, ok := s.formulaParam(w, r)
	if !ok {
		return
	}
	reps, err := queryInt(r, "reps")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	load, err := queryFloat(r, "load")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	orm, err := f.OneRepMax(reps, load)
	s.metrics.observe(f.Name(), "one_rep_max", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"formula":     f.Name(),
		"reps":        reps,
		"load":        load,
		"one_rep_max": orm,
	})
}

func (s *Server) handleRepMax(w http.ResponseWriter, r *http.Request) {
	f, ok := s.formulaParam(w, r)
	if !ok {
		return
	}
	reps, err := queryInt(r, "reps")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	oneRepMax, err := queryFloat(r, "one_rep_max")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	load, err := f.RepMax(reps, oneRepMax)
	s.metrics.observe(f.Name(), "rep_max", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"formula":     f.Name(),
		"reps":        reps,
		"one_rep_max": oneRepMax,
		"rep_max":     load,
	})
}

func (s *Server) handleReps(w http.ResponseWriter, r *http.Request) {
	f, ok := s.formulaParam(w, r)
	if !ok {
		return
	}
	intensity, err := queryFloat(r, "intensity")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	reps, err := f.Reps(intensity)
	s.metrics.observe(f.Name(), "reps", err)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"formula":   f.Name(),
		"intensity": intensity,
		"reps":      reps,
	})
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	f, ok := s.formulaParam(w, r)
	if !ok {
		return
	}
	oneRepMax, err := queryFloat(r, "one_rep_max")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	maxReps, err := queryIntDefault(r, "max_reps", 10)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if maxReps < 1 || maxReps > maxTableReps {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("max_reps must be between 1 and %d", maxTableReps)})
		return
	}

	rows, err := formula.Table(f, oneRepMax, maxReps)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"formula":     f.Name(),
		"one_rep_max": oneRepMax,
		"rows":        rows,
	})
}

func (s *Server) handleEstimates(w http.ResponseWriter, r *http.Request) {
	reps, err := queryInt(r, "reps")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	load, err := queryFloat(r, "load")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	estimates := formula.EstimateAll(reps, load)
	for _, e := range estimates {
		s.metrics.estimates.WithLabelValues(e.Formula, "one_rep_max", resultLabel(e.Error)).Inc()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"reps":      reps,
		"load":      load,
		"estimates": estimates,
	})
}

func resultLabel(errText string) string {
	if errText != "" {
		return "error"
	}
	return "ok"
}
