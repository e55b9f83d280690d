package server

import (
	"net/http"
	"strconv"

	"github.com/claude/perfutils/internal/training"
)

func (s *Server) handleFVP(w http.ResponseWriter, r *http.Request) {
	inol, err := queryFloat(r, "inol")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	req, err := queryFloat(r, "req")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"fvp": training.FVP(inol, req)})
}

// handleINOL accepts capped=true to clamp intensity at 96%.
func (s *Server) handleINOL(w http.ResponseWriter, r *http.Request) {
	intensity, err := queryFloat(r, "intensity")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	reps, err := queryInt(r, "reps")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	capped, _ := strconv.ParseBool(r.URL.Query().Get("capped"))

	inol := training.INOL
	if capped {
		inol = training.CappedINOL
	}
	v, err := inol(intensity, reps)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"inol": v, "capped": capped})
}

// handleREQ takes either max_reps or an intensity to derive it from.
func (s *Server) handleREQ(w http.ResponseWriter, r *http.Request) {
	reps, err := queryInt(r, "reps")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var v float64
	if r.URL.Query().Get("max_reps") == "" && r.URL.Query().Get("intensity") != "" {
		intensity, err := queryFloat(r, "intensity")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		v, err = training.REQAtIntensity(intensity, reps)
		if err != nil {
			s.writeError(w, err)
			return
		}
	} else {
		maxReps, err := queryInt(r, "max_reps")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		v, err = training.REQ(reps, maxReps)
		if err != nil {
			s.writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"req": v})
}

func (s *Server) handleVFI(w http.ResponseWriter, r *http.Request) {
	volume, err := queryFloat(r, "volume")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	inol, err := queryFloat(r, "inol")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	v, err := training.VFI(volume, inol)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"vfi": v})
}

func (s *Server) handleMaxReps(w http.ResponseWriter, r *http.Request) {
	intensity, err := queryFloat(r, "intensity")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	v, err := training.MaxReps(intensity)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"intensity": intensity, "max_reps": v})
}

type microcycleRequest struct {
	Sets   []training.Set `json:"sets" validate:"required,min=1,dive"`
	Capped bool           `json:"capped"`
}

func (s *Server) handleMicrocycle(w http.ResponseWriter, r *http.Request) {
	var req microcycleRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	summary, err := training.Microcycle(req.Sets, req.Capped)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
