package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/claude/perfutils/internal/formula"
	"github.com/claude/perfutils/internal/storage"
	"github.com/claude/perfutils/internal/traininglog"
	"github.com/go-chi/chi/v5"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 8 << 20

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

// handleLogFilter returns the path of every node in the posted JSON log
// matching the name and/or value query parameters.
func (s *Server) handleLogFilter(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	value := r.URL.Query().Get("value")
	if name == "" && value == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name or value parameter required"})
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reading body: " + err.Error()})
		return
	}
	root, err := traininglog.Parse(data)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var matchers []traininglog.Matcher
	if name != "" {
		matchers = append(matchers, traininglog.ByName(name))
	}
	if value != "" {
		matchers = append(matchers, traininglog.ByValue(value))
	}

	paths := traininglog.Find(root, traininglog.And(matchers...))
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = p.String()
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(out), "paths": out})
}

// writeJSON encodes v before writing the status, so an unencodable value
// (NaN or Inf from an overflowing calculation) becomes a 422 instead of an
// empty 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		var unsupported *json.UnsupportedValueError
		if errors.As(err, &unsupported) {
			status = http.StatusUnprocessableEntity
			data, _ = json.Marshal(map[string]string{"error": "result is not a finite number"})
		} else {
			slog.Error("encoding response", "error", err)
			status = http.StatusInternalServerError
			data = []byte(`{"error":"encoding response failed"}`)
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(data, '\n'))
}

// writeError maps domain errors to 422 and missing records to 404.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, formula.ErrDomain):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		s.log.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

// decodeJSON reads a JSON body into v and validates it.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": validationMessage(err)})
		return false
	}
	return true
}

func queryFloat(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("%s parameter required", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s must be a finite number", name)
	}
	return v, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("%s parameter required", name)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number", name)
	}
	return v, nil
}

// queryIntDefault is queryInt with a fallback for an absent parameter.
func queryIntDefault(r *http.Request, name string, def int) (int, error) {
	if r.URL.Query().Get(name) == "" {
		return def, nil
	}
	return queryInt(r, name)
}

// formulaByName resolves a formula name, falling back to the server default
// when name is empty. Writes a 404 and returns false when unknown.
func (s *Server) formulaByName(w http.ResponseWriter, name string) (formula.Formula, bool) {
	if name == "" {
		return s.formula, true
	}
	f, err := formula.Lookup(name)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return nil, false
	}
	return f, true
}

func (s *Server) formulaParam(w http.ResponseWriter, r *http.Request) (formula.Formula, bool) {
	return s.formulaByName(w, chi.URLParam(r, "name"))
}
