package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/claude/perfutils/internal/ingest/alpha"
	"github.com/claude/perfutils/internal/models"
	"github.com/claude/perfutils/internal/storage"
	"github.com/claude/perfutils/internal/traininglog"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type createLogRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

type itemRequest struct {
	ItemID   int64      `json:"item_id" validate:"required,gt=0"`
	ParentID *int64     `json:"parent_id" validate:"omitempty,gt=0"`
	ItemType string     `json:"item_type" validate:"required,item_type"`
	Datetime *time.Time `json:"datetime"`
	Duration *float64   `json:"duration" validate:"omitempty,gte=0"`
	Reps     *int       `json:"reps" validate:"omitempty,gte=0"`
	LoadKg   *float64   `json:"load_kg" validate:"omitempty,gte=0"`
}

type itemUpdateRequest struct {
	ItemID   *int64     `json:"item_id" validate:"omitempty,gt=0"`
	ParentID *int64     `json:"parent_id" validate:"omitempty,gt=0"`
	ItemType *string    `json:"item_type" validate:"omitempty,item_type"`
	Datetime *time.Time `json:"datetime"`
	Duration *float64   `json:"duration" validate:"omitempty,gte=0"`
	Reps     *int       `json:"reps" validate:"omitempty,gte=0"`
	LoadKg   *float64   `json:"load_kg" validate:"omitempty,gte=0"`
}

func (s *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := s.store.ListLogs(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if logs == nil {
		logs = []models.Log{}
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) handleCreateLog(w http.ResponseWriter, r *http.Request) {
	var req createLogRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	l, err := s.store.CreateLog(r.Context(), req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Info("log created", "id", l.ID, "name", l.Name, "user", userInfoFromContext(r).Login)
	writeJSON(w, http.StatusCreated, l)
}

func (s *Server) handleGetLog(w http.ResponseWriter, r *http.Request) {
	id, ok := logIDParam(w, r)
	if !ok {
		return
	}
	l, err := s.store.GetLog(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleDeleteLog(w http.ResponseWriter, r *http.Request) {
	id, ok := logIDParam(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteLog(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	id, ok := s.existingLog(w, r)
	if !ok {
		return
	}
	items, err := s.store.ListItems(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if items == nil {
		items = []models.LogItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := logIDParam(w, r)
	if !ok {
		return
	}
	itemID, ok := itemIDParam(w, r)
	if !ok {
		return
	}
	it, err := s.store.GetItem(r.Context(), id, itemID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) handleInsertItem(w http.ResponseWriter, r *http.Request) {
	id, ok := s.existingLog(w, r)
	if !ok {
		return
	}
	var req itemRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	_, err := s.store.GetItem(r.Context(), id, req.ItemID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusConflict, map[string]string{"error": "item " + strconv.FormatInt(req.ItemID, 10) + " already exists"})
		return
	case !errors.Is(err, storage.ErrNotFound):
		s.writeError(w, err)
		return
	}

	itemType, _ := models.NormalizeItemType(req.ItemType)
	item := models.LogItem{
		LogID:    id,
		ItemID:   req.ItemID,
		ParentID: req.ParentID,
		ItemType: itemType,
		Datetime: req.Datetime,
		Duration: req.Duration,
		Reps:     req.Reps,
		LoadKg:   req.LoadKg,
	}
	if err := s.store.InsertItem(r.Context(), item); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := logIDParam(w, r)
	if !ok {
		return
	}
	itemID, ok := itemIDParam(w, r)
	if !ok {
		return
	}
	var req itemUpdateRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	upd := models.LogItemUpdate{
		NewItemID: req.ItemID,
		ParentID:  req.ParentID,
		Datetime:  req.Datetime,
		Duration:  req.Duration,
		Reps:      req.Reps,
		LoadKg:    req.LoadKg,
	}
	if req.ItemType != nil {
		t, _ := models.NormalizeItemType(*req.ItemType)
		upd.ItemType = &t
	}
	if upd.Empty() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no fields to update"})
		return
	}

	if err := s.store.UpdateItem(r.Context(), id, itemID, upd); err != nil {
		s.writeError(w, err)
		return
	}
	if upd.NewItemID != nil {
		itemID = *upd.NewItemID
	}
	it, err := s.store.GetItem(r.Context(), id, itemID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := logIDParam(w, r)
	if !ok {
		return
	}
	itemID, ok := itemIDParam(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteItem(r.Context(), id, itemID); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleImportLog stores the lifts of a posted JSON training log as set items.
func (s *Server) handleImportLog(w http.ResponseWriter, r *http.Request) {
	id, ok := s.existingLog(w, r)
	if !ok {
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

	stats, err := s.importer.ImportLifts(r.Context(), id, root)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleImportAlpha appends an Alpha Progression CSV export to a log as
// session, exercise and set items.
func (s *Server) handleImportAlpha(w http.ResponseWriter, r *http.Request) {
	id, ok := s.existingLog(w, r)
	if !ok {
		return
	}
	res, err := s.alpha.Ingest(r.Context(), id, http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		if errors.Is(err, alpha.ErrParse) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleEstimateLog writes a one-rep max onto every lift of a log.
func (s *Server) handleEstimateLog(w http.ResponseWriter, r *http.Request) {
	id, ok := s.existingLog(w, r)
	if !ok {
		return
	}
	f, ok := s.formulaByName(w, r.URL.Query().Get("formula"))
	if !ok {
		return
	}

	stats, err := s.importer.EstimateLog(r.Context(), id, f)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.estimates.WithLabelValues(f.Name(), "one_rep_max", "ok").Add(float64(stats.Estimated))
	s.metrics.estimates.WithLabelValues(f.Name(), "one_rep_max", "error").Add(float64(stats.Skipped))
	writeJSON(w, http.StatusOK, map[string]any{"formula": f.Name(), "stats": stats})
}

func logIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid log ID"})
		return uuid.Nil, false
	}
	return id, true
}

func itemIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return 0, false
	}
	return itemID, true
}

// existingLog parses the log ID and checks the log exists.
func (s *Server) existingLog(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := logIDParam(w, r)
	if !ok {
		return uuid.Nil, false
	}
	if _, err := s.store.GetLog(r.Context(), id); err != nil {
		s.writeError(w, err)
		return uuid.Nil, false
	}
	return id, true
}
