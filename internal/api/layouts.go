package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Wolfieeewolf/lightscape/internal/layout"
)

type saveLayoutRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// handleListLayouts lists saved layouts, most recently updated first.
func (s *Server) handleListLayouts(w http.ResponseWriter, r *http.Request) {
	if s.layouts == nil {
		writeUnavailable(w, "layout storage is not configured")
		return
	}
	list, err := s.layouts.List(r.Context())
	if err != nil {
		s.logger.Error("listing layouts failed", "error", err)
		writeInternalError(w, "failed to list layouts")
		return
	}
	if list == nil {
		list = []layout.Summary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"layouts": list,
		"count":   len(list),
	})
}

// handleSaveLayout snapshots the current grid under a name. Saving under an
// existing name overwrites that layout.
func (s *Server) handleSaveLayout(w http.ResponseWriter, r *http.Request) {
	if s.layouts == nil {
		writeUnavailable(w, "layout storage is not configured")
		return
	}
	var req saveLayoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	saved, err := layout.SaveGrid(r.Context(), s.layouts, s.grid, req.Name, req.Description)
	if err != nil {
		s.writeLayoutError(w, err)
		return
	}
	s.logger.Info("layout saved", "id", saved.ID, "name", saved.Name)
	writeJSON(w, http.StatusCreated, saved.Summary())
}

// handleLoadLayout restores a saved layout, by ID or name, into the grid.
func (s *Server) handleLoadLayout(w http.ResponseWriter, r *http.Request) {
	if s.layouts == nil {
		writeUnavailable(w, "layout storage is not configured")
		return
	}
	saved, err := layout.LoadInto(r.Context(), s.layouts, s.grid, chi.URLParam(r, "id"))
	if err != nil {
		s.writeLayoutError(w, err)
		return
	}
	s.logger.Info("layout loaded", "id", saved.ID, "name", saved.Name)
	writeJSON(w, http.StatusOK, s.gridView())
}

// handleDeleteLayout removes a saved layout.
func (s *Server) handleDeleteLayout(w http.ResponseWriter, r *http.Request) {
	if s.layouts == nil {
		writeUnavailable(w, "layout storage is not configured")
		return
	}
	if err := s.layouts.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeLayoutError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeLayoutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, layout.ErrLayoutNotFound):
		writeNotFound(w, "layout not found")
	case errors.Is(err, layout.ErrLayoutExists):
		writeConflict(w, err.Error())
	case errors.Is(err, layout.ErrInvalidLayout):
		writeValidationError(w, err.Error())
	default:
		s.logger.Error("layout operation failed", "error", err)
		writeInternalError(w, "layout operation failed")
	}
}
