package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Wolfieeewolf/lightscape/internal/spatial"
)

// positionView is one grid position as the API presents it.
type positionView struct {
	Position    spatial.Position     `json:"position"`
	Label       string               `json:"label"`
	Assignments []spatial.Assignment `json:"assignments"`
}

// gridView is the full state of the grid.
type gridView struct {
	Dimensions           spatial.Dimensions   `json:"dimensions"`
	Layers               []spatial.LayerLabel `json:"layers"`
	Positions            []positionView       `json:"positions"`
	UserPosition         *spatial.Position    `json:"user_position"`
	RequiresUserPosition bool                 `json:"requires_user_position"`
	Warning              string               `json:"warning,omitempty"`
	Selected             *spatial.Position    `json:"selected"`
}

// assignmentRequest is the body of POST .../assignments. Omitted zone and
// LED indices target the whole device.
type assignmentRequest struct {
	DeviceIndex int    `json:"device_index"`
	ZoneIndex   *int   `json:"zone_index"`
	LEDIndex    *int   `json:"led_index"`
	Color       string `json:"color"`
}

type labelRequest struct {
	Label string `json:"label"`
}

type colorRequest struct {
	Color string `json:"color"`
}

// handleGetGrid returns the dimensions, labels, assignments, user position
// and selection of the grid.
func (s *Server) handleGetGrid(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.gridView())
}

func (s *Server) gridView() gridView {
	g := s.grid.View()
	v := gridView{
		Dimensions:           g.Dimensions,
		Layers:               g.Layers,
		Positions:            make([]positionView, 0, len(g.Positions)),
		UserPosition:         g.UserPosition,
		RequiresUserPosition: g.RequiresUserPosition,
		Warning:              g.Warning,
		Selected:             g.Selected,
	}
	for _, c := range g.Positions {
		v.Positions = append(v.Positions, positionView{Position: c.Position, Label: c.Label, Assignments: c.Assignments})
	}
	return v
}

// handleSetDimensions resizes the grid.
func (s *Server) handleSetDimensions(w http.ResponseWriter, r *http.Request) {
	var d spatial.Dimensions
	if err := decodeJSON(r, &d); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if err := d.Validate(); err != nil {
		writeValidationError(w, err.Error())
		return
	}
	if !s.grid.SetDimensions(d) {
		writeValidationError(w, "dimensions rejected")
		return
	}
	writeJSON(w, http.StatusOK, s.gridView())
}

// handleSetLayerLabel sets or, with an empty label, resets a layer label.
func (s *Server) handleSetLayerLabel(w http.ResponseWriter, r *http.Request) {
	z, err := strconv.Atoi(chi.URLParam(r, "z"))
	if err != nil {
		writeBadRequest(w, "layer must be an integer")
		return
	}
	if z < 0 || z >= s.grid.Dimensions().Depth {
		writeNotFound(w, fmt.Sprintf("layer %d does not exist", z))
		return
	}
	var req labelRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	s.grid.SetLayerLabel(z, req.Label)
	writeJSON(w, http.StatusOK, spatial.LayerLabel{Layer: z, Label: s.grid.LayerLabel(z)})
}

// handleSetPositionLabel sets or, with an empty label, resets a position label.
func (s *Server) handleSetPositionLabel(w http.ResponseWriter, r *http.Request) {
	p, ok := s.pathPosition(w, r)
	if !ok {
		return
	}
	var req labelRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	s.grid.SetPositionLabel(p, req.Label)
	writeJSON(w, http.StatusOK, spatial.PositionLabel{Position: p, Label: s.grid.PositionLabel(p)})
}

// handleListAssignments returns the assignments at one position.
func (s *Server) handleListAssignments(w http.ResponseWriter, r *http.Request) {
	p, ok := s.pathPosition(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.positionView(p))
}

// handleAddAssignment appends an assignment to a position.
func (s *Server) handleAddAssignment(w http.ResponseWriter, r *http.Request) {
	p, ok := s.pathPosition(w, r)
	if !ok {
		return
	}
	var req assignmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	a := spatial.Assignment{DeviceIndex: req.DeviceIndex, ZoneIndex: spatial.None, LEDIndex: spatial.None}
	if req.ZoneIndex != nil {
		a.ZoneIndex = *req.ZoneIndex
	}
	if req.LEDIndex != nil {
		a.LEDIndex = *req.LEDIndex
	}
	if req.Color != "" {
		c, err := spatial.ParseColor(req.Color)
		if err != nil {
			writeValidationError(w, err.Error())
			return
		}
		a.Color = c
	}
	if err := a.Validate(); err != nil {
		writeValidationError(w, err.Error())
		return
	}
	if n := s.devices.DeviceCount(); a.DeviceIndex >= n {
		writeValidationError(w, fmt.Sprintf("device index %d out of range (%d devices)", a.DeviceIndex, n))
		return
	}
	if !s.grid.AddAssignment(p, a) {
		writeValidationError(w, "assignment rejected")
		return
	}
	writeJSON(w, http.StatusCreated, s.positionView(p))
}

// handleClearAssignments removes every assignment at one position.
func (s *Server) handleClearAssignments(w http.ResponseWriter, r *http.Request) {
	p, ok := s.pathPosition(w, r)
	if !ok {
		return
	}
	s.grid.ClearAssignments(p)
	w.WriteHeader(http.StatusNoContent)
}

// handleRemoveAssignment removes one assignment by index.
func (s *Server) handleRemoveAssignment(w http.ResponseWriter, r *http.Request) {
	p, ok := s.pathPosition(w, r)
	if !ok {
		return
	}
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeBadRequest(w, "index must be an integer")
		return
	}
	if !s.grid.RemoveAssignment(p, i) {
		writeNotFound(w, fmt.Sprintf("no assignment %d at %s", i, p))
		return
	}
	writeJSON(w, http.StatusOK, s.positionView(p))
}

// handleClearAllAssignments empties the whole grid.
func (s *Server) handleClearAllAssignments(w http.ResponseWriter, _ *http.Request) {
	s.grid.ClearAllAssignments()
	w.WriteHeader(http.StatusNoContent)
}

// handleSetUserPosition moves the effect reference point.
func (s *Server) handleSetUserPosition(w http.ResponseWriter, r *http.Request) {
	var p spatial.Position
	if err := decodeJSON(r, &p); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if !s.grid.SetUserPosition(p) {
		writeValidationError(w, fmt.Sprintf("position %s is outside the grid", p))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user_position": p})
}

// handleClearUserPosition removes the reference point. The response carries
// the warning to show when one is now required.
func (s *Server) handleClearUserPosition(w http.ResponseWriter, _ *http.Request) {
	s.grid.ClearUserPosition()
	writeJSON(w, http.StatusOK, map[string]any{
		"user_position": nil,
		"warning":       s.grid.UserPositionWarning(),
	})
}

// handleSelect toggles the selection of a position.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var p spatial.Position
	if err := decodeJSON(r, &p); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if !s.grid.Contains(p) {
		writeValidationError(w, fmt.Sprintf("position %s is outside the grid", p))
		return
	}
	s.grid.Select(p)
	writeJSON(w, http.StatusOK, s.selectionView())
}

// handleClearSelection clears the selection.
func (s *Server) handleClearSelection(w http.ResponseWriter, _ *http.Request) {
	s.grid.ClearSelection()
	writeJSON(w, http.StatusOK, s.selectionView())
}

// handleSetSelectionColor paints every assignment at the selected position.
// Without a selection it answers 409 so the client can show a warning.
func (s *Server) handleSetSelectionColor(w http.ResponseWriter, r *http.Request) {
	var req colorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	c, err := spatial.ParseColor(req.Color)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}
	p, ok := s.grid.SelectedPosition()
	if !ok {
		writeConflict(w, "select a position on the grid first")
		return
	}

	list := s.grid.Assignments(p)
	writes := make([]spatial.ColorWrite, 0, len(list))
	for i := range list {
		writes = append(writes, spatial.ColorWrite{Position: p, Index: i, Color: c})
	}
	s.grid.ApplyColors(writes)

	writeJSON(w, http.StatusOK, s.positionView(p))
}

func (s *Server) selectionView() map[string]any {
	if p, ok := s.grid.SelectedPosition(); ok {
		return map[string]any{"selected": p}
	}
	return map[string]any{"selected": nil}
}

func (s *Server) positionView(p spatial.Position) positionView {
	list := s.grid.Assignments(p)
	if list == nil {
		list = []spatial.Assignment{}
	}
	return positionView{Position: p, Label: s.grid.PositionLabel(p), Assignments: list}
}

// pathPosition parses {x}/{y}/{z} and writes an error response if the
// position is malformed or outside the grid.
func (s *Server) pathPosition(w http.ResponseWriter, r *http.Request) (spatial.Position, bool) {
	var p spatial.Position
	for _, f := range []struct {
		name string
		dst  *int
	}{{"x", &p.X}, {"y", &p.Y}, {"z", &p.Z}} {
		v, err := strconv.Atoi(chi.URLParam(r, f.name))
		if err != nil {
			writeBadRequest(w, f.name+" must be an integer")
			return p, false
		}
		*f.dst = v
	}
	if !s.grid.Contains(p) {
		writeNotFound(w, fmt.Sprintf("position %s is outside the grid", p))
		return p, false
	}
	return p, true
}
