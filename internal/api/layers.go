package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Wolfieeewolf/lightscape/internal/effect"
)

// layerRequest is the body of POST /effect/layers. Omitted speed and
// intensity take the engine's current values.
type layerRequest struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Effect      string  `json:"effect"`
	Speed       *int    `json:"speed"`
	Intensity   *int    `json:"intensity"`
	BaseColor   *string `json:"base_color"`
	TargetColor *string `json:"target_color"`
	Active      bool    `json:"active"`
}

type activeRequest struct {
	Active bool `json:"active"`
}

// handleListLayers returns every registered layer in registration order.
func (s *Server) handleListLayers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"layers": s.registry.Layers()})
}

// handleRegisterLayer adds a layer. The most recently registered active
// layer drives the grid.
func (s *Server) handleRegisterLayer(w http.ResponseWriter, r *http.Request) {
	var req layerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	kind, err := effect.ParseKind(req.Effect)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}
	if kind == effect.KindNone {
		writeValidationError(w, "a layer needs an effect")
		return
	}

	settings := s.engine.Settings()
	if req.Speed != nil {
		if *req.Speed < 0 {
			writeValidationError(w, "speed must not be negative")
			return
		}
		settings.Speed = *req.Speed
	}
	if req.Intensity != nil {
		if *req.Intensity < 0 {
			writeValidationError(w, "intensity must not be negative")
			return
		}
		settings.Intensity = *req.Intensity
	}
	base, err := optionalColor(req.BaseColor)
	if err != nil {
		writeValidationError(w, "base_color: "+err.Error())
		return
	}
	if base != nil {
		settings.Base = *base
	}
	target, err := optionalColor(req.TargetColor)
	if err != nil {
		writeValidationError(w, "target_color: "+err.Error())
		return
	}
	settings.Target = target

	id, err := s.registry.Register(effect.Layer{
		ID:       req.ID,
		Name:     req.Name,
		Kind:     kind,
		Settings: settings,
		Active:   req.Active,
	})
	if err != nil {
		if errors.Is(err, effect.ErrLayerExists) {
			writeConflict(w, err.Error())
			return
		}
		writeValidationError(w, err.Error())
		return
	}
	s.logger.Info("effect layer registered", "id", id, "effect", kind.String(), "active", req.Active)

	l, _ := s.layer(id)
	writeJSON(w, http.StatusCreated, l)
}

// handleSetLayerActive toggles a layer.
func (s *Server) handleSetLayerActive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req activeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if err := s.registry.SetActive(id, req.Active); err != nil {
		writeNotFound(w, err.Error())
		return
	}
	l, _ := s.layer(id)
	writeJSON(w, http.StatusOK, l)
}

// handleRemoveLayer deletes a layer.
func (s *Server) handleRemoveLayer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.registry.Remove(id); err != nil {
		writeNotFound(w, err.Error())
		return
	}
	s.logger.Info("effect layer removed", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) layer(id string) (effect.Layer, bool) {
	for _, l := range s.registry.Layers() {
		if l.ID == id {
			return l, true
		}
	}
	return effect.Layer{}, false
}
