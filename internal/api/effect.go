package api

import (
	"errors"
	"net/http"

	"github.com/Wolfieeewolf/lightscape/internal/effect"
	"github.com/Wolfieeewolf/lightscape/internal/spatial"
)

// effectView is the engine state returned by the effect endpoints.
type effectView struct {
	Effect    effect.Kind     `json:"effect"`
	Running   bool            `json:"running"`
	Elapsed   float32         `json:"elapsed"`
	Settings  effect.Settings `json:"settings"`
	Available []effect.Kind   `json:"available"`
	Warning   string          `json:"warning,omitempty"`

	// ActiveLayer is the registered layer currently driving the grid.
	ActiveLayer *effect.Layer `json:"active_layer,omitempty"`
}

type startEffectRequest struct {
	Effect string `json:"effect"`
}

// effectSettingsRequest updates any subset of the settings. ClearColor
// returns to greyscale and is applied before the colour fields.
type effectSettingsRequest struct {
	Speed       *int    `json:"speed"`
	Intensity   *int    `json:"intensity"`
	BaseColor   *string `json:"base_color"`
	TargetColor *string `json:"target_color"`
	ClearColor  bool    `json:"clear_color"`
}

func (s *Server) effectView() effectView {
	kind := s.engine.Current()
	v := effectView{
		Effect:    kind,
		Running:   s.engine.Running(),
		Elapsed:   s.engine.Elapsed(),
		Settings:  s.engine.Settings(),
		Available: effect.Kinds(),
	}
	if s.registry != nil {
		if l, ok := s.registry.Resolve(); ok {
			v.ActiveLayer = &l
			kind = l.Kind
		}
	}
	if v.Running && kind.RequiresReference() {
		v.Warning = s.grid.UserPositionWarning()
	}
	return v
}

// handleGetEffect returns the current effect and its settings.
func (s *Server) handleGetEffect(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.effectView())
}

// handleStartEffect switches to the named effect, stopping any running one.
func (s *Server) handleStartEffect(w http.ResponseWriter, r *http.Request) {
	var req startEffectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	kind, err := effect.ParseKind(req.Effect)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}
	if err := s.engine.Start(kind); err != nil {
		if errors.Is(err, effect.ErrEngineClosed) {
			writeUnavailable(w, err.Error())
			return
		}
		writeValidationError(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.effectView())
}

// handleStopEffect stops the running effect. Stopping an idle engine is not
// an error.
func (s *Server) handleStopEffect(w http.ResponseWriter, _ *http.Request) {
	s.engine.Stop()
	writeJSON(w, http.StatusOK, s.effectView())
}

// handleEffectSettings applies speed, intensity and colour changes. The
// whole request is validated before anything is applied.
func (s *Server) handleEffectSettings(w http.ResponseWriter, r *http.Request) {
	var req effectSettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Speed != nil && *req.Speed < 0 {
		writeValidationError(w, "speed must not be negative")
		return
	}
	if req.Intensity != nil && *req.Intensity < 0 {
		writeValidationError(w, "intensity must not be negative")
		return
	}
	base, err := optionalColor(req.BaseColor)
	if err != nil {
		writeValidationError(w, "base_color: "+err.Error())
		return
	}
	target, err := optionalColor(req.TargetColor)
	if err != nil {
		writeValidationError(w, "target_color: "+err.Error())
		return
	}

	if req.Speed != nil {
		s.engine.SetSpeed(*req.Speed)
	}
	if req.Intensity != nil {
		s.engine.SetIntensity(*req.Intensity)
	}
	if req.ClearColor {
		s.engine.ClearColor()
	}
	if base != nil {
		s.engine.SetBaseColor(*base)
	}
	if target != nil {
		s.engine.SetColor(*target)
	}
	writeJSON(w, http.StatusOK, s.effectView())
}

func optionalColor(v *string) (*spatial.Color, error) {
	if v == nil {
		return nil, nil
	}
	c, err := spatial.ParseColor(*v)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
