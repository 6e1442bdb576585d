package api

import (
	"net/http"
	"testing"

	"github.com/Wolfieeewolf/lightscape/internal/effect"
	"github.com/Wolfieeewolf/lightscape/internal/spatial"
)

type layerList struct {
	Layers []effect.Layer `json:"layers"`
}

// ─── Layers ────────────────────────────────────────────────────────

func TestHandleLayers_DriveTheEngine(t *testing.T) {
	env := testServer(t, nil)
	p := spatial.Position{}
	env.grid.AddAssignment(p, spatial.DeviceAssignment(0, spatial.Black))

	red, blue := "#ff0000", "#0000ff"
	var l effect.Layer
	rec := env.do(t, http.MethodPost, "/api/v1/effect/layers", layerRequest{ID: "red", Effect: "layer_cascade", TargetColor: &red, Active: true}, &l)
	if rec.Code != http.StatusCreated || l.ID != "red" || l.Kind != effect.KindLayerCascade || !l.Active {
		t.Fatalf("register red = %d %+v", rec.Code, l)
	}
	if l.Settings.Speed != 50 || l.Settings.Intensity != 100 {
		t.Errorf("layer settings = %+v, want engine defaults", l.Settings)
	}
	rec = env.do(t, http.MethodPost, "/api/v1/effect/layers", layerRequest{Name: "Blue", Effect: "layer_cascade", TargetColor: &blue}, &l)
	if rec.Code != http.StatusCreated || l.ID == "" || l.Active {
		t.Fatalf("register blue = %d %+v", rec.Code, l)
	}
	blueID := l.ID

	var list layerList
	env.do(t, http.MethodGet, "/api/v1/effect/layers", nil, &list)
	if len(list.Layers) != 2 || list.Layers[0].ID != "red" || list.Layers[1].Name != "Blue" {
		t.Fatalf("layers = %+v", list.Layers)
	}

	_ = env.engine.Start(effect.KindWave)
	env.engine.Tick()
	if c := env.grid.Assignments(p)[0].Color; c.R == 0 || c.B != 0 {
		t.Errorf("colour = %v, want the red layer", c)
	}
	var v effectView
	env.do(t, http.MethodGet, "/api/v1/effect", nil, &v)
	if v.ActiveLayer == nil || v.ActiveLayer.ID != "red" {
		t.Errorf("active_layer = %+v, want red", v.ActiveLayer)
	}

	rec = env.do(t, http.MethodPut, "/api/v1/effect/layers/"+blueID+"/active", activeRequest{Active: true}, &l)
	if rec.Code != http.StatusOK || !l.Active {
		t.Fatalf("activate = %d %+v", rec.Code, l)
	}
	env.engine.Tick()
	if c := env.grid.Assignments(p)[0].Color; c.B == 0 || c.R != 0 {
		t.Errorf("colour = %v, want the later blue layer", c)
	}

	if rec := env.do(t, http.MethodDelete, "/api/v1/effect/layers/"+blueID, nil, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("remove = %d", rec.Code)
	}
	env.engine.Tick()
	if c := env.grid.Assignments(p)[0].Color; c.R == 0 || c.B != 0 {
		t.Errorf("colour = %v, want red again", c)
	}
}

func TestHandleLayers_Errors(t *testing.T) {
	env := testServer(t, nil)
	env.do(t, http.MethodPost, "/api/v1/effect/layers", layerRequest{ID: "a", Effect: "wave"}, nil)

	bad := "nope"
	negative := -1
	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown effect", http.MethodPost, "/api/v1/effect/layers", layerRequest{Effect: "strobe"}, http.StatusUnprocessableEntity},
		{"no effect", http.MethodPost, "/api/v1/effect/layers", layerRequest{}, http.StatusUnprocessableEntity},
		{"bad colour", http.MethodPost, "/api/v1/effect/layers", layerRequest{Effect: "wave", TargetColor: &bad}, http.StatusUnprocessableEntity},
		{"negative speed", http.MethodPost, "/api/v1/effect/layers", layerRequest{Effect: "wave", Speed: &negative}, http.StatusUnprocessableEntity},
		{"duplicate id", http.MethodPost, "/api/v1/effect/layers", layerRequest{ID: "a", Effect: "ripple"}, http.StatusConflict},
		{"activate missing", http.MethodPut, "/api/v1/effect/layers/missing/active", activeRequest{Active: true}, http.StatusNotFound},
		{"remove missing", http.MethodDelete, "/api/v1/effect/layers/missing", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := env.do(t, tt.method, tt.path, tt.body, nil); rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
	if n := len(env.registry.Layers()); n != 1 {
		t.Errorf("%d layers registered, want 1", n)
	}
}
