package api

import (
	"net/http"
	"testing"

	"github.com/Wolfieeewolf/lightscape/internal/layout"
	"github.com/Wolfieeewolf/lightscape/internal/spatial"
)

func TestHandleLayouts_Lifecycle(t *testing.T) {
	env := testServer(t, nil)
	p := spatial.Position{X: 2, Y: 1}
	env.grid.AddAssignment(p, spatial.DeviceAssignment(1, spatial.White))
	env.grid.SetLayerLabel(0, "Shelf")

	var saved layout.Summary
	rec := env.do(t, http.MethodPost, "/api/v1/layouts", saveLayoutRequest{Name: "Desk"}, &saved)
	if rec.Code != http.StatusCreated {
		t.Fatalf("save = %d (%s)", rec.Code, rec.Body.String())
	}
	if saved.ID == "" || saved.AssignmentCount != 1 {
		t.Errorf("saved = %+v", saved)
	}

	var list struct {
		Layouts []layout.Summary `json:"layouts"`
		Count   int              `json:"count"`
	}
	env.do(t, http.MethodGet, "/api/v1/layouts", nil, &list)
	if list.Count != 1 || list.Layouts[0].Name != "Desk" {
		t.Fatalf("list = %+v", list)
	}

	env.grid.SetDimensions(spatial.Dimensions{Width: 1, Height: 1, Depth: 1})

	var v gridView
	rec = env.do(t, http.MethodPost, "/api/v1/layouts/Desk/load", nil, &v)
	if rec.Code != http.StatusOK {
		t.Fatalf("load by name = %d (%s)", rec.Code, rec.Body.String())
	}
	if v.Dimensions != spatial.DefaultDimensions() || len(env.grid.Assignments(p)) != 1 || env.grid.LayerLabel(0) != "Shelf" {
		t.Errorf("grid not restored: %+v", v.Dimensions)
	}
	if rec := env.do(t, http.MethodPost, "/api/v1/layouts/"+saved.ID+"/load", nil, nil); rec.Code != http.StatusOK {
		t.Errorf("load by id = %d", rec.Code)
	}

	if rec := env.do(t, http.MethodDelete, "/api/v1/layouts/"+saved.ID, nil, nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodDelete, "/api/v1/layouts/"+saved.ID, nil, nil); rec.Code != http.StatusNotFound {
		t.Errorf("second delete = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/v1/layouts/missing/load", nil, nil); rec.Code != http.StatusNotFound {
		t.Errorf("load missing = %d", rec.Code)
	}
}

func TestHandleSaveLayout_Invalid(t *testing.T) {
	env := testServer(t, nil)
	if rec := env.do(t, http.MethodPost, "/api/v1/layouts", saveLayoutRequest{Name: "   "}, nil); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("blank name = %d", rec.Code)
	}
}

func TestHandleLayouts_NoStorage(t *testing.T) {
	env := testServer(t, nil)
	env.srv.layouts = nil

	if rec := env.do(t, http.MethodGet, "/api/v1/layouts", nil, nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("list without storage = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/v1/layouts", saveLayoutRequest{Name: "x"}, nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("save without storage = %d", rec.Code)
	}
}
