package api

import (
	"net/http"
	"testing"

	"github.com/Wolfieeewolf/lightscape/internal/spatial"
)

// ─── Grid view ─────────────────────────────────────────────────────

func TestHandleGetGrid(t *testing.T) {
	env := testServer(t, nil)
	env.grid.AddAssignment(spatial.Position{X: 1, Y: 1, Z: 1}, spatial.DeviceAssignment(0, spatial.White))
	env.grid.SetRequiresUserPosition(true)

	var v gridView
	rec := env.do(t, http.MethodGet, "/api/v1/grid", nil, &v)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if v.Dimensions != spatial.DefaultDimensions() {
		t.Errorf("dimensions = %+v", v.Dimensions)
	}
	if len(v.Positions) != 27 || len(v.Layers) != 3 {
		t.Fatalf("positions=%d layers=%d, want 27/3", len(v.Positions), len(v.Layers))
	}
	if v.Layers[0].Label != "Top" || v.Layers[2].Label != "Bottom" {
		t.Errorf("layer labels = %+v", v.Layers)
	}
	centre := v.Positions[13]
	if centre.Position != (spatial.Position{X: 1, Y: 1, Z: 1}) || len(centre.Assignments) != 1 {
		t.Errorf("centre = %+v", centre)
	}
	if v.Positions[0].Assignments == nil {
		t.Error("empty position assignments should encode as []")
	}
	if v.UserPosition != nil || v.Warning == "" {
		t.Errorf("user position %v warning %q", v.UserPosition, v.Warning)
	}
}

func TestHandleGetGrid_ConsistentDuringResize(t *testing.T) {
	env := testServer(t, nil)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			env.grid.SetDimensions(spatial.Dimensions{Width: 1 + i%5, Height: 1 + i%2, Depth: 1 + i%4})
		}
	}()

	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
		}
		var v gridView
		env.do(t, http.MethodGet, "/api/v1/grid", nil, &v)
		if len(v.Positions) != v.Dimensions.Volume() || len(v.Layers) != v.Dimensions.Depth {
			t.Fatalf("view of %v has %d positions and %d layers", v.Dimensions, len(v.Positions), len(v.Layers))
		}
		for _, p := range v.Positions {
			if p.Label == "" {
				t.Fatalf("position %v has no label", p.Position)
			}
		}
	}
}

func TestHandleSetDimensions(t *testing.T) {
	tests := []struct {
		name string
		body any
		want int
	}{
		{"valid", spatial.Dimensions{Width: 5, Height: 4, Depth: 2}, http.StatusOK},
		{"too wide", spatial.Dimensions{Width: 11, Height: 1, Depth: 1}, http.StatusUnprocessableEntity},
		{"too deep", spatial.Dimensions{Width: 1, Height: 1, Depth: 6}, http.StatusUnprocessableEntity},
		{"unknown field", map[string]int{"width": 1, "length": 2}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testServer(t, nil)
			rec := env.do(t, http.MethodPut, "/api/v1/grid/dimensions", tt.body, nil)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	env := testServer(t, nil)
	env.do(t, http.MethodPut, "/api/v1/grid/dimensions", spatial.Dimensions{Width: 5, Height: 4, Depth: 2}, nil)
	if got := env.grid.Dimensions(); got != (spatial.Dimensions{Width: 5, Height: 4, Depth: 2}) {
		t.Errorf("grid dimensions = %+v", got)
	}
}

// ─── Labels ────────────────────────────────────────────────────────

func TestHandleLabels(t *testing.T) {
	env := testServer(t, nil)

	var layer spatial.LayerLabel
	rec := env.do(t, http.MethodPut, "/api/v1/grid/layers/1/label", labelRequest{Label: "Desk"}, &layer)
	if rec.Code != http.StatusOK || layer.Label != "Desk" || env.grid.LayerLabel(1) != "Desk" {
		t.Errorf("layer label: %d %+v", rec.Code, layer)
	}
	if rec := env.do(t, http.MethodPut, "/api/v1/grid/layers/3/label", labelRequest{Label: "x"}, nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing layer status = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPut, "/api/v1/grid/layers/top/label", labelRequest{Label: "x"}, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("non-numeric layer status = %d", rec.Code)
	}

	var pos spatial.PositionLabel
	env.do(t, http.MethodPut, "/api/v1/grid/positions/0/0/0/label", labelRequest{Label: "Monitor"}, &pos)
	if pos.Label != "Monitor" {
		t.Errorf("position label = %+v", pos)
	}
	env.do(t, http.MethodPut, "/api/v1/grid/positions/0/0/0/label", labelRequest{}, &pos)
	if pos.Label == "Monitor" || pos.Label == "" {
		t.Errorf("empty label should restore the default, got %q", pos.Label)
	}
}

// ─── Assignments ───────────────────────────────────────────────────

func TestHandleAddAssignment(t *testing.T) {
	zone := 1
	led := 2
	tests := []struct {
		name string
		body assignmentRequest
		want int
	}{
		{"whole device", assignmentRequest{DeviceIndex: 1}, http.StatusCreated},
		{"zone with colour", assignmentRequest{DeviceIndex: 0, ZoneIndex: &zone, Color: "#ff0000"}, http.StatusCreated},
		{"led", assignmentRequest{DeviceIndex: 0, LEDIndex: &led}, http.StatusCreated},
		{"zone and led", assignmentRequest{DeviceIndex: 0, ZoneIndex: &zone, LEDIndex: &led}, http.StatusUnprocessableEntity},
		{"unknown device", assignmentRequest{DeviceIndex: 9}, http.StatusUnprocessableEntity},
		{"bad colour", assignmentRequest{DeviceIndex: 0, Color: "red-ish"}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testServer(t, nil)
			var v positionView
			rec := env.do(t, http.MethodPost, "/api/v1/grid/positions/2/1/0/assignments", tt.body, &v)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
			if tt.want == http.StatusCreated && len(v.Assignments) != 1 {
				t.Errorf("assignments = %+v", v.Assignments)
			}
		})
	}
}

func TestHandleAddAssignment_DefaultsToWholeDevice(t *testing.T) {
	env := testServer(t, nil)
	env.do(t, http.MethodPost, "/api/v1/grid/positions/0/0/0/assignments", assignmentRequest{DeviceIndex: 0, Color: "#102030"}, nil)

	list := env.grid.Assignments(spatial.Position{})
	if len(list) != 1 {
		t.Fatalf("assignments = %+v", list)
	}
	if list[0].Target() != spatial.TargetDevice || list[0].Color != (spatial.Color{R: 0x10, G: 0x20, B: 0x30}) {
		t.Errorf("assignment = %+v", list[0])
	}
}

func TestHandleAssignments_OutOfBounds(t *testing.T) {
	env := testServer(t, nil)
	paths := []string{
		"/api/v1/grid/positions/3/0/0/assignments",
		"/api/v1/grid/positions/0/-1/0/assignments",
	}
	for _, p := range paths {
		if rec := env.do(t, http.MethodGet, p, nil, nil); rec.Code != http.StatusNotFound {
			t.Errorf("GET %s = %d, want 404", p, rec.Code)
		}
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/grid/positions/a/0/0/assignments", nil, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("non-numeric coordinate = %d, want 400", rec.Code)
	}
}

func TestHandleRemoveAndClearAssignments(t *testing.T) {
	env := testServer(t, nil)
	p := spatial.Position{X: 1}
	env.grid.AddAssignment(p, spatial.DeviceAssignment(0, spatial.Black))
	env.grid.AddAssignment(p, spatial.DeviceAssignment(1, spatial.Black))
	env.grid.AddAssignment(spatial.Position{Z: 2}, spatial.DeviceAssignment(1, spatial.Black))

	var v positionView
	rec := env.do(t, http.MethodDelete, "/api/v1/grid/positions/1/0/0/assignments/0", nil, &v)
	if rec.Code != http.StatusOK || len(v.Assignments) != 1 || v.Assignments[0].DeviceIndex != 1 {
		t.Errorf("remove: %d %+v", rec.Code, v)
	}
	if rec := env.do(t, http.MethodDelete, "/api/v1/grid/positions/1/0/0/assignments/5", nil, nil); rec.Code != http.StatusNotFound {
		t.Errorf("remove missing index = %d", rec.Code)
	}

	if rec := env.do(t, http.MethodDelete, "/api/v1/grid/positions/1/0/0/assignments", nil, nil); rec.Code != http.StatusNoContent {
		t.Errorf("clear position = %d", rec.Code)
	}
	if env.grid.HasAssignments(p) {
		t.Error("position still has assignments")
	}

	if rec := env.do(t, http.MethodDelete, "/api/v1/grid/assignments", nil, nil); rec.Code != http.StatusNoContent {
		t.Errorf("clear all = %d", rec.Code)
	}
	if n := len(env.grid.AssignedPositions()); n != 0 {
		t.Errorf("%d positions still assigned", n)
	}
}

// ─── User position & selection ─────────────────────────────────────

func TestHandleUserPosition(t *testing.T) {
	env := testServer(t, nil)
	env.grid.SetRequiresUserPosition(true)

	if rec := env.do(t, http.MethodPut, "/api/v1/grid/user-position", spatial.Position{X: 2, Y: 2, Z: 2}, nil); rec.Code != http.StatusOK {
		t.Fatalf("set = %d", rec.Code)
	}
	if p, ok := env.grid.UserPosition(); !ok || p != (spatial.Position{X: 2, Y: 2, Z: 2}) {
		t.Errorf("user position = %v %v", p, ok)
	}
	if rec := env.do(t, http.MethodPut, "/api/v1/grid/user-position", spatial.Position{X: 3}, nil); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("out of bounds = %d", rec.Code)
	}

	var body struct {
		UserPosition *spatial.Position `json:"user_position"`
		Warning      string            `json:"warning"`
	}
	env.do(t, http.MethodDelete, "/api/v1/grid/user-position", nil, &body)
	if body.UserPosition != nil || body.Warning != spatial.DefaultUserPositionWarning {
		t.Errorf("clear = %+v", body)
	}
}

func TestHandleSelection_Toggle(t *testing.T) {
	env := testServer(t, nil)
	p := spatial.Position{X: 1, Y: 2}

	var body struct {
		Selected *spatial.Position `json:"selected"`
	}
	env.do(t, http.MethodPost, "/api/v1/grid/selection", p, &body)
	if body.Selected == nil || *body.Selected != p {
		t.Fatalf("first select = %+v", body.Selected)
	}
	body.Selected = nil
	env.do(t, http.MethodPost, "/api/v1/grid/selection", p, &body)
	if body.Selected != nil {
		t.Errorf("second select should toggle off, got %v", body.Selected)
	}

	env.do(t, http.MethodPost, "/api/v1/grid/selection", p, nil)
	env.do(t, http.MethodDelete, "/api/v1/grid/selection", nil, &body)
	if _, ok := env.grid.SelectedPosition(); ok || body.Selected != nil {
		t.Error("selection not cleared")
	}

	if rec := env.do(t, http.MethodPost, "/api/v1/grid/selection", spatial.Position{Z: 9}, nil); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("out of bounds select = %d", rec.Code)
	}
}

func TestHandleSetSelectionColor(t *testing.T) {
	env := testServer(t, nil)
	p := spatial.Position{X: 1, Y: 1}
	env.grid.AddAssignment(p, spatial.DeviceAssignment(0, spatial.Black))
	env.grid.AddAssignment(p, spatial.DeviceAssignment(1, spatial.Black))

	if rec := env.do(t, http.MethodPut, "/api/v1/grid/selection/color", colorRequest{Color: "#00ff00"}, nil); rec.Code != http.StatusConflict {
		t.Fatalf("without selection = %d, want 409", rec.Code)
	}

	var updates int
	unsub := env.grid.Subscribe(func(ev spatial.Event) {
		if ev.Type == spatial.EventGridUpdated {
			updates++
		}
	})
	defer unsub()

	env.grid.Select(p)
	var v positionView
	rec := env.do(t, http.MethodPut, "/api/v1/grid/selection/color", colorRequest{Color: "#00ff00"}, &v)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	green := spatial.Color{G: 255}
	for i, a := range env.grid.Assignments(p) {
		if a.Color != green {
			t.Errorf("assignment %d colour = %v", i, a.Color)
		}
	}
	if updates != 1 {
		t.Errorf("grid.updated emitted %d times, want 1", updates)
	}

	if rec := env.do(t, http.MethodPut, "/api/v1/grid/selection/color", colorRequest{Color: "nope"}, nil); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad colour = %d", rec.Code)
	}
}

// ─── Devices ───────────────────────────────────────────────────────

func TestHandleListDevices(t *testing.T) {
	env := testServer(t, nil)
	var body struct {
		Devices []struct {
			Index int      `json:"index"`
			Name  string   `json:"name"`
			Zones []string `json:"zones"`
			LEDs  int      `json:"leds"`
		} `json:"devices"`
		Count int `json:"count"`
	}
	env.do(t, http.MethodGet, "/api/v1/devices", nil, &body)
	if body.Count != 2 || len(body.Devices) != 2 {
		t.Fatalf("devices = %+v", body)
	}
	if body.Devices[0].Name != "Desk" || len(body.Devices[0].Zones) != 2 || body.Devices[0].LEDs != 8 {
		t.Errorf("device 0 = %+v", body.Devices[0])
	}
}
