package spatial

import "sort"

// Cell is one position together with its assignments.
type Cell struct {
	Position    Position     `json:"position"`
	Label       string       `json:"label,omitempty"`
	Assignments []Assignment `json:"assignments"`
}

// LayerLabel is a custom label for one layer.
type LayerLabel struct {
	Layer int    `json:"layer"`
	Label string `json:"label"`
}

// PositionLabel is a custom label for one position.
type PositionLabel struct {
	Position Position `json:"position"`
	Label    string   `json:"label"`
}

// Layout is a value snapshot of everything persisted about a grid.
// Selection is view state and is not part of a layout.
type Layout struct {
	Dimensions           Dimensions      `json:"dimensions"`
	PositionLabels       []PositionLabel `json:"position_labels,omitempty"`
	LayerLabels          []LayerLabel    `json:"layer_labels,omitempty"`
	Cells                []Cell          `json:"cells,omitempty"`
	UserPosition         *Position       `json:"user_position,omitempty"`
	RequiresUserPosition bool            `json:"requires_user_position"`
}

// AssignmentCount returns the total number of assignments in the layout.
func (l Layout) AssignmentCount() int {
	n := 0
	for _, c := range l.Cells {
		n += len(c.Assignments)
	}
	return n
}

// Snapshot returns a deep copy of the grid's persistent state.
func (g *Grid) Snapshot() Layout {
	g.mu.RLock()
	defer g.mu.RUnlock()

	l := Layout{
		Dimensions:           g.dims,
		RequiresUserPosition: g.requiresUser,
	}
	for p, label := range g.positionLabels {
		l.PositionLabels = append(l.PositionLabels, PositionLabel{Position: p, Label: label})
	}
	sort.Slice(l.PositionLabels, func(i, j int) bool {
		return l.PositionLabels[i].Position.Less(l.PositionLabels[j].Position)
	})
	for z, label := range g.layerLabels {
		l.LayerLabels = append(l.LayerLabels, LayerLabel{Layer: z, Label: label})
	}
	sort.Slice(l.LayerLabels, func(i, j int) bool { return l.LayerLabels[i].Layer < l.LayerLabels[j].Layer })

	l.Cells = g.cells()
	if g.user != nil {
		u := *g.user
		l.UserPosition = &u
	}
	return l
}

// Restore replaces the grid state with l under one lock and emits a single
// EventGridUpdated. Entries outside l.Dimensions and malformed assignments
// are skipped. The selection is cleared. It returns an error only when
// l.Dimensions is invalid, in which case the grid is unchanged.
func (g *Grid) Restore(l Layout) error {
	if err := l.Dimensions.Validate(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.unlock()

	// Fold the per-field events into grid.updated.
	g.batchDepth++
	defer func() {
		g.batchDepth--
		g.emit(Event{Type: EventGridUpdated})
	}()

	g.dims = l.Dimensions
	g.positionLabels = make(map[Position]string)
	g.layerLabels = make(map[int]string)
	g.assignments = make(map[Position][]Assignment)
	g.selected = nil
	g.user = nil

	for _, pl := range l.PositionLabels {
		if g.dims.Contains(pl.Position) && pl.Label != "" {
			g.positionLabels[pl.Position] = pl.Label
		}
	}
	for _, ll := range l.LayerLabels {
		if ll.Layer >= 0 && ll.Layer < g.dims.Depth && ll.Label != "" {
			g.layerLabels[ll.Layer] = ll.Label
		}
	}
	for _, c := range l.Cells {
		if !g.dims.Contains(c.Position) {
			continue
		}
		for _, a := range c.Assignments {
			if a.Validate() != nil {
				continue
			}
			g.assignments[c.Position] = append(g.assignments[c.Position], a)
		}
	}
	if l.UserPosition != nil && g.dims.Contains(*l.UserPosition) {
		u := *l.UserPosition
		g.user = &u
	}
	g.requiresUser = l.RequiresUserPosition
	g.refreshWarning()
	return nil
}

// Scene is a consistent read-only view used by effects: dimensions, the
// reference point and every assigned cell, taken under one lock.
type Scene struct {
	Dimensions Dimensions
	User       *Position
	Cells      []Cell
}

// Scene returns a consistent copy of the state effects read on each tick.
func (g *Grid) Scene() Scene {
	g.mu.RLock()
	defer g.mu.RUnlock()

	s := Scene{Dimensions: g.dims, Cells: g.cells()}
	if g.user != nil {
		u := *g.user
		s.User = &u
	}
	return s
}

// cells returns every assigned cell in position order. Callers must hold g.mu.
func (g *Grid) cells() []Cell {
	positions := g.assignedPositions()
	out := make([]Cell, 0, len(positions))
	for _, p := range positions {
		out = append(out, Cell{
			Position:    p,
			Label:       g.positionLabel(p),
			Assignments: cloneAssignments(g.assignments[p]),
		})
	}
	return out
}

// View is the complete presentation state of the grid: every position in
// order with its effective label, the layer labels, the reference point,
// the selection and the active warning.
type View struct {
	Dimensions           Dimensions
	Layers               []LayerLabel
	Positions            []Cell
	UserPosition         *Position
	RequiresUserPosition bool
	Warning              string
	Selected             *Position
}

// View returns the presentation state taken under one lock, so positions
// always match the dimensions reported with them.
func (g *Grid) View() View {
	g.mu.RLock()
	defer g.mu.RUnlock()

	v := View{
		Dimensions:           g.dims,
		Layers:               make([]LayerLabel, 0, g.dims.Depth),
		Positions:            make([]Cell, 0, g.dims.Volume()),
		RequiresUserPosition: g.requiresUser,
		Warning:              g.warning,
	}
	for z := 0; z < g.dims.Depth; z++ {
		v.Layers = append(v.Layers, LayerLabel{Layer: z, Label: g.layerLabel(z)})
		for y := 0; y < g.dims.Height; y++ {
			for x := 0; x < g.dims.Width; x++ {
				p := Position{X: x, Y: y, Z: z}
				list := cloneAssignments(g.assignments[p])
				if list == nil {
					list = []Assignment{}
				}
				v.Positions = append(v.Positions, Cell{Position: p, Label: g.positionLabel(p), Assignments: list})
			}
		}
	}
	if g.user != nil {
		u := *g.user
		v.UserPosition = &u
	}
	if g.selected != nil {
		s := *g.selected
		v.Selected = &s
	}
	return v
}
