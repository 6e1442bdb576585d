package spatial

import (
	"fmt"
	"sort"
	"sync"
)

// DefaultUserPositionWarning is shown when effects need a reference point
// and none has been set.
const DefaultUserPositionWarning = "Set a user position on the grid to use spatial effects"

// Grid is the spatial grid model.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - Events are delivered after the internal lock is released, in the
//     order the mutations happened.
type Grid struct {
	mu sync.RWMutex

	dims           Dimensions
	positionLabels map[Position]string
	layerLabels    map[int]string
	assignments    map[Position][]Assignment
	selected       *Position
	user           *Position
	requiresUser   bool
	warningText    string
	warning        string

	// batchDepth > 0 suppresses events until the outermost Batch ends.
	batchDepth int
	pending    []Event

	observers observers
	logger    Logger
}

// NewGrid creates a grid with the given dimensions. Invalid dimensions fall
// back to DefaultDimensions.
func NewGrid(d Dimensions) *Grid {
	if d.Validate() != nil {
		d = DefaultDimensions()
	}
	return &Grid{
		dims:           d,
		positionLabels: make(map[Position]string),
		layerLabels:    make(map[int]string),
		assignments:    make(map[Position][]Assignment),
		warningText:    DefaultUserPositionWarning,
		logger:         noopLogger{},
	}
}

// SetLogger sets the logger for grid diagnostics.
func (g *Grid) SetLogger(logger Logger) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if logger == nil {
		logger = noopLogger{}
	}
	g.logger = logger
}

// Subscribe registers h for grid events. The returned function removes
// the subscription; it is safe to call more than once.
func (g *Grid) Subscribe(h Handler) func() {
	return g.observers.subscribe(h)
}

// emit queues an event. Callers must hold g.mu.
func (g *Grid) emit(ev Event) {
	if g.batchDepth > 0 {
		return
	}
	g.pending = append(g.pending, ev)
}

// unlock releases the write lock and delivers queued events.
func (g *Grid) unlock() {
	events := g.pending
	g.pending = nil
	logger := g.logger
	g.mu.Unlock()
	g.observers.notify(logger, events)
}

// ─── Dimensions ────────────────────────────────────────────────────

// Dimensions returns the current grid extent.
func (g *Grid) Dimensions() Dimensions {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.dims
}

// Contains reports whether p lies inside the current grid.
func (g *Grid) Contains(p Position) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.dims.Contains(p)
}

// SetDimensions resizes the grid. It returns false and leaves the grid
// untouched if d is outside the supported envelope.
//
// On success custom labels are reset, and assignments, selection and user
// position outside the new bounds are removed.
func (g *Grid) SetDimensions(d Dimensions) bool {
	g.mu.Lock()
	defer g.unlock()

	if err := d.Validate(); err != nil {
		g.logger.Debug("rejected grid dimensions", "dimensions", d.String(), "error", err)
		return false
	}

	g.dims = d
	g.positionLabels = make(map[Position]string)
	g.layerLabels = make(map[int]string)

	for p := range g.assignments {
		if !d.Contains(p) {
			delete(g.assignments, p)
		}
	}
	if g.selected != nil && !d.Contains(*g.selected) {
		g.selected = nil
		g.emit(Event{Type: EventSelectionChanged})
	}
	if g.user != nil && !d.Contains(*g.user) {
		g.user = nil
		g.emit(Event{Type: EventUserPositionChanged})
		g.refreshWarning()
	}

	g.emit(Event{Type: EventGridUpdated})
	return true
}

// ─── Labels ────────────────────────────────────────────────────────

// DefaultPositionLabel returns "P" followed by the 1-based row-major index
// of p within its layer.
func DefaultPositionLabel(d Dimensions, p Position) string {
	return fmt.Sprintf("P%d", p.Y*d.Width+p.X+1)
}

// DefaultLayerLabel returns Top, Middle or Bottom for the first three
// layers and "Layer n" (1-based) beyond that.
func DefaultLayerLabel(z int) string {
	switch z {
	case 0:
		return "Top"
	case 1:
		return "Middle"
	case 2:
		return "Bottom"
	default:
		return fmt.Sprintf("Layer %d", z+1)
	}
}

// SetPositionLabel sets a custom label. An empty label restores the
// default. Out-of-bounds positions are ignored.
func (g *Grid) SetPositionLabel(p Position, label string) {
	g.mu.Lock()
	defer g.unlock()

	if !g.dims.Contains(p) {
		return
	}
	if label == "" {
		delete(g.positionLabels, p)
	} else {
		g.positionLabels[p] = label
	}
	g.emit(Event{Type: EventGridUpdated})
}

// PositionLabel returns the label at p, or "" when p is out of bounds.
func (g *Grid) PositionLabel(p Position) string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.positionLabel(p)
}

func (g *Grid) positionLabel(p Position) string {
	if !g.dims.Contains(p) {
		return ""
	}
	if l, ok := g.positionLabels[p]; ok {
		return l
	}
	return DefaultPositionLabel(g.dims, p)
}

// SetLayerLabel sets a custom label for layer z. An empty label restores
// the default. Layers outside the current depth are ignored.
func (g *Grid) SetLayerLabel(z int, label string) {
	g.mu.Lock()
	defer g.unlock()

	if z < 0 || z >= g.dims.Depth {
		return
	}
	if label == "" {
		delete(g.layerLabels, z)
	} else {
		g.layerLabels[z] = label
	}
	g.emit(Event{Type: EventLayerLabelChanged, Layer: z, Label: g.layerLabel(z)})
}

// LayerLabel returns the label of layer z, or "" when z is out of range.
func (g *Grid) LayerLabel(z int) string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.layerLabel(z)
}

func (g *Grid) layerLabel(z int) string {
	if z < 0 || z >= g.dims.Depth {
		return ""
	}
	if l, ok := g.layerLabels[z]; ok {
		return l
	}
	return DefaultLayerLabel(z)
}

// ─── User position ─────────────────────────────────────────────────

// SetUserPosition sets the effect reference point. It returns false if p is
// out of bounds.
func (g *Grid) SetUserPosition(p Position) bool {
	g.mu.Lock()
	defer g.unlock()

	if !g.dims.Contains(p) {
		return false
	}
	g.user = &p
	g.emit(positionEvent(EventUserPositionChanged, p))
	g.refreshWarning()
	return true
}

// ClearUserPosition removes the reference point.
func (g *Grid) ClearUserPosition() {
	g.mu.Lock()
	defer g.unlock()

	g.user = nil
	g.emit(Event{Type: EventUserPositionChanged})
	g.refreshWarning()
}

// UserPosition returns the reference point, if set.
func (g *Grid) UserPosition() (Position, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.user == nil {
		return Position{}, false
	}
	return *g.user, true
}

// SetRequiresUserPosition controls whether a missing user position raises
// a warning.
func (g *Grid) SetRequiresUserPosition(required bool) {
	g.mu.Lock()
	defer g.unlock()

	g.requiresUser = required
	g.refreshWarning()
}

// RequiresUserPosition reports the flag set by SetRequiresUserPosition.
func (g *Grid) RequiresUserPosition() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.requiresUser
}

// SetUserPositionWarningText overrides the warning text. Empty restores
// DefaultUserPositionWarning.
func (g *Grid) SetUserPositionWarningText(text string) {
	g.mu.Lock()
	defer g.unlock()

	if text == "" {
		text = DefaultUserPositionWarning
	}
	g.warningText = text
	g.refreshWarning()
}

// UserPositionWarning returns the active warning, or "" when there is none.
func (g *Grid) UserPositionWarning() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.warning
}

// refreshWarning recomputes the warning and emits an event when it changes.
// Callers must hold g.mu.
func (g *Grid) refreshWarning() {
	w := ""
	if g.requiresUser && g.user == nil {
		w = g.warningText
	}
	if w == g.warning {
		return
	}
	g.warning = w
	g.emit(Event{Type: EventUserPositionRequired, Warning: w})
}

// ─── Assignments ───────────────────────────────────────────────────

// AddAssignment appends a to the list at p. Duplicates are allowed. It
// returns false if p is out of bounds or a is malformed.
func (g *Grid) AddAssignment(p Position, a Assignment) bool {
	g.mu.Lock()
	defer g.unlock()

	if err := a.Validate(); err != nil {
		g.logger.Debug("rejected assignment", "position", p.String(), "error", err)
		return false
	}
	if !g.dims.Contains(p) {
		return false
	}
	g.assignments[p] = append(g.assignments[p], a)
	g.emit(positionEvent(EventAssignmentsChanged, p))
	return true
}

// RemoveAssignment removes the i-th assignment at p, keeping the order of
// the rest. It returns false if p or i is invalid.
func (g *Grid) RemoveAssignment(p Position, i int) bool {
	g.mu.Lock()
	defer g.unlock()

	list := g.assignments[p]
	if i < 0 || i >= len(list) {
		return false
	}
	list = append(list[:i:i], list[i+1:]...)
	if len(list) == 0 {
		delete(g.assignments, p)
	} else {
		g.assignments[p] = list
	}
	g.emit(positionEvent(EventAssignmentsChanged, p))
	return true
}

// ClearAssignments removes every assignment at p.
func (g *Grid) ClearAssignments(p Position) {
	g.mu.Lock()
	defer g.unlock()

	if len(g.assignments[p]) == 0 {
		return
	}
	delete(g.assignments, p)
	g.emit(positionEvent(EventAssignmentsChanged, p))
}

// ClearAllAssignments removes every assignment in the grid, emitting one
// event per affected position.
func (g *Grid) ClearAllAssignments() {
	g.mu.Lock()
	defer g.unlock()

	for _, p := range g.assignedPositions() {
		delete(g.assignments, p)
		g.emit(positionEvent(EventAssignmentsChanged, p))
	}
}

// UpdateAssignmentColor sets the colour of the i-th assignment at p. It
// returns false and changes nothing if p or i is invalid.
func (g *Grid) UpdateAssignmentColor(p Position, i int, c Color) bool {
	g.mu.Lock()
	defer g.unlock()

	list := g.assignments[p]
	if i < 0 || i >= len(list) {
		return false
	}
	list[i].Color = c
	g.emit(positionEvent(EventAssignmentsChanged, p))
	return true
}

// ColorWrite is one colour for the Index-th assignment at Position.
type ColorWrite struct {
	Position Position
	Index    int
	Color    Color
}

// ApplyColors writes a whole frame under one lock and returns how many
// writes landed. Invalid entries are skipped. A frame that changed
// anything emits a single EventGridUpdated.
func (g *Grid) ApplyColors(writes []ColorWrite) int {
	g.mu.Lock()
	defer g.unlock()

	n := 0
	for _, w := range writes {
		list := g.assignments[w.Position]
		if w.Index < 0 || w.Index >= len(list) {
			continue
		}
		list[w.Index].Color = w.Color
		n++
	}
	if n > 0 {
		g.emit(Event{Type: EventGridUpdated})
	}
	return n
}

// HasAssignments reports whether p carries at least one assignment.
func (g *Grid) HasAssignments(p Position) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.assignments[p]) > 0
}

// Assignments returns a copy of the assignment list at p. Out-of-bounds and
// empty positions return nil.
func (g *Grid) Assignments(p Position) []Assignment {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return cloneAssignments(g.assignments[p])
}

// AssignedPositions returns every position with assignments, ordered by
// layer, row and column.
func (g *Grid) AssignedPositions() []Position {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.assignedPositions()
}

func (g *Grid) assignedPositions() []Position {
	out := make([]Position, 0, len(g.assignments))
	for p, list := range g.assignments {
		if len(list) > 0 {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

func cloneAssignments(list []Assignment) []Assignment {
	if len(list) == 0 {
		return nil
	}
	out := make([]Assignment, len(list))
	copy(out, list)
	return out
}

// ─── Selection ─────────────────────────────────────────────────────

// Select selects p. Selecting the already selected position clears the
// selection. Out-of-bounds positions are ignored.
func (g *Grid) Select(p Position) {
	g.mu.Lock()
	defer g.unlock()

	if !g.dims.Contains(p) {
		return
	}
	if g.selected != nil && *g.selected == p {
		g.selected = nil
		g.emit(Event{Type: EventSelectionChanged})
		return
	}
	g.selected = &p
	g.emit(positionEvent(EventSelectionChanged, p))
	g.emit(positionEvent(EventPositionSelected, p))
}

// ClearSelection clears the selection if one exists.
func (g *Grid) ClearSelection() {
	g.mu.Lock()
	defer g.unlock()

	if g.selected == nil {
		return
	}
	g.selected = nil
	g.emit(Event{Type: EventSelectionChanged})
}

// SelectedPosition returns the selected position, if any.
func (g *Grid) SelectedPosition() (Position, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.selected == nil {
		return Position{}, false
	}
	return *g.selected, true
}
