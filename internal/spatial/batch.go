package spatial

import "sync"

// Batch suppresses grid events while a bulk update runs. Ending the
// outermost batch emits a single EventGridUpdated.
//
// Suppression covers every caller, not only the batch owner, so a batch is
// for code that owns the grid for its duration (loading, scripted edits).
// Concurrent writers such as the effect engine use ApplyColors instead.
//
//	b := grid.BeginUpdate()
//	defer b.End()
//	grid.SetDimensions(d)
//	grid.AddAssignment(p, a)
type Batch struct {
	g    *Grid
	once sync.Once
}

// BeginUpdate opens a batch. Batches nest; only the outermost End emits.
func (g *Grid) BeginUpdate() *Batch {
	g.mu.Lock()
	g.batchDepth++
	g.mu.Unlock()
	return &Batch{g: g}
}

// End closes the batch. Calling End more than once has no further effect.
func (b *Batch) End() {
	b.once.Do(func() {
		g := b.g
		g.mu.Lock()
		defer g.unlock()

		if g.batchDepth == 0 {
			return
		}
		g.batchDepth--
		if g.batchDepth == 0 {
			g.emit(Event{Type: EventGridUpdated})
		}
	})
}
