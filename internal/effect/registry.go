package effect

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Layer is one named effect in a Registry.
type Layer struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Kind     Kind     `json:"kind"`
	Settings Settings `json:"settings"`
	Active   bool     `json:"active"`
}

// Registry holds effect layers in registration order.
//
// Only one layer drives the grid at a time: the most recently registered
// active layer. Layers are never composited.
type Registry struct {
	mu     sync.RWMutex
	layers []Layer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends l. An empty ID is replaced with a generated one, which
// is returned.
func (r *Registry) Register(l Layer) (string, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Name == "" {
		l.Name = l.Kind.String()
	}
	if _, ok := kindNames[l.Kind]; !ok {
		return "", fmt.Errorf("%w: %d", ErrUnknownKind, int(l.Kind))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(l.ID) >= 0 {
		return "", fmt.Errorf("%w: %s", ErrLayerExists, l.ID)
	}
	r.layers = append(r.layers, l)
	return l.ID, nil
}

// Remove deletes the layer with the given ID.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrLayerNotFound, id)
	}
	r.layers = append(r.layers[:i], r.layers[i+1:]...)
	return nil
}

// SetActive toggles a layer.
func (r *Registry) SetActive(id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrLayerNotFound, id)
	}
	r.layers[i].Active = active
	return nil
}

// Layers returns a copy of every layer in registration order.
func (r *Registry) Layers() []Layer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Layer, len(r.layers))
	copy(out, r.layers)
	return out
}

// Resolve returns the layer that drives the grid: the last registered
// layer that is active. ok is false when no layer is active.
func (r *Registry) Resolve() (Layer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.layers) - 1; i >= 0; i-- {
		if r.layers[i].Active && r.layers[i].Kind != KindNone {
			return r.layers[i], true
		}
	}
	return Layer{}, false
}

func (r *Registry) indexOf(id string) int {
	for i, l := range r.layers {
		if l.ID == id {
			return i
		}
	}
	return -1
}
