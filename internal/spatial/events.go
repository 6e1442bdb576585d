package spatial

import (
	"log/slog"
	"sync"
)

// EventType names a grid notification. The values double as WebSocket
// channel names.
type EventType string

// Grid event types.
const (
	EventGridUpdated          EventType = "grid.updated"
	EventAssignmentsChanged   EventType = "grid.assignments_changed"
	EventSelectionChanged     EventType = "grid.selection_changed"
	EventPositionSelected     EventType = "grid.position_selected"
	EventUserPositionChanged  EventType = "grid.user_position_changed"
	EventUserPositionRequired EventType = "grid.user_position_required"
	EventLayerLabelChanged    EventType = "grid.layer_label_changed"
)

// Event is a grid change notification.
//
// Position is nil on EventUserPositionChanged when the user position was
// cleared and on EventSelectionChanged when the selection was cleared.
// Layer and Label are set on EventLayerLabelChanged; Warning on
// EventUserPositionRequired (empty once the requirement is satisfied).
type Event struct {
	Type     EventType `json:"type"`
	Position *Position `json:"position,omitempty"`
	Layer    int       `json:"layer,omitempty"`
	Label    string    `json:"label,omitempty"`
	Warning  string    `json:"warning,omitempty"`
}

func positionEvent(t EventType, p Position) Event {
	return Event{Type: t, Position: &p}
}

// Handler receives grid events.
type Handler func(Event)

// observers is an ordered subscriber list.
type observers struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]Handler
	order    []int
}

func (o *observers) subscribe(h Handler) func() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.handlers == nil {
		o.handlers = make(map[int]Handler)
	}
	id := o.nextID
	o.nextID++
	o.handlers[id] = h
	o.order = append(o.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			delete(o.handlers, id)
			for i, v := range o.order {
				if v == id {
					o.order = append(o.order[:i], o.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (o *observers) snapshot() []Handler {
	o.mu.Lock()
	defer o.mu.Unlock()

	hs := make([]Handler, 0, len(o.order))
	for _, id := range o.order {
		hs = append(hs, o.handlers[id])
	}
	return hs
}

// notify delivers events in order to every current subscriber. A panicking
// subscriber is logged and skipped so it cannot break the grid.
func (o *observers) notify(logger Logger, events []Event) {
	if len(events) == 0 {
		return
	}
	hs := o.snapshot()
	for _, ev := range events {
		for _, h := range hs {
			deliver(logger, h, ev)
		}
	}
}

func deliver(logger Logger, h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("grid subscriber panicked", "event", string(ev.Type), "panic", r)
		}
	}()
	h(ev)
}

// Logger is the logging interface used by the grid.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

var _ Logger = (*slog.Logger)(nil)
