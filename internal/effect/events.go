package effect

import "sync"

// EventType names an engine notification. The values double as WebSocket
// channel names.
type EventType string

// Engine event types.
const (
	EventStarted       EventType = "effect.started"
	EventStopped       EventType = "effect.stopped"
	EventColorsUpdated EventType = "effect.colors_updated"
)

// Event is an engine notification. Effect is the kind that started,
// stopped or produced the colours. Elapsed is set on EventColorsUpdated.
type Event struct {
	Type    EventType `json:"type"`
	Effect  Kind      `json:"effect"`
	Elapsed float32   `json:"elapsed,omitempty"`
}

// Handler receives engine events.
type Handler func(Event)

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

func (o *observers) notify(logger Logger, ev Event) {
	o.mu.Lock()
	hs := make([]Handler, 0, len(o.order))
	for _, id := range o.order {
		hs = append(hs, o.handlers[id])
	}
	o.mu.Unlock()

	for _, h := range hs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("effect subscriber panicked", "event", string(ev.Type), "panic", r)
				}
			}()
			h(ev)
		}()
	}
}
