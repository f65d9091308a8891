// Package annotations provides a low-overhead event trace of the
// minimizer and evaluator pipelines, for use under -verbose.
package annotations

import "time"

// Event name constants, using hierarchical "<stage>/<event>" naming.
const (
	MinimizeBegin    = "minimize/begin"
	AtomRemoved      = "minimize/atom.removed"
	MinimizeComplete = "minimize/complete"

	PlanBuilt    = "plan/built"
	PlanCacheHit = "plan/cache.hit"

	QueryBegin    = "query/begin"
	QueryComplete = "query/complete"
)

// Event represents one traced occurrence during minimization or
// evaluation.
type Event struct {
	Name    string
	Latency time.Duration
	Data    map[string]interface{}
}

// Handler processes annotation events as they occur.
type Handler func(event Event)

// Collector accumulates events and forwards them to an optional
// Handler.
type Collector struct {
	enabled bool
	handler Handler
	events  []Event
}

// NewCollector builds a Collector. A nil handler disables collection
// entirely (Add becomes a no-op).
func NewCollector(handler Handler) *Collector {
	return &Collector{enabled: handler != nil, handler: handler, events: make([]Event, 0, 16)}
}

// Add records event and, if a handler is set, forwards it immediately.
func (c *Collector) Add(event Event) {
	if c == nil || !c.enabled {
		return
	}
	c.events = append(c.events, event)
	if c.handler != nil {
		c.handler(event)
	}
}

// AddTiming records an event whose Latency is measured from start.
func (c *Collector) AddTiming(name string, start time.Time, data map[string]interface{}) {
	if c == nil || !c.enabled {
		return
	}
	c.Add(Event{Name: name, Latency: time.Since(start), Data: data})
}

// Events returns a copy of every event recorded so far.
func (c *Collector) Events() []Event {
	if c == nil {
		return nil
	}
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}
