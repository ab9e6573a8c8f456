package ui

import (
	"sync"

	"github.com/unkn0wn-root/esterm/internal/wire"
)

const traceCapacity = 64

// traceLog is the request trace behind the console footer. Callbacks
// arrive on command goroutines, so access is mutex guarded; the render
// side only ever reads a copied tail.
type traceLog struct {
	mu      sync.Mutex
	events  []wire.Event
	cap     int
	started int64
}

func newTraceLog(capacity int) *traceLog {
	if capacity < 1 {
		capacity = 1
	}
	return &traceLog{cap: capacity}
}

func (t *traceLog) RequestStarted(method, url string) {
	t.mu.Lock()
	t.started++
	t.mu.Unlock()
}

func (t *traceLog) RequestFinished(ev wire.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, ev)
	if len(t.events) > t.cap {
		t.events = t.events[len(t.events)-t.cap:]
	}
}

// Tail returns up to n most recent events, oldest first.
func (t *traceLog) Tail(n int) []wire.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n <= 0 || len(t.events) == 0 {
		return nil
	}
	if n > len(t.events) {
		n = len(t.events)
	}
	out := make([]wire.Event, n)
	copy(out, t.events[len(t.events)-n:])
	return out
}

func (t *traceLog) Count() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.started
}

// Clear drops recorded events and resets the call counter.
func (t *traceLog) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = t.events[:0]
	t.started = 0
}
