package testutil

import (
	"context"
	"sync"

	realtime "chattr.app/backend/internal/modules/realtime/service"
)

// Recorder is a Broadcaster that keeps every event for assertions.
type Recorder struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (r *Recorder) Broadcast(_ context.Context, event realtime.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *Recorder) Events() []realtime.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]realtime.Event(nil), r.events...)
}

func (r *Recorder) Kinds() []realtime.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]realtime.EventKind, 0, len(r.events))
	for _, e := range r.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

// Last returns the most recent event of kind, or false when none was sent.
func (r *Recorder) Last(kind realtime.EventKind) (realtime.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Kind == kind {
			return r.events[i], true
		}
	}
	return realtime.Event{}, false
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
