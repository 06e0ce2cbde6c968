// Package eventtest provides an in-memory event.Publisher for tests.
package eventtest

import (
	"context"
	"sync"
)

// Published is one captured event.
type Published struct {
	Entity  string
	Action  string
	ID      int64
	Payload any
}

// Recorder captures published events.
type Recorder struct {
	mu     sync.Mutex
	events []Published
}

// Publish implements event.Publisher.
func (r *Recorder) Publish(_ context.Context, entity, action string, id int64, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Published{Entity: entity, Action: action, ID: id, Payload: payload})
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Published {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Published(nil), r.events...)
}

// Types lists captured events as "entity.action".
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Entity+"."+e.Action)
	}
	return out
}
