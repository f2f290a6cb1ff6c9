package notify

import (
	"context"
	"sync"
)

// Recorder keeps every intent in memory. Tests use it to assert what the
// core asked to be sent.
type Recorder struct {
	mu      sync.Mutex
	intents []Intent
}

func (r *Recorder) Emit(_ context.Context, intents ...Intent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intents = append(r.intents, intents...)
}

func (r *Recorder) Intents() []Intent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Intent, len(r.intents))
	copy(out, r.intents)
	return out
}

// Of returns the recorded intents of one kind.
func (r *Recorder) Of(kind Kind) []Intent {
	var out []Intent
	for _, in := range r.Intents() {
		if in.Kind == kind {
			out = append(out, in)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intents = nil
}
