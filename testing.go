package nsdux

import (
	"strings"
	"sync"
)

// Recorder is a Store for tests. It reduces like a MemStore bound to the
// root and records every dispatched Message.
//
//	rec, err := nsdux.NewRecorder(ns)
//	ns.Invoke("setTarget", "target", "hn")
//	rec.Types()              // ["greeter: setTarget"]
//	rec.StateAt("target")    // "hn"
type Recorder struct {
	*MemStore

	mu       sync.Mutex
	messages []Message
}

// NewRecorder creates a Recorder and makes it the store of root.
func NewRecorder(root *Namespace, opts ...StoreOption) (*Recorder, error) {
	reg, err := NewRegistry(root)
	if err != nil {
		return nil, err
	}
	rec := &Recorder{MemStore: NewMemStore(root.Reduce, opts...)}
	rec.registry = reg
	root.store = rec
	return rec, nil
}

// Dispatch records msg and reduces it.
func (r *Recorder) Dispatch(msg Message) {
	r.mu.Lock()
	r.messages = append(r.messages, msg)
	r.mu.Unlock()
	r.MemStore.Dispatch(msg)
}

// Messages returns the dispatched Messages in order.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Types returns the types of the dispatched Messages in order.
func (r *Recorder) Types() []string {
	msgs := r.Messages()
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Type
	}
	return out
}

// Last returns the most recently dispatched Message.
func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return Message{}, false
	}
	return r.messages[len(r.messages)-1], true
}

// Reset forgets the recorded Messages. The state is kept.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.messages = nil
	r.mu.Unlock()
}

// StateAt follows a path of keys from the root state. A single argument may
// also be a dot separated path ("user.profile.name").
func (r *Recorder) StateAt(path ...string) any {
	if len(path) == 1 && strings.Contains(path[0], ".") {
		path = strings.Split(path[0], ".")
	}
	state := r.GetState()
	for _, key := range path {
		state = Get(state, key)
	}
	return state
}

// ReduceAll folds msgs over c starting from a nil state, without any store.
func ReduceAll(c Component, msgs ...Message) any {
	state := c.Reduce(nil, Message{Type: InitType})
	for _, msg := range msgs {
		state = c.Reduce(state, msg)
	}
	return state
}
