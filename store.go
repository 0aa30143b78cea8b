package nsdux

import (
	"log/slog"
	"slices"
	"sync"
	"time"
)

// Store holds the global state. Components only need Dispatch and GetState;
// how the store reduces is its own business.
type Store interface {
	Dispatch(msg Message)
	GetState() any
}

// MemStore is an in-memory Store.
//
// Dispatches are serialized. GetState never waits for a running reduction;
// it returns the state as of the last completed dispatch. Reducers must not
// dispatch.
type MemStore struct {
	dispatchMu sync.Mutex

	mu        sync.RWMutex
	reducer   Reducer
	state     any
	listeners map[int]func()
	nextID    int

	logger *slog.Logger
	root   *Namespace
}

// StoreOption configures a MemStore.
type StoreOption func(*storeOptions)

type storeOptions struct {
	logger  *slog.Logger
	initial any
}

// WithLogger sets the logger dispatches are reported to. Defaults to
// slog.Default().
func WithLogger(logger *slog.Logger) StoreOption {
	return func(o *storeOptions) {
		o.logger = logger
	}
}

// WithInitialState seeds the store. The reducer still runs once with
// InitType, so missing defaults are filled in by components that choose to.
func WithInitialState(state any) StoreOption {
	return func(o *storeOptions) {
		o.initial = state
	}
}

// NewMemStore creates a store reducing with reducer and dispatches InitType
// to compute the initial state.
func NewMemStore(reducer Reducer, opts ...StoreOption) *MemStore {
	o := &storeOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	s := &MemStore{
		reducer:   reducer,
		state:     o.initial,
		listeners: make(map[int]func()),
		logger:    o.logger,
	}
	s.Dispatch(Message{Type: InitType})
	return s
}

// Bind creates a MemStore reducing with root.Reduce and makes it the store
// of the whole tree below root. It fails if two Actions share a name, since
// their Messages could not be told apart.
func Bind(root *Namespace, opts ...StoreOption) (*MemStore, error) {
	if _, err := NewRegistry(root); err != nil {
		return nil, err
	}
	s := NewMemStore(root.Reduce, opts...)
	s.root = root
	root.store = s
	return s, nil
}

// Registry indexes the Actions currently mounted below the bound root, so
// components mounted or renamed after Bind are included. It fails with
// ErrNameCollision if the tree now holds two Actions with one name, and
// returns nil for a store not created by Bind.
func (s *MemStore) Registry() (*Registry, error) {
	if s.root == nil {
		return nil, nil
	}
	return NewRegistry(s.root)
}

// GetState returns the current state.
func (s *MemStore) GetState() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispatch reduces msg into a new state and notifies subscribers. A panic in
// a reducer propagates to the caller and leaves the state unchanged.
func (s *MemStore) Dispatch(msg Message) {
	start := time.Now()
	s.reduce(msg)
	s.logger.Debug("nsdux dispatch",
		slog.String("type", msg.Type),
		slog.Int("payload_fields", len(msg.Payload)),
		slog.Duration("duration", time.Since(start)),
	)
	s.notify()
}

func (s *MemStore) reduce(msg Message) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.RLock()
	reducer, current := s.reducer, s.state
	s.mu.RUnlock()

	next := reducer(current, msg)

	s.mu.Lock()
	s.state = next
	s.mu.Unlock()
}

// ReplaceReducer swaps the reducer and dispatches ReplaceType so the new
// tree can fill in its defaults.
func (s *MemStore) ReplaceReducer(reducer Reducer) {
	s.mu.Lock()
	s.reducer = reducer
	s.mu.Unlock()
	s.Dispatch(Message{Type: ReplaceType})
}

// Replace sets the state directly, bypassing the reducer, and notifies
// subscribers. It is meant for restoring snapshots.
func (s *MemStore) Replace(state any) {
	s.dispatchMu.Lock()
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	s.dispatchMu.Unlock()
	s.logger.Debug("nsdux state replaced")
	s.notify()
}

// Subscribe registers fn to run after every dispatch. The returned function
// removes it.
func (s *MemStore) Subscribe(fn func()) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *MemStore) notify() {
	s.mu.RLock()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	fns := make([]func(), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}

// Snapshot encodes the current state with enc. Collections are converted to
// maps first.
func (s *MemStore) Snapshot(enc *Encoder, sensitive bool) (string, error) {
	encoded, err := enc.Encode(Plain(s.GetState()), sensitive)
	return encoded, wrapEncodingError(err)
}

// Restore decodes a snapshot produced by Snapshot and replaces the state
// with it. The restored state is plain: Collections come back as
// map[string]any and integers as int.
func (s *MemStore) Restore(enc *Encoder, encoded string, sensitive bool) error {
	state, err := enc.Decode(encoded, sensitive)
	if err != nil {
		return wrapEncodingError(err)
	}
	s.Replace(state)
	return nil
}
