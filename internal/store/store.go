package store

import (
	"sort"
	"sync"
)

// Listener is called after every dispatch that changed the tree, in version
// order. Listeners run while the store holds its emit lock, so they must not
// call Dispatch synchronously; hand the work off to a goroutine or channel.
type Listener func(prev, next State, action Action)

// DispatchObserver receives one call per applied action.
type DispatchObserver interface {
	ObserveDispatch(action string, changed bool)
}

// Option customizes a Store.
type Option func(*Store)

// WithInitialState seeds the store, e.g. with a state restored in tests.
func WithInitialState(state State) Option {
	return func(s *Store) {
		s.state = state.Clone()
	}
}

// WithObserver reports every applied action to observer.
func WithObserver(observer DispatchObserver) Option {
	return func(s *Store) {
		s.observer = observer
	}
}

// Store is the single write point for session state. Every change goes
// through Dispatch, which serializes reducer application and so gives a total
// order of versions.
type Store struct {
	mu     sync.Mutex
	emitMu sync.Mutex
	state  State

	listenersMu sync.RWMutex
	listeners   map[uint64]Listener
	nextID      uint64

	observer DispatchObserver
}

// New builds an empty guest store.
func New(opts ...Option) *Store {
	s := &Store{
		state:     Empty(),
		listeners: map[uint64]Listener{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a private copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Version returns the current state version.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Version
}

// Session returns the current session value; see State.Session.
func (s *Store) Session() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Session
}

// Dispatch applies actions in order as one atomic step and returns the
// resulting snapshot.
func (s *Store) Dispatch(actions ...Action) State {
	next, _ := s.DispatchIf(nil, actions...)
	return next
}

// DispatchIf applies actions only when guard, evaluated under the store lock,
// returns true. A nil guard always passes. It reports whether the actions were
// applied. Callers use it to drop results that arrive after their session was
// torn down.
func (s *Store) DispatchIf(guard func(State) bool, actions ...Action) (State, bool) {
	s.mu.Lock()
	if guard != nil && !guard(s.state) {
		snapshot := s.state.Clone()
		s.mu.Unlock()
		return snapshot, false
	}

	type applied struct {
		prev, next State
		action     Action
	}
	var changes []applied
	current := s.state
	for _, action := range actions {
		next, changed := reduce(current, action)
		s.observe(action, changed)
		if !changed {
			continue
		}
		next.Version = current.Version + 1
		changes = append(changes, applied{prev: current, next: next, action: action})
		current = next
	}
	s.state = current
	snapshot := current.Clone()

	// Hand over to the emit lock before releasing mu so listeners observe
	// versions in order.
	s.emitMu.Lock()
	s.mu.Unlock()
	defer s.emitMu.Unlock()

	if len(changes) == 0 {
		return snapshot, true
	}
	listeners := s.snapshotListeners()
	for _, change := range changes {
		for _, listener := range listeners {
			listener(change.prev.Clone(), change.next.Clone(), change.action)
		}
	}
	return snapshot, true
}

// Subscribe registers listener and returns a function that removes it. The
// returned function is safe to call more than once.
func (s *Store) Subscribe(listener Listener) func() {
	if listener == nil {
		return func() {}
	}
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	s.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			delete(s.listeners, id)
			s.listenersMu.Unlock()
		})
	}
}

func (s *Store) snapshotListeners() []Listener {
	s.listenersMu.RLock()
	defer s.listenersMu.RUnlock()
	ids := make([]uint64, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]Listener, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.listeners[id])
	}
	return out
}

func (s *Store) observe(action Action, changed bool) {
	if s.observer == nil {
		return
	}
	s.observer.ObserveDispatch(ActionName(action), changed)
}
