package session

import (
	"context"
	"sync"
	"time"
)

// DefaultLifetime is how long a session started by a form submission counts
// as active, and the expiry assumed when whoami reports none.
const DefaultLifetime = 60 * time.Minute

// Timer is the part of *time.Timer the store needs.
type Timer interface {
	Stop() bool
}

// Clock abstracts time so expiry can be driven by tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// State is a snapshot of the store.
type State struct {
	Active    bool
	ExpiresAt time.Time
}

// Recorder receives session transitions. Store and Tracker implement it.
type Recorder interface {
	RecordActive(ctx context.Context, expiresAt time.Time)
	RecordInactive(ctx context.Context)
}

// StoreOption customises a Store.
type StoreOption func(*Store)

// WithClock replaces the wall clock.
func WithClock(clock Clock) StoreOption {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// Store owns the signed-in state of a single user agent and the timer that
// flips it back to signed-out at expiry. Every SetActive supersedes the
// previous one: its pending timer is stopped, and a timer that already fired
// for an older generation is ignored.
type Store struct {
	mu         sync.Mutex
	clock      Clock
	state      State
	timer      Timer
	generation uint64
	closed     bool
	listeners  map[uint64]func(State)
	nextID     uint64
}

var _ Recorder = (*Store)(nil)

// NewStore returns an inactive store.
func NewStore(options ...StoreOption) *Store {
	s := &Store{
		clock:     SystemClock,
		listeners: make(map[uint64]func(State)),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// SetActive marks the session active until expiresAt. A time that is not in
// the future clears the session instead.
func (s *Store) SetActive(expiresAt time.Time) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	now := s.clock.Now()
	if !expiresAt.After(now) {
		changed := s.clearLocked()
		s.mu.Unlock()
		s.notify(changed)
		return
	}

	s.stopTimerLocked()
	s.generation++
	gen := s.generation
	s.state = State{Active: true, ExpiresAt: expiresAt}
	s.timer = s.clock.AfterFunc(expiresAt.Sub(now), func() {
		s.expire(gen)
	})
	snapshot := s.state
	s.mu.Unlock()

	s.emit(snapshot)
}

// Activate marks the session active for lifetime from now.
func (s *Store) Activate(lifetime time.Duration) {
	s.SetActive(s.clock.Now().Add(lifetime))
}

// Clear marks the session inactive and cancels the pending expiry.
func (s *Store) Clear() {
	s.mu.Lock()
	changed := s.clearLocked()
	s.mu.Unlock()
	s.notify(changed)
}

// Active reports whether the session is active.
func (s *Store) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Active
}

// ExpiresAt returns the expiry of the active session, or the zero time.
func (s *Store) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ExpiresAt
}

// State returns a snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// OnChange registers fn for every state transition. The returned function
// unregisters it. fn runs without the store lock held.
func (s *Store) OnChange(fn func(State)) func() {
	if fn == nil {
		return func() {}
	}
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

// Close stops the timer and ignores further updates.
func (s *Store) Close() {
	s.mu.Lock()
	s.stopTimerLocked()
	s.generation++
	s.closed = true
	s.listeners = map[uint64]func(State){}
	s.mu.Unlock()
}

// RecordActive implements Recorder.
func (s *Store) RecordActive(_ context.Context, expiresAt time.Time) {
	s.SetActive(expiresAt)
}

// RecordInactive implements Recorder.
func (s *Store) RecordInactive(context.Context) {
	s.Clear()
}

func (s *Store) expire(gen uint64) {
	s.mu.Lock()
	if gen != s.generation || !s.state.Active {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.state = State{}
	s.mu.Unlock()

	s.emit(State{})
}

func (s *Store) clearLocked() bool {
	s.stopTimerLocked()
	s.generation++
	if !s.state.Active {
		return false
	}
	s.state = State{}
	return true
}

func (s *Store) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Store) notify(changed bool) {
	if changed {
		s.emit(State{})
	}
}

func (s *Store) emit(state State) {
	s.mu.Lock()
	listeners := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}
