package submit

import (
	"errors"
	"sync"
)

// ErrInFlight is returned when a submission for the same flow is already
// being processed.
var ErrInFlight = errors.New("submit: a submission for this flow is already in progress")

// Guard admits one submission per flow id at a time.
type Guard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

// NewGuard returns an empty guard.
func NewGuard() *Guard {
	return &Guard{active: make(map[string]struct{})}
}

// Acquire claims id. The returned release must be called when done.
func (g *Guard) Acquire(id string) (release func(), err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.active[id]; busy {
		return nil, ErrInFlight
	}
	g.active[id] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.active, id)
			g.mu.Unlock()
		})
	}, nil
}

// InFlight reports how many flows are being submitted.
func (g *Guard) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.active)
}
