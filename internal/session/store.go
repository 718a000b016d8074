package session

import (
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"
)

// Publisher receives every state a session moves to.
type Publisher interface {
	Publish(sessionID string, v View)
}

type entry struct {
	mu    sync.Mutex
	state State
}

// Store keeps the in-memory state of every live session. Sessions are
// bounded by capacity (least recently used are dropped first) and expire
// after ttl without activity. Nothing is persisted.
type Store struct {
	mu       sync.Mutex
	sessions *expirable.LRU[string, *entry]
	capacity int
	ttl      time.Duration
	pub      Publisher
}

// NewStore creates a store. pub may be nil.
func NewStore(capacity int, ttl time.Duration, pub Publisher) *Store {
	onEvict := func(id string, _ *entry) {
		log.Debug().Str("session_id", id).Msg("session evicted")
	}
	return &Store{
		sessions: expirable.NewLRU[string, *entry](capacity, onEvict, ttl),
		capacity: capacity,
		ttl:      ttl,
		pub:      pub,
	}
}

// SetPublisher replaces the state subscriber.
func (s *Store) SetPublisher(pub Publisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pub = pub
}

// touch returns the session entry, creating it if needed, and renews its
// expiry.
func (s *Store) touch(id string) (*entry, Publisher) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions.Get(id)
	if !ok {
		e = &entry{state: New()}
	}
	s.sessions.Add(id, e)
	return e, s.pub
}

// Get returns the current state of a session, creating a fresh one for an
// unknown id.
func (s *Store) Get(id string) State {
	e, _ := s.touch(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Watch hands the current view of a session to attach while holding the
// session lock. Updates publish under the same lock, so whatever attach
// subscribes receives every later view after this one.
func (s *Store) Watch(id string, attach func(View)) {
	e, _ := s.touch(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	attach(e.state.View())
}

// Update applies a reducer to the session. On error the state is left as it
// was and nothing is published.
func (s *Store) Update(id string, reduce func(State) (State, error)) (State, error) {
	e, pub := s.touch(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	next, err := reduce(e.state)
	if err != nil {
		return e.state, err
	}
	e.state = next
	if pub != nil {
		pub.Publish(id, next.View())
	}
	return next, nil
}

// Apply runs a reducer that cannot fail, such as a network completion.
func (s *Store) Apply(id string, reduce func(State) State) State {
	next, _ := s.Update(id, func(st State) (State, error) {
		return reduce(st), nil
	})
	return next
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.Len()
}

// Health reports store occupancy.
func (s *Store) Health() map[string]string {
	n := s.Len()
	stats := map[string]string{
		"status":           "up",
		"sessions":         strconv.Itoa(n),
		"session_capacity": strconv.Itoa(s.capacity),
		"session_ttl":      s.ttl.String(),
	}
	if n > s.capacity*8/10 {
		stats["message"] = "The session store is close to capacity; older sessions are being dropped."
	}
	return stats
}
