package cart

import (
	"sync"
	"time"

	"decorrental/util/apperr"
)

var ErrCheckoutInProgress = apperr.New(apperr.Validation, "checkout already in progress")

type session struct {
	mu      sync.Mutex
	cart    *Cart
	busy    bool
	touched time.Time
}

// Store keeps one cart per session id.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*session
	now      func() time.Time
}

func NewStore() *Store { return &Store{sessions: map[string]*session{}, now: time.Now} }

func (s *Store) session(id string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		sess = &session{cart: New()}
		s.sessions[id] = sess
	}
	sess.touched = s.now()
	return sess
}

// With runs fn with exclusive access to the session's cart.
func (s *Store) With(id string, fn func(*Cart) error) error {
	sess := s.session(id)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return fn(sess.cart)
}

// View returns a copy of the session's cart.
func (s *Store) View(id string) *Cart {
	var out *Cart
	_ = s.With(id, func(c *Cart) error {
		out = c.Clone()
		return nil
	})
	return out
}

// Checkout is like With but refuses to start while another checkout of the
// same session is running. Other cart operations wait for it to finish.
func (s *Store) Checkout(id string, fn func(*Cart) error) error {
	sess := s.session(id)

	s.mu.Lock()
	if sess.busy {
		s.mu.Unlock()
		return ErrCheckoutInProgress
	}
	sess.busy = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		sess.busy = false
		s.mu.Unlock()
	}()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return fn(sess.cart)
}

// Sweep drops sessions untouched since cutoff, skipping any mid-checkout.
func (s *Store) Sweep(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.sessions {
		if sess.busy || !sess.touched.Before(cutoff) {
			continue
		}
		delete(s.sessions, id)
		n++
	}
	return n
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
