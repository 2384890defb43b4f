package engagement

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Coordinator applies a guessed state for a key, runs the remote operation and
// then publishes either the authoritative result or the prior state. Each key
// carries an epoch; a response is applied only if no newer mutation for the
// same key started while it was in flight. Once nothing is in flight the
// visible state is the newest authoritative one, never a leftover guess.
type Coordinator[K comparable, S any] struct {
	mu      sync.Mutex
	entries map[K]*slot[S]
	log     zerolog.Logger
}

type slot[S any] struct {
	state     S
	known     bool
	confirmed bool
	epoch     uint64
	inflight  int
	watchers  observers[S]

	// base is the newest authoritative state and the epoch it answers.
	base      S
	baseKnown bool
	baseEpoch uint64
}

func NewCoordinator[K comparable, S any](log zerolog.Logger) *Coordinator[K, S] {
	return &Coordinator[K, S]{
		entries: make(map[K]*slot[S]),
		log:     log,
	}
}

func (c *Coordinator[K, S]) slot(key K) *slot[S] {
	s, ok := c.entries[key]
	if !ok {
		s = &slot[S]{}
		c.entries[key] = s
	}
	return s
}

func (c *Coordinator[K, S]) set(s *slot[S], state S) {
	s.state = state
	s.known = true
	s.watchers.publish(state)
}

func (c *Coordinator[K, S]) confirm(s *slot[S], state S, epoch uint64) {
	c.set(s, state)
	s.confirmed = true
	s.base, s.baseKnown, s.baseEpoch = state, true, epoch
}

// settle replaces an unconfirmed guess with the base state once the last
// mutation for the slot has returned.
func (c *Coordinator[K, S]) settle(s *slot[S]) {
	if s.inflight > 0 || s.confirmed {
		return
	}
	c.set(s, s.base)
	s.known = s.baseKnown
	s.confirmed = true
}

// Mutate publishes guess(current) immediately, then calls op. On success the
// returned state replaces the guess; on failure the state from before this
// call is restored and op's error is returned. A superseded call returns the
// currently visible state and a nil error. If the state from before this call
// was itself an unconfirmed guess, it is replaced by the newest authoritative
// state once the last overlapping call returns.
func (c *Coordinator[K, S]) Mutate(ctx context.Context, key K, guess func(S) S, op func(context.Context) (S, error)) (S, error) {
	c.mu.Lock()
	s := c.slot(key)
	s.epoch++
	epoch := s.epoch
	prior, priorKnown := s.state, s.known
	s.inflight++
	c.set(s, guess(prior))
	s.confirmed = false
	c.mu.Unlock()

	result, err := op(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	s.inflight--

	if err == nil && epoch > s.baseEpoch {
		s.base, s.baseKnown, s.baseEpoch = result, true, epoch
	}

	if s.epoch != epoch {
		c.log.Debug().
			Interface("key", key).
			Uint64("epoch", epoch).
			Uint64("current_epoch", s.epoch).
			Bool("failed", err != nil).
			Msg("discarding stale response")
		c.settle(s)
		return s.state, nil
	}

	if err != nil {
		if s.inflight > 0 {
			c.set(s, prior)
			s.known = priorKnown
		} else {
			c.settle(s)
		}
		return s.state, err
	}

	c.confirm(s, result, epoch)
	return result, nil
}

// Seed installs an authoritative state fetched outside Mutate. It is ignored
// while a mutation for key is in flight.
func (c *Coordinator[K, S]) Seed(key K, state S) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.slot(key)
	if s.inflight > 0 {
		return false
	}
	c.confirm(s, state, s.epoch)
	return true
}

// State returns the visible state for key and whether one has been set.
func (c *Coordinator[K, S]) State(key K) (S, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.entries[key]; ok {
		return s.state, s.known
	}
	var zero S
	return zero, false
}

// Pending reports whether a mutation for key is in flight.
func (c *Coordinator[K, S]) Pending(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.entries[key]
	return ok && s.inflight > 0
}

// Watch returns a channel that receives the visible state for key whenever it
// changes, starting with the current one. The channel is closed by the
// returned cancel func or when the key is forgotten.
func (c *Coordinator[K, S]) Watch(key K) (<-chan S, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.slot(key)
	id, ch := s.watchers.add(s.state)

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			s.watchers.remove(id)
		})
	}
}

// Forget drops the state for key. Any in-flight response for it is treated as
// stale.
func (c *Coordinator[K, S]) Forget(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.entries[key]
	if !ok {
		return
	}
	s.epoch++
	s.watchers.closeAll()
	delete(c.entries, key)
}
