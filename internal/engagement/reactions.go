package engagement

import (
	"context"

	"github.com/rs/zerolog"
)

// Reactions holds the current user's like state per target.
type Reactions struct {
	session Session
	remote  Remote
	coord   *Coordinator[ReactionTarget, ReactionState]
	log     zerolog.Logger
}

func NewReactions(session Session, remote Remote, log zerolog.Logger) *Reactions {
	log = log.With().Str("component", "reactions").Logger()
	return &Reactions{
		session: session,
		remote:  remote,
		coord:   NewCoordinator[ReactionTarget, ReactionState](log),
		log:     log,
	}
}

func (r *Reactions) check(op string, target ReactionTarget) error {
	if !r.session.Authenticated() {
		return invalid(op, ErrUnauthenticated)
	}
	if target.ID == "" || !target.Kind.Valid() {
		return invalid(op, ErrInvalidTarget)
	}
	return nil
}

// Toggle flips the like on target optimistically and reconciles with the
// count the remote reports.
func (r *Reactions) Toggle(ctx context.Context, target ReactionTarget) (ReactionState, error) {
	const op = "toggle reaction"
	if err := r.check(op, target); err != nil {
		return ReactionState{}, err
	}

	state, err := r.coord.Mutate(ctx, target, flipReaction, func(ctx context.Context) (ReactionState, error) {
		return r.remote.ToggleReaction(ctx, target)
	})
	if err != nil {
		r.log.Warn().Err(err).Str("target", target.String()).Msg("reaction toggle rolled back")
		return state, remoteFailure(op, err)
	}
	return state, nil
}

func flipReaction(s ReactionState) ReactionState {
	if s.Liked {
		return ReactionState{Liked: false, Count: max(s.Count-1, 0)}
	}
	return ReactionState{Liked: true, Count: s.Count + 1}
}

// Load fetches the authoritative state for target. While a toggle is in
// flight the fetched value is dropped and the visible state is returned.
func (r *Reactions) Load(ctx context.Context, target ReactionTarget) (ReactionState, error) {
	const op = "load reaction"
	if err := r.check(op, target); err != nil {
		return ReactionState{}, err
	}

	state, err := r.remote.ReactionStatus(ctx, target)
	if err != nil {
		return ReactionState{}, remoteFailure(op, err)
	}
	if !r.coord.Seed(target, state) {
		state, _ = r.coord.State(target)
	}
	return state, nil
}

// Seed installs a state that arrived with a listing, e.g. a question feed.
func (r *Reactions) Seed(target ReactionTarget, state ReactionState) {
	r.coord.Seed(target, state)
}

func (r *Reactions) State(target ReactionTarget) ReactionState {
	s, _ := r.coord.State(target)
	return s
}

func (r *Reactions) Watch(target ReactionTarget) (<-chan ReactionState, func()) {
	return r.coord.Watch(target)
}

// Forget drops the state of targets that no longer exist.
func (r *Reactions) Forget(targets ...ReactionTarget) {
	for _, t := range targets {
		r.coord.Forget(t)
	}
}
