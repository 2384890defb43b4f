package engagement

import (
	"context"

	"github.com/rs/zerolog"
)

// Follows tracks whether the session user follows other users.
type Follows struct {
	session Session
	remote  Remote
	coord   *Coordinator[string, bool]
	log     zerolog.Logger
}

func NewFollows(session Session, remote Remote, log zerolog.Logger) *Follows {
	log = log.With().Str("component", "follows").Logger()
	return &Follows{
		session: session,
		remote:  remote,
		coord:   NewCoordinator[string, bool](log),
		log:     log,
	}
}

func (f *Follows) Toggle(ctx context.Context, followeeID string) (bool, error) {
	const op = "toggle follow"
	if !f.session.Authenticated() {
		return false, invalid(op, ErrUnauthenticated)
	}
	if followeeID == "" {
		return false, invalid(op, ErrInvalidFollowee)
	}
	if followeeID == f.session.UserID {
		return false, invalid(op, ErrSelfFollow)
	}

	following, err := f.coord.Mutate(ctx, followeeID, func(s bool) bool { return !s }, func(ctx context.Context) (bool, error) {
		return f.remote.ToggleFollow(ctx, followeeID)
	})
	if err != nil {
		f.log.Warn().Err(err).Str("followee", followeeID).Msg("follow toggle rolled back")
		return following, remoteFailure(op, err)
	}
	return following, nil
}

// Seed records a follow status learned from a profile fetch.
func (f *Follows) Seed(followeeID string, following bool) {
	f.coord.Seed(followeeID, following)
}

func (f *Follows) State(followeeID string) bool {
	s, _ := f.coord.State(followeeID)
	return s
}

func (f *Follows) Watch(followeeID string) (<-chan bool, func()) {
	return f.coord.Watch(followeeID)
}
