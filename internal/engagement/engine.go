package engagement

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Config tunes an Engine.
type Config struct {
	PollInterval time.Duration
}

// Engine bundles the stores of one session. All mutation of engagement state
// goes through it or the controllers it exposes.
type Engine struct {
	Session       Session
	Tree          *Tree
	Reactions     *Reactions
	Follows       *Follows
	Notifications *Notifications
	Poller        *Poller

	log zerolog.Logger
}

func NewEngine(session Session, remote Remote, cfg Config, log zerolog.Logger) *Engine {
	log = log.With().Str("user", session.UserID).Logger()
	notifications := NewNotifications(remote, log)
	return &Engine{
		Session:       session,
		Tree:          NewTree(remote, log),
		Reactions:     NewReactions(session, remote, log),
		Follows:       NewFollows(session, remote, log),
		Notifications: notifications,
		Poller:        NewPoller(notifications, cfg.PollInterval, log),
		log:           log,
	}
}

// DeleteAnswer removes an answer with its comments and drops the reaction
// state of everything removed.
func (e *Engine) DeleteAnswer(ctx context.Context, answerID string) error {
	removed, err := e.Tree.HardDeleteAnswer(ctx, answerID)
	if err != nil {
		return err
	}

	targets := make([]ReactionTarget, 0, len(removed))
	for i, id := range removed {
		kind := TargetComment
		if i == 0 {
			kind = TargetAnswer
		}
		targets = append(targets, ReactionTarget{ID: id, Kind: kind})
	}
	e.Reactions.Forget(targets...)
	return nil
}

// WatchNotifications starts polling and streams the feed until the returned
// stop func is called.
func (e *Engine) WatchNotifications(ctx context.Context) (<-chan Feed, func()) {
	feed, cancel := e.Notifications.Watch()
	e.Poller.Start(ctx)
	return feed, func() {
		e.Poller.Stop()
		cancel()
	}
}

// Close stops background work.
func (e *Engine) Close() {
	e.Poller.Stop()
}
