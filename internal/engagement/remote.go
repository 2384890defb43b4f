package engagement

import "context"

// Remote is the authoritative source of truth. Implementations must be safe
// for concurrent use.
type Remote interface {
	ToggleReaction(ctx context.Context, target ReactionTarget) (ReactionState, error)
	ReactionStatus(ctx context.Context, target ReactionTarget) (ReactionState, error)

	ToggleFollow(ctx context.Context, followeeID string) (bool, error)

	ListNotifications(ctx context.Context) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error

	AttachComment(ctx context.Context, parent NodeRef, body string) (Comment, error)
	EditComment(ctx context.Context, id, body string) (Comment, error)
	DeleteComment(ctx context.Context, id string) error
	// ListComments returns every comment below parentID, flattened, each with
	// its parent id and ordered child ids.
	ListComments(ctx context.Context, parentID string) ([]Comment, error)

	ListAnswers(ctx context.Context, questionID string) ([]Answer, error)
	EditAnswer(ctx context.Context, id, body string) (Answer, error)
	DeleteAnswer(ctx context.Context, id string) error
}
