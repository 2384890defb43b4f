package mocks

import (
	"context"
	"sync"

	"github.com/anonto42/wisora/internal/engagement"
)

var _ engagement.Remote = (*MockRemote)(nil)

// MockRemote is a mock implementation of engagement.Remote. Unset funcs
// return zero values.
type MockRemote struct {
	mu    sync.Mutex
	calls map[string]int

	ToggleReactionFunc           func(ctx context.Context, target engagement.ReactionTarget) (engagement.ReactionState, error)
	ReactionStatusFunc           func(ctx context.Context, target engagement.ReactionTarget) (engagement.ReactionState, error)
	ToggleFollowFunc             func(ctx context.Context, followeeID string) (bool, error)
	ListNotificationsFunc        func(ctx context.Context) ([]engagement.Notification, error)
	MarkNotificationReadFunc     func(ctx context.Context, id string) error
	MarkAllNotificationsReadFunc func(ctx context.Context) error
	AttachCommentFunc            func(ctx context.Context, parent engagement.NodeRef, body string) (engagement.Comment, error)
	EditCommentFunc              func(ctx context.Context, id, body string) (engagement.Comment, error)
	DeleteCommentFunc            func(ctx context.Context, id string) error
	ListCommentsFunc             func(ctx context.Context, parentID string) ([]engagement.Comment, error)
	ListAnswersFunc              func(ctx context.Context, questionID string) ([]engagement.Answer, error)
	EditAnswerFunc               func(ctx context.Context, id, body string) (engagement.Answer, error)
	DeleteAnswerFunc             func(ctx context.Context, id string) error
}

func NewMockRemote() *MockRemote {
	return &MockRemote{calls: make(map[string]int)}
}

func (m *MockRemote) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[name]++
}

// Calls returns how many times the named method was invoked.
func (m *MockRemote) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *MockRemote) ToggleReaction(ctx context.Context, target engagement.ReactionTarget) (engagement.ReactionState, error) {
	m.record("ToggleReaction")
	if m.ToggleReactionFunc != nil {
		return m.ToggleReactionFunc(ctx, target)
	}
	return engagement.ReactionState{}, nil
}

func (m *MockRemote) ReactionStatus(ctx context.Context, target engagement.ReactionTarget) (engagement.ReactionState, error) {
	m.record("ReactionStatus")
	if m.ReactionStatusFunc != nil {
		return m.ReactionStatusFunc(ctx, target)
	}
	return engagement.ReactionState{}, nil
}

func (m *MockRemote) ToggleFollow(ctx context.Context, followeeID string) (bool, error) {
	m.record("ToggleFollow")
	if m.ToggleFollowFunc != nil {
		return m.ToggleFollowFunc(ctx, followeeID)
	}
	return false, nil
}

func (m *MockRemote) ListNotifications(ctx context.Context) ([]engagement.Notification, error) {
	m.record("ListNotifications")
	if m.ListNotificationsFunc != nil {
		return m.ListNotificationsFunc(ctx)
	}
	return nil, nil
}

func (m *MockRemote) MarkNotificationRead(ctx context.Context, id string) error {
	m.record("MarkNotificationRead")
	if m.MarkNotificationReadFunc != nil {
		return m.MarkNotificationReadFunc(ctx, id)
	}
	return nil
}

func (m *MockRemote) MarkAllNotificationsRead(ctx context.Context) error {
	m.record("MarkAllNotificationsRead")
	if m.MarkAllNotificationsReadFunc != nil {
		return m.MarkAllNotificationsReadFunc(ctx)
	}
	return nil
}

func (m *MockRemote) AttachComment(ctx context.Context, parent engagement.NodeRef, body string) (engagement.Comment, error) {
	m.record("AttachComment")
	if m.AttachCommentFunc != nil {
		return m.AttachCommentFunc(ctx, parent, body)
	}
	return engagement.Comment{ParentID: parent.ID, ParentKind: parent.Kind, Body: body}, nil
}

func (m *MockRemote) EditComment(ctx context.Context, id, body string) (engagement.Comment, error) {
	m.record("EditComment")
	if m.EditCommentFunc != nil {
		return m.EditCommentFunc(ctx, id, body)
	}
	return engagement.Comment{ID: id, Body: body}, nil
}

func (m *MockRemote) DeleteComment(ctx context.Context, id string) error {
	m.record("DeleteComment")
	if m.DeleteCommentFunc != nil {
		return m.DeleteCommentFunc(ctx, id)
	}
	return nil
}

func (m *MockRemote) ListComments(ctx context.Context, parentID string) ([]engagement.Comment, error) {
	m.record("ListComments")
	if m.ListCommentsFunc != nil {
		return m.ListCommentsFunc(ctx, parentID)
	}
	return nil, nil
}

func (m *MockRemote) ListAnswers(ctx context.Context, questionID string) ([]engagement.Answer, error) {
	m.record("ListAnswers")
	if m.ListAnswersFunc != nil {
		return m.ListAnswersFunc(ctx, questionID)
	}
	return nil, nil
}

func (m *MockRemote) EditAnswer(ctx context.Context, id, body string) (engagement.Answer, error) {
	m.record("EditAnswer")
	if m.EditAnswerFunc != nil {
		return m.EditAnswerFunc(ctx, id, body)
	}
	return engagement.Answer{ID: id, Body: body}, nil
}

func (m *MockRemote) DeleteAnswer(ctx context.Context, id string) error {
	m.record("DeleteAnswer")
	if m.DeleteAnswerFunc != nil {
		return m.DeleteAnswerFunc(ctx, id)
	}
	return nil
}
