package engagement_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/wisora/internal/engagement"
	"github.com/anonto42/wisora/internal/mocks"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func notif(id string, minutes int, read bool) engagement.Notification {
	return engagement.Notification{
		ID:        id,
		Kind:      engagement.NotificationFollow,
		Sender:    engagement.UserRef{ID: "u-" + id, Username: "sender-" + id},
		Read:      read,
		CreatedAt: base.Add(time.Duration(minutes) * time.Minute),
	}
}

func ids(feed engagement.Feed) []string {
	out := make([]string, 0, len(feed.Items))
	for _, n := range feed.Items {
		out = append(out, n.ID)
	}
	return out
}

func TestPollMergesByIDMostRecentFirst(t *testing.T) {
	remote := mocks.NewMockRemote()
	batch := []engagement.Notification{notif("a", 1, false), notif("b", 3, true)}
	remote.ListNotificationsFunc = func(ctx context.Context) ([]engagement.Notification, error) {
		return batch, nil
	}
	n := engagement.NewNotifications(remote, zerolog.Nop())

	require.NoError(t, n.Poll(context.Background()))
	batch = []engagement.Notification{notif("c", 2, false), notif("a", 1, false), notif("b", 3, true)}
	require.NoError(t, n.Poll(context.Background()))

	feed := n.Snapshot()
	assert.Equal(t, []string{"b", "c", "a"}, ids(feed))
	assert.Equal(t, 2, feed.Unread)
}

func TestPollFailureKeepsSnapshot(t *testing.T) {
	remote := mocks.NewMockRemote()
	remote.ListNotificationsFunc = func(ctx context.Context) ([]engagement.Notification, error) {
		return []engagement.Notification{notif("a", 1, false)}, nil
	}
	n := engagement.NewNotifications(remote, zerolog.Nop())
	require.NoError(t, n.Poll(context.Background()))

	remote.ListNotificationsFunc = func(ctx context.Context) ([]engagement.Notification, error) {
		return nil, errors.New("bad gateway")
	}
	err := n.Poll(context.Background())
	require.Error(t, err)
	assert.True(t, engagement.IsRemoteFailure(err))
	assert.Equal(t, []string{"a"}, ids(n.Snapshot()))
	assert.Equal(t, 1, n.Unread())
}

func TestMergeSameBatchTwiceKeepsPendingIntent(t *testing.T) {
	remote := mocks.NewMockRemote()
	entered := make(chan struct{})
	release := make(chan struct{})
	remote.MarkNotificationReadFunc = func(ctx context.Context, id string) error {
		close(entered)
		<-release
		return nil
	}
	n := engagement.NewNotifications(remote, zerolog.Nop())
	batch := []engagement.Notification{notif("a", 1, false), notif("b", 2, false)}
	n.Merge(batch)

	done := make(chan error, 1)
	go func() { done <- n.MarkRead(context.Background(), "a") }()
	<-entered

	n.Merge(batch)
	n.Merge(batch)

	feed := n.Snapshot()
	assert.Equal(t, []string{"b", "a"}, ids(feed))
	assert.Equal(t, 1, feed.Unread)
	assert.True(t, feed.Items[1].Read)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, n.Unread())
}

func TestMarkReadRevertsOnFailure(t *testing.T) {
	remote := mocks.NewMockRemote()
	remote.MarkNotificationReadFunc = func(ctx context.Context, id string) error {
		return errors.New("500")
	}
	n := engagement.NewNotifications(remote, zerolog.Nop())
	n.Merge([]engagement.Notification{notif("a", 1, false), notif("b", 2, false)})

	err := n.MarkRead(context.Background(), "a")
	require.Error(t, err)
	assert.True(t, engagement.IsRemoteFailure(err))
	assert.Equal(t, 2, n.Unread())
}

func TestMarkReadUnknownID(t *testing.T) {
	n := engagement.NewNotifications(mocks.NewMockRemote(), zerolog.Nop())
	err := n.MarkRead(context.Background(), "missing")
	require.ErrorIs(t, err, engagement.ErrNotFound)
}

func TestMarkAllReadRevertsToSnapshot(t *testing.T) {
	remote := mocks.NewMockRemote()
	remote.MarkAllNotificationsReadFunc = func(ctx context.Context) error {
		return errors.New("offline")
	}
	n := engagement.NewNotifications(remote, zerolog.Nop())
	n.Merge([]engagement.Notification{notif("a", 1, false), notif("b", 2, true), notif("c", 3, false)})
	before := n.Snapshot()

	require.Error(t, n.MarkAllRead(context.Background()))
	assert.Equal(t, before, n.Snapshot())
}

func TestMarkAllReadThenPollHasNoUnread(t *testing.T) {
	stale := []engagement.Notification{notif("a", 1, false), notif("b", 2, false)}

	t.Run("poll after mark all", func(t *testing.T) {
		remote := mocks.NewMockRemote()
		var mu sync.Mutex
		server := append([]engagement.Notification(nil), stale...)
		remote.ListNotificationsFunc = func(ctx context.Context) ([]engagement.Notification, error) {
			mu.Lock()
			defer mu.Unlock()
			return append([]engagement.Notification(nil), server...), nil
		}
		remote.MarkAllNotificationsReadFunc = func(ctx context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			for i := range server {
				server[i].Read = true
			}
			return nil
		}
		n := engagement.NewNotifications(remote, zerolog.Nop())
		require.NoError(t, n.Poll(context.Background()))
		assert.Equal(t, 2, n.Unread())

		require.NoError(t, n.MarkAllRead(context.Background()))
		require.NoError(t, n.Poll(context.Background()))
		assert.Zero(t, n.Unread())
	})

	t.Run("poll overlapping mark all", func(t *testing.T) {
		remote := mocks.NewMockRemote()
		n := engagement.NewNotifications(remote, zerolog.Nop())
		n.Merge(stale)

		entered := make(chan struct{})
		release := make(chan struct{})
		remote.ListNotificationsFunc = func(ctx context.Context) ([]engagement.Notification, error) {
			close(entered)
			<-release
			return append(stale, notif("c", 3, false)), nil
		}

		done := make(chan error, 1)
		go func() { done <- n.Poll(context.Background()) }()
		<-entered

		require.NoError(t, n.MarkAllRead(context.Background()))
		close(release)
		require.NoError(t, <-done)

		assert.Zero(t, n.Unread())
		assert.Len(t, n.Snapshot().Items, 3)
	})

	t.Run("mark all confirmed before a stale poll merges", func(t *testing.T) {
		remote := mocks.NewMockRemote()
		n := engagement.NewNotifications(remote, zerolog.Nop())
		n.Merge(stale)

		markEntered, markRelease := make(chan struct{}), make(chan struct{})
		remote.MarkAllNotificationsReadFunc = func(ctx context.Context) error {
			close(markEntered)
			<-markRelease
			return nil
		}
		pollEntered, pollRelease := make(chan struct{}), make(chan struct{})
		remote.ListNotificationsFunc = func(ctx context.Context) ([]engagement.Notification, error) {
			close(pollEntered)
			<-pollRelease
			return append([]engagement.Notification(nil), stale...), nil
		}

		marked := make(chan error, 1)
		go func() { marked <- n.MarkAllRead(context.Background()) }()
		<-markEntered

		polled := make(chan error, 1)
		go func() { polled <- n.Poll(context.Background()) }()
		<-pollEntered

		close(markRelease)
		require.NoError(t, <-marked)
		close(pollRelease)
		require.NoError(t, <-polled)

		assert.Zero(t, n.Unread(), "unread after markAllRead followed by poll")
	})
}

func TestMarkReadConfirmedBeforeStalePollMerges(t *testing.T) {
	remote := mocks.NewMockRemote()
	n := engagement.NewNotifications(remote, zerolog.Nop())
	stale := []engagement.Notification{notif("a", 1, false), notif("b", 2, false)}
	n.Merge(stale)

	markEntered, markRelease := make(chan struct{}), make(chan struct{})
	remote.MarkNotificationReadFunc = func(ctx context.Context, id string) error {
		close(markEntered)
		<-markRelease
		return nil
	}
	pollEntered, pollRelease := make(chan struct{}), make(chan struct{})
	remote.ListNotificationsFunc = func(ctx context.Context) ([]engagement.Notification, error) {
		close(pollEntered)
		<-pollRelease
		return append([]engagement.Notification(nil), stale...), nil
	}

	marked := make(chan error, 1)
	go func() { marked <- n.MarkRead(context.Background(), "a") }()
	<-markEntered

	polled := make(chan error, 1)
	go func() { polled <- n.Poll(context.Background()) }()
	<-pollEntered

	close(markRelease)
	require.NoError(t, <-marked)
	close(pollRelease)
	require.NoError(t, <-polled)

	feed := n.Snapshot()
	assert.Equal(t, 1, feed.Unread)
	assert.Equal(t, []string{"b", "a"}, ids(feed))
	assert.True(t, feed.Items[1].Read)
	assert.False(t, feed.Items[0].Read)
}

func TestFailedMarkReadLetsRemoteStateWin(t *testing.T) {
	remote := mocks.NewMockRemote()
	remote.MarkNotificationReadFunc = func(ctx context.Context, id string) error {
		return errors.New("503")
	}
	n := engagement.NewNotifications(remote, zerolog.Nop())
	n.Merge([]engagement.Notification{notif("a", 1, false)})
	require.Error(t, n.MarkRead(context.Background(), "a"))

	remote.ListNotificationsFunc = func(ctx context.Context) ([]engagement.Notification, error) {
		return []engagement.Notification{notif("a", 1, true)}, nil
	}
	require.NoError(t, n.Poll(context.Background()))
	assert.Zero(t, n.Unread())
}

func TestOverlappingPollsDoNotDuplicate(t *testing.T) {
	remote := mocks.NewMockRemote()
	batch := []engagement.Notification{notif("a", 1, false), notif("b", 2, false), notif("b", 2, false)}
	var started sync.WaitGroup
	started.Add(2)
	gate := make(chan struct{})
	remote.ListNotificationsFunc = func(ctx context.Context) ([]engagement.Notification, error) {
		started.Done()
		<-gate
		return batch, nil
	}
	n := engagement.NewNotifications(remote, zerolog.Nop())

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, n.Poll(context.Background()))
		}()
	}
	started.Wait()
	close(gate)
	wg.Wait()

	assert.Equal(t, []string{"b", "a"}, ids(n.Snapshot()))
	assert.Equal(t, 2, n.Unread())
}

func TestRemoteReadStateWinsWithoutLocalIntent(t *testing.T) {
	remote := mocks.NewMockRemote()
	n := engagement.NewNotifications(remote, zerolog.Nop())
	n.Merge([]engagement.Notification{notif("a", 1, false)})

	remote.ListNotificationsFunc = func(ctx context.Context) ([]engagement.Notification, error) {
		return []engagement.Notification{notif("a", 1, true)}, nil
	}
	require.NoError(t, n.Poll(context.Background()))
	assert.Zero(t, n.Unread())

	remote.ListNotificationsFunc = func(ctx context.Context) ([]engagement.Notification, error) {
		return []engagement.Notification{notif("a", 1, false)}, nil
	}
	require.NoError(t, n.Poll(context.Background()))
	assert.Equal(t, 1, n.Unread())
}

func TestNotificationWatch(t *testing.T) {
	n := engagement.NewNotifications(mocks.NewMockRemote(), zerolog.Nop())
	ch, cancel := n.Watch()
	defer cancel()

	first := <-ch
	assert.Empty(t, first.Items)

	n.Merge([]engagement.Notification{notif("a", 1, false)})
	feed := <-ch
	assert.Equal(t, 1, feed.Unread)
}
