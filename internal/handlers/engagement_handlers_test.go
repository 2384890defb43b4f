package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/wisora/internal/models"
)

func TestToggleLike(t *testing.T) {
	h := newHarness(t, nil)
	h.addUser("alice", "alice")
	h.addUser("bob", "bob")
	qid := h.postQuestion("bob")

	toggle := func(user string) models.LikeStatus {
		t.Helper()
		rec := h.do(http.MethodPost, "/api/v1/likes/toggle", user, models.ToggleLikeRequest{TargetID: qid, TargetType: models.TargetQuestion})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var st models.LikeStatus
		data(t, rec, &st)
		return st
	}

	assert.Equal(t, models.LikeStatus{Liked: true, Count: 1}, toggle("alice"))
	assert.Equal(t, models.LikeStatus{Liked: true, Count: 2}, toggle("bob"))
	assert.Equal(t, models.LikeStatus{Liked: false, Count: 1}, toggle("alice"))

	rec := h.do(http.MethodGet, "/api/v1/likes/"+qid+"?targetType=question", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var st models.LikeStatus
	data(t, rec, &st)
	assert.Equal(t, models.LikeStatus{Liked: true, Count: 1}, st)

	tests := []struct {
		name   string
		req    models.ToggleLikeRequest
		status int
	}{
		{"unknown kind", models.ToggleLikeRequest{TargetID: qid, TargetType: "post"}, http.StatusBadRequest},
		{"missing id", models.ToggleLikeRequest{TargetType: models.TargetAnswer}, http.StatusBadRequest},
		{"unknown answer", models.ToggleLikeRequest{TargetID: "missing", TargetType: models.TargetAnswer}, http.StatusNotFound},
		{"unknown comment", models.ToggleLikeRequest{TargetID: "missing", TargetType: models.TargetComment}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(http.MethodPost, "/api/v1/likes/toggle", "alice", tt.req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestToggleFollow(t *testing.T) {
	h := newHarness(t, nil)
	h.addUser("alice", "alice")
	h.addUser("bob", "bob")

	rec := h.do(http.MethodPost, "/api/v1/users/follow/alice", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPost, "/api/v1/users/follow/ghost", "alice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var st struct {
		Following bool `json:"following"`
	}
	rec = h.do(http.MethodPost, "/api/v1/users/follow/bob", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data(t, rec, &st)
	assert.True(t, st.Following)

	notifs := h.store.AllNotifications()
	require.Len(t, notifs, 1)
	assert.Equal(t, models.NotificationFollow, notifs[0].Kind)
	assert.Equal(t, "bob", notifs[0].RecipientID)

	rec = h.do(http.MethodGet, "/api/v1/users/bob", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var profile struct {
		User        models.User `json:"user"`
		IsFollowing bool        `json:"isFollowing"`
	}
	data(t, rec, &profile)
	assert.True(t, profile.IsFollowing)
	assert.EqualValues(t, 1, profile.User.FollowersCount)

	rec = h.do(http.MethodPost, "/api/v1/users/follow/bob", "alice", nil)
	data(t, rec, &st)
	assert.False(t, st.Following)

	rec = h.do(http.MethodGet, "/api/v1/users/follow/bob", "alice", nil)
	data(t, rec, &st)
	assert.False(t, st.Following)
	assert.Len(t, h.store.AllNotifications(), 1, "unfollow creates no notification")
}

func TestNotificationsFeed(t *testing.T) {
	h := newHarness(t, nil)
	h.addUser("alice", "alice")
	h.addUser("bob", "bob")
	h.addUser("carol", "carol")

	h.do(http.MethodPost, "/api/v1/users/follow/alice", "bob", nil)
	qid := h.postQuestion("alice")
	h.postAnswer("carol", qid, "An answer.")

	var feed struct {
		Notifications []models.NotificationView `json:"notifications"`
		UnreadCount   int64                     `json:"unreadCount"`
	}
	rec := h.do(http.MethodGet, "/api/v1/notifications", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data(t, rec, &feed)
	require.Len(t, feed.Notifications, 2)
	assert.Equal(t, models.NotificationAnswer, feed.Notifications[0].Kind)
	assert.Equal(t, "carol", feed.Notifications[0].Sender.Username)
	require.NotNil(t, feed.Notifications[0].Question)
	assert.Equal(t, "How do goroutines get scheduled?", feed.Notifications[0].Question.Title)
	assert.Equal(t, models.NotificationFollow, feed.Notifications[1].Kind)
	assert.Nil(t, feed.Notifications[1].Question)
	assert.EqualValues(t, 2, feed.UnreadCount)

	rec = h.do(http.MethodGet, "/api/v1/notifications", "bob", nil)
	data(t, rec, &feed)
	require.Len(t, feed.Notifications, 1)
	assert.Equal(t, models.NotificationQuestion, feed.Notifications[0].Kind)
	assert.Equal(t, "alice", feed.Notifications[0].Sender.ID)

	t.Run("mark read is recipient scoped", func(t *testing.T) {
		id := feed.Notifications[0].ID
		rec := h.do(http.MethodPatch, "/api/v1/notifications/read/"+id, "carol", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = h.do(http.MethodPatch, "/api/v1/notifications/read/"+id, "bob", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		count, err := h.store.Notifications().GetUnreadCount(context.Background(), "bob")
		require.NoError(t, err)
		assert.EqualValues(t, 0, count)
	})

	t.Run("mark all read", func(t *testing.T) {
		rec := h.do(http.MethodPatch, "/api/v1/notifications/read-all", "alice", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = h.do(http.MethodGet, "/api/v1/notifications/unread-count", "alice", nil)
		var got struct {
			Count int64 `json:"count"`
		}
		data(t, rec, &got)
		assert.Zero(t, got.Count)
	})
}
