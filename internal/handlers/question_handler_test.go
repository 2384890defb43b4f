package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/wisora/internal/models"
)

func TestCreateQuestionNotifiesFollowers(t *testing.T) {
	h := newHarness(t, nil)
	h.addUser("alice", "alice")
	h.addUser("bob", "bob")
	h.addUser("carol", "carol")
	h.do(http.MethodPost, "/api/v1/users/follow/alice", "bob", nil)
	h.do(http.MethodPost, "/api/v1/users/follow/alice", "carol", nil)

	qid := h.postQuestion("alice")

	recipients := map[string]bool{}
	for _, n := range h.store.AllNotifications() {
		if n.Kind == models.NotificationQuestion {
			assert.Equal(t, qid, n.QuestionID)
			recipients[n.RecipientID] = true
		}
	}
	assert.Equal(t, map[string]bool{"bob": true, "carol": true}, recipients)
}

func TestCreateQuestionValidation(t *testing.T) {
	h := newHarness(t, nil)
	h.addUser("alice", "alice")

	rec := h.do(http.MethodPost, "/api/v1/questions", "alice", models.CreateQuestionRequest{Title: "hey", Body: "short title"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPost, "/api/v1/questions", "alice", models.CreateQuestionRequest{Title: "<i></i><b></b>", Body: "markup only title"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListQuestions(t *testing.T) {
	h := newHarness(t, nil)
	h.addUser("alice", "alice")
	first := h.postQuestion("alice")
	second := h.postQuestion("alice")

	rec := h.do(http.MethodPost, "/api/v1/likes/toggle", "alice", models.ToggleLikeRequest{TargetID: first, TargetType: models.TargetQuestion})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodGet, "/api/v1/questions?topic=go&limit=10", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Questions []models.QuestionView `json:"questions"`
		Page      int                   `json:"page"`
	}
	data(t, rec, &page)
	require.Len(t, page.Questions, 2)
	assert.Equal(t, second, page.Questions[0].ID.Hex())
	assert.False(t, page.Questions[0].Liked)
	assert.True(t, page.Questions[1].Liked)
	assert.EqualValues(t, 1, page.Questions[1].LikesCount)
	assert.Equal(t, 1, page.Page)

	rec = h.do(http.MethodGet, "/api/v1/questions?topic=rust", "alice", nil)
	data(t, rec, &page)
	assert.Empty(t, page.Questions)
}

func TestDeleteQuestionCascades(t *testing.T) {
	h := newHarness(t, nil)
	h.addUser("alice", "alice")
	h.addUser("bob", "bob")
	qid := h.postQuestion("alice")
	a := h.postAnswer("bob", qid, "answer")
	h.postComment("alice", "/api/v1/comments/answer/"+a.ID, "thanks")

	rec := h.do(http.MethodDelete, "/api/v1/questions/"+qid, "bob", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(http.MethodDelete, "/api/v1/questions/"+qid, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(http.MethodGet, "/api/v1/questions/"+qid, "alice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	answers, err := h.store.Answers().ListByQuestion(context.Background(), qid)
	require.NoError(t, err)
	assert.Empty(t, answers)

	rec = h.do(http.MethodGet, "/api/v1/comments/"+a.ID, "alice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchQuestions(t *testing.T) {
	h := newHarness(t, nil)
	h.addUser("alice", "alice")
	scheduler := h.postQuestion("alice")
	rec := h.do(http.MethodPost, "/api/v1/questions", "alice", models.CreateQuestionRequest{
		Title:  "Borrow checker and lifetimes",
		Body:   "When does a reference outlive its owner?",
		Topics: []string{"rust"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"title match ignores case", "text=GOROUTINES", []string{scheduler}},
		{"body match", "text=runtime+scheduler", []string{scheduler}},
		{"tag only", "tag=go", []string{scheduler}},
		{"text and tag must both match", "text=borrow&tag=go", nil},
		{"regex characters are literal", "text=.*", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(http.MethodGet, "/api/v1/questions/search?"+tt.query, "alice", nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var page struct {
				Questions []models.QuestionView `json:"questions"`
			}
			data(t, rec, &page)
			var got []string
			for _, q := range page.Questions {
				got = append(got, q.ID.Hex())
			}
			assert.Equal(t, tt.want, got)
		})
	}

	rec = h.do(http.MethodGet, "/api/v1/questions/search?text=%20", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuestionsByUser(t *testing.T) {
	h := newHarness(t, nil)
	h.addUser("alice", "alice")
	h.addUser("bob", "bob")
	first := h.postQuestion("alice")
	h.postQuestion("bob")
	second := h.postQuestion("alice")

	rec := h.do(http.MethodGet, "/api/v1/questions/user/alice", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var page struct {
		Questions []models.QuestionView `json:"questions"`
		Limit     int                   `json:"limit"`
	}
	data(t, rec, &page)
	require.Len(t, page.Questions, 2)
	assert.Equal(t, second, page.Questions[0].ID.Hex())
	assert.Equal(t, first, page.Questions[1].ID.Hex())
	assert.Equal(t, "alice", page.Questions[0].Author.Username)
	assert.Equal(t, 20, page.Limit)

	rec = h.do(http.MethodGet, "/api/v1/questions/user/alice?page=2&limit=1", "bob", nil)
	data(t, rec, &page)
	require.Len(t, page.Questions, 1)
	assert.Equal(t, first, page.Questions[0].ID.Hex())
}
