package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/wisora/internal/models"
)

func TestCreateAnswerNotifiesQuestionAuthor(t *testing.T) {
	h := newHarness(t, nil)
	h.addUser("alice", "alice")
	h.addUser("bob", "bob")
	qid := h.postQuestion("bob")

	a := h.postAnswer("alice", qid, "Use channels.")
	assert.Equal(t, qid, a.QuestionID)
	assert.Equal(t, "alice", a.Author.Username)

	h.postAnswer("bob", qid, "Self answer.")

	notifs := h.store.AllNotifications()
	require.Len(t, notifs, 1)
	assert.Equal(t, models.NotificationAnswer, notifs[0].Kind)
	assert.Equal(t, "alice", notifs[0].SenderID)
	assert.Equal(t, "bob", notifs[0].RecipientID)
	assert.Equal(t, qid, notifs[0].QuestionID)

	q, err := h.store.Questions().GetQuestionByID(context.Background(), qid)
	require.NoError(t, err)
	assert.EqualValues(t, 2, q.AnswersCount)

	rec := h.do(http.MethodGet, "/api/v1/answers/question/"+qid, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Answers []models.AnswerView `json:"answers"`
	}
	data(t, rec, &list)
	require.Len(t, list.Answers, 2)
	assert.Equal(t, a.ID, list.Answers[0].ID)
}

func TestCreateAnswerUnknownQuestion(t *testing.T) {
	h := newHarness(t, nil)
	h.addUser("alice", "alice")

	rec := h.do(http.MethodPost, "/api/v1/answers/65a000000000000000000000", "alice", models.BodyRequest{Text: "hi"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteAnswerCascades(t *testing.T) {
	h := newHarness(t, nil)
	h.addUser("alice", "alice")
	h.addUser("bob", "bob")
	qid := h.postQuestion("bob")
	a := h.postAnswer("alice", qid, "An answer.")

	c1 := h.postComment("bob", "/api/v1/comments/answer/"+a.ID, "first")
	c2 := h.postComment("alice", "/api/v1/comments/comment/"+c1.ID, "second")

	rec := h.do(http.MethodPost, "/api/v1/likes/toggle", "bob", models.ToggleLikeRequest{TargetID: a.ID, TargetType: models.TargetAnswer})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodDelete, "/api/v1/answers/"+a.ID, "bob", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(http.MethodDelete, "/api/v1/answers/"+a.ID, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got struct {
		ID              string   `json:"id"`
		RemovedComments []string `json:"removedComments"`
	}
	data(t, rec, &got)
	assert.Equal(t, a.ID, got.ID)
	assert.ElementsMatch(t, []string{c1.ID, c2.ID}, got.RemovedComments)

	rec = h.do(http.MethodGet, "/api/v1/comments/"+c1.ID, "bob", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	ctx := context.Background()
	q, err := h.store.Questions().GetQuestionByID(ctx, qid)
	require.NoError(t, err)
	assert.EqualValues(t, 0, q.AnswersCount)

	counts, err := h.store.Likes().Counts(ctx, models.TargetAnswer, []string{a.ID})
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestUpdateAnswer(t *testing.T) {
	h := newHarness(t, nil)
	h.addUser("alice", "alice")
	h.addUser("bob", "bob")
	qid := h.postQuestion("bob")
	a := h.postAnswer("alice", qid, "draft")

	rec := h.do(http.MethodPut, "/api/v1/answers/"+a.ID, "bob", models.BodyRequest{Text: "nope"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(http.MethodPut, "/api/v1/answers/"+a.ID, "alice", models.BodyRequest{Text: "final"})
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.AnswerView
	data(t, rec, &got)
	assert.Equal(t, "final", got.Body)
	assert.NotNil(t, got.EditedAt)
}

func TestAnswersByUser(t *testing.T) {
	h := newHarness(t, nil)
	h.addUser("alice", "alice")
	h.addUser("bob", "bob")
	qid := h.postQuestion("bob")
	older := h.postAnswer("alice", qid, "Read the scheduler source.")
	h.postAnswer("bob", qid, "Watch the GopherCon talk.")
	newer := h.postAnswer("alice", qid, "Try GODEBUG=schedtrace.")

	rec := h.do(http.MethodGet, "/api/v1/answers/user/alice", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		Answers []models.AnswerView `json:"answers"`
	}
	data(t, rec, &out)
	require.Len(t, out.Answers, 2)
	assert.Equal(t, newer.ID, out.Answers[0].ID)
	assert.Equal(t, older.ID, out.Answers[1].ID)
	require.NotNil(t, out.Answers[0].Question)
	assert.Equal(t, "How do goroutines get scheduled?", out.Answers[0].Question.Title)

	rec = h.do(http.MethodGet, "/api/v1/answers/user/carol", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data(t, rec, &out)
	assert.Empty(t, out.Answers)
}
