package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/wisora/internal/cache"
	"github.com/anonto42/wisora/internal/handlers"
	"github.com/anonto42/wisora/internal/middleware"
	"github.com/anonto42/wisora/internal/mocks"
	"github.com/anonto42/wisora/internal/models"
	"github.com/anonto42/wisora/internal/validators"
)

const (
	testSecret = "handler-secret"
	userHeader = "X-Test-User"
)

type harness struct {
	t     *testing.T
	e     *echo.Echo
	store *mocks.Store
}

// newHarness wires every handler against an in-memory store. Requests are
// authenticated as the user named in the X-Test-User header.
func newHarness(t *testing.T, verifier middleware.IDTokenVerifier) *harness {
	t.Helper()
	store := mocks.NewStore()
	log := zerolog.Nop()
	c := cache.Noop{}

	e := echo.New()
	e.Validator = validators.NewValidator()

	handlers.NewAuthHandler(store.Users(), verifier, testSecret, time.Hour, log).RegisterAuthRoutes(e.Group("/api/v1/auth"))

	api := e.Group("/api/v1", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if id := c.Request().Header.Get(userHeader); id != "" {
				c.Set(middleware.UserIDKey, id)
			}
			return next(c)
		}
	})
	handlers.NewUserHandler(store.Users(), store.Follows()).RegisterProfileRoutes(api)
	handlers.NewFollowHandler(store.Follows(), store.Users(), store.Notifications(), log).RegisterFollowRoutes(api)
	handlers.NewLikeHandler(store.Likes(), store.Questions(), store.Answers(), store.Comments(), log).RegisterLikeRoutes(api)
	handlers.NewNotificationHandler(store.Notifications(), store.Users(), store.Questions()).RegisterNotificationRoutes(api)
	handlers.NewQuestionHandler(store.Questions(), store.Answers(), store.Users(), store.Likes(), store.Follows(), store.Notifications(), c, log).RegisterQuestionRoutes(api)
	handlers.NewAnswerHandler(store.Answers(), store.Questions(), store.Users(), store.Likes(), store.Notifications(), c, log).RegisterAnswerRoutes(api)
	handlers.NewCommentHandler(store.Comments(), store.Answers(), store.Users(), c, log).RegisterCommentRoutes(api)

	return &harness{t: t, e: e, store: store}
}

func (h *harness) addUser(id, username string) {
	h.t.Helper()
	err := h.store.Users().CreateUser(context.Background(), &models.User{ID: id, Username: username, Email: username + "@example.com"})
	require.NoError(h.t, err)
}

func (h *harness) do(method, path, userID string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var payload string
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(h.t, err)
		payload = string(b)
	}
	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if userID != "" {
		req.Header.Set(userHeader, userID)
	}
	rec := httptest.NewRecorder()
	h.e.ServeHTTP(rec, req)
	return rec
}

// data decodes the envelope of a successful response into v.
func data(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	require.True(t, env.Success, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func (h *harness) postQuestion(userID string) string {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/api/v1/questions", userID, models.CreateQuestionRequest{
		Title:  "How do goroutines get scheduled?",
		Body:   "Looking for an overview of the runtime scheduler.",
		Topics: []string{"go", "runtime"},
	})
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
	var q models.QuestionView
	data(h.t, rec, &q)
	return q.ID.Hex()
}

func (h *harness) postAnswer(userID, questionID, text string) models.AnswerView {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/api/v1/answers/"+questionID, userID, models.BodyRequest{Text: text})
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
	var a models.AnswerView
	data(h.t, rec, &a)
	return a
}

func (h *harness) postComment(userID, path, text string) models.CommentView {
	h.t.Helper()
	rec := h.do(http.MethodPost, path, userID, models.BodyRequest{Text: text})
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
	var cv models.CommentView
	data(h.t, rec, &cv)
	return cv
}
