package handlers

import (
	"net/http"
	"strconv"

	"github.com/anonto42/wisora/internal/cache"
	"github.com/anonto42/wisora/internal/models"
	"github.com/anonto42/wisora/internal/repositories"
	"github.com/anonto42/wisora/internal/sanitize"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

// QuestionHandler handles HTTP requests related to questions
type QuestionHandler struct {
	questionRepository     repositories.QuestionRepository
	answerRepository       repositories.AnswerRepository
	userRepository         repositories.UserRepository
	likeRepository         repositories.LikeRepository
	followRepository       repositories.FollowRepository
	notificationRepository repositories.NotificationRepository
	cache                  cache.Cache
	log                    zerolog.Logger
}

// NewQuestionHandler creates a new QuestionHandler
func NewQuestionHandler(
	questionRepo repositories.QuestionRepository,
	answerRepo repositories.AnswerRepository,
	userRepo repositories.UserRepository,
	likeRepo repositories.LikeRepository,
	followRepo repositories.FollowRepository,
	notifRepo repositories.NotificationRepository,
	c cache.Cache,
	log zerolog.Logger,
) *QuestionHandler {
	return &QuestionHandler{
		questionRepository:     questionRepo,
		answerRepository:       answerRepo,
		userRepository:         userRepo,
		likeRepository:         likeRepo,
		followRepository:       followRepo,
		notificationRepository: notifRepo,
		cache:                  c,
		log:                    log.With().Str("handler", "questions").Logger(),
	}
}

// RegisterQuestionRoutes registers question-related routes
func (h *QuestionHandler) RegisterQuestionRoutes(g *echo.Group) {
	g.POST("/questions", h.CreateQuestion)
	g.GET("/questions", h.GetQuestions)
	g.GET("/questions/search", h.SearchQuestions)
	g.GET("/questions/user/:id", h.GetQuestionsByUser)
	g.GET("/questions/:id", h.GetQuestion)
	g.DELETE("/questions/:id", h.DeleteQuestion)
}

// CreateQuestion posts a question and notifies the author's followers
func (h *QuestionHandler) CreateQuestion(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req models.CreateQuestionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	question := &models.Question{
		AuthorID: currentUserID,
		Title:    sanitize.Text(req.Title),
		Body:     sanitize.Body(req.Body),
		Topics:   sanitize.Texts(req.Topics),
		Images:   req.Images,
		GroupID:  req.GroupID,
	}
	if question.Title == "" || question.Body == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Title and body are required")
	}

	ctx := c.Request().Context()
	if err := h.questionRepository.CreateQuestion(ctx, question); err != nil {
		h.log.Error().Err(err).Msg("create question failed")
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.notifyFollowers(c, currentUserID, question.ID.Hex())

	views := questionViews(ctx, h.userRepository, h.likeRepository, currentUserID, []models.Question{*question})
	return respond(c, http.StatusCreated, views[0])
}

func (h *QuestionHandler) notifyFollowers(c echo.Context, authorID, questionID string) {
	ctx := c.Request().Context()
	followerIDs, err := h.followRepository.GetFollowerIDs(ctx, authorID)
	if err != nil {
		h.log.Warn().Err(err).Str("author", authorID).Msg("followers not loaded")
		return
	}
	if len(followerIDs) == 0 {
		return
	}

	notifications := make([]*models.Notification, 0, len(followerIDs))
	for _, id := range followerIDs {
		notifications = append(notifications, &models.Notification{
			Kind:        models.NotificationQuestion,
			SenderID:    authorID,
			RecipientID: id,
			QuestionID:  questionID,
		})
	}
	if err := h.notificationRepository.CreateNotifications(ctx, notifications...); err != nil {
		h.log.Warn().Err(err).Int("recipients", len(notifications)).Msg("question notifications not created")
	}
}

type pageParams struct {
	page, limit int
}

func (p pageParams) skip() int64 { return int64((p.page - 1) * p.limit) }

func pageOf(c echo.Context) pageParams {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}
	return pageParams{page: page, limit: limit}
}

func (h *QuestionHandler) questionPage(c echo.Context, viewerID string, p pageParams, questions []models.Question) error {
	return respond(c, http.StatusOK, echo.Map{
		"questions": questionViews(c.Request().Context(), h.userRepository, h.likeRepository, viewerID, questions),
		"page":      p.page,
		"limit":     p.limit,
	})
}

// GetQuestions lists questions newest first, optionally filtered by topic
func (h *QuestionHandler) GetQuestions(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	p := pageOf(c)
	questions, err := h.questionRepository.ListQuestions(c.Request().Context(), c.QueryParam("topic"), p.skip(), int64(p.limit))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return h.questionPage(c, currentUserID, p, questions)
}

// SearchQuestions matches ?text= against titles and bodies and ?tag=
// against topics. At least one of them is required.
func (h *QuestionHandler) SearchQuestions(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	text := sanitize.Text(c.QueryParam("text"))
	tag := sanitize.Text(c.QueryParam("tag"))
	if text == "" && tag == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Search text or tag is required")
	}

	p := pageOf(c)
	questions, err := h.questionRepository.SearchQuestions(c.Request().Context(), text, tag, p.skip(), int64(p.limit))
	if err != nil {
		h.log.Error().Err(err).Str("text", text).Str("tag", tag).Msg("question search failed")
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return h.questionPage(c, currentUserID, p, questions)
}

// GetQuestionsByUser lists one author's questions newest first
func (h *QuestionHandler) GetQuestionsByUser(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	p := pageOf(c)
	questions, err := h.questionRepository.ListByAuthor(c.Request().Context(), c.Param("id"), p.skip(), int64(p.limit))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return h.questionPage(c, currentUserID, p, questions)
}

func (h *QuestionHandler) GetQuestion(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	question, err := h.questionRepository.GetQuestionByID(ctx, c.Param("id"))
	if err != nil {
		return storeError(err, "Question not found")
	}

	views := questionViews(ctx, h.userRepository, h.likeRepository, currentUserID, []models.Question{*question})
	return respond(c, http.StatusOK, views[0])
}

// DeleteQuestion removes the caller's question with its answers, comments
// and likes.
func (h *QuestionHandler) DeleteQuestion(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	question, err := h.questionRepository.GetQuestionByID(ctx, c.Param("id"))
	if err != nil {
		return storeError(err, "Question not found")
	}
	if question.AuthorID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "You can only delete your own questions")
	}

	questionID := question.ID.Hex()
	answers, err := h.answerRepository.ListByQuestion(ctx, questionID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.answerRepository.DeleteByQuestion(ctx, questionID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	for _, a := range answers {
		h.cache.InvalidatePrefix(ctx, "comments:"+a.ID+":")
	}
	if err := h.likeRepository.DeleteByTargets(ctx, models.TargetQuestion, []string{questionID}); err != nil {
		h.log.Warn().Err(err).Str("question", questionID).Msg("question likes not removed")
	}
	if err := h.questionRepository.DeleteQuestion(ctx, questionID); err != nil {
		return storeError(err, "Question not found")
	}

	h.log.Info().Str("question", questionID).Int("answers", len(answers)).Msg("question deleted")
	return respond(c, http.StatusOK, echo.Map{"id": questionID, "deleted": true})
}
