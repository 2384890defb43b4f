package handlers

import (
	"net/http"

	"github.com/anonto42/wisora/internal/cache"
	"github.com/anonto42/wisora/internal/models"
	"github.com/anonto42/wisora/internal/repositories"
	"github.com/anonto42/wisora/internal/sanitize"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// AnswerHandler handles HTTP requests related to answers
type AnswerHandler struct {
	answerRepository       repositories.AnswerRepository
	questionRepository     repositories.QuestionRepository
	userRepository         repositories.UserRepository
	likeRepository         repositories.LikeRepository
	notificationRepository repositories.NotificationRepository
	cache                  cache.Cache
	log                    zerolog.Logger
}

// NewAnswerHandler creates a new AnswerHandler
func NewAnswerHandler(answerRepo repositories.AnswerRepository, questionRepo repositories.QuestionRepository, userRepo repositories.UserRepository, likeRepo repositories.LikeRepository, notifRepo repositories.NotificationRepository, c cache.Cache, log zerolog.Logger) *AnswerHandler {
	return &AnswerHandler{
		answerRepository:       answerRepo,
		questionRepository:     questionRepo,
		userRepository:         userRepo,
		likeRepository:         likeRepo,
		notificationRepository: notifRepo,
		cache:                  c,
		log:                    log.With().Str("handler", "answers").Logger(),
	}
}

// RegisterAnswerRoutes registers answer-related routes
func (h *AnswerHandler) RegisterAnswerRoutes(g *echo.Group) {
	g.POST("/answers/:questionId", h.CreateAnswer)
	g.GET("/answers/question/:id", h.GetAnswersByQuestion)
	g.GET("/answers/user/:id", h.GetAnswersByUser)
	g.PUT("/answers/:id", h.UpdateAnswer)
	g.DELETE("/answers/:id", h.DeleteAnswer)
}

// CreateAnswer answers a question and notifies its author
func (h *AnswerHandler) CreateAnswer(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	question, err := h.questionRepository.GetQuestionByID(ctx, c.Param("questionId"))
	if err != nil {
		return storeError(err, "Question not found")
	}

	var req models.BodyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	body := sanitize.Body(req.Text)
	if body == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Answer body is empty")
	}

	questionID := question.ID.Hex()
	answer := &models.Answer{
		QuestionID: questionID,
		AuthorID:   currentUserID,
		Body:       body,
	}
	if err := h.answerRepository.CreateAnswer(ctx, answer); err != nil {
		h.log.Error().Err(err).Str("question", questionID).Msg("create answer failed")
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.questionRepository.AddAnswersCount(ctx, questionID, 1); err != nil {
		h.log.Warn().Err(err).Str("question", questionID).Msg("answers count not updated")
	}
	if question.AuthorID != currentUserID {
		notif := &models.Notification{
			Kind:        models.NotificationAnswer,
			SenderID:    currentUserID,
			RecipientID: question.AuthorID,
			QuestionID:  questionID,
		}
		if err := h.notificationRepository.CreateNotifications(ctx, notif); err != nil {
			h.log.Warn().Err(err).Str("recipient", question.AuthorID).Msg("answer notification not created")
		}
	}

	views := answerViews(ctx, h.userRepository, h.likeRepository, currentUserID, []models.Answer{*answer})
	return respond(c, http.StatusCreated, views[0])
}

// GetAnswersByQuestion lists a question's answers, oldest first
func (h *AnswerHandler) GetAnswersByQuestion(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	answers, err := h.answerRepository.ListByQuestion(ctx, c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return respond(c, http.StatusOK, echo.Map{
		"answers": answerViews(ctx, h.userRepository, h.likeRepository, currentUserID, answers),
	})
}

// GetAnswersByUser lists a user's answers newest first, each with the title
// of the question it answers.
func (h *AnswerHandler) GetAnswersByUser(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	answers, err := h.answerRepository.ListByAuthor(ctx, c.Param("id"), pageOf(c).limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	questionIDs := make([]string, 0, len(answers))
	for _, a := range answers {
		questionIDs = append(questionIDs, a.QuestionID)
	}
	titles, err := h.questionRepository.GetTitles(ctx, questionIDs)
	if err != nil {
		h.log.Warn().Err(err).Msg("question titles not loaded")
	}

	views := answerViews(ctx, h.userRepository, h.likeRepository, currentUserID, answers)
	for i := range views {
		if title, ok := titles[views[i].QuestionID]; ok {
			views[i].Question = &models.QuestionRef{ID: views[i].QuestionID, Title: title}
		}
	}
	return respond(c, http.StatusOK, echo.Map{"answers": views})
}

func (h *AnswerHandler) ownAnswer(c echo.Context, userID string) (*models.Answer, error) {
	answer, err := h.answerRepository.GetAnswerByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return nil, storeError(err, "Answer not found")
	}
	if answer.AuthorID != userID {
		return nil, echo.NewHTTPError(http.StatusForbidden, "You can only modify your own answers")
	}
	return answer, nil
}

// UpdateAnswer edits the body of the caller's answer
func (h *AnswerHandler) UpdateAnswer(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	answer, err := h.ownAnswer(c, currentUserID)
	if err != nil {
		return err
	}

	var req models.BodyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	body := sanitize.Body(req.Text)
	if body == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Answer body is empty")
	}

	ctx := c.Request().Context()
	updated, err := h.answerRepository.UpdateBody(ctx, answer.ID, body)
	if err != nil {
		return storeError(err, "Answer not found")
	}

	views := answerViews(ctx, h.userRepository, h.likeRepository, currentUserID, []models.Answer{*updated})
	return respond(c, http.StatusOK, views[0])
}

// DeleteAnswer removes the caller's answer with its comments and likes
func (h *AnswerHandler) DeleteAnswer(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	answer, err := h.ownAnswer(c, currentUserID)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	removed, err := h.answerRepository.DeleteCascade(ctx, answer.ID)
	if err != nil {
		return storeError(err, "Answer not found")
	}
	if err := h.questionRepository.AddAnswersCount(ctx, answer.QuestionID, -1); err != nil {
		h.log.Warn().Err(err).Str("question", answer.QuestionID).Msg("answers count not updated")
	}
	h.cache.InvalidatePrefix(ctx, "comments:"+answer.ID+":")

	if removed == nil {
		removed = []string{}
	}
	h.log.Info().Str("answer", answer.ID).Int("comments", len(removed)).Msg("answer deleted")
	return respond(c, http.StatusOK, echo.Map{"id": answer.ID, "removedComments": removed})
}
