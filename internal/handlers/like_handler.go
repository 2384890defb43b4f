package handlers

import (
	"net/http"

	"github.com/anonto42/wisora/internal/models"
	"github.com/anonto42/wisora/internal/repositories"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	likeRepository     repositories.LikeRepository
	questionRepository repositories.QuestionRepository
	answerRepository   repositories.AnswerRepository
	commentRepository  repositories.CommentRepository
	log                zerolog.Logger
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(likeRepo repositories.LikeRepository, questionRepo repositories.QuestionRepository, answerRepo repositories.AnswerRepository, commentRepo repositories.CommentRepository, log zerolog.Logger) *LikeHandler {
	return &LikeHandler{
		likeRepository:     likeRepo,
		questionRepository: questionRepo,
		answerRepository:   answerRepo,
		commentRepository:  commentRepo,
		log:                log.With().Str("handler", "likes").Logger(),
	}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/likes/toggle", h.ToggleLike)
	g.GET("/likes/:targetId", h.GetLikeStatus)
}

// targetExists verifies the liked entity is still there
func (h *LikeHandler) targetExists(c echo.Context, targetID, kind string) error {
	ctx := c.Request().Context()
	var err error
	switch kind {
	case models.TargetQuestion:
		_, err = h.questionRepository.GetQuestionByID(ctx, targetID)
	case models.TargetAnswer:
		_, err = h.answerRepository.GetAnswerByID(ctx, targetID)
	case models.TargetComment:
		var comment *models.Comment
		comment, err = h.commentRepository.GetCommentByID(ctx, targetID)
		if err == nil && comment.Deleted {
			err = repositories.ErrNotFound
		}
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid target type")
	}
	if err != nil {
		return storeError(err, "Target not found")
	}
	return nil
}

// ToggleLike likes or unlikes a target and returns the authoritative state
func (h *LikeHandler) ToggleLike(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req models.ToggleLikeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.targetExists(c, req.TargetID, req.TargetType); err != nil {
		return err
	}

	liked, count, err := h.likeRepository.Toggle(c.Request().Context(), req.TargetID, req.TargetType, userID)
	if err != nil {
		h.log.Error().Err(err).Str("target", req.TargetID).Msg("toggle like failed")
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return respond(c, http.StatusOK, models.LikeStatus{Liked: liked, Count: count})
}

// GetLikeStatus returns whether the user likes a target and its like count
func (h *LikeHandler) GetLikeStatus(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	targetID := c.Param("targetId")
	kind := c.QueryParam("targetType")
	if err := h.targetExists(c, targetID, kind); err != nil {
		return err
	}

	liked, count, err := h.likeRepository.Status(c.Request().Context(), targetID, kind, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return respond(c, http.StatusOK, models.LikeStatus{Liked: liked, Count: count})
}
