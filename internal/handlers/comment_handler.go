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

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	commentRepository repositories.CommentRepository
	answerRepository  repositories.AnswerRepository
	userRepository    repositories.UserRepository
	cache             cache.Cache
	log               zerolog.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(commentRepo repositories.CommentRepository, answerRepo repositories.AnswerRepository, userRepo repositories.UserRepository, c cache.Cache, log zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		commentRepository: commentRepo,
		answerRepository:  answerRepo,
		userRepository:    userRepo,
		cache:             c,
		log:               log.With().Str("handler", "comments").Logger(),
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/comments/answer/:id", h.CommentOnAnswer)
	g.POST("/comments/comment/:id", h.ReplyToComment)
	g.GET("/comments/:parentId", h.GetThread)
	g.PUT("/comments/:id", h.UpdateComment)
	g.DELETE("/comments/:id", h.DeleteComment)
}

func threadKey(answerID, parentID string) string {
	return "comments:" + answerID + ":" + parentID
}

func (h *CommentHandler) invalidate(c echo.Context, answerID string) {
	h.cache.InvalidatePrefix(c.Request().Context(), "comments:"+answerID+":")
}

func (h *CommentHandler) create(c echo.Context, comment *models.Comment) error {
	var req models.BodyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	comment.Body = sanitize.Body(req.Text)
	if comment.Body == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Comment body is empty")
	}

	ctx := c.Request().Context()
	if err := h.commentRepository.CreateComment(ctx, comment); err != nil {
		h.log.Error().Err(err).Str("parent", comment.ParentID).Msg("create comment failed")
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.invalidate(c, comment.AnswerID)

	views := commentViews(ctx, h.userRepository, []models.Comment{*comment})
	return respond(c, http.StatusCreated, views[0])
}

// CommentOnAnswer attaches a top-level comment to an answer
func (h *CommentHandler) CommentOnAnswer(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	answer, err := h.answerRepository.GetAnswerByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return storeError(err, "Answer not found")
	}

	return h.create(c, &models.Comment{
		ParentID:   answer.ID,
		ParentKind: models.ParentAnswer,
		AnswerID:   answer.ID,
		AuthorID:   currentUserID,
	})
}

// ReplyToComment attaches a reply below an existing, non-deleted comment
func (h *CommentHandler) ReplyToComment(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	parent, err := h.commentRepository.GetCommentByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return storeError(err, "Comment not found")
	}
	if parent.Deleted {
		return echo.NewHTTPError(http.StatusNotFound, "Comment not found")
	}

	return h.create(c, &models.Comment{
		ParentID:   parent.ID,
		ParentKind: models.ParentComment,
		AnswerID:   parent.AnswerID,
		AuthorID:   currentUserID,
	})
}

// GetThread returns the flattened subtree below an answer or a comment
func (h *CommentHandler) GetThread(c echo.Context) error {
	if _, err := requireUser(c); err != nil {
		return err
	}

	ctx := c.Request().Context()
	parentID := c.Param("parentId")

	answerID := parentID
	if _, err := h.answerRepository.GetAnswerByID(ctx, parentID); err != nil {
		parent, cerr := h.commentRepository.GetCommentByID(ctx, parentID)
		if cerr != nil {
			return storeError(cerr, "Parent not found")
		}
		answerID = parent.AnswerID
	}

	key := threadKey(answerID, parentID)
	var views []models.CommentView
	if h.cache.GetJSON(ctx, key, &views) {
		return respond(c, http.StatusOK, echo.Map{"comments": views})
	}

	comments, err := h.commentRepository.ListSubtree(ctx, parentID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	views = commentViews(ctx, h.userRepository, comments)
	h.cache.SetJSON(ctx, key, views)

	return respond(c, http.StatusOK, echo.Map{"comments": views})
}

// ownComment loads a live comment and checks the caller wrote it
func (h *CommentHandler) ownComment(c echo.Context, userID string) (*models.Comment, error) {
	comment, err := h.commentRepository.GetCommentByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return nil, storeError(err, "Comment not found")
	}
	if comment.Deleted {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Comment not found")
	}
	if comment.AuthorID != userID {
		return nil, echo.NewHTTPError(http.StatusForbidden, "You can only modify your own comments")
	}
	return comment, nil
}

// UpdateComment edits the body of the caller's comment
func (h *CommentHandler) UpdateComment(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	comment, err := h.ownComment(c, currentUserID)
	if err != nil {
		return err
	}

	var req models.BodyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	body := sanitize.Body(req.Text)
	if body == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Comment body is empty")
	}

	ctx := c.Request().Context()
	updated, err := h.commentRepository.UpdateBody(ctx, comment.ID, body)
	if err != nil {
		return storeError(err, "Comment not found")
	}
	h.invalidate(c, comment.AnswerID)

	views := commentViews(ctx, h.userRepository, []models.Comment{*updated})
	return respond(c, http.StatusOK, views[0])
}

// DeleteComment soft-deletes the caller's comment; replies stay attached
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	comment, err := h.ownComment(c, currentUserID)
	if err != nil {
		return err
	}

	if err := h.commentRepository.SoftDelete(c.Request().Context(), comment.ID); err != nil {
		return storeError(err, "Comment not found")
	}
	h.invalidate(c, comment.AnswerID)

	return respond(c, http.StatusOK, echo.Map{"id": comment.ID, "deleted": true})
}
