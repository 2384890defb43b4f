package handlers

import (
	"net/http"
	"strconv"

	"github.com/anonto42/wisora/internal/models"
	"github.com/anonto42/wisora/internal/repositories"
	"github.com/labstack/echo/v4"
)

const maxNotifications = 100

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
	userRepository         repositories.UserRepository
	questionRepository     repositories.QuestionRepository
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifRepo repositories.NotificationRepository, userRepo repositories.UserRepository, questionRepo repositories.QuestionRepository) *NotificationHandler {
	return &NotificationHandler{
		notificationRepository: notifRepo,
		userRepository:         userRepo,
		questionRepository:     questionRepo,
	}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PATCH("/notifications/read/:id", h.MarkAsRead)
	g.PATCH("/notifications/read-all", h.MarkAllAsRead)
}

func (h *NotificationHandler) enrich(c echo.Context, notifications []models.Notification) []models.NotificationView {
	ctx := c.Request().Context()
	senderIDs := make([]string, 0, len(notifications))
	questionIDs := make([]string, 0, len(notifications))
	for _, n := range notifications {
		senderIDs = append(senderIDs, n.SenderID)
		if n.QuestionID != "" {
			questionIDs = append(questionIDs, n.QuestionID)
		}
	}
	senders := authorsOf(ctx, h.userRepository, senderIDs)
	titles, err := h.questionRepository.GetTitles(ctx, questionIDs)
	if err != nil {
		titles = map[string]string{}
	}

	views := make([]models.NotificationView, 0, len(notifications))
	for _, n := range notifications {
		view := models.NotificationView{
			ID:        n.ID,
			Kind:      n.Kind,
			Sender:    senders[n.SenderID],
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		}
		if n.QuestionID != "" {
			view.Question = &models.QuestionRef{ID: n.QuestionID, Title: titles[n.QuestionID]}
		}
		views = append(views, view)
	}
	return views
}

// GetNotifications returns the most recent notifications, newest first
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > maxNotifications {
		limit = maxNotifications
	}

	ctx := c.Request().Context()
	notifications, err := h.notificationRepository.ListByRecipient(ctx, currentUserID, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	unread, err := h.notificationRepository.GetUnreadCount(ctx, currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return respond(c, http.StatusOK, echo.Map{
		"notifications": h.enrich(c, notifications),
		"unreadCount":   unread,
	})
}

func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	count, err := h.notificationRepository.GetUnreadCount(c.Request().Context(), currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return respond(c, http.StatusOK, echo.Map{"count": count})
}

// MarkAsRead marks one of the caller's notifications as read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	id := c.Param("id")
	if err := h.notificationRepository.MarkAsRead(c.Request().Context(), id, currentUserID); err != nil {
		return storeError(err, "Notification not found")
	}
	return respond(c, http.StatusOK, echo.Map{"id": id, "read": true})
}

// MarkAllAsRead marks all of the caller's notifications as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	if err := h.notificationRepository.MarkAllAsRead(c.Request().Context(), currentUserID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return respond(c, http.StatusOK, echo.Map{"updated": true})
}
