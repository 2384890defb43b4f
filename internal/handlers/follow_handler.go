package handlers

import (
	"net/http"

	"github.com/anonto42/wisora/internal/models"
	"github.com/anonto42/wisora/internal/repositories"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	followRepository       repositories.FollowRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
	log                    zerolog.Logger
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(followRepo repositories.FollowRepository, userRepo repositories.UserRepository, notifRepo repositories.NotificationRepository, log zerolog.Logger) *FollowHandler {
	return &FollowHandler{
		followRepository:       followRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
		log:                    log.With().Str("handler", "follows").Logger(),
	}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/follow/:id", h.ToggleFollow)
	g.GET("/users/follow/:id", h.GetFollowStatus)
}

// ToggleFollow follows the user if not yet followed, unfollows otherwise
func (h *FollowHandler) ToggleFollow(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	targetID := c.Param("id")
	if currentUserID == targetID {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot follow yourself")
	}

	ctx := c.Request().Context()
	if _, err := h.userRepository.GetUserByID(ctx, targetID); err != nil {
		return storeError(err, "User not found")
	}

	following, err := h.followRepository.Toggle(ctx, currentUserID, targetID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if following {
		notif := &models.Notification{
			Kind:        models.NotificationFollow,
			SenderID:    currentUserID,
			RecipientID: targetID,
		}
		if err := h.notificationRepository.CreateNotifications(ctx, notif); err != nil {
			h.log.Warn().Err(err).Str("recipient", targetID).Msg("follow notification not created")
		}
	}

	return respond(c, http.StatusOK, echo.Map{"following": following})
}

func (h *FollowHandler) GetFollowStatus(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	following, err := h.followRepository.IsFollowing(c.Request().Context(), currentUserID, c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return respond(c, http.StatusOK, echo.Map{"following": following})
}
