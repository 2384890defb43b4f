package handlers

import (
	"net/http"
	"slices"

	"github.com/anonto42/wisora/internal/models"
	"github.com/anonto42/wisora/internal/repositories"
	"github.com/anonto42/wisora/internal/sanitize"
	"github.com/labstack/echo/v4"
)

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	userRepository   repositories.UserRepository
	followRepository repositories.FollowRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository, followRepo repositories.FollowRepository) *UserHandler {
	return &UserHandler{userRepository: userRepo, followRepository: followRepo}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/users/me", h.GetProfile)
	g.PUT("/users/me", h.UpdateProfile)
	g.GET("/users/suggested", h.GetSuggested)
	g.GET("/users/community", h.GetCommunity)
	g.GET("/users/:id", h.GetUser)
}

// GetUser returns another user's profile and whether the caller follows them
func (h *UserHandler) GetUser(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := h.userRepository.GetUserByID(ctx, c.Param("id"))
	if err != nil {
		return storeError(err, "User profile not found")
	}

	following := false
	if user.ID != currentUserID {
		following, err = h.followRepository.IsFollowing(ctx, currentUserID, user.ID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return respond(c, http.StatusOK, echo.Map{"user": user, "isFollowing": following})
}

// GetProfile retrieves the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByID(c.Request().Context(), currentUserID)
	if err != nil {
		return storeError(err, "User profile not found")
	}
	return respond(c, http.StatusOK, user)
}

// UpdateProfile updates the authenticated user's profile
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req models.UpdateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := h.userRepository.GetUserByID(ctx, currentUserID)
	if err != nil {
		return storeError(err, "User profile not found")
	}

	if req.Username != "" {
		user.Username = sanitize.Text(req.Username)
	}
	if req.Bio != "" {
		user.Bio = sanitize.Text(req.Bio)
	}
	if req.Avatar != "" {
		user.Avatar = req.Avatar
	}
	if req.Cover != "" {
		user.Cover = req.Cover
	}

	if err := h.userRepository.UpdateUser(ctx, user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return respond(c, http.StatusOK, user)
}

const suggestedCount = 5

// GetSuggested lists the most followed users the caller does not follow yet
func (h *UserHandler) GetSuggested(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	following, err := h.followRepository.GetFollowingIDs(ctx, currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	users, err := h.userRepository.ListSuggested(ctx, append(following, currentUserID), suggestedCount)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	cards := make([]models.UserCard, 0, len(users))
	for i := range users {
		cards = append(cards, userCard(&users[i], false))
	}
	return respond(c, http.StatusOK, echo.Map{"users": cards})
}

// GetCommunity lists members matching ?search=, most followed first
func (h *UserHandler) GetCommunity(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	users, err := h.userRepository.SearchUsers(ctx, sanitize.Text(c.QueryParam("search")), currentUserID, pageOf(c).limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	following, err := h.followRepository.GetFollowingIDs(ctx, currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	cards := make([]models.UserCard, 0, len(users))
	for i := range users {
		cards = append(cards, userCard(&users[i], slices.Contains(following, users[i].ID)))
	}
	return respond(c, http.StatusOK, echo.Map{"users": cards})
}

func userCard(u *models.User, following bool) models.UserCard {
	return models.UserCard{
		UserCompact:    u.ToCompact(),
		Bio:            u.Bio,
		FollowersCount: u.FollowersCount,
		IsFollowing:    following,
	}
}
