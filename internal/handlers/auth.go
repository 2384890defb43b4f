package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/anonto42/wisora/internal/middleware"
	"github.com/anonto42/wisora/internal/models"
	"github.com/anonto42/wisora/internal/repositories"
	"github.com/anonto42/wisora/internal/sanitize"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	userRepository repositories.UserRepository
	verifier       middleware.IDTokenVerifier
	jwtSecret      string
	jwtTTL         time.Duration
	log            zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler. verifier may be nil when Firebase
// is not configured; firebase-login then answers 503.
func NewAuthHandler(userRepo repositories.UserRepository, verifier middleware.IDTokenVerifier, jwtSecret string, jwtTTL time.Duration, log zerolog.Logger) *AuthHandler {
	if jwtTTL <= 0 {
		jwtTTL = 72 * time.Hour
	}
	return &AuthHandler{
		userRepository: userRepo,
		verifier:       verifier,
		jwtSecret:      jwtSecret,
		jwtTTL:         jwtTTL,
		log:            log.With().Str("handler", "auth").Logger(),
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/signup", h.Signup)
	g.POST("/signin", h.SignIn)
	g.POST("/firebase-login", h.FirebaseLogin)
}

// Signup handles local user registration with email and password
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.SignupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := h.userRepository.GetUserByEmail(ctx, email); err == nil {
		return echo.NewHTTPError(http.StatusConflict, "User with this email already registered")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, "Database error")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	user := &models.User{
		Username: sanitize.Text(req.Username),
		Email:    email,
		Password: string(hashedPassword),
	}
	if err := h.userRepository.CreateUser(ctx, user); err != nil {
		h.log.Error().Err(err).Str("email", email).Msg("create user failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create user")
	}

	token, err := h.generateJWT(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token after signup")
	}
	h.log.Info().Str("user_id", user.ID).Msg("user signed up")
	return respond(c, http.StatusCreated, echo.Map{"token": token, "user": user})
}

// SignIn handles local user authentication with email and password
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req models.SignInRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByEmail(c.Request().Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil || user.Password == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}

	token, err := h.generateJWT(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}
	return respond(c, http.StatusOK, echo.Map{"token": token, "user": user})
}

// FirebaseLogin verifies a Firebase ID token and issues a local JWT,
// creating or linking the local account on first use.
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	if h.verifier == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Firebase login is not configured")
	}

	var req models.FirebaseLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	token, err := h.verifier.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}

	firebaseUID := token.UID
	email, _ := token.Claims["email"].(string)
	email = strings.ToLower(email)
	name, _ := token.Claims["name"].(string)

	user, err := h.userRepository.GetUserByFirebaseUID(ctx, firebaseUID)
	switch {
	case err == nil:
	case errors.Is(err, repositories.ErrNotFound):
		user, err = h.linkOrCreate(c, firebaseUID, email, name)
		if err != nil {
			return err
		}
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Database error")
	}

	localJWT, err := h.generateJWT(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate local JWT")
	}
	return respond(c, http.StatusOK, echo.Map{"token": localJWT, "user": user})
}

func (h *AuthHandler) linkOrCreate(c echo.Context, firebaseUID, email, name string) (*models.User, error) {
	ctx := c.Request().Context()
	if email != "" {
		user, err := h.userRepository.GetUserByEmail(ctx, email)
		if err == nil {
			user.FirebaseUID = &firebaseUID
			if err := h.userRepository.UpdateUser(ctx, user); err != nil {
				return nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to update user with Firebase UID")
			}
			return user, nil
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, echo.NewHTTPError(http.StatusInternalServerError, "Database error")
		}
	}

	username := usernameFrom(name, email)
	user := &models.User{
		Username:    username,
		Email:       email,
		FirebaseUID: &firebaseUID,
	}
	if err := h.userRepository.CreateUser(ctx, user); err != nil {
		h.log.Error().Err(err).Str("firebase_uid", firebaseUID).Msg("create firebase user failed")
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to create user")
	}
	return user, nil
}

// usernameFrom derives a unique-ish handle for accounts created from Firebase.
func usernameFrom(name, email string) string {
	base := name
	if base == "" {
		base, _, _ = strings.Cut(email, "@")
	}
	var b strings.Builder
	for _, r := range strings.ToLower(sanitize.Text(base)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	handle := b.String()
	if len(handle) > 40 {
		handle = handle[:40]
	}
	if len(handle) < 3 {
		handle = "user"
	}
	return handle + uuid.NewString()[:8]
}

// generateJWT generates a JWT token for a given user
func (h *AuthHandler) generateJWT(user *models.User) (string, error) {
	now := time.Now()
	claims := &models.JwtCustomClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(h.jwtTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.jwtSecret))
}
