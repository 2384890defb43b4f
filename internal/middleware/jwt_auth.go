package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anonto42/wisora/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

// UserIDKey is the echo.Context key holding the authenticated user id.
const UserIDKey = "userID"

// TokenAuthenticator resolves a bearer token that is not a local JWT to a
// user id.
type TokenAuthenticator func(ctx context.Context, token string) (string, error)

// JWTAuthMiddleware checks for a valid local JWT. When the token is not one
// of ours, each fallback is tried in order.
func JWTAuthMiddleware(secret string, fallbacks ...TokenAuthenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := bearerToken(c)
			if err != nil {
				return err
			}

			claims, err := ParseToken(secret, tokenString)
			if err == nil {
				c.Set("user", claims)
				c.Set(UserIDKey, claims.UserID)
				return next(c)
			}

			for _, fallback := range fallbacks {
				userID, ferr := fallback(c.Request().Context(), tokenString)
				if ferr == nil && userID != "" {
					c.Set(UserIDKey, userID)
					return next(c)
				}
			}

			if errors.Is(err, jwt.ErrSignatureInvalid) {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token signature")
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
		}
	}
}

// ParseToken validates an HS256 token signed with secret.
func ParseToken(secret, tokenString string) (*models.JwtCustomClaims, error) {
	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
	}
	return parts[1], nil
}
