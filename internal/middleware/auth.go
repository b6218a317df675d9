package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/anonto42/dispatch/backend/internal/apperrors"
	"github.com/anonto42/dispatch/backend/internal/identity"
	"github.com/anonto42/dispatch/backend/internal/models"
	"github.com/labstack/echo/v4"
)

const (
	identityKey = "identity"
	emailKey    = "email"
)

// TokenValidator resolves a bearer token into an identity
type TokenValidator interface {
	ValidateAccessToken(ctx context.Context, token string) (*identity.UserInfo, error)
}

// BearerAuth creates an Echo middleware that validates the bearer token and
// stores the caller's identity in the context
func BearerAuth(tokens TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header is missing")
			}

			tokenParts := strings.Fields(authHeader)
			if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header must be in Bearer format")
			}

			info, err := tokens.ValidateAccessToken(c.Request().Context(), tokenParts[1])
			if err != nil {
				return echo.NewHTTPError(apperrors.HTTPStatus(err), err.Error())
			}
			if info.Email == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Token carries no email")
			}

			c.Set(identityKey, info)
			c.Set(emailKey, info.Email)
			return next(c)
		}
	}
}

// Email returns the authenticated caller's email, or "" outside BearerAuth
func Email(c echo.Context) string {
	email, _ := c.Get(emailKey).(string)
	return email
}

// Identity returns the authenticated caller's identity
func Identity(c echo.Context) *identity.UserInfo {
	info, _ := c.Get(identityKey).(*identity.UserInfo)
	return info
}

// AdminChecker resolves the caller and fails unless it is an admin
type AdminChecker interface {
	RequireAdmin(ctx context.Context, email string) (*models.Profile, error)
}

// RequireAdmin rejects callers whose profile is not flagged as admin
func RequireAdmin(admins AdminChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, err := admins.RequireAdmin(c.Request().Context(), Email(c)); err != nil {
				status := apperrors.HTTPStatus(err)
				if status == http.StatusInternalServerError {
					return echo.NewHTTPError(status, "Internal server error")
				}
				return echo.NewHTTPError(status, err.Error())
			}
			return next(c)
		}
	}
}
