package handlers

import (
	"net/http"

	"github.com/anonto42/dispatch/backend/internal/apperrors"
	"github.com/anonto42/dispatch/backend/internal/middleware"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// toHTTPError converts a service error into an echo.HTTPError. Untagged
// errors are logged and hidden behind a generic 500.
func toHTTPError(c echo.Context, log logrus.FieldLogger, err error) error {
	status := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).WithFields(logrus.Fields{
			"method": c.Request().Method,
			"path":   c.Path(),
		}).Error("Request failed")
		return echo.NewHTTPError(status, "Internal server error")
	}
	return echo.NewHTTPError(status, err.Error())
}

// currentEmail returns the authenticated caller's email
func currentEmail(c echo.Context) (string, error) {
	email := middleware.Email(c)
	if email == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	return email, nil
}

func ok(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}
