package handlers

import (
	"net/http"

	"github.com/anonto42/dispatch/backend/internal/services"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	accounts *services.AccountService
	log      logrus.FieldLogger
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(accounts *services.AccountService, log logrus.FieldLogger) *FollowHandler {
	return &FollowHandler{accounts: accounts, log: log}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/follow/:id", h.FollowUser)
	g.DELETE("/follow/:id", h.UnfollowUser)
	g.GET("/follow/:id/status", h.FollowStatus)
	g.GET("/:id/follow-counts", h.FollowCounts)
	g.GET("/:id/followers", h.Followers)
	g.GET("/:id/following", h.Following)
}

// FollowUser follows a user
func (h *FollowHandler) FollowUser(c echo.Context) error {
	email, err := currentEmail(c)
	if err != nil {
		return err
	}
	res, err := h.accounts.FollowUser(c.Request().Context(), email, c.Param("id"))
	if err != nil {
		return toHTTPError(c, h.log, err)
	}
	return ok(c, http.StatusOK, echo.Map{"following": true, "message": res.Message})
}

// UnfollowUser unfollows a user
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	email, err := currentEmail(c)
	if err != nil {
		return err
	}
	res, err := h.accounts.UnfollowUser(c.Request().Context(), email, c.Param("id"))
	if err != nil {
		return toHTTPError(c, h.log, err)
	}
	return ok(c, http.StatusOK, echo.Map{"following": false, "message": res.Message})
}

func (h *FollowHandler) FollowStatus(c echo.Context) error {
	email, err := currentEmail(c)
	if err != nil {
		return err
	}
	following, err := h.accounts.IsFollowing(c.Request().Context(), email, c.Param("id"))
	if err != nil {
		return toHTTPError(c, h.log, err)
	}
	return ok(c, http.StatusOK, echo.Map{"following": following})
}

func (h *FollowHandler) FollowCounts(c echo.Context) error {
	counts, err := h.accounts.GetFollowCounts(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(c, h.log, err)
	}
	return ok(c, http.StatusOK, counts)
}

func (h *FollowHandler) Followers(c echo.Context) error {
	profiles, err := h.accounts.GetFollowers(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(c, h.log, err)
	}
	return ok(c, http.StatusOK, profiles)
}

func (h *FollowHandler) Following(c echo.Context) error {
	profiles, err := h.accounts.GetFollowing(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(c, h.log, err)
	}
	return ok(c, http.StatusOK, profiles)
}
