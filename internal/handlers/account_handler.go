package handlers

import (
	"net/http"

	"github.com/anonto42/dispatch/backend/internal/models"
	"github.com/anonto42/dispatch/backend/internal/services"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// AccountHandler handles profile, saved post and dashboard requests
type AccountHandler struct {
	accounts *services.AccountService
	log      logrus.FieldLogger
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accounts *services.AccountService, log logrus.FieldLogger) *AccountHandler {
	return &AccountHandler{accounts: accounts, log: log}
}

// RegisterAccountRoutes registers profile-related routes
func (h *AccountHandler) RegisterAccountRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
	g.GET("/profiles/:id", h.GetPublicProfile)
	g.GET("/saved-posts", h.GetSavedPosts)
	g.POST("/saved-posts/:postId", h.AddSavedPost)
	g.DELETE("/saved-posts/:postId", h.RemoveSavedPost)
	g.GET("/dashboard", h.GetDashboard)
}

// GetProfile returns the caller's profile, creating it on first access
func (h *AccountHandler) GetProfile(c echo.Context) error {
	email, err := currentEmail(c)
	if err != nil {
		return err
	}
	profile, err := h.accounts.GetProfile(c.Request().Context(), email)
	if err != nil {
		return toHTTPError(c, h.log, err)
	}
	return ok(c, http.StatusOK, profile)
}

// UpdateProfile merges the request into the caller's profile
func (h *AccountHandler) UpdateProfile(c echo.Context) error {
	email, err := currentEmail(c)
	if err != nil {
		return err
	}

	var req models.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.accounts.UpdateProfile(c.Request().Context(), email, req.Changes())
	if err != nil {
		return toHTTPError(c, h.log, err)
	}
	return ok(c, http.StatusOK, res)
}

// GetPublicProfile returns the public view of another profile
func (h *AccountHandler) GetPublicProfile(c echo.Context) error {
	profile, err := h.accounts.GetPublicProfile(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(c, h.log, err)
	}
	return ok(c, http.StatusOK, profile)
}

func (h *AccountHandler) GetSavedPosts(c echo.Context) error {
	email, err := currentEmail(c)
	if err != nil {
		return err
	}
	saved, err := h.accounts.GetSavedPosts(c.Request().Context(), email)
	if err != nil {
		return toHTTPError(c, h.log, err)
	}
	return ok(c, http.StatusOK, echo.Map{"saved_posts": saved})
}

func (h *AccountHandler) AddSavedPost(c echo.Context) error {
	email, err := currentEmail(c)
	if err != nil {
		return err
	}
	saved, err := h.accounts.AddSavedPost(c.Request().Context(), email, c.Param("postId"))
	if err != nil {
		return toHTTPError(c, h.log, err)
	}
	return ok(c, http.StatusOK, echo.Map{"saved_posts": saved})
}

func (h *AccountHandler) RemoveSavedPost(c echo.Context) error {
	email, err := currentEmail(c)
	if err != nil {
		return err
	}
	saved, err := h.accounts.RemoveSavedPost(c.Request().Context(), email, c.Param("postId"))
	if err != nil {
		return toHTTPError(c, h.log, err)
	}
	return ok(c, http.StatusOK, echo.Map{"saved_posts": saved})
}

// GetDashboard returns the caller's post and follower statistics
func (h *AccountHandler) GetDashboard(c echo.Context) error {
	email, err := currentEmail(c)
	if err != nil {
		return err
	}
	stats, err := h.accounts.GetDashboardStats(c.Request().Context(), email)
	if err != nil {
		return toHTTPError(c, h.log, err)
	}
	return ok(c, http.StatusOK, stats)
}
