package handlers

import (
	"net/http"

	"github.com/anonto42/dispatch/backend/internal/models"
	"github.com/anonto42/dispatch/backend/internal/services"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// AdminHandler handles admin-only profile and credit requests. Routes must be
// mounted behind middleware.RequireAdmin.
type AdminHandler struct {
	accounts *services.AccountService
	log      logrus.FieldLogger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(accounts *services.AccountService, log logrus.FieldLogger) *AdminHandler {
	return &AdminHandler{accounts: accounts, log: log}
}

// RegisterAdminRoutes registers admin routes
func (h *AdminHandler) RegisterAdminRoutes(g *echo.Group) {
	g.GET("/profiles", h.ListProfiles)
	g.PUT("/profiles/:id/verify", h.VerifyProfile)
	g.PUT("/profiles/:id/credit", h.SetCredit)
	g.POST("/profiles/:id/credit", h.AddCredit)
}

func (h *AdminHandler) ListProfiles(c echo.Context) error {
	profiles, err := h.accounts.ListProfiles(c.Request().Context())
	if err != nil {
		return toHTTPError(c, h.log, err)
	}
	return ok(c, http.StatusOK, profiles)
}

func (h *AdminHandler) VerifyProfile(c echo.Context) error {
	var req models.VerifyProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	profile, err := h.accounts.VerifyUser(c.Request().Context(), c.Param("id"), *req.IsVerified)
	if err != nil {
		return toHTTPError(c, h.log, err)
	}
	return ok(c, http.StatusOK, profile)
}

// SetCredit overwrites a profile's balance
func (h *AdminHandler) SetCredit(c echo.Context) error {
	var req models.CreditAmountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if req.Amount < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Credit amount cannot be negative")
	}

	res, err := h.accounts.UpdateUserCredit(c.Request().Context(), c.Param("id"), req.Amount)
	if err != nil {
		return toHTTPError(c, h.log, err)
	}
	return ok(c, http.StatusOK, res)
}

// AddCredit tops up a profile's balance
func (h *AdminHandler) AddCredit(c echo.Context) error {
	var req models.CreditAmountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	res, err := h.accounts.AddCredits(c.Request().Context(), c.Param("id"), req.Amount)
	if err != nil {
		return toHTTPError(c, h.log, err)
	}
	return ok(c, http.StatusOK, res)
}
