package handlers

import (
	"net/http"
	"strconv"

	"github.com/anonto42/dispatch/backend/internal/models"
	"github.com/anonto42/dispatch/backend/internal/services"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// CreditHandler handles credit transfers and ledger history
type CreditHandler struct {
	accounts *services.AccountService
	log      logrus.FieldLogger
}

// NewCreditHandler creates a new CreditHandler
func NewCreditHandler(accounts *services.AccountService, log logrus.FieldLogger) *CreditHandler {
	return &CreditHandler{accounts: accounts, log: log}
}

// RegisterCreditRoutes registers credit routes
func (h *CreditHandler) RegisterCreditRoutes(g *echo.Group) {
	g.POST("/credit/transfer", h.Transfer)
	g.GET("/credit/history", h.History)
}

// Transfer moves credit from the caller to another profile
func (h *CreditHandler) Transfer(c echo.Context) error {
	email, err := currentEmail(c)
	if err != nil {
		return err
	}

	var req models.TransferCreditRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.accounts.TransferCredit(c.Request().Context(), email, req.RecipientID, req.Amount)
	if err != nil {
		return toHTTPError(c, h.log, err)
	}
	return ok(c, http.StatusOK, res)
}

// History lists the caller's ledger entries, newest first
func (h *CreditHandler) History(c echo.Context) error {
	email, err := currentEmail(c)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	entries, err := h.accounts.ListCreditHistory(c.Request().Context(), email, limit)
	if err != nil {
		return toHTTPError(c, h.log, err)
	}
	return ok(c, http.StatusOK, entries)
}
