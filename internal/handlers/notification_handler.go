package handlers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/anonto42/dispatch/backend/internal/services"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	accounts *services.AccountService
	log      logrus.FieldLogger
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(accounts *services.AccountService, log logrus.FieldLogger) *NotificationHandler {
	return &NotificationHandler{accounts: accounts, log: log}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
}

// GetNotifications returns paginated notifications
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	email, err := currentEmail(c)
	if err != nil {
		return err
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	res, err := h.accounts.ListNotifications(c.Request().Context(), email, page, limit)
	if err != nil {
		return toHTTPError(c, h.log, err)
	}

	totalPages := int(math.Ceil(float64(res.Total) / float64(res.Limit)))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"notifications": res.Notifications,
		},
		"meta": echo.Map{
			"currentPage":     res.Page,
			"totalPages":      totalPages,
			"totalItems":      res.Total,
			"itemsPerPage":    res.Limit,
			"hasNextPage":     res.Page < totalPages,
			"hasPreviousPage": res.Page > 1,
		},
	})
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	email, err := currentEmail(c)
	if err != nil {
		return err
	}
	count, err := h.accounts.UnreadCount(c.Request().Context(), email)
	if err != nil {
		return toHTTPError(c, h.log, err)
	}
	return ok(c, http.StatusOK, echo.Map{"count": count})
}

// MarkAsRead marks a notification as read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	email, err := currentEmail(c)
	if err != nil {
		return err
	}

	notifID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid notification ID")
	}

	if err := h.accounts.MarkRead(c.Request().Context(), email, uint(notifID)); err != nil {
		return toHTTPError(c, h.log, err)
	}
	return ok(c, http.StatusOK, echo.Map{"success": true})
}

// MarkAllAsRead marks all notifications as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	email, err := currentEmail(c)
	if err != nil {
		return err
	}
	if err := h.accounts.MarkAllRead(c.Request().Context(), email); err != nil {
		return toHTTPError(c, h.log, err)
	}
	return ok(c, http.StatusOK, echo.Map{"success": true})
}
