package handlers

import (
	"net/http"

	"github.com/anonto42/dispatch/backend/internal/models"
	"github.com/anonto42/dispatch/backend/internal/services"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	accounts *services.AccountService
	log      logrus.FieldLogger
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(accounts *services.AccountService, log logrus.FieldLogger) *PostHandler {
	return &PostHandler{accounts: accounts, log: log}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/author/:id", h.GetPostsByAuthor)
	g.POST("/posts/:id/like", h.LikePost)
}

// CreatePost creates a new post
func (h *PostHandler) CreatePost(c echo.Context) error {
	email, err := currentEmail(c)
	if err != nil {
		return err
	}

	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	post, err := h.accounts.CreatePost(c.Request().Context(), email, req)
	if err != nil {
		return toHTTPError(c, h.log, err)
	}
	return ok(c, http.StatusCreated, post)
}

// GetPostsByAuthor retrieves every post of a profile
func (h *PostHandler) GetPostsByAuthor(c echo.Context) error {
	posts, err := h.accounts.ListPostsByAuthor(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(c, h.log, err)
	}
	return ok(c, http.StatusOK, posts)
}

// LikePost increments a post's like counter
func (h *PostHandler) LikePost(c echo.Context) error {
	post, err := h.accounts.LikePost(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(c, h.log, err)
	}
	return ok(c, http.StatusOK, echo.Map{"likes": post.Likes})
}
