package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/anonto42/dispatch/backend/internal/apperrors"
	"github.com/anonto42/dispatch/backend/internal/models"
	"github.com/anonto42/dispatch/backend/internal/repositories"
)

// CreatePost stores a post authored by the caller
func (s *AccountService) CreatePost(ctx context.Context, authorEmail string, req models.CreatePostRequest) (*models.Post, error) {
	author, err := s.GetProfile(ctx, authorEmail)
	if err != nil {
		return nil, err
	}
	post := &models.Post{
		AuthorID: author.ID,
		Title:    req.Title,
		Content:  req.Content,
		Summary:  req.Summary,
		Category: req.Category,
		Likes:    0,
		Comments: []string{},
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// ListPostsByAuthor returns every post of a profile, oldest first
func (s *AccountService) ListPostsByAuthor(ctx context.Context, authorID string) ([]models.Post, error) {
	posts, err := s.posts.GetPostsByAuthor(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// LikePost increments the like counter of a post and returns the post
func (s *AccountService) LikePost(ctx context.Context, id string) (*models.Post, error) {
	if err := s.posts.IncrementLikes(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NotFound("Post not found")
		}
		return nil, fmt.Errorf("like post: %w", err)
	}
	post, err := s.posts.GetPostByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NotFound("Post not found")
		}
		return nil, fmt.Errorf("load post: %w", err)
	}
	return post, nil
}
