package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/anonto42/dispatch/backend/internal/apperrors"
	"github.com/anonto42/dispatch/backend/internal/models"
	"github.com/anonto42/dispatch/backend/internal/repositories"
)

// NotificationPage is one page of a profile's notifications
type NotificationPage struct {
	Notifications []models.Notification `json:"notifications"`
	Total         int64                 `json:"total"`
	Page          int                   `json:"page"`
	Limit         int                   `json:"limit"`
}

// ListNotifications pages through the caller's notifications, newest first
func (s *AccountService) ListNotifications(ctx context.Context, email string, page, limit int) (*NotificationPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}
	profile, err := s.GetProfile(ctx, email)
	if err != nil {
		return nil, err
	}
	items, total, err := s.notifications.GetByRecipientID(ctx, profile.ID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	if items == nil {
		items = []models.Notification{}
	}
	return &NotificationPage{Notifications: items, Total: total, Page: page, Limit: limit}, nil
}

// UnreadCount counts the caller's unread notifications
func (s *AccountService) UnreadCount(ctx context.Context, email string) (int64, error) {
	profile, err := s.GetProfile(ctx, email)
	if err != nil {
		return 0, err
	}
	n, err := s.notifications.GetUnreadCount(ctx, profile.ID)
	if err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	return n, nil
}

// MarkRead marks one of the caller's notifications as read
func (s *AccountService) MarkRead(ctx context.Context, email string, id uint) error {
	profile, err := s.GetProfile(ctx, email)
	if err != nil {
		return err
	}
	if err := s.notifications.MarkAsRead(ctx, profile.ID, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NotFound("Notification not found")
		}
		return fmt.Errorf("mark notification: %w", err)
	}
	return nil
}

// MarkAllRead marks every notification of the caller as read
func (s *AccountService) MarkAllRead(ctx context.Context, email string) error {
	profile, err := s.GetProfile(ctx, email)
	if err != nil {
		return err
	}
	if err := s.notifications.MarkAllAsRead(ctx, profile.ID); err != nil {
		return fmt.Errorf("mark notifications: %w", err)
	}
	return nil
}
