package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/dispatch/backend/internal/apperrors"
	"github.com/anonto42/dispatch/backend/internal/events"
	"github.com/anonto42/dispatch/backend/internal/models"
	"github.com/anonto42/dispatch/backend/internal/repositories"
	"golang.org/x/sync/errgroup"
)

// MessageResult is a plain confirmation
type MessageResult struct {
	Message string `json:"message"`
}

// FollowUser adds the edge caller -> followingID
func (s *AccountService) FollowUser(ctx context.Context, followerEmail, followingID string) (*MessageResult, error) {
	follower, err := s.profiles.GetProfileByEmail(ctx, followerEmail)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NotFound("Follower profile not found")
		}
		return nil, fmt.Errorf("load follower: %w", err)
	}

	following, err := s.profiles.GetProfileByID(ctx, followingID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NotFound("User to follow not found")
		}
		return nil, fmt.Errorf("load followed profile: %w", err)
	}

	if follower.ID == following.ID {
		return nil, apperrors.Conflict("Cannot follow yourself")
	}

	edge := &models.Follow{FollowerID: follower.ID, FollowingID: following.ID}
	if err := s.follows.CreateFollow(ctx, edge); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.Conflict("Already following this user")
		}
		return nil, fmt.Errorf("create follow: %w", err)
	}

	s.notify(ctx, &models.Notification{
		Type:        models.NotificationTypeFollow,
		ActorID:     follower.ID,
		RecipientID: following.ID,
		TargetID:    follower.ID,
		TargetType:  "profile",
		Message:     follower.DisplayName() + " started following you",
	})
	s.publish(ctx, events.SubjectFollowCreated, events.FollowEvent{
		FollowerID:  follower.ID,
		FollowingID: following.ID,
		At:          time.Now().UTC(),
	})

	return &MessageResult{Message: "User followed successfully"}, nil
}

// UnfollowUser removes the edge caller -> followingID
func (s *AccountService) UnfollowUser(ctx context.Context, followerEmail, followingID string) (*MessageResult, error) {
	follower, err := s.profiles.GetProfileByEmail(ctx, followerEmail)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NotFound("Follower profile not found")
		}
		return nil, fmt.Errorf("load follower: %w", err)
	}

	if err := s.follows.DeleteFollow(ctx, follower.ID, followingID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NotFound("Follow relationship not found")
		}
		return nil, fmt.Errorf("delete follow: %w", err)
	}

	s.publish(ctx, events.SubjectFollowDeleted, events.FollowEvent{
		FollowerID:  follower.ID,
		FollowingID: followingID,
		At:          time.Now().UTC(),
	})
	return &MessageResult{Message: "User unfollowed successfully"}, nil
}

// IsFollowing reports whether the caller follows followingID. An unknown
// caller follows nobody.
func (s *AccountService) IsFollowing(ctx context.Context, followerEmail, followingID string) (bool, error) {
	follower, err := s.profiles.GetProfileByEmail(ctx, followerEmail)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load follower: %w", err)
	}
	ok, err := s.follows.IsFollowing(ctx, follower.ID, followingID)
	if err != nil {
		return false, fmt.Errorf("check follow: %w", err)
	}
	return ok, nil
}

// GetFollowCounts counts both sides of a profile's edges. The two counts are
// read independently and need not agree with each other at a single instant.
func (s *AccountService) GetFollowCounts(ctx context.Context, id string) (*models.FollowCounts, error) {
	var counts models.FollowCounts
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.follows.GetFollowersCount(gctx, id)
		counts.FollowersCount = n
		return err
	})
	g.Go(func() error {
		n, err := s.follows.GetFollowingCount(gctx, id)
		counts.FollowingCount = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("count follows: %w", err)
	}
	return &counts, nil
}

// GetFollowers returns the public views of the profiles following id
func (s *AccountService) GetFollowers(ctx context.Context, id string) ([]models.PublicProfile, error) {
	profiles, err := s.follows.GetFollowers(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list followers: %w", err)
	}
	return publicViews(profiles), nil
}

// GetFollowing returns the public views of the profiles id follows
func (s *AccountService) GetFollowing(ctx context.Context, id string) ([]models.PublicProfile, error) {
	profiles, err := s.follows.GetFollowing(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list following: %w", err)
	}
	return publicViews(profiles), nil
}

func publicViews(profiles []models.Profile) []models.PublicProfile {
	out := make([]models.PublicProfile, 0, len(profiles))
	for i := range profiles {
		out = append(out, profiles[i].ToPublic())
	}
	return out
}
