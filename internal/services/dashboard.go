package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/anonto42/dispatch/backend/internal/apperrors"
	"github.com/anonto42/dispatch/backend/internal/models"
	"github.com/anonto42/dispatch/backend/internal/repositories"
	"golang.org/x/sync/errgroup"
)

const recentActivityLimit = 5

// GetDashboardStats aggregates the caller's posts and follow graph
func (s *AccountService) GetDashboardStats(ctx context.Context, email string) (*models.DashboardStats, error) {
	profile, err := s.profiles.GetProfileByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NotFound("Profile not found")
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}

	var (
		posts  []models.Post
		recent []models.Post
		counts models.FollowCounts
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		posts, err = s.posts.GetPostsByAuthor(gctx, profile.ID)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.posts.GetRecentPostsByAuthor(gctx, profile.ID, recentActivityLimit)
		return err
	})
	g.Go(func() error {
		var err error
		counts.FollowersCount, err = s.follows.GetFollowersCount(gctx, profile.ID)
		return err
	})
	g.Go(func() error {
		var err error
		counts.FollowingCount, err = s.follows.GetFollowingCount(gctx, profile.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("aggregate dashboard: %w", err)
	}

	stats := &models.DashboardStats{
		Categories:     make(map[string]int),
		Timeline:       make(map[string]int),
		RecentActivity: make([]models.RecentPost, 0, len(recent)),
	}
	for _, post := range posts {
		stats.Stats.TotalLikes += post.Likes
		stats.Stats.TotalComments += len(post.Comments)

		category := post.Category
		if category == "" {
			category = models.DefaultCategory
		}
		stats.Categories[category]++
		stats.Timeline[timelineKey(post)]++
	}
	stats.Stats.TotalPosts = len(posts)
	if len(posts) > 0 {
		stats.Stats.AverageLikes = float64(stats.Stats.TotalLikes) / float64(len(posts))
	}
	stats.Stats.SavedPostsCount = len(profile.SavedPosts)
	stats.Stats.FollowersCount = counts.FollowersCount
	stats.Stats.FollowingCount = counts.FollowingCount

	for _, post := range recent {
		stats.RecentActivity = append(stats.RecentActivity, models.RecentPost{
			ID:        post.ID,
			Title:     post.Title,
			Likes:     post.Likes,
			Comments:  len(post.Comments),
			CreatedAt: post.CreatedAt,
		})
	}
	return stats, nil
}

// timelineKey buckets a post by "year-month", month not zero-padded
func timelineKey(post models.Post) string {
	t := post.CreatedAt.UTC()
	return fmt.Sprintf("%d-%d", t.Year(), int(t.Month()))
}
