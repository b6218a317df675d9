package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/anonto42/dispatch/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowStore_EdgeOrder(t *testing.T) {
	s := New()
	ctx := context.Background()
	profiles := s.Profiles()

	a, err := profiles.FindOrCreateByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	b, err := profiles.FindOrCreateByEmail(ctx, "b@example.com")
	require.NoError(t, err)
	c, err := profiles.FindOrCreateByEmail(ctx, "c@example.com")
	require.NoError(t, err)

	follows := s.Follows()
	require.NoError(t, follows.CreateFollow(ctx, &models.Follow{FollowerID: c.ID, FollowingID: b.ID}))
	require.NoError(t, follows.CreateFollow(ctx, &models.Follow{FollowerID: a.ID, FollowingID: b.ID}))

	followers, err := follows.GetFollowers(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, followers, 2)
	assert.Equal(t, []string{c.ID, a.ID}, []string{followers[0].ID, followers[1].ID})
}

func TestPostStore_GetPostsByAuthorOldestFirst(t *testing.T) {
	s := New()
	ctx := context.Background()
	posts := s.Posts()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, title := range []string{"late", "early", "middle"} {
		offset := []time.Duration{2 * time.Hour, 0, time.Hour}[i]
		require.NoError(t, posts.CreatePost(ctx, &models.Post{
			AuthorID:  "author-1",
			Title:     title,
			CreatedAt: base.Add(offset),
		}))
	}
	require.NoError(t, posts.CreatePost(ctx, &models.Post{AuthorID: "someone-else", Title: "other"}))

	got, err := posts.GetPostsByAuthor(ctx, "author-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "early", got[0].Title)
	assert.Equal(t, "middle", got[1].Title)
	assert.Equal(t, "late", got[2].Title)

	recent, err := posts.GetRecentPostsByAuthor(ctx, "author-1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "late", recent[0].Title)
}
