package repositories

import (
	"context"
	"sync"
	"testing"

	"github.com/anonto42/dispatch/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.Profile{},
		&models.Follow{},
		&models.CreditLedgerEntry{},
		&models.Notification{},
	))
	return db
}

func seedProfile(t *testing.T, repo *PostgresProfileRepository, email string, credit int64) *models.Profile {
	t.Helper()
	p := &models.Profile{Email: email, Credit: credit}
	require.NoError(t, repo.CreateProfile(context.Background(), p))
	require.NotEmpty(t, p.ID)
	return p
}

func TestProfileRepository_FindOrCreateByEmail(t *testing.T) {
	repo := NewPostgresProfileRepository(newTestDB(t))
	ctx := context.Background()

	first, err := repo.FindOrCreateByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	second, err := repo.FindOrCreateByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Empty(t, second.SavedPosts)

	all, err := repo.ListProfiles(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestProfileRepository_FindOrCreateConcurrent(t *testing.T) {
	repo := NewPostgresProfileRepository(newTestDB(t))
	var wg sync.WaitGroup
	ids := make(chan string, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := repo.FindOrCreateByEmail(context.Background(), "race@example.com")
			if err == nil {
				ids <- p.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	var seen []string
	for id := range ids {
		seen = append(seen, id)
	}
	require.NotEmpty(t, seen)
	for _, id := range seen {
		assert.Equal(t, seen[0], id)
	}
}

func TestProfileRepository_DuplicateEmail(t *testing.T) {
	repo := NewPostgresProfileRepository(newTestDB(t))
	seedProfile(t, repo, "ada@example.com", 0)
	err := repo.CreateProfile(context.Background(), &models.Profile{Email: "ada@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestProfileRepository_UpdateProfileFields(t *testing.T) {
	repo := NewPostgresProfileRepository(newTestDB(t))
	ctx := context.Background()
	p := seedProfile(t, repo, "ada@example.com", 42)

	name := "Ada"
	saved := models.StringSet{"p1", "p2"}
	require.NoError(t, repo.UpdateProfileFields(ctx, p.ID, models.ProfileChanges{FullName: &name, SavedPosts: &saved}))

	bio := "math"
	require.NoError(t, repo.UpdateProfileFields(ctx, p.ID, models.ProfileChanges{Bio: &bio}))

	got, err := repo.GetProfileByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.FullName)
	assert.Equal(t, "math", got.Bio)
	assert.Equal(t, models.StringSet{"p1", "p2"}, got.SavedPosts)
	assert.Equal(t, int64(42), got.Credit)

	err = repo.UpdateProfileFields(ctx, "missing", models.ProfileChanges{Bio: &bio})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetProfileByID(ctx, "missing")
	assert.True(t, IsNotFound(err))
}

func TestFollowRepository(t *testing.T) {
	db := newTestDB(t)
	profiles := NewPostgresProfileRepository(db)
	follows := NewPostgresFollowRepository(db)
	ctx := context.Background()

	a := seedProfile(t, profiles, "a@example.com", 0)
	b := seedProfile(t, profiles, "b@example.com", 0)
	c := seedProfile(t, profiles, "c@example.com", 0)

	require.NoError(t, follows.CreateFollow(ctx, &models.Follow{FollowerID: c.ID, FollowingID: b.ID}))
	require.NoError(t, follows.CreateFollow(ctx, &models.Follow{FollowerID: a.ID, FollowingID: b.ID}))
	require.NoError(t, follows.CreateFollow(ctx, &models.Follow{FollowerID: b.ID, FollowingID: a.ID}))

	err := follows.CreateFollow(ctx, &models.Follow{FollowerID: a.ID, FollowingID: b.ID})
	assert.ErrorIs(t, err, ErrDuplicate)

	ok, err := follows.IsFollowing(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = follows.IsFollowing(ctx, a.ID, c.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := follows.GetFollowersCount(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	n, err = follows.GetFollowingCount(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	followers, err := follows.GetFollowers(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, followers, 2)
	// edge order, not profile creation order
	assert.Equal(t, []string{c.ID, a.ID}, []string{followers[0].ID, followers[1].ID})

	following, err := follows.GetFollowing(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, "a@example.com", following[0].Email)

	require.NoError(t, follows.DeleteFollow(ctx, a.ID, b.ID))
	assert.ErrorIs(t, follows.DeleteFollow(ctx, a.ID, b.ID), ErrNotFound)
}

func TestCreditRepository_Transfer(t *testing.T) {
	db := newTestDB(t)
	profiles := NewPostgresProfileRepository(db)
	credits := NewPostgresCreditRepository(db)
	ctx := context.Background()

	a := seedProfile(t, profiles, "a@example.com", 100)
	b := seedProfile(t, profiles, "b@example.com", 0)

	entry, err := credits.Transfer(ctx, a.ID, b.ID, 30)
	require.NoError(t, err)
	assert.Len(t, entry.ID, 26)
	assert.Equal(t, models.CreditKindTransfer, entry.Kind)
	assert.Equal(t, int64(70), entry.SenderBalance)
	assert.Equal(t, int64(30), entry.RecipientBalance)

	_, err = credits.Transfer(ctx, a.ID, b.ID, 71)
	assert.ErrorIs(t, err, ErrInsufficientCredit)

	_, err = credits.Transfer(ctx, a.ID, "missing", 10)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = credits.Transfer(ctx, "missing", b.ID, 10)
	assert.ErrorIs(t, err, ErrNotFound)

	gotA, err := profiles.GetProfileByID(ctx, a.ID)
	require.NoError(t, err)
	gotB, err := profiles.GetProfileByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(70), gotA.Credit, "failed transfers must roll back the debit")
	assert.Equal(t, int64(30), gotB.Credit)

	entries, err := credits.ListEntries(ctx, a.ID, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCreditRepository_AddAndSet(t *testing.T) {
	db := newTestDB(t)
	profiles := NewPostgresProfileRepository(db)
	credits := NewPostgresCreditRepository(db)
	ctx := context.Background()
	p := seedProfile(t, profiles, "p@example.com", 5)

	entry, err := credits.AddCredit(ctx, p.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(15), entry.RecipientBalance)

	entry, err = credits.SetCredit(ctx, p.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), entry.RecipientBalance)

	_, err = credits.AddCredit(ctx, "missing", 1)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = credits.SetCredit(ctx, "missing", 1)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := profiles.GetProfileByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Credit)

	entries, err := credits.ListEntries(ctx, p.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.CreditKindAdminSet, entries[0].Kind)
	assert.Equal(t, models.CreditKindTopUp, entries[1].Kind)

	entries, err = credits.ListEntries(ctx, p.ID, 1)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestNotificationRepository(t *testing.T) {
	repo := NewPostgresNotificationRepository(newTestDB(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.CreateNotification(ctx, &models.Notification{
			Type:        models.NotificationTypeFollow,
			ActorID:     "actor",
			RecipientID: "me",
			Message:     "hello",
		}))
	}
	require.NoError(t, repo.CreateNotification(ctx, &models.Notification{Type: models.NotificationTypeCredit, RecipientID: "other"}))

	page, total, err := repo.GetByRecipientID(ctx, "me", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 2)
	assert.Greater(t, page[0].ID, page[1].ID)

	unread, err := repo.GetUnreadCount(ctx, "me")
	require.NoError(t, err)
	assert.Equal(t, int64(3), unread)

	require.NoError(t, repo.MarkAsRead(ctx, "me", page[0].ID))
	assert.ErrorIs(t, repo.MarkAsRead(ctx, "other", page[0].ID), ErrNotFound)

	unread, err = repo.GetUnreadCount(ctx, "me")
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	require.NoError(t, repo.MarkAllAsRead(ctx, "me"))
	unread, err = repo.GetUnreadCount(ctx, "me")
	require.NoError(t, err)
	assert.Zero(t, unread)
}
