package repositories

import (
	"context"

	"github.com/anonto42/dispatch/backend/internal/models"
	"gorm.io/gorm"
)

// FollowRepository defines the interface for follow data operations
type FollowRepository interface {
	CreateFollow(ctx context.Context, follow *models.Follow) error
	DeleteFollow(ctx context.Context, followerID, followingID string) error
	IsFollowing(ctx context.Context, followerID, followingID string) (bool, error)
	GetFollowers(ctx context.Context, profileID string) ([]models.Profile, error)
	GetFollowing(ctx context.Context, profileID string) ([]models.Profile, error)
	GetFollowersCount(ctx context.Context, profileID string) (int64, error)
	GetFollowingCount(ctx context.Context, profileID string) (int64, error)
}

// PostgresFollowRepository implements FollowRepository for PostgreSQL
type PostgresFollowRepository struct {
	db *gorm.DB
}

// NewPostgresFollowRepository creates a new PostgresFollowRepository
func NewPostgresFollowRepository(db *gorm.DB) *PostgresFollowRepository {
	return &PostgresFollowRepository{db: db}
}

// CreateFollow inserts an edge; ErrDuplicate when the pair already exists
func (r *PostgresFollowRepository) CreateFollow(ctx context.Context, follow *models.Follow) error {
	return translate(r.db.WithContext(ctx).Create(follow).Error)
}

func (r *PostgresFollowRepository) DeleteFollow(ctx context.Context, followerID, followingID string) error {
	res := r.db.WithContext(ctx).Where("follower_id = ? AND following_id = ?", followerID, followingID).Delete(&models.Follow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresFollowRepository) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("follower_id = ? AND following_id = ?", followerID, followingID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetFollowers returns the profiles following profileID in the order the edges were made
func (r *PostgresFollowRepository) GetFollowers(ctx context.Context, profileID string) ([]models.Profile, error) {
	return r.edgeProfiles(ctx, "follower_id", "following_id", profileID)
}

// GetFollowing returns the profiles profileID follows in the order the edges were made
func (r *PostgresFollowRepository) GetFollowing(ctx context.Context, profileID string) ([]models.Profile, error) {
	return r.edgeProfiles(ctx, "following_id", "follower_id", profileID)
}

func (r *PostgresFollowRepository) edgeProfiles(ctx context.Context, joinCol, matchCol, profileID string) ([]models.Profile, error) {
	var profiles []models.Profile
	err := r.db.WithContext(ctx).
		Joins("JOIN follows ON follows."+joinCol+" = profiles.id").
		Where("follows."+matchCol+" = ?", profileID).
		Order("follows.created_at ASC, follows.id ASC").
		Find(&profiles).Error
	return profiles, err
}

func (r *PostgresFollowRepository) GetFollowersCount(ctx context.Context, profileID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("following_id = ?", profileID).Count(&count).Error
	return count, err
}

func (r *PostgresFollowRepository) GetFollowingCount(ctx context.Context, profileID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("follower_id = ?", profileID).Count(&count).Error
	return count, err
}
