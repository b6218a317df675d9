package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/dispatch/backend/internal/models"
	"gorm.io/gorm"
)

// ProfileRepository defines the interface for profile data operations
type ProfileRepository interface {
	FindOrCreateByEmail(ctx context.Context, email string) (*models.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error)
	GetProfileByID(ctx context.Context, id string) (*models.Profile, error)
	CreateProfile(ctx context.Context, profile *models.Profile) error
	UpdateProfileFields(ctx context.Context, id string, changes models.ProfileChanges) error
	ListProfiles(ctx context.Context) ([]models.Profile, error)
}

// PostgresProfileRepository implements ProfileRepository for PostgreSQL
type PostgresProfileRepository struct {
	db *gorm.DB
}

// NewPostgresProfileRepository creates a new PostgresProfileRepository
func NewPostgresProfileRepository(db *gorm.DB) *PostgresProfileRepository {
	return &PostgresProfileRepository{db: db}
}

// FindOrCreateByEmail returns the profile for email, inserting an empty one
// on first sight. A concurrent insert of the same email is resolved by one re-read.
func (r *PostgresProfileRepository) FindOrCreateByEmail(ctx context.Context, email string) (*models.Profile, error) {
	profile := models.Profile{Email: email}
	err := r.db.WithContext(ctx).Where(models.Profile{Email: email}).FirstOrCreate(&profile).Error
	if err == nil {
		return &profile, nil
	}
	if !isDuplicateKey(err) {
		return nil, err
	}
	return r.GetProfileByEmail(ctx, email)
}

// GetProfileByEmail retrieves a profile by its login email
func (r *PostgresProfileRepository) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&profile).Error; err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

// GetProfileByID retrieves a profile by ID
func (r *PostgresProfileRepository) GetProfileByID(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

// CreateProfile inserts a new profile; ErrDuplicate when the email is taken
func (r *PostgresProfileRepository) CreateProfile(ctx context.Context, profile *models.Profile) error {
	return translate(r.db.WithContext(ctx).Create(profile).Error)
}

// UpdateProfileFields writes only the columns set in changes
func (r *PostgresProfileRepository) UpdateProfileFields(ctx context.Context, id string, changes models.ProfileChanges) error {
	cols := changes.Columns()
	if len(cols) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListProfiles retrieves all profiles, oldest first
func (r *PostgresProfileRepository) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	var profiles []models.Profile
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

// IsNotFound reports whether err means the record does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
