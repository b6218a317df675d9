// Package services holds the account core: profile resolution, the follow
// graph, dashboard aggregation and credit movements. Handlers call into it with
// the caller's email; every error it returns is tagged with an apperrors.Kind.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anonto42/dispatch/backend/internal/apperrors"
	"github.com/anonto42/dispatch/backend/internal/events"
	"github.com/anonto42/dispatch/backend/internal/models"
	"github.com/anonto42/dispatch/backend/internal/repositories"
	"github.com/sirupsen/logrus"
)

// Deps are the collaborators of an AccountService
type Deps struct {
	Profiles      repositories.ProfileRepository
	Follows       repositories.FollowRepository
	Posts         repositories.PostRepository
	Credits       repositories.CreditRepository
	Notifications repositories.NotificationRepository
	Events        events.Publisher
	Log           logrus.FieldLogger
	// AdminEmails are promoted to admin the first time their profile is resolved
	AdminEmails []string
}

// AccountService orchestrates the profile, follow, post and credit stores
type AccountService struct {
	profiles      repositories.ProfileRepository
	follows       repositories.FollowRepository
	posts         repositories.PostRepository
	credits       repositories.CreditRepository
	notifications repositories.NotificationRepository
	events        events.Publisher
	log           logrus.FieldLogger
	admins        map[string]struct{}
}

// NewAccountService creates a new AccountService
func NewAccountService(d Deps) *AccountService {
	pub := d.Events
	if pub == nil {
		pub = events.NopPublisher{}
	}
	log := d.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	admins := make(map[string]struct{}, len(d.AdminEmails))
	for _, email := range d.AdminEmails {
		if email = normalizeEmail(email); email != "" {
			admins[email] = struct{}{}
		}
	}
	return &AccountService{
		profiles:      d.Profiles,
		follows:       d.Follows,
		posts:         d.Posts,
		credits:       d.Credits,
		notifications: d.Notifications,
		events:        pub,
		log:           log.WithField("component", "account_service"),
		admins:        admins,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GetProfile returns the caller's profile, creating an empty one on first sight
func (s *AccountService) GetProfile(ctx context.Context, email string) (*models.Profile, error) {
	if email == "" {
		return nil, apperrors.Unauthorized("Email is required")
	}
	profile, err := s.profiles.FindOrCreateByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("resolve profile: %w", err)
	}
	if err := s.bootstrapAdmin(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *AccountService) bootstrapAdmin(ctx context.Context, profile *models.Profile) error {
	if profile.IsAdmin {
		return nil
	}
	if _, ok := s.admins[normalizeEmail(profile.Email)]; !ok {
		return nil
	}
	yes := true
	if err := s.profiles.UpdateProfileFields(ctx, profile.ID, models.ProfileChanges{IsAdmin: &yes}); err != nil {
		return fmt.Errorf("promote admin: %w", err)
	}
	profile.IsAdmin = true
	s.log.WithField("profile_id", profile.ID).Info("Promoted configured admin")
	return nil
}

// UpdateProfile merges the set fields into the caller's profile, creating the
// profile when it does not exist yet
func (s *AccountService) UpdateProfile(ctx context.Context, email string, changes models.ProfileChanges) (*models.ProfileUpdateResult, error) {
	if email == "" {
		return nil, apperrors.Unauthorized("Email is required")
	}
	profile, err := s.profiles.GetProfileByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.profiles.UpdateProfileFields(ctx, profile.ID, changes); err != nil {
			return nil, fmt.Errorf("update profile: %w", err)
		}
	case errors.Is(err, repositories.ErrNotFound):
		if err := s.createWith(ctx, email, changes); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return &models.ProfileUpdateResult{Message: "Profile Updated"}, nil
}

func (s *AccountService) createWith(ctx context.Context, email string, changes models.ProfileChanges) error {
	profile := &models.Profile{Email: email}
	changes.Apply(profile)
	err := s.profiles.CreateProfile(ctx, profile)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repositories.ErrDuplicate) {
		return fmt.Errorf("create profile: %w", err)
	}
	// lost the insert race; merge into the winner
	existing, err := s.profiles.GetProfileByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	if err := s.profiles.UpdateProfileFields(ctx, existing.ID, changes); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// GetPublicProfile returns the public view of a profile
func (s *AccountService) GetPublicProfile(ctx context.Context, id string) (*models.PublicProfile, error) {
	profile, err := s.profiles.GetProfileByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NotFound("Profile not found")
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	public := profile.ToPublic()
	return &public, nil
}

// GetSavedPosts lists the caller's saved post IDs; unknown callers have none
func (s *AccountService) GetSavedPosts(ctx context.Context, email string) ([]string, error) {
	profile, err := s.profiles.GetProfileByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return []string(profile.SavedPosts.Clone()), nil
}

// AddSavedPost adds postID to the caller's saved posts. Adding twice is a no-op.
func (s *AccountService) AddSavedPost(ctx context.Context, email, postID string) ([]string, error) {
	return s.editSavedPosts(ctx, email, func(set models.StringSet) (models.StringSet, bool) {
		return set.Add(postID)
	})
}

// RemoveSavedPost removes postID from the caller's saved posts. Removing an
// absent ID is a no-op.
func (s *AccountService) RemoveSavedPost(ctx context.Context, email, postID string) ([]string, error) {
	return s.editSavedPosts(ctx, email, func(set models.StringSet) (models.StringSet, bool) {
		return set.Remove(postID)
	})
}

func (s *AccountService) editSavedPosts(ctx context.Context, email string, edit func(models.StringSet) (models.StringSet, bool)) ([]string, error) {
	profile, err := s.profiles.GetProfileByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.Unauthorized("Profile not found")
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	saved, changed := edit(profile.SavedPosts)
	if changed {
		if err := s.profiles.UpdateProfileFields(ctx, profile.ID, models.ProfileChanges{SavedPosts: &saved}); err != nil {
			return nil, fmt.Errorf("save posts: %w", err)
		}
	}
	return []string(saved.Clone()), nil
}

// ListProfiles returns every profile, for admins
func (s *AccountService) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	profiles, err := s.profiles.ListProfiles(ctx)
	if err != nil {
		s.log.WithError(err).Error("Error fetching all profiles")
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}

// VerifyUser sets the verification flag of a profile and returns the result
func (s *AccountService) VerifyUser(ctx context.Context, id string, verified bool) (*models.Profile, error) {
	err := s.profiles.UpdateProfileFields(ctx, id, models.ProfileChanges{IsVerified: &verified})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NotFound("User with ID %s not found", id)
		}
		s.log.WithError(err).WithField("profile_id", id).Error("Error changing verification")
		return nil, fmt.Errorf("verify profile: %w", err)
	}
	profile, err := s.profiles.GetProfileByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NotFound("User with ID %s not found", id)
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return profile, nil
}

// RequireAdmin fails with Forbidden unless the caller is an admin. Only emails
// listed in AdminEmails are resolved through GetProfile; anyone else is looked
// up without creating a profile.
func (s *AccountService) RequireAdmin(ctx context.Context, email string) (*models.Profile, error) {
	if email == "" {
		return nil, apperrors.Unauthorized("Email is required")
	}
	var (
		profile *models.Profile
		err     error
	)
	if _, configured := s.admins[normalizeEmail(email)]; configured {
		profile, err = s.GetProfile(ctx, email)
	} else {
		profile, err = s.profiles.GetProfileByEmail(ctx, email)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.Forbidden("Admin access required")
		}
	}
	if err != nil {
		return nil, err
	}
	if !profile.IsAdmin {
		return nil, apperrors.Forbidden("Admin access required")
	}
	return profile, nil
}

// notify stores a notification; failures are logged and swallowed
func (s *AccountService) notify(ctx context.Context, n *models.Notification) {
	if s.notifications == nil {
		return
	}
	if err := s.notifications.CreateNotification(ctx, n); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"type":         n.Type,
			"recipient_id": n.RecipientID,
		}).Warn("Failed to create notification")
	}
}

// publish emits a domain event; failures are logged and swallowed
func (s *AccountService) publish(ctx context.Context, subject string, payload interface{}) {
	if err := s.events.Publish(ctx, subject, payload); err != nil {
		s.log.WithError(err).WithField("subject", subject).Warn("Failed to publish event")
	}
}
