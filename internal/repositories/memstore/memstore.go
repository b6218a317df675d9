// Package memstore implements the repository interfaces in process memory.
// It backs the "memory" storage mode used for local runs and tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/anonto42/dispatch/backend/internal/ids"
	"github.com/anonto42/dispatch/backend/internal/models"
	"github.com/anonto42/dispatch/backend/internal/repositories"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store holds every collection behind one lock
type Store struct {
	mu            sync.RWMutex
	profiles      map[string]*models.Profile
	byEmail       map[string]string
	follows       []models.Follow
	followSeq     uint
	posts         map[primitive.ObjectID]*models.Post
	entries       []models.CreditLedgerEntry
	notifications []models.Notification
	notifSeq      uint
}

// New creates an empty store
func New() *Store {
	return &Store{
		profiles: make(map[string]*models.Profile),
		byEmail:  make(map[string]string),
		posts:    make(map[primitive.ObjectID]*models.Post),
	}
}

func (s *Store) Profiles() *ProfileStore           { return &ProfileStore{s} }
func (s *Store) Follows() *FollowStore             { return &FollowStore{s} }
func (s *Store) Posts() *PostStore                 { return &PostStore{s} }
func (s *Store) Credits() *CreditStore             { return &CreditStore{s} }
func (s *Store) Notifications() *NotificationStore { return &NotificationStore{s} }

var (
	_ repositories.ProfileRepository      = (*ProfileStore)(nil)
	_ repositories.FollowRepository       = (*FollowStore)(nil)
	_ repositories.PostRepository         = (*PostStore)(nil)
	_ repositories.CreditRepository       = (*CreditStore)(nil)
	_ repositories.NotificationRepository = (*NotificationStore)(nil)
)

func copyProfile(p *models.Profile) *models.Profile {
	out := *p
	out.SavedPosts = p.SavedPosts.Clone()
	return &out
}

// ProfileStore implements repositories.ProfileRepository
type ProfileStore struct{ s *Store }

func (r *ProfileStore) FindOrCreateByEmail(ctx context.Context, email string) (*models.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if id, ok := r.s.byEmail[email]; ok {
		return copyProfile(r.s.profiles[id]), nil
	}
	p := &models.Profile{Email: email}
	r.s.insertProfile(p)
	return copyProfile(p), nil
}

func (r *ProfileStore) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.byEmail[email]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return copyProfile(r.s.profiles[id]), nil
}

func (r *ProfileStore) GetProfileByID(ctx context.Context, id string) (*models.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.profiles[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return copyProfile(p), nil
}

func (r *ProfileStore) CreateProfile(ctx context.Context, profile *models.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.byEmail[profile.Email]; ok {
		return repositories.ErrDuplicate
	}
	if profile.ID != "" {
		if _, ok := r.s.profiles[profile.ID]; ok {
			return repositories.ErrDuplicate
		}
	}
	stored := copyProfile(profile)
	r.s.insertProfile(stored)
	*profile = *copyProfile(stored)
	return nil
}

func (s *Store) insertProfile(p *models.Profile) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.SavedPosts == nil {
		p.SavedPosts = models.StringSet{}
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	s.profiles[p.ID] = p
	s.byEmail[p.Email] = p.ID
}

func (r *ProfileStore) UpdateProfileFields(ctx context.Context, id string, changes models.ProfileChanges) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if changes.Empty() {
		return nil
	}
	changes.Apply(p)
	p.UpdatedAt = time.Now()
	return nil
}

func (r *ProfileStore) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]models.Profile, 0, len(r.s.profiles))
	for _, p := range r.s.profiles {
		out = append(out, *copyProfile(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// FollowStore implements repositories.FollowRepository
type FollowStore struct{ s *Store }

func (r *FollowStore) CreateFollow(ctx context.Context, follow *models.Follow) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, f := range r.s.follows {
		if f.FollowerID == follow.FollowerID && f.FollowingID == follow.FollowingID {
			return repositories.ErrDuplicate
		}
	}
	r.s.followSeq++
	follow.ID = r.s.followSeq
	follow.CreatedAt = time.Now()
	r.s.follows = append(r.s.follows, *follow)
	return nil
}

func (r *FollowStore) DeleteFollow(ctx context.Context, followerID, followingID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, f := range r.s.follows {
		if f.FollowerID == followerID && f.FollowingID == followingID {
			r.s.follows = append(r.s.follows[:i], r.s.follows[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (r *FollowStore) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, f := range r.s.follows {
		if f.FollowerID == followerID && f.FollowingID == followingID {
			return true, nil
		}
	}
	return false, nil
}

func (r *FollowStore) GetFollowers(ctx context.Context, profileID string) ([]models.Profile, error) {
	return r.expand(func(f models.Follow) (string, bool) {
		return f.FollowerID, f.FollowingID == profileID
	}), nil
}

func (r *FollowStore) GetFollowing(ctx context.Context, profileID string) ([]models.Profile, error) {
	return r.expand(func(f models.Follow) (string, bool) {
		return f.FollowingID, f.FollowerID == profileID
	}), nil
}

func (r *FollowStore) expand(match func(models.Follow) (string, bool)) []models.Profile {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []models.Profile{}
	for _, f := range r.s.follows {
		id, ok := match(f)
		if !ok {
			continue
		}
		if p, exists := r.s.profiles[id]; exists {
			out = append(out, *copyProfile(p))
		}
	}
	return out
}

func (r *FollowStore) GetFollowersCount(ctx context.Context, profileID string) (int64, error) {
	return r.count(func(f models.Follow) bool { return f.FollowingID == profileID }), nil
}

func (r *FollowStore) GetFollowingCount(ctx context.Context, profileID string) (int64, error) {
	return r.count(func(f models.Follow) bool { return f.FollowerID == profileID }), nil
}

func (r *FollowStore) count(match func(models.Follow) bool) int64 {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, f := range r.s.follows {
		if match(f) {
			n++
		}
	}
	return n
}

// PostStore implements repositories.PostRepository
type PostStore struct{ s *Store }

func (r *PostStore) CreatePost(ctx context.Context, post *models.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	post.ID = primitive.NewObjectID()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	post.UpdatedAt = post.CreatedAt
	if post.Comments == nil {
		post.Comments = []string{}
	}
	stored := *post
	r.s.posts[post.ID] = &stored
	return nil
}

func (r *PostStore) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repositories.ErrNotFound
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.posts[objID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	out := *p
	return &out, nil
}

func (r *PostStore) GetPostsByAuthor(ctx context.Context, authorID string) ([]models.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []models.Post{}
	for _, p := range r.s.posts {
		if p.AuthorID == authorID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out, nil
}

func (r *PostStore) GetRecentPostsByAuthor(ctx context.Context, authorID string, limit int64) ([]models.Post, error) {
	posts, _ := r.GetPostsByAuthor(ctx, authorID)
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	if int64(len(posts)) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (r *PostStore) IncrementLikes(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repositories.ErrNotFound
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.posts[objID]
	if !ok {
		return repositories.ErrNotFound
	}
	p.Likes++
	return nil
}

// CreditStore implements repositories.CreditRepository
type CreditStore struct{ s *Store }

func (r *CreditStore) Transfer(ctx context.Context, fromID, toID string, amount int64) (*models.CreditLedgerEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	from, ok := r.s.profiles[fromID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	to, ok := r.s.profiles[toID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if from.Credit < amount {
		return nil, repositories.ErrInsufficientCredit
	}
	from.Credit -= amount
	to.Credit += amount
	entry := r.s.appendEntry(models.CreditKindTransfer, fromID, toID, amount)
	entry.SenderBalance = from.Credit
	entry.RecipientBalance = to.Credit
	r.s.entries[len(r.s.entries)-1] = *entry
	return entry, nil
}

func (r *CreditStore) AddCredit(ctx context.Context, profileID string, amount int64) (*models.CreditLedgerEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[profileID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	p.Credit += amount
	entry := r.s.appendEntry(models.CreditKindTopUp, "", profileID, amount)
	entry.RecipientBalance = p.Credit
	r.s.entries[len(r.s.entries)-1] = *entry
	return entry, nil
}

func (r *CreditStore) SetCredit(ctx context.Context, profileID string, amount int64) (*models.CreditLedgerEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[profileID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	p.Credit = amount
	entry := r.s.appendEntry(models.CreditKindAdminSet, "", profileID, amount)
	entry.RecipientBalance = amount
	r.s.entries[len(r.s.entries)-1] = *entry
	return entry, nil
}

func (s *Store) appendEntry(kind models.CreditEntryKind, fromID, toID string, amount int64) *models.CreditLedgerEntry {
	now := time.Now().UTC()
	entry := models.CreditLedgerEntry{
		ID:            ids.NewAt(now),
		Kind:          kind,
		FromProfileID: fromID,
		ToProfileID:   toID,
		Amount:        amount,
		CreatedAt:     now,
	}
	s.entries = append(s.entries, entry)
	return &entry
}

func (r *CreditStore) ListEntries(ctx context.Context, profileID string, limit int) ([]models.CreditLedgerEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []models.CreditLedgerEntry{}
	for i := len(r.s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		e := r.s.entries[i]
		if e.FromProfileID == profileID || e.ToProfileID == profileID {
			out = append(out, e)
		}
	}
	return out, nil
}

// NotificationStore implements repositories.NotificationRepository
type NotificationStore struct{ s *Store }

func (r *NotificationStore) CreateNotification(ctx context.Context, notification *models.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.notifSeq++
	notification.ID = r.s.notifSeq
	notification.CreatedAt = time.Now()
	r.s.notifications = append(r.s.notifications, *notification)
	return nil
}

func (r *NotificationStore) GetByRecipientID(ctx context.Context, recipientID string, page, limit int) ([]models.Notification, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var all []models.Notification
	for i := len(r.s.notifications) - 1; i >= 0; i-- {
		if r.s.notifications[i].RecipientID == recipientID {
			all = append(all, r.s.notifications[i])
		}
	}
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return []models.Notification{}, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *NotificationStore) GetUnreadCount(ctx context.Context, recipientID string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, notif := range r.s.notifications {
		if notif.RecipientID == recipientID && !notif.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *NotificationStore) MarkAsRead(ctx context.Context, recipientID string, notificationID uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.notifications {
		if r.s.notifications[i].ID == notificationID && r.s.notifications[i].RecipientID == recipientID {
			r.s.notifications[i].IsRead = true
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (r *NotificationStore) MarkAllAsRead(ctx context.Context, recipientID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.notifications {
		if r.s.notifications[i].RecipientID == recipientID {
			r.s.notifications[i].IsRead = true
		}
	}
	return nil
}
