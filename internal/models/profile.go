package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Profile is the account record of a user, keyed by the login email
type Profile struct {
	ID         string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Email      string    `json:"email" gorm:"uniqueIndex;not null"`
	FullName   string    `json:"full_name" gorm:"size:50"`
	Avatar     string    `json:"avatar" gorm:"type:text"`
	Bio        string    `json:"bio" gorm:"size:500"`
	Age        int       `json:"age"`
	Location   string    `json:"location" gorm:"size:100"`
	Occupation string    `json:"occupation" gorm:"size:100"`
	IsVerified bool      `json:"is_verified" gorm:"not null;default:false"`
	IsAdmin    bool      `json:"is_admin" gorm:"not null;default:false"`
	Credit     int64     `json:"credit" gorm:"not null;default:0"`
	SavedPosts StringSet `json:"saved_posts" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID when the caller did not provide one
func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// PublicProfile is the allow-listed view of a profile shown to other users.
// Credit, email, admin flag and saved posts never leave through it.
type PublicProfile struct {
	ID         string    `json:"id"`
	FullName   string    `json:"full_name"`
	Avatar     string    `json:"avatar"`
	Bio        string    `json:"bio"`
	Age        int       `json:"age"`
	Location   string    `json:"location"`
	Occupation string    `json:"occupation"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToPublic projects the profile onto its public view
func (p *Profile) ToPublic() PublicProfile {
	return PublicProfile{
		ID:         p.ID,
		FullName:   p.FullName,
		Avatar:     p.Avatar,
		Bio:        p.Bio,
		Age:        p.Age,
		Location:   p.Location,
		Occupation: p.Occupation,
		IsVerified: p.IsVerified,
		CreatedAt:  p.CreatedAt,
	}
}

// DisplayName is the full name, falling back to the email
func (p *Profile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	return p.Email
}

// ProfileChanges carries a partial update. Nil fields are left untouched.
type ProfileChanges struct {
	FullName   *string
	Avatar     *string
	Bio        *string
	Age        *int
	Location   *string
	Occupation *string
	IsVerified *bool
	IsAdmin    *bool
	SavedPosts *StringSet
}

// Columns maps the set fields to their column names
func (c ProfileChanges) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if c.FullName != nil {
		cols["full_name"] = *c.FullName
	}
	if c.Avatar != nil {
		cols["avatar"] = *c.Avatar
	}
	if c.Bio != nil {
		cols["bio"] = *c.Bio
	}
	if c.Age != nil {
		cols["age"] = *c.Age
	}
	if c.Location != nil {
		cols["location"] = *c.Location
	}
	if c.Occupation != nil {
		cols["occupation"] = *c.Occupation
	}
	if c.IsVerified != nil {
		cols["is_verified"] = *c.IsVerified
	}
	if c.IsAdmin != nil {
		cols["is_admin"] = *c.IsAdmin
	}
	if c.SavedPosts != nil {
		cols["saved_posts"] = *c.SavedPosts
	}
	return cols
}

// Apply merges the set fields into p
func (c ProfileChanges) Apply(p *Profile) {
	if c.FullName != nil {
		p.FullName = *c.FullName
	}
	if c.Avatar != nil {
		p.Avatar = *c.Avatar
	}
	if c.Bio != nil {
		p.Bio = *c.Bio
	}
	if c.Age != nil {
		p.Age = *c.Age
	}
	if c.Location != nil {
		p.Location = *c.Location
	}
	if c.Occupation != nil {
		p.Occupation = *c.Occupation
	}
	if c.IsVerified != nil {
		p.IsVerified = *c.IsVerified
	}
	if c.IsAdmin != nil {
		p.IsAdmin = *c.IsAdmin
	}
	if c.SavedPosts != nil {
		p.SavedPosts = c.SavedPosts.Clone()
	}
}

// Empty reports whether no field is set
func (c ProfileChanges) Empty() bool {
	return len(c.Columns()) == 0
}

// StringSet is an ordered list of unique strings stored as a JSON array
type StringSet []string

// Contains reports whether v is in the set
func (s StringSet) Contains(v string) bool {
	for _, item := range s {
		if item == v {
			return true
		}
	}
	return false
}

// Add returns the set with v appended, and whether it changed
func (s StringSet) Add(v string) (StringSet, bool) {
	if s.Contains(v) {
		return s, false
	}
	return append(s.Clone(), v), true
}

// Remove returns the set without v, and whether it changed
func (s StringSet) Remove(v string) (StringSet, bool) {
	if !s.Contains(v) {
		return s, false
	}
	out := make(StringSet, 0, len(s)-1)
	for _, item := range s {
		if item != v {
			out = append(out, item)
		}
	}
	return out, true
}

// Clone copies the set; a nil set clones to an empty one
func (s StringSet) Clone() StringSet {
	out := make(StringSet, len(s))
	copy(out, s)
	return out
}

// Value implements driver.Valuer
func (s StringSet) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (s *StringSet) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*s = StringSet{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringSet", value)
	}
	if len(raw) == 0 {
		*s = StringSet{}
		return nil
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err != nil {
		return err
	}
	*s = StringSet(items)
	return nil
}

// UpdateProfileRequest defines the request body for updating the caller's profile
type UpdateProfileRequest struct {
	FullName   *string `json:"full_name,omitempty" validate:"omitempty,max=50"`
	Avatar     *string `json:"avatar,omitempty" validate:"omitempty,max=4194304"`
	Bio        *string `json:"bio,omitempty" validate:"omitempty,max=500"`
	Age        *int    `json:"age,omitempty" validate:"omitempty,min=0"`
	Location   *string `json:"location,omitempty" validate:"omitempty,max=100"`
	Occupation *string `json:"occupation,omitempty" validate:"omitempty,max=100"`
}

// Changes converts the request into a partial update
func (r UpdateProfileRequest) Changes() ProfileChanges {
	return ProfileChanges{
		FullName:   r.FullName,
		Avatar:     r.Avatar,
		Bio:        r.Bio,
		Age:        r.Age,
		Location:   r.Location,
		Occupation: r.Occupation,
	}
}

// VerifyProfileRequest defines the admin request body for toggling verification
type VerifyProfileRequest struct {
	IsVerified *bool `json:"is_verified" validate:"required"`
}

// ProfileUpdateResult confirms an update without echoing the profile
type ProfileUpdateResult struct {
	Message string `json:"message"`
}
