package models

import "time"

// Follow is a directed follower -> following edge between two profiles
type Follow struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FollowerID  string    `json:"follower_id" gorm:"type:varchar(36);index;uniqueIndex:idx_follower_following"`
	FollowingID string    `json:"following_id" gorm:"type:varchar(36);index;uniqueIndex:idx_follower_following"`
	CreatedAt   time.Time `json:"created_at"`
}

// FollowCounts holds the two independent edge counts of a profile
type FollowCounts struct {
	FollowersCount int64 `json:"followers_count"`
	FollowingCount int64 `json:"following_count"`
}
