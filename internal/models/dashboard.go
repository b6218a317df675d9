package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DashboardStats aggregates a profile's posts and follow graph
type DashboardStats struct {
	Stats          DashboardTotals `json:"stats"`
	Categories     map[string]int  `json:"categories"`
	Timeline       map[string]int  `json:"timeline"` // "year-month" -> posts
	RecentActivity []RecentPost    `json:"recent_activity"`
}

// DashboardTotals are the scalar dashboard counters
type DashboardTotals struct {
	TotalPosts      int     `json:"total_posts"`
	TotalLikes      int     `json:"total_likes"`
	AverageLikes    float64 `json:"average_likes"`
	TotalComments   int     `json:"total_comments"`
	SavedPostsCount int     `json:"saved_posts_count"`
	FollowersCount  int64   `json:"followers_count"`
	FollowingCount  int64   `json:"following_count"`
}

// RecentPost is one row of the recent activity feed
type RecentPost struct {
	ID        primitive.ObjectID `json:"id"`
	Title     string             `json:"title"`
	Likes     int                `json:"likes"`
	Comments  int                `json:"comments"`
	CreatedAt time.Time          `json:"created_at"`
}
