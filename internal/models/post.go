package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultCategory is used for posts stored without a category
const DefaultCategory = "uncategorized"

// Post represents a blog post stored in MongoDB
type Post struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	AuthorID   string             `json:"author" bson:"author"` // Profile ID of the author
	Title      string             `json:"title" bson:"title"`
	Content    string             `json:"content" bson:"content"`
	Summary    string             `json:"summary" bson:"summary"`
	Category   string             `json:"category,omitempty" bson:"category,omitempty"`
	Likes      int                `json:"likes" bson:"likes"`
	Comments   []string           `json:"comments" bson:"comments"`
	IsVerified bool               `json:"is_verified" bson:"is_verified"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at" bson:"updated_at"`
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Title    string `json:"title" validate:"required,min=1,max=200"`
	Content  string `json:"content" validate:"required,min=1"`
	Summary  string `json:"summary,omitempty" validate:"omitempty,max=500"`
	Category string `json:"category,omitempty" validate:"omitempty,max=50"`
}
