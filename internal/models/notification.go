package models

import "time"

const (
	NotificationTypeFollow = "follow"
	NotificationTypeCredit = "credit"
)

// Notification represents a profile notification (PostgreSQL)
type Notification struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Type        string    `json:"type" gorm:"size:30;index"` // follow, credit
	ActorID     string    `json:"actor_id" gorm:"type:varchar(36);index"`
	RecipientID string    `json:"recipient_id" gorm:"type:varchar(36);index"`
	TargetID    string    `json:"target_id"`                  // profile ID or ledger entry ID
	TargetType  string    `json:"target_type" gorm:"size:20"` // profile, credit
	Message     string    `json:"message"`
	IsRead      bool      `json:"is_read" gorm:"default:false;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
}
