package models

import "time"

// DirectMessage is a one-to-one message between two users.
type DirectMessage struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SenderID    uint      `gorm:"not null;index:idx_direct_messages_sender_recipient" json:"sender_id"`
	RecipientID uint      `gorm:"not null;index:idx_direct_messages_sender_recipient" json:"recipient_id"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	ImageURL    string    `gorm:"type:text" json:"image_url,omitempty"`
	IsRead      bool      `gorm:"default:false" json:"is_read"`
	IsDeleted   bool      `gorm:"default:false" json:"-"`
	IsFlagged   bool      `gorm:"default:false" json:"is_flagged"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}
