package models

import "time"

// NotificationType classifies what triggered a notification.
type NotificationType string

const (
	NotificationTypeMessage NotificationType = "message"
	NotificationTypeLike    NotificationType = "like"
	NotificationTypeComment NotificationType = "comment"
	NotificationTypeFollow  NotificationType = "follow"
	NotificationTypeMention NotificationType = "mention"
	NotificationTypeReply   NotificationType = "reply"
	NotificationTypeSystem  NotificationType = "system"
)

// Notification is an in-app notification addressed to one user. Creation is
// best-effort: a failed insert never rolls back the action that triggered it.
type Notification struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	UserID           uint             `gorm:"not null;index" json:"user_id"`
	Type             NotificationType `gorm:"type:varchar(20);not null" json:"type"`
	RelatedUserID    *uint            `json:"related_user_id,omitempty"`
	RelatedPostID    *uint            `json:"related_post_id,omitempty"`
	RelatedCommentID *uint            `json:"related_comment_id,omitempty"`
	Title            string           `gorm:"size:255;not null" json:"title"`
	Content          string           `gorm:"type:text" json:"content,omitempty"`
	IsRead           bool             `gorm:"default:false" json:"is_read"`
	CreatedAt        time.Time        `gorm:"index" json:"created_at"`
}
