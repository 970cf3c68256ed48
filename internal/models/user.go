// Package models contains data structures for the application's domain models.
package models

import "time"

// UserRole is the platform-wide role assigned to a user.
type UserRole string

const (
	// UserRoleUser is the default role for regular users.
	UserRoleUser UserRole = "user"
	// UserRoleModerator can review and resolve content flags.
	UserRoleModerator UserRole = "moderator"
	// UserRoleAdmin has full moderation privileges.
	UserRoleAdmin UserRole = "admin"
)

// User represents an account in epsYlon. Accounts are created on first
// successful external login (keyed by OpenID) and are never hard-deleted.
type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	OpenID        string    `gorm:"size:64;uniqueIndex;not null" json:"-"`
	Name          string    `json:"name"`
	Email         string    `gorm:"size:320" json:"email,omitempty"`
	Username      *string   `gorm:"size:64;uniqueIndex" json:"username"`
	Bio           string    `json:"bio"`
	AvatarURL     string    `json:"avatar_url"`
	CoverImageURL string    `json:"cover_image_url"`
	LoginMethod   string    `gorm:"size:64" json:"-"`
	Role          UserRole  `gorm:"type:varchar(20);default:'user';not null" json:"role"`
	IsPrivate     bool      `gorm:"default:false" json:"is_private"`
	IsVerified    bool      `gorm:"default:false" json:"is_verified"`
	LastSignedIn  time.Time `json:"last_signed_in"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsModerator reports whether the user holds an elevated moderation role.
func (u *User) IsModerator() bool {
	return u.Role == UserRoleAdmin || u.Role == UserRoleModerator
}

// UserProfile holds extended profile data and the denormalized social counters.
// The counters are adjusted only through the repository layer, paired 1:1 with
// edge inserts/deletes; they are never recomputed by full scan at runtime.
type UserProfile struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	Location       string     `gorm:"size:255" json:"location"`
	Website        string     `gorm:"size:255" json:"website"`
	BirthDate      *time.Time `json:"birth_date,omitempty"`
	FollowerCount  int        `gorm:"default:0" json:"follower_count"`
	FollowingCount int        `gorm:"default:0" json:"following_count"`
	PostCount      int        `gorm:"default:0" json:"post_count"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NotificationPreference holds a user's notification delivery toggles.
type NotificationPreference struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	UserID             uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	EmailOnMessage     bool      `gorm:"default:true" json:"email_on_message"`
	EmailOnLike        bool      `gorm:"default:true" json:"email_on_like"`
	EmailOnComment     bool      `gorm:"default:true" json:"email_on_comment"`
	EmailOnFollow      bool      `gorm:"default:true" json:"email_on_follow"`
	EmailOnMention     bool      `gorm:"default:true" json:"email_on_mention"`
	InAppNotifications bool      `gorm:"default:true" json:"in_app_notifications"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
