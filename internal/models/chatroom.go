package models

import "time"

// ChatRoomRole is a member's role inside a chat room.
type ChatRoomRole string

const (
	// ChatRoomRoleMember is a regular room member.
	ChatRoomRoleMember ChatRoomRole = "member"
	// ChatRoomRoleModerator can moderate room content.
	ChatRoomRoleModerator ChatRoomRole = "moderator"
	// ChatRoomRoleAdmin administers the room. The creator starts as admin.
	ChatRoomRoleAdmin ChatRoomRole = "admin"
)

// ChatRoom is a named group-messaging channel. MemberCount is denormalized
// and starts at 1 for the creator's implicit admin membership.
type ChatRoom struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatorID   uint      `gorm:"not null;index" json:"creator_id"`
	IconURL     string    `gorm:"type:text" json:"icon_url,omitempty"`
	IsPrivate   bool      `gorm:"default:false" json:"is_private"`
	MemberCount int       `gorm:"default:1" json:"member_count"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ChatRoomMember is the join row for room membership.
// At most one row exists per (room, user) pair.
type ChatRoomMember struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	ChatRoomID uint         `gorm:"not null;uniqueIndex:idx_chat_room_members_room_user" json:"chat_room_id"`
	UserID     uint         `gorm:"not null;uniqueIndex:idx_chat_room_members_room_user" json:"user_id"`
	Role       ChatRoomRole `gorm:"type:varchar(20);default:'member';not null" json:"role"`
	JoinedAt   time.Time    `gorm:"autoCreateTime" json:"joined_at"`
}

// GroupMessage is a message scoped to a chat room.
type GroupMessage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ChatRoomID uint      `gorm:"not null;index" json:"chat_room_id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	ImageURL   string    `gorm:"type:text" json:"image_url,omitempty"`
	IsEdited   bool      `gorm:"default:false" json:"is_edited"`
	IsDeleted  bool      `gorm:"default:false" json:"-"`
	IsFlagged  bool      `gorm:"default:false" json:"is_flagged"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}
