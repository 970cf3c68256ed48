package models

import "time"

// RelationshipStatus is the state of a directed user-to-user edge.
type RelationshipStatus string

const (
	// RelationshipStatusFollowing is a normal follow edge.
	RelationshipStatusFollowing RelationshipStatus = "following"
	// RelationshipStatusBlocked marks the target as blocked by the follower.
	RelationshipStatusBlocked RelationshipStatus = "blocked"
)

// Relationship is a directed follow edge from FollowerID to FollowingID.
// At most one row exists per ordered pair; self-loops are rejected before
// the row is ever written.
type Relationship struct {
	ID          uint               `gorm:"primaryKey" json:"id"`
	FollowerID  uint               `gorm:"not null;uniqueIndex:idx_relationships_follower_following" json:"follower_id"`
	FollowingID uint               `gorm:"not null;uniqueIndex:idx_relationships_follower_following" json:"following_id"`
	Status      RelationshipStatus `gorm:"type:varchar(20);default:'following';not null" json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
}
