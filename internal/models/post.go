package models

import (
	"encoding/json"
	"time"
)

// Post represents a status update in epsYlon.
// LikeCount and CommentCount are denormalized; every mutation of a like or
// comment edge adjusts them in the same transaction. Deletion is soft via
// IsDeleted; the owner's post count is NOT decremented on delete.
type Post struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	User         *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Content      string    `gorm:"type:text;not null" json:"content"`
	ImageURLs    string    `gorm:"type:text" json:"-"` // JSON-encoded []string
	LikeCount    int       `gorm:"default:0" json:"like_count"`
	CommentCount int       `gorm:"default:0" json:"comment_count"`
	IsEdited     bool      `gorm:"default:false" json:"is_edited"`
	IsDeleted    bool      `gorm:"default:false;index" json:"-"`
	IsFlagged    bool      `gorm:"default:false;index" json:"is_flagged"`
	FlagReason   string    `gorm:"size:255" json:"flag_reason,omitempty"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Images decodes the stored image URL list. A missing or malformed column
// yields an empty slice.
func (p *Post) Images() []string {
	if p.ImageURLs == "" {
		return nil
	}
	var urls []string
	if err := json.Unmarshal([]byte(p.ImageURLs), &urls); err != nil {
		return nil
	}
	return urls
}

// SetImages encodes the image URL list into the stored column.
func (p *Post) SetImages(urls []string) {
	if len(urls) == 0 {
		p.ImageURLs = ""
		return
	}
	encoded, err := json.Marshal(urls)
	if err != nil {
		p.ImageURLs = ""
		return
	}
	p.ImageURLs = string(encoded)
}

// MarshalJSON inlines the decoded image list as "image_urls".
func (p Post) MarshalJSON() ([]byte, error) {
	type alias Post
	return json.Marshal(struct {
		alias
		Images []string `json:"image_urls"`
	}{alias(p), p.Images()})
}

// PostLike is the join row recording that a user liked a post.
// At most one row exists per (user, post) pair; removal is a hard delete.
type PostLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_post_likes_post_user" json:"post_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_post_likes_post_user" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
