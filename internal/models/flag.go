package models

import "time"

// ContentType identifies which table a content flag points at.
type ContentType string

const (
	ContentTypePost    ContentType = "post"
	ContentTypeComment ContentType = "comment"
	ContentTypeMessage ContentType = "message"
	ContentTypeProfile ContentType = "profile"
)

// Verdict is the three-way moderation classification.
type Verdict string

const (
	VerdictSafe   Verdict = "safe"
	VerdictUnsafe Verdict = "unsafe"
	VerdictReview Verdict = "review"
)

// FlagStatus is the triage state of a content flag.
type FlagStatus string

const (
	FlagStatusPending  FlagStatus = "pending"
	FlagStatusReviewed FlagStatus = "reviewed"
	FlagStatusResolved FlagStatus = "resolved"
)

// FlagTarget is a tagged reference to a flaggable piece of content. Call
// sites branch on Kind; keeping it a small value type (rather than a bare
// id plus string) lets the repository switch stay exhaustive.
type FlagTarget struct {
	Kind ContentType
	ID   uint
}

// PostTarget references a post.
func PostTarget(id uint) FlagTarget { return FlagTarget{Kind: ContentTypePost, ID: id} }

// CommentTarget references a comment.
func CommentTarget(id uint) FlagTarget { return FlagTarget{Kind: ContentTypeComment, ID: id} }

// MessageTarget references a direct message.
func MessageTarget(id uint) FlagTarget { return FlagTarget{Kind: ContentTypeMessage, ID: id} }

// ProfileTarget references a user profile.
func ProfileTarget(id uint) FlagTarget { return FlagTarget{Kind: ContentTypeProfile, ID: id} }

// Valid reports whether the target kind is one of the four known kinds.
func (t FlagTarget) Valid() bool {
	switch t.Kind {
	case ContentTypePost, ContentTypeComment, ContentTypeMessage, ContentTypeProfile:
		return t.ID != 0
	}
	return false
}

// ContentFlag records a user report against a piece of content. The pending
// queue is triaged oldest-first.
type ContentFlag struct {
	ID               uint        `gorm:"primaryKey" json:"id"`
	ContentType      ContentType `gorm:"type:varchar(20);not null;index:idx_content_flags_type_id" json:"content_type"`
	ContentID        uint        `gorm:"not null;index:idx_content_flags_type_id" json:"content_id"`
	UserID           uint        `gorm:"not null" json:"user_id"`
	Reason           string      `gorm:"size:255;not null" json:"reason"`
	Details          string      `gorm:"type:text" json:"details,omitempty"`
	ModerationResult *Verdict    `gorm:"type:varchar(20)" json:"moderation_result,omitempty"`
	ModeratorID      *uint       `json:"moderator_id,omitempty"`
	Status           FlagStatus  `gorm:"type:varchar(20);default:'pending';not null;index" json:"status"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// Target returns the tagged target this flag points at.
func (f *ContentFlag) Target() FlagTarget {
	return FlagTarget{Kind: f.ContentType, ID: f.ContentID}
}
