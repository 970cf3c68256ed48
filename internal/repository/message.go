package repository

import (
	"context"

	"epsylon/internal/models"

	"gorm.io/gorm"
)

// ConversationSummary is one row of a user's conversation list: the other
// participant plus the most recent message exchanged with them.
type ConversationSummary struct {
	PartnerID   uint                  `json:"partner_id"`
	Partner     *models.User          `json:"partner,omitempty"`
	LastMessage *models.DirectMessage `json:"last_message"`
	UnreadCount int64                 `json:"unread_count"`
}

// MessageRepository defines the interface for direct message data operations
type MessageRepository interface {
	Create(ctx context.Context, message *models.DirectMessage) error
	GetByID(ctx context.Context, id uint) (*models.DirectMessage, error)
	GetConversation(ctx context.Context, userID, partnerID uint, limit, offset int) ([]*models.DirectMessage, error)
	ListConversations(ctx context.Context, userID uint) ([]*ConversationSummary, error)
	MarkRead(ctx context.Context, userID, partnerID uint) error
	SoftDelete(ctx context.Context, id uint) error
	CountUnread(ctx context.Context, userID uint) (int64, error)
}

// messageRepository implements MessageRepository
type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *models.DirectMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *messageRepository) GetByID(ctx context.Context, id uint) (*models.DirectMessage, error) {
	var message models.DirectMessage
	err := r.db.WithContext(ctx).
		Where("is_deleted = ?", false).
		First(&message, id).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// GetConversation returns the thread between two users, newest first.
func (r *messageRepository) GetConversation(ctx context.Context, userID, partnerID uint, limit, offset int) ([]*models.DirectMessage, error) {
	var messages []*models.DirectMessage
	err := r.db.WithContext(ctx).
		Where("((sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)) AND is_deleted = ?",
			userID, partnerID, partnerID, userID, false).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	return messages, err
}

// ListConversations returns one summary per partner, ordered by most recent
// activity. The window function picks the latest message per pair in a
// single scan.
func (r *messageRepository) ListConversations(ctx context.Context, userID uint) ([]*ConversationSummary, error) {
	var latest []models.DirectMessage
	err := r.db.WithContext(ctx).Raw(`
		SELECT * FROM (
			SELECT *, ROW_NUMBER() OVER (
				PARTITION BY LEAST(sender_id, recipient_id), GREATEST(sender_id, recipient_id)
				ORDER BY created_at DESC
			) AS rn
			FROM direct_messages
			WHERE (sender_id = ? OR recipient_id = ?) AND is_deleted = false
		) t WHERE rn = 1
		ORDER BY created_at DESC`,
		userID, userID,
	).Scan(&latest).Error
	if err != nil {
		return nil, err
	}

	summaries := make([]*ConversationSummary, 0, len(latest))
	for i := range latest {
		msg := latest[i]
		partnerID := msg.SenderID
		if partnerID == userID {
			partnerID = msg.RecipientID
		}

		var partner models.User
		if err := r.db.WithContext(ctx).First(&partner, partnerID).Error; err != nil {
			return nil, err
		}

		var unread int64
		if err := r.db.WithContext(ctx).
			Model(&models.DirectMessage{}).
			Where("sender_id = ? AND recipient_id = ? AND is_read = ? AND is_deleted = ?",
				partnerID, userID, false, false).
			Count(&unread).Error; err != nil {
			return nil, err
		}

		summaries = append(summaries, &ConversationSummary{
			PartnerID:   partnerID,
			Partner:     &partner,
			LastMessage: &msg,
			UnreadCount: unread,
		})
	}
	return summaries, nil
}

// MarkRead marks everything the partner sent to userID as read.
func (r *messageRepository) MarkRead(ctx context.Context, userID, partnerID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.DirectMessage{}).
		Where("sender_id = ? AND recipient_id = ? AND is_read = ?", partnerID, userID, false).
		UpdateColumn("is_read", true).Error
}

func (r *messageRepository) SoftDelete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&models.DirectMessage{}).
		Where("id = ?", id).
		UpdateColumn("is_deleted", true).Error
}

func (r *messageRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.DirectMessage{}).
		Where("recipient_id = ? AND is_read = ? AND is_deleted = ?", userID, false, false).
		Count(&count).Error
	return count, err
}
