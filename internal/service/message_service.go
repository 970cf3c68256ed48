package service

import (
	"context"
	"strings"

	"epsylon/internal/models"
	"epsylon/internal/moderation"
	"epsylon/internal/notifications"
	"epsylon/internal/repository"
)

const MaxMessageContentLen = 5000

type MessageService struct {
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
	classifier  moderation.Classifier
	notifier    *notifications.Notifier
}

type SendMessageInput struct {
	SenderID    uint
	RecipientID uint
	Content     string `validate:"required,max=5000"`
	ImageURL    string `validate:"omitempty,url"`
}

func NewMessageService(
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	classifier moderation.Classifier,
	notifier *notifications.Notifier,
) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		userRepo:    userRepo,
		classifier:  classifier,
		notifier:    notifier,
	}
}

// SendMessage classifies and delivers a direct message. Every message
// notifies the recipient.
func (s *MessageService) SendMessage(ctx context.Context, in SendMessageInput) (*models.DirectMessage, error) {
	if in.SenderID == in.RecipientID {
		return nil, models.NewValidationError("You cannot message yourself")
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if err := validate.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if _, err := s.userRepo.GetByID(ctx, in.RecipientID); err != nil {
		return nil, models.NewNotFoundError("User", in.RecipientID)
	}

	message := &models.DirectMessage{
		SenderID:    in.SenderID,
		RecipientID: in.RecipientID,
		Content:     in.Content,
		ImageURL:    in.ImageURL,
	}

	if s.classifier != nil {
		switch s.classifier.Classify(ctx, in.Content) {
		case models.VerdictUnsafe:
			return nil, models.NewValidationError("Content violates community guidelines")
		case models.VerdictReview:
			message.IsFlagged = true
		}
	}

	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, models.NewInternalError(err)
	}

	if s.notifier != nil {
		sender, err := s.userRepo.GetByID(ctx, in.SenderID)
		if err == nil {
			s.notifier.Notify(ctx, notifications.MessageNotification(
				in.RecipientID, in.SenderID, displayName(sender), excerpt(in.Content, 120),
			))
		}
	}

	return message, nil
}

// GetConversation returns the thread with a partner and marks their messages
// read.
func (s *MessageService) GetConversation(ctx context.Context, userID, partnerID uint, limit, offset int) ([]*models.DirectMessage, error) {
	if _, err := s.userRepo.GetByID(ctx, partnerID); err != nil {
		return nil, models.NewNotFoundError("User", partnerID)
	}
	messages, err := s.messageRepo.GetConversation(ctx, userID, partnerID, limit, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := s.messageRepo.MarkRead(ctx, userID, partnerID); err != nil {
		return nil, models.NewInternalError(err)
	}
	return messages, nil
}

// MarkThreadRead marks every message from partner to user as read.
func (s *MessageService) MarkThreadRead(ctx context.Context, userID, partnerID uint) error {
	if _, err := s.userRepo.GetByID(ctx, partnerID); err != nil {
		return models.NewNotFoundError("User", partnerID)
	}
	if err := s.messageRepo.MarkRead(ctx, userID, partnerID); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *MessageService) ListConversations(ctx context.Context, userID uint) ([]*repository.ConversationSummary, error) {
	return s.messageRepo.ListConversations(ctx, userID)
}

// DeleteMessage soft-deletes. Only the sender may delete.
func (s *MessageService) DeleteMessage(ctx context.Context, userID, messageID uint) error {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return models.NewNotFoundError("Message", messageID)
	}
	if message.SenderID != userID {
		return models.NewForbiddenError("You can only delete your own messages")
	}
	return s.messageRepo.SoftDelete(ctx, messageID)
}

func (s *MessageService) CountUnread(ctx context.Context, userID uint) (int64, error) {
	return s.messageRepo.CountUnread(ctx, userID)
}
