package service

import (
	"context"

	"epsylon/internal/models"
	"epsylon/internal/repository"
)

type NotificationService struct {
	notificationRepo repository.NotificationRepository
}

func NewNotificationService(notificationRepo repository.NotificationRepository) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo}
}

func (s *NotificationService) GetNotifications(ctx context.Context, userID uint, limit, offset int) ([]*models.Notification, error) {
	return s.notificationRepo.GetByUserID(ctx, userID, limit, offset)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uint) error {
	if err := s.notificationRepo.MarkRead(ctx, userID, notificationID); err != nil {
		return models.NewNotFoundError("Notification", notificationID)
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) error {
	if err := s.notificationRepo.MarkAllRead(ctx, userID); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *NotificationService) CountUnread(ctx context.Context, userID uint) (int64, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}
