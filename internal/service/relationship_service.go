package service

import (
	"context"

	"epsylon/internal/models"
	"epsylon/internal/notifications"
	"epsylon/internal/repository"
)

type RelationshipService struct {
	relRepo  repository.RelationshipRepository
	userRepo repository.UserRepository
	notifier *notifications.Notifier
}

// FollowResult reports whether the follow actually created a new edge.
type FollowResult struct {
	AlreadyFollowing bool `json:"already_following"`
}

func NewRelationshipService(
	relRepo repository.RelationshipRepository,
	userRepo repository.UserRepository,
	notifier *notifications.Notifier,
) *RelationshipService {
	return &RelationshipService{
		relRepo:  relRepo,
		userRepo: userRepo,
		notifier: notifier,
	}
}

// Follow creates the follow edge and adjusts both users' counters. Following
// yourself is rejected; following twice is a no-op reported in the result.
// Only a first-time follow notifies the followee.
func (s *RelationshipService) Follow(ctx context.Context, followerID, followingID uint) (*FollowResult, error) {
	if followerID == followingID {
		return nil, models.NewValidationError("You cannot follow yourself")
	}
	if _, err := s.userRepo.GetByID(ctx, followingID); err != nil {
		return nil, models.NewNotFoundError("User", followingID)
	}

	followed, err := s.relRepo.Follow(ctx, followerID, followingID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if !followed {
		return &FollowResult{AlreadyFollowing: true}, nil
	}

	if s.notifier != nil {
		follower, err := s.userRepo.GetByID(ctx, followerID)
		if err == nil {
			s.notifier.Notify(ctx, notifications.FollowNotification(followingID, followerID, displayName(follower)))
		}
	}
	return &FollowResult{AlreadyFollowing: false}, nil
}

// Unfollow removes the edge. The counter decrements floor at zero in storage,
// so repeated unfollows are harmless.
func (s *RelationshipService) Unfollow(ctx context.Context, followerID, followingID uint) error {
	if followerID == followingID {
		return models.NewValidationError("You cannot unfollow yourself")
	}
	if err := s.relRepo.Unfollow(ctx, followerID, followingID); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *RelationshipService) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	return s.relRepo.IsFollowing(ctx, followerID, followingID)
}

func (s *RelationshipService) GetFollowers(ctx context.Context, userID uint, limit, offset int) ([]*models.User, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, models.NewNotFoundError("User", userID)
	}
	return s.relRepo.GetFollowers(ctx, userID, limit, offset)
}

func (s *RelationshipService) GetFollowing(ctx context.Context, userID uint, limit, offset int) ([]*models.User, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, models.NewNotFoundError("User", userID)
	}
	return s.relRepo.GetFollowing(ctx, userID, limit, offset)
}
