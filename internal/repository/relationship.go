package repository

import (
	"context"
	"errors"

	"epsylon/internal/models"
	"epsylon/internal/observability"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

// RelationshipRepository defines the interface for follow-graph operations
type RelationshipRepository interface {
	Follow(ctx context.Context, followerID, followingID uint) (bool, error)
	Unfollow(ctx context.Context, followerID, followingID uint) error
	IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error)
	GetFollowers(ctx context.Context, userID uint, limit, offset int) ([]*models.User, error)
	GetFollowing(ctx context.Context, userID uint, limit, offset int) ([]*models.User, error)
	GetFollowingIDs(ctx context.Context, userID uint) ([]uint, error)
}

// relationshipRepository implements RelationshipRepository
type relationshipRepository struct {
	db *gorm.DB
}

// NewRelationshipRepository creates a new relationship repository
func NewRelationshipRepository(db *gorm.DB) RelationshipRepository {
	return &relationshipRepository{db: db}
}

// Follow inserts the follow edge and bumps both sides' counters in one
// transaction: the follower's following count and the followee's follower
// count. An existing edge is a silent no-op returning false.
func (r *relationshipRepository) Follow(ctx context.Context, followerID, followingID uint) (bool, error) {
	followed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Relationship
		err := tx.Where("follower_id = ? AND following_id = ?", followerID, followingID).
			First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		edge := models.Relationship{
			FollowerID:  followerID,
			FollowingID: followingID,
			Status:      models.RelationshipStatusFollowing,
		}
		if err := tx.Create(&edge).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.UserProfile{}).
			Where("user_id = ?", followerID).
			UpdateColumn("following_count", gorm.Expr("following_count + ?", 1)).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.UserProfile{}).
			Where("user_id = ?", followingID).
			UpdateColumn("follower_count", gorm.Expr("follower_count + ?", 1)).Error; err != nil {
			return err
		}
		followed = true
		observability.CounterMutations.WithLabelValues("follow_counts", "inc").Inc()
		return nil
	})
	return followed, err
}

// Unfollow deletes the edge and decrements both counters with a zero floor.
// The floor guard keeps a repeated unfollow from driving counts negative.
func (r *relationshipRepository) Unfollow(ctx context.Context, followerID, followingID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("follower_id = ? AND following_id = ?", followerID, followingID).
			Delete(&models.Relationship{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.UserProfile{}).
			Where("user_id = ? AND following_count > 0", followerID).
			UpdateColumn("following_count", gorm.Expr("following_count - ?", 1)).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.UserProfile{}).
			Where("user_id = ? AND follower_count > 0", followingID).
			UpdateColumn("follower_count", gorm.Expr("follower_count - ?", 1)).Error; err != nil {
			return err
		}
		observability.CounterMutations.WithLabelValues("follow_counts", "dec").Inc()
		return nil
	})
}

func (r *relationshipRepository) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Relationship{}).
		Where("follower_id = ? AND following_id = ? AND status = ?",
			followerID, followingID, models.RelationshipStatusFollowing).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *relationshipRepository) GetFollowers(ctx context.Context, userID uint, limit, offset int) ([]*models.User, error) {
	var edges []models.Relationship
	err := r.db.WithContext(ctx).
		Where("following_id = ? AND status = ?", userID, models.RelationshipStatusFollowing).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&edges).Error
	if err != nil {
		return nil, err
	}
	ids := lo.Map(edges, func(e models.Relationship, _ int) uint { return e.FollowerID })
	return r.usersByIDs(ctx, ids)
}

func (r *relationshipRepository) GetFollowing(ctx context.Context, userID uint, limit, offset int) ([]*models.User, error) {
	var edges []models.Relationship
	err := r.db.WithContext(ctx).
		Where("follower_id = ? AND status = ?", userID, models.RelationshipStatusFollowing).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&edges).Error
	if err != nil {
		return nil, err
	}
	ids := lo.Map(edges, func(e models.Relationship, _ int) uint { return e.FollowingID })
	return r.usersByIDs(ctx, ids)
}

func (r *relationshipRepository) GetFollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Relationship{}).
		Where("follower_id = ? AND status = ?", userID, models.RelationshipStatusFollowing).
		Pluck("following_id", &ids).Error
	return ids, err
}

// usersByIDs loads users preserving the order of ids.
func (r *relationshipRepository) usersByIDs(ctx context.Context, ids []uint) ([]*models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []*models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	byID := lo.KeyBy(users, func(u *models.User) uint { return u.ID })
	ordered := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			ordered = append(ordered, u)
		}
	}
	return ordered, nil
}
