package repository

import (
	"context"
	"fmt"

	"epsylon/internal/models"

	"gorm.io/gorm"
)

// FlagRepository defines the interface for content flag data operations
type FlagRepository interface {
	Create(ctx context.Context, flag *models.ContentFlag) error
	GetByID(ctx context.Context, id uint) (*models.ContentFlag, error)
	ListPending(ctx context.Context, limit, offset int) ([]*models.ContentFlag, error)
	Resolve(ctx context.Context, id, moderatorID uint, status models.FlagStatus, result models.Verdict) error
}

// flagRepository implements FlagRepository
type flagRepository struct {
	db *gorm.DB
}

// NewFlagRepository creates a new flag repository
func NewFlagRepository(db *gorm.DB) FlagRepository {
	return &flagRepository{db: db}
}

// Create inserts the flag row and marks the target content flagged in the
// same transaction.
func (r *flagRepository) Create(ctx context.Context, flag *models.ContentFlag) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(flag).Error; err != nil {
			return err
		}
		return markFlagged(tx, flag.Target(), flag.Reason)
	})
}

// markFlagged sets the flagged marker on the target row. The switch is
// exhaustive over target kinds; an unknown kind is a programming error
// surfaced as such.
func markFlagged(tx *gorm.DB, target models.FlagTarget, reason string) error {
	switch target.Kind {
	case models.ContentTypePost:
		return tx.Model(&models.Post{}).
			Where("id = ?", target.ID).
			UpdateColumns(map[string]interface{}{
				"is_flagged":  true,
				"flag_reason": reason,
			}).Error
	case models.ContentTypeComment:
		return tx.Model(&models.Comment{}).
			Where("id = ?", target.ID).
			UpdateColumn("is_flagged", true).Error
	case models.ContentTypeMessage:
		return tx.Model(&models.DirectMessage{}).
			Where("id = ?", target.ID).
			UpdateColumn("is_flagged", true).Error
	case models.ContentTypeProfile:
		// Profiles carry no flagged column; the pending flag row alone
		// queues them for review.
		return nil
	default:
		return fmt.Errorf("unknown flag target kind %q", target.Kind)
	}
}

func (r *flagRepository) GetByID(ctx context.Context, id uint) (*models.ContentFlag, error) {
	var flag models.ContentFlag
	if err := r.db.WithContext(ctx).First(&flag, id).Error; err != nil {
		return nil, err
	}
	return &flag, nil
}

// ListPending returns the moderation queue oldest-first so flags are triaged
// in the order they arrived.
func (r *flagRepository) ListPending(ctx context.Context, limit, offset int) ([]*models.ContentFlag, error) {
	var flags []*models.ContentFlag
	err := r.db.WithContext(ctx).
		Where("status = ?", models.FlagStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&flags).Error
	return flags, err
}

// Resolve closes out the flag, recording the moderator's verdict alongside
// the new status.
func (r *flagRepository) Resolve(ctx context.Context, id, moderatorID uint, status models.FlagStatus, verdict models.Verdict) error {
	result := r.db.WithContext(ctx).
		Model(&models.ContentFlag{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"status":            status,
			"moderator_id":      moderatorID,
			"moderation_result": verdict,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
