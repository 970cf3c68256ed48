// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"time"

	"epsylon/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	UpsertByOpenID(ctx context.Context, openID string, defaults *models.User) (*models.User, error)
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByOpenID(ctx context.Context, openID string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Search(ctx context.Context, query string, limit, offset int) ([]*models.User, error)
	GetProfile(ctx context.Context, userID uint) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, profile *models.UserProfile) error
	GetPreferences(ctx context.Context, userID uint) (*models.NotificationPreference, error)
	UpdatePreferences(ctx context.Context, prefs *models.NotificationPreference) error
}

// userRepository implements UserRepository
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// UpsertByOpenID looks up the account for an external identity and creates it
// on first login. A fresh account gets its profile and notification
// preference rows in the same transaction so the counters always exist.
func (r *userRepository) UpsertByOpenID(ctx context.Context, openID string, defaults *models.User) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("open_id = ?", openID).First(&user).Error
	if err == nil {
		user.LastSignedIn = time.Now()
		if defaults != nil && defaults.LoginMethod != "" {
			user.LoginMethod = defaults.LoginMethod
		}
		if updateErr := r.db.WithContext(ctx).Save(&user).Error; updateErr != nil {
			return nil, updateErr
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = models.User{
		OpenID:       openID,
		LastSignedIn: time.Now(),
	}
	if defaults != nil {
		user.Name = defaults.Name
		user.Email = defaults.Email
		user.AvatarURL = defaults.AvatarURL
		user.LoginMethod = defaults.LoginMethod
		user.Role = defaults.Role
	}
	if user.Role == "" {
		user.Role = models.UserRoleUser
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.UserProfile{UserID: user.ID}).Error; err != nil {
			return err
		}
		return tx.Create(&models.NotificationPreference{
			UserID:             user.ID,
			EmailOnMessage:     true,
			EmailOnLike:        true,
			EmailOnComment:     true,
			EmailOnFollow:      true,
			EmailOnMention:     true,
			InAppNotifications: true,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByOpenID(ctx context.Context, openID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("open_id = ?", openID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepository) Search(ctx context.Context, query string, limit, offset int) ([]*models.User, error) {
	var users []*models.User
	like := "%" + query + "%"
	err := r.db.WithContext(ctx).
		Where("username ILIKE ? OR name ILIKE ? OR email ILIKE ?", like, like, like).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	return users, err
}

func (r *userRepository) GetProfile(ctx context.Context, userID uint) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, profile *models.UserProfile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

func (r *userRepository) GetPreferences(ctx context.Context, userID uint) (*models.NotificationPreference, error) {
	var prefs models.NotificationPreference
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&prefs).Error; err != nil {
		return nil, err
	}
	return &prefs, nil
}

func (r *userRepository) UpdatePreferences(ctx context.Context, prefs *models.NotificationPreference) error {
	return r.db.WithContext(ctx).Save(prefs).Error
}
