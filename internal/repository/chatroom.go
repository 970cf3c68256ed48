package repository

import (
	"context"
	"errors"

	"epsylon/internal/models"
	"epsylon/internal/observability"

	"gorm.io/gorm"
)

// ChatRoomRepository defines the interface for chat room data operations
type ChatRoomRepository interface {
	Create(ctx context.Context, room *models.ChatRoom) error
	GetByID(ctx context.Context, id uint) (*models.ChatRoom, error)
	ListUserRooms(ctx context.Context, userID uint, limit, offset int) ([]*models.ChatRoom, error)
	Update(ctx context.Context, room *models.ChatRoom) error
	AddMember(ctx context.Context, roomID, userID uint, role models.ChatRoomRole) (bool, error)
	RemoveMember(ctx context.Context, roomID, userID uint) error
	GetMembers(ctx context.Context, roomID uint) ([]*models.ChatRoomMember, error)
	GetMember(ctx context.Context, roomID, userID uint) (*models.ChatRoomMember, error)
	CreateMessage(ctx context.Context, message *models.GroupMessage) error
	GetMessages(ctx context.Context, roomID uint, limit, offset int) ([]*models.GroupMessage, error)
}

// chatRoomRepository implements ChatRoomRepository
type chatRoomRepository struct {
	db *gorm.DB
}

// NewChatRoomRepository creates a new chat room repository
func NewChatRoomRepository(db *gorm.DB) ChatRoomRepository {
	return &chatRoomRepository{db: db}
}

// Create inserts the room and the creator's admin membership in one
// transaction. MemberCount starts at 1 to account for that row.
func (r *chatRoomRepository) Create(ctx context.Context, room *models.ChatRoom) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room.MemberCount = 1
		if err := tx.Create(room).Error; err != nil {
			return err
		}
		return tx.Create(&models.ChatRoomMember{
			ChatRoomID: room.ID,
			UserID:     room.CreatorID,
			Role:       models.ChatRoomRoleAdmin,
		}).Error
	})
}

func (r *chatRoomRepository) GetByID(ctx context.Context, id uint) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := r.db.WithContext(ctx).First(&room, id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *chatRoomRepository) ListUserRooms(ctx context.Context, userID uint, limit, offset int) ([]*models.ChatRoom, error) {
	var rooms []*models.ChatRoom
	memberRooms := r.db.Model(&models.ChatRoomMember{}).
		Select("chat_room_id").
		Where("user_id = ?", userID)
	err := r.db.WithContext(ctx).
		Where("id IN (?)", memberRooms).
		Order("updated_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rooms).Error
	return rooms, err
}

func (r *chatRoomRepository) Update(ctx context.Context, room *models.ChatRoom) error {
	return r.db.WithContext(ctx).Save(room).Error
}

// AddMember inserts the membership row and bumps the room's member count in
// one transaction. An existing membership is a silent no-op returning false.
func (r *chatRoomRepository) AddMember(ctx context.Context, roomID, userID uint, role models.ChatRoomRole) (bool, error) {
	added := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.ChatRoomMember
		err := tx.Where("chat_room_id = ? AND user_id = ?", roomID, userID).First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if role == "" {
			role = models.ChatRoomRoleMember
		}
		if err := tx.Create(&models.ChatRoomMember{
			ChatRoomID: roomID,
			UserID:     userID,
			Role:       role,
		}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.ChatRoom{}).
			Where("id = ?", roomID).
			UpdateColumn("member_count", gorm.Expr("member_count + ?", 1)).Error; err != nil {
			return err
		}
		added = true
		observability.CounterMutations.WithLabelValues("room_member_count", "inc").Inc()
		return nil
	})
	return added, err
}

// RemoveMember deletes the membership row and decrements the member count
// unconditionally.
func (r *chatRoomRepository) RemoveMember(ctx context.Context, roomID, userID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_room_id = ? AND user_id = ?", roomID, userID).
			Delete(&models.ChatRoomMember{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.ChatRoom{}).
			Where("id = ?", roomID).
			UpdateColumn("member_count", gorm.Expr("member_count - ?", 1)).Error; err != nil {
			return err
		}
		observability.CounterMutations.WithLabelValues("room_member_count", "dec").Inc()
		return nil
	})
}

func (r *chatRoomRepository) GetMembers(ctx context.Context, roomID uint) ([]*models.ChatRoomMember, error) {
	var members []*models.ChatRoomMember
	err := r.db.WithContext(ctx).
		Where("chat_room_id = ?", roomID).
		Order("joined_at ASC").
		Find(&members).Error
	return members, err
}

func (r *chatRoomRepository) GetMember(ctx context.Context, roomID, userID uint) (*models.ChatRoomMember, error) {
	var member models.ChatRoomMember
	err := r.db.WithContext(ctx).
		Where("chat_room_id = ? AND user_id = ?", roomID, userID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *chatRoomRepository) CreateMessage(ctx context.Context, message *models.GroupMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *chatRoomRepository) GetMessages(ctx context.Context, roomID uint, limit, offset int) ([]*models.GroupMessage, error) {
	var messages []*models.GroupMessage
	err := r.db.WithContext(ctx).
		Where("chat_room_id = ? AND is_deleted = ?", roomID, false).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	return messages, err
}
