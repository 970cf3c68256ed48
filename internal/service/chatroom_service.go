package service

import (
	"context"
	"errors"
	"strings"

	"epsylon/internal/models"
	"epsylon/internal/moderation"
	"epsylon/internal/repository"

	"gorm.io/gorm"
)

type ChatRoomService struct {
	roomRepo   repository.ChatRoomRepository
	userRepo   repository.UserRepository
	classifier moderation.Classifier
}

type CreateRoomInput struct {
	CreatorID   uint
	Name        string `validate:"required,min=1,max=100"`
	Description string `validate:"max=1000"`
	IconURL     string `validate:"omitempty,url"`
	IsPrivate   bool
}

// AddMemberResult reports whether the membership row was actually created.
type AddMemberResult struct {
	AlreadyMember bool `json:"already_member"`
}

type SendRoomMessageInput struct {
	RoomID   uint
	UserID   uint
	Content  string `validate:"required,max=5000"`
	ImageURL string `validate:"omitempty,url"`
}

func NewChatRoomService(
	roomRepo repository.ChatRoomRepository,
	userRepo repository.UserRepository,
	classifier moderation.Classifier,
) *ChatRoomService {
	return &ChatRoomService{
		roomRepo:   roomRepo,
		userRepo:   userRepo,
		classifier: classifier,
	}
}

// CreateRoom creates the room with the creator as its admin member.
func (s *ChatRoomService) CreateRoom(ctx context.Context, in CreateRoomInput) (*models.ChatRoom, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, models.NewValidationError("Room name is required")
	}
	if err := validate.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	room := &models.ChatRoom{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		CreatorID:   in.CreatorID,
		IconURL:     in.IconURL,
		IsPrivate:   in.IsPrivate,
	}
	if err := s.roomRepo.Create(ctx, room); err != nil {
		return nil, models.NewInternalError(err)
	}
	return room, nil
}

// GetRoom returns the room. Private rooms are visible to members only.
func (s *ChatRoomService) GetRoom(ctx context.Context, roomID, userID uint) (*models.ChatRoom, error) {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, models.NewNotFoundError("Chat room", roomID)
	}
	if room.IsPrivate {
		if _, err := s.roomRepo.GetMember(ctx, roomID, userID); err != nil {
			return nil, models.NewForbiddenError("This room is private")
		}
	}
	return room, nil
}

func (s *ChatRoomService) ListUserRooms(ctx context.Context, userID uint, limit, offset int) ([]*models.ChatRoom, error) {
	return s.roomRepo.ListUserRooms(ctx, userID, limit, offset)
}

// AddMember adds a user to the room. Anyone may join a public room; private
// rooms require the requester to hold an elevated room role. Adding an
// existing member is a no-op reported in the result.
func (s *ChatRoomService) AddMember(ctx context.Context, roomID, requesterID, userID uint) (*AddMemberResult, error) {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, models.NewNotFoundError("Chat room", roomID)
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, models.NewNotFoundError("User", userID)
	}

	selfJoin := requesterID == userID
	if room.IsPrivate || !selfJoin {
		requester, err := s.roomRepo.GetMember(ctx, roomID, requesterID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, models.NewForbiddenError("Only room members can invite")
			}
			return nil, models.NewInternalError(err)
		}
		if !selfJoin && requester.Role == models.ChatRoomRoleMember {
			return nil, models.NewForbiddenError("Only room moderators can add members")
		}
	}

	added, err := s.roomRepo.AddMember(ctx, roomID, userID, models.ChatRoomRoleMember)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AddMemberResult{AlreadyMember: !added}, nil
}

// RemoveMember removes a user from the room. Members may leave on their own;
// removing someone else requires an elevated room role.
func (s *ChatRoomService) RemoveMember(ctx context.Context, roomID, requesterID, userID uint) error {
	if _, err := s.roomRepo.GetByID(ctx, roomID); err != nil {
		return models.NewNotFoundError("Chat room", roomID)
	}

	if requesterID != userID {
		requester, err := s.roomRepo.GetMember(ctx, roomID, requesterID)
		if err != nil {
			return models.NewForbiddenError("Only room moderators can remove members")
		}
		if requester.Role == models.ChatRoomRoleMember {
			return models.NewForbiddenError("Only room moderators can remove members")
		}
	}

	return s.roomRepo.RemoveMember(ctx, roomID, userID)
}

func (s *ChatRoomService) GetMembers(ctx context.Context, roomID, userID uint) ([]*models.ChatRoomMember, error) {
	if _, err := s.GetRoom(ctx, roomID, userID); err != nil {
		return nil, err
	}
	return s.roomRepo.GetMembers(ctx, roomID)
}

// SendMessage posts into the room. Membership is required; content runs
// through the same moderation gate as posts.
func (s *ChatRoomService) SendMessage(ctx context.Context, in SendRoomMessageInput) (*models.GroupMessage, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if err := validate.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if _, err := s.roomRepo.GetMember(ctx, in.RoomID, in.UserID); err != nil {
		return nil, models.NewForbiddenError("You are not a member of this room")
	}

	message := &models.GroupMessage{
		ChatRoomID: in.RoomID,
		UserID:     in.UserID,
		Content:    in.Content,
		ImageURL:   in.ImageURL,
	}

	if s.classifier != nil {
		switch s.classifier.Classify(ctx, in.Content) {
		case models.VerdictUnsafe:
			return nil, models.NewValidationError("Content violates community guidelines")
		case models.VerdictReview:
			message.IsFlagged = true
		}
	}

	if err := s.roomRepo.CreateMessage(ctx, message); err != nil {
		return nil, models.NewInternalError(err)
	}
	return message, nil
}

func (s *ChatRoomService) GetMessages(ctx context.Context, roomID, userID uint, limit, offset int) ([]*models.GroupMessage, error) {
	if _, err := s.roomRepo.GetMember(ctx, roomID, userID); err != nil {
		return nil, models.NewForbiddenError("You are not a member of this room")
	}
	return s.roomRepo.GetMessages(ctx, roomID, limit, offset)
}
