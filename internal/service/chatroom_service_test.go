package service

import (
	"context"
	"testing"

	"epsylon/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreateRoom_EmptyName(t *testing.T) {
	svc := NewChatRoomService(noopChatRoomRepo(), noopUserRepo(), nil)

	_, err := svc.CreateRoom(context.Background(), CreateRoomInput{CreatorID: 1, Name: "   "})
	assertValidationError(t, err)
}

func TestCreateRoom_TrimsName(t *testing.T) {
	roomRepo := noopChatRoomRepo()
	var written *models.ChatRoom
	roomRepo.createFn = func(_ context.Context, r *models.ChatRoom) error {
		r.ID = 7
		written = r
		return nil
	}
	svc := NewChatRoomService(roomRepo, noopUserRepo(), nil)

	_, err := svc.CreateRoom(context.Background(), CreateRoomInput{CreatorID: 1, Name: "  Gophers  "})
	require.NoError(t, err)
	assert.Equal(t, "Gophers", written.Name)
	assert.Equal(t, uint(1), written.CreatorID)
}

func TestGetRoom_PrivateNonMember(t *testing.T) {
	roomRepo := noopChatRoomRepo()
	roomRepo.getByIDFn = func(_ context.Context, id uint) (*models.ChatRoom, error) {
		return &models.ChatRoom{ID: id, IsPrivate: true}, nil
	}
	roomRepo.getMemberFn = func(_ context.Context, _, _ uint) (*models.ChatRoomMember, error) {
		return nil, gorm.ErrRecordNotFound
	}
	svc := NewChatRoomService(roomRepo, noopUserRepo(), nil)

	_, err := svc.GetRoom(context.Background(), 5, 1)
	assertForbiddenError(t, err)
}

func TestGetRoom_PrivateMember(t *testing.T) {
	roomRepo := noopChatRoomRepo()
	roomRepo.getByIDFn = func(_ context.Context, id uint) (*models.ChatRoom, error) {
		return &models.ChatRoom{ID: id, IsPrivate: true}, nil
	}
	roomRepo.getMemberFn = func(_ context.Context, roomID, userID uint) (*models.ChatRoomMember, error) {
		return &models.ChatRoomMember{ChatRoomID: roomID, UserID: userID}, nil
	}
	svc := NewChatRoomService(roomRepo, noopUserRepo(), nil)

	room, err := svc.GetRoom(context.Background(), 5, 1)
	require.NoError(t, err)
	assert.Equal(t, uint(5), room.ID)
}

// Anyone can join a public room on their own.
func TestAddMember_SelfJoinPublic(t *testing.T) {
	roomRepo := noopChatRoomRepo()
	roomRepo.getByIDFn = func(_ context.Context, id uint) (*models.ChatRoom, error) {
		return &models.ChatRoom{ID: id}, nil
	}
	svc := NewChatRoomService(roomRepo, noopUserRepo(), nil)

	result, err := svc.AddMember(context.Background(), 5, 1, 1)
	require.NoError(t, err)
	assert.False(t, result.AlreadyMember)
}

func TestAddMember_SelfJoinPrivateForbidden(t *testing.T) {
	roomRepo := noopChatRoomRepo()
	roomRepo.getByIDFn = func(_ context.Context, id uint) (*models.ChatRoom, error) {
		return &models.ChatRoom{ID: id, IsPrivate: true}, nil
	}
	roomRepo.getMemberFn = func(_ context.Context, _, _ uint) (*models.ChatRoomMember, error) {
		return nil, gorm.ErrRecordNotFound
	}
	svc := NewChatRoomService(roomRepo, noopUserRepo(), nil)

	_, err := svc.AddMember(context.Background(), 5, 1, 1)
	assertForbiddenError(t, err)
}

// A plain member cannot invite others; that takes a moderator or admin role.
func TestAddMember_InviteByPlainMemberForbidden(t *testing.T) {
	roomRepo := noopChatRoomRepo()
	roomRepo.getByIDFn = func(_ context.Context, id uint) (*models.ChatRoom, error) {
		return &models.ChatRoom{ID: id}, nil
	}
	roomRepo.getMemberFn = func(_ context.Context, roomID, userID uint) (*models.ChatRoomMember, error) {
		return &models.ChatRoomMember{ChatRoomID: roomID, UserID: userID, Role: models.ChatRoomRoleMember}, nil
	}
	svc := NewChatRoomService(roomRepo, noopUserRepo(), nil)

	_, err := svc.AddMember(context.Background(), 5, 1, 2)
	assertForbiddenError(t, err)
}

func TestAddMember_InviteByRoomAdmin(t *testing.T) {
	roomRepo := noopChatRoomRepo()
	roomRepo.getByIDFn = func(_ context.Context, id uint) (*models.ChatRoom, error) {
		return &models.ChatRoom{ID: id, IsPrivate: true}, nil
	}
	roomRepo.getMemberFn = func(_ context.Context, roomID, userID uint) (*models.ChatRoomMember, error) {
		return &models.ChatRoomMember{ChatRoomID: roomID, UserID: userID, Role: models.ChatRoomRoleAdmin}, nil
	}
	svc := NewChatRoomService(roomRepo, noopUserRepo(), nil)

	result, err := svc.AddMember(context.Background(), 5, 1, 2)
	require.NoError(t, err)
	assert.False(t, result.AlreadyMember)
}

func TestAddMember_AlreadyMember(t *testing.T) {
	roomRepo := noopChatRoomRepo()
	roomRepo.getByIDFn = func(_ context.Context, id uint) (*models.ChatRoom, error) {
		return &models.ChatRoom{ID: id}, nil
	}
	roomRepo.addMemberFn = func(_ context.Context, _, _ uint, _ models.ChatRoomRole) (bool, error) {
		return false, nil
	}
	svc := NewChatRoomService(roomRepo, noopUserRepo(), nil)

	result, err := svc.AddMember(context.Background(), 5, 1, 1)
	require.NoError(t, err)
	assert.True(t, result.AlreadyMember)
}

// Members may always remove themselves.
func TestRemoveMember_SelfLeave(t *testing.T) {
	roomRepo := noopChatRoomRepo()
	removed := false
	roomRepo.removeMemberFn = func(_ context.Context, _, _ uint) error {
		removed = true
		return nil
	}
	svc := NewChatRoomService(roomRepo, noopUserRepo(), nil)

	require.NoError(t, svc.RemoveMember(context.Background(), 5, 1, 1))
	assert.True(t, removed)
}

func TestRemoveMember_ByPlainMemberForbidden(t *testing.T) {
	roomRepo := noopChatRoomRepo()
	roomRepo.getMemberFn = func(_ context.Context, roomID, userID uint) (*models.ChatRoomMember, error) {
		return &models.ChatRoomMember{ChatRoomID: roomID, UserID: userID, Role: models.ChatRoomRoleMember}, nil
	}
	svc := NewChatRoomService(roomRepo, noopUserRepo(), nil)

	err := svc.RemoveMember(context.Background(), 5, 1, 2)
	assertForbiddenError(t, err)
}

func TestSendRoomMessage_NonMember(t *testing.T) {
	roomRepo := noopChatRoomRepo()
	roomRepo.getMemberFn = func(_ context.Context, _, _ uint) (*models.ChatRoomMember, error) {
		return nil, gorm.ErrRecordNotFound
	}
	svc := NewChatRoomService(roomRepo, noopUserRepo(), nil)

	_, err := svc.SendMessage(context.Background(), SendRoomMessageInput{RoomID: 5, UserID: 1, Content: "hi"})
	assertForbiddenError(t, err)
}

func TestSendRoomMessage_UnsafeBlocked(t *testing.T) {
	roomRepo := noopChatRoomRepo()
	roomRepo.getMemberFn = func(_ context.Context, roomID, userID uint) (*models.ChatRoomMember, error) {
		return &models.ChatRoomMember{ChatRoomID: roomID, UserID: userID}, nil
	}
	svc := NewChatRoomService(roomRepo, noopUserRepo(), verdictClassifier{models.VerdictUnsafe})

	_, err := svc.SendMessage(context.Background(), SendRoomMessageInput{RoomID: 5, UserID: 1, Content: "bad"})
	assertValidationError(t, err)
}

func TestGetMessages_NonMember(t *testing.T) {
	roomRepo := noopChatRoomRepo()
	roomRepo.getMemberFn = func(_ context.Context, _, _ uint) (*models.ChatRoomMember, error) {
		return nil, gorm.ErrRecordNotFound
	}
	svc := NewChatRoomService(roomRepo, noopUserRepo(), nil)

	_, err := svc.GetMessages(context.Background(), 5, 1, 50, 0)
	assertForbiddenError(t, err)
}
