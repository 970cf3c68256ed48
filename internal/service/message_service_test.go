package service

import (
	"context"
	"testing"

	"epsylon/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessage_ToSelf(t *testing.T) {
	svc := NewMessageService(noopMessageRepo(), noopUserRepo(), nil, nil)

	_, err := svc.SendMessage(context.Background(), SendMessageInput{
		SenderID: 1, RecipientID: 1, Content: "hi me",
	})
	assertValidationError(t, err)
}

func TestSendMessage_MissingRecipient(t *testing.T) {
	userRepo := noopUserRepo()
	userRepo.getByIDFn = func(_ context.Context, _ uint) (*models.User, error) { return nil, errNotFound }
	svc := NewMessageService(noopMessageRepo(), userRepo, nil, nil)

	_, err := svc.SendMessage(context.Background(), SendMessageInput{
		SenderID: 1, RecipientID: 999, Content: "hello",
	})
	assertNotFoundError(t, err)
}

func TestSendMessage_UnsafeBlocked(t *testing.T) {
	messageRepo := noopMessageRepo()
	created := false
	messageRepo.createFn = func(_ context.Context, _ *models.DirectMessage) error {
		created = true
		return nil
	}
	svc := NewMessageService(messageRepo, noopUserRepo(), verdictClassifier{models.VerdictUnsafe}, nil)

	_, err := svc.SendMessage(context.Background(), SendMessageInput{
		SenderID: 1, RecipientID: 2, Content: "bad",
	})
	assertValidationError(t, err)
	assert.False(t, created)
}

// Every direct message notifies the recipient.
func TestSendMessage_NotifiesRecipient(t *testing.T) {
	notifier, recorder := newRecordingNotifier()
	svc := NewMessageService(noopMessageRepo(), noopUserRepo(), nil, notifier)

	_, err := svc.SendMessage(context.Background(), SendMessageInput{
		SenderID: 1, RecipientID: 2, Content: "hello there",
	})
	require.NoError(t, err)

	created := recorder.all()
	require.Len(t, created, 1)
	assert.Equal(t, uint(2), created[0].UserID)
	assert.Equal(t, models.NotificationTypeMessage, created[0].Type)
}

func TestSendMessage_ReviewVerdictFlagsMessage(t *testing.T) {
	svc := NewMessageService(noopMessageRepo(), noopUserRepo(), verdictClassifier{models.VerdictReview}, nil)

	message, err := svc.SendMessage(context.Background(), SendMessageInput{
		SenderID: 1, RecipientID: 2, Content: "borderline",
	})
	require.NoError(t, err)
	assert.True(t, message.IsFlagged)
}

func TestGetConversation_MarksRead(t *testing.T) {
	messageRepo := noopMessageRepo()
	marked := false
	messageRepo.markReadFn = func(_ context.Context, userID, partnerID uint) error {
		assert.Equal(t, uint(1), userID)
		assert.Equal(t, uint(2), partnerID)
		marked = true
		return nil
	}
	svc := NewMessageService(messageRepo, noopUserRepo(), nil, nil)

	_, err := svc.GetConversation(context.Background(), 1, 2, 50, 0)
	require.NoError(t, err)
	assert.True(t, marked)
}

func TestMarkThreadRead(t *testing.T) {
	messageRepo := noopMessageRepo()
	marked := false
	messageRepo.markReadFn = func(_ context.Context, userID, partnerID uint) error {
		assert.Equal(t, uint(1), userID)
		assert.Equal(t, uint(2), partnerID)
		marked = true
		return nil
	}
	svc := NewMessageService(messageRepo, noopUserRepo(), nil, nil)

	require.NoError(t, svc.MarkThreadRead(context.Background(), 1, 2))
	assert.True(t, marked)
}

func TestMarkThreadRead_MissingPartner(t *testing.T) {
	userRepo := noopUserRepo()
	userRepo.getByIDFn = func(_ context.Context, _ uint) (*models.User, error) { return nil, errNotFound }
	svc := NewMessageService(noopMessageRepo(), userRepo, nil, nil)

	assertNotFoundError(t, svc.MarkThreadRead(context.Background(), 1, 999))
}

func TestDeleteMessage_NotSender(t *testing.T) {
	messageRepo := noopMessageRepo()
	messageRepo.getByIDFn = func(_ context.Context, id uint) (*models.DirectMessage, error) {
		return &models.DirectMessage{ID: id, SenderID: 42, RecipientID: 1}, nil
	}
	svc := NewMessageService(messageRepo, noopUserRepo(), nil, nil)

	err := svc.DeleteMessage(context.Background(), 1, 5)
	assertForbiddenError(t, err)
}

func TestDeleteMessage_Sender(t *testing.T) {
	messageRepo := noopMessageRepo()
	messageRepo.getByIDFn = func(_ context.Context, id uint) (*models.DirectMessage, error) {
		return &models.DirectMessage{ID: id, SenderID: 1, RecipientID: 2}, nil
	}
	deleted := false
	messageRepo.softDeleteFn = func(_ context.Context, _ uint) error {
		deleted = true
		return nil
	}
	svc := NewMessageService(messageRepo, noopUserRepo(), nil, nil)

	require.NoError(t, svc.DeleteMessage(context.Background(), 1, 5))
	assert.True(t, deleted)
}
