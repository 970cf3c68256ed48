package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"epsylon/internal/models"
	"epsylon/internal/notifications"
	"epsylon/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn          func(context.Context, *models.Post) error
	getByIDFn         func(context.Context, uint) (*models.Post, error)
	getByUserIDFn     func(context.Context, uint, int, int) ([]*models.Post, error)
	getFeedFn         func(context.Context, uint, int, int) ([]*models.Post, error)
	searchFn          func(context.Context, string, int, int) ([]*models.Post, error)
	updateFn          func(context.Context, *models.Post) error
	softDeleteFn      func(context.Context, uint) error
	likeFn            func(context.Context, uint, uint) (bool, error)
	unlikeFn          func(context.Context, uint, uint) error
	hasLikedFn        func(context.Context, uint, uint) (bool, error)
	getLikedPostIDsFn func(context.Context, uint, []uint) ([]uint, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) GetByUserID(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	return s.getByUserIDFn(ctx, userID, limit, offset)
}
func (s *postRepoStub) GetFeed(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	return s.getFeedFn(ctx, userID, limit, offset)
}
func (s *postRepoStub) Search(ctx context.Context, query string, limit, offset int) ([]*models.Post, error) {
	return s.searchFn(ctx, query, limit, offset)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) SoftDelete(ctx context.Context, id uint) error {
	return s.softDeleteFn(ctx, id)
}
func (s *postRepoStub) Like(ctx context.Context, userID, postID uint) (bool, error) {
	return s.likeFn(ctx, userID, postID)
}
func (s *postRepoStub) Unlike(ctx context.Context, userID, postID uint) error {
	return s.unlikeFn(ctx, userID, postID)
}
func (s *postRepoStub) HasLiked(ctx context.Context, userID, postID uint) (bool, error) {
	return s.hasLikedFn(ctx, userID, postID)
}
func (s *postRepoStub) GetLikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error) {
	return s.getLikedPostIDsFn(ctx, userID, postIDs)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:          func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn:         func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{}, nil },
		getByUserIDFn:     func(_ context.Context, _ uint, _, _ int) ([]*models.Post, error) { return nil, nil },
		getFeedFn:         func(_ context.Context, _ uint, _, _ int) ([]*models.Post, error) { return nil, nil },
		searchFn:          func(_ context.Context, _ string, _, _ int) ([]*models.Post, error) { return nil, nil },
		updateFn:          func(_ context.Context, _ *models.Post) error { return nil },
		softDeleteFn:      func(_ context.Context, _ uint) error { return nil },
		likeFn:            func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
		unlikeFn:          func(_ context.Context, _, _ uint) error { return nil },
		hasLikedFn:        func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		getLikedPostIDsFn: func(_ context.Context, _ uint, _ []uint) ([]uint, error) { return nil, nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn      func(context.Context, *models.Comment) error
	getByIDFn     func(context.Context, uint) (*models.Comment, error)
	getByPostIDFn func(context.Context, uint, int, int) ([]*models.Comment, error)
	updateFn      func(context.Context, *models.Comment) error
	softDeleteFn  func(context.Context, uint) error
	likeFn        func(context.Context, uint, uint) (bool, error)
	unlikeFn      func(context.Context, uint, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) GetByPostID(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error) {
	return s.getByPostIDFn(ctx, postID, limit, offset)
}
func (s *commentRepoStub) Update(ctx context.Context, comment *models.Comment) error {
	return s.updateFn(ctx, comment)
}
func (s *commentRepoStub) SoftDelete(ctx context.Context, id uint) error {
	return s.softDeleteFn(ctx, id)
}
func (s *commentRepoStub) Like(ctx context.Context, userID, commentID uint) (bool, error) {
	return s.likeFn(ctx, userID, commentID)
}
func (s *commentRepoStub) Unlike(ctx context.Context, userID, commentID uint) error {
	return s.unlikeFn(ctx, userID, commentID)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:      func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn:     func(_ context.Context, _ uint) (*models.Comment, error) { return &models.Comment{}, nil },
		getByPostIDFn: func(_ context.Context, _ uint, _, _ int) ([]*models.Comment, error) { return nil, nil },
		updateFn:      func(_ context.Context, _ *models.Comment) error { return nil },
		softDeleteFn:  func(_ context.Context, _ uint) error { return nil },
		likeFn:        func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
		unlikeFn:      func(_ context.Context, _, _ uint) error { return nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	upsertByOpenIDFn    func(context.Context, string, *models.User) (*models.User, error)
	getByIDFn           func(context.Context, uint) (*models.User, error)
	getByOpenIDFn       func(context.Context, string) (*models.User, error)
	getByUsernameFn     func(context.Context, string) (*models.User, error)
	updateFn            func(context.Context, *models.User) error
	searchFn            func(context.Context, string, int, int) ([]*models.User, error)
	getProfileFn        func(context.Context, uint) (*models.UserProfile, error)
	updateProfileFn     func(context.Context, *models.UserProfile) error
	getPreferencesFn    func(context.Context, uint) (*models.NotificationPreference, error)
	updatePreferencesFn func(context.Context, *models.NotificationPreference) error
}

func (s *userRepoStub) UpsertByOpenID(ctx context.Context, openID string, defaults *models.User) (*models.User, error) {
	return s.upsertByOpenIDFn(ctx, openID, defaults)
}
func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByOpenID(ctx context.Context, openID string) (*models.User, error) {
	return s.getByOpenIDFn(ctx, openID)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) Search(ctx context.Context, query string, limit, offset int) ([]*models.User, error) {
	return s.searchFn(ctx, query, limit, offset)
}
func (s *userRepoStub) GetProfile(ctx context.Context, userID uint) (*models.UserProfile, error) {
	return s.getProfileFn(ctx, userID)
}
func (s *userRepoStub) UpdateProfile(ctx context.Context, profile *models.UserProfile) error {
	return s.updateProfileFn(ctx, profile)
}
func (s *userRepoStub) GetPreferences(ctx context.Context, userID uint) (*models.NotificationPreference, error) {
	return s.getPreferencesFn(ctx, userID)
}
func (s *userRepoStub) UpdatePreferences(ctx context.Context, prefs *models.NotificationPreference) error {
	return s.updatePreferencesFn(ctx, prefs)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		upsertByOpenIDFn: func(_ context.Context, openID string, defaults *models.User) (*models.User, error) {
			u := *defaults
			u.ID = 1
			u.OpenID = openID
			return &u, nil
		},
		getByIDFn:       func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByOpenIDFn:   func(_ context.Context, _ string) (*models.User, error) { return &models.User{ID: 1}, nil },
		getByUsernameFn: func(_ context.Context, _ string) (*models.User, error) { return nil, errNotFound },
		updateFn:        func(_ context.Context, _ *models.User) error { return nil },
		searchFn:        func(_ context.Context, _ string, _, _ int) ([]*models.User, error) { return nil, nil },
		getProfileFn: func(_ context.Context, userID uint) (*models.UserProfile, error) {
			return &models.UserProfile{UserID: userID}, nil
		},
		updateProfileFn: func(_ context.Context, _ *models.UserProfile) error { return nil },
		getPreferencesFn: func(_ context.Context, userID uint) (*models.NotificationPreference, error) {
			return &models.NotificationPreference{UserID: userID}, nil
		},
		updatePreferencesFn: func(_ context.Context, _ *models.NotificationPreference) error { return nil },
	}
}

// relationshipRepoStub is a stub for repository.RelationshipRepository.
type relationshipRepoStub struct {
	followFn          func(context.Context, uint, uint) (bool, error)
	unfollowFn        func(context.Context, uint, uint) error
	isFollowingFn     func(context.Context, uint, uint) (bool, error)
	getFollowersFn    func(context.Context, uint, int, int) ([]*models.User, error)
	getFollowingFn    func(context.Context, uint, int, int) ([]*models.User, error)
	getFollowingIDsFn func(context.Context, uint) ([]uint, error)
}

func (s *relationshipRepoStub) Follow(ctx context.Context, followerID, followingID uint) (bool, error) {
	return s.followFn(ctx, followerID, followingID)
}
func (s *relationshipRepoStub) Unfollow(ctx context.Context, followerID, followingID uint) error {
	return s.unfollowFn(ctx, followerID, followingID)
}
func (s *relationshipRepoStub) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	return s.isFollowingFn(ctx, followerID, followingID)
}
func (s *relationshipRepoStub) GetFollowers(ctx context.Context, userID uint, limit, offset int) ([]*models.User, error) {
	return s.getFollowersFn(ctx, userID, limit, offset)
}
func (s *relationshipRepoStub) GetFollowing(ctx context.Context, userID uint, limit, offset int) ([]*models.User, error) {
	return s.getFollowingFn(ctx, userID, limit, offset)
}
func (s *relationshipRepoStub) GetFollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.getFollowingIDsFn(ctx, userID)
}

func noopRelationshipRepo() *relationshipRepoStub {
	return &relationshipRepoStub{
		followFn:          func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
		unfollowFn:        func(_ context.Context, _, _ uint) error { return nil },
		isFollowingFn:     func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		getFollowersFn:    func(_ context.Context, _ uint, _, _ int) ([]*models.User, error) { return nil, nil },
		getFollowingFn:    func(_ context.Context, _ uint, _, _ int) ([]*models.User, error) { return nil, nil },
		getFollowingIDsFn: func(_ context.Context, _ uint) ([]uint, error) { return nil, nil },
	}
}

// messageRepoStub is a stub for repository.MessageRepository.
type messageRepoStub struct {
	createFn            func(context.Context, *models.DirectMessage) error
	getByIDFn           func(context.Context, uint) (*models.DirectMessage, error)
	getConversationFn   func(context.Context, uint, uint, int, int) ([]*models.DirectMessage, error)
	listConversationsFn func(context.Context, uint) ([]*repository.ConversationSummary, error)
	markReadFn          func(context.Context, uint, uint) error
	softDeleteFn        func(context.Context, uint) error
	countUnreadFn       func(context.Context, uint) (int64, error)
}

func (s *messageRepoStub) Create(ctx context.Context, message *models.DirectMessage) error {
	return s.createFn(ctx, message)
}
func (s *messageRepoStub) GetByID(ctx context.Context, id uint) (*models.DirectMessage, error) {
	return s.getByIDFn(ctx, id)
}
func (s *messageRepoStub) GetConversation(ctx context.Context, userID, partnerID uint, limit, offset int) ([]*models.DirectMessage, error) {
	return s.getConversationFn(ctx, userID, partnerID, limit, offset)
}
func (s *messageRepoStub) ListConversations(ctx context.Context, userID uint) ([]*repository.ConversationSummary, error) {
	return s.listConversationsFn(ctx, userID)
}
func (s *messageRepoStub) MarkRead(ctx context.Context, userID, partnerID uint) error {
	return s.markReadFn(ctx, userID, partnerID)
}
func (s *messageRepoStub) SoftDelete(ctx context.Context, id uint) error {
	return s.softDeleteFn(ctx, id)
}
func (s *messageRepoStub) CountUnread(ctx context.Context, userID uint) (int64, error) {
	return s.countUnreadFn(ctx, userID)
}

func noopMessageRepo() *messageRepoStub {
	return &messageRepoStub{
		createFn:          func(_ context.Context, _ *models.DirectMessage) error { return nil },
		getByIDFn:         func(_ context.Context, _ uint) (*models.DirectMessage, error) { return &models.DirectMessage{}, nil },
		getConversationFn: func(_ context.Context, _, _ uint, _, _ int) ([]*models.DirectMessage, error) { return nil, nil },
		listConversationsFn: func(_ context.Context, _ uint) ([]*repository.ConversationSummary, error) {
			return nil, nil
		},
		markReadFn:    func(_ context.Context, _, _ uint) error { return nil },
		softDeleteFn:  func(_ context.Context, _ uint) error { return nil },
		countUnreadFn: func(_ context.Context, _ uint) (int64, error) { return 0, nil },
	}
}

// chatRoomRepoStub is a stub for repository.ChatRoomRepository.
type chatRoomRepoStub struct {
	createFn        func(context.Context, *models.ChatRoom) error
	getByIDFn       func(context.Context, uint) (*models.ChatRoom, error)
	listUserRoomsFn func(context.Context, uint, int, int) ([]*models.ChatRoom, error)
	updateFn        func(context.Context, *models.ChatRoom) error
	addMemberFn     func(context.Context, uint, uint, models.ChatRoomRole) (bool, error)
	removeMemberFn  func(context.Context, uint, uint) error
	getMembersFn    func(context.Context, uint) ([]*models.ChatRoomMember, error)
	getMemberFn     func(context.Context, uint, uint) (*models.ChatRoomMember, error)
	createMessageFn func(context.Context, *models.GroupMessage) error
	getMessagesFn   func(context.Context, uint, int, int) ([]*models.GroupMessage, error)
}

func (s *chatRoomRepoStub) Create(ctx context.Context, room *models.ChatRoom) error {
	return s.createFn(ctx, room)
}
func (s *chatRoomRepoStub) GetByID(ctx context.Context, id uint) (*models.ChatRoom, error) {
	return s.getByIDFn(ctx, id)
}
func (s *chatRoomRepoStub) ListUserRooms(ctx context.Context, userID uint, limit, offset int) ([]*models.ChatRoom, error) {
	return s.listUserRoomsFn(ctx, userID, limit, offset)
}
func (s *chatRoomRepoStub) Update(ctx context.Context, room *models.ChatRoom) error {
	return s.updateFn(ctx, room)
}
func (s *chatRoomRepoStub) AddMember(ctx context.Context, roomID, userID uint, role models.ChatRoomRole) (bool, error) {
	return s.addMemberFn(ctx, roomID, userID, role)
}
func (s *chatRoomRepoStub) RemoveMember(ctx context.Context, roomID, userID uint) error {
	return s.removeMemberFn(ctx, roomID, userID)
}
func (s *chatRoomRepoStub) GetMembers(ctx context.Context, roomID uint) ([]*models.ChatRoomMember, error) {
	return s.getMembersFn(ctx, roomID)
}
func (s *chatRoomRepoStub) GetMember(ctx context.Context, roomID, userID uint) (*models.ChatRoomMember, error) {
	return s.getMemberFn(ctx, roomID, userID)
}
func (s *chatRoomRepoStub) CreateMessage(ctx context.Context, message *models.GroupMessage) error {
	return s.createMessageFn(ctx, message)
}
func (s *chatRoomRepoStub) GetMessages(ctx context.Context, roomID uint, limit, offset int) ([]*models.GroupMessage, error) {
	return s.getMessagesFn(ctx, roomID, limit, offset)
}

func noopChatRoomRepo() *chatRoomRepoStub {
	return &chatRoomRepoStub{
		createFn:        func(_ context.Context, _ *models.ChatRoom) error { return nil },
		getByIDFn:       func(_ context.Context, id uint) (*models.ChatRoom, error) { return &models.ChatRoom{ID: id}, nil },
		listUserRoomsFn: func(_ context.Context, _ uint, _, _ int) ([]*models.ChatRoom, error) { return nil, nil },
		updateFn:        func(_ context.Context, _ *models.ChatRoom) error { return nil },
		addMemberFn:     func(_ context.Context, _, _ uint, _ models.ChatRoomRole) (bool, error) { return true, nil },
		removeMemberFn:  func(_ context.Context, _, _ uint) error { return nil },
		getMembersFn:    func(_ context.Context, _ uint) ([]*models.ChatRoomMember, error) { return nil, nil },
		getMemberFn:     func(_ context.Context, _, _ uint) (*models.ChatRoomMember, error) { return nil, errNotFound },
		createMessageFn: func(_ context.Context, _ *models.GroupMessage) error { return nil },
		getMessagesFn:   func(_ context.Context, _ uint, _, _ int) ([]*models.GroupMessage, error) { return nil, nil },
	}
}

// flagRepoStub is a stub for repository.FlagRepository.
type flagRepoStub struct {
	createFn      func(context.Context, *models.ContentFlag) error
	getByIDFn     func(context.Context, uint) (*models.ContentFlag, error)
	listPendingFn func(context.Context, int, int) ([]*models.ContentFlag, error)
	resolveFn     func(context.Context, uint, uint, models.FlagStatus, models.Verdict) error
}

func (s *flagRepoStub) Create(ctx context.Context, flag *models.ContentFlag) error {
	return s.createFn(ctx, flag)
}
func (s *flagRepoStub) GetByID(ctx context.Context, id uint) (*models.ContentFlag, error) {
	return s.getByIDFn(ctx, id)
}
func (s *flagRepoStub) ListPending(ctx context.Context, limit, offset int) ([]*models.ContentFlag, error) {
	return s.listPendingFn(ctx, limit, offset)
}
func (s *flagRepoStub) Resolve(ctx context.Context, id, moderatorID uint, status models.FlagStatus, verdict models.Verdict) error {
	return s.resolveFn(ctx, id, moderatorID, status, verdict)
}

func noopFlagRepo() *flagRepoStub {
	return &flagRepoStub{
		createFn:      func(_ context.Context, _ *models.ContentFlag) error { return nil },
		getByIDFn:     func(_ context.Context, id uint) (*models.ContentFlag, error) { return &models.ContentFlag{ID: id}, nil },
		listPendingFn: func(_ context.Context, _, _ int) ([]*models.ContentFlag, error) { return nil, nil },
		resolveFn:     func(_ context.Context, _, _ uint, _ models.FlagStatus, _ models.Verdict) error { return nil },
	}
}

// recordingNotificationRepo records every persisted notification. Safe for
// concurrent use.
type recordingNotificationRepo struct {
	mu       sync.Mutex
	created  []*models.Notification
	createFn func(context.Context, *models.Notification) error
}

func (s *recordingNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	s.mu.Lock()
	s.created = append(s.created, notification)
	s.mu.Unlock()
	if s.createFn != nil {
		return s.createFn(ctx, notification)
	}
	return nil
}
func (s *recordingNotificationRepo) GetByUserID(_ context.Context, _ uint, _, _ int) ([]*models.Notification, error) {
	return nil, nil
}
func (s *recordingNotificationRepo) MarkRead(_ context.Context, _, _ uint) error  { return nil }
func (s *recordingNotificationRepo) MarkAllRead(_ context.Context, _ uint) error  { return nil }
func (s *recordingNotificationRepo) CountUnread(_ context.Context, _ uint) (int64, error) {
	return 0, nil
}

func (s *recordingNotificationRepo) all() []*models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Notification, len(s.created))
	copy(out, s.created)
	return out
}

// newRecordingNotifier returns a notifier that persists into memory and does
// not publish (nil redis).
func newRecordingNotifier() (*notifications.Notifier, *recordingNotificationRepo) {
	repo := &recordingNotificationRepo{}
	return notifications.NewNotifier(repo, nil), repo
}

// verdictClassifier always returns the configured verdict.
type verdictClassifier struct {
	verdict models.Verdict
}

func (c verdictClassifier) Classify(context.Context, string) models.Verdict {
	return c.verdict
}

var errNotFound = errors.New("record not found")

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, "VALIDATION_ERROR")
}

// assertForbiddenError asserts that err is an AppError with code FORBIDDEN.
func assertForbiddenError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, "FORBIDDEN")
}

// assertNotFoundError asserts that err is an AppError with code NOT_FOUND.
func assertNotFoundError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, "NOT_FOUND")
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}
