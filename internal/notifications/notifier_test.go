package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"epsylon/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryNotificationRepo is an in-memory repository.NotificationRepository.
type memoryNotificationRepo struct {
	created []*models.Notification
	err     error
}

func (r *memoryNotificationRepo) Create(_ context.Context, n *models.Notification) error {
	if r.err != nil {
		return r.err
	}
	r.created = append(r.created, n)
	return nil
}
func (r *memoryNotificationRepo) GetByUserID(_ context.Context, _ uint, _, _ int) ([]*models.Notification, error) {
	return r.created, nil
}
func (r *memoryNotificationRepo) MarkRead(_ context.Context, _, _ uint) error { return nil }
func (r *memoryNotificationRepo) MarkAllRead(_ context.Context, _ uint) error { return nil }
func (r *memoryNotificationRepo) CountUnread(_ context.Context, _ uint) (int64, error) {
	return int64(len(r.created)), nil
}

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestNotify_PersistsAndPublishes(t *testing.T) {
	rdb := setupRedis(t)
	repo := &memoryNotificationRepo{}
	notifier := NewNotifier(repo, rdb)
	ctx := context.Background()

	sub := rdb.Subscribe(ctx, UserChannel(42))
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	notifier.Notify(ctx, LikeNotification(42, 1, 5, "ada"))

	require.Len(t, repo.created, 1)
	assert.Equal(t, uint(42), repo.created[0].UserID)

	select {
	case msg := <-sub.Channel():
		assert.Equal(t, "notifications:user:42", msg.Channel)
		var payload models.Notification
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &payload))
		assert.Equal(t, models.NotificationTypeLike, payload.Type)
		assert.Contains(t, payload.Title, "ada")
	case <-time.After(2 * time.Second):
		t.Fatal("expected a published notification")
	}
}

// A persistence failure is swallowed and nothing is published.
func TestNotify_PersistFailureIsSwallowed(t *testing.T) {
	rdb := setupRedis(t)
	repo := &memoryNotificationRepo{err: errors.New("db down")}
	notifier := NewNotifier(repo, rdb)

	notifier.Notify(context.Background(), FollowNotification(42, 1, "ada"))
	assert.Empty(t, repo.created)
}

// With no redis client, notifications persist without publishing.
func TestNotify_NilRedis(t *testing.T) {
	repo := &memoryNotificationRepo{}
	notifier := NewNotifier(repo, nil)

	notifier.Notify(context.Background(), MessageNotification(42, 1, "ada", "hello"))
	require.Len(t, repo.created, 1)
}

func TestStartSubscriber_ReceivesAcrossUsers(t *testing.T) {
	rdb := setupRedis(t)
	notifier := NewNotifier(&memoryNotificationRepo{}, rdb)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	received := make(chan string, 2)
	require.NoError(t, notifier.StartSubscriber(ctx, func(channel, _ string) {
		received <- channel
	}))

	// PSubscribe registration races with the publish; give it a moment.
	time.Sleep(100 * time.Millisecond)

	notifier.Notify(ctx, LikeNotification(1, 2, 3, "ada"))
	notifier.Notify(ctx, LikeNotification(2, 1, 3, "grace"))

	channels := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case ch := <-received:
			channels[ch] = true
		case <-time.After(2 * time.Second):
			t.Fatal("expected two subscriber callbacks")
		}
	}
	assert.True(t, channels["notifications:user:1"])
	assert.True(t, channels["notifications:user:2"])
}

func TestUserChannel(t *testing.T) {
	assert.Equal(t, "notifications:user:7", UserChannel(7))
}
