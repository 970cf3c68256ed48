// Package notifications provides best-effort in-app notification delivery.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"epsylon/internal/middleware"
	"epsylon/internal/models"
	"epsylon/internal/observability"
	"epsylon/internal/repository"

	"github.com/redis/go-redis/v9"
)

// Notifier persists notifications and publishes them to per-user Redis
// channels for live delivery. Every method is best-effort: failures are
// logged and swallowed so a notification hiccup never rolls back the
// action that triggered it.
type Notifier struct {
	repo repository.NotificationRepository
	rdb  *redis.Client
}

// NewNotifier creates a new Notifier. rdb may be nil, in which case
// notifications are persisted but not published.
func NewNotifier(repo repository.NotificationRepository, rdb *redis.Client) *Notifier {
	return &Notifier{repo: repo, rdb: rdb}
}

// Notify persists the notification and publishes it to the recipient's
// channel. Always returns; errors are logged and counted, never propagated.
func (n *Notifier) Notify(ctx context.Context, notification *models.Notification) {
	if err := n.repo.Create(ctx, notification); err != nil {
		observability.NotificationEmitErrors.Inc()
		middleware.Logger.ErrorContext(ctx, "failed to persist notification",
			slog.Any("recipient_id", notification.UserID),
			slog.String("type", string(notification.Type)),
			slog.String("error", err.Error()),
		)
		return
	}
	n.publish(ctx, notification)
}

func (n *Notifier) publish(ctx context.Context, notification *models.Notification) {
	if n.rdb == nil {
		return
	}
	payload, err := json.Marshal(notification)
	if err != nil {
		observability.NotificationEmitErrors.Inc()
		middleware.Logger.ErrorContext(ctx, "failed to marshal notification", slog.String("error", err.Error()))
		return
	}
	if err := n.rdb.Publish(ctx, UserChannel(notification.UserID), payload).Err(); err != nil {
		observability.NotificationEmitErrors.Inc()
		middleware.Logger.WarnContext(ctx, "failed to publish notification",
			slog.Any("recipient_id", notification.UserID),
			slog.String("error", err.Error()),
		)
	}
}

// StartSubscriber subscribes to the per-user notification pattern and calls
// onMessage for each incoming message.
func (n *Notifier) StartSubscriber(ctx context.Context, onMessage func(channel, payload string)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, "notifications:user:*")
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				onMessage(msg.Channel, msg.Payload)
			}
		}
	}()

	return nil
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return "notifications:user:" + strconv.FormatUint(uint64(userID), 10)
}

// LikeNotification builds the notification for a post's first like from a user.
func LikeNotification(recipientID, likerID, postID uint, likerName string) *models.Notification {
	return &models.Notification{
		UserID:        recipientID,
		Type:          models.NotificationTypeLike,
		RelatedUserID: &likerID,
		RelatedPostID: &postID,
		Title:         fmt.Sprintf("%s liked your post", likerName),
	}
}

// CommentNotification builds the notification for a new comment on a post.
func CommentNotification(recipientID, commenterID, postID, commentID uint, commenterName, excerpt string) *models.Notification {
	return &models.Notification{
		UserID:           recipientID,
		Type:             models.NotificationTypeComment,
		RelatedUserID:    &commenterID,
		RelatedPostID:    &postID,
		RelatedCommentID: &commentID,
		Title:            fmt.Sprintf("%s commented on your post", commenterName),
		Content:          excerpt,
	}
}

// FollowNotification builds the notification for a new follower.
func FollowNotification(recipientID, followerID uint, followerName string) *models.Notification {
	return &models.Notification{
		UserID:        recipientID,
		Type:          models.NotificationTypeFollow,
		RelatedUserID: &followerID,
		Title:         fmt.Sprintf("%s started following you", followerName),
	}
}

// MessageNotification builds the notification for a new direct message.
func MessageNotification(recipientID, senderID uint, senderName, excerpt string) *models.Notification {
	return &models.Notification{
		UserID:        recipientID,
		Type:          models.NotificationTypeMessage,
		RelatedUserID: &senderID,
		Title:         fmt.Sprintf("New message from %s", senderName),
		Content:       excerpt,
	}
}
