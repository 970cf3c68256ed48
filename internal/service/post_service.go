package service

import (
	"context"
	"log/slog"
	"strings"

	"epsylon/internal/middleware"
	"epsylon/internal/models"
	"epsylon/internal/moderation"
	"epsylon/internal/notifications"
	"epsylon/internal/repository"
)

const (
	MaxPostContentLen = 5000
	MaxPostImages     = 4
)

type PostService struct {
	postRepo   repository.PostRepository
	userRepo   repository.UserRepository
	classifier moderation.Classifier
	notifier   *notifications.Notifier
	isAdmin    func(ctx context.Context, userID uint) (bool, error)
}

type CreatePostInput struct {
	UserID    uint
	Content   string   `validate:"required,max=5000"`
	ImageURLs []string `validate:"max=4,dive,url"`
}

type UpdatePostInput struct {
	UserID  uint
	PostID  uint
	Content string `validate:"required,max=5000"`
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

func NewPostService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	classifier moderation.Classifier,
	notifier *notifications.Notifier,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *PostService {
	return &PostService{
		postRepo:   postRepo,
		userRepo:   userRepo,
		classifier: classifier,
		notifier:   notifier,
		isAdmin:    isAdmin,
	}
}

// CreatePost validates and classifies the content, then publishes. Only an
// unsafe verdict blocks; a review verdict publishes with the post marked
// flagged so moderators can revisit it.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if err := validate.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	post := &models.Post{
		UserID:  in.UserID,
		Content: in.Content,
	}
	post.SetImages(in.ImageURLs)

	if err := s.moderate(ctx, in.Content, post); err != nil {
		return nil, err
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, models.NewInternalError(err)
	}
	return s.postRepo.GetByID(ctx, post.ID)
}

// moderate applies the classifier verdict to the post being written.
func (s *PostService) moderate(ctx context.Context, content string, post *models.Post) error {
	if s.classifier == nil {
		return nil
	}
	switch verdict := s.classifier.Classify(ctx, content); verdict {
	case models.VerdictUnsafe:
		return models.NewValidationError("Content violates community guidelines")
	case models.VerdictReview:
		post.IsFlagged = true
		post.FlagReason = "pending review: classifier unavailable"
		middleware.Logger.WarnContext(ctx, "content published pending review",
			slog.Any("author_id", post.UserID),
		)
	}
	return nil
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, models.NewNotFoundError("Post", id)
	}
	return post, nil
}

func (s *PostService) GetUserPosts(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	return s.postRepo.GetByUserID(ctx, userID, limit, offset)
}

// GetFeed returns the caller's home timeline: own posts plus followed users'
// posts, newest first.
func (s *PostService) GetFeed(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	return s.postRepo.GetFeed(ctx, userID, limit, offset)
}

func (s *PostService) SearchPosts(ctx context.Context, query string, limit, offset int) ([]*models.Post, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	return s.postRepo.Search(ctx, query, limit, offset)
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	if err := validate.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, models.NewNotFoundError("Post", in.PostID)
	}
	if post.UserID != in.UserID {
		return nil, models.NewForbiddenError("You can only update your own posts")
	}

	if err := s.moderate(ctx, in.Content, post); err != nil {
		return nil, err
	}

	post.Content = in.Content
	post.IsEdited = true
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, models.NewInternalError(err)
	}
	return post, nil
}

// DeletePost soft-deletes. Owners and admins only. The author's post count
// is intentionally untouched.
func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return models.NewNotFoundError("Post", in.PostID)
	}

	if post.UserID != in.UserID {
		if s.isAdmin == nil {
			return models.NewForbiddenError("You can only delete your own posts")
		}
		admin, err := s.isAdmin(ctx, in.UserID)
		if err != nil {
			return models.NewInternalError(err)
		}
		if !admin {
			return models.NewForbiddenError("You can only delete your own posts")
		}
	}

	return s.postRepo.SoftDelete(ctx, in.PostID)
}

// LikeResult reports the post's current state and whether the like already
// existed.
type LikeResult struct {
	Post         *models.Post `json:"post"`
	AlreadyLiked bool         `json:"already_liked"`
}

// LikePost records a like. A repeated like is a no-op reported in the result;
// only the first like from a user notifies the author.
func (s *PostService) LikePost(ctx context.Context, userID, postID uint) (*LikeResult, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, models.NewNotFoundError("Post", postID)
	}

	firstLike, err := s.postRepo.Like(ctx, userID, postID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	if firstLike && post.UserID != userID && s.notifier != nil {
		liker, err := s.userRepo.GetByID(ctx, userID)
		if err == nil {
			s.notifier.Notify(ctx, notifications.LikeNotification(post.UserID, userID, postID, displayName(liker)))
		}
	}

	post, err = s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &LikeResult{Post: post, AlreadyLiked: !firstLike}, nil
}

// UnlikePost removes the like edge. Unliking a post never liked still
// decrements, mirroring the removal being unguarded at the storage layer.
func (s *PostService) UnlikePost(ctx context.Context, userID, postID uint) (*models.Post, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, models.NewNotFoundError("Post", postID)
	}
	if err := s.postRepo.Unlike(ctx, userID, postID); err != nil {
		return nil, models.NewInternalError(err)
	}
	return s.postRepo.GetByID(ctx, postID)
}

func (s *PostService) HasLiked(ctx context.Context, userID, postID uint) (bool, error) {
	return s.postRepo.HasLiked(ctx, userID, postID)
}

// LikedPostIDs filters postIDs down to the ones the user has liked, for
// decorating post listings client-side.
func (s *PostService) LikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error) {
	return s.postRepo.GetLikedPostIDs(ctx, userID, postIDs)
}

// displayName prefers the username over the display name for notifications.
func displayName(u *models.User) string {
	if u.Username != nil && *u.Username != "" {
		return *u.Username
	}
	if u.Name != "" {
		return u.Name
	}
	return "Someone"
}
