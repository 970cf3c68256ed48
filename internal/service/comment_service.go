package service

import (
	"context"
	"strings"

	"epsylon/internal/models"
	"epsylon/internal/moderation"
	"epsylon/internal/notifications"
	"epsylon/internal/repository"
)

const MaxCommentContentLen = 2000

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
	classifier  moderation.Classifier
	notifier    *notifications.Notifier
	isAdmin     func(ctx context.Context, userID uint) (bool, error)
}

type CreateCommentInput struct {
	UserID  uint
	PostID  uint
	Content string `validate:"required,max=2000"`
}

type UpdateCommentInput struct {
	UserID    uint
	CommentID uint
	Content   string `validate:"required,max=2000"`
}

type DeleteCommentInput struct {
	UserID    uint
	CommentID uint
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	classifier moderation.Classifier,
	notifier *notifications.Notifier,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		userRepo:    userRepo,
		classifier:  classifier,
		notifier:    notifier,
		isAdmin:     isAdmin,
	}
}

// CreateComment classifies the content, writes the comment (bumping the
// post's comment count), and notifies the post author. Unlike likes, every
// comment notifies, including repeats from the same user.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if err := validate.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, models.NewNotFoundError("Post", in.PostID)
	}

	comment := &models.Comment{
		PostID:  in.PostID,
		UserID:  in.UserID,
		Content: in.Content,
	}

	if s.classifier != nil {
		switch s.classifier.Classify(ctx, in.Content) {
		case models.VerdictUnsafe:
			return nil, models.NewValidationError("Content violates community guidelines")
		case models.VerdictReview:
			comment.IsFlagged = true
		}
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, models.NewInternalError(err)
	}

	if post.UserID != in.UserID && s.notifier != nil {
		commenter, err := s.userRepo.GetByID(ctx, in.UserID)
		if err == nil {
			s.notifier.Notify(ctx, notifications.CommentNotification(
				post.UserID, in.UserID, in.PostID, comment.ID,
				displayName(commenter), excerpt(in.Content, 120),
			))
		}
	}

	return s.commentRepo.GetByID(ctx, comment.ID)
}

func (s *CommentService) GetComments(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, models.NewNotFoundError("Post", postID)
	}
	return s.commentRepo.GetByPostID(ctx, postID, limit, offset)
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	if err := validate.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, models.NewNotFoundError("Comment", in.CommentID)
	}
	if comment.UserID != in.UserID {
		return nil, models.NewForbiddenError("You can only update your own comments")
	}

	if s.classifier != nil {
		switch s.classifier.Classify(ctx, in.Content) {
		case models.VerdictUnsafe:
			return nil, models.NewValidationError("Content violates community guidelines")
		case models.VerdictReview:
			comment.IsFlagged = true
		}
	}

	comment.Content = in.Content
	comment.IsEdited = true
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, models.NewInternalError(err)
	}
	return comment, nil
}

// DeleteComment soft-deletes and keeps the parent post's comment count in
// step. Comment owners, the post's author, and admins may delete.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) error {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return models.NewNotFoundError("Comment", in.CommentID)
	}

	if comment.UserID != in.UserID {
		allowed := false
		if post, err := s.postRepo.GetByID(ctx, comment.PostID); err == nil && post.UserID == in.UserID {
			allowed = true
		}
		if !allowed && s.isAdmin != nil {
			admin, err := s.isAdmin(ctx, in.UserID)
			if err != nil {
				return models.NewInternalError(err)
			}
			allowed = admin
		}
		if !allowed {
			return models.NewForbiddenError("You can only delete your own comments")
		}
	}

	return s.commentRepo.SoftDelete(ctx, in.CommentID)
}

// CommentLikeResult reports the comment's current state and whether the like
// already existed.
type CommentLikeResult struct {
	Comment      *models.Comment `json:"comment"`
	AlreadyLiked bool            `json:"already_liked"`
}

func (s *CommentService) LikeComment(ctx context.Context, userID, commentID uint) (*CommentLikeResult, error) {
	if _, err := s.commentRepo.GetByID(ctx, commentID); err != nil {
		return nil, models.NewNotFoundError("Comment", commentID)
	}
	firstLike, err := s.commentRepo.Like(ctx, userID, commentID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &CommentLikeResult{Comment: comment, AlreadyLiked: !firstLike}, nil
}

func (s *CommentService) UnlikeComment(ctx context.Context, userID, commentID uint) (*models.Comment, error) {
	if _, err := s.commentRepo.GetByID(ctx, commentID); err != nil {
		return nil, models.NewNotFoundError("Comment", commentID)
	}
	if err := s.commentRepo.Unlike(ctx, userID, commentID); err != nil {
		return nil, models.NewInternalError(err)
	}
	return s.commentRepo.GetByID(ctx, commentID)
}

// excerpt truncates s to max runes for notification bodies.
func excerpt(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
