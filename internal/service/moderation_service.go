package service

import (
	"context"
	"strings"

	"epsylon/internal/models"
	"epsylon/internal/repository"
)

// ModerationService handles user reports and the moderator triage queue.
type ModerationService struct {
	flagRepo    repository.FlagRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
	isModerator func(ctx context.Context, userID uint) (bool, error)
}

type FlagContentInput struct {
	ReporterID uint
	Target     models.FlagTarget
	Reason     string `validate:"required,max=255"`
	Details    string `validate:"max=2000"`
}

type ResolveFlagInput struct {
	ModeratorID uint
	FlagID      uint
	Status      models.FlagStatus
	Result      models.Verdict
}

func NewModerationService(
	flagRepo repository.FlagRepository,
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	isModerator func(ctx context.Context, userID uint) (bool, error),
) *ModerationService {
	return &ModerationService{
		flagRepo:    flagRepo,
		postRepo:    postRepo,
		commentRepo: commentRepo,
		messageRepo: messageRepo,
		userRepo:    userRepo,
		isModerator: isModerator,
	}
}

// FlagContent records a report against the target and marks the target
// flagged. The switch over target kinds is exhaustive; flagging something
// that does not exist is a not-found, never a silent success.
func (s *ModerationService) FlagContent(ctx context.Context, in FlagContentInput) (*models.ContentFlag, error) {
	if strings.TrimSpace(in.Reason) == "" {
		return nil, models.NewValidationError("Reason is required")
	}
	if err := validate.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if !in.Target.Valid() {
		return nil, models.NewValidationError("Invalid flag target")
	}

	switch in.Target.Kind {
	case models.ContentTypePost:
		if _, err := s.postRepo.GetByID(ctx, in.Target.ID); err != nil {
			return nil, models.NewNotFoundError("Post", in.Target.ID)
		}
	case models.ContentTypeComment:
		if _, err := s.commentRepo.GetByID(ctx, in.Target.ID); err != nil {
			return nil, models.NewNotFoundError("Comment", in.Target.ID)
		}
	case models.ContentTypeMessage:
		if _, err := s.messageRepo.GetByID(ctx, in.Target.ID); err != nil {
			return nil, models.NewNotFoundError("Message", in.Target.ID)
		}
	case models.ContentTypeProfile:
		if _, err := s.userRepo.GetByID(ctx, in.Target.ID); err != nil {
			return nil, models.NewNotFoundError("User", in.Target.ID)
		}
	}

	flag := &models.ContentFlag{
		ContentType: in.Target.Kind,
		ContentID:   in.Target.ID,
		UserID:      in.ReporterID,
		Reason:      in.Reason,
		Details:     in.Details,
		Status:      models.FlagStatusPending,
	}
	if err := s.flagRepo.Create(ctx, flag); err != nil {
		return nil, models.NewInternalError(err)
	}
	return flag, nil
}

// GetPendingFlags returns the triage queue oldest-first. Moderators and
// admins only.
func (s *ModerationService) GetPendingFlags(ctx context.Context, requesterID uint, limit, offset int) ([]*models.ContentFlag, error) {
	if err := s.requireModerator(ctx, requesterID); err != nil {
		return nil, err
	}
	return s.flagRepo.ListPending(ctx, limit, offset)
}

// ResolveFlag closes out a flag with the given status, recording the
// moderator's verdict. Moderators and admins only.
func (s *ModerationService) ResolveFlag(ctx context.Context, in ResolveFlagInput) (*models.ContentFlag, error) {
	if err := s.requireModerator(ctx, in.ModeratorID); err != nil {
		return nil, err
	}
	switch in.Status {
	case models.FlagStatusReviewed, models.FlagStatusResolved:
	default:
		return nil, models.NewValidationError("Status must be 'reviewed' or 'resolved'")
	}
	switch in.Result {
	case models.VerdictSafe, models.VerdictUnsafe, models.VerdictReview:
	default:
		return nil, models.NewValidationError("Result must be 'safe', 'unsafe' or 'review'")
	}

	if err := s.flagRepo.Resolve(ctx, in.FlagID, in.ModeratorID, in.Status, in.Result); err != nil {
		return nil, models.NewNotFoundError("Flag", in.FlagID)
	}
	return s.flagRepo.GetByID(ctx, in.FlagID)
}

func (s *ModerationService) requireModerator(ctx context.Context, userID uint) error {
	if s.isModerator == nil {
		return models.NewForbiddenError("Moderator access required")
	}
	ok, err := s.isModerator(ctx, userID)
	if err != nil {
		return models.NewInternalError(err)
	}
	if !ok {
		return models.NewForbiddenError("Moderator access required")
	}
	return nil
}
