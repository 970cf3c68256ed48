package service

import (
	"context"
	"testing"

	"epsylon/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newModerationService(flagRepo *flagRepoStub, isModerator func(context.Context, uint) (bool, error)) *ModerationService {
	return NewModerationService(flagRepo, noopPostRepo(), noopCommentRepo(),
		noopMessageRepo(), noopUserRepo(), isModerator)
}

func alwaysModerator(_ context.Context, _ uint) (bool, error) { return true, nil }
func neverModerator(_ context.Context, _ uint) (bool, error)  { return false, nil }

func TestFlagContent_MissingReason(t *testing.T) {
	svc := newModerationService(noopFlagRepo(), nil)

	_, err := svc.FlagContent(context.Background(), FlagContentInput{
		ReporterID: 1,
		Target:     models.PostTarget(5),
		Reason:     "   ",
	})
	assertValidationError(t, err)
}

func TestFlagContent_InvalidTarget(t *testing.T) {
	svc := newModerationService(noopFlagRepo(), nil)

	_, err := svc.FlagContent(context.Background(), FlagContentInput{
		ReporterID: 1,
		Target:     models.FlagTarget{Kind: "video", ID: 5},
		Reason:     "spam",
	})
	assertValidationError(t, err)

	_, err = svc.FlagContent(context.Background(), FlagContentInput{
		ReporterID: 1,
		Target:     models.FlagTarget{Kind: models.ContentTypePost},
		Reason:     "spam",
	})
	assertValidationError(t, err)
}

func TestFlagContent_MissingPost(t *testing.T) {
	postRepo := noopPostRepo()
	postRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Post, error) { return nil, errNotFound }
	svc := NewModerationService(noopFlagRepo(), postRepo, noopCommentRepo(),
		noopMessageRepo(), noopUserRepo(), nil)

	_, err := svc.FlagContent(context.Background(), FlagContentInput{
		ReporterID: 1,
		Target:     models.PostTarget(999),
		Reason:     "spam",
	})
	assertNotFoundError(t, err)
}

func TestFlagContent_CreatesPendingFlag(t *testing.T) {
	flagRepo := noopFlagRepo()
	var written *models.ContentFlag
	flagRepo.createFn = func(_ context.Context, f *models.ContentFlag) error {
		f.ID = 9
		written = f
		return nil
	}
	svc := newModerationService(flagRepo, nil)

	flag, err := svc.FlagContent(context.Background(), FlagContentInput{
		ReporterID: 1,
		Target:     models.CommentTarget(3),
		Reason:     "harassment",
		Details:    "see thread",
	})
	require.NoError(t, err)
	require.NotNil(t, written)
	assert.Equal(t, models.FlagStatusPending, flag.Status)
	assert.Equal(t, models.ContentTypeComment, flag.ContentType)
	assert.Equal(t, uint(3), flag.ContentID)
	assert.Equal(t, uint(1), flag.UserID)
}

func TestGetPendingFlags_RequiresModerator(t *testing.T) {
	svc := newModerationService(noopFlagRepo(), neverModerator)

	_, err := svc.GetPendingFlags(context.Background(), 1, 20, 0)
	assertForbiddenError(t, err)
}

func TestGetPendingFlags_NoRoleFuncIsForbidden(t *testing.T) {
	svc := newModerationService(noopFlagRepo(), nil)

	_, err := svc.GetPendingFlags(context.Background(), 1, 20, 0)
	assertForbiddenError(t, err)
}

func TestResolveFlag_InvalidStatus(t *testing.T) {
	svc := newModerationService(noopFlagRepo(), alwaysModerator)

	_, err := svc.ResolveFlag(context.Background(), ResolveFlagInput{
		ModeratorID: 1,
		FlagID:      9,
		Status:      models.FlagStatusPending,
		Result:      models.VerdictSafe,
	})
	assertValidationError(t, err)
}

func TestResolveFlag_InvalidResult(t *testing.T) {
	svc := newModerationService(noopFlagRepo(), alwaysModerator)

	_, err := svc.ResolveFlag(context.Background(), ResolveFlagInput{
		ModeratorID: 1,
		FlagID:      9,
		Status:      models.FlagStatusResolved,
		Result:      models.Verdict("maybe"),
	})
	assertValidationError(t, err)
}

// Resolving records both the new status and the moderator's verdict.
func TestResolveFlag_Resolves(t *testing.T) {
	flagRepo := noopFlagRepo()
	var resolvedStatus models.FlagStatus
	var resolvedVerdict models.Verdict
	flagRepo.resolveFn = func(_ context.Context, id, moderatorID uint, status models.FlagStatus, verdict models.Verdict) error {
		assert.Equal(t, uint(9), id)
		assert.Equal(t, uint(1), moderatorID)
		resolvedStatus = status
		resolvedVerdict = verdict
		return nil
	}
	svc := newModerationService(flagRepo, alwaysModerator)

	_, err := svc.ResolveFlag(context.Background(), ResolveFlagInput{
		ModeratorID: 1,
		FlagID:      9,
		Status:      models.FlagStatusResolved,
		Result:      models.VerdictUnsafe,
	})
	require.NoError(t, err)
	assert.Equal(t, models.FlagStatusResolved, resolvedStatus)
	assert.Equal(t, models.VerdictUnsafe, resolvedVerdict)
}

func TestResolveFlag_NotModerator(t *testing.T) {
	svc := newModerationService(noopFlagRepo(), neverModerator)

	_, err := svc.ResolveFlag(context.Background(), ResolveFlagInput{
		ModeratorID: 1,
		FlagID:      9,
		Status:      models.FlagStatusReviewed,
	})
	assertForbiddenError(t, err)
}
