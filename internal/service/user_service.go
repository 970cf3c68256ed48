// Package service contains the application's business logic.
package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"regexp"
	"strings"

	"epsylon/internal/models"
	"epsylon/internal/repository"
	"epsylon/internal/storage"

	"github.com/chai2010/webp"
	"github.com/go-playground/validator/v10"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// validate is the shared input validator for all services.
var validate = validator.New()

const (
	AvatarMaxSize      = 512
	AvatarWebPQuality  = 80
	MaxAvatarUploadLen = 8 * 1024 * 1024
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,30}$`)

type UserService struct {
	userRepo repository.UserRepository
	avatars  storage.AvatarStore
	// OwnerOpenID is promoted to admin on sign-in.
	ownerOpenID string
}

type SignInInput struct {
	OpenID      string `validate:"required,max=64"`
	Name        string `validate:"max=255"`
	Email       string `validate:"omitempty,email"`
	AvatarURL   string
	LoginMethod string `validate:"max=64"`
}

type UpdateUserInput struct {
	UserID        uint
	Name          *string `validate:"omitempty,max=255"`
	Username      *string
	Bio           *string `validate:"omitempty,max=1000"`
	CoverImageURL *string
	IsPrivate     *bool
	Location      *string `validate:"omitempty,max=255"`
	Website       *string `validate:"omitempty,max=255"`
}

type UploadAvatarInput struct {
	UserID uint
	// Data is the raw upload, either binary or a base64 data URL.
	Data        []byte
	ContentType string
}

func NewUserService(userRepo repository.UserRepository, avatars storage.AvatarStore, ownerOpenID string) *UserService {
	return &UserService{
		userRepo:    userRepo,
		avatars:     avatars,
		ownerOpenID: ownerOpenID,
	}
}

// SignIn resolves the external identity to a local account, creating it on
// first login. The configured owner identity is promoted to admin.
func (s *UserService) SignIn(ctx context.Context, in SignInInput) (*models.User, error) {
	if err := validate.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	defaults := &models.User{
		Name:        in.Name,
		Email:       in.Email,
		AvatarURL:   in.AvatarURL,
		LoginMethod: in.LoginMethod,
	}
	if s.ownerOpenID != "" && in.OpenID == s.ownerOpenID {
		defaults.Role = models.UserRoleAdmin
	}

	user, err := s.userRepo.UpsertByOpenID(ctx, in.OpenID, defaults)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	if defaults.Role == models.UserRoleAdmin && user.Role != models.UserRoleAdmin {
		user.Role = models.UserRoleAdmin
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, models.NewInternalError(err)
		}
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, models.NewNotFoundError("User", id)
	}
	return user, nil
}

// GetUserWithProfile returns the user and their counter-bearing profile row.
func (s *UserService) GetUserWithProfile(ctx context.Context, username string) (*models.User, *models.UserProfile, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, nil, models.NewNotFoundError("User", username)
	}
	profile, err := s.userRepo.GetProfile(ctx, user.ID)
	if err != nil {
		return nil, nil, models.NewInternalError(err)
	}
	return user, profile, nil
}

func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.UserProfile, error) {
	profile, err := s.userRepo.GetProfile(ctx, userID)
	if err != nil {
		return nil, models.NewNotFoundError("Profile", userID)
	}
	return profile, nil
}

func (s *UserService) UpdateUser(ctx context.Context, in UpdateUserInput) (*models.User, error) {
	if err := validate.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, models.NewNotFoundError("User", in.UserID)
	}

	if in.Username != nil {
		username := strings.ToLower(strings.TrimSpace(*in.Username))
		if !usernamePattern.MatchString(username) {
			return nil, models.NewValidationError("Username must be 3-30 characters: lowercase letters, digits, underscores")
		}
		if user.Username == nil || *user.Username != username {
			if existing, err := s.userRepo.GetByUsername(ctx, username); err == nil && existing.ID != user.ID {
				return nil, models.NewValidationError("Username is already taken")
			}
			user.Username = &username
		}
	}
	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Bio != nil {
		user.Bio = *in.Bio
	}
	if in.CoverImageURL != nil {
		user.CoverImageURL = *in.CoverImageURL
	}
	if in.IsPrivate != nil {
		user.IsPrivate = *in.IsPrivate
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, models.NewInternalError(err)
	}

	if in.Location != nil || in.Website != nil {
		profile, err := s.userRepo.GetProfile(ctx, user.ID)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		if in.Location != nil {
			profile.Location = *in.Location
		}
		if in.Website != nil {
			profile.Website = *in.Website
		}
		if err := s.userRepo.UpdateProfile(ctx, profile); err != nil {
			return nil, models.NewInternalError(err)
		}
	}

	return user, nil
}

func (s *UserService) SearchUsers(ctx context.Context, query string, limit, offset int) ([]*models.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	return s.userRepo.Search(ctx, query, limit, offset)
}

// UploadAvatar decodes the upload, center-crops it square, scales it down to
// AvatarMaxSize, re-encodes as WebP, and stores it. The stored URL replaces
// the user's avatar.
func (s *UserService) UploadAvatar(ctx context.Context, in UploadAvatarInput) (*models.User, error) {
	if s.avatars == nil {
		return nil, models.NewValidationError("Avatar uploads are not available")
	}
	if len(in.Data) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if len(in.Data) > MaxAvatarUploadLen {
		return nil, models.NewValidationError("File too large (max 8MB)")
	}

	raw := decodeMaybeDataURL(in.Data)
	decoded, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}

	square := cropCenterSquare(decoded)
	scaled := scaleDown(square, AvatarMaxSize)

	var buf bytes.Buffer
	if err := webp.Encode(&buf, scaled, &webp.Options{Quality: AvatarWebPQuality}); err != nil {
		return nil, models.NewInternalError(err)
	}

	url, err := s.avatars.Put(ctx, in.UserID, buf.Bytes(), "image/webp")
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, models.NewNotFoundError("User", in.UserID)
	}
	user.AvatarURL = url
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, models.NewInternalError(err)
	}
	return user, nil
}

func (s *UserService) GetPreferences(ctx context.Context, userID uint) (*models.NotificationPreference, error) {
	prefs, err := s.userRepo.GetPreferences(ctx, userID)
	if err != nil {
		return nil, models.NewNotFoundError("Preferences", userID)
	}
	return prefs, nil
}

type UpdatePreferencesInput struct {
	UserID             uint
	EmailOnMessage     *bool
	EmailOnLike        *bool
	EmailOnComment     *bool
	EmailOnFollow      *bool
	EmailOnMention     *bool
	InAppNotifications *bool
}

func (s *UserService) UpdatePreferences(ctx context.Context, in UpdatePreferencesInput) (*models.NotificationPreference, error) {
	prefs, err := s.userRepo.GetPreferences(ctx, in.UserID)
	if err != nil {
		return nil, models.NewNotFoundError("Preferences", in.UserID)
	}
	if in.EmailOnMessage != nil {
		prefs.EmailOnMessage = *in.EmailOnMessage
	}
	if in.EmailOnLike != nil {
		prefs.EmailOnLike = *in.EmailOnLike
	}
	if in.EmailOnComment != nil {
		prefs.EmailOnComment = *in.EmailOnComment
	}
	if in.EmailOnFollow != nil {
		prefs.EmailOnFollow = *in.EmailOnFollow
	}
	if in.EmailOnMention != nil {
		prefs.EmailOnMention = *in.EmailOnMention
	}
	if in.InAppNotifications != nil {
		prefs.InAppNotifications = *in.InAppNotifications
	}
	if err := s.userRepo.UpdatePreferences(ctx, prefs); err != nil {
		return nil, models.NewInternalError(err)
	}
	return prefs, nil
}

// IsModerator is the role check injected into services that gate moderator
// actions. Keeping it here avoids every service depending on the user repo.
func (s *UserService) IsModerator(ctx context.Context, userID uint) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.IsModerator(), nil
}

// IsAdmin reports whether the user holds the admin role.
func (s *UserService) IsAdmin(ctx context.Context, userID uint) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.Role == models.UserRoleAdmin, nil
}

// decodeMaybeDataURL strips a base64 data URL wrapper when present.
func decodeMaybeDataURL(data []byte) []byte {
	str := string(data)
	if !strings.HasPrefix(str, "data:") {
		return data
	}
	idx := strings.Index(str, ";base64,")
	if idx < 0 {
		return data
	}
	decoded, err := base64.StdEncoding.DecodeString(str[idx+len(";base64,"):])
	if err != nil {
		return data
	}
	return decoded
}

func cropCenterSquare(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == h {
		return src
	}
	side := w
	if h < side {
		side = h
	}
	x0 := b.Min.X + (w-side)/2
	y0 := b.Min.Y + (h-side)/2
	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	xdraw.Copy(dst, image.Point{}, src, image.Rect(x0, y0, x0+side, y0+side), xdraw.Over, nil)
	return dst
}

func scaleDown(src image.Image, maxSide int) image.Image {
	b := src.Bounds()
	if b.Dx() <= maxSide && b.Dy() <= maxSide {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxSide, maxSide))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}
