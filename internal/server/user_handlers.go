package server

import (
	"io"

	"epsylon/internal/models"
	"epsylon/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SearchUsers handles GET /api/users/search?q=...
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	ctx := c.Context()
	q := c.Query("q")
	page := parsePagination(c, 20)

	users, err := s.userService.SearchUsers(ctx, q, page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(users)
}

// GetUserByUsername handles GET /api/users/:username/profile
func (s *Server) GetUserByUsername(c *fiber.Ctx) error {
	ctx := c.Context()
	username := c.Params("username")
	if username == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Username is required"))
	}

	user, profile, err := s.userService.GetUserWithProfile(ctx, username)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"user":    user,
		"profile": profile,
	})
}

// UpdateMe handles PUT /api/users/me
func (s *Server) UpdateMe(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := currentUserID(c)

	var req struct {
		Name          *string `json:"name"`
		Username      *string `json:"username"`
		Bio           *string `json:"bio"`
		CoverImageURL *string `json:"cover_image_url"`
		IsPrivate     *bool   `json:"is_private"`
		Location      *string `json:"location"`
		Website       *string `json:"website"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.UpdateUser(ctx, service.UpdateUserInput{
		UserID:        userID,
		Name:          req.Name,
		Username:      req.Username,
		Bio:           req.Bio,
		CoverImageURL: req.CoverImageURL,
		IsPrivate:     req.IsPrivate,
		Location:      req.Location,
		Website:       req.Website,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// UploadAvatar handles POST /api/users/me/avatar
// Accepts a multipart file upload or a JSON body with a base64 data URL.
func (s *Server) UploadAvatar(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := currentUserID(c)

	var data []byte
	var contentType string

	if file, err := c.FormFile("avatar"); err == nil {
		f, err := file.Open()
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Could not read uploaded file"))
		}
		defer func() { _ = f.Close() }()
		buf, err := io.ReadAll(f)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Could not read uploaded file"))
		}
		data = buf
		contentType = file.Header.Get("Content-Type")
	} else {
		var req struct {
			Image string `json:"image"`
		}
		if err := c.BodyParser(&req); err != nil || req.Image == "" {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("No file uploaded"))
		}
		data = []byte(req.Image)
	}

	user, err := s.userService.UploadAvatar(ctx, service.UploadAvatarInput{
		UserID:      userID,
		Data:        data,
		ContentType: contentType,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// GetPreferences handles GET /api/users/me/preferences
func (s *Server) GetPreferences(c *fiber.Ctx) error {
	ctx := c.Context()
	prefs, err := s.userService.GetPreferences(ctx, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(prefs)
}

// UpdatePreferences handles PUT /api/users/me/preferences
func (s *Server) UpdatePreferences(c *fiber.Ctx) error {
	ctx := c.Context()

	var req struct {
		EmailOnMessage     *bool `json:"email_on_message"`
		EmailOnLike        *bool `json:"email_on_like"`
		EmailOnComment     *bool `json:"email_on_comment"`
		EmailOnFollow      *bool `json:"email_on_follow"`
		EmailOnMention     *bool `json:"email_on_mention"`
		InAppNotifications *bool `json:"in_app_notifications"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	prefs, err := s.userService.UpdatePreferences(ctx, service.UpdatePreferencesInput{
		UserID:             currentUserID(c),
		EmailOnMessage:     req.EmailOnMessage,
		EmailOnLike:        req.EmailOnLike,
		EmailOnComment:     req.EmailOnComment,
		EmailOnFollow:      req.EmailOnFollow,
		EmailOnMention:     req.EmailOnMention,
		InAppNotifications: req.InAppNotifications,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(prefs)
}
