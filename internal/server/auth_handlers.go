package server

import (
	"time"

	"epsylon/internal/middleware"
	"epsylon/internal/models"
	"epsylon/internal/service"

	"github.com/gofiber/fiber/v2"
)

// sessionTTL is how long an issued session cookie stays valid.
const sessionTTL = 30 * 24 * time.Hour

// CreateSession handles POST /api/auth/session
// The identity gateway calls this after a successful external login; the
// payload carries the verified identity. First sign-in creates the account.
func (s *Server) CreateSession(c *fiber.Ctx) error {
	ctx := c.Context()

	var req struct {
		OpenID      string `json:"open_id"`
		Name        string `json:"name"`
		Email       string `json:"email"`
		AvatarURL   string `json:"avatar_url"`
		LoginMethod string `json:"login_method"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.OpenID == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("open_id is required"))
	}

	user, err := s.userService.SignIn(ctx, service.SignInInput{
		OpenID:      req.OpenID,
		Name:        req.Name,
		Email:       req.Email,
		AvatarURL:   req.AvatarURL,
		LoginMethod: req.LoginMethod,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	token, err := middleware.IssueSessionToken(user.ID, sessionTTL)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Expires:  time.Now().Add(sessionTTL),
		HTTPOnly: true,
		Secure:   s.config.Env == "production" || s.config.Env == "prod",
		SameSite: "Lax",
		Path:     "/",
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user":  user,
		"token": token,
	})
}

// GetMe handles GET /api/auth/me
// Anonymous callers get a null identity rather than an error.
func (s *Server) GetMe(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := currentUserID(c)
	if userID == 0 {
		return c.JSON(fiber.Map{"user": nil, "profile": nil})
	}

	user, err := s.userService.GetUser(ctx, userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	profile, err := s.userService.GetProfile(ctx, userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"user":    user,
		"profile": profile,
	})
}

// Logout handles POST /api/auth/logout
func (s *Server) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Path:     "/",
	})
	return c.JSON(fiber.Map{"message": "Logged out"})
}
