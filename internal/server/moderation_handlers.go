package server

import (
	"epsylon/internal/models"
	"epsylon/internal/service"

	"github.com/gofiber/fiber/v2"
)

// FlagContent handles POST /api/moderation/flags
func (s *Server) FlagContent(c *fiber.Ctx) error {
	ctx := c.Context()

	var req struct {
		ContentType string `json:"content_type"`
		ContentID   uint   `json:"content_id"`
		Reason      string `json:"reason"`
		Details     string `json:"details"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	flag, err := s.moderationService.FlagContent(ctx, service.FlagContentInput{
		ReporterID: currentUserID(c),
		Target: models.FlagTarget{
			Kind: models.ContentType(req.ContentType),
			ID:   req.ContentID,
		},
		Reason:  req.Reason,
		Details: req.Details,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(flag)
}

// GetPendingFlags handles GET /api/moderation/flags
// Moderators and admins only; the queue is oldest-first.
func (s *Server) GetPendingFlags(c *fiber.Ctx) error {
	ctx := c.Context()
	page := parsePagination(c, 20)

	flags, err := s.moderationService.GetPendingFlags(ctx, currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(flags)
}

// ResolveFlag handles POST /api/moderation/flags/:id/resolve
func (s *Server) ResolveFlag(c *fiber.Ctx) error {
	ctx := c.Context()
	flagID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Status string `json:"status"`
		Result string `json:"result"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	flag, err := s.moderationService.ResolveFlag(ctx, service.ResolveFlagInput{
		ModeratorID: currentUserID(c),
		FlagID:      flagID,
		Status:      models.FlagStatus(req.Status),
		Result:      models.Verdict(req.Result),
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(flag)
}
