package server

import (
	"epsylon/internal/models"
	"epsylon/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SendMessage handles POST /api/messages
func (s *Server) SendMessage(c *fiber.Ctx) error {
	ctx := c.Context()

	var req struct {
		RecipientID uint   `json:"recipient_id"`
		Content     string `json:"content"`
		ImageURL    string `json:"image_url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.RecipientID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("recipient_id is required"))
	}

	message, err := s.messageService.SendMessage(ctx, service.SendMessageInput{
		SenderID:    currentUserID(c),
		RecipientID: req.RecipientID,
		Content:     req.Content,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(message)
}

// GetConversations handles GET /api/messages
func (s *Server) GetConversations(c *fiber.Ctx) error {
	ctx := c.Context()

	conversations, err := s.messageService.ListConversations(ctx, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(conversations)
}

// GetConversation handles GET /api/messages/:userId
func (s *Server) GetConversation(c *fiber.Ctx) error {
	ctx := c.Context()
	partnerID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 50)

	messages, err := s.messageService.GetConversation(ctx, currentUserID(c), partnerID, page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(messages)
}

// MarkThreadRead handles POST /api/messages/:userId/read
func (s *Server) MarkThreadRead(c *fiber.Ctx) error {
	ctx := c.Context()
	partnerID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	if err := s.messageService.MarkThreadRead(ctx, currentUserID(c), partnerID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Conversation marked as read"})
}

// DeleteMessage handles DELETE /api/messages/:id
func (s *Server) DeleteMessage(c *fiber.Ctx) error {
	ctx := c.Context()
	messageID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.messageService.DeleteMessage(ctx, currentUserID(c), messageID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Message deleted"})
}

// GetUnreadMessageCount handles GET /api/messages/unread
func (s *Server) GetUnreadMessageCount(c *fiber.Ctx) error {
	ctx := c.Context()

	count, err := s.messageService.CountUnread(ctx, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"unread": count})
}
