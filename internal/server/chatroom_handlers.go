package server

import (
	"epsylon/internal/models"
	"epsylon/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateChatRoom handles POST /api/chatrooms
func (s *Server) CreateChatRoom(c *fiber.Ctx) error {
	ctx := c.Context()

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		IconURL     string `json:"icon_url"`
		IsPrivate   bool   `json:"is_private"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	room, err := s.chatRoomService.CreateRoom(ctx, service.CreateRoomInput{
		CreatorID:   currentUserID(c),
		Name:        req.Name,
		Description: req.Description,
		IconURL:     req.IconURL,
		IsPrivate:   req.IsPrivate,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(room)
}

// GetChatRooms handles GET /api/chatrooms
func (s *Server) GetChatRooms(c *fiber.Ctx) error {
	ctx := c.Context()
	page := parsePagination(c, 20)

	rooms, err := s.chatRoomService.ListUserRooms(ctx, currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(rooms)
}

// GetChatRoom handles GET /api/chatrooms/:id
func (s *Server) GetChatRoom(c *fiber.Ctx) error {
	ctx := c.Context()
	roomID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	room, err := s.chatRoomService.GetRoom(ctx, roomID, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(room)
}

// GetChatRoomMembers handles GET /api/chatrooms/:id/members
func (s *Server) GetChatRoomMembers(c *fiber.Ctx) error {
	ctx := c.Context()
	roomID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	members, err := s.chatRoomService.GetMembers(ctx, roomID, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(members)
}

// AddChatRoomMember handles POST /api/chatrooms/:id/members
// An empty body joins the caller; a body with user_id invites that user.
func (s *Server) AddChatRoomMember(c *fiber.Ctx) error {
	ctx := c.Context()
	roomID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		UserID uint `json:"user_id"`
	}
	_ = c.BodyParser(&req)
	target := req.UserID
	if target == 0 {
		target = currentUserID(c)
	}

	result, err := s.chatRoomService.AddMember(ctx, roomID, currentUserID(c), target)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}

// RemoveChatRoomMember handles DELETE /api/chatrooms/:id/members/:userId
func (s *Server) RemoveChatRoomMember(c *fiber.Ctx) error {
	ctx := c.Context()
	roomID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	if err := s.chatRoomService.RemoveMember(ctx, roomID, currentUserID(c), userID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Member removed"})
}

// SendChatRoomMessage handles POST /api/chatrooms/:id/messages
func (s *Server) SendChatRoomMessage(c *fiber.Ctx) error {
	ctx := c.Context()
	roomID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content  string `json:"content"`
		ImageURL string `json:"image_url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	message, err := s.chatRoomService.SendMessage(ctx, service.SendRoomMessageInput{
		RoomID:   roomID,
		UserID:   currentUserID(c),
		Content:  req.Content,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(message)
}

// GetChatRoomMessages handles GET /api/chatrooms/:id/messages
func (s *Server) GetChatRoomMessages(c *fiber.Ctx) error {
	ctx := c.Context()
	roomID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 50)

	messages, err := s.chatRoomService.GetMessages(ctx, roomID, currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(messages)
}
