package server

import (
	"github.com/miro-4231/BackendSN/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CastVote handles POST /api/votes/:kind/:id
func (s *Server) CastVote(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id", "target ID")
	if err != nil {
		return nil
	}
	kind := models.TargetKind(c.Params("kind"))

	// Body is optional; an empty cast is a plain upvote.
	var req struct {
		Direction int  `json:"direction"`
		Super     bool `json:"super"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
	}
	if req.Direction == 0 {
		req.Direction = 1
	}

	userID := c.Locals("userID").(uint)
	vote, err := s.voteService.Cast(c.UserContext(), userID, kind, targetID, req.Direction, req.Super)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(vote)
}

// RetractVote handles DELETE /api/votes/:kind/:id
func (s *Server) RetractVote(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id", "target ID")
	if err != nil {
		return nil
	}
	kind := models.TargetKind(c.Params("kind"))

	userID := c.Locals("userID").(uint)
	if err := s.voteService.Retract(c.UserContext(), userID, kind, targetID); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
