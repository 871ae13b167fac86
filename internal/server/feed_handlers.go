package server

import (
	"github.com/miro-4231/BackendSN/internal/models"

	"github.com/gofiber/fiber/v2"
)

// HotFeed handles GET /api/feed/hot
func (s *Server) HotFeed(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	posts, err := s.feedService.HotPosts(c.UserContext(), p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(posts)
}

// PersonalizedFeed handles GET /api/feed/personalized. Users without an
// interest vector yet get the hot feed.
func (s *Server) PersonalizedFeed(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	userID := c.Locals("userID").(uint)

	posts, err := s.feedService.Personalized(c.UserContext(), userID, p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(posts)
}

// SearchFeed handles GET /api/feed/search?q=
func (s *Server) SearchFeed(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Query parameter 'q' is required"))
	}

	p := parsePagination(c, 20)
	posts, err := s.feedService.Search(c.UserContext(), query, p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(posts)
}

// GetSimilarPosts handles GET /api/posts/:id/similar
func (s *Server) GetSimilarPosts(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id", "post ID")
	if err != nil {
		return nil
	}

	p := parsePagination(c, 20)
	posts, err := s.feedService.SimilarPosts(c.UserContext(), postID, p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(posts)
}
