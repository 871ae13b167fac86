package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/miro-4231/BackendSN/internal/cache"
	"github.com/miro-4231/BackendSN/internal/embedding"
	"github.com/miro-4231/BackendSN/internal/models"
	"github.com/miro-4231/BackendSN/internal/repository"

	"gorm.io/gorm"
)

// FeedService assembles the ranked read surfaces: the global hot feed, the
// similar-posts rank, the personalized feed, and semantic search.
type FeedService struct {
	posts    repository.PostRepository
	users    repository.UserRepository
	embedder *embedding.Client
	pages    *cache.PageCache
}

// NewFeedService creates a new FeedService.
func NewFeedService(
	posts repository.PostRepository,
	users repository.UserRepository,
	embedder *embedding.Client,
	pages *cache.PageCache,
) *FeedService {
	return &FeedService{posts: posts, users: users, embedder: embedder, pages: pages}
}

// HotPosts returns a page of the global hot feed. Pages are served from the
// short-TTL cache when possible; the ranking itself runs in the store.
func (s *FeedService) HotPosts(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	key := fmt.Sprintf("feed:hot:%d:%d", limit, offset)

	var cached []*models.Post
	if s.pages.Get(ctx, key, &cached) {
		return cached, nil
	}

	posts, err := s.posts.ListHot(ctx, limit, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	s.pages.Set(ctx, key, posts)
	return posts, nil
}

// SimilarPosts ranks other posts by cosine distance to the given post's
// embedding. An anchor without an embedding (created while the embedding
// service was down) falls back to the hot feed.
func (s *FeedService) SimilarPosts(ctx context.Context, postID uint, limit, offset int) ([]*models.Post, error) {
	anchor, err := s.posts.GetByID(ctx, postID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("Post", postID)
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if anchor.Embedding == nil {
		return s.HotPosts(ctx, limit, offset)
	}

	posts, err := s.posts.ListNearest(ctx, *anchor.Embedding, postID, limit, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// Personalized returns posts nearest to the user's interest vector. Users
// with no interest history yet get the hot feed instead.
func (s *FeedService) Personalized(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	interests, err := s.users.GetInterests(ctx, userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if interests == nil {
		return s.HotPosts(ctx, limit, offset)
	}

	posts, err := s.posts.ListNearest(ctx, *interests, 0, limit, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// Search embeds the query text and ranks posts by distance to it.
func (s *FeedService) Search(ctx context.Context, query string, limit, offset int) ([]*models.Post, error) {
	if query == "" {
		return nil, models.NewValidationError("Search query must not be empty")
	}

	vec, err := s.embedder.EmbedVector(ctx, query)
	if errors.Is(err, embedding.ErrDisabled) {
		return nil, models.NewValidationError("Semantic search is not available")
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	posts, err := s.posts.ListNearest(ctx, vec, 0, limit, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// HotScore computes the hot-rank value the store's ORDER BY expression uses,
// for callers that need the number itself (tests, debugging endpoints).
func HotScore(score int, createdAt time.Time) float64 {
	magnitude := math.Abs(float64(score))
	if magnitude < 1 {
		magnitude = 1
	}
	age := float64(createdAt.Unix() - repository.HotRankEpoch0)
	return math.Log10(magnitude) + age/float64(repository.HotRankDecay)
}
