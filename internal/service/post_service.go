package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/miro-4231/BackendSN/internal/embedding"
	"github.com/miro-4231/BackendSN/internal/middleware"
	"github.com/miro-4231/BackendSN/internal/models"
	"github.com/miro-4231/BackendSN/internal/repository"

	"gorm.io/gorm"
)

const (
	maxPostTitleLen   = 300
	maxPostContentLen = 40000

	// embedTimeout bounds the background embedding call per post.
	embedTimeout = 15 * time.Second
)

// PostService handles post CRUD and keeps content embeddings up to date.
type PostService struct {
	posts    repository.PostRepository
	embedder *embedding.Client
}

// NewPostService creates a new PostService.
func NewPostService(posts repository.PostRepository, embedder *embedding.Client) *PostService {
	return &PostService{posts: posts, embedder: embedder}
}

// Create stores a new post and kicks off its embedding in the background.
// The post is readable immediately; until the embedding lands it simply does
// not participate in similarity ranking.
func (s *PostService) Create(ctx context.Context, userID uint, title, content string) (*models.Post, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if err := validatePostFields(title, content); err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:     title,
		Content:   content,
		Published: true,
		UserID:    userID,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, models.NewInternalError(err)
	}

	s.embedAsync(post.ID, title, content)
	return post, nil
}

// GetByID returns a post with its author preloaded.
func (s *PostService) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("Post", id)
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return post, nil
}

// List returns posts newest first.
func (s *PostService) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	posts, err := s.posts.List(ctx, limit, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// Latest returns the most recently created post.
func (s *PostService) Latest(ctx context.Context) (*models.Post, error) {
	post, err := s.posts.Latest(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("Post", "latest")
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return post, nil
}

// Update rewrites a post's title and content. Only the author may update,
// and the embedding is recomputed since the text changed.
func (s *PostService) Update(ctx context.Context, userID, postID uint, title, content string) (*models.Post, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if err := validatePostFields(title, content); err != nil {
		return nil, err
	}

	post, err := s.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, models.NewUnauthorizedError("Only the author can update this post")
	}

	post.Title = title
	post.Content = content
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, models.NewInternalError(err)
	}

	s.embedAsync(post.ID, title, content)
	return post, nil
}

// Delete removes a post. Only the author may delete.
func (s *PostService) Delete(ctx context.Context, userID, postID uint) error {
	post, err := s.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return models.NewUnauthorizedError("Only the author can delete this post")
	}
	if err := s.posts.Delete(ctx, postID); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// embedAsync computes and stores the post's embedding off the request path.
// A disabled embedder or a failed call leaves the post without a vector,
// which the read surfaces already tolerate.
func (s *PostService) embedAsync(postID uint, title, content string) {
	if !s.embedder.Enabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), embedTimeout)
		defer cancel()

		vec, err := s.embedder.EmbedVector(ctx, title+"\n\n"+content)
		if err != nil {
			middleware.Logger.Warn("post embedding failed",
				slog.Uint64("post_id", uint64(postID)),
				slog.String("error", err.Error()),
			)
			return
		}
		if err := s.posts.SetEmbedding(ctx, postID, vec); err != nil {
			middleware.Logger.Warn("post embedding store failed",
				slog.Uint64("post_id", uint64(postID)),
				slog.String("error", err.Error()),
			)
		}
	}()
}

func validatePostFields(title, content string) error {
	if title == "" {
		return models.NewValidationError("Title must not be empty")
	}
	if len(title) > maxPostTitleLen {
		return models.NewValidationError("Title is too long")
	}
	if content == "" {
		return models.NewValidationError("Content must not be empty")
	}
	if len(content) > maxPostContentLen {
		return models.NewValidationError("Content is too long")
	}
	return nil
}
