package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/miro-4231/BackendSN/internal/middleware"
	"github.com/miro-4231/BackendSN/internal/models"
	"github.com/miro-4231/BackendSN/internal/repository"

	"gorm.io/gorm"
)

const maxCommentLen = 10000

// CommentService handles the comment tree under posts. Deletions tombstone
// rather than remove, so replies never lose their parent.
type CommentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
}

// NewCommentService creates a new CommentService.
func NewCommentService(comments repository.CommentRepository, posts repository.PostRepository) *CommentService {
	return &CommentService{comments: comments, posts: posts}
}

// Create adds a comment to a post, optionally as a reply to parentID. The
// parent must exist and belong to the same post.
func (s *CommentService) Create(ctx context.Context, userID, postID uint, parentID *uint, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if err := validateCommentContent(content); err != nil {
		return nil, err
	}

	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", postID)
		}
		return nil, models.NewInternalError(err)
	}

	if parentID != nil {
		parent, err := s.comments.GetByID(ctx, *parentID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", *parentID)
		}
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		if parent.PostID != postID {
			return nil, models.NewValidationError("Parent comment belongs to a different post")
		}
	}

	comment := &models.Comment{
		Content:  content,
		UserID:   &userID,
		PostID:   postID,
		ParentID: parentID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, models.NewInternalError(err)
	}

	if err := s.posts.AddCommentsCount(ctx, postID, 1); err != nil {
		// The comment exists either way; a drifted counter is
		// recoverable, a failed create is not.
		middleware.Logger.Warn("comments counter increment failed",
			slog.Uint64("post_id", uint64(postID)),
			slog.String("error", err.Error()),
		)
	}
	return comment, nil
}

// GetByID returns one comment, tombstoned or not.
func (s *CommentService) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	comment, err := s.comments.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("Comment", id)
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comment, nil
}

// ListByPost returns a page of a post's comments, oldest first, tombstones
// included so the tree renders intact.
func (s *CommentService) ListByPost(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", postID)
		}
		return nil, models.NewInternalError(err)
	}

	comments, err := s.comments.ListByPost(ctx, postID, limit, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

// Update rewrites a comment's content. Only the author may edit, and a
// tombstoned comment has no author left to edit it.
func (s *CommentService) Update(ctx context.Context, userID, commentID uint, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if err := validateCommentContent(content); err != nil {
		return nil, err
	}

	comment, err := s.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.IsDeleted {
		return nil, models.NewNotFoundError("Comment", commentID)
	}
	if comment.UserID == nil || *comment.UserID != userID {
		return nil, models.NewUnauthorizedError("Only the author can update this comment")
	}

	if err := s.comments.UpdateContent(ctx, commentID, content); err != nil {
		return nil, models.NewInternalError(err)
	}
	comment.Content = content
	return comment, nil
}

// Delete tombstones a comment and decrements its post's comment counter.
// Only the author may delete; deleting twice reads as not found.
func (s *CommentService) Delete(ctx context.Context, userID, commentID uint) error {
	comment, err := s.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.IsDeleted {
		return models.NewNotFoundError("Comment", commentID)
	}
	if comment.UserID == nil || *comment.UserID != userID {
		return models.NewUnauthorizedError("Only the author can delete this comment")
	}

	if err := s.comments.Tombstone(ctx, commentID); err != nil {
		return models.NewInternalError(err)
	}
	if err := s.posts.AddCommentsCount(ctx, comment.PostID, -1); err != nil {
		middleware.Logger.Warn("comments counter decrement failed",
			slog.Uint64("post_id", uint64(comment.PostID)),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

func validateCommentContent(content string) error {
	if content == "" {
		return models.NewValidationError("Comment must not be empty")
	}
	if len(content) > maxCommentLen {
		return models.NewValidationError("Comment is too long")
	}
	return nil
}
